package tasks

import (
	"fmt"

	"spooty/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchPlaylists Phase = iota
	FetchTracks
	FetchArtists
	FetchLiked
	Sampling
	CreatePlaylist
	AddTracks
	UpdateVisibility
	SearchTracks
	CacheWrite
)

func (p Phase) String() string {
	switch p {
	case FetchPlaylists:
		return "fetch_playlists"
	case FetchTracks:
		return "fetch_tracks"
	case FetchArtists:
		return "fetch_artists"
	case FetchLiked:
		return "fetch_liked"
	case Sampling:
		return "sampling"
	case CreatePlaylist:
		return "create_playlist"
	case AddTracks:
		return "add_tracks"
	case UpdateVisibility:
		return "update_visibility"
	case SearchTracks:
		return "search_tracks"
	case CacheWrite:
		return "cache_write"
	default:
		return ""
	}
}

func fetchPlaylistsUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylists,
		Step:    step,
		Total:   total,
		Message: "Fetching playlists from Spotify...",
	}
}

func fetchTracksUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetching tracks (%s)...", name),
	}
}

func foundPlaylistUpdate(step, total int, export *models.PlaylistExport) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Found playlist: %s (%d tracks)", export.Playlist.Name, len(export.Tracks)),
		Data:    export,
	}
}

func fetchArtistsUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchArtists,
		Step:    step,
		Total:   total,
		Message: "Fetching artist genres...",
	}
}

func fetchLikedUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchLiked,
		Step:    step,
		Total:   total,
		Message: "Checking liked songs...",
	}
}

func samplingUpdate(size, population int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Sampling,
		Step:    size,
		Total:   population,
		Message: fmt.Sprintf("Sampling %d of %d tracks...", size, population),
	}
}

func createPlaylistUpdate(pl *models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Playlist created: %s (ID: %s)", pl.Name, pl.ID),
		Data:    pl,
	}
}

func addTracksUpdate(count int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AddTracks,
		Step:    count,
		Total:   count,
		Message: fmt.Sprintf("Adding %d tracks to %s...", count, name),
	}
}

func visibilityUpdate(step, total int, name string, public bool) ProgressUpdate {
	state := "private"
	if public {
		state = "public"
	}
	return ProgressUpdate{
		Phase:   UpdateVisibility,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s → %s", step, total, name, state),
	}
}

func visibilityFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   UpdateVisibility,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}

func searchTracksUpdate(query string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchTracks,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Searching: %s...", query),
	}
}

func cacheWriteUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CacheWrite,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Cached: %s", step, total, name),
	}
}
