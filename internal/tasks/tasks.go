// package tasks implements library management operations against Spotify.
//
// The core abstraction is LibraryEngine, which orchestrates sampling,
// visibility updates, liked-song syncs, and cache refreshes. Operations emit
// progress updates via channels for non-blocking status reporting to CLI/UI
// layers.
package tasks

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"spooty/internal/models"
	"spooty/internal/repositories"
	"spooty/internal/services"
	"spooty/internal/shared"
)

// SampleOpts contains configuration for a backlog sample.
type SampleOpts struct {
	PlaylistID string // Playlist ID or exact name
	Size       int    // Number of tracks to sample
	Genre      string // Optional genre filter (case-insensitive substring)
	Dedup      bool   // Drop duplicate tracks before sampling
}

// SampleResult contains the outcome of a sampling run.
type SampleResult struct {
	Playlist   models.Playlist // Source playlist metadata
	Tracks     []models.Track  // Sampled tracks
	Population int             // Pool size after filtering and dedup
	Requested  int             // Requested sample size
}

// VisibilityResult represents the outcome of a single visibility update.
type VisibilityResult struct {
	PlaylistID string
	Name       string
	Public     bool
	Success    bool
	Error      error
}

// BulkVisibilityResult aggregates a bulk visibility run.
type BulkVisibilityResult struct {
	Total   int
	Updated int
	Failed  int
	Results []VisibilityResult
}

// SyncResult contains the outcome of a liked-song sync.
type SyncResult struct {
	Source  models.Playlist // Source playlist
	Dest    models.Playlist // Destination playlist
	Total   int             // Tracks examined in the source
	Liked   int             // Source tracks present in liked songs
	Added   int             // Tracks actually added to the destination
	Created bool            // Whether the destination was created by this run
}

// BeatsResult contains the outcome of a frequency playlist build.
type BeatsResult struct {
	Playlist models.Playlist
	Found    int  // Search results returned
	Added    int  // Tracks added to the playlist
	Created  bool // Whether the playlist was created by this run
}

// Engine defines library management operations.
type Engine interface {
	// Sample draws a uniform random sample without replacement from a playlist.
	Sample(ctx context.Context, progress chan<- ProgressUpdate, opts SampleOpts) (*SampleResult, error)

	// SaveSample persists a sample back to Spotify as a new private playlist.
	SaveSample(ctx context.Context, progress chan<- ProgressUpdate, sample *SampleResult, label string) (*models.Playlist, error)

	// SetVisibility flips the public flag of one playlist.
	SetVisibility(ctx context.Context, playlistID string, public bool) error

	// BulkVisibility applies a visibility flag to many playlists, collecting partial failures.
	BulkVisibility(ctx context.Context, progress chan<- ProgressUpdate, ids []string, public bool) (*BulkVisibilityResult, error)

	// SyncLiked copies the liked subset of a source playlist into a destination playlist.
	SyncLiked(ctx context.Context, progress chan<- ProgressUpdate, sourceID, destID, destName string) (*SyncResult, error)

	// BuildFrequencyPlaylist builds a binaural beats playlist from search results.
	BuildFrequencyPlaylist(ctx context.Context, progress chan<- ProgressUpdate, minHz, maxHz int) (*BeatsResult, error)

	// RefreshLibrary pulls playlists, tracks, and artist genres into the local cache.
	RefreshLibrary(ctx context.Context, progress chan<- ProgressUpdate, opts RefreshOpts) (*RefreshResult, error)
}

// Cache groups the repositories backing the local library cache.
//
// A nil Cache disables caching; engine operations that only read or write the
// cache opportunistically skip it.
type Cache struct {
	Playlists *repositories.PlaylistRepository
	Tracks    *repositories.TrackRepository
	Artists   *repositories.ArtistRepository
}

// NewCache creates a Cache over an open database connection.
func NewCache(db *sql.DB) *Cache {
	return &Cache{
		Playlists: repositories.NewPlaylistRepository(db),
		Tracks:    repositories.NewTrackRepository(db),
		Artists:   repositories.NewArtistRepository(db),
	}
}

var _ Engine = (*LibraryEngine)(nil)

// LibraryEngine implements Engine against a Spotify-backed service.
type LibraryEngine struct {
	service services.Service
	cache   *Cache
	rng     *rand.Rand
}

// NewLibraryEngine creates a LibraryEngine. cache may be nil when no local
// database is configured.
func NewLibraryEngine(service services.Service, cache *Cache) *LibraryEngine {
	return &LibraryEngine{
		service: service,
		cache:   cache,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetRand replaces the sampling source. Used by tests for determinism.
func (e *LibraryEngine) SetRand(r *rand.Rand) {
	e.rng = r
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *LibraryEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// resolvePlaylist exports a playlist by ID, falling back to an exact name
// match against the user's playlists.
func (e *LibraryEngine) resolvePlaylist(ctx context.Context, idOrName string) (*models.PlaylistExport, error) {
	export, err := e.service.ExportPlaylist(ctx, idOrName)
	if err == nil {
		return export, nil
	}

	playlists, listErr := e.service.GetPlaylists(ctx)
	if listErr != nil {
		return nil, fmt.Errorf("%w: failed to get playlists: %v", shared.ErrAPIRequest, listErr)
	}

	for _, pl := range playlists {
		if pl.Name == idOrName {
			return e.service.ExportPlaylist(ctx, pl.ID)
		}
	}

	return nil, fmt.Errorf("%w: no playlist found with name '%s'", shared.ErrPlaylistNotFound, idOrName)
}

// Sample draws a uniform random sample without replacement from a playlist.
//
// The pool is optionally narrowed by a genre filter on artist genres and
// de-duplicated by track ID before sampling. Sample order carries no meaning.
func (e *LibraryEngine) Sample(ctx context.Context, progress chan<- ProgressUpdate, opts SampleOpts) (*SampleResult, error) {
	if e.service == nil {
		return nil, fmt.Errorf("%w: service not initialized", shared.ErrServiceUnavailable)
	}
	if opts.Size <= 0 {
		return nil, fmt.Errorf("%w: sample size must be positive, got %d", shared.ErrInvalidArgument, opts.Size)
	}

	e.sendProgress(progress, fetchTracksUpdate(1, 1, opts.PlaylistID))

	export, err := e.resolvePlaylist(ctx, opts.PlaylistID)
	if err != nil {
		return nil, err
	}

	e.sendProgress(progress, foundPlaylistUpdate(1, 1, export))

	pool := export.Tracks

	if opts.Dedup {
		pool = dedupTracks(pool)
	}

	if opts.Genre != "" {
		e.sendProgress(progress, fetchArtistsUpdate(1, 1))
		pool, err = e.filterByGenre(ctx, pool, opts.Genre)
		if err != nil {
			return nil, err
		}
	}

	if len(pool) == 0 {
		return nil, fmt.Errorf("%w: %s", shared.ErrEmptyPlaylist, export.Playlist.Name)
	}

	e.sendProgress(progress, samplingUpdate(opts.Size, len(pool)))

	result := &SampleResult{
		Playlist:   export.Playlist,
		Population: len(pool),
		Requested:  opts.Size,
	}

	indices := make([]int, len(pool))
	for i := range indices {
		indices[i] = i
	}
	e.rng.Shuffle(len(indices), func(i, j int) {
		indices[i], indices[j] = indices[j], indices[i]
	})

	size := min(opts.Size, len(pool))
	result.Tracks = make([]models.Track, 0, size)
	for _, idx := range indices[:size] {
		result.Tracks = append(result.Tracks, pool[idx])
	}

	return result, nil
}

// dedupTracks removes duplicate tracks, keeping the first occurrence.
// Tracks without an ID fall back to a normalized title/artist key.
func dedupTracks(tracks []models.Track) []models.Track {
	seen := make(map[string]bool, len(tracks))
	out := make([]models.Track, 0, len(tracks))

	for _, track := range tracks {
		key := track.ID
		if key == "" {
			key = shared.NormalizeTrackKey(track.Title, track.Artist)
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, track)
	}

	return out
}

// filterByGenre keeps tracks whose primary artist has a genre containing the
// given substring. Artist genres come from the local cache when available,
// with the remainder fetched in batches and cached for future runs.
func (e *LibraryEngine) filterByGenre(ctx context.Context, tracks []models.Track, genre string) ([]models.Track, error) {
	genres := make(map[string][]string)
	var missing []string

	for _, track := range tracks {
		if track.ArtistID == "" {
			continue
		}
		if _, ok := genres[track.ArtistID]; ok {
			continue
		}

		if e.cache != nil && e.cache.Artists != nil {
			if cached, err := e.cache.Artists.GetBySpotifyID(track.ArtistID); err == nil {
				genres[track.ArtistID] = cached.Genres()
				continue
			}
		}

		genres[track.ArtistID] = nil
		missing = append(missing, track.ArtistID)
	}

	if len(missing) > 0 {
		artists, err := e.service.GetArtists(ctx, missing)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to fetch artist genres: %v", shared.ErrAPIRequest, err)
		}

		for _, artist := range artists {
			genres[artist.ID] = artist.Genres

			if e.cache != nil && e.cache.Artists != nil {
				e.cache.Artists.Upsert(models.NewCachedArtist(0, artist))
			}
		}
	}

	needle := strings.ToLower(genre)
	out := make([]models.Track, 0, len(tracks))
	for _, track := range tracks {
		for _, g := range genres[track.ArtistID] {
			if strings.Contains(strings.ToLower(g), needle) {
				out = append(out, track)
				break
			}
		}
	}

	return out, nil
}

// SaveSample creates a private playlist named "Sample Playlist - {label}" and
// adds the sampled tracks to it.
func (e *LibraryEngine) SaveSample(ctx context.Context, progress chan<- ProgressUpdate, sample *SampleResult, label string) (*models.Playlist, error) {
	if e.service == nil {
		return nil, fmt.Errorf("%w: service not initialized", shared.ErrServiceUnavailable)
	}
	if sample == nil || len(sample.Tracks) == 0 {
		return nil, fmt.Errorf("%w: nothing to save", shared.ErrEmptyPlaylist)
	}

	if label == "" {
		label = sample.Playlist.Name
	}

	name := fmt.Sprintf("Sample Playlist - %s", label)
	description := fmt.Sprintf("%d track sample of %s", len(sample.Tracks), sample.Playlist.Name)

	playlist, err := e.service.CreatePlaylist(ctx, name, description, false)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create playlist: %v", shared.ErrAPIRequest, err)
	}

	e.sendProgress(progress, createPlaylistUpdate(playlist))

	uris := trackURIs(sample.Tracks)
	if len(uris) > 0 {
		e.sendProgress(progress, addTracksUpdate(len(uris), playlist.Name))
		if err := e.service.AddTracks(ctx, playlist.ID, uris); err != nil {
			return playlist, fmt.Errorf("%w: playlist created but adding tracks failed: %v", shared.ErrAPIRequest, err)
		}
	}

	playlist.TrackCount = len(uris)
	return playlist, nil
}

// trackURIs collects the Spotify URIs of tracks, skipping local tracks that
// have none.
func trackURIs(tracks []models.Track) []string {
	uris := make([]string, 0, len(tracks))
	for _, track := range tracks {
		if track.URI != "" {
			uris = append(uris, track.URI)
		}
	}
	return uris
}

// SetVisibility flips the public flag of one playlist. The cached row, when
// present, is updated only after the API call succeeds.
func (e *LibraryEngine) SetVisibility(ctx context.Context, playlistID string, public bool) error {
	if e.service == nil {
		return fmt.Errorf("%w: service not initialized", shared.ErrServiceUnavailable)
	}

	if err := e.service.SetPlaylistVisibility(ctx, playlistID, public); err != nil {
		return err
	}

	if e.cache != nil && e.cache.Playlists != nil {
		// Cache misses are fine, the row may simply never have been fetched.
		e.cache.Playlists.SetVisibility(playlistID, public)
	}

	return nil
}

// BulkVisibility applies a visibility flag to many playlists sequentially
// under a shared rate limiter. Failures are collected per playlist and never
// abort the run.
func (e *LibraryEngine) BulkVisibility(ctx context.Context, progress chan<- ProgressUpdate, ids []string, public bool) (*BulkVisibilityResult, error) {
	if e.service == nil {
		return nil, fmt.Errorf("%w: service not initialized", shared.ErrServiceUnavailable)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no playlists given", shared.ErrInvalidArgument)
	}

	result := &BulkVisibilityResult{
		Total:   len(ids),
		Results: make([]VisibilityResult, 0, len(ids)),
	}

	limiter := newAPILimiter()

	for i, id := range ids {
		if err := limiter.Wait(ctx); err != nil {
			return result, fmt.Errorf("%w: %v", shared.ErrTimeout, err)
		}

		res := VisibilityResult{PlaylistID: id, Name: id, Public: public}

		if err := e.SetVisibility(ctx, id, public); err != nil {
			res.Error = err
			result.Failed++
			e.sendProgress(progress, visibilityFailedUpdate(i+1, len(ids), id, err))
		} else {
			res.Success = true
			result.Updated++
			e.sendProgress(progress, visibilityUpdate(i+1, len(ids), id, public))
		}

		result.Results = append(result.Results, res)
	}

	return result, nil
}

// SyncLiked copies the liked subset of a source playlist into a destination
// playlist, creating the destination (private) when no ID is given.
func (e *LibraryEngine) SyncLiked(ctx context.Context, progress chan<- ProgressUpdate, sourceID, destID, destName string) (*SyncResult, error) {
	if e.service == nil {
		return nil, fmt.Errorf("%w: service not initialized", shared.ErrServiceUnavailable)
	}

	e.sendProgress(progress, fetchTracksUpdate(1, 2, sourceID))

	source, err := e.resolvePlaylist(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if len(source.Tracks) == 0 {
		return nil, fmt.Errorf("%w: %s", shared.ErrEmptyPlaylist, source.Playlist.Name)
	}

	result := &SyncResult{
		Source: source.Playlist,
		Total:  len(source.Tracks),
	}

	e.sendProgress(progress, fetchLikedUpdate(2, 2))

	ids := make([]string, len(source.Tracks))
	for i, track := range source.Tracks {
		ids[i] = track.ID
	}

	liked, err := e.service.LikedContains(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to check liked songs: %v", shared.ErrAPIRequest, err)
	}
	if len(liked) != len(ids) {
		return nil, fmt.Errorf("%w: liked songs response length mismatch", shared.ErrAPIRequest)
	}

	var likedTracks []models.Track
	for i, isLiked := range liked {
		if isLiked {
			likedTracks = append(likedTracks, source.Tracks[i])
		}
	}
	result.Liked = len(likedTracks)

	if len(likedTracks) == 0 {
		return result, nil
	}

	existing := make(map[string]bool)
	var dest *models.Playlist

	if destID != "" {
		destExport, err := e.service.ExportPlaylist(ctx, destID)
		if err != nil {
			return nil, fmt.Errorf("%w: destination: %v", shared.ErrPlaylistNotFound, err)
		}
		dest = &destExport.Playlist
		for _, track := range destExport.Tracks {
			existing[track.ID] = true
		}
	} else {
		if destName == "" {
			destName = fmt.Sprintf("Liked from %s", source.Playlist.Name)
		}
		dest, err = e.service.CreatePlaylist(ctx, destName,
			fmt.Sprintf("Liked songs from %s", source.Playlist.Name), false)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to create playlist: %v", shared.ErrAPIRequest, err)
		}
		result.Created = true
		e.sendProgress(progress, createPlaylistUpdate(dest))
	}

	var toAdd []models.Track
	for _, track := range likedTracks {
		if !existing[track.ID] {
			toAdd = append(toAdd, track)
		}
	}

	uris := trackURIs(toAdd)
	if len(uris) > 0 {
		e.sendProgress(progress, addTracksUpdate(len(uris), dest.Name))
		if err := e.service.AddTracks(ctx, dest.ID, uris); err != nil {
			return result, fmt.Errorf("%w: failed to add tracks: %v", shared.ErrAPIRequest, err)
		}
	}

	result.Dest = *dest
	result.Added = len(uris)
	return result, nil
}

// BuildFrequencyPlaylist searches for binaural beats tracks in a frequency
// range and collects the results in a "Binaural Beats {min}-{max} Hz"
// playlist, creating it (private) when absent.
func (e *LibraryEngine) BuildFrequencyPlaylist(ctx context.Context, progress chan<- ProgressUpdate, minHz, maxHz int) (*BeatsResult, error) {
	if e.service == nil {
		return nil, fmt.Errorf("%w: service not initialized", shared.ErrServiceUnavailable)
	}
	if minHz <= 0 || maxHz <= minHz {
		return nil, fmt.Errorf("%w: frequency range %d-%d Hz", shared.ErrInvalidArgument, minHz, maxHz)
	}

	query := fmt.Sprintf("binaural beats %dHz %dHz", minHz, maxHz)
	e.sendProgress(progress, searchTracksUpdate(query))

	tracks, err := e.service.SearchTracks(ctx, query, 50)
	if err != nil {
		return nil, fmt.Errorf("%w: search failed: %v", shared.ErrAPIRequest, err)
	}
	if len(tracks) == 0 {
		return nil, fmt.Errorf("%w: no tracks found for %s", shared.ErrTrackNotFound, query)
	}

	result := &BeatsResult{Found: len(tracks)}

	name := fmt.Sprintf("Binaural Beats %d-%d Hz", minHz, maxHz)

	e.sendProgress(progress, fetchPlaylistsUpdate(1, 1))
	playlists, err := e.service.GetPlaylists(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get playlists: %v", shared.ErrAPIRequest, err)
	}

	existing := make(map[string]bool)
	var playlist *models.Playlist

	for i := range playlists {
		if playlists[i].Name == name {
			playlist = &playlists[i]
			break
		}
	}

	if playlist == nil {
		playlist, err = e.service.CreatePlaylist(ctx, name,
			fmt.Sprintf("Binaural beats between %d and %d Hz", minHz, maxHz), false)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to create playlist: %v", shared.ErrAPIRequest, err)
		}
		result.Created = true
		e.sendProgress(progress, createPlaylistUpdate(playlist))
	} else {
		export, err := e.service.ExportPlaylist(ctx, playlist.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read existing playlist: %v", shared.ErrAPIRequest, err)
		}
		for _, track := range export.Tracks {
			existing[track.ID] = true
		}
	}

	var toAdd []models.Track
	for _, track := range tracks {
		if !existing[track.ID] {
			toAdd = append(toAdd, track)
		}
	}

	uris := trackURIs(toAdd)
	if len(uris) > 0 {
		e.sendProgress(progress, addTracksUpdate(len(uris), playlist.Name))
		if err := e.service.AddTracks(ctx, playlist.ID, uris); err != nil {
			return result, fmt.Errorf("%w: failed to add tracks: %v", shared.ErrAPIRequest, err)
		}
	}

	result.Playlist = *playlist
	result.Added = len(uris)
	return result, nil
}
