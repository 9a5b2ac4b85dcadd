package tasks

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"spooty/internal/models"
	"spooty/internal/shared"
)

// RefreshOpts contains configuration for a library cache refresh.
type RefreshOpts struct {
	NumWorkers int     // Concurrent workers (default: 5, capped at 10)
	RateLimit  float64 // Requests per second (default: 5)
}

// RefreshError records a playlist that failed to refresh.
type RefreshError struct {
	PlaylistID string
	Name       string
	Err        error
}

// RefreshResult summarizes a library cache refresh.
type RefreshResult struct {
	Playlists int            // Playlists cached
	Tracks    int            // Tracks cached
	Artists   int            // Artists cached
	Errors    []RefreshError // Playlists that failed to refresh
}

// refreshJob carries one playlist through the worker pool.
type refreshJob struct {
	playlist models.Playlist
}

// refreshOutcome is a single worker's result for one playlist.
type refreshOutcome struct {
	playlist  models.Playlist
	tracks    []models.Track
	artistIDs []string
	err       error
}

// newAPILimiter returns the shared limiter used for write-heavy API loops.
func newAPILimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Limit(5), 1)
}

// RefreshLibrary walks the user's playlists, their tracks, and the artists
// behind those tracks, persisting everything to the local cache.
//
// Uses a worker pool with a shared rate limiter so large libraries refresh
// quickly without tripping API limits. Per-playlist failures are collected in
// the result rather than aborting the run.
func (e *LibraryEngine) RefreshLibrary(ctx context.Context, progress chan<- ProgressUpdate, opts RefreshOpts) (*RefreshResult, error) {
	if e.service == nil {
		return nil, fmt.Errorf("%w: service not initialized", shared.ErrServiceUnavailable)
	}
	if e.cache == nil {
		return nil, fmt.Errorf("%w: no cache database configured", shared.ErrMissingConfig)
	}

	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 5
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	e.sendProgress(progress, fetchPlaylistsUpdate(1, 1))

	playlists, err := e.service.GetPlaylists(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get playlists: %v", shared.ErrAPIRequest, err)
	}

	result := &RefreshResult{}
	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan refreshJob, len(playlists))
	outcomes := make(chan refreshOutcome, len(playlists))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.refreshWorker(ctx, &wg, limiter, jobs, outcomes)
	}

	for _, pl := range playlists {
		jobs <- refreshJob{playlist: pl}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	artistIDs := make(map[string]bool)
	completed := 0

	for outcome := range outcomes {
		completed++

		if outcome.err != nil {
			result.Errors = append(result.Errors, RefreshError{
				PlaylistID: outcome.playlist.ID,
				Name:       outcome.playlist.Name,
				Err:        outcome.err,
			})
			continue
		}

		if err := e.cachePlaylist(outcome.playlist, outcome.tracks); err != nil {
			result.Errors = append(result.Errors, RefreshError{
				PlaylistID: outcome.playlist.ID,
				Name:       outcome.playlist.Name,
				Err:        err,
			})
			continue
		}

		result.Playlists++
		result.Tracks += len(outcome.tracks)
		for _, id := range outcome.artistIDs {
			artistIDs[id] = true
		}

		e.sendProgress(progress, cacheWriteUpdate(completed, len(playlists), outcome.playlist.Name))
	}

	if len(artistIDs) > 0 {
		e.sendProgress(progress, fetchArtistsUpdate(1, 1))

		ids := make([]string, 0, len(artistIDs))
		for id := range artistIDs {
			ids = append(ids, id)
		}

		artists, err := e.service.GetArtists(ctx, ids)
		if err != nil {
			result.Errors = append(result.Errors, RefreshError{Name: "artists", Err: err})
		} else {
			for _, artist := range artists {
				if _, err := e.cache.Artists.Upsert(models.NewCachedArtist(0, artist)); err != nil {
					result.Errors = append(result.Errors, RefreshError{Name: artist.Name, Err: err})
					continue
				}
				result.Artists++
			}
		}
	}

	return result, nil
}

// refreshWorker exports playlists from the jobs channel under the shared limiter.
func (e *LibraryEngine) refreshWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	jobs <-chan refreshJob,
	outcomes chan<- refreshOutcome,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			outcomes <- refreshOutcome{playlist: job.playlist, err: ctx.Err()}
			continue
		default:
		}

		if err := limiter.Wait(ctx); err != nil {
			outcomes <- refreshOutcome{playlist: job.playlist, err: err}
			continue
		}

		export, err := e.service.ExportPlaylist(ctx, job.playlist.ID)
		if err != nil {
			outcomes <- refreshOutcome{playlist: job.playlist, err: err}
			continue
		}

		outcome := refreshOutcome{
			playlist: export.Playlist,
			tracks:   export.Tracks,
		}

		seen := make(map[string]bool)
		for _, track := range export.Tracks {
			if track.ArtistID != "" && !seen[track.ArtistID] {
				seen[track.ArtistID] = true
				outcome.artistIDs = append(outcome.artistIDs, track.ArtistID)
			}
		}

		outcomes <- outcome
	}
}

// cachePlaylist persists one playlist and its tracks, rebuilding the join
// table so cached ordering matches Spotify.
func (e *LibraryEngine) cachePlaylist(playlist models.Playlist, tracks []models.Track) error {
	cached, err := e.cache.Playlists.Upsert(models.NewCachedPlaylist(0, playlist.OwnerID, playlist))
	if err != nil {
		return fmt.Errorf("failed to cache playlist: %w", err)
	}

	trackIDs := make([]string, 0, len(tracks))
	for _, track := range tracks {
		cachedTrack, err := e.cache.Tracks.Upsert(models.NewCachedTrack(0, track))
		if err != nil {
			return fmt.Errorf("failed to cache track %s: %w", track.Title, err)
		}
		trackIDs = append(trackIDs, cachedTrack.ID())
	}

	if err := e.cache.Tracks.SetPlaylistTracks(cached.ID(), trackIDs); err != nil {
		return fmt.Errorf("failed to cache playlist tracks: %w", err)
	}

	return nil
}
