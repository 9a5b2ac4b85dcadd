package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"spooty/internal/shared"
	"spooty/internal/tasks"
)

// cacheCommand handles the local library cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Manage the local library cache",
		Commands: []*cli.Command{
			{
				Name:  "refresh",
				Usage: "Pull playlists, tracks, and artist genres into the cache",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent playlist fetchers",
						Value: 5,
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "API requests per second",
						Value: 5,
					},
				},
				Action: r.CacheRefresh,
			},
			{
				Name:   "status",
				Usage:  "Show cached row counts",
				Action: r.CacheStatus,
			},
		},
	}
}

// CacheRefresh refreshes the local cache from the Spotify library.
func (r *Runner) CacheRefresh(ctx context.Context, cmd *cli.Command) error {
	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}
	if r.cache == nil {
		return fmt.Errorf("%w: no cache database, run 'spooty setup' first", shared.ErrMissingConfig)
	}

	opts := tasks.RefreshOpts{
		NumWorkers: cmd.Int("workers"),
		RateLimit:  cmd.Float("rate"),
	}

	r.logger.Info("refreshing library cache", "workers", opts.NumWorkers, "rate", opts.RateLimit)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	progressDone := make(chan struct{})
	go func() {
		defer close(progressDone)
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchPlaylists, tasks.FetchTracks, tasks.FetchArtists:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.CacheWrite:
				r.writePlain("💾 %s\n", update.Message)
			}
		}
	}()

	result, err := r.engine.RefreshLibrary(ctx, progressCh, opts)
	close(progressCh)
	<-progressDone

	if err != nil {
		if reauthed, authErr := r.handleAuthError(ctx, err, cmd); reauthed {
			if authErr != nil {
				return authErr
			}
			if result, err = r.engine.RefreshLibrary(ctx, nil, opts); err != nil {
				return err
			}
		} else {
			return err
		}
	}

	r.writePlainHeader("Cache Refresh Complete!")
	r.writePlain("Playlists: %d\n", result.Playlists)
	r.writePlain("Tracks: %d\n", result.Tracks)
	r.writePlain("Artists: %d\n", result.Artists)

	if len(result.Errors) > 0 {
		r.writePlain("\nFailed to refresh %d playlists:\n", len(result.Errors))
		for _, refreshErr := range result.Errors {
			r.writePlain("  - %s: %v\n", refreshErr.Name, refreshErr.Err)
		}
	}

	return nil
}

// CacheStatus reports cached row counts per table.
func (r *Runner) CacheStatus(ctx context.Context, cmd *cli.Command) error {
	if r.cache == nil {
		return fmt.Errorf("%w: no cache database, run 'spooty setup' first", shared.ErrMissingConfig)
	}

	playlists, err := r.cache.Playlists.List(nil)
	if err != nil {
		return fmt.Errorf("failed to list cached playlists: %w", err)
	}
	tracks, err := r.cache.Tracks.List(nil)
	if err != nil {
		return fmt.Errorf("failed to list cached tracks: %w", err)
	}
	artists, err := r.cache.Artists.List(nil)
	if err != nil {
		return fmt.Errorf("failed to list cached artists: %w", err)
	}

	r.writePlain("Cached playlists: %d\n", len(playlists))
	r.writePlain("Cached tracks: %d\n", len(tracks))
	r.writePlain("Cached artists: %d\n", len(artists))

	return nil
}
