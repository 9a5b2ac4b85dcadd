package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"spooty/internal/shared"
	"spooty/internal/tasks"
)

// privacyCommand handles playlist visibility operations
func privacyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "privacy",
		Usage: "Manage playlist visibility",
		Commands: []*cli.Command{
			{
				Name:  "set",
				Usage: "Set the visibility of one playlist",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Playlist ID",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "public",
						Usage: "Make the playlist public (private when omitted)",
					},
				},
				Action: r.PrivacySet,
			},
			{
				Name:  "bulk",
				Usage: "Apply a visibility setting to many playlists",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
					&cli.StringSliceFlag{
						Name:     "id",
						Usage:    "Playlist ID (repeatable)",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "public",
						Usage: "Make the playlists public (private when omitted)",
					},
				},
				Action: r.PrivacyBulk,
			},
		},
	}
}

// PrivacySet flips the visibility flag on a single playlist.
func (r *Runner) PrivacySet(ctx context.Context, cmd *cli.Command) error {
	playlistID := cmd.String("id")
	public := cmd.Bool("public")

	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}

	r.logger.Info("setting playlist visibility", "playlist", playlistID, "public", public)

	if err := r.engine.SetVisibility(ctx, playlistID, public); err != nil {
		if reauthed, authErr := r.handleAuthError(ctx, err, cmd); reauthed {
			if authErr != nil {
				return authErr
			}
			if err := r.engine.SetVisibility(ctx, playlistID, public); err != nil {
				return err
			}
		} else {
			return err
		}
	}

	r.writePlain("✓ Playlist %s is now %s\n", playlistID, shared.VisibilityString(public))
	return nil
}

// PrivacyBulk applies a visibility flag to many playlists, reporting partial failures.
func (r *Runner) PrivacyBulk(ctx context.Context, cmd *cli.Command) error {
	ids := cmd.StringSlice("id")
	public := cmd.Bool("public")

	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}

	r.logger.Info("bulk visibility update", "playlists", len(ids), "public", public)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	progressDone := make(chan struct{})
	go func() {
		defer close(progressDone)
		for update := range progressCh {
			r.writePlain("  %s\n", update.Message)
		}
	}()

	result, err := r.engine.BulkVisibility(ctx, progressCh, ids, public)
	close(progressCh)
	<-progressDone

	if err != nil {
		return err
	}

	r.writePlainHeader(fmt.Sprintf("Updated %d of %d playlists", result.Updated, result.Total))

	if result.Failed > 0 {
		r.writePlain("\nFailed to update %d playlists:\n", result.Failed)
		for _, res := range result.Results {
			if !res.Success {
				r.writePlain("  - %s: %v\n", res.PlaylistID, res.Error)
			}
		}
	}

	return nil
}
