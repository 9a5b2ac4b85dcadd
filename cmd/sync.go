package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"spooty/internal/shared"
	"spooty/internal/tasks"
)

// syncCommand handles liked-song playlist syncs
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Copy the liked tracks of a playlist into another playlist",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringFlag{
				Name:     "source",
				Usage:    "Source playlist ID or exact name",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "dest",
				Usage: "Destination playlist ID (created when omitted)",
			},
			&cli.StringFlag{
				Name:  "dest-name",
				Usage: "Name for a newly created destination playlist",
			},
		},
		Action: r.SyncLiked,
	}
}

// SyncLiked copies the liked subset of a source playlist into a destination playlist.
func (r *Runner) SyncLiked(ctx context.Context, cmd *cli.Command) error {
	sourceID := cmd.String("source")
	destID := cmd.String("dest")
	destName := cmd.String("dest-name")

	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}

	r.logger.Info("syncing liked tracks", "source", sourceID, "dest", destID)
	r.writePlain("Checking liked songs...\n\n")

	progressCh := make(chan tasks.ProgressUpdate, 50)
	progressDone := make(chan struct{})
	go func() {
		defer close(progressDone)
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchTracks, tasks.FetchLiked:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.CreatePlaylist, tasks.AddTracks:
				r.writePlain("📝 %s\n", update.Message)
			}
		}
	}()

	result, err := r.engine.SyncLiked(ctx, progressCh, sourceID, destID, destName)
	close(progressCh)
	<-progressDone

	if err != nil {
		if reauthed, authErr := r.handleAuthError(ctx, err, cmd); reauthed {
			if authErr != nil {
				return authErr
			}
			if result, err = r.engine.SyncLiked(ctx, nil, sourceID, destID, destName); err != nil {
				return err
			}
		} else {
			return err
		}
	}

	r.writePlainHeader("Sync Complete!")
	r.writePlain("Source: %s (%d tracks)\n", result.Source.Name, result.Total)
	r.writePlain("Liked: %d tracks\n", result.Liked)
	r.writePlain("Destination: %s", result.Dest.Name)
	if result.Created {
		r.writePlain(" (newly created)")
	}
	r.writePlain("\nAdded: %d tracks\n", result.Added)

	return nil
}
