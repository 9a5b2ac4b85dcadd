package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"spooty/internal/shared"
	"spooty/internal/tasks"
)

// beatsCommand handles binaural beats playlist builds
func beatsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "beats",
		Usage: "Build a binaural beats playlist for a frequency range",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.IntFlag{
				Name:     "min",
				Usage:    "Lower bound of the frequency range in Hz",
				Required: true,
			},
			&cli.IntFlag{
				Name:     "max",
				Usage:    "Upper bound of the frequency range in Hz",
				Required: true,
			},
		},
		Action: r.Beats,
	}
}

// Beats searches for binaural beats tracks and collects them in a playlist.
func (r *Runner) Beats(ctx context.Context, cmd *cli.Command) error {
	minHz := cmd.Int("min")
	maxHz := cmd.Int("max")

	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}

	r.logger.Info("building frequency playlist", "min", minHz, "max", maxHz)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	progressDone := make(chan struct{})
	go func() {
		defer close(progressDone)
		for update := range progressCh {
			switch update.Phase {
			case tasks.SearchTracks:
				r.writePlain("🔍 %s\n", update.Message)
			case tasks.CreatePlaylist, tasks.AddTracks:
				r.writePlain("📝 %s\n", update.Message)
			}
		}
	}()

	result, err := r.engine.BuildFrequencyPlaylist(ctx, progressCh, minHz, maxHz)
	close(progressCh)
	<-progressDone

	if err != nil {
		if reauthed, authErr := r.handleAuthError(ctx, err, cmd); reauthed {
			if authErr != nil {
				return authErr
			}
			if result, err = r.engine.BuildFrequencyPlaylist(ctx, nil, minHz, maxHz); err != nil {
				return err
			}
		} else {
			return err
		}
	}

	r.writePlainHeader(fmt.Sprintf("Playlist: %s", result.Playlist.Name))
	r.writePlain("Search results: %d tracks\n", result.Found)
	r.writePlain("Added: %d tracks\n", result.Added)
	if result.Created {
		r.writePlain("The playlist was newly created (private).\n")
	}

	return nil
}
