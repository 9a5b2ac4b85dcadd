package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"spooty/internal/formatter"
	"spooty/internal/models"
	"spooty/internal/shared"
	"spooty/internal/tasks"
)

// sampleCommand handles backlog sampling
func sampleCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sample",
		Usage: "Draw a random sample from a playlist",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringFlag{
				Name:     "playlist",
				Aliases:  []string{"p"},
				Usage:    "Source playlist ID or exact name",
				Required: true,
			},
			&cli.IntFlag{
				Name:    "size",
				Aliases: []string{"n"},
				Usage:   "Number of tracks to sample",
				Value:   10,
			},
			&cli.StringFlag{
				Name:  "genre",
				Usage: "Only sample tracks whose artist matches this genre",
			},
			&cli.BoolFlag{
				Name:  "dedup",
				Usage: "Drop duplicate tracks before sampling",
				Value: true,
			},
			&cli.StringFlag{
				Name:  "save",
				Usage: "Save the sample to a new private playlist with this label",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Write the sample to a file (csv, markdown, txt, json)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path for --format",
			},
		},
		Action: r.Sample,
	}
}

// Sample draws a random sample from a playlist and optionally saves or exports it.
func (r *Runner) Sample(ctx context.Context, cmd *cli.Command) error {
	opts := tasks.SampleOpts{
		PlaylistID: cmd.String("playlist"),
		Size:       cmd.Int("size"),
		Genre:      cmd.String("genre"),
		Dedup:      cmd.Bool("dedup"),
	}
	saveLabel := cmd.String("save")
	format := cmd.String("format")
	outputPath := cmd.String("output")

	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}

	r.logger.Info("sampling playlist", "playlist", opts.PlaylistID, "size", opts.Size, "genre", opts.Genre)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	progressDone := make(chan struct{})
	go func() {
		defer close(progressDone)
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchTracks, tasks.FetchArtists:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.Sampling:
				r.writePlain("🎲 %s\n", update.Message)
			}
		}
	}()

	result, err := r.engine.Sample(ctx, progressCh, opts)
	close(progressCh)
	<-progressDone

	if err != nil {
		if reauthed, authErr := r.handleAuthError(ctx, err, cmd); reauthed {
			if authErr != nil {
				return authErr
			}
			if result, err = r.engine.Sample(ctx, nil, opts); err != nil {
				return err
			}
		} else {
			return err
		}
	}

	r.writePlainHeader(fmt.Sprintf("Sampled %d of %d tracks from %s", len(result.Tracks), result.Population, result.Playlist.Name))
	for i, track := range result.Tracks {
		r.writePlain("%d. %s - %s", i+1, track.Artist, track.Title)
		if track.Album != "" {
			r.writePlain(" (%s)", track.Album)
		}
		r.writePlain("\n")
	}

	if saveLabel != "" {
		saved, err := r.engine.SaveSample(ctx, nil, result, saveLabel)
		if err != nil {
			return fmt.Errorf("failed to save sample: %w", err)
		}
		r.writePlainln("✓ Sample saved to playlist %q (%s)", saved.Name, saved.ID)
	}

	if format != "" {
		export := &models.PlaylistExport{Playlist: result.Playlist, Tracks: result.Tracks}
		if outputPath == "" {
			outputPath = fmt.Sprintf("sample_%s", result.Playlist.ID)
		}
		files, err := formatter.WriteExport(export, format, outputPath)
		if err != nil {
			return fmt.Errorf("failed to write export: %w", err)
		}
		for _, f := range files {
			r.writePlain("  Wrote %s\n", f)
		}
	}

	return nil
}
