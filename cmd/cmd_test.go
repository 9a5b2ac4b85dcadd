package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/urfave/cli/v3"

	"spooty/internal/models"
	"spooty/internal/shared"
	"spooty/internal/tasks"
	tu "spooty/internal/testing"
)

func runCommand(t *testing.T, runner *Runner, args ...string) error {
	t.Helper()
	app := &cli.Command{
		Name:     "spooty",
		Commands: runner.register(),
	}
	return app.Run(context.Background(), append([]string{"spooty"}, args...))
}

func testRunner(svc *tu.MockService) (*Runner, *bytes.Buffer) {
	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config:  shared.DefaultConfig(),
		Spotify: svc,
		Logger:  shared.NewLogger(&bytes.Buffer{}),
		Output:  output,
	})
	return runner, output
}

func backlogExport() *models.PlaylistExport {
	return &models.PlaylistExport{
		Playlist: models.Playlist{ID: "backlog", Name: "Backlog", TrackCount: 5},
		Tracks: []models.Track{
			{ID: "t1", Title: "One", Artist: "A", URI: "spotify:track:t1"},
			{ID: "t2", Title: "Two", Artist: "B", URI: "spotify:track:t2"},
			{ID: "t3", Title: "Three", Artist: "C", URI: "spotify:track:t3"},
			{ID: "t4", Title: "Four", Artist: "D", URI: "spotify:track:t4"},
			{ID: "t5", Title: "Five", Artist: "E", URI: "spotify:track:t5"},
		},
	}
}

func TestPlaylistsListCommand(t *testing.T) {
	t.Run("lists playlists with visibility", func(t *testing.T) {
		svc := &tu.MockService{
			GetPlaylistsFunc: func(ctx context.Context) ([]models.Playlist, error) {
				return []models.Playlist{
					{ID: "p1", Name: "Road Trip", TrackCount: 12, Public: true},
					{ID: "p2", Name: "Focus", TrackCount: 40},
				}, nil
			},
		}
		runner, output := testRunner(svc)

		if err := runCommand(t, runner, "playlists", "list"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		result := output.String()
		if !strings.Contains(result, "Found 2 playlists") {
			t.Errorf("expected playlist count, got %q", result)
		}
		if !strings.Contains(result, "Road Trip") || !strings.Contains(result, "Focus") {
			t.Errorf("expected playlist names, got %q", result)
		}
		if !strings.Contains(result, "Visibility: public") {
			t.Errorf("expected visibility line, got %q", result)
		}
	})

	t.Run("respects limit", func(t *testing.T) {
		svc := &tu.MockService{
			GetPlaylistsFunc: func(ctx context.Context) ([]models.Playlist, error) {
				return []models.Playlist{
					{ID: "p1", Name: "First"},
					{ID: "p2", Name: "Second"},
				}, nil
			},
		}
		runner, output := testRunner(svc)

		if err := runCommand(t, runner, "playlists", "list", "--limit", "1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		result := output.String()
		if !strings.Contains(result, "First") {
			t.Errorf("expected first playlist, got %q", result)
		}
		if strings.Contains(result, "Second") {
			t.Errorf("expected second playlist to be cut, got %q", result)
		}
	})

	t.Run("fails without a service", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, Logger: shared.NewLogger(&bytes.Buffer{})})

		err := runCommand(t, runner, "playlists", "list")
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}

func TestSampleCommand(t *testing.T) {
	t.Run("samples the requested size", func(t *testing.T) {
		svc := &tu.MockService{
			ExportPlaylistFunc: func(ctx context.Context, playlistID string) (*models.PlaylistExport, error) {
				if playlistID != "backlog" {
					return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
				}
				return backlogExport(), nil
			},
		}
		runner, output := testRunner(svc)

		if err := runCommand(t, runner, "sample", "--playlist", "backlog", "--size", "2"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		result := output.String()
		if !strings.Contains(result, "Sampled 2 of 5 tracks from Backlog") {
			t.Errorf("expected sample summary, got %q", result)
		}
	})

	t.Run("saves the sample when a label is given", func(t *testing.T) {
		var createdName string
		var addedURIs []string
		svc := &tu.MockService{
			ExportPlaylistFunc: func(ctx context.Context, playlistID string) (*models.PlaylistExport, error) {
				return backlogExport(), nil
			},
			CreatePlaylistFunc: func(ctx context.Context, name, description string, public bool) (*models.Playlist, error) {
				createdName = name
				if public {
					t.Error("expected sample playlist to be private")
				}
				return &models.Playlist{ID: "new", Name: name}, nil
			},
			AddTracksFunc: func(ctx context.Context, playlistID string, uris []string) error {
				addedURIs = uris
				return nil
			},
		}
		runner, output := testRunner(svc)

		if err := runCommand(t, runner, "sample", "--playlist", "backlog", "--size", "3", "--save", "Weekly"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if createdName != "Sample Playlist - Weekly" {
			t.Errorf("expected sample playlist name, got %q", createdName)
		}
		if len(addedURIs) != 3 {
			t.Errorf("expected 3 uris, got %d", len(addedURIs))
		}
		if !strings.Contains(output.String(), "Sample saved to playlist") {
			t.Errorf("expected save confirmation, got %q", output.String())
		}
	})

	t.Run("surfaces an invalid size", func(t *testing.T) {
		runner, _ := testRunner(&tu.MockService{})

		err := runCommand(t, runner, "sample", "--playlist", "backlog", "--size", "0")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestPrivacyCommands(t *testing.T) {
	t.Run("set flips one playlist", func(t *testing.T) {
		var gotID string
		var gotPublic bool
		svc := &tu.MockService{
			SetVisibilityFunc: func(ctx context.Context, playlistID string, public bool) error {
				gotID = playlistID
				gotPublic = public
				return nil
			},
		}
		runner, output := testRunner(svc)

		if err := runCommand(t, runner, "privacy", "set", "--id", "p1", "--public"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if gotID != "p1" || !gotPublic {
			t.Errorf("expected p1 to be made public, got %s public=%v", gotID, gotPublic)
		}
		if !strings.Contains(output.String(), "now public") {
			t.Errorf("expected confirmation, got %q", output.String())
		}
	})

	t.Run("bulk reports partial failures", func(t *testing.T) {
		svc := &tu.MockService{
			SetVisibilityFunc: func(ctx context.Context, playlistID string, public bool) error {
				if playlistID == "bad" {
					return shared.ErrRateLimited
				}
				return nil
			},
		}
		runner, output := testRunner(svc)

		if err := runCommand(t, runner, "privacy", "bulk", "--id", "good", "--id", "bad"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		result := output.String()
		if !strings.Contains(result, "Updated 1 of 2 playlists") {
			t.Errorf("expected partial failure summary, got %q", result)
		}
		if !strings.Contains(result, "bad") {
			t.Errorf("expected failed playlist to be listed, got %q", result)
		}
	})
}

func TestSyncCommand(t *testing.T) {
	svc := &tu.MockService{
		ExportPlaylistFunc: func(ctx context.Context, playlistID string) (*models.PlaylistExport, error) {
			return backlogExport(), nil
		},
		LikedContainsFunc: func(ctx context.Context, trackIDs []string) ([]bool, error) {
			liked := make([]bool, len(trackIDs))
			liked[0] = true
			liked[2] = true
			return liked, nil
		},
		CreatePlaylistFunc: func(ctx context.Context, name, description string, public bool) (*models.Playlist, error) {
			return &models.Playlist{ID: "dest", Name: name}, nil
		},
	}
	runner, output := testRunner(svc)

	if err := runCommand(t, runner, "sync", "--source", "backlog"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	result := output.String()
	if !strings.Contains(result, "Liked: 2 tracks") {
		t.Errorf("expected liked count, got %q", result)
	}
	if !strings.Contains(result, "Liked from Backlog") {
		t.Errorf("expected destination name, got %q", result)
	}
	if !strings.Contains(result, "newly created") {
		t.Errorf("expected created marker, got %q", result)
	}
	if !strings.Contains(result, "Added: 2 tracks") {
		t.Errorf("expected added count, got %q", result)
	}
}

func TestBeatsCommand(t *testing.T) {
	t.Run("builds a playlist for the range", func(t *testing.T) {
		var query string
		svc := &tu.MockService{
			SearchTracksFunc: func(ctx context.Context, q string, limit int) ([]models.Track, error) {
				query = q
				return []models.Track{
					{ID: "b1", Title: "Theta Waves", URI: "spotify:track:b1"},
				}, nil
			},
			GetPlaylistsFunc: func(ctx context.Context) ([]models.Playlist, error) {
				return nil, nil
			},
			CreatePlaylistFunc: func(ctx context.Context, name, description string, public bool) (*models.Playlist, error) {
				return &models.Playlist{ID: "bb", Name: name}, nil
			},
		}
		runner, output := testRunner(svc)

		if err := runCommand(t, runner, "beats", "--min", "4", "--max", "8"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if !strings.Contains(query, "binaural beats 4Hz 8Hz") {
			t.Errorf("expected frequency query, got %q", query)
		}
		if !strings.Contains(output.String(), "Binaural Beats 4-8 Hz") {
			t.Errorf("expected playlist name, got %q", output.String())
		}
	})

	t.Run("rejects an inverted range", func(t *testing.T) {
		runner, _ := testRunner(&tu.MockService{})

		err := runCommand(t, runner, "beats", "--min", "8", "--max", "4")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestCacheStatusCommand(t *testing.T) {
	t.Run("reports empty counts", func(t *testing.T) {
		db, err := shared.NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		t.Cleanup(func() { db.Close() })
		if err := shared.RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{
			Spotify: &tu.MockService{},
			Cache:   tasks.NewCache(db),
			Logger:  shared.NewLogger(&bytes.Buffer{}),
			Output:  output,
		})

		if err := runCommand(t, runner, "cache", "status"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		result := output.String()
		if !strings.Contains(result, "Cached playlists: 0") {
			t.Errorf("expected empty playlist count, got %q", result)
		}
	})

	t.Run("fails without a cache database", func(t *testing.T) {
		runner, _ := testRunner(&tu.MockService{})

		err := runCommand(t, runner, "cache", "status")
		if !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})
}
