package repositories

import (
	"database/sql"
	"errors"
	"testing"

	"spooty/internal/models"
	"spooty/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func testPlaylist(name string, public bool) *models.CachedPlaylist {
	return models.NewCachedPlaylist(0, "user123", models.Playlist{
		ID:         "spotify_" + name,
		Name:       name,
		OwnerID:    "user123",
		TrackCount: 10,
		Public:     public,
	})
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	first, err := NextSequence(db, "playlists")
	if err != nil {
		t.Fatalf("failed to get first sequence: %v", err)
	}
	second, err := NextSequence(db, "playlists")
	if err != nil {
		t.Fatalf("failed to get second sequence: %v", err)
	}

	if second != first+1 {
		t.Errorf("expected sequence %d, got %d", first+1, second)
	}
}

func TestPlaylistRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewPlaylistRepository(db)
		playlist := testPlaylist("Morning Mix", false)

		if err := repo.Create(playlist); err != nil {
			t.Fatalf("failed to create playlist: %v", err)
		}

		if playlist.ID() == "" {
			t.Error("playlist ID should be set after creation")
		}
		if playlist.Sequence() == 0 {
			t.Error("playlist sequence should be assigned after creation")
		}
	})

	t.Run("Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewPlaylistRepository(db)
		playlist := testPlaylist("Morning Mix", false)
		if err := repo.Create(playlist); err != nil {
			t.Fatalf("failed to create playlist: %v", err)
		}

		got, err := repo.Get(playlist.ID())
		if err != nil {
			t.Fatalf("failed to get playlist: %v", err)
		}
		if got.Name() != "Morning Mix" {
			t.Errorf("expected name Morning Mix, got %s", got.Name())
		}
		if got.SpotifyID() != playlist.SpotifyID() {
			t.Errorf("expected spotify id %s, got %s", playlist.SpotifyID(), got.SpotifyID())
		}
	})

	t.Run("GetBySpotifyID", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewPlaylistRepository(db)
		playlist := testPlaylist("Morning Mix", true)
		if err := repo.Create(playlist); err != nil {
			t.Fatalf("failed to create playlist: %v", err)
		}

		got, err := repo.GetBySpotifyID("spotify_Morning Mix")
		if err != nil {
			t.Fatalf("failed to get playlist by spotify id: %v", err)
		}
		if !got.Public() {
			t.Error("expected playlist to be public")
		}
	})

	t.Run("SetVisibility", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewPlaylistRepository(db)
		playlist := testPlaylist("Morning Mix", true)
		if err := repo.Create(playlist); err != nil {
			t.Fatalf("failed to create playlist: %v", err)
		}

		if err := repo.SetVisibility(playlist.SpotifyID(), false); err != nil {
			t.Fatalf("failed to set visibility: %v", err)
		}

		got, err := repo.GetBySpotifyID(playlist.SpotifyID())
		if err != nil {
			t.Fatalf("failed to reload playlist: %v", err)
		}
		if got.Public() {
			t.Error("expected playlist to be private after update")
		}

		t.Run("NotFound", func(t *testing.T) {
			err := repo.SetVisibility("missing", true)
			if !errors.Is(err, shared.ErrPlaylistNotFound) {
				t.Errorf("expected ErrPlaylistNotFound, got %v", err)
			}
		})
	})

	t.Run("Update", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewPlaylistRepository(db)
		playlist := testPlaylist("Morning Mix", false)
		if err := repo.Create(playlist); err != nil {
			t.Fatalf("failed to create playlist: %v", err)
		}

		playlist.SetTrackCount(42)
		playlist.SetDescription("updated")
		if err := repo.Update(playlist); err != nil {
			t.Fatalf("failed to update playlist: %v", err)
		}

		got, err := repo.Get(playlist.ID())
		if err != nil {
			t.Fatalf("failed to reload playlist: %v", err)
		}
		if got.TrackCount() != 42 {
			t.Errorf("expected track count 42, got %d", got.TrackCount())
		}
		if got.Description() != "updated" {
			t.Errorf("expected updated description, got %s", got.Description())
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewPlaylistRepository(db)
		playlist := testPlaylist("Morning Mix", false)
		if err := repo.Create(playlist); err != nil {
			t.Fatalf("failed to create playlist: %v", err)
		}

		if err := repo.Delete(playlist.ID()); err != nil {
			t.Fatalf("failed to delete playlist: %v", err)
		}

		if _, err := repo.Get(playlist.ID()); err == nil {
			t.Error("expected error getting soft-deleted playlist")
		}
	})

	t.Run("List", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewPlaylistRepository(db)
		for _, p := range []*models.CachedPlaylist{
			testPlaylist("First", true),
			testPlaylist("Second", false),
			testPlaylist("Third", false),
		} {
			if err := repo.Create(p); err != nil {
				t.Fatalf("failed to create playlist: %v", err)
			}
		}

		all, err := repo.List(map[string]any{})
		if err != nil {
			t.Fatalf("failed to list playlists: %v", err)
		}
		if len(all) != 3 {
			t.Errorf("expected 3 playlists, got %d", len(all))
		}

		private, err := repo.List(map[string]any{"public": false})
		if err != nil {
			t.Fatalf("failed to list private playlists: %v", err)
		}
		if len(private) != 2 {
			t.Errorf("expected 2 private playlists, got %d", len(private))
		}
	})
}

func TestTrackRepository(t *testing.T) {
	track := func(title string) *models.CachedTrack {
		return models.NewCachedTrack(0, models.Track{
			ID:       "spotify_" + title,
			Title:    title,
			Artist:   "Artist",
			ArtistID: "artist1",
			Album:    "Album",
			Duration: 180,
		})
	}

	t.Run("CreateAndGet", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTrackRepository(db)
		tr := track("Song One")
		if err := repo.Create(tr); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}

		got, err := repo.GetBySpotifyID("spotify_Song One")
		if err != nil {
			t.Fatalf("failed to get track: %v", err)
		}
		if got.Title() != "Song One" {
			t.Errorf("expected title Song One, got %s", got.Title())
		}
		if got.Duration() != 180 {
			t.Errorf("expected duration 180, got %d", got.Duration())
		}
	})

	t.Run("Upsert", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTrackRepository(db)
		first, err := repo.Upsert(track("Song One"))
		if err != nil {
			t.Fatalf("failed to upsert new track: %v", err)
		}

		updated := models.NewCachedTrack(0, models.Track{
			ID:       "spotify_Song One",
			Title:    "Song One",
			Artist:   "Renamed Artist",
			ArtistID: "artist1",
			Album:    "Album",
			Duration: 200,
		})
		second, err := repo.Upsert(updated)
		if err != nil {
			t.Fatalf("failed to upsert existing track: %v", err)
		}

		if second.ID() != first.ID() {
			t.Errorf("upsert created a new row: %s != %s", second.ID(), first.ID())
		}
		if second.Artist() != "Renamed Artist" {
			t.Errorf("expected refreshed artist, got %s", second.Artist())
		}
		if second.Duration() != 200 {
			t.Errorf("expected refreshed duration, got %d", second.Duration())
		}
	})

	t.Run("PlaylistTracks", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		playlists := NewPlaylistRepository(db)
		playlist := testPlaylist("Ordered", false)
		if err := playlists.Create(playlist); err != nil {
			t.Fatalf("failed to create playlist: %v", err)
		}

		repo := NewTrackRepository(db)
		var ids []string
		for _, title := range []string{"C", "A", "B"} {
			tr := track(title)
			if err := repo.Create(tr); err != nil {
				t.Fatalf("failed to create track: %v", err)
			}
			ids = append(ids, tr.ID())
		}

		if err := repo.SetPlaylistTracks(playlist.ID(), ids); err != nil {
			t.Fatalf("failed to set playlist tracks: %v", err)
		}

		got, err := repo.TracksForPlaylist(playlist.ID())
		if err != nil {
			t.Fatalf("failed to get playlist tracks: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("expected 3 tracks, got %d", len(got))
		}
		for i, title := range []string{"C", "A", "B"} {
			if got[i].Title() != title {
				t.Errorf("position %d: expected %s, got %s", i, title, got[i].Title())
			}
		}

		t.Run("Replace", func(t *testing.T) {
			if err := repo.SetPlaylistTracks(playlist.ID(), ids[:1]); err != nil {
				t.Fatalf("failed to replace playlist tracks: %v", err)
			}
			got, err := repo.TracksForPlaylist(playlist.ID())
			if err != nil {
				t.Fatalf("failed to reload playlist tracks: %v", err)
			}
			if len(got) != 1 {
				t.Errorf("expected 1 track after replace, got %d", len(got))
			}
		})

		// Spotify playlists can contain the same track at several positions.
		t.Run("DuplicateTrack", func(t *testing.T) {
			repeated := []string{ids[0], ids[0], ids[1]}
			if err := repo.SetPlaylistTracks(playlist.ID(), repeated); err != nil {
				t.Fatalf("failed to set playlist tracks with a duplicate: %v", err)
			}

			got, err := repo.TracksForPlaylist(playlist.ID())
			if err != nil {
				t.Fatalf("failed to reload playlist tracks: %v", err)
			}
			if len(got) != 3 {
				t.Fatalf("expected 3 rows including the duplicate, got %d", len(got))
			}
			for i, want := range []string{"C", "C", "A"} {
				if got[i].Title() != want {
					t.Errorf("position %d: expected %s, got %s", i, want, got[i].Title())
				}
			}
		})
	})
}

func TestArtistRepository(t *testing.T) {
	artist := func(name string, genres ...string) *models.CachedArtist {
		return models.NewCachedArtist(0, models.Artist{
			ID:     "spotify_" + name,
			Name:   name,
			Genres: genres,
		})
	}

	t.Run("CreateAndGet", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewArtistRepository(db)
		a := artist("Boards of Canada", "idm", "downtempo")
		if err := repo.Create(a); err != nil {
			t.Fatalf("failed to create artist: %v", err)
		}

		got, err := repo.GetBySpotifyID("spotify_Boards of Canada")
		if err != nil {
			t.Fatalf("failed to get artist: %v", err)
		}
		if len(got.Genres()) != 2 || got.Genres()[0] != "idm" {
			t.Errorf("expected genres [idm downtempo], got %v", got.Genres())
		}
	})

	t.Run("Upsert", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewArtistRepository(db)
		first, err := repo.Upsert(artist("Aphex Twin", "idm"))
		if err != nil {
			t.Fatalf("failed to upsert new artist: %v", err)
		}

		second, err := repo.Upsert(artist("Aphex Twin", "idm", "ambient"))
		if err != nil {
			t.Fatalf("failed to upsert existing artist: %v", err)
		}

		if second.ID() != first.ID() {
			t.Errorf("upsert created a new row: %s != %s", second.ID(), first.ID())
		}
		if len(second.Genres()) != 2 {
			t.Errorf("expected refreshed genres, got %v", second.Genres())
		}
	})

	t.Run("ListByGenre", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewArtistRepository(db)
		for _, a := range []*models.CachedArtist{
			artist("One", "idm", "ambient"),
			artist("Two", "rock"),
			artist("Three", "ambient"),
		} {
			if err := repo.Create(a); err != nil {
				t.Fatalf("failed to create artist: %v", err)
			}
		}

		ambient, err := repo.List(map[string]any{"genre": "ambient"})
		if err != nil {
			t.Fatalf("failed to list by genre: %v", err)
		}
		if len(ambient) != 2 {
			t.Errorf("expected 2 ambient artists, got %d", len(ambient))
		}

		all, err := repo.List(map[string]any{})
		if err != nil {
			t.Fatalf("failed to list all artists: %v", err)
		}
		if len(all) != 3 {
			t.Errorf("expected 3 artists, got %d", len(all))
		}
	})
}
