package tasks

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"spooty/internal/models"
	"spooty/internal/shared"
	mocks "spooty/internal/testing"
)

func testEngine(svc *mocks.MockService) *LibraryEngine {
	engine := NewLibraryEngine(svc, nil)
	engine.SetRand(rand.New(rand.NewSource(1)))
	return engine
}

func testExport(name string, trackCount int) *models.PlaylistExport {
	export := &models.PlaylistExport{
		Playlist: models.Playlist{ID: "pl1", Name: name, TrackCount: trackCount},
	}
	for i := 0; i < trackCount; i++ {
		export.Tracks = append(export.Tracks, models.Track{
			ID:       fmt.Sprintf("t%d", i),
			Title:    fmt.Sprintf("Track %d", i),
			Artist:   "Artist",
			ArtistID: "a1",
			URI:      fmt.Sprintf("spotify:track:t%d", i),
		})
	}
	return export
}

func TestSample(t *testing.T) {
	t.Run("InvalidSize", func(t *testing.T) {
		engine := testEngine(&mocks.MockService{})

		for _, size := range []int{0, -1} {
			_, err := engine.Sample(context.Background(), nil, SampleOpts{PlaylistID: "pl1", Size: size})
			if !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("size %d: expected ErrInvalidArgument, got %v", size, err)
			}
		}
	})

	t.Run("PlaylistNotFound", func(t *testing.T) {
		svc := &mocks.MockService{
			ExportPlaylistFunc: func(ctx context.Context, id string) (*models.PlaylistExport, error) {
				return nil, shared.ErrPlaylistNotFound
			},
			GetPlaylistsFunc: func(ctx context.Context) ([]models.Playlist, error) {
				return []models.Playlist{{ID: "other", Name: "Other"}}, nil
			},
		}
		engine := testEngine(svc)

		_, err := engine.Sample(context.Background(), nil, SampleOpts{PlaylistID: "missing", Size: 5})
		if !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
	})

	t.Run("ResolvesByName", func(t *testing.T) {
		export := testExport("Backlog", 10)
		svc := &mocks.MockService{
			ExportPlaylistFunc: func(ctx context.Context, id string) (*models.PlaylistExport, error) {
				if id == "pl1" {
					return export, nil
				}
				return nil, shared.ErrPlaylistNotFound
			},
			GetPlaylistsFunc: func(ctx context.Context) ([]models.Playlist, error) {
				return []models.Playlist{{ID: "pl1", Name: "Backlog"}}, nil
			},
		}
		engine := testEngine(svc)

		result, err := engine.Sample(context.Background(), nil, SampleOpts{PlaylistID: "Backlog", Size: 3})
		if err != nil {
			t.Fatalf("sample failed: %v", err)
		}
		if result.Playlist.Name != "Backlog" {
			t.Errorf("expected playlist Backlog, got %s", result.Playlist.Name)
		}
	})

	t.Run("EmptyPlaylist", func(t *testing.T) {
		svc := &mocks.MockService{
			ExportPlaylistFunc: func(ctx context.Context, id string) (*models.PlaylistExport, error) {
				return testExport("Empty", 0), nil
			},
		}
		engine := testEngine(svc)

		_, err := engine.Sample(context.Background(), nil, SampleOpts{PlaylistID: "pl1", Size: 5})
		if !errors.Is(err, shared.ErrEmptyPlaylist) {
			t.Errorf("expected ErrEmptyPlaylist, got %v", err)
		}
	})

	t.Run("SampleSize", func(t *testing.T) {
		svc := &mocks.MockService{
			ExportPlaylistFunc: func(ctx context.Context, id string) (*models.PlaylistExport, error) {
				return testExport("Backlog", 20), nil
			},
		}
		engine := testEngine(svc)

		result, err := engine.Sample(context.Background(), nil, SampleOpts{PlaylistID: "pl1", Size: 5})
		if err != nil {
			t.Fatalf("sample failed: %v", err)
		}
		if len(result.Tracks) != 5 {
			t.Errorf("expected 5 tracks, got %d", len(result.Tracks))
		}
		if result.Population != 20 {
			t.Errorf("expected population 20, got %d", result.Population)
		}
	})

	t.Run("SampleLargerThanPopulation", func(t *testing.T) {
		svc := &mocks.MockService{
			ExportPlaylistFunc: func(ctx context.Context, id string) (*models.PlaylistExport, error) {
				return testExport("Backlog", 4), nil
			},
		}
		engine := testEngine(svc)

		result, err := engine.Sample(context.Background(), nil, SampleOpts{PlaylistID: "pl1", Size: 100})
		if err != nil {
			t.Fatalf("sample failed: %v", err)
		}
		if len(result.Tracks) != 4 {
			t.Errorf("expected full population of 4, got %d", len(result.Tracks))
		}
	})

	t.Run("WithoutReplacement", func(t *testing.T) {
		svc := &mocks.MockService{
			ExportPlaylistFunc: func(ctx context.Context, id string) (*models.PlaylistExport, error) {
				return testExport("Backlog", 50), nil
			},
		}
		engine := testEngine(svc)

		result, err := engine.Sample(context.Background(), nil, SampleOpts{PlaylistID: "pl1", Size: 25})
		if err != nil {
			t.Fatalf("sample failed: %v", err)
		}

		seen := make(map[string]bool)
		for _, track := range result.Tracks {
			if seen[track.ID] {
				t.Errorf("track %s sampled twice", track.ID)
			}
			seen[track.ID] = true
		}
	})

	t.Run("Dedup", func(t *testing.T) {
		export := testExport("Backlog", 3)
		export.Tracks = append(export.Tracks, export.Tracks[0], export.Tracks[1])

		svc := &mocks.MockService{
			ExportPlaylistFunc: func(ctx context.Context, id string) (*models.PlaylistExport, error) {
				return export, nil
			},
		}
		engine := testEngine(svc)

		result, err := engine.Sample(context.Background(), nil, SampleOpts{PlaylistID: "pl1", Size: 100, Dedup: true})
		if err != nil {
			t.Fatalf("sample failed: %v", err)
		}
		if result.Population != 3 {
			t.Errorf("expected deduped population 3, got %d", result.Population)
		}
	})

	t.Run("GenreFilter", func(t *testing.T) {
		export := &models.PlaylistExport{
			Playlist: models.Playlist{ID: "pl1", Name: "Backlog"},
			Tracks: []models.Track{
				{ID: "t1", Title: "One", Artist: "A", ArtistID: "a1", URI: "spotify:track:t1"},
				{ID: "t2", Title: "Two", Artist: "B", ArtistID: "a2", URI: "spotify:track:t2"},
				{ID: "t3", Title: "Three", Artist: "A", ArtistID: "a1", URI: "spotify:track:t3"},
			},
		}

		var requestedArtists []string
		svc := &mocks.MockService{
			ExportPlaylistFunc: func(ctx context.Context, id string) (*models.PlaylistExport, error) {
				return export, nil
			},
			GetArtistsFunc: func(ctx context.Context, ids []string) ([]models.Artist, error) {
				requestedArtists = ids
				return []models.Artist{
					{ID: "a1", Name: "A", Genres: []string{"ambient techno"}},
					{ID: "a2", Name: "B", Genres: []string{"rock"}},
				}, nil
			},
		}
		engine := testEngine(svc)

		result, err := engine.Sample(context.Background(), nil, SampleOpts{PlaylistID: "pl1", Size: 100, Genre: "Techno"})
		if err != nil {
			t.Fatalf("sample failed: %v", err)
		}
		if result.Population != 2 {
			t.Errorf("expected 2 techno tracks, got %d", result.Population)
		}
		if len(requestedArtists) != 2 {
			t.Errorf("expected 2 unique artist lookups, got %v", requestedArtists)
		}

		t.Run("NoMatches", func(t *testing.T) {
			_, err := engine.Sample(context.Background(), nil, SampleOpts{PlaylistID: "pl1", Size: 5, Genre: "jazz"})
			if !errors.Is(err, shared.ErrEmptyPlaylist) {
				t.Errorf("expected ErrEmptyPlaylist, got %v", err)
			}
		})
	})
}

func TestSaveSample(t *testing.T) {
	sample := &SampleResult{
		Playlist: models.Playlist{ID: "pl1", Name: "Backlog"},
		Tracks: []models.Track{
			{ID: "t1", Title: "One", URI: "spotify:track:t1"},
			{ID: "t2", Title: "Two", URI: "spotify:track:t2"},
			{ID: "t3", Title: "Local", URI: ""},
		},
	}

	t.Run("CreatesPrivatePlaylist", func(t *testing.T) {
		var createdName string
		var createdPublic bool
		var addedURIs []string

		svc := &mocks.MockService{
			CreatePlaylistFunc: func(ctx context.Context, name, description string, public bool) (*models.Playlist, error) {
				createdName = name
				createdPublic = public
				return &models.Playlist{ID: "new1", Name: name, Public: public}, nil
			},
			AddTracksFunc: func(ctx context.Context, playlistID string, uris []string) error {
				addedURIs = uris
				return nil
			},
		}
		engine := testEngine(svc)

		playlist, err := engine.SaveSample(context.Background(), nil, sample, "Weekly")
		if err != nil {
			t.Fatalf("save failed: %v", err)
		}

		if createdName != "Sample Playlist - Weekly" {
			t.Errorf("expected Sample Playlist - Weekly, got %s", createdName)
		}
		if createdPublic {
			t.Error("sample playlist should be private")
		}
		if len(addedURIs) != 2 {
			t.Errorf("expected 2 URIs (local track skipped), got %d", len(addedURIs))
		}
		if playlist.TrackCount != 2 {
			t.Errorf("expected track count 2, got %d", playlist.TrackCount)
		}
	})

	t.Run("DefaultLabel", func(t *testing.T) {
		var createdName string
		svc := &mocks.MockService{
			CreatePlaylistFunc: func(ctx context.Context, name, description string, public bool) (*models.Playlist, error) {
				createdName = name
				return &models.Playlist{ID: "new1", Name: name}, nil
			},
		}
		engine := testEngine(svc)

		if _, err := engine.SaveSample(context.Background(), nil, sample, ""); err != nil {
			t.Fatalf("save failed: %v", err)
		}
		if createdName != "Sample Playlist - Backlog" {
			t.Errorf("expected source name as label, got %s", createdName)
		}
	})

	t.Run("EmptySample", func(t *testing.T) {
		engine := testEngine(&mocks.MockService{})

		_, err := engine.SaveSample(context.Background(), nil, &SampleResult{}, "x")
		if !errors.Is(err, shared.ErrEmptyPlaylist) {
			t.Errorf("expected ErrEmptyPlaylist, got %v", err)
		}
	})
}

func TestSetVisibility(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		var gotID string
		var gotPublic bool
		svc := &mocks.MockService{
			SetVisibilityFunc: func(ctx context.Context, playlistID string, public bool) error {
				gotID = playlistID
				gotPublic = public
				return nil
			},
		}
		engine := testEngine(svc)

		if err := engine.SetVisibility(context.Background(), "pl1", true); err != nil {
			t.Fatalf("set visibility failed: %v", err)
		}
		if gotID != "pl1" || !gotPublic {
			t.Errorf("unexpected call: id=%s public=%v", gotID, gotPublic)
		}
	})

	t.Run("APIFailure", func(t *testing.T) {
		svc := &mocks.MockService{
			SetVisibilityFunc: func(ctx context.Context, playlistID string, public bool) error {
				return shared.ErrTokenExpired
			},
		}
		engine := testEngine(svc)

		err := engine.SetVisibility(context.Background(), "pl1", true)
		if !errors.Is(err, shared.ErrTokenExpired) {
			t.Errorf("expected ErrTokenExpired, got %v", err)
		}
	})
}

func TestBulkVisibility(t *testing.T) {
	t.Run("PartialFailure", func(t *testing.T) {
		svc := &mocks.MockService{
			SetVisibilityFunc: func(ctx context.Context, playlistID string, public bool) error {
				if playlistID == "bad" {
					return shared.ErrPlaylistNotFound
				}
				return nil
			},
		}
		engine := testEngine(svc)

		result, err := engine.BulkVisibility(context.Background(), nil, []string{"pl1", "bad", "pl2"}, false)
		if err != nil {
			t.Fatalf("bulk visibility failed: %v", err)
		}

		if result.Updated != 2 {
			t.Errorf("expected 2 updated, got %d", result.Updated)
		}
		if result.Failed != 1 {
			t.Errorf("expected 1 failed, got %d", result.Failed)
		}
		if len(result.Results) != 3 {
			t.Errorf("expected 3 results, got %d", len(result.Results))
		}
		if result.Results[1].Success {
			t.Error("expected middle result to be a failure")
		}
	})

	t.Run("NoPlaylists", func(t *testing.T) {
		engine := testEngine(&mocks.MockService{})

		_, err := engine.BulkVisibility(context.Background(), nil, nil, true)
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestSyncLiked(t *testing.T) {
	source := testExport("Road Trip", 4)

	t.Run("CreatesDestination", func(t *testing.T) {
		var addedURIs []string
		svc := &mocks.MockService{
			ExportPlaylistFunc: func(ctx context.Context, id string) (*models.PlaylistExport, error) {
				return source, nil
			},
			LikedContainsFunc: func(ctx context.Context, trackIDs []string) ([]bool, error) {
				return []bool{true, false, true, false}, nil
			},
			CreatePlaylistFunc: func(ctx context.Context, name, description string, public bool) (*models.Playlist, error) {
				if public {
					t.Error("destination should be private")
				}
				return &models.Playlist{ID: "dest1", Name: name}, nil
			},
			AddTracksFunc: func(ctx context.Context, playlistID string, uris []string) error {
				addedURIs = uris
				return nil
			},
		}
		engine := testEngine(svc)

		result, err := engine.SyncLiked(context.Background(), nil, "pl1", "", "")
		if err != nil {
			t.Fatalf("sync failed: %v", err)
		}

		if !result.Created {
			t.Error("expected destination to be created")
		}
		if result.Liked != 2 {
			t.Errorf("expected 2 liked tracks, got %d", result.Liked)
		}
		if result.Added != 2 || len(addedURIs) != 2 {
			t.Errorf("expected 2 added tracks, got %d", result.Added)
		}
		if result.Dest.Name != "Liked from Road Trip" {
			t.Errorf("unexpected destination name: %s", result.Dest.Name)
		}
	})

	t.Run("SkipsTracksAlreadyInDestination", func(t *testing.T) {
		var addedURIs []string
		svc := &mocks.MockService{
			ExportPlaylistFunc: func(ctx context.Context, id string) (*models.PlaylistExport, error) {
				if id == "dest1" {
					return &models.PlaylistExport{
						Playlist: models.Playlist{ID: "dest1", Name: "Dest"},
						Tracks:   []models.Track{{ID: "t0"}},
					}, nil
				}
				return source, nil
			},
			LikedContainsFunc: func(ctx context.Context, trackIDs []string) ([]bool, error) {
				return []bool{true, true, false, false}, nil
			},
			AddTracksFunc: func(ctx context.Context, playlistID string, uris []string) error {
				addedURIs = uris
				return nil
			},
		}
		engine := testEngine(svc)

		result, err := engine.SyncLiked(context.Background(), nil, "pl1", "dest1", "")
		if err != nil {
			t.Fatalf("sync failed: %v", err)
		}

		if result.Created {
			t.Error("existing destination should not be recreated")
		}
		if result.Added != 1 || len(addedURIs) != 1 {
			t.Errorf("expected 1 added track (t0 already present), got %d", result.Added)
		}
	})

	t.Run("NoLikedTracks", func(t *testing.T) {
		created := false
		svc := &mocks.MockService{
			ExportPlaylistFunc: func(ctx context.Context, id string) (*models.PlaylistExport, error) {
				return source, nil
			},
			LikedContainsFunc: func(ctx context.Context, trackIDs []string) ([]bool, error) {
				return make([]bool, len(trackIDs)), nil
			},
			CreatePlaylistFunc: func(ctx context.Context, name, description string, public bool) (*models.Playlist, error) {
				created = true
				return &models.Playlist{ID: "dest1"}, nil
			},
		}
		engine := testEngine(svc)

		result, err := engine.SyncLiked(context.Background(), nil, "pl1", "", "")
		if err != nil {
			t.Fatalf("sync failed: %v", err)
		}
		if result.Liked != 0 || created {
			t.Error("no playlist should be created when nothing is liked")
		}
	})
}

func TestBuildFrequencyPlaylist(t *testing.T) {
	searchResults := []models.Track{
		{ID: "b1", Title: "Theta Waves", URI: "spotify:track:b1"},
		{ID: "b2", Title: "Delta Drift", URI: "spotify:track:b2"},
	}

	t.Run("InvalidRange", func(t *testing.T) {
		engine := testEngine(&mocks.MockService{})

		for _, r := range [][2]int{{0, 10}, {10, 10}, {10, 5}} {
			_, err := engine.BuildFrequencyPlaylist(context.Background(), nil, r[0], r[1])
			if !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("range %v: expected ErrInvalidArgument, got %v", r, err)
			}
		}
	})

	t.Run("CreatesPlaylist", func(t *testing.T) {
		var query, createdName string
		svc := &mocks.MockService{
			SearchTracksFunc: func(ctx context.Context, q string, limit int) ([]models.Track, error) {
				query = q
				if limit != 50 {
					t.Errorf("expected search limit 50, got %d", limit)
				}
				return searchResults, nil
			},
			CreatePlaylistFunc: func(ctx context.Context, name, description string, public bool) (*models.Playlist, error) {
				createdName = name
				return &models.Playlist{ID: "beats1", Name: name}, nil
			},
		}
		engine := testEngine(svc)

		result, err := engine.BuildFrequencyPlaylist(context.Background(), nil, 4, 8)
		if err != nil {
			t.Fatalf("build failed: %v", err)
		}

		if query != "binaural beats 4Hz 8Hz" {
			t.Errorf("unexpected query: %s", query)
		}
		if createdName != "Binaural Beats 4-8 Hz" {
			t.Errorf("unexpected playlist name: %s", createdName)
		}
		if !result.Created || result.Added != 2 {
			t.Errorf("expected created playlist with 2 tracks, got %+v", result)
		}
	})

	t.Run("ReusesExistingPlaylist", func(t *testing.T) {
		var addedURIs []string
		svc := &mocks.MockService{
			SearchTracksFunc: func(ctx context.Context, q string, limit int) ([]models.Track, error) {
				return searchResults, nil
			},
			GetPlaylistsFunc: func(ctx context.Context) ([]models.Playlist, error) {
				return []models.Playlist{{ID: "beats1", Name: "Binaural Beats 4-8 Hz"}}, nil
			},
			ExportPlaylistFunc: func(ctx context.Context, id string) (*models.PlaylistExport, error) {
				return &models.PlaylistExport{
					Playlist: models.Playlist{ID: "beats1", Name: "Binaural Beats 4-8 Hz"},
					Tracks:   []models.Track{{ID: "b1"}},
				}, nil
			},
			AddTracksFunc: func(ctx context.Context, playlistID string, uris []string) error {
				addedURIs = uris
				return nil
			},
		}
		engine := testEngine(svc)

		result, err := engine.BuildFrequencyPlaylist(context.Background(), nil, 4, 8)
		if err != nil {
			t.Fatalf("build failed: %v", err)
		}

		if result.Created {
			t.Error("existing playlist should not be recreated")
		}
		if result.Added != 1 || len(addedURIs) != 1 {
			t.Errorf("expected 1 new track, got %d", result.Added)
		}
	})

	t.Run("NoResults", func(t *testing.T) {
		svc := &mocks.MockService{
			SearchTracksFunc: func(ctx context.Context, q string, limit int) ([]models.Track, error) {
				return nil, nil
			},
		}
		engine := testEngine(svc)

		_, err := engine.BuildFrequencyPlaylist(context.Background(), nil, 4, 8)
		if !errors.Is(err, shared.ErrTrackNotFound) {
			t.Errorf("expected ErrTrackNotFound, got %v", err)
		}
	})
}
