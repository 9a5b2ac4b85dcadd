package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"spooty/internal/models"
	"spooty/internal/shared"
)

// TrackRepository implements models.Repository[*models.CachedTrack] for track caching.
//
// Also manages the playlist_tracks join table so cached playlists keep their
// track ordering across refreshes.
type TrackRepository struct {
	db *sql.DB
}

// NewTrackRepository creates a new TrackRepository with the given database connection
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

// Create inserts a new track into the database with generated ID and sequence
func (r *TrackRepository) Create(track *models.CachedTrack) error {
	sequence, err := NextSequence(r.db, "tracks")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	track.SetSequence(sequence)
	track.SetID(shared.GenerateID())

	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO tracks (id, sequence, spotify_id, title, artist, artist_id, album, duration, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		track.ID(),
		track.Sequence(),
		track.SpotifyID(),
		track.Title(),
		track.Artist(),
		track.ArtistID(),
		track.Album(),
		track.Duration(),
		track.CreatedAt(),
		track.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert track: %w", err)
	}

	return nil
}

// Upsert creates the track if its Spotify ID is unseen, otherwise refreshes its metadata.
func (r *TrackRepository) Upsert(track *models.CachedTrack) (*models.CachedTrack, error) {
	existing, err := r.GetBySpotifyID(track.SpotifyID())
	if err != nil {
		if createErr := r.Create(track); createErr != nil {
			return nil, createErr
		}
		return track, nil
	}

	query := `
		UPDATE tracks
		SET title = ?, artist = ?, artist_id = ?, album = ?, duration = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	_, err = r.db.Exec(query,
		track.Title(),
		track.Artist(),
		track.ArtistID(),
		track.Album(),
		track.Duration(),
		time.Now(),
		existing.ID(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert track: %w", err)
	}

	return r.Get(existing.ID())
}

// Get retrieves a track by ID, excluding soft-deleted tracks
func (r *TrackRepository) Get(id string) (*models.CachedTrack, error) {
	query := `
		SELECT id, sequence, spotify_id, title, artist, artist_id, album, duration, created_at, updated_at, deleted_at
		FROM tracks
		WHERE id = ? AND deleted_at IS NULL
	`

	return r.scan(r.db.QueryRow(query, id))
}

// GetBySpotifyID retrieves a track by its Spotify identifier
func (r *TrackRepository) GetBySpotifyID(spotifyID string) (*models.CachedTrack, error) {
	query := `
		SELECT id, sequence, spotify_id, title, artist, artist_id, album, duration, created_at, updated_at, deleted_at
		FROM tracks
		WHERE spotify_id = ? AND deleted_at IS NULL
	`

	return r.scan(r.db.QueryRow(query, spotifyID))
}

// Update modifies an existing track in the database
func (r *TrackRepository) Update(track *models.CachedTrack) error {
	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	track.SetUpdatedAt(now)

	query := `
		UPDATE tracks
		SET title = ?, artist = ?, artist_id = ?, album = ?, duration = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		track.Title(),
		track.Artist(),
		track.ArtistID(),
		track.Album(),
		track.Duration(),
		now,
		track.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update track: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrTrackNotFound, track.ID())
	}

	return nil
}

// Delete soft-deletes a track by ID
func (r *TrackRepository) Delete(id string) error {
	query := `
		UPDATE tracks
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete track: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrTrackNotFound, id)
	}

	return nil
}

// List retrieves all tracks matching the given criteria, excluding soft-deleted tracks.
//
// Supported criteria keys: artist_id (string).
func (r *TrackRepository) List(criteria map[string]any) ([]*models.CachedTrack, error) {
	query := `
		SELECT id, sequence, spotify_id, title, artist, artist_id, album, duration, created_at, updated_at, deleted_at
		FROM tracks
		WHERE deleted_at IS NULL
	`

	args := []any{}

	if artistID, ok := criteria["artist_id"].(string); ok && artistID != "" {
		query += " AND artist_id = ?"
		args = append(args, artistID)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	return r.collect(rows)
}

// SetPlaylistTracks replaces the join table rows for a playlist with the given
// ordered track IDs. Both IDs are local cache IDs, not Spotify IDs.
func (r *TrackRepository) SetPlaylistTracks(playlistID string, trackIDs []string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM playlist_tracks WHERE playlist_id = ?", playlistID); err != nil {
		return fmt.Errorf("failed to clear playlist tracks: %w", err)
	}

	for position, trackID := range trackIDs {
		_, err := tx.Exec(
			"INSERT INTO playlist_tracks (playlist_id, track_id, position) VALUES (?, ?, ?)",
			playlistID, trackID, position,
		)
		if err != nil {
			return fmt.Errorf("failed to insert playlist track: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit playlist tracks: %w", err)
	}

	return nil
}

// TracksForPlaylist retrieves the cached tracks of a playlist in stored order.
func (r *TrackRepository) TracksForPlaylist(playlistID string) ([]*models.CachedTrack, error) {
	query := `
		SELECT t.id, t.sequence, t.spotify_id, t.title, t.artist, t.artist_id, t.album, t.duration, t.created_at, t.updated_at, t.deleted_at
		FROM tracks t
		JOIN playlist_tracks pt ON pt.track_id = t.id
		WHERE pt.playlist_id = ? AND t.deleted_at IS NULL
		ORDER BY pt.position ASC
	`

	rows, err := r.db.Query(query, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist tracks: %w", err)
	}
	defer rows.Close()

	return r.collect(rows)
}

func (r *TrackRepository) collect(rows *sql.Rows) ([]*models.CachedTrack, error) {
	var tracks []*models.CachedTrack
	for rows.Next() {
		track, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tracks, nil
}

func (r *TrackRepository) scan(s rowScanner) (*models.CachedTrack, error) {
	var (
		id        string
		sequence  int
		spotifyID string
		title     string
		artist    string
		artistID  string
		album     string
		duration  int
		createdAt time.Time
		updatedAt time.Time
		deletedAt sql.NullTime
	)

	err := s.Scan(&id, &sequence, &spotifyID, &title, &artist, &artistID, &album, &duration, &createdAt, &updatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: track", shared.ErrTrackNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan track: %w", err)
	}

	dto := models.Track{
		ID:       spotifyID,
		Title:    title,
		Artist:   artist,
		ArtistID: artistID,
		Album:    album,
		Duration: duration,
	}

	track := models.NewCachedTrack(sequence, dto)
	track.SetID(id)
	track.SetCreatedAt(createdAt)
	track.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		track.SetDeletedAt(&deletedAt.Time)
	}

	return track, nil
}
