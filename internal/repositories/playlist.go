package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"spooty/internal/models"
	"spooty/internal/shared"
)

// PlaylistRepository implements models.Repository[*models.CachedPlaylist] for playlist caching.
//
// Handles playlist CRUD operations with soft delete support and Spotify ID lookups.
type PlaylistRepository struct {
	db *sql.DB
}

// NewPlaylistRepository creates a new PlaylistRepository with the given database connection
func NewPlaylistRepository(db *sql.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

// Create inserts a new playlist into the database with generated ID and sequence
func (r *PlaylistRepository) Create(playlist *models.CachedPlaylist) error {
	sequence, err := NextSequence(r.db, "playlists")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	playlist.SetSequence(sequence)
	playlist.SetID(shared.GenerateID())

	if err := playlist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO playlists (id, sequence, spotify_id, owner_id, name, description, track_count, public, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		playlist.ID(),
		playlist.Sequence(),
		playlist.SpotifyID(),
		playlist.OwnerID(),
		playlist.Name(),
		playlist.Description(),
		playlist.TrackCount(),
		playlist.Public(),
		playlist.CreatedAt(),
		playlist.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert playlist: %w", err)
	}

	return nil
}

// Upsert creates the playlist if its Spotify ID is unseen, otherwise
// refreshes its mutable fields.
func (r *PlaylistRepository) Upsert(playlist *models.CachedPlaylist) (*models.CachedPlaylist, error) {
	existing, err := r.GetBySpotifyID(playlist.SpotifyID())
	if err != nil {
		if createErr := r.Create(playlist); createErr != nil {
			return nil, createErr
		}
		return playlist, nil
	}

	existing.SetName(playlist.Name())
	existing.SetPublic(playlist.Public())
	existing.SetTrackCount(playlist.TrackCount())
	existing.SetDescription(playlist.Description())
	if err := r.Update(existing); err != nil {
		return nil, err
	}

	return existing, nil
}

// Get retrieves a playlist by ID, excluding soft-deleted playlists
func (r *PlaylistRepository) Get(id string) (*models.CachedPlaylist, error) {
	query := `
		SELECT id, sequence, spotify_id, owner_id, name, description, track_count, public, created_at, updated_at, deleted_at
		FROM playlists
		WHERE id = ? AND deleted_at IS NULL
	`

	return r.scanOne(r.db.QueryRow(query, id))
}

// GetBySpotifyID retrieves a playlist by its Spotify identifier
func (r *PlaylistRepository) GetBySpotifyID(spotifyID string) (*models.CachedPlaylist, error) {
	query := `
		SELECT id, sequence, spotify_id, owner_id, name, description, track_count, public, created_at, updated_at, deleted_at
		FROM playlists
		WHERE spotify_id = ? AND deleted_at IS NULL
	`

	return r.scanOne(r.db.QueryRow(query, spotifyID))
}

// Update modifies an existing playlist in the database
func (r *PlaylistRepository) Update(playlist *models.CachedPlaylist) error {
	if err := playlist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	playlist.SetUpdatedAt(now)

	query := `
		UPDATE playlists
		SET name = ?, description = ?, track_count = ?, public = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		playlist.Name(),
		playlist.Description(),
		playlist.TrackCount(),
		playlist.Public(),
		now,
		playlist.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update playlist: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlist.ID())
	}

	return nil
}

// SetVisibility updates the public flag of a cached playlist, keyed by Spotify ID
func (r *PlaylistRepository) SetVisibility(spotifyID string, public bool) error {
	query := `
		UPDATE playlists
		SET public = ?, updated_at = ?
		WHERE spotify_id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, public, time.Now(), spotifyID)
	if err != nil {
		return fmt.Errorf("failed to update playlist visibility: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, spotifyID)
	}

	return nil
}

// Delete soft-deletes a playlist by ID
func (r *PlaylistRepository) Delete(id string) error {
	query := `
		UPDATE playlists
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
	}

	return nil
}

// List retrieves all playlists matching the given criteria, excluding soft-deleted playlists.
//
// Supported criteria keys: owner_id (string), public (bool).
func (r *PlaylistRepository) List(criteria map[string]any) ([]*models.CachedPlaylist, error) {
	query := `
		SELECT id, sequence, spotify_id, owner_id, name, description, track_count, public, created_at, updated_at, deleted_at
		FROM playlists
		WHERE deleted_at IS NULL
	`

	args := []any{}

	if ownerID, ok := criteria["owner_id"].(string); ok && ownerID != "" {
		query += " AND owner_id = ?"
		args = append(args, ownerID)
	}

	if public, ok := criteria["public"].(bool); ok {
		query += " AND public = ?"
		args = append(args, public)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	var playlists []*models.CachedPlaylist
	for rows.Next() {
		playlist, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		playlists = append(playlists, playlist)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return playlists, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PlaylistRepository) scan(s rowScanner) (*models.CachedPlaylist, error) {
	var (
		id          string
		sequence    int
		spotifyID   string
		ownerID     string
		name        string
		description string
		trackCount  int
		public      bool
		createdAt   time.Time
		updatedAt   time.Time
		deletedAt   sql.NullTime
	)

	err := s.Scan(&id, &sequence, &spotifyID, &ownerID, &name, &description, &trackCount, &public, &createdAt, &updatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: playlist", shared.ErrPlaylistNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan playlist: %w", err)
	}

	dto := models.Playlist{
		ID:          spotifyID,
		Name:        name,
		Description: description,
		OwnerID:     ownerID,
		TrackCount:  trackCount,
		Public:      public,
	}

	playlist := models.NewCachedPlaylist(sequence, ownerID, dto)
	playlist.SetID(id)
	playlist.SetCreatedAt(createdAt)
	playlist.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		playlist.SetDeletedAt(&deletedAt.Time)
	}

	return playlist, nil
}

// scanOne scans a single row into a [models.CachedPlaylist]
func (r *PlaylistRepository) scanOne(row *sql.Row) (*models.CachedPlaylist, error) {
	return r.scan(row)
}

// scanRow scans a row from [sql.Rows] into a [models.CachedPlaylist]
func (r *PlaylistRepository) scanRow(rows *sql.Rows) (*models.CachedPlaylist, error) {
	return r.scan(rows)
}
