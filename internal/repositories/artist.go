package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"spooty/internal/models"
	"spooty/internal/shared"
)

// ArtistRepository implements models.Repository[*models.CachedArtist] for the
// genre cache backing the backlog sampler's genre filter.
type ArtistRepository struct {
	db *sql.DB
}

// NewArtistRepository creates a new ArtistRepository with the given database connection
func NewArtistRepository(db *sql.DB) *ArtistRepository {
	return &ArtistRepository{db: db}
}

// Create inserts a new artist into the database with generated ID and sequence
func (r *ArtistRepository) Create(artist *models.CachedArtist) error {
	sequence, err := NextSequence(r.db, "artists")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	artist.SetSequence(sequence)
	artist.SetID(shared.GenerateID())

	if err := artist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO artists (id, sequence, spotify_id, name, genres, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		artist.ID(),
		artist.Sequence(),
		artist.SpotifyID(),
		artist.Name(),
		artist.GenresString(),
		artist.CreatedAt(),
		artist.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert artist: %w", err)
	}

	return nil
}

// Upsert creates the artist if its Spotify ID is unseen, otherwise refreshes
// its name and genre list.
func (r *ArtistRepository) Upsert(artist *models.CachedArtist) (*models.CachedArtist, error) {
	existing, err := r.GetBySpotifyID(artist.SpotifyID())
	if err != nil {
		if createErr := r.Create(artist); createErr != nil {
			return nil, createErr
		}
		return artist, nil
	}

	query := `
		UPDATE artists
		SET name = ?, genres = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	_, err = r.db.Exec(query, artist.Name(), artist.GenresString(), time.Now(), existing.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to upsert artist: %w", err)
	}

	return r.Get(existing.ID())
}

// Get retrieves an artist by ID, excluding soft-deleted artists
func (r *ArtistRepository) Get(id string) (*models.CachedArtist, error) {
	query := `
		SELECT id, sequence, spotify_id, name, genres, created_at, updated_at, deleted_at
		FROM artists
		WHERE id = ? AND deleted_at IS NULL
	`

	return r.scan(r.db.QueryRow(query, id))
}

// GetBySpotifyID retrieves an artist by its Spotify identifier
func (r *ArtistRepository) GetBySpotifyID(spotifyID string) (*models.CachedArtist, error) {
	query := `
		SELECT id, sequence, spotify_id, name, genres, created_at, updated_at, deleted_at
		FROM artists
		WHERE spotify_id = ? AND deleted_at IS NULL
	`

	return r.scan(r.db.QueryRow(query, spotifyID))
}

// Update modifies an existing artist in the database
func (r *ArtistRepository) Update(artist *models.CachedArtist) error {
	if err := artist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	artist.SetUpdatedAt(now)

	query := `
		UPDATE artists
		SET name = ?, genres = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, artist.Name(), artist.GenresString(), now, artist.ID())
	if err != nil {
		return fmt.Errorf("failed to update artist: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("artist not found or already deleted: %s", artist.ID())
	}

	return nil
}

// Delete soft-deletes an artist by ID
func (r *ArtistRepository) Delete(id string) error {
	query := `
		UPDATE artists
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete artist: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("artist not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves all artists matching the given criteria, excluding soft-deleted artists.
//
// Supported criteria keys: genre (string, matched against the comma-joined genre list).
func (r *ArtistRepository) List(criteria map[string]any) ([]*models.CachedArtist, error) {
	query := `
		SELECT id, sequence, spotify_id, name, genres, created_at, updated_at, deleted_at
		FROM artists
		WHERE deleted_at IS NULL
	`

	args := []any{}

	if genre, ok := criteria["genre"].(string); ok && genre != "" {
		query += " AND (',' || genres || ',') LIKE ?"
		args = append(args, "%,"+genre+",%")
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query artists: %w", err)
	}
	defer rows.Close()

	var artists []*models.CachedArtist
	for rows.Next() {
		artist, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		artists = append(artists, artist)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return artists, nil
}

func (r *ArtistRepository) scan(s rowScanner) (*models.CachedArtist, error) {
	var (
		id        string
		sequence  int
		spotifyID string
		name      string
		genres    string
		createdAt time.Time
		updatedAt time.Time
		deletedAt sql.NullTime
	)

	err := s.Scan(&id, &sequence, &spotifyID, &name, &genres, &createdAt, &updatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("artist not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan artist: %w", err)
	}

	dto := models.Artist{
		ID:     spotifyID,
		Name:   name,
		Genres: models.ParseGenres(genres),
	}

	artist := models.NewCachedArtist(sequence, dto)
	artist.SetID(id)
	artist.SetCreatedAt(createdAt)
	artist.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		artist.SetDeletedAt(&deletedAt.Time)
	}

	return artist, nil
}
