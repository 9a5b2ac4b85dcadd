// package models defines the data model for the playlist manager
package models

import (
	"time"
)

// Model defines the base interface for all persistent models.
// Implementations include CachedPlaylist, CachedTrack, and CachedArtist.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// Playlist represents a Spotify playlist as displayed and mutated by the app.
type Playlist struct {
	ID          string
	Name        string
	Description string
	OwnerID     string
	TrackCount  int
	Public      bool
}

// PlaylistExport represents a playlist with its complete track listing.
type PlaylistExport struct {
	Playlist Playlist
	Tracks   []Track
}

// Track represents a music track. Read-only within this application.
type Track struct {
	ID       string
	Title    string
	Artist   string
	ArtistID string
	Album    string
	Duration int    // Duration in seconds
	URI      string // Spotify URI, needed when adding tracks to playlists
}

// Artist represents a Spotify artist with genre metadata.
//
// Genres drive the backlog sampler's genre filter.
type Artist struct {
	ID     string
	Name   string
	Genres []string
}

// User represents the authenticated Spotify user.
type User struct {
	ID          string
	DisplayName string
	Email       string
}
