// package services defines interface Service for interacting with the Spotify Web API
package services

import (
	"context"

	"golang.org/x/oauth2"

	"spooty/internal/models"
)

// Service defines the operations the pages and CLI commands need from the
// streaming provider: listing playlists, reading tracks, changing visibility,
// and building playlists from samples or search results.
type Service interface {
	// Authenticate performs OAuth or token-based authentication with the service.
	// Returns an error if authentication fails.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// CurrentUser retrieves the authenticated user's profile.
	CurrentUser(ctx context.Context) (*models.User, error)

	// GetPlaylists retrieves all playlists for the authenticated user, following pagination.
	GetPlaylists(ctx context.Context) ([]models.Playlist, error)

	// GetPlaylist retrieves a specific playlist by ID.
	GetPlaylist(ctx context.Context, playlistID string) (*models.Playlist, error)

	// ExportPlaylist retrieves a playlist together with its complete track listing.
	ExportPlaylist(ctx context.Context, playlistID string) (*models.PlaylistExport, error)

	// SetPlaylistVisibility flips the public/private flag on a playlist.
	// Idempotent: setting the current value is a no-op on the remote side.
	SetPlaylistVisibility(ctx context.Context, playlistID string, public bool) error

	// CreatePlaylist creates a new playlist owned by the authenticated user.
	CreatePlaylist(ctx context.Context, name, description string, public bool) (*models.Playlist, error)

	// AddTracks appends tracks (by URI) to an existing playlist.
	AddTracks(ctx context.Context, playlistID string, uris []string) error

	// SearchTracks searches the catalog for tracks matching the query.
	SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error)

	// GetArtists retrieves artist metadata (including genres) for the given IDs.
	GetArtists(ctx context.Context, artistIDs []string) ([]models.Artist, error)

	// LikedContains reports, per track ID, whether the track is in the user's liked songs.
	LikedContains(ctx context.Context, trackIDs []string) ([]bool, error)

	// Name returns the name of the service (e.g. "Spotify")
	Name() string
}

// OAuthService extends Service with the authorization-code flow hooks used by
// the CLI auth command and the web app's login handlers.
type OAuthService interface {
	Service

	// GetAuthURL returns the provider authorization URL for the given CSRF state token.
	GetAuthURL(state string) string

	// GetOAuthConfig exposes the underlying [oauth2.Config] for callback handling.
	GetOAuthConfig() *oauth2.Config

	// OAuthenticate installs an existing token (from config or session) on the client.
	OAuthenticate(ctx context.Context, token *oauth2.Token) error

	// Token returns the current (possibly refreshed) token for persistence.
	Token() (*oauth2.Token, error)
}
