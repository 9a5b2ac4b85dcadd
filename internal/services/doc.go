// Package services wraps the Spotify Web API behind the [Service] interface.
//
// [SpotifyService] implements the full surface the application needs: profile
// lookup, paginated playlist and track listings, visibility changes, playlist
// creation, track addition, catalog search, artist genre lookups, and liked
// song checks. Authentication uses the OAuth2 authorization-code flow via
// golang.org/x/oauth2; once a token is installed the HTTP client refreshes it
// transparently.
//
// Wire types (SpotifyPlaylist, SpotifyTrack, ...) mirror the provider's JSON
// and are converted at the boundary to the DTOs in the models package. Error
// statuses are mapped to the sentinel errors in internal/shared: 401 becomes
// ErrTokenExpired, 404 ErrPlaylistNotFound, 429 ErrRateLimited.
package services
