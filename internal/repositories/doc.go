// Package repositories implements the SQLite persistence layer for the local
// library cache.
//
// Playlists, tracks, and artists fetched from Spotify are cached so repeated
// sampler and privacy runs avoid refetching the full library. Each repository
// implements [models.Repository] for its entity with soft deletes and
// monotonic sequence numbers generated from per-table sequence tables.
package repositories
