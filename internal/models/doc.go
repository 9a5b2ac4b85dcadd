// Package models defines domain entities and persistence interfaces for the spooty playlist manager.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): Lightweight structs representing Spotify API data
//   - [Playlist] : Playlist metadata including the public/private visibility flag
//   - [PlaylistExport] : Playlist with complete track listing
//   - [Track] : Song metadata including the artist reference used for genre lookups
//   - [Artist] : Artist with genre list driving the sampler's genre filter
//   - [User] : The authenticated Spotify account
//
// 2. Persistent Entities: Database-backed cache rows with full lifecycle management
//   - [CachedPlaylist] : Cached playlists with owner metadata
//   - [CachedTrack] : Cached tracks
//   - [CachedArtist] : Cached artists with genre strings
//
// All persistent entities implement the Model interface providing ID generation, timestamps, validation, and soft delete support.
// The Repository[T] interface defines standard CRUD operations for database access.
//
// The cache is an optimization only; Spotify remains the system of record and a
// displayed playlist's visibility always reflects the last successful API response.
package models
