package models

import (
	"fmt"
	"strings"
	"time"
)

// CachedPlaylist is the database-backed form of a [Playlist] row in the local cache.
type CachedPlaylist struct {
	id        string
	sequence  int
	ownerID   string
	dto       Playlist
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

// NewCachedPlaylist wraps a [Playlist] DTO for persistence.
func NewCachedPlaylist(sequence int, ownerID string, dto Playlist) *CachedPlaylist {
	now := time.Now()
	return &CachedPlaylist{
		sequence:  sequence,
		ownerID:   ownerID,
		dto:       dto,
		createdAt: now,
		updatedAt: now,
	}
}

func (p *CachedPlaylist) ID() string            { return p.id }
func (p *CachedPlaylist) Sequence() int         { return p.sequence }
func (p *CachedPlaylist) SpotifyID() string     { return p.dto.ID }
func (p *CachedPlaylist) OwnerID() string       { return p.ownerID }
func (p *CachedPlaylist) Name() string          { return p.dto.Name }
func (p *CachedPlaylist) Description() string   { return p.dto.Description }
func (p *CachedPlaylist) TrackCount() int       { return p.dto.TrackCount }
func (p *CachedPlaylist) Public() bool          { return p.dto.Public }
func (p *CachedPlaylist) CreatedAt() time.Time  { return p.createdAt }
func (p *CachedPlaylist) UpdatedAt() time.Time  { return p.updatedAt }
func (p *CachedPlaylist) DeletedAt() *time.Time { return p.deletedAt }
func (p *CachedPlaylist) DTO() Playlist         { return p.dto }

func (p *CachedPlaylist) SetID(id string)             { p.id = id }
func (p *CachedPlaylist) SetSequence(sequence int)    { p.sequence = sequence }
func (p *CachedPlaylist) SetCreatedAt(t time.Time)    { p.createdAt = t }
func (p *CachedPlaylist) SetUpdatedAt(t time.Time)    { p.updatedAt = t }
func (p *CachedPlaylist) SetDeletedAt(t *time.Time)   { p.deletedAt = t }
func (p *CachedPlaylist) SetName(name string)         { p.dto.Name = name }
func (p *CachedPlaylist) SetPublic(public bool)       { p.dto.Public = public }
func (p *CachedPlaylist) SetTrackCount(n int)         { p.dto.TrackCount = n }
func (p *CachedPlaylist) SetDescription(descr string) { p.dto.Description = descr }

func (p *CachedPlaylist) Validate() error {
	if p.dto.ID == "" {
		return fmt.Errorf("cached playlist missing spotify id")
	}
	if p.dto.Name == "" {
		return fmt.Errorf("cached playlist missing name")
	}
	return nil
}

// CachedTrack is the database-backed form of a [Track] row in the local cache.
type CachedTrack struct {
	id        string
	sequence  int
	dto       Track
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

// NewCachedTrack wraps a [Track] DTO for persistence.
func NewCachedTrack(sequence int, dto Track) *CachedTrack {
	now := time.Now()
	return &CachedTrack{
		sequence:  sequence,
		dto:       dto,
		createdAt: now,
		updatedAt: now,
	}
}

func (t *CachedTrack) ID() string            { return t.id }
func (t *CachedTrack) Sequence() int         { return t.sequence }
func (t *CachedTrack) SpotifyID() string     { return t.dto.ID }
func (t *CachedTrack) Title() string         { return t.dto.Title }
func (t *CachedTrack) Artist() string        { return t.dto.Artist }
func (t *CachedTrack) ArtistID() string      { return t.dto.ArtistID }
func (t *CachedTrack) Album() string         { return t.dto.Album }
func (t *CachedTrack) Duration() int         { return t.dto.Duration }
func (t *CachedTrack) CreatedAt() time.Time  { return t.createdAt }
func (t *CachedTrack) UpdatedAt() time.Time  { return t.updatedAt }
func (t *CachedTrack) DeletedAt() *time.Time { return t.deletedAt }
func (t *CachedTrack) DTO() Track            { return t.dto }

func (t *CachedTrack) SetID(id string)            { t.id = id }
func (t *CachedTrack) SetSequence(sequence int)   { t.sequence = sequence }
func (t *CachedTrack) SetCreatedAt(ts time.Time)  { t.createdAt = ts }
func (t *CachedTrack) SetUpdatedAt(ts time.Time)  { t.updatedAt = ts }
func (t *CachedTrack) SetDeletedAt(ts *time.Time) {
	t.deletedAt = ts
}

func (t *CachedTrack) Validate() error {
	if t.dto.ID == "" {
		return fmt.Errorf("cached track missing spotify id")
	}
	if t.dto.Title == "" {
		return fmt.Errorf("cached track missing title")
	}
	return nil
}

// CachedArtist is the database-backed form of an [Artist] row in the local cache.
//
// Genres are stored as a comma-separated string in SQLite.
type CachedArtist struct {
	id        string
	sequence  int
	dto       Artist
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

// NewCachedArtist wraps an [Artist] DTO for persistence.
func NewCachedArtist(sequence int, dto Artist) *CachedArtist {
	now := time.Now()
	return &CachedArtist{
		sequence:  sequence,
		dto:       dto,
		createdAt: now,
		updatedAt: now,
	}
}

func (a *CachedArtist) ID() string            { return a.id }
func (a *CachedArtist) Sequence() int         { return a.sequence }
func (a *CachedArtist) SpotifyID() string     { return a.dto.ID }
func (a *CachedArtist) Name() string          { return a.dto.Name }
func (a *CachedArtist) Genres() []string      { return a.dto.Genres }
func (a *CachedArtist) CreatedAt() time.Time  { return a.createdAt }
func (a *CachedArtist) UpdatedAt() time.Time  { return a.updatedAt }
func (a *CachedArtist) DeletedAt() *time.Time { return a.deletedAt }
func (a *CachedArtist) DTO() Artist           { return a.dto }

func (a *CachedArtist) SetID(id string)            { a.id = id }
func (a *CachedArtist) SetSequence(sequence int)   { a.sequence = sequence }
func (a *CachedArtist) SetCreatedAt(ts time.Time)  { a.createdAt = ts }
func (a *CachedArtist) SetUpdatedAt(ts time.Time)  { a.updatedAt = ts }
func (a *CachedArtist) SetDeletedAt(ts *time.Time) { a.deletedAt = ts }

// GenresString joins genres for storage.
func (a *CachedArtist) GenresString() string {
	return strings.Join(a.dto.Genres, ",")
}

// ParseGenres splits a stored genre string back into a slice.
func ParseGenres(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func (a *CachedArtist) Validate() error {
	if a.dto.ID == "" {
		return fmt.Errorf("cached artist missing spotify id")
	}
	if a.dto.Name == "" {
		return fmt.Errorf("cached artist missing name")
	}
	return nil
}
