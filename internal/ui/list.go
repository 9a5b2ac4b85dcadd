package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"spooty/internal/models"
)

var (
	_ list.Item = playlistItem{}
	_ list.Item = trackItem{}
	_ list.Item = actionItem{}
)

// playlistItem wraps [models.Playlist] to implement [list.Item].
type playlistItem struct {
	playlist models.Playlist
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }
func (i playlistItem) Title() string       { return i.playlist.Name }
func (i playlistItem) Description() string {
	visibility := "private"
	if i.playlist.Public {
		visibility = "public"
	}
	desc := fmt.Sprintf("%d tracks • %s", i.playlist.TrackCount, visibility)
	if i.playlist.Description != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.playlist.Description)
	}
	return desc
}

// trackItem wraps [models.Track] to implement [list.Item].
type trackItem struct {
	track models.Track
}

func (i trackItem) FilterValue() string { return i.track.Title }
func (i trackItem) Title() string       { return i.track.Title }
func (i trackItem) Description() string {
	desc := i.track.Artist
	if i.track.Album != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.Album)
	}
	return desc
}

// actionItem is a menu entry on the playlist action view.
type actionItem struct {
	action action
	title  string
	desc   string
}

func (i actionItem) FilterValue() string { return i.title }
func (i actionItem) Title() string       { return i.title }
func (i actionItem) Description() string { return i.desc }

// action enumerates what can be done with a selected playlist.
type action int

const (
	actionPreview action = iota
	actionSample
	actionToggle
)
