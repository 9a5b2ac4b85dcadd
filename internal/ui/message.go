package ui

import (
	"spooty/internal/models"
	"spooty/internal/tasks"
)

// playlistsFetchedMsg carries the playlist listing fetched on startup or restart.
type playlistsFetchedMsg struct {
	playlists []models.Playlist
	err       error
}

// tracksFetchedMsg carries a full playlist export for the preview view.
type tracksFetchedMsg struct {
	playlist *models.PlaylistExport
	err      error
}

// progressUpdateMsg wraps a [tasks.ProgressUpdate] read from the progress channel.
type progressUpdateMsg tasks.ProgressUpdate

// sampleDoneMsg carries the outcome of a sampling run.
type sampleDoneMsg struct {
	result *tasks.SampleResult
	err    error
}

// visibilityDoneMsg carries the outcome of a visibility toggle.
type visibilityDoneMsg struct {
	playlist models.Playlist
	err      error
}
