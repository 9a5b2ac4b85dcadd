// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for playlist management:
//  1. [PlaylistListView] : Browse the user's Spotify playlists
//  2. [ActionView] : Choose between previewing, sampling, and toggling visibility
//  3. [TrackListView] : Preview a playlist's tracks
//  4. [SampleSizeView] : Enter the sample size
//  5. [WorkingView] : Monitor progress updates
//  6. [ResultView] : Display the sample or the new visibility
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Progress updates flow through a channel from the LibraryEngine, providing non-blocking status reporting.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, v, r, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
