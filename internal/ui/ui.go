package ui

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"spooty/internal/models"
	"spooty/internal/services"
	"spooty/internal/shared"
	"spooty/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PlaylistListView ViewState = iota
	ActionView
	TrackListView
	SampleSizeView
	WorkingView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx              context.Context
	view             ViewState
	spotify          services.Service
	engine           tasks.Engine
	width            int
	height           int
	playlistList     list.Model
	playlists        []models.Playlist
	trackList        list.Model
	actionList       list.Model
	sizeInput        textinput.Model
	selectedPlaylist *models.Playlist
	preview          *models.PlaylistExport
	progressChan     chan tasks.ProgressUpdate
	progress         tasks.ProgressUpdate
	sample           *tasks.SampleResult
	toggled          *models.Playlist
	err              error
	help             help.Model
	keys             keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, spotify services.Service, engine tasks.Engine) *Model {
	sizeInput := textinput.New()
	sizeInput.Placeholder = "10"
	sizeInput.CharLimit = 4
	sizeInput.Width = 10

	return &Model{
		ctx:       ctx,
		view:      PlaylistListView,
		spotify:   spotify,
		engine:    engine,
		sizeInput: sizeInput,
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Init initializes the TUI by fetching playlists from Spotify.
func (m *Model) Init() tea.Cmd {
	return m.fetchPlaylists()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.playlistList.Width() == 0 {
			m.playlistList.SetSize(msg.Width-4, msg.Height-8)
		}
		if m.trackList.Width() == 0 {
			m.trackList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case PlaylistListView:
			return m.handlePlaylistListKeys(msg)
		case ActionView:
			return m.handleActionKeys(msg)
		case TrackListView:
			return m.handleTrackListKeys(msg)
		case SampleSizeView:
			return m.handleSampleSizeKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case playlistsFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.playlists = msg.playlists
		items := make([]list.Item, len(msg.playlists))
		for i, pl := range msg.playlists {
			items[i] = playlistItem{playlist: pl}
		}
		m.playlistList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.playlistList.Title = "Spotify Playlists"
		m.playlistList.SetSize(m.width-4, m.height-8)
		return m, nil

	case tracksFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.view = PlaylistListView
			return m, nil
		}
		m.preview = msg.playlist
		items := make([]list.Item, len(msg.playlist.Tracks))
		for i, track := range msg.playlist.Tracks {
			items[i] = trackItem{track: track}
		}
		m.trackList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.trackList.Title = fmt.Sprintf("Tracks in '%s'", msg.playlist.Playlist.Name)
		m.trackList.SetSize(m.width-4, m.height-8)
		m.view = TrackListView
		return m, nil

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case sampleDoneMsg:
		m.sample = msg.result
		m.err = msg.err
		m.view = ResultView
		m.drainProgress()
		return m, nil

	case visibilityDoneMsg:
		if msg.err == nil {
			m.toggled = &msg.playlist
		}
		m.err = msg.err
		m.view = ResultView
		return m, nil
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case PlaylistListView:
		return m.renderPlaylistList()
	case ActionView:
		return m.renderActions()
	case TrackListView:
		return m.renderTrackList()
	case SampleSizeView:
		return m.renderSampleSize()
	case WorkingView:
		return m.renderWorking()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handlePlaylistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		selected := m.playlistList.SelectedItem()
		if selected != nil {
			if pl, ok := selected.(playlistItem); ok {
				m.selectedPlaylist = &pl.playlist
				m.buildActionList()
				m.view = ActionView
			}
		}
		return m, nil
	case "v":
		selected := m.playlistList.SelectedItem()
		if selected != nil {
			if pl, ok := selected.(playlistItem); ok {
				m.selectedPlaylist = &pl.playlist
				m.view = WorkingView
				return m, m.toggleVisibility()
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.playlistList, cmd = m.playlistList.Update(msg)
	return m, cmd
}

func (m *Model) buildActionList() {
	visibility := "public"
	if m.selectedPlaylist.Public {
		visibility = "private"
	}

	items := []list.Item{
		actionItem{action: actionPreview, title: "Preview tracks", desc: "Browse the playlist before deciding"},
		actionItem{action: actionSample, title: "Sample tracks", desc: "Draw a random sample and save it"},
		actionItem{action: actionToggle, title: "Make " + visibility, desc: "Flip the playlist's visibility"},
	}

	m.actionList = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.actionList.Title = m.selectedPlaylist.Name
	m.actionList.SetShowStatusBar(false)
	m.actionList.SetFilteringEnabled(false)
	m.actionList.SetSize(m.width-4, m.height-8)
}

func (m *Model) handleActionKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = PlaylistListView
		return m, nil
	case "enter":
		selected := m.actionList.SelectedItem()
		if selected == nil {
			return m, nil
		}
		act, ok := selected.(actionItem)
		if !ok {
			return m, nil
		}
		switch act.action {
		case actionPreview:
			return m, m.fetchTracks(m.selectedPlaylist.ID)
		case actionSample:
			m.sizeInput.SetValue("")
			m.sizeInput.Focus()
			m.view = SampleSizeView
			return m, textinput.Blink
		case actionToggle:
			m.view = WorkingView
			return m, m.toggleVisibility()
		}
	}

	var cmd tea.Cmd
	m.actionList, cmd = m.actionList.Update(msg)
	return m, cmd
}

func (m *Model) handleTrackListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = ActionView
		return m, nil
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) handleSampleSizeKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = ActionView
		return m, nil
	case "enter":
		size, err := strconv.Atoi(m.sizeInput.Value())
		if err != nil || size <= 0 {
			size = 10
		}
		m.view = WorkingView
		return m, m.startSample(size)
	}

	var cmd tea.Cmd
	m.sizeInput, cmd = m.sizeInput.Update(msg)
	return m, cmd
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.view = PlaylistListView
		m.selectedPlaylist = nil
		m.preview = nil
		m.sample = nil
		m.toggled = nil
		m.err = nil
		return m, m.fetchPlaylists()
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case PlaylistListView:
		m.playlistList, cmd = m.playlistList.Update(msg)
	case ActionView:
		m.actionList, cmd = m.actionList.Update(msg)
	case TrackListView:
		m.trackList, cmd = m.trackList.Update(msg)
	case SampleSizeView:
		m.sizeInput, cmd = m.sizeInput.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchPlaylists() tea.Cmd {
	return func() tea.Msg {
		playlists, err := m.spotify.GetPlaylists(m.ctx)
		return playlistsFetchedMsg{playlists: playlists, err: err}
	}
}

func (m *Model) fetchTracks(playlistID string) tea.Cmd {
	return func() tea.Msg {
		playlist, err := m.spotify.ExportPlaylist(m.ctx, playlistID)
		return tracksFetchedMsg{playlist: playlist, err: err}
	}
}

func (m *Model) startSample(size int) tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	playlistID := m.selectedPlaylist.ID

	done := make(chan sampleDoneMsg, 1)
	go func() {
		result, err := m.engine.Sample(m.ctx, m.progressChan, tasks.SampleOpts{
			PlaylistID: playlistID,
			Size:       size,
			Dedup:      true,
		})
		done <- sampleDoneMsg{result: result, err: err}
		close(m.progressChan)
	}()

	return tea.Batch(m.waitForProgress(), func() tea.Msg { return <-done })
}

func (m *Model) toggleVisibility() tea.Cmd {
	playlist := *m.selectedPlaylist
	return func() tea.Msg {
		err := m.engine.SetVisibility(m.ctx, playlist.ID, !playlist.Public)
		if err == nil {
			playlist.Public = !playlist.Public
		}
		return visibilityDoneMsg{playlist: playlist, err: err}
	}
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		if m.progressChan == nil {
			return nil
		}

		update, ok := <-m.progressChan
		if !ok {
			return nil
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) drainProgress() {
	if m.progressChan == nil {
		return
	}
	for range m.progressChan {
	}
	m.progressChan = nil
}

func (m *Model) renderPlaylistList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.toggle, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.playlistList.View(), helpView)
}

func (m *Model) renderActions() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.actionList.View(), helpView)
}

func (m *Model) renderTrackList() string {
	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.trackList.View(), helpView)
}

func (m *Model) renderSampleSize() string {
	title := styles.title.Render(fmt.Sprintf("Sample size for '%s'", m.selectedPlaylist.Name))
	info := fmt.Sprintf("The playlist has %d tracks.\n\n%s", m.selectedPlaylist.TrackCount, m.sizeInput.View())
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.back})
	return fmt.Sprintf("%s\n%s\n\n%s", title, info, helpView)
}

func (m *Model) renderWorking() string {
	title := styles.title.Render("Working")
	return fmt.Sprintf("%s\n\n%s", title, m.progress.Message)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Failed: %v\n\nPress r to restart, q to quit", m.err))
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.restart, m.keys.quit})

	if m.toggled != nil {
		title := styles.ok.Render("✓ Visibility updated")
		info := fmt.Sprintf("\n%s is now %s.\n", m.toggled.Name, shared.VisibilityString(m.toggled.Public))
		return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
	}

	if m.sample == nil {
		return styles.err.Render("No result available\n\nPress r to restart, q to quit")
	}

	title := styles.ok.Render(fmt.Sprintf("✓ Sampled %d of %d tracks from %s",
		len(m.sample.Tracks), m.sample.Population, m.sample.Playlist.Name))

	var lines string
	for i, track := range m.sample.Tracks {
		lines += fmt.Sprintf("\n%2d. %s - %s", i+1, track.Artist, track.Title)
	}

	return fmt.Sprintf("%s\n%s\n\n%s", title, lines, helpView)
}
