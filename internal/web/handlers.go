package web

import (
	"net/http"
	"strconv"

	"spooty/internal/models"
	"spooty/internal/shared"
	"spooty/internal/tasks"
)

// pageData is the template context shared by all pages.
type pageData struct {
	Title     string
	Active    string // Nav highlight: home, sampler, privacy, sync, beats
	Authed    bool
	User      *models.User
	Error     string
	Flash     string
	Playlists []models.Playlist

	Sample *tasks.SampleResult
	Saved  *models.Playlist
	Toggle *toggleRow
	Bulk   *tasks.BulkVisibilityResult
	Sync   *tasks.SyncResult
	Beats  *tasks.BeatsResult
}

// toggleRow carries one privacy table row through the toggle partial.
type toggleRow struct {
	Playlist models.Playlist
	Error    string
}

// page builds the base template context for a request.
func (a *App) page(r *http.Request, title, active string) *pageData {
	data := &pageData{Title: title, Active: active}

	if a.restoreSession(r) {
		data.Authed = true
		if user, err := a.service.CurrentUser(r.Context()); err == nil {
			data.User = user
		}
	}

	return data
}

func (a *App) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	a.render(w, "home.html", a.page(r, "Spooty", "home"))
}

func (a *App) handleLogin(w http.ResponseWriter, r *http.Request) {
	state, err := shared.GenerateState()
	if err != nil {
		a.logger.Error("failed to generate state", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	session := a.session(r)
	session.Values[sessionState] = state
	if err := session.Save(r, w); err != nil {
		a.logger.Error("failed to save session", "error", err)
		http.Error(w, "session error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, a.service.GetAuthURL(state), http.StatusSeeOther)
}

func (a *App) handleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if errMsg := query.Get("error"); errMsg != "" {
		data := a.page(r, "Spooty", "home")
		data.Error = "Authorization denied: " + errMsg
		a.render(w, "home.html", data)
		return
	}

	session := a.session(r)
	expected, _ := session.Values[sessionState].(string)
	if expected == "" || query.Get("state") != expected {
		data := a.page(r, "Spooty", "home")
		data.Error = "State mismatch, please try logging in again."
		a.render(w, "home.html", data)
		return
	}
	delete(session.Values, sessionState)

	code := query.Get("code")
	if code == "" {
		data := a.page(r, "Spooty", "home")
		data.Error = "No authorization code received."
		a.render(w, "home.html", data)
		return
	}

	token, err := a.service.GetOAuthConfig().Exchange(r.Context(), code)
	if err != nil {
		a.logger.Error("token exchange failed", "error", err)
		data := a.page(r, "Spooty", "home")
		data.Error = "Token exchange failed, please try again."
		a.render(w, "home.html", data)
		return
	}

	if err := a.service.OAuthenticate(r.Context(), token); err != nil {
		data := a.page(r, "Spooty", "home")
		data.Error = "Authentication failed: " + err.Error()
		a.render(w, "home.html", data)
		return
	}

	if err := a.saveToken(w, r, token); err != nil {
		a.logger.Warn("failed to save token", "error", err)
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (a *App) handleLogout(w http.ResponseWriter, r *http.Request) {
	session := a.session(r)
	session.Options.MaxAge = -1
	if err := session.Save(r, w); err != nil {
		a.logger.Warn("failed to clear session", "error", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// loadPlaylists fills the playlist list, recording API failures on the page
// instead of aborting.
func (a *App) loadPlaylists(r *http.Request, data *pageData) {
	playlists, err := a.service.GetPlaylists(r.Context())
	if err != nil {
		data.Error = "Failed to load playlists: " + err.Error()
		return
	}
	data.Playlists = playlists
}

func (a *App) handleSamplerPage(w http.ResponseWriter, r *http.Request) {
	if !a.requireAuth(w, r) {
		return
	}

	data := a.page(r, "Backlog Sampler", "sampler")
	a.loadPlaylists(r, data)
	a.render(w, "sampler.html", data)
}

func (a *App) handleSample(w http.ResponseWriter, r *http.Request) {
	if !a.requireAuth(w, r) {
		return
	}

	size, err := strconv.Atoi(r.FormValue("size"))
	if err != nil {
		size = 0
	}

	opts := tasks.SampleOpts{
		PlaylistID: r.FormValue("playlist"),
		Size:       size,
		Genre:      r.FormValue("genre"),
		Dedup:      r.FormValue("dedup") == "on",
	}

	data := a.page(r, "Backlog Sampler", "sampler")

	sample, err := a.engine.Sample(r.Context(), nil, opts)
	if err != nil {
		data.Error = err.Error()
	} else {
		data.Sample = sample
	}

	if isHTMX(r) {
		a.render(w, "sample_result", data)
		return
	}

	a.loadPlaylists(r, data)
	a.render(w, "sampler.html", data)
}

func (a *App) handleSampleSave(w http.ResponseWriter, r *http.Request) {
	if !a.requireAuth(w, r) {
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	sample := &tasks.SampleResult{
		Playlist: models.Playlist{Name: r.FormValue("source")},
	}
	for _, uri := range r.Form["uris"] {
		sample.Tracks = append(sample.Tracks, models.Track{URI: uri})
	}

	data := a.page(r, "Backlog Sampler", "sampler")

	saved, err := a.engine.SaveSample(r.Context(), nil, sample, r.FormValue("label"))
	if err != nil {
		data.Error = err.Error()
	} else {
		data.Saved = saved
		data.Flash = "Saved " + saved.Name
	}

	if isHTMX(r) {
		a.render(w, "save_result", data)
		return
	}

	a.loadPlaylists(r, data)
	a.render(w, "sampler.html", data)
}

func (a *App) handlePrivacyPage(w http.ResponseWriter, r *http.Request) {
	if !a.requireAuth(w, r) {
		return
	}

	data := a.page(r, "Playlist Privacy", "privacy")
	a.loadPlaylists(r, data)
	a.render(w, "privacy.html", data)
}

func (a *App) handlePrivacyToggle(w http.ResponseWriter, r *http.Request) {
	if !a.requireAuth(w, r) {
		return
	}

	id := r.FormValue("id")
	public := r.FormValue("public") == "true"

	row := &toggleRow{
		Playlist: models.Playlist{
			ID:     id,
			Name:   r.FormValue("name"),
			Public: !public, // unchanged until the API call succeeds
		},
	}
	if count, err := strconv.Atoi(r.FormValue("tracks")); err == nil {
		row.Playlist.TrackCount = count
	}

	if err := a.engine.SetVisibility(r.Context(), id, public); err != nil {
		row.Error = err.Error()
	} else {
		row.Playlist.Public = public
	}

	if isHTMX(r) {
		data := a.page(r, "Playlist Privacy", "privacy")
		data.Toggle = row
		a.render(w, "playlist_row", data)
		return
	}

	http.Redirect(w, r, "/privacy", http.StatusSeeOther)
}

func (a *App) handlePrivacyBulk(w http.ResponseWriter, r *http.Request) {
	if !a.requireAuth(w, r) {
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	public := r.FormValue("public") == "true"
	ids := r.Form["ids"]

	data := a.page(r, "Playlist Privacy", "privacy")

	result, err := a.engine.BulkVisibility(r.Context(), nil, ids, public)
	if err != nil {
		data.Error = err.Error()
	} else {
		data.Bulk = result
		data.Flash = "Updated " + strconv.Itoa(result.Updated) + " of " + strconv.Itoa(result.Total) + " playlists"
	}

	a.loadPlaylists(r, data)
	a.render(w, "privacy.html", data)
}

func (a *App) handleSyncPage(w http.ResponseWriter, r *http.Request) {
	if !a.requireAuth(w, r) {
		return
	}

	data := a.page(r, "Playlist Sync", "sync")
	a.loadPlaylists(r, data)
	a.render(w, "sync.html", data)
}

func (a *App) handleSync(w http.ResponseWriter, r *http.Request) {
	if !a.requireAuth(w, r) {
		return
	}

	data := a.page(r, "Playlist Sync", "sync")

	result, err := a.engine.SyncLiked(r.Context(), nil,
		r.FormValue("source"), r.FormValue("dest"), r.FormValue("dest_name"))
	if err != nil {
		data.Error = err.Error()
	} else {
		data.Sync = result
	}

	if isHTMX(r) {
		a.render(w, "sync_result", data)
		return
	}

	a.loadPlaylists(r, data)
	a.render(w, "sync.html", data)
}

func (a *App) handleBeatsPage(w http.ResponseWriter, r *http.Request) {
	if !a.requireAuth(w, r) {
		return
	}

	a.render(w, "beats.html", a.page(r, "Binaural Beats", "beats"))
}

func (a *App) handleBeats(w http.ResponseWriter, r *http.Request) {
	if !a.requireAuth(w, r) {
		return
	}

	minHz, _ := strconv.Atoi(r.FormValue("min"))
	maxHz, _ := strconv.Atoi(r.FormValue("max"))

	data := a.page(r, "Binaural Beats", "beats")

	result, err := a.engine.BuildFrequencyPlaylist(r.Context(), nil, minHz, maxHz)
	if err != nil {
		data.Error = err.Error()
	} else {
		data.Beats = result
	}

	if isHTMX(r) {
		a.render(w, "beats_result", data)
		return
	}

	a.render(w, "beats.html", data)
}
