// Package web implements an HTMX-based browser UI for the playlist manager.
//
// The app replicates the CLI workflows with server-side rendering and HTMX
// partial swaps: a backlog sampler page, a playlist privacy page, a liked-song
// sync page, and a binaural beats builder page. Authentication state lives in
// a cookie session (gorilla/sessions); the OAuth token is installed on the
// shared Spotify service and persisted back to config.toml so the CLI and web
// app share a login.
package web

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gorilla/sessions"
	"golang.org/x/oauth2"

	"spooty/internal/server"
	"spooty/internal/services"
	"spooty/internal/shared"
	"spooty/internal/tasks"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	sessionName  = "spooty_session"
	sessionState = "oauth_state"
	sessionToken = "oauth_token"
)

// App wires the Spotify service and library engine into HTTP handlers.
type App struct {
	service    services.OAuthService
	engine     tasks.Engine
	store      *sessions.CookieStore
	config     *shared.Config
	configPath string
	logger     *log.Logger
	templates  *template.Template
}

// NewApp creates the web application.
//
// configPath may be empty, in which case tokens are not persisted to disk.
// When the config carries no session key a random one is generated, which
// invalidates existing sessions on restart.
func NewApp(service services.OAuthService, engine tasks.Engine, config *shared.Config, configPath string, logger *log.Logger) (*App, error) {
	if service == nil {
		return nil, fmt.Errorf("%w: service not initialized", shared.ErrServiceUnavailable)
	}

	key := ""
	if config != nil {
		key = config.Web.SessionKey
	}
	if key == "" {
		generated, err := shared.GenerateState()
		if err != nil {
			return nil, fmt.Errorf("failed to generate session key: %w", err)
		}
		key = generated
	}

	templates, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	store := sessions.NewCookieStore([]byte(key))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	return &App{
		service:    service,
		engine:     engine,
		store:      store,
		config:     config,
		configPath: configPath,
		logger:     logger,
		templates:  templates,
	}, nil
}

// Router builds the application router with logging and panic recovery.
func (a *App) Router() *server.BasicRouter {
	router := server.NewBasicRouter()
	router.Use(server.Recovery(a.logger), server.Logging(a.logger))

	router.Handle(http.MethodGet, "/", http.HandlerFunc(a.handleHome))
	router.Handle(http.MethodGet, "/auth/login", http.HandlerFunc(a.handleLogin))
	router.Handle(http.MethodGet, "/callback", http.HandlerFunc(a.handleCallback))
	router.Handle(http.MethodPost, "/auth/logout", http.HandlerFunc(a.handleLogout))

	router.Handle(http.MethodGet, "/sampler", http.HandlerFunc(a.handleSamplerPage))
	router.Handle(http.MethodPost, "/sampler", http.HandlerFunc(a.handleSample))
	router.Handle(http.MethodPost, "/sampler/save", http.HandlerFunc(a.handleSampleSave))

	router.Handle(http.MethodGet, "/privacy", http.HandlerFunc(a.handlePrivacyPage))
	router.Handle(http.MethodPost, "/privacy/toggle", http.HandlerFunc(a.handlePrivacyToggle))
	router.Handle(http.MethodPost, "/privacy/bulk", http.HandlerFunc(a.handlePrivacyBulk))

	router.Handle(http.MethodGet, "/sync", http.HandlerFunc(a.handleSyncPage))
	router.Handle(http.MethodPost, "/sync", http.HandlerFunc(a.handleSync))

	router.Handle(http.MethodGet, "/beats", http.HandlerFunc(a.handleBeatsPage))
	router.Handle(http.MethodPost, "/beats", http.HandlerFunc(a.handleBeats))

	return router
}

// session returns the request's cookie session, swallowing decode errors so a
// stale cookie falls back to a fresh session.
func (a *App) session(r *http.Request) *sessions.Session {
	session, _ := a.store.Get(r, sessionName)
	return session
}

// saveToken stores the token in the session and persists it to config.toml
// when a config path is set.
func (a *App) saveToken(w http.ResponseWriter, r *http.Request, token *oauth2.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	session := a.session(r)
	session.Values[sessionToken] = string(data)
	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	if a.config != nil && a.configPath != "" {
		if err := a.config.Credentials.Spotify.Update(token); err == nil {
			if err := shared.SaveConfig(a.configPath, a.config); err != nil {
				a.logger.Warn("failed to persist token", "error", err)
			}
		}
	}

	return nil
}

// restoreSession installs a session-stored token on the service when the
// service has none. Returns true when the service ends up authenticated.
func (a *App) restoreSession(r *http.Request) bool {
	if _, err := a.service.Token(); err == nil {
		return true
	}

	session := a.session(r)
	raw, ok := session.Values[sessionToken].(string)
	if !ok || raw == "" {
		return false
	}

	var token oauth2.Token
	if err := json.Unmarshal([]byte(raw), &token); err != nil {
		return false
	}

	if err := a.service.OAuthenticate(r.Context(), &token); err != nil {
		return false
	}

	_, err := a.service.Token()
	return err == nil
}

// requireAuth redirects unauthenticated requests to the login flow.
// Returns false when the caller should stop handling the request.
func (a *App) requireAuth(w http.ResponseWriter, r *http.Request) bool {
	if a.restoreSession(r) {
		return true
	}

	http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
	return false
}

// isHTMX reports whether the request came from an HTMX partial swap.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// render executes a named template, writing a bare 500 when rendering fails
// since there is no template left to decorate the error with.
func (a *App) render(w http.ResponseWriter, name string, data *pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := a.templates.ExecuteTemplate(w, name, data); err != nil {
		a.logger.Error("template render failed", "template", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
