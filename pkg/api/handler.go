// Package api exposes the session menu over HTTP. Every route except session
// creation identifies the session with the X-Session-ID header.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mchmarny/navmenu/pkg/cascade"
	"github.com/mchmarny/navmenu/pkg/combo"
	"github.com/mchmarny/navmenu/pkg/menu"
	"github.com/mchmarny/navmenu/pkg/metric"
	"github.com/mchmarny/navmenu/pkg/navigation"
	"github.com/mchmarny/navmenu/pkg/session"
)

// SessionHeader carries the session id.
const SessionHeader = "X-Session-ID"

type ctxKey struct{}

// Handler serves the /v1 API.
type Handler struct {
	sessions    *session.Manager
	combos      *combo.Client
	logger      *slog.Logger
	metrics     *metric.Metrics
	defaultRole string
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the handler logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) { h.logger = l }
}

// WithMetrics sets the counters reported by the cascades the handler builds.
func WithMetrics(m *metric.Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// WithCombos enables the catalog and form routes, backed by c.
func WithCombos(c *combo.Client) Option {
	return func(h *Handler) { h.combos = c }
}

// WithDefaultRole sets the role of sessions created without one.
func WithDefaultRole(role string) Option {
	return func(h *Handler) { h.defaultRole = role }
}

// New creates the API handler over sessions.
func New(sessions *session.Manager, opts ...Option) *Handler {
	h := &Handler{sessions: sessions, logger: slog.Default(), metrics: metric.NopMetrics()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns the router, to be mounted under /v1.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/sessions", h.HandleCreateSession)
	r.Delete("/sessions/{id}", h.HandleDeleteSession)

	r.Group(func(r chi.Router) {
		r.Use(h.requireSession)
		r.Get("/menu", h.HandleGetMenu)
		r.Post("/menu/reload", h.HandleReloadMenu)
		r.Get("/menu/search", h.HandleSearch)
		r.Post("/menu/nodes/{id}/toggle", h.HandleToggle)
		r.Post("/menu/nodes/{id}/click", h.HandleClick)
		r.Post("/navigation", h.HandleNavigate)

		if h.combos != nil {
			r.Get("/combos/modulos", h.HandleModulos)
			r.Get("/combos/modulos/all", h.HandleAllModulos)
			r.Get("/combos/{type}", h.HandleCombo)

			r.Post("/forms", h.HandleOpenForm)
			r.Get("/forms/{id}", h.HandleGetForm)
			r.Delete("/forms/{id}", h.HandleCloseForm)
			r.Post("/forms/{id}/load", h.HandleLoadForm)
			r.Put("/forms/{id}/levels/{level}", h.HandleSelect)
			r.Post("/forms/{id}/levels/{level}/reload", h.HandleReloadLevel)
		}
	})
	return r
}

func (h *Handler) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(SessionHeader)
		if id == "" {
			writeError(w, http.StatusUnauthorized, "MISSING_SESSION", SessionHeader+" header is required")
			return
		}
		s, err := h.sessions.Get(id)
		if err != nil {
			h.writeDomainError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, s)))
	})
}

func sessionFrom(r *http.Request) *session.Session {
	s, _ := r.Context().Value(ctxKey{}).(*session.Session)
	return s
}

type createSessionRequest struct {
	Role string `json:"role"`
}

type sessionResponse struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

// HandleCreateSession starts a session for a role.
// POST /v1/sessions
func (h *Handler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	role := req.Role
	if role == "" {
		role = h.defaultRole
	}
	s, err := h.sessions.Create(role)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{ID: s.ID, Role: s.Role})
}

// HandleDeleteSession logs a session out.
// DELETE /v1/sessions/{id}
func (h *Handler) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(chi.URLParam(r, "id")); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type menuResponse struct {
	Nodes     []navigation.NodeView `json:"nodes"`
	Path      string                `json:"path"`
	Selected  string                `json:"selected,omitempty"`
	Anomalies []menu.Anomaly        `json:"anomalies,omitempty"`
}

func menuView(s *session.Session, f *menu.Forest) menuResponse {
	return menuResponse{
		Nodes:     s.Shell.View(),
		Path:      s.Shell.Path(),
		Selected:  s.Shell.Selected(),
		Anomalies: f.Anomalies(),
	}
}

// HandleGetMenu returns the session menu with its state, loading it on first use.
// GET /v1/menu
func (h *Handler) HandleGetMenu(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r)
	f, err := s.Forest(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, menuView(s, f))
}

// HandleReloadMenu fetches the menu again. Expansion state is reset.
// POST /v1/menu/reload
func (h *Handler) HandleReloadMenu(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r)
	f, err := s.Reload(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, menuView(s, f))
}

type searchHit struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
	Route string `json:"route"`
	Icon  string `json:"icon,omitempty"`
}

// HandleSearch returns the navigable entries matching q, best first.
// GET /v1/menu/search?q=
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r)
	f, err := s.Forest(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	hits := make([]searchHit, 0)
	for _, n := range f.Search(r.URL.Query().Get("q")) {
		hits = append(hits, searchHit{ID: n.ID, Label: n.Label, Route: n.Route(), Icon: n.Icon})
	}
	writeJSON(w, http.StatusOK, hits)
}

type toggleResponse struct {
	ID       int64 `json:"id"`
	Expanded bool  `json:"expanded"`
}

// HandleToggle expands or collapses a node.
// POST /v1/menu/nodes/{id}/toggle
func (h *Handler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	s := sessionFrom(r)
	if _, err := s.Forest(r.Context()); err != nil {
		h.writeDomainError(w, err)
		return
	}
	expanded, err := s.Shell.Toggle(id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toggleResponse{ID: id, Expanded: expanded})
}

type clickResponse struct {
	navigation.Action
	Navigate string `json:"navigate,omitempty"`
}

// HandleClick applies a menu click and tells the caller where to navigate, if anywhere.
// POST /v1/menu/nodes/{id}/click
func (h *Handler) HandleClick(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	s := sessionFrom(r)
	if _, err := s.Forest(r.Context()); err != nil {
		h.writeDomainError(w, err)
		return
	}
	a, err := s.Shell.Click(id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	resp := clickResponse{Action: a}
	if a.Kind == navigation.ActionNavigate {
		resp.Navigate = a.Route
	}
	writeJSON(w, http.StatusOK, resp)
}

type navigateRequest struct {
	Path string `json:"path"`
}

type activeNode struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
}

type navigateResponse struct {
	Matched bool        `json:"matched"`
	Route   string      `json:"route,omitempty"`
	Active  *activeNode `json:"active,omitempty"`
}

// HandleNavigate reports a route change and returns the active entry.
// A path that matches nothing is not an error.
// POST /v1/navigation
func (h *Handler) HandleNavigate(w http.ResponseWriter, r *http.Request) {
	var req navigateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	s := sessionFrom(r)
	if _, err := s.Forest(r.Context()); err != nil {
		h.writeDomainError(w, err)
		return
	}
	res := s.Shell.RouteChanged(req.Path)
	resp := navigateResponse{Matched: res.Matched, Route: res.Route}
	if res.Node != nil {
		resp.Active = &activeNode{ID: res.Node.ID, Label: res.Node.Label}
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleCombo returns the options of one catalog.
// GET /v1/combos/{type}
func (h *Handler) HandleCombo(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "type")
	if !ok {
		return
	}
	items, err := h.combos.Options(r.Context(), combo.Type(id))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// HandleModulos returns the union of the modules of the applications given as
// repeated aplicacion query parameters, keeping the still valid selected ones.
// GET /v1/combos/modulos?aplicacion=1&aplicacion=2&selected=10
func (h *Handler) HandleModulos(w http.ResponseWriter, r *http.Request) {
	parents, ok := parseIDs(w, r, "aplicacion")
	if !ok {
		return
	}
	selected, ok := parseIDs(w, r, "selected")
	if !ok {
		return
	}

	filter, err := cascade.NewMultiFilter("modulos", h.combos.ModulosFetcher(),
		cascade.WithLogger(h.logger),
		cascade.WithMetrics(h.metrics))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if err := filter.Load(r.Context(), parents, selected); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, filter.Snapshot())
}

// HandleAllModulos returns every module, active or not, for labeling read-only records.
// GET /v1/combos/modulos/all
func (h *Handler) HandleAllModulos(w http.ResponseWriter, r *http.Request) {
	items, err := h.combos.AllModulos(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func parseIDs(w http.ResponseWriter, r *http.Request, param string) ([]int64, bool) {
	var out []int64
	for _, raw := range r.URL.Query()[param] {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_ID", "invalid "+param+": "+raw)
			return nil, false
		}
		out = append(out, id)
	}
	return out, true
}
