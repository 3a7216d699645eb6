// Package session keeps the per-user menu and navigation state. Nothing is shared
// between sessions; logging out drops everything the session owned.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mchmarny/navmenu/pkg/cascade"
	"github.com/mchmarny/navmenu/pkg/menu"
	"github.com/mchmarny/navmenu/pkg/metric"
	"github.com/mchmarny/navmenu/pkg/navigation"
)

var (
	// ErrUnknownSession is returned for a session id the manager does not hold.
	ErrUnknownSession = errors.New("session: unknown session")

	// ErrUnknownForm is returned for a form id the session does not hold.
	ErrUnknownForm = errors.New("session: unknown form")
)

// Form is an entry form opened in a session, with its cascade of selections.
type Form struct {
	ID   string
	Kind string
	*cascade.Controller
}

// Session is one signed-in user.
type Session struct {
	ID      string
	Role    string
	Created time.Time

	Menu  *menu.Client
	Shell *navigation.Shell

	mu sync.Mutex

	formsMu sync.RWMutex
	forms   map[string]*Form
}

// Forest returns the session menu, fetching it on first use. When a route was
// reported before the menu arrived, it is resolved against the new forest.
func (s *Session) Forest(ctx context.Context) (*menu.Forest, error) {
	if f := s.Shell.Forest(); f != nil {
		return f, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if f := s.Shell.Forest(); f != nil {
		return f, nil
	}
	return s.reload(ctx)
}

// Reload fetches the menu again and replaces the shell forest.
func (s *Session) Reload(ctx context.Context) (*menu.Forest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reload(ctx)
}

func (s *Session) reload(ctx context.Context) (*menu.Forest, error) {
	f, err := s.Menu.Load(ctx)
	if err != nil {
		return nil, err
	}
	s.Shell.SetForest(f)
	if p := s.Shell.Path(); p != "" {
		s.Shell.RouteChanged(p)
	}
	return f, nil
}

// AddForm keeps ctrl as a form of kind in the session and returns it with its new id.
func (s *Session) AddForm(kind string, ctrl *cascade.Controller) *Form {
	f := &Form{ID: uuid.NewString(), Kind: kind, Controller: ctrl}

	s.formsMu.Lock()
	if s.forms == nil {
		s.forms = make(map[string]*Form)
	}
	s.forms[f.ID] = f
	s.formsMu.Unlock()
	return f
}

// Form returns the form with id.
func (s *Session) Form(id string) (*Form, error) {
	s.formsMu.RLock()
	defer s.formsMu.RUnlock()
	f, ok := s.forms[id]
	if !ok {
		return nil, ErrUnknownForm
	}
	return f, nil
}

// CloseForm forgets the form with id.
func (s *Session) CloseForm(id string) error {
	s.formsMu.Lock()
	defer s.formsMu.Unlock()
	if _, ok := s.forms[id]; !ok {
		return ErrUnknownForm
	}
	delete(s.forms, id)
	return nil
}

// Forms returns the number of open forms.
func (s *Session) Forms() int {
	s.formsMu.RLock()
	defer s.formsMu.RUnlock()
	return len(s.forms)
}

func (s *Session) clear() {
	s.Menu.Clear()
	s.Shell.Clear()

	s.formsMu.Lock()
	s.forms = nil
	s.formsMu.Unlock()
}

// Manager creates, looks up and ends sessions.
type Manager struct {
	source   menu.Source
	resolver *navigation.Resolver
	logger   *slog.Logger
	metrics  *metric.Metrics
	now      func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger handed to every session component.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithMetrics sets the counters handed to every session component.
func WithMetrics(mt *metric.Metrics) Option {
	return func(m *Manager) { m.metrics = mt }
}

// WithResolver sets the active-route resolver shared by all sessions. It holds no state.
func WithResolver(r *navigation.Resolver) Option {
	return func(m *Manager) { m.resolver = r }
}

// NewManager creates a session manager fetching menus from source.
func NewManager(source menu.Source, opts ...Option) *Manager {
	m := &Manager{
		source:   source,
		logger:   slog.Default(),
		metrics:  metric.NopMetrics(),
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.resolver == nil {
		m.resolver = navigation.NewResolver(
			navigation.WithResolverLogger(m.logger),
			navigation.WithResolverMetrics(m.metrics))
	}
	return m
}

// Create starts a session for role.
func (m *Manager) Create(role string) (*Session, error) {
	if role == "" {
		return nil, menu.ErrNoRole
	}

	id := uuid.NewString()
	log := m.logger.With("session", id)
	s := &Session{
		ID:      id,
		Role:    role,
		Created: m.now(),
		Menu: menu.NewClient(m.source, menu.StaticRole(role),
			menu.WithLogger(log),
			menu.WithMetrics(m.metrics)),
		Shell: navigation.NewShell(m.resolver, navigation.WithShellLogger(log)),
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	log.Info("session created", "role", role)
	return s, nil
}

// Get returns the session with id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrUnknownSession
	}
	return s, nil
}

// Logout clears the session menu and navigation state and forgets the session.
func (m *Manager) Logout(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return ErrUnknownSession
	}
	s.clear()
	m.logger.Info("session ended", "session", id, "role", s.Role)
	return nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close ends every session.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.clear()
	}
}
