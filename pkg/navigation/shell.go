package navigation

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mchmarny/navmenu/pkg/menu"
)

var (
	// ErrNoMenu is returned when the shell has no forest yet.
	ErrNoMenu = errors.New("navigation: no menu loaded")

	// ErrUnknownNode is returned for ids that are not in the current forest.
	ErrUnknownNode = errors.New("navigation: unknown menu node")
)

// ActionKind tells the caller what a click did.
type ActionKind string

const (
	// ActionNone: header without children, nothing happens.
	ActionNone ActionKind = "none"

	// ActionToggle: the node groups others and was expanded or collapsed.
	ActionToggle ActionKind = "toggle"

	// ActionNavigate: the caller should navigate to Route.
	ActionNavigate ActionKind = "navigate"
)

// Action is the outcome of Shell.Click.
type Action struct {
	Kind     ActionKind `json:"kind"`
	Route    string     `json:"route,omitempty"`
	Expanded bool       `json:"expanded"`
}

// Shell is the navigation side of the layout: it owns the forest of the session,
// its transient state, and reacts to clicks and route changes.
// Shell is safe for concurrent use.
type Shell struct {
	resolver *Resolver
	logger   *slog.Logger

	mu       sync.Mutex
	forest   *menu.Forest
	state    *State
	path     string
	selected string
}

// ShellOption configures a Shell.
type ShellOption func(*Shell)

// WithShellLogger sets the shell logger.
func WithShellLogger(l *slog.Logger) ShellOption {
	return func(s *Shell) { s.logger = l }
}

// NewShell creates a shell resolving routes with r. A nil r uses NewResolver().
func NewShell(r *Resolver, opts ...ShellOption) *Shell {
	if r == nil {
		r = NewResolver()
	}
	s := &Shell{
		resolver: r,
		logger:   slog.Default(),
		state:    NewState(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetForest replaces the forest. The new forest starts fully collapsed with nothing active.
func (s *Shell) SetForest(f *menu.Forest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forest = f
	s.state = NewState()
	s.selected = ""
}

// Forest returns the current forest, nil when none is set.
func (s *Shell) Forest() *menu.Forest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.forest
}

// State returns the state of the current forest.
func (s *Shell) State() *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Toggle expands or collapses a node that has children and returns the new flag.
// Leaves are left untouched.
func (s *Shell) Toggle(id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.node(id)
	if err != nil {
		return false, err
	}
	if !n.HasChildren() {
		s.logger.Debug("menu entry has no children to toggle", "id", id)
		return s.state.Expanded(id), nil
	}
	return s.state.Toggle(id), nil
}

// Click applies the layout's click rules: a node with children toggles, a header
// without children does nothing, any other node yields its route to navigate to.
func (s *Shell) Click(id int64) (Action, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.node(id)
	if err != nil {
		return Action{}, err
	}

	switch {
	case n.HasChildren():
		return Action{Kind: ActionToggle, Expanded: s.state.Toggle(id)}, nil
	case menu.IsHeader(n):
		return Action{Kind: ActionNone}, nil
	}

	route := menu.RouteFor(n)
	s.selected = n.Label
	s.logger.Debug("navigating from menu", "id", id, "route", route)
	return Action{Kind: ActionNavigate, Route: route}, nil
}

// RouteChanged resolves the active node for path. Call it on every route change.
func (s *Shell) RouteChanged(path string) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.path = path
	if s.forest == nil {
		return Result{}
	}
	return s.resolver.Resolve(s.forest, s.state, path)
}

// Path returns the last path passed to RouteChanged.
func (s *Shell) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// Selected returns the label of the last entry navigated to from the menu.
func (s *Shell) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// View renders the current forest with its state.
func (s *Shell) View() []NodeView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Render(s.forest, s.state)
}

// Clear drops the forest and all transient state. It is part of the logout hook.
func (s *Shell) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forest = nil
	s.state = NewState()
	s.path = ""
	s.selected = ""
}

func (s *Shell) node(id int64) (*menu.Node, error) {
	if s.forest == nil {
		return nil, ErrNoMenu
	}
	n, ok := s.forest.Node(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownNode, id)
	}
	return n, nil
}
