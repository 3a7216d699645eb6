// Package navigation keeps the transient UI state of a menu forest and resolves
// which entry is active for the current route.
//
// Structural data lives in menu.Forest and is rebuilt per login. The flags kept here
// change per toggle and per route change and are keyed by node id, so a rebuilt
// forest never inherits stale flags.
package navigation

import "sync"

// State is the expand/collapse and active side table of one forest.
// Every node starts collapsed and nothing is active. State is safe for concurrent use.
type State struct {
	mu        sync.RWMutex
	expanded  map[int64]bool
	active    int64
	hasActive bool
}

// NewState returns a state with every node collapsed.
func NewState() *State {
	return &State{expanded: make(map[int64]bool)}
}

// Expanded reports whether the node is expanded.
func (s *State) Expanded(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expanded[id]
}

// SetExpanded sets the expanded flag of the node.
func (s *State) SetExpanded(id int64, v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v {
		s.expanded[id] = true
		return
	}
	delete(s.expanded, id)
}

// Toggle flips the expanded flag of the node and returns the new value.
func (s *State) Toggle(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := !s.expanded[id]
	if v {
		s.expanded[id] = true
	} else {
		delete(s.expanded, id)
	}
	return v
}

// Active returns the id of the active node.
func (s *State) Active() (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active, s.hasActive
}

// IsActive reports whether id is the active node.
func (s *State) IsActive(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasActive && s.active == id
}

// ExpandedCount returns the number of expanded nodes.
func (s *State) ExpandedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.expanded)
}

// Reset collapses every node and clears the active node.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expanded = make(map[int64]bool)
	s.active, s.hasActive = 0, false
}

// mark clears the active node, then marks id active and expands its ancestors.
// With ok false only the clear is applied. Expansion is never turned off here.
func (s *State) mark(id int64, ok bool, ancestors []int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active, s.hasActive = 0, false
	if !ok {
		return
	}
	s.active, s.hasActive = id, true
	for _, a := range ancestors {
		s.expanded[a] = true
	}
}
