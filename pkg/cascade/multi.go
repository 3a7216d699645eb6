package cascade

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// TaggedItem is an option of a MultiFilter together with the parent it was loaded for.
type TaggedItem struct {
	Item
	Parent int64 `json:"parent"`
}

// MultiSnapshot is an immutable copy of a MultiFilter's state.
type MultiSnapshot struct {
	Name     string       `json:"name"`
	Parents  []int64      `json:"parents"`
	Options  []TaggedItem `json:"options"`
	Selected []int64      `json:"selected"`
	Loading  bool         `json:"loading"`
	Err      error        `json:"-"`
}

// MultiFilter is a multi-select level whose options are the union of the options of
// several parent values. Changing the parents reloads the union and keeps only the
// selected children that are still offered.
type MultiFilter struct {
	name  string
	fetch FetchFunc
	cfg   config

	mu       sync.Mutex
	parents  []int64
	options  []TaggedItem
	selected []int64
	loaded   bool
	loading  bool
	err      error
	gen      uint64
	tracker  tracker
}

// NewMultiFilter creates a multi-select level named name.
func NewMultiFilter(name string, fetch FetchFunc, opts ...Option) (*MultiFilter, error) {
	if fetch == nil {
		return nil, fmt.Errorf("%w: %s has no fetch", ErrInvalidLevels, name)
	}
	return &MultiFilter{name: name, fetch: fetch, cfg: newConfig(opts)}, nil
}

// SetParents replaces the parent values and reloads the options for all of them
// concurrently. An empty set clears options and selection without fetching.
func (m *MultiFilter) SetParents(ctx context.Context, parents []int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setParentsLocked(ctx, dedupe(parents))
}

func (m *MultiFilter) setParentsLocked(ctx context.Context, parents []int64) {
	m.gen++
	m.parents = parents
	m.err = nil
	if len(parents) == 0 {
		m.options = nil
		m.selected = nil
		m.loaded = false
		m.loading = false
		return
	}

	gen := m.gen
	m.loading = true
	m.tracker.begin()

	fctx, cancel := m.cfg.fetchContext(ctx)
	go func() {
		defer cancel()
		items, err := m.fetchAll(fctx, parents)
		m.complete(gen, items, err)
	}()
}

// SetSelected replaces the selected children. Once options are loaded, values not
// offered are dropped and ErrUnknownOption is returned.
func (m *MultiFilter) SetSelected(ids []int64) error {
	ids = dedupe(ids)

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.loaded || m.loading {
		m.selected = ids
		return nil
	}
	kept := m.offered(ids)
	m.selected = kept
	if len(kept) != len(ids) {
		return fmt.Errorf("%w: %s", ErrUnknownOption, m.name)
	}
	return nil
}

// Load restores parents and selected children of an existing record and waits for
// the options to arrive. Children no longer offered are dropped silently.
func (m *MultiFilter) Load(ctx context.Context, parents, selected []int64) error {
	m.mu.Lock()
	m.selected = dedupe(selected)
	m.loaded = false
	m.setParentsLocked(ctx, dedupe(parents))
	m.mu.Unlock()

	if err := m.Wait(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return fmt.Errorf("loading %s options: %w", m.name, m.err)
	}
	return nil
}

// Wait blocks until no fetch is in flight or ctx is done.
func (m *MultiFilter) Wait(ctx context.Context) error {
	return m.tracker.wait(ctx, &m.mu)
}

// Snapshot returns a copy of the current state.
func (m *MultiFilter) Snapshot() MultiSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MultiSnapshot{
		Name:     m.name,
		Parents:  append([]int64(nil), m.parents...),
		Options:  append([]TaggedItem(nil), m.options...),
		Selected: append([]int64(nil), m.selected...),
		Loading:  m.loading,
		Err:      m.err,
	}
}

func (m *MultiFilter) fetchAll(ctx context.Context, parents []int64) ([]TaggedItem, error) {
	results := make([][]Item, len(parents))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range parents {
		g.Go(func() error {
			items, err := m.fetch(gctx, p)
			if err != nil {
				return fmt.Errorf("parent %d: %w", p, err)
			}
			results[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[int64]struct{})
	var union []TaggedItem
	for i, items := range results {
		for _, it := range items {
			if _, ok := seen[it.ID]; ok {
				continue
			}
			seen[it.ID] = struct{}{}
			union = append(union, TaggedItem{Item: it, Parent: parents[i]})
		}
	}
	return union, nil
}

func (m *MultiFilter) complete(gen uint64, items []TaggedItem, err error) {
	m.mu.Lock()

	if m.gen != gen {
		m.cfg.metrics.CascadeFetches.Increment(m.name, "stale")
		m.tracker.end()
		m.mu.Unlock()
		return
	}

	m.loading = false
	if err != nil {
		m.options = nil
		m.loaded = false
		m.err = err
		parents := m.parents
		m.cfg.metrics.CascadeFetches.Increment(m.name, "error")
		m.tracker.end()
		m.mu.Unlock()

		m.cfg.logger.Warn("cascade options fetch failed", "level", m.name, "parents", parents, "error", err)
		if m.cfg.onError != nil {
			m.cfg.onError(m.name, err)
		}
		return
	}

	m.options = items
	m.loaded = true
	m.selected = m.offered(m.selected)
	m.cfg.metrics.CascadeFetches.Increment(m.name, "ok")
	m.tracker.end()
	m.mu.Unlock()
}

func (m *MultiFilter) offered(ids []int64) []int64 {
	var kept []int64
	for _, id := range ids {
		for _, o := range m.options {
			if o.ID == id {
				kept = append(kept, id)
				break
			}
		}
	}
	return kept
}

func dedupe(ids []int64) []int64 {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
