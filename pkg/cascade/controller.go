package cascade

import (
	"context"
	"fmt"
	"sync"
)

// Level defines one level of a chain. The first level has no Fetch; its options
// are supplied with SetRootOptions. Every other level needs a Fetch.
type Level struct {
	Name  string
	Fetch FetchFunc
}

// LevelState is the observable state of one level.
type LevelState struct {
	Name         string `json:"name"`
	Selected     int64  `json:"selected"`
	HasSelection bool   `json:"hasSelection"`
	Options      []Item `json:"options"`
	Loading      bool   `json:"loading"`
	Err          error  `json:"-"`
}

// Snapshot is an immutable copy of a Controller's levels.
type Snapshot struct {
	Version   uint64       `json:"version"`
	Restoring bool         `json:"restoring"`
	Levels    []LevelState `json:"levels"`
}

// Selected returns the selection of level i.
func (s Snapshot) Selected(i int) (int64, bool) {
	if i < 0 || i >= len(s.Levels) {
		return 0, false
	}
	return s.Levels[i].Selected, s.Levels[i].HasSelection
}

type level struct {
	def Level

	selected int64
	has      bool

	// pending is a selection to restore once the options of this level arrive.
	pending    int64
	hasPending bool

	options []Item
	loaded  bool
	loading bool
	err     error

	gen uint64
}

// Controller coordinates an ordered chain of dependent selections.
// It is safe for concurrent use.
type Controller struct {
	cfg config

	mu      sync.Mutex
	levels  []*level
	tracker tracker
	version uint64

	restoring     bool
	restoreTarget []int64
	restoreEpoch  uint64
}

// New creates a controller for levels. The first level must not have a Fetch,
// every other level must.
func New(levels []Level, opts ...Option) (*Controller, error) {
	if len(levels) == 0 {
		return nil, fmt.Errorf("%w: no levels", ErrInvalidLevels)
	}
	c := &Controller{cfg: newConfig(opts)}
	for i, def := range levels {
		if i > 0 && def.Fetch == nil {
			return nil, fmt.Errorf("%w: level %d (%s) has no fetch", ErrInvalidLevels, i, def.Name)
		}
		if def.Name == "" {
			def.Name = fmt.Sprintf("level%d", i)
		}
		c.levels = append(c.levels, &level{def: def})
	}
	return c, nil
}

// Len returns the number of levels.
func (c *Controller) Len() int {
	return len(c.levels)
}

// SetRootOptions replaces the options of the first level. A selection absent from
// items is cleared together with every level below.
func (c *Controller) SetRootOptions(items []Item) {
	c.mu.Lock()
	root := c.levels[0]
	root.options = append([]Item(nil), items...)
	root.loaded = true
	if root.has && !contains(root.options, root.selected) {
		root.has = false
		c.invalidateBelow(0)
	}
	snap := c.snapshotLocked(true)
	c.mu.Unlock()
	c.notify(snap)
}

// SetSelection selects value at level i. Every level below is cleared synchronously,
// then the options of level i+1 are fetched for value. Selecting the current value
// again is a no-op. While LoadExisting runs, selecting the value being restored is
// ignored; any other value supersedes the restore.
func (c *Controller) SetSelection(ctx context.Context, i int, value int64) error {
	return c.set(ctx, i, value, true)
}

// ClearSelection clears level i and every level below.
func (c *Controller) ClearSelection(ctx context.Context, i int) error {
	return c.set(ctx, i, 0, false)
}

func (c *Controller) set(ctx context.Context, i int, value int64, has bool) error {
	c.mu.Lock()
	if i < 0 || i >= len(c.levels) {
		c.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrLevelOutOfRange, i)
	}
	lv := c.levels[i]

	if c.restoring {
		if has && i < len(c.restoreTarget) && c.restoreTarget[i] == value {
			c.mu.Unlock()
			return nil
		}
		c.endRestoreLocked()
	}

	if lv.has == has && (!has || lv.selected == value) {
		c.mu.Unlock()
		return nil
	}

	var err error
	if has && lv.loaded && !lv.loading && !contains(lv.options, value) {
		err = fmt.Errorf("%w: %s=%d", ErrUnknownOption, lv.def.Name, value)
		has = false
	}

	lv.selected, lv.has = value, has
	lv.hasPending = false
	c.invalidateBelow(i)
	if has && i+1 < len(c.levels) {
		c.fetchLocked(ctx, i+1, value)
	}
	snap := c.snapshotLocked(true)
	c.mu.Unlock()

	c.notify(snap)
	return err
}

// Reload fetches the options of level i again for the current parent selection,
// keeping the selection of level i if it is still offered. Use it to retry after a
// failed fetch. It is a no-op when the parent has no selection.
func (c *Controller) Reload(ctx context.Context, i int) error {
	c.mu.Lock()
	if i <= 0 || i >= len(c.levels) {
		c.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrLevelOutOfRange, i)
	}
	parent := c.levels[i-1]
	if !parent.has {
		c.mu.Unlock()
		return nil
	}
	c.fetchLocked(ctx, i, parent.selected)
	snap := c.snapshotLocked(true)
	c.mu.Unlock()

	c.notify(snap)
	return nil
}

// LoadExisting restores the selections of an existing record, top-down. Each level's
// options are fetched for the restored parent and awaited before the next level is
// requested. A value missing from its freshly loaded options is cleared together with
// every level below; that is not an error. A failed fetch stops the restore and is returned.
func (c *Controller) LoadExisting(ctx context.Context, values []int64) error {
	if len(values) == 0 {
		return nil
	}

	c.mu.Lock()
	if len(values) > len(c.levels) {
		c.mu.Unlock()
		return fmt.Errorf("%w: %d values for %d levels", ErrLevelOutOfRange, len(values), len(c.levels))
	}

	c.restoreEpoch++
	epoch := c.restoreEpoch
	c.restoring = true
	c.restoreTarget = append([]int64(nil), values...)

	root := c.levels[0]
	root.selected, root.has = values[0], true
	root.hasPending = false
	c.invalidateBelow(0)
	for j := 1; j < len(values); j++ {
		c.levels[j].pending, c.levels[j].hasPending = values[j], true
	}
	if len(values) > 1 {
		c.fetchLocked(ctx, 1, values[0])
	}
	snap := c.snapshotLocked(true)
	c.mu.Unlock()
	c.notify(snap)

	waitErr := c.tracker.wait(ctx, &c.mu)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.restoreEpoch != epoch || !c.restoring {
		return ErrRestoreSuperseded
	}
	c.endRestoreLocked()

	if waitErr != nil {
		return waitErr
	}
	for j := 1; j < len(values); j++ {
		if err := c.levels[j].err; err != nil {
			return fmt.Errorf("loading %s options: %w", c.levels[j].def.Name, err)
		}
	}
	return nil
}

// Wait blocks until no fetch is in flight or ctx is done.
func (c *Controller) Wait(ctx context.Context) error {
	return c.tracker.wait(ctx, &c.mu)
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked(false)
}

func (c *Controller) endRestoreLocked() {
	c.restoring = false
	c.restoreTarget = nil
	c.restoreEpoch++
}

// invalidateBelow clears selection, pending selection, options and error of every
// level below i and bumps their generation so in-flight responses are dropped.
func (c *Controller) invalidateBelow(i int) {
	for j := i + 1; j < len(c.levels); j++ {
		lv := c.levels[j]
		lv.selected, lv.has = 0, false
		lv.pending, lv.hasPending = 0, false
		lv.options = nil
		lv.loaded = false
		lv.loading = false
		lv.err = nil
		lv.gen++
	}
}

func (c *Controller) fetchLocked(ctx context.Context, j int, parent int64) {
	lv := c.levels[j]
	lv.gen++
	gen := lv.gen
	lv.loading = true
	lv.err = nil
	c.tracker.begin()

	fctx, cancel := c.cfg.fetchContext(ctx)
	c.cfg.logger.Debug("fetching cascade options", "level", lv.def.Name, "parent", parent, "generation", gen)

	go func() {
		defer cancel()
		items, err := lv.def.Fetch(fctx, parent)
		c.complete(ctx, j, gen, parent, items, err)
	}()
}

func (c *Controller) complete(ctx context.Context, j int, gen uint64, parent int64, items []Item, err error) {
	c.mu.Lock()
	lv := c.levels[j]
	name := lv.def.Name

	if lv.gen != gen {
		c.cfg.metrics.CascadeFetches.Increment(name, "stale")
		c.tracker.end()
		c.mu.Unlock()
		c.cfg.logger.Debug("discarding stale cascade options", "level", name, "parent", parent, "generation", gen)
		return
	}

	lv.loading = false
	if err != nil {
		lv.options = nil
		lv.loaded = false
		lv.err = err
		snap := c.snapshotLocked(true)
		c.cfg.metrics.CascadeFetches.Increment(name, "error")
		c.tracker.end()
		c.mu.Unlock()

		c.cfg.logger.Warn("cascade options fetch failed", "level", name, "parent", parent, "error", err)
		if c.cfg.onError != nil {
			c.cfg.onError(name, err)
		}
		c.notify(snap)
		return
	}

	prev, hadPrev := lv.selected, lv.has
	lv.options = items
	lv.loaded = true
	lv.err = nil

	if lv.hasPending {
		lv.selected, lv.has = lv.pending, contains(items, lv.pending)
		lv.hasPending = false
	} else if lv.has && !contains(items, lv.selected) {
		lv.has = false
	}

	switch {
	case !lv.has:
		lv.selected = 0
		c.invalidateBelow(j)
	case (!hadPrev || prev != lv.selected) && j+1 < len(c.levels):
		c.fetchLocked(ctx, j+1, lv.selected)
	}

	snap := c.snapshotLocked(true)
	c.cfg.metrics.CascadeFetches.Increment(name, "ok")
	c.tracker.end()
	c.mu.Unlock()

	c.notify(snap)
}

func (c *Controller) snapshotLocked(bump bool) Snapshot {
	if bump {
		c.version++
	}
	s := Snapshot{
		Version:   c.version,
		Restoring: c.restoring,
		Levels:    make([]LevelState, len(c.levels)),
	}
	for i, lv := range c.levels {
		s.Levels[i] = LevelState{
			Name:         lv.def.Name,
			Selected:     lv.selected,
			HasSelection: lv.has,
			Options:      append([]Item(nil), lv.options...),
			Loading:      lv.loading,
			Err:          lv.err,
		}
	}
	return s
}

func (c *Controller) notify(s Snapshot) {
	if c.cfg.onChange != nil {
		c.cfg.onChange(s)
	}
}
