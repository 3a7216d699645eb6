// Package cascade coordinates dependent selections: choosing a value at one level
// invalidates every level below it and reloads the options of the next one.
//
// Fetches run on their own goroutines. Each level carries a request generation;
// a response whose generation is no longer current is dropped, so a later
// selection always wins regardless of the order responses arrive in.
package cascade

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mchmarny/navmenu/pkg/metric"
)

var (
	// ErrLevelOutOfRange is returned for a level index outside the chain.
	ErrLevelOutOfRange = errors.New("cascade: level out of range")

	// ErrUnknownOption is returned when a value is selected that is not among
	// the loaded options of its level. The selection is cleared.
	ErrUnknownOption = errors.New("cascade: value not among options")

	// ErrRestoreSuperseded is returned by LoadExisting when a different selection
	// was made before the restore finished.
	ErrRestoreSuperseded = errors.New("cascade: restore superseded by a newer selection")

	// ErrInvalidLevels is returned by New for an unusable level chain.
	ErrInvalidLevels = errors.New("cascade: invalid levels")
)

// Item is one selectable option.
type Item struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
}

// FetchFunc loads the options of a level for the value selected in the level above.
type FetchFunc func(ctx context.Context, parent int64) ([]Item, error)

// Option configures a Controller or a MultiFilter.
type Option func(*config)

type config struct {
	logger       *slog.Logger
	metrics      *metric.Metrics
	fetchTimeout time.Duration
	onError      func(level string, err error)
	onChange     func(Snapshot)
}

func newConfig(opts []Option) config {
	c := config{
		logger:  slog.Default(),
		metrics: metric.NopMetrics(),
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithMetrics sets the counters fetch outcomes are reported to.
func WithMetrics(m *metric.Metrics) Option {
	return func(c *config) { c.metrics = m }
}

// WithFetchTimeout bounds every option fetch. Zero means no bound.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *config) { c.fetchTimeout = d }
}

// WithOnError registers a callback for failed fetches. Stale responses are not reported.
func WithOnError(fn func(level string, err error)) Option {
	return func(c *config) { c.onError = fn }
}

// WithOnChange registers a callback receiving a Snapshot after every Controller mutation.
// Snapshots may arrive out of order from concurrent fetches; compare Version.
func WithOnChange(fn func(Snapshot)) Option {
	return func(c *config) { c.onChange = fn }
}

// fetchContext detaches the fetch from the caller's cancellation: the request that
// triggered a selection may end long before the options arrive.
func (c config) fetchContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithoutCancel(ctx)
	if c.fetchTimeout > 0 {
		return context.WithTimeout(ctx, c.fetchTimeout)
	}
	return context.WithCancel(ctx)
}

func contains(items []Item, id int64) bool {
	for _, it := range items {
		if it.ID == id {
			return true
		}
	}
	return false
}
