package menu

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/mchmarny/navmenu/pkg/metric"
)

var (
	// ErrNoRole is returned by Load when the session has no role to fetch a menu for.
	ErrNoRole = errors.New("menu: no role for current session")

	// ErrSourceFailed wraps any error returned by the menu Source.
	ErrSourceFailed = errors.New("menu: source failed")
)

// Source returns the flat menu for a role.
type Source interface {
	FetchMenu(ctx context.Context, role string) ([]Record, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, role string) ([]Record, error)

func (f SourceFunc) FetchMenu(ctx context.Context, role string) ([]Record, error) {
	return f(ctx, role)
}

// RoleProvider supplies the role of the current session.
type RoleProvider interface {
	Role(ctx context.Context) (string, error)
}

// StaticRole is a RoleProvider that always returns itself.
type StaticRole string

func (r StaticRole) Role(context.Context) (string, error) {
	return string(r), nil
}

// Client fetches the menu of the current session and keeps the last built forest.
// A Client is owned by one session and must be cleared on logout.
type Client struct {
	source  Source
	roles   RoleProvider
	logger  *slog.Logger
	metrics *metric.Metrics

	group singleflight.Group

	mu         sync.RWMutex
	forest     *Forest
	generation uint64
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets the client logger.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// WithMetrics sets the counters the client reports to.
func WithMetrics(m *metric.Metrics) ClientOption {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates a menu client over source for the role supplied by roles.
func NewClient(source Source, roles RoleProvider, opts ...ClientOption) *Client {
	c := &Client{
		source:  source,
		roles:   roles,
		logger:  slog.Default(),
		metrics: metric.NopMetrics(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load fetches the flat menu for the current role and builds a fresh forest.
// Concurrent calls share one fetch, which is detached from any single caller:
// a caller whose ctx is done returns early while the fetch completes for the rest.
// A Clear issued while a fetch is in flight keeps the result of that fetch out of the cache.
func (c *Client) Load(ctx context.Context) (*Forest, error) {
	c.mu.RLock()
	gen := c.generation
	c.mu.RUnlock()

	ch := c.group.DoChan(strconv.FormatUint(gen, 10), func() (any, error) {
		return c.load(context.WithoutCancel(ctx), gen)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Forest), nil
	}
}

func (c *Client) load(ctx context.Context, gen uint64) (*Forest, error) {
	role, err := c.roles.Role(ctx)
	if err != nil {
		c.metrics.MenuLoads.Increment("error")
		return nil, fmt.Errorf("resolving role: %w", err)
	}
	if role == "" {
		c.metrics.MenuLoads.Increment("error")
		return nil, ErrNoRole
	}

	records, err := c.source.FetchMenu(ctx, role)
	if err != nil {
		c.metrics.MenuLoads.Increment("error")
		c.logger.Error("menu fetch failed", "role", role, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrSourceFailed, err)
	}
	c.metrics.MenuLoads.Increment("ok")

	f := Build(records,
		WithBuildLogger(c.logger.With("role", role)),
		WithAnomalyCounter(c.metrics.MenuAnomalies))

	c.mu.Lock()
	if c.generation == gen {
		c.forest = f
	}
	c.mu.Unlock()

	c.logger.Info("menu loaded", "role", role, "roots", len(f.Roots()), "nodes", f.Len())
	return f, nil
}

// Forest returns the last loaded forest, nil before the first Load or after Clear.
func (c *Client) Forest() *Forest {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.forest
}

// Clear discards the cached forest. It is the logout hook.
func (c *Client) Clear() {
	c.mu.Lock()
	c.forest = nil
	c.generation++
	c.mu.Unlock()
	c.logger.Debug("menu cleared")
}

// IsHeader reports whether n is a non-navigable header.
func (c *Client) IsHeader(n *Node) bool {
	return IsHeader(n)
}

// RouteFor returns the route of n.
func (c *Client) RouteFor(n *Node) string {
	return RouteFor(n)
}
