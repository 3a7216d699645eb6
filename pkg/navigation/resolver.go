package navigation

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/mchmarny/navmenu/pkg/menu"
	"github.com/mchmarny/navmenu/pkg/metric"
)

// MatchPolicy decides which node wins when several routes match the current path.
type MatchPolicy int

const (
	// MatchLongest picks the matching node with the longest route.
	// Ties go to the node met first in pre-order.
	MatchLongest MatchPolicy = iota

	// MatchFirst picks the first matching node in pre-order, whatever its length.
	MatchFirst
)

func (p MatchPolicy) String() string {
	switch p {
	case MatchLongest:
		return "longest"
	case MatchFirst:
		return "first"
	default:
		return fmt.Sprintf("MatchPolicy(%d)", int(p))
	}
}

// ParseMatchPolicy parses "longest" or "first".
func ParseMatchPolicy(s string) (MatchPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "longest":
		return MatchLongest, nil
	case "first":
		return MatchFirst, nil
	default:
		return MatchLongest, fmt.Errorf("unknown match policy %q", s)
	}
}

// Result is the outcome of one resolution. Matched false is a normal outcome.
type Result struct {
	Node    *menu.Node
	Route   string
	Matched bool
}

// Resolver marks the node matching the current path active and expands its ancestors.
type Resolver struct {
	policy  MatchPolicy
	logger  *slog.Logger
	metrics *metric.Metrics
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithPolicy sets the match policy. The default is MatchLongest.
func WithPolicy(p MatchPolicy) ResolverOption {
	return func(r *Resolver) { r.policy = p }
}

// WithResolverLogger sets the resolver logger.
func WithResolverLogger(l *slog.Logger) ResolverOption {
	return func(r *Resolver) { r.logger = l }
}

// WithResolverMetrics sets the counters the resolver reports to.
func WithResolverMetrics(m *metric.Metrics) ResolverOption {
	return func(r *Resolver) { r.metrics = m }
}

// NewResolver creates a resolver.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		policy:  MatchLongest,
		logger:  slog.Default(),
		metrics: metric.NopMetrics(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Policy returns the match policy in use.
func (r *Resolver) Policy() MatchPolicy {
	return r.policy
}

// Resolve clears the active node of state, then searches f in pre-order for the node
// whose route matches path. The winner is marked active and every ancestor expanded.
// When nothing matches, nothing is active and expansion is left as it was.
// Resolve always starts from the clear phase and is safe to re-run at any time.
func (r *Resolver) Resolve(f *menu.Forest, state *State, path string) Result {
	var (
		best    *menu.Node
		bestLen = -1
	)

	f.Walk(func(n *menu.Node, _ int) bool {
		route := menu.RouteFor(n)
		if !Matches(route, path) {
			return true
		}
		if l := len(normalize(route)); l > bestLen {
			best, bestLen = n, l
		}
		return r.policy != MatchFirst
	})

	if best == nil {
		state.mark(0, false, nil)
		r.metrics.RouteResolutions.Increment("unmatched")
		r.logger.Debug("no menu entry matches route", "path", path)
		return Result{}
	}

	chain := f.Path(best.ID)
	ancestors := make([]int64, 0, len(chain))
	for _, n := range chain[:len(chain)-1] {
		ancestors = append(ancestors, n.ID)
	}
	state.mark(best.ID, true, ancestors)

	r.metrics.RouteResolutions.Increment("matched")
	r.logger.Debug("active menu entry resolved",
		"path", path,
		"id", best.ID,
		"route", menu.RouteFor(best),
		"policy", r.policy.String())

	return Result{Node: best, Route: menu.RouteFor(best), Matched: true}
}

// Matches reports whether path is route itself or a sub-route of it.
// One leading and one trailing slash are ignored on both sides, and the query
// string or fragment of path is ignored. Comparison is case sensitive.
// An empty route never matches.
func Matches(route, path string) bool {
	r := normalize(route)
	if r == "" {
		return false
	}
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	p := normalize(path)
	return p == r || strings.HasPrefix(p, r+"/")
}

func normalize(s string) string {
	s = strings.TrimPrefix(s, "/")
	return strings.TrimSuffix(s, "/")
}
