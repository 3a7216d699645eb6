package menu

import (
	"log/slog"
	"sort"

	"github.com/mchmarny/navmenu/pkg/metric"
)

// AnomalyKind classifies a data integrity warning raised while building a forest.
type AnomalyKind string

const (
	// AnomalyDuplicateID: two records share an id. The last one wins.
	AnomalyDuplicateID AnomalyKind = "duplicate_id"

	// AnomalyOrphan: the record's parent id does not exist. The record is dropped.
	AnomalyOrphan AnomalyKind = "orphan"

	// AnomalyUnreachable: the record hangs below an orphan or sits on a parent cycle.
	// The record is dropped.
	AnomalyUnreachable AnomalyKind = "unreachable"
)

// Anomaly is a non-fatal data integrity warning.
type Anomaly struct {
	Kind     AnomalyKind `json:"kind"`
	ID       int64       `json:"id"`
	ParentID *int64      `json:"parentId"`
}

// Dropped reports whether the anomaly removed the record from the forest.
func (a Anomaly) Dropped() bool {
	return a.Kind == AnomalyOrphan || a.Kind == AnomalyUnreachable
}

// Forest is an immutable, ordered set of menu trees built from a flat list.
type Forest struct {
	roots     []*Node
	index     map[int64]*Node
	parent    map[int64]*Node
	anomalies []Anomaly
}

// BuildOption configures Build.
type BuildOption func(*buildConfig)

type buildConfig struct {
	logger    *slog.Logger
	anomalies metric.IncrementalCounter
}

// WithBuildLogger sets the logger data integrity warnings are written to.
func WithBuildLogger(l *slog.Logger) BuildOption {
	return func(c *buildConfig) { c.logger = l }
}

// WithAnomalyCounter counts data integrity warnings by kind.
func WithAnomalyCounter(c metric.IncrementalCounter) BuildOption {
	return func(cfg *buildConfig) { cfg.anomalies = c }
}

// Build converts a flat list of records into a forest of roots ordered by Order.
// It never fails: orphans, unreachable records and duplicate ids are reported as
// anomalies and logged. Sibling order is stable, ties keep the input order.
func Build(records []Record, opts ...BuildOption) *Forest {
	cfg := buildConfig{
		logger:    slog.Default(),
		anomalies: metric.Noop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	f := &Forest{
		index:  make(map[int64]*Node, len(records)),
		parent: make(map[int64]*Node, len(records)),
	}

	table := make(map[int64]*Node, len(records))
	winner := make(map[int64]int, len(records))
	for i, r := range records {
		if _, dup := table[r.ID]; dup {
			f.report(cfg, Anomaly{Kind: AnomalyDuplicateID, ID: r.ID, ParentID: r.ParentID})
		}
		table[r.ID] = newNode(r)
		winner[r.ID] = i
	}

	orphans := make(map[int64]bool)
	for i, r := range records {
		if winner[r.ID] != i {
			continue
		}
		n := table[r.ID]
		if r.ParentID == nil {
			f.roots = append(f.roots, n)
			continue
		}
		p, ok := table[*r.ParentID]
		if !ok {
			orphans[r.ID] = true
			f.report(cfg, Anomaly{Kind: AnomalyOrphan, ID: r.ID, ParentID: r.ParentID})
			continue
		}
		p.Children = append(p.Children, n)
	}

	sortSiblings(f.roots)
	for _, root := range f.roots {
		f.indexNode(root, nil)
	}

	for i, r := range records {
		if winner[r.ID] != i || orphans[r.ID] {
			continue
		}
		if _, ok := f.index[r.ID]; !ok {
			f.report(cfg, Anomaly{Kind: AnomalyUnreachable, ID: r.ID, ParentID: r.ParentID})
		}
	}

	cfg.logger.Debug("menu forest built",
		"records", len(records),
		"roots", len(f.roots),
		"nodes", len(f.index),
		"anomalies", len(f.anomalies))

	return f
}

func (f *Forest) report(cfg buildConfig, a Anomaly) {
	f.anomalies = append(f.anomalies, a)
	cfg.anomalies.Increment(string(a.Kind))

	attrs := []any{"kind", a.Kind, "id", a.ID}
	if a.ParentID != nil {
		attrs = append(attrs, "parent_id", *a.ParentID)
	}
	cfg.logger.Warn("menu data integrity warning", attrs...)
}

func (f *Forest) indexNode(n, parent *Node) {
	f.index[n.ID] = n
	if parent != nil {
		f.parent[n.ID] = parent
	}
	for _, c := range n.Children {
		f.indexNode(c, n)
	}
}

func sortSiblings(nodes []*Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].Order < nodes[j].Order
	})
	for _, n := range nodes {
		if len(n.Children) > 0 {
			sortSiblings(n.Children)
		}
	}
}

// Roots returns the root nodes in order. The slice must not be modified.
func (f *Forest) Roots() []*Node {
	if f == nil {
		return nil
	}
	return f.roots
}

// Len returns the number of nodes reachable in the forest.
func (f *Forest) Len() int {
	if f == nil {
		return 0
	}
	return len(f.index)
}

// Node returns the node with the given id.
func (f *Forest) Node(id int64) (*Node, bool) {
	if f == nil {
		return nil, false
	}
	n, ok := f.index[id]
	return n, ok
}

// Parent returns the parent of the node with the given id. Roots have no parent.
func (f *Forest) Parent(id int64) (*Node, bool) {
	if f == nil {
		return nil, false
	}
	p, ok := f.parent[id]
	return p, ok
}

// Path returns the chain of nodes from a root down to the node with the given id,
// or nil when the id is not in the forest.
func (f *Forest) Path(id int64) []*Node {
	n, ok := f.Node(id)
	if !ok {
		return nil
	}
	var rev []*Node
	for cur := n; cur != nil; {
		rev = append(rev, cur)
		p, ok := f.parent[cur.ID]
		if !ok {
			break
		}
		cur = p
	}
	path := make([]*Node, len(rev))
	for i, n := range rev {
		path[len(rev)-1-i] = n
	}
	return path
}

// Walk visits every node in pre-order, siblings in their sorted order.
// Returning false from fn stops the walk.
func (f *Forest) Walk(fn func(n *Node, depth int) bool) {
	if f == nil {
		return
	}
	for _, r := range f.roots {
		if !walk(r, 0, fn) {
			return
		}
	}
}

func walk(n *Node, depth int, fn func(*Node, int) bool) bool {
	if !fn(n, depth) {
		return false
	}
	for _, c := range n.Children {
		if !walk(c, depth+1, fn) {
			return false
		}
	}
	return true
}

// Anomalies returns the data integrity warnings raised while building the forest.
func (f *Forest) Anomalies() []Anomaly {
	if f == nil {
		return nil
	}
	return f.anomalies
}
