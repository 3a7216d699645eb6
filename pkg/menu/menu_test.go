package menu

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v int64) *int64 { return &v }

func ids(nodes []*Node) []int64 {
	out := make([]int64, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	return out
}

func TestBuild_SortsRootsAndAttachesChildren(t *testing.T) {
	f := Build([]Record{
		{ID: 1, ParentID: nil, Order: 2, Label: "Tickets"},
		{ID: 2, ParentID: nil, Order: 1, Label: "Config"},
		{ID: 3, ParentID: ptr(2), Order: 1, Label: "Users"},
	})

	require.Equal(t, []int64{2, 1}, ids(f.Roots()))
	config := f.Roots()[0]
	assert.Equal(t, "Config", config.Label)
	require.Len(t, config.Children, 1)
	assert.Equal(t, "Users", config.Children[0].Label)
	assert.Empty(t, f.Roots()[1].Children)
	assert.Equal(t, 3, f.Len())
	assert.Empty(t, f.Anomalies())
}

func TestBuild_EmptyInput(t *testing.T) {
	f := Build(nil)
	require.NotNil(t, f)
	assert.Empty(t, f.Roots())
	assert.Zero(t, f.Len())
}

func TestBuild_StableSortKeepsInputOrderOnTies(t *testing.T) {
	f := Build([]Record{
		{ID: 10, Order: 1},
		{ID: 11, Order: 0},
		{ID: 12, Order: 1},
		{ID: 13, Order: 1},
		{ID: 20, ParentID: ptr(10), Order: 5},
		{ID: 21, ParentID: ptr(10), Order: 5},
		{ID: 22, ParentID: ptr(10), Order: 1},
		{ID: 23, ParentID: ptr(10), Order: 5},
	})

	assert.Equal(t, []int64{11, 10, 12, 13}, ids(f.Roots()))
	n, ok := f.Node(10)
	require.True(t, ok)
	assert.Equal(t, []int64{22, 20, 21, 23}, ids(n.Children))
}

func TestBuild_EveryNodeAppearsOnceUnderItsParent(t *testing.T) {
	records := []Record{
		{ID: 1, Order: 1},
		{ID: 2, ParentID: ptr(1), Order: 2},
		{ID: 3, ParentID: ptr(1), Order: 1},
		{ID: 4, ParentID: ptr(3), Order: 1},
		{ID: 5, ParentID: ptr(99), Order: 1},
		{ID: 6, Order: 0},
		{ID: 7, ParentID: ptr(6), Order: 1},
	}
	f := Build(records)

	seen := map[int64]int{}
	f.Walk(func(n *Node, _ int) bool {
		seen[n.ID]++
		for _, c := range n.Children {
			require.NotNil(t, c.ParentID)
			assert.Equal(t, n.ID, *c.ParentID)
		}
		return true
	})
	for id, count := range seen {
		assert.Equal(t, 1, count, "node %d", id)
	}

	dropped := 0
	for _, a := range f.Anomalies() {
		if a.Dropped() {
			dropped++
		}
	}
	assert.Equal(t, 1, dropped)
	assert.Equal(t, len(records)-dropped, f.Len())
	assert.Len(t, seen, f.Len())
}

func TestBuild_OrphanIsDroppedAndLogged(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	f := Build([]Record{
		{ID: 1, Order: 1},
		{ID: 2, ParentID: ptr(42), Order: 1},
		{ID: 3, ParentID: ptr(2), Order: 1},
	}, WithBuildLogger(log))

	assert.Equal(t, 1, f.Len())
	_, ok := f.Node(2)
	assert.False(t, ok)
	_, ok = f.Node(3)
	assert.False(t, ok)

	require.Len(t, f.Anomalies(), 2)
	assert.Equal(t, AnomalyOrphan, f.Anomalies()[0].Kind)
	assert.Equal(t, int64(2), f.Anomalies()[0].ID)
	assert.Equal(t, AnomalyUnreachable, f.Anomalies()[1].Kind)
	assert.Equal(t, int64(3), f.Anomalies()[1].ID)
	assert.Contains(t, buf.String(), "kind=orphan")
	assert.Contains(t, buf.String(), "parent_id=42")
}

func TestBuild_DuplicateIDLastWriteWins(t *testing.T) {
	f := Build([]Record{
		{ID: 1, Order: 1, Label: "first"},
		{ID: 2, ParentID: ptr(1), Order: 1, Label: "child"},
		{ID: 1, Order: 0, Label: "second"},
	})

	require.Len(t, f.Roots(), 1)
	root := f.Roots()[0]
	assert.Equal(t, "second", root.Label)
	require.Len(t, root.Children, 1)
	assert.Equal(t, "child", root.Children[0].Label)
	require.Len(t, f.Anomalies(), 1)
	assert.Equal(t, AnomalyDuplicateID, f.Anomalies()[0].Kind)
	assert.False(t, f.Anomalies()[0].Dropped())
	assert.Equal(t, 2, f.Len())
}

func TestBuild_CyclesAreUnreachable(t *testing.T) {
	f := Build([]Record{
		{ID: 1, ParentID: ptr(2)},
		{ID: 2, ParentID: ptr(1)},
		{ID: 3},
		{ID: 4, ParentID: ptr(4)},
	})

	assert.Equal(t, []int64{3}, ids(f.Roots()))
	assert.Equal(t, 1, f.Len())
	kinds := map[int64]AnomalyKind{}
	for _, a := range f.Anomalies() {
		kinds[a.ID] = a.Kind
	}
	assert.Equal(t, map[int64]AnomalyKind{1: AnomalyUnreachable, 2: AnomalyUnreachable, 4: AnomalyUnreachable}, kinds)
}

func TestForest_PathAndParent(t *testing.T) {
	f := Build([]Record{
		{ID: 1},
		{ID: 2, ParentID: ptr(1)},
		{ID: 3, ParentID: ptr(2)},
	})

	assert.Equal(t, []int64{1, 2, 3}, ids(f.Path(3)))
	assert.Equal(t, []int64{1}, ids(f.Path(1)))
	assert.Nil(t, f.Path(99))

	p, ok := f.Parent(3)
	require.True(t, ok)
	assert.Equal(t, int64(2), p.ID)
	_, ok = f.Parent(1)
	assert.False(t, ok)
}

func TestForest_WalkStops(t *testing.T) {
	f := Build([]Record{{ID: 1}, {ID: 2, ParentID: ptr(1)}, {ID: 3}})

	var visited []int64
	f.Walk(func(n *Node, _ int) bool {
		visited = append(visited, n.ID)
		return n.ID != 2
	})
	assert.Equal(t, []int64{1, 2}, visited)
}

func TestForest_NilIsEmpty(t *testing.T) {
	var f *Forest
	assert.Nil(t, f.Roots())
	assert.Zero(t, f.Len())
	_, ok := f.Node(1)
	assert.False(t, ok)
	assert.Nil(t, f.Search("x"))
}

func TestBuild_CopiesParentID(t *testing.T) {
	parent := int64(1)
	records := []Record{{ID: 1}, {ID: 2, ParentID: &parent}}
	f := Build(records)
	parent = 7

	n, ok := f.Node(2)
	require.True(t, ok)
	assert.Equal(t, int64(1), *n.ParentID)
}
