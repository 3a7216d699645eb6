package navigation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mchmarny/navmenu/pkg/logger"
	"github.com/mchmarny/navmenu/pkg/menu"
)

func ptr(v int64) *int64 { return &v }

// testForest:
//
//	1 Gestion (header)
//	  2 Tickets        /gestion/tickets
//	  3 Nuevo ticket   /gestion/tickets/new
//	4 Configuracion (header)
//	  5 Seguridad (header)
//	    6 Perfiles     /seguridad/Perfiles
//	  7 Usuarios       /mantenimiento/LUsuario
func testForest() *menu.Forest {
	return menu.Build([]menu.Record{
		{ID: 1, Label: "Gestion", View: menu.HeaderMarker, Section: menu.HeaderMarker, Order: 1},
		{ID: 2, Label: "Tickets", View: "tickets", Section: "Gestion", ParentID: ptr(1), Order: 1},
		{ID: 3, Label: "Nuevo ticket", View: "tickets/new", Section: "Gestion", ParentID: ptr(1), Order: 2},
		{ID: 4, Label: "Configuracion", View: menu.HeaderMarker, Section: menu.HeaderMarker, Order: 2},
		{ID: 5, Label: "Seguridad", View: menu.HeaderMarker, Section: menu.HeaderMarker, ParentID: ptr(4), Order: 1},
		{ID: 6, Label: "Perfiles", View: "Perfiles", Section: "Seguridad", ParentID: ptr(5), Order: 1},
		{ID: 7, Label: "Usuarios", View: "LUsuario", Section: "Mantenimiento", ParentID: ptr(4), Order: 2},
	}, menu.WithBuildLogger(logger.Discard()))
}

func newTestResolver(opts ...ResolverOption) *Resolver {
	return NewResolver(append([]ResolverOption{WithResolverLogger(logger.Discard())}, opts...)...)
}

func activeCount(f *menu.Forest, s *State) int {
	count := 0
	f.Walk(func(n *menu.Node, _ int) bool {
		if s.IsActive(n.ID) {
			count++
		}
		return true
	})
	return count
}

func TestMatches(t *testing.T) {
	tests := []struct {
		route, path string
		want        bool
	}{
		{"/gestion/tickets", "/gestion/tickets", true},
		{"/gestion/tickets", "gestion/tickets/", true},
		{"/gestion/tickets", "/gestion/tickets/42", true},
		{"/gestion/tickets", "/gestion/tickets/update/42", true},
		{"/gestion/tickets", "/gestion/ticketsx", false},
		{"/gestion/tickets", "/gestion", false},
		{"/gestion/Tickets", "/gestion/tickets", false},
		{"/gestion/tickets", "/gestion/tickets?page=2", true},
		{"/gestion/tickets", "/gestion/tickets/42#notes", true},
		{"", "/", false},
		{"", "", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Matches(tt.route, tt.path), "route %q path %q", tt.route, tt.path)
	}
}

func TestResolve_SubRouteMarksListActive(t *testing.T) {
	f := testForest()
	s := NewState()

	res := newTestResolver().Resolve(f, s, "/gestion/tickets/42")
	require.True(t, res.Matched)
	assert.Equal(t, int64(2), res.Node.ID)
	assert.Equal(t, "/gestion/tickets", res.Route)
	assert.True(t, s.IsActive(2))
	assert.True(t, s.Expanded(1))
}

func TestResolve_ExpandsEveryAncestor(t *testing.T) {
	f := testForest()
	s := NewState()

	res := newTestResolver().Resolve(f, s, "/seguridad/Perfiles")
	require.True(t, res.Matched)
	assert.Equal(t, int64(6), res.Node.ID)

	for _, a := range f.Path(6)[:2] {
		assert.True(t, s.Expanded(a.ID), "ancestor %d", a.ID)
	}
	assert.False(t, s.Expanded(6))
	assert.False(t, s.Expanded(1))
}

func TestResolve_NoMatchClearsActiveKeepsExpansion(t *testing.T) {
	f := testForest()
	s := NewState()
	r := newTestResolver()

	s.SetExpanded(1, true)
	require.True(t, r.Resolve(f, s, "/seguridad/Perfiles").Matched)

	res := r.Resolve(f, s, "/dashboard")
	assert.False(t, res.Matched)
	assert.Nil(t, res.Node)
	_, ok := s.Active()
	assert.False(t, ok)
	assert.True(t, s.Expanded(1))
	assert.True(t, s.Expanded(4))
	assert.True(t, s.Expanded(5))
}

func TestResolve_HeadersNeverActive(t *testing.T) {
	f := testForest()
	s := NewState()
	r := newTestResolver()

	for _, p := range []string{"/##/##", "##/##", "/", ""} {
		res := r.Resolve(f, s, p)
		assert.False(t, res.Matched, "path %q", p)
	}
	for _, id := range []int64{1, 4, 5} {
		assert.False(t, s.IsActive(id))
	}
}

func TestResolve_AtMostOneActive(t *testing.T) {
	f := testForest()
	s := NewState()
	for _, policy := range []MatchPolicy{MatchLongest, MatchFirst} {
		r := newTestResolver(WithPolicy(policy))
		for _, p := range []string{
			"/gestion/tickets", "/gestion/tickets/new", "/gestion/tickets/new/draft",
			"/seguridad/Perfiles/1", "/mantenimiento/LUsuario", "/nowhere", "",
		} {
			r.Resolve(f, s, p)
			assert.LessOrEqual(t, activeCount(f, s), 1, "policy %s path %q", policy, p)
		}
	}
}

func TestResolve_Policies(t *testing.T) {
	f := testForest()

	longest := newTestResolver().Resolve(f, NewState(), "/gestion/tickets/new")
	require.True(t, longest.Matched)
	assert.Equal(t, int64(3), longest.Node.ID)

	first := newTestResolver(WithPolicy(MatchFirst)).Resolve(f, NewState(), "/gestion/tickets/new")
	require.True(t, first.Matched)
	assert.Equal(t, int64(2), first.Node.ID)
}

func TestResolve_RerunMovesActive(t *testing.T) {
	f := testForest()
	s := NewState()
	r := newTestResolver()

	r.Resolve(f, s, "/gestion/tickets")
	r.Resolve(f, s, "/gestion/tickets")
	r.Resolve(f, s, "/mantenimiento/LUsuario")

	assert.False(t, s.IsActive(2))
	assert.True(t, s.IsActive(7))
	assert.Equal(t, 1, activeCount(f, s))
}

func TestResolve_NilForest(t *testing.T) {
	s := NewState()
	res := newTestResolver().Resolve(nil, s, "/gestion/tickets")
	assert.False(t, res.Matched)
}

func TestParseMatchPolicy(t *testing.T) {
	p, err := ParseMatchPolicy("FIRST")
	require.NoError(t, err)
	assert.Equal(t, MatchFirst, p)

	p, err = ParseMatchPolicy("")
	require.NoError(t, err)
	assert.Equal(t, MatchLongest, p)

	_, err = ParseMatchPolicy("shortest")
	assert.Error(t, err)
}
