package navigation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mchmarny/navmenu/pkg/logger"
	"github.com/mchmarny/navmenu/pkg/menu"
)

func newTestShell() *Shell {
	s := NewShell(newTestResolver(), WithShellLogger(logger.Discard()))
	s.SetForest(testForest())
	return s
}

func TestState_DefaultsCollapsed(t *testing.T) {
	f := testForest()
	s := NewState()
	f.Walk(func(n *menu.Node, _ int) bool {
		assert.False(t, s.Expanded(n.ID), "node %d", n.ID)
		return true
	})
	assert.Zero(t, s.ExpandedCount())
}

func TestState_ToggleAndReset(t *testing.T) {
	s := NewState()
	assert.True(t, s.Toggle(3))
	assert.True(t, s.Expanded(3))
	assert.False(t, s.Toggle(3))
	assert.False(t, s.Expanded(3))

	s.SetExpanded(4, true)
	s.mark(7, true, []int64{4})
	s.Reset()
	assert.Zero(t, s.ExpandedCount())
	_, ok := s.Active()
	assert.False(t, ok)
}

func TestShell_ToggleOnlyContainers(t *testing.T) {
	s := newTestShell()

	v, err := s.Toggle(1)
	require.NoError(t, err)
	assert.True(t, v)

	v, err = s.Toggle(1)
	require.NoError(t, err)
	assert.False(t, v)

	v, err = s.Toggle(2)
	require.NoError(t, err)
	assert.False(t, v)
	assert.False(t, s.State().Expanded(2))
}

func TestShell_Click(t *testing.T) {
	s := newTestShell()

	a, err := s.Click(4)
	require.NoError(t, err)
	assert.Equal(t, Action{Kind: ActionToggle, Expanded: true}, a)

	a, err = s.Click(7)
	require.NoError(t, err)
	assert.Equal(t, Action{Kind: ActionNavigate, Route: "/mantenimiento/LUsuario"}, a)
	assert.Equal(t, "Usuarios", s.Selected())

	f := menu.Build([]menu.Record{{ID: 9, Label: "Vacio", View: menu.HeaderMarker, Section: menu.HeaderMarker}})
	s.SetForest(f)
	a, err = s.Click(9)
	require.NoError(t, err)
	assert.Equal(t, ActionNone, a.Kind)
}

func TestShell_UnknownNodeAndNoMenu(t *testing.T) {
	s := NewShell(nil, WithShellLogger(logger.Discard()))
	_, err := s.Toggle(1)
	assert.ErrorIs(t, err, ErrNoMenu)

	s.SetForest(testForest())
	_, err = s.Click(99)
	assert.ErrorIs(t, err, ErrUnknownNode)
}

func TestShell_RouteChangedAndSetForestResets(t *testing.T) {
	s := newTestShell()

	res := s.RouteChanged("/seguridad/Perfiles")
	require.True(t, res.Matched)
	assert.Equal(t, "/seguridad/Perfiles", s.Path())
	assert.True(t, s.State().Expanded(5))

	s.SetForest(testForest())
	assert.Zero(t, s.State().ExpandedCount())
	_, ok := s.State().Active()
	assert.False(t, ok)
}

func TestShell_ClearDropsEverything(t *testing.T) {
	s := newTestShell()
	s.RouteChanged("/seguridad/Perfiles")
	_, _ = s.Click(7)

	s.Clear()
	assert.Nil(t, s.Forest())
	assert.Empty(t, s.Path())
	assert.Empty(t, s.Selected())
	assert.Empty(t, s.View())
	assert.False(t, s.RouteChanged("/seguridad/Perfiles").Matched)
}

func TestShell_ViewCarriesState(t *testing.T) {
	s := newTestShell()
	s.RouteChanged("/gestion/tickets/42")

	views := s.View()
	require.Len(t, views, 2)
	gestion := views[0]
	assert.True(t, gestion.Header)
	assert.True(t, gestion.Expanded)
	assert.False(t, gestion.Active)
	require.Len(t, gestion.Children, 2)
	assert.True(t, gestion.Children[0].Active)
	assert.Equal(t, "/gestion/tickets", gestion.Children[0].Route)
	assert.NotNil(t, gestion.Children[0].Children)

	raw, err := json.Marshal(views[1].Children[1])
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": 7, "label": "Usuarios", "order": 2, "viewName": "LUsuario",
		"sectionName": "Mantenimiento", "parentId": 4, "route": "/mantenimiento/LUsuario",
		"header": false, "expanded": false, "isActive": false, "children": []
	}`, string(raw))
}
