package navigation

import "github.com/mchmarny/navmenu/pkg/menu"

// NodeView is a menu node merged with its transient state, ready to render.
type NodeView struct {
	ID          int64      `json:"id"`
	Label       string     `json:"label"`
	Order       int        `json:"order"`
	ViewName    string     `json:"viewName"`
	SectionName string     `json:"sectionName"`
	ParentID    *int64     `json:"parentId"`
	Icon        string     `json:"icon,omitempty"`
	Route       string     `json:"route,omitempty"`
	Header      bool       `json:"header"`
	Expanded    bool       `json:"expanded"`
	Active      bool       `json:"isActive"`
	Children    []NodeView `json:"children"`
}

// Render merges f and state into views, roots first.
func Render(f *menu.Forest, state *State) []NodeView {
	roots := f.Roots()
	out := make([]NodeView, 0, len(roots))
	for _, n := range roots {
		out = append(out, render(n, state))
	}
	return out
}

func render(n *menu.Node, state *State) NodeView {
	v := NodeView{
		ID:          n.ID,
		Label:       n.Label,
		Order:       n.Order,
		ViewName:    n.View,
		SectionName: n.Section,
		ParentID:    n.ParentID,
		Icon:        n.Icon,
		Route:       menu.RouteFor(n),
		Header:      menu.IsHeader(n),
		Expanded:    state.Expanded(n.ID),
		Active:      state.IsActive(n.ID),
		Children:    make([]NodeView, 0, len(n.Children)),
	}
	for _, c := range n.Children {
		v.Children = append(v.Children, render(c, state))
	}
	return v
}
