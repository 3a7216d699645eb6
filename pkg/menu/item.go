package menu

// Record is one row of the flat menu the backend returns for a role.
// JSON names follow the backend procedure's column names.
type Record struct {
	// ID is the opaque backend identifier of the entry, unique within one menu.
	ID int64 `json:"IdMenu"`

	// Label is the display text.
	Label string `json:"Menu"`

	// Order is the sibling sort key, ascending.
	Order int `json:"Orden"`

	// View is the view name used to derive the route. HeaderMarker marks a header.
	View string `json:"Vista"`

	// Section is the controller/section name used to derive the route.
	Section string `json:"Controlador"`

	// ParentID is nil for root entries.
	ParentID *int64 `json:"IdPadre"`

	// Icon is an optional icon name.
	Icon string `json:"sIcono,omitempty"`
}

// Node is the structural, read-only projection of a Record inside a Forest.
// Transient UI state (expanded, active) is kept outside the node, see the navigation package.
type Node struct {
	ID       int64
	Label    string
	Order    int
	View     string
	Section  string
	ParentID *int64
	Icon     string

	// Children are sorted by Order. They are owned by this node only.
	Children []*Node
}

func newNode(r Record) *Node {
	n := &Node{
		ID:      r.ID,
		Label:   r.Label,
		Order:   r.Order,
		View:    r.View,
		Section: r.Section,
		Icon:    r.Icon,
	}
	if r.ParentID != nil {
		p := *r.ParentID
		n.ParentID = &p
	}
	return n
}

// HasChildren reports whether the node groups other entries.
func (n *Node) HasChildren() bool {
	return n != nil && len(n.Children) > 0
}

// IsHeader reports whether the node is a non-navigable header.
func (n *Node) IsHeader() bool {
	return IsHeader(n)
}

// Route returns the navigation target of the node, empty for headers.
func (n *Node) Route() string {
	return RouteFor(n)
}
