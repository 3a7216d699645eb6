package menu

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// HeaderMarker is the sentinel the backend puts in View or Section of entries that
// only group other entries and have no navigation target.
const HeaderMarker = "##"

// IsHeader reports whether n carries the header marker in its view or section name.
func IsHeader(n *Node) bool {
	if n == nil {
		return false
	}
	return n.View == HeaderMarker || n.Section == HeaderMarker
}

// RouteFor derives the route of n as "/" + lower(section) + "/" + view.
// The view keeps its original casing; the registered routes depend on it.
// Headers and nil nodes have no route.
func RouteFor(n *Node) string {
	if n == nil || IsHeader(n) {
		return ""
	}
	section := cases.Lower(language.Und).String(n.Section)
	return "/" + section + "/" + n.View
}
