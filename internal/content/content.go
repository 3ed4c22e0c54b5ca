// Package content defines the author-supplied content tree: blocks, their view
// types and the set of named sub-documents published alongside the main document.
package content

import "strings"

// ViewType is the rendering mode a node applies to its children.
type ViewType string

const (
	ViewBullet   ViewType = "bullet"
	ViewNumbered ViewType = "numbered"
	ViewDocument ViewType = "document"
)

// Prefix returns the line marker rendered before each child. Unknown and empty
// view types render as bullets.
func (v ViewType) Prefix() string {
	switch v {
	case ViewDocument:
		return ""
	case ViewNumbered:
		return "1. "
	default:
		return "- "
	}
}

// IsDocument reports whether children are rendered flat.
func (v ViewType) IsDocument() bool { return v == ViewDocument }

// TextAlign is the horizontal alignment of a block.
type TextAlign string

const (
	AlignDefault TextAlign = ""
	AlignLeft    TextAlign = "left"
	AlignCenter  TextAlign = "center"
)

// Node is one block of the content tree. ViewType governs the children, not the
// node itself; children are rendered in slice order.
type Node struct {
	UID       string    `json:"uid"`
	Text      string    `json:"text"`
	Heading   int       `json:"heading,omitempty"`
	TextAlign TextAlign `json:"textAlign,omitempty"`
	ViewType  ViewType  `json:"viewType,omitempty"`
	Children  []Node    `json:"children,omitempty"`
}

// Clone returns a deep copy of n.
func (n Node) Clone() Node {
	c := n
	if n.Children != nil {
		c.Children = CloneAll(n.Children)
	}
	return c
}

// CloneAll deep-copies a forest.
func CloneAll(nodes []Node) []Node {
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}

// Walk visits every node depth-first in rendering order.
func Walk(nodes []Node, fn func(n *Node, depth int)) {
	var walk func(ns []Node, depth int)
	walk = func(ns []Node, depth int) {
		for i := range ns {
			fn(&ns[i], depth)
			walk(ns[i].Children, depth+1)
		}
	}
	walk(nodes, 0)
}

// NormalizeName turns a sub-document or page title into its URL segment:
// lowercase, spaces replaced by underscores.
func NormalizeName(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, " ", "_"))
}
