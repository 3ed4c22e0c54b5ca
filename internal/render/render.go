// Package render turns a resolved content tree into the markdown documents
// served by the documentation site.
package render

import (
	"strings"

	"git.home.luguber.info/inful/docpublish/internal/content"
	"git.home.luguber.info/inful/docpublish/internal/markup"
)

const indentWidth = 4

// Renderer renders the trees of one extension path.
type Renderer struct {
	tr *markup.Translator
}

// New returns a Renderer that translates inline markup for path.
func New(path string) *Renderer {
	return &Renderer{tr: markup.ForPath(path)}
}

// NewWithTranslator returns a Renderer using a custom translator.
func NewWithTranslator(tr *markup.Translator) *Renderer {
	return &Renderer{tr: tr}
}

// Node renders n, and recursively its children, as a child of a node with
// view type viewType at the given depth.
func (r *Renderer) Node(n content.Node, viewType content.ViewType, depth int) string {
	var b strings.Builder
	r.node(&b, n, viewType, depth)
	return b.String()
}

func (r *Renderer) node(b *strings.Builder, n content.Node, viewType content.ViewType, depth int) {
	prefix := strings.Repeat(" ", depth*indentWidth) + viewType.Prefix()
	pad := ""
	if strings.Contains(n.Text, "\n") {
		pad = "\n\n" + markup.Indent(prefix)
	}
	center := n.TextAlign == content.AlignCenter

	b.WriteString(prefix)
	b.WriteString(`<Block id={"`)
	b.WriteString(n.UID)
	b.WriteString(`"}>`)
	if n.Heading > 0 {
		b.WriteString(strings.Repeat("#", n.Heading))
		b.WriteString(" ")
	}
	if center {
		b.WriteString("<Center>")
	}
	b.WriteString(pad)
	b.WriteString(r.tr.Translate(n.Text, prefix))
	b.WriteString(pad)
	if center {
		b.WriteString("</Center>")
	}
	b.WriteString("</Block>\n\n")

	childDepth := depth + 1
	if viewType.IsDocument() {
		childDepth = depth
	}
	for _, c := range n.Children {
		r.node(b, c, n.ViewType, childDepth)
	}
	if viewType.IsDocument() && len(n.Children) > 0 {
		b.WriteString("\n")
	}
}

// Document renders a forest whose parent has view type viewType.
func (r *Renderer) Document(nodes []content.Node, viewType content.ViewType) string {
	var b strings.Builder
	for _, n := range nodes {
		r.node(&b, n, viewType, 0)
	}
	return b.String()
}

// MainDocument renders the main page of an extension. A tree of a single block
// mentioning github.com is a pointer to an external README and is published
// as-is.
func (r *Renderer) MainDocument(nodes []content.Node, viewType content.ViewType) string {
	if IsRedirect(nodes) {
		return nodes[0].Text
	}
	return r.Document(nodes, viewType)
}

// IsRedirect reports whether the main tree is an external README pointer.
func IsRedirect(nodes []content.Node) bool {
	return len(nodes) == 1 && strings.Contains(nodes[0].Text, "github.com")
}
