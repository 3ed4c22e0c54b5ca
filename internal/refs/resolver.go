package refs

import (
	"regexp"
	"slices"
	"strings"

	"git.home.luguber.info/inful/docpublish/internal/content"
)

const uidPattern = `\(\(([\w\d-]{9,10})\)\)`

var (
	embedRe = regexp.MustCompile(`\{\{(?:\[\[)?embed(?:\]\])?:\s*` + uidPattern + `\s*\}\}`)
	aliasRe = regexp.MustCompile(`\[(.*?)\]\(` + uidPattern + `\)`)
	refRe   = regexp.MustCompile(uidPattern)
)

// Resolve returns a copy of nodes with references resolved for the publishing
// namespace ns. The input is never modified.
//
// Per node, in order: embeds splice the referenced block's children and adopt its
// heading, view type and alignment; aliases become links for internal targets or
// bare alias text otherwise; bare references become links for internal targets or
// the referenced text otherwise. Children, including spliced ones, are resolved
// depth-first afterwards. Text substituted by an alias or bare reference is not
// scanned again, so resolving an already resolved tree is not a no-op.
//
// An embed that would re-enter one of its own ancestors contributes its text
// but not its children.
func Resolve(nodes []content.Node, idx *Index, ns string) []content.Node {
	a := &arena{}
	roots := make([]int, len(nodes))
	for i, n := range nodes {
		roots[i] = a.add(n, nil)
	}

	r := resolver{arena: a, index: idx, ns: ns}
	for _, root := range roots {
		r.resolve(root)
	}

	out := make([]content.Node, len(roots))
	for i, root := range roots {
		out[i] = a.materialize(root)
	}
	return out
}

type resolver struct {
	arena *arena
	index *Index
	ns    string
}

func (r *resolver) resolve(i int) {
	r.resolveText(i)
	// children may grow while resolving i, never while resolving descendants
	for k := 0; k < len(r.arena.nodes[i].children); k++ {
		r.resolve(r.arena.nodes[i].children[k])
	}
}

func (r *resolver) resolveText(i int) {
	text := r.arena.nodes[i].node.Text

	text = embedRe.ReplaceAllStringFunc(text, func(m string) string {
		uid := embedRe.FindStringSubmatch(m)[1]
		b, ok := r.index.Lookup(uid)
		if !ok {
			return m
		}
		chain := r.arena.nodes[i].chain
		if !slices.Contains(chain, uid) {
			next := append(slices.Clone(chain), uid)
			for _, c := range b.Children {
				r.arena.appendChild(i, c, next)
			}
		}
		n := &r.arena.nodes[i].node
		n.Heading = b.Heading
		n.ViewType = b.ViewType
		if n.ViewType == "" {
			n.ViewType = content.ViewBullet
		}
		n.TextAlign = b.TextAlign
		return b.Text
	})

	text = aliasRe.ReplaceAllStringFunc(text, func(m string) string {
		sub := aliasRe.FindStringSubmatch(m)
		alias, uid := sub[1], sub[2]
		b, ok := r.index.Lookup(uid)
		if !ok {
			return alias
		}
		page := content.NormalizeName(b.Page)
		if r.isExternal(page) {
			return alias
		}
		return link(alias, page, uid)
	})

	text = refRe.ReplaceAllStringFunc(text, func(m string) string {
		uid := refRe.FindStringSubmatch(m)[1]
		b, ok := r.index.Lookup(uid)
		if !ok {
			return m
		}
		page := content.NormalizeName(b.Page)
		if r.isExternal(page) {
			return b.Text
		}
		return link(b.Text, page, uid)
	})

	r.arena.nodes[i].node.Text = text
}

// isExternal reports whether page lies outside the publishing namespace.
func (r *resolver) isExternal(page string) bool {
	return page != r.ns && !strings.HasPrefix(page, r.ns+"/")
}

func link(label, page, uid string) string {
	return "[" + label + "](/extensions/" + page + "#" + uid + ")"
}
