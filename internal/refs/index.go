// Package refs resolves block references, aliases and embeds inside a content
// tree into inline content or relative links to the published site.
package refs

import (
	"git.home.luguber.info/inful/docpublish/internal/content"
)

// Block is a referenceable block together with the title of the page that owns it.
type Block struct {
	content.Node
	Page string `json:"page"`
}

// Index looks blocks up by uid.
type Index struct {
	blocks map[string]Block
}

// NewIndex indexes every block of the main tree (owned by ns) and of each
// subpage (owned by ns/<title>), then adds the externally supplied references
// for uids not already present in the published tree.
func NewIndex(ns string, blocks []content.Node, subpages content.SubpageSet, references map[string]Block) *Index {
	idx := &Index{blocks: make(map[string]Block)}
	idx.addTree(ns, blocks)
	for _, title := range subpages.Names() {
		idx.addTree(ns+"/"+title, subpages[title].Nodes)
	}
	for uid, b := range references {
		if _, ok := idx.blocks[uid]; ok {
			continue
		}
		if b.UID == "" {
			b.UID = uid
		}
		idx.blocks[uid] = b
	}
	return idx
}

func (idx *Index) addTree(page string, nodes []content.Node) {
	content.Walk(nodes, func(n *content.Node, _ int) {
		if n.UID == "" {
			return
		}
		if _, ok := idx.blocks[n.UID]; !ok {
			idx.blocks[n.UID] = Block{Node: *n, Page: page}
		}
	})
}

// Lookup returns the block with the given uid.
func (idx *Index) Lookup(uid string) (Block, bool) {
	if idx == nil {
		return Block{}, false
	}
	b, ok := idx.blocks[uid]
	return b, ok
}

// Len returns the number of indexed blocks.
func (idx *Index) Len() int { return len(idx.blocks) }
