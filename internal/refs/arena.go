package refs

import "git.home.luguber.info/inful/docpublish/internal/content"

// arena stores a forest as a flat slice with explicit child indices so that
// resolution can splice subtrees without aliasing the caller's nodes.
type arena struct {
	nodes []arenaNode
}

type arenaNode struct {
	node     content.Node // Children is always nil; see children
	children []int
	chain    []string // uids of the embeds this node was spliced in through
}

// add copies n and its descendants into the arena and returns n's index.
func (a *arena) add(n content.Node, chain []string) int {
	idx := len(a.nodes)
	flat := n
	flat.Children = nil
	a.nodes = append(a.nodes, arenaNode{node: flat, chain: chain})

	kids := make([]int, 0, len(n.Children))
	for _, c := range n.Children {
		kids = append(kids, a.add(c, chain))
	}
	a.nodes[idx].children = kids
	return idx
}

// appendChild attaches a copy of n as the last child of parent.
func (a *arena) appendChild(parent int, n content.Node, chain []string) {
	child := a.add(n, chain)
	a.nodes[parent].children = append(a.nodes[parent].children, child)
}

// materialize rebuilds the tree rooted at i.
func (a *arena) materialize(i int) content.Node {
	an := a.nodes[i]
	n := an.node
	if len(an.children) > 0 {
		n.Children = make([]content.Node, len(an.children))
		for k, c := range an.children {
			n.Children[k] = a.materialize(c)
		}
	}
	return n
}
