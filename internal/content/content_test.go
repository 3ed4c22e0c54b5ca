package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewTypePrefix(t *testing.T) {
	tests := []struct {
		view ViewType
		want string
	}{
		{ViewBullet, "- "},
		{ViewNumbered, "1. "},
		{ViewDocument, ""},
		{"", "- "},
		{"horizontal", "- "},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.view.Prefix(), "view %q", tt.view)
	}
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "getting_started", NormalizeName("Getting Started"))
	assert.Equal(t, "api__reference", NormalizeName("API  Reference"))
	assert.Equal(t, "already_ok", NormalizeName("already_ok"))
}

func TestCloneIsDeep(t *testing.T) {
	orig := []Node{{UID: "a", Text: "root", Children: []Node{{UID: "b", Text: "child"}}}}
	cp := CloneAll(orig)
	cp[0].Children[0].Text = "changed"

	require.Equal(t, "child", orig[0].Children[0].Text)
}

func TestWalkOrderAndDepth(t *testing.T) {
	tree := []Node{
		{UID: "a", Children: []Node{{UID: "b", Children: []Node{{UID: "c"}}}}},
		{UID: "d"},
	}
	var seen []string
	var depths []int
	Walk(tree, func(n *Node, depth int) {
		seen = append(seen, n.UID)
		depths = append(depths, depth)
	})
	assert.Equal(t, []string{"a", "b", "c", "d"}, seen)
	assert.Equal(t, []int{0, 1, 2, 0}, depths)
}

func TestSubpageSetKeys(t *testing.T) {
	set := SubpageSet{
		"Getting Started": {ViewType: ViewBullet},
		"FAQ":             {ViewType: ViewDocument},
	}
	assert.Equal(t, []string{"FAQ", "Getting Started"}, set.Names())
	assert.Equal(t, map[string]string{"faq": "FAQ", "getting_started": "Getting Started"}, set.Keys())
}
