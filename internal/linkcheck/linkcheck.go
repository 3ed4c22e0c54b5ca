// Package linkcheck reports rendered links that point at subpages the
// published extension does not have.
package linkcheck

import (
	"slices"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Warning is one dangling subpage link.
type Warning struct {
	// Document is the subpage key of the document holding the link, or ""
	// for the main document.
	Document    string `json:"document"`
	Destination string `json:"destination"`
}

func (w Warning) String() string {
	doc := w.Document
	if doc == "" {
		doc = "main"
	}
	return doc + ": " + w.Destination
}

// ExtractLinks returns the link and image destinations of a markdown body in
// document order.
func ExtractLinks(body []byte) []string {
	root := goldmark.New().Parser().Parse(text.NewReader(body))

	var dests []string
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.AutoLink:
			dests = append(dests, string(node.URL(body)))
		case *gmast.Link:
			dests = append(dests, string(node.Destination))
		}
		return gmast.WalkContinue, nil
	})
	return dests
}

// Check scans documents, keyed by subpage key with "" for the main document,
// for links of the form /extensions/{path}/{key} whose key is not in
// subpageKeys.
func Check(path string, documents map[string]string, subpageKeys []string) []Warning {
	prefix := "/extensions/" + path + "/"

	docs := make([]string, 0, len(documents))
	for k := range documents {
		docs = append(docs, k)
	}
	sort.Strings(docs)

	var warnings []Warning
	for _, doc := range docs {
		for _, dest := range ExtractLinks([]byte(documents[doc])) {
			target, ok := strings.CutPrefix(dest, prefix)
			if !ok {
				continue
			}
			target, _, _ = strings.Cut(target, "#")
			if target == "" || slices.Contains(subpageKeys, target) {
				continue
			}
			warnings = append(warnings, Warning{Document: doc, Destination: dest})
		}
	}
	return warnings
}
