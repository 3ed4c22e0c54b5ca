package publish

import (
	"fmt"
	"sort"

	"git.home.luguber.info/inful/docpublish/internal/content"
	"git.home.luguber.info/inful/docpublish/internal/linkcheck"
	"git.home.luguber.info/inful/docpublish/internal/refs"
	"git.home.luguber.info/inful/docpublish/internal/render"

	derrors "git.home.luguber.info/inful/docpublish/internal/foundation/errors"
)

// Documents are the rendered markdown documents of one publish.
type Documents struct {
	Main string
	// Subpages maps the normalized subpage name to its document.
	Subpages map[string]string
}

// Keys returns the normalized subpage names in order.
func (d Documents) Keys() []string {
	keys := make([]string, 0, len(d.Subpages))
	for k := range d.Subpages {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// LinkWarnings reports links to subpages this publish does not contain.
func (d Documents) LinkWarnings(path string) []linkcheck.Warning {
	docs := make(map[string]string, len(d.Subpages)+1)
	docs[""] = d.Main
	for k, v := range d.Subpages {
		docs[k] = v
	}
	return linkcheck.Check(path, docs, d.Keys())
}

// Render resolves references and renders the main document and every
// subpage of r. It has no side effects.
func Render(r Request) Documents {
	idx := refs.NewIndex(r.Path, r.Blocks, r.Subpages, r.References)
	rd := render.New(r.Path)

	docs := Documents{
		Main:     rd.MainDocument(refs.Resolve(r.Blocks, idx, r.Path), r.ViewType),
		Subpages: make(map[string]string, len(r.Subpages)),
	}
	for _, title := range r.Subpages.Names() {
		sp := r.Subpages[title]
		docs.Subpages[content.NormalizeName(title)] = rd.Document(refs.Resolve(sp.Nodes, idx, r.Path), sp.ViewType)
	}
	return docs
}

// checkSubpageNames rejects subpage titles that collide once normalized.
func checkSubpageNames(s content.SubpageSet) error {
	seen := make(map[string]string, len(s))
	for _, title := range s.Names() {
		key := content.NormalizeName(title)
		if other, ok := seen[key]; ok {
			return derrors.ValidationError(fmt.Sprintf("Subpage names must be unique ignoring case and spaces: %q and %q.", other, title)).Build()
		}
		seen[key] = title
	}
	return nil
}
