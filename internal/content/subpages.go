package content

import "sort"

// Subpage is one named sub-document of an extension.
type Subpage struct {
	Nodes    []Node   `json:"nodes"`
	ViewType ViewType `json:"viewType,omitempty"`
}

// SubpageSet maps a sub-document title to its content. Titles must be unique
// after normalization.
type SubpageSet map[string]Subpage

// Names returns the titles in a stable order.
func (s SubpageSet) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Keys returns the normalized names, keyed to their original titles.
func (s SubpageSet) Keys() map[string]string {
	keys := make(map[string]string, len(s))
	for name := range s {
		keys[NormalizeName(name)] = name
	}
	return keys
}
