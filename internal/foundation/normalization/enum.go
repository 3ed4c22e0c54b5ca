// Package normalization maps loosely written configuration values onto
// canonical enum constants.
package normalization

import (
	"fmt"
	"slices"
	"strings"
)

// Enum normalizes raw strings onto the constants of T. Several spellings may
// map to the same constant.
type Enum[T ~string] struct {
	name     string
	values   map[string]T
	fallback T
	options  []string
}

// NewEnum builds an Enum called name. Unknown input normalizes to fallback.
func NewEnum[T ~string](name string, values map[string]T, fallback T) *Enum[T] {
	e := &Enum[T]{name: name, values: make(map[string]T, len(values)), fallback: fallback}
	for k, v := range values {
		e.values[clean(k)] = v
		if !slices.Contains(e.options, string(v)) {
			e.options = append(e.options, string(v))
		}
	}
	slices.Sort(e.options)
	return e
}

// Normalize returns the constant raw names, or the fallback.
func (e *Enum[T]) Normalize(raw string) T {
	if v, ok := e.values[clean(raw)]; ok {
		return v
	}
	return e.fallback
}

// Parse is Normalize that rejects unknown input.
func (e *Enum[T]) Parse(raw string) (T, error) {
	if v, ok := e.values[clean(raw)]; ok {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q, valid options: %s", e.name, raw, strings.Join(e.options, ", "))
}

// Options lists the canonical values, sorted.
func (e *Enum[T]) Options() []string {
	return slices.Clone(e.options)
}

func clean(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
