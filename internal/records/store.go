// Package records stores the metadata record of each published extension.
package records

import (
	"context"
	"errors"
)

// State is the review state of an extension.
type State string

const (
	StateDevelopment State = "DEVELOPMENT"
	StateUnderReview State = "UNDER_REVIEW"
	StateLive        State = "LIVE"
	StatePrivate     State = "PRIVATE"
)

// Record is the stored metadata of one extension path.
type Record struct {
	Path        string `json:"path"`
	Description string `json:"description,omitempty"`
	Src         string `json:"src,omitempty"`
	Owner       string `json:"owner,omitempty"`
	State       State  `json:"state,omitempty"`
	PriceRef    string `json:"price,omitempty"`
}

// Premium reports whether the record carries a monetization reference.
func (r Record) Premium() bool { return r.PriceRef != "" }

// Field names an attribute a Change may touch. The values are the stored
// attribute names.
type Field string

const (
	FieldDescription Field = "description"
	FieldSrc         Field = "src"
	FieldPrice       Field = "price"
)

// Change sets or removes one field.
type Change struct {
	Field  Field
	Value  string
	Remove bool
}

// Store is the record store addressed by path. Implementations treat every
// attribute as a string.
type Store interface {
	// Get returns the record for path, or ErrNotFound.
	Get(ctx context.Context, path string) (Record, error)

	// Update applies changes in one write, only if the record exists.
	// Returns ErrNotFound otherwise.
	Update(ctx context.Context, path string, changes []Change) error

	// Create inserts a new record. Returns ErrExists if path is taken.
	Create(ctx context.Context, r Record) error

	// Delete removes the record for path. Missing records are not an error.
	Delete(ctx context.Context, path string) error

	// QueryByOwner returns the records owned by owner, ordered by path.
	QueryByOwner(ctx context.Context, owner string) ([]Record, error)

	// Close releases any resources held by the store.
	Close() error
}

var (
	// ErrNotFound is returned when no record exists for a path.
	ErrNotFound = errors.New("record not found")
	// ErrExists is returned by Create when the path is already taken.
	ErrExists = errors.New("record already exists")
)

func validChange(c Change) bool {
	switch c.Field {
	case FieldDescription, FieldSrc, FieldPrice:
		return true
	}
	return false
}
