// Package storage provides the object buckets published documents, thumbnails,
// bundles and version snapshots are written to.
package storage

import (
	"context"
	"errors"
	"io"
)

// Content types written by the publisher.
const (
	ContentTypeJSON       = "application/json"
	ContentTypeMarkdown   = "text/markdown"
	ContentTypePNG        = "image/png"
	ContentTypeJavaScript = "text/javascript"
)

// Bucket is a flat key/object namespace.
type Bucket interface {
	// Put writes body under key, replacing any existing object.
	Put(ctx context.Context, key string, body io.Reader, contentType string) (PutResult, error)

	// Get returns the object stored under key.
	// Returns ErrNotFound if the key doesn't exist.
	Get(ctx context.Context, key string) (*Object, error)

	// List returns one page of keys under in.Prefix. When in.Delimiter is set,
	// keys containing the delimiter after the prefix are rolled up into
	// CommonPrefixes.
	List(ctx context.Context, in ListInput) (ListPage, error)

	// DeleteObjects removes keys. Missing keys are not an error.
	DeleteObjects(ctx context.Context, keys []string) (DeleteResult, error)
}

// Object is a stored object.
type Object struct {
	Key         string
	ContentType string
	ETag        string
	Data        []byte
}

// PutResult describes a completed write.
type PutResult struct {
	Key  string
	ETag string
}

// ListInput selects a page of keys.
type ListInput struct {
	Prefix            string
	Delimiter         string
	ContinuationToken string
	MaxKeys           int
}

// ListPage is one page of a listing.
type ListPage struct {
	Keys                  []string
	CommonPrefixes        []string
	IsTruncated           bool
	NextContinuationToken string
}

// DeleteResult reports the keys a batch delete removed.
type DeleteResult struct {
	Deleted []string
}

// ErrNotFound is returned when an object doesn't exist.
type ErrNotFound struct {
	Key string
}

func (e ErrNotFound) Error() string {
	return "object not found: " + e.Key
}

// IsNotFound returns true if the error is ErrNotFound.
func IsNotFound(err error) bool {
	var nf ErrNotFound
	return errors.As(err, &nf)
}
