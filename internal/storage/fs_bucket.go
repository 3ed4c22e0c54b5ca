package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const metaSuffix = ".meta.json"

// FSBucket is a filesystem-backed Bucket. Objects live under basePath with
// their key as relative path; content type and ETag sit in a sidecar file:
//
//	<basePath>/
//	  documents/my-ext.md
//	  documents/my-ext.md.meta.json
type FSBucket struct {
	basePath string
	pageSize int
	mu       sync.RWMutex
}

type fsMeta struct {
	ContentType string    `json:"contentType"`
	ETag        string    `json:"etag"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewFSBucket creates a bucket rooted at basePath.
func NewFSBucket(basePath string) (*FSBucket, error) {
	if err := os.MkdirAll(basePath, 0750); err != nil {
		return nil, fmt.Errorf("create directory %s: %w", basePath, err)
	}
	return &FSBucket{basePath: basePath, pageSize: 1000}, nil
}

// Put writes the object and its metadata.
func (b *FSBucket) Put(ctx context.Context, key string, body io.Reader, contentType string) (PutResult, error) {
	p, err := b.objectPath(key)
	if err != nil {
		return PutResult{}, err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return PutResult{}, fmt.Errorf("read body for %s: %w", key, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(p), 0750); err != nil {
		return PutResult{}, fmt.Errorf("create object directory: %w", err)
	}
	if err := writeFileAtomic(p, data); err != nil {
		return PutResult{}, fmt.Errorf("write object: %w", err)
	}

	meta := fsMeta{ContentType: contentType, ETag: etagOf(data), UpdatedAt: time.Now()}
	raw, err := json.Marshal(meta)
	if err != nil {
		return PutResult{}, fmt.Errorf("marshal metadata: %w", err)
	}
	if err := writeFileAtomic(p+metaSuffix, raw); err != nil {
		return PutResult{}, fmt.Errorf("write metadata: %w", err)
	}
	return PutResult{Key: key, ETag: meta.ETag}, nil
}

// Get reads the object.
func (b *FSBucket) Get(ctx context.Context, key string) (*Object, error) {
	p, err := b.objectPath(key)
	if err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	// #nosec G304 - path is validated by objectPath
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound{Key: key}
		}
		return nil, fmt.Errorf("read object: %w", err)
	}

	obj := &Object{Key: key, Data: data, ETag: etagOf(data)}
	// #nosec G304 - path is validated by objectPath
	if raw, err := os.ReadFile(p + metaSuffix); err == nil {
		var meta fsMeta
		if json.Unmarshal(raw, &meta) == nil {
			obj.ContentType = meta.ContentType
		}
	}
	return obj, nil
}

// List walks the tree and returns one page of keys.
func (b *FSBucket) List(ctx context.Context, in ListInput) (ListPage, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var keys []string
	err := filepath.WalkDir(b.basePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(path, metaSuffix) || strings.HasSuffix(path, ".tmp") {
			return nil
		}
		rel, err := filepath.Rel(b.basePath, path)
		if err != nil {
			return nil
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return ListPage{}, fmt.Errorf("walk objects: %w", err)
	}
	sort.Strings(keys)
	return pageKeys(keys, in, b.pageSize)
}

// DeleteObjects removes objects and their metadata. Emptied directories are
// pruned.
func (b *FSBucket) DeleteObjects(ctx context.Context, keys []string) (DeleteResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var res DeleteResult
	for _, key := range keys {
		p, err := b.objectPath(key)
		if err != nil {
			return res, err
		}
		if err := os.Remove(p); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return res, fmt.Errorf("delete object %s: %w", key, err)
		}
		_ = os.Remove(p + metaSuffix) // best effort
		b.pruneDirs(filepath.Dir(p))
		res.Deleted = append(res.Deleted, key)
	}
	return res, nil
}

func (b *FSBucket) pruneDirs(dir string) {
	for dir != b.basePath && strings.HasPrefix(dir, b.basePath) {
		if os.Remove(dir) != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}

// objectPath maps a key to a path inside basePath.
func (b *FSBucket) objectPath(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.HasSuffix(key, metaSuffix) {
		return "", ErrInvalidKey{Key: key}
	}
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", ErrInvalidKey{Key: key}
	}
	return filepath.Join(b.basePath, clean), nil
}

// ErrInvalidKey is returned for keys that cannot be mapped into the bucket.
type ErrInvalidKey struct {
	Key string
}

func (e ErrInvalidKey) Error() string {
	return "invalid object key: " + e.Key
}

// IsInvalidKey reports whether err is an ErrInvalidKey.
func IsInvalidKey(err error) bool {
	var ik ErrInvalidKey
	return errors.As(err, &ik)
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

