package storage

import (
	"context"
	"crypto/md5" // #nosec G501 - ETag compatibility, not security
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"sync"
)

// MemoryBucket is an in-memory Bucket, used by tests and `docpublish render`.
type MemoryBucket struct {
	mu       sync.RWMutex
	objects  map[string]*Object
	pageSize int
	calls    MemoryCalls
	failPut  map[string]error
}

// MemoryCalls tracks method invocations for test verification.
type MemoryCalls struct {
	Put           int
	Get           int
	List          int
	DeleteObjects int
	Deleted       []string
}

// NewMemoryBucket creates an empty bucket listing up to 1000 keys per page.
func NewMemoryBucket() *MemoryBucket {
	return &MemoryBucket{
		objects:  make(map[string]*Object),
		pageSize: 1000,
		failPut:  make(map[string]error),
	}
}

// WithPageSize sets the default page size for List.
func (m *MemoryBucket) WithPageSize(n int) *MemoryBucket {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n > 0 {
		m.pageSize = n
	}
	return m
}

// FailPut makes every Put to key return err.
func (m *MemoryBucket) FailPut(key string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failPut[key] = err
}

// Put stores the object.
func (m *MemoryBucket) Put(ctx context.Context, key string, body io.Reader, contentType string) (PutResult, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return PutResult{}, fmt.Errorf("read body for %s: %w", key, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Put++

	if err := m.failPut[key]; err != nil {
		return PutResult{}, err
	}

	etag := etagOf(data)
	m.objects[key] = &Object{Key: key, ContentType: contentType, ETag: etag, Data: data}
	return PutResult{Key: key, ETag: etag}, nil
}

// Get retrieves a copy of the object.
func (m *MemoryBucket) Get(ctx context.Context, key string) (*Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Get++

	obj, ok := m.objects[key]
	if !ok {
		return nil, ErrNotFound{Key: key}
	}
	cp := *obj
	cp.Data = append([]byte(nil), obj.Data...)
	return &cp, nil
}

// List returns one page of keys.
func (m *MemoryBucket) List(ctx context.Context, in ListInput) (ListPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.List++

	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return pageKeys(keys, in, m.pageSize)
}

// DeleteObjects removes the keys that exist.
func (m *MemoryBucket) DeleteObjects(ctx context.Context, keys []string) (DeleteResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.DeleteObjects++

	var res DeleteResult
	for _, k := range keys {
		if _, ok := m.objects[k]; ok {
			delete(m.objects, k)
			res.Deleted = append(res.Deleted, k)
		}
	}
	m.calls.Deleted = append(m.calls.Deleted, res.Deleted...)
	return res, nil
}

// Calls returns the number of times each method was called.
func (m *MemoryBucket) Calls() MemoryCalls {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c := m.calls
	c.Deleted = append([]string(nil), m.calls.Deleted...)
	return c
}

// Keys returns all stored keys, sorted.
func (m *MemoryBucket) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Size returns the number of stored objects.
func (m *MemoryBucket) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

// String returns a string representation for debugging.
func (m *MemoryBucket) String() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fmt.Sprintf("MemoryBucket{objects: %d, calls: %+v}", len(m.objects), m.calls)
}

func etagOf(data []byte) string {
	sum := md5.Sum(data) // #nosec G401
	return `"` + hex.EncodeToString(sum[:]) + `"`
}
