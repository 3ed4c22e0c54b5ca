package publish

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docpublish/internal/storage"
)

func seed(t *testing.T, b storage.Bucket, keys ...string) {
	t.Helper()
	for _, k := range keys {
		_, err := b.Put(t.Context(), k, strings.NewReader(k), storage.ContentTypeMarkdown)
		require.NoError(t, err)
	}
}

func TestStaleKeysIsSetDifference(t *testing.T) {
	prefix := "documents/p/"
	published := []string{"documents/p/a.md", "documents/p/b.md", "documents/q/a.md", "documents/p.md"}
	desired := map[string]struct{}{"documents/p/b.md": {}, "documents/p/c.md": {}}

	assert.Equal(t, []string{"documents/p/a.md"}, StaleKeys(prefix, published, desired))
	assert.Empty(t, StaleKeys(prefix, nil, desired))
}

func TestReconcileExhaustsListingBeforeDeleting(t *testing.T) {
	b := storage.NewMemoryBucket().WithPageSize(2)
	var keys []string
	for i := range 7 {
		keys = append(keys, fmt.Sprintf("documents/p/page%d.md", i))
	}
	seed(t, b, keys...)
	seed(t, b, "documents/p.md", "documents/pp/page1.md", "documents/p/nested/deep.md")

	deleted, err := Reconcile(t.Context(), b, "p", []string{"page1", "page6"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"documents/p/page0.md", "documents/p/page2.md", "documents/p/page3.md",
		"documents/p/page4.md", "documents/p/page5.md",
	}, deleted)

	assert.Equal(t, []string{
		"documents/p.md",
		"documents/p/nested/deep.md",
		"documents/p/page1.md",
		"documents/p/page6.md",
		"documents/pp/page1.md",
	}, b.Keys())
	assert.GreaterOrEqual(t, b.Calls().List, 4)
}

func TestReconcileNothingStale(t *testing.T) {
	b := storage.NewMemoryBucket()
	seed(t, b, "documents/p/a.md")

	deleted, err := Reconcile(t.Context(), b, "p", []string{"a"})
	require.NoError(t, err)
	assert.Empty(t, deleted)
	assert.Zero(t, b.Calls().DeleteObjects)
}

type failingList struct{ *storage.MemoryBucket }

func (f failingList) List(ctx context.Context, in storage.ListInput) (storage.ListPage, error) {
	if in.ContinuationToken != "" {
		return storage.ListPage{}, errors.New("throttled")
	}
	return f.MemoryBucket.List(ctx, in)
}

func TestReconcileDeletesNothingOnPartialListing(t *testing.T) {
	mb := storage.NewMemoryBucket().WithPageSize(1)
	seed(t, mb, "documents/p/a.md", "documents/p/b.md")

	_, err := Reconcile(t.Context(), failingList{mb}, "p", nil)
	require.Error(t, err)
	assert.Zero(t, mb.Calls().DeleteObjects)
	assert.Len(t, mb.Keys(), 2)
}
