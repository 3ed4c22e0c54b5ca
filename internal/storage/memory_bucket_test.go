package storage

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
)

func put(t *testing.T, b Bucket, keys ...string) {
	t.Helper()
	for _, k := range keys {
		if _, err := b.Put(context.Background(), k, strings.NewReader("body of "+k), ContentTypeMarkdown); err != nil {
			t.Fatalf("Put %s failed: %v", k, err)
		}
	}
}

func TestMemoryBucketPutAndGet(t *testing.T) {
	b := NewMemoryBucket()
	ctx := context.Background()

	res, err := b.Put(ctx, "documents/my-ext.md", strings.NewReader("# hi"), ContentTypeMarkdown)
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if res.ETag == "" {
		t.Fatal("Put returned empty ETag")
	}

	obj, err := b.Get(ctx, "documents/my-ext.md")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(obj.Data) != "# hi" {
		t.Errorf("Got data %q, want %q", obj.Data, "# hi")
	}
	if obj.ContentType != ContentTypeMarkdown {
		t.Errorf("Got content type %q", obj.ContentType)
	}

	_, err = b.Get(ctx, "documents/missing.md")
	if !IsNotFound(err) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryBucketListDelimiter(t *testing.T) {
	b := NewMemoryBucket()
	put(t, b,
		"documents/my-ext.md",
		"documents/my-ext/faq.md",
		"documents/my-ext/setup.md",
		"documents/my-ext/old/nested.md",
		"documents/my-ext-two/faq.md",
	)

	page, err := b.List(context.Background(), ListInput{Prefix: "documents/my-ext/", Delimiter: "/"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	wantKeys := []string{"documents/my-ext/faq.md", "documents/my-ext/setup.md"}
	if !reflect.DeepEqual(page.Keys, wantKeys) {
		t.Errorf("keys = %v, want %v", page.Keys, wantKeys)
	}
	wantPrefixes := []string{"documents/my-ext/old/"}
	if !reflect.DeepEqual(page.CommonPrefixes, wantPrefixes) {
		t.Errorf("prefixes = %v, want %v", page.CommonPrefixes, wantPrefixes)
	}
}

func TestListAllExhaustsPages(t *testing.T) {
	b := NewMemoryBucket().WithPageSize(2)
	for i := 0; i < 7; i++ {
		put(t, b, fmt.Sprintf("documents/my-ext/page%d.md", i))
	}

	listing, err := ListAll(context.Background(), b, "documents/my-ext/", "/")
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(listing.Keys) != 7 {
		t.Errorf("got %d keys, want 7", len(listing.Keys))
	}
	if listing.Pages != 4 {
		t.Errorf("got %d pages, want 4", listing.Pages)
	}
}

type stuckBucket struct{ *MemoryBucket }

func (s stuckBucket) List(ctx context.Context, in ListInput) (ListPage, error) {
	return ListPage{Keys: []string{"a"}, IsTruncated: true}, nil
}

func TestListAllRejectsTruncatedPageWithoutToken(t *testing.T) {
	_, err := ListAll(context.Background(), stuckBucket{NewMemoryBucket()}, "x/", "/")
	if err == nil {
		t.Fatal("expected error for truncated page without continuation token")
	}
}

func TestMemoryBucketListInvalidToken(t *testing.T) {
	b := NewMemoryBucket()
	_, err := b.List(context.Background(), ListInput{ContinuationToken: "bogus"})
	var it ErrInvalidToken
	if !errors.As(err, &it) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestDeleteAllBatches(t *testing.T) {
	b := NewMemoryBucket()
	keys := make([]string, 0, DeleteBatchSize+5)
	for i := 0; i < DeleteBatchSize+5; i++ {
		keys = append(keys, fmt.Sprintf("k/%04d", i))
	}
	put(t, b, keys[:10]...)

	res, err := DeleteAll(context.Background(), b, keys)
	if err != nil {
		t.Fatalf("DeleteAll failed: %v", err)
	}
	if len(res.Deleted) != 10 {
		t.Errorf("deleted %d, want 10", len(res.Deleted))
	}
	if calls := b.Calls().DeleteObjects; calls != 2 {
		t.Errorf("DeleteObjects called %d times, want 2", calls)
	}
	if b.Size() != 0 {
		t.Errorf("bucket still holds %d objects", b.Size())
	}
}

func TestMemoryBucketFailPut(t *testing.T) {
	b := NewMemoryBucket()
	boom := errors.New("boom")
	b.FailPut("thumbnails/my-ext.png", boom)

	_, err := b.Put(context.Background(), "thumbnails/my-ext.png", strings.NewReader(""), ContentTypePNG)
	if !errors.Is(err, boom) {
		t.Fatalf("expected injected error, got %v", err)
	}
}
