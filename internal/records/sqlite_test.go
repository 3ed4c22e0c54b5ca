package records

import (
	"errors"
	"testing"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStoreCreateAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()

	rec := Record{Path: "my-ext", Owner: "user-1", State: StateDevelopment}
	if err := store.Create(ctx, rec); err != nil {
		t.Fatalf("failed to create record: %v", err)
	}
	if err := store.Create(ctx, rec); !errors.Is(err, ErrExists) {
		t.Fatalf("expected ErrExists on duplicate create, got %v", err)
	}

	got, err := store.Get(ctx, "my-ext")
	if err != nil {
		t.Fatalf("failed to get record: %v", err)
	}
	if got != rec {
		t.Errorf("got %+v, want %+v", got, rec)
	}

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteStoreUpdateSetsAndRemoves(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()

	if err := store.Create(ctx, Record{Path: "my-ext", Owner: "user-1", PriceRef: "price_1"}); err != nil {
		t.Fatalf("failed to create record: %v", err)
	}

	err := store.Update(ctx, "my-ext", []Change{
		{Field: FieldDescription, Value: "Does things"},
		{Field: FieldSrc, Value: "https://docs.example.com/my-ext/main.js"},
		{Field: FieldPrice, Remove: true},
	})
	if err != nil {
		t.Fatalf("failed to update record: %v", err)
	}

	got, err := store.Get(ctx, "my-ext")
	if err != nil {
		t.Fatalf("failed to get record: %v", err)
	}
	if got.Description != "Does things" || got.Src != "https://docs.example.com/my-ext/main.js" {
		t.Errorf("fields not updated: %+v", got)
	}
	if got.Premium() {
		t.Errorf("price reference not removed: %q", got.PriceRef)
	}
}

func TestSQLiteStoreUpdateMissingRecord(t *testing.T) {
	store := newTestStore(t)
	err := store.Update(t.Context(), "ghost", []Change{{Field: FieldDescription, Value: "x"}})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteStoreUpdateRejectsUnknownField(t *testing.T) {
	store := newTestStore(t)
	err := store.Update(t.Context(), "my-ext", []Change{{Field: "state", Value: "LIVE"}})
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestSQLiteStoreQueryByOwner(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()

	for _, r := range []Record{
		{Path: "zeta", Owner: "user-1"},
		{Path: "alpha", Owner: "user-1"},
		{Path: "other", Owner: "user-2"},
	} {
		if err := store.Create(ctx, r); err != nil {
			t.Fatalf("failed to create %s: %v", r.Path, err)
		}
	}

	got, err := store.QueryByOwner(ctx, "user-1")
	if err != nil {
		t.Fatalf("failed to query: %v", err)
	}
	if len(got) != 2 || got[0].Path != "alpha" || got[1].Path != "zeta" {
		t.Errorf("unexpected records %+v", got)
	}

	if err := store.Delete(ctx, "alpha"); err != nil {
		t.Fatalf("failed to delete: %v", err)
	}
	got, _ = store.QueryByOwner(ctx, "user-1")
	if len(got) != 1 {
		t.Errorf("expected 1 record after delete, got %d", len(got))
	}
}
