package identity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	derrors "git.home.luguber.info/inful/docpublish/internal/foundation/errors"
	"git.home.luguber.info/inful/docpublish/internal/records"
)

func TestStaticResolver(t *testing.T) {
	r := NewStaticResolver(map[string]Identity{
		"tok-1": {ID: "user-1", PayoutAccount: "acct_1"},
		"  ":    {ID: "blank"},
		"tok-2": {},
	})
	if r.Len() != 1 {
		t.Fatalf("expected 1 usable token, got %d", r.Len())
	}

	id, err := r.Resolve(t.Context(), " tok-1 ")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if id.ID != "user-1" || !id.CanMonetize() {
		t.Fatalf("unexpected identity %+v", id)
	}

	for _, tok := range []string{"", "tok-2", "nope"} {
		_, err := r.Resolve(t.Context(), tok)
		if !derrors.HasCategory(err, derrors.CategoryAuth) {
			t.Fatalf("token %q: expected auth error, got %v", tok, err)
		}
	}
}

func TestStaticResolverReplace(t *testing.T) {
	r := NewStaticResolver(map[string]Identity{"tok-old": {ID: "user-1"}})
	r.Replace(map[string]Identity{"tok-new": {ID: "user-2"}, "": {ID: "blank"}})

	if r.Len() != 1 {
		t.Fatalf("expected 1 token after replace, got %d", r.Len())
	}
	if id, err := r.Resolve(t.Context(), "tok-new"); err != nil || id.ID != "user-2" {
		t.Fatalf("new token: %+v, %v", id, err)
	}
	if _, err := r.Resolve(t.Context(), "tok-old"); !derrors.HasCategory(err, derrors.CategoryAuth) {
		t.Fatalf("old token should be revoked, got %v", err)
	}
}

func TestStaticResolverReplaceConcurrent(t *testing.T) {
	r := NewStaticResolver(map[string]Identity{"tok": {ID: "user-1"}})
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				if i%2 == 0 {
					r.Replace(map[string]Identity{"tok": {ID: "user-1"}})
					continue
				}
				if _, err := r.Resolve(context.Background(), "tok"); err != nil {
					t.Errorf("resolve during replace: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()
}

type countingLister struct {
	mu     sync.Mutex
	owned  map[string][]records.Record
	calls  int
	failAt error
}

func (l *countingLister) QueryByOwner(_ context.Context, owner string) ([]records.Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if l.failAt != nil {
		return nil, l.failAt
	}
	return append([]records.Record(nil), l.owned[owner]...), nil
}

func (l *countingLister) add(owner, path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.owned[owner] = append(l.owned[owner], records.Record{Path: path, Owner: owner})
}

func TestPathsCacheReadThrough(t *testing.T) {
	l := &countingLister{owned: map[string][]records.Record{}}
	l.add("u1", "my-ext")
	c := NewPathsCache(l, 0)

	ok, err := c.Owns(t.Context(), "u1", "my-ext")
	if err != nil || !ok {
		t.Fatalf("expected ownership, got %v %v", ok, err)
	}
	if _, err := c.Paths(t.Context(), "u1"); err != nil {
		t.Fatal(err)
	}
	if l.calls != 1 {
		t.Fatalf("expected one store query, got %d", l.calls)
	}
}

func TestPathsCacheRefreshesOnMiss(t *testing.T) {
	l := &countingLister{owned: map[string][]records.Record{}}
	l.add("u1", "a")
	c := NewPathsCache(l, 0)

	if ok, _ := c.Owns(t.Context(), "u1", "a"); !ok {
		t.Fatal("expected a to be owned")
	}
	l.add("u1", "b")
	ok, err := c.Owns(t.Context(), "u1", "b")
	if err != nil || !ok {
		t.Fatalf("expected newly created path to be owned, got %v %v", ok, err)
	}
	if ok, _ := c.Owns(t.Context(), "u1", "other"); ok {
		t.Fatal("other must not be owned")
	}
}

func TestPathsCacheTTLAndInvalidate(t *testing.T) {
	l := &countingLister{owned: map[string][]records.Record{}}
	l.add("u1", "a")
	c := NewPathsCache(l, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_, _ = c.Paths(t.Context(), "u1")
	_, _ = c.Paths(t.Context(), "u1")
	if l.calls != 1 {
		t.Fatalf("expected cached read, got %d queries", l.calls)
	}

	now = now.Add(2 * time.Minute)
	_, _ = c.Paths(t.Context(), "u1")
	if l.calls != 2 {
		t.Fatalf("expected expired entry to reload, got %d queries", l.calls)
	}

	c.Invalidate("u1")
	if len(c.Owners()) != 0 {
		t.Fatalf("expected no cached owners, got %v", c.Owners())
	}
}

func TestPathsCacheRefreshKeepsEntryOnFailure(t *testing.T) {
	l := &countingLister{owned: map[string][]records.Record{}}
	l.add("u1", "a")
	c := NewPathsCache(l, 0)
	_, _ = c.Paths(t.Context(), "u1")

	l.failAt = errors.New("store down")
	c.Refresh(t.Context())

	recs, err := c.Paths(t.Context(), "u1")
	if err != nil || len(recs) != 1 {
		t.Fatalf("expected previous entry to survive, got %v %v", recs, err)
	}
}

func TestPathsCacheStartStop(t *testing.T) {
	l := &countingLister{owned: map[string][]records.Record{}}
	c := NewPathsCache(l, 0)
	if err := c.StartRefresh(t.Context(), time.Hour); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := c.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := c.Stop(); err != nil {
		t.Fatalf("second stop: %v", err)
	}
}
