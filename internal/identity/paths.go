package identity

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/docpublish/internal/logfields"
	"git.home.luguber.info/inful/docpublish/internal/records"
)

// OwnerLister is the slice of records.Store the cache reads through.
type OwnerLister interface {
	QueryByOwner(ctx context.Context, owner string) ([]records.Record, error)
}

type pathsEntry struct {
	records []records.Record
	loaded  time.Time
}

// PathsCache is a read-through cache of the paths each owner holds. A miss
// on Owns always consults the store before refusing, so a freshly created
// path is never rejected because of a stale entry.
type PathsCache struct {
	store OwnerLister
	ttl   time.Duration
	now   func() time.Time

	mu      sync.RWMutex
	entries map[string]pathsEntry

	scheduler gocron.Scheduler
}

// NewPathsCache returns a cache over store. Entries older than ttl are
// reloaded on access; a zero ttl keeps entries until invalidated.
func NewPathsCache(store OwnerLister, ttl time.Duration) *PathsCache {
	return &PathsCache{
		store:   store,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]pathsEntry),
	}
}

// Paths returns the records owned by owner, ordered by path.
func (c *PathsCache) Paths(ctx context.Context, owner string) ([]records.Record, error) {
	if recs, ok := c.cached(owner); ok {
		return recs, nil
	}
	return c.load(ctx, owner)
}

// Owns reports whether owner holds path.
func (c *PathsCache) Owns(ctx context.Context, owner, path string) (bool, error) {
	if recs, ok := c.cached(owner); ok && containsPath(recs, path) {
		return true, nil
	}
	recs, err := c.load(ctx, owner)
	if err != nil {
		return false, err
	}
	return containsPath(recs, path), nil
}

// Invalidate drops the entry for owner.
func (c *PathsCache) Invalidate(owner string) {
	c.mu.Lock()
	delete(c.entries, owner)
	c.mu.Unlock()
}

// Owners returns the owners currently cached.
func (c *PathsCache) Owners() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	owners := make([]string, 0, len(c.entries))
	for o := range c.entries {
		owners = append(owners, o)
	}
	slices.Sort(owners)
	return owners
}

// Refresh reloads every cached owner. Failures keep the previous entry.
func (c *PathsCache) Refresh(ctx context.Context) {
	for _, owner := range c.Owners() {
		if _, err := c.load(ctx, owner); err != nil {
			slog.Warn("Paths cache refresh failed", logfields.Owner(owner), logfields.Error(err))
		}
	}
}

// StartRefresh schedules Refresh every interval until Stop is called.
func (c *PathsCache) StartRefresh(ctx context.Context, interval time.Duration) error {
	s, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(c.Refresh),
		gocron.WithContext(ctx),
		gocron.WithName("paths-cache-refresh"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return fmt.Errorf("failed to create paths cache refresh job: %w", err)
	}
	slog.Info("Starting paths cache refresh", slog.Duration("interval", interval))
	s.Start()

	c.mu.Lock()
	c.scheduler = s
	c.mu.Unlock()
	return nil
}

// Stop shuts the refresh scheduler down, if one was started.
func (c *PathsCache) Stop() error {
	c.mu.Lock()
	s := c.scheduler
	c.scheduler = nil
	c.mu.Unlock()
	if s == nil {
		return nil
	}
	return s.Shutdown()
}

func (c *PathsCache) cached(owner string) ([]records.Record, bool) {
	c.mu.RLock()
	e, ok := c.entries[owner]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.ttl > 0 && c.now().Sub(e.loaded) > c.ttl {
		return nil, false
	}
	return slices.Clone(e.records), true
}

func (c *PathsCache) load(ctx context.Context, owner string) ([]records.Record, error) {
	recs, err := c.store.QueryByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("query paths of %s: %w", owner, err)
	}
	c.mu.Lock()
	c.entries[owner] = pathsEntry{records: slices.Clone(recs), loaded: c.now()}
	c.mu.Unlock()
	return recs, nil
}

func containsPath(recs []records.Record, path string) bool {
	return slices.ContainsFunc(recs, func(r records.Record) bool { return r.Path == path })
}
