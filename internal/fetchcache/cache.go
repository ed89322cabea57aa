// Package fetchcache serves repeated metadata fetches from a time-boxed cache.
package fetchcache

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/blackwell-systems/gitrate/internal/fetcher"
	"github.com/blackwell-systems/gitrate/internal/model"
	"github.com/blackwell-systems/gitrate/internal/store"
)

// DefaultTTL is how long a snapshot is served without refetching.
const DefaultTTL = 15 * time.Minute

// Cache stores complete snapshots by key.
type Cache interface {
	// Get returns nil with a nil error on a miss.
	Get(key string) (*model.Snapshot, error)
	Put(key string, snap *model.Snapshot) error
}

// Key returns the cache key for owner/name.
func Key(owner, name string) string {
	return strings.ToLower(owner + "/" + name)
}

// Result is a fetched snapshot and whether it came from the cache.
type Result struct {
	Snapshot *model.Snapshot
	Hit      bool
}

// Fetcher wraps a fetcher.Source with a Cache. Concurrent fetches of the same
// repository share one upstream call, and only complete, successful
// snapshots are stored.
type Fetcher struct {
	source fetcher.Source
	cache  Cache
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
	group  singleflight.Group
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(f *Fetcher) { f.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) { f.logger = l }
}

// New returns a caching fetcher. A nil cache or a non-positive ttl disables
// caching.
func New(source fetcher.Source, cache Cache, ttl time.Duration, opts ...Option) *Fetcher {
	f := &Fetcher{
		source: source,
		cache:  cache,
		ttl:    ttl,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch implements fetcher.Source.
func (f *Fetcher) Fetch(ctx context.Context, owner, name string) (*model.Snapshot, error) {
	res, err := f.FetchResult(ctx, owner, name)
	if err != nil {
		return nil, err
	}
	return res.Snapshot, nil
}

// FetchResult returns the snapshot for owner/name, from the cache when a
// fresh entry exists.
func (f *Fetcher) FetchResult(ctx context.Context, owner, name string) (Result, error) {
	if !f.enabled() {
		snap, err := f.source.Fetch(ctx, owner, name)
		return Result{Snapshot: snap}, err
	}

	key := Key(owner, name)
	if snap := f.lookup(key); snap != nil {
		return Result{Snapshot: snap, Hit: true}, nil
	}

	// The shared fetch is detached from any single caller's cancellation;
	// each caller still stops waiting when its own ctx is done.
	fetchCtx := context.WithoutCancel(ctx)
	led := false
	ch := f.group.DoChan(key, func() (interface{}, error) {
		led = true
		// Another caller may have filled the entry while we waited.
		if snap := f.lookup(key); snap != nil {
			return Result{Snapshot: snap, Hit: true}, nil
		}
		snap, err := f.source.Fetch(fetchCtx, owner, name)
		if err != nil {
			return Result{}, err
		}
		if err := f.cache.Put(key, snap); err != nil {
			f.logger.Warn("could not store snapshot in cache", "key", key, "error", err)
		}
		return Result{Snapshot: snap}, nil
	})

	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return Result{}, r.Err
		}
		res := r.Val.(Result)
		if r.Shared && !led {
			f.logger.Debug("fetch shared with a concurrent request", "key", key)
			res.Hit = true
		}
		return res, nil
	}
}

// Invalidate drops the entry for owner/name if the cache supports it.
func (f *Fetcher) Invalidate(owner, name string) error {
	if d, ok := f.cache.(interface{ Delete(key string) error }); ok {
		return d.Delete(Key(owner, name))
	}
	return nil
}

func (f *Fetcher) enabled() bool {
	return f.cache != nil && f.ttl > 0
}

func (f *Fetcher) lookup(key string) *model.Snapshot {
	snap, err := f.cache.Get(key)
	if err != nil {
		f.logger.Warn("cache read failed", "key", key, "error", err)
		return nil
	}
	if snap == nil {
		return nil
	}
	if f.now().Sub(snap.FetchedAt) > f.ttl {
		return nil
	}
	return snap
}

// Memory is an in-process Cache.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*model.Snapshot
}

// NewMemory returns an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]*model.Snapshot)}
}

func (m *Memory) Get(key string) (*model.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.entries[key], nil
}

func (m *Memory) Put(key string, snap *model.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = snap
	return nil
}

func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

// Len returns the number of stored entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// SQLite adapts a store.DB to Cache so snapshots survive between CLI runs.
type SQLite struct {
	DB *store.DB
}

func (s SQLite) Get(key string) (*model.Snapshot, error) { return s.DB.GetCachedSnapshot(key) }

func (s SQLite) Put(key string, snap *model.Snapshot) error { return s.DB.PutCachedSnapshot(key, snap) }

func (s SQLite) Delete(key string) error { return s.DB.DeleteCachedSnapshot(key) }
