// Package cache is the client's single source of truth for data fetched
// from the backend: a request-keyed store with per-kind staleness windows,
// deduplicated in-flight fetches, prefix invalidation, and optimistic
// snapshot/rollback support.
//
// Values stored in the cache are treated as immutable: optimistic updaters
// and fetchers must return fresh values rather than mutating in place, so a
// rollback can restore the exact pre-mutation state by reference.
package cache

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"taskdeck/pkg/log"
)

const defaultMaxEntries = 128

// Default staleness windows per resource kind.
const (
	DefaultTaskListTTL = 5 * time.Minute
	DefaultTaskTTL     = 5 * time.Minute
	DefaultChatTTL     = 2 * time.Minute
	DefaultAnalysisTTL = 2 * time.Minute
)

// Config configures a Cache.
type Config struct {
	MaxEntries int
	TTL        map[Kind]time.Duration
}

// Fetcher loads the authoritative value for a key from the backend.
type Fetcher func(ctx context.Context) (any, error)

// call is one in-flight fetch, shared by every concurrent Get for the key.
type call struct {
	done chan struct{}
	val  any
	err  error
}

type entry struct {
	key       Key
	value     any
	hasValue  bool
	fetchedAt time.Time
	stale     bool
	inflight  *call
}

// Cache is goroutine-safe. The mutex is never held across a network fetch.
type Cache struct {
	mu      sync.Mutex
	entries *lru.Cache[string, *entry]
	ttl     map[Kind]time.Duration
	l       log.Logger

	// now is swapped out by tests to control staleness.
	now func() time.Time
}

// New creates a Cache. Zero config fields fall back to defaults.
func New(l log.Logger, cfg Config) *Cache {
	maxEntries := cfg.MaxEntries
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}

	ttl := map[Kind]time.Duration{
		KindTaskList:     DefaultTaskListTTL,
		KindTaskDetail:   DefaultTaskTTL,
		KindChatMessages: DefaultChatTTL,
		KindAnalysis:     DefaultAnalysisTTL,
	}
	for kind, d := range cfg.TTL {
		if d > 0 {
			ttl[kind] = d
		}
	}

	entries, _ := lru.New[string, *entry](maxEntries)
	return &Cache{
		entries: entries,
		ttl:     ttl,
		l:       l,
		now:     time.Now,
	}
}

// fresh reports whether e can be served without a refetch.
func (c *Cache) fresh(e *entry) bool {
	if !e.hasValue || e.stale {
		return false
	}
	ttl, ok := c.ttl[e.key.Kind]
	if !ok {
		return false
	}
	return c.now().Sub(e.fetchedAt) < ttl
}

// Get returns the cached value for key, fetching when absent or expired.
// Concurrent Gets for the same key share a single fetch. When the fetch
// fails but a stale value is present, that value is returned together with
// the error so the caller can keep the UI populated while surfacing the
// failure.
func (c *Cache) Get(ctx context.Context, key Key, fetch Fetcher) (any, error) {
	ks := key.String()

	c.mu.Lock()
	e, ok := c.entries.Get(ks)
	if !ok {
		e = &entry{key: key}
		c.entries.Add(ks, e)
	}

	if c.fresh(e) {
		val := e.value
		c.mu.Unlock()
		return val, nil
	}

	// Join an in-flight fetch instead of issuing a duplicate request.
	if e.inflight != nil {
		inflight := e.inflight
		staleVal, hadStale := e.value, e.hasValue
		c.mu.Unlock()

		select {
		case <-inflight.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if inflight.err != nil && hadStale {
			return staleVal, inflight.err
		}
		return inflight.val, inflight.err
	}

	inflight := &call{done: make(chan struct{})}
	e.inflight = inflight
	staleVal, hadStale := e.value, e.hasValue
	c.mu.Unlock()

	val, err := fetch(ctx)

	c.mu.Lock()
	inflight.val, inflight.err = val, err
	close(inflight.done)
	// The entry may have been evicted by the LRU while fetching; re-resolve.
	if cur, ok := c.entries.Get(ks); ok && cur.inflight == inflight {
		cur.inflight = nil
		if err == nil {
			cur.value = val
			cur.hasValue = true
			cur.fetchedAt = c.now()
			cur.stale = false
		}
		// A failed fetch never evicts present data.
	}
	c.mu.Unlock()

	if err != nil && hadStale {
		return staleVal, err
	}
	return val, err
}

// Peek returns the cached value without fetching, stale or not.
func (c *Cache) Peek(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries.Get(key.String()); ok && e.hasValue {
		return e.value, true
	}
	return nil, false
}

// Put overwrites the entry with an authoritative value.
func (c *Cache) Put(key Key, val any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ks := key.String()
	e, ok := c.entries.Get(ks)
	if !ok {
		e = &entry{key: key}
		c.entries.Add(ks, e)
	}
	e.value = val
	e.hasValue = true
	e.fetchedAt = c.now()
	e.stale = false
}

// Remove drops the entry entirely.
func (c *Cache) Remove(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Remove(key.String())
}

// Invalidate marks the entry stale so the next Get refetches. The cached
// value stays servable via Peek and as fallback on fetch failure.
func (c *Cache) Invalidate(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries.Get(key.String()); ok {
		e.stale = true
	}
}

// InvalidateKind marks every entry of the kind stale.
func (c *Cache) InvalidateKind(kind Kind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ks := range c.entries.Keys() {
		if e, ok := c.entries.Peek(ks); ok && e.key.Kind == kind {
			e.stale = true
		}
	}
}

// KeysOf lists the keys currently cached for a kind, oldest first.
func (c *Cache) KeysOf(kind Kind) []Key {
	c.mu.Lock()
	defer c.mu.Unlock()
	var keys []Key
	for _, ks := range c.entries.Keys() {
		if e, ok := c.entries.Peek(ks); ok && e.key.Kind == kind {
			keys = append(keys, e.key)
		}
	}
	return keys
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}
