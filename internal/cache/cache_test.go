package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"taskdeck/pkg/log"
)

func newTestCache(t *testing.T) (*Cache, *time.Time) {
	t.Helper()
	c := New(log.NewNop(), Config{})
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	return c, &now
}

func staticFetch(val any, calls *atomic.Int32) Fetcher {
	return func(ctx context.Context) (any, error) {
		calls.Add(1)
		return val, nil
	}
}

func TestGetCachesWithinStalenessWindow(t *testing.T) {
	c, now := newTestCache(t)
	key := NewKey(KindTaskList, map[string]string{"status": "PENDING"})

	var calls atomic.Int32
	fetch := staticFetch([]int{1, 2, 3}, &calls)

	first, err := c.Get(context.Background(), key, fetch)
	if err != nil {
		t.Fatalf("first Get: %v", err)
	}
	second, err := c.Get(context.Background(), key, fetch)
	if err != nil {
		t.Fatalf("second Get: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected 1 fetch within window, got %d", calls.Load())
	}
	// Same reference, not a refetched copy.
	if &first.([]int)[0] != &second.([]int)[0] {
		t.Fatal("expected identical cached slice on second Get")
	}

	// Past the window a single refetch happens.
	*now = now.Add(DefaultTaskListTTL + time.Second)
	if _, err := c.Get(context.Background(), key, fetch); err != nil {
		t.Fatalf("Get after expiry: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected exactly one refetch after expiry, got %d total", calls.Load())
	}
}

func TestConcurrentGetsShareOneFetch(t *testing.T) {
	c, _ := newTestCache(t)
	key := NewKey(KindTaskDetail, map[string]string{"id": "7"})

	var calls atomic.Int32
	release := make(chan struct{})
	fetch := func(ctx context.Context) (any, error) {
		calls.Add(1)
		<-release
		return "task-7", nil
	}

	const n = 8
	var wg sync.WaitGroup
	results := make([]any, n)
	started := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			started <- struct{}{}
			v, err := c.Get(context.Background(), key, fetch)
			if err != nil {
				t.Errorf("Get %d: %v", i, err)
			}
			results[i] = v
		}(i)
	}
	for i := 0; i < n; i++ {
		<-started
	}
	// Give the goroutines a beat to reach Get before releasing the fetch.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Fatalf("expected 1 network call for %d concurrent gets, got %d", n, calls.Load())
	}
	for i, v := range results {
		if v != "task-7" {
			t.Fatalf("result %d = %v, want task-7", i, v)
		}
	}
}

func TestFailedFetchKeepsStaleValue(t *testing.T) {
	c, now := newTestCache(t)
	key := NewKey(KindTaskList, nil)

	var calls atomic.Int32
	if _, err := c.Get(context.Background(), key, staticFetch("stale-page", &calls)); err != nil {
		t.Fatalf("seed Get: %v", err)
	}

	*now = now.Add(DefaultTaskListTTL + time.Minute)
	fetchErr := errors.New("backend down")
	val, err := c.Get(context.Background(), key, func(ctx context.Context) (any, error) {
		return nil, fetchErr
	})
	if !errors.Is(err, fetchErr) {
		t.Fatalf("expected fetch error surfaced, got %v", err)
	}
	if val != "stale-page" {
		t.Fatalf("expected stale value served alongside error, got %v", val)
	}

	// Entry not poisoned: still peekable.
	if peeked, ok := c.Peek(key); !ok || peeked != "stale-page" {
		t.Fatalf("Peek after failed fetch = %v, %v", peeked, ok)
	}
}

func TestInvalidateForcesRefetch(t *testing.T) {
	c, _ := newTestCache(t)
	key := NewKey(KindChatMessages, map[string]string{"page": "1"})

	var calls atomic.Int32
	fetch := staticFetch("page-1", &calls)
	c.Get(context.Background(), key, fetch)
	c.Invalidate(key)
	c.Get(context.Background(), key, fetch)

	if calls.Load() != 2 {
		t.Fatalf("expected refetch after Invalidate, got %d calls", calls.Load())
	}
}

func TestInvalidateKindMarksAllEntries(t *testing.T) {
	c, _ := newTestCache(t)
	var calls atomic.Int32
	k1 := NewKey(KindTaskList, map[string]string{"page": "1"})
	k2 := NewKey(KindTaskList, map[string]string{"page": "2"})
	kChat := NewKey(KindChatMessages, nil)

	for _, k := range []Key{k1, k2, kChat} {
		c.Get(context.Background(), k, staticFetch("v", &calls))
	}
	c.InvalidateKind(KindTaskList)

	for _, k := range []Key{k1, k2} {
		c.Get(context.Background(), k, staticFetch("v", &calls))
	}
	c.Get(context.Background(), kChat, staticFetch("v", &calls))

	if calls.Load() != 5 {
		t.Fatalf("expected 3 seeds + 2 kind refetches, got %d calls", calls.Load())
	}
}

func TestRollbackRestoresExactSnapshot(t *testing.T) {
	c, _ := newTestCache(t)
	listKey := NewKey(KindTaskList, nil)
	detailKey := NewKey(KindTaskDetail, map[string]string{"id": "3"})

	original := []string{"a", "b", "c"}
	c.Put(listKey, original)

	snap := c.BeginOptimistic(listKey, detailKey)
	snap.Apply(listKey, func(old any) any {
		updated := append([]string{}, old.([]string)...)
		return append(updated, "d")
	})
	snap.Apply(detailKey, func(old any) any { return "optimistic-detail" })

	if v, _ := c.Peek(listKey); len(v.([]string)) != 4 {
		t.Fatal("optimistic apply did not take effect")
	}

	snap.Rollback()

	restored, ok := c.Peek(listKey)
	if !ok {
		t.Fatal("list entry missing after rollback")
	}
	rs := restored.([]string)
	if len(rs) != 3 || &rs[0] != &original[0] {
		t.Fatalf("rollback did not restore the exact snapshot value: %v", rs)
	}
	// The detail entry did not exist before the mutation; rollback must not
	// leave an optimistic ghost behind.
	if _, ok := c.Peek(detailKey); ok {
		t.Fatal("rollback resurrected an entry that did not exist at snapshot time")
	}
}

func TestNewKeyCanonicalizesParams(t *testing.T) {
	a := NewKey(KindTaskList, map[string]string{"status": "PENDING", "page": "1"})
	b := NewKey(KindTaskList, map[string]string{"page": "1", "status": "PENDING"})
	if a != b {
		t.Fatalf("param order changed the key: %q vs %q", a.String(), b.String())
	}
	empty := NewKey(KindTaskList, map[string]string{"status": ""})
	if empty != NewKey(KindTaskList, nil) {
		t.Fatal("empty param values should be dropped from the key")
	}
}

func TestLRUBoundEvictsOldEntries(t *testing.T) {
	c := New(log.NewNop(), Config{MaxEntries: 4})
	var calls atomic.Int32
	for i := 0; i < 10; i++ {
		k := NewKey(KindTaskDetail, map[string]string{"id": string(rune('a' + i))})
		c.Get(context.Background(), k, staticFetch(i, &calls))
	}
	if c.Len() != 4 {
		t.Fatalf("expected LRU to hold 4 entries, got %d", c.Len())
	}
}
