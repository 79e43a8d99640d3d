package cache

import "time"

// snapEntry captures the full state of one entry at snapshot time,
// including absence, so rollback can restore exactly what existed.
type snapEntry struct {
	key       Key
	existed   bool
	value     any
	hasValue  bool
	fetchedAt time.Time
	stale     bool
}

// Snapshot is the rollback handle for one optimistic mutation. It captures
// the listed entries at creation; Apply mutates them in place and Rollback
// restores the captured state regardless of what happened in between.
type Snapshot struct {
	c        *Cache
	captured map[string]snapEntry
	keys     []Key
}

// BeginOptimistic snapshots the given keys for a pending mutation.
func (c *Cache) BeginOptimistic(keys ...Key) *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := &Snapshot{c: c, captured: make(map[string]snapEntry, len(keys)), keys: keys}
	for _, key := range keys {
		ks := key.String()
		if _, dup := s.captured[ks]; dup {
			continue
		}
		if e, ok := c.entries.Peek(ks); ok {
			s.captured[ks] = snapEntry{
				key:       key,
				existed:   true,
				value:     e.value,
				hasValue:  e.hasValue,
				fetchedAt: e.fetchedAt,
				stale:     e.stale,
			}
		} else {
			s.captured[ks] = snapEntry{key: key}
		}
	}
	return s
}

// Apply runs the updater against the entry's current value and stores the
// result. Updaters receive the stored value (nil when absent) and must
// return a new value, never mutate the old one in place.
func (s *Snapshot) Apply(key Key, update func(old any) any) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()

	ks := key.String()
	e, ok := s.c.entries.Get(ks)
	if !ok {
		e = &entry{key: key}
		s.c.entries.Add(ks, e)
	}
	var old any
	if e.hasValue {
		old = e.value
	}
	e.value = update(old)
	e.hasValue = true
}

// Rollback restores every captured entry to its pre-mutation state. Entries
// that did not exist at snapshot time are removed, so a rolled-back update
// cannot resurrect a concurrently deleted record.
func (s *Snapshot) Rollback() {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()

	for ks, snap := range s.captured {
		if !snap.existed {
			s.c.entries.Remove(ks)
			continue
		}
		e, ok := s.c.entries.Get(ks)
		if !ok {
			e = &entry{key: snap.key}
			s.c.entries.Add(ks, e)
		}
		e.value = snap.value
		e.hasValue = snap.hasValue
		e.fetchedAt = snap.fetchedAt
		e.stale = snap.stale
		e.inflight = nil
	}
}

// Keys returns the snapshotted keys in the order they were captured.
func (s *Snapshot) Keys() []Key {
	out := make([]Key, len(s.keys))
	copy(out, s.keys)
	return out
}
