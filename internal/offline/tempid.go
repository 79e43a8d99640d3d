package offline

import "sync/atomic"

// TempIDs hands out negative placeholder IDs for records created while
// offline. The sequence is persisted in the state file so restored pending
// creates never collide with new ones.
type TempIDs struct {
	next atomic.Int64
}

// NewTempIDs creates an allocator. next must be negative; zero or positive
// starts the sequence at -1.
func NewTempIDs(next int) *TempIDs {
	t := &TempIDs{}
	if next >= 0 {
		next = -1
	}
	t.next.Store(int64(next))
	return t
}

// Next returns the current placeholder ID and advances the sequence.
func (t *TempIDs) Next() int {
	return int(t.next.Add(-1) + 1)
}

// Peek returns the ID the next call to Next will hand out, for persistence.
func (t *TempIDs) Peek() int {
	return int(t.next.Load())
}

// IsTemp reports whether id is a placeholder the server has never seen.
func IsTemp(id int) bool { return id < 0 }
