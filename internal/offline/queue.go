// Package offline holds the write path for disconnected sessions: a bounded
// FIFO queue of pending mutations and the state file that persists it (plus
// the last known data snapshots) across runs.
package offline

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"taskdeck/pkg/log"
)

// OpKind names the mutation a queued operation replays.
type OpKind string

const (
	OpCreateTask   OpKind = "create_task"
	OpUpdateTask   OpKind = "update_task"
	OpDeleteTask   OpKind = "delete_task"
	OpCompleteTask OpKind = "complete_task"
)

// Op is one queued mutation. Payload is the request body the replay needs,
// kept as raw JSON so the queue stays ignorant of domain types. The ID
// doubles as the idempotency key when the op is replayed.
type Op struct {
	ID         string          `json:"id"`
	Kind       OpKind          `json:"kind"`
	TaskID     int             `json:"task_id,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
	Retries    int             `json:"retries"`
}

const (
	defaultMaxOps     = 256
	defaultMaxRetries = 3
	defaultDrainRate  = rate.Limit(5) // replays per second
)

// ErrQueueFull is returned by Enqueue when the queue is at capacity. The new
// operation is rejected; queued work is never silently discarded to make room.
var ErrQueueFull = errors.New("offline: pending operation queue is full")

// ApplyFunc replays one operation against the backend.
type ApplyFunc func(ctx context.Context, op Op) error

// QueueConfig configures a Queue. Zero fields fall back to defaults.
type QueueConfig struct {
	MaxOps     int
	MaxRetries int
	DrainRate  rate.Limit

	// Retryable classifies a replay error. Non-retryable errors drop the op
	// immediately; retryable ones count against MaxRetries. Nil means all
	// errors are retryable.
	Retryable func(error) bool

	// OnDrop is called when an op is abandoned, either because it exhausted
	// its retries or because the error was not retryable.
	OnDrop func(op Op, err error)
}

// Queue is a goroutine-safe bounded FIFO of pending operations.
type Queue struct {
	mu         sync.Mutex
	ops        []Op
	draining   bool
	maxOps     int
	maxRetries int
	limiter    *rate.Limiter
	retryable  func(error) bool
	onDrop     func(Op, error)
	l          log.Logger
}

// NewQueue creates an empty queue.
func NewQueue(l log.Logger, cfg QueueConfig) *Queue {
	if cfg.MaxOps <= 0 {
		cfg.MaxOps = defaultMaxOps
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.DrainRate <= 0 {
		cfg.DrainRate = defaultDrainRate
	}
	if cfg.Retryable == nil {
		cfg.Retryable = func(error) bool { return true }
	}
	return &Queue{
		maxOps:     cfg.MaxOps,
		maxRetries: cfg.MaxRetries,
		limiter:    rate.NewLimiter(cfg.DrainRate, 1),
		retryable:  cfg.Retryable,
		onDrop:     cfg.OnDrop,
		l:          l,
	}
}

// Enqueue appends a new operation and returns its ID.
func (q *Queue) Enqueue(ctx context.Context, kind OpKind, taskID int, payload json.RawMessage) (Op, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.ops) >= q.maxOps {
		q.l.Warnf(ctx, "offline.Queue.Enqueue: rejecting %s, queue at capacity %d", kind, q.maxOps)
		return Op{}, ErrQueueFull
	}

	op := Op{
		ID:         uuid.NewString(),
		Kind:       kind,
		TaskID:     taskID,
		Payload:    payload,
		EnqueuedAt: time.Now().UTC(),
	}
	q.ops = append(q.ops, op)
	q.l.Debugf(ctx, "offline.Queue.Enqueue: queued %s op %s (depth %d)", kind, op.ID, len(q.ops))
	return op, nil
}

// Len reports the number of pending operations.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ops)
}

// Ops returns a copy of the pending operations in FIFO order.
func (q *Queue) Ops() []Op {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Op, len(q.ops))
	copy(out, q.ops)
	return out
}

// Restore replaces the queue contents, used when loading persisted state.
// Ops beyond capacity are dropped from the tail.
func (q *Queue) Restore(ops []Op) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(ops) > q.maxOps {
		ops = ops[:q.maxOps]
	}
	q.ops = make([]Op, len(ops))
	copy(q.ops, ops)
}

// RemoveForTask drops every pending op touching the given task. Used when a
// queued create is superseded by a delete before ever reaching the server.
func (q *Queue) RemoveForTask(taskID int) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	kept := q.ops[:0]
	removed := 0
	for _, op := range q.ops {
		if op.TaskID == taskID {
			removed++
			continue
		}
		kept = append(kept, op)
	}
	q.ops = kept
	return removed
}

// Drain replays pending operations strictly in FIFO order. A retryable
// failure halts the cycle with the op left at the head so later operations
// never jump ahead of one they may depend on; an op that exhausts its
// retries (or fails non-retryably) is dropped via OnDrop and the drain
// continues. Concurrent Drain calls coalesce: the extra callers return
// immediately. Returns the number of ops replayed.
func (q *Queue) Drain(ctx context.Context, apply ApplyFunc) (int, error) {
	q.mu.Lock()
	if q.draining {
		q.mu.Unlock()
		return 0, nil
	}
	q.draining = true
	q.mu.Unlock()

	defer func() {
		q.mu.Lock()
		q.draining = false
		q.mu.Unlock()
	}()

	applied := 0
	for {
		q.mu.Lock()
		if len(q.ops) == 0 {
			q.mu.Unlock()
			return applied, nil
		}
		op := q.ops[0]
		q.mu.Unlock()

		if err := q.limiter.Wait(ctx); err != nil {
			return applied, err
		}

		err := apply(ctx, op)
		if err == nil {
			q.dequeue(op.ID)
			applied++
			continue
		}
		if ctx.Err() != nil {
			// Cancelled mid-replay; leave the queue intact for the next drain.
			return applied, ctx.Err()
		}

		if !q.retryable(err) {
			q.l.Warnf(ctx, "offline.Queue.Drain: dropping %s op %s, not retryable: %v", op.Kind, op.ID, err)
			q.drop(op.ID, err)
			continue
		}

		retries := q.bumpRetries(op.ID)
		if retries >= q.maxRetries {
			q.l.Warnf(ctx, "offline.Queue.Drain: dropping %s op %s after %d attempts: %v", op.Kind, op.ID, retries, err)
			q.drop(op.ID, err)
			continue
		}

		q.l.Warnf(ctx, "offline.Queue.Drain: %s op %s failed (attempt %d/%d), halting drain: %v",
			op.Kind, op.ID, retries, q.maxRetries, err)
		return applied, err
	}
}

func (q *Queue) dequeue(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.ops) > 0 && q.ops[0].ID == id {
		q.ops = q.ops[1:]
	}
}

func (q *Queue) bumpRetries(id string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.ops) > 0 && q.ops[0].ID == id {
		q.ops[0].Retries++
		return q.ops[0].Retries
	}
	return 0
}

func (q *Queue) drop(id string, err error) {
	q.mu.Lock()
	var dropped Op
	found := false
	if len(q.ops) > 0 && q.ops[0].ID == id {
		dropped = q.ops[0]
		q.ops = q.ops[1:]
		found = true
	}
	onDrop := q.onDrop
	q.mu.Unlock()

	if found && onDrop != nil {
		onDrop(dropped, err)
	}
}
