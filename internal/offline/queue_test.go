package offline

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"taskdeck/pkg/log"
)

func newTestQueue(cfg QueueConfig) *Queue {
	if cfg.DrainRate == 0 {
		cfg.DrainRate = rate.Inf
	}
	return NewQueue(log.NewNop(), cfg)
}

func TestDrainReplaysInFIFOOrder(t *testing.T) {
	q := newTestQueue(QueueConfig{})
	ctx := context.Background()

	for _, kind := range []OpKind{OpCreateTask, OpUpdateTask, OpDeleteTask} {
		if _, err := q.Enqueue(ctx, kind, 1, nil); err != nil {
			t.Fatalf("Enqueue %s: %v", kind, err)
		}
	}

	var order []OpKind
	n, err := q.Drain(ctx, func(ctx context.Context, op Op) error {
		order = append(order, op.Kind)
		return nil
	})
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if n != 3 || q.Len() != 0 {
		t.Fatalf("Drain replayed %d ops, queue depth %d", n, q.Len())
	}
	want := []OpKind{OpCreateTask, OpUpdateTask, OpDeleteTask}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("replay order %v, want %v", order, want)
		}
	}
}

func TestDrainHaltsOnRetryableFailure(t *testing.T) {
	q := newTestQueue(QueueConfig{})
	ctx := context.Background()

	q.Enqueue(ctx, OpUpdateTask, 1, nil)
	q.Enqueue(ctx, OpUpdateTask, 2, nil)

	boom := errors.New("503")
	var touched []int
	n, err := q.Drain(ctx, func(ctx context.Context, op Op) error {
		touched = append(touched, op.TaskID)
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Drain err = %v, want %v", err, boom)
	}
	if n != 0 {
		t.Fatalf("Drain reported %d applied, want 0", n)
	}
	// Only the head op was attempted; the second never ran ahead of it.
	if len(touched) != 1 || touched[0] != 1 {
		t.Fatalf("attempted ops %v, want just the head", touched)
	}
	if q.Len() != 2 {
		t.Fatalf("queue depth %d after halted drain, want 2", q.Len())
	}
	if q.Ops()[0].Retries != 1 {
		t.Fatalf("head retries = %d, want 1", q.Ops()[0].Retries)
	}
}

func TestDrainDropsAfterRetryCeiling(t *testing.T) {
	var dropped []Op
	q := newTestQueue(QueueConfig{
		MaxRetries: 3,
		OnDrop:     func(op Op, err error) { dropped = append(dropped, op) },
	})
	ctx := context.Background()

	q.Enqueue(ctx, OpCompleteTask, 9, nil)
	q.Enqueue(ctx, OpUpdateTask, 10, nil)

	boom := errors.New("503")
	attempts := 0
	apply := func(ctx context.Context, op Op) error {
		if op.TaskID == 9 {
			attempts++
			return boom
		}
		return nil
	}

	// Each failed drain halts; the third failure hits the ceiling, drops the
	// op, and lets the rest of the queue through.
	for i := 0; i < 3; i++ {
		q.Drain(ctx, apply)
	}

	if attempts != 3 {
		t.Fatalf("head op attempted %d times, want 3", attempts)
	}
	if len(dropped) != 1 || dropped[0].TaskID != 9 {
		t.Fatalf("dropped ops %+v, want the exhausted head", dropped)
	}
	if q.Len() != 0 {
		t.Fatalf("queue depth %d after drop, want 0 (trailing op replayed)", q.Len())
	}
}

func TestDrainDropsNonRetryableImmediately(t *testing.T) {
	var dropped []Op
	q := newTestQueue(QueueConfig{
		Retryable: func(err error) bool { return false },
		OnDrop:    func(op Op, err error) { dropped = append(dropped, op) },
	})
	ctx := context.Background()

	q.Enqueue(ctx, OpCreateTask, -1, nil)
	q.Enqueue(ctx, OpCreateTask, -2, nil)

	n, err := q.Drain(ctx, func(ctx context.Context, op Op) error {
		if op.TaskID == -1 {
			return errors.New("422 validation")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if n != 1 {
		t.Fatalf("applied %d, want 1", n)
	}
	if len(dropped) != 1 || dropped[0].TaskID != -1 {
		t.Fatalf("dropped %+v, want the invalid create", dropped)
	}
}

func TestEnqueueRejectsWhenFull(t *testing.T) {
	q := newTestQueue(QueueConfig{MaxOps: 2})
	ctx := context.Background()

	q.Enqueue(ctx, OpCreateTask, -1, nil)
	q.Enqueue(ctx, OpCreateTask, -2, nil)
	_, err := q.Enqueue(ctx, OpCreateTask, -3, nil)
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("third Enqueue err = %v, want ErrQueueFull", err)
	}
	if q.Len() != 2 {
		t.Fatalf("queue depth %d, want the original 2", q.Len())
	}
}

func TestDrainCancelLeavesQueueIntact(t *testing.T) {
	q := newTestQueue(QueueConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	q.Enqueue(ctx, OpUpdateTask, 1, nil)
	q.Enqueue(ctx, OpUpdateTask, 2, nil)

	n, err := q.Drain(ctx, func(ctx context.Context, op Op) error {
		if op.TaskID == 1 {
			cancel()
			return ctx.Err()
		}
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Drain err = %v, want context.Canceled", err)
	}
	if n != 0 || q.Len() != 2 {
		t.Fatalf("applied %d, depth %d; cancellation must not consume ops", n, q.Len())
	}
}

func TestRemoveForTask(t *testing.T) {
	q := newTestQueue(QueueConfig{})
	ctx := context.Background()
	q.Enqueue(ctx, OpCreateTask, -1, nil)
	q.Enqueue(ctx, OpUpdateTask, -1, nil)
	q.Enqueue(ctx, OpUpdateTask, 7, nil)

	if removed := q.RemoveForTask(-1); removed != 2 {
		t.Fatalf("removed %d ops, want 2", removed)
	}
	ops := q.Ops()
	if len(ops) != 1 || ops[0].TaskID != 7 {
		t.Fatalf("remaining ops %+v, want only task 7", ops)
	}
}

func TestStateFileRoundTrip(t *testing.T) {
	path := t.TempDir() + "/state.json"

	payload, _ := json.Marshal(map[string]string{"title": "offline task"})
	st := State{
		PendingOps: []Op{{
			ID:         "op-1",
			Kind:       OpCreateTask,
			TaskID:     -1,
			Payload:    payload,
			EnqueuedAt: time.Now().UTC().Truncate(time.Second),
			Retries:    1,
		}},
		NextTempID: -2,
		IDMap:      map[int]int{-1: 101},
	}
	if err := SaveState(path, st); err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	loaded, err := LoadState(path)
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if loaded.Namespace != StateNamespace {
		t.Fatalf("namespace %q, want %q", loaded.Namespace, StateNamespace)
	}
	if len(loaded.PendingOps) != 1 || loaded.PendingOps[0].ID != "op-1" || loaded.PendingOps[0].Retries != 1 {
		t.Fatalf("pending ops did not survive the round trip: %+v", loaded.PendingOps)
	}
	if loaded.NextTempID != -2 {
		t.Fatalf("NextTempID = %d, want -2", loaded.NextTempID)
	}
	if loaded.IDMap[-1] != 101 {
		t.Fatalf("IDMap = %v, want -1 mapped to 101", loaded.IDMap)
	}
}

func TestLoadStateMissingFile(t *testing.T) {
	st, err := LoadState(t.TempDir() + "/absent.json")
	if err != nil {
		t.Fatalf("LoadState on missing file: %v", err)
	}
	if len(st.PendingOps) != 0 {
		t.Fatalf("expected empty state, got %+v", st)
	}
}

func TestLoadStateRejectsForeignNamespace(t *testing.T) {
	path := t.TempDir() + "/state.json"
	if err := SaveState(path, State{}); err != nil {
		t.Fatalf("SaveState: %v", err)
	}
	raw, _ := json.Marshal(State{Namespace: "something.else.v9"})
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadState(path); err == nil {
		t.Fatal("expected namespace mismatch error")
	}
}
