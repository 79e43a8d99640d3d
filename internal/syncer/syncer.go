// Package syncer keeps the local view converging on the server: it replays
// the offline queue when connectivity returns and resyncs cached data on a
// fixed interval while online.
package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"taskdeck/internal/cache"
	"taskdeck/internal/connectivity"
	"taskdeck/internal/offline"
	"taskdeck/internal/task"
	taskrepo "taskdeck/internal/task/repository"
	"taskdeck/pkg/log"
	"taskdeck/pkg/todoapi"
)

const (
	defaultResyncInterval = 30 * time.Second
	failuresBeforeRecheck = 3
)

// ErrOrphanedOp marks a queued mutation whose placeholder task never got a
// real ID, usually because its create was dropped. Replaying it can never
// succeed.
var ErrOrphanedOp = errors.New("operation references an unknown placeholder id")

// Retryable classifies replay errors for the offline queue.
func Retryable(err error) bool {
	if errors.Is(err, ErrOrphanedOp) {
		return false
	}
	return todoapi.IsRetryable(err)
}

// Config configures a Syncer. Zero fields fall back to defaults.
type Config struct {
	ResyncInterval time.Duration

	// Warm, when set, is called after each resync to proactively refresh the
	// primary view instead of waiting for the next read.
	Warm func(ctx context.Context) error
}

// Syncer drives queue replay and periodic resync. Start it once per session.
type Syncer struct {
	l       log.Logger
	cache   *cache.Cache
	queue   *offline.Queue
	monitor *connectivity.Monitor
	repo    taskrepo.Repository

	resyncInterval time.Duration
	warm           func(ctx context.Context) error

	idMu  sync.Mutex
	idMap map[int]int // placeholder ID -> server-assigned ID

	failMu   sync.Mutex
	failures int

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a Syncer.
func New(l log.Logger, c *cache.Cache, q *offline.Queue, m *connectivity.Monitor, repo taskrepo.Repository, cfg Config) *Syncer {
	if cfg.ResyncInterval <= 0 {
		cfg.ResyncInterval = defaultResyncInterval
	}
	return &Syncer{
		l:              l,
		cache:          c,
		queue:          q,
		monitor:        m,
		repo:           repo,
		resyncInterval: cfg.ResyncInterval,
		warm:           cfg.Warm,
		idMap:          make(map[int]int),
	}
}

// Start subscribes to connectivity flips and launches the resync loop.
func (s *Syncer) Start(ctx context.Context) {
	if s.done != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	s.monitor.OnChange(func(state connectivity.State) {
		if state != connectivity.Online {
			return
		}
		// Subscribers must not block; replay in the background.
		go func() {
			if _, err := s.DrainNow(ctx); err != nil {
				s.l.Warnf(ctx, "syncer: drain after reconnect failed: %v", err)
			}
			s.resync(ctx)
		}()
	})

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.resyncInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if s.monitor.Online() {
					s.resync(ctx)
				}
			}
		}
	}()
}

// Stop halts the resync loop.
func (s *Syncer) Stop() {
	if s.cancel != nil {
		s.cancel()
		<-s.done
		s.cancel, s.done = nil, nil
	}
}

// DrainNow replays the pending queue immediately.
func (s *Syncer) DrainNow(ctx context.Context) (int, error) {
	applied, err := s.queue.Drain(ctx, s.applyOp)
	if applied > 0 {
		s.cache.InvalidateKind(cache.KindTaskList)
		s.cache.Invalidate(task.AnalysisCacheKey())
	}
	return applied, err
}

// RealID resolves a placeholder ID to its server-assigned one, when the
// create has replayed.
func (s *Syncer) RealID(tempID int) (int, bool) {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	id, ok := s.idMap[tempID]
	return id, ok
}

// IDMappings returns a copy of the placeholder-to-server ID map. Sessions
// persist it alongside the queue: a follow-up op queued after its create
// replayed still names the placeholder, and must resolve it after a restart.
func (s *Syncer) IDMappings() map[int]int {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	out := make(map[int]int, len(s.idMap))
	for temp, real := range s.idMap {
		out[temp] = real
	}
	return out
}

// RestoreIDs seeds mappings saved by a previous session.
func (s *Syncer) RestoreIDs(m map[int]int) {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	for temp, real := range m {
		s.idMap[temp] = real
	}
}

// resync refreshes cached data: replays any stragglers, marks everything
// stale so the next reads refetch, and optionally warms the primary view.
// Failures are warnings, never state flips, but repeated ones trigger an
// out-of-band connectivity probe.
func (s *Syncer) resync(ctx context.Context) {
	var failed bool

	if _, err := s.DrainNow(ctx); err != nil {
		s.l.Warnf(ctx, "syncer: resync drain failed: %v", err)
		failed = true
	}

	s.cache.InvalidateKind(cache.KindTaskList)
	s.cache.InvalidateKind(cache.KindTaskDetail)
	s.cache.InvalidateKind(cache.KindChatMessages)
	s.cache.Invalidate(task.AnalysisCacheKey())

	if s.warm != nil {
		if err := s.warm(ctx); err != nil {
			s.l.Warnf(ctx, "syncer: resync refresh failed: %v", err)
			failed = true
		}
	}

	s.failMu.Lock()
	if failed {
		s.failures++
		if s.failures >= failuresBeforeRecheck {
			s.failures = 0
			s.failMu.Unlock()
			// The data plane keeps failing while the monitor says online;
			// make it look again.
			s.monitor.Kick()
			return
		}
	} else {
		s.failures = 0
	}
	s.failMu.Unlock()
}

// applyOp replays one queued mutation against the backend. The op's own ID
// is the idempotency key, so a halted drain can safely retry it.
func (s *Syncer) applyOp(ctx context.Context, op offline.Op) error {
	switch op.Kind {
	case offline.OpCreateTask:
		var req todoapi.CreateTaskRequest
		if err := json.Unmarshal(op.Payload, &req); err != nil {
			return fmt.Errorf("%w: bad create payload: %v", ErrOrphanedOp, err)
		}
		created, err := s.repo.Create(ctx, req, op.ID)
		if err != nil {
			return err
		}
		s.idMu.Lock()
		s.idMap[op.TaskID] = created.ID
		s.idMu.Unlock()
		// The placeholder record is superseded by the server's copy.
		s.cache.Remove(task.DetailCacheKey(op.TaskID))
		s.cache.Put(task.DetailCacheKey(created.ID), created)
		return nil

	case offline.OpUpdateTask:
		id, err := s.resolveID(op.TaskID)
		if err != nil {
			return err
		}
		var req todoapi.UpdateTaskRequest
		if err := json.Unmarshal(op.Payload, &req); err != nil {
			return fmt.Errorf("%w: bad update payload: %v", ErrOrphanedOp, err)
		}
		updated, err := s.repo.Update(ctx, id, req, op.ID)
		if err != nil {
			return err
		}
		s.cache.Put(task.DetailCacheKey(updated.ID), updated)
		return nil

	case offline.OpCompleteTask:
		id, err := s.resolveID(op.TaskID)
		if err != nil {
			return err
		}
		toggled, err := s.repo.Complete(ctx, id, op.ID)
		if err != nil {
			return err
		}
		s.cache.Put(task.DetailCacheKey(toggled.ID), toggled)
		return nil

	case offline.OpDeleteTask:
		id, err := s.resolveID(op.TaskID)
		if err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, id, op.ID); err != nil {
			// Already gone server-side; the replay's goal is met.
			if todoapi.IsNotFound(err) {
				return nil
			}
			return err
		}
		s.cache.Remove(task.DetailCacheKey(id))
		return nil

	default:
		return fmt.Errorf("%w: unknown op kind %q", ErrOrphanedOp, op.Kind)
	}
}

func (s *Syncer) resolveID(id int) (int, error) {
	if !offline.IsTemp(id) {
		return id, nil
	}
	if real, ok := s.RealID(id); ok {
		return real, nil
	}
	return 0, fmt.Errorf("%w: task %d", ErrOrphanedOp, id)
}

// OnDrop logs abandoned operations; wired into the queue so the user sees
// what was lost and why.
func (s *Syncer) OnDrop(op offline.Op, err error) {
	s.l.Errorf(context.Background(), "syncer: dropped %s for task %d after %d retries: %v",
		op.Kind, op.TaskID, op.Retries, err)
}
