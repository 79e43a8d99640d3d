package main

import (
	"context"
	"time"

	"taskdeck/config"
	"taskdeck/internal/cache"
	"taskdeck/internal/chat"
	chatRest "taskdeck/internal/chat/repository/rest"
	chatUC "taskdeck/internal/chat/usecase"
	"taskdeck/internal/connectivity"
	"taskdeck/internal/model"
	"taskdeck/internal/offline"
	"taskdeck/internal/syncer"
	"taskdeck/internal/task"
	taskRest "taskdeck/internal/task/repository/rest"
	taskUC "taskdeck/internal/task/usecase"
	"taskdeck/pkg/log"
	"taskdeck/pkg/todoapi"
)

// session wires one CLI invocation: config, logger, API client, cache, queue,
// connectivity, and the use cases. State is loaded at start and saved at exit
// so pending offline work survives between runs.
type session struct {
	cfg     *config.Config
	l       log.Logger
	cache   *cache.Cache
	queue   *offline.Queue
	monitor *connectivity.Monitor
	syncer  *syncer.Syncer
	tasks   task.UseCase
	chat    chat.UseCase

	tempIDs   *offline.TempIDs
	statePath string
}

func newSession(ctx context.Context, cfg *config.Config, l log.Logger, forceOffline bool) (*session, error) {
	statePath := cfg.Offline.StatePath
	if statePath == "" {
		statePath = offline.DefaultStatePath()
	}

	st, err := offline.LoadState(statePath)
	if err != nil {
		// A corrupt state file should not brick the CLI; start clean and say so.
		l.Warnf(ctx, "session: discarding unreadable state: %v", err)
		st = offline.State{}
	}

	client := todoapi.NewClient(cfg.API.BaseURL)

	c := cache.New(l, cache.Config{
		MaxEntries: cfg.Cache.MaxEntries,
		TTL: map[cache.Kind]time.Duration{
			cache.KindTaskList:     cfg.Cache.TaskListTTL,
			cache.KindTaskDetail:   cfg.Cache.TaskTTL,
			cache.KindChatMessages: cfg.Cache.ChatTTL,
		},
	})

	monitor := connectivity.NewMonitor(l, connectivity.ProbeFunc(client.Health), connectivity.Config{
		PollInterval: cfg.Sync.PollInterval,
	})

	s := &session{
		cfg:       cfg,
		l:         l,
		cache:     c,
		monitor:   monitor,
		tempIDs:   offline.NewTempIDs(st.NextTempID),
		statePath: statePath,
	}

	taskRepo := taskRest.New(l, client)

	queue := offline.NewQueue(l, offline.QueueConfig{
		MaxOps:     cfg.Offline.MaxOps,
		MaxRetries: cfg.Offline.MaxRetries,
		Retryable:  syncer.Retryable,
		// Drops only ever happen during a drain, by which point the syncer
		// below is wired in.
		OnDrop: func(op offline.Op, err error) { s.syncer.OnDrop(op, err) },
	})
	queue.Restore(st.PendingOps)

	s.queue = queue
	s.syncer = syncer.New(l, c, queue, monitor, taskRepo, syncer.Config{
		ResyncInterval: cfg.Sync.ResyncInterval,
		Warm:           s.warm,
	})
	s.syncer.RestoreIDs(st.IDMap)
	s.tasks = taskUC.New(l, taskRepo, c, queue, monitor, s.tempIDs)
	s.chat = chatUC.New(l, chatRest.New(l, client), c, monitor, s.tasks)

	s.primeCache(st)
	if forceOffline {
		monitor.SetOnline(false)
	} else {
		monitor.CheckNow(ctx)
	}
	return s, nil
}

// primeCache seeds the cache with the previous session's snapshots, marked
// stale so an online session refetches while an offline one still has data.
func (s *session) primeCache(st offline.State) {
	if len(st.Tasks) > 0 {
		key := task.ListCacheKey(task.ListInput{})
		s.cache.Put(key, task.ListOutput{
			Tasks: st.Tasks,
			Total: len(st.Tasks),
			Page:  1,
			Size:  20,
			Pages: (len(st.Tasks) + 19) / 20,
		})
		s.cache.Invalidate(key)
		for _, t := range st.Tasks {
			dk := task.DetailCacheKey(t.ID)
			s.cache.Put(dk, t)
			s.cache.Invalidate(dk)
		}
	}
	if len(st.Messages) > 0 {
		key := chat.MessagesCacheKey(model.Page{})
		s.cache.Put(key, chat.MessagesOutput{
			Messages: st.Messages,
			Total:    len(st.Messages),
			Page:     1,
			Size:     20,
			Pages:    (len(st.Messages) + 19) / 20,
		})
		s.cache.Invalidate(key)
	}
}

// pendingIDMap keeps only the placeholder mappings a queued op still
// references; the rest have nothing left to replay against them.
func (s *session) pendingIDMap() map[int]int {
	mappings := s.syncer.IDMappings()
	var kept map[int]int
	for _, op := range s.queue.Ops() {
		if real, ok := mappings[op.TaskID]; ok {
			if kept == nil {
				kept = map[int]int{}
			}
			kept[op.TaskID] = real
		}
	}
	return kept
}

// warm refreshes the primary task list during a resync.
func (s *session) warm(ctx context.Context) error {
	_, err := s.tasks.List(ctx, task.ListInput{})
	return err
}

// close persists the session: pending queue, temp ID sequence, and the last
// known snapshots for offline priming next time.
func (s *session) close(ctx context.Context) {
	st := offline.State{
		PendingOps: s.queue.Ops(),
		NextTempID: s.tempIDs.Peek(),
		IDMap:      s.pendingIDMap(),
	}
	if val, ok := s.cache.Peek(task.ListCacheKey(task.ListInput{})); ok {
		if page, ok := val.(task.ListOutput); ok {
			st.Tasks = page.Tasks
		}
	}
	if val, ok := s.cache.Peek(chat.MessagesCacheKey(model.Page{})); ok {
		if page, ok := val.(chat.MessagesOutput); ok {
			st.Messages = page.Messages
		}
	}
	if err := offline.SaveState(s.statePath, st); err != nil {
		s.l.Warnf(ctx, "session: failed to save state: %v", err)
	}
}
