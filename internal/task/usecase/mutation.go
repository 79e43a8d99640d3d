package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"taskdeck/internal/cache"
	"taskdeck/internal/model"
	"taskdeck/internal/offline"
	"taskdeck/internal/task"
	"taskdeck/pkg/todoapi"
)

const (
	maxTitleLength      = 255
	mutationMaxAttempts = 3
	retryBaseDelay      = 200 * time.Millisecond
	retryMaxDelay       = 2 * time.Second
)

func (uc *implUseCase) Create(ctx context.Context, ip task.CreateInput) (model.Task, error) {
	title := strings.TrimSpace(ip.Title)
	if title == "" || len(title) > maxTitleLength {
		return model.Task{}, task.ErrInvalidInput
	}
	priority := ip.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}
	if !priority.Valid() {
		return model.Task{}, task.ErrInvalidInput
	}

	req := todoapi.CreateTaskRequest{
		Title:       title,
		Description: ip.Description,
		DueDate:     ip.DueDate,
		Priority:    priority,
		Category:    ip.Category,
		AIGenerated: ip.AIGenerated,
	}

	now := time.Now().UTC()
	optimistic := model.Task{
		ID:          uc.tempIDs.Next(),
		Title:       title,
		Description: ip.Description,
		DueDate:     ip.DueDate,
		Priority:    priority,
		Category:    ip.Category,
		Status:      model.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
		AIGenerated: ip.AIGenerated,
	}

	snap := uc.applyToLists(insertTask(optimistic))

	if !uc.monitor.Online() {
		if err := uc.enqueue(ctx, snap, offline.OpCreateTask, optimistic.ID, req); err != nil {
			return model.Task{}, err
		}
		uc.cache.Put(task.DetailCacheKey(optimistic.ID), optimistic)
		return optimistic, nil
	}

	created, err := uc.confirm(ctx, func(key string) (model.Task, error) {
		return uc.repo.Create(ctx, req, key)
	})
	if err != nil {
		snap.Rollback()
		uc.monitor.Kick()
		return model.Task{}, uc.mapMutationErr(err)
	}
	uc.cache.Put(task.DetailCacheKey(created.ID), created)
	uc.invalidateLists()
	return created, nil
}

func (uc *implUseCase) Update(ctx context.Context, ip task.UpdateInput) (model.Task, error) {
	if ip.Title != nil {
		trimmed := strings.TrimSpace(*ip.Title)
		if trimmed == "" || len(trimmed) > maxTitleLength {
			return model.Task{}, task.ErrInvalidInput
		}
		ip.Title = &trimmed
	}
	if ip.Priority != nil && !ip.Priority.Valid() {
		return model.Task{}, task.ErrInvalidInput
	}
	if ip.Status != nil && !ip.Status.Valid() {
		return model.Task{}, task.ErrInvalidInput
	}

	current, err := uc.currentTask(ctx, ip.ID)
	if err != nil {
		return model.Task{}, err
	}

	optimistic := applyUpdate(current, ip)
	detailKey := task.DetailCacheKey(ip.ID)
	snap := uc.beginListAndDetail(detailKey)
	snap.Apply(detailKey, func(any) any { return optimistic })
	uc.forEachListKey(func(k cache.Key) { snap.Apply(k, replaceTask(optimistic)) })

	req := todoapi.UpdateTaskRequest{
		Title:       ip.Title,
		Description: ip.Description,
		DueDate:     ip.DueDate,
		Priority:    ip.Priority,
		Category:    ip.Category,
		Status:      ip.Status,
	}

	if !uc.monitor.Online() || offline.IsTemp(ip.ID) {
		if err := uc.enqueue(ctx, snap, offline.OpUpdateTask, ip.ID, req); err != nil {
			return model.Task{}, err
		}
		return optimistic, nil
	}

	updated, err := uc.confirm(ctx, func(key string) (model.Task, error) {
		return uc.repo.Update(ctx, ip.ID, req, key)
	})
	if err != nil {
		snap.Rollback()
		uc.monitor.Kick()
		return model.Task{}, uc.mapMutationErr(err)
	}
	uc.cache.Put(detailKey, updated)
	uc.invalidateLists()
	return updated, nil
}

func (uc *implUseCase) ToggleComplete(ctx context.Context, id int) (model.Task, error) {
	current, err := uc.currentTask(ctx, id)
	if err != nil {
		return model.Task{}, err
	}

	optimistic := current
	if current.Status == model.StatusCompleted {
		optimistic.Status = model.StatusPending
	} else {
		optimistic.Status = model.StatusCompleted
	}
	optimistic.UpdatedAt = time.Now().UTC()

	detailKey := task.DetailCacheKey(id)
	snap := uc.beginListAndDetail(detailKey)
	snap.Apply(detailKey, func(any) any { return optimistic })
	uc.forEachListKey(func(k cache.Key) { snap.Apply(k, replaceTask(optimistic)) })

	if !uc.monitor.Online() || offline.IsTemp(id) {
		if err := uc.enqueue(ctx, snap, offline.OpCompleteTask, id, nil); err != nil {
			return model.Task{}, err
		}
		return optimistic, nil
	}

	toggled, err := uc.confirm(ctx, func(key string) (model.Task, error) {
		return uc.repo.Complete(ctx, id, key)
	})
	if err != nil {
		snap.Rollback()
		uc.monitor.Kick()
		return model.Task{}, uc.mapMutationErr(err)
	}
	uc.cache.Put(detailKey, toggled)
	uc.invalidateLists()
	return toggled, nil
}

func (uc *implUseCase) Delete(ctx context.Context, id int) error {
	detailKey := task.DetailCacheKey(id)

	// A task created offline and deleted before its create ever replayed
	// cancels out entirely: drop its queued ops and local copies.
	if offline.IsTemp(id) {
		uc.queue.RemoveForTask(id)
		uc.cache.Remove(detailKey)
		uc.applyToLists(removeTask(id))
		return nil
	}

	snap := uc.beginListAndDetail(detailKey)
	uc.forEachListKey(func(k cache.Key) { snap.Apply(k, removeTask(id)) })
	uc.cache.Remove(detailKey)

	if !uc.monitor.Online() {
		if err := uc.enqueue(ctx, snap, offline.OpDeleteTask, id, nil); err != nil {
			return err
		}
		return nil
	}

	_, err := uc.confirm(ctx, func(key string) (model.Task, error) {
		return model.Task{}, uc.repo.Delete(ctx, id, key)
	})
	if err != nil {
		// A 404 means the task is already gone; the optimistic removal stands.
		if todoapi.IsNotFound(err) {
			uc.invalidateLists()
			return nil
		}
		snap.Rollback()
		uc.monitor.Kick()
		return uc.mapMutationErr(err)
	}
	uc.invalidateLists()
	return nil
}

// confirm runs the backend call with bounded retries. All attempts share one
// idempotency key so a retry after an ambiguous failure cannot double-apply.
func (uc *implUseCase) confirm(ctx context.Context, do func(idempotencyKey string) (model.Task, error)) (model.Task, error) {
	key := uuid.NewString()
	delay := retryBaseDelay
	var lastErr error
	for attempt := 1; attempt <= mutationMaxAttempts; attempt++ {
		t, err := do(key)
		if err == nil {
			return t, nil
		}
		lastErr = err
		if !todoapi.IsRetryable(err) || attempt == mutationMaxAttempts {
			break
		}
		uc.l.Debugf(ctx, "task.confirm: attempt %d/%d failed, retrying in %s: %v",
			attempt, mutationMaxAttempts, delay, err)
		select {
		case <-ctx.Done():
			return model.Task{}, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > retryMaxDelay {
			delay = retryMaxDelay
		}
	}
	return model.Task{}, lastErr
}

// enqueue queues an offline mutation, rolling the optimistic apply back when
// the queue rejects it.
func (uc *implUseCase) enqueue(ctx context.Context, snap *cache.Snapshot, kind offline.OpKind, taskID int, payload any) error {
	var raw json.RawMessage
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			snap.Rollback()
			return err
		}
		raw = encoded
	}
	if _, err := uc.queue.Enqueue(ctx, kind, taskID, raw); err != nil {
		snap.Rollback()
		if errors.Is(err, offline.ErrQueueFull) {
			return task.ErrQueueFull
		}
		return err
	}
	return nil
}

// currentTask resolves the task a mutation starts from: the cache when
// possible, the backend when online, an error otherwise. Mutating a record
// never seen while offline has nothing to apply optimistically to.
func (uc *implUseCase) currentTask(ctx context.Context, id int) (model.Task, error) {
	if val, ok := uc.cache.Peek(task.DetailCacheKey(id)); ok {
		return val.(model.Task), nil
	}
	if t, ok := uc.findInLists(id); ok {
		return t, nil
	}
	if offline.IsTemp(id) || !uc.monitor.Online() {
		return model.Task{}, task.ErrTaskNotFound
	}
	t, err := uc.repo.Detail(ctx, id)
	if err != nil {
		return model.Task{}, uc.mapErr(err)
	}
	uc.cache.Put(task.DetailCacheKey(id), t)
	return t, nil
}

func (uc *implUseCase) findInLists(id int) (model.Task, bool) {
	for _, key := range uc.cache.KeysOf(cache.KindTaskList) {
		val, ok := uc.cache.Peek(key)
		if !ok {
			continue
		}
		page, ok := val.(task.ListOutput)
		if !ok {
			continue
		}
		for _, t := range page.Tasks {
			if t.ID == id {
				return t, true
			}
		}
	}
	return model.Task{}, false
}

// applyToLists snapshots every cached list page plus the analysis aggregate
// and applies the updater to the list pages.
func (uc *implUseCase) applyToLists(update func(any) any) *cache.Snapshot {
	keys := uc.cache.KeysOf(cache.KindTaskList)
	keys = append(keys, task.AnalysisCacheKey())
	snap := uc.cache.BeginOptimistic(keys...)
	for _, k := range keys {
		if k.Kind == cache.KindTaskList {
			snap.Apply(k, update)
		}
	}
	return snap
}

func (uc *implUseCase) beginListAndDetail(detailKey cache.Key) *cache.Snapshot {
	keys := uc.cache.KeysOf(cache.KindTaskList)
	keys = append(keys, detailKey, task.AnalysisCacheKey())
	return uc.cache.BeginOptimistic(keys...)
}

func (uc *implUseCase) forEachListKey(fn func(cache.Key)) {
	for _, key := range uc.cache.KeysOf(cache.KindTaskList) {
		fn(key)
	}
}

func applyUpdate(current model.Task, ip task.UpdateInput) model.Task {
	out := current
	if ip.Title != nil {
		out.Title = *ip.Title
	}
	if ip.Description != nil {
		out.Description = ip.Description
	}
	if ip.DueDate != nil {
		out.DueDate = ip.DueDate
	}
	if ip.Priority != nil {
		out.Priority = *ip.Priority
	}
	if ip.Category != nil {
		out.Category = ip.Category
	}
	if ip.Status != nil {
		out.Status = *ip.Status
	}
	out.UpdatedAt = time.Now().UTC()
	return out
}

// insertTask prepends t to a cached list page. Updaters copy, never mutate,
// so a rollback can restore the prior value by reference.
func insertTask(t model.Task) func(any) any {
	return func(old any) any {
		page, ok := old.(task.ListOutput)
		if !ok {
			return old
		}
		items := make([]model.Task, 0, len(page.Tasks)+1)
		items = append(items, t)
		items = append(items, page.Tasks...)
		page.Tasks = items
		page.Total++
		return page
	}
}

func replaceTask(t model.Task) func(any) any {
	return func(old any) any {
		page, ok := old.(task.ListOutput)
		if !ok {
			return old
		}
		items := make([]model.Task, len(page.Tasks))
		copy(items, page.Tasks)
		for i := range items {
			if items[i].ID == t.ID {
				items[i] = t
			}
		}
		page.Tasks = items
		return page
	}
}

func removeTask(id int) func(any) any {
	return func(old any) any {
		page, ok := old.(task.ListOutput)
		if !ok {
			return old
		}
		items := make([]model.Task, 0, len(page.Tasks))
		for _, t := range page.Tasks {
			if t.ID != id {
				items = append(items, t)
			}
		}
		if len(items) < len(page.Tasks) {
			page.Total--
		}
		page.Tasks = items
		return page
	}
}
