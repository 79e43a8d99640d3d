package usecase

import (
	"context"
	"fmt"

	"taskdeck/internal/cache"
	"taskdeck/internal/model"
	"taskdeck/internal/offline"
	"taskdeck/internal/task"
	"taskdeck/internal/task/repository"
	"taskdeck/pkg/todoapi"
)

func (uc *implUseCase) List(ctx context.Context, ip task.ListInput) (task.ListOutput, error) {
	key := task.ListCacheKey(ip)
	val, err := uc.cache.Get(ctx, key, func(ctx context.Context) (any, error) {
		page, err := uc.repo.List(ctx, repository.ListOptions{Filters: ip.Filters, Page: ip.Page})
		if err != nil {
			return nil, err
		}
		return task.ListOutput{
			Tasks: page.Items,
			Total: page.Total,
			Page:  page.Page,
			Size:  page.Size,
			Pages: page.Pages,
		}, nil
	})
	if err != nil {
		if val != nil {
			// Refetch failed but an older page is available; serve it marked
			// stale instead of blanking the view.
			uc.l.Warnf(ctx, "task.List: serving stale page, refetch failed: %v", err)
			out := val.(task.ListOutput)
			out.Stale = true
			return out, nil
		}
		return task.ListOutput{}, uc.mapErr(err)
	}
	return val.(task.ListOutput), nil
}

func (uc *implUseCase) Detail(ctx context.Context, id int) (task.DetailOutput, error) {
	// Offline-created tasks only exist locally until their create replays.
	if offline.IsTemp(id) {
		if val, ok := uc.cache.Peek(task.DetailCacheKey(id)); ok {
			return task.DetailOutput{Task: val.(model.Task)}, nil
		}
		return task.DetailOutput{}, task.ErrTaskNotFound
	}

	key := task.DetailCacheKey(id)
	val, err := uc.cache.Get(ctx, key, func(ctx context.Context) (any, error) {
		t, err := uc.repo.Detail(ctx, id)
		if err != nil {
			return nil, err
		}
		return t, nil
	})
	if err != nil {
		if todoapi.IsNotFound(err) {
			uc.cache.Remove(key)
			return task.DetailOutput{}, task.ErrTaskNotFound
		}
		if val != nil {
			uc.l.Warnf(ctx, "task.Detail: serving stale task %d, refetch failed: %v", id, err)
			return task.DetailOutput{Task: val.(model.Task), Stale: true}, nil
		}
		return task.DetailOutput{}, uc.mapErr(err)
	}
	return task.DetailOutput{Task: val.(model.Task)}, nil
}

func (uc *implUseCase) Analyze(ctx context.Context) (model.WorkloadAnalysis, error) {
	val, err := uc.cache.Get(ctx, task.AnalysisCacheKey(), func(ctx context.Context) (any, error) {
		analysis, err := uc.repo.Analyze(ctx)
		if err != nil {
			return nil, err
		}
		return analysis, nil
	})
	if err != nil {
		if val != nil {
			uc.l.Warnf(ctx, "task.Analyze: serving stale analysis: %v", err)
			return val.(model.WorkloadAnalysis), nil
		}
		return model.WorkloadAnalysis{}, uc.mapErr(err)
	}
	return val.(model.WorkloadAnalysis), nil
}

// Improve asks the backend's model to rewrite the task's description. Purely
// online: an AI call has no meaningful deferred replay, and a task created
// offline does not exist server-side yet.
func (uc *implUseCase) Improve(ctx context.Context, id int) (task.ImproveOutput, error) {
	if offline.IsTemp(id) {
		return task.ImproveOutput{}, task.ErrTaskNotFound
	}
	if !uc.monitor.Online() {
		return task.ImproveOutput{}, task.ErrAIUnavailable
	}

	result, err := uc.repo.Improve(ctx, id)
	if err != nil {
		if todoapi.IsUnavailable(err) {
			return task.ImproveOutput{}, task.ErrAIUnavailable
		}
		return task.ImproveOutput{}, uc.mapErr(err)
	}

	uc.cache.Put(task.DetailCacheKey(result.Task.ID), result.Task)
	uc.invalidateLists()
	return task.ImproveOutput{
		Task:                result.Task,
		OriginalDescription: result.OriginalDescription,
		ImprovedDescription: result.ImprovedDescription,
	}, nil
}

// mapErr converts transport errors into the domain's sentinels.
func (uc *implUseCase) mapErr(err error) error {
	switch {
	case todoapi.IsNotFound(err):
		return task.ErrTaskNotFound
	case todoapi.IsValidation(err):
		return task.ErrInvalidInput
	default:
		return err
	}
}

// mapMutationErr is mapErr for the write path: a failure that is not a domain
// sentinel surfaces as a mutation fault wrapping the transport error, after
// the optimistic apply has been rolled back.
func (uc *implUseCase) mapMutationErr(err error) error {
	switch {
	case todoapi.IsNotFound(err):
		return task.ErrTaskNotFound
	case todoapi.IsValidation(err):
		return task.ErrInvalidInput
	default:
		return fmt.Errorf("%w: %w", task.ErrMutationFault, err)
	}
}

// invalidateLists marks every cached list page and the analysis aggregate
// stale after a confirmed mutation.
func (uc *implUseCase) invalidateLists() {
	uc.cache.InvalidateKind(cache.KindTaskList)
	uc.cache.Invalidate(task.AnalysisCacheKey())
}
