package rest

import (
	"context"

	"taskdeck/internal/model"
	"taskdeck/internal/task/repository"
	"taskdeck/pkg/todoapi"
)

func (r *implRepository) List(ctx context.Context, opt repository.ListOptions) (todoapi.TaskPage, error) {
	p := opt.Page.Normalize()
	page, err := r.client.ListTasks(ctx, todoapi.ListTasksOptions{
		Filters: opt.Filters,
		Page:    p.Page,
		Size:    p.Size,
	})
	if err != nil {
		r.l.Warnf(ctx, "task.repository.List: %v", err)
		return todoapi.TaskPage{}, err
	}
	return page, nil
}

func (r *implRepository) Detail(ctx context.Context, id int) (model.Task, error) {
	return r.client.GetTask(ctx, id)
}

func (r *implRepository) Create(ctx context.Context, req todoapi.CreateTaskRequest, idempotencyKey string) (model.Task, error) {
	return r.client.CreateTask(ctx, req, idempotencyKey)
}

func (r *implRepository) Update(ctx context.Context, id int, req todoapi.UpdateTaskRequest, idempotencyKey string) (model.Task, error) {
	return r.client.UpdateTask(ctx, id, req, idempotencyKey)
}

func (r *implRepository) Delete(ctx context.Context, id int, idempotencyKey string) error {
	return r.client.DeleteTask(ctx, id, idempotencyKey)
}

func (r *implRepository) Complete(ctx context.Context, id int, idempotencyKey string) (model.Task, error) {
	return r.client.CompleteTask(ctx, id, idempotencyKey)
}

func (r *implRepository) Analyze(ctx context.Context) (model.WorkloadAnalysis, error) {
	return r.client.AnalyzeWorkload(ctx)
}

func (r *implRepository) Improve(ctx context.Context, id int) (todoapi.ImproveTaskResult, error) {
	return r.client.ImproveTask(ctx, id)
}
