package repository

import (
	"context"

	"taskdeck/internal/model"
	"taskdeck/pkg/todoapi"
)

// Repository is the backend task API as the use case sees it. Mutations take
// an idempotency key so a replayed offline operation is applied at most once.
type Repository interface {
	List(ctx context.Context, opt ListOptions) (todoapi.TaskPage, error)
	Detail(ctx context.Context, id int) (model.Task, error)
	Create(ctx context.Context, req todoapi.CreateTaskRequest, idempotencyKey string) (model.Task, error)
	Update(ctx context.Context, id int, req todoapi.UpdateTaskRequest, idempotencyKey string) (model.Task, error)
	Delete(ctx context.Context, id int, idempotencyKey string) error
	Complete(ctx context.Context, id int, idempotencyKey string) (model.Task, error)
	Analyze(ctx context.Context) (model.WorkloadAnalysis, error)
	Improve(ctx context.Context, id int) (todoapi.ImproveTaskResult, error)
}
