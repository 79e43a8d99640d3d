package task

import (
	"context"

	"taskdeck/internal/model"
)

// UseCase is the task read/write surface. Reads go through the cache; writes
// apply optimistically and either confirm against the backend or queue for
// replay when offline.
type UseCase interface {
	List(ctx context.Context, ip ListInput) (ListOutput, error)
	Detail(ctx context.Context, id int) (DetailOutput, error)
	Create(ctx context.Context, ip CreateInput) (model.Task, error)
	Update(ctx context.Context, ip UpdateInput) (model.Task, error)
	Delete(ctx context.Context, id int) error
	ToggleComplete(ctx context.Context, id int) (model.Task, error)
	Analyze(ctx context.Context) (model.WorkloadAnalysis, error)
	Improve(ctx context.Context, id int) (ImproveOutput, error)
}
