package repository

import (
	"context"

	"taskdeck/pkg/todoapi"
)

// Repository is the backend chat API as the use case sees it.
type Repository interface {
	Generate(ctx context.Context, req todoapi.GenerateTasksRequest) (todoapi.GenerateTasksResult, error)
	Messages(ctx context.Context, page, size int) (todoapi.MessagePage, error)
	Clear(ctx context.Context) error
}
