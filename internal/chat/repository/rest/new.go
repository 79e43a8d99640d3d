// Package rest implements the chat repository over the backend HTTP API.
package rest

import (
	"context"

	"taskdeck/internal/chat/repository"
	"taskdeck/pkg/log"
	"taskdeck/pkg/todoapi"
)

type implRepository struct {
	l      log.Logger
	client *todoapi.Client
}

// New returns a Repository backed by the given API client.
func New(l log.Logger, client *todoapi.Client) repository.Repository {
	return &implRepository{
		l:      l,
		client: client,
	}
}

func (r *implRepository) Generate(ctx context.Context, req todoapi.GenerateTasksRequest) (todoapi.GenerateTasksResult, error) {
	result, err := r.client.GenerateTasks(ctx, req)
	if err != nil {
		r.l.Warnf(ctx, "chat.repository.Generate: %v", err)
		return todoapi.GenerateTasksResult{}, err
	}
	return result, nil
}

func (r *implRepository) Messages(ctx context.Context, page, size int) (todoapi.MessagePage, error) {
	return r.client.ListMessages(ctx, page, size)
}

func (r *implRepository) Clear(ctx context.Context) error {
	return r.client.ClearMessages(ctx)
}
