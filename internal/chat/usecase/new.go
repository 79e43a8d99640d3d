// Package usecase implements the chat logic: prompt validation, suggestion
// filtering, cached history, and handing accepted suggestions to the task
// use case.
package usecase

import (
	"taskdeck/internal/cache"
	"taskdeck/internal/chat"
	"taskdeck/internal/chat/repository"
	"taskdeck/internal/connectivity"
	"taskdeck/internal/task"
	"taskdeck/pkg/log"
)

type implUseCase struct {
	l       log.Logger
	repo    repository.Repository
	cache   *cache.Cache
	monitor *connectivity.Monitor
	tasks   task.UseCase
}

// New creates the chat use case.
func New(l log.Logger, repo repository.Repository, c *cache.Cache, m *connectivity.Monitor, tasks task.UseCase) chat.UseCase {
	return &implUseCase{
		l:       l,
		repo:    repo,
		cache:   c,
		monitor: m,
		tasks:   tasks,
	}
}
