// Package usecase implements the task read/write logic: cached reads with
// stale fallback, optimistic writes confirmed against the backend, and
// offline queueing when the backend is unreachable.
package usecase

import (
	"taskdeck/internal/cache"
	"taskdeck/internal/connectivity"
	"taskdeck/internal/offline"
	"taskdeck/internal/task"
	"taskdeck/internal/task/repository"
	"taskdeck/pkg/log"
)

type implUseCase struct {
	l       log.Logger
	repo    repository.Repository
	cache   *cache.Cache
	queue   *offline.Queue
	monitor *connectivity.Monitor
	tempIDs *offline.TempIDs
}

// New creates the task use case.
func New(l log.Logger, repo repository.Repository, c *cache.Cache, q *offline.Queue, m *connectivity.Monitor, tempIDs *offline.TempIDs) task.UseCase {
	return &implUseCase{
		l:       l,
		repo:    repo,
		cache:   c,
		queue:   q,
		monitor: m,
		tempIDs: tempIDs,
	}
}
