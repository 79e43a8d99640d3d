// Package rest implements the task repository over the backend HTTP API.
package rest

import (
	"taskdeck/internal/task/repository"
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
