package repository

import "taskdeck/internal/model"

// ListOptions narrows a list request.
type ListOptions struct {
	Filters model.TaskFilters
	Page    model.Page
}
