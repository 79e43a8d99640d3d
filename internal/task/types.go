package task

import (
	"strconv"
	"time"

	"taskdeck/internal/cache"
	"taskdeck/internal/model"
)

// ListInput narrows and pages a task list request.
type ListInput struct {
	Filters model.TaskFilters
	Page    model.Page
}

// ListOutput is one page of tasks. Stale is set when the page came from the
// cache because a refetch failed; the data is usable but may lag the server.
type ListOutput struct {
	Tasks []model.Task
	Total int
	Page  int
	Size  int
	Pages int
	Stale bool
}

// DetailOutput is a single task, with the same staleness marker as lists.
type DetailOutput struct {
	Task  model.Task
	Stale bool
}

// ImproveOutput is an AI rewrite of a task's description, with both versions
// so the caller can show what changed.
type ImproveOutput struct {
	Task                model.Task
	OriginalDescription string
	ImprovedDescription string
}

// CreateInput is the data for a new task.
type CreateInput struct {
	Title       string
	Description *string
	DueDate     *time.Time
	Priority    model.Priority
	Category    *string
	AIGenerated bool
}

// UpdateInput is a partial update; nil fields are left untouched.
type UpdateInput struct {
	ID          int
	Title       *string
	Description *string
	DueDate     *time.Time
	Priority    *model.Priority
	Category    *string
	Status      *model.TaskStatus
}

// ListCacheKey builds the structural cache key for a list request. Requests
// differing only in parameter order share an entry.
func ListCacheKey(ip ListInput) cache.Key {
	p := ip.Page.Normalize()
	params := map[string]string{
		"page": strconv.Itoa(p.Page),
		"size": strconv.Itoa(p.Size),
	}
	f := ip.Filters
	if f.Status != nil {
		params["status"] = string(*f.Status)
	}
	if f.Priority != nil {
		params["priority"] = string(*f.Priority)
	}
	if f.Category != "" {
		params["category"] = f.Category
	}
	if f.DueFrom != nil {
		params["due_from"] = f.DueFrom.Format(time.RFC3339)
	}
	if f.DueTo != nil {
		params["due_to"] = f.DueTo.Format(time.RFC3339)
	}
	if f.Search != "" {
		params["search"] = f.Search
	}
	return cache.NewKey(cache.KindTaskList, params)
}

// DetailCacheKey builds the cache key for one task.
func DetailCacheKey(id int) cache.Key {
	return cache.NewKey(cache.KindTaskDetail, map[string]string{"id": strconv.Itoa(id)})
}

// AnalysisCacheKey is the key for the workload aggregate.
func AnalysisCacheKey() cache.Key {
	return cache.NewKey(cache.KindAnalysis, nil)
}
