package todoapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"taskdeck/internal/model"
)

// ListTasks fetches one page of tasks via GET /api/tasks.
func (c *Client) ListTasks(ctx context.Context, opt ListTasksOptions) (TaskPage, error) {
	query := url.Values{}
	if opt.Page > 0 {
		query.Set("page", strconv.Itoa(opt.Page))
	}
	if opt.Size > 0 {
		query.Set("size", strconv.Itoa(opt.Size))
	}
	f := opt.Filters
	if f.Status != nil {
		query.Set("status", string(*f.Status))
	}
	if f.Priority != nil {
		query.Set("priority", string(*f.Priority))
	}
	if f.Category != "" {
		query.Set("category", f.Category)
	}
	if f.DueFrom != nil {
		query.Set("due_date_from", f.DueFrom.Format(time.RFC3339))
	}
	if f.DueTo != nil {
		query.Set("due_date_to", f.DueTo.Format(time.RFC3339))
	}
	if f.Search != "" {
		query.Set("search", f.Search)
	}

	data, err := c.doRequest(ctx, http.MethodGet, "/api/tasks", query, nil, "")
	if err != nil {
		return TaskPage{}, err
	}
	var page TaskPage
	if err := decodeData(data, &page, "task page"); err != nil {
		return TaskPage{}, err
	}
	return page, nil
}

// GetTask fetches a single task via GET /api/tasks/{id}.
func (c *Client) GetTask(ctx context.Context, id int) (model.Task, error) {
	data, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/api/tasks/%d", id), nil, nil, "")
	if err != nil {
		return model.Task{}, err
	}
	var task model.Task
	if err := decodeData(data, &task, "task"); err != nil {
		return model.Task{}, err
	}
	return task, nil
}

// CreateTask creates a task via POST /api/tasks.
func (c *Client) CreateTask(ctx context.Context, req CreateTaskRequest, idempotencyKey string) (model.Task, error) {
	data, err := c.doRequest(ctx, http.MethodPost, "/api/tasks", nil, req, idempotencyKey)
	if err != nil {
		return model.Task{}, err
	}
	var task model.Task
	if err := decodeData(data, &task, "created task"); err != nil {
		return model.Task{}, err
	}
	return task, nil
}

// UpdateTask partially updates a task via PUT /api/tasks/{id}.
func (c *Client) UpdateTask(ctx context.Context, id int, req UpdateTaskRequest, idempotencyKey string) (model.Task, error) {
	data, err := c.doRequest(ctx, http.MethodPut, fmt.Sprintf("/api/tasks/%d", id), nil, req, idempotencyKey)
	if err != nil {
		return model.Task{}, err
	}
	var task model.Task
	if err := decodeData(data, &task, "updated task"); err != nil {
		return model.Task{}, err
	}
	return task, nil
}

// DeleteTask removes a task via DELETE /api/tasks/{id}.
func (c *Client) DeleteTask(ctx context.Context, id int, idempotencyKey string) error {
	_, err := c.doRequest(ctx, http.MethodDelete, fmt.Sprintf("/api/tasks/%d", id), nil, nil, idempotencyKey)
	return err
}

// CompleteTask toggles completion via PATCH /api/tasks/{id}/complete.
// A COMPLETED task flips back to PENDING.
func (c *Client) CompleteTask(ctx context.Context, id int, idempotencyKey string) (model.Task, error) {
	data, err := c.doRequest(ctx, http.MethodPatch, fmt.Sprintf("/api/tasks/%d/complete", id), nil, nil, idempotencyKey)
	if err != nil {
		return model.Task{}, err
	}
	var task model.Task
	if err := decodeData(data, &task, "completed task"); err != nil {
		return model.Task{}, err
	}
	return task, nil
}

// ImproveTask asks the backend's model to rewrite a task's description via
// POST /api/tasks/{id}/improve.
func (c *Client) ImproveTask(ctx context.Context, id int) (ImproveTaskResult, error) {
	data, err := c.doRequest(ctx, http.MethodPost, fmt.Sprintf("/api/tasks/%d/improve", id), nil, nil, "")
	if err != nil {
		return ImproveTaskResult{}, err
	}
	var result ImproveTaskResult
	if err := decodeData(data, &result, "improved task"); err != nil {
		return ImproveTaskResult{}, err
	}
	return result, nil
}

// AnalyzeWorkload requests the workload aggregate via POST /api/tasks/analyze.
func (c *Client) AnalyzeWorkload(ctx context.Context) (model.WorkloadAnalysis, error) {
	data, err := c.doRequest(ctx, http.MethodPost, "/api/tasks/analyze", nil, nil, "")
	if err != nil {
		return model.WorkloadAnalysis{}, err
	}
	var analysis model.WorkloadAnalysis
	if err := decodeData(data, &analysis, "workload analysis"); err != nil {
		return model.WorkloadAnalysis{}, err
	}
	return analysis, nil
}
