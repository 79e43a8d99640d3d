package todoapi

import (
	"encoding/json"
	"time"

	"taskdeck/internal/model"
)

// envelope is the standard success body: {data, message?, success}.
type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message,omitempty"`
	Success bool            `json:"success"`
}

// errBody is the standard error body: {error, message, details?}.
type errBody struct {
	Error   string         `json:"error"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// TaskPage is one page of tasks.
type TaskPage struct {
	Items []model.Task `json:"items"`
	Total int          `json:"total"`
	Page  int          `json:"page"`
	Size  int          `json:"size"`
	Pages int          `json:"pages"`
}

// MessagePage is one page of chat messages.
type MessagePage struct {
	Items []model.ChatMessage `json:"items"`
	Total int                 `json:"total"`
	Page  int                 `json:"page"`
	Size  int                 `json:"size"`
	Pages int                 `json:"pages"`
}

// CreateTaskRequest is the POST /api/tasks body.
type CreateTaskRequest struct {
	Title       string         `json:"title"`
	Description *string        `json:"description,omitempty"`
	DueDate     *time.Time     `json:"due_date,omitempty"`
	Priority    model.Priority `json:"priority"`
	Category    *string        `json:"category,omitempty"`
	AIGenerated bool           `json:"ai_generated"`
}

// UpdateTaskRequest is the PUT /api/tasks/{id} body. Nil fields are left
// untouched by the server (partial update).
type UpdateTaskRequest struct {
	Title       *string           `json:"title,omitempty"`
	Description *string           `json:"description,omitempty"`
	DueDate     *time.Time        `json:"due_date,omitempty"`
	Priority    *model.Priority   `json:"priority,omitempty"`
	Category    *string           `json:"category,omitempty"`
	Status      *model.TaskStatus `json:"status,omitempty"`
}

// ImproveTaskResult is the POST /api/tasks/{id}/improve payload: the updated
// task plus both descriptions so the caller can show the diff.
type ImproveTaskResult struct {
	Task                model.Task `json:"task"`
	OriginalDescription string     `json:"original_description"`
	ImprovedDescription string     `json:"improved_description"`
}

// GenerateTasksRequest is the POST /api/chat/generate-tasks body.
type GenerateTasksRequest struct {
	Prompt  string `json:"prompt"`
	Context string `json:"context,omitempty"`
}

// GenerateTasksResult is the generate-tasks payload.
type GenerateTasksResult struct {
	Message        model.ChatMessage     `json:"message"`
	GeneratedTasks []model.GeneratedTask `json:"generated_tasks"`
}

// ListTasksOptions are the GET /api/tasks query parameters.
type ListTasksOptions struct {
	Filters model.TaskFilters
	Page    int
	Size    int
}
