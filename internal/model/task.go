package model

import (
	"fmt"
	"strings"
	"time"
)

// Priority is the task priority level.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// ParsePriority converts user input to a Priority, case-insensitively.
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToUpper(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("unknown priority %q", s)
	}
	return p, nil
}

// TaskStatus is the task lifecycle state. Only these three states exist;
// COMPLETED can be toggled back to PENDING.
type TaskStatus string

const (
	StatusPending    TaskStatus = "PENDING"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusCompleted  TaskStatus = "COMPLETED"
)

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// ParseStatus converts user input to a TaskStatus, case-insensitively.
func ParseStatus(raw string) (TaskStatus, error) {
	s := TaskStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown status %q", raw)
	}
	return s, nil
}

// Task is a persisted to-do item. The backend owns it; the client holds a
// read/write-through replica. Offline-created tasks carry a negative ID
// until the server assigns the real one.
type Task struct {
	ID              int        `json:"id"`
	Title           string     `json:"title"`
	Description     *string    `json:"description,omitempty"`
	DueDate         *time.Time `json:"due_date,omitempty"`
	Priority        Priority   `json:"priority"`
	Category        *string    `json:"category,omitempty"`
	Status          TaskStatus `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	CalendarEventID *string    `json:"calendar_event_id,omitempty"`
	AIGenerated     bool       `json:"ai_generated"`
}

// Overdue reports whether the task has a due date in the past and is not done.
func (t Task) Overdue(now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && t.Status != StatusCompleted
}

// TaskFilters narrows a task list request.
type TaskFilters struct {
	Status   *TaskStatus
	Priority *Priority
	Category string
	DueFrom  *time.Time
	DueTo    *time.Time
	Search   string
}

// Page is pagination input. Page is 1-based.
type Page struct {
	Page int
	Size int
}

// Normalize clamps page/size to usable values.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Size < 1 {
		p.Size = 20
	}
	if p.Size > 100 {
		p.Size = 100
	}
	return p
}

// WorkloadAnalysis is the aggregate returned by the analyze endpoint.
type WorkloadAnalysis struct {
	TotalTasks              int              `json:"total_tasks"`
	CompletedTasks          int              `json:"completed_tasks"`
	PendingTasks            int              `json:"pending_tasks"`
	OverdueTasks            int              `json:"overdue_tasks"`
	TasksByPriority         map[Priority]int `json:"tasks_by_priority"`
	EstimatedCompletionTime float64          `json:"estimated_completion_time"`
	Recommendations         []string         `json:"recommendations"`
}
