package devserver

import (
	"sort"
	"strings"
	"sync"
	"time"

	"taskdeck/internal/model"
)

// Store is the in-memory database behind the dev server.
type Store struct {
	mu         sync.Mutex
	tasks      map[int]model.Task
	nextTaskID int

	messages  []model.ChatMessage
	nextMsgID int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		tasks:      make(map[int]model.Task),
		nextTaskID: 1,
		nextMsgID:  1,
	}
}

// CreateTask persists a new task with server-assigned ID and timestamps.
func (s *Store) CreateTask(t model.Task) model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	t.ID = s.nextTaskID
	s.nextTaskID++
	if t.Status == "" {
		t.Status = model.StatusPending
	}
	t.CreatedAt = now
	t.UpdatedAt = now
	s.tasks[t.ID] = t
	return t
}

// GetTask looks a task up by ID.
func (s *Store) GetTask(id int) (model.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	return t, ok
}

// UpdateTask applies fn to the task under the lock and bumps UpdatedAt.
func (s *Store) UpdateTask(id int, fn func(*model.Task)) (model.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return model.Task{}, false
	}
	fn(&t)
	t.UpdatedAt = time.Now().UTC()
	s.tasks[id] = t
	return t, true
}

// DeleteTask removes a task, reporting whether it existed.
func (s *Store) DeleteTask(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return false
	}
	delete(s.tasks, id)
	return true
}

// ListTasks filters and pages tasks, newest first.
func (s *Store) ListTasks(f model.TaskFilters, page model.Page) ([]model.Task, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []model.Task
	for _, t := range s.tasks {
		if !matches(t, f) {
			continue
		}
		matched = append(matched, t)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	total := len(matched)
	p := page.Normalize()
	start := (p.Page - 1) * p.Size
	if start >= total {
		return []model.Task{}, total
	}
	end := start + p.Size
	if end > total {
		end = total
	}
	return matched[start:end], total
}

func matches(t model.Task, f model.TaskFilters) bool {
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.Priority != nil && t.Priority != *f.Priority {
		return false
	}
	if f.Category != "" {
		if t.Category == nil || !strings.EqualFold(*t.Category, f.Category) {
			return false
		}
	}
	if f.DueFrom != nil {
		if t.DueDate == nil || t.DueDate.Before(*f.DueFrom) {
			return false
		}
	}
	if f.DueTo != nil {
		if t.DueDate == nil || t.DueDate.After(*f.DueTo) {
			return false
		}
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		inTitle := strings.Contains(strings.ToLower(t.Title), needle)
		inDesc := t.Description != nil && strings.Contains(strings.ToLower(*t.Description), needle)
		if !inTitle && !inDesc {
			return false
		}
	}
	return true
}

// Analyze computes the workload aggregate over every stored task.
func (s *Store) Analyze(now time.Time) model.WorkloadAnalysis {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := model.WorkloadAnalysis{
		TasksByPriority: map[model.Priority]int{},
	}
	for _, t := range s.tasks {
		out.TotalTasks++
		switch t.Status {
		case model.StatusCompleted:
			out.CompletedTasks++
		default:
			out.PendingTasks++
		}
		if t.Overdue(now) {
			out.OverdueTasks++
		}
		out.TasksByPriority[t.Priority]++
	}
	return out
}

// AppendMessage persists a chat message with a server-assigned ID.
func (s *Store) AppendMessage(m model.ChatMessage) model.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	m.ID = s.nextMsgID
	s.nextMsgID++
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	s.messages = append(s.messages, m)
	return m
}

// ListMessages pages chat history, oldest first.
func (s *Store) ListMessages(page model.Page) ([]model.ChatMessage, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := len(s.messages)
	p := page.Normalize()
	start := (p.Page - 1) * p.Size
	if start >= total {
		return []model.ChatMessage{}, total
	}
	end := start + p.Size
	if end > total {
		end = total
	}
	out := make([]model.ChatMessage, end-start)
	copy(out, s.messages[start:end])
	return out, total
}

// ClearMessages wipes chat history.
func (s *Store) ClearMessages() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
}
