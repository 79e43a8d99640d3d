package model

import (
	"fmt"
	"strings"
	"time"
)

// Role is the chat message author role.
type Role string

const (
	RoleUser      Role = "USER"
	RoleAssistant Role = "ASSISTANT"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// ChatMessage is one entry in the AI chat history. Assistant messages may
// carry task suggestions.
type ChatMessage struct {
	ID             int             `json:"id"`
	Content        string          `json:"content"`
	Role           Role            `json:"role"`
	Timestamp      time.Time       `json:"timestamp"`
	GeneratedTasks []GeneratedTask `json:"generated_tasks,omitempty"`
}

// GeneratedTask is an unpersisted AI suggestion. It becomes a Task only when
// the user accepts it.
type GeneratedTask struct {
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	SuggestedDueDate  *time.Time `json:"suggested_due_date,omitempty"`
	SuggestedPriority Priority   `json:"suggested_priority"`
	SuggestedCategory string     `json:"suggested_category"`
	ConfidenceScore   float64    `json:"confidence_score"`
}

// Validate checks the fields the AI is allowed to get wrong.
func (g GeneratedTask) Validate() error {
	if strings.TrimSpace(g.Title) == "" {
		return fmt.Errorf("generated task title is empty")
	}
	if !g.SuggestedPriority.Valid() {
		return fmt.Errorf("generated task priority %q is invalid", g.SuggestedPriority)
	}
	if g.ConfidenceScore < 0 || g.ConfidenceScore > 1 {
		return fmt.Errorf("confidence score %v outside [0,1]", g.ConfidenceScore)
	}
	return nil
}
