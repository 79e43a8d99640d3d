package ollama

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"taskdeck/internal/model"
)

// ParseGeneratedTasks parses the model's JSON array into validated
// suggestions. Invalid entries are skipped, not fatal; the skipped titles
// are returned so callers can log them.
func ParseGeneratedTasks(raw string) ([]model.GeneratedTask, []string, error) {
	cleaned := StripCodeFences(raw)

	var payloads []generatedTaskPayload
	if err := json.Unmarshal([]byte(cleaned), &payloads); err != nil {
		return nil, nil, fmt.Errorf("ollama: response is not a JSON task array: %w", err)
	}

	var tasks []model.GeneratedTask
	var skipped []string
	for _, p := range payloads {
		task, err := p.toModel()
		if err != nil {
			skipped = append(skipped, fmt.Sprintf("%s: %v", p.Title, err))
			continue
		}
		tasks = append(tasks, task)
	}
	return tasks, skipped, nil
}

// ParseWorkloadAnalysis parses the model's analysis object.
func ParseWorkloadAnalysis(raw string) (float64, []string, error) {
	cleaned := StripCodeFences(raw)

	var payload analysisPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return 0, nil, fmt.Errorf("ollama: response is not a JSON analysis object: %w", err)
	}
	if payload.EstimatedCompletionTime < 0 {
		payload.EstimatedCompletionTime = 0
	}
	return payload.EstimatedCompletionTime, payload.Recommendations, nil
}

// Bounds outside which an "improved" description is discarded as noise.
const (
	minImprovedLength = 10
	maxImprovedLength = 1000
)

// ParseImprovedDescription cleans the model's rewrite of a task description.
// An answer outside the plausible length bounds is an error so callers keep
// the original text instead.
func ParseImprovedDescription(raw string) (string, error) {
	improved := strings.TrimSpace(StripCodeFences(raw))
	if len(improved) <= minImprovedLength || len(improved) >= maxImprovedLength {
		return "", fmt.Errorf("ollama: implausible improvement of %d characters", len(improved))
	}
	return improved, nil
}

// taskCategories is the closed set the categorization prompt allows.
var taskCategories = map[string]struct{}{
	"WORK": {}, "PERSONAL": {}, "HEALTH": {}, "FINANCE": {},
	"LEARNING": {}, "SHOPPING": {}, "OTHER": {},
}

// ParseCategory normalizes the model's category answer. Anything outside the
// known set becomes OTHER, the same fallback the generation parser uses for
// garbage entries.
func ParseCategory(raw string) string {
	category := strings.ToUpper(strings.TrimSpace(StripCodeFences(raw)))
	if _, ok := taskCategories[category]; ok {
		return category
	}
	return "OTHER"
}

// StripCodeFences removes a surrounding markdown code block if the model
// wrapped its JSON in one despite instructions.
func StripCodeFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func (p generatedTaskPayload) toModel() (model.GeneratedTask, error) {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return model.GeneratedTask{}, fmt.Errorf("empty title")
	}
	if len(title) > MaxTitleLength {
		title = title[:MaxTitleLength]
	}

	priority, err := model.ParsePriority(p.SuggestedPriority)
	if err != nil {
		return model.GeneratedTask{}, err
	}

	var due *time.Time
	if p.SuggestedDueDate != nil && *p.SuggestedDueDate != "" {
		parsed, err := parseDueDate(*p.SuggestedDueDate)
		if err != nil {
			return model.GeneratedTask{}, err
		}
		due = &parsed
	}

	task := model.GeneratedTask{
		Title:             title,
		Description:       strings.TrimSpace(p.Description),
		SuggestedDueDate:  due,
		SuggestedPriority: priority,
		SuggestedCategory: strings.TrimSpace(p.SuggestedCategory),
		ConfidenceScore:   p.ConfidenceScore,
	}
	if err := task.Validate(); err != nil {
		return model.GeneratedTask{}, err
	}
	return task, nil
}

// parseDueDate accepts RFC3339 with or without a time component, and the
// trailing-Z variant some models emit.
func parseDueDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable due date %q", s)
}
