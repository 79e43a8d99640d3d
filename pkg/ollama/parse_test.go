package ollama_test

import (
	"strings"
	"testing"

	"taskdeck/internal/model"
	"taskdeck/pkg/ollama"
)

func TestParseGeneratedTasksSkipsInvalidEntries(t *testing.T) {
	raw := `[
		{"title": "Book flights", "description": "Compare prices first", "suggested_due_date": "2026-09-01", "suggested_priority": "HIGH", "suggested_category": "PERSONAL", "confidence_score": 0.9},
		{"title": "", "suggested_priority": "LOW", "confidence_score": 0.4},
		{"title": "Bad priority", "suggested_priority": "SOMEDAY", "confidence_score": 0.4},
		{"title": "Bad confidence", "suggested_priority": "LOW", "confidence_score": 2.0},
		{"title": "Pack bags", "suggested_priority": "low", "confidence_score": 0.7}
	]`

	tasks, skipped, err := ollama.ParseGeneratedTasks(raw)
	if err != nil {
		t.Fatalf("ParseGeneratedTasks: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("parsed %d tasks, want 2: %+v", len(tasks), tasks)
	}
	if len(skipped) != 3 {
		t.Fatalf("skipped %d entries, want 3: %v", len(skipped), skipped)
	}

	first := tasks[0]
	if first.Title != "Book flights" || first.SuggestedPriority != model.PriorityHigh {
		t.Fatalf("first = %+v", first)
	}
	if first.SuggestedDueDate == nil || first.SuggestedDueDate.Format("2006-01-02") != "2026-09-01" {
		t.Fatalf("due date = %v", first.SuggestedDueDate)
	}
	// Lowercase priorities are tolerated.
	if tasks[1].SuggestedPriority != model.PriorityLow {
		t.Fatalf("second priority = %s", tasks[1].SuggestedPriority)
	}
}

func TestParseGeneratedTasksStripsCodeFences(t *testing.T) {
	raw := "```json\n[{\"title\": \"Fenced\", \"suggested_priority\": \"MEDIUM\", \"confidence_score\": 0.5}]\n```"

	tasks, _, err := ollama.ParseGeneratedTasks(raw)
	if err != nil {
		t.Fatalf("ParseGeneratedTasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "Fenced" {
		t.Fatalf("tasks = %+v", tasks)
	}
}

func TestParseGeneratedTasksClampsLongTitles(t *testing.T) {
	long := strings.Repeat("a", 300)
	raw := `[{"title": "` + long + `", "suggested_priority": "LOW", "confidence_score": 0.5}]`

	tasks, _, err := ollama.ParseGeneratedTasks(raw)
	if err != nil {
		t.Fatalf("ParseGeneratedTasks: %v", err)
	}
	if len(tasks) != 1 || len(tasks[0].Title) != ollama.MaxTitleLength {
		t.Fatalf("title length = %d, want %d", len(tasks[0].Title), ollama.MaxTitleLength)
	}
}

func TestParseGeneratedTasksRejectsNonArray(t *testing.T) {
	if _, _, err := ollama.ParseGeneratedTasks(`{"title": "not an array"}`); err == nil {
		t.Fatal("expected error for a non-array response")
	}
}

func TestParseWorkloadAnalysis(t *testing.T) {
	raw := "```json\n{\"estimated_completion_time\": 12.5, \"recommendations\": [\"do less\", \"sleep more\"]}\n```"

	hours, recs, err := ollama.ParseWorkloadAnalysis(raw)
	if err != nil {
		t.Fatalf("ParseWorkloadAnalysis: %v", err)
	}
	if hours != 12.5 || len(recs) != 2 {
		t.Fatalf("hours = %v, recs = %v", hours, recs)
	}
}

func TestParseWorkloadAnalysisClampsNegativeEstimate(t *testing.T) {
	hours, _, err := ollama.ParseWorkloadAnalysis(`{"estimated_completion_time": -3}`)
	if err != nil {
		t.Fatalf("ParseWorkloadAnalysis: %v", err)
	}
	if hours != 0 {
		t.Fatalf("hours = %v, want clamp to 0", hours)
	}
}

func TestParseImprovedDescription(t *testing.T) {
	text := "Review the pull request and leave actionable comments by Friday."
	got, err := ollama.ParseImprovedDescription("```\n" + text + "\n```")
	if err != nil {
		t.Fatalf("ParseImprovedDescription: %v", err)
	}
	if got != text {
		t.Fatalf("got %q", got)
	}

	if _, err := ollama.ParseImprovedDescription("ok"); err == nil {
		t.Fatal("expected error for an implausibly short rewrite")
	}
	if _, err := ollama.ParseImprovedDescription(strings.Repeat("x", 1200)); err == nil {
		t.Fatal("expected error for an implausibly long rewrite")
	}
}

func TestParseCategory(t *testing.T) {
	cases := map[string]string{
		"WORK":                       "WORK",
		"  health\n":                 "HEALTH",
		"```\nfinance\n```":          "FINANCE",
		"probably PERSONAL, I think": "OTHER",
		"":                           "OTHER",
	}
	for raw, want := range cases {
		if got := ollama.ParseCategory(raw); got != want {
			t.Fatalf("ParseCategory(%q) = %q, want %q", raw, got, want)
		}
	}
}
