package ollama

import (
	"errors"
	"net/http"
	"time"
)

// Config configures the Ollama client.
type Config struct {
	Host       string
	Model      string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Validate fills defaults and rejects unusable configs.
func (c *Config) Validate() error {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	return nil
}

// ErrUnavailable is returned when Ollama cannot be reached or every retry
// attempt failed.
var ErrUnavailable = errors.New("ollama service unavailable")

// chatMessage is one turn in the /api/chat conversation.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is the POST /api/chat body.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

// chatResponse is the non-streaming /api/chat response.
type chatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
}

// tagsResponse is the GET /api/tags response.
type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// generatedTaskPayload is one element of the JSON array the model is asked
// to produce for task generation.
type generatedTaskPayload struct {
	Title             string  `json:"title"`
	Description       string  `json:"description"`
	SuggestedDueDate  *string `json:"suggested_due_date"`
	SuggestedPriority string  `json:"suggested_priority"`
	SuggestedCategory string  `json:"suggested_category"`
	ConfidenceScore   float64 `json:"confidence_score"`
}

// analysisPayload is the JSON object the model produces for workload analysis.
type analysisPayload struct {
	EstimatedCompletionTime float64  `json:"estimated_completion_time"`
	Recommendations         []string `json:"recommendations"`
}
