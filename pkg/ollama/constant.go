package ollama

import "time"

const (
	// DefaultHost is the default local Ollama endpoint.
	DefaultHost = "http://localhost:11434"

	// DefaultModel is used when the config names no model.
	DefaultModel = "llama2"

	// DefaultTimeout bounds one generation round-trip.
	DefaultTimeout = 45 * time.Second

	// HealthCheckInterval is how long a connection check result is reused.
	HealthCheckInterval = 30 * time.Second

	// MaxRetries is the retry ceiling around generation calls.
	MaxRetries = 3

	// RetryBaseDelay is the first backoff step; it doubles per attempt.
	RetryBaseDelay = 1 * time.Second

	// MaxTitleLength clamps generated task titles.
	MaxTitleLength = 255
)
