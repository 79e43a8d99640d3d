package ollama

import "context"

// IOllama defines the interface for the local Ollama client.
// Implementations are safe for concurrent use.
type IOllama interface {
	// Generate sends a chat completion request and returns the raw text.
	Generate(ctx context.Context, prompt, systemPrompt string) (string, error)

	// CheckConnection reports whether Ollama is reachable and has a usable
	// model. The result is cached for HealthCheckInterval unless forced.
	CheckConnection(ctx context.Context, force bool) bool

	// ListModels returns the model names Ollama has pulled.
	ListModels(ctx context.Context) ([]string, error)

	// Model returns the model currently in use.
	Model() string
}

// New creates a new Ollama client with the given configuration.
func New(cfg Config) (IOllama, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return newOllamaImpl(cfg), nil
}
