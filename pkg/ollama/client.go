package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

type ollamaImpl struct {
	host       string
	httpClient *http.Client

	mu              sync.Mutex
	model           string
	healthy         bool
	lastHealthCheck time.Time
}

// newOllamaImpl creates a new Ollama implementation.
func newOllamaImpl(cfg Config) *ollamaImpl {
	return &ollamaImpl{
		host:       cfg.Host,
		model:      cfg.Model,
		httpClient: cfg.HTTPClient,
	}
}

// Model returns the model currently in use.
func (o *ollamaImpl) Model() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.model
}

// ListModels returns the model names Ollama has pulled.
func (o *ollamaImpl) ListModels(ctx context.Context) ([]string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, o.host+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("ollama: failed to build tags request: %w", err)
	}

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama: tags call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama: tags error %d: %s", resp.StatusCode, string(raw))
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("ollama: failed to decode tags response: %w", err)
	}

	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// CheckConnection probes Ollama by listing models. If the configured model
// is missing but others are pulled, the first available one is adopted.
// Results are cached for HealthCheckInterval unless force is set.
func (o *ollamaImpl) CheckConnection(ctx context.Context, force bool) bool {
	o.mu.Lock()
	if !force && time.Since(o.lastHealthCheck) < HealthCheckInterval {
		healthy := o.healthy
		o.mu.Unlock()
		return healthy
	}
	o.mu.Unlock()

	names, err := o.ListModels(ctx)
	healthy := err == nil && len(names) > 0

	o.mu.Lock()
	defer o.mu.Unlock()
	o.lastHealthCheck = time.Now()
	o.healthy = healthy
	if healthy {
		found := false
		for _, name := range names {
			if name == o.model {
				found = true
				break
			}
		}
		if !found {
			o.model = names[0]
		}
	}
	return healthy
}

// Generate sends a chat completion request with retry and exponential
// backoff. Returns the assistant message text.
func (o *ollamaImpl) Generate(ctx context.Context, prompt, systemPrompt string) (string, error) {
	var lastErr error
	delay := RetryBaseDelay

	for attempt := 0; attempt < MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
			delay *= 2
		}

		if !o.CheckConnection(ctx, attempt > 0) {
			lastErr = ErrUnavailable
			continue
		}

		text, err := o.chat(ctx, prompt, systemPrompt)
		if err == nil {
			return text, nil
		}
		lastErr = err
	}

	return "", fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

func (o *ollamaImpl) chat(ctx context.Context, prompt, systemPrompt string) (string, error) {
	var messages []chatMessage
	if systemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	req := chatRequest{Model: o.Model(), Messages: messages, Stream: false}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("ollama: failed to marshal chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.host+"/api/chat", bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("ollama: failed to build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("ollama: chat call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama: chat error %d: %s", resp.StatusCode, string(raw))
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("ollama: failed to decode chat response: %w", err)
	}
	return result.Message.Content, nil
}
