package ollama_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"taskdeck/pkg/ollama"
)

func fakeOllama(t *testing.T, models []string, reply string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var chatCalls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			var tagged []map[string]string
			for _, m := range models {
				tagged = append(tagged, map[string]string{"name": m})
			}
			json.NewEncoder(w).Encode(map[string]any{"models": tagged})
		case "/api/chat":
			chatCalls.Add(1)
			json.NewEncoder(w).Encode(map[string]any{
				"message": map[string]string{"role": "assistant", "content": reply},
				"done":    true,
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(ts.Close)
	return ts, &chatCalls
}

func TestGenerateReturnsAssistantText(t *testing.T) {
	ts, chatCalls := fakeOllama(t, []string{"llama2"}, "[]")

	client, err := ollama.New(ollama.Config{Host: ts.URL, Model: "llama2", Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	text, err := client.Generate(context.Background(), "prompt", "system")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "[]" {
		t.Fatalf("text = %q", text)
	}
	if chatCalls.Load() != 1 {
		t.Fatalf("chat called %d times, want 1", chatCalls.Load())
	}
}

func TestCheckConnectionAdoptsAvailableModel(t *testing.T) {
	ts, _ := fakeOllama(t, []string{"mistral"}, "")

	client, err := ollama.New(ollama.Config{Host: ts.URL, Model: "llama2", Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !client.CheckConnection(context.Background(), true) {
		t.Fatal("expected healthy connection")
	}
	if client.Model() != "mistral" {
		t.Fatalf("model = %q, want the available one adopted", client.Model())
	}
}

func TestCheckConnectionCachesResult(t *testing.T) {
	var tagCalls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tagCalls.Add(1)
		json.NewEncoder(w).Encode(map[string]any{"models": []map[string]string{{"name": "llama2"}}})
	}))
	t.Cleanup(ts.Close)

	client, err := ollama.New(ollama.Config{Host: ts.URL, Model: "llama2", Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx := context.Background()
	client.CheckConnection(ctx, false)
	client.CheckConnection(ctx, false)
	client.CheckConnection(ctx, false)
	if tagCalls.Load() != 1 {
		t.Fatalf("tags called %d times, want 1 within the cache window", tagCalls.Load())
	}

	client.CheckConnection(ctx, true)
	if tagCalls.Load() != 2 {
		t.Fatalf("force=true must bypass the cache; tags called %d times", tagCalls.Load())
	}
}

func TestGenerateUnreachableHostWrapsErrUnavailable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close() // refuse connections

	client, err := ollama.New(ollama.Config{Host: ts.URL, Model: "llama2", Timeout: time.Second})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := client.Generate(ctx, "prompt", ""); !errors.Is(err, ollama.ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}
