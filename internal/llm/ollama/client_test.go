package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"medreport-backend/internal/llm"
)

func noSleep() llm.RetryPolicy {
	return llm.RetryPolicy{
		MaxAttempts: 3,
		Pause:       2 * time.Second,
		Sleep:       func(ctx context.Context, d time.Duration) error { return nil },
	}
}

func chatReply(t *testing.T, w http.ResponseWriter, content string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{
		"message": map[string]any{"role": "assistant", "content": content},
	}); err != nil {
		t.Fatalf("encode reply: %v", err)
	}
}

func TestCompleteSucceedsOnThirdAttempt(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			// Stall past the client timeout to simulate a hung backend.
			time.Sleep(200 * time.Millisecond)
			return
		}
		chatReply(t, w, `{"ok": true}`)
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, "mistral", 50*time.Millisecond, noSleep())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	out, err := client.Complete(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if out != `{"ok": true}` {
		t.Fatalf("expected third attempt content, got %q", out)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("expected 3 requests, got %d", got)
	}
}

func TestCompleteExhaustsAttempts(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, "mistral", time.Second, noSleep())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.Complete(context.Background(), "", "user")
	if !errors.Is(err, llm.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("expected exactly 3 requests, got %d", got)
	}
}

func TestCompleteRetriesEmptyContent(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			chatReply(t, w, "   ")
			return
		}
		chatReply(t, w, "real content")
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, "mistral", time.Second, noSleep())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	out, err := client.Complete(context.Background(), "", "user")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if out != "real content" {
		t.Fatalf("expected retry after empty content, got %q", out)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("expected 2 requests, got %d", got)
	}
}

func TestCompleteSendsPromptPair(t *testing.T) {
	var captured struct {
		Model    string `json:"model"`
		Stream   bool   `json:"stream"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		chatReply(t, w, "ok")
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, "mistral", time.Second, noSleep())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	if _, err := client.Complete(context.Background(), "you are strict", "classify this"); err != nil {
		t.Fatalf("complete: %v", err)
	}

	if captured.Model != "mistral" {
		t.Fatalf("expected model mistral, got %s", captured.Model)
	}
	if captured.Stream {
		t.Fatal("expected non-streaming request")
	}
	if len(captured.Messages) != 2 {
		t.Fatalf("expected system+user messages, got %d", len(captured.Messages))
	}
	if captured.Messages[0].Role != "system" || captured.Messages[1].Role != "user" {
		t.Fatalf("unexpected roles: %+v", captured.Messages)
	}
}

func TestHealthModelPresent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`{"models":[{"name":"llama3:8b"},{"name":"mistral:latest"}]}`)); err != nil {
			t.Errorf("write: %v", err)
		}
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, "mistral", time.Second, noSleep())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	ok, detail := client.Health(context.Background())
	if !ok {
		t.Fatalf("expected healthy, got detail %q", detail)
	}
}

func TestHealthModelMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`{"models":[{"name":"llama3:8b"}]}`)); err != nil {
			t.Errorf("write: %v", err)
		}
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, "mistral", time.Second, noSleep())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	ok, detail := client.Health(context.Background())
	if ok {
		t.Fatal("expected unhealthy when model missing")
	}
	if !strings.Contains(detail, "mistral") || !strings.Contains(detail, "llama3:8b") {
		t.Fatalf("expected descriptive detail, got %q", detail)
	}
}

func TestHealthUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client, err := NewClient(srv.URL, "mistral", time.Second, noSleep())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	ok, detail := client.Health(context.Background())
	if ok {
		t.Fatal("expected unhealthy for closed server")
	}
	if detail == "" {
		t.Fatal("expected failure detail")
	}
}
