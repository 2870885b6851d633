package openai_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/joseph-ayodele/jobfit/internal/llm"
	"github.com/joseph-ayodele/jobfit/internal/llm/openai"
)

func newServer(t *testing.T, status int, reply string, seen *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q, want /chat/completions", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		if seen != nil {
			_ = json.NewDecoder(r.Body).Decode(seen)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestComplete_ReturnsContent(t *testing.T) {
	var body map[string]any
	srv := newServer(t, http.StatusOK,
		`{"choices":[{"message":{"content":"{\"company\":\"Acme\"}"},"finish_reason":"stop"}],"usage":{"total_tokens":42}}`, &body)

	c := openai.NewClient(openai.Config{APIKey: "test-key", BaseURL: srv.URL, Model: "m", JSONMode: true}, nil)
	got, err := c.Complete(context.Background(), llm.Prompt{System: "sys", User: "user", MaxOutputTokens: 100})
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if got != `{"company":"Acme"}` {
		t.Errorf("Complete = %q", got)
	}
	if body["model"] != "m" {
		t.Errorf("model = %v, want m", body["model"])
	}
	if body["max_tokens"] != float64(100) {
		t.Errorf("max_tokens = %v, want 100", body["max_tokens"])
	}
	if _, ok := body["response_format"]; !ok {
		t.Error("response_format missing in JSON mode")
	}
	if msgs, _ := body["messages"].([]any); len(msgs) != 2 {
		t.Errorf("len(messages) = %d, want 2", len(msgs))
	}
}

func TestComplete_NoChoicesIsEmpty(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"choices":[]}`, nil)
	c := openai.NewClient(openai.Config{APIKey: "test-key", BaseURL: srv.URL}, nil)
	got, err := c.Complete(context.Background(), llm.Prompt{User: "x"})
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if got != "" {
		t.Errorf("Complete = %q, want empty", got)
	}
}

func TestComplete_HTTPError(t *testing.T) {
	srv := newServer(t, http.StatusTooManyRequests, `{"error":{"message":"slow down"}}`, nil)
	c := openai.NewClient(openai.Config{APIKey: "test-key", BaseURL: srv.URL}, nil)
	_, err := c.Complete(context.Background(), llm.Prompt{User: "x"})
	var se *llm.HTTPStatusError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want *HTTPStatusError", err)
	}
	if se.Status != http.StatusTooManyRequests || !se.Retryable() {
		t.Errorf("status = %d retryable = %v", se.Status, se.Retryable())
	}
}
