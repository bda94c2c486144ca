package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ytserve/internal/services"
)

func TestSummarizeSendsPromptAndKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method %s", r.Method)
		}
		if r.URL.Path != "/models/demo-model:generateContent" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("x-goog-api-key"); got != "secret" {
			t.Fatalf("unexpected api key header %q", got)
		}
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		prompt := req.Contents[0].Parts[0].Text
		if !strings.HasPrefix(prompt, SummaryPrompt) || !strings.HasSuffix(prompt, "\nhello world") {
			t.Fatalf("unexpected prompt %q", prompt)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{
				map[string]any{
					"content": map[string]any{
						"parts": []any{map[string]any{"text": "A short "}, map[string]any{"text": "summary."}},
					},
					"finishReason": "STOP",
				},
			},
		})
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL + "/", Model: "demo-model"})
	summary, err := client.Summarize(context.Background(), "secret", "  hello world ")
	if err != nil {
		t.Fatalf("Summarize returned error: %v", err)
	}
	if summary != "A short summary." {
		t.Fatalf("unexpected summary %q", summary)
	}
}

func TestSummarizeValidatesInput(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:1"})
	if _, err := client.Summarize(context.Background(), "key", "   "); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := client.Summarize(context.Background(), "", "text"); !errors.Is(err, services.ErrUnauthorized) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func TestSummarizeInvalidKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"API key not valid. Please pass a valid API key.","status":"INVALID_ARGUMENT","details":[{"reason":"API_KEY_INVALID"}]}}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, Model: "demo"})
	_, err := client.Summarize(context.Background(), "bad", "text")
	if !errors.Is(err, services.ErrUnauthorized) {
		t.Fatalf("expected unauthorized marker, got %v", err)
	}
	if !IsInvalidKey(err) {
		t.Fatal("expected IsInvalidKey to match")
	}
	if !strings.Contains(err.Error(), "API key not valid") {
		t.Fatalf("expected upstream message in error, got %v", err)
	}
}

func TestSummarizeServerErrorIsExternal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("upstream exploded"))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	_, err := client.Summarize(context.Background(), "key", "text")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool marker, got %v", err)
	}
	if IsInvalidKey(err) {
		t.Fatal("server error should not be reported as invalid key")
	}
	if !strings.Contains(err.Error(), "upstream exploded") {
		t.Fatalf("expected raw body in error, got %v", err)
	}
}

func TestSummarizeBlockedPrompt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"promptFeedback":{"blockReason":"SAFETY"}}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	_, err := client.Summarize(context.Background(), "key", "text")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool marker, got %v", err)
	}
	var blocked *blockedError
	if !errors.As(err, &blocked) || blocked.Reason != "SAFETY" {
		t.Fatalf("expected blocked error, got %v", err)
	}
}

func TestSummarizeEmptyCandidate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[]},"finishReason":"MAX_TOKENS"}]}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	_, err := client.Summarize(context.Background(), "key", "text")
	var empty *emptyContentError
	if !errors.As(err, &empty) || empty.FinishReason != "MAX_TOKENS" {
		t.Fatalf("expected empty content error, got %v", err)
	}
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient(Config{})
	if client.cfg.BaseURL != defaultBaseURL {
		t.Fatalf("unexpected base url %q", client.cfg.BaseURL)
	}
	if client.Model() != defaultModel {
		t.Fatalf("unexpected model %q", client.Model())
	}
	if client.httpClient.Timeout != defaultHTTPTimeout {
		t.Fatalf("unexpected timeout %v", client.httpClient.Timeout)
	}
}

func TestHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/models/demo-model" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "good" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"code":400,"message":"API key not valid. Please pass a valid API key.","status":"INVALID_ARGUMENT","details":[{"reason":"API_KEY_INVALID"}]}}`))
			return
		}
		_, _ = w.Write([]byte(`{"name":"models/demo-model"}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, Model: "demo-model"})
	if err := client.HealthCheck(context.Background(), "good"); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
	err := client.HealthCheck(context.Background(), "bad")
	if !errors.Is(err, services.ErrUnauthorized) || !IsInvalidKey(err) {
		t.Fatalf("expected invalid key error, got %v", err)
	}
	if err := client.HealthCheck(context.Background(), ""); !errors.Is(err, services.ErrUnauthorized) {
		t.Fatalf("expected missing key error, got %v", err)
	}
}
