package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ytserve/internal/services"
)

const (
	defaultBaseURL     = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel       = "gemini-2.0-flash"
	defaultHTTPTimeout = 60 * time.Second
	maxErrorBody       = 4 << 10
)

// SummaryPrompt is prepended to every transcript sent for summarization.
const SummaryPrompt = `Please provide a concise summary of this video transcript. Focus on:
- Main topics and key points
- Important details and conclusions
- Keep the summary clear and well-structured

Transcript:`

// Config captures the runtime settings required to talk to Gemini.
type Config struct {
	BaseURL        string
	Model          string
	TimeoutSeconds int
}

// Client calls the Gemini generateContent API.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a Gemini client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			Model:          strings.TrimSpace(cfg.Model),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	if client.cfg.Model == "" {
		client.cfg.Model = defaultModel
	}
	return client
}

// Model returns the model name requests are sent to.
func (c *Client) Model() string {
	return c.cfg.Model
}

type httpStatusError struct {
	StatusCode int
	Status     string
	Message    string
	Reason     string
}

func (e *httpStatusError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("gemini request: http %d: %s", e.StatusCode, msg)
}

// invalidKey reports whether the API rejected the caller's key.
func (e *httpStatusError) invalidKey() bool {
	if e.Reason == "API_KEY_INVALID" {
		return true
	}
	return strings.Contains(strings.ToLower(e.Message), "api key not valid")
}

type blockedError struct {
	Reason string
}

func (e *blockedError) Error() string {
	return fmt.Sprintf("content blocked: %s", e.Reason)
}

type emptyContentError struct {
	FinishReason string
}

func (e *emptyContentError) Error() string {
	return fmt.Sprintf("gemini response: empty content (finish_reason=%q)", e.FinishReason)
}

// Summarize asks the model for a summary of text using apiKey for this call only.
func (c *Client) Summarize(ctx context.Context, apiKey, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", services.Wrap(services.ErrValidation, "gemini", "summarize", "No text provided", nil)
	}
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return "", services.Wrap(services.ErrUnauthorized, "gemini", "summarize", "No API key provided", nil)
	}
	return c.Generate(ctx, apiKey, SummaryPrompt+"\n"+text)
}

// Generate sends a single-turn prompt and returns the concatenated text of the
// first candidate.
func (c *Client) Generate(ctx context.Context, apiKey, prompt string) (string, error) {
	payload := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("gemini request: encode: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.cfg.BaseURL, url.PathEscape(c.cfg.Model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("gemini request: build: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "gemini", "generate", "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := decodeStatusError(resp)
		if statusErr.invalidKey() {
			return "", services.Wrap(services.ErrUnauthorized, "gemini", "generate", "invalid api key", statusErr)
		}
		return "", services.Wrap(services.ErrExternalTool, "gemini", "generate", "", statusErr)
	}

	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "gemini", "generate", "decode response", err)
	}
	return extractText(decoded)
}

// HealthCheck verifies that apiKey can see the configured model without
// generating any content.
func (c *Client) HealthCheck(ctx context.Context, apiKey string) error {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return services.Wrap(services.ErrUnauthorized, "gemini", "health", "No API key provided", nil)
	}
	endpoint := fmt.Sprintf("%s/models/%s", c.cfg.BaseURL, url.PathEscape(c.cfg.Model))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("gemini health: build: %w", err)
	}
	req.Header.Set("x-goog-api-key", apiKey)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "gemini", "health", "request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := decodeStatusError(resp)
		if statusErr.invalidKey() {
			return services.Wrap(services.ErrUnauthorized, "gemini", "health", "invalid api key", statusErr)
		}
		return services.Wrap(services.ErrExternalTool, "gemini", "health", "", statusErr)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func decodeStatusError(resp *http.Response) *httpStatusError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	statusErr := &httpStatusError{StatusCode: resp.StatusCode}
	var envelope errorEnvelope
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error.Message != "" {
		statusErr.Message = envelope.Error.Message
		statusErr.Status = envelope.Error.Status
		for _, detail := range envelope.Error.Details {
			if detail.Reason != "" {
				statusErr.Reason = detail.Reason
				break
			}
		}
		return statusErr
	}
	statusErr.Message = strings.TrimSpace(string(raw))
	return statusErr
}

func extractText(resp generateResponse) (string, error) {
	if reason := resp.PromptFeedback.BlockReason; reason != "" {
		return "", services.Wrap(services.ErrExternalTool, "gemini", "generate", "", &blockedError{Reason: reason})
	}
	if len(resp.Candidates) == 0 {
		return "", services.Wrap(services.ErrExternalTool, "gemini", "generate", "", &emptyContentError{})
	}
	candidate := resp.Candidates[0]
	var sb strings.Builder
	for _, p := range candidate.Content.Parts {
		sb.WriteString(p.Text)
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", services.Wrap(services.ErrExternalTool, "gemini", "generate", "", &emptyContentError{FinishReason: candidate.FinishReason})
	}
	return text, nil
}

// IsInvalidKey reports whether err carries an API key rejection.
func IsInvalidKey(err error) bool {
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		return statusErr.invalidKey()
	}
	return false
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

type errorEnvelope struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
		Details []struct {
			Reason string `json:"reason"`
		} `json:"details"`
	} `json:"error"`
}
