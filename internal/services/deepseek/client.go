package deepseek

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"solarrec/internal/services"
)

// PlaceholderUnavailable is stored as the translation body when no API key is
// configured. Translation degrades gracefully instead of failing the request.
const PlaceholderUnavailable = "[Translation unavailable - DeepSeek API key not configured]"

// PlaceholderFailure renders the translation body stored when the backend
// errors mid-request. The cause is kept in the body for operators.
func PlaceholderFailure(err error) string {
	return "[Translation failed: " + err.Error() + "]"
}

// Client abstracts text translation for the translate stage.
type Client interface {
	Translate(ctx context.Context, text, sourceLanguage, targetLanguage string) (string, error)
	Configured() bool
}

// HTTP talks to the DeepSeek chat completions API.
type HTTP struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// Option customizes HTTP construction.
type Option func(*HTTP)

// WithHTTPClient replaces the underlying client, used by tests.
func WithHTTPClient(client *http.Client) Option {
	return func(h *HTTP) {
		if client != nil {
			h.httpClient = client
		}
	}
}

// NewHTTP builds a DeepSeek client. An empty API key produces a client that
// returns the unavailable placeholder for every request.
func NewHTTP(baseURL, apiKey, model string, timeout time.Duration, opts ...Option) *HTTP {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	h := &HTTP{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:     strings.TrimSpace(apiKey),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Configured implements Client.
func (h *HTTP) Configured() bool {
	return h.apiKey != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Translate implements Client. Without an API key it returns the placeholder
// text so callers can store a degraded translation rather than an error.
func (h *HTTP) Translate(ctx context.Context, text, sourceLanguage, targetLanguage string) (string, error) {
	if !h.Configured() {
		return PlaceholderUnavailable, nil
	}
	if strings.TrimSpace(text) == "" {
		return "", services.Wrap(services.ErrUpstream, "translate", "translate", "empty source text", nil)
	}

	prompt := fmt.Sprintf(
		"You are a professional translator. Translate the following text from %s to %s. Preserve the meaning and tone. Return only the translated text.",
		languageName(sourceLanguage), languageName(targetLanguage))
	body, err := json.Marshal(chatRequest{
		Model: h.model,
		Messages: []chatMessage{
			{Role: "system", Content: prompt},
			{Role: "user", Content: text},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return "", services.Wrap(services.ErrUpstream, "translate", "encode request", "cannot marshal chat request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", services.Wrap(services.ErrUpstream, "translate", "build request", "cannot build chat request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+h.apiKey)

	resp, err := h.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", services.Wrap(services.ErrTimeout, "translate", "call deepseek", "request cancelled", err)
		}
		return "", services.Wrap(services.ErrUpstream, "translate", "call deepseek", "request failed", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", services.Wrap(services.ErrUpstream, "translate", "read response", "cannot read response body", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", services.Wrap(services.ErrUpstream, "translate", "call deepseek",
			fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload))), nil)
	}

	var parsed chatResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return "", services.Wrap(services.ErrUpstream, "translate", "decode response", "malformed chat response", err)
	}
	if len(parsed.Choices) == 0 {
		return "", services.Wrap(services.ErrUpstream, "translate", "decode response", "chat response carried no choices", nil)
	}
	translated := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if translated == "" {
		return "", services.Wrap(services.ErrUpstream, "translate", "decode response", "chat response carried empty text", nil)
	}
	return translated, nil
}

// languageName expands an ISO code to an English display name for the prompt.
func languageName(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return "the detected language"
	}
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return code
}
