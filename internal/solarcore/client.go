package solarcore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"solarrec/internal/services"
)

// Client abstracts the remote Core endpoints the sync engine needs.
type Client interface {
	// Health probes the Core's liveness endpoint with a short deadline.
	Health(ctx context.Context) error
	// Import delivers one recording envelope.
	Import(ctx context.Context, payload Payload) (ImportResult, error)
}

// ImportResult captures what the Core said about one delivery attempt.
type ImportResult struct {
	StatusCode int
	RemoteID   string
	Body       string
}

// HTTPClient talks to a Solar Core instance over HTTP.
type HTTPClient struct {
	baseURL      string
	apiKey       string
	httpClient   *http.Client
	probeTimeout time.Duration
}

// Option customizes HTTPClient construction.
type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying client, used by tests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *HTTPClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewHTTPClient builds a Core client. The request timeout bounds imports;
// the probe timeout bounds health checks.
func NewHTTPClient(baseURL, apiKey string, requestTimeout, probeTimeout time.Duration, opts ...Option) *HTTPClient {
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}
	if probeTimeout <= 0 {
		probeTimeout = 5 * time.Second
	}
	c := &HTTPClient{
		baseURL:      strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:       strings.TrimSpace(apiKey),
		httpClient:   &http.Client{Timeout: requestTimeout},
		probeTimeout: probeTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Health implements Client.
func (c *HTTPClient) Health(ctx context.Context) error {
	probeCtx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return services.Wrap(services.ErrUnreachable, "sync", "probe core", "cannot build health request", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrUnreachable, "sync", "probe core", "health probe failed", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return services.Wrap(services.ErrUnreachable, "sync", "probe core",
			fmt.Sprintf("health probe returned status %d", resp.StatusCode), nil)
	}
	return nil
}

// Import implements Client. 200 and 201 both count as accepted; the Core
// returns either depending on whether the recording already existed there.
func (c *HTTPClient) Import(ctx context.Context, payload Payload) (ImportResult, error) {
	var result ImportResult

	body, err := json.Marshal(payload)
	if err != nil {
		return result, services.Wrap(services.ErrUpstream, "sync", "encode payload", "cannot marshal import envelope", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/import/record", bytes.NewReader(body))
	if err != nil {
		return result, services.Wrap(services.ErrUpstream, "sync", "build request", "cannot build import request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return result, services.Wrap(services.ErrTimeout, "sync", "deliver record", "import cancelled", err)
		}
		return result, services.Wrap(services.ErrUnreachable, "sync", "deliver record", "import request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return result, services.Wrap(services.ErrUpstream, "sync", "read response", "cannot read import response", err)
	}
	result.StatusCode = resp.StatusCode
	result.Body = strings.TrimSpace(string(raw))

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return result, services.Wrap(services.ErrDeliveryRejected, "sync", "deliver record",
			fmt.Sprintf("core returned status %d: %s", resp.StatusCode, result.Body), nil)
	}

	result.RemoteID = extractRemoteID(raw)
	return result, nil
}

// extractRemoteID pulls the Core-assigned identifier out of the response.
// Both "id" and "solar_core_id" spellings occur in the wild.
func extractRemoteID(raw []byte) string {
	var parsed struct {
		ID          any `json:"id"`
		SolarCoreID any `json:"solar_core_id"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return ""
	}
	for _, candidate := range []any{parsed.ID, parsed.SolarCoreID} {
		switch v := candidate.(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}
