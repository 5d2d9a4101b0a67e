package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"solarrec/internal/api"
)

// daemonClient talks to the solarrecd HTTP API.
type daemonClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func newDaemonClient(address, token string) *daemonClient {
	base := strings.TrimSpace(address)
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return &daemonClient{
		baseURL:    strings.TrimRight(base, "/"),
		token:      strings.TrimSpace(token),
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
}

func (c *daemonClient) ListRecordings(ctx context.Context) ([]api.RecordingView, error) {
	var payload struct {
		Recordings []api.RecordingView `json:"recordings"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/recordings", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Recordings, nil
}

func (c *daemonClient) GetRecording(ctx context.Context, id string) (api.RecordingView, error) {
	var view api.RecordingView
	err := c.doJSON(ctx, http.MethodGet, "/api/recordings/"+id, nil, &view)
	return view, err
}

func (c *daemonClient) RunStage(ctx context.Context, id, stage string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/recordings/"+id+"/stages/"+stage, nil, nil)
}

func (c *daemonClient) Translate(ctx context.Context, id, language string) (api.TranslationView, error) {
	var view api.TranslationView
	body := map[string]string{"target_language": language}
	err := c.doJSON(ctx, http.MethodPost, "/api/recordings/"+id+"/translate", body, &view)
	return view, err
}

// Sync requests delivery to Solar Core. A failed delivery still carries an
// outcome body, so bad-gateway responses are decoded rather than treated as
// transport errors.
func (c *daemonClient) Sync(ctx context.Context, id string, metadata map[string]any) (api.SyncOutcomeView, error) {
	var view api.SyncOutcomeView

	raw, err := json.Marshal(map[string]any{"metadata": metadata})
	if err != nil {
		return view, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/recordings/"+id+"/sync", bytes.NewReader(raw))
	if err != nil {
		return view, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return view, wrapConnectError(err, c.baseURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusBadGateway {
		return view, decodeAPIError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		return view, fmt.Errorf("decode response: %w", err)
	}
	return view, nil
}

func (c *daemonClient) SyncStatus(ctx context.Context, id string) (api.SyncStatusView, error) {
	var view api.SyncStatusView
	err := c.doJSON(ctx, http.MethodGet, "/api/recordings/"+id+"/sync", nil, &view)
	return view, err
}

func (c *daemonClient) DeleteRecording(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/recordings/"+id, nil, nil)
}

func (c *daemonClient) Status(ctx context.Context) (api.StatusView, error) {
	var view api.StatusView
	err := c.doJSON(ctx, http.MethodGet, "/api/status", nil, &view)
	return view, err
}

// Upload streams a capture to the daemon as a multipart form.
func (c *daemonClient) Upload(ctx context.Context, videoPath, microphonePath, displayName string, durationSeconds float64) (api.RecordingView, error) {
	var view api.RecordingView

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := addFilePart(writer, "video", videoPath); err != nil {
		return view, err
	}
	if microphonePath != "" {
		if err := addFilePart(writer, "microphone", microphonePath); err != nil {
			return view, err
		}
	}
	if displayName != "" {
		if err := writer.WriteField("display_name", displayName); err != nil {
			return view, err
		}
	}
	if durationSeconds > 0 {
		if err := writer.WriteField("duration_seconds", strconv.FormatFloat(durationSeconds, 'f', -1, 64)); err != nil {
			return view, err
		}
	}
	if err := writer.Close(); err != nil {
		return view, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/recordings", &body)
	if err != nil {
		return view, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return view, wrapConnectError(err, c.baseURL)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return view, decodeAPIError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		return view, fmt.Errorf("decode response: %w", err)
	}
	return view, nil
}

func addFilePart(writer *multipart.Writer, field, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	part, err := writer.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return err
	}
	_, err = io.Copy(part, file)
	return err
}

func (c *daemonClient) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return wrapConnectError(err, c.baseURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeAPIError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *daemonClient) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func decodeAPIError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Error != "" {
		return fmt.Errorf("%s (status %d)", payload.Error, resp.StatusCode)
	}
	return fmt.Errorf("daemon returned status %d", resp.StatusCode)
}

func wrapConnectError(err error, baseURL string) error {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return fmt.Errorf("connect to daemon at %s: connection refused; verify solarrecd is running", baseURL)
	}
	return fmt.Errorf("connect to daemon: %w", err)
}
