package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"solarrec/internal/api"
)

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func sampleRecordingView(id string) api.RecordingView {
	return api.RecordingView{
		ID:          id,
		DisplayName: "Weekly Standup",
		Stages: map[string]string{
			"transcode":       "done",
			"transcribe":      "done",
			"translate":       "pending",
			"render_document": "done",
		},
		SyncStatus: "unsynced",
		CreatedAt:  time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC),
		UpdatedAt:  time.Date(2026, 2, 10, 9, 45, 0, 0, time.UTC),
	}
}

func TestListCommandRendersTable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/recordings" || r.Method != http.MethodGet {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"recordings": []api.RecordingView{sampleRecordingView("rec-1")},
		})
	}))
	defer server.Close()

	out, err := executeCommand(t, "list", "--address", server.URL)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "rec-1") || !strings.Contains(out, "Weekly Standup") {
		t.Fatalf("table output missing recording: %s", out)
	}
}

func TestListCommandEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"recordings": []api.RecordingView{}})
	}))
	defer server.Close()

	out, err := executeCommand(t, "list", "--address", server.URL)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "No recordings") {
		t.Fatalf("expected empty message, got: %s", out)
	}
}

func TestShowCommandJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/recordings/rec-7" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(sampleRecordingView("rec-7"))
	}))
	defer server.Close()

	out, err := executeCommand(t, "show", "rec-7", "--json", "--address", server.URL)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	var view api.RecordingView
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decode json output: %v", err)
	}
	if view.ID != "rec-7" {
		t.Fatalf("unexpected view %+v", view)
	}
}

func TestShowCommandNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "recording not found"})
	}))
	defer server.Close()

	_, err := executeCommand(t, "show", "missing", "--address", server.URL)
	if err == nil || !strings.Contains(err.Error(), "recording not found") {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestRunStageCommand(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]string{"status": "started"})
	}))
	defer server.Close()

	out, err := executeCommand(t, "run", "rec-1", "transcribe", "--address", server.URL)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if gotPath != "/api/recordings/rec-1/stages/transcribe" {
		t.Fatalf("unexpected path %s", gotPath)
	}
	if !strings.Contains(out, "started") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestTranslateCommandWarnsWhenDegraded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			TargetLanguage string `json:"target_language"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		if body.TargetLanguage != "ru" {
			t.Errorf("unexpected target language %q", body.TargetLanguage)
		}
		json.NewEncoder(w).Encode(api.TranslationView{
			RecordingID:    "rec-1",
			TargetLanguage: "ru",
			Path:           "/tmp/rec-1_ru.txt",
			Degraded:       true,
		})
	}))
	defer server.Close()

	out, err := executeCommand(t, "translate", "rec-1", "RU", "--address", server.URL)
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if !strings.Contains(out, "rec-1_ru.txt") || !strings.Contains(out, "not configured") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestSyncCommandReportsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(api.SyncOutcomeView{
			RecordingID: "rec-1",
			Status:      "failed",
			Attempts:    3,
			Message:     "core unreachable",
		})
	}))
	defer server.Close()

	out, err := executeCommand(t, "sync", "rec-1", "--address", server.URL)
	if err == nil {
		t.Fatal("expected sync failure error")
	}
	if !strings.Contains(out, "core unreachable") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestSyncCommandSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(api.SyncOutcomeView{
			RecordingID: "rec-1",
			Status:      "synced",
			RemoteID:    "SC-42",
			Attempts:    1,
		})
	}))
	defer server.Close()

	out, err := executeCommand(t, "sync", "rec-1", "--address", server.URL)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if !strings.Contains(out, "SC-42") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestSyncLogCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(api.SyncStatusView{
			RecordingID: "rec-1",
			SyncStatus:  "synced",
			RemoteID:    "SC-42",
			History: []api.SyncLogEntryView{
				{Status: "syncing", Timestamp: time.Now()},
				{Status: "synced", Timestamp: time.Now(), RemoteResponse: "remote_id=SC-42"},
			},
		})
	}))
	defer server.Close()

	out, err := executeCommand(t, "synclog", "rec-1", "--address", server.URL)
	if err != nil {
		t.Fatalf("synclog: %v", err)
	}
	if !strings.Contains(out, "syncing") || !strings.Contains(out, "SC-42") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestStatusCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(api.StatusView{
			Recordings: 2,
			SyncCounts: map[string]int{"unsynced": 1, "synced": 1},
			Stages: []api.StageHealthView{
				{Name: "transcode", Ready: true},
				{Name: "transcribe", Ready: false, Detail: "whisper unavailable"},
			},
		})
	}))
	defer server.Close()

	out, err := executeCommand(t, "status", "--address", server.URL)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "Recordings: 2") || !strings.Contains(out, "whisper unavailable") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestAddCommandUploadsMultipart(t *testing.T) {
	videoPath := filepath.Join(t.TempDir(), "capture.webm")
	if err := os.WriteFile(videoPath, []byte("webm-bytes"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if _, _, err := r.FormFile("video"); err != nil {
			t.Errorf("video part missing: %v", err)
		}
		if got := r.FormValue("display_name"); got != "Demo" {
			t.Errorf("unexpected display name %q", got)
		}
		if got := r.FormValue("duration_seconds"); got != "12.5" {
			t.Errorf("unexpected duration %q", got)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(sampleRecordingView("rec-9"))
	}))
	defer server.Close()

	out, err := executeCommand(t, "add", videoPath,
		"--name", "Demo", "--duration", "12.5", "--address", server.URL)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !strings.Contains(out, "rec-9") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestDeleteCommand(t *testing.T) {
	var gotMethod string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
	}))
	defer server.Close()

	out, err := executeCommand(t, "delete", "rec-1", "--address", server.URL)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if gotMethod != http.MethodDelete {
		t.Fatalf("unexpected method %s", gotMethod)
	}
	if !strings.Contains(out, "deleted") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	out, err := executeCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("unexpected output: %s", out)
	}
	raw, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(raw), "[solar_core]") {
		t.Fatalf("sample config missing solar_core section")
	}

	if _, err := executeCommand(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected error when config already exists")
	}
}
