package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"solarrec/internal/api"
)

func TestDaemonClientSendsBearerToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(api.StatusView{})
	}))
	defer server.Close()

	client := newDaemonClient(server.URL, "secret")
	if _, err := client.Status(context.Background()); err != nil {
		t.Fatalf("status: %v", err)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("unexpected authorization header %q", gotAuth)
	}
}

func TestDaemonClientNormalizesBareAddress(t *testing.T) {
	client := newDaemonClient("127.0.0.1:7489", "")
	if client.baseURL != "http://127.0.0.1:7489" {
		t.Fatalf("unexpected base URL %q", client.baseURL)
	}

	client = newDaemonClient("http://example.test:9000/", "")
	if client.baseURL != "http://example.test:9000" {
		t.Fatalf("unexpected base URL %q", client.baseURL)
	}
}

func TestDaemonClientDecodesErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"error": "stage is already running"})
	}))
	defer server.Close()

	client := newDaemonClient(server.URL, "")
	err := client.RunStage(context.Background(), "rec-1", "transcode")
	if err == nil || !strings.Contains(err.Error(), "stage is already running") {
		t.Fatalf("expected decoded error, got %v", err)
	}
	if !strings.Contains(err.Error(), "409") {
		t.Fatalf("expected status code in error, got %v", err)
	}
}
