package deepseek_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"solarrec/internal/services"
	"solarrec/internal/services/deepseek"
)

func TestTranslatePlaceholderWhenUnconfigured(t *testing.T) {
	client := deepseek.NewHTTP("https://api.deepseek.com", "", "deepseek-chat", time.Second)

	got, err := client.Translate(t.Context(), "hello", "en", "ru")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if got != deepseek.PlaceholderUnavailable {
		t.Fatalf("expected placeholder, got %q", got)
	}
	if client.Configured() {
		t.Fatal("client without key must report unconfigured")
	}
}

func TestTranslateSendsChatRequest(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Fatalf("unexpected auth header %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":" привет "}}]}`))
	}))
	defer server.Close()

	client := deepseek.NewHTTP(server.URL, "sk-test", "deepseek-chat", time.Second)
	got, err := client.Translate(t.Context(), "hello", "en", "ru")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if got != "привет" {
		t.Fatalf("unexpected translation %q", got)
	}
	if captured["model"] != "deepseek-chat" {
		t.Fatalf("unexpected model %v", captured["model"])
	}
	messages, ok := captured["messages"].([]any)
	if !ok || len(messages) != 2 {
		t.Fatalf("unexpected messages %v", captured["messages"])
	}
	system := messages[0].(map[string]any)
	if !strings.Contains(system["content"].(string), "English") || !strings.Contains(system["content"].(string), "Russian") {
		t.Fatalf("prompt should name both languages: %v", system["content"])
	}
}

func TestTranslateRejectsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := deepseek.NewHTTP(server.URL, "sk-test", "deepseek-chat", time.Second)
	_, err := client.Translate(t.Context(), "hello", "en", "ru")
	if !errors.Is(err, services.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	if !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected status in error, got %v", err)
	}
}

func TestTranslateRejectsEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client := deepseek.NewHTTP(server.URL, "sk-test", "deepseek-chat", time.Second)
	if _, err := client.Translate(t.Context(), "hello", "en", "ru"); err == nil {
		t.Fatal("expected error for empty choices")
	}
}
