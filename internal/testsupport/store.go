package testsupport

import (
	"context"
	"testing"

	"solarrec/internal/config"
	"solarrec/internal/recording"
	"solarrec/internal/synclog"
)

// MustOpenStore opens a recording.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *recording.Store {
	t.Helper()

	store, err := recording.Open(cfg)
	if err != nil {
		t.Fatalf("recording.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustOpenSyncLog opens a synclog.Store for tests and registers cleanup.
func MustOpenSyncLog(t testing.TB, cfg *config.Config) *synclog.Store {
	t.Helper()

	log, err := synclog.Open(cfg)
	if err != nil {
		t.Fatalf("synclog.Open: %v", err)
	}
	t.Cleanup(func() {
		log.Close()
	})
	return log
}

// NewRecording creates a recording row for tests using the provided store.
func NewRecording(t testing.TB, store *recording.Store, id string) *recording.Recording {
	t.Helper()

	rec := &recording.Recording{ID: id, DisplayName: id, PrimaryPath: "/tmp/" + id + ".webm"}
	if err := store.Create(context.Background(), rec); err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	return rec
}
