package synclog_test

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"solarrec/internal/synclog"
)

func openStore(t *testing.T) *synclog.Store {
	t.Helper()
	store, err := synclog.OpenPath(filepath.Join(t.TempDir(), "solarrec.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAppendAndHistoryOrder(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	for _, status := range []synclog.Status{synclog.StatusSyncing, synclog.StatusRetry, synclog.StatusSynced} {
		if err := store.Append(ctx, synclog.Entry{RecordingID: "rec1", Status: status}); err != nil {
			t.Fatalf("append %s: %v", status, err)
		}
	}

	entries, err := store.History(ctx, "rec1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	want := []synclog.Status{synclog.StatusSyncing, synclog.StatusRetry, synclog.StatusSynced}
	for i, entry := range entries {
		if entry.Status != want[i] {
			t.Fatalf("entry %d: got %s want %s", i, entry.Status, want[i])
		}
	}

	latest, err := store.Latest(ctx, "rec1")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest == nil || latest.Status != synclog.StatusSynced {
		t.Fatalf("unexpected latest entry: %+v", latest)
	}
}

func TestAppendValidation(t *testing.T) {
	store := openStore(t)
	if err := store.Append(context.Background(), synclog.Entry{Status: synclog.StatusSynced}); err == nil {
		t.Fatal("expected error for missing recording id")
	}
	if err := store.Append(context.Background(), synclog.Entry{RecordingID: "rec1"}); err == nil {
		t.Fatal("expected error for missing status")
	}
}

func TestConcurrentAppendsAllSurvive(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	const writers = 8

	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			errs <- store.Append(ctx, synclog.Entry{
				RecordingID:  "rec1",
				Status:       synclog.StatusRetry,
				ErrorMessage: fmt.Sprintf("attempt %d", n),
				RetryCount:   n,
			})
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	entries, err := store.History(ctx, "rec1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != writers {
		t.Fatalf("expected %d entries, got %d", writers, len(entries))
	}
}

func TestHistoryIsolatedPerRecording(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	if err := store.Append(ctx, synclog.Entry{RecordingID: "rec1", Status: synclog.StatusSynced}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Append(ctx, synclog.Entry{RecordingID: "rec2", Status: synclog.StatusFailed}); err != nil {
		t.Fatalf("append: %v", err)
	}

	if err := store.Purge(ctx, "rec1"); err != nil {
		t.Fatalf("purge: %v", err)
	}
	entries, err := store.History(ctx, "rec1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 0 {
		t.Fatal("purged history should be empty")
	}
	others, err := store.History(ctx, "rec2")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(others) != 1 {
		t.Fatal("other recording's history must survive")
	}
}
