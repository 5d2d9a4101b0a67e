package transcoding_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"solarrec/internal/artifacts"
	"solarrec/internal/recording"
	"solarrec/internal/services"
	"solarrec/internal/transcoding"
)

type fakeFFmpeg struct {
	convertErr   error
	availableErr error
}

func (f *fakeFFmpeg) Convert(ctx context.Context, source, dest string) error {
	if f.convertErr != nil {
		return f.convertErr
	}
	return os.WriteFile(dest, []byte("mp4"), 0o644)
}

func (f *fakeFFmpeg) Merge(ctx context.Context, primary, secondary, dest string) error { return nil }

func (f *fakeFFmpeg) Available(ctx context.Context) error { return f.availableErr }

func newArtifacts(t *testing.T) *artifacts.Store {
	t.Helper()
	store, err := artifacts.NewStore(filepath.Join(t.TempDir(), "recordings"))
	if err != nil {
		t.Fatalf("open artifacts: %v", err)
	}
	return store
}

func TestExecuteProducesMP4(t *testing.T) {
	artifactStore := newArtifacts(t)
	handler := transcoding.NewTranscoder(artifactStore, &fakeFFmpeg{}, nil)

	primary, err := artifactStore.Save("rec1", artifacts.KindPrimary, strings.NewReader("webm"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	rec := &recording.Recording{ID: "rec1", PrimaryPath: primary}

	result, err := handler.Execute(context.Background(), rec)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Artifact != artifactStore.Path("rec1", artifacts.KindMP4) {
		t.Fatalf("unexpected artifact %q", result.Artifact)
	}
	if !artifacts.Exists(result.Artifact) {
		t.Fatal("mp4 file missing")
	}
}

func TestExecutePrefersMergedSource(t *testing.T) {
	artifactStore := newArtifacts(t)
	var converted string
	client := &fakeFFmpeg{}
	handler := transcoding.NewTranscoder(artifactStore, clientFunc{client, &converted}, nil)

	merged, err := artifactStore.Save("rec1", artifacts.KindMerged, strings.NewReader("merged"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	rec := &recording.Recording{ID: "rec1", PrimaryPath: "/nonexistent.webm", MergedPath: merged}

	if _, err := handler.Execute(context.Background(), rec); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if converted != merged {
		t.Fatalf("expected merged source, converted %q", converted)
	}
}

type clientFunc struct {
	inner    *fakeFFmpeg
	captured *string
}

func (c clientFunc) Convert(ctx context.Context, source, dest string) error {
	*c.captured = source
	return c.inner.Convert(ctx, source, dest)
}

func (c clientFunc) Merge(ctx context.Context, primary, secondary, dest string) error { return nil }

func (c clientFunc) Available(ctx context.Context) error { return nil }

func TestExecuteMissingSourceIsConflict(t *testing.T) {
	handler := transcoding.NewTranscoder(newArtifacts(t), &fakeFFmpeg{}, nil)
	rec := &recording.Recording{ID: "rec1", PrimaryPath: "/missing.webm"}

	_, err := handler.Execute(context.Background(), rec)
	if !errors.Is(err, services.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestHealthCheck(t *testing.T) {
	artifactStore := newArtifacts(t)
	if health := transcoding.NewTranscoder(artifactStore, &fakeFFmpeg{}, nil).HealthCheck(context.Background()); !health.Ready {
		t.Fatalf("expected healthy, got %+v", health)
	}
	broken := &fakeFFmpeg{availableErr: errors.New("no binary")}
	if health := transcoding.NewTranscoder(artifactStore, broken, nil).HealthCheck(context.Background()); health.Ready {
		t.Fatal("expected unhealthy")
	}
}
