package rendering_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"solarrec/internal/artifacts"
	"solarrec/internal/recording"
	"solarrec/internal/rendering"
	"solarrec/internal/services"
)

type fakePandoc struct {
	titles []string
	err    error
}

func (f *fakePandoc) Render(ctx context.Context, transcriptPath, title, dest string) error {
	f.titles = append(f.titles, title)
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(dest, []byte("%PDF"), 0o644)
}

func (f *fakePandoc) Available(ctx context.Context) error { return nil }

func newArtifacts(t *testing.T) *artifacts.Store {
	t.Helper()
	store, err := artifacts.NewStore(filepath.Join(t.TempDir(), "recordings"))
	if err != nil {
		t.Fatalf("open artifacts: %v", err)
	}
	return store
}

func TestExecuteRendersDocument(t *testing.T) {
	artifactStore := newArtifacts(t)
	client := &fakePandoc{}
	handler := rendering.NewRenderer(artifactStore, client, nil)

	transcript, err := artifactStore.SaveText("rec1", artifacts.KindTranscript, "notes")
	if err != nil {
		t.Fatalf("save transcript: %v", err)
	}
	rec := &recording.Recording{ID: "rec1", DisplayName: "Weekly Standup", TranscriptPath: transcript}

	result, err := handler.Execute(context.Background(), rec)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Artifact != artifactStore.Path("rec1", artifacts.KindDocument) {
		t.Fatalf("unexpected artifact %q", result.Artifact)
	}
	if len(client.titles) != 1 || client.titles[0] != "Weekly Standup" {
		t.Fatalf("display name should title the document: %v", client.titles)
	}
}

func TestExecuteFallsBackToIDTitle(t *testing.T) {
	artifactStore := newArtifacts(t)
	client := &fakePandoc{}
	handler := rendering.NewRenderer(artifactStore, client, nil)

	transcript, err := artifactStore.SaveText("rec1", artifacts.KindTranscript, "notes")
	if err != nil {
		t.Fatalf("save transcript: %v", err)
	}
	rec := &recording.Recording{ID: "rec1", TranscriptPath: transcript}

	if _, err := handler.Execute(context.Background(), rec); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if client.titles[0] != "rec1" {
		t.Fatalf("expected id as title, got %q", client.titles[0])
	}
}

func TestExecuteMissingTranscriptIsConflict(t *testing.T) {
	handler := rendering.NewRenderer(newArtifacts(t), &fakePandoc{}, nil)
	rec := &recording.Recording{ID: "rec1"}

	_, err := handler.Execute(context.Background(), rec)
	if !errors.Is(err, services.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}
