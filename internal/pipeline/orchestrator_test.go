package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"solarrec/internal/artifacts"
	"solarrec/internal/merging"
	"solarrec/internal/pipeline"
	"solarrec/internal/recording"
	"solarrec/internal/services"
	"solarrec/internal/stage"
)

type fakeHandler struct {
	stageName recording.Stage
	artifact  string
	err       error
	calls     atomic.Int32
}

func (f *fakeHandler) Stage() recording.Stage { return f.stageName }

func (f *fakeHandler) Execute(ctx context.Context, rec *recording.Recording) (stage.Result, error) {
	f.calls.Add(1)
	if f.err != nil {
		return stage.Result{}, f.err
	}
	return stage.Result{Artifact: f.artifact}, nil
}

func (f *fakeHandler) HealthCheck(ctx context.Context) stage.Health {
	return stage.Healthy(string(f.stageName))
}

func openStore(t *testing.T) *recording.Store {
	t.Helper()
	store, err := recording.OpenPath(filepath.Join(t.TempDir(), "solarrec.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func createRecording(t *testing.T, store *recording.Store, id string) {
	t.Helper()
	if err := store.Create(context.Background(), &recording.Recording{ID: id, PrimaryPath: "/tmp/" + id + ".webm"}); err != nil {
		t.Fatalf("create: %v", err)
	}
}

func newOrchestrator(store *recording.Store, handlers ...stage.Handler) *pipeline.Orchestrator {
	return pipeline.NewOrchestrator(store, nil, nil, time.Minute, handlers...)
}

func TestRunCompletesFullChain(t *testing.T) {
	store := openStore(t)
	createRecording(t, store, "rec1")

	transcode := &fakeHandler{stageName: recording.StageTranscode, artifact: "/mp4/rec1.mp4"}
	transcribe := &fakeHandler{stageName: recording.StageTranscribe, artifact: "/t/rec1.txt"}
	render := &fakeHandler{stageName: recording.StageRenderDocument, artifact: "/pdf/rec1.pdf"}
	orch := newOrchestrator(store, transcode, transcribe, render)

	if err := orch.Run(context.Background(), "rec1"); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	got, err := store.GetByID(context.Background(), "rec1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.TranscodeStatus != recording.StageDone || got.TranscribeStatus != recording.StageDone || got.RenderStatus != recording.StageDone {
		t.Fatalf("chain incomplete: %s %s %s", got.TranscodeStatus, got.TranscribeStatus, got.RenderStatus)
	}
	if got.MP4Path != "/mp4/rec1.mp4" || got.TranscriptPath != "/t/rec1.txt" || got.DocumentPath != "/pdf/rec1.pdf" {
		t.Fatalf("artifacts not persisted: %+v", got)
	}
}

func TestTranscodeFailureDoesNotBlockChain(t *testing.T) {
	store := openStore(t)
	createRecording(t, store, "rec1")

	transcode := &fakeHandler{stageName: recording.StageTranscode, err: errors.New("ffmpeg exploded")}
	transcribe := &fakeHandler{stageName: recording.StageTranscribe, artifact: "/t/rec1.txt"}
	render := &fakeHandler{stageName: recording.StageRenderDocument, artifact: "/pdf/rec1.pdf"}
	orch := newOrchestrator(store, transcode, transcribe, render)

	if err := orch.Run(context.Background(), "rec1"); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	got, err := store.GetByID(context.Background(), "rec1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.TranscodeStatus != recording.StageFailed {
		t.Fatalf("expected transcode failed, got %s", got.TranscodeStatus)
	}
	if got.StageErrors["transcode"] == "" {
		t.Fatal("transcode error should be recorded")
	}
	if got.TranscribeStatus != recording.StageDone || got.RenderStatus != recording.StageDone {
		t.Fatalf("rest of chain should finish: %s %s", got.TranscribeStatus, got.RenderStatus)
	}
}

func TestTranscribeFailureFailsRender(t *testing.T) {
	store := openStore(t)
	createRecording(t, store, "rec1")

	transcode := &fakeHandler{stageName: recording.StageTranscode, artifact: "/mp4/rec1.mp4"}
	transcribe := &fakeHandler{stageName: recording.StageTranscribe, err: errors.New("whisper exploded")}
	render := &fakeHandler{stageName: recording.StageRenderDocument, artifact: "/pdf/rec1.pdf"}
	orch := newOrchestrator(store, transcode, transcribe, render)

	if err := orch.Run(context.Background(), "rec1"); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	got, err := store.GetByID(context.Background(), "rec1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.RenderStatus != recording.StageFailed {
		t.Fatalf("render should fail with its dependency, got %s", got.RenderStatus)
	}
	if render.calls.Load() != 0 {
		t.Fatal("render handler must not run without a transcript")
	}
	if got.StageErrors["render_document"] == "" {
		t.Fatal("render dependency failure should be recorded")
	}
}

type brokenFFmpeg struct{}

func (brokenFFmpeg) Convert(ctx context.Context, source, dest string) error {
	return errors.New("codec mismatch")
}

func (brokenFFmpeg) Merge(ctx context.Context, primary, secondary, dest string) error {
	return errors.New("codec mismatch")
}

func (brokenFFmpeg) Available(ctx context.Context) error { return nil }

func TestMergeFailureFailsDerivationChain(t *testing.T) {
	store := openStore(t)

	dir := t.TempDir()
	primary := filepath.Join(dir, "rec1.webm")
	microphone := filepath.Join(dir, "rec1_mic.webm")
	for _, path := range []string{primary, microphone} {
		if err := os.WriteFile(path, []byte("webm"), 0o644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}
	}
	rec := &recording.Recording{ID: "rec1", PrimaryPath: primary, MicrophonePath: microphone}
	if err := store.Create(context.Background(), rec); err != nil {
		t.Fatalf("create: %v", err)
	}

	artifactStore, err := artifacts.NewStore(filepath.Join(dir, "artifacts"))
	if err != nil {
		t.Fatalf("open artifacts: %v", err)
	}
	merger := merging.NewMerger(store, artifactStore, brokenFFmpeg{}, nil, time.Minute)

	transcode := &fakeHandler{stageName: recording.StageTranscode, artifact: "/mp4/rec1.mp4"}
	transcribe := &fakeHandler{stageName: recording.StageTranscribe, artifact: "/t/rec1.txt"}
	render := &fakeHandler{stageName: recording.StageRenderDocument, artifact: "/pdf/rec1.pdf"}
	orch := pipeline.NewOrchestrator(store, merger, nil, time.Minute, transcode, transcribe, render)

	if err := orch.Run(context.Background(), "rec1"); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	got, err := store.GetByID(context.Background(), "rec1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	for stageName, status := range map[string]recording.StageStatus{
		"transcode":       got.TranscodeStatus,
		"transcribe":      got.TranscribeStatus,
		"render_document": got.RenderStatus,
	} {
		if status != recording.StageFailed {
			t.Errorf("expected %s failed after merge failure, got %s", stageName, status)
		}
	}
	if got.StageErrors["merge"] == "" {
		t.Fatal("merge error should be recorded")
	}
	if transcode.calls.Load() != 0 || transcribe.calls.Load() != 0 || render.calls.Load() != 0 {
		t.Fatal("no stage handler should run after a merge failure")
	}
}

func TestRunUnknownRecording(t *testing.T) {
	store := openStore(t)
	orch := newOrchestrator(store, &fakeHandler{stageName: recording.StageTranscribe})

	err := orch.Run(context.Background(), "missing")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRunStageReRunsFailedStage(t *testing.T) {
	store := openStore(t)
	createRecording(t, store, "rec1")

	handler := &fakeHandler{stageName: recording.StageTranscode, err: errors.New("first attempt fails")}
	orch := newOrchestrator(store, handler)

	if err := orch.RunStage(context.Background(), "rec1", recording.StageTranscode); err == nil {
		t.Fatal("expected first run to fail")
	}

	handler.err = nil
	handler.artifact = "/mp4/rec1.mp4"
	if err := orch.RunStage(context.Background(), "rec1", recording.StageTranscode); err != nil {
		t.Fatalf("re-run failed: %v", err)
	}

	got, err := store.GetByID(context.Background(), "rec1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.TranscodeStatus != recording.StageDone {
		t.Fatalf("unexpected status %s", got.TranscodeStatus)
	}
	if _, present := got.StageErrors["transcode"]; present {
		t.Fatal("stage error should clear on successful re-run")
	}
}

func TestRunStageFinishedStageIsConflict(t *testing.T) {
	store := openStore(t)
	createRecording(t, store, "rec1")

	handler := &fakeHandler{stageName: recording.StageTranscode, artifact: "/mp4/rec1.mp4"}
	orch := newOrchestrator(store, handler)

	if err := orch.RunStage(context.Background(), "rec1", recording.StageTranscode); err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	err := orch.RunStage(context.Background(), "rec1", recording.StageTranscode)
	if !errors.Is(err, services.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if handler.calls.Load() != 1 {
		t.Fatalf("finished stage must not re-run, got %d calls", handler.calls.Load())
	}
}

func TestRunStageRenderRequiresTranscript(t *testing.T) {
	store := openStore(t)
	createRecording(t, store, "rec1")

	render := &fakeHandler{stageName: recording.StageRenderDocument}
	orch := newOrchestrator(store, render)

	err := orch.RunStage(context.Background(), "rec1", recording.StageRenderDocument)
	if !errors.Is(err, services.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if render.calls.Load() != 0 {
		t.Fatal("render must not execute")
	}
}

func TestRunStageUnknownRecording(t *testing.T) {
	store := openStore(t)
	orch := newOrchestrator(store, &fakeHandler{stageName: recording.StageTranscode})

	err := orch.RunStage(context.Background(), "missing", recording.StageTranscode)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDispatchRunsInBackground(t *testing.T) {
	store := openStore(t)
	createRecording(t, store, "rec1")

	transcribe := &fakeHandler{stageName: recording.StageTranscribe, artifact: "/t/rec1.txt"}
	orch := newOrchestrator(store, transcribe)

	orch.Dispatch("rec1")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := orch.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	got, err := store.GetByID(context.Background(), "rec1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.TranscribeStatus != recording.StageDone {
		t.Fatalf("background run did not finish: %s", got.TranscribeStatus)
	}
}

func TestHealthChecks(t *testing.T) {
	store := openStore(t)
	orch := newOrchestrator(store,
		&fakeHandler{stageName: recording.StageTranscode},
		&fakeHandler{stageName: recording.StageTranscribe})

	healths := orch.HealthChecks(context.Background())
	if len(healths) != 2 {
		t.Fatalf("expected 2 health records, got %d", len(healths))
	}
}
