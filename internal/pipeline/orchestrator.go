package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"solarrec/internal/logging"
	"solarrec/internal/merging"
	"solarrec/internal/recording"
	"solarrec/internal/services"
	"solarrec/internal/stage"
)

// Orchestrator drives the derivation chain over uploaded recordings.
// Transcode and transcribe run concurrently; document rendering waits for
// the transcript. A transcode failure never blocks the rest of the chain.
type Orchestrator struct {
	store        *recording.Store
	merger       *merging.Merger
	handlers     map[recording.Stage]stage.Handler
	logger       *slog.Logger
	stageTimeout time.Duration

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewOrchestrator wires the pipeline around its stage handlers. The merger
// may be nil when dual-track support is disabled.
func NewOrchestrator(store *recording.Store, merger *merging.Merger, logger *slog.Logger, stageTimeout time.Duration, handlers ...stage.Handler) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	if stageTimeout <= 0 {
		stageTimeout = 30 * time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	o := &Orchestrator{
		store:        store,
		merger:       merger,
		handlers:     make(map[recording.Stage]stage.Handler, len(handlers)),
		logger:       logging.NewComponentLogger(logger, "pipeline"),
		stageTimeout: stageTimeout,
		baseCtx:      ctx,
		cancel:       cancel,
	}
	for _, handler := range handlers {
		o.handlers[handler.Stage()] = handler
	}
	return o
}

// Stop drains in-flight background runs. When the context expires first the
// remaining runs are cancelled instead of drained.
func (o *Orchestrator) Stop(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		o.cancel()
		return nil
	case <-ctx.Done():
		o.cancel()
		return ctx.Err()
	}
}

// Dispatch launches the full derivation chain in the background and returns
// immediately. Upload handlers call this so ingestion never waits on
// processing.
func (o *Orchestrator) Dispatch(id string) {
	runID := uuid.NewString()
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		logger := o.logger.With(
			logging.String(logging.FieldRecordingID, id),
			logging.String(logging.FieldRunID, runID))
		if err := o.Run(o.baseCtx, id); err != nil {
			logger.Error("pipeline run failed", logging.Error(err))
			return
		}
		logger.Info("pipeline run finished")
	}()
}

// DispatchStage launches a single stage in the background. Callers validate
// preconditions first; guard losses inside the run are logged, not returned.
func (o *Orchestrator) DispatchStage(id string, st recording.Stage) {
	runID := uuid.NewString()
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		logger := o.logger.With(
			logging.String(logging.FieldRecordingID, id),
			logging.String(logging.FieldRunID, runID),
			logging.String(logging.FieldStage, string(st)))
		if err := o.RunStage(o.baseCtx, id, st); err != nil {
			logger.Error("stage run failed", logging.Error(err))
			return
		}
		logger.Info("stage run finished")
	}()
}

// Run executes the derivation chain for one recording. Stage failures are
// captured on the record rather than returned; Run only errors when the
// recording is missing or the store is unavailable.
func (o *Orchestrator) Run(ctx context.Context, id string) error {
	rec, err := o.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if rec == nil {
		return services.Wrap(services.ErrNotFound, "pipeline", "load recording", "unknown recording "+id, nil)
	}

	if rec.HasMicrophoneTrack() && o.merger != nil {
		if _, err := o.merger.Merge(ctx, rec); err != nil {
			o.failChainAfterMerge(ctx, rec.ID, err)
			return nil
		}
	}

	var wg sync.WaitGroup
	for _, st := range []recording.Stage{recording.StageTranscode, recording.StageTranscribe} {
		handler, ok := o.handlers[st]
		if !ok {
			continue
		}
		wg.Add(1)
		go func(h stage.Handler) {
			defer wg.Done()
			o.runHandler(ctx, rec.ID, h)
		}(handler)
	}
	wg.Wait()

	o.runRender(ctx, rec.ID)
	return nil
}

// RunStage re-runs a single stage on demand. Only pending and failed stages
// can be claimed, so a finished or mid-flight stage is a conflict. Rendering
// additionally requires a finished transcript.
func (o *Orchestrator) RunStage(ctx context.Context, id string, st recording.Stage) error {
	handler, ok := o.handlers[st]
	if !ok {
		return services.Wrap(services.ErrConflict, string(st), "run stage", "stage cannot be run directly", nil)
	}
	rec, err := o.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if rec == nil {
		return services.Wrap(services.ErrNotFound, string(st), "load recording", "unknown recording "+id, nil)
	}
	if st == recording.StageRenderDocument && rec.TranscribeStatus != recording.StageDone {
		return services.Wrap(services.ErrConflict, string(st), "run stage", "transcription has not finished", nil)
	}

	claimed, stageErr := o.runHandler(ctx, id, handler)
	if !claimed {
		return services.Wrap(services.ErrConflict, string(st), "run stage", "stage is not pending or failed", nil)
	}
	return stageErr
}

// HealthChecks reports readiness of every registered stage handler.
func (o *Orchestrator) HealthChecks(ctx context.Context) []stage.Health {
	healths := make([]stage.Health, 0, len(o.handlers))
	for _, st := range recording.Stages() {
		handler, ok := o.handlers[st]
		if !ok {
			continue
		}
		healths = append(healths, handler.HealthCheck(ctx))
	}
	return healths
}

// runHandler claims a stage via its guarded transition, executes it under the
// stage time budget, and persists the outcome. It reports whether the claim
// succeeded along with any execution error.
func (o *Orchestrator) runHandler(ctx context.Context, id string, handler stage.Handler) (bool, error) {
	st := handler.Stage()
	claimed, err := o.store.TransitionStage(ctx, id, st,
		[]recording.StageStatus{recording.StagePending, recording.StageFailed},
		recording.StageRunning)
	if err != nil {
		return false, err
	}
	if !claimed {
		return false, nil
	}

	rec, err := o.store.GetByID(ctx, id)
	if err != nil {
		return true, err
	}
	if rec == nil {
		// Deleted while claiming. Nothing to do, and nothing to write back.
		return true, nil
	}

	stageCtx, cancel := context.WithTimeout(ctx, o.stageTimeout)
	defer cancel()

	logger := o.logger.With(
		logging.String(logging.FieldRecordingID, id),
		logging.String(logging.FieldStage, string(st)))
	logger.Info("stage started")

	result, execErr := handler.Execute(stageCtx, rec)
	if execErr != nil {
		if stageCtx.Err() == context.DeadlineExceeded {
			execErr = services.Wrap(services.ErrTimeout, string(st), "execute", "stage exceeded time budget", execErr)
		}
		logger.Error("stage failed", logging.Error(execErr))
		if failErr := o.store.FailStage(ctx, id, st, execErr.Error()); failErr != nil {
			logger.Error("failed to persist stage failure", logging.Error(failErr))
		}
		return true, execErr
	}

	if err := o.store.CompleteStage(ctx, id, st, result.Artifact); err != nil {
		logger.Error("failed to persist stage completion", logging.Error(err))
		return true, err
	}
	logger.Info("stage finished", logging.String("artifact", result.Artifact))
	return true, nil
}

// runRender runs the document stage when the transcript landed, and records
// a dependency failure otherwise.
func (o *Orchestrator) runRender(ctx context.Context, id string) {
	handler, ok := o.handlers[recording.StageRenderDocument]
	if !ok {
		return
	}
	rec, err := o.store.GetByID(ctx, id)
	if err != nil || rec == nil {
		return
	}
	if rec.TranscribeStatus != recording.StageDone {
		if err := o.store.FailStage(ctx, id, recording.StageRenderDocument, "transcription did not finish"); err != nil {
			o.logger.Error("failed to persist render dependency failure",
				logging.String(logging.FieldRecordingID, id), logging.Error(err))
		}
		return
	}
	o.runHandler(ctx, id, handler)
}

// failChainAfterMerge records a merge failure on every stage that needed the
// merged source.
func (o *Orchestrator) failChainAfterMerge(ctx context.Context, id string, mergeErr error) {
	o.logger.Error("track merge failed",
		logging.String(logging.FieldRecordingID, id), logging.Error(mergeErr))
	message := "track merge failed: " + mergeErr.Error()
	if err := o.store.SetStageError(ctx, id, "merge", mergeErr.Error()); err != nil {
		o.logger.Error("failed to persist merge failure",
			logging.String(logging.FieldRecordingID, id), logging.Error(err))
	}
	for _, st := range []recording.Stage{recording.StageTranscode, recording.StageTranscribe, recording.StageRenderDocument} {
		if err := o.store.FailStage(ctx, id, st, message); err != nil {
			o.logger.Error("failed to persist merge failure",
				logging.String(logging.FieldRecordingID, id),
				logging.String(logging.FieldStage, string(st)),
				logging.Error(err))
		}
	}
}
