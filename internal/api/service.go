package api

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"solarrec/internal/artifacts"
	"solarrec/internal/logging"
	"solarrec/internal/pipeline"
	"solarrec/internal/recording"
	"solarrec/internal/services"
	"solarrec/internal/solarcore"
	"solarrec/internal/synclog"
	"solarrec/internal/translation"
)

// Service is the application facade behind both the HTTP API and the CLI.
type Service struct {
	store        *recording.Store
	artifacts    *artifacts.Store
	orchestrator *pipeline.Orchestrator
	translator   *translation.Translator
	engine       *solarcore.Engine
	log          *synclog.Store
	logger       *slog.Logger
}

// NewService wires the facade around its collaborators.
func NewService(
	store *recording.Store,
	artifactStore *artifacts.Store,
	orchestrator *pipeline.Orchestrator,
	translator *translation.Translator,
	engine *solarcore.Engine,
	log *synclog.Store,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		store:        store,
		artifacts:    artifactStore,
		orchestrator: orchestrator,
		translator:   translator,
		engine:       engine,
		log:          log,
		logger:       logging.NewComponentLogger(logger, "api"),
	}
}

// CreateRecordingRequest carries an upload. Microphone is nil for
// single-track captures.
type CreateRecordingRequest struct {
	DisplayName     string
	DurationSeconds float64
	Primary         io.Reader
	Microphone      io.Reader
}

// CreateRecording ingests an upload, persists the recording, and launches
// the derivation chain in the background. The response never waits on
// processing.
func (s *Service) CreateRecording(ctx context.Context, req CreateRecordingRequest) (RecordingView, error) {
	if req.Primary == nil {
		return RecordingView{}, services.Wrap(services.ErrConflict, "ingest", "validate upload", "primary track required", nil)
	}

	id := recording.NewID(time.Now())
	rec := &recording.Recording{
		ID:              id,
		DisplayName:     strings.TrimSpace(req.DisplayName),
		DurationSeconds: req.DurationSeconds,
	}
	if rec.DisplayName == "" {
		rec.DisplayName = id
	}

	var err error
	rec.PrimaryPath, err = s.artifacts.Save(id, artifacts.KindPrimary, req.Primary)
	if err != nil {
		return RecordingView{}, services.Wrap(services.ErrUpstream, "ingest", "store primary track", "cannot persist upload", err)
	}
	if req.Microphone != nil {
		rec.MicrophonePath, err = s.artifacts.Save(id, artifacts.KindMicrophone, req.Microphone)
		if err != nil {
			return RecordingView{}, services.Wrap(services.ErrUpstream, "ingest", "store microphone track", "cannot persist upload", err)
		}
	}

	if err := s.store.Create(ctx, rec); err != nil {
		return RecordingView{}, err
	}

	s.logger.Info("recording ingested",
		logging.String(logging.FieldRecordingID, id),
		logging.Bool("dual_track", rec.HasMicrophoneTrack()))
	s.orchestrator.Dispatch(id)
	return NewRecordingView(rec), nil
}

// Get returns one recording.
func (s *Service) Get(ctx context.Context, id string) (RecordingView, error) {
	rec, err := s.lookup(ctx, id)
	if err != nil {
		return RecordingView{}, err
	}
	return NewRecordingView(rec), nil
}

// List returns all recordings, newest first.
func (s *Service) List(ctx context.Context) ([]RecordingView, error) {
	recordings, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]RecordingView, 0, len(recordings))
	for _, rec := range recordings {
		views = append(views, NewRecordingView(rec))
	}
	return views, nil
}

// RunStage validates and launches a single-stage re-run in the background.
// Only pending and failed stages qualify. Translation is excluded; it needs a
// target language and has its own operation.
func (s *Service) RunStage(ctx context.Context, id, stageName string) error {
	st, ok := recording.ParseStage(stageName)
	if !ok {
		return services.Wrap(services.ErrConflict, "api", "parse stage", "unknown stage "+stageName, nil)
	}
	if st == recording.StageTranslate {
		return services.Wrap(services.ErrConflict, "translate", "run stage", "translation runs through the translate operation", nil)
	}
	rec, err := s.lookup(ctx, id)
	if err != nil {
		return err
	}
	if st == recording.StageRenderDocument && rec.TranscribeStatus != recording.StageDone {
		return services.Wrap(services.ErrConflict, string(st), "run stage", "transcription has not finished", nil)
	}
	if status := rec.StageStatus(st); status != recording.StagePending && status != recording.StageFailed {
		return services.Wrap(services.ErrConflict, string(st), "run stage", "stage is not pending or failed", nil)
	}

	s.orchestrator.DispatchStage(id, st)
	return nil
}

// RequestTranslation produces a translation synchronously and returns where
// it landed. Degraded responses carry the placeholder body.
func (s *Service) RequestTranslation(ctx context.Context, id, targetLanguage string) (TranslationView, error) {
	rec, err := s.lookup(ctx, id)
	if err != nil {
		return TranslationView{}, err
	}
	path, degraded, err := s.translator.Translate(ctx, rec, targetLanguage)
	if err != nil {
		return TranslationView{}, err
	}
	return TranslationView{
		RecordingID:    id,
		TargetLanguage: strings.ToLower(strings.TrimSpace(targetLanguage)),
		Path:           path,
		Degraded:       degraded,
	}, nil
}

// SyncToCore pushes a recording to the remote Core.
func (s *Service) SyncToCore(ctx context.Context, id string, extra map[string]any) (SyncOutcomeView, error) {
	outcome, err := s.engine.Sync(ctx, id, extra)
	if err != nil {
		return SyncOutcomeView{}, err
	}
	return SyncOutcomeView{
		RecordingID: id,
		Status:      string(outcome.Status),
		RemoteID:    outcome.RemoteID,
		Attempts:    outcome.Attempts,
		Message:     outcome.Message,
	}, nil
}

// GetSyncStatus returns a recording's sync state and full attempt history.
func (s *Service) GetSyncStatus(ctx context.Context, id string) (SyncStatusView, error) {
	rec, err := s.lookup(ctx, id)
	if err != nil {
		return SyncStatusView{}, err
	}
	entries, err := s.log.History(ctx, id)
	if err != nil {
		return SyncStatusView{}, err
	}
	return SyncStatusView{
		RecordingID:  id,
		SyncStatus:   string(rec.SyncStatus),
		RemoteID:     rec.RemoteID,
		LastSyncedAt: rec.LastSyncedAt,
		History:      newSyncLogViews(entries),
	}, nil
}

// DeleteRecording removes the recording row, its artifacts, and its sync
// history. Late writes from in-flight stages land on the deleted row and are
// dropped by the store.
func (s *Service) DeleteRecording(ctx context.Context, id string) error {
	existed, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !existed {
		return services.Wrap(services.ErrNotFound, "api", "delete recording", "unknown recording "+id, nil)
	}
	if err := s.artifacts.RemoveAll(id); err != nil {
		s.logger.Warn("failed to remove artifacts",
			logging.String(logging.FieldRecordingID, id), logging.Error(err))
	}
	if err := s.log.Purge(ctx, id); err != nil {
		s.logger.Warn("failed to purge sync history",
			logging.String(logging.FieldRecordingID, id), logging.Error(err))
	}
	s.logger.Info("recording deleted", logging.String(logging.FieldRecordingID, id))
	return nil
}

// Status summarizes the daemon for operators.
func (s *Service) Status(ctx context.Context) (StatusView, error) {
	recordings, err := s.store.List(ctx)
	if err != nil {
		return StatusView{}, err
	}
	counts := map[string]int{}
	for _, rec := range recordings {
		counts[string(rec.SyncStatus)]++
	}
	view := StatusView{
		Recordings: len(recordings),
		SyncCounts: counts,
	}
	for _, health := range s.orchestrator.HealthChecks(ctx) {
		view.Stages = append(view.Stages, StageHealthView{
			Name:   health.Name,
			Ready:  health.Ready,
			Detail: health.Detail,
		})
	}
	return view, nil
}

func (s *Service) lookup(ctx context.Context, id string) (*recording.Recording, error) {
	rec, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, services.Wrap(services.ErrNotFound, "api", "load recording", "unknown recording "+id, nil)
	}
	return rec, nil
}
