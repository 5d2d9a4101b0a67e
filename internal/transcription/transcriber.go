// Package transcription turns capture audio into text transcripts and
// records the detected language alongside them.
package transcription

import (
	"context"
	"log/slog"

	"solarrec/internal/artifacts"
	"solarrec/internal/logging"
	"solarrec/internal/recording"
	"solarrec/internal/services"
	"solarrec/internal/services/whisper"
	"solarrec/internal/stage"
)

// Transcriber produces the transcript artifact for a recording.
type Transcriber struct {
	store     *recording.Store
	artifacts *artifacts.Store
	client    whisper.Client
	logger    *slog.Logger
}

// NewTranscriber wires the transcribe stage around its collaborators.
func NewTranscriber(store *recording.Store, artifactStore *artifacts.Store, client whisper.Client, logger *slog.Logger) *Transcriber {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Transcriber{
		store:     store,
		artifacts: artifactStore,
		client:    client,
		logger:    logging.NewComponentLogger(logger, "transcriber"),
	}
}

// Stage implements stage.Handler.
func (t *Transcriber) Stage() recording.Stage {
	return recording.StageTranscribe
}

// Execute implements stage.Handler. Language metadata lands on the record as
// soon as transcription finishes so translation and sync can rely on it.
func (t *Transcriber) Execute(ctx context.Context, rec *recording.Recording) (stage.Result, error) {
	source := rec.SourcePath()
	if !artifacts.Exists(source) {
		return stage.Result{}, services.Wrap(services.ErrConflict, "transcribe", "locate source", "source file missing", nil)
	}

	t.logger.Info("transcribing capture",
		logging.String(logging.FieldRecordingID, rec.ID),
		logging.String("source", source))

	result, err := t.client.Transcribe(ctx, source)
	if err != nil {
		return stage.Result{}, err
	}
	if result.Text == "" {
		return stage.Result{}, services.Wrap(services.ErrUpstream, "transcribe", "read result", "transcription produced no text", nil)
	}

	path, err := t.artifacts.SaveText(rec.ID, artifacts.KindTranscript, result.Text)
	if err != nil {
		return stage.Result{}, services.Wrap(services.ErrUpstream, "transcribe", "save transcript", "cannot write transcript", err)
	}
	if err := t.store.SetDetectedLanguage(ctx, rec.ID, result.Language, result.Confidence, result.Segments); err != nil {
		return stage.Result{}, err
	}
	rec.DetectedLanguage = result.Language
	rec.LanguageConfidence = result.Confidence
	rec.SegmentsCount = result.Segments

	t.logger.Info("transcription finished",
		logging.String(logging.FieldRecordingID, rec.ID),
		logging.String("language", result.Language),
		logging.Int("segments", result.Segments))
	return stage.Result{Artifact: path}, nil
}

// HealthCheck implements stage.Handler.
func (t *Transcriber) HealthCheck(ctx context.Context) stage.Health {
	if err := t.client.Available(ctx); err != nil {
		return stage.Unhealthy("transcribe", err.Error())
	}
	return stage.Healthy("transcribe")
}
