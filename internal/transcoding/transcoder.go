// Package transcoding converts captures into widely playable MP4 files.
// Transcode failures never block transcription or document rendering.
package transcoding

import (
	"context"
	"log/slog"

	"solarrec/internal/artifacts"
	"solarrec/internal/logging"
	"solarrec/internal/recording"
	"solarrec/internal/services"
	"solarrec/internal/services/ffmpeg"
	"solarrec/internal/stage"
)

// Transcoder produces the MP4 rendition of a recording.
type Transcoder struct {
	artifacts *artifacts.Store
	client    ffmpeg.Client
	logger    *slog.Logger
}

// NewTranscoder wires the transcode stage around its collaborators.
func NewTranscoder(artifactStore *artifacts.Store, client ffmpeg.Client, logger *slog.Logger) *Transcoder {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Transcoder{
		artifacts: artifactStore,
		client:    client,
		logger:    logging.NewComponentLogger(logger, "transcoder"),
	}
}

// Stage implements stage.Handler.
func (t *Transcoder) Stage() recording.Stage {
	return recording.StageTranscode
}

// Execute implements stage.Handler.
func (t *Transcoder) Execute(ctx context.Context, rec *recording.Recording) (stage.Result, error) {
	source := rec.SourcePath()
	if !artifacts.Exists(source) {
		return stage.Result{}, services.Wrap(services.ErrConflict, "transcode", "locate source", "source file missing", nil)
	}

	dest := t.artifacts.Path(rec.ID, artifacts.KindMP4)
	t.logger.Info("converting capture to mp4",
		logging.String(logging.FieldRecordingID, rec.ID),
		logging.String("source", source))

	if err := t.client.Convert(ctx, source, dest); err != nil {
		return stage.Result{}, err
	}
	return stage.Result{Artifact: dest}, nil
}

// HealthCheck implements stage.Handler.
func (t *Transcoder) HealthCheck(ctx context.Context) stage.Health {
	if err := t.client.Available(ctx); err != nil {
		return stage.Unhealthy("transcode", err.Error())
	}
	return stage.Healthy("transcode")
}
