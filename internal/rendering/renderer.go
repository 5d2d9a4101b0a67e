// Package rendering produces the PDF document for a transcribed recording.
package rendering

import (
	"context"
	"log/slog"

	"solarrec/internal/artifacts"
	"solarrec/internal/logging"
	"solarrec/internal/recording"
	"solarrec/internal/services"
	"solarrec/internal/services/pandoc"
	"solarrec/internal/stage"
)

// Renderer produces the document artifact from a finished transcript.
type Renderer struct {
	artifacts *artifacts.Store
	client    pandoc.Client
	logger    *slog.Logger
}

// NewRenderer wires the render stage around its collaborators.
func NewRenderer(artifactStore *artifacts.Store, client pandoc.Client, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Renderer{
		artifacts: artifactStore,
		client:    client,
		logger:    logging.NewComponentLogger(logger, "renderer"),
	}
}

// Stage implements stage.Handler.
func (r *Renderer) Stage() recording.Stage {
	return recording.StageRenderDocument
}

// Execute implements stage.Handler. It requires a finished transcript.
func (r *Renderer) Execute(ctx context.Context, rec *recording.Recording) (stage.Result, error) {
	if !artifacts.Exists(rec.TranscriptPath) {
		return stage.Result{}, services.Wrap(services.ErrConflict, "render_document", "locate transcript", "transcript missing", nil)
	}

	title := rec.DisplayName
	if title == "" {
		title = rec.ID
	}
	dest := r.artifacts.Path(rec.ID, artifacts.KindDocument)

	r.logger.Info("rendering transcript document",
		logging.String(logging.FieldRecordingID, rec.ID),
		logging.String("transcript", rec.TranscriptPath))

	if err := r.client.Render(ctx, rec.TranscriptPath, title, dest); err != nil {
		return stage.Result{}, err
	}
	return stage.Result{Artifact: dest}, nil
}

// HealthCheck implements stage.Handler.
func (r *Renderer) HealthCheck(ctx context.Context) stage.Health {
	if err := r.client.Available(ctx); err != nil {
		return stage.Unhealthy("render_document", err.Error())
	}
	return stage.Healthy("render_document")
}
