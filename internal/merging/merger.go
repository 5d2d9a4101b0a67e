// Package merging combines the two tracks of a dual capture into one
// canonical source file before derivation stages run.
package merging

import (
	"context"
	"log/slog"
	"time"

	"solarrec/internal/artifacts"
	"solarrec/internal/logging"
	"solarrec/internal/recording"
	"solarrec/internal/services"
	"solarrec/internal/services/ffmpeg"
)

// Merger produces the merged track for dual-track recordings.
type Merger struct {
	store     *recording.Store
	artifacts *artifacts.Store
	client    ffmpeg.Client
	logger    *slog.Logger
	timeout   time.Duration
}

// NewMerger wires a merger around its collaborators.
func NewMerger(store *recording.Store, artifactStore *artifacts.Store, client ffmpeg.Client, logger *slog.Logger, timeout time.Duration) *Merger {
	if logger == nil {
		logger = logging.NewNop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &Merger{
		store:     store,
		artifacts: artifactStore,
		client:    client,
		logger:    logging.NewComponentLogger(logger, "merger"),
		timeout:   timeout,
	}
}

// Merge produces the merged file for a dual-track recording and persists its
// path. Calling it again after a successful merge returns the existing file.
// Single-track recordings and recordings with missing inputs are conflicts.
func (m *Merger) Merge(ctx context.Context, rec *recording.Recording) (string, error) {
	if rec.MergedPath != "" && artifacts.Exists(rec.MergedPath) {
		return rec.MergedPath, nil
	}
	if !rec.HasMicrophoneTrack() {
		return "", services.Wrap(services.ErrConflict, "merge", "merge tracks", "recording has no microphone track", nil)
	}
	if !artifacts.Exists(rec.PrimaryPath) {
		return "", services.Wrap(services.ErrConflict, "merge", "merge tracks", "primary track file missing", nil)
	}
	if !artifacts.Exists(rec.MicrophonePath) {
		return "", services.Wrap(services.ErrConflict, "merge", "merge tracks", "microphone track file missing", nil)
	}

	dest := m.artifacts.Path(rec.ID, artifacts.KindMerged)
	mergeCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	m.logger.Info("merging capture tracks",
		logging.String(logging.FieldRecordingID, rec.ID),
		logging.String("primary", rec.PrimaryPath),
		logging.String("secondary", rec.MicrophonePath))

	if err := m.client.Merge(mergeCtx, rec.PrimaryPath, rec.MicrophonePath, dest); err != nil {
		if mergeCtx.Err() == context.DeadlineExceeded {
			return "", services.Wrap(services.ErrTimeout, "merge", "merge tracks", "merge exceeded time budget", err)
		}
		return "", err
	}
	if err := m.store.SetMergedPath(ctx, rec.ID, dest); err != nil {
		return "", err
	}
	rec.MergedPath = dest
	return dest, nil
}
