package solarcore

import (
	"context"
	"log/slog"
	"time"

	"solarrec/internal/logging"
	"solarrec/internal/recording"
	"solarrec/internal/services"
	"solarrec/internal/synclog"
)

// Outcome summarizes one sync request after all attempts.
type Outcome struct {
	Status   recording.SyncStatus
	RemoteID string
	Attempts int
	Message  string
}

// Engine pushes recordings to the remote Core and keeps the per-recording
// sync history.
type Engine struct {
	client     Client
	records    *recording.Store
	log        *synclog.Store
	logger     *slog.Logger
	maxRetries int
	retryDelay time.Duration
}

// EngineOption customizes engine construction.
type EngineOption func(*Engine)

// WithRetryDelay sets the base delay between delivery attempts.
func WithRetryDelay(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.retryDelay = d
		}
	}
}

// NewEngine wires the sync engine around its collaborators.
func NewEngine(client Client, records *recording.Store, log *synclog.Store, logger *slog.Logger, maxRetries int, opts ...EngineOption) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	e := &Engine{
		client:     client,
		records:    records,
		log:        log,
		logger:     logging.NewComponentLogger(logger, "sync"),
		maxRetries: maxRetries,
		retryDelay: time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Sync delivers one recording to the Core. The payload carries whatever
// artifacts exist, so partially processed recordings sync too. Sync errors
// only when the recording is unknown; delivery failures come back as a failed
// Outcome with the history already written.
func (e *Engine) Sync(ctx context.Context, id string, extra map[string]any) (Outcome, error) {
	rec, err := e.records.GetByID(ctx, id)
	if err != nil {
		return Outcome{}, err
	}
	if rec == nil {
		return Outcome{}, services.Wrap(services.ErrNotFound, "sync", "load recording", "unknown recording "+id, nil)
	}

	logger := e.logger.With(logging.String(logging.FieldRecordingID, id))
	if err := e.records.SetSyncStatus(ctx, id, recording.SyncPending); err != nil {
		return Outcome{}, err
	}

	if err := e.client.Health(ctx); err != nil {
		logger.Warn("core health probe failed", logging.Error(err))
		return e.fail(ctx, id, 0, "core unreachable: "+err.Error()), nil
	}

	e.append(ctx, synclog.Entry{RecordingID: id, Status: synclog.StatusSyncing})

	payload := BuildPayload(rec, extra, time.Now())
	var lastErr error
	for attempt := 1; attempt <= e.maxRetries; attempt++ {
		result, err := e.client.Import(ctx, payload)
		if err == nil {
			now := time.Now().UTC()
			marked, err := e.records.MarkSynced(ctx, id, result.RemoteID, now)
			if err != nil {
				return Outcome{}, err
			}
			if !marked {
				// Deleted while syncing. The result is discarded so the purged
				// sync log stays empty.
				logger.Warn("recording deleted during sync, discarding result")
				return Outcome{}, services.Wrap(services.ErrNotFound, "sync", "persist result", "recording deleted during sync", nil)
			}
			e.append(ctx, synclog.Entry{
				RecordingID:    id,
				Status:         synclog.StatusSynced,
				RemoteResponse: result.Body,
				RetryCount:     attempt - 1,
			})
			logger.Info("recording synced",
				logging.String("remote_id", result.RemoteID),
				logging.Int("attempts", attempt))
			return Outcome{Status: recording.SyncSynced, RemoteID: result.RemoteID, Attempts: attempt}, nil
		}

		lastErr = err
		logger.Warn("sync attempt failed",
			logging.Int("attempt", attempt),
			logging.Error(err))
		if attempt < e.maxRetries {
			e.append(ctx, synclog.Entry{
				RecordingID:  id,
				Status:       synclog.StatusRetry,
				ErrorMessage: err.Error(),
				RetryCount:   attempt,
			})
			if !sleep(ctx, time.Duration(attempt)*e.retryDelay) {
				break
			}
		}
	}

	message := "delivery failed"
	if lastErr != nil {
		message = lastErr.Error()
	}
	return e.fail(ctx, id, e.maxRetries, message), nil
}

func (e *Engine) fail(ctx context.Context, id string, retries int, message string) Outcome {
	if err := e.records.SetSyncStatus(ctx, id, recording.SyncFailed); err != nil {
		e.logger.Error("failed to persist sync failure",
			logging.String(logging.FieldRecordingID, id), logging.Error(err))
	}
	e.append(ctx, synclog.Entry{
		RecordingID:  id,
		Status:       synclog.StatusFailed,
		ErrorMessage: message,
		RetryCount:   retries,
	})
	return Outcome{Status: recording.SyncFailed, Attempts: retries, Message: message}
}

func (e *Engine) append(ctx context.Context, entry synclog.Entry) {
	if err := e.log.Append(ctx, entry); err != nil {
		e.logger.Error("failed to append sync log entry",
			logging.String(logging.FieldRecordingID, entry.RecordingID), logging.Error(err))
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
