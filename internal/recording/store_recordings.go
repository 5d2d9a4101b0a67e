package recording

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Create inserts a new recording row. Stage statuses start pending and the
// sync status starts unsynced.
func (s *Store) Create(ctx context.Context, rec *Recording) error {
	if rec == nil || rec.ID == "" {
		return fmt.Errorf("recording id required")
	}
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	if rec.SyncStatus == "" {
		rec.SyncStatus = SyncUnsynced
	}
	for _, status := range []*StageStatus{&rec.TranscodeStatus, &rec.TranscribeStatus, &rec.TranslateStatus, &rec.RenderStatus} {
		if *status == "" {
			*status = StagePending
		}
	}

	_, err := s.execWithRetry(ctx, `
        INSERT INTO recordings (
            id, display_name, primary_path, microphone_path,
            transcode_status, transcribe_status, translate_status, render_status,
            duration_seconds, sync_status, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.DisplayName,
		nullableString(rec.PrimaryPath),
		nullableString(rec.MicrophonePath),
		string(rec.TranscodeStatus),
		string(rec.TranscribeStatus),
		string(rec.TranslateStatus),
		string(rec.RenderStatus),
		rec.DurationSeconds,
		string(rec.SyncStatus),
		formatTime(rec.CreatedAt),
		formatTime(rec.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert recording: %w", err)
	}
	return nil
}

// GetByID fetches one recording. It returns nil without error when the id is
// unknown.
func (s *Store) GetByID(ctx context.Context, id string) (*Recording, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, "SELECT "+recordingColumns+" FROM recordings WHERE id = ?", id)
	rec, err := scanRecording(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get recording: %w", err)
	}
	return rec, nil
}

// List returns all recordings, newest first.
func (s *Store) List(ctx context.Context) ([]*Recording, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, "SELECT "+recordingColumns+" FROM recordings ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("list recordings: %w", err)
	}
	defer rows.Close()

	var recordings []*Recording
	for rows.Next() {
		rec, err := scanRecording(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recording: %w", err)
		}
		recordings = append(recordings, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recordings: %w", err)
	}
	return recordings, nil
}

// Delete removes a recording row and reports whether it existed. Updates that
// race with a delete land on zero rows and are dropped, so a deleted
// recording never resurfaces.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.execWithRetry(ctx, "DELETE FROM recordings WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("delete recording: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete recording: rows affected: %w", err)
	}
	return affected > 0, nil
}

// SetMergedPath records the canonical merged track for a dual-track
// recording.
func (s *Store) SetMergedPath(ctx context.Context, id, path string) error {
	return s.touchUpdate(ctx, id, "merged_path = ?", nullableString(path))
}

// SetDetectedLanguage stores transcription language metadata.
func (s *Store) SetDetectedLanguage(ctx context.Context, id, language string, confidence float64, segments int) error {
	return s.touchUpdate(ctx, id,
		"detected_language = ?, language_confidence = ?, segments_count = ?",
		nullableString(language), confidence, segments)
}

// SetDuration stores the caller-reported capture duration.
func (s *Store) SetDuration(ctx context.Context, id string, seconds float64) error {
	return s.touchUpdate(ctx, id, "duration_seconds = ?", seconds)
}

// SetSyncStatus moves the recording's sync marker without touching remote
// identity fields.
func (s *Store) SetSyncStatus(ctx context.Context, id string, status SyncStatus) error {
	return s.touchUpdate(ctx, id, "sync_status = ?", string(status))
}

// MarkSynced records a successful delivery to the remote Core. It reports
// false when the recording no longer exists, so a delete racing a sync leaves
// no trace of the late result.
func (s *Store) MarkSynced(ctx context.Context, id, remoteID string, at time.Time) (bool, error) {
	query := "UPDATE recordings SET sync_status = ?, remote_id = ?, last_synced_at = ?, updated_at = ? WHERE id = ?"
	res, err := s.execWithRetry(ctx, query,
		string(SyncSynced), nullableString(remoteID), formatTime(at), formatTime(time.Now().UTC()), id)
	if err != nil {
		return false, fmt.Errorf("update recording %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark synced %s: rows affected: %w", id, err)
	}
	return affected > 0, nil
}

// touchUpdate applies a column update and bumps updated_at. Updating a
// deleted row affects zero rows, which is treated as success so late
// background writes cannot resurrect deleted recordings.
func (s *Store) touchUpdate(ctx context.Context, id, setClause string, args ...any) error {
	query := "UPDATE recordings SET " + setClause + ", updated_at = ? WHERE id = ?"
	args = append(args, formatTime(time.Now().UTC()), id)
	if _, err := s.execWithRetry(ctx, query, args...); err != nil {
		return fmt.Errorf("update recording %s: %w", id, err)
	}
	return nil
}
