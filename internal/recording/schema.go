package recording

import (
	"context"
	"fmt"
)

const schemaVersion = 1

const schemaSQL = `
CREATE TABLE IF NOT EXISTS recordings (
    id TEXT PRIMARY KEY,
    display_name TEXT NOT NULL DEFAULT '',
    primary_path TEXT,
    microphone_path TEXT,
    merged_path TEXT,
    mp4_path TEXT,
    transcript_path TEXT,
    document_path TEXT,
    translations_json TEXT NOT NULL DEFAULT '{}',
    stage_errors_json TEXT NOT NULL DEFAULT '{}',
    transcode_status TEXT NOT NULL DEFAULT 'pending',
    transcribe_status TEXT NOT NULL DEFAULT 'pending',
    translate_status TEXT NOT NULL DEFAULT 'pending',
    render_status TEXT NOT NULL DEFAULT 'pending',
    detected_language TEXT,
    language_confidence REAL NOT NULL DEFAULT 0,
    segments_count INTEGER NOT NULL DEFAULT 0,
    duration_seconds REAL NOT NULL DEFAULT 0,
    sync_status TEXT NOT NULL DEFAULT 'unsynced',
    remote_id TEXT,
    last_synced_at TEXT,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_recordings_sync_status ON recordings(sync_status);
CREATE INDEX IF NOT EXISTS idx_recordings_created_at ON recordings(created_at);

CREATE TABLE IF NOT EXISTS schema_info (
    version INTEGER NOT NULL
);
`

func (s *Store) initSchema(ctx context.Context) error {
	if err := s.execWithoutResultRetry(ctx, schemaSQL); err != nil {
		return fmt.Errorf("init recordings schema: %w", err)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_info").Scan(&count); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if count == 0 {
		if err := s.execWithoutResultRetry(ctx, "INSERT INTO schema_info (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
	}
	return nil
}
