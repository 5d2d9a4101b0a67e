package synclog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"solarrec/internal/config"
)

// Status is the delivery state captured by one log entry.
type Status string

const (
	StatusPending Status = "pending"
	StatusSyncing Status = "syncing"
	StatusSynced  Status = "synced"
	StatusFailed  Status = "failed"
	StatusRetry   Status = "retry"
)

// Entry is one append-only record of a sync attempt outcome.
type Entry struct {
	ID             int64
	RecordingID    string
	Status         Status
	Timestamp      time.Time
	RemoteResponse string
	ErrorMessage   string
	RetryCount     int
}

// Store appends and reads sync history backed by SQLite. Every append is a
// single INSERT, so concurrent attempts for the same recording interleave
// without losing entries.
type Store struct {
	db   *sql.DB
	path string
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS sync_log (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    recording_id TEXT NOT NULL,
    status TEXT NOT NULL,
    timestamp TEXT NOT NULL,
    remote_response TEXT,
    error_message TEXT,
    retry_count INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_sync_log_recording ON sync_log(recording_id);
`

// Open initializes or connects to the sync log in the shared database file.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.DatabasePath())
}

// OpenPath connects to the sync log at an explicit database location.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init sync log schema: %w", err)
	}
	return &Store{db: db, path: dbPath}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Append writes one entry. The timestamp defaults to now when unset.
func (s *Store) Append(ctx context.Context, entry Entry) error {
	if strings.TrimSpace(entry.RecordingID) == "" {
		return errors.New("sync log entry requires recording id")
	}
	if entry.Status == "" {
		return errors.New("sync log entry requires status")
	}
	ts := entry.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO sync_log (recording_id, status, timestamp, remote_response, error_message, retry_count)
        VALUES (?, ?, ?, ?, ?, ?)`,
		entry.RecordingID,
		string(entry.Status),
		ts.UTC().Format(time.RFC3339Nano),
		nullable(entry.RemoteResponse),
		nullable(entry.ErrorMessage),
		entry.RetryCount,
	)
	if err != nil {
		return fmt.Errorf("append sync log: %w", err)
	}
	return nil
}

// History returns every entry for a recording in append order.
func (s *Store) History(ctx context.Context, recordingID string) ([]Entry, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, recording_id, status, timestamp, remote_response, error_message, retry_count
        FROM sync_log WHERE recording_id = ? ORDER BY id ASC`, recordingID)
	if err != nil {
		return nil, fmt.Errorf("read sync log: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry    Entry
			status   string
			tsRaw    string
			response sql.NullString
			message  sql.NullString
		)
		if err := rows.Scan(&entry.ID, &entry.RecordingID, &status, &tsRaw, &response, &message, &entry.RetryCount); err != nil {
			return nil, fmt.Errorf("scan sync log entry: %w", err)
		}
		entry.Status = Status(status)
		entry.RemoteResponse = response.String
		entry.ErrorMessage = message.String
		if ts, err := time.Parse(time.RFC3339Nano, tsRaw); err == nil {
			entry.Timestamp = ts
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sync log: %w", err)
	}
	return entries, nil
}

// Latest returns the most recent entry for a recording, or nil when the
// recording has no sync history.
func (s *Store) Latest(ctx context.Context, recordingID string) (*Entry, error) {
	entries, err := s.History(ctx, recordingID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	last := entries[len(entries)-1]
	return &last, nil
}

// Purge removes all history for a recording.
func (s *Store) Purge(ctx context.Context, recordingID string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM sync_log WHERE recording_id = ?", recordingID); err != nil {
		return fmt.Errorf("purge sync log: %w", err)
	}
	return nil
}

func nullable(value string) any {
	if value == "" {
		return nil
	}
	return value
}
