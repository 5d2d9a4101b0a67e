package recording

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

const recordingColumns = "id, display_name, primary_path, microphone_path, merged_path, mp4_path, transcript_path, document_path, translations_json, stage_errors_json, transcode_status, transcribe_status, translate_status, render_status, detected_language, language_confidence, segments_count, duration_seconds, sync_status, remote_id, last_synced_at, created_at, updated_at"

func scanRecording(scanner interface{ Scan(dest ...any) error }) (*Recording, error) {
	var (
		id               string
		displayName      sql.NullString
		primaryPath      sql.NullString
		microphonePath   sql.NullString
		mergedPath       sql.NullString
		mp4Path          sql.NullString
		transcriptPath   sql.NullString
		documentPath     sql.NullString
		translationsJSON sql.NullString
		stageErrorsJSON  sql.NullString
		transcodeStatus  string
		transcribeStatus string
		translateStatus  string
		renderStatus     string
		detectedLanguage sql.NullString
		langConfidence   sql.NullFloat64
		segmentsCount    sql.NullInt64
		durationSeconds  sql.NullFloat64
		syncStatus       string
		remoteID         sql.NullString
		lastSyncedRaw    sql.NullString
		createdRaw       sql.NullString
		updatedRaw       sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&displayName,
		&primaryPath,
		&microphonePath,
		&mergedPath,
		&mp4Path,
		&transcriptPath,
		&documentPath,
		&translationsJSON,
		&stageErrorsJSON,
		&transcodeStatus,
		&transcribeStatus,
		&translateStatus,
		&renderStatus,
		&detectedLanguage,
		&langConfidence,
		&segmentsCount,
		&durationSeconds,
		&syncStatus,
		&remoteID,
		&lastSyncedRaw,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	rec := &Recording{
		ID:                 id,
		DisplayName:        displayName.String,
		PrimaryPath:        primaryPath.String,
		MicrophonePath:     microphonePath.String,
		MergedPath:         mergedPath.String,
		MP4Path:            mp4Path.String,
		TranscriptPath:     transcriptPath.String,
		DocumentPath:       documentPath.String,
		Translations:       decodeStringMap(translationsJSON.String),
		StageErrors:        decodeStringMap(stageErrorsJSON.String),
		TranscodeStatus:    StageStatus(transcodeStatus),
		TranscribeStatus:   StageStatus(transcribeStatus),
		TranslateStatus:    StageStatus(translateStatus),
		RenderStatus:       StageStatus(renderStatus),
		DetectedLanguage:   detectedLanguage.String,
		LanguageConfidence: langConfidence.Float64,
		SegmentsCount:      int(segmentsCount.Int64),
		DurationSeconds:    durationSeconds.Float64,
		SyncStatus:         SyncStatus(syncStatus),
		RemoteID:           remoteID.String,
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		rec.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		rec.UpdatedAt = updated
	}
	if lastSyncedRaw.Valid {
		if synced, err := parseTimeString(lastSyncedRaw.String); err == nil {
			rec.LastSyncedAt = &synced
		}
	}
	return rec, nil
}

func decodeStringMap(raw string) map[string]string {
	out := map[string]string{}
	if raw == "" {
		return out
	}
	_ = json.Unmarshal([]byte(raw), &out)
	return out
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func formatTime(value time.Time) string {
	return value.UTC().Format(time.RFC3339Nano)
}
