package api

import (
	"time"

	"solarrec/internal/recording"
	"solarrec/internal/synclog"
)

// RecordingView is the external representation of a recording.
type RecordingView struct {
	ID                 string            `json:"id"`
	DisplayName        string            `json:"display_name"`
	Stages             map[string]string `json:"stages"`
	StageErrors        map[string]string `json:"stage_errors,omitempty"`
	VideoPath          string            `json:"video_path,omitempty"`
	MicrophonePath     string            `json:"microphone_path,omitempty"`
	MergedPath         string            `json:"merged_path,omitempty"`
	MP4Path            string            `json:"mp4_path,omitempty"`
	TranscriptPath     string            `json:"transcript_path,omitempty"`
	DocumentPath       string            `json:"document_path,omitempty"`
	Translations       map[string]string `json:"translations,omitempty"`
	DetectedLanguage   string            `json:"detected_language,omitempty"`
	LanguageConfidence float64           `json:"language_confidence,omitempty"`
	SegmentsCount      int               `json:"segments_count,omitempty"`
	DurationSeconds    float64           `json:"duration_seconds,omitempty"`
	Processed          bool              `json:"processed"`
	SyncStatus         string            `json:"sync_status"`
	RemoteID           string            `json:"remote_id,omitempty"`
	LastSyncedAt       *time.Time        `json:"last_synced_at,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// NewRecordingView converts a stored recording into its API shape.
func NewRecordingView(rec *recording.Recording) RecordingView {
	view := RecordingView{
		ID:          rec.ID,
		DisplayName: rec.DisplayName,
		Stages: map[string]string{
			string(recording.StageTranscode):      string(rec.TranscodeStatus),
			string(recording.StageTranscribe):     string(rec.TranscribeStatus),
			string(recording.StageTranslate):      string(rec.TranslateStatus),
			string(recording.StageRenderDocument): string(rec.RenderStatus),
		},
		VideoPath:          rec.PrimaryPath,
		MicrophonePath:     rec.MicrophonePath,
		MergedPath:         rec.MergedPath,
		MP4Path:            rec.MP4Path,
		TranscriptPath:     rec.TranscriptPath,
		DocumentPath:       rec.DocumentPath,
		DetectedLanguage:   rec.DetectedLanguage,
		LanguageConfidence: rec.LanguageConfidence,
		SegmentsCount:      rec.SegmentsCount,
		DurationSeconds:    rec.DurationSeconds,
		Processed:          rec.Processed(),
		SyncStatus:         string(rec.SyncStatus),
		RemoteID:           rec.RemoteID,
		LastSyncedAt:       rec.LastSyncedAt,
		CreatedAt:          rec.CreatedAt,
		UpdatedAt:          rec.UpdatedAt,
	}
	if len(rec.StageErrors) > 0 {
		view.StageErrors = rec.StageErrors
	}
	if len(rec.Translations) > 0 {
		view.Translations = rec.Translations
	}
	return view
}

// SyncLogEntryView is one sync history row.
type SyncLogEntryView struct {
	Status         string    `json:"status"`
	Timestamp      time.Time `json:"timestamp"`
	RemoteResponse string    `json:"remote_response,omitempty"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	RetryCount     int       `json:"retry_count"`
}

// SyncStatusView combines a recording's current sync state with its history.
type SyncStatusView struct {
	RecordingID  string             `json:"recording_id"`
	SyncStatus   string             `json:"sync_status"`
	RemoteID     string             `json:"remote_id,omitempty"`
	LastSyncedAt *time.Time         `json:"last_synced_at,omitempty"`
	History      []SyncLogEntryView `json:"history"`
}

func newSyncLogViews(entries []synclog.Entry) []SyncLogEntryView {
	views := make([]SyncLogEntryView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, SyncLogEntryView{
			Status:         string(entry.Status),
			Timestamp:      entry.Timestamp,
			RemoteResponse: entry.RemoteResponse,
			ErrorMessage:   entry.ErrorMessage,
			RetryCount:     entry.RetryCount,
		})
	}
	return views
}

// SyncOutcomeView is the response of a sync request.
type SyncOutcomeView struct {
	RecordingID string `json:"recording_id"`
	Status      string `json:"status"`
	RemoteID    string `json:"remote_id,omitempty"`
	Attempts    int    `json:"attempts"`
	Message     string `json:"message,omitempty"`
}

// TranslationView is the response of a translation request.
type TranslationView struct {
	RecordingID    string `json:"recording_id"`
	TargetLanguage string `json:"target_language"`
	Path           string `json:"path"`
	Degraded       bool   `json:"degraded"`
}

// StageHealthView reports one stage handler's readiness.
type StageHealthView struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// StatusView is the daemon status summary.
type StatusView struct {
	Recordings int               `json:"recordings"`
	SyncCounts map[string]int    `json:"sync_counts"`
	Stages     []StageHealthView `json:"stages"`
}
