package recording

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Stage identifies one derivation step in the processing chain.
type Stage string

const (
	StageTranscode      Stage = "transcode"
	StageTranscribe     Stage = "transcribe"
	StageTranslate      Stage = "translate"
	StageRenderDocument Stage = "render_document"
)

// Stages lists every stage in canonical order.
func Stages() []Stage {
	return []Stage{StageTranscode, StageTranscribe, StageTranslate, StageRenderDocument}
}

// ParseStage validates a stage name from an external caller.
func ParseStage(value string) (Stage, bool) {
	stage := Stage(strings.TrimSpace(strings.ToLower(value)))
	switch stage {
	case StageTranscode, StageTranscribe, StageTranslate, StageRenderDocument:
		return stage, true
	}
	return "", false
}

// StageStatus tracks the lifecycle of a single stage on one recording.
type StageStatus string

const (
	StagePending StageStatus = "pending"
	StageRunning StageStatus = "running"
	StageDone    StageStatus = "done"
	StageFailed  StageStatus = "failed"
)

// SyncStatus tracks delivery of a recording to the remote Core.
type SyncStatus string

const (
	SyncUnsynced SyncStatus = "unsynced"
	SyncPending  SyncStatus = "pending"
	SyncSynced   SyncStatus = "synced"
	SyncFailed   SyncStatus = "failed"
)

// Recording is one captured session and everything derived from it.
type Recording struct {
	ID          string
	DisplayName string

	PrimaryPath    string
	MicrophonePath string
	MergedPath     string
	MP4Path        string
	TranscriptPath string
	DocumentPath   string

	// Translations maps target language code to the translation artifact path.
	Translations map[string]string
	// StageErrors maps stage name to the message of its most recent failure.
	StageErrors map[string]string

	TranscodeStatus  StageStatus
	TranscribeStatus StageStatus
	TranslateStatus  StageStatus
	RenderStatus     StageStatus

	DetectedLanguage   string
	LanguageConfidence float64
	SegmentsCount      int
	DurationSeconds    float64

	SyncStatus   SyncStatus
	RemoteID     string
	LastSyncedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewID derives a recording id from the capture time plus a short random
// suffix so two uploads in the same second never collide.
func NewID(now time.Time) string {
	return now.UTC().Format("20060102_150405") + "-" + uuid.NewString()[:8]
}

// StageStatus returns the status column for the given stage.
func (r *Recording) StageStatus(stage Stage) StageStatus {
	switch stage {
	case StageTranscode:
		return r.TranscodeStatus
	case StageTranscribe:
		return r.TranscribeStatus
	case StageTranslate:
		return r.TranslateStatus
	case StageRenderDocument:
		return r.RenderStatus
	}
	return ""
}

// HasMicrophoneTrack reports whether this recording captured a second track.
func (r *Recording) HasMicrophoneTrack() bool {
	return r.MicrophonePath != ""
}

// SourcePath is the canonical input for derivation stages. Dual-track
// recordings derive from the merged file once it exists.
func (r *Recording) SourcePath() string {
	if r.MergedPath != "" {
		return r.MergedPath
	}
	return r.PrimaryPath
}

// Processed reports whether the mandatory derivation chain finished.
func (r *Recording) Processed() bool {
	return r.TranscribeStatus == StageDone && r.RenderStatus == StageDone
}
