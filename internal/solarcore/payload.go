package solarcore

import (
	"sort"
	"time"

	"solarrec/internal/artifacts"
	"solarrec/internal/recording"
)

// Envelope identity constants understood by the Core's import endpoint.
const (
	SourceName     = "solar_recorder"
	PayloadVersion = "1.0"
	PayloadType    = "recording"
)

// Payload is the import envelope delivered to the Core.
type Payload struct {
	Source    string         `json:"source"`
	Version   string         `json:"version"`
	Type      string         `json:"type"`
	Data      Data           `json:"data"`
	Metadata  map[string]any `json:"metadata"`
	Timestamp string         `json:"timestamp"`
}

// Data carries the recording's identity and artifact locations.
type Data struct {
	ID              string `json:"id"`
	VideoPath       string `json:"video_path"`
	TranscriptPath  string `json:"transcript_path"`
	TranslationPath string `json:"translation_path,omitempty"`
	PDFPath         string `json:"pdf_path"`
}

// BuildPayload assembles the import envelope for one recording. Artifact
// fields that have not been produced yet stay empty. Extra metadata from the
// caller is merged in without overriding the standard keys.
func BuildPayload(rec *recording.Recording, extra map[string]any, now time.Time) Payload {
	video := rec.MP4Path
	if video == "" {
		video = rec.SourcePath()
	}

	metadata := map[string]any{
		"language":         rec.DetectedLanguage,
		"created_at":       rec.CreatedAt.UTC().Format(time.RFC3339),
		"has_translation":  len(rec.Translations) > 0,
		"duration_seconds": rec.DurationSeconds,
		"file_size_bytes":  artifacts.Size(video),
		"segments_count":   rec.SegmentsCount,
	}
	for key, value := range extra {
		if _, taken := metadata[key]; !taken {
			metadata[key] = value
		}
	}

	return Payload{
		Source:  SourceName,
		Version: PayloadVersion,
		Type:    PayloadType,
		Data: Data{
			ID:              rec.ID,
			VideoPath:       video,
			TranscriptPath:  rec.TranscriptPath,
			TranslationPath: firstTranslation(rec.Translations),
			PDFPath:         rec.DocumentPath,
		},
		Metadata:  metadata,
		Timestamp: now.UTC().Format(time.RFC3339),
	}
}

// firstTranslation picks a deterministic translation path when several
// languages exist.
func firstTranslation(translations map[string]string) string {
	if len(translations) == 0 {
		return ""
	}
	langs := make([]string, 0, len(translations))
	for lang := range translations {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return translations[langs[0]]
}
