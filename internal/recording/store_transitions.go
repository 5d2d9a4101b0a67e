package recording

import (
	"context"
	"fmt"
	"strings"
	"time"
)

func stageStatusColumn(stage Stage) (string, error) {
	switch stage {
	case StageTranscode:
		return "transcode_status", nil
	case StageTranscribe:
		return "transcribe_status", nil
	case StageTranslate:
		return "translate_status", nil
	case StageRenderDocument:
		return "render_status", nil
	}
	return "", fmt.Errorf("unknown stage %q", stage)
}

func stageArtifactColumn(stage Stage) string {
	switch stage {
	case StageTranscode:
		return "mp4_path"
	case StageTranscribe:
		return "transcript_path"
	case StageRenderDocument:
		return "document_path"
	}
	return ""
}

// jsonPath builds a quoted SQLite JSON path for a map key.
func jsonPath(key string) string {
	return `$."` + strings.ReplaceAll(key, `"`, ``) + `"`
}

// TransitionStage atomically moves a stage status when the current value is
// one of the allowed origins. It reports false when the guard did not match,
// which covers both a concurrent transition and a deleted recording. Entering
// the running state clears the stage's previous error, if any.
func (s *Store) TransitionStage(ctx context.Context, id string, stage Stage, from []StageStatus, to StageStatus) (bool, error) {
	column, err := stageStatusColumn(stage)
	if err != nil {
		return false, err
	}
	if len(from) == 0 {
		return false, fmt.Errorf("transition for %s requires origin statuses", stage)
	}

	placeholders := make([]string, len(from))
	args := make([]any, 0, len(from)+4)
	args = append(args, string(to))
	if to == StageRunning {
		args = append(args, jsonPath(string(stage)))
	}
	args = append(args, formatTime(time.Now().UTC()), id)
	for i, status := range from {
		placeholders[i] = "?"
		args = append(args, string(status))
	}

	query := "UPDATE recordings SET " + column + " = ?, updated_at = ? WHERE id = ? AND " + column + " IN (" + strings.Join(placeholders, ",") + ")"
	if to == StageRunning {
		query = "UPDATE recordings SET " + column + " = ?, stage_errors_json = json_remove(stage_errors_json, ?), updated_at = ? WHERE id = ? AND " + column + " IN (" + strings.Join(placeholders, ",") + ")"
	}

	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("transition %s to %s: %w", stage, to, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("transition %s: rows affected: %w", stage, err)
	}
	return affected > 0, nil
}

// CompleteStage marks a stage done and records its artifact path when the
// stage produces one.
func (s *Store) CompleteStage(ctx context.Context, id string, stage Stage, artifactPath string) error {
	statusColumn, err := stageStatusColumn(stage)
	if err != nil {
		return err
	}
	artifactColumn := stageArtifactColumn(stage)
	if artifactColumn == "" || artifactPath == "" {
		return s.touchUpdate(ctx, id, statusColumn+" = ?", string(StageDone))
	}
	return s.touchUpdate(ctx, id,
		statusColumn+" = ?, "+artifactColumn+" = ?",
		string(StageDone), artifactPath)
}

// FailStage marks a stage failed and stores its error message. The message
// lands inside stage_errors_json via json_set so concurrent failures of
// different stages never clobber each other.
func (s *Store) FailStage(ctx context.Context, id string, stage Stage, message string) error {
	statusColumn, err := stageStatusColumn(stage)
	if err != nil {
		return err
	}
	return s.touchUpdate(ctx, id,
		statusColumn+" = ?, stage_errors_json = json_set(stage_errors_json, ?, ?)",
		string(StageFailed), jsonPath(string(stage)), message)
}

// SetStageError stores an error message under an arbitrary key in the stage
// error map without touching any status column. Used for failures that do not
// belong to a single stage, such as a track merge.
func (s *Store) SetStageError(ctx context.Context, id, key, message string) error {
	return s.touchUpdate(ctx, id,
		"stage_errors_json = json_set(stage_errors_json, ?, ?)",
		jsonPath(key), message)
}

// SetTranslation records a finished translation artifact for a target
// language. Concurrent translations into different languages update disjoint
// JSON keys inside one UPDATE statement each, so neither write is lost.
func (s *Store) SetTranslation(ctx context.Context, id, language, path string) error {
	return s.touchUpdate(ctx, id,
		"translations_json = json_set(translations_json, ?, ?)",
		jsonPath(language), path)
}
