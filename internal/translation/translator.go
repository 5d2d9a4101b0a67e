// Package translation produces transcript translations on demand. Unlike
// the derivation chain it never runs automatically after upload.
package translation

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/language"

	"solarrec/internal/artifacts"
	"solarrec/internal/logging"
	"solarrec/internal/recording"
	"solarrec/internal/services"
	"solarrec/internal/services/deepseek"
)

// Translator translates finished transcripts into requested languages.
type Translator struct {
	store     *recording.Store
	artifacts *artifacts.Store
	client    deepseek.Client
	logger    *slog.Logger
}

// NewTranslator wires the translator around its collaborators.
func NewTranslator(store *recording.Store, artifactStore *artifacts.Store, client deepseek.Client, logger *slog.Logger) *Translator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Translator{
		store:     store,
		artifacts: artifactStore,
		client:    client,
		logger:    logging.NewComponentLogger(logger, "translator"),
	}
}

// Configured reports whether the translation service has credentials.
// Unconfigured translators still work, producing placeholder bodies.
func (t *Translator) Configured() bool {
	return t.client.Configured()
}

// Translate produces the translation artifact for one target language and
// returns its path plus whether the body is a degraded placeholder.
// Re-invoking a finished language translates again and overwrites the prior
// artifact for that pair. A recording without a finished transcript is a
// conflict, as is a translation already mid-flight. Backend failures never
// propagate: they land as an explanatory placeholder body instead.
func (t *Translator) Translate(ctx context.Context, rec *recording.Recording, targetLanguage string) (string, bool, error) {
	lang := strings.ToLower(strings.TrimSpace(targetLanguage))
	if lang == "" {
		return "", false, services.Wrap(services.ErrConflict, "translate", "validate request", "target language required", nil)
	}
	if _, err := language.Parse(lang); err != nil {
		return "", false, services.Wrap(services.ErrConflict, "translate", "validate request", "unrecognized target language "+strconv.Quote(lang), err)
	}
	if !artifacts.Exists(rec.TranscriptPath) {
		return "", false, services.Wrap(services.ErrConflict, "translate", "locate transcript", "transcript missing", nil)
	}

	ok, err := t.store.TransitionStage(ctx, rec.ID, recording.StageTranslate,
		[]recording.StageStatus{recording.StagePending, recording.StageDone, recording.StageFailed},
		recording.StageRunning)
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, services.Wrap(services.ErrConflict, "translate", "acquire stage", "translation already running", nil)
	}

	path, degraded, translateErr := t.translate(ctx, rec, lang)
	if translateErr != nil {
		if failErr := t.store.FailStage(ctx, rec.ID, recording.StageTranslate, translateErr.Error()); failErr != nil {
			t.logger.Warn("failed to record translation failure",
				logging.String(logging.FieldRecordingID, rec.ID),
				logging.Error(failErr))
		}
		return "", false, translateErr
	}
	if err := t.store.CompleteStage(ctx, rec.ID, recording.StageTranslate, ""); err != nil {
		return "", false, err
	}
	return path, degraded, nil
}

func (t *Translator) translate(ctx context.Context, rec *recording.Recording, lang string) (string, bool, error) {
	text, err := os.ReadFile(rec.TranscriptPath)
	if err != nil {
		return "", false, services.Wrap(services.ErrUpstream, "translate", "read transcript", "transcript unreadable", err)
	}

	t.logger.Info("translating transcript",
		logging.String(logging.FieldRecordingID, rec.ID),
		logging.String("source_language", rec.DetectedLanguage),
		logging.String("target_language", lang),
		logging.Bool("degraded", !t.client.Configured()))

	degraded := !t.client.Configured()
	translated, err := t.client.Translate(ctx, string(text), rec.DetectedLanguage, lang)
	if err != nil {
		if ctx.Err() != nil {
			return "", false, err
		}
		// Backend trouble degrades to a placeholder body instead of failing
		// the request.
		t.logger.Warn("translation backend failed, storing placeholder",
			logging.String(logging.FieldRecordingID, rec.ID),
			logging.String("target_language", lang),
			logging.Error(err))
		translated = deepseek.PlaceholderFailure(err)
		degraded = true
	}
	path, err := t.artifacts.SaveTranslation(rec.ID, lang, translated)
	if err != nil {
		return "", false, services.Wrap(services.ErrUpstream, "translate", "save translation", "cannot write translation", err)
	}
	if err := t.store.SetTranslation(ctx, rec.ID, lang, path); err != nil {
		return "", false, err
	}
	if rec.Translations == nil {
		rec.Translations = map[string]string{}
	}
	rec.Translations[lang] = path
	return path, degraded, nil
}
