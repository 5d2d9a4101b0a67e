package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"solarrec/internal/api"
	"solarrec/internal/artifacts"
	"solarrec/internal/config"
	"solarrec/internal/daemon"
	"solarrec/internal/merging"
	"solarrec/internal/pipeline"
	"solarrec/internal/recording"
	"solarrec/internal/rendering"
	"solarrec/internal/services/deepseek"
	"solarrec/internal/services/ffmpeg"
	"solarrec/internal/services/pandoc"
	"solarrec/internal/services/whisper"
	"solarrec/internal/solarcore"
	"solarrec/internal/stage"
	"solarrec/internal/synclog"
	"solarrec/internal/transcoding"
	"solarrec/internal/transcription"
	"solarrec/internal/translation"
)

// buildDaemon opens the stores and wires every pipeline collaborator into a
// ready-to-start daemon.
func buildDaemon(cfg *config.Config, logger *slog.Logger) (*daemon.Daemon, error) {
	records, err := recording.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open recording store: %w", err)
	}

	log, err := synclog.Open(cfg)
	if err != nil {
		records.Close()
		return nil, fmt.Errorf("open sync log: %w", err)
	}

	artifactStore, err := artifacts.NewStore(artifactsRoot(cfg))
	if err != nil {
		records.Close()
		log.Close()
		return nil, fmt.Errorf("open artifact store: %w", err)
	}

	ffmpegClient := ffmpeg.NewCLI(cfg.FFmpeg.Binary)

	merger := merging.NewMerger(records, artifactStore, ffmpegClient, logger,
		seconds(cfg.Pipeline.MergeTimeoutSeconds))
	orchestrator := pipeline.NewOrchestrator(records, merger, logger,
		seconds(cfg.Pipeline.StageTimeoutSeconds),
		buildHandlers(cfg, records, artifactStore, ffmpegClient, logger)...)

	translator := translation.NewTranslator(records, artifactStore,
		buildDeepSeek(cfg), logger)

	core := solarcore.NewHTTPClient(cfg.SolarCore.URL, cfg.SolarCore.APIKey,
		seconds(cfg.SolarCore.TimeoutSeconds),
		seconds(cfg.SolarCore.ProbeTimeoutSeconds))
	engine := solarcore.NewEngine(core, records, log, logger, cfg.SolarCore.MaxRetries)

	service := api.NewService(records, artifactStore, orchestrator, translator, engine, log, logger)

	d, err := daemon.New(cfg, logger, service, orchestrator, records, log)
	if err != nil {
		records.Close()
		log.Close()
		return nil, err
	}
	return d, nil
}

func buildHandlers(cfg *config.Config, records *recording.Store, artifactStore *artifacts.Store, ffmpegClient ffmpeg.Client, logger *slog.Logger) []stage.Handler {
	var whisperOpts []whisper.Option
	if cfg.Whisper.LanguageHint != "" {
		whisperOpts = append(whisperOpts, whisper.WithLanguageHint(cfg.Whisper.LanguageHint))
	}
	whisperClient := whisper.NewCLI(cfg.Whisper.Binary, cfg.Whisper.Model, whisperOpts...)
	pandocClient := pandoc.NewCLI(cfg.Pandoc.Binary)

	return []stage.Handler{
		transcoding.NewTranscoder(artifactStore, ffmpegClient, logger),
		transcription.NewTranscriber(records, artifactStore, whisperClient, logger),
		rendering.NewRenderer(artifactStore, pandocClient, logger),
	}
}

func buildDeepSeek(cfg *config.Config) deepseek.Client {
	return deepseek.NewHTTP(cfg.DeepSeek.BaseURL, cfg.DeepSeek.APIKey,
		cfg.DeepSeek.Model, seconds(cfg.DeepSeek.TimeoutSeconds))
}

func artifactsRoot(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.DataDir, "recordings")
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
