package config

const (
	defaultDataDir             = "~/.local/share/solarrec/data"
	defaultLogDir              = "~/.local/share/solarrec/logs"
	defaultAPIBind             = "127.0.0.1:7489"
	defaultWhisperBinary       = "whisper"
	defaultWhisperModel        = "base"
	defaultFFmpegBinary        = "ffmpeg"
	defaultPandocBinary        = "pandoc"
	defaultDeepSeekBaseURL     = "https://api.deepseek.com/v1"
	defaultDeepSeekModel       = "deepseek-chat"
	defaultDeepSeekTimeout     = 60
	defaultSolarCoreURL        = "http://localhost:8010"
	defaultSolarCoreTimeout    = 30
	defaultSolarCoreProbe      = 5
	defaultSolarCoreMaxRetries = 3
	defaultStageTimeout        = 1800
	defaultMergeTimeout        = 600
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Whisper: Whisper{
			Binary: defaultWhisperBinary,
			Model:  defaultWhisperModel,
		},
		FFmpeg: FFmpeg{
			Binary: defaultFFmpegBinary,
		},
		Pandoc: Pandoc{
			Binary: defaultPandocBinary,
		},
		DeepSeek: DeepSeek{
			BaseURL:        defaultDeepSeekBaseURL,
			Model:          defaultDeepSeekModel,
			TimeoutSeconds: defaultDeepSeekTimeout,
		},
		SolarCore: SolarCore{
			URL:                 defaultSolarCoreURL,
			TimeoutSeconds:      defaultSolarCoreTimeout,
			ProbeTimeoutSeconds: defaultSolarCoreProbe,
			MaxRetries:          defaultSolarCoreMaxRetries,
		},
		Pipeline: Pipeline{
			StageTimeoutSeconds: defaultStageTimeout,
			MergeTimeoutSeconds: defaultMergeTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
