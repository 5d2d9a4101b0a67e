package whisper

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"solarrec/internal/services"
)

// DefaultModel is used when the configuration does not pin one.
const DefaultModel = "base"

// Result is the outcome of transcribing one recording.
type Result struct {
	Text       string
	Language   string
	Confidence float64
	Segments   int
}

// Client abstracts speech-to-text for the transcribe stage.
type Client interface {
	Transcribe(ctx context.Context, source string) (Result, error)
	Available(ctx context.Context) error
}

// CLI shells out to a whisper binary that writes JSON output files.
type CLI struct {
	binary        string
	model         string
	languageHint  string
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// Option customizes CLI construction.
type Option func(*CLI)

// WithCommandRunner replaces process execution, used by tests.
func WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) Option {
	return func(c *CLI) { c.commandRunner = runner }
}

// WithLanguageHint forces the decode language instead of auto-detection.
func WithLanguageHint(language string) Option {
	return func(c *CLI) { c.languageHint = language }
}

// NewCLI builds a whisper wrapper around the configured binary and model.
func NewCLI(binary, model string, opts ...Option) *CLI {
	if strings.TrimSpace(binary) == "" {
		binary = "whisper"
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	cli := &CLI{binary: binary, model: model}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

func (c *CLI) run(ctx context.Context, args ...string) error {
	if c.commandRunner != nil {
		return c.commandRunner(ctx, c.binary, args...)
	}
	cmd := exec.CommandContext(ctx, c.binary, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", c.binary, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// Transcribe implements Client. The binary writes <source-base>.json next to
// the requested output directory; its contents become the Result.
func (c *CLI) Transcribe(ctx context.Context, source string) (Result, error) {
	var result Result
	if source == "" {
		return result, services.Wrap(services.ErrUpstream, "transcribe", "run whisper", "source path required", nil)
	}

	outputDir := filepath.Dir(source)
	args := []string{
		source,
		"--model", c.model,
		"--output_format", "json",
		"--output_dir", outputDir,
	}
	if c.languageHint != "" {
		args = append(args, "--language", c.languageHint)
	}
	if err := c.run(ctx, args...); err != nil {
		return result, services.Wrap(services.ErrUpstream, "transcribe", "run whisper", "transcription failed", err)
	}

	baseName := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	jsonPath := filepath.Join(outputDir, baseName+".json")
	parsed, err := loadOutput(jsonPath)
	if err != nil {
		return result, services.Wrap(services.ErrUpstream, "transcribe", "parse output", "whisper output unreadable", err)
	}
	return parsed, nil
}

// Available implements Client.
func (c *CLI) Available(ctx context.Context) error {
	if err := c.run(ctx, "--help"); err != nil {
		return services.Wrap(services.ErrUpstream, "transcribe", "probe whisper", "binary not available", err)
	}
	return nil
}

type outputSegment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type outputPayload struct {
	Text                string          `json:"text"`
	Language            string          `json:"language"`
	LanguageProbability float64         `json:"language_probability"`
	Segments            []outputSegment `json:"segments"`
}

func loadOutput(jsonPath string) (Result, error) {
	var result Result
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return result, err
	}
	var payload outputPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return result, fmt.Errorf("parse whisper json: %w", err)
	}

	text := strings.TrimSpace(payload.Text)
	if text == "" {
		var parts []string
		for _, seg := range payload.Segments {
			if fragment := strings.TrimSpace(seg.Text); fragment != "" {
				parts = append(parts, fragment)
			}
		}
		text = strings.Join(parts, " ")
	}

	result.Text = text
	result.Language = payload.Language
	result.Confidence = payload.LanguageProbability
	result.Segments = len(payload.Segments)
	return result, nil
}
