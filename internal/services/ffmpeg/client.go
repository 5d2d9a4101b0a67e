package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"solarrec/internal/services"
)

// Audio track titles written into merged containers so players can tell the
// capture sources apart.
const (
	PrimaryTrackTitle   = "system"
	SecondaryTrackTitle = "microphone"
)

// Client abstracts the media conversions the pipeline needs from ffmpeg.
type Client interface {
	// Convert remuxes and re-encodes a WebM capture into a widely playable
	// MP4 file.
	Convert(ctx context.Context, source, dest string) error
	// Merge combines a screen capture and a microphone capture into one file
	// carrying both audio tracks.
	Merge(ctx context.Context, primary, secondary, dest string) error
	// Available probes the binary so health checks can report readiness.
	Available(ctx context.Context) error
}

// CLI shells out to an ffmpeg binary.
type CLI struct {
	binary        string
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// Option customizes CLI construction.
type Option func(*CLI)

// WithCommandRunner replaces process execution, used by tests.
func WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) Option {
	return func(c *CLI) { c.commandRunner = runner }
}

// NewCLI builds an ffmpeg wrapper around the configured binary.
func NewCLI(binary string, opts ...Option) *CLI {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	cli := &CLI{binary: binary}
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

// Convert implements Client.
func (c *CLI) Convert(ctx context.Context, source, dest string) error {
	if source == "" || dest == "" {
		return services.Wrap(services.ErrUpstream, "transcode", "convert", "source and destination required", nil)
	}
	args := []string{
		"-y",
		"-i", source,
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "23",
		"-c:a", "aac",
		"-movflags", "+faststart",
		dest,
	}
	if err := c.run(ctx, args...); err != nil {
		return services.Wrap(services.ErrUpstream, "transcode", "convert", "ffmpeg conversion failed", err)
	}
	return nil
}

// Merge implements Client. The primary file contributes video plus the first
// audio track, the secondary contributes the second audio track.
func (c *CLI) Merge(ctx context.Context, primary, secondary, dest string) error {
	if primary == "" || secondary == "" || dest == "" {
		return services.Wrap(services.ErrUpstream, "merge", "merge tracks", "both inputs and destination required", nil)
	}
	args := []string{
		"-y",
		"-i", primary,
		"-i", secondary,
		"-map", "0:v?",
		"-map", "0:a?",
		"-map", "1:a",
		"-c:v", "copy",
		"-c:a", "libopus",
		"-metadata:s:a:0", "title=" + PrimaryTrackTitle,
		"-metadata:s:a:1", "title=" + SecondaryTrackTitle,
		dest,
	}
	if err := c.run(ctx, args...); err != nil {
		return services.Wrap(services.ErrUpstream, "merge", "merge tracks", "ffmpeg merge failed", err)
	}
	return nil
}

// Available implements Client.
func (c *CLI) Available(ctx context.Context) error {
	if err := c.run(ctx, "-version"); err != nil {
		return services.Wrap(services.ErrUpstream, "transcode", "probe ffmpeg", "binary not available", err)
	}
	return nil
}
