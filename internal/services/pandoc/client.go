package pandoc

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"solarrec/internal/services"
)

// Client abstracts document rendering for the render stage.
type Client interface {
	// Render turns a plain-text transcript into a titled PDF document.
	Render(ctx context.Context, transcriptPath, title, dest string) error
	Available(ctx context.Context) error
}

// CLI shells out to a pandoc binary.
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

// NewCLI builds a pandoc wrapper around the configured binary.
func NewCLI(binary string, opts ...Option) *CLI {
	if strings.TrimSpace(binary) == "" {
		binary = "pandoc"
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

// Render implements Client. The transcript is staged as markdown so pandoc
// applies its standard typography before producing the PDF.
func (c *CLI) Render(ctx context.Context, transcriptPath, title, dest string) error {
	if transcriptPath == "" || dest == "" {
		return services.Wrap(services.ErrUpstream, "render_document", "render", "transcript and destination required", nil)
	}

	body, err := os.ReadFile(transcriptPath)
	if err != nil {
		return services.Wrap(services.ErrUpstream, "render_document", "read transcript", "transcript unreadable", err)
	}

	staged := filepath.Join(filepath.Dir(dest), strings.TrimSuffix(filepath.Base(dest), filepath.Ext(dest))+".md")
	if err := os.WriteFile(staged, buildMarkdown(title, string(body)), 0o644); err != nil {
		return services.Wrap(services.ErrUpstream, "render_document", "stage markdown", "cannot write staging file", err)
	}
	defer os.Remove(staged)

	args := []string{
		staged,
		"-o", dest,
		"-V", "geometry:margin=1in",
	}
	if err := c.run(ctx, args...); err != nil {
		return services.Wrap(services.ErrUpstream, "render_document", "render", "pandoc failed", err)
	}
	return nil
}

// Available implements Client.
func (c *CLI) Available(ctx context.Context) error {
	if err := c.run(ctx, "--version"); err != nil {
		return services.Wrap(services.ErrUpstream, "render_document", "probe pandoc", "binary not available", err)
	}
	return nil
}

func buildMarkdown(title, body string) []byte {
	var b strings.Builder
	if title = strings.TrimSpace(title); title != "" {
		b.WriteString("# ")
		b.WriteString(title)
		b.WriteString("\n\n")
	}
	b.WriteString(strings.TrimSpace(body))
	b.WriteString("\n")
	return []byte(b.String())
}
