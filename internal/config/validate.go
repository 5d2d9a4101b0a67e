package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateWhisper(); err != nil {
		return err
	}
	if err := c.validateSolarCore(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateWhisper() error {
	if c.Whisper.Binary == "" {
		return errors.New("whisper.binary must be set")
	}
	if c.Whisper.Model == "" {
		return errors.New("whisper.model must be set")
	}
	return nil
}

func (c *Config) validateSolarCore() error {
	if c.SolarCore.URL == "" {
		return errors.New("solar_core.url must be set")
	}
	if c.SolarCore.TimeoutSeconds <= 0 {
		return errors.New("solar_core.timeout_seconds must be positive")
	}
	if c.SolarCore.ProbeTimeoutSeconds <= 0 {
		return errors.New("solar_core.probe_timeout_seconds must be positive")
	}
	if c.SolarCore.MaxRetries < 1 {
		return errors.New("solar_core.max_retries must be at least 1")
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.StageTimeoutSeconds <= 0 {
		return errors.New("pipeline.stage_timeout_seconds must be positive")
	}
	if c.Pipeline.MergeTimeoutSeconds <= 0 {
		return errors.New("pipeline.merge_timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}
