package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDeepSeek()
	c.normalizeSolarCore()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	return nil
}

func (c *Config) normalizeDeepSeek() {
	if c.DeepSeek.APIKey == "" {
		c.DeepSeek.APIKey = strings.TrimSpace(os.Getenv("DEEPSEEK_API_KEY"))
	}
	if strings.TrimSpace(c.DeepSeek.BaseURL) == "" {
		c.DeepSeek.BaseURL = defaultDeepSeekBaseURL
	}
	if strings.TrimSpace(c.DeepSeek.Model) == "" {
		c.DeepSeek.Model = defaultDeepSeekModel
	}
	if c.DeepSeek.TimeoutSeconds <= 0 {
		c.DeepSeek.TimeoutSeconds = defaultDeepSeekTimeout
	}
}

func (c *Config) normalizeSolarCore() {
	if env := strings.TrimSpace(os.Getenv("SOLAR_CORE_URL")); env != "" && c.SolarCore.URL == defaultSolarCoreURL {
		c.SolarCore.URL = env
	}
	if c.SolarCore.APIKey == "" {
		c.SolarCore.APIKey = strings.TrimSpace(os.Getenv("SOLAR_CORE_API_KEY"))
	}
	c.SolarCore.URL = strings.TrimRight(strings.TrimSpace(c.SolarCore.URL), "/")
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
