package config

import (
	"fmt"
	"os"
	"strings"

	"speakerid/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAssignment()
	c.normalizeChannels()
	c.normalizeWhisperX()
	if err := c.normalizeVerification(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.HistoryDB, err = expandPath(strings.TrimSpace(c.Paths.HistoryDB)); err != nil {
		return fmt.Errorf("paths.history_db: %w", err)
	}
	return nil
}

func (c *Config) normalizeAssignment() {
	if c.Assignment.MinSegmentSeconds <= 0 {
		c.Assignment.MinSegmentSeconds = defaultMinSegmentSeconds
	}
	if c.Assignment.Workers <= 0 {
		c.Assignment.Workers = defaultAssignmentWorkers
	}
}

func (c *Config) normalizeChannels() {
	c.Channels.ResultsSuffix = strings.TrimSpace(c.Channels.ResultsSuffix)
	if c.Channels.ResultsSuffix == "" {
		c.Channels.ResultsSuffix = defaultResultsSuffix
	}
}

func (c *Config) normalizeWhisperX() {
	c.WhisperX.Model = strings.TrimSpace(c.WhisperX.Model)
	if c.WhisperX.Model == "" {
		c.WhisperX.Model = defaultWhisperXModel
	}
	c.WhisperX.VADMethod = strings.ToLower(strings.TrimSpace(c.WhisperX.VADMethod))
	if c.WhisperX.VADMethod == "" {
		c.WhisperX.VADMethod = defaultWhisperXVADMethod
	}
	c.WhisperX.Language = strings.TrimSpace(c.WhisperX.Language)
	if iso := language.ToISO2(c.WhisperX.Language); iso != "" {
		c.WhisperX.Language = iso
	}
	if value, ok := os.LookupEnv("HUGGING_FACE_HUB_TOKEN"); ok && strings.TrimSpace(value) != "" {
		c.WhisperX.HFToken = strings.TrimSpace(value)
	} else if value, ok := os.LookupEnv("HF_TOKEN"); ok && strings.TrimSpace(value) != "" {
		c.WhisperX.HFToken = strings.TrimSpace(value)
	}
	c.WhisperX.HFToken = strings.TrimSpace(c.WhisperX.HFToken)
}

func (c *Config) normalizeVerification() error {
	c.Verification.Source = strings.TrimSpace(c.Verification.Source)
	if c.Verification.Source == "" {
		c.Verification.Source = defaultVerificationSource
	}
	if strings.TrimSpace(c.Verification.SaveDir) == "" {
		c.Verification.SaveDir = defaultVerificationSaveDir
	}
	var err error
	if c.Verification.SaveDir, err = expandPath(c.Verification.SaveDir); err != nil {
		return fmt.Errorf("verification.savedir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
