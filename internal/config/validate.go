package config

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"speakerid/internal/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateAssignment(); err != nil {
		return err
	}
	if err := c.validateChannels(); err != nil {
		return err
	}
	if err := c.validateWhisperX(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		return errors.New("paths.work_dir must be set")
	}
	return nil
}

func (c *Config) validateAssignment() error {
	threshold := c.Assignment.VerificationThreshold
	if math.IsNaN(threshold) || math.IsInf(threshold, 0) {
		return errors.New("assignment.verification_threshold must be a finite number")
	}
	if threshold < -1 || threshold > 1 {
		return fmt.Errorf("assignment.verification_threshold must be between -1 and 1, got %v", threshold)
	}
	if c.Assignment.MinSegmentSeconds <= 0 {
		return errors.New("assignment.min_segment_seconds must be positive")
	}
	if c.Assignment.Workers <= 0 {
		return errors.New("assignment.workers must be positive")
	}
	return nil
}

func (c *Config) validateChannels() error {
	if c.Channels.TextMatchThreshold < 0 || c.Channels.TextMatchThreshold >= 100 {
		return errors.New("channels.text_match_threshold must be between 0 and 99")
	}
	if !strings.HasSuffix(c.Channels.ResultsSuffix, ".json") {
		return errors.New("channels.results_suffix must end with .json")
	}
	return nil
}

func (c *Config) validateWhisperX() error {
	switch c.WhisperX.VADMethod {
	case "silero":
	case "pyannote":
		if c.WhisperX.HFToken == "" {
			return errors.New("whisperx.hf_token must be set when whisperx.vad_method is pyannote (or set HF_TOKEN)")
		}
	default:
		return fmt.Errorf("whisperx.vad_method: unsupported value %q", c.WhisperX.VADMethod)
	}
	if c.WhisperX.Language != "" && language.ToISO2(c.WhisperX.Language) == "" {
		return fmt.Errorf("whisperx.language: unrecognized language %q", c.WhisperX.Language)
	}
	return nil
}
