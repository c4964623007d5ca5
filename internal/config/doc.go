// Package config loads, normalizes, and validates speakerid configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// HF_TOKEN. The Config type centralizes every knob the labeling pipeline and
// CLI need: assignment thresholds, channel mapping heuristics, and the
// WhisperX/SpeechBrain adapter settings.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
