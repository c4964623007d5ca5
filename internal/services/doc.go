// Package services defines shared utilities consumed by the labeling pipeline
// and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers and stage names for logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent run outcomes (completed, idle, incomplete, failed).
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// (error classification, observability) stays uniform across commands.
package services
