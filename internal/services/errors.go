package services

import (
	"errors"
	"fmt"
	"strings"

	"speakerid/internal/history"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrMalformed           = errors.New("malformed transcript")
	ErrInvalidSegment      = errors.New("invalid segment")
	ErrInvalidAudio        = errors.New("invalid audio")
	ErrNoReferenceSpeakers = errors.New("no reference speakers")
	ErrIncompleteMapping   = errors.New("incomplete channel mapping")
	ErrUnanchorableChannel = errors.New("unanchorable channel")
	ErrScoringFailure      = errors.New("scoring failure")
	ErrExternalTool        = errors.New("external tool error")
	ErrValidation          = errors.New("validation error")
	ErrConfiguration       = errors.New("configuration error")
	ErrBusy                = errors.New("run already in progress")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later outcome classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Outcome maps the error returned by a run to the status recorded in the run
// history. Recoverable conditions (nothing to label, incomplete channel
// mapping, unanchorable channels) are reported distinctly from hard failures.
func Outcome(err error) history.Status {
	switch {
	case err == nil:
		return history.StatusCompleted
	case errors.Is(err, ErrNoReferenceSpeakers):
		return history.StatusIdle
	case errors.Is(err, ErrIncompleteMapping), errors.Is(err, ErrUnanchorableChannel):
		return history.StatusIncomplete
	default:
		return history.StatusFailed
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
