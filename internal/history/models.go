package history

import "time"

// Status describes where a run ended up.
type Status string

const (
	StatusRunning    Status = "running"
	StatusCompleted  Status = "completed"
	StatusIdle       Status = "idle"
	StatusIncomplete Status = "incomplete"
	StatusFailed     Status = "failed"
)

// IsTerminal reports whether the status represents a finished run.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusIdle, StatusIncomplete, StatusFailed:
		return true
	default:
		return false
	}
}

// Mode identifies which pipeline produced a run.
type Mode string

const (
	ModeAssign   Mode = "assign"
	ModeChannels Mode = "channels"
)

// Counts carries the per-run counters reported by the pipeline.
type Counts struct {
	Assigned   int `json:"assigned"`
	Unresolved int `json:"unresolved"`
	Skipped    int `json:"skipped"`
	Channels   int `json:"channels"`
	Segments   int `json:"segments"`
}

// Run is one recorded pipeline invocation.
type Run struct {
	ID             string    `json:"id"`
	Mode           Mode      `json:"mode"`
	TranscriptPath string    `json:"transcript_path"`
	AudioPath      string    `json:"audio_path,omitempty"`
	OutputPath     string    `json:"output_path,omitempty"`
	Status         Status    `json:"status"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	Counts         Counts    `json:"counts"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at,omitzero"`
}

// Duration returns the elapsed run time, or zero while the run is active.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
