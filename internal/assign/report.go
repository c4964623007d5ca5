package assign

// Outcome is the terminal state of one unlabeled segment.
type Outcome string

const (
	OutcomeAssigned   Outcome = "assigned"
	OutcomeUnresolved Outcome = "unresolved"
	OutcomeSkipped    Outcome = "skipped"
)

// Score is one successful speaker comparison.
type Score struct {
	Speaker string  `json:"speaker"`
	Value   float64 `json:"value"`
}

// Decision records how a segment was resolved.
type Decision struct {
	SegmentID int     `json:"segment_id"`
	Outcome   Outcome `json:"outcome"`
	Speaker   string  `json:"speaker,omitempty"`
	Best      float64 `json:"best,omitempty"`
	Scores    []Score `json:"scores,omitempty"`
	Failures  int     `json:"failures,omitempty"`
	Reason    string  `json:"reason,omitempty"`
}

// Report summarizes an assignment pass.
type Report struct {
	Assigned        int        `json:"assigned"`
	Unresolved      int        `json:"unresolved"`
	Skipped         int        `json:"skipped"`
	AlreadyLabeled  int        `json:"already_labeled"`
	Comparisons     int        `json:"comparisons"`
	ScoringFailures int        `json:"scoring_failures"`
	Decisions       []Decision `json:"decisions,omitempty"`
}

func (r *Report) add(d Decision) {
	switch d.Outcome {
	case OutcomeAssigned:
		r.Assigned++
	case OutcomeUnresolved:
		r.Unresolved++
	case OutcomeSkipped:
		r.Skipped++
	}
	r.Comparisons += len(d.Scores) + d.Failures
	r.ScoringFailures += d.Failures
	r.Decisions = append(r.Decisions, d)
}
