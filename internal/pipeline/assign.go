package pipeline

import (
	"context"

	"speakerid/internal/assign"
	"speakerid/internal/audio"
	"speakerid/internal/history"
	"speakerid/internal/logging"
	"speakerid/internal/reference"
	"speakerid/internal/services"
	"speakerid/internal/transcript"
)

// AssignResult summarizes a single-channel assignment run.
type AssignResult struct {
	RunID    string        `json:"run_id"`
	Speakers []string      `json:"speakers"`
	Report   assign.Report `json:"report"`
}

// AssignSpeakers labels the unlabeled segments of the transcript at
// transcriptPath using the audio at audioPath and rewrites the transcript.
// The file is only rewritten after a complete pass.
func (e *Engine) AssignSpeakers(ctx context.Context, transcriptPath, audioPath string) (AssignResult, error) {
	r, err := e.begin(ctx, history.ModeAssign, transcriptPath, audioPath)
	if err != nil {
		return AssignResult{}, err
	}
	result := AssignResult{RunID: r.id}
	var counts history.Counts
	var outputPath string
	defer func() { e.end(r, outputPath, counts, err) }()

	ctx = services.WithStage(r.ctx, "load")
	tr, err := transcript.Load(transcriptPath)
	if err != nil {
		return result, err
	}
	counts.Segments = len(tr.Segments)
	rec, err := audio.LoadWAV(audioPath)
	if err != nil {
		return result, err
	}
	buf := rec.Mono()

	ctx = services.WithStage(ctx, "reference")
	refs := reference.BuildAudio(tr, buf, e.cfg.Assignment.MinSegmentSeconds, logging.WithContext(ctx, e.logger))
	result.Speakers = reference.Speakers(refs)

	if e.verifier == nil {
		err = services.Wrap(services.ErrConfiguration, "assign", "verify", "no verifier configured", nil)
		return result, err
	}
	assigner := assign.New(e.verifier,
		assign.WithThreshold(e.cfg.Assignment.VerificationThreshold),
		assign.WithMinDuration(e.cfg.Assignment.MinSegmentSeconds),
		assign.WithWorkers(e.cfg.Assignment.Workers),
		assign.WithLogger(e.logger),
	)
	ctx = services.WithStage(ctx, "assign")
	report, err := assigner.Assign(ctx, tr, buf, refs)
	result.Report = report
	counts.Assigned = report.Assigned
	counts.Unresolved = report.Unresolved
	counts.Skipped = report.Skipped
	if err != nil {
		return result, err
	}

	if err = transcript.Save(transcriptPath, tr); err != nil {
		return result, err
	}
	outputPath = transcriptPath
	return result, nil
}
