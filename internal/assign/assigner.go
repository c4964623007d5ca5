package assign

import (
	"context"
	"errors"
	"log/slog"
	"math"

	"golang.org/x/sync/errgroup"

	"speakerid/internal/audio"
	"speakerid/internal/logging"
	"speakerid/internal/reference"
	"speakerid/internal/services"
	"speakerid/internal/transcript"
)

// DefaultThreshold is the score a segment's best match must strictly exceed.
const DefaultThreshold = 0.2

// Assigner labels unlabeled segments using a Verifier.
type Assigner struct {
	Threshold   float64
	MinDuration float64
	Workers     int

	verifier Verifier
	logger   *slog.Logger
}

// Option configures an Assigner.
type Option func(*Assigner)

// WithThreshold sets the assignment threshold.
func WithThreshold(threshold float64) Option {
	return func(a *Assigner) { a.Threshold = threshold }
}

// WithMinDuration sets the shortest usable segment slice in seconds.
func WithMinDuration(seconds float64) Option {
	return func(a *Assigner) { a.MinDuration = seconds }
}

// WithWorkers bounds concurrent segment scoring.
func WithWorkers(n int) Option {
	return func(a *Assigner) { a.Workers = n }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assigner) { a.logger = logger }
}

// New constructs an Assigner with default threshold, minimum duration, and a
// single worker.
func New(verifier Verifier, opts ...Option) *Assigner {
	a := &Assigner{
		Threshold:   DefaultThreshold,
		MinDuration: audio.DefaultMinDuration,
		Workers:     1,
		verifier:    verifier,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	if a.logger == nil {
		a.logger = logging.NewNop()
	}
	a.logger = logging.NewComponentLogger(a.logger, "assign")
	if a.Workers < 1 {
		a.Workers = 1
	}
	return a
}

// Assign scores every unlabeled segment of tr against refs and labels those
// whose best score strictly exceeds the threshold. The transcript is modified
// only after every segment has been scored; on error it is left untouched.
func (a *Assigner) Assign(ctx context.Context, tr *transcript.Transcript, buf audio.Buffer, refs []reference.AudioReference) (Report, error) {
	var report Report
	if tr == nil {
		return report, errors.New("assign: nil transcript")
	}
	if a.verifier == nil {
		return report, services.Wrap(services.ErrConfiguration, "assign", "verify", "no verifier configured", nil)
	}
	if len(refs) == 0 {
		return report, services.Wrap(services.ErrNoReferenceSpeakers, "assign", "references", "no labeled segments yield usable reference audio", nil)
	}

	var pending []int
	for i, seg := range tr.Segments {
		if seg.Labeled() {
			report.AlreadyLabeled++
			continue
		}
		pending = append(pending, i)
	}

	logger := logging.WithContext(ctx, a.logger)
	logger.Info("assignment started",
		logging.Int("pending", len(pending)),
		logging.Int("speakers", len(refs)),
		logging.Float64("threshold", a.Threshold),
		logging.Int("workers", a.Workers),
	)

	decisions := make([]Decision, len(pending))
	if a.Workers <= 1 || len(pending) < 2 {
		for j, idx := range pending {
			if err := ctx.Err(); err != nil {
				return Report{}, err
			}
			d, err := a.decide(ctx, logger, tr.Segments[idx], buf, refs)
			if err != nil {
				return Report{}, err
			}
			decisions[j] = d
		}
	} else {
		group, gctx := errgroup.WithContext(ctx)
		group.SetLimit(a.Workers)
		for j, idx := range pending {
			seg := tr.Segments[idx]
			group.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				d, err := a.decide(gctx, logger, seg, buf, refs)
				if err != nil {
					return err
				}
				decisions[j] = d
				return nil
			})
		}
		if err := group.Wait(); err != nil {
			return Report{}, err
		}
		if err := ctx.Err(); err != nil {
			return Report{}, err
		}
	}

	for j, idx := range pending {
		d := decisions[j]
		if d.Outcome == OutcomeAssigned {
			tr.Segments[idx].Speaker = d.Speaker
		}
		report.add(d)
	}

	logger.Info("assignment finished",
		logging.Int("assigned", report.Assigned),
		logging.Int("unresolved", report.Unresolved),
		logging.Int("skipped", report.Skipped),
		logging.Int("already_labeled", report.AlreadyLabeled),
		logging.Int("comparisons", report.Comparisons),
		logging.Int("scoring_failures", report.ScoringFailures),
	)
	return report, nil
}

// decide scores one segment. It returns an error when ctx is done or the
// verifier itself is unusable; failures on a single pair are recorded.
func (a *Assigner) decide(ctx context.Context, logger *slog.Logger, seg transcript.Segment, buf audio.Buffer, refs []reference.AudioReference) (Decision, error) {
	d := Decision{SegmentID: seg.ID}
	slice, err := buf.Slice(seg.Start, seg.End, a.MinDuration)
	if err != nil {
		d.Outcome = OutcomeSkipped
		d.Reason = err.Error()
		logger.Debug("segment skipped", logging.Int(logging.FieldSegmentID, seg.ID), logging.Error(err))
		return d, nil
	}

	best := math.Inf(-1)
	bestSpeaker := ""
	for _, ref := range refs {
		score, err := a.verifier.Similarity(ctx, slice, ref.Audio)
		if err == nil && math.IsNaN(score) {
			err = errors.New("verifier returned NaN")
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Decision{}, ctxErr
			}
			if sessionFailure(err) {
				return Decision{}, err
			}
			d.Failures++
			logging.WarnWithContext(logger, "speaker comparison failed", "scoring_failed",
				logging.Int(logging.FieldSegmentID, seg.ID),
				logging.String(logging.FieldSpeaker, ref.Speaker),
				logging.Error(services.Wrap(services.ErrScoringFailure, "assign", "similarity", "", err)),
				logging.String(logging.FieldErrorHint, "check the verification service logs"),
				logging.String(logging.FieldImpact, "this speaker is ignored for the segment"),
			)
			continue
		}
		d.Scores = append(d.Scores, Score{Speaker: ref.Speaker, Value: score})
		if score > best {
			best = score
			bestSpeaker = ref.Speaker
		}
	}

	if bestSpeaker != "" && best > a.Threshold {
		d.Outcome = OutcomeAssigned
		d.Speaker = bestSpeaker
		d.Best = best
		logger.Debug("segment assigned",
			logging.Int(logging.FieldSegmentID, seg.ID),
			logging.String(logging.FieldSpeaker, bestSpeaker),
			logging.Float64("score", best),
		)
		return d, nil
	}

	d.Outcome = OutcomeUnresolved
	if bestSpeaker != "" {
		d.Best = best
		d.Reason = "best score at or below threshold"
	} else {
		d.Reason = "no speaker could be scored"
	}
	logger.Debug("segment unresolved", logging.Int(logging.FieldSegmentID, seg.ID), logging.String("reason", d.Reason))
	return d, nil
}

// sessionFailure reports whether err means no further comparison can succeed.
func sessionFailure(err error) bool {
	return errors.Is(err, services.ErrExternalTool) || errors.Is(err, services.ErrConfiguration)
}
