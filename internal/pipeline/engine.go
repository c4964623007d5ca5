package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"speakerid/internal/assign"
	"speakerid/internal/config"
	"speakerid/internal/history"
	"speakerid/internal/logging"
	"speakerid/internal/services"
	"speakerid/internal/transcript"
)

// Transcriber produces a transcript for a mono WAV file.
type Transcriber interface {
	Transcribe(ctx context.Context, wavPath string) (*transcript.Transcript, error)
}

// Engine executes pipeline runs.
type Engine struct {
	cfg         *config.Config
	logger      *slog.Logger
	verifier    assign.Verifier
	transcriber Transcriber
	history     *history.Store
}

// Option configures an Engine.
type Option func(*Engine)

// WithVerifier sets the speaker verifier used by AssignSpeakers.
func WithVerifier(v assign.Verifier) Option {
	return func(e *Engine) { e.verifier = v }
}

// WithTranscriber sets the channel transcriber used by IdentifyChannels.
func WithTranscriber(t Transcriber) Option {
	return func(e *Engine) { e.transcriber = t }
}

// WithHistory records runs in store.
func WithHistory(store *history.Store) Option {
	return func(e *Engine) { e.history = store }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// NewEngine constructs an Engine for cfg.
func NewEngine(cfg *config.Config, opts ...Option) *Engine {
	e := &Engine{cfg: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	e.logger = logging.NewComponentLogger(e.logger, "pipeline")
	return e
}

// run carries per-invocation state.
type run struct {
	id     string
	ctx    context.Context
	logger *slog.Logger
	lock   *flock.Flock
}

// begin locks the transcript, assigns a run id, and records the start.
func (e *Engine) begin(ctx context.Context, mode history.Mode, transcriptPath, audioPath string) (*run, error) {
	if e.cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, string(mode), "begin", "engine has no configuration", nil)
	}
	lock := flock.New(transcriptPath + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire transcript lock: %w", err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrBusy, string(mode), "lock", transcriptPath, nil)
	}

	id := uuid.NewString()
	ctx = services.WithRunID(ctx, id)
	r := &run{id: id, ctx: ctx, lock: lock, logger: logging.WithContext(ctx, e.logger)}

	if e.history != nil {
		rec := history.Run{ID: id, Mode: mode, TranscriptPath: transcriptPath, AudioPath: audioPath}
		if err := e.history.Begin(ctx, rec); err != nil {
			logging.WarnWithContext(r.logger, "run history unavailable", "history_begin_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check history_db permissions"),
				logging.String(logging.FieldImpact, "this run will not appear in `speakerid runs`"),
			)
		}
	}
	r.logger.Info("run started",
		logging.String("mode", string(mode)),
		logging.String("transcript", transcriptPath),
		logging.String("audio", audioPath),
	)
	return r, nil
}

// end records the outcome and releases the lock.
func (e *Engine) end(r *run, outputPath string, counts history.Counts, runErr error) {
	status := services.Outcome(runErr)
	if e.history != nil {
		// Record the outcome even when the run itself was cancelled.
		ctx := context.WithoutCancel(r.ctx)
		if outputPath != "" {
			if err := e.history.SetOutput(ctx, r.id, outputPath); err != nil {
				r.logger.Debug("record run output failed", logging.Error(err))
			}
		}
		msg := ""
		if runErr != nil {
			msg = runErr.Error()
		}
		if err := e.history.Finish(ctx, r.id, status, counts, msg); err != nil {
			r.logger.Debug("record run outcome failed", logging.Error(err))
		}
	}
	if err := r.lock.Unlock(); err != nil {
		r.logger.Debug("release transcript lock failed", logging.Error(err))
	}

	attrs := []logging.Attr{logging.String("status", string(status))}
	switch {
	case runErr == nil:
		r.logger.Info("run finished", logging.Args(attrs...)...)
	case status == history.StatusIdle || status == history.StatusIncomplete:
		r.logger.Info("run finished", logging.Args(append(attrs, logging.Error(runErr))...)...)
	case errors.Is(runErr, context.Canceled):
		r.logger.Info("run cancelled", logging.Args(attrs...)...)
	default:
		r.logger.Error("run failed", logging.Args(append(attrs, logging.Error(runErr))...)...)
	}
}
