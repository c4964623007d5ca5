package verification

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"speakerid/internal/audio"
	"speakerid/internal/logging"
	"speakerid/internal/services"
)

// Verifier adapts a Session to assign.Verifier by materializing buffers as
// WAV files.
type Verifier struct {
	start   SessionStarter
	tempDir string
	logger  *slog.Logger

	mu       sync.Mutex
	session  Session
	startErr error
	refs     map[bufferKey]string
}

// bufferKey identifies a shared reference buffer by its backing array.
type bufferKey struct {
	first *float32
	n     int
}

func keyOf(buf audio.Buffer) (bufferKey, bool) {
	if len(buf.Samples) == 0 {
		return bufferKey{}, false
	}
	return bufferKey{first: &buf.Samples[0], n: len(buf.Samples)}, true
}

// New creates a Verifier that starts its session lazily with start and keeps
// temporary WAV files under tempDir.
func New(start SessionStarter, tempDir string, logger *slog.Logger) *Verifier {
	return &Verifier{
		start:   start,
		tempDir: tempDir,
		logger:  logging.NewComponentLogger(logger, "verification"),
		refs:    make(map[bufferKey]string),
	}
}

// NewProcessVerifier creates a Verifier backed by the SpeechBrain helper.
func NewProcessVerifier(ctx context.Context, opts ProcessOptions, logger *slog.Logger) *Verifier {
	tempDir := filepath.Join(opts.WorkDir, "verify-"+uuid.NewString())
	return New(func(context.Context) (Session, error) {
		// The helper outlives any single comparison, so it is bound to the
		// verifier's context rather than the caller's.
		return StartProcess(ctx, opts)
	}, tempDir, logger)
}

func (v *Verifier) ensureSession(ctx context.Context) (Session, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.session != nil {
		return v.session, nil
	}
	if v.startErr != nil {
		return nil, v.startErr
	}
	if v.start == nil {
		return nil, services.Wrap(services.ErrConfiguration, "verification", "start", "no session starter configured", nil)
	}
	v.logger.Info("starting verification model")
	session, err := v.start(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		// A failed start is not retried; every later comparison reports it.
		v.startErr = services.Wrap(services.ErrExternalTool, "verification", "start", "", err)
		return nil, v.startErr
	}
	v.session = session
	return session, nil
}

// Similarity scores segment against reference.
func (v *Verifier) Similarity(ctx context.Context, segment, reference audio.Buffer) (float64, error) {
	session, err := v.ensureSession(ctx)
	if err != nil {
		return 0, err
	}
	refPath, err := v.referencePath(reference)
	if err != nil {
		return 0, err
	}
	segPath := filepath.Join(v.tempDir, "segment-"+uuid.NewString()+".wav")
	if err := audio.WriteWAV(segPath, segment); err != nil {
		return 0, fmt.Errorf("write segment wav: %w", err)
	}
	defer os.Remove(segPath)

	score, err := session.Score(ctx, segPath, refPath)
	if err != nil {
		return 0, err
	}
	return score, nil
}

func (v *Verifier) referencePath(reference audio.Buffer) (string, error) {
	key, ok := keyOf(reference)
	if !ok {
		return "", fmt.Errorf("reference audio is empty")
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if path, ok := v.refs[key]; ok {
		return path, nil
	}
	path := filepath.Join(v.tempDir, fmt.Sprintf("reference-%d.wav", len(v.refs)))
	if err := audio.WriteWAV(path, reference); err != nil {
		return "", fmt.Errorf("write reference wav: %w", err)
	}
	v.refs[key] = path
	return path, nil
}

// Close stops the session and removes temporary files.
func (v *Verifier) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	var err error
	if v.session != nil {
		err = v.session.Close()
		v.session = nil
	}
	v.refs = make(map[bufferKey]string)
	if v.tempDir != "" {
		if rmErr := os.RemoveAll(v.tempDir); rmErr != nil && err == nil {
			err = rmErr
		}
	}
	return err
}
