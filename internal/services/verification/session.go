package verification

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"speakerid/internal/services"
)

// Session compares two WAV files and returns a similarity score.
type Session interface {
	Score(ctx context.Context, a, b string) (float64, error)
	Close() error
}

// SessionStarter launches a Session.
type SessionStarter func(ctx context.Context) (Session, error)

type request struct {
	A string `json:"a"`
	B string `json:"b"`
}

type response struct {
	Ready bool     `json:"ready,omitempty"`
	Score *float64 `json:"score,omitempty"`
	Error string   `json:"error,omitempty"`
}

// processSession talks to the Python helper over stdin/stdout.
type processSession struct {
	mu      sync.Mutex
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	scanner *bufio.Scanner
	stderr  *bytes.Buffer
	broken  error
}

// ProcessOptions configures the helper process.
type ProcessOptions struct {
	Source      string
	SaveDir     string
	CUDAEnabled bool
	WorkDir     string
}

// Helper launch constants.
const (
	UVXCommand   = "uvx"
	CUDAIndexURL = "https://download.pytorch.org/whl/cu128"
	PypiIndexURL = "https://pypi.org/simple"
)

func buildArgs(opts ProcessOptions, scriptPath string) []string {
	args := []string{
		"--quiet",
		"--with", "speechbrain",
		"--with", "torchaudio",
		"--with", "soundfile",
	}
	if opts.CUDAEnabled {
		args = append(args,
			"--index-url", CUDAIndexURL,
			"--extra-index-url", PypiIndexURL,
		)
	}
	device := "cpu"
	if opts.CUDAEnabled {
		device = "cuda"
	}
	args = append(args, "python", scriptPath,
		"--source", opts.Source,
		"--savedir", opts.SaveDir,
		"--device", device,
	)
	return args
}

// StartProcess writes the helper script into WorkDir, launches it, and waits
// for the model to report ready. The process lives until Close or until ctx
// is cancelled.
func StartProcess(ctx context.Context, opts ProcessOptions) (Session, error) {
	if err := os.MkdirAll(opts.WorkDir, 0o755); err != nil {
		return nil, fmt.Errorf("verification: ensure work dir: %w", err)
	}
	scriptPath := filepath.Join(opts.WorkDir, "speaker_verify.py")
	if err := os.WriteFile(scriptPath, []byte(verifyScript), 0o644); err != nil {
		return nil, fmt.Errorf("verification: write helper script: %w", err)
	}

	cmd := exec.CommandContext(ctx, UVXCommand, buildArgs(opts, scriptPath)...) //nolint:gosec
	cmd.Env = os.Environ()
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		cmd.Env = append(cmd.Env, "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("verification: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("verification: stdout pipe: %w", err)
	}
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("verification: start helper: %w", err)
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	s := &processSession{cmd: cmd, stdin: stdin, scanner: scanner, stderr: stderr}

	resp, err := s.readResponse()
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("verification: helper did not start: %w", err)
	}
	if resp.Error != "" || !resp.Ready {
		_ = s.Close()
		return nil, fmt.Errorf("verification: helper did not start: %s", resp.Error)
	}
	return s, nil
}

// Score sends one comparison request. Requests are serialized.
func (s *processSession) Score(ctx context.Context, a, b string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.broken != nil {
		return 0, s.broken
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	line, err := json.Marshal(request{A: a, B: b})
	if err != nil {
		return 0, err
	}
	if _, err := s.stdin.Write(append(line, '\n')); err != nil {
		s.broken = services.Wrap(services.ErrExternalTool, "verification", "score", "helper unavailable", err)
		return 0, s.broken
	}

	type result struct {
		resp response
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := s.readResponse()
		done <- result{resp: resp, err: err}
	}()

	select {
	case <-ctx.Done():
		// The reply can no longer be matched to a request.
		s.broken = services.Wrap(services.ErrExternalTool, "verification", "score", "helper abandoned after cancellation", nil)
		_ = s.kill()
		return 0, ctx.Err()
	case r := <-done:
		if r.err != nil {
			s.broken = services.Wrap(services.ErrExternalTool, "verification", "score", "helper unavailable", r.err)
			return 0, s.broken
		}
		if r.resp.Error != "" {
			return 0, errors.New(r.resp.Error)
		}
		if r.resp.Score == nil {
			return 0, errors.New("verification helper returned no score")
		}
		return *r.resp.Score, nil
	}
}

func (s *processSession) readResponse() (response, error) {
	for s.scanner.Scan() {
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 || line[0] != '{' {
			continue
		}
		var resp response
		if err := json.Unmarshal(line, &resp); err != nil {
			return response{}, fmt.Errorf("decode helper response: %w", err)
		}
		return resp, nil
	}
	if err := s.scanner.Err(); err != nil {
		return response{}, fmt.Errorf("read helper output: %w", err)
	}
	return response{}, fmt.Errorf("helper exited: %s", lastLine(s.stderr.String()))
}

func (s *processSession) kill() error {
	if s.cmd == nil || s.cmd.Process == nil {
		return nil
	}
	return s.cmd.Process.Kill()
}

// Close ends the helper by closing its stdin and waits for it to exit.
func (s *processSession) Close() error {
	if s.stdin != nil {
		_ = s.stdin.Close()
	}
	if s.cmd == nil {
		return nil
	}
	err := s.cmd.Wait()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}

func lastLine(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return "no output"
}
