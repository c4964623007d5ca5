package whisperx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	langpkg "speakerid/internal/language"
	"speakerid/internal/logging"
	"speakerid/internal/services"
	"speakerid/internal/transcript"
)

// CommandRunner executes an external command.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// Service provides WhisperX transcription capabilities.
type Service struct {
	cfg           Config
	outputDir     string
	logger        *slog.Logger
	commandRunner CommandRunner
}

// NewService creates a WhisperX service writing results under outputDir. An
// empty outputDir writes next to each source file.
func NewService(cfg Config, outputDir string, logger *slog.Logger) *Service {
	return &Service{
		cfg:       cfg,
		outputDir: outputDir,
		logger:    logging.NewComponentLogger(logger, "whisperx"),
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner CommandRunner) {
	s.commandRunner = runner
}

// Model returns the configured model name for logging.
func (s *Service) Model() string {
	if s.cfg.Model != "" {
		return s.cfg.Model
	}
	return DefaultModel
}

// run executes a command, using the custom runner if set.
func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec

	// Torch 2.6 changed torch.load default to weights_only=true, breaking WhisperX/pyannote.
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		cmd.Env = append(os.Environ(), "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// Transcribe runs WhisperX on a WAV file and returns its transcript. A
// previously written result for the same file is reused.
func (s *Service) Transcribe(ctx context.Context, source string) (*transcript.Transcript, error) {
	if source == "" {
		return nil, errors.New("transcribe: source path required")
	}
	outputDir := s.outputDir
	if outputDir == "" {
		outputDir = filepath.Dir(source)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("transcribe: ensure output dir: %w", err)
	}

	jsonPath := ResultPath(source, outputDir)
	logger := logging.WithContext(ctx, s.logger)
	if info, err := os.Stat(jsonPath); err == nil && !info.IsDir() {
		if tr, loadErr := LoadTranscript(jsonPath); loadErr == nil {
			logger.Info("reusing whisperx transcript", logging.String("path", jsonPath))
			return tr, nil
		}
	}

	logger.Info("transcribing channel",
		logging.String("source", source),
		logging.String("model", s.Model()),
		logging.Bool("cuda", s.cfg.CUDAEnabled),
		logging.String("language", langpkg.DisplayName(s.cfg.Language)),
	)
	args := s.buildArgs(source, outputDir)
	if err := s.run(ctx, UVXCommand, args...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, services.Wrap(services.ErrExternalTool, "transcribe", "whisperx", source, err)
	}

	tr, err := LoadTranscript(jsonPath)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "transcribe", "load result", jsonPath, err)
	}
	logger.Info("channel transcribed", logging.Int("segments", len(tr.Segments)), logging.String("language", tr.Language))
	return tr, nil
}

// ResultPath returns where WhisperX writes the JSON result for source.
func ResultPath(source, outputDir string) string {
	baseName := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	return filepath.Join(outputDir, baseName+".json")
}

// buildArgs constructs the uvx command arguments for WhisperX.
func (s *Service) buildArgs(source, outputDir string) []string {
	args := make([]string, 0, 40)

	if s.cfg.CUDAEnabled {
		args = append(args,
			"--index-url", CUDAIndexURL,
			"--extra-index-url", PypiIndexURL,
		)
	} else {
		args = append(args, "--index-url", PypiIndexURL)
	}

	args = append(args,
		"whisperx",
		source,
		"--model", s.Model(),
		"--batch_size", BatchSize,
		"--output_dir", outputDir,
		"--output_format", OutputFormat,
		"--segment_resolution", SegmentResolution,
		"--chunk_size", ChunkSize,
		"--vad_onset", VADOnset,
		"--vad_offset", VADOffset,
		"--beam_size", BeamSize,
		"--best_of", BestOf,
		"--temperature", Temperature,
		"--patience", Patience,
	)

	vadMethod := s.cfg.VADMethod
	if vadMethod == "" {
		vadMethod = VADMethodSilero
	}
	args = append(args, "--vad_method", vadMethod)
	if vadMethod == VADMethodPyannote && s.cfg.HFToken != "" {
		args = append(args, "--hf_token", s.cfg.HFToken)
	}

	if lang := langpkg.ToISO2(s.cfg.Language); lang != "" {
		args = append(args, "--language", lang)
	}

	if s.cfg.CUDAEnabled {
		args = append(args, "--device", CUDADevice)
	} else {
		args = append(args, "--device", CPUDevice, "--compute_type", CPUComputeType)
	}

	return args
}

// Word represents a single word with timing from WhisperX output.
type Word struct {
	Word  string   `json:"word"`
	Start *float64 `json:"start,omitempty"`
	End   *float64 `json:"end,omitempty"`
	Score *float64 `json:"score,omitempty"`
}

// Segment represents a transcribed segment from WhisperX JSON output.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Words []Word  `json:"words,omitempty"`
}

// payload is the JSON structure from WhisperX output.
type payload struct {
	Segments []Segment `json:"segments"`
	Language string    `json:"language"`
}

// LoadTranscript loads a WhisperX JSON file as a transcript. Segment ids are
// assigned by position and segment text is kept exactly as WhisperX wrote it,
// leading space included, so it compares equal to transcripts produced by the
// same tool. Only the document text joins the trimmed segment texts.
func LoadTranscript(jsonPath string) (*transcript.Transcript, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, err
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse whisperx json: %w", err)
	}

	tr := &transcript.Transcript{
		Language: p.Language,
		Segments: make([]transcript.Segment, 0, len(p.Segments)),
	}
	var parts []string
	for i, seg := range p.Segments {
		out := transcript.Segment{ID: i, Start: seg.Start, End: seg.End, Text: seg.Text}
		if len(seg.Words) > 0 {
			words, err := json.Marshal(seg.Words)
			if err != nil {
				return nil, fmt.Errorf("encode words: %w", err)
			}
			out.Extra = map[string]json.RawMessage{"words": words}
		}
		tr.Segments = append(tr.Segments, out)
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	tr.Text = strings.Join(parts, " ")
	return tr, nil
}
