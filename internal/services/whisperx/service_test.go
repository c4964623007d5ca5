package whisperx

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"speakerid/internal/logging"
	"speakerid/internal/services"
)

func TestBuildArgsCPUDefaults(t *testing.T) {
	svc := NewService(Config{Language: "English"}, "", logging.NewNop())
	args := svc.buildArgs("/work/channel_0.wav", "/work/out")

	mustContainPair(t, args, "--model", DefaultModel)
	mustContainPair(t, args, "--output_format", "json")
	mustContainPair(t, args, "--vad_method", VADMethodSilero)
	mustContainPair(t, args, "--device", CPUDevice)
	mustContainPair(t, args, "--language", "en")
	if slices.Contains(args, "--hf_token") {
		t.Fatal("hf token should not be passed for silero")
	}
	if args[0] != "--index-url" || args[1] != PypiIndexURL {
		t.Fatalf("unexpected index args %v", args[:2])
	}
}

func TestBuildArgsCUDAAndPyannote(t *testing.T) {
	svc := NewService(Config{Model: "medium", CUDAEnabled: true, VADMethod: VADMethodPyannote, HFToken: "hf_x"}, "", nil)
	args := svc.buildArgs("a.wav", "out")
	mustContainPair(t, args, "--extra-index-url", PypiIndexURL)
	mustContainPair(t, args, "--model", "medium")
	mustContainPair(t, args, "--hf_token", "hf_x")
	mustContainPair(t, args, "--device", CUDADevice)
	if slices.Contains(args, "--language") {
		t.Fatal("language should be omitted when unset")
	}
}

func TestTranscribeLoadsResult(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "channel_1.wav")
	outDir := filepath.Join(dir, "out")
	svc := NewService(Config{}, outDir, nil)

	calls := 0
	svc.WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		calls++
		if name != UVXCommand {
			t.Fatalf("unexpected command %s", name)
		}
		result := `{"language": "en", "segments": [
			{"text": " Hello there ", "start": 0.5, "end": 1.5, "words": [{"word": "Hello", "start": 0.5, "end": 0.9}]},
			{"text": "", "start": 1.5, "end": 2.0},
			{"text": "General", "start": 2.0, "end": 3.0}
		]}`
		return os.WriteFile(ResultPath(source, outDir), []byte(result), 0o644)
	})

	tr, err := svc.Transcribe(context.Background(), source)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(tr.Segments) != 3 || tr.Segments[2].ID != 2 || tr.Segments[0].Text != " Hello there " {
		t.Fatalf("unexpected segments %+v", tr.Segments)
	}
	if tr.Text != "Hello there General" || tr.Language != "en" {
		t.Fatalf("unexpected document text %q language %q", tr.Text, tr.Language)
	}
	if _, ok := tr.Segments[0].Extra["words"]; !ok {
		t.Fatal("expected words to be preserved")
	}

	if _, err := svc.Transcribe(context.Background(), source); err != nil {
		t.Fatalf("second Transcribe: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected cached result to be reused, ran %d times", calls)
	}
}

func TestTranscribeWrapsToolFailure(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(Config{}, dir, nil)
	svc.WithCommandRunner(func(context.Context, string, ...string) error {
		return errors.New("exit status 1")
	})
	_, err := svc.Transcribe(context.Background(), filepath.Join(dir, "x.wav"))
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
}

func mustContainPair(t *testing.T, args []string, flag, value string) {
	t.Helper()
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag && args[i+1] == value {
			return
		}
	}
	t.Fatalf("expected %s %s in %v", flag, value, args)
}
