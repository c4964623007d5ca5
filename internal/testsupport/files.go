package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"speakerid/internal/audio"
	"speakerid/internal/transcript"
)

// WriteTranscript saves tr as dir/name and returns the path.
func WriteTranscript(t testing.TB, dir, name string, tr *transcript.Transcript) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := transcript.Save(path, tr); err != nil {
		t.Fatalf("save transcript %s: %v", path, err)
	}
	return path
}

// WriteRaw writes data to path, creating parent directories.
func WriteRaw(t testing.TB, path string, data []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteWAV writes the buffers as one interleaved WAV file.
func WriteWAV(t testing.TB, path string, channels ...audio.Buffer) {
	t.Helper()

	if err := audio.WriteWAV(path, channels...); err != nil {
		t.Fatalf("write wav %s: %v", path, err)
	}
}

// Tone returns a constant-valued buffer, which lets fake verifiers recognise
// which part of a recording they were handed.
func Tone(sampleRate int, seconds, value float64) audio.Buffer {
	samples := make([]float32, int(seconds*float64(sampleRate)))
	for i := range samples {
		samples[i] = float32(value)
	}
	return audio.Buffer{Samples: samples, SampleRate: sampleRate}
}
