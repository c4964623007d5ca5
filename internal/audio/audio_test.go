package audio_test

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"speakerid/internal/audio"
	"speakerid/internal/services"
)

func ramp(n, rate int) audio.Buffer {
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = float32(i)
	}
	return audio.Buffer{Samples: samples, SampleRate: rate}
}

func TestSliceUsesTruncatedSampleIndices(t *testing.T) {
	buf := ramp(100, 10)
	got, err := buf.Slice(1.29, 3.0, 0.1)
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	if got.Len() != 18 || got.Samples[0] != 12 {
		t.Fatalf("unexpected slice len=%d first=%v", got.Len(), got.Samples[0])
	}
}

func TestSliceRejectsInvalidRanges(t *testing.T) {
	buf := ramp(100, 10)
	cases := []struct {
		name       string
		start, end float64
		min        float64
	}{
		{"empty", 2, 2, 0.1},
		{"reversed", 3, 2, 0.1},
		{"negative start", -1, 2, 0.1},
		{"past end", 5, 10.5, 0.1},
		{"too short", 1, 1.15, 0.5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := buf.Slice(tc.start, tc.end, tc.min)
			if !errors.Is(err, services.ErrInvalidSegment) {
				t.Fatalf("expected ErrInvalidSegment, got %v", err)
			}
		})
	}
}

func TestSliceAcceptsExactMinimum(t *testing.T) {
	buf := ramp(16000, 16000)
	got, err := buf.Slice(0, 0.1, 0.1)
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	if got.Len() != 1600 {
		t.Fatalf("expected 1600 samples, got %d", got.Len())
	}
}

func TestConcatCopies(t *testing.T) {
	a := audio.Buffer{Samples: []float32{1, 2}, SampleRate: 8}
	b := audio.Buffer{Samples: []float32{3}, SampleRate: 8}
	out, err := audio.Concat(a, b)
	if err != nil {
		t.Fatalf("Concat: %v", err)
	}
	if out.Len() != 3 || out.Samples[2] != 3 {
		t.Fatalf("unexpected concat %v", out.Samples)
	}
	out.Samples[0] = 9
	if a.Samples[0] != 1 {
		t.Fatal("concat must not alias inputs")
	}
	if _, err := audio.Concat(a, audio.Buffer{SampleRate: 16}); err == nil {
		t.Fatal("expected sample rate mismatch error")
	}
}

func TestMonoAveragesChannels(t *testing.T) {
	rec := &audio.Recording{
		SampleRate: 4,
		Channels: []audio.Buffer{
			{Samples: []float32{1, 0.5, 0}, SampleRate: 4},
			{Samples: []float32{0, 0.5}, SampleRate: 4},
		},
	}
	mono := rec.Mono()
	if mono.Len() != 2 || mono.Samples[0] != 0.5 || mono.Samples[1] != 0.5 {
		t.Fatalf("unexpected mono %v", mono.Samples)
	}
	if _, err := rec.Channel(2); err == nil {
		t.Fatal("expected out of range error")
	}
}

func TestWAVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	left := audio.Buffer{Samples: []float32{0, 0.5, -0.5, 1}, SampleRate: 16000}
	right := audio.Buffer{Samples: []float32{0.25, -0.25}, SampleRate: 16000}
	if err := audio.WriteWAV(path, left, right); err != nil {
		t.Fatalf("WriteWAV: %v", err)
	}

	rec, err := audio.LoadWAV(path)
	if err != nil {
		t.Fatalf("LoadWAV: %v", err)
	}
	if rec.SampleRate != 16000 || rec.NumChannels() != 2 {
		t.Fatalf("unexpected recording rate=%d channels=%d", rec.SampleRate, rec.NumChannels())
	}
	if rec.Channels[0].Len() != 4 || rec.Channels[1].Len() != 4 {
		t.Fatalf("expected padded channels, got %d/%d", rec.Channels[0].Len(), rec.Channels[1].Len())
	}
	const tolerance = 1e-3
	for i, want := range left.Samples {
		if math.Abs(float64(rec.Channels[0].Samples[i]-want)) > tolerance {
			t.Fatalf("left[%d] = %v want %v", i, rec.Channels[0].Samples[i], want)
		}
	}
	if math.Abs(float64(rec.Channels[1].Samples[1]+0.25)) > tolerance {
		t.Fatalf("right[1] = %v", rec.Channels[1].Samples[1])
	}
	if rec.Channels[1].Samples[3] != 0 {
		t.Fatalf("expected silence padding, got %v", rec.Channels[1].Samples[3])
	}
}

func TestLoadWAVErrors(t *testing.T) {
	if _, err := audio.LoadWAV(filepath.Join(t.TempDir(), "missing.wav")); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
