package assign_test

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"

	"speakerid/internal/assign"
	"speakerid/internal/audio"
	"speakerid/internal/reference"
	"speakerid/internal/services"
	"speakerid/internal/transcript"
)

const rate = 100

// tone returns a buffer whose samples all equal marker, so a verifier can
// recognise which reference or segment it was handed.
func tone(marker float32, seconds float64) audio.Buffer {
	samples := make([]float32, int(seconds*rate))
	for i := range samples {
		samples[i] = marker
	}
	return audio.Buffer{Samples: samples, SampleRate: rate}
}

func ref(speaker string, marker float32) reference.AudioReference {
	return reference.AudioReference{Speaker: speaker, Audio: tone(marker, 1), Segments: 1}
}

// scoreTable maps reference marker to score.
func scoreTable(scores map[float32]float64) assign.VerifierFunc {
	return func(_ context.Context, _, ref audio.Buffer) (float64, error) {
		return scores[ref.Samples[0]], nil
	}
}

func doctorNurseTranscript() *transcript.Transcript {
	return &transcript.Transcript{Segments: []transcript.Segment{
		{ID: 0, Start: 0, End: 2, Text: "Good morning", Speaker: "Doctor"},
		{ID: 1, Start: 2, End: 4, Text: "Morning", Speaker: "Nurse"},
		{ID: 2, Start: 4, End: 6, Text: "How is the patient"},
		{ID: 3, Start: 6, End: 8, Text: "Any change overnight"},
		{ID: 4, Start: 8, End: 10, Text: "Let us check the chart"},
	}}
}

func TestAssignDoctorNurseExample(t *testing.T) {
	tr := doctorNurseTranscript()
	buf := tone(0, 10)
	refs := []reference.AudioReference{ref("Doctor", 1), ref("Nurse", 2)}
	verifier := scoreTable(map[float32]float64{1: 0.9, 2: 0.1})

	report, err := assign.New(verifier, assign.WithThreshold(0.2)).Assign(context.Background(), tr, buf, refs)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	for _, id := range []int{2, 3, 4} {
		seg, _ := tr.FindByID(id)
		if seg.Speaker != "Doctor" {
			t.Fatalf("segment %d: expected Doctor, got %q", id, seg.Speaker)
		}
	}
	if report.Assigned != 3 || report.AlreadyLabeled != 2 || report.Comparisons != 6 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestAssignThresholdIsStrict(t *testing.T) {
	cases := []struct {
		name  string
		score float64
		want  string
	}{
		{"at threshold", 0.2, ""},
		{"just above", 0.2000001, "A"},
		{"below", -0.5, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tr := &transcript.Transcript{Segments: []transcript.Segment{{ID: 0, Start: 0, End: 1}}}
			verifier := scoreTable(map[float32]float64{1: tc.score})
			report, err := assign.New(verifier).Assign(context.Background(), tr, tone(0, 2), []reference.AudioReference{ref("A", 1)})
			if err != nil {
				t.Fatalf("Assign: %v", err)
			}
			if tr.Segments[0].Speaker != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, tr.Segments[0].Speaker)
			}
			if tc.want == "" && report.Unresolved != 1 {
				t.Fatalf("expected unresolved, got %+v", report)
			}
		})
	}
}

func TestAssignTieGoesToFirstSpeaker(t *testing.T) {
	tr := &transcript.Transcript{Segments: []transcript.Segment{{ID: 0, Start: 0, End: 1}}}
	verifier := scoreTable(map[float32]float64{1: 0.7, 2: 0.7})
	refs := []reference.AudioReference{ref("First", 1), ref("Second", 2)}
	if _, err := assign.New(verifier).Assign(context.Background(), tr, tone(0, 2), refs); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if tr.Segments[0].Speaker != "First" {
		t.Fatalf("expected First, got %q", tr.Segments[0].Speaker)
	}
}

func TestAssignNoReferences(t *testing.T) {
	var calls atomic.Int32
	verifier := assign.VerifierFunc(func(context.Context, audio.Buffer, audio.Buffer) (float64, error) {
		calls.Add(1)
		return 1, nil
	})
	tr := &transcript.Transcript{Segments: []transcript.Segment{{ID: 0, Start: 0, End: 1}}}
	report, err := assign.New(verifier).Assign(context.Background(), tr, tone(0, 2), nil)
	if !errors.Is(err, services.ErrNoReferenceSpeakers) {
		t.Fatalf("expected ErrNoReferenceSpeakers, got %v", err)
	}
	if calls.Load() != 0 || report.Comparisons != 0 || tr.Segments[0].Speaker != "" {
		t.Fatalf("expected no work, calls=%d report=%+v", calls.Load(), report)
	}
}

func TestAssignFullyLabeledIsIdempotent(t *testing.T) {
	var calls atomic.Int32
	verifier := assign.VerifierFunc(func(context.Context, audio.Buffer, audio.Buffer) (float64, error) {
		calls.Add(1)
		return 1, nil
	})
	tr := &transcript.Transcript{Segments: []transcript.Segment{
		{ID: 0, Start: 0, End: 1, Speaker: "A"},
		{ID: 1, Start: 1, End: 2, Speaker: "B"},
	}}
	before := tr.Clone()
	report, err := assign.New(verifier).Assign(context.Background(), tr, tone(0, 3), []reference.AudioReference{ref("A", 1)})
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if calls.Load() != 0 || report.AlreadyLabeled != 2 {
		t.Fatalf("expected no comparisons, calls=%d report=%+v", calls.Load(), report)
	}
	for i := range tr.Segments {
		if tr.Segments[i].Speaker != before.Segments[i].Speaker {
			t.Fatal("labeled segment changed")
		}
	}
}

func TestAssignSkipsInvalidSegments(t *testing.T) {
	tr := &transcript.Transcript{Segments: []transcript.Segment{
		{ID: 0, Start: 0, End: 0.05},
		{ID: 1, Start: 1.5, End: 5},
		{ID: 2, Start: 1, End: 1},
		{ID: 3, Start: 0, End: 1},
	}}
	verifier := scoreTable(map[float32]float64{1: 0.9})
	report, err := assign.New(verifier).Assign(context.Background(), tr, tone(0, 2), []reference.AudioReference{ref("A", 1)})
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if report.Skipped != 3 || report.Assigned != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	if tr.Segments[3].Speaker != "A" || tr.Segments[0].Speaker != "" {
		t.Fatalf("unexpected labels %+v", tr.Segments)
	}
}

func TestAssignScoringFailureIsAbsent(t *testing.T) {
	verifier := assign.VerifierFunc(func(_ context.Context, _, r audio.Buffer) (float64, error) {
		switch r.Samples[0] {
		case 1:
			return 0, errors.New("model crashed")
		case 2:
			return math.NaN(), nil
		default:
			return 0.3, nil
		}
	})
	tr := &transcript.Transcript{Segments: []transcript.Segment{{ID: 0, Start: 0, End: 1}}}
	refs := []reference.AudioReference{ref("Broken", 1), ref("NaN", 2), ref("Working", 3)}
	report, err := assign.New(verifier).Assign(context.Background(), tr, tone(0, 2), refs)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if tr.Segments[0].Speaker != "Working" {
		t.Fatalf("expected Working, got %q", tr.Segments[0].Speaker)
	}
	if report.ScoringFailures != 2 || report.Comparisons != 3 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestAssignAllFailuresUnresolved(t *testing.T) {
	verifier := assign.VerifierFunc(func(context.Context, audio.Buffer, audio.Buffer) (float64, error) {
		return 0, errors.New("unavailable")
	})
	tr := &transcript.Transcript{Segments: []transcript.Segment{{ID: 0, Start: 0, End: 1}}}
	report, err := assign.New(verifier).Assign(context.Background(), tr, tone(0, 2), []reference.AudioReference{ref("A", 1)})
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if report.Unresolved != 1 || tr.Segments[0].Speaker != "" {
		t.Fatalf("expected unresolved segment, got %+v", report)
	}
}

func TestAssignAbortsWhenVerifierUnavailable(t *testing.T) {
	for _, workers := range []int{1, 4} {
		var calls atomic.Int32
		verifier := assign.VerifierFunc(func(context.Context, audio.Buffer, audio.Buffer) (float64, error) {
			calls.Add(1)
			return 0, services.Wrap(services.ErrExternalTool, "verification", "start", "", errors.New("uvx not found"))
		})
		tr := &transcript.Transcript{Segments: []transcript.Segment{
			{ID: 0, Start: 0, End: 1},
			{ID: 1, Start: 1, End: 2},
			{ID: 2, Start: 2, End: 3, Speaker: "A"},
		}}
		refs := []reference.AudioReference{ref("A", 1), ref("B", 2)}
		_, err := assign.New(verifier, assign.WithWorkers(workers)).Assign(context.Background(), tr, tone(0, 3), refs)
		if !errors.Is(err, services.ErrExternalTool) {
			t.Fatalf("workers=%d: expected ErrExternalTool, got %v", workers, err)
		}
		if tr.Segments[0].Speaker != "" || tr.Segments[1].Speaker != "" {
			t.Fatalf("workers=%d: transcript modified after verifier failure", workers)
		}
		if workers == 1 && calls.Load() != 1 {
			t.Fatalf("expected the run to stop after the first failure, got %d calls", calls.Load())
		}
	}
}

func TestAssignParallelMatchesSequential(t *testing.T) {
	build := func() *transcript.Transcript {
		tr := &transcript.Transcript{}
		for i := 0; i < 40; i++ {
			tr.Segments = append(tr.Segments, transcript.Segment{ID: i, Start: float64(i) * 0.5, End: float64(i)*0.5 + 0.5})
		}
		return tr
	}
	buf := audio.Buffer{SampleRate: rate, Samples: make([]float32, 20*rate)}
	for i := range buf.Samples {
		buf.Samples[i] = float32(i / 50)
	}
	// Score depends on the segment and the reference so different segments
	// resolve to different speakers, including exact ties.
	verifier := assign.VerifierFunc(func(_ context.Context, seg, r audio.Buffer) (float64, error) {
		k := int(seg.Samples[0])
		switch {
		case k%5 == 0:
			return 0.5, nil
		case k%3 == int(r.Samples[0]):
			return 0.8, nil
		default:
			return 0.1, nil
		}
	})
	refs := []reference.AudioReference{ref("A", 0), ref("B", 1), ref("C", 2)}

	seq := build()
	if _, err := assign.New(verifier, assign.WithWorkers(1)).Assign(context.Background(), seq, buf, refs); err != nil {
		t.Fatalf("sequential: %v", err)
	}
	par := build()
	if _, err := assign.New(verifier, assign.WithWorkers(8)).Assign(context.Background(), par, buf, refs); err != nil {
		t.Fatalf("parallel: %v", err)
	}
	for i := range seq.Segments {
		if seq.Segments[i].Speaker != par.Segments[i].Speaker {
			t.Fatalf("segment %d: sequential %q parallel %q", i, seq.Segments[i].Speaker, par.Segments[i].Speaker)
		}
	}
	if seq.Segments[0].Speaker != "A" || seq.Segments[1].Speaker != "B" || seq.Segments[2].Speaker != "C" {
		t.Fatalf("unexpected sequential labels %q %q %q", seq.Segments[0].Speaker, seq.Segments[1].Speaker, seq.Segments[2].Speaker)
	}
}

func TestAssignCancelledLeavesTranscriptUntouched(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	verifier := assign.VerifierFunc(func(ctx context.Context, _, _ audio.Buffer) (float64, error) {
		cancel()
		return 0, ctx.Err()
	})
	tr := &transcript.Transcript{Segments: []transcript.Segment{{ID: 0, Start: 0, End: 1}, {ID: 1, Start: 1, End: 2}}}
	_, err := assign.New(verifier).Assign(ctx, tr, tone(0, 3), []reference.AudioReference{ref("A", 1)})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if tr.Segments[0].Speaker != "" || tr.Segments[1].Speaker != "" {
		t.Fatal("transcript modified after cancellation")
	}
}
