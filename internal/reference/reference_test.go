package reference_test

import (
	"reflect"
	"testing"

	"speakerid/internal/audio"
	"speakerid/internal/reference"
	"speakerid/internal/transcript"
)

func rampBuffer(seconds, rate int) audio.Buffer {
	samples := make([]float32, seconds*rate)
	for i := range samples {
		samples[i] = float32(i)
	}
	return audio.Buffer{Samples: samples, SampleRate: rate}
}

func TestBuildAudioConcatenatesInStartOrder(t *testing.T) {
	buf := rampBuffer(10, 10)
	tr := &transcript.Transcript{Segments: []transcript.Segment{
		{ID: 0, Start: 5, End: 6, Speaker: "B"},
		{ID: 1, Start: 3, End: 4, Speaker: "A"},
		{ID: 2, Start: 1, End: 2, Speaker: "A"},
		{ID: 3, Start: 2, End: 3},
	}}

	refs := reference.BuildAudio(tr, buf, 0.1, nil)
	if got := reference.Speakers(refs); !reflect.DeepEqual(got, []string{"B", "A"}) {
		t.Fatalf("unexpected speaker order %v", got)
	}
	a := refs[1]
	if a.Segments != 2 || a.Audio.Len() != 20 {
		t.Fatalf("unexpected A reference segments=%d len=%d", a.Segments, a.Audio.Len())
	}
	if a.Audio.Samples[0] != 10 || a.Audio.Samples[10] != 30 {
		t.Fatalf("expected start-ordered concatenation, got %v", a.Audio.Samples[:12])
	}
}

func TestBuildAudioSkipsInvalidAndOmitsEmptySpeakers(t *testing.T) {
	buf := rampBuffer(5, 10)
	tr := &transcript.Transcript{Segments: []transcript.Segment{
		{ID: 0, Start: 1, End: 2, Speaker: "A"},
		{ID: 1, Start: 4, End: 9, Speaker: "A"},
		{ID: 2, Start: 3, End: 3.05, Speaker: "B"},
		{ID: 3, Start: -1, End: 1, Speaker: "C"},
	}}
	refs := reference.BuildAudio(tr, buf, 0.1, nil)
	if len(refs) != 1 || refs[0].Speaker != "A" || refs[0].Segments != 1 {
		t.Fatalf("unexpected refs %+v", refs)
	}
}

func TestBuildAudioNoLabels(t *testing.T) {
	tr := &transcript.Transcript{Segments: []transcript.Segment{{ID: 0, Start: 0, End: 1}}}
	if refs := reference.BuildAudio(tr, rampBuffer(2, 10), 0.1, nil); len(refs) != 0 {
		t.Fatalf("expected no references, got %+v", refs)
	}
}

func TestBuildText(t *testing.T) {
	tr := &transcript.Transcript{Segments: []transcript.Segment{
		{ID: 0, Text: "Good morning", Speaker: "Nurse"},
		{ID: 1, Text: "How are you feeling", Speaker: "Doctor"},
		{ID: 2, Text: "  ", Speaker: "Nurse"},
		{ID: 3, Text: "unlabeled"},
		{ID: 4, Text: "Any pain?", Speaker: "Nurse"},
	}}
	refs := reference.BuildText(tr)
	want := []reference.TextReference{
		{Speaker: "Nurse", Snippets: []string{"Good morning", "Any pain?"}},
		{Speaker: "Doctor", Snippets: []string{"How are you feeling"}},
	}
	if !reflect.DeepEqual(refs, want) {
		t.Fatalf("unexpected text refs %+v", refs)
	}
}
