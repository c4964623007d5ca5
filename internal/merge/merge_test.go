package merge_test

import (
	"testing"

	"speakerid/internal/merge"
	"speakerid/internal/transcript"
)

func TestMergeSortsAndStamps(t *testing.T) {
	doctor := &transcript.Transcript{Speaker: "Doctor", Language: "en", Segments: []transcript.Segment{
		{ID: 0, Start: 0, End: 1, Text: "Morning"},
		{ID: 1, Start: 4, End: 5, Text: "Breathe in"},
	}}
	nurse := &transcript.Transcript{Speaker: "Nurse", Segments: []transcript.Segment{
		{ID: 0, Start: 2, End: 3, Text: "Chart is here"},
		{ID: 1, Start: 4, End: 4.5, Text: "Okay"},
	}}
	unmapped := &transcript.Transcript{Segments: []transcript.Segment{{ID: 9, Start: 1, End: 2, Text: "bleed"}}}

	out := merge.Merge([]*transcript.Transcript{doctor, nil, nurse, unmapped})
	if len(out.Segments) != 4 {
		t.Fatalf("expected 4 segments, got %d", len(out.Segments))
	}
	wantSpeakers := []string{"Doctor", "Nurse", "Doctor", "Nurse"}
	wantText := []string{"Morning", "Chart is here", "Breathe in", "Okay"}
	for i, seg := range out.Segments {
		if seg.Speaker != wantSpeakers[i] || seg.Text != wantText[i] {
			t.Fatalf("segment %d: got %q/%q", i, seg.Speaker, seg.Text)
		}
	}
	if out.Language != "en" {
		t.Fatalf("expected language carried over, got %q", out.Language)
	}
	if doctor.Segments[0].Speaker != "" {
		t.Fatal("merge must not modify channel transcripts")
	}
}

func TestMergeEmpty(t *testing.T) {
	out := merge.Merge(nil)
	if out == nil || len(out.Segments) != 0 {
		t.Fatalf("expected empty transcript, got %+v", out)
	}
}
