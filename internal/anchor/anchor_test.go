package anchor_test

import (
	"errors"
	"reflect"
	"testing"

	"speakerid/internal/anchor"
	"speakerid/internal/services"
	"speakerid/internal/transcript"
)

func reference() *transcript.Transcript {
	return &transcript.Transcript{Segments: []transcript.Segment{
		{ID: 0, Start: 0, End: 2, Text: "Good morning"},
		{ID: 1, Start: 2, End: 7, Text: "Please take a deep breath for me"},
		{ID: 2, Start: 7, End: 9, Text: "Thank you"},
		{ID: 3, Start: 9, End: 12, Text: "All done"},
	}}
}

func TestUtteranceLongestFirstOnTies(t *testing.T) {
	seg, ok := anchor.Utterance(reference())
	if !ok || seg.ID != 1 {
		t.Fatalf("expected segment 1, got %+v", seg)
	}
	tied := &transcript.Transcript{Segments: []transcript.Segment{
		{ID: 4, Start: 0, End: 3},
		{ID: 5, Start: 3, End: 6},
	}}
	if seg, _ := anchor.Utterance(tied); seg.ID != 4 {
		t.Fatalf("expected first on tie, got %d", seg.ID)
	}
	if _, ok := anchor.Utterance(&transcript.Transcript{}); ok {
		t.Fatal("expected no anchor for empty transcript")
	}
}

func TestAlignShiftsAndTrims(t *testing.T) {
	ch := &transcript.Transcript{Speaker: "Doctor", Segments: []transcript.Segment{
		{ID: 0, Start: 6, End: 7, Text: "Hello"},
		{ID: 1, Start: 10, End: 12, Text: "Please take a deep breath for me"},
		{ID: 2, Start: 12, End: 14, Text: "Thank you"},
		{ID: 3, Start: 13, End: 15, Text: "Bye"},
	}}
	result, err := anchor.Align(reference(), []anchor.Channel{{Index: 0, Transcript: ch}}, anchor.Options{})
	if err != nil {
		t.Fatalf("Align: %v", err)
	}
	want := []transcript.Segment{
		{ID: 0, Start: 4, End: 5, Text: "Hello"},
		{ID: 1, Start: 8, End: 10, Text: "Please take a deep breath for me"},
		{ID: 2, Start: 10, End: 12, Text: "Thank you"},
	}
	if !reflect.DeepEqual(ch.Segments, want) {
		t.Fatalf("unexpected segments %+v", ch.Segments)
	}
	cr := result.Channels[0]
	if !cr.Anchored || cr.Shift != 2 || cr.Kept != 3 || cr.Dropped != 1 {
		t.Fatalf("unexpected channel result %+v", cr)
	}
	if result.Cutoff != 12 || result.Anchor.ID != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestAlignCutoffUsesLastStoredSegment(t *testing.T) {
	ref := &transcript.Transcript{Segments: []transcript.Segment{
		{ID: 0, Start: 0, End: 20, Text: "long anchor"},
		{ID: 1, Start: 1, End: 5, Text: "earlier"},
	}}
	ch := &transcript.Transcript{Speaker: "A", Segments: []transcript.Segment{
		{ID: 0, Start: 1, End: 2, Text: "long anchor"},
		{ID: 1, Start: 5, End: 6},
		{ID: 2, Start: 6, End: 7},
	}}
	if _, err := anchor.Align(ref, []anchor.Channel{{Index: 0, Transcript: ch}}, anchor.Options{}); err != nil {
		t.Fatalf("Align: %v", err)
	}
	if len(ch.Segments) != 2 || ch.Segments[1].End != 5 {
		t.Fatalf("expected trimming at 5, got %+v", ch.Segments)
	}
}

func TestAlignUnanchorableAbortsWithoutChanges(t *testing.T) {
	good := &transcript.Transcript{Speaker: "A", Segments: []transcript.Segment{{Start: 3, End: 8, Text: "Please take a deep breath for me"}}}
	bad := &transcript.Transcript{Speaker: "B", Segments: []transcript.Segment{{Start: 3, End: 4, Text: "please take a deep breath for me"}}}
	channels := []anchor.Channel{{Index: 1, Transcript: bad}, {Index: 0, Transcript: good}}

	_, err := anchor.Align(reference(), channels, anchor.Options{})
	var unanchorable *anchor.UnanchorableError
	if !errors.As(err, &unanchorable) || !errors.Is(err, services.ErrUnanchorableChannel) {
		t.Fatalf("expected UnanchorableError, got %v", err)
	}
	if !reflect.DeepEqual(unanchorable.Channels, []int{1}) {
		t.Fatalf("unexpected channels %v", unanchorable.Channels)
	}
	if good.Segments[0].Start != 3 {
		t.Fatal("channels must not be modified when alignment aborts")
	}
}

func TestAlignAllowUnanchoredExcludesChannel(t *testing.T) {
	good := &transcript.Transcript{Speaker: "A", Segments: []transcript.Segment{{Start: 3, End: 8, Text: "Please take a deep breath for me"}}}
	bad := &transcript.Transcript{Speaker: "B", Segments: []transcript.Segment{{Start: 3, End: 4, Text: "nope"}}}
	unstamped := &transcript.Transcript{Segments: []transcript.Segment{{Start: 3, End: 4, Text: "ignored"}}}
	channels := []anchor.Channel{{Index: 0, Transcript: good}, {Index: 1, Transcript: bad}, {Index: 2, Transcript: unstamped}}

	result, err := anchor.Align(reference(), channels, anchor.Options{AllowUnanchored: true})
	if err != nil {
		t.Fatalf("Align: %v", err)
	}
	if !reflect.DeepEqual(result.Unanchored(), []int{1}) {
		t.Fatalf("unexpected unanchored %v", result.Unanchored())
	}
	if len(bad.Segments) != 0 {
		t.Fatal("unanchored channel should contribute no segments")
	}
	if good.Segments[0].Start != -2 {
		t.Fatalf("expected shifted start -2, got %v", good.Segments[0].Start)
	}
	if len(result.Channels) != 2 || len(unstamped.Segments) != 1 {
		t.Fatalf("unstamped channel should be ignored, got %+v", result.Channels)
	}
}
