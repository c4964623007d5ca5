package channelmap_test

import (
	"errors"
	"reflect"
	"testing"

	"speakerid/internal/channelmap"
	"speakerid/internal/reference"
	"speakerid/internal/services"
	"speakerid/internal/transcript"
)

func channel(index int, text string) channelmap.Channel {
	return channelmap.Channel{Index: index, Transcript: &transcript.Transcript{
		Segments: []transcript.Segment{{ID: 0, Start: 0, End: 1, Text: text}},
	}}
}

func TestMapOneSpeakerPerChannel(t *testing.T) {
	refs := []reference.TextReference{
		{Speaker: "Doctor", Snippets: []string{"how are you feeling today"}},
		{Speaker: "Nurse", Snippets: []string{"blood pressure is normal"}},
	}
	channels := []channelmap.Channel{
		channel(0, "the blood pressure is normal and the chart is updated"),
		channel(1, "good morning how are you feeling today"),
	}
	mapping, err := channelmap.NewMapper(80, nil).Map(refs, channels)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	want := map[string]int{"Doctor": 1, "Nurse": 0}
	if !reflect.DeepEqual(mapping.SpeakerToChannel, want) {
		t.Fatalf("unexpected mapping %v", mapping.SpeakerToChannel)
	}
	if got := mapping.Channels(); !reflect.DeepEqual(got, []int{0, 1}) {
		t.Fatalf("unexpected channels %v", got)
	}

	channelmap.Stamp(mapping, channels)
	if channels[0].Transcript.Speaker != "Nurse" || channels[1].Transcript.Speaker != "Doctor" {
		t.Fatalf("unexpected stamps %q %q", channels[0].Transcript.Speaker, channels[1].Transcript.Speaker)
	}
}

func TestMapPrefersShortestChannelText(t *testing.T) {
	refs := []reference.TextReference{
		{Speaker: "A", Snippets: []string{"shared phrase here"}},
		{Speaker: "B", Snippets: []string{"only in the long channel"}},
	}
	channels := []channelmap.Channel{
		channel(0, "shared phrase here and a lot of bleed from the other speaker only in the long channel"),
		channel(1, "shared phrase here"),
	}
	mapping, err := channelmap.NewMapper(80, nil).Map(refs, channels)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if mapping.SpeakerToChannel["A"] != 1 || mapping.SpeakerToChannel["B"] != 0 {
		t.Fatalf("unexpected mapping %v", mapping.SpeakerToChannel)
	}
}

func TestMapEqualLengthTiePicksLowestIndex(t *testing.T) {
	refs := []reference.TextReference{{Speaker: "A", Snippets: []string{"hello there"}}}
	channels := []channelmap.Channel{
		channel(3, "hello there"),
		channel(1, "hello there"),
	}
	mapping, err := channelmap.NewMapper(80, nil).Map(refs, channels)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if mapping.SpeakerToChannel["A"] != 1 {
		t.Fatalf("expected lowest channel index, got %v", mapping.SpeakerToChannel)
	}
}

func TestMapIncompleteWhenSpeakerUnmatched(t *testing.T) {
	refs := []reference.TextReference{
		{Speaker: "A", Snippets: []string{"alpha words"}},
		{Speaker: "B", Snippets: []string{"completely absent"}},
	}
	_, err := channelmap.NewMapper(80, nil).Map(refs, []channelmap.Channel{channel(0, "alpha words"), channel(1, "other")})
	var incomplete *channelmap.IncompleteError
	if !errors.As(err, &incomplete) {
		t.Fatalf("expected IncompleteError, got %v", err)
	}
	if !errors.Is(err, services.ErrIncompleteMapping) {
		t.Fatal("expected ErrIncompleteMapping marker")
	}
	if !reflect.DeepEqual(incomplete.Unmapped, []string{"B"}) {
		t.Fatalf("unexpected unmapped %v", incomplete.Unmapped)
	}
}

func TestMapCollisionIsIncomplete(t *testing.T) {
	refs := []reference.TextReference{
		{Speaker: "A", Snippets: []string{"same words"}},
		{Speaker: "B", Snippets: []string{"same words"}},
	}
	_, err := channelmap.NewMapper(80, nil).Map(refs, []channelmap.Channel{channel(0, "same words")})
	var incomplete *channelmap.IncompleteError
	if !errors.As(err, &incomplete) {
		t.Fatalf("expected IncompleteError, got %v", err)
	}
	if incomplete.Mapped != 1 || !reflect.DeepEqual(incomplete.Unmapped, []string{"A"}) {
		t.Fatalf("expected later speaker to take the channel, got %+v", incomplete)
	}
}

func TestMapThresholdIsStrict(t *testing.T) {
	refs := []reference.TextReference{{Speaker: "A", Snippets: []string{"x"}}}
	mapper := channelmap.NewMapper(80, nil)
	mapper.Scorer = func(string, string) int { return 80 }
	if _, err := mapper.Map(refs, []channelmap.Channel{channel(0, "x")}); !errors.Is(err, services.ErrIncompleteMapping) {
		t.Fatalf("score equal to threshold must not match, got %v", err)
	}
	mapper.Scorer = func(string, string) int { return 81 }
	if _, err := mapper.Map(refs, []channelmap.Channel{channel(0, "x")}); err != nil {
		t.Fatalf("expected match above threshold, got %v", err)
	}
}

func TestMapUsesDocumentText(t *testing.T) {
	refs := []reference.TextReference{{Speaker: "A", Snippets: []string{"document level text"}}}
	ch := channelmap.Channel{Index: 0, Transcript: &transcript.Transcript{Text: "some document level text"}}
	if _, err := channelmap.NewMapper(80, nil).Map(refs, []channelmap.Channel{ch}); err != nil {
		t.Fatalf("Map: %v", err)
	}
}
