package transcript

import (
	"encoding/json"
	"slices"
	"sort"
	"strings"

	"speakerid/internal/services"
)

// Segment is one time-stamped piece of transcribed speech.
type Segment struct {
	ID      int
	Start   float64
	End     float64
	Text    string
	Speaker string

	// Extra holds unmodelled fields (for example word timings) verbatim.
	Extra map[string]json.RawMessage
}

// Labeled reports whether the segment carries a speaker label.
func (s Segment) Labeled() bool {
	return s.Speaker != ""
}

// Duration returns the segment length in seconds.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Transcript is an ordered list of segments plus document-level attributes.
type Transcript struct {
	Text     string
	Language string
	// Speaker is stamped on channel transcripts once a channel is mapped.
	Speaker  string
	Segments []Segment

	Extra map[string]json.RawMessage
}

// FindByID returns the first segment with the given id.
func (t *Transcript) FindByID(id int) (*Segment, bool) {
	for i := range t.Segments {
		if t.Segments[i].ID == id {
			return &t.Segments[i], true
		}
	}
	return nil, false
}

// SetSpeaker labels the first segment with the given id.
func (t *Transcript) SetSpeaker(id int, speaker string) error {
	seg, ok := t.FindByID(id)
	if !ok {
		return services.Wrap(services.ErrNotFound, "transcript", "set speaker", "segment id not present", nil)
	}
	seg.Speaker = strings.TrimSpace(speaker)
	return nil
}

// SetText replaces the text of the first segment with the given id. The text
// is stored verbatim.
func (t *Transcript) SetText(id int, text string) error {
	seg, ok := t.FindByID(id)
	if !ok {
		return services.Wrap(services.ErrNotFound, "transcript", "set text", "segment id not present", nil)
	}
	seg.Text = text
	return nil
}

// Renumber assigns segment ids by position.
func (t *Transcript) Renumber() {
	for i := range t.Segments {
		t.Segments[i].ID = i
	}
}

// SortByStart stable-sorts segments by start time in place.
func (t *Transcript) SortByStart() {
	sortSegments(t.Segments)
}

// SortedByStart returns a stable-sorted copy of the segments.
func (t *Transcript) SortedByStart() []Segment {
	out := slices.Clone(t.Segments)
	sortSegments(out)
	return out
}

func sortSegments(segments []Segment) {
	sort.SliceStable(segments, func(i, j int) bool {
		return segments[i].Start < segments[j].Start
	})
}

// Speakers returns distinct non-empty speaker labels in first-appearance order.
func (t *Transcript) Speakers() []string {
	seen := make(map[string]struct{})
	var speakers []string
	for _, seg := range t.Segments {
		if seg.Speaker == "" {
			continue
		}
		if _, ok := seen[seg.Speaker]; ok {
			continue
		}
		seen[seg.Speaker] = struct{}{}
		speakers = append(speakers, seg.Speaker)
	}
	return speakers
}

// Labeled returns copies of the labeled segments in storage order.
func (t *Transcript) Labeled() []Segment {
	var out []Segment
	for _, seg := range t.Segments {
		if seg.Labeled() {
			out = append(out, seg)
		}
	}
	return out
}

// Unlabeled counts segments without a speaker.
func (t *Transcript) Unlabeled() int {
	count := 0
	for _, seg := range t.Segments {
		if !seg.Labeled() {
			count++
		}
	}
	return count
}

// FullText returns the document text, falling back to the joined segment texts.
func (t *Transcript) FullText() string {
	if text := strings.TrimSpace(t.Text); text != "" {
		return text
	}
	parts := make([]string, 0, len(t.Segments))
	for _, seg := range t.Segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// LastEnd returns the end time of the last segment in storage order.
func (t *Transcript) LastEnd() (float64, bool) {
	if len(t.Segments) == 0 {
		return 0, false
	}
	return t.Segments[len(t.Segments)-1].End, true
}

// Clone returns a deep copy.
func (t *Transcript) Clone() *Transcript {
	if t == nil {
		return nil
	}
	out := *t
	out.Extra = cloneExtra(t.Extra)
	out.Segments = make([]Segment, len(t.Segments))
	for i, seg := range t.Segments {
		seg.Extra = cloneExtra(seg.Extra)
		out.Segments[i] = seg
	}
	return &out
}

func cloneExtra(extra map[string]json.RawMessage) map[string]json.RawMessage {
	if extra == nil {
		return nil
	}
	out := make(map[string]json.RawMessage, len(extra))
	for k, v := range extra {
		out[k] = slices.Clone(v)
	}
	return out
}
