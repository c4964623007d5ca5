package reference

import (
	"log/slog"
	"strings"

	"speakerid/internal/audio"
	"speakerid/internal/logging"
	"speakerid/internal/transcript"
)

// AudioReference is the concatenated labeled audio of one speaker.
type AudioReference struct {
	Speaker  string
	Audio    audio.Buffer
	Segments int
}

// TextReference is the labeled utterances of one speaker.
type TextReference struct {
	Speaker  string
	Snippets []string
}

// BuildAudio extracts each speaker's labeled slices, in ascending start order,
// and concatenates them. Invalid slices are skipped; speakers left with no
// valid slice are omitted.
func BuildAudio(tr *transcript.Transcript, buf audio.Buffer, minDuration float64, logger *slog.Logger) []AudioReference {
	if logger == nil {
		logger = logging.NewNop()
	}
	if tr == nil {
		return nil
	}
	speakers := tr.Speakers()
	if len(speakers) == 0 {
		return nil
	}

	slices := make(map[string][]audio.Buffer, len(speakers))
	for _, seg := range tr.SortedByStart() {
		if !seg.Labeled() {
			continue
		}
		slice, err := buf.Slice(seg.Start, seg.End, minDuration)
		if err != nil {
			logger.Debug("reference slice skipped",
				logging.Int(logging.FieldSegmentID, seg.ID),
				logging.String(logging.FieldSpeaker, seg.Speaker),
				logging.Error(err),
			)
			continue
		}
		slices[seg.Speaker] = append(slices[seg.Speaker], slice)
	}

	refs := make([]AudioReference, 0, len(speakers))
	for _, speaker := range speakers {
		parts := slices[speaker]
		if len(parts) == 0 {
			logging.WarnWithContext(logger, "speaker has no usable reference audio", "reference_empty",
				logging.String(logging.FieldSpeaker, speaker),
				logging.String(logging.FieldErrorHint, "label a longer segment that lies inside the recording"),
				logging.String(logging.FieldImpact, "speaker will not be assigned to any segment"),
			)
			continue
		}
		joined, err := audio.Concat(parts...)
		if err != nil {
			logger.Error("concatenate reference audio", logging.String(logging.FieldSpeaker, speaker), logging.Error(err))
			continue
		}
		refs = append(refs, AudioReference{Speaker: speaker, Audio: joined, Segments: len(parts)})
		logger.Debug("reference audio built",
			logging.String(logging.FieldSpeaker, speaker),
			logging.Int("slices", len(parts)),
			logging.Float64("seconds", joined.Duration()),
		)
	}
	return refs
}

// BuildText groups labeled segment texts by speaker in storage order.
func BuildText(tr *transcript.Transcript) []TextReference {
	if tr == nil {
		return nil
	}
	speakers := tr.Speakers()
	snippets := make(map[string][]string, len(speakers))
	for _, seg := range tr.Segments {
		if !seg.Labeled() {
			continue
		}
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		snippets[seg.Speaker] = append(snippets[seg.Speaker], text)
	}
	refs := make([]TextReference, 0, len(speakers))
	for _, speaker := range speakers {
		refs = append(refs, TextReference{Speaker: speaker, Snippets: snippets[speaker]})
	}
	return refs
}

// Speakers returns the speaker names of audio references in order.
func Speakers(refs []AudioReference) []string {
	out := make([]string, len(refs))
	for i, ref := range refs {
		out[i] = ref.Speaker
	}
	return out
}
