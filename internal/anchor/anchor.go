package anchor

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"speakerid/internal/logging"
	"speakerid/internal/services"
	"speakerid/internal/transcript"
)

// Channel is a speaker-stamped channel transcript to align.
type Channel struct {
	Index      int
	Transcript *transcript.Transcript
}

// ChannelResult describes what happened to one channel.
type ChannelResult struct {
	Index    int     `json:"index"`
	Speaker  string  `json:"speaker"`
	Anchored bool    `json:"anchored"`
	Shift    float64 `json:"shift"`
	Kept     int     `json:"kept"`
	Dropped  int     `json:"dropped"`
}

// Result is the outcome of aligning all channels.
type Result struct {
	Anchor   transcript.Segment
	Cutoff   float64
	Channels []ChannelResult
}

// Unanchored returns the indices of channels that could not be anchored.
func (r Result) Unanchored() []int {
	var out []int
	for _, ch := range r.Channels {
		if !ch.Anchored {
			out = append(out, ch.Index)
		}
	}
	return out
}

// UnanchorableError lists channels with no exact match for the anchor text.
type UnanchorableError struct {
	Channels   []int
	AnchorText string
}

func (e *UnanchorableError) Error() string {
	parts := make([]string, len(e.Channels))
	for i, ch := range e.Channels {
		parts[i] = fmt.Sprintf("%d", ch)
	}
	return fmt.Sprintf("%v: channels [%s] contain no segment matching anchor text %q",
		services.ErrUnanchorableChannel, strings.Join(parts, ", "), e.AnchorText)
}

func (e *UnanchorableError) Unwrap() error {
	return services.ErrUnanchorableChannel
}

// Utterance returns the longest segment of ref, the first one on ties.
func Utterance(ref *transcript.Transcript) (transcript.Segment, bool) {
	if ref == nil || len(ref.Segments) == 0 {
		return transcript.Segment{}, false
	}
	best := ref.Segments[0]
	for _, seg := range ref.Segments[1:] {
		if seg.Duration() > best.Duration() {
			best = seg
		}
	}
	return best, true
}

// Options controls Align.
type Options struct {
	// AllowUnanchored keeps going when a channel cannot be anchored; such
	// channels have their segments removed instead of failing the run.
	AllowUnanchored bool
	Logger          *slog.Logger
}

// Align shifts and trims every channel in place. Channels without a stamped
// speaker are ignored. Without AllowUnanchored, any unanchorable channel
// aborts alignment before a channel is modified; with it, such channels are
// emptied and listed by Result.Unanchored.
func Align(ref *transcript.Transcript, channels []Channel, opts Options) (Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "anchor")

	anchorSeg, ok := Utterance(ref)
	if !ok {
		return Result{}, services.Wrap(services.ErrValidation, "anchor", "utterance", "reference transcript has no segments", nil)
	}
	cutoff, _ := ref.LastEnd()
	result := Result{Anchor: anchorSeg, Cutoff: cutoff}

	type match struct {
		channel Channel
		segment transcript.Segment
		found   bool
	}
	var matches []match
	for _, ch := range channels {
		if ch.Transcript == nil || ch.Transcript.Speaker == "" {
			continue
		}
		m := match{channel: ch}
		for _, seg := range ch.Transcript.Segments {
			if seg.Text == anchorSeg.Text {
				m.segment = seg
				m.found = true
				break
			}
		}
		matches = append(matches, m)
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].channel.Index < matches[j].channel.Index })

	var unanchored []int
	for _, m := range matches {
		if !m.found {
			unanchored = append(unanchored, m.channel.Index)
		}
	}
	if len(unanchored) > 0 && !opts.AllowUnanchored {
		return Result{}, &UnanchorableError{Channels: unanchored, AnchorText: anchorSeg.Text}
	}

	for _, m := range matches {
		tr := m.channel.Transcript
		cr := ChannelResult{Index: m.channel.Index, Speaker: tr.Speaker}
		if !m.found {
			cr.Dropped = len(tr.Segments)
			tr.Segments = nil
			result.Channels = append(result.Channels, cr)
			logging.WarnWithContext(logger, "channel excluded: anchor text not found", "channel_unanchored",
				logging.Int(logging.FieldChannel, m.channel.Index),
				logging.String(logging.FieldSpeaker, cr.Speaker),
				logging.String(logging.FieldErrorHint, "label a longer, clearly transcribed utterance in the reference transcript"),
				logging.String(logging.FieldImpact, "this speaker's channel is missing from the merged result"),
			)
			continue
		}

		shift := m.segment.End - m.segment.Start
		kept := tr.Segments[:0]
		for _, seg := range tr.Segments {
			seg.Start -= shift
			seg.End -= shift
			if seg.End > cutoff {
				cr.Dropped++
				continue
			}
			kept = append(kept, seg)
		}
		tr.Segments = kept
		cr.Anchored = true
		cr.Shift = shift
		cr.Kept = len(kept)
		result.Channels = append(result.Channels, cr)
		logger.Info("channel anchored",
			logging.Int(logging.FieldChannel, cr.Index),
			logging.String(logging.FieldSpeaker, cr.Speaker),
			logging.Float64("shift_seconds", shift),
			logging.Int("kept", cr.Kept),
			logging.Int("dropped", cr.Dropped),
		)
	}

	return result, nil
}
