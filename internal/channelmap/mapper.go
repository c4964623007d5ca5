package channelmap

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"unicode/utf8"

	"speakerid/internal/logging"
	"speakerid/internal/reference"
	"speakerid/internal/services"
	"speakerid/internal/textutil"
	"speakerid/internal/transcript"
)

// DefaultThreshold is the partial ratio a snippet must strictly exceed.
const DefaultThreshold = 80

// TextScorer rates how well a snippet occurs in a text on a 0-100 scale.
type TextScorer func(snippet, text string) int

// Channel is one channel's independently produced transcript.
type Channel struct {
	Index      int
	Transcript *transcript.Transcript
}

// Mapping is a one-to-one association between speakers and channels.
type Mapping struct {
	SpeakerToChannel map[string]int
	ChannelToSpeaker map[int]string
}

// Speaker returns the speaker mapped to a channel.
func (m Mapping) Speaker(channel int) (string, bool) {
	s, ok := m.ChannelToSpeaker[channel]
	return s, ok
}

// Channels returns mapped channel indices in ascending order.
func (m Mapping) Channels() []int {
	out := make([]int, 0, len(m.ChannelToSpeaker))
	for ch := range m.ChannelToSpeaker {
		out = append(out, ch)
	}
	sort.Ints(out)
	return out
}

// IncompleteError reports speakers that could not be given a distinct channel.
type IncompleteError struct {
	Speakers []string
	Unmapped []string
	Mapped   int
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("%v: %d of %d speakers mapped to distinct channels; unmapped: %s",
		services.ErrIncompleteMapping, e.Mapped, len(e.Speakers), strings.Join(e.Unmapped, ", "))
}

func (e *IncompleteError) Unwrap() error {
	return services.ErrIncompleteMapping
}

// Mapper maps speakers to channels.
type Mapper struct {
	Threshold int
	Scorer    TextScorer

	logger *slog.Logger
}

// NewMapper returns a Mapper using PartialRatio and the given threshold.
func NewMapper(threshold int, logger *slog.Logger) *Mapper {
	return &Mapper{Threshold: threshold, Scorer: textutil.PartialRatio, logger: logger}
}

// Map assigns each speaker a channel. Speakers are processed in reference
// order; a later speaker choosing an already claimed channel takes it over,
// which the completeness check then reports.
func (m *Mapper) Map(refs []reference.TextReference, channels []Channel) (Mapping, error) {
	logger := m.logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "channelmap")
	scorer := m.Scorer
	if scorer == nil {
		scorer = textutil.PartialRatio
	}

	texts := make([]string, len(channels))
	for i, ch := range channels {
		if ch.Transcript != nil {
			texts[i] = ch.Transcript.FullText()
		}
	}

	speakerToChannel := make(map[string]int)
	channelToSpeaker := make(map[int]string)
	speakers := make([]string, 0, len(refs))

	for _, ref := range refs {
		speakers = append(speakers, ref.Speaker)
		var candidates []int
		for i, ch := range channels {
			if matches(scorer, ref.Snippets, texts[i], m.Threshold) {
				candidates = append(candidates, i)
				logger.Debug("channel candidate",
					logging.String(logging.FieldSpeaker, ref.Speaker),
					logging.Int(logging.FieldChannel, ch.Index),
				)
			}
		}
		if len(candidates) == 0 {
			logger.Debug("no channel matched speaker", logging.String(logging.FieldSpeaker, ref.Speaker))
			continue
		}

		chosen := candidates[0]
		for _, c := range candidates[1:] {
			if shorter(texts[c], channels[c].Index, texts[chosen], channels[chosen].Index) {
				chosen = c
			}
		}
		index := channels[chosen].Index
		if previous, ok := channelToSpeaker[index]; ok && previous != ref.Speaker {
			delete(speakerToChannel, previous)
			logger.Debug("channel reassigned",
				logging.Int(logging.FieldChannel, index),
				logging.String("previous", previous),
				logging.String(logging.FieldSpeaker, ref.Speaker),
			)
		}
		speakerToChannel[ref.Speaker] = index
		channelToSpeaker[index] = ref.Speaker
	}

	if len(channelToSpeaker) != len(refs) {
		var unmapped []string
		for _, speaker := range speakers {
			if _, ok := speakerToChannel[speaker]; !ok {
				unmapped = append(unmapped, speaker)
			}
		}
		return Mapping{}, &IncompleteError{Speakers: speakers, Unmapped: unmapped, Mapped: len(channelToSpeaker)}
	}

	mapping := Mapping{SpeakerToChannel: speakerToChannel, ChannelToSpeaker: channelToSpeaker}
	for _, ch := range mapping.Channels() {
		logger.Info("channel mapped",
			logging.Int(logging.FieldChannel, ch),
			logging.String(logging.FieldSpeaker, channelToSpeaker[ch]),
		)
	}
	return mapping, nil
}

func matches(scorer TextScorer, snippets []string, text string, threshold int) bool {
	if text == "" {
		return false
	}
	for _, snippet := range snippets {
		if scorer(snippet, text) > threshold {
			return true
		}
	}
	return false
}

// shorter reports whether text a at channel ia beats text b at channel ib.
func shorter(a string, ia int, b string, ib int) bool {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	if la != lb {
		return la < lb
	}
	return ia < ib
}

// Stamp writes each mapped speaker onto its channel transcript and clears the
// attribute on unmapped channels.
func Stamp(mapping Mapping, channels []Channel) {
	for _, ch := range channels {
		if ch.Transcript == nil {
			continue
		}
		ch.Transcript.Speaker = mapping.ChannelToSpeaker[ch.Index]
	}
}
