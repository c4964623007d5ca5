// Package merge combines aligned, speaker-stamped channel transcripts into a
// single speaker-attributed transcript.
package merge

import "speakerid/internal/transcript"

// Merge concatenates the segments of every stamped channel, labels each
// segment with its channel's speaker, and stable-sorts the result by start
// time. Segment ids are carried over from the channels and may repeat across
// channels. Channels without a speaker contribute nothing.
func Merge(channels []*transcript.Transcript) *transcript.Transcript {
	out := &transcript.Transcript{Segments: []transcript.Segment{}}
	for _, ch := range channels {
		if ch == nil || ch.Speaker == "" {
			continue
		}
		if out.Language == "" {
			out.Language = ch.Language
		}
		for _, seg := range ch.Segments {
			seg.Speaker = ch.Speaker
			// Word timings are not shifted by alignment.
			seg.Extra = nil
			out.Segments = append(out.Segments, seg)
		}
	}
	out.SortByStart()
	return out
}
