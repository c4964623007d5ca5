// Package anchor aligns independently transcribed channel transcripts onto
// the reference timeline.
//
// The anchor utterance is the longest segment of the reference transcript.
// Each mapped channel locates the first segment whose text equals the anchor
// text exactly; every segment in that channel is then shifted earlier by that
// segment's duration, and segments ending after the reference transcript's
// final segment are dropped. Channels with no exact match cannot be anchored
// and are reported rather than passed through with their raw timestamps.
package anchor
