// Package reference builds per-speaker reference material from the labeled
// seed segments of a transcript.
//
// Audio references concatenate every valid labeled slice for a speaker into a
// single buffer used by speaker verification. Text references collect each
// speaker's labeled utterances for matching against per-channel transcripts.
// Both follow the transcript's canonical speaker order.
package reference
