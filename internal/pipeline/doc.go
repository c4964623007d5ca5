// Package pipeline runs speakerid end to end: it serializes work per
// transcript file, records each run in the history store, and wires the
// core stages together.
//
// Two flows are provided. AssignSpeakers propagates seed labels across a
// single-channel recording using speaker verification and rewrites the
// transcript in place. IdentifyChannels splits a multi-channel recording,
// transcribes each channel, maps channels to speakers by text, anchors the
// channel timelines to the reference transcript, and writes a merged
// speaker-attributed result next to the input.
//
// Every run takes an advisory lock on "<transcript>.lock" so two runs against
// the same file fail fast instead of interleaving writes.
package pipeline
