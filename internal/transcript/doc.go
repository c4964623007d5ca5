// Package transcript loads, queries, and atomically persists time-stamped
// transcript documents.
//
// A transcript is a JSON object carrying a "segments" array; each segment has
// an id, start and end times in seconds, text, and an optional speaker label.
// Bare arrays of segments are accepted and normalized on save. Fields the
// package does not model are preserved so WhisperX word timings and similar
// extras survive a rewrite.
//
// Speakers() defines the canonical speaker order (first appearance in storage
// order) that reference building, assignment, and channel mapping iterate in.
package transcript
