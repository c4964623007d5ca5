// Package audio holds in-memory PCM buffers and WAV file I/O.
//
// Buffers are mono float32 samples normalized to [-1, 1] with a sample rate.
// Recordings keep one buffer per channel. Time-range slicing applies the
// sample-index rules used when building speaker references and scoring
// segments: start and end are truncated to sample indices, and slices that
// are empty, out of range, or shorter than a minimum duration are rejected
// with services.ErrInvalidSegment.
package audio
