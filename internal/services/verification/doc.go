// Package verification scores speaker similarity with a SpeechBrain ECAPA
// verification model running in a long-lived Python helper.
//
// The helper is started through uvx on first use and kept alive for the rest
// of the run. Requests and responses are single JSON lines: the Go side writes
// {"a": path, "b": path} and reads back {"score": x} or {"error": msg}.
// Buffers handed to Similarity are written as temporary 16-bit WAV files;
// reference buffers are written once and reused for every comparison.
package verification
