// Package whisperx transcribes per-channel WAV files with WhisperX.
//
// This package handles:
//   - WhisperX invocation through uvx
//   - Loading the WhisperX JSON result as a transcript
//
// The multi-channel pipeline transcribes each extracted channel with a
// Service and then maps, anchors, and merges the results.
//
// Configuration options (model, CUDA, VAD method, language) are passed via
// Config.
package whisperx
