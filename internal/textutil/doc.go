// Package textutil provides text comparison and sanitization helpers.
//
// The primary use cases are:
//   - Scoring how well a short reference snippet occurs inside a longer
//     channel transcript (PartialRatio, 0-100)
//   - Finding segments whose text loosely contains a query
//   - Normalizing Unicode text before comparison
//   - Sanitizing names for safe filesystem use
//
// PartialRatio slides windows of the shorter string across the longer one and
// keeps the best Indel similarity, computed with a bit-parallel LCS. Inputs
// are NFC normalized and trimmed but otherwise compared as-is: case and
// punctuation differences count against the score.
package textutil
