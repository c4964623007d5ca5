// Package assign labels unlabeled transcript segments by comparing their audio
// against per-speaker reference audio.
//
// Every unlabeled segment is scored against every reference speaker in
// canonical order. The best score wins with a strict comparison, so the first
// speaker in enumeration order keeps ties, and the segment is labeled only
// when that score strictly exceeds the configured threshold. Scoring failures
// for a single pair are logged and treated as absent. With more than one
// worker, segments are scored concurrently but labels are applied afterwards
// in segment order, so the outcome is identical to a sequential pass.
package assign
