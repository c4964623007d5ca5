// Package history persists a record of every speakerid run in SQLite.
//
// Each pipeline invocation inserts a row when it starts and updates it with
// its outcome and counters when it finishes, so operators can audit which
// transcripts were labeled, which channel runs were incomplete, and why a run
// failed. The store owns schema creation and version checks; callers only see
// the Run model and the Status vocabulary.
package history
