// Package main hosts the speakerid CLI entrypoint and command graph.
//
// The Cobra-based command tree resolves configuration, builds the logger,
// opens the run history, and hands transcripts to the pipeline engine. The
// assign command labels a single-channel transcript from seed labels; the
// channels command maps, aligns, and merges per-speaker channels. Seed labels
// are managed with label, text, import and segments, and past runs are listed
// by runs.
//
// Keep this package lean: behaviour belongs in the internal packages, and
// commands here only parse arguments and render results.
package main
