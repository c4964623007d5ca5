// Package language normalizes user-supplied language hints (ISO codes, BCP 47
// tags, or English language names) into the two-letter codes WhisperX
// expects, using golang.org/x/text for parsing and display names.
package language
