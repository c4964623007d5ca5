// Package testsupport provides helpers shared by package tests: temporary
// configurations, transcript and WAV fixtures, and a history store.
package testsupport
