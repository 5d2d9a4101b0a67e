// Package pipeline runs the derivation chain: merge first for dual captures,
// then transcode and transcribe in parallel, then document rendering once the
// transcript exists.
package pipeline
