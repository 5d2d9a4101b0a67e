// Package daemon hosts the long-running process: the HTTP API, the
// background pipeline, and the single-instance lock.
package daemon
