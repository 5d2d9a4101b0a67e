// Package logging builds the slog loggers used across the daemon and CLI.
//
// It supports console and JSON output, optional log-file fanout under the
// configured log directory, and a small set of attribute helpers so call
// sites stay terse and field names stay consistent.
package logging
