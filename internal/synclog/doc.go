// Package synclog keeps an append-only history of sync attempts per
// recording. Appends are single INSERTs, never read-modify-write, so
// concurrent attempts cannot drop each other's entries.
package synclog
