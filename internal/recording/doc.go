// Package recording defines the recording model and its SQLite-backed store.
//
// All status changes go through guarded UPDATE statements so concurrent
// stage runners, translators, and the sync engine can write disjoint columns
// without read-modify-write races. Map-valued columns (stage errors,
// translations) are updated with SQLite's json_set inside a single statement
// for the same reason.
package recording
