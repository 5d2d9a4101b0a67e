// Package solarcore delivers processed recordings to a remote Solar Core
// over its import API and records every attempt in the sync log.
package solarcore
