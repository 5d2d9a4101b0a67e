// Package artifacts stores recording files on disk under a single root,
// addressed deterministically by recording id and artifact kind.
package artifacts
