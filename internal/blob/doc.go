// Package blob implements the content-addressed on-disk cache for binary
// image payloads. Each entry is a single file named by the SHA-256 digest of
// the fully resolved upstream route; the existence of the file is the sole
// source of truth for "is cached". Writes go through a temp file + rename so
// concurrent first fetches of the same route cannot leave partial entries.
package blob
