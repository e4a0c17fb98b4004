// Package cache keeps analysed diagnostics on disk, msgpack-encoded and
// keyed by content hash, so repeated `elmls check` runs skip unchanged
// documents.
package cache
