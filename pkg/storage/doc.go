// Package storage persists console state that should survive a session:
// the last responsive backend host and the restart history. Backed by
// bbolt; everything here is best-effort cache and callers treat failures
// as non-fatal.
package storage
