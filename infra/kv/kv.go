// Package kv abstracts the persistent keyed store backing the engine's
// registry, execution queue, and participant index.
//
// The engine validates with reads, stages every mutation of one
// operation in a single Batch, and commits once. A failed validation
// therefore leaves no partial trace in the store. Scans iterate in
// ascending key order on every implementation so that replaying the
// same operations against the same starting state is deterministic.
package kv

// Store is the keyed-store collaborator: point reads, prefix scans, and
// atomically committed batches.
type Store interface {
	// Get returns the value for key, or ok=false if absent.
	Get(key []byte) (value []byte, ok bool, err error)
	// Has reports whether key is present.
	Has(key []byte) (bool, error)
	// NewBatch starts an empty write batch.
	NewBatch() Batch
	// Commit applies every staged mutation atomically.
	Commit(b Batch) error
	// ScanPrefix visits all keys with the given prefix in ascending
	// order. Returning an error from fn aborts the scan.
	ScanPrefix(prefix []byte, fn func(key, value []byte) error) error
	Close() error
}

// Batch stages writes. Mutations are invisible to reads until the batch
// is committed.
type Batch interface {
	Set(key, value []byte)
	Delete(key []byte)
}
