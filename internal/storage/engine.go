// Package storage provides the storage engines for MerkleKV.
//
// This file defines the Engine interface that every backend must satisfy.
package storage

// Engine is the uniform operation contract over all storage backends.
//
// Semantics shared by every implementation:
//
//   - Get never reports an error. A storage or decode fault during the read
//     is logged by the engine and surfaces as a miss; callers cannot
//     distinguish "missing" from "storage fault".
//   - Set propagates storage faults to the caller.
//   - Delete returns true iff the key existed and was removed; faults are
//     swallowed and reported as false.
//   - Keys returns every live key exactly once, in no particular order;
//     faults yield an empty slice.
//   - Increment and Decrement parse the current value as a signed integer.
//     A missing or unparsable value is treated as zero, not an error. The
//     textual result is stored and the new value returned.
//   - Append and Prepend concatenate onto the current value, treating a
//     missing value as the empty string.
//   - CountKeys is the fallible twin of Len for backends where counting
//     requires I/O.
//   - Sync forces a durable flush and is a no-op for in-memory backends.
//   - Close releases the engine; the persistent backend flushes outstanding
//     writes as part of disposal.
//
// Read-modify-write operators (Increment, Decrement, Append, Prepend) are
// atomic only on RWLockEngine, which holds its write lock for the whole
// read-compute-write sequence. On BadgerEngine they are three separate
// operations and concurrent callers on the same key can lose updates.
type Engine interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) bool
	Keys() []string
	Len() int
	IsEmpty() bool

	Increment(key string, amount int64) (int64, error)
	Decrement(key string, amount int64) (int64, error)
	Append(key, suffix string) (string, error)
	Prepend(key, prefix string) (string, error)

	Truncate() error
	CountKeys() (uint64, error)
	Sync() error
	Stats() Stats
	Close() error
}

// Stats is a best-effort snapshot of engine state for monitoring.
// Fields an engine cannot compute are left zero.
type Stats struct {
	// DiskSizeBytes is the on-disk footprint. Zero for in-memory engines.
	DiskSizeBytes uint64

	// RecordCount is the number of live records.
	RecordCount uint64

	// CacheEntries is the number of entries in the read cache.
	// Zero for engines without one.
	CacheEntries uint64
}

// DefaultAmount is the step applied by Increment and Decrement when the
// caller does not specify one at the protocol or CLI layer.
const DefaultAmount int64 = 1
