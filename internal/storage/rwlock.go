package storage

import (
	"strconv"
	"sync"
)

// RWLockEngine is the thread-safe in-memory backend.
//
// One reader/writer lock guards the whole map: readers proceed concurrently,
// writers exclude everything. Read-modify-write operators hold the write
// lock for their entire read-compute-write sequence, so same-key operations
// serialize safely, at the cost of serializing different-key writes too.
type RWLockEngine struct {
	namespace string

	mu   sync.RWMutex
	data map[string]string
}

// NewRWLockEngine creates a thread-safe in-memory engine. The path is
// recorded as a namespace label and is not used for I/O.
func NewRWLockEngine(path string) *RWLockEngine {
	return &RWLockEngine{
		namespace: path,
		data:      make(map[string]string),
	}
}

func (e *RWLockEngine) Get(key string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	value, ok := e.data[key]
	return value, ok
}

func (e *RWLockEngine) Set(key, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.data[key] = value
	return nil
}

func (e *RWLockEngine) Delete(key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.data[key]; !ok {
		return false
	}
	delete(e.data, key)
	return true
}

func (e *RWLockEngine) Keys() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	keys := make([]string, 0, len(e.data))
	for k := range e.data {
		keys = append(keys, k)
	}
	return keys
}

func (e *RWLockEngine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.data)
}

func (e *RWLockEngine) IsEmpty() bool {
	return e.Len() == 0
}

func (e *RWLockEngine) Increment(key string, amount int64) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	next := storedInt(e.data[key]) + amount
	e.data[key] = strconv.FormatInt(next, 10)
	return next, nil
}

func (e *RWLockEngine) Decrement(key string, amount int64) (int64, error) {
	return e.Increment(key, -amount)
}

func (e *RWLockEngine) Append(key, suffix string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	next := e.data[key] + suffix
	e.data[key] = next
	return next, nil
}

func (e *RWLockEngine) Prepend(key, prefix string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	next := prefix + e.data[key]
	e.data[key] = next
	return next, nil
}

func (e *RWLockEngine) Truncate() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	clear(e.data)
	return nil
}

func (e *RWLockEngine) CountKeys() (uint64, error) {
	return uint64(e.Len()), nil
}

// Sync is a no-op: the engine has no durable state.
func (e *RWLockEngine) Sync() error {
	return nil
}

func (e *RWLockEngine) Stats() Stats {
	return Stats{RecordCount: uint64(e.Len())}
}

// Close is a no-op: the engine has no resources to release.
func (e *RWLockEngine) Close() error {
	return nil
}
