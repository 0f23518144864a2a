package storage

import "strconv"

// MemoryEngine is the volatile in-memory backend.
//
// It performs no internal synchronization and is intended for
// single-goroutine or externally synchronized use only: tests, tooling,
// and embedding scenarios where the caller owns the engine outright.
type MemoryEngine struct {
	// namespace is the configured path, kept as an identifier only.
	// No I/O ever happens for this backend.
	namespace string

	data map[string]string
}

// NewMemoryEngine creates a volatile in-memory engine. The path is recorded
// as a namespace label and is not used for I/O.
func NewMemoryEngine(path string) *MemoryEngine {
	return &MemoryEngine{
		namespace: path,
		data:      make(map[string]string),
	}
}

func (e *MemoryEngine) Get(key string) (string, bool) {
	value, ok := e.data[key]
	return value, ok
}

func (e *MemoryEngine) Set(key, value string) error {
	e.data[key] = value
	return nil
}

func (e *MemoryEngine) Delete(key string) bool {
	if _, ok := e.data[key]; !ok {
		return false
	}
	delete(e.data, key)
	return true
}

func (e *MemoryEngine) Keys() []string {
	keys := make([]string, 0, len(e.data))
	for k := range e.data {
		keys = append(keys, k)
	}
	return keys
}

func (e *MemoryEngine) Len() int {
	return len(e.data)
}

func (e *MemoryEngine) IsEmpty() bool {
	return len(e.data) == 0
}

func (e *MemoryEngine) Increment(key string, amount int64) (int64, error) {
	next := storedInt(e.data[key]) + amount
	e.data[key] = strconv.FormatInt(next, 10)
	return next, nil
}

func (e *MemoryEngine) Decrement(key string, amount int64) (int64, error) {
	return e.Increment(key, -amount)
}

func (e *MemoryEngine) Append(key, suffix string) (string, error) {
	next := e.data[key] + suffix
	e.data[key] = next
	return next, nil
}

func (e *MemoryEngine) Prepend(key, prefix string) (string, error) {
	next := prefix + e.data[key]
	e.data[key] = next
	return next, nil
}

func (e *MemoryEngine) Truncate() error {
	clear(e.data)
	return nil
}

func (e *MemoryEngine) CountKeys() (uint64, error) {
	return uint64(len(e.data)), nil
}

// Sync is a no-op: the engine has no durable state.
func (e *MemoryEngine) Sync() error {
	return nil
}

func (e *MemoryEngine) Stats() Stats {
	return Stats{RecordCount: uint64(len(e.data))}
}

// Close is a no-op: the engine has no resources to release.
func (e *MemoryEngine) Close() error {
	return nil
}

// storedInt interprets a stored value as a signed integer for the numeric
// operators. A missing or unparsable value counts as zero.
func storedInt(value string) int64 {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
