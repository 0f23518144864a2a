package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/dgraph-io/badger/v3"
	"github.com/dgraph-io/badger/v3/options"
)

// collectionPrefix namespaces every MerkleKV record inside the Badger
// database, playing the role of a named collection. Badger has no bucket
// concept, so the prefix plus prefix iteration substitutes for one.
const collectionPrefix = "merkle_kv!"

// Value log files must stay within Badger's accepted range.
const (
	minValueLogFileSize = 1 << 20        // 1MB
	maxValueLogFileSize = 2<<30 - 1<<20  // just under 2GB
)

// BadgerConfig tunes the persistent engine.
type BadgerConfig struct {
	// Compression enables Snappy compression of stored blocks.
	Compression bool

	// CacheCapacity is the bounded read cache size in entries.
	CacheCapacity int

	// FlushInterval is how often pending writes are synced to disk in the
	// background. Zero or negative disables the background flush; Sync and
	// Close still flush explicitly.
	FlushInterval time.Duration

	// MaxSizeBytes caps the value log file size as a best-effort bound on
	// database growth. Zero means Badger's default.
	MaxSizeBytes int64
}

// DefaultBadgerConfig returns the default persistent engine tuning.
func DefaultBadgerConfig() BadgerConfig {
	return BadgerConfig{
		Compression:   true,
		CacheCapacity: 1000,
		FlushInterval: time.Second,
		MaxSizeBytes:  1 << 30, // 1GB
	}
}

// BadgerEngine is the persistent backend: a durable ordered key/value store
// fronted by a bounded LRU cache.
//
// Reads go through the cache (read-through: a miss populates it from the
// database); writes update the cache first and then the database
// (write-through). Enumeration, counting, and emptiness are always computed
// against the database; the cache is never a complete view.
//
// A single *BadgerEngine is safe for concurrent use and is meant to be
// shared by every caller for the process lifetime. The cache lock is never
// held across database I/O, so read-modify-write operators are not atomic
// here; see the Engine contract.
type BadgerEngine struct {
	db     *badger.DB
	cache  *valueCache
	cfg    BadgerConfig
	logger *slog.Logger

	// Background flush loop shutdown.
	stopCh    chan struct{}
	doneCh    chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// NewBadgerEngine opens (or creates) the database at path and wraps it with
// a bounded cache. Construction faults (an unopenable database, a
// non-positive cache capacity) are fatal and propagate to the caller.
func NewBadgerEngine(path string, cfg BadgerConfig, logger *slog.Logger) (*BadgerEngine, error) {
	if path == "" {
		return nil, fmt.Errorf("storage: badger path is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := badger.DefaultOptions(path)
	opts.Logger = &badgerLogger{logger: logger}
	if cfg.Compression {
		opts.Compression = options.Snappy
	} else {
		opts.Compression = options.None
	}
	// Background flush loop and explicit Sync cover durability; per-write
	// fsync would defeat the flush-interval tuning knob.
	opts.SyncWrites = false
	if cfg.MaxSizeBytes > 0 {
		opts.ValueLogFileSize = clampValueLogFileSize(cfg.MaxSizeBytes)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("storage: open badger database at %s: %w", path, err)
	}

	cache, err := newValueCache(cfg.CacheCapacity)
	if err != nil {
		db.Close()
		return nil, err
	}

	engine := &BadgerEngine{
		db:     db,
		cache:  cache,
		cfg:    cfg,
		logger: logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	go engine.flushLoop()

	logger.Info("badger engine started",
		"path", path,
		"compression", cfg.Compression,
		"cache_capacity", cfg.CacheCapacity,
		"flush_interval", cfg.FlushInterval)

	return engine, nil
}

func clampValueLogFileSize(size int64) int64 {
	if size < minValueLogFileSize {
		return minValueLogFileSize
	}
	if size > maxValueLogFileSize {
		return maxValueLogFileSize
	}
	return size
}

func encodeKey(key string) []byte {
	return append([]byte(collectionPrefix), key...)
}

// Get returns the value for key, consulting the cache first. Database and
// decode faults are logged and reported as a miss.
func (e *BadgerEngine) Get(key string) (string, bool) {
	value, ok, err := e.getInternal(key)
	if err != nil {
		e.logger.Error("get failed", "key", key, "error", err)
		return "", false
	}
	return value, ok
}

func (e *BadgerEngine) getInternal(key string) (string, bool, error) {
	if value, ok := e.cache.Get(key); ok {
		return value, true, nil
	}

	var raw []byte
	err := e.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(encodeKey(key))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read key %q: %w", key, err)
	}
	if !utf8.Valid(raw) {
		return "", false, fmt.Errorf("invalid UTF-8 in value for key %q", key)
	}

	value := string(raw)
	e.cache.Put(key, value)
	return value, true, nil
}

// Set stores key→value write-through: cache first, then the database.
// A database fault propagates, leaving the cache possibly ahead of the
// database until the caller retries.
func (e *BadgerEngine) Set(key, value string) error {
	e.cache.Put(key, value)

	err := e.db.Update(func(txn *badger.Txn) error {
		return txn.Set(encodeKey(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("storage: write key %q: %w", key, err)
	}
	return nil
}

// Delete removes key from the cache and the database. The return value
// reflects only whether the database had the key; faults are logged and
// reported as false.
func (e *BadgerEngine) Delete(key string) bool {
	existed, err := e.deleteInternal(key)
	if err != nil {
		e.logger.Error("delete failed", "key", key, "error", err)
		return false
	}
	return existed
}

func (e *BadgerEngine) deleteInternal(key string) (bool, error) {
	e.cache.Remove(key)

	existed := false
	err := e.db.Update(func(txn *badger.Txn) error {
		k := encodeKey(key)
		if _, err := txn.Get(k); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		existed = true
		return txn.Delete(k)
	})
	if err != nil {
		return false, fmt.Errorf("delete key %q: %w", key, err)
	}
	return existed, nil
}

// Keys enumerates every record in the database. Faults are logged and yield
// an empty slice.
func (e *BadgerEngine) Keys() []string {
	keys, err := e.keysInternal()
	if err != nil {
		e.logger.Error("keys enumeration failed", "error", err)
		return nil
	}
	return keys
}

func (e *BadgerEngine) keysInternal() ([]string, error) {
	var keys []string
	err := e.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(collectionPrefix)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			raw := it.Item().Key()[len(collectionPrefix):]
			if !utf8.Valid(raw) {
				return fmt.Errorf("invalid UTF-8 in stored key %q", raw)
			}
			keys = append(keys, string(raw))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// Len returns the record count, downgrading counting faults to zero.
func (e *BadgerEngine) Len() int {
	n, err := e.CountKeys()
	if err != nil {
		e.logger.Error("count failed", "error", err)
		return 0
	}
	return int(n)
}

// IsEmpty reports whether the database holds no records.
func (e *BadgerEngine) IsEmpty() bool {
	empty := true
	err := e.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(collectionPrefix)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		it.Rewind()
		empty = !it.Valid()
		return nil
	})
	if err != nil {
		e.logger.Error("emptiness check failed", "error", err)
		return true
	}
	return empty
}

// Increment adds amount to the integer stored at key. Missing or
// unparsable current values count as zero.
func (e *BadgerEngine) Increment(key string, amount int64) (int64, error) {
	current, _ := e.Get(key)
	next := storedInt(current) + amount
	if err := e.Set(key, strconv.FormatInt(next, 10)); err != nil {
		return 0, err
	}
	return next, nil
}

// Decrement subtracts amount from the integer stored at key.
func (e *BadgerEngine) Decrement(key string, amount int64) (int64, error) {
	return e.Increment(key, -amount)
}

// Append concatenates suffix onto the value at key, treating a missing
// value as empty.
func (e *BadgerEngine) Append(key, suffix string) (string, error) {
	current, _ := e.Get(key)
	next := current + suffix
	if err := e.Set(key, next); err != nil {
		return "", err
	}
	return next, nil
}

// Prepend concatenates prefix in front of the value at key.
func (e *BadgerEngine) Prepend(key, prefix string) (string, error) {
	current, _ := e.Get(key)
	next := prefix + current
	if err := e.Set(key, next); err != nil {
		return "", err
	}
	return next, nil
}

// Truncate removes every record: cache first, then the database.
func (e *BadgerEngine) Truncate() error {
	e.cache.Purge()
	if err := e.db.DropPrefix([]byte(collectionPrefix)); err != nil {
		return fmt.Errorf("storage: truncate: %w", err)
	}
	return nil
}

// CountKeys counts live records by key-only iteration; Badger keeps no
// cheap record counter.
func (e *BadgerEngine) CountKeys() (uint64, error) {
	var count uint64
	err := e.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(collectionPrefix)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("storage: count keys: %w", err)
	}
	return count, nil
}

// Sync forces pending writes to durable storage.
func (e *BadgerEngine) Sync() error {
	if err := e.db.Sync(); err != nil {
		return fmt.Errorf("storage: sync: %w", err)
	}
	return nil
}

// Stats returns a best-effort snapshot for monitoring. Fields that cannot
// be computed are left zero.
func (e *BadgerEngine) Stats() Stats {
	lsm, vlog := e.db.Size()
	stats := Stats{
		DiskSizeBytes: uint64(lsm + vlog),
		CacheEntries:  uint64(e.cache.Len()),
	}
	if n, err := e.CountKeys(); err == nil {
		stats.RecordCount = n
	}
	return stats
}

// Close flushes outstanding writes and releases the database. The flush is
// best-effort: a flush fault at disposal time is logged, never propagated,
// since disposal has no caller to hand it to. Closing the database itself
// can still fail and that error is returned. Close is idempotent.
func (e *BadgerEngine) Close() error {
	e.closeOnce.Do(func() {
		close(e.stopCh)
		<-e.doneCh

		if err := e.db.Sync(); err != nil {
			e.logger.Error("flush on close failed", "error", err)
		}
		if err := e.db.Close(); err != nil {
			e.closeErr = fmt.Errorf("storage: close badger database: %w", err)
			return
		}
		e.logger.Info("badger engine closed")
	})
	return e.closeErr
}

// flushLoop syncs pending writes to disk on the configured interval.
func (e *BadgerEngine) flushLoop() {
	defer close(e.doneCh)

	if e.cfg.FlushInterval <= 0 {
		<-e.stopCh
		return
	}

	ticker := time.NewTicker(e.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := e.db.Sync(); err != nil {
				e.logger.Error("background flush failed", "error", err)
			}
		case <-e.stopCh:
			return
		}
	}
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
