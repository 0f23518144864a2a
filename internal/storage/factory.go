package storage

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// EngineKind selects a storage backend. The set is closed: configuration
// parsing resolves user input to one of these constants before the factory
// runs.
type EngineKind string

const (
	// EngineMemory is the volatile single-owner map.
	EngineMemory EngineKind = "memory"

	// EngineRWLock is the lock-guarded thread-safe map.
	EngineRWLock EngineKind = "rwlock"

	// EngineSled is the persistent backend. The name is kept from the
	// configuration format of existing deployments; the implementation
	// is Badger.
	EngineSled EngineKind = "sled"
)

// MinCacheCapacity is the floor applied to the derived cache capacity of
// the persistent engine, whatever the configured megabyte budget.
const MinCacheCapacity = 100

// Config is the resolved storage configuration record consumed by New.
// Only the persistent engine reads the tuning fields; the in-memory
// engines use Path as a namespace label and ignore the rest.
type Config struct {
	Engine          EngineKind
	Path            string
	Compression     bool
	CacheSizeMB     int
	FlushIntervalMS int
	MaxDBSizeMB     int
}

// DefaultConfig mirrors the defaults of the shipped configuration file.
func DefaultConfig() Config {
	return Config{
		Engine:          EngineRWLock,
		Path:            "data",
		Compression:     true,
		CacheSizeMB:     100,
		FlushIntervalMS: 1000,
		MaxDBSizeMB:     1024,
	}
}

// New constructs the backend described by cfg. It is the single
// construction site for engines: human-facing units (megabytes,
// milliseconds) are translated to engine-native parameters here.
func New(cfg Config, logger *slog.Logger) (Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Engine {
	case EngineMemory:
		logger.Info("creating in-memory storage engine (not thread-safe)", "path", cfg.Path)
		return NewMemoryEngine(cfg.Path), nil

	case EngineRWLock:
		logger.Info("creating thread-safe in-memory storage engine", "path", cfg.Path)
		return NewRWLockEngine(cfg.Path), nil

	case EngineSled:
		logger.Info("creating persistent storage engine", "path", cfg.Path)
		badgerCfg := BadgerConfig{
			Compression:   cfg.Compression,
			CacheCapacity: cacheCapacityFor(cfg.CacheSizeMB),
			FlushInterval: time.Duration(cfg.FlushIntervalMS) * time.Millisecond,
			MaxSizeBytes:  int64(cfg.MaxDBSizeMB) << 20,
		}
		return NewBadgerEngine(cfg.Path, badgerCfg, logger)

	default:
		return nil, fmt.Errorf("storage: unknown engine kind %q", cfg.Engine)
	}
}

// NewFromName constructs a default-tuned engine from a bare engine name and
// path, for callers that do not hold a full configuration record.
func NewFromName(name, path string, logger *slog.Logger) (Engine, error) {
	kind, err := ParseEngineKind(name)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	cfg.Engine = kind
	cfg.Path = path
	return New(cfg, logger)
}

// ParseEngineKind resolves a user-supplied engine name, case-insensitive.
// "kv" is an accepted alias for memory.
func ParseEngineKind(name string) (EngineKind, error) {
	switch strings.ToLower(name) {
	case "memory", "kv":
		return EngineMemory, nil
	case "rwlock":
		return EngineRWLock, nil
	case "sled":
		return EngineSled, nil
	default:
		return "", fmt.Errorf("Unknown engine type: %s. Available engines: memory, rwlock, sled", name)
	}
}

// cacheCapacityFor derives the bounded cache capacity in entries from the
// configured megabyte budget: 1024 entries per megabyte, floored at
// MinCacheCapacity.
func cacheCapacityFor(sizeMB int) int {
	capacity := sizeMB * 1024 * 1024 / 1024
	if capacity < MinCacheCapacity {
		return MinCacheCapacity
	}
	return capacity
}
