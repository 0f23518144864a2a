// Package config defines the server configuration structure.
package config

import (
	"errors"
	"fmt"

	"github.com/merkle-kv/merklekv/internal/storage"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyStorage(&cfg.Storage); err != nil {
		return err
	}
	return nil
}

func verifyServer(cfg *ServerSection) error {
	if cfg.Addr == "" {
		return errors.New("server.addr is required")
	}
	if cfg.RateLimit < 0 {
		return errors.New("server.rate_limit must not be negative")
	}
	return nil
}

func verifyStorage(cfg *StorageSection) error {
	if _, err := storage.ParseEngineKind(cfg.Engine); err != nil {
		return fmt.Errorf("storage.engine: %w", err)
	}
	if cfg.Path == "" {
		return errors.New("storage.path is required")
	}
	if cfg.CacheSizeMB < 1 {
		return errors.New("storage.cache_size_mb must be at least 1")
	}
	if cfg.MaxDBSizeMB < 1 {
		return errors.New("storage.max_db_size_mb must be at least 1")
	}
	if cfg.FlushIntervalMS < 0 {
		return errors.New("storage.flush_interval_ms must not be negative")
	}
	return nil
}

// StorageConfig translates the storage section into the factory's resolved
// configuration record.
func (s *StorageSection) StorageConfig() (storage.Config, error) {
	kind, err := storage.ParseEngineKind(s.Engine)
	if err != nil {
		return storage.Config{}, err
	}
	return storage.Config{
		Engine:          kind,
		Path:            s.Path,
		Compression:     s.Compression,
		CacheSizeMB:     s.CacheSizeMB,
		FlushIntervalMS: s.FlushIntervalMS,
		MaxDBSizeMB:     s.MaxDBSizeMB,
	}, nil
}
