// Package config defines the server configuration structure.
package config

import "time"

// ServerConfig is the root configuration for merklekv-server.
type ServerConfig struct {
	Server  ServerSection  `koanf:"server"`
	Storage StorageSection `koanf:"storage"`
	Metrics MetricsSection `koanf:"metrics"`
	Log     LogSection     `koanf:"log"`
}

// ServerSection configures the TCP front end.
type ServerSection struct {
	// Addr is the TCP listen address, e.g. "127.0.0.1:7379".
	Addr string `koanf:"addr"`

	// ReadTimeout bounds how long a connection may take to send one
	// command line.
	ReadTimeout time.Duration `koanf:"read_timeout"`

	// WriteTimeout bounds how long a response write may take.
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// IdleTimeout closes connections with no traffic.
	IdleTimeout time.Duration `koanf:"idle_timeout"`

	// RateLimit is the maximum commands per second per client IP.
	// Zero disables rate limiting.
	RateLimit int `koanf:"rate_limit"`
}

// StorageSection selects and tunes the storage engine. Only the persistent
// engine consumes the compression, cache, flush, and size fields; the
// in-memory engines ignore them.
type StorageSection struct {
	// Engine is one of "memory", "rwlock", or "sled".
	Engine string `koanf:"engine"`

	// Path is the database directory for the persistent engine and a
	// namespace label for the in-memory engines.
	Path string `koanf:"path"`

	// Compression enables stored-block compression.
	Compression bool `koanf:"compression"`

	// CacheSizeMB is the read-cache budget in megabytes.
	CacheSizeMB int `koanf:"cache_size_mb"`

	// FlushIntervalMS is the background flush interval in milliseconds.
	FlushIntervalMS int `koanf:"flush_interval_ms"`

	// MaxDBSizeMB bounds database growth in megabytes.
	MaxDBSizeMB int `koanf:"max_db_size_mb"`
}

// MetricsSection configures the Prometheus exposition endpoint.
type MetricsSection struct {
	// Enabled turns the /metrics HTTP listener on.
	Enabled bool `koanf:"enabled"`

	// Addr is the metrics listen address.
	Addr string `koanf:"addr"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
