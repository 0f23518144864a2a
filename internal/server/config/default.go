// Package config defines the server configuration structure.
package config

import "time"

// Default configuration values.
const (
	DefaultAddr         = "127.0.0.1:7379"
	DefaultReadTimeout  = 30 * time.Second
	DefaultWriteTimeout = 30 * time.Second
	DefaultIdleTimeout  = 5 * time.Minute
	DefaultRateLimit    = 1000

	DefaultEngine          = "rwlock"
	DefaultPath            = "data"
	DefaultCompression     = true
	DefaultCacheSizeMB     = 100
	DefaultFlushIntervalMS = 1000
	DefaultMaxDBSizeMB     = 1024

	DefaultMetricsAddr = "127.0.0.1:9600"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			Addr:         DefaultAddr,
			ReadTimeout:  DefaultReadTimeout,
			WriteTimeout: DefaultWriteTimeout,
			IdleTimeout:  DefaultIdleTimeout,
			RateLimit:    DefaultRateLimit,
		},
		Storage: StorageSection{
			Engine:          DefaultEngine,
			Path:            DefaultPath,
			Compression:     DefaultCompression,
			CacheSizeMB:     DefaultCacheSizeMB,
			FlushIntervalMS: DefaultFlushIntervalMS,
			MaxDBSizeMB:     DefaultMaxDBSizeMB,
		},
		Metrics: MetricsSection{
			Enabled: false,
			Addr:    DefaultMetricsAddr,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
