package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/merkle-kv/merklekv/internal/infra/buildinfo"
	"github.com/merkle-kv/merklekv/internal/infra/confloader"
	"github.com/merkle-kv/merklekv/internal/infra/shutdown"
	"github.com/merkle-kv/merklekv/internal/server/config"
	"github.com/merkle-kv/merklekv/internal/server/tcpserver"
	"github.com/merkle-kv/merklekv/internal/storage"
	"github.com/merkle-kv/merklekv/internal/telemetry/logger"
	"github.com/merkle-kv/merklekv/internal/telemetry/metric"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("merklekv-server %s\n", buildinfo.Get())
		return nil
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	slog.SetDefault(log)

	info := buildinfo.Get()
	log.Info("starting merklekv-server",
		"version", info.Version,
		"commit", info.Commit,
		"config", *configFile)

	// Reload the log level on config file changes. Engine and listener
	// settings still need a restart.
	if *configFile != "" {
		watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
		if err != nil {
			return fmt.Errorf("config watcher: %w", err)
		}
		if err := watcher.Watch(*configFile); err != nil {
			return fmt.Errorf("watch config: %w", err)
		}
		watcher.OnChange(func(path string) {
			reloaded, err := loadConfig(*configFile)
			if err != nil {
				log.Warn("config reload failed", "error", err)
				return
			}
			logger.SetLevel(reloaded.Log.Level)
			log.Info("log level reloaded", "level", reloaded.Log.Level)
		})
		watcher.StartAsync()
		defer func() { _ = watcher.Stop() }()
	}

	storageCfg, err := cfg.Storage.StorageConfig()
	if err != nil {
		return fmt.Errorf("storage config: %w", err)
	}
	engine, err := storage.New(storageCfg, log)
	if err != nil {
		return fmt.Errorf("open storage engine: %w", err)
	}
	log.Info("storage engine ready", "engine", cfg.Storage.Engine, "path", cfg.Storage.Path)

	// Left nil when metrics are disabled; the server skips recording.
	var metrics *metric.Registry
	if cfg.Metrics.Enabled {
		metrics = metric.NewRegistry()
		if err := metrics.Register(metric.NewStorageCollector(engine)); err != nil {
			return fmt.Errorf("register storage collector: %w", err)
		}
	}

	srv := tcpserver.New(&tcpserver.Config{
		Address:      cfg.Server.Addr,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		RateLimit:    cfg.Server.RateLimit,
	}, engine, metrics, log)

	shutdownHandler := shutdown.NewHandler(30 * time.Second)

	// Hooks run in reverse registration order: servers stop before the
	// engine closes.
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("closing storage engine")
		return engine.Close()
	})

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		metricsServer = &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}

		go func() {
			log.Info("metrics listening", "addr", cfg.Metrics.Addr)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server error", "error", err)
			}
		}()

		shutdownHandler.OnShutdown(func(ctx context.Context) error {
			log.Info("shutting down metrics server")
			return metricsServer.Shutdown(ctx)
		})
	}

	ctx := context.Background()
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down server")
		return srv.Shutdown(ctx)
	})

	log.Info("server started, press Ctrl+C to stop")
	if err := shutdownHandler.Wait(); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// loadConfig loads configuration from file and environment.
func loadConfig(configFile string) (*config.ServerConfig, error) {
	cfg := config.Default()

	opts := []confloader.Option{}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}

	loader := confloader.NewLoader(opts...)
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
