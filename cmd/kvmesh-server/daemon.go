package main

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/yndnr/kvmesh-go/internal/infra/confloader"
	"github.com/yndnr/kvmesh-go/internal/infra/shutdown"
	"github.com/yndnr/kvmesh-go/internal/server/config"
	"github.com/yndnr/kvmesh-go/internal/server/httpserver"
	"github.com/yndnr/kvmesh-go/internal/server/redisserver"
	"github.com/yndnr/kvmesh-go/internal/storage/memory"
	"github.com/yndnr/kvmesh-go/internal/telemetry/logger"
	"github.com/yndnr/kvmesh-go/internal/telemetry/metric"
)

const shutdownTimeout = 30 * time.Second

// daemon holds the running components of the server process.
type daemon struct {
	log   logger.Logger
	flags map[string]any

	store       *memory.Store
	redis       *redisserver.Server
	metrics     *httpserver.Server
	metricsAddr net.Addr
	watcher     *confloader.Watcher
	shutdown    *shutdown.Handler
}

// start brings every component up. On failure the components already
// started are shut down before returning.
func start(ctx context.Context, cfg *config.ServerConfig, log logger.Logger, configFile string, flags map[string]any) (*daemon, error) {
	d := &daemon{
		log:      log,
		flags:    flags,
		shutdown: shutdown.NewHandler(shutdownTimeout, shutdown.WithLogger(log.Slog())),
	}

	d.store = memory.New(cfg.Storage.ShardCount)
	log.Info("store initialized", "shards", d.store.ShardCount())

	reg := metric.NewRegistry()
	reg.MustRegister(metric.NewStoreCollector(d.store))

	d.redis = redisserver.New(&redisserver.Config{
		Address:      cfg.Server.Redis.Addr,
		ReadTimeout:  cfg.Server.Redis.ReadTimeout,
		WriteTimeout: cfg.Server.Redis.WriteTimeout,
		IdleTimeout:  cfg.Server.Redis.IdleTimeout,
		RateLimit:    cfg.Server.Redis.RateLimit,
	}, d.store, log.Slog(), redisserver.WithMetrics(reg))

	if err := d.redis.Start(ctx); err != nil {
		return nil, fmt.Errorf("start redis server: %w", err)
	}
	d.shutdown.OnShutdown("redis", d.redis.Shutdown)

	if cfg.Server.Metrics.Enabled {
		ln, err := net.Listen("tcp", cfg.Server.Metrics.Addr)
		if err != nil {
			d.abort()
			return nil, fmt.Errorf("start metrics server: %w", err)
		}
		d.metricsAddr = ln.Addr()
		d.metrics = httpserver.New(ln.Addr().String(), httpserver.NewRouter(&httpserver.RouterConfig{
			Metrics: reg,
			Logger:  log.Slog(),
		}))
		go func() {
			if err := d.metrics.Serve(ln); err != nil {
				log.Error("metrics server error", "error", err)
			}
		}()
		log.Info("metrics server listening", "addr", d.metricsAddr.String())
		d.shutdown.OnShutdown("metrics", d.metrics.Shutdown)
	}

	if configFile != "" {
		w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log.Slog()))
		if err != nil {
			d.abort()
			return nil, fmt.Errorf("create config watcher: %w", err)
		}
		if err := w.Watch(configFile); err != nil {
			_ = w.Stop()
			d.abort()
			return nil, fmt.Errorf("watch config: %w", err)
		}
		w.OnChange(d.reload)
		w.StartAsync()
		d.watcher = w
		d.shutdown.OnShutdown("config-watcher", func(context.Context) error {
			return w.Stop()
		})
	}

	return d, nil
}

// wait blocks until shutdown is requested and every hook has run.
func (d *daemon) wait(ctx context.Context) error {
	d.log.Info("server started, press Ctrl+C to stop")
	if err := d.shutdown.Wait(ctx); err != nil {
		d.log.Error("shutdown error", "error", err)
		return err
	}
	d.log.Info("server stopped gracefully")
	return nil
}

// abort undoes a partial start.
func (d *daemon) abort() {
	d.shutdown.Trigger()
	_ = d.shutdown.Wait(context.Background())
}

// reload re-reads the config file and applies its log level. Other settings
// need a restart.
func (d *daemon) reload(path string) {
	cfg, err := loadConfig(path, d.flags)
	if err != nil {
		d.log.Warn("config reload failed, keeping current settings", "file", path, "error", err)
		return
	}

	if cfg.Log.Level == logger.GetLevel() {
		return
	}
	if err := logger.SetLevel(cfg.Log.Level); err != nil {
		d.log.Warn("config reload: invalid log level", "level", cfg.Log.Level, "error", err)
		return
	}
	d.log.Info("log level changed", "level", cfg.Log.Level)
}
