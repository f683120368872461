package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/kvmesh-go/internal/infra/buildinfo"
	"github.com/yndnr/kvmesh-go/internal/infra/confloader"
	"github.com/yndnr/kvmesh-go/internal/server/config"
	"github.com/yndnr/kvmesh-go/internal/telemetry/logger"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "kvmesh-server",
		Usage:   "In-memory key-value server speaking the Redis protocol",
		Version: buildinfo.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				EnvVars: []string{"KVMESH_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Redis protocol listen address",
			},
			&cli.IntFlag{
				Name:  "shards",
				Usage: "Number of store partitions",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: debug, info, warn, error",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "Enable the metrics endpoint on this address",
			},
		},
		Action: func(c *cli.Context) error {
			return run(c.Context, c.String("config"), overrides(c))
		},
	}
}

// overrides maps explicitly set flags onto config keys.
func overrides(c *cli.Context) map[string]any {
	m := make(map[string]any)
	if c.IsSet("addr") {
		m["server.redis.addr"] = c.String("addr")
	}
	if c.IsSet("shards") {
		m["storage.shard_count"] = c.Int("shards")
	}
	if c.IsSet("log-level") {
		m["log.level"] = c.String("log-level")
	}
	if c.IsSet("metrics-addr") {
		m["server.metrics.enabled"] = true
		m["server.metrics.addr"] = c.String("metrics-addr")
	}
	return m
}

func run(ctx context.Context, configFile string, flags map[string]any) error {
	cfg, err := loadConfig(configFile, flags)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)

	info := buildinfo.Get()
	log.Info("starting kvmesh-server",
		"version", info.Version,
		"commit", info.Commit,
		"go", info.GoVersion,
		"config", configFile)
	log.Info("effective configuration", config.LogAttrs(cfg)...)

	d, err := start(ctx, cfg, log, configFile, flags)
	if err != nil {
		return err
	}
	return d.wait(ctx)
}

// loadConfig loads configuration from file, environment and flags.
func loadConfig(configFile string, flags map[string]any) (*config.ServerConfig, error) {
	cfg := config.Default()

	opts := []confloader.Option{confloader.WithOverrides(flags)}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}

	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}

	if err := config.Verify(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
