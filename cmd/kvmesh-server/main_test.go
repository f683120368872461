package main

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/yndnr/kvmesh-go/internal/resp"
	"github.com/yndnr/kvmesh-go/internal/server/config"
	"github.com/yndnr/kvmesh-go/internal/telemetry/logger"
)

func testLogger(t *testing.T) logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "info", Format: "text", Output: io.Discard})
	require.NoError(t, err)
	return log
}

// overridesFor runs the server app with args and returns the overrides its
// action would pass on.
func overridesFor(t *testing.T, args ...string) map[string]any {
	t.Helper()
	var got map[string]any
	app := newApp()
	app.Action = func(c *cli.Context) error {
		got = overrides(c)
		return nil
	}
	require.NoError(t, app.Run(append([]string{"kvmesh-server"}, args...)))
	return got
}

func TestOverrides(t *testing.T) {
	t.Run("no flags", func(t *testing.T) {
		assert.Empty(t, overridesFor(t))
	})

	t.Run("all flags", func(t *testing.T) {
		got := overridesFor(t,
			"--addr", "0.0.0.0:7000",
			"--shards", "32",
			"--log-level", "debug",
			"--metrics-addr", "127.0.0.1:9200",
		)
		assert.Equal(t, map[string]any{
			"server.redis.addr":      "0.0.0.0:7000",
			"storage.shard_count":    32,
			"log.level":              "debug",
			"server.metrics.enabled": true,
			"server.metrics.addr":    "127.0.0.1:9200",
		}, got)
	})
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := loadConfig("", nil)
		require.NoError(t, err)
		assert.Equal(t, config.Default(), cfg)
	})

	t.Run("file then env then flags", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "kvmesh.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
server:
  redis:
    addr: 127.0.0.1:7001
storage:
  shard_count: 8
log:
  level: warn
`), 0o600))
		t.Setenv("KVMESH_STORAGE_SHARD_COUNT", "12")

		cfg, err := loadConfig(path, map[string]any{"log.level": "error"})
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1:7001", cfg.Server.Redis.Addr)
		assert.Equal(t, 12, cfg.Storage.ShardCount)
		assert.Equal(t, "error", cfg.Log.Level)
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := loadConfig("", map[string]any{"storage.shard_count": 0})
		require.ErrorIs(t, err, config.ErrInvalid)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"), nil)
		require.Error(t, err)
	})
}

func testConfig() *config.ServerConfig {
	cfg := config.Default()
	cfg.Server.Redis.Addr = "127.0.0.1:0"
	cfg.Server.Metrics.Enabled = true
	cfg.Server.Metrics.Addr = "127.0.0.1:0"
	cfg.Storage.ShardCount = 4
	return cfg
}

func TestDaemon_ServesRedisAndMetrics(t *testing.T) {
	d, err := start(context.Background(), testConfig(), testLogger(t), "", nil)
	require.NoError(t, err)

	nc, err := net.DialTimeout("tcp", d.redis.Addr().String(), time.Second)
	require.NoError(t, err)
	defer nc.Close()
	conn := resp.NewConn(nc)

	require.NoError(t, conn.WriteCommand([]byte("SET"), []byte("hello"), []byte("world")))
	f, err := conn.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, resp.SimpleString("OK"), f)

	require.NoError(t, conn.WriteCommand([]byte("GET"), []byte("hello")))
	f, err = conn.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, resp.BulkString("world"), f)

	res, err := http.Get("http://" + d.metricsAddr.String() + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(res.Body)
	res.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), "kvmesh_store_keys 1")
	assert.Contains(t, string(body), `kvmesh_server_commands_total{command="set",result="ok"} 1`)

	d.shutdown.Trigger()
	require.NoError(t, d.wait(context.Background()))

	_, err = conn.ReadFrame()
	assert.Error(t, err, "connection should be closed after shutdown")
}

func TestDaemon_ContextCancel(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Metrics.Enabled = false

	ctx, cancel := context.WithCancel(context.Background())
	d, err := start(ctx, cfg, testLogger(t), "", nil)
	require.NoError(t, err)
	assert.Nil(t, d.metrics)

	done := make(chan error, 1)
	go func() { done <- d.wait(ctx) }()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop after context cancellation")
	}
}

func TestDaemon_MetricsAddrInUse(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	cfg := testConfig()
	cfg.Server.Metrics.Addr = busy.Addr().String()

	_, err = start(context.Background(), cfg, testLogger(t), "", nil)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "metrics"), "error = %v", err)
}

func TestDaemon_ReloadsLogLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kvmesh.yaml")
	write := func(level string) {
		require.NoError(t, os.WriteFile(path, []byte("log:\n  level: "+level+"\n"), 0o600))
	}
	write("info")
	t.Cleanup(func() { _ = logger.SetLevel("info") })

	cfg := testConfig()
	cfg.Server.Metrics.Enabled = false

	d, err := start(context.Background(), cfg, testLogger(t), path, map[string]any{})
	require.NoError(t, err)
	defer func() {
		d.shutdown.Trigger()
		_ = d.wait(context.Background())
	}()
	require.NotNil(t, d.watcher)

	write("debug")
	assert.Eventually(t, func() bool {
		return logger.GetLevel() == "debug"
	}, 5*time.Second, 20*time.Millisecond)

	// An invalid file keeps the current level.
	write("loud")
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, "debug", logger.GetLevel())
}

func TestRun_InvalidConfig(t *testing.T) {
	err := run(context.Background(), "", map[string]any{"log.format": "xml"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrInvalid), "error = %v", err)
}
