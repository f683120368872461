package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/yndnr/kvmesh-go/internal/telemetry/logger"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyStorage(&cfg.Storage); err != nil {
		return err
	}
	return verifyLog(&cfg.Log)
}

func verifyServer(cfg *ServerSection) error {
	if err := verifyAddr("server.redis.addr", cfg.Redis.Addr); err != nil {
		return err
	}

	timeouts := []struct {
		key string
		d   time.Duration
	}{
		{"server.redis.idle_timeout", cfg.Redis.IdleTimeout},
		{"server.redis.read_timeout", cfg.Redis.ReadTimeout},
		{"server.redis.write_timeout", cfg.Redis.WriteTimeout},
	}
	for _, t := range timeouts {
		if t.d < 0 {
			return invalid("%s must not be negative", t.key)
		}
	}
	if cfg.Redis.RateLimit < 0 {
		return invalid("server.redis.rate_limit must not be negative")
	}

	if !cfg.Metrics.Enabled {
		return nil
	}
	if err := verifyAddr("server.metrics.addr", cfg.Metrics.Addr); err != nil {
		return err
	}
	if samePort(cfg.Redis.Addr, cfg.Metrics.Addr) {
		return invalid("server.metrics.addr %q conflicts with server.redis.addr", cfg.Metrics.Addr)
	}
	return nil
}

func verifyStorage(cfg *StorageSection) error {
	if cfg.ShardCount < 1 || cfg.ShardCount > MaxShardCount {
		return invalid("storage.shard_count must be between 1 and %d, got %d", MaxShardCount, cfg.ShardCount)
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	if _, err := logger.ParseLevel(cfg.Level); err != nil {
		return invalid("log.level: %v", err)
	}
	switch strings.ToLower(cfg.Format) {
	case "json", "text", "console":
		return nil
	default:
		return invalid("log.format must be json or text, got %q", cfg.Format)
	}
}

func verifyAddr(key, addr string) error {
	if addr == "" {
		return invalid("%s is required", key)
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return invalid("%s: %v", key, err)
	}
	return nil
}

// samePort reports whether two listen addresses would collide.
// Port 0 asks the kernel for a free port and never collides.
func samePort(a, b string) bool {
	ha, pa, errA := net.SplitHostPort(a)
	hb, pb, errB := net.SplitHostPort(b)
	if errA != nil || errB != nil || pa != pb || pa == "0" {
		return false
	}
	return ha == hb || isWildcard(ha) || isWildcard(hb)
}

func isWildcard(host string) bool {
	return host == "" || host == "0.0.0.0" || host == "::"
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}
