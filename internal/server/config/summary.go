package config

// LogAttrs returns the effective configuration as slog key/value pairs.
// The configuration holds no credentials, so nothing is masked.
func LogAttrs(cfg *ServerConfig) []any {
	return []any{
		"redis_addr", cfg.Server.Redis.Addr,
		"idle_timeout", cfg.Server.Redis.IdleTimeout,
		"read_timeout", cfg.Server.Redis.ReadTimeout,
		"write_timeout", cfg.Server.Redis.WriteTimeout,
		"rate_limit", cfg.Server.Redis.RateLimit,
		"metrics_enabled", cfg.Server.Metrics.Enabled,
		"metrics_addr", cfg.Server.Metrics.Addr,
		"shard_count", cfg.Storage.ShardCount,
		"log_level", cfg.Log.Level,
		"log_format", cfg.Log.Format,
	}
}
