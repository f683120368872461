package config

import "time"

// ServerConfig is the root configuration for kvmesh-server.
type ServerConfig struct {
	Server  ServerSection  `koanf:"server"`
	Storage StorageSection `koanf:"storage"`
	Log     LogSection     `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	Redis   RedisConfig   `koanf:"redis"`
	Metrics MetricsConfig `koanf:"metrics"`
}

// RedisConfig configures the Redis protocol listener.
type RedisConfig struct {
	Addr string `koanf:"addr"`

	// IdleTimeout is how long a client may stay silent between commands.
	IdleTimeout time.Duration `koanf:"idle_timeout"`
	// ReadTimeout bounds each read while a command is partially received.
	ReadTimeout time.Duration `koanf:"read_timeout"`
	// WriteTimeout bounds writing a reply.
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// RateLimit is the per-connection command rate (commands/second, 0 = off).
	RateLimit int `koanf:"rate_limit"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

// StorageSection configures the in-memory store.
type StorageSection struct {
	// ShardCount is the number of independently locked partitions.
	// Fixed for the lifetime of the process.
	ShardCount int `koanf:"shard_count"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
