package config

import "time"

// Config is the root configuration structure for Ganymede. It contains
// all configuration sections for tier definitions, quota storage, the
// admission gate, and telemetry.
type Config struct {
	// Tiers contains configuration for the tier definition source.
	Tiers TiersConfig `yaml:"tiers"`

	// Store contains configuration for the quota state store, including
	// backend selection and per-backend settings.
	Store StoreConfig `yaml:"store"`

	// Gate contains configuration for admission decision behavior.
	Gate GateConfig `yaml:"gate"`

	// Telemetry contains configuration for observability including
	// logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// TiersConfig contains configuration for the tier definition source.
type TiersConfig struct {
	// Path is the path to the YAML tier definitions file.
	// Default: "tiers.yaml"
	Path string `yaml:"path"`

	// Watch enables automatic reloading when the tier file changes.
	// A reload that fails validation keeps the previous tier set.
	// Default: false
	Watch bool `yaml:"watch"`

	// Debounce is the quiet period after a file event before reloading.
	// Editors often emit several events per save.
	// Default: 100ms
	Debounce time.Duration `yaml:"debounce"`
}

// StoreConfig contains configuration for the quota state store.
type StoreConfig struct {
	// Backend specifies the storage backend for quota state.
	// Options: "memory", "sqlite", "postgres", "redis"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLite contains SQLite-specific configuration.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// Postgres contains PostgreSQL-specific configuration.
	Postgres PostgresConfig `yaml:"postgres"`

	// Redis contains Redis-specific configuration.
	Redis RedisConfig `yaml:"redis"`

	// Retry contains retry settings for optimistic-concurrency conflicts.
	Retry RetryConfig `yaml:"retry"`
}

// SQLiteConfig contains SQLite-specific configuration.
type SQLiteConfig struct {
	// Path is the file path for the SQLite database.
	// Default: "data/quotas.db"
	Path string `yaml:"path"`

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`

	// CheckpointInterval is how often to checkpoint the WAL.
	// Default: 5m
	CheckpointInterval time.Duration `yaml:"checkpoint_interval"`
}

// PostgresConfig contains PostgreSQL-specific configuration.
type PostgresConfig struct {
	// Host is the PostgreSQL server hostname.
	Host string `yaml:"host"`

	// Port is the PostgreSQL server port.
	// Default: 5432
	Port int `yaml:"port"`

	// Database is the name of the database to use.
	Database string `yaml:"database"`

	// User is the PostgreSQL user for authentication.
	User string `yaml:"user"`

	// Password is the PostgreSQL password for authentication.
	// This should typically be loaded from an environment variable.
	Password string `yaml:"password"`

	// SSLMode controls SSL/TLS connection mode.
	// Options: "disable", "require", "verify-ca", "verify-full"
	// Default: "require"
	SSLMode string `yaml:"ssl_mode"`

	// MaxConns is the maximum number of pooled connections.
	// Default: 10
	MaxConns int `yaml:"max_conns"`
}

// RedisConfig contains Redis-specific configuration.
type RedisConfig struct {
	// Addr is the Redis server address.
	// Default: "localhost:6379"
	Addr string `yaml:"addr"`

	// Password is the Redis password. Empty means no authentication.
	Password string `yaml:"password"`

	// DB is the Redis database index.
	// Default: 0
	DB int `yaml:"db"`
}

// RetryConfig contains retry settings for atomic update conflicts.
type RetryConfig struct {
	// MaxAttempts is the number of attempts before an update is reported
	// as a store failure.
	// Default: 3
	MaxAttempts int `yaml:"max_attempts"`

	// BaseBackoff is the backoff before the first retry; it doubles per
	// attempt with jitter.
	// Default: 5ms
	BaseBackoff time.Duration `yaml:"base_backoff"`
}

// GateConfig contains configuration for admission decision behavior.
type GateConfig struct {
	// Timeout bounds each admission check as seen by the caller,
	// including store retries.
	// Default: 2s
	Timeout time.Duration `yaml:"timeout"`

	// FailOpen admits requests when the store is unavailable. The
	// default is fail-closed: store failure denies.
	// Default: false
	FailOpen bool `yaml:"fail_open"`

	// Prune contains stale-record pruning configuration.
	Prune PruneConfig `yaml:"prune"`
}

// PruneConfig contains stale quota record pruning configuration.
type PruneConfig struct {
	// Enabled controls whether the background pruner runs. Pruning only
	// removes records old enough that a fresh record is indistinguishable.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Schedule is a cron expression for scheduling pruning.
	// Default: "0 3 * * *" (daily at 3 AM)
	Schedule string `yaml:"schedule"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics exposition configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`
}

// MetricsConfig contains metrics exposition configuration.
type MetricsConfig struct {
	// Enabled controls whether Prometheus metrics are collected and
	// exposed over HTTP.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// ListenAddress is the address for the metrics HTTP endpoint.
	// Default: "127.0.0.1:9090"
	ListenAddress string `yaml:"listen_address"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`
}
