package config

import "time"

// Default values for configuration fields.
const (
	// Tiers defaults
	DefaultTiersPath    = "tiers.yaml"
	DefaultTiersWatch   = false
	DefaultTierDebounce = 100 * time.Millisecond

	// Store defaults
	DefaultStoreBackend          = "sqlite"
	DefaultSQLitePath            = "data/quotas.db"
	DefaultSQLiteBusyTimeout     = 5 * time.Second
	DefaultSQLiteCheckpointEvery = 5 * time.Minute
	DefaultPostgresPort          = 5432
	DefaultPostgresSSLMode       = "require"
	DefaultPostgresMaxConns      = 10
	DefaultRedisAddr             = "localhost:6379"
	DefaultRetryMaxAttempts      = 3
	DefaultRetryBaseBackoff      = 5 * time.Millisecond

	// Gate defaults
	DefaultGateTimeout   = 2 * time.Second
	DefaultGateFailOpen  = false
	DefaultPruneEnabled  = false
	DefaultPruneSchedule = "0 3 * * *"

	// Telemetry defaults
	DefaultLoggingLevel         = "info"
	DefaultLoggingFormat        = "json"
	DefaultMetricsListenAddress = "127.0.0.1:9090"
	DefaultMetricsPath          = "/metrics"
)

// ApplyDefaults fills in default values for any unset configuration
// fields. It modifies the configuration in place. Zero values are
// treated as unset for fields where zero is not meaningful.
func ApplyDefaults(cfg *Config) {
	applyTiersDefaults(&cfg.Tiers)
	applyStoreDefaults(&cfg.Store)
	applyGateDefaults(&cfg.Gate)
	applyTelemetryDefaults(&cfg.Telemetry)
}

func applyTiersDefaults(cfg *TiersConfig) {
	if cfg.Path == "" {
		cfg.Path = DefaultTiersPath
	}
	if cfg.Debounce == 0 {
		cfg.Debounce = DefaultTierDebounce
	}
}

func applyStoreDefaults(cfg *StoreConfig) {
	if cfg.Backend == "" {
		cfg.Backend = DefaultStoreBackend
	}
	if cfg.SQLite.Path == "" {
		cfg.SQLite.Path = DefaultSQLitePath
	}
	if cfg.SQLite.BusyTimeout == 0 {
		cfg.SQLite.BusyTimeout = DefaultSQLiteBusyTimeout
	}
	if cfg.SQLite.CheckpointInterval == 0 {
		cfg.SQLite.CheckpointInterval = DefaultSQLiteCheckpointEvery
	}
	if cfg.Postgres.Port == 0 {
		cfg.Postgres.Port = DefaultPostgresPort
	}
	if cfg.Postgres.SSLMode == "" {
		cfg.Postgres.SSLMode = DefaultPostgresSSLMode
	}
	if cfg.Postgres.MaxConns == 0 {
		cfg.Postgres.MaxConns = DefaultPostgresMaxConns
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = DefaultRetryMaxAttempts
	}
	if cfg.Retry.BaseBackoff == 0 {
		cfg.Retry.BaseBackoff = DefaultRetryBaseBackoff
	}
}

func applyGateDefaults(cfg *GateConfig) {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultGateTimeout
	}
	if cfg.Prune.Schedule == "" {
		cfg.Prune.Schedule = DefaultPruneSchedule
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Metrics.ListenAddress == "" {
		cfg.Metrics.ListenAddress = DefaultMetricsListenAddress
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
}
