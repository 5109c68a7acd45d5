package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any
// errors. Environment variables are not consulted; use
// LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and
// applies environment variable overrides. Environment variables follow
// the naming convention GANYMEDE_SECTION_FIELD (e.g.,
// GANYMEDE_STORE_BACKEND) and always take precedence over file values.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Variables use the format GANYMEDE_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Tiers overrides
	if val := os.Getenv("GANYMEDE_TIERS_PATH"); val != "" {
		cfg.Tiers.Path = val
	}
	if val := os.Getenv("GANYMEDE_TIERS_WATCH"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Tiers.Watch = b
		}
	}

	// Store overrides
	if val := os.Getenv("GANYMEDE_STORE_BACKEND"); val != "" {
		cfg.Store.Backend = val
	}
	if val := os.Getenv("GANYMEDE_STORE_SQLITE_PATH"); val != "" {
		cfg.Store.SQLite.Path = val
	}
	if val := os.Getenv("GANYMEDE_STORE_POSTGRES_HOST"); val != "" {
		cfg.Store.Postgres.Host = val
	}
	if val := os.Getenv("GANYMEDE_STORE_POSTGRES_PORT"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Store.Postgres.Port = i
		}
	}
	if val := os.Getenv("GANYMEDE_STORE_POSTGRES_DATABASE"); val != "" {
		cfg.Store.Postgres.Database = val
	}
	if val := os.Getenv("GANYMEDE_STORE_POSTGRES_USER"); val != "" {
		cfg.Store.Postgres.User = val
	}
	if val := os.Getenv("GANYMEDE_STORE_POSTGRES_PASSWORD"); val != "" {
		cfg.Store.Postgres.Password = val
	}
	if val := os.Getenv("GANYMEDE_STORE_POSTGRES_SSL_MODE"); val != "" {
		cfg.Store.Postgres.SSLMode = val
	}
	if val := os.Getenv("GANYMEDE_STORE_REDIS_ADDR"); val != "" {
		cfg.Store.Redis.Addr = val
	}
	if val := os.Getenv("GANYMEDE_STORE_REDIS_PASSWORD"); val != "" {
		cfg.Store.Redis.Password = val
	}
	if val := os.Getenv("GANYMEDE_STORE_REDIS_DB"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Store.Redis.DB = i
		}
	}

	// Gate overrides
	if val := os.Getenv("GANYMEDE_GATE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Gate.Timeout = d
		}
	}
	if val := os.Getenv("GANYMEDE_GATE_FAIL_OPEN"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Gate.FailOpen = b
		}
	}
	if val := os.Getenv("GANYMEDE_GATE_PRUNE_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Gate.Prune.Enabled = b
		}
	}
	if val := os.Getenv("GANYMEDE_GATE_PRUNE_SCHEDULE"); val != "" {
		cfg.Gate.Prune.Schedule = val
	}

	// Telemetry overrides
	if val := os.Getenv("GANYMEDE_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("GANYMEDE_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("GANYMEDE_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("GANYMEDE_TELEMETRY_METRICS_LISTEN_ADDRESS"); val != "" {
		cfg.Telemetry.Metrics.ListenAddress = val
	}
}
