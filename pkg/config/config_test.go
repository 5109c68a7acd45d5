package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// ============================================================================
// Defaults
// ============================================================================

func TestApplyDefaults_EmptyConfig(t *testing.T) {
	var cfg Config
	ApplyDefaults(&cfg)

	if cfg.Tiers.Path != DefaultTiersPath {
		t.Errorf("expected tiers path %q, got %q", DefaultTiersPath, cfg.Tiers.Path)
	}
	if cfg.Tiers.Debounce != DefaultTierDebounce {
		t.Errorf("expected debounce %s, got %s", DefaultTierDebounce, cfg.Tiers.Debounce)
	}
	if cfg.Store.Backend != DefaultStoreBackend {
		t.Errorf("expected backend %q, got %q", DefaultStoreBackend, cfg.Store.Backend)
	}
	if cfg.Store.SQLite.Path != DefaultSQLitePath {
		t.Errorf("expected sqlite path %q, got %q", DefaultSQLitePath, cfg.Store.SQLite.Path)
	}
	if cfg.Store.Retry.MaxAttempts != DefaultRetryMaxAttempts {
		t.Errorf("expected %d retry attempts, got %d", DefaultRetryMaxAttempts, cfg.Store.Retry.MaxAttempts)
	}
	if cfg.Gate.Timeout != DefaultGateTimeout {
		t.Errorf("expected gate timeout %s, got %s", DefaultGateTimeout, cfg.Gate.Timeout)
	}
	if cfg.Gate.FailOpen {
		t.Error("fail-open must default to false")
	}
	if cfg.Gate.Prune.Schedule != DefaultPruneSchedule {
		t.Errorf("expected prune schedule %q, got %q", DefaultPruneSchedule, cfg.Gate.Prune.Schedule)
	}
	if cfg.Telemetry.Logging.Level != DefaultLoggingLevel {
		t.Errorf("expected log level %q, got %q", DefaultLoggingLevel, cfg.Telemetry.Logging.Level)
	}
	if cfg.Telemetry.Logging.Format != DefaultLoggingFormat {
		t.Errorf("expected log format %q, got %q", DefaultLoggingFormat, cfg.Telemetry.Logging.Format)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := Config{
		Store: StoreConfig{Backend: "redis"},
		Gate:  GateConfig{Timeout: 500 * time.Millisecond},
	}
	ApplyDefaults(&cfg)

	if cfg.Store.Backend != "redis" {
		t.Errorf("explicit backend overwritten: %q", cfg.Store.Backend)
	}
	if cfg.Gate.Timeout != 500*time.Millisecond {
		t.Errorf("explicit timeout overwritten: %s", cfg.Gate.Timeout)
	}
}

// ============================================================================
// Validation
// ============================================================================

func validConfig() Config {
	var cfg Config
	ApplyDefaults(&cfg)
	return cfg
}

func TestValidate_DefaultsAreValid(t *testing.T) {
	cfg := validConfig()
	if err := Validate(&cfg); err != nil {
		t.Errorf("default configuration must validate, got %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{
			name:   "unknown backend",
			mutate: func(c *Config) { c.Store.Backend = "dynamodb" },
			field:  "store.backend",
		},
		{
			name: "sqlite without path",
			mutate: func(c *Config) {
				c.Store.Backend = "sqlite"
				c.Store.SQLite.Path = ""
			},
			field: "store.sqlite.path",
		},
		{
			name:   "postgres without host",
			mutate: func(c *Config) { c.Store.Backend = "postgres"; c.Store.Postgres.Database = "quotas" },
			field:  "store.postgres.host",
		},
		{
			name: "postgres bad ssl mode",
			mutate: func(c *Config) {
				c.Store.Backend = "postgres"
				c.Store.Postgres.Host = "db.internal"
				c.Store.Postgres.Database = "quotas"
				c.Store.Postgres.SSLMode = "maybe"
			},
			field: "store.postgres.ssl_mode",
		},
		{
			name:   "redis without addr",
			mutate: func(c *Config) { c.Store.Backend = "redis"; c.Store.Redis.Addr = "" },
			field:  "store.redis.addr",
		},
		{
			name:   "zero retry attempts",
			mutate: func(c *Config) { c.Store.Retry.MaxAttempts = 0 },
			field:  "store.retry.max_attempts",
		},
		{
			name:   "gate timeout too small",
			mutate: func(c *Config) { c.Gate.Timeout = 100 * time.Microsecond },
			field:  "gate.timeout",
		},
		{
			name: "bad prune schedule",
			mutate: func(c *Config) {
				c.Gate.Prune.Enabled = true
				c.Gate.Prune.Schedule = "every day at dawn"
			},
			field: "gate.prune.schedule",
		},
		{
			name:   "bad log level",
			mutate: func(c *Config) { c.Telemetry.Logging.Level = "verbose" },
			field:  "telemetry.logging.level",
		},
		{
			name:   "bad log format",
			mutate: func(c *Config) { c.Telemetry.Logging.Format = "xml" },
			field:  "telemetry.logging.format",
		},
		{
			name: "metrics path without slash",
			mutate: func(c *Config) {
				c.Telemetry.Metrics.Enabled = true
				c.Telemetry.Metrics.Path = "metrics"
			},
			field: "telemetry.metrics.path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := Validate(&cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %T", err)
			}
			found := false
			for _, fe := range verr.Errors {
				if fe.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("expected an error on %q, got %v", tt.field, verr.Errors)
			}
		})
	}
}

func TestValidationError_MultipleErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Store.Backend = "dynamodb"
	cfg.Telemetry.Logging.Level = "verbose"

	err := Validate(&cfg)
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(verr.Errors) != 2 {
		t.Errorf("expected 2 errors, got %d: %v", len(verr.Errors), verr.Errors)
	}
	if !strings.Contains(verr.Error(), "2 errors") {
		t.Errorf("expected error count in message, got %q", verr.Error())
	}
}

// ============================================================================
// Loading
// ============================================================================

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfigFile(t, `
tiers:
  path: "custom-tiers.yaml"
  watch: true
store:
  backend: "memory"
gate:
  timeout: "5s"
  fail_open: true
telemetry:
  logging:
    level: "debug"
    format: "text"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Tiers.Path != "custom-tiers.yaml" || !cfg.Tiers.Watch {
		t.Errorf("tiers section not applied: %+v", cfg.Tiers)
	}
	if cfg.Store.Backend != "memory" {
		t.Errorf("expected memory backend, got %q", cfg.Store.Backend)
	}
	if cfg.Gate.Timeout != 5*time.Second || !cfg.Gate.FailOpen {
		t.Errorf("gate section not applied: %+v", cfg.Gate)
	}
	if cfg.Telemetry.Logging.Level != "debug" || cfg.Telemetry.Logging.Format != "text" {
		t.Errorf("logging section not applied: %+v", cfg.Telemetry.Logging)
	}
	// Untouched sections still get defaults.
	if cfg.Store.Retry.MaxAttempts != DefaultRetryMaxAttempts {
		t.Errorf("defaults not applied to retry: %+v", cfg.Store.Retry)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := writeConfigFile(t, "store: [not a mapping")
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestLoadConfig_ValidationFailure(t *testing.T) {
	path := writeConfigFile(t, `
store:
  backend: "dynamodb"
`)
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected validation error for unknown backend")
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfigFile(t, `
store:
  backend: "sqlite"
`)
	t.Setenv("GANYMEDE_STORE_BACKEND", "redis")
	t.Setenv("GANYMEDE_STORE_REDIS_ADDR", "redis.internal:6379")
	t.Setenv("GANYMEDE_GATE_FAIL_OPEN", "true")
	t.Setenv("GANYMEDE_GATE_TIMEOUT", "750ms")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides failed: %v", err)
	}
	if cfg.Store.Backend != "redis" {
		t.Errorf("env override lost, backend %q", cfg.Store.Backend)
	}
	if cfg.Store.Redis.Addr != "redis.internal:6379" {
		t.Errorf("env override lost, addr %q", cfg.Store.Redis.Addr)
	}
	if !cfg.Gate.FailOpen {
		t.Error("env override lost, fail_open false")
	}
	if cfg.Gate.Timeout != 750*time.Millisecond {
		t.Errorf("env override lost, timeout %s", cfg.Gate.Timeout)
	}
}

func TestLoadConfigWithEnvOverrides_InvalidOverride(t *testing.T) {
	path := writeConfigFile(t, "")
	t.Setenv("GANYMEDE_STORE_BACKEND", "dynamodb")

	if _, err := LoadConfigWithEnvOverrides(path); err == nil {
		t.Error("expected re-validation to reject the override")
	}
}
