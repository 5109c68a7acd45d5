package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "store.backend").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All validation errors are collected and
// returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateTiers(&cfg.Tiers)...)
	errs = append(errs, validateStore(&cfg.Store)...)
	errs = append(errs, validateGate(&cfg.Gate)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

func validateTiers(cfg *TiersConfig) []FieldError {
	var errs []FieldError

	if cfg.Path == "" {
		errs = append(errs, FieldError{
			Field:   "tiers.path",
			Message: "tier definitions path is required",
		})
	}
	if cfg.Debounce < 0 {
		errs = append(errs, FieldError{
			Field:   "tiers.debounce",
			Message: "debounce must be non-negative",
		})
	}

	return errs
}

func validateStore(cfg *StoreConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "memory":
	case "sqlite":
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{
				Field:   "store.sqlite.path",
				Message: "database path is required for the sqlite backend",
			})
		}
		if cfg.SQLite.BusyTimeout < 0 {
			errs = append(errs, FieldError{
				Field:   "store.sqlite.busy_timeout",
				Message: "busy timeout must be non-negative",
			})
		}
	case "postgres":
		if cfg.Postgres.Host == "" {
			errs = append(errs, FieldError{
				Field:   "store.postgres.host",
				Message: "host is required for the postgres backend",
			})
		}
		if cfg.Postgres.Database == "" {
			errs = append(errs, FieldError{
				Field:   "store.postgres.database",
				Message: "database name is required for the postgres backend",
			})
		}
		if cfg.Postgres.Port < 1 || cfg.Postgres.Port > 65535 {
			errs = append(errs, FieldError{
				Field:   "store.postgres.port",
				Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Postgres.Port),
			})
		}
		switch cfg.Postgres.SSLMode {
		case "disable", "require", "verify-ca", "verify-full":
		default:
			errs = append(errs, FieldError{
				Field:   "store.postgres.ssl_mode",
				Message: fmt.Sprintf("invalid ssl mode %q (must be disable, require, verify-ca, or verify-full)", cfg.Postgres.SSLMode),
			})
		}
	case "redis":
		if cfg.Redis.Addr == "" {
			errs = append(errs, FieldError{
				Field:   "store.redis.addr",
				Message: "address is required for the redis backend",
			})
		}
		if cfg.Redis.DB < 0 {
			errs = append(errs, FieldError{
				Field:   "store.redis.db",
				Message: "database index must be non-negative",
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "store.backend",
			Message: fmt.Sprintf("invalid backend %q (must be memory, sqlite, postgres, or redis)", cfg.Backend),
		})
	}

	if cfg.Retry.MaxAttempts < 1 {
		errs = append(errs, FieldError{
			Field:   "store.retry.max_attempts",
			Message: "max attempts must be at least 1",
		})
	}
	if cfg.Retry.BaseBackoff < 0 {
		errs = append(errs, FieldError{
			Field:   "store.retry.base_backoff",
			Message: "base backoff must be non-negative",
		})
	}

	return errs
}

func validateGate(cfg *GateConfig) []FieldError {
	var errs []FieldError

	if cfg.Timeout < time.Millisecond {
		errs = append(errs, FieldError{
			Field:   "gate.timeout",
			Message: "timeout must be at least 1ms",
		})
	}
	if cfg.Prune.Enabled {
		if _, err := cron.ParseStandard(cfg.Prune.Schedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "gate.prune.schedule",
				Message: fmt.Sprintf("invalid cron expression %q: %v", cfg.Prune.Schedule, err),
			})
		}
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid log level %q (must be debug, info, warn, or error)", cfg.Logging.Level),
		})
	}

	switch cfg.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid log format %q (must be json or text)", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.ListenAddress == "" {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.listen_address",
				Message: "listen address is required when metrics are enabled",
			})
		}
		if !strings.HasPrefix(cfg.Metrics.Path, "/") {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.path",
				Message: fmt.Sprintf("path must start with '/', got %q", cfg.Metrics.Path),
			})
		}
	}

	return errs
}
