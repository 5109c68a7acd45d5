// Package config provides configuration management for Ganymede.
//
// This package handles loading, validating, and managing configuration
// from YAML files with environment variable overrides. It provides a
// type-safe configuration system with validation and sensible defaults.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("config.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention GANYMEDE_SECTION_FIELD.
// For example:
//
//   - GANYMEDE_STORE_BACKEND overrides store.backend
//   - GANYMEDE_STORE_POSTGRES_PASSWORD overrides store.postgres.password
//   - GANYMEDE_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// Environment variables always take precedence over file-based configuration.
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later overrides earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Validation
//
// All configuration is validated automatically during loading. Validation
// errors include field paths and helpful messages:
//
//	configuration validation failed with 2 errors:
//	  - store.postgres.host: host is required for the postgres backend
//	  - telemetry.logging.level: invalid log level "verbose" (must be debug, info, warn, or error)
//
// # Example Configuration
//
// Here is a minimal configuration file:
//
//	tiers:
//	  path: "tiers.yaml"
//	  watch: true
//
//	store:
//	  backend: "sqlite"
//	  sqlite:
//	    path: "data/quotas.db"
//
//	gate:
//	  timeout: "2s"
//	  fail_open: false
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
package config
