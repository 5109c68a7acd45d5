// Ganymede is a tiered admission control service for multi-user
// assistant platforms.
//
// It maintains one persisted token bucket per user and admits or denies
// model requests based on the tier that governs the requested model:
//   - Tier definitions loaded from YAML, with optional hot reload
//   - Durable quota state in SQLite, Postgres, or Redis
//   - Deterministic whole-second refill and exact retry-after hints
//   - Prometheus metrics for checks, denials, and store failures
//
// Usage:
//
//	# Validate configuration and tier definitions
//	ganymede validate --config /path/to/config.yaml
//
//	# Run a one-shot admission check
//	ganymede check --user u-123 --model assistant-pro --cost 1
//
//	# Refund a previously consumed cost
//	ganymede check --user u-123 --model assistant-pro --cost 1 --refund
//
//	# Prune stale quota records once, or on a schedule
//	ganymede prune --once
//	ganymede prune
//
//	# Show version information
//	ganymede version
package main

func main() {
	Execute()
}
