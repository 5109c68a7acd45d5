package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"mercator-hq/ganymede/pkg/admission/bucket"
	"mercator-hq/ganymede/pkg/admission/store"
	"mercator-hq/ganymede/pkg/admission/tier"
)

// Config contains configuration for the quota record pruner.
type Config struct {
	// Schedule is a cron expression for scheduling pruning.
	// Example: "0 3 * * *" (daily at 3 AM)
	Schedule string

	// MinAge is an extra margin added to the refill horizon before a
	// record is considered prunable. Guards against tier definitions
	// that shrank since the record was written.
	MinAge time.Duration
}

// DefaultConfig returns the default pruner configuration.
func DefaultConfig() *Config {
	return &Config{
		Schedule: "0 3 * * *",
		MinAge:   24 * time.Hour,
	}
}

// Pruner removes quota records that have been idle long enough to be
// indistinguishable from a fresh record. A bucket untouched for the
// full refill horizon of every configured tier has refilled to
// capacity, which is exactly the state a first touch seeds. Deleting
// such records never changes a decision.
type Pruner struct {
	store     store.Store
	registry  *tier.Registry
	config    *Config
	clock     bucket.Clock
	logger    *slog.Logger
	scheduler *Scheduler
}

// NewPruner creates a pruner over the given store and registry.
func NewPruner(st store.Store, registry *tier.Registry, config *Config) *Pruner {
	if config == nil {
		config = DefaultConfig()
	}

	p := &Pruner{
		store:    st,
		registry: registry,
		config:   config,
		clock:    time.Now,
		logger:   slog.Default().With("component", "admission.maintenance"),
	}
	p.scheduler = NewScheduler(p)

	return p
}

// WithClock overrides the time source. Tests use this to control the
// pruning cutoff.
func (p *Pruner) WithClock(clock bucket.Clock) *Pruner {
	p.clock = clock
	return p
}

// Prune deletes quota records that have not been updated within the
// maximum full refill horizon across all configured tiers, plus the
// configured margin. Returns the number of records deleted.
func (p *Pruner) Prune(ctx context.Context) (int, error) {
	horizon := p.registry.MaxFullRefillHorizon()
	if horizon <= 0 {
		p.logger.Warn("no tiers configured, skipping prune")
		return 0, nil
	}

	cutoff := p.clock().Add(-(horizon + p.config.MinAge))

	deleted, err := p.store.Cleanup(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune stale quota records: %w", err)
	}

	if deleted > 0 {
		p.logger.Info("pruned stale quota records",
			"deleted_count", deleted,
			"cutoff", cutoff,
			"refill_horizon", horizon,
		)
	} else {
		p.logger.Debug("no stale quota records",
			"cutoff", cutoff,
			"refill_horizon", horizon,
		)
	}

	return deleted, nil
}

// Start starts the automatic pruning scheduler.
func (p *Pruner) Start(ctx context.Context) error {
	return p.scheduler.Start(ctx)
}

// Stop stops the automatic pruning scheduler.
func (p *Pruner) Stop() {
	p.scheduler.Stop()
}

// NextPruning returns the time of the next scheduled pruning.
func (p *Pruner) NextPruning() *time.Time {
	return p.scheduler.NextRun()
}
