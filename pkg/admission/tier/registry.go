package tier

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Source provides the persisted tier configuration.
type Source interface {
	// LoadTiers returns the full tier configuration. Called at registry
	// construction and on every Refresh, never from the request path.
	LoadTiers(ctx context.Context) ([]Tier, error)
}

// StaticSource serves a fixed tier slice. Useful for tests and for
// embedders that manage tier configuration themselves.
type StaticSource struct {
	tiers []Tier
}

// NewStaticSource creates a source over the given tiers.
func NewStaticSource(tiers []Tier) *StaticSource {
	copied := make([]Tier, len(tiers))
	copy(copied, tiers)
	return &StaticSource{tiers: copied}
}

// LoadTiers returns the configured tiers.
func (s *StaticSource) LoadTiers(ctx context.Context) ([]Tier, error) {
	out := make([]Tier, len(s.tiers))
	copy(out, s.tiers)
	return out, nil
}

// Registry resolves model identifiers to tiers through a precomputed
// index. The index is owned exclusively by the registry and is replaced
// wholesale on Refresh, so readers always see a consistent configuration.
type Registry struct {
	source Source
	logger *slog.Logger

	mu      sync.RWMutex
	byModel map[string]Tier
	tiers   []Tier
}

// NewRegistry creates a registry and performs the initial load.
func NewRegistry(ctx context.Context, source Source, logger *slog.Logger) (*Registry, error) {
	if source == nil {
		return nil, fmt.Errorf("tier source cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &Registry{
		source: source,
		logger: logger.With("component", "admission.tier"),
	}
	if err := r.Refresh(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// Lookup resolves a model identifier to its governing tier. The second
// return value is false when no tier claims the model; this is a typed
// outcome, not an error.
func (r *Registry) Lookup(modelID string) (Tier, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.byModel[modelID]
	return t, ok
}

// Tiers returns a copy of the current tier configuration.
func (r *Registry) Tiers() []Tier {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Tier, len(r.tiers))
	copy(out, r.tiers)
	return out
}

// MaxFullRefillHorizon returns the longest full-refill duration across
// all configured tiers. Rows idle longer than this can be pruned safely.
func (r *Registry) MaxFullRefillHorizon() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var max time.Duration
	for _, t := range r.tiers {
		if h := t.Policy().FullRefillHorizon(); h > max {
			max = h
		}
	}
	return max
}

// Refresh reloads the configuration from the source and swaps in a new
// index. On any validation failure the previous index stays in place.
func (r *Registry) Refresh(ctx context.Context) error {
	tiers, err := r.source.LoadTiers(ctx)
	if err != nil {
		return fmt.Errorf("failed to load tiers: %w", err)
	}

	index, err := buildIndex(tiers)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.byModel = index
	r.tiers = tiers
	r.mu.Unlock()

	r.logger.Info("tier configuration loaded",
		"tier_count", len(tiers),
		"model_count", len(index),
	)
	return nil
}

// buildIndex validates every tier and enforces that model sets are
// disjoint across tiers. Overlap is a configuration error.
func buildIndex(tiers []Tier) (map[string]Tier, error) {
	index := make(map[string]Tier)
	seen := make(map[string]string)

	for _, t := range tiers {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[t.ID]; dup {
			return nil, fmt.Errorf("duplicate tier id %q", t.ID)
		}
		seen[t.ID] = t.ID

		for _, m := range t.Models {
			if owner, claimed := index[m]; claimed {
				return nil, fmt.Errorf("model %q claimed by both tier %q and tier %q",
					m, owner.ID, t.ID)
			}
			index[m] = t
		}
	}
	return index, nil
}
