package admission

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"mercator-hq/ganymede/pkg/admission/bucket"
	"mercator-hq/ganymede/pkg/admission/store"
	"mercator-hq/ganymede/pkg/admission/tier"
)

// Gate is the façade request handlers call before forwarding work to a
// model provider. It is safe for concurrent use.
type Gate struct {
	registry *tier.Registry
	store    store.Store
	clock    bucket.Clock
	logger   *slog.Logger
	metrics  *Metrics
	timeout  time.Duration
	failOpen bool
}

// Option configures a Gate.
type Option func(*Gate)

// WithClock injects the time source. Tests use this to control refill.
func WithClock(clock bucket.Clock) Option {
	return func(g *Gate) { g.clock = clock }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) { g.logger = logger }
}

// WithMetrics attaches Prometheus metrics.
func WithMetrics(m *Metrics) Option {
	return func(g *Gate) { g.metrics = m }
}

// WithTimeout bounds each store update as seen by the caller. Exceeding
// it is a store failure, resolved per the fail-open/fail-closed policy.
// Default: 2s.
func WithTimeout(d time.Duration) Option {
	return func(g *Gate) { g.timeout = d }
}

// WithFailOpen admits requests when the store is unavailable. This trades
// quota enforcement for availability and must be a deliberate choice; the
// default is fail-closed.
func WithFailOpen() Option {
	return func(g *Gate) { g.failOpen = true }
}

// NewGate creates a gate over the given registry and store.
func NewGate(registry *tier.Registry, st store.Store, opts ...Option) *Gate {
	g := &Gate{
		registry: registry,
		store:    st,
		clock:    time.Now,
		logger:   slog.Default().With("component", "admission.gate"),
		timeout:  2 * time.Second,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// CheckAndConsume resolves the model's tier, atomically applies the token
// bucket decision to the user's quota record, and reports the outcome.
//
// New users are seeded at full capacity inside the atomic update, so two
// simultaneous first-time requests converge on one record. The returned
// error is non-nil only for infrastructure faults and caller misuse; the
// Result is always populated.
func (g *Gate) CheckAndConsume(ctx context.Context, userID, modelID string, cost int64) (Result, error) {
	start := time.Now()
	res, err := g.check(ctx, userID, modelID, cost)
	if g.metrics != nil {
		g.metrics.RecordDuration("check_and_consume", time.Since(start))
	}
	return res, err
}

func (g *Gate) check(ctx context.Context, userID, modelID string, cost int64) (Result, error) {
	if cost < 1 {
		return Result{}, fmt.Errorf("%w: got %d", ErrInvalidCost, cost)
	}

	t, ok := g.registry.Lookup(modelID)
	if !ok {
		if g.metrics != nil {
			// Unresolved identifiers are unbounded; keep the label space
			// to configured models only.
			g.metrics.RecordCheck("unknown", StatusUnknownModel)
		}
		return Result{Status: StatusUnknownModel}, nil
	}
	policy := t.Policy()

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	var out bucket.Outcome
	_, err := g.store.AtomicUpdate(ctx, userID, func(prev *bucket.State) (bucket.State, error) {
		now := g.clock()
		state := bucket.Initial(policy, now)
		if prev != nil {
			state = *prev
		}
		out = bucket.Apply(policy, state, cost, now)
		return out.Next, nil
	})
	if err != nil {
		return g.storeFailure(userID, modelID, err)
	}

	res := Result{
		Allowed:    out.Allowed,
		Remaining:  out.Remaining,
		RetryAfter: out.RetryAfter,
		Reason:     out.Reason,
	}
	if out.Allowed {
		res.Status = StatusAllowed
	} else {
		res.Status = StatusDenied
	}

	if g.metrics != nil {
		g.metrics.RecordCheck(modelID, res.Status)
		if res.Status == StatusDenied {
			g.metrics.RecordDenial(modelID, string(res.Reason))
		}
	}
	return res, nil
}

// Refund credits cost back to the user's bucket, clamped at the capacity
// of the model's tier. It is the explicit compensation path for callers
// whose downstream work failed after consuming; nothing is ever refunded
// automatically.
func (g *Gate) Refund(ctx context.Context, userID, modelID string, cost int64) (Result, error) {
	start := time.Now()
	defer func() {
		if g.metrics != nil {
			g.metrics.RecordDuration("refund", time.Since(start))
		}
	}()

	if cost < 1 {
		return Result{}, fmt.Errorf("%w: got %d", ErrInvalidCost, cost)
	}

	t, ok := g.registry.Lookup(modelID)
	if !ok {
		return Result{Status: StatusUnknownModel}, nil
	}
	policy := t.Policy()

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	state, err := g.store.AtomicUpdate(ctx, userID, func(prev *bucket.State) (bucket.State, error) {
		if prev == nil {
			// Nothing was ever consumed; a full bucket is the identity.
			return bucket.Initial(policy, g.clock()), nil
		}
		return bucket.Refund(policy, *prev, cost), nil
	})
	if err != nil {
		return g.storeFailure(userID, modelID, err)
	}

	return Result{
		Status:    StatusAllowed,
		Allowed:   true,
		Remaining: state.Tokens,
	}, nil
}

// storeFailure resolves a failed atomic update per the fail-open policy.
// The error is returned alongside the result so callers can log it; the
// result alone is enough to act on.
func (g *Gate) storeFailure(userID, modelID string, err error) (Result, error) {
	if g.metrics != nil {
		g.metrics.RecordStoreFailure()
	}
	g.logger.Error("atomic quota update failed",
		"user_id", userID,
		"model", modelID,
		"fail_open", g.failOpen,
		"error", err,
	)
	res := Result{
		Status:  StatusStoreUnavailable,
		Allowed: g.failOpen,
	}
	return res, fmt.Errorf("admission check for user %q: %w", userID, err)
}
