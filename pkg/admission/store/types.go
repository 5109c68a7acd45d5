package store

import (
	"context"
	"errors"
	"time"

	"mercator-hq/ganymede/pkg/admission/bucket"
)

// UpdateFunc computes the next state from the current one. prev is nil
// when the user has no quota record yet; the returned state is persisted.
//
// Optimistic backends may invoke the closure more than once when a
// conflicting writer gets in first, so it must not carry side effects
// beyond its return value.
type UpdateFunc func(prev *bucket.State) (bucket.State, error)

// Store is the durable home of per-user quota state.
type Store interface {
	// AtomicUpdate applies fn to the user's state as if under an exclusive
	// lock held for the duration of fn, and persists the result. Two
	// simultaneous first-time updates for the same user converge to one
	// record. Returns the persisted state.
	AtomicUpdate(ctx context.Context, userID string, fn UpdateFunc) (bucket.State, error)

	// Cleanup removes records not updated since olderThan and reports how
	// many were removed. Callers are responsible for choosing a horizon at
	// which deletion is semantically safe (see maintenance.Pruner).
	Cleanup(ctx context.Context, olderThan time.Time) (int, error)

	// Close releases backend resources.
	Close() error
}

// ErrStoreUnavailable is returned when the backend cannot complete an
// atomic update within its retry and timeout budget. It is an
// infrastructure fault, distinct from any admission decision.
var ErrStoreUnavailable = errors.New("bucket store unavailable")

// errConflict marks an optimistic write that lost to a concurrent
// updater. Always retried internally; never surfaces to callers.
var errConflict = errors.New("concurrent quota update conflict")

// ErrEmptyUserID is returned when a caller passes an empty user id.
var ErrEmptyUserID = errors.New("user id cannot be empty")
