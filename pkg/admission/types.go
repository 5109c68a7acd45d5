package admission

import (
	"errors"
	"time"

	"mercator-hq/ganymede/pkg/admission/bucket"
)

// Status classifies an admission outcome.
type Status string

const (
	// StatusAllowed means the cost was consumed and the request may proceed.
	StatusAllowed Status = "allowed"

	// StatusDenied means the bucket could not cover the cost. Expected and
	// frequent; carries RetryAfter.
	StatusDenied Status = "denied"

	// StatusUnknownModel means no configured tier claims the model. The
	// user's stored state is untouched.
	StatusUnknownModel Status = "unknown_model"

	// StatusStoreUnavailable means the store could not complete the atomic
	// update within its retry and timeout budget. Not a quota decision;
	// Allowed reflects the configured fail-open/fail-closed policy.
	StatusStoreUnavailable Status = "store_unavailable"
)

// Result is the caller-facing outcome of a check or refund.
type Result struct {
	// Status classifies the outcome.
	Status Status

	// Allowed reports whether the request may proceed. For
	// StatusStoreUnavailable this is the fail-open/fail-closed policy
	// speaking, not a quota decision.
	Allowed bool

	// Remaining is the token count left after the decision. Zero when the
	// store was not consulted.
	Remaining int64

	// RetryAfter is the exact wait until the denial would clear. Zero
	// unless Status is StatusDenied with an ordinary insufficiency.
	RetryAfter time.Duration

	// Reason distinguishes ordinary insufficiency from a cost no tier
	// capacity can ever satisfy. Set only on StatusDenied.
	Reason bucket.Reason
}

// ErrInvalidCost is returned when a caller passes a cost below 1.
var ErrInvalidCost = errors.New("cost must be >= 1")
