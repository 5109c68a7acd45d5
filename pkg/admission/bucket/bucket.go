package bucket

import (
	"fmt"
	"time"
)

// Clock returns the current time. It is injected wherever the algorithm
// needs "now" so tests can control time exactly.
type Clock func() time.Time

// Policy is the quota policy a tier applies to a bucket. It is immutable
// within a single decision; reconfiguration between decisions is handled
// by the capacity clamp in Apply.
type Policy struct {
	// Capacity is the maximum number of tokens the bucket can hold.
	Capacity int64

	// RefillAmount is the number of tokens credited per elapsed interval.
	RefillAmount int64

	// RefillInterval is the length of one refill interval. Whole seconds;
	// sub-second intervals are rejected by Validate.
	RefillInterval time.Duration
}

// Validate checks the policy bounds.
func (p Policy) Validate() error {
	if p.Capacity < 1 {
		return fmt.Errorf("capacity must be >= 1, got %d", p.Capacity)
	}
	if p.RefillAmount < 1 {
		return fmt.Errorf("refill amount must be >= 1, got %d", p.RefillAmount)
	}
	if p.RefillInterval < time.Second {
		return fmt.Errorf("refill interval must be >= 1s, got %s", p.RefillInterval)
	}
	if p.RefillInterval%time.Second != 0 {
		return fmt.Errorf("refill interval must be whole seconds, got %s", p.RefillInterval)
	}
	return nil
}

// FullRefillHorizon returns how long an empty bucket takes to reach
// capacity under this policy. Maintenance uses this as the safe age
// beyond which an idle bucket row can be dropped: re-seeding at full
// capacity is then indistinguishable from keeping the row.
func (p Policy) FullRefillHorizon() time.Duration {
	intervals := (p.Capacity + p.RefillAmount - 1) / p.RefillAmount
	return time.Duration(intervals) * p.RefillInterval
}

// State is the persisted bucket state for one user.
type State struct {
	// Tokens is the current token count. Invariant: 0 <= Tokens <= the
	// capacity of whichever tier most recently wrote the state.
	Tokens int64

	// LastRefill is the instant the refill clock last advanced to.
	// Monotonically non-decreasing across the history of a user.
	LastRefill time.Time
}

// Reason explains a denial.
type Reason string

const (
	// ReasonInsufficientTokens means the bucket will satisfy the cost
	// after more refill intervals elapse.
	ReasonInsufficientTokens Reason = "insufficient_tokens"

	// ReasonCostExceedsCapacity means the cost can never be satisfied by
	// the governing tier, regardless of elapsed time.
	ReasonCostExceedsCapacity Reason = "cost_exceeds_capacity"
)

// Outcome is the result of applying one admission decision.
type Outcome struct {
	// Allowed reports whether the cost was consumed.
	Allowed bool

	// Next is the state to persist. Accrued refill is kept even on denial.
	Next State

	// Remaining is the token count after the decision.
	Remaining int64

	// RetryAfter is the exact wait until enough whole intervals elapse to
	// satisfy the cost. Zero when allowed, and zero when the cost exceeds
	// capacity (no wait can satisfy it).
	RetryAfter time.Duration

	// Reason is set when Allowed is false.
	Reason Reason
}

// Initial seeds a new user's bucket at full capacity.
func Initial(p Policy, now time.Time) State {
	return State{Tokens: p.Capacity, LastRefill: now}
}

// Apply computes refill, checks sufficiency, and produces the next state
// plus the decision. It is a pure function of its arguments.
func Apply(p Policy, s State, cost int64, now time.Time) Outcome {
	interval := int64(p.RefillInterval / time.Second)
	if interval < 1 {
		interval = 1
	}

	// Reconcile with the current policy: a shrunk capacity must not let a
	// stale over-full bucket grant more than the new policy allows.
	tokens := s.Tokens
	if tokens > p.Capacity {
		tokens = p.Capacity
	}
	if tokens < 0 {
		tokens = 0
	}

	elapsed := int64(now.Sub(s.LastRefill) / time.Second)
	if elapsed < 0 {
		// Clock skew: no refill, and the refill clock never moves backward.
		elapsed = 0
	}

	intervals := elapsed / interval
	last := s.LastRefill.Add(time.Duration(intervals*interval) * time.Second)

	if intervals > 0 && tokens < p.Capacity {
		headroom := p.Capacity - tokens
		// ceil(headroom/RefillAmount) intervals fill the bucket; comparing
		// against it first also keeps intervals*RefillAmount from overflowing.
		if intervals >= (headroom+p.RefillAmount-1)/p.RefillAmount {
			tokens = p.Capacity
		} else {
			tokens += intervals * p.RefillAmount
		}
	}

	out := Outcome{
		Next:      State{Tokens: tokens, LastRefill: last},
		Remaining: tokens,
	}

	if cost > p.Capacity {
		// Unconditionally unsatisfiable by this tier. State still advances.
		out.Reason = ReasonCostExceedsCapacity
		return out
	}

	if tokens >= cost {
		out.Allowed = true
		out.Next.Tokens = tokens - cost
		out.Remaining = tokens - cost
		return out
	}

	out.Reason = ReasonInsufficientTokens

	deficit := cost - tokens
	need := (deficit + p.RefillAmount - 1) / p.RefillAmount
	// Fractional progress toward the next boundary counts toward the wait.
	wait := need*interval - (elapsed - intervals*interval)
	if wait < 1 {
		wait = 1
	}
	out.RetryAfter = time.Duration(wait) * time.Second
	return out
}

// Refund credits amount back to the bucket, clamped at capacity. It does
// not advance the refill clock.
func Refund(p Policy, s State, amount int64) State {
	tokens := s.Tokens + amount
	if tokens > p.Capacity {
		tokens = p.Capacity
	}
	return State{Tokens: tokens, LastRefill: s.LastRefill}
}
