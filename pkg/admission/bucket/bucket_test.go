package bucket

import (
	"testing"
	"time"
)

var t0 = time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)

// ============================================================================
// Refill Arithmetic
// ============================================================================

func TestApply_RefillDeterminism(t *testing.T) {
	// Empty bucket under (C=10, R=5, I=60s); check at t0+125s credits
	// exactly two intervals, clamped at capacity.
	p := Policy{Capacity: 10, RefillAmount: 5, RefillInterval: 60 * time.Second}
	s := State{Tokens: 0, LastRefill: t0}

	out := Apply(p, s, 1, t0.Add(125*time.Second))
	if !out.Allowed {
		t.Fatalf("expected allowed, got denied (%s)", out.Reason)
	}
	if out.Remaining != 9 {
		t.Errorf("expected remaining 9, got %d", out.Remaining)
	}
	// Refill clock advances by whole intervals, not to now.
	if want := t0.Add(120 * time.Second); !out.Next.LastRefill.Equal(want) {
		t.Errorf("expected last refill %v, got %v", want, out.Next.LastRefill)
	}
}

func TestApply_WorkedScenario(t *testing.T) {
	// (C=100, R=20, I=3600s), user starts empty at t0.
	p := Policy{Capacity: 100, RefillAmount: 20, RefillInterval: 3600 * time.Second}
	s := State{Tokens: 0, LastRefill: t0}
	now := t0.Add(3600 * time.Second)

	out := Apply(p, s, 15, now)
	if !out.Allowed || out.Remaining != 5 {
		t.Fatalf("first consume: expected Allowed{remaining=5}, got allowed=%v remaining=%d",
			out.Allowed, out.Remaining)
	}

	out = Apply(p, out.Next, 10, now)
	if out.Allowed {
		t.Fatal("second consume: expected denial")
	}
	if out.Remaining != 5 {
		t.Errorf("second consume: expected remaining 5, got %d", out.Remaining)
	}
	if out.RetryAfter != 3600*time.Second {
		t.Errorf("second consume: expected retry after 3600s, got %s", out.RetryAfter)
	}
	if out.Reason != ReasonInsufficientTokens {
		t.Errorf("second consume: expected reason %q, got %q", ReasonInsufficientTokens, out.Reason)
	}
}

func TestApply_RefillClampedAtCapacity(t *testing.T) {
	p := Policy{Capacity: 10, RefillAmount: 5, RefillInterval: 60 * time.Second}
	s := State{Tokens: 3, LastRefill: t0}

	// A year of idle time must not credit past capacity.
	out := Apply(p, s, 0, t0.Add(365*24*time.Hour))
	if out.Remaining != 10 {
		t.Errorf("expected remaining 10, got %d", out.Remaining)
	}
}

func TestApply_FractionalProgressPreserved(t *testing.T) {
	p := Policy{Capacity: 10, RefillAmount: 1, RefillInterval: 60 * time.Second}
	s := State{Tokens: 0, LastRefill: t0}

	// 59s elapsed: no whole interval, no refill, clock unchanged.
	out := Apply(p, s, 1, t0.Add(59*time.Second))
	if out.Allowed {
		t.Fatal("expected denial before first interval")
	}
	if !out.Next.LastRefill.Equal(t0) {
		t.Errorf("refill clock moved without a whole interval: %v", out.Next.LastRefill)
	}
	// One more second completes the interval.
	if out.RetryAfter != 1*time.Second {
		t.Errorf("expected retry after 1s, got %s", out.RetryAfter)
	}
}

func TestApply_ClockSkewClampsToZero(t *testing.T) {
	p := Policy{Capacity: 10, RefillAmount: 5, RefillInterval: 60 * time.Second}
	s := State{Tokens: 2, LastRefill: t0}

	// now before lastRefill: no refill, clock does not go backward.
	out := Apply(p, s, 1, t0.Add(-30*time.Second))
	if !out.Allowed {
		t.Fatal("expected allowed from existing tokens")
	}
	if out.Remaining != 1 {
		t.Errorf("expected remaining 1, got %d", out.Remaining)
	}
	if !out.Next.LastRefill.Equal(t0) {
		t.Errorf("refill clock went backward: %v", out.Next.LastRefill)
	}
}

func TestApply_CapacityShrinkClampsTokens(t *testing.T) {
	// Bucket written under an old capacity of 100; the tier now allows 10.
	p := Policy{Capacity: 10, RefillAmount: 5, RefillInterval: 60 * time.Second}
	s := State{Tokens: 100, LastRefill: t0}

	out := Apply(p, s, 1, t0)
	if out.Remaining != 9 {
		t.Errorf("expected remaining 9 after clamp and consume, got %d", out.Remaining)
	}
}

// ============================================================================
// Decisions
// ============================================================================

func TestApply_CapacityBound(t *testing.T) {
	// Exactly C unit consumes succeed with no elapsed time.
	p := Policy{Capacity: 5, RefillAmount: 1, RefillInterval: 60 * time.Second}
	s := Initial(p, t0)

	allowed := 0
	for i := 0; i < 20; i++ {
		out := Apply(p, s, 1, t0)
		if out.Allowed {
			allowed++
		}
		s = out.Next
	}
	if allowed != 5 {
		t.Errorf("expected exactly 5 allowed, got %d", allowed)
	}
	if s.Tokens != 0 {
		t.Errorf("expected final tokens 0, got %d", s.Tokens)
	}
}

func TestApply_CostExceedsCapacity(t *testing.T) {
	p := Policy{Capacity: 10, RefillAmount: 5, RefillInterval: 60 * time.Second}
	s := Initial(p, t0)

	out := Apply(p, s, 11, t0.Add(time.Hour))
	if out.Allowed {
		t.Fatal("expected denial for cost above capacity")
	}
	if out.Reason != ReasonCostExceedsCapacity {
		t.Errorf("expected reason %q, got %q", ReasonCostExceedsCapacity, out.Reason)
	}
	if out.RetryAfter != 0 {
		t.Errorf("no wait can satisfy the cost; got retry after %s", out.RetryAfter)
	}
	// State still advances: refill clock moved by the elapsed hour.
	if !out.Next.LastRefill.After(t0) {
		t.Error("expected refill clock to advance on unconditional denial")
	}
}

func TestApply_DenialKeepsAccruedRefill(t *testing.T) {
	p := Policy{Capacity: 100, RefillAmount: 3, RefillInterval: 60 * time.Second}
	s := State{Tokens: 0, LastRefill: t0}

	out := Apply(p, s, 50, t0.Add(2*time.Minute))
	if out.Allowed {
		t.Fatal("expected denial")
	}
	if out.Next.Tokens != 6 {
		t.Errorf("expected accrued refill of 6 kept on denial, got %d", out.Next.Tokens)
	}
}

func TestApply_RetryAfterExact(t *testing.T) {
	tests := []struct {
		name    string
		tokens  int64
		cost    int64
		offset  time.Duration
		want    time.Duration
	}{
		{"one interval needed", 5, 10, 0, 60 * time.Second},
		{"two intervals needed", 0, 10, 0, 120 * time.Second},
		{"mid-interval progress counts", 5, 10, 45 * time.Second, 15 * time.Second},
		{"deficit rounds up to whole intervals", 0, 7, 0, 120 * time.Second},
	}

	p := Policy{Capacity: 20, RefillAmount: 5, RefillInterval: 60 * time.Second}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := State{Tokens: tt.tokens, LastRefill: t0}
			out := Apply(p, s, tt.cost, t0.Add(tt.offset))
			if out.Allowed {
				t.Fatal("expected denial")
			}
			if out.RetryAfter != tt.want {
				t.Errorf("expected retry after %s, got %s", tt.want, out.RetryAfter)
			}
		})
	}
}

func TestApply_MonotonicRefillClock(t *testing.T) {
	p := Policy{Capacity: 10, RefillAmount: 1, RefillInterval: 10 * time.Second}
	s := State{Tokens: 0, LastRefill: t0}

	offsets := []time.Duration{5 * time.Second, 25 * time.Second, 24 * time.Second,
		90 * time.Second, 0, 3 * time.Hour}

	prev := s.LastRefill
	for _, off := range offsets {
		out := Apply(p, s, 1, t0.Add(off))
		if out.Next.LastRefill.Before(prev) {
			t.Fatalf("refill clock decreased: %v -> %v", prev, out.Next.LastRefill)
		}
		prev = out.Next.LastRefill
		s = out.Next
	}
}

func TestApply_TokensAlwaysWithinBounds(t *testing.T) {
	p := Policy{Capacity: 8, RefillAmount: 3, RefillInterval: 30 * time.Second}
	s := Initial(p, t0)

	costs := []int64{1, 4, 8, 2, 9, 3, 1, 1, 5}
	now := t0
	for i, c := range costs {
		now = now.Add(time.Duration(i*17) * time.Second)
		out := Apply(p, s, c, now)
		if out.Next.Tokens < 0 || out.Next.Tokens > p.Capacity {
			t.Fatalf("tokens out of bounds after step %d: %d", i, out.Next.Tokens)
		}
		s = out.Next
	}
}

// ============================================================================
// Policy Helpers
// ============================================================================

func TestPolicy_Validate(t *testing.T) {
	tests := []struct {
		name    string
		policy  Policy
		wantErr bool
	}{
		{"valid", Policy{10, 5, 60 * time.Second}, false},
		{"zero capacity", Policy{0, 5, 60 * time.Second}, true},
		{"zero refill", Policy{10, 0, 60 * time.Second}, true},
		{"sub-second interval", Policy{10, 5, 500 * time.Millisecond}, true},
		{"fractional seconds", Policy{10, 5, 1500 * time.Millisecond}, true},
		{"one second interval", Policy{1, 1, time.Second}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPolicy_FullRefillHorizon(t *testing.T) {
	p := Policy{Capacity: 100, RefillAmount: 20, RefillInterval: time.Hour}
	if got := p.FullRefillHorizon(); got != 5*time.Hour {
		t.Errorf("expected 5h, got %s", got)
	}
	p = Policy{Capacity: 10, RefillAmount: 3, RefillInterval: time.Minute}
	if got := p.FullRefillHorizon(); got != 4*time.Minute {
		t.Errorf("expected 4m, got %s", got)
	}
}

func TestRefund_ClampsAtCapacity(t *testing.T) {
	p := Policy{Capacity: 10, RefillAmount: 5, RefillInterval: 60 * time.Second}
	s := State{Tokens: 8, LastRefill: t0}

	next := Refund(p, s, 5)
	if next.Tokens != 10 {
		t.Errorf("expected tokens clamped to 10, got %d", next.Tokens)
	}
	if !next.LastRefill.Equal(t0) {
		t.Error("refund must not advance the refill clock")
	}
}
