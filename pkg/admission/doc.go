// Package admission provides tiered, time-refilling admission control
// for model requests.
//
// # Overview
//
// Every user owns a single persisted token bucket. Every request names a
// model; the model's tier supplies the bucket policy (capacity, refill
// amount, refill interval) for that decision. The Gate composes the three
// leaves:
//
//   - tier.Registry resolves the model to its policy
//   - store.Store applies the decision under a per-user atomic update
//   - bucket.Apply computes refill, sufficiency, and the next state
//
// # Usage
//
//	registry, err := tier.NewRegistry(ctx, tier.NewFileSource("tiers.yaml"), nil)
//	st, err := store.NewSQLiteStore("quotas.db")
//	gate := admission.NewGate(registry, st)
//
//	res, err := gate.CheckAndConsume(ctx, userID, "assistant-pro", 1)
//	switch res.Status {
//	case admission.StatusAllowed:
//	    // proceed; res.Remaining tokens left
//	case admission.StatusDenied:
//	    // surface "retry after res.RetryAfter"
//	case admission.StatusUnknownModel:
//	    // caller error; no state was touched
//	case admission.StatusStoreUnavailable:
//	    // infrastructure fault; res.Allowed reflects the fail-open policy
//	}
//
// # Decision Semantics
//
// Denials and unknown models are values, not errors: they are part of the
// normal control flow. Only infrastructure faults return a non-nil error,
// always alongside a StatusStoreUnavailable result resolved per the
// fail-open/fail-closed policy (fail-closed is the default).
//
// # Refunds
//
// Consuming a token is final: if the downstream call the token was gating
// fails, nothing is restored automatically. Refund is an explicit
// compensation call under the same atomic-update discipline, clamped at
// capacity. This minimal contract is deliberate.
//
// # Shared Bucket Semantics
//
// The bucket is a single cross-model currency per user: the tier resolved
// for the current request decides how the shared bucket refills and caps,
// even if a different tier wrote it last. Integrators who want per-tier
// isolation should run one Gate per tier with separate stores.
package admission
