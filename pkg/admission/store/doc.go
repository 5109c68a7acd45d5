// Package store provides durable, concurrency-safe storage for per-user
// quota state.
//
// # Overview
//
// Each user owns at most one quota record (token count, last refill
// instant). The only mutation primitive is AtomicUpdate, which applies a
// caller-supplied closure as if under an exclusive per-user lock: no two
// concurrent updates on the same user can both observe and spend the same
// token. Across different users no ordering is guaranteed or needed.
//
// # Backends
//
//   - Memory: in-process map, advisory only; tests and single-instance use
//   - SQLite: pessimistic — the update runs inside a write transaction,
//     serialized by the single-writer connection
//   - Postgres: optimistic — version-column compare-and-swap with bounded
//     jittered retry
//   - Redis: optimistic — WATCH/MULTI transaction over a JSON-encoded state
//
// The strategies are interchangeable behind the Store interface. On the
// optimistic backends the update closure may run more than once; it must
// be a pure function of its input.
//
// # Failure Semantics
//
// Conflicts are retried internally a bounded number of times. Exhausting
// the retry budget, or any infrastructure fault, surfaces as
// ErrStoreUnavailable — never as an admission decision.
//
// The critical section never includes a call to a third party: only the
// local read, the closure, and the write.
package store
