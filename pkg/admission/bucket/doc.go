// Package bucket implements the token bucket refill and admission arithmetic.
//
// # Overview
//
// The bucket package is the pure computational core of admission control.
// It takes a tier policy (capacity, refill amount, refill interval), the
// persisted bucket state for a user (token count, last refill instant),
// a request cost, and the current time, and produces the next state plus
// an allow/deny outcome. It performs no I/O and holds no mutable state;
// callers run it inside their store's atomic update.
//
// # Algorithm
//
//  1. Clamp tokens to the current capacity (policies can shrink between
//     writes) and clamp negative elapsed time to zero (clock skew never
//     moves the refill clock backward)
//  2. Credit refill for each whole interval elapsed, up to capacity
//  3. Advance the refill clock by whole intervals only, preserving
//     fractional progress toward the next interval boundary
//  4. Check sufficiency and either consume the cost or compute the exact
//     wait until enough whole intervals will have elapsed
//
// # Numeric Semantics
//
// All arithmetic is integer and whole-second. No floating point is used
// for interval counting, so refill results are exactly reproducible.
package bucket
