// Package tier resolves model identifiers to their quota policies.
//
// # Overview
//
// A Tier binds a named quota policy (capacity, refill amount, refill
// interval) to a set of model identifiers. Tiers are configuration: they
// are read at registry construction, never written by the limiter.
//
// The Registry precomputes a map from each individual model identifier to
// its owning tier, so per-request resolution is a single map read rather
// than a scan of tier membership lists. The map is rebuilt only by an
// explicit Refresh; the registry never polls its source.
//
// # Sources
//
// Tiers come from a Source. StaticSource serves a fixed slice (tests,
// embedding); FileSource loads a YAML file. The optional Watcher turns
// file-change events into Refresh calls, debounced to prevent reload
// storms.
//
// # Thread Safety
//
// Lookup is safe for concurrent use and never blocks on I/O; only Refresh
// touches the source.
package tier
