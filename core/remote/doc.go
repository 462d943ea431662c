// Package remote defines the system-of-record contract the reconciler runs
// against, plus the bindings and wrappers that implement it.
//
// # Contract
//
// Store exposes filtered reads, bulk create/update/delete, their per-item
// forms (used when a bulk call fails) and GetOrCreate for reference entities
// (site, role, manufacturer, device type, platform, tenant, VLAN).
//
// # Bindings
//
//   - MemoryStore: in-process, validating, atomic bulk calls.
//   - GormStore: one JSON-payload table over MySQL or SQLite.
//
// # Wrappers
//
//   - RetryStore: exponential backoff for transient errors. Creates are never retried.
//   - InstrumentedStore: Prometheus call counts and latency.
//
// # Errors
//
// ValidationError marks a rejected payload, TransportError a failed call and
// ErrNotFound a missing object. IsTransient classifies errors for retry.
package remote
