// Package metrics exposes Prometheus collectors for reconciliation outcomes
// and system-of-record calls.
//
// # Collectors
//
//   - netsync_reconcile_items_total{kind,outcome}
//   - netsync_remote_calls_total{op,kind,result}
//   - netsync_remote_call_seconds{op,kind}
//   - netsync_runs_total{result,dry_run}
//
// The HTTP server mounts Collector.Handler at /metrics.
package metrics
