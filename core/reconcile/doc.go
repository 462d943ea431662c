// Package reconcile computes and applies the change plan that brings a
// system of record in line with freshly collected device state.
//
// The package is split along the stages of one run:
//
// 1. Compare: local canonical records and remote projections are matched by
// canonical identity and classified into create, update, delete or skip.
// Updates carry field-level changes computed over a caller-supplied field
// list with per-field comparators.
//
// 2. Waves: creates are partitioned by dependency depth. Edges come from the
// local records only (Dependent.Requires), so a member link is created in
// the wave after its aggregate.
//
// 3. Apply: the Executor issues one bulk call per wave, then one bulk update
// and one bulk delete. A failed bulk call falls back to per-item calls so
// one bad payload never blocks its siblings. Dry runs use the same path with
// a remote.DryRunStore at the mutation boundary.
//
// 4. Report: per-kind counts plus one detail line per item, usable as a
// preview and as an audit log.
//
// The Cache memoizes remote lookups for one run. It loads a whole namespace
// with one List call on first use and is never shared between runs.
//
// # Usage Example
//
//	cs := reconcile.Compare("interface", locals, projections, opts)
//	exec := reconcile.NewExecutor(store, logger, collector)
//	report := exec.Apply(ctx, cs, reconcile.Edges(locals), applier)
package reconcile
