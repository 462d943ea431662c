package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"netsync/core/metrics"
	"netsync/core/remote"
	"netsync/core/utils"

	"go.uber.org/zap"
)

// IDs maps identities of one kind to remote ids: the objects that exist
// remotely plus the ones created so far in the run.
type IDs map[string]int64

// Require returns the id of dependency or a MissingDependencyError naming
// the dependent identity.
func (ids IDs) Require(identity, dependency string) (int64, error) {
	if id, ok := ids[dependency]; ok {
		return id, nil
	}
	return 0, &MissingDependencyError{Identity: identity, Dependency: dependency}
}

// Applier adapts one entity kind to the remote store.
type Applier interface {
	// Kind is the remote kind the payloads are written to.
	Kind() remote.Kind

	// CreatePayload builds the create payload of item.Local. A
	// *MissingDependencyError skips the item; any other error fails it.
	CreatePayload(ctx context.Context, item ChangeItem, ids IDs) (remote.Fields, error)

	// UpdatePayload builds the patch fields of item.Changes. An empty
	// payload skips the item.
	UpdatePayload(ctx context.Context, item ChangeItem, ids IDs) (remote.Fields, error)
}

// Executor applies ChangeSets against a remote store. A dry run is an
// Executor over a remote.DryRunStore: everything up to the store call is
// shared with a live run.
type Executor struct {
	store   remote.Store
	log     *zap.Logger
	metrics *metrics.Collector
	dryRun  bool
}

// NewExecutor creates an executor. log and m may be nil.
func NewExecutor(store remote.Store, log *zap.Logger, m *metrics.Collector) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	_, dry := store.(*remote.DryRunStore)
	return &Executor{store: store, log: log, metrics: m, dryRun: dry}
}

// DryRun reports whether mutations are suppressed.
func (e *Executor) DryRun() bool {
	return e.dryRun
}

// Apply executes cs: creates wave by wave, then updates, then deletes. Each
// step is one bulk call with per-item fallback. Cancellation is honoured
// between steps; items not reached are reported as pending.
func (e *Executor) Apply(ctx context.Context, cs ChangeSet, edges []DependencyEdge, applier Applier) *Report {
	report := NewReport(cs.Kind, e.dryRun)
	log := e.log.With(zap.String("kind", cs.Kind), zap.Bool("dry_run", e.dryRun))
	defer func() {
		report.Finished = time.Now()
		e.observe(report)
	}()

	for _, item := range cs.Skip {
		report.record(OutcomeSkipped, item.Identity, item.Reason, item.RemoteID())
	}

	ids := make(IDs, len(cs.Existing)+len(cs.Create))
	for k, v := range cs.Existing {
		ids[k] = v
	}

	waves, blocked := Waves(cs.Create, edges, cs.Existing)
	for _, item := range blocked {
		log.Debug("create skipped", zap.String("identity", item.Identity), zap.String("reason", item.Reason))
		report.record(OutcomeSkipped, item.Identity, item.Reason, 0)
	}

	for n, wave := range waves {
		if ctx.Err() != nil {
			for _, rest := range waves[n:] {
				pending(report, rest)
			}
			pending(report, cs.Update)
			pending(report, cs.Delete)
			log.Info("run cancelled", zap.Int("wave", n), zap.Int("remaining", report.Remaining))
			return report
		}
		log.Debug("applying wave", zap.Int("wave", n), zap.Int("items", len(wave)))
		e.createWave(ctx, log, wave, applier, ids, report)
	}

	if ctx.Err() != nil {
		pending(report, cs.Update)
		pending(report, cs.Delete)
		return report
	}
	e.updateAll(ctx, log, cs.Update, applier, ids, report)

	if ctx.Err() != nil {
		pending(report, cs.Delete)
		return report
	}
	e.deleteAll(ctx, log, cs.Delete, applier.Kind(), report)
	return report
}

func pending(report *Report, items []ChangeItem) {
	for _, item := range items {
		report.record(OutcomePending, item.Identity, "not applied: run cancelled", item.RemoteID())
	}
}

// prepared records a payload error and reports whether the item can go
// into the batch.
func (e *Executor) prepared(log *zap.Logger, report *Report, item ChangeItem, err error) bool {
	if err == nil {
		return true
	}
	if IsMissingDependency(err) {
		report.record(OutcomeSkipped, item.Identity, err.Error(), item.RemoteID())
		return false
	}
	log.Warn("payload rejected", zap.String("identity", item.Identity), zap.Error(err))
	report.record(OutcomeFailed, item.Identity, err.Error(), item.RemoteID())
	return false
}

func (e *Executor) createWave(ctx context.Context, log *zap.Logger, wave []ChangeItem, applier Applier, ids IDs, report *Report) {
	var (
		items    []ChangeItem
		payloads []remote.Fields
	)
	for _, item := range wave {
		fields, err := applier.CreatePayload(ctx, item, ids)
		if !e.prepared(log, report, item, err) {
			continue
		}
		items = append(items, item)
		payloads = append(payloads, fields)
	}
	if len(payloads) == 0 {
		return
	}

	created, errs := e.create(ctx, log, applier.Kind(), payloads)
	for i, item := range items {
		if errs[i] != nil {
			if !errors.Is(errs[i], ErrUnconfirmed) {
				log.Warn("create failed", zap.String("identity", item.Identity), zap.Error(errs[i]))
			}
			report.record(OutcomeFailed, item.Identity, errs[i].Error(), 0)
			continue
		}
		ids[item.Identity] = created[i]
		report.record(OutcomeCreated, item.Identity, DescribeValues(item.Local), created[i])
	}
}

func (e *Executor) updateAll(ctx context.Context, log *zap.Logger, updates []ChangeItem, applier Applier, ids IDs, report *Report) {
	var (
		items   []ChangeItem
		patches []remote.Patch
	)
	for _, item := range updates {
		fields, err := applier.UpdatePayload(ctx, item, ids)
		if !e.prepared(log, report, item, err) {
			continue
		}
		if len(fields) == 0 {
			report.record(OutcomeSkipped, item.Identity, ReasonNoChanges, item.RemoteID())
			continue
		}
		items = append(items, item)
		patches = append(patches, remote.Patch{ID: item.RemoteID(), Fields: fields})
	}
	if len(patches) == 0 {
		return
	}

	errs := e.update(ctx, log, applier.Kind(), patches)
	for i, item := range items {
		if errs[i] != nil {
			log.Warn("update failed", zap.String("identity", item.Identity), zap.Error(errs[i]))
			report.record(OutcomeFailed, item.Identity, errs[i].Error(), item.RemoteID())
			continue
		}
		report.record(OutcomeUpdated, item.Identity, DescribeChanges(item.Changes), item.RemoteID())
	}
}

func (e *Executor) deleteAll(ctx context.Context, log *zap.Logger, deletes []ChangeItem, kind remote.Kind, report *Report) {
	if len(deletes) == 0 {
		return
	}
	ids := make([]int64, len(deletes))
	for i, item := range deletes {
		ids[i] = item.RemoteID()
	}
	errs := e.delete(ctx, log, kind, ids)
	for i, item := range deletes {
		if errs[i] != nil {
			log.Warn("delete failed", zap.String("identity", item.Identity), zap.Error(errs[i]))
			report.record(OutcomeFailed, item.Identity, errs[i].Error(), item.RemoteID())
			continue
		}
		report.record(OutcomeDeleted, item.Identity, fmt.Sprintf("remote id %d", item.RemoteID()), item.RemoteID())
	}
}

// create issues one bulk call and falls back to one call per item when it
// fails. A started batch is not interrupted by cancellation.
func (e *Executor) create(ctx context.Context, log *zap.Logger, kind remote.Kind, payloads []remote.Fields) ([]int64, []error) {
	ctx = context.WithoutCancel(ctx)
	ids := make([]int64, len(payloads))
	errs := make([]error, len(payloads))
	if len(payloads) > 1 {
		got, err := e.store.BulkCreate(ctx, kind, payloads)
		if err == nil && len(got) == len(payloads) {
			return got, errs
		}
		if err == nil {
			// some items may exist now: a per-item retry could duplicate them
			err = &remote.TransportError{
				Op:  "bulk create " + string(kind),
				Err: fmt.Errorf("%w: %d ids for %d items", ErrUnconfirmed, len(got), len(payloads)),
			}
			log.Error("bulk create not confirmed, items left for the next run", zap.Int("items", len(payloads)), zap.Int("ids", len(got)))
			for i := range errs {
				errs[i] = err
			}
			return ids, errs
		}
		log.Warn("bulk create failed, falling back to per-item calls", zap.Int("items", len(payloads)), zap.Error(err))
	}
	for i, p := range payloads {
		ids[i], errs[i] = e.store.Create(ctx, kind, p)
	}
	return ids, errs
}

func (e *Executor) update(ctx context.Context, log *zap.Logger, kind remote.Kind, patches []remote.Patch) []error {
	ctx = context.WithoutCancel(ctx)
	errs := make([]error, len(patches))
	if len(patches) > 1 {
		err := e.store.BulkUpdate(ctx, kind, patches)
		if err == nil {
			return errs
		}
		log.Warn("bulk update failed, falling back to per-item calls", zap.Int("items", len(patches)), zap.Error(err))
	}
	for i, p := range patches {
		errs[i] = e.store.Update(ctx, kind, p)
	}
	return errs
}

func (e *Executor) delete(ctx context.Context, log *zap.Logger, kind remote.Kind, ids []int64) []error {
	ctx = context.WithoutCancel(ctx)
	errs := make([]error, len(ids))
	if len(ids) > 1 {
		err := e.store.BulkDelete(ctx, kind, ids)
		if err == nil {
			return errs
		}
		log.Warn("bulk delete failed, falling back to per-item calls", zap.Int("items", len(ids)), zap.Error(err))
	}
	for i, id := range ids {
		errs[i] = e.store.Delete(ctx, kind, id)
	}
	return errs
}

func (e *Executor) observe(r *Report) {
	if e.metrics == nil {
		return
	}
	e.metrics.AddItems(r.Kind, string(OutcomeCreated), r.Created)
	e.metrics.AddItems(r.Kind, string(OutcomeUpdated), r.Updated)
	e.metrics.AddItems(r.Kind, string(OutcomeDeleted), r.Deleted)
	e.metrics.AddItems(r.Kind, string(OutcomeSkipped), r.Skipped)
	e.metrics.AddItems(r.Kind, string(OutcomeFailed), r.Failed)
	e.metrics.AddItems(r.Kind, string(OutcomePending), r.Remaining)
}

// DescribeValues renders the reported fields of a record as sorted
// "field=value" pairs.
func DescribeValues(rec Record) string {
	if rec == nil {
		return ""
	}
	values := rec.Values()
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + utils.ToString(values[k])
	}
	return strings.Join(parts, " ")
}
