package devicesync

import (
	"context"
	"fmt"
	"time"

	"netsync/core/config"
	"netsync/core/logger"
	"netsync/core/metrics"
	"netsync/core/reconcile"
	"netsync/core/remote"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Result is the outcome of one device run: one report per kind plus their
// merged summary.
type Result struct {
	RunID   string              `json:"run_id"`
	Device  string              `json:"device"`
	DryRun  bool                `json:"dry_run"`
	Reports []*reconcile.Report `json:"reports"`
	Summary *reconcile.Report   `json:"summary"`
	Error   string              `json:"error,omitempty"`

	// Fatal is set when the target scope could not be resolved; no kind
	// ran after it.
	Fatal bool `json:"fatal,omitempty"`
}

// OK reports whether the run completed without failures.
func (r *Result) OK() bool {
	return r.Error == "" && r.Summary != nil && r.Summary.OK()
}

// Syncer reconciles device snapshots against the system of record. Kinds
// are driven through injected adapters in dependency order; each run gets
// its own Lookup Cache and executor, so concurrent runs share nothing but
// the store.
type Syncer struct {
	store    remote.Store
	log      *zap.Logger
	metrics  *metrics.Collector
	profile  *config.Profile
	base     reconcile.Options
	adapters []Factory
	sinks    []Sink
	parallel int
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Syncer) { s.log = l }
}

// WithMetrics sets the Prometheus collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(s *Syncer) { s.metrics = m }
}

// WithProfile sets the per-kind sync profile.
func WithProfile(p *config.Profile) Option {
	return func(s *Syncer) { s.profile = p }
}

// WithOptions sets the run switches every kind starts from.
func WithOptions(o reconcile.Options) Option {
	return func(s *Syncer) { s.base = o }
}

// WithAdapters replaces the kind adapters.
func WithAdapters(f ...Factory) Option {
	return func(s *Syncer) { s.adapters = f }
}

// WithSinks adds report sinks.
func WithSinks(sinks ...Sink) Option {
	return func(s *Syncer) { s.sinks = append(s.sinks, sinks...) }
}

// WithParallel bounds the number of concurrent runs of RunMany.
func WithParallel(n int) Option {
	return func(s *Syncer) { s.parallel = n }
}

// NewSyncer creates a Syncer over store.
func NewSyncer(store remote.Store, opts ...Option) *Syncer {
	s := &Syncer{
		store:    store,
		log:      zap.NewNop(),
		base:     reconcile.DefaultOptions(),
		adapters: DefaultAdapters(),
		parallel: 1,
	}
	for _, o := range opts {
		o(s)
	}
	if s.parallel < 1 {
		s.parallel = 1
	}
	return s
}

// FromConfig converts the sync section to the base options.
func FromConfig(c config.Sync) reconcile.Options {
	return reconcile.Options{
		CreateMissing:  c.CreateMissing,
		UpdateExisting: c.UpdateExisting,
		Cleanup:        c.Cleanup,
	}
}

// Run reconciles one snapshot. A dry run goes through the same stages with
// the store wrapped in a remote.DryRunStore.
func (s *Syncer) Run(ctx context.Context, snap *Snapshot, dryRun bool) *Result {
	store := s.store
	if dryRun {
		store = remote.NewDryRunStore(store)
	}
	run := newRun(uuid.NewString(), snap, reconcile.NewCache(store))
	exec := reconcile.NewExecutor(store, s.log, s.metrics)
	log := logger.WithRun(s.log, run.ID, run.Device)

	res := &Result{RunID: run.ID, Device: run.Device, DryRun: dryRun}
	log.Info("sync started", zap.Bool("dry_run", dryRun))

	scoped := false
	if run.Device == "" {
		res.fatal(dryRun, fmt.Errorf("%w: snapshot has no hostname", reconcile.ErrScopeNotFound))
	}
	for _, factory := range s.adapters {
		if res.Fatal {
			break
		}
		adapter := factory(run)
		kind := string(adapter.Kind())
		profile := s.profile.Kind(kind)
		if !profile.IsEnabled() {
			continue
		}
		if err := ctx.Err(); err != nil {
			r := reconcile.NewReport(kind, dryRun)
			r.Error = "not started: " + err.Error()
			r.Finished = r.Started
			res.Reports = append(res.Reports, r)
			continue
		}

		if kind != string(remote.KindDevice) && !scoped {
			if err := run.resolveScope(ctx); err != nil {
				res.fatal(dryRun, err)
				log.Error("sync aborted", zap.Error(err))
				continue
			}
			scoped = true
		}

		report := s.apply(ctx, exec, adapter, profile)
		log.Info("kind synchronized", zap.String("summary", report.String()))
		res.Reports = append(res.Reports, report)
	}
	if !scoped && !res.Fatal && ctx.Err() == nil {
		// every other kind is disabled: still report a missing device
		if err := run.resolveScope(ctx); err != nil {
			res.fatal(dryRun, err)
		}
	}

	res.Summary = reconcile.NewReport("summary", dryRun)
	for _, r := range res.Reports {
		res.Summary.Merge(r)
	}
	if res.Summary.Finished.IsZero() {
		res.Summary.Finished = time.Now()
	}
	s.metrics.ObserveRun(!res.OK(), dryRun)

	for _, sink := range s.sinks {
		if err := sink.Publish(ctx, res); err != nil {
			log.Warn("report sink failed", zap.String("sink", fmt.Sprintf("%T", sink)), zap.Error(err))
		}
	}
	log.Info("sync finished", zap.String("summary", res.Summary.String()))
	return res
}

// apply runs compare and execute for one kind.
func (s *Syncer) apply(ctx context.Context, exec *reconcile.Executor, adapter Adapter, profile config.KindProfile) *reconcile.Report {
	kind := string(adapter.Kind())
	opts := profile.Apply(s.base, adapter.Fields())
	opts.Comparators = adapter.Comparators()
	if adapter.Kind() == remote.KindDevice {
		// other devices are outside the run's scope
		opts.Cleanup = false
	}

	local, err := adapter.Records(ctx)
	if err != nil {
		return reconcile.FatalReport(kind, exec.DryRun(), fmt.Errorf("read local %s: %w", kind, err))
	}
	projections, err := adapter.Projections(ctx)
	if err != nil {
		return reconcile.FatalReport(kind, exec.DryRun(), fmt.Errorf("read remote %s: %w", kind, err))
	}
	if k, ok := adapter.(Keeper); ok && opts.Cleanup {
		if opts.Keep, err = k.Keep(ctx); err != nil {
			return reconcile.FatalReport(kind, exec.DryRun(), fmt.Errorf("read %s references: %w", kind, err))
		}
	}

	cs := reconcile.Compare(kind, local, projections, opts)
	report := exec.Apply(ctx, cs, reconcile.Edges(local), adapter)
	for _, d := range report.Details {
		if d.Outcome == reconcile.OutcomeCreated && d.RemoteID != 0 {
			adapter.Commit(d.Identity, d.RemoteID)
		}
	}
	return report
}

// ScopeReport is the kind name of the report recording a scope failure.
const ScopeReport = "scope"

// fatal records a run-level failure: one failed report, nothing processed
// after it.
func (r *Result) fatal(dryRun bool, err error) {
	r.Reports = append(r.Reports, reconcile.FatalReport(ScopeReport, dryRun, err))
	r.Error = err.Error()
	r.Fatal = true
}

// RunMany reconciles several snapshots concurrently, at most parallel at a
// time. Results keep the order of snaps.
func (s *Syncer) RunMany(ctx context.Context, snaps []*Snapshot, dryRun bool) []*Result {
	results := make([]*Result, len(snaps))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallel)
	for i, snap := range snaps {
		i, snap := i, snap
		g.Go(func() error {
			results[i] = s.Run(ctx, snap, dryRun)
			return nil
		})
	}
	_ = g.Wait()
	return results
}
