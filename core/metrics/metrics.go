package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns the Prometheus collectors of one process. It uses its own
// registry so tests can build as many collectors as they like.
// All methods are safe on a nil receiver.
type Collector struct {
	registry    *prometheus.Registry
	items       *prometheus.CounterVec
	remoteCalls *prometheus.CounterVec
	remoteTime  *prometheus.HistogramVec
	runs        *prometheus.CounterVec
}

// New creates a Collector with all netsync collectors registered.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "netsync",
			Name:      "reconcile_items_total",
			Help:      "Reconciled items by entity kind and outcome.",
		}, []string{"kind", "outcome"}),
		remoteCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "netsync",
			Name:      "remote_calls_total",
			Help:      "Calls issued to the system of record.",
		}, []string{"op", "kind", "result"}),
		remoteTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "netsync",
			Name:      "remote_call_seconds",
			Help:      "Latency of calls issued to the system of record.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op", "kind"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "netsync",
			Name:      "runs_total",
			Help:      "Reconciliation runs by result.",
		}, []string{"result", "dry_run"}),
	}
	c.registry.MustRegister(c.items, c.remoteCalls, c.remoteTime, c.runs)
	return c
}

// Registry exposes the underlying registry, mostly for tests.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler returns the HTTP handler serving this collector's metrics.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// AddItems adds n items of the given kind and outcome (created, updated, ...).
func (c *Collector) AddItems(kind, outcome string, n int) {
	if c == nil || n <= 0 {
		return
	}
	c.items.WithLabelValues(kind, outcome).Add(float64(n))
}

// ObserveCall records one remote call.
func (c *Collector) ObserveCall(op, kind string, started time.Time, err error) {
	if c == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.remoteCalls.WithLabelValues(op, kind, result).Inc()
	c.remoteTime.WithLabelValues(op, kind).Observe(time.Since(started).Seconds())
}

// ObserveRun records the outcome of one device run.
func (c *Collector) ObserveRun(failed bool, dryRun bool) {
	if c == nil {
		return
	}
	result := "ok"
	if failed {
		result = "failed"
	}
	mode := "false"
	if dryRun {
		mode = "true"
	}
	c.runs.WithLabelValues(result, mode).Inc()
}
