package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Version store metrics
	CommitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reddwarf_commits_total",
			Help: "Total number of version-store commits applied, by GVK and op",
		},
		[]string{"gvk", "op"},
	)

	CommitDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reddwarf_commit_duration_seconds",
			Help:    "Time taken for a version-store Apply call, in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	ConflictsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reddwarf_conflicts_total",
			Help: "Total number of optimistic-concurrency conflicts detected, by GVK",
		},
		[]string{"gvk"},
	)

	// Resource population gauges
	ResourcesTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "reddwarf_resources_total",
			Help: "Current number of live resources, by GVK",
		},
		[]string{"gvk"},
	)

	PodsByPhase = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "reddwarf_pods_by_phase",
			Help: "Current number of Pods, by phase",
		},
		[]string{"phase"},
	)

	NodesReady = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "reddwarf_nodes_ready",
			Help: "Current number of Nodes with condition Ready=True",
		},
	)

	// API metrics
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reddwarf_api_requests_total",
			Help: "Total number of API requests, by method, route, and status",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reddwarf_api_request_duration_seconds",
			Help:    "API request duration in seconds, by method and route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	WatchSubscribersTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "reddwarf_watch_subscribers_total",
			Help: "Current number of open watch streams, by GVK",
		},
		[]string{"gvk"},
	)

	WatchOverflowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reddwarf_watch_overflows_total",
			Help: "Total number of watch subscriptions that overflowed their buffer",
		},
		[]string{"gvk"},
	)

	// Controller metrics
	ReconciliationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reddwarf_reconciliation_duration_seconds",
			Help:    "Time taken for one controller reconciliation cycle, in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	ReconciliationCyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reddwarf_reconciliation_cycles_total",
			Help: "Total number of controller reconciliation cycles run",
		},
	)

	ReconcileRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reddwarf_reconcile_retries_total",
			Help: "Total number of reconcile retries, by GVK and error kind",
		},
		[]string{"gvk", "kind"},
	)

	// Runtime (zone) metrics
	ZoneOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reddwarf_zone_operation_duration_seconds",
			Help:    "Time taken for a runtime.Runtime operation, by operation",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	ZoneOperationFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reddwarf_zone_operation_failures_total",
			Help: "Total number of failed runtime.Runtime operations, by operation",
		},
		[]string{"operation"},
	)
)

func init() {
	prometheus.MustRegister(CommitsTotal)
	prometheus.MustRegister(CommitDuration)
	prometheus.MustRegister(ConflictsTotal)
	prometheus.MustRegister(ResourcesTotal)
	prometheus.MustRegister(PodsByPhase)
	prometheus.MustRegister(NodesReady)
	prometheus.MustRegister(APIRequestsTotal)
	prometheus.MustRegister(APIRequestDuration)
	prometheus.MustRegister(WatchSubscribersTotal)
	prometheus.MustRegister(WatchOverflowsTotal)
	prometheus.MustRegister(ReconciliationDuration)
	prometheus.MustRegister(ReconciliationCyclesTotal)
	prometheus.MustRegister(ReconcileRetriesTotal)
	prometheus.MustRegister(ZoneOperationDuration)
	prometheus.MustRegister(ZoneOperationFailuresTotal)
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations against a histogram.
type Timer struct {
	start time.Time
}

// NewTimer starts a new Timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed time to histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the elapsed time to a labeled histogram.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the Timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
