// Package metrics provides Prometheus metrics for the RoadLens dashboard client.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns all Prometheus collectors for the dashboard client.
type Manager struct {
	namespace string
	registry  *prometheus.Registry

	// Dispatcher metrics
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	transportErrors *prometheus.CounterVec

	// Session metrics
	logins       prometheus.Counter
	authFailures prometheus.Counter

	// Poller metrics
	pollCycles   prometheus.Counter
	pollFailures prometheus.Counter

	// Aggregator metrics
	aggregations        prometheus.Counter
	aggregationFailures prometheus.Counter
	staleAggregations   prometheus.Counter
	aggregationLatency  prometheus.Histogram

	// Mutation metrics
	reviewSubmissions *prometheus.CounterVec
	tokenMutations    *prometheus.CounterVec
}

var globalManager *Manager

// NewManager builds a Manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "roadlens",
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}

	auto := promauto.With(m.registry)

	m.requests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "backend_requests_total",
		Help:      "Backend requests by operation and HTTP status class.",
	}, []string{"operation", "status_class"})

	m.requestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "backend_request_duration_seconds",
		Help:      "Backend request latency by operation.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})

	m.transportErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "backend_transport_errors_total",
		Help:      "Requests that never reached the backend.",
	}, []string{"operation"})

	m.logins = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "session_logins_total",
		Help:      "Successful credential acquisitions.",
	})

	m.authFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "session_auth_failures_total",
		Help:      "Rejected or failed credential acquisitions.",
	})

	m.pollCycles = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "poll_cycles_total",
		Help:      "Completed job list poll cycles.",
	})

	m.pollFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "poll_failures_total",
		Help:      "Poll cycles that surfaced an error and kept the stale list.",
	})

	m.aggregations = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "detail_aggregations_total",
		Help:      "Job detail aggregations completed.",
	})

	m.aggregationFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "detail_aggregation_failures_total",
		Help:      "Job detail aggregations aborted by a required resource.",
	})

	m.staleAggregations = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "detail_aggregations_superseded_total",
		Help:      "In-flight aggregations discarded because a newer one started.",
	})

	m.aggregationLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "detail_aggregation_duration_seconds",
		Help:      "Wall time of the six-way detail fan-out.",
		Buckets:   prometheus.DefBuckets,
	})

	m.reviewSubmissions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "review_submissions_total",
		Help:      "Event review mutations by decision.",
	}, []string{"decision"})

	m.tokenMutations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "token_mutations_total",
		Help:      "API token mutations by action.",
	}, []string{"action"})

	return m
}

// Init installs the global manager used by the package-level helpers.
func Init(opts ...Option) {
	globalManager = NewManager(opts...)
}

func get() *Manager {
	if globalManager == nil {
		globalManager = NewManager()
	}
	return globalManager
}

// Handler exposes the registry for an optional promhttp endpoint.
func Handler() http.Handler {
	m := get()
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Package-level recording helpers.

func RecordRequest(operation, statusClass string) {
	get().requests.WithLabelValues(operation, statusClass).Inc()
}

func RecordRequestDuration(operation string, seconds float64) {
	get().requestDuration.WithLabelValues(operation).Observe(seconds)
}

func RecordTransportError(operation string) {
	get().transportErrors.WithLabelValues(operation).Inc()
}

func RecordLogin()       { get().logins.Inc() }
func RecordAuthFailure() { get().authFailures.Inc() }

func RecordPollCycle()   { get().pollCycles.Inc() }
func RecordPollFailure() { get().pollFailures.Inc() }

func RecordAggregation()        { get().aggregations.Inc() }
func RecordAggregationFailure() { get().aggregationFailures.Inc() }
func RecordStaleAggregation()   { get().staleAggregations.Inc() }

func RecordAggregationLatency(seconds float64) {
	get().aggregationLatency.Observe(seconds)
}

func RecordReviewSubmission(decision string) {
	get().reviewSubmissions.WithLabelValues(decision).Inc()
}

func RecordTokenMutation(action string) {
	get().tokenMutations.WithLabelValues(action).Inc()
}
