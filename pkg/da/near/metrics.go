package near

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

const (
	// MetricsSubsystem is a subsystem shared by all metrics exposed by this
	// package.
	MetricsSubsystem = "near_da"
)

// Operation names used to key OperationDuration.
const (
	OperationSubmit  = "submit"
	OperationGet     = "get"
	OperationGetAll  = "get_all"
	OperationFastGet = "fast_get"
)

// Operations returns every operation tracked by OperationDuration.
func Operations() []string {
	return []string{OperationSubmit, OperationGet, OperationGetAll, OperationFastGet}
}

// Metrics contains all metrics exposed by this package.
type Metrics struct {
	PrimaryFailures  metrics.Counter // Requests that failed against the primary endpoint
	ArchiveFallbacks metrics.Counter // Requests retried against the archive endpoint
	ArchiveFailures  metrics.Counter // Fallback attempts that failed as well
	SubmittedBlobs   metrics.Counter
	NotFound         metrics.Counter

	OperationDuration map[string]metrics.Histogram
}

// PrometheusMetrics returns Metrics built using Prometheus client library
func PrometheusMetrics(namespace string, labelsAndValues ...string) *Metrics {
	labels := []string{}
	for i := 0; i < len(labelsAndValues); i += 2 {
		labels = append(labels, labelsAndValues[i])
	}

	m := &Metrics{
		OperationDuration: make(map[string]metrics.Histogram),
	}

	m.PrimaryFailures = prometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: MetricsSubsystem,
		Name:      "primary_failures_total",
		Help:      "Total number of requests that failed against the primary endpoint.",
	}, labels).With(labelsAndValues...)

	m.ArchiveFallbacks = prometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: MetricsSubsystem,
		Name:      "archive_fallbacks_total",
		Help:      "Total number of requests retried against the archive endpoint.",
	}, labels).With(labelsAndValues...)

	m.ArchiveFailures = prometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: MetricsSubsystem,
		Name:      "archive_failures_total",
		Help:      "Total number of archive fallbacks that failed.",
	}, labels).With(labelsAndValues...)

	m.SubmittedBlobs = prometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: MetricsSubsystem,
		Name:      "submitted_blobs_total",
		Help:      "Total number of blobs included on chain.",
	}, labels).With(labelsAndValues...)

	m.NotFound = prometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: MetricsSubsystem,
		Name:      "blob_not_found_total",
		Help:      "Total number of lookups that found no blob.",
	}, labels).With(labelsAndValues...)

	for _, op := range Operations() {
		m.OperationDuration[op] = prometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "operation_duration_seconds",
			Help:      "Duration of DA operations in seconds",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			ConstLabels: map[string]string{
				"operation": op,
			},
		}, labels).With(labelsAndValues...)
	}

	return m
}

// NopMetrics returns no-op Metrics
func NopMetrics() *Metrics {
	m := &Metrics{
		PrimaryFailures:   discard.NewCounter(),
		ArchiveFallbacks:  discard.NewCounter(),
		ArchiveFailures:   discard.NewCounter(),
		SubmittedBlobs:    discard.NewCounter(),
		NotFound:          discard.NewCounter(),
		OperationDuration: make(map[string]metrics.Histogram),
	}

	for _, op := range Operations() {
		m.OperationDuration[op] = discard.NewHistogram()
	}

	return m
}

func (m *Metrics) observeDuration(op string, seconds float64) {
	if h, ok := m.OperationDuration[op]; ok {
		h.Observe(seconds)
	}
}
