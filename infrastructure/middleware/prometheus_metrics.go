// Package middleware provides cross-cutting concerns for the ranking engine:
// Prometheus metrics, OpenTelemetry tracing around significance testers and
// trace export.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ahrav/go-humeval/internal/ports"
)

const (
	metricNamespace = "humrank"
	unknownLabel    = "unknown"
)

// Metric names with dedicated collectors. Anything else is routed to the
// generic events counter, state gauge or values histogram.
const (
	MetricClusters          = "clusters"
	MetricPairedSegments    = "paired_segments"
	MetricExcludedLanguages = "excluded_language_pairs"
)

// PrometheusMetrics implements the MetricsCollector interface using
// Prometheus. It tracks ranking latency per language pair, statistical
// edge cases absorbed by the tester, and cluster counts.
type PrometheusMetrics struct {
	operationLatency *prometheus.HistogramVec
	events           *prometheus.CounterVec
	clusters         *prometheus.GaugeVec
	stateGauges      *prometheus.GaugeVec
	pairedSegments   *prometheus.HistogramVec
	values           *prometheus.HistogramVec
}

// NewPrometheusMetrics creates a PrometheusMetrics instance and registers
// its collectors with reg. A nil reg uses the global default registerer.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		operationLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricNamespace,
				Name:      "operation_duration_seconds",
				Help:      "Execution time of ranking operations.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation", "language_pair"},
		),
		events: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricNamespace,
				Name:      "events_total",
				Help:      "Alignment gaps, degenerate samples, skipped domains and exclusions.",
			},
			[]string{"event", "language_pair"},
		),
		clusters: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: metricNamespace,
				Name:      "clusters",
				Help:      "Number of significance clusters per language pair.",
			},
			[]string{"language_pair"},
		),
		stateGauges: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: metricNamespace,
				Name:      "state",
				Help:      "Other ranking state values.",
			},
			[]string{"metric", "language_pair"},
		),
		pairedSegments: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricNamespace,
				Name:      "paired_segments",
				Help:      "Number of aligned segment pairs per system comparison and domain.",
				Buckets:   prometheus.ExponentialBuckets(5, 2, 10),
			},
			[]string{"language_pair"},
		),
		values: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricNamespace,
				Name:      "values",
				Help:      "Distribution of other recorded values.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"metric", "language_pair"},
		),
	}
}

func languagePair(labels map[string]string) string {
	if lp := labels["language_pair"]; lp != "" {
		return lp
	}
	return unknownLabel
}

// RecordLatency implements the MetricsCollector interface by recording
// execution latency in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordLatency(
	operation string,
	duration time.Duration,
	labels map[string]string,
) {
	pm.operationLatency.WithLabelValues(operation, languagePair(labels)).Observe(duration.Seconds())
}

// RecordCounter implements the MetricsCollector interface by incrementing
// the events counter.
func (pm *PrometheusMetrics) RecordCounter(
	metric string, value float64, labels map[string]string,
) {
	pm.events.WithLabelValues(metric, languagePair(labels)).Add(value)
}

// RecordGauge implements the MetricsCollector interface by setting
// Prometheus gauge values.
func (pm *PrometheusMetrics) RecordGauge(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case MetricClusters:
		pm.clusters.WithLabelValues(languagePair(labels)).Set(value)
	default:
		pm.stateGauges.WithLabelValues(metric, languagePair(labels)).Set(value)
	}
}

// RecordHistogram implements the MetricsCollector interface by recording
// values in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordHistogram(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case MetricPairedSegments:
		pm.pairedSegments.WithLabelValues(languagePair(labels)).Observe(value)
	default:
		pm.values.WithLabelValues(metric, languagePair(labels)).Observe(value)
	}
}

// Compile-time verification that PrometheusMetrics implements MetricsCollector.
var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)
