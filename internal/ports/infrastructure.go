// Package ports defines the core interfaces that form the contract between
// the domain/application layers and the infrastructure layer.
// These interfaces enable dependency inversion and make the system testable.
package ports

import (
	"context"
	"time"

	"github.com/ahrav/go-humeval/internal/domain"
)

// SignificanceTester computes pairwise significance between all systems of
// one language pair. Testers should be stateless and safe for concurrent
// use so that language pairs can be ranked in parallel.
type SignificanceTester interface {
	// Name returns a unique identifier for this tester.
	// The name is used for logging, metrics labels, and tracing.
	Name() string

	// Test returns a p-value matrix covering every ordered pair of distinct
	// systems in the dataset. Statistical edge cases such as alignment
	// gaps or degenerate samples are absorbed, never returned as errors.
	// Errors are reserved for cancellation and programming faults.
	//
	// Example:
	//
	//	matrix, err := tester.Test(ctx, ds)
	//	if err != nil {
	//	    return fmt.Errorf("tester %s failed: %w", tester.Name(), err)
	//	}
	Test(ctx context.Context, ds *domain.Dataset) (*domain.PValueMatrix, error)

	// Validate checks if the tester is properly configured.
	Validate() error
}

// JudgmentSource produces normalized judgments from one annotation wave.
// Implementations own the wave-specific file format.
type JudgmentSource interface {
	// Name identifies the source in logs and error messages.
	Name() string

	// Load reads and normalizes every usable judgment of the source.
	// Data-integrity problems are fatal and returned as *DataError.
	Load(ctx context.Context) ([]domain.Judgment, error)
}

// AutoRankSource provides auxiliary automatic-metric rankings.
type AutoRankSource interface {
	// Load returns AutoRank rows grouped by language pair.
	Load(ctx context.Context) (domain.AutoRankBook, error)
}

// ReportWriter renders a ranking report to some destination.
type ReportWriter interface {
	// Format names the output format, e.g. "table", "latex", "json".
	Format() string

	// Write renders the report.
	Write(ctx context.Context, report *domain.Report) error
}

// MetricsCollector defines the interface for collecting operational metrics.
// Implementations should integrate with observability platforms like
// Prometheus, OpenTelemetry, or custom monitoring solutions.
type MetricsCollector interface {
	// RecordLatency records the execution time of an operation.
	// The labels map provides additional context for the metric.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric.
	// This is useful for tracking events like alignment gaps or skipped domains.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordGauge sets the current value of a gauge metric.
	// This is useful for tracking values like cluster counts per language pair.
	RecordGauge(metric string, value float64, labels map[string]string)

	// RecordHistogram records a value in a histogram.
	// This is useful for tracking distributions like paired sample sizes.
	RecordHistogram(metric string, value float64, labels map[string]string)
}

// NopMetrics is a MetricsCollector that discards everything.
type NopMetrics struct{}

// RecordLatency implements MetricsCollector.
func (NopMetrics) RecordLatency(string, time.Duration, map[string]string) {}

// RecordCounter implements MetricsCollector.
func (NopMetrics) RecordCounter(string, float64, map[string]string) {}

// RecordGauge implements MetricsCollector.
func (NopMetrics) RecordGauge(string, float64, map[string]string) {}

// RecordHistogram implements MetricsCollector.
func (NopMetrics) RecordHistogram(string, float64, map[string]string) {}
