package middleware

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/go-humeval/internal/domain"
	"github.com/ahrav/go-humeval/internal/ports"
)

var _ ports.SignificanceTester = (*TracingTester)(nil)

// TracingTester decorates a SignificanceTester with an OpenTelemetry span
// per language pair and a latency metric. It adds no state of its own, so
// it is as safe for concurrent use as the tester it wraps.
type TracingTester struct {
	next    ports.SignificanceTester
	metrics ports.MetricsCollector
	tracer  trace.Tracer
}

// NewTracingTester wraps next. A nil metrics collector disables the latency
// metric.
func NewTracingTester(next ports.SignificanceTester, metrics ports.MetricsCollector) *TracingTester {
	if next == nil {
		panic("tracing tester: next tester is required")
	}
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &TracingTester{
		next:    next,
		metrics: metrics,
		tracer:  otel.Tracer("humeval/significance"),
	}
}

// WithTracing returns a decorator suitable for the ranker factory's wrap
// list.
func WithTracing(metrics ports.MetricsCollector) func(ports.SignificanceTester) ports.SignificanceTester {
	return func(next ports.SignificanceTester) ports.SignificanceTester {
		return NewTracingTester(next, metrics)
	}
}

// Name returns the wrapped tester's name.
func (t *TracingTester) Name() string { return t.next.Name() }

// Validate delegates to the wrapped tester.
func (t *TracingTester) Validate() error { return t.next.Validate() }

// Test runs the wrapped tester inside a span describing the dataset and
// the resulting matrix.
func (t *TracingTester) Test(ctx context.Context, ds *domain.Dataset) (*domain.PValueMatrix, error) {
	lp := ds.LanguagePair().String()
	ctx, span := t.tracer.Start(ctx, "SignificanceTester.Test")
	defer span.End()

	span.SetAttributes(
		attribute.String("tester.name", t.next.Name()),
		attribute.String("dataset.language_pair", lp),
		attribute.Int("dataset.systems", len(ds.SystemIDs())),
		attribute.Int("dataset.domains", len(ds.Domains())),
		attribute.Int("dataset.judgments", ds.Len()),
	)

	start := time.Now()
	matrix, err := t.next.Test(ctx, ds)
	t.metrics.RecordLatency("significance_test", time.Since(start), map[string]string{
		"language_pair": lp,
		"tester":        t.next.Name(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("matrix.entries", matrix.Len()),
		attribute.Bool("matrix.complete", matrix.Complete()),
	)
	if !matrix.Complete() {
		span.AddEvent("matrix.incomplete")
	}
	span.SetStatus(codes.Ok, "")
	return matrix, nil
}
