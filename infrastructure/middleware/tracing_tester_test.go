package middleware

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/ahrav/go-humeval/internal/domain"
	"github.com/ahrav/go-humeval/internal/ports"
)

type stubTester struct {
	pvalue float64
	err    error
	calls  int
}

func (s *stubTester) Name() string    { return "stub" }
func (s *stubTester) Validate() error { return nil }

func (s *stubTester) Test(_ context.Context, ds *domain.Dataset) (*domain.PValueMatrix, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	ids := ds.SystemIDs()
	m := domain.NewPValueMatrix(ids)
	for _, a := range ids {
		for _, b := range ids {
			if a != b {
				if err := m.Set(a, b, s.pvalue); err != nil {
					return nil, err
				}
			}
		}
	}
	return m, nil
}

type latencyRecorder struct {
	ports.NopMetrics
	operations []string
}

func (l *latencyRecorder) RecordLatency(op string, _ time.Duration, _ map[string]string) {
	l.operations = append(l.operations, op)
}

func twoSystemDataset(t *testing.T) *domain.Dataset {
	t.Helper()
	datasets, err := domain.BuildDatasets([]domain.Judgment{
		{SystemID: "A", SegmentKey: "d-0-en-de", Domain: "news", Score: 80, LanguagePair: "en-de"},
		{SystemID: "B", SegmentKey: "d-0-en-de", Domain: "news", Score: 60, LanguagePair: "en-de"},
	})
	require.NoError(t, err)
	return datasets["en-de"]
}

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return recorder
}

func attr(span sdktrace.ReadOnlySpan, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTracingTester_Success(t *testing.T) {
	recorder := withRecorder(t)
	stub := &stubTester{pvalue: 0.5}
	metrics := &latencyRecorder{}

	tester := NewTracingTester(stub, metrics)
	assert.Equal(t, "stub", tester.Name())
	require.NoError(t, tester.Validate())

	m, err := tester.Test(context.Background(), twoSystemDataset(t))
	require.NoError(t, err)
	assert.True(t, m.Complete())
	assert.Equal(t, 1, stub.calls)
	assert.Equal(t, []string{"significance_test"}, metrics.operations)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "SignificanceTester.Test", span.Name())
	assert.Equal(t, codes.Ok, span.Status().Code)

	lp, ok := attr(span, "dataset.language_pair")
	require.True(t, ok)
	assert.Equal(t, "en-de", lp.AsString())
	entries, ok := attr(span, "matrix.entries")
	require.True(t, ok)
	assert.Equal(t, int64(2), entries.AsInt64())
}

func TestTracingTester_Error(t *testing.T) {
	recorder := withRecorder(t)
	boom := errors.New("boom")

	tester := WithTracing(nil)(&stubTester{err: boom})
	_, err := tester.Test(context.Background(), twoSystemDataset(t))
	require.ErrorIs(t, err, boom)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "boom", spans[0].Status().Description)
}

func TestNewTracingTester_RequiresNext(t *testing.T) {
	assert.Panics(t, func() { NewTracingTester(nil, nil) })
}

func TestInitTracing(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	var buf bytes.Buffer
	shutdown, err := InitTracing(&buf)
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "probe")
	span.End()
	require.NoError(t, shutdown(context.Background()))

	assert.Contains(t, buf.String(), `"Name":"probe"`)
}
