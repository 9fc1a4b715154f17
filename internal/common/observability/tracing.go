package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// spanMetrics turns every finished span into a count and a duration sample,
// labelled by span name and status, so store and tool spans show up on
// /metrics without a trace collector.
type spanMetrics struct {
	spans    otelmetric.Int64Counter
	duration otelmetric.Float64Histogram
}

func newSpanMetrics(meter otelmetric.Meter) (*spanMetrics, error) {
	spans, err := meter.Int64Counter(
		"crediflow.spans",
		otelmetric.WithDescription("Finished spans by name and status"),
	)
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram(
		"crediflow.span.duration",
		otelmetric.WithDescription("Span duration by name and status"),
		otelmetric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}
	return &spanMetrics{spans: spans, duration: duration}, nil
}

func (m *spanMetrics) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

func (m *spanMetrics) OnEnd(s sdktrace.ReadOnlySpan) {
	status := "ok"
	if s.Status().Code == codes.Error {
		status = "error"
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("span_name", s.Name()),
		attribute.String("status", status),
	)
	ctx := context.Background()
	m.spans.Add(ctx, 1, attrs)
	m.duration.Record(ctx, float64(s.EndTime().Sub(s.StartTime()).Microseconds())/1000, attrs)
}

func (m *spanMetrics) Shutdown(context.Context) error   { return nil }
func (m *spanMetrics) ForceFlush(context.Context) error { return nil }

func newTracerProvider(serviceName string, meter otelmetric.Meter) (*sdktrace.TracerProvider, error) {
	processor, err := newSpanMetrics(meter)
	if err != nil {
		return nil, err
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", serviceName))),
		sdktrace.WithSpanProcessor(processor),
	), nil
}
