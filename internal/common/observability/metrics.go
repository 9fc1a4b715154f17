// Package observability exposes OpenTelemetry instruments and spans through
// the Prometheus registry.
package observability

import (
	"context"
	"errors"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	toolCalls      otelmetric.Int64Counter
	toolDuration   otelmetric.Float64Histogram
}

// New installs global meter and tracer providers backed by the Prometheus
// exporter on the default registry. If the exporter cannot be registered a
// no-op instance is returned.
func New(serviceName string) (*Observability, error) {
	o, err := newWithRegisterer(serviceName, promclient.DefaultRegisterer)
	if err != nil {
		return NewNoop(), err
	}
	otel.SetMeterProvider(o.meterProvider)
	otel.SetTracerProvider(o.tracerProvider)
	return o, nil
}

func newWithRegisterer(serviceName string, registerer promclient.Registerer) (*Observability, error) {
	exporter, err := prometheus.New(prometheus.WithRegisterer(registerer))
	if err != nil {
		return nil, err
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	meter := provider.Meter(serviceName)

	tracerProvider, err := newTracerProvider(serviceName, meter)
	if err != nil {
		return nil, err
	}

	toolCalls, err := meter.Int64Counter(
		"agent.tool.calls",
		otelmetric.WithDescription("Agent tool invocations by task type and tool status"),
	)
	if err != nil {
		return nil, err
	}

	toolDuration, err := meter.Float64Histogram(
		"agent.tool.duration",
		otelmetric.WithDescription("Agent tool processing duration"),
		otelmetric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &Observability{
		meterProvider:  provider,
		tracerProvider: tracerProvider,
		toolCalls:      toolCalls,
		toolDuration:   toolDuration,
	}, nil
}

// NewNoop returns an instance whose recorders do nothing.
func NewNoop() *Observability {
	return &Observability{}
}

// Tracer returns a tracer whose spans are counted on /metrics, or a no-op
// tracer for a no-op instance.
func (o *Observability) Tracer(name string) trace.Tracer {
	if o == nil || o.tracerProvider == nil {
		return noop.NewTracerProvider().Tracer(name)
	}
	return o.tracerProvider.Tracer(name)
}

func (o *Observability) RecordToolCall(ctx context.Context, taskType, status string, duration time.Duration) {
	if o == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("task_type", taskType),
		attribute.String("status", status),
	)
	if o.toolCalls != nil {
		o.toolCalls.Add(ctx, 1, attrs)
	}
	if o.toolDuration != nil {
		o.toolDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	}
}

func (o *Observability) Shutdown(ctx context.Context) error {
	if o == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var errs []error
	if o.tracerProvider != nil {
		errs = append(errs, o.tracerProvider.Shutdown(ctx))
	}
	if o.meterProvider != nil {
		errs = append(errs, o.meterProvider.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
