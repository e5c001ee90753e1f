// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package tracing

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	jaegerPropagator "go.opentelemetry.io/contrib/propagators/jaeger"
)

var _ TracingInterface = (*Tracer)(nil)

type Tracer struct {
	tracer trace.Tracer
}

func (t *Tracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, opts...)
}

// NewTracer sets up the global OTel tracer provider based on the config.
// Preference order for exporters is gRPC endpoint, HTTP endpoint, stdout.
func NewTracer(c *Config) *Tracer {
	t := new(Tracer)

	if !c.Enabled {
		t.tracer = tracenoop.NewTracerProvider().Tracer("marketplace-service")
		return t
	}

	exporter, err := newExporter(c)
	if err != nil {
		c.Logger.Errorf("failed to create trace exporter: %v", err)
		t.tracer = tracenoop.NewTracerProvider().Tracer("marketplace-service")
		return t
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
			jaegerPropagator.Jaeger{},
		),
	)

	t.tracer = provider.Tracer("marketplace-service")

	return t
}

func newExporter(c *Config) (sdktrace.SpanExporter, error) {
	switch {
	case c.OtelGRPCEndpoint != "":
		return otlptrace.New(
			context.Background(),
			otlptracegrpc.NewClient(
				otlptracegrpc.WithEndpoint(c.OtelGRPCEndpoint),
				otlptracegrpc.WithInsecure(),
			),
		)
	case c.OtelHTTPEndpoint != "":
		return otlptrace.New(
			context.Background(),
			otlptracehttp.NewClient(
				otlptracehttp.WithEndpoint(c.OtelHTTPEndpoint),
				otlptracehttp.WithInsecure(),
			),
		)
	default:
		return stdouttrace.New()
	}
}

func NewNoopTracer() *Tracer {
	return &Tracer{
		tracer: tracenoop.NewTracerProvider().Tracer("marketplace-service"),
	}
}
