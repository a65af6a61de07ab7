package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"alloy-predictor/internal/common/config"
)

// Tracing owns the tracer provider for the process.
type Tracing struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// NoopTracing returns a Tracing whose spans are never recorded.
func NoopTracing(serviceName string) *Tracing {
	return &Tracing{tracer: noop.NewTracerProvider().Tracer(serviceName)}
}

// NewTracing exports spans to Jaeger when enabled, otherwise it is a no-op.
func NewTracing(cfg config.TracingConfig, serviceName, version string) (*Tracing, error) {
	if !cfg.Enabled {
		return NoopTracing(serviceName), nil
	}

	exporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(cfg.JaegerEndpoint)))
	if err != nil {
		return nil, fmt.Errorf("create jaeger exporter: %w", err)
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", serviceName),
		attribute.String("service.version", version),
	)

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	)
	otel.SetTracerProvider(provider)

	return &Tracing{provider: provider, tracer: provider.Tracer(serviceName)}, nil
}

func (t *Tracing) Tracer() trace.Tracer {
	return t.tracer
}

// Shutdown flushes pending spans.
func (t *Tracing) Shutdown(ctx context.Context) error {
	if t.provider == nil {
		return nil
	}
	return t.provider.Shutdown(ctx)
}
