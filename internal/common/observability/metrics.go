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
	"go.opentelemetry.io/otel/trace"

	"alloy-predictor/internal/common/logger"
)

// Options configures New. Nil Registerer means the default Prometheus
// registry; nil Tracing means spans are dropped.
type Options struct {
	ServiceName string
	Registerer  promclient.Registerer
	Tracing     *Tracing
	Logger      logger.Logger
}

type Observability struct {
	meterProvider     *metric.MeterProvider
	meter             otelmetric.Meter
	inferenceCounter  otelmetric.Int64Counter
	inferenceDuration otelmetric.Float64Histogram
	tracing           *Tracing
}

func New(opts Options) *Observability {
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	tracing := opts.Tracing
	if tracing == nil {
		tracing = NoopTracing(opts.ServiceName)
	}

	exporterOpts := []prometheus.Option{}
	if opts.Registerer != nil {
		exporterOpts = append(exporterOpts, prometheus.WithRegisterer(opts.Registerer))
	}
	exporter, err := prometheus.New(exporterOpts...)
	if err != nil {
		log.Warn("Failed to create Prometheus exporter", map[string]interface{}{"error": err.Error()})
		return &Observability{tracing: tracing}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(opts.ServiceName)

	inferenceCounter, _ := meter.Int64Counter(
		"model.inferences",
		otelmetric.WithDescription("Number of model predict calls"),
	)

	inferenceDuration, _ := meter.Float64Histogram(
		"model.inference.duration",
		otelmetric.WithDescription("Model predict call duration"),
		otelmetric.WithUnit("ms"),
	)

	return &Observability{
		meterProvider:     provider,
		meter:             meter,
		inferenceCounter:  inferenceCounter,
		inferenceDuration: inferenceDuration,
		tracing:           tracing,
	}
}

// RecordInference counts one predict call and records its latency.
func (o *Observability) RecordInference(ctx context.Context, slot, modelType string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("slot", slot),
		attribute.String("model_type", modelType),
		attribute.String("status", status),
	)

	if o.inferenceCounter != nil {
		o.inferenceCounter.Add(ctx, 1, attrs)
	}
	if o.inferenceDuration != nil {
		o.inferenceDuration.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	}
}

// StartSpan starts a span on the configured tracer.
func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return o.tracing.Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

func (o *Observability) Shutdown(ctx context.Context) error {
	var errs []error
	if o.meterProvider != nil {
		errs = append(errs, o.meterProvider.Shutdown(ctx))
	}
	if o.tracing != nil {
		errs = append(errs, o.tracing.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
