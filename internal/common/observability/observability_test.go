package observability

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"alloy-predictor/internal/common/config"
	"alloy-predictor/internal/common/logger"
)

func TestRecordInference_ExportsToRegistry(t *testing.T) {
	reg := promclient.NewRegistry()
	obs := New(Options{ServiceName: "alloy-predictor-test", Registerer: reg, Logger: logger.NewTestLogger(t)})
	defer obs.Shutdown(context.Background())

	ctx := context.Background()
	obs.RecordInference(ctx, "yield_strength", "gradient_boosting", 2*time.Millisecond, nil)
	obs.RecordInference(ctx, "elongation", "random_forest", time.Millisecond, errors.New("Input contains NaN"))

	families, err := reg.Gather()
	require.NoError(t, err)

	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	joined := strings.Join(names, ",")
	assert.Contains(t, joined, "model_inferences")
	assert.Contains(t, joined, "model_inference_duration")
}

func TestStartSpan_UsesConfiguredTracer(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracing := &Tracing{provider: provider, tracer: provider.Tracer("test")}

	obs := New(Options{ServiceName: "test", Registerer: promclient.NewRegistry(), Tracing: tracing})

	_, span := obs.StartSpan(context.Background(), "model.predict", attribute.String("slot", "tensile_strength"))
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "model.predict", ended[0].Name())
	assert.Contains(t, ended[0].Attributes(), attribute.String("slot", "tensile_strength"))

	require.NoError(t, obs.Shutdown(context.Background()))
}

func TestNewTracing_DisabledIsNoop(t *testing.T) {
	tracing, err := NewTracing(config.TracingConfig{Enabled: false}, "svc", "dev")
	require.NoError(t, err)

	_, span := tracing.Tracer().Start(context.Background(), "ignored")
	assert.False(t, span.SpanContext().IsValid())
	span.End()
	assert.NoError(t, tracing.Shutdown(context.Background()))
}
