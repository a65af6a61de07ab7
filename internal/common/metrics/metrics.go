// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alloy_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "alloy_http_request_duration_seconds",
			Help:    "Duration of HTTP request handling in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "alloy_http_requests_in_flight",
			Help: "Number of HTTP requests currently being served",
		},
	)

	PredictionsCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "alloy_predictions_completed_total",
			Help: "Total number of prediction requests answered with all three predictions",
		},
	)

	PredictionsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alloy_predictions_failed_total",
			Help: "Total number of prediction requests that failed",
		},
		[]string{"error_code"},
	)

	ModelsLoaded = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "alloy_models_loaded",
			Help: "Loaded model per slot, labelled with its type",
		},
		[]string{"slot", "model_type"},
	)
)
