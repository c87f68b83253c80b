package services

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	providerCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "selfieapi",
			Name:      "provider_calls_total",
			Help:      "Provider calls by provider, operation and outcome",
		},
		[]string{"provider", "operation", "outcome"},
	)

	providerCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "selfieapi",
			Name:      "provider_call_duration_seconds",
			Help:      "Provider call latency in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 90, 120},
		},
		[]string{"provider", "operation"},
	)

	generationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "selfieapi",
			Name:      "generations_total",
			Help:      "Generation requests by pipeline and outcome (full, partial, failed)",
		},
		[]string{"pipeline", "outcome"},
	)

	rewriteFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "selfieapi",
			Name:      "rewrite_fallbacks_total",
			Help:      "Generations that used the fallback prompt instead of a rewritten one",
		},
		[]string{"pipeline"},
	)

	paddedImagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "selfieapi",
			Name:      "padded_images_total",
			Help:      "Images duplicated to fill the fixed response size",
		},
		[]string{"pipeline"},
	)
)

func callOutcome(err error) string {
	var upstream *UpstreamError
	var shape *DataShapeError
	var configuration *ConfigurationError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &upstream):
		return "upstream_error"
	case errors.As(err, &shape):
		return "data_error"
	case errors.As(err, &configuration):
		return "configuration_error"
	default:
		return "error"
	}
}

func observeProviderCall(provider, operation string, started time.Time, err error) {
	providerCallsTotal.WithLabelValues(provider, operation, callOutcome(err)).Inc()
	providerCallDuration.WithLabelValues(provider, operation).Observe(time.Since(started).Seconds())
}

func observeGeneration(pipeline string, succeeded, wanted int) {
	outcome := "full"
	switch {
	case succeeded == 0:
		outcome = "failed"
	case succeeded < wanted:
		outcome = "partial"
		paddedImagesTotal.WithLabelValues(pipeline).Add(float64(wanted - succeeded))
	}
	generationsTotal.WithLabelValues(pipeline, outcome).Inc()
}

func observeRewrite(pipeline string, rewritten bool) {
	if !rewritten {
		rewriteFallbacksTotal.WithLabelValues(pipeline).Inc()
	}
}
