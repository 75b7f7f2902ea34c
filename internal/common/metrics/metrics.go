// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ModelCallsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "model_calls_completed_total",
			Help: "Total number of successful model calls",
		},
		[]string{"operation"},
	)

	ModelCallsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "model_calls_failed_total",
			Help: "Total number of failed model calls",
		},
		[]string{"operation", "error_code"},
	)

	ModelCallRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "model_call_retries_total",
			Help: "Total number of retried model call attempts",
		},
		[]string{"reason"},
	)

	ModelCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "model_call_duration_seconds",
			Help: "Duration of model calls in seconds",
		},
		[]string{"operation"},
	)
)
