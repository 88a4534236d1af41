// Package metrics provides Prometheus instrumentation for flowline's
// pipeline components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metric instances for the pipeline.
type Registry struct {
	// MessagesReceived counts raw payloads pulled from the ingress transport.
	MessagesReceived prometheus.Counter

	// StageSuccesses counts successful Handle invocations per stage.
	StageSuccesses *prometheus.CounterVec

	// StageErrors counts failed Handle invocations per stage and error kind.
	StageErrors *prometheus.CounterVec

	// StageDuration observes per-stage transform latency in seconds.
	StageDuration *prometheus.HistogramVec

	// Pipelines counts full pipeline traversals by outcome
	// (completed / not_completed).
	Pipelines *prometheus.CounterVec
}

// NewRegistry creates a metrics registry with the given Prometheus
// registerer. Pass prometheus.DefaultRegisterer for the process-wide
// registry, or a private one in tests.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		MessagesReceived: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "flowline",
				Subsystem: "ingress",
				Name:      "messages_received_total",
				Help:      "Total number of payloads received from the transport",
			},
		),

		StageSuccesses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "flowline",
				Subsystem: "stage",
				Name:      "success_total",
				Help:      "Total number of successful stage invocations",
			},
			[]string{"stage"},
		),

		StageErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "flowline",
				Subsystem: "stage",
				Name:      "errors_total",
				Help:      "Total number of failed stage invocations",
			},
			[]string{"stage", "kind"},
		),

		StageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "flowline",
				Subsystem: "stage",
				Name:      "duration_seconds",
				Help:      "Stage transform latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"stage"},
		),

		Pipelines: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "flowline",
				Subsystem: "pipeline",
				Name:      "runs_total",
				Help:      "Total number of full pipeline traversals by outcome",
			},
			[]string{"status"},
		),
	}
}
