// Package metrics exposes the engine's Prometheus instrumentation. Label
// values are confined to entity types, rule names and outcome classes; no
// processed content ever reaches a metric.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the engine collectors.
type Metrics struct {
	Redactions       *prometheus.CounterVec
	SpansEmitted     *prometheus.CounterVec
	RecognizerFaults *prometheus.CounterVec
	PassTwoDiscards  prometheus.Counter
	Duration         prometheus.Histogram
}

// New registers the engine collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Redactions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cliniredact_redactions_total",
			Help: "Redaction requests by outcome",
		}, []string{"outcome"}),
		SpansEmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cliniredact_spans_total",
			Help: "Accepted spans by entity type",
		}, []string{"entity_type"}),
		RecognizerFaults: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cliniredact_recognizer_faults_total",
			Help: "Recognizers skipped after an unexpected failure",
		}, []string{"rule"}),
		PassTwoDiscards: factory.NewCounter(prometheus.CounterOpts{
			Name: "cliniredact_pass_two_discards_total",
			Help: "Pass-2 name hits discarded by the provider safety check",
		}),
		Duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "cliniredact_redaction_duration_seconds",
			Help:    "Wall time per redaction request",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
