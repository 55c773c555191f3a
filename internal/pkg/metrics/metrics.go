package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Evaluation outcome labels
const (
	OutcomeAllowed = "allowed"
	OutcomeRisky   = "risky"
	OutcomeBlocked = "blocked"
	OutcomeError   = "error"
)

var (
	// EvaluationsTotal counts risk evaluations by outcome
	EvaluationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "risk",
		Name:      "evaluations_total",
		Help:      "Risk evaluations by outcome.",
	}, []string{"outcome"})

	// EvaluationDuration observes end-to-end evaluation latency
	EvaluationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "risk",
		Name:      "evaluation_duration_seconds",
		Help:      "End-to-end risk evaluation latency.",
		Buckets:   prometheus.DefBuckets,
	})

	// AlertsCreatedTotal counts fraud alerts by type
	AlertsCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "risk",
		Name:      "alerts_created_total",
		Help:      "Fraud alerts created, by alert type.",
	}, []string{"alert_type"})

	// CheckFailuresTotal counts swallowed check errors by check name
	CheckFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "risk",
		Name:      "check_failures_total",
		Help:      "Check module failures dropped under the fail-open policy.",
	}, []string{"check"})

	// RecordFailuresTotal counts store writes that were logged but not raised
	RecordFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "risk",
		Name:      "record_failures_total",
		Help:      "Evaluation persistence failures swallowed under fail-open.",
	})
)
