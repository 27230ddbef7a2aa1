package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	signupPersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "roster_service",
		Subsystem: "persistence",
		Name:      "last_signup_recorded_timestamp_seconds",
		Help:      "Unix timestamp of the most recent signup persisted to Postgres.",
	})
	signupRemovedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "roster_service",
		Subsystem: "persistence",
		Name:      "last_signup_removed_timestamp_seconds",
		Help:      "Unix timestamp of the most recent signup removal persisted to Postgres.",
	})
	signupOutcomeCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "roster_service",
		Subsystem: "api",
		Name:      "signup_outcomes_total",
		Help:      "Signup and unregister outcomes by operation and result.",
	}, []string{"operation", "outcome"})
)

func init() {
	prometheus.MustRegister(signupPersistGauge, signupRemovedGauge, signupOutcomeCounter)
}

// RecordSignupPersisted updates the persistence watermark gauge.
func RecordSignupPersisted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	signupPersistGauge.Set(float64(ts.Unix()))
}

// RecordSignupRemoved updates the removal watermark gauge.
func RecordSignupRemoved(ts time.Time) {
	if ts.IsZero() {
		return
	}
	signupRemovedGauge.Set(float64(ts.Unix()))
}

// RecordOutcome counts one operation result, e.g. ("signup", "capacity_exceeded").
func RecordOutcome(operation, outcome string) {
	signupOutcomeCounter.WithLabelValues(operation, outcome).Inc()
}
