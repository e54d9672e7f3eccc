package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	passageDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toll_passage_decisions_total",
			Help: "Passage evaluations by toll and decision",
		},
		[]string{"toll_id", "decision"},
	)

	passageDenials = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toll_passage_denials_total",
			Help: "Denied passages by reason",
		},
		[]string{"toll_id", "reason"},
	)

	passPurchases = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toll_pass_purchases_total",
			Help: "Pass purchases by pass type",
		},
		[]string{"toll_id", "pass_type"},
	)

	saveConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "toll_pass_save_conflicts_total",
			Help: "Optimistic save conflicts during passage evaluation",
		},
	)

	evaluationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "toll_passage_evaluation_seconds",
			Help:    "Duration of passage evaluations",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"toll_id"},
	)
)

// ObservePassage records a passage decision.
func ObservePassage(tollID string, allowed bool, elapsed time.Duration) {
	decision := "denied"
	if allowed {
		decision = "allowed"
	}
	passageDecisions.WithLabelValues(tollID, decision).Inc()
	evaluationDuration.WithLabelValues(tollID).Observe(elapsed.Seconds())
}

// ObserveDenial records the reason a passage was denied.
func ObserveDenial(tollID, reason string) {
	passageDenials.WithLabelValues(tollID, reason).Inc()
}

// ObservePurchase records a pass purchase.
func ObservePurchase(tollID string, passType string) {
	passPurchases.WithLabelValues(tollID, passType).Inc()
}

// ObserveSaveConflict records an optimistic concurrency conflict.
func ObserveSaveConflict() {
	saveConflicts.Inc()
}
