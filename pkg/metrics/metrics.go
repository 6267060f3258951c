// Package metrics exposes the engine's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EvaluationsTotal counts evaluation cycles by outcome: "run" or "skipped".
	EvaluationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "decision_engine_evaluations_total",
		Help: "Evaluation cycles executed, by outcome.",
	}, []string{"outcome"})

	// DecisionsCreated counts persisted decisions by initial status.
	DecisionsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "decision_engine_decisions_created_total",
		Help: "Decisions created, by initial status.",
	}, []string{"status"})

	// AutoImplementResults counts synchronous auto-implementation outcomes.
	AutoImplementResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "decision_engine_auto_implement_total",
		Help: "Auto-implementation attempts, by result.",
	}, []string{"result"})

	// ReasonerFallbacks counts analyses served by the deterministic fallback.
	ReasonerFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "decision_engine_reasoner_fallbacks_total",
		Help: "Analyses that fell back to the deterministic generator.",
	})

	// ReasonerLatency observes reasoning collaborator call latency.
	ReasonerLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "decision_engine_reasoner_latency_seconds",
		Help:    "Latency of reasoning collaborator calls.",
		Buckets: prometheus.DefBuckets,
	})

	// PersistFailures counts decisions that could not be persisted.
	PersistFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "decision_engine_persist_failures_total",
		Help: "Decision persistence failures during evaluation cycles.",
	})
)
