// Package engine orchestrates one evaluation cycle: snapshot, triggers,
// analysis, decision creation, auto-implementation, and notification. Each
// cycle is request-scoped and runs to completion within the inbound call; an
// external scheduler or a manual trigger drives periodicity.
package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/optiflow/decision-engine/pkg/advisor"
	"github.com/optiflow/decision-engine/pkg/lifecycle"
	"github.com/optiflow/decision-engine/pkg/metrics"
	"github.com/optiflow/decision-engine/pkg/models"
	"github.com/optiflow/decision-engine/pkg/notify"
	"github.com/optiflow/decision-engine/pkg/policy"
	"github.com/optiflow/decision-engine/pkg/snapshot"
	"github.com/optiflow/decision-engine/pkg/storage"
	"github.com/optiflow/decision-engine/pkg/trigger"
)

// Engine wires the evaluation pipeline. All operations are scoped by the
// tenant identity passed into every call; there is no cross-tenant shared
// mutable state.
type Engine struct {
	log        *zap.Logger
	provider   snapshot.Provider
	triggers   *trigger.Evaluator
	advisor    *advisor.Advisor
	policy     *policy.Engine
	lifecycle  *lifecycle.Manager
	store      storage.Store
	dispatcher notify.Dispatcher
}

// New assembles an engine from its collaborators.
func New(
	log *zap.Logger,
	provider snapshot.Provider,
	triggers *trigger.Evaluator,
	adv *advisor.Advisor,
	pol *policy.Engine,
	lc *lifecycle.Manager,
	store storage.Store,
	dispatcher notify.Dispatcher,
) *Engine {
	return &Engine{
		log:        log.Named("engine"),
		provider:   provider,
		triggers:   triggers,
		advisor:    adv,
		policy:     pol,
		lifecycle:  lc,
		store:      store,
		dispatcher: dispatcher,
	}
}

// RunEvaluation executes one evaluation cycle for the tenant. It always
// returns a report: an early exit when no trigger activated and force is
// false, or the full pipeline outcome otherwise. Persistence failures on
// individual decisions are counted, logged, and do not abort the cycle.
func (e *Engine) RunEvaluation(ctx context.Context, tenantID string, kind models.TriggerKind, force bool) (*models.EvaluationReport, error) {
	report := &models.EvaluationReport{
		TenantID:    tenantID,
		GeneratedAt: time.Now().UTC(),
	}

	snap, err := snapshot.Load(ctx, e.provider, tenantID)
	if err != nil {
		return nil, err
	}

	triggers := e.triggers.Evaluate(snap, kind)
	report.TriggersActivated = triggers.ActiveLabels()
	report.ShouldRun = triggers.ShouldRun() || force

	if !report.ShouldRun {
		// No collaborator calls on a quiet snapshot.
		metrics.EvaluationsTotal.WithLabelValues("skipped").Inc()
		return report, nil
	}
	metrics.EvaluationsTotal.WithLabelValues("run").Inc()

	analysis := e.advisor.Obtain(ctx, snap, triggers)
	report.HealthScore = analysis.HealthScore
	report.AnalysisSource = analysis.Source
	report.CriticalIssueCount = len(analysis.Issues)
	report.PotentialSavings = analysis.Impact.PotentialSavings
	report.Recommendations = analysis.Recommendations

	summary := trigger.Summarize(snap)
	for _, rec := range analysis.Recommendations {
		if !e.policy.Persistable(rec) {
			// Display-only; surfaced in the report but never persisted.
			continue
		}

		decision := e.policy.BuildDecision(tenantID, rec, summary)
		if err := e.store.CreateDecision(ctx, &decision); err != nil {
			e.log.Error("failed to persist decision",
				zap.String("tenant_id", tenantID),
				zap.String("title", rec.Title),
				zap.Error(err),
			)
			metrics.PersistFailures.Inc()
			report.PersistFailures++
			continue
		}
		report.DecisionsCreated++
		metrics.DecisionsCreated.WithLabelValues(string(decision.Status)).Inc()

		if decision.Status == models.StatusAutoImplementing {
			if err := e.lifecycle.AutoImplement(ctx, &decision); err != nil {
				e.log.Warn("auto-implementation failed",
					zap.String("tenant_id", tenantID),
					zap.String("decision_id", decision.ID),
					zap.Error(err),
				)
				metrics.AutoImplementResults.WithLabelValues("failure").Inc()
				report.AutoImplementFailures++
				continue
			}
			metrics.AutoImplementResults.WithLabelValues("success").Inc()
			report.AutoImplementedCount++
		}
	}

	if len(analysis.Issues) > 0 {
		// Fire-and-forget relative to the decision pipeline.
		result := e.dispatcher.Notify(ctx, tenantID, analysis.Issues)
		if result.Failed > 0 {
			e.log.Warn("some alerts were not delivered",
				zap.String("tenant_id", tenantID),
				zap.Int("sent", result.Sent),
				zap.Int("failed", result.Failed),
			)
		}
	}

	return report, nil
}

// Implement applies a manual implement action to a tenant's decision.
func (e *Engine) Implement(ctx context.Context, tenantID, decisionID string) (lifecycle.ImplementResult, error) {
	return e.lifecycle.Implement(ctx, tenantID, decisionID)
}

// UpdateStatus applies a manual status transition to a tenant's decision.
func (e *Engine) UpdateStatus(ctx context.Context, tenantID, decisionID string, to models.DecisionStatus) error {
	return e.lifecycle.UpdateStatus(ctx, tenantID, decisionID, to)
}

// Decisions lists the tenant's most recent decisions.
func (e *Engine) Decisions(ctx context.Context, tenantID string, limit int) ([]*models.Decision, error) {
	return e.store.ListDecisions(ctx, tenantID, limit)
}

// Decision fetches one decision scoped by tenant.
func (e *Engine) Decision(ctx context.Context, tenantID, decisionID string) (*models.Decision, error) {
	return e.store.GetDecision(ctx, tenantID, decisionID)
}

// AuditLog returns the transition history of a tenant's decision.
func (e *Engine) AuditLog(ctx context.Context, tenantID, decisionID string) ([]*models.AuditEntry, error) {
	return e.lifecycle.AuditLog(ctx, tenantID, decisionID)
}
