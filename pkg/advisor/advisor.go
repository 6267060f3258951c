// Package advisor turns the untrusted output of the reasoning collaborator
// into a usable AnalysisResult. Obtain never fails its caller: any transport
// error, timeout, or schema violation falls closed into a deterministic
// fallback derived from the snapshot alone.
package advisor

import (
	"context"

	"go.uber.org/zap"

	"github.com/optiflow/decision-engine/pkg/metrics"
	"github.com/optiflow/decision-engine/pkg/models"
	"github.com/optiflow/decision-engine/pkg/reasoner"
	"github.com/optiflow/decision-engine/pkg/trigger"
)

// Advisor obtains validated analyses for snapshots.
type Advisor struct {
	log    *zap.Logger
	source reasoner.Source
}

// New creates an advisor backed by the given recommendation source.
func New(log *zap.Logger, source reasoner.Source) *Advisor {
	return &Advisor{log: log.Named("advisor"), source: source}
}

// Obtain runs the primary path against the reasoning collaborator and falls
// back to the deterministic generator on any failure. The returned result is
// always schema-valid and contains at least one recommendation.
func (a *Advisor) Obtain(ctx context.Context, snapshot *models.ResourceSnapshot, triggers models.TriggerSet) models.AnalysisResult {
	req := reasoner.Request{
		Triggers: triggers.ActiveLabels(),
		Summary:  trigger.Summarize(snapshot),
	}

	raw, err := a.source.Analyze(ctx, req)
	if err != nil {
		a.log.Warn("reasoner unavailable, using fallback",
			zap.String("tenant_id", snapshot.TenantID),
			zap.Error(err),
		)
		metrics.ReasonerFallbacks.Inc()
		return Fallback(snapshot)
	}

	result, err := validate(raw)
	if err != nil {
		a.log.Warn("reasoner payload rejected, using fallback",
			zap.String("tenant_id", snapshot.TenantID),
			zap.Error(err),
		)
		metrics.ReasonerFallbacks.Inc()
		return Fallback(snapshot)
	}

	return result
}
