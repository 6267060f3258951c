// Package policy converts recommendations into decisions. The confidence
// gate decides whether a decision starts in AUTO_IMPLEMENTING or PENDING;
// the priority floor decides whether a recommendation is persisted at all.
package policy

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/optiflow/decision-engine/pkg/models"
)

// Engine applies the autonomy policy to recommendations.
type Engine struct {
	autoImplementThreshold int
	minPersistPriority     models.Priority
}

// New creates a policy engine. Thresholds are explicit so tenants and tests
// can run with different policies concurrently.
func New(autoImplementThreshold int, minPersistPriority models.Priority) *Engine {
	return &Engine{
		autoImplementThreshold: autoImplementThreshold,
		minPersistPriority:     minPersistPriority,
	}
}

// Persistable reports whether the recommendation's priority meets the floor.
// Recommendations below the floor are surfaced for display only and never
// become decisions.
func (e *Engine) Persistable(rec models.Recommendation) bool {
	return rec.Priority.AtLeast(e.minPersistPriority)
}

// Gate returns the initial lifecycle state for a decision built from rec.
func (e *Engine) Gate(rec models.Recommendation) models.DecisionStatus {
	if rec.AutoImplementable && rec.ConfidenceScore >= e.autoImplementThreshold {
		return models.StatusAutoImplementing
	}
	return models.StatusPending
}

// BuildDecision assembles a Decision from a qualifying recommendation. The
// snapshot summary is frozen at creation and never rewritten.
func (e *Engine) BuildDecision(tenantID string, rec models.Recommendation, summary models.SnapshotSummary) models.Decision {
	now := time.Now().UTC()
	return models.Decision{
		ID:                   uuid.New().String(),
		TenantID:             tenantID,
		DecisionType:         rec.Category,
		InputSnapshotSummary: summarize(summary),
		RecommendationText:   fmt.Sprintf("%s: %s", rec.Title, rec.Description),
		Impact: models.ImpactPrediction{
			CostSavings: rec.ExpectedSavings,
			Confidence:  rec.ConfidenceScore,
			Steps:       rec.ImplementationSteps,
		},
		Status:    e.Gate(rec),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func summarize(s models.SnapshotSummary) string {
	return fmt.Sprintf(
		"items=%d low_stock=%d performance=%.1f efficiency=%.1f revenue=%.0f expenses=%.0f",
		s.TotalItems, s.LowStockCount, s.MeanPerformance, s.MeanEfficiency, s.TotalRevenue, s.TotalExpenses,
	)
}
