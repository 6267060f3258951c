package advisor

import (
	"fmt"

	"github.com/optiflow/decision-engine/pkg/models"
)

// Fallback constants. Confidence scores are fixed per rule so the
// auto-implementation gate behaves deterministically when the reasoner is
// degraded.
const (
	restockConfidence  = 92
	trainingConfidence = 78
	processConfidence  = 85
	genericConfidence  = 75

	savingsPerLowStockItem = 150000

	workforceWarnValue = 70
)

// Fallback derives a smaller recommendation set directly from the snapshot.
// The result is never empty: a generic cost-optimization recommendation is
// always present as a floor.
func Fallback(snapshot *models.ResourceSnapshot) models.AnalysisResult {
	var recs []models.Recommendation
	var issues []models.CriticalIssue

	if lowStock := snapshot.LowStockCount(); lowStock > 0 {
		recs = append(recs, models.Recommendation{
			Category:        "inventory",
			Priority:        models.PriorityHigh,
			Title:           "Restock low inventory items",
			Description:     fmt.Sprintf("%d items are at or below minimum stock and should be reordered", lowStock),
			ExpectedSavings: float64(lowStock) * savingsPerLowStockItem,
			ImplementationSteps: []string{
				"Review items at or below minimum stock",
				"Generate purchase orders for preferred suppliers",
				"Confirm delivery schedules against demand",
			},
			ConfidenceScore:   restockConfidence,
			AutoImplementable: true,
		})

		for _, item := range snapshot.LowStockItems() {
			if item.CurrentStock == 0 {
				issues = append(issues, models.CriticalIssue{
					Type:            "inventory",
					Severity:        "critical",
					Description:     fmt.Sprintf("%s is out of stock", item.Name),
					ImmediateAction: fmt.Sprintf("Reorder %s immediately (minimum stock %d)", item.Name, item.MinimumStock),
				})
			}
		}
	}

	if anyWorkforceBelow(snapshot.Workforce, workforceWarnValue) {
		recs = append(recs, models.Recommendation{
			Category:    "workforce",
			Priority:    models.PriorityMedium,
			Title:       "Schedule targeted workforce training",
			Description: "Recent workforce performance samples fell below the warning level; targeted training typically recovers output within a quarter",
			ImplementationSteps: []string{
				"Identify teams with below-threshold performance samples",
				"Plan a focused training block",
			},
			ConfidenceScore:   trainingConfidence,
			AutoImplementable: false,
		})
	}

	if len(snapshot.Operations) > 0 || len(snapshot.Cashflow) > 0 {
		recs = append(recs, models.Recommendation{
			Category:    "operations",
			Priority:    models.PriorityMedium,
			Title:       "Streamline operational processes",
			Description: "Operational records indicate room for process consolidation and waste reduction",
			ImplementationSteps: []string{
				"Map current operational workflows",
				"Remove duplicate or idle process steps",
			},
			ConfidenceScore:   processConfidence,
			AutoImplementable: false,
		})
	}

	recs = append(recs, models.Recommendation{
		Category:    "cost",
		Priority:    models.PriorityMedium,
		Title:       "Review recurring cost structure",
		Description: "Periodic review of recurring expenses against budget keeps cost drift in check",
		ImplementationSteps: []string{
			"List recurring expenses by category",
			"Flag items exceeding budgeted share",
		},
		ConfidenceScore:   genericConfidence,
		AutoImplementable: false,
	})

	var potential float64
	for _, rec := range recs {
		potential += rec.ExpectedSavings
	}

	if issues == nil {
		issues = []models.CriticalIssue{}
	}

	return models.AnalysisResult{
		HealthScore:     fallbackHealth(len(recs)),
		Issues:          issues,
		Recommendations: recs,
		Impact:          models.FinancialImpact{PotentialSavings: potential},
		Source:          models.SourceFallback,
	}
}

// fallbackHealth derives a coarse health score from the recommendation count,
// clamped to the 60-85 band.
func fallbackHealth(recommendationCount int) int {
	health := 70 + 5*recommendationCount
	if health < 60 {
		return 60
	}
	if health > 85 {
		return 85
	}
	return health
}

func anyWorkforceBelow(metrics []models.WorkforceMetric, threshold float64) bool {
	for _, m := range metrics {
		if m.Value < threshold {
			return true
		}
	}
	return false
}
