// Package trigger evaluates a tenant's resource snapshot against the alert
// conditions that decide whether an optimization cycle should run. All
// evaluation is pure: no I/O, no side effects, deterministic for a given
// snapshot and configuration.
package trigger

import (
	"fmt"

	"github.com/optiflow/decision-engine/pkg/models"
)

const (
	// recentWindow is how many trailing metric samples feed each mean.
	recentWindow = 7
	// cashflowWindow is how many trailing cashflow records feed the trend check.
	cashflowWindow = 5
	// expenseRatio is the expense/revenue ratio above which cashflow trends negative.
	expenseRatio = 1.2
	// efficiencyThreshold is fixed; the workforce threshold is configurable.
	efficiencyThreshold = 70.0
)

// Evaluator derives a TriggerSet from a snapshot.
type Evaluator struct {
	performanceThreshold float64
}

// NewEvaluator creates an evaluator with the given workforce performance
// threshold (0-100).
func NewEvaluator(performanceThreshold int) *Evaluator {
	return &Evaluator{performanceThreshold: float64(performanceThreshold)}
}

// Evaluate runs every rule against the snapshot. kind is the caller-supplied
// trigger type; "manual" always activates regardless of data.
func (e *Evaluator) Evaluate(snapshot *models.ResourceSnapshot, kind models.TriggerKind) models.TriggerSet {
	set := models.TriggerSet{}

	if lowStock := snapshot.LowStockCount(); lowStock > 0 {
		set = append(set, models.Trigger{
			Kind:      models.TriggerLowStock,
			Label:     fmt.Sprintf("%d inventory items at or below minimum stock", lowStock),
			Activated: true,
		})
	}

	if len(snapshot.Workforce) > 0 {
		mean := recentMean(workforceValues(snapshot.Workforce))
		if mean < e.performanceThreshold {
			set = append(set, models.Trigger{
				Kind:      models.TriggerLowPerformance,
				Label:     fmt.Sprintf("workforce performance mean %.1f below threshold %.0f", mean, e.performanceThreshold),
				Activated: true,
			})
		}
	}

	if revenue, expenses, ok := cashflowTrend(snapshot.Cashflow); ok {
		set = append(set, models.Trigger{
			Kind:      models.TriggerNegativeCashflow,
			Label:     fmt.Sprintf("expenses %.0f exceed %.0f%% of revenue %.0f", expenses, expenseRatio*100, revenue),
			Activated: true,
		})
	}

	if len(snapshot.Operations) > 0 {
		mean := recentMean(operationalValues(snapshot.Operations))
		if mean < efficiencyThreshold {
			set = append(set, models.Trigger{
				Kind:      models.TriggerLowEfficiency,
				Label:     fmt.Sprintf("operational efficiency mean %.1f below threshold %.0f", mean, efficiencyThreshold),
				Activated: true,
			})
		}
	}

	if kind == models.TriggerManual {
		set = append(set, models.Trigger{
			Kind:      models.TriggerManual,
			Label:     "manual trigger requested",
			Activated: true,
		})
	}

	return set
}

// Summarize aggregates the snapshot into the per-domain figures handed to the
// reasoning collaborator.
func Summarize(snapshot *models.ResourceSnapshot) models.SnapshotSummary {
	var revenue, expenses float64
	for _, record := range snapshot.Cashflow {
		revenue += record.Revenue
		expenses += record.Expenses
	}
	return models.SnapshotSummary{
		TotalItems:      len(snapshot.Inventory),
		LowStockCount:   snapshot.LowStockCount(),
		MeanPerformance: recentMean(workforceValues(snapshot.Workforce)),
		MeanEfficiency:  recentMean(operationalValues(snapshot.Operations)),
		TotalRevenue:    revenue,
		TotalExpenses:   expenses,
	}
}

// cashflowTrend sums the trailing cashflow window and reports whether the
// expense ratio rule fires. Zero total revenue never activates the trigger.
func cashflowTrend(records []models.CashflowRecord) (revenue, expenses float64, negative bool) {
	recent := records
	if len(recent) > cashflowWindow {
		recent = recent[len(recent)-cashflowWindow:]
	}
	for _, record := range recent {
		revenue += record.Revenue
		expenses += record.Expenses
	}
	if revenue <= 0 {
		return revenue, expenses, false
	}
	return revenue, expenses, expenses > expenseRatio*revenue
}

// recentMean averages the trailing window of values. An empty series yields a
// neutral 100 so sparse tenants never false-positive a performance trigger.
func recentMean(values []float64) float64 {
	if len(values) == 0 {
		return 100
	}
	if len(values) > recentWindow {
		values = values[len(values)-recentWindow:]
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func workforceValues(metrics []models.WorkforceMetric) []float64 {
	values := make([]float64, len(metrics))
	for i, m := range metrics {
		values[i] = m.Value
	}
	return values
}

func operationalValues(metrics []models.OperationalMetric) []float64 {
	values := make([]float64, len(metrics))
	for i, m := range metrics {
		values[i] = m.Value
	}
	return values
}
