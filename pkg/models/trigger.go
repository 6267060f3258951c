package models

// TriggerKind identifies one alert condition the engine evaluates.
type TriggerKind string

const (
	TriggerLowStock         TriggerKind = "low_stock"
	TriggerLowPerformance   TriggerKind = "low_performance"
	TriggerNegativeCashflow TriggerKind = "negative_cashflow"
	TriggerLowEfficiency    TriggerKind = "low_efficiency"
	TriggerManual           TriggerKind = "manual"
)

// Trigger is a derived alert condition over one snapshot. Not persisted;
// its lifetime is a single evaluation cycle.
type Trigger struct {
	Kind      TriggerKind `json:"kind"`
	Label     string      `json:"label"`
	Activated bool        `json:"activated"`
}

// TriggerSet is the full evaluation result for one snapshot.
type TriggerSet []Trigger

// ShouldRun reports whether any trigger in the set activated.
func (ts TriggerSet) ShouldRun() bool {
	for _, t := range ts {
		if t.Activated {
			return true
		}
	}
	return false
}

// ActiveLabels returns the labels of activated triggers, in evaluation order.
// These are passed verbatim to the reasoning collaborator for explainability.
func (ts TriggerSet) ActiveLabels() []string {
	labels := []string{}
	for _, t := range ts {
		if t.Activated {
			labels = append(labels, t.Label)
		}
	}
	return labels
}
