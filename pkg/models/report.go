package models

import "time"

// EvaluationReport summarizes one evaluation cycle for the caller. Returned
// on every run, including early exits and total reasoner failure.
type EvaluationReport struct {
	TenantID              string           `json:"tenant_id"`
	ShouldRun             bool             `json:"should_run"`
	TriggersActivated     []string         `json:"triggers_activated"`
	HealthScore           int              `json:"health_score,omitempty"`
	AnalysisSource        string           `json:"analysis_source,omitempty"`
	DecisionsCreated      int              `json:"decisions_created"`
	AutoImplementedCount  int              `json:"auto_implemented_count"`
	AutoImplementFailures int              `json:"auto_implement_failures"`
	PersistFailures       int              `json:"persist_failures"`
	CriticalIssueCount    int              `json:"critical_issue_count"`
	PotentialSavings      float64          `json:"potential_savings"`
	Recommendations       []Recommendation `json:"recommendations,omitempty"`
	GeneratedAt           time.Time        `json:"generated_at"`
}

// NotifyResult reports how many critical-issue alerts were delivered.
type NotifyResult struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}
