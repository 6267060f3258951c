package models

// Priority represents how urgent a recommendation is.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

var priorityRank = map[Priority]int{
	PriorityLow:      0,
	PriorityMedium:   1,
	PriorityHigh:     2,
	PriorityCritical: 3,
}

// Valid reports whether p is one of the known priority levels.
func (p Priority) Valid() bool {
	_, ok := priorityRank[p]
	return ok
}

// AtLeast reports whether p ranks at or above min.
func (p Priority) AtLeast(min Priority) bool {
	return priorityRank[p] >= priorityRank[min]
}

// Recommendation is a single proposed optimization action. Produced by the
// reasoning collaborator or the deterministic fallback; immutable once
// produced and consumed exactly once by the decision policy.
type Recommendation struct {
	Category            string   `json:"category"`
	Priority            Priority `json:"priority"`
	Title               string   `json:"title"`
	Description         string   `json:"description"`
	ExpectedSavings     float64  `json:"expected_savings"`
	ImplementationSteps []string `json:"implementation_steps"`
	ConfidenceScore     int      `json:"confidence_score"`
	AutoImplementable   bool     `json:"auto_implementable"`
}

// CriticalIssue is an urgent condition surfaced alongside recommendations.
// Consumed by the notification dispatcher; never persisted by the engine.
type CriticalIssue struct {
	Type            string `json:"type"`
	Severity        string `json:"severity"`
	Description     string `json:"description"`
	ImmediateAction string `json:"immediate_action"`
}

// FinancialImpact is the aggregate savings estimate for one analysis.
type FinancialImpact struct {
	PotentialSavings float64 `json:"potential_savings"`
}

// Analysis sources.
const (
	SourceReasoner = "reasoner"
	SourceFallback = "fallback"
)

// AnalysisResult is the validated output of one analysis pass: either the
// reasoning collaborator's response after strict validation, or the
// deterministic fallback derived from the snapshot alone.
type AnalysisResult struct {
	HealthScore     int              `json:"health_score"`
	Issues          []CriticalIssue  `json:"critical_issues"`
	Recommendations []Recommendation `json:"recommendations"`
	Impact          FinancialImpact  `json:"financial_impact"`
	Source          string           `json:"source"`
}
