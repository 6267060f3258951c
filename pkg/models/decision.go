package models

import "time"

// DecisionStatus is the closed set of lifecycle states for a Decision.
type DecisionStatus string

const (
	StatusPending          DecisionStatus = "PENDING"
	StatusApproved         DecisionStatus = "APPROVED"
	StatusAutoImplementing DecisionStatus = "AUTO_IMPLEMENTING"
	StatusImplemented      DecisionStatus = "IMPLEMENTED"
	StatusRejected         DecisionStatus = "REJECTED"
)

// Valid reports whether s is a known lifecycle state.
func (s DecisionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusAutoImplementing, StatusImplemented, StatusRejected:
		return true
	}
	return false
}

// Terminal reports whether s admits no further transitions.
func (s DecisionStatus) Terminal() bool {
	return s == StatusImplemented || s == StatusRejected
}

// ImpactPrediction captures the expected effect of implementing a Decision.
type ImpactPrediction struct {
	CostSavings float64  `json:"cost_savings"`
	Confidence  int      `json:"confidence"`
	Steps       []string `json:"steps"`
}

// Decision is the durable unit of work tracking one qualifying recommendation
// from creation through implementation or rejection. After creation only
// Status and UpdatedAt change, and only through the lifecycle manager.
// Decisions are never deleted; both terminal states are kept for audit.
type Decision struct {
	ID                   string           `json:"id"`
	TenantID             string           `json:"tenant_id"`
	DecisionType         string           `json:"decision_type"`
	InputSnapshotSummary string           `json:"input_snapshot_summary"`
	RecommendationText   string           `json:"recommendation_text"`
	Impact               ImpactPrediction `json:"impact_prediction"`
	Status               DecisionStatus   `json:"status"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
}

// AuditEntry records one status transition on a Decision.
type AuditEntry struct {
	ID         string         `json:"id"`
	DecisionID string         `json:"decision_id"`
	FromStatus DecisionStatus `json:"from_status"`
	ToStatus   DecisionStatus `json:"to_status"`
	Actor      string         `json:"actor"`
	Error      string         `json:"error,omitempty"`
	At         time.Time      `json:"at"`
}
