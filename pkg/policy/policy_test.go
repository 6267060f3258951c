package policy

import (
	"strings"
	"testing"

	"github.com/optiflow/decision-engine/pkg/models"
)

func TestConfidenceGate(t *testing.T) {
	engine := New(85, models.PriorityMedium)

	tests := []struct {
		name       string
		auto       bool
		confidence int
		want       models.DecisionStatus
	}{
		{"auto above threshold", true, 92, models.StatusAutoImplementing},
		{"auto at threshold", true, 85, models.StatusAutoImplementing},
		{"auto below threshold", true, 84, models.StatusPending},
		{"manual above threshold", false, 99, models.StatusPending},
		{"manual below threshold", false, 10, models.StatusPending},
	}

	for _, tt := range tests {
		rec := models.Recommendation{AutoImplementable: tt.auto, ConfidenceScore: tt.confidence}
		if got := engine.Gate(rec); got != tt.want {
			t.Errorf("%s: Gate() = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestConfidenceGateThresholdConfigurable(t *testing.T) {
	rec := models.Recommendation{AutoImplementable: true, ConfidenceScore: 80}

	if got := New(75, models.PriorityMedium).Gate(rec); got != models.StatusAutoImplementing {
		t.Errorf("Expected AUTO_IMPLEMENTING with threshold 75, got %s", got)
	}
	if got := New(90, models.PriorityMedium).Gate(rec); got != models.StatusPending {
		t.Errorf("Expected PENDING with threshold 90, got %s", got)
	}
}

func TestPriorityFloor(t *testing.T) {
	engine := New(85, models.PriorityMedium)

	tests := []struct {
		priority models.Priority
		want     bool
	}{
		{models.PriorityLow, false},
		{models.PriorityMedium, true},
		{models.PriorityHigh, true},
		{models.PriorityCritical, true},
	}

	for _, tt := range tests {
		rec := models.Recommendation{Priority: tt.priority}
		if got := engine.Persistable(rec); got != tt.want {
			t.Errorf("Persistable(%s) = %v, want %v", tt.priority, got, tt.want)
		}
	}
}

func TestBuildDecision(t *testing.T) {
	engine := New(85, models.PriorityMedium)

	rec := models.Recommendation{
		Category:            "inventory",
		Priority:            models.PriorityHigh,
		Title:               "Restock low inventory items",
		Description:         "3 items need reordering",
		ExpectedSavings:     450000,
		ImplementationSteps: []string{"review", "order"},
		ConfidenceScore:     92,
		AutoImplementable:   true,
	}
	summary := models.SnapshotSummary{TotalItems: 10, LowStockCount: 3}

	decision := engine.BuildDecision("tenant-1", rec, summary)

	if decision.ID == "" {
		t.Error("Expected a generated decision ID")
	}
	if decision.TenantID != "tenant-1" {
		t.Errorf("Expected tenant-1, got %s", decision.TenantID)
	}
	if decision.DecisionType != "inventory" {
		t.Errorf("Expected decision type inventory, got %s", decision.DecisionType)
	}
	if decision.Status != models.StatusAutoImplementing {
		t.Errorf("Expected AUTO_IMPLEMENTING, got %s", decision.Status)
	}
	if decision.Impact.CostSavings != 450000 || decision.Impact.Confidence != 92 {
		t.Errorf("Impact prediction not carried: %+v", decision.Impact)
	}
	if len(decision.Impact.Steps) != 2 {
		t.Errorf("Expected 2 steps, got %d", len(decision.Impact.Steps))
	}
	if !strings.Contains(decision.RecommendationText, rec.Title) {
		t.Errorf("Expected recommendation text to carry the title, got %q", decision.RecommendationText)
	}
	if !strings.Contains(decision.InputSnapshotSummary, "low_stock=3") {
		t.Errorf("Expected snapshot summary in decision, got %q", decision.InputSnapshotSummary)
	}
	if decision.CreatedAt.IsZero() || !decision.CreatedAt.Equal(decision.UpdatedAt) {
		t.Error("Expected CreatedAt and UpdatedAt set to the same instant")
	}
}
