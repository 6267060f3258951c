package engine

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/optiflow/decision-engine/pkg/advisor"
	"github.com/optiflow/decision-engine/pkg/lifecycle"
	"github.com/optiflow/decision-engine/pkg/models"
	"github.com/optiflow/decision-engine/pkg/policy"
	"github.com/optiflow/decision-engine/pkg/reasoner"
	"github.com/optiflow/decision-engine/pkg/storage"
	"github.com/optiflow/decision-engine/pkg/trigger"
)

// fakeProvider serves a fixed snapshot from memory.
type fakeProvider struct {
	inventory  []models.InventoryItem
	workforce  []models.WorkforceMetric
	operations []models.OperationalMetric
	cashflow   []models.CashflowRecord
}

func (p *fakeProvider) Inventory(context.Context, string) ([]models.InventoryItem, error) {
	return p.inventory, nil
}
func (p *fakeProvider) Workforce(context.Context, string) ([]models.WorkforceMetric, error) {
	return p.workforce, nil
}
func (p *fakeProvider) Operations(context.Context, string) ([]models.OperationalMetric, error) {
	return p.operations, nil
}
func (p *fakeProvider) Cashflow(context.Context, string) ([]models.CashflowRecord, error) {
	return p.cashflow, nil
}

// countingSource records how often the reasoning collaborator is consulted.
type countingSource struct {
	calls   int
	payload string
	err     error
}

func (s *countingSource) Analyze(context.Context, reasoner.Request) (json.RawMessage, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return json.RawMessage(s.payload), nil
}

// captureDispatcher records the issues it is asked to deliver.
type captureDispatcher struct {
	calls  int
	issues []models.CriticalIssue
}

func (d *captureDispatcher) Notify(_ context.Context, _ string, issues []models.CriticalIssue) models.NotifyResult {
	d.calls++
	d.issues = append(d.issues, issues...)
	return models.NotifyResult{Sent: len(issues)}
}

type fixture struct {
	engine     *Engine
	store      *storage.MemStore
	lifecycle  *lifecycle.Manager
	source     *countingSource
	dispatcher *captureDispatcher
}

func newFixture(provider *fakeProvider, source *countingSource) *fixture {
	log := zap.NewNop()
	store := storage.NewMemStore()
	manager := lifecycle.NewManager(log, store)
	dispatcher := &captureDispatcher{}
	eng := New(
		log,
		provider,
		trigger.NewEvaluator(70),
		advisor.New(log, source),
		policy.New(85, models.PriorityMedium),
		manager,
		store,
		dispatcher,
	)
	return &fixture{engine: eng, store: store, lifecycle: manager, source: source, dispatcher: dispatcher}
}

func lowStockProvider() *fakeProvider {
	return &fakeProvider{
		inventory: []models.InventoryItem{
			{Name: "Printer Paper", CurrentStock: 0, MinimumStock: 20, UnitCost: 4.5},
			{Name: "Toner", CurrentStock: 3, MinimumStock: 10, UnitCost: 60},
			{Name: "Desks", CurrentStock: 40, MinimumStock: 5, UnitCost: 250},
		},
	}
}

func quietProvider() *fakeProvider {
	return &fakeProvider{
		inventory: []models.InventoryItem{
			{Name: "Desks", CurrentStock: 40, MinimumStock: 5, UnitCost: 250},
		},
		workforce: []models.WorkforceMetric{{Name: "sales", Value: 90}},
		cashflow:  []models.CashflowRecord{{Revenue: 100000, Expenses: 40000}},
	}
}

func TestRunEvaluationFallbackAutoImplements(t *testing.T) {
	f := newFixture(lowStockProvider(), &countingSource{err: reasoner.ErrDisabled})

	report, err := f.engine.RunEvaluation(context.Background(), "tenant-1", models.TriggerLowStock, false)
	if err != nil {
		t.Fatalf("RunEvaluation failed: %v", err)
	}

	if !report.ShouldRun {
		t.Fatal("Expected the low-stock trigger to activate")
	}
	if report.AnalysisSource != models.SourceFallback {
		t.Errorf("Expected fallback source, got %s", report.AnalysisSource)
	}
	// Restock (high, auto) plus the generic cost recommendation (medium).
	if report.DecisionsCreated != 2 {
		t.Errorf("Expected 2 decisions, got %d", report.DecisionsCreated)
	}
	if report.AutoImplementedCount != 1 {
		t.Errorf("Expected 1 auto-implemented decision, got %d", report.AutoImplementedCount)
	}
	if report.PotentialSavings != 300000 {
		t.Errorf("Expected potential savings 300000 for 2 low-stock items, got %.0f", report.PotentialSavings)
	}

	decisions, _ := f.store.ListDecisions(context.Background(), "tenant-1", 0)
	if len(decisions) != 2 {
		t.Fatalf("Expected 2 persisted decisions, got %d", len(decisions))
	}
	statuses := map[models.DecisionStatus]int{}
	for _, d := range decisions {
		statuses[d.Status]++
	}
	if statuses[models.StatusImplemented] != 1 || statuses[models.StatusPending] != 1 {
		t.Errorf("Expected one IMPLEMENTED and one PENDING decision, got %v", statuses)
	}
}

func TestRunEvaluationNotifiesCriticalIssues(t *testing.T) {
	f := newFixture(lowStockProvider(), &countingSource{err: reasoner.ErrDisabled})

	if _, err := f.engine.RunEvaluation(context.Background(), "tenant-1", models.TriggerLowStock, false); err != nil {
		t.Fatalf("RunEvaluation failed: %v", err)
	}

	if f.dispatcher.calls != 1 {
		t.Fatalf("Expected one notification dispatch, got %d", f.dispatcher.calls)
	}
	if len(f.dispatcher.issues) != 1 {
		t.Fatalf("Expected one critical issue for the out-of-stock item, got %d", len(f.dispatcher.issues))
	}
	if f.dispatcher.issues[0].Severity != "critical" {
		t.Errorf("Unexpected issue: %+v", f.dispatcher.issues[0])
	}
}

func TestRunEvaluationReasonerPath(t *testing.T) {
	payload := `{
		"health_score": 64,
		"critical_issues": [],
		"recommendations": [{
			"category": "cost",
			"priority": "high",
			"title": "Renegotiate supplier contracts",
			"description": "Current supplier rates exceed market benchmarks",
			"expected_savings": 90000,
			"implementation_steps": ["Benchmark rates", "Open renegotiation"],
			"confidence_score": 60,
			"auto_implementable": false
		}],
		"financial_impact": {"potential_savings": 90000}
	}`
	f := newFixture(lowStockProvider(), &countingSource{payload: payload})

	report, err := f.engine.RunEvaluation(context.Background(), "tenant-1", models.TriggerLowStock, false)
	if err != nil {
		t.Fatalf("RunEvaluation failed: %v", err)
	}

	if report.AnalysisSource != models.SourceReasoner {
		t.Errorf("Expected reasoner source, got %s", report.AnalysisSource)
	}
	if report.HealthScore != 64 {
		t.Errorf("Expected health 64, got %d", report.HealthScore)
	}
	if report.DecisionsCreated != 1 {
		t.Fatalf("Expected 1 decision, got %d", report.DecisionsCreated)
	}

	decisions, _ := f.store.ListDecisions(context.Background(), "tenant-1", 0)
	if decisions[0].Status != models.StatusPending {
		t.Errorf("Confidence 60 must not auto-implement, got %s", decisions[0].Status)
	}
	if f.dispatcher.calls != 0 {
		t.Errorf("Expected no notification without critical issues, got %d calls", f.dispatcher.calls)
	}
}

func TestRunEvaluationQuietSnapshotSkips(t *testing.T) {
	source := &countingSource{payload: `{}`}
	f := newFixture(quietProvider(), source)

	report, err := f.engine.RunEvaluation(context.Background(), "tenant-1", models.TriggerLowStock, false)
	if err != nil {
		t.Fatalf("RunEvaluation failed: %v", err)
	}

	if report.ShouldRun {
		t.Error("Expected a quiet snapshot to skip the pipeline")
	}
	if report.DecisionsCreated != 0 {
		t.Errorf("Expected no decisions, got %d", report.DecisionsCreated)
	}
	if source.calls != 0 {
		t.Errorf("Expected no analysis call on skip, got %d", source.calls)
	}
	if f.dispatcher.calls != 0 {
		t.Errorf("Expected no notification on skip, got %d calls", f.dispatcher.calls)
	}

	decisions, _ := f.store.ListDecisions(context.Background(), "tenant-1", 0)
	if len(decisions) != 0 {
		t.Errorf("Expected nothing persisted, got %d decisions", len(decisions))
	}
}

func TestRunEvaluationForceOverridesQuietSnapshot(t *testing.T) {
	f := newFixture(quietProvider(), &countingSource{err: reasoner.ErrDisabled})

	report, err := f.engine.RunEvaluation(context.Background(), "tenant-1", models.TriggerLowStock, true)
	if err != nil {
		t.Fatalf("RunEvaluation failed: %v", err)
	}

	if !report.ShouldRun {
		t.Error("Expected force to run the pipeline")
	}
	if len(report.TriggersActivated) != 0 {
		t.Errorf("Expected no activated triggers, got %v", report.TriggersActivated)
	}
	if report.DecisionsCreated == 0 {
		t.Error("Expected the forced run to create at least the generic decision")
	}
}

func TestRunEvaluationZeroRevenueCashflowGuard(t *testing.T) {
	provider := &fakeProvider{
		cashflow: []models.CashflowRecord{
			{Revenue: 0, Expenses: 50000},
		},
	}
	f := newFixture(provider, &countingSource{err: reasoner.ErrDisabled})

	report, err := f.engine.RunEvaluation(context.Background(), "tenant-1", models.TriggerNegativeCashflow, false)
	if err != nil {
		t.Fatalf("RunEvaluation failed: %v", err)
	}

	if report.ShouldRun {
		t.Error("Expected the zero-revenue guard to keep the cashflow trigger inactive")
	}
}

func TestRunEvaluationManualTriggerAlwaysRuns(t *testing.T) {
	f := newFixture(quietProvider(), &countingSource{err: reasoner.ErrDisabled})

	report, err := f.engine.RunEvaluation(context.Background(), "tenant-1", models.TriggerManual, false)
	if err != nil {
		t.Fatalf("RunEvaluation failed: %v", err)
	}

	if !report.ShouldRun {
		t.Error("Expected the manual trigger to always run")
	}
}

func TestRunEvaluationCountsPersistFailures(t *testing.T) {
	f := newFixture(lowStockProvider(), &countingSource{err: reasoner.ErrDisabled})
	f.store.CreateErr = errors.New("connection reset")

	report, err := f.engine.RunEvaluation(context.Background(), "tenant-1", models.TriggerLowStock, false)
	if err != nil {
		t.Fatalf("Expected the cycle to survive persist failures, got %v", err)
	}

	if report.DecisionsCreated != 0 {
		t.Errorf("Expected no decisions created, got %d", report.DecisionsCreated)
	}
	if report.PersistFailures != 2 {
		t.Errorf("Expected 2 persist failures, got %d", report.PersistFailures)
	}
	// The report still carries the recommendations even when none persisted.
	if len(report.Recommendations) == 0 {
		t.Error("Expected recommendations in the report")
	}
}

func TestRunEvaluationCountsAutoImplementFailures(t *testing.T) {
	f := newFixture(lowStockProvider(), &countingSource{err: reasoner.ErrDisabled})
	f.lifecycle.Register("inventory", lifecycle.ExecutorFunc(func(context.Context, *models.Decision) error {
		return errors.New("order system unavailable")
	}))

	report, err := f.engine.RunEvaluation(context.Background(), "tenant-1", models.TriggerLowStock, false)
	if err != nil {
		t.Fatalf("RunEvaluation failed: %v", err)
	}

	if report.AutoImplementedCount != 0 {
		t.Errorf("Expected 0 auto-implemented, got %d", report.AutoImplementedCount)
	}
	if report.AutoImplementFailures != 1 {
		t.Errorf("Expected 1 auto-implement failure, got %d", report.AutoImplementFailures)
	}

	decisions, _ := f.store.ListDecisions(context.Background(), "tenant-1", 0)
	var rejected int
	for _, d := range decisions {
		if d.Status == models.StatusRejected {
			rejected++
		}
	}
	if rejected != 1 {
		t.Errorf("Expected the failed auto-implementation to be rejected, got %d rejected", rejected)
	}
}

func TestRunEvaluationFiltersLowPriority(t *testing.T) {
	payload := `{
		"health_score": 80,
		"critical_issues": [],
		"recommendations": [{
			"category": "cost",
			"priority": "low",
			"title": "Tidy subscriptions",
			"description": "A couple of unused seats could be released",
			"confidence_score": 50
		}],
		"financial_impact": {"potential_savings": 1200}
	}`
	f := newFixture(lowStockProvider(), &countingSource{payload: payload})

	report, err := f.engine.RunEvaluation(context.Background(), "tenant-1", models.TriggerLowStock, false)
	if err != nil {
		t.Fatalf("RunEvaluation failed: %v", err)
	}

	if report.DecisionsCreated != 0 {
		t.Errorf("Expected low-priority recommendation to stay display-only, got %d decisions", report.DecisionsCreated)
	}
	if len(report.Recommendations) != 1 {
		t.Errorf("Expected the recommendation to remain in the report, got %d", len(report.Recommendations))
	}
}
