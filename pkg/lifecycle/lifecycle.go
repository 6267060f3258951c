// Package lifecycle owns the Decision state machine. Every status write in
// the system goes through the Manager, which validates transitions against a
// closed table, appends an audit entry per transition, and runs the
// side-effecting executor attached to a decision type on implementation.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/optiflow/decision-engine/pkg/models"
	"github.com/optiflow/decision-engine/pkg/storage"
)

var (
	// ErrNotFound is returned when the decision does not exist for the tenant.
	ErrNotFound = errors.New("decision not found")
	// ErrAlreadyProcessed is returned when the decision is already terminal.
	ErrAlreadyProcessed = errors.New("decision already processed")
	// ErrInvalidTransition is returned for transitions outside the table.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// transitions is the legal state-machine table for caller-requested
// transitions. Terminal states have no outgoing edges. The implementation
// claim (PENDING/APPROVED -> AUTO_IMPLEMENTING) is internal to Implement and
// deliberately absent so callers cannot request it directly.
var transitions = map[models.DecisionStatus][]models.DecisionStatus{
	models.StatusPending:          {models.StatusApproved, models.StatusRejected, models.StatusImplemented},
	models.StatusApproved:         {models.StatusImplemented, models.StatusRejected},
	models.StatusAutoImplementing: {models.StatusImplemented, models.StatusRejected},
	models.StatusImplemented:      {},
	models.StatusRejected:         {},
}

// CanTransition reports whether from -> to is a legal transition.
func CanTransition(from, to models.DecisionStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Executor carries out the business side effect attached to a decision type,
// e.g. issuing a restock order. Implementations are external collaborators;
// an error aborts the implementation and rejects the decision.
type Executor interface {
	Execute(ctx context.Context, decision *models.Decision) error
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, decision *models.Decision) error

func (f ExecutorFunc) Execute(ctx context.Context, decision *models.Decision) error {
	return f(ctx, decision)
}

// ImplementResult reports the outcome of an implement call.
type ImplementResult struct {
	Result string                `json:"result"`
	Status models.DecisionStatus `json:"status"`
}

// Manager is the single writer of Decision status.
type Manager struct {
	log       *zap.Logger
	store     storage.Store
	executors map[string]Executor
	fallback  Executor
}

// NewManager creates a lifecycle manager. The default executor logs the
// implementation and succeeds; register real executors per decision type.
func NewManager(log *zap.Logger, store storage.Store) *Manager {
	m := &Manager{
		log:       log.Named("lifecycle"),
		store:     store,
		executors: make(map[string]Executor),
	}
	m.fallback = ExecutorFunc(func(_ context.Context, decision *models.Decision) error {
		m.log.Info("executing decision",
			zap.String("decision_id", decision.ID),
			zap.String("decision_type", decision.DecisionType),
			zap.Float64("cost_savings", decision.Impact.CostSavings),
		)
		return nil
	})
	return m
}

// Register attaches an executor to a decision type, replacing any previous one.
func (m *Manager) Register(decisionType string, executor Executor) {
	m.executors[decisionType] = executor
}

func (m *Manager) executor(decisionType string) Executor {
	if ex, ok := m.executors[decisionType]; ok {
		return ex
	}
	return m.fallback
}

// Implement claims the decision, runs its executor, and moves it to
// IMPLEMENTED, or to REJECTED when the executor fails. Terminal and
// in-progress decisions are a no-op reporting "already processed". The claim
// is a conditional write on the status observed at load; exactly one
// concurrent implementer wins it, so the side effect runs at most once per
// decision.
func (m *Manager) Implement(ctx context.Context, tenantID, id string) (ImplementResult, error) {
	decision, err := m.load(ctx, tenantID, id)
	if err != nil {
		return ImplementResult{}, err
	}

	if decision.Status.Terminal() || decision.Status == models.StatusAutoImplementing {
		return ImplementResult{Result: "already processed", Status: decision.Status}, ErrAlreadyProcessed
	}

	// Claim before executing: the loser of a concurrent race must not reach
	// the executor at all.
	from := decision.Status
	if err := m.transition(ctx, decision, from, models.StatusAutoImplementing, "executor", ""); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return ImplementResult{Result: "already processed", Status: from}, ErrAlreadyProcessed
		}
		if errors.Is(err, storage.ErrNotFound) {
			return ImplementResult{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return ImplementResult{}, err
	}

	execErr := m.executor(decision.DecisionType).Execute(ctx, decision)
	if execErr != nil {
		// Rollback rule: a failed side effect rejects the decision instead of
		// leaving it stuck mid-transition.
		if err := m.transition(ctx, decision, models.StatusAutoImplementing, models.StatusRejected, "executor", execErr.Error()); err != nil {
			return ImplementResult{}, err
		}
		return ImplementResult{Result: "implementation failed", Status: models.StatusRejected},
			fmt.Errorf("implement decision %s: %w", id, execErr)
	}

	if err := m.transition(ctx, decision, models.StatusAutoImplementing, models.StatusImplemented, "executor", ""); err != nil {
		return ImplementResult{}, err
	}

	return ImplementResult{Result: "implemented", Status: models.StatusImplemented}, nil
}

// UpdateStatus applies a manual transition. Requests targeting IMPLEMENTED are
// routed through Implement so the executor and its rollback rule always run.
func (m *Manager) UpdateStatus(ctx context.Context, tenantID, id string, to models.DecisionStatus) error {
	if !to.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, to)
	}

	if to == models.StatusImplemented {
		_, err := m.Implement(ctx, tenantID, id)
		if errors.Is(err, ErrAlreadyProcessed) {
			// On this path the caller asked for a transition, so a settled
			// decision is an illegal transition, not an idempotent no-op.
			return fmt.Errorf("%w: decision already processed", ErrInvalidTransition)
		}
		return err
	}

	decision, err := m.load(ctx, tenantID, id)
	if err != nil {
		return err
	}

	if !CanTransition(decision.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, decision.Status, to)
	}

	return m.transition(ctx, decision, decision.Status, to, "manual", "")
}

// AutoImplement synchronously implements a freshly created AUTO_IMPLEMENTING
// decision. A failed side effect rejects the decision; the caller counts the
// failure so no recommendation vanishes silently.
func (m *Manager) AutoImplement(ctx context.Context, decision *models.Decision) error {
	if decision.Status != models.StatusAutoImplementing {
		return fmt.Errorf("%w: auto-implement from %s", ErrInvalidTransition, decision.Status)
	}

	execErr := m.executor(decision.DecisionType).Execute(ctx, decision)
	if execErr != nil {
		if err := m.transition(ctx, decision, models.StatusAutoImplementing, models.StatusRejected, "auto", execErr.Error()); err != nil {
			return err
		}
		return fmt.Errorf("auto-implement decision %s: %w", decision.ID, execErr)
	}

	return m.transition(ctx, decision, models.StatusAutoImplementing, models.StatusImplemented, "auto", "")
}

func (m *Manager) load(ctx context.Context, tenantID, id string) (*models.Decision, error) {
	decision, err := m.store.GetDecision(ctx, tenantID, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load decision %s: %w", id, err)
	}
	return decision, nil
}

// transition performs the conditional status write and appends the audit
// entry. The store rejects the write when the decision has moved since load.
func (m *Manager) transition(ctx context.Context, decision *models.Decision, from, to models.DecisionStatus, actor, errMsg string) error {
	now := time.Now().UTC()
	if err := m.store.UpdateDecisionStatus(ctx, decision.TenantID, decision.ID, []models.DecisionStatus{from}, to, now); err != nil {
		return err
	}

	decision.Status = to
	decision.UpdatedAt = now

	entry := &models.AuditEntry{
		DecisionID: decision.ID,
		FromStatus: from,
		ToStatus:   to,
		Actor:      actor,
		Error:      errMsg,
		At:         now,
	}
	if err := m.store.AppendAudit(ctx, entry); err != nil {
		// The transition itself succeeded; a missing audit row is logged, not fatal.
		m.log.Warn("failed to append audit entry",
			zap.String("decision_id", decision.ID),
			zap.Error(err),
		)
	}

	m.log.Info("decision transitioned",
		zap.String("decision_id", decision.ID),
		zap.String("tenant_id", decision.TenantID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("actor", actor),
	)
	return nil
}

// AuditLog returns the transition history for a tenant's decision.
func (m *Manager) AuditLog(ctx context.Context, tenantID, id string) ([]*models.AuditEntry, error) {
	if _, err := m.load(ctx, tenantID, id); err != nil {
		return nil, err
	}
	return m.store.GetAuditLog(ctx, id)
}
