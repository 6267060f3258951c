package storage

import (
	"context"
	"errors"
	"time"

	"github.com/optiflow/decision-engine/pkg/models"
)

var (
	// ErrNotFound is returned when a decision does not exist for the tenant.
	ErrNotFound = errors.New("decision not found")
	// ErrConflict is returned when a conditional status update matched no row,
	// i.e. the decision was not in any of the expected source states.
	ErrConflict = errors.New("decision status changed concurrently")
)

// Store defines the persistence contract for decisions. Status may only be
// written through UpdateDecisionStatus, which is conditional on the current
// status so concurrent implement attempts cannot double-fire.
type Store interface {
	CreateDecision(ctx context.Context, decision *models.Decision) error
	GetDecision(ctx context.Context, tenantID, id string) (*models.Decision, error)
	ListDecisions(ctx context.Context, tenantID string, limit int) ([]*models.Decision, error)

	// UpdateDecisionStatus moves the decision to status to, provided its
	// current status is one of from. Returns ErrConflict otherwise.
	UpdateDecisionStatus(ctx context.Context, tenantID, id string, from []models.DecisionStatus, to models.DecisionStatus, at time.Time) error

	AppendAudit(ctx context.Context, entry *models.AuditEntry) error
	GetAuditLog(ctx context.Context, decisionID string) ([]*models.AuditEntry, error)

	Ping(ctx context.Context) error
	Close() error
}
