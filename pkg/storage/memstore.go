package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/optiflow/decision-engine/pkg/models"
)

// MemStore is an in-memory Store for tests and dry runs. Safe for concurrent
// use; the status mutex provides the same conditional-update guarantee as the
// Postgres implementation.
type MemStore struct {
	mu        sync.Mutex
	decisions map[string]*models.Decision
	audit     map[string][]*models.AuditEntry

	// CreateErr, when set, makes CreateDecision fail. Test hook for the
	// partial-persistence path.
	CreateErr error
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		decisions: make(map[string]*models.Decision),
		audit:     make(map[string][]*models.AuditEntry),
	}
}

func (s *MemStore) CreateDecision(_ context.Context, decision *models.Decision) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.CreateErr != nil {
		return s.CreateErr
	}
	if decision.ID == "" {
		decision.ID = uuid.New().String()
	}
	copied := *decision
	s.decisions[decision.ID] = &copied
	return nil
}

func (s *MemStore) GetDecision(_ context.Context, tenantID, id string) (*models.Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	decision, ok := s.decisions[id]
	if !ok || decision.TenantID != tenantID {
		return nil, ErrNotFound
	}
	copied := *decision
	return &copied, nil
}

func (s *MemStore) ListDecisions(_ context.Context, tenantID string, limit int) ([]*models.Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var decisions []*models.Decision
	for _, decision := range s.decisions {
		if decision.TenantID != tenantID {
			continue
		}
		copied := *decision
		decisions = append(decisions, &copied)
	}
	// Most recent first, same as the database-backed store.
	sort.Slice(decisions, func(i, j int) bool {
		return decisions[i].CreatedAt.After(decisions[j].CreatedAt)
	})
	if limit > 0 && len(decisions) > limit {
		decisions = decisions[:limit]
	}
	return decisions, nil
}

func (s *MemStore) UpdateDecisionStatus(_ context.Context, tenantID, id string, from []models.DecisionStatus, to models.DecisionStatus, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	decision, ok := s.decisions[id]
	if !ok || decision.TenantID != tenantID {
		return ErrNotFound
	}
	for _, st := range from {
		if decision.Status == st {
			decision.Status = to
			decision.UpdatedAt = at
			return nil
		}
	}
	return ErrConflict
}

func (s *MemStore) AppendAudit(_ context.Context, entry *models.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.At.IsZero() {
		entry.At = time.Now().UTC()
	}
	copied := *entry
	s.audit[entry.DecisionID] = append(s.audit[entry.DecisionID], &copied)
	return nil
}

func (s *MemStore) GetAuditLog(_ context.Context, decisionID string) ([]*models.AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]*models.AuditEntry, 0, len(s.audit[decisionID]))
	for _, entry := range s.audit[decisionID] {
		copied := *entry
		entries = append(entries, &copied)
	}
	return entries, nil
}

func (s *MemStore) Ping(context.Context) error { return nil }
func (s *MemStore) Close() error               { return nil }
