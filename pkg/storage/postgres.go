package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/optiflow/decision-engine/pkg/models"
)

//go:embed migrations/*.sql
var postgresFS embed.FS

// PostgresStore implements Store using PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL store
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgresStore{db: db}

	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// DB exposes the underlying handle so the snapshot provider can share the
// connection pool.
func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

// migrate runs database migrations
func (s *PostgresStore) migrate() error {
	schema, err := postgresFS.ReadFile("migrations/001_postgres_schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema: %w", err)
	}

	if _, err := s.db.Exec(string(schema)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	return nil
}

// CreateDecision persists a new decision
func (s *PostgresStore) CreateDecision(ctx context.Context, decision *models.Decision) error {
	if decision.ID == "" {
		decision.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if decision.CreatedAt.IsZero() {
		decision.CreatedAt = now
	}
	if decision.UpdatedAt.IsZero() {
		decision.UpdatedAt = decision.CreatedAt
	}

	steps, err := json.Marshal(decision.Impact.Steps)
	if err != nil {
		return fmt.Errorf("marshal steps: %w", err)
	}

	query := `
		INSERT INTO decisions (
			id, tenant_id, decision_type, input_snapshot_summary,
			recommendation_text, cost_savings, confidence, steps,
			status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = s.db.ExecContext(ctx, query,
		decision.ID, decision.TenantID, decision.DecisionType, decision.InputSnapshotSummary,
		decision.RecommendationText, decision.Impact.CostSavings, decision.Impact.Confidence, steps,
		decision.Status, decision.CreatedAt, decision.UpdatedAt,
	)

	return err
}

const decisionColumns = `
	id, tenant_id, decision_type, input_snapshot_summary,
	recommendation_text, cost_savings, confidence, steps,
	status, created_at, updated_at
`

func scanDecision(row interface{ Scan(...any) error }) (*models.Decision, error) {
	var decision models.Decision
	var steps []byte

	err := row.Scan(
		&decision.ID, &decision.TenantID, &decision.DecisionType, &decision.InputSnapshotSummary,
		&decision.RecommendationText, &decision.Impact.CostSavings, &decision.Impact.Confidence, &steps,
		&decision.Status, &decision.CreatedAt, &decision.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(steps, &decision.Impact.Steps); err != nil {
		return nil, fmt.Errorf("unmarshal steps: %w", err)
	}

	return &decision, nil
}

// GetDecision retrieves a decision scoped by tenant
func (s *PostgresStore) GetDecision(ctx context.Context, tenantID, id string) (*models.Decision, error) {
	query := `SELECT ` + decisionColumns + ` FROM decisions WHERE tenant_id = $1 AND id = $2`

	decision, err := scanDecision(s.db.QueryRowContext(ctx, query, tenantID, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decision, nil
}

// ListDecisions retrieves the tenant's most recent decisions
func (s *PostgresStore) ListDecisions(ctx context.Context, tenantID string, limit int) ([]*models.Decision, error) {
	query := `
		SELECT ` + decisionColumns + `
		FROM decisions
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var decisions []*models.Decision
	for rows.Next() {
		decision, err := scanDecision(rows)
		if err != nil {
			return nil, err
		}
		decisions = append(decisions, decision)
	}

	return decisions, rows.Err()
}

// UpdateDecisionStatus conditionally moves a decision to a new status. The
// WHERE clause on the current status is the single-writer guarantee: when the
// decision is not in one of the expected states no row matches and the caller
// gets ErrConflict with no mutation.
func (s *PostgresStore) UpdateDecisionStatus(ctx context.Context, tenantID, id string, from []models.DecisionStatus, to models.DecisionStatus, at time.Time) error {
	if len(from) == 0 {
		return fmt.Errorf("no source statuses given")
	}

	query := `
		UPDATE decisions
		SET status = $1, updated_at = $2
		WHERE tenant_id = $3 AND id = $4 AND status = ANY($5)
	`

	statuses := make([]string, len(from))
	for i, st := range from {
		statuses[i] = string(st)
	}

	result, err := s.db.ExecContext(ctx, query, to, at, tenantID, id, pq.Array(statuses))
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		// Distinguish missing from concurrently moved.
		if _, err := s.GetDecision(ctx, tenantID, id); err != nil {
			return err
		}
		return ErrConflict
	}

	return nil
}

// AppendAudit records one status transition
func (s *PostgresStore) AppendAudit(ctx context.Context, entry *models.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.At.IsZero() {
		entry.At = time.Now().UTC()
	}

	query := `
		INSERT INTO decision_audit_log (
			id, decision_id, from_status, to_status, actor, error, at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.db.ExecContext(ctx, query,
		entry.ID, entry.DecisionID, entry.FromStatus, entry.ToStatus,
		entry.Actor, nullable(entry.Error), entry.At,
	)

	return err
}

// GetAuditLog retrieves transitions for a decision in chronological order
func (s *PostgresStore) GetAuditLog(ctx context.Context, decisionID string) ([]*models.AuditEntry, error) {
	query := `
		SELECT id, decision_id, from_status, to_status, actor, error, at
		FROM decision_audit_log
		WHERE decision_id = $1
		ORDER BY at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, decisionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.AuditEntry
	for rows.Next() {
		var entry models.AuditEntry
		var errMsg sql.NullString

		err := rows.Scan(
			&entry.ID, &entry.DecisionID, &entry.FromStatus, &entry.ToStatus,
			&entry.Actor, &errMsg, &entry.At,
		)
		if err != nil {
			return nil, err
		}

		if errMsg.Valid {
			entry.Error = errMsg.String
		}

		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}

// Ping checks database connectivity
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func nullable(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
