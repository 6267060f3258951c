package snapshot

import (
	"context"
	"database/sql"

	"github.com/optiflow/decision-engine/pkg/models"
)

// PostgresProvider reads snapshot collections from the tenant database.
// Typically shares the decision store's connection pool.
type PostgresProvider struct {
	db *sql.DB
}

// NewPostgresProvider creates a provider over an open database handle.
func NewPostgresProvider(db *sql.DB) *PostgresProvider {
	return &PostgresProvider{db: db}
}

func (p *PostgresProvider) Inventory(ctx context.Context, tenantID string) ([]models.InventoryItem, error) {
	query := `
		SELECT name, current_stock, minimum_stock, unit_cost
		FROM inventory_items
		WHERE tenant_id = $1
		ORDER BY id
	`
	rows, err := p.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.InventoryItem{}
	for rows.Next() {
		var item models.InventoryItem
		if err := rows.Scan(&item.Name, &item.CurrentStock, &item.MinimumStock, &item.UnitCost); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (p *PostgresProvider) Workforce(ctx context.Context, tenantID string) ([]models.WorkforceMetric, error) {
	query := `
		SELECT name, value, date
		FROM workforce_metrics
		WHERE tenant_id = $1
		ORDER BY date
	`
	rows, err := p.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	metrics := []models.WorkforceMetric{}
	for rows.Next() {
		var m models.WorkforceMetric
		if err := rows.Scan(&m.Name, &m.Value, &m.Date); err != nil {
			return nil, err
		}
		metrics = append(metrics, m)
	}
	return metrics, rows.Err()
}

func (p *PostgresProvider) Operations(ctx context.Context, tenantID string) ([]models.OperationalMetric, error) {
	query := `
		SELECT name, value, date
		FROM operational_metrics
		WHERE tenant_id = $1
		ORDER BY date
	`
	rows, err := p.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	metrics := []models.OperationalMetric{}
	for rows.Next() {
		var m models.OperationalMetric
		if err := rows.Scan(&m.Name, &m.Value, &m.Date); err != nil {
			return nil, err
		}
		metrics = append(metrics, m)
	}
	return metrics, rows.Err()
}

func (p *PostgresProvider) Cashflow(ctx context.Context, tenantID string) ([]models.CashflowRecord, error) {
	query := `
		SELECT revenue, expenses
		FROM cashflow_records
		WHERE tenant_id = $1
		ORDER BY period
	`
	rows, err := p.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []models.CashflowRecord{}
	for rows.Next() {
		var r models.CashflowRecord
		if err := rows.Scan(&r.Revenue, &r.Expenses); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
