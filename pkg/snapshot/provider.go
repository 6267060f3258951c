// Package snapshot assembles the read-only operational picture of a tenant.
package snapshot

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/optiflow/decision-engine/pkg/models"
)

// Provider supplies the four independent per-tenant reads. Each returns an
// ordered collection, empty (never nil) when the tenant has no data.
type Provider interface {
	Inventory(ctx context.Context, tenantID string) ([]models.InventoryItem, error)
	Workforce(ctx context.Context, tenantID string) ([]models.WorkforceMetric, error)
	Operations(ctx context.Context, tenantID string) ([]models.OperationalMetric, error)
	Cashflow(ctx context.Context, tenantID string) ([]models.CashflowRecord, error)
}

// Load fetches all four collections concurrently and assembles a snapshot.
// The reads are mutually independent and read-only, so they fan out; any
// failed read fails the whole load.
func Load(ctx context.Context, provider Provider, tenantID string) (*models.ResourceSnapshot, error) {
	snapshot := &models.ResourceSnapshot{TenantID: tenantID}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := provider.Inventory(ctx, tenantID)
		if err != nil {
			return err
		}
		snapshot.Inventory = items
		return nil
	})
	g.Go(func() error {
		metrics, err := provider.Workforce(ctx, tenantID)
		if err != nil {
			return err
		}
		snapshot.Workforce = metrics
		return nil
	})
	g.Go(func() error {
		metrics, err := provider.Operations(ctx, tenantID)
		if err != nil {
			return err
		}
		snapshot.Operations = metrics
		return nil
	})
	g.Go(func() error {
		records, err := provider.Cashflow(ctx, tenantID)
		if err != nil {
			return err
		}
		snapshot.Cashflow = records
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snapshot, nil
}
