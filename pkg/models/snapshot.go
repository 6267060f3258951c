package models

import "time"

// InventoryItem is one stocked item in the tenant's inventory.
type InventoryItem struct {
	Name         string  `json:"name"`
	CurrentStock int     `json:"current_stock"`
	MinimumStock int     `json:"minimum_stock"`
	UnitCost     float64 `json:"unit_cost"`
}

// Restock returns true when the item is at or below its minimum stock level.
func (i InventoryItem) Restock() bool {
	return i.CurrentStock <= i.MinimumStock
}

// WorkforceMetric is a dated workforce performance sample (0-100 scale).
type WorkforceMetric struct {
	Name  string    `json:"name"`
	Value float64   `json:"value"`
	Date  time.Time `json:"date"`
}

// OperationalMetric is a dated operational efficiency sample (0-100 scale).
type OperationalMetric struct {
	Name  string    `json:"name"`
	Value float64   `json:"value"`
	Date  time.Time `json:"date"`
}

// CashflowRecord is one revenue/expense period for the tenant.
type CashflowRecord struct {
	Revenue  float64 `json:"revenue"`
	Expenses float64 `json:"expenses"`
}

// ResourceSnapshot is the read-only operational picture of a tenant at the
// moment an evaluation cycle starts. It is assembled fresh on every run and
// never mutated in place. Collections are ordered most-recent-last and are
// empty, never nil, when the tenant has no data.
type ResourceSnapshot struct {
	TenantID   string
	Inventory  []InventoryItem
	Workforce  []WorkforceMetric
	Operations []OperationalMetric
	Cashflow   []CashflowRecord
}

// LowStockItems returns the items at or below minimum stock, in snapshot order.
func (s *ResourceSnapshot) LowStockItems() []InventoryItem {
	var low []InventoryItem
	for _, item := range s.Inventory {
		if item.Restock() {
			low = append(low, item)
		}
	}
	return low
}

// LowStockCount returns the number of items at or below minimum stock.
func (s *ResourceSnapshot) LowStockCount() int {
	return len(s.LowStockItems())
}

// SnapshotSummary is the aggregated per-domain view handed to the reasoning
// collaborator alongside the activated trigger labels.
type SnapshotSummary struct {
	TotalItems      int     `json:"total_items"`
	LowStockCount   int     `json:"low_stock_count"`
	MeanPerformance float64 `json:"mean_performance"`
	MeanEfficiency  float64 `json:"mean_efficiency"`
	TotalRevenue    float64 `json:"total_revenue"`
	TotalExpenses   float64 `json:"total_expenses"`
}
