package view

import (
	"context"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/erazemk/resaledesk/internal/aggregate"
	"github.com/erazemk/resaledesk/internal/model"
)

// DashboardBackend is the part of the REST client the dashboard needs.
type DashboardBackend interface {
	ListInventory(ctx context.Context) ([]model.InventoryItem, error)
	ListOrders(ctx context.Context) ([]model.Order, error)
	ListFinancial(ctx context.Context) ([]model.FinancialRecord, error)
}

// Dashboard is the state of the overview page.
type Dashboard struct {
	base
	backend   DashboardBackend
	threshold int

	inventory []model.InventoryItem
	orders    []model.Order
	financial []model.FinancialRecord
}

// NewDashboard creates an empty dashboard. Items with a quantity below
// threshold are listed as low stock.
func NewDashboard(backend DashboardBackend, threshold int) *Dashboard {
	if threshold <= 0 {
		threshold = aggregate.DefaultLowStockThreshold
	}
	return &Dashboard{backend: backend, threshold: threshold}
}

// Load fetches inventory, orders and financial records concurrently. If any
// fetch fails, none of the results are applied.
func (v *Dashboard) Load(ctx context.Context) error {
	gen := v.begin()

	var (
		inventory []model.InventoryItem
		orders    []model.Order
		financial []model.FinancialRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		inventory, err = v.backend.ListInventory(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		orders, err = v.backend.ListOrders(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		financial, err = v.backend.ListFinancial(gctx)
		return err
	})
	err := g.Wait()

	return v.finish(gen, err, func() {
		v.inventory = inventory
		v.orders = orders
		v.financial = financial
	})
}

// InventoryCount is the number of distinct items.
func (v *Dashboard) InventoryCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.inventory)
}

// Totals sums every financial record.
func (v *Dashboard) Totals() aggregate.Totals {
	v.mu.Lock()
	defer v.mu.Unlock()
	return aggregate.FinancialTotals(v.financial)
}

// RecentOrders returns the last RecentOrderCount orders, newest first.
func (v *Dashboard) RecentOrders() []model.Order {
	v.mu.Lock()
	defer v.mu.Unlock()
	return aggregate.Recent(v.orders, RecentOrderCount)
}

// LowStock returns the items below the low-stock threshold.
func (v *Dashboard) LowStock() []model.InventoryItem {
	v.mu.Lock()
	defer v.mu.Unlock()
	return aggregate.FilterLowStock(v.inventory, v.threshold)
}

// Threshold returns the low-stock threshold.
func (v *Dashboard) Threshold() int { return v.threshold }

// Monthly returns per-month sales and profit for the chart.
func (v *Dashboard) Monthly() []aggregate.Bucket {
	v.mu.Lock()
	defer v.mu.Unlock()
	return aggregate.GroupByMonth(v.financial, recordDate, recordSales, recordProfit)
}

// StatusCounts returns how many orders are in each shipping status, in
// lifecycle order. Statuses the backend invented are appended after.
func (v *Dashboard) StatusCounts() []StatusCount {
	v.mu.Lock()
	defer v.mu.Unlock()

	counts := make([]StatusCount, 0, len(model.ShippingStatuses))
	for _, s := range model.ShippingStatuses {
		counts = append(counts, StatusCount{Status: s})
	}
	for _, o := range v.orders {
		i := slices.IndexFunc(counts, func(c StatusCount) bool { return c.Status == o.ShippingStatus })
		if i < 0 {
			counts = append(counts, StatusCount{Status: o.ShippingStatus})
			i = len(counts) - 1
		}
		counts[i].Count++
	}
	return counts
}

// StatusCount is the number of orders with a shipping status.
type StatusCount struct {
	Status string
	Count  int
}
