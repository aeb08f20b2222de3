package view

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erazemk/resaledesk/internal/aggregate"
	"github.com/erazemk/resaledesk/internal/model"
)

// PageSizes are the selectable rows per page.
var PageSizes = []int{5, 10, 25}

// DefaultPageSize is the rows per page before the user picks one.
const DefaultPageSize = 10

// FinancialBackend is the part of the REST client the financial page needs.
type FinancialBackend interface {
	ListFinancial(ctx context.Context) ([]model.FinancialRecord, error)
	DeleteFinancialRecord(ctx context.Context, id string) error
}

// Financial is the state of the financial page. Totals and the chart cover
// every record; the table shows the records within the date range, one page
// at a time.
type Financial struct {
	base
	backend FinancialBackend

	records []model.FinancialRecord
	start   time.Time
	end     time.Time
	page    int
	perPage int
}

// NewFinancial creates an empty financial page.
func NewFinancial(backend FinancialBackend) *Financial {
	return &Financial{backend: backend, perPage: DefaultPageSize}
}

// Load fetches the financial records.
func (v *Financial) Load(ctx context.Context) error {
	gen := v.begin()
	records, err := v.backend.ListFinancial(ctx)
	return v.finish(gen, err, func() {
		v.records = records
		v.clampPageLocked()
	})
}

// SetRange limits the table to records dated within [start, end]. A zero
// bound is open. The table returns to the first page.
func (v *Financial) SetRange(start, end time.Time) error {
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		err := &model.ValidationError{Field: "end_date", Message: "end date is before start date"}
		v.SetNotice(&Notice{Level: NoticeError, Message: err.Error()})
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.start, v.end = start, end
	v.page = 0
	return nil
}

// Range returns the current date range.
func (v *Financial) Range() (start, end time.Time) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.start, v.end
}

// SetPerPage picks one of PageSizes and returns to the first page.
func (v *Financial) SetPerPage(n int) error {
	if !slices.Contains(PageSizes, n) {
		return &model.ValidationError{Field: "per_page", Message: fmt.Sprintf("rows per page must be one of %v", PageSizes)}
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.perPage = n
	v.page = 0
	return nil
}

// SetPage moves to the zero-based page, clamped to the available pages.
func (v *Financial) SetPage(page int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.page = page
	v.clampPageLocked()
}

// Page returns the zero-based page and the rows per page.
func (v *Financial) Page() (page, perPage int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.page, v.perPage
}

// PageCount returns how many pages the filtered records span, at least one.
func (v *Financial) PageCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pageCountLocked()
}

// Filtered returns the records within the date range.
func (v *Financial) Filtered() []model.FinancialRecord {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.filteredLocked()
}

// Rows returns the current page of filtered records.
func (v *Financial) Rows() []model.FinancialRecord {
	v.mu.Lock()
	defer v.mu.Unlock()
	return aggregate.Paginate(v.filteredLocked(), v.page, v.perPage)
}

// Totals sums every loaded record.
func (v *Financial) Totals() aggregate.Totals {
	v.mu.Lock()
	defer v.mu.Unlock()
	return aggregate.FinancialTotals(v.records)
}

// Daily returns per-day sales and profit for the chart.
func (v *Financial) Daily() []aggregate.Bucket {
	v.mu.Lock()
	defer v.mu.Unlock()
	return aggregate.GroupByDay(v.records, recordDate, recordSales, recordProfit)
}

// Delete removes the record with the given transaction ID.
func (v *Financial) Delete(ctx context.Context, id string) error {
	if err := v.backend.DeleteFinancialRecord(ctx, id); err != nil {
		return v.fail(err)
	}

	v.mu.Lock()
	if i := slices.IndexFunc(v.records, func(r model.FinancialRecord) bool { return string(r.TransactionID) == id }); i >= 0 {
		v.records = slices.Delete(slices.Clone(v.records), i, i+1)
		v.clampPageLocked()
	}
	v.mu.Unlock()
	v.succeed(fmt.Sprintf("Deleted transaction %s.", id))
	return nil
}

func (v *Financial) filteredLocked() []model.FinancialRecord {
	return aggregate.FilterByDateRange(v.records, recordDate, v.start, v.end)
}

func (v *Financial) pageCountLocked() int {
	n := len(v.filteredLocked())
	if n == 0 {
		return 1
	}
	return (n + v.perPage - 1) / v.perPage
}

func (v *Financial) clampPageLocked() {
	if last := v.pageCountLocked() - 1; v.page > last {
		v.page = last
	}
	if v.page < 0 {
		v.page = 0
	}
}

func recordDate(r model.FinancialRecord) string            { return r.TransactionDate }
func recordSales(r model.FinancialRecord) decimal.Decimal  { return r.TotalSales.Value() }
func recordProfit(r model.FinancialRecord) decimal.Decimal { return r.Profit.Value() }
