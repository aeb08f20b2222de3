// Package aggregate derives totals, groupings, filters and orderings from
// collections fetched from the backend. Every function is pure: inputs are
// never modified and results are freshly allocated.
package aggregate

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erazemk/resaledesk/internal/model"
)

// DefaultLowStockThreshold is the quantity below which an item counts as low stock.
const DefaultLowStockThreshold = 5

// DateLayout is the layout of every date string the backend produces.
const DateLayout = "2006-01-02"

// Value extracts a numeric field from a record. Missing or malformed values
// must come back as zero, which model.Decimal already guarantees.
type Value[T any] func(T) decimal.Decimal

// Text extracts a string field from a record.
type Text[T any] func(T) string

// SumBy returns, for each named field, the sum of that field over records.
// Every requested field is present in the result, so an empty collection
// yields zero for each.
func SumBy[T any](records []T, fields map[string]Value[T]) map[string]decimal.Decimal {
	sums := make(map[string]decimal.Decimal, len(fields))
	for name := range fields {
		sums[name] = decimal.Zero
	}
	for _, r := range records {
		for name, get := range fields {
			sums[name] = sums[name].Add(get(r))
		}
	}
	return sums
}

// Bucket is one group of records with its sales and profit sums.
type Bucket struct {
	Key    string
	Sales  decimal.Decimal
	Profit decimal.Decimal
}

// GroupByMonth buckets records by the first seven characters of their date
// (YYYY-MM) and returns the buckets in ascending key order.
func GroupByMonth[T any](records []T, date Text[T], sales, profit Value[T]) []Bucket {
	buckets := group(records, func(r T) string { return monthKey(date(r)) }, sales, profit)
	slices.SortStableFunc(buckets, func(a, b Bucket) int { return strings.Compare(a.Key, b.Key) })
	return buckets
}

// GroupByDay buckets records by their full date string and returns the
// buckets in ascending date order. Keys that are not dates sort after all
// dates, in lexical order.
func GroupByDay[T any](records []T, date Text[T], sales, profit Value[T]) []Bucket {
	buckets := group(records, date, sales, profit)
	slices.SortStableFunc(buckets, func(a, b Bucket) int {
		ta, errA := ParseDate(a.Key)
		tb, errB := ParseDate(b.Key)
		switch {
		case errA == nil && errB == nil:
			return ta.Compare(tb)
		case errA == nil:
			return -1
		case errB == nil:
			return 1
		default:
			return strings.Compare(a.Key, b.Key)
		}
	})
	return buckets
}

func group[T any](records []T, key Text[T], sales, profit Value[T]) []Bucket {
	index := make(map[string]int)
	var buckets []Bucket
	for _, r := range records {
		k := key(r)
		i, ok := index[k]
		if !ok {
			i = len(buckets)
			index[k] = i
			buckets = append(buckets, Bucket{Key: k, Sales: decimal.Zero, Profit: decimal.Zero})
		}
		buckets[i].Sales = buckets[i].Sales.Add(sales(r))
		buckets[i].Profit = buckets[i].Profit.Add(profit(r))
	}
	return buckets
}

func monthKey(date string) string {
	if len(date) > 7 {
		return date[:7]
	}
	return date
}

// ParseDate parses a backend date. Full timestamps are accepted too; only
// the calendar day matters.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(DateLayout) {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Parse(DateLayout, s)
}

// FilterLowStock returns the items whose quantity is below threshold.
func FilterLowStock(items []model.InventoryItem, threshold int) []model.InventoryItem {
	return Filter(items, func(i model.InventoryItem) bool { return int(i.Quantity) < threshold })
}

// FilterByDateRange keeps records whose date falls within [start, end].
// A zero bound leaves that side open. When either bound is set, records
// whose date cannot be parsed are dropped.
func FilterByDateRange[T any](records []T, date Text[T], start, end time.Time) []T {
	if start.IsZero() && end.IsZero() {
		return slices.Clone(records)
	}
	return Filter(records, func(r T) bool {
		t, err := ParseDate(date(r))
		if err != nil {
			return false
		}
		if !start.IsZero() && t.Before(start) {
			return false
		}
		if !end.IsZero() && t.After(end) {
			return false
		}
		return true
	})
}

// FilterBySubstring keeps records whose field contains term, ignoring case.
// An empty term keeps everything.
func FilterBySubstring[T any](records []T, term string, field Text[T]) []T {
	term = strings.ToLower(term)
	return Filter(records, func(r T) bool {
		return strings.Contains(strings.ToLower(field(r)), term)
	})
}

// FilterEqual keeps records whose field equals value exactly. An empty value
// keeps everything.
func FilterEqual[T any](records []T, value string, field Text[T]) []T {
	if value == "" {
		return slices.Clone(records)
	}
	return Filter(records, func(r T) bool { return field(r) == value })
}

// Filter returns the records for which keep reports true.
func Filter[T any](records []T, keep func(T) bool) []T {
	out := make([]T, 0, len(records))
	for _, r := range records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// Comparator orders two records like strings.Compare.
type Comparator[T any] func(a, b T) int

// SortBy returns a stably sorted copy of records.
func SortBy[T any](records []T, compare Comparator[T]) []T {
	out := slices.Clone(records)
	slices.SortStableFunc(out, compare)
	return out
}

// ByString compares a text field lexically.
func ByString[T any](field Text[T]) Comparator[T] {
	return func(a, b T) int { return strings.Compare(field(a), field(b)) }
}

// ByDecimal compares a numeric field.
func ByDecimal[T any](field Value[T]) Comparator[T] {
	return func(a, b T) int { return field(a).Cmp(field(b)) }
}

// ByNumericString compares a text field by its numeric value, for keys such
// as order IDs. Non-numeric keys compare as zero.
func ByNumericString[T any](field Text[T]) Comparator[T] {
	return func(a, b T) int {
		return model.ParseDecimal(field(a)).Value().Cmp(model.ParseDecimal(field(b)).Value())
	}
}

// Descending reverses a comparator.
func Descending[T any](compare Comparator[T]) Comparator[T] {
	return func(a, b T) int { return cmp.Compare(0, compare(a, b)) }
}

// Recent returns the last n records, newest (last) first.
func Recent[T any](records []T, n int) []T {
	if n > len(records) {
		n = len(records)
	}
	if n <= 0 {
		return []T{}
	}
	out := slices.Clone(records[len(records)-n:])
	slices.Reverse(out)
	return out
}

// Paginate returns the zero-based page of records with perPage rows. Pages
// beyond the end are empty.
func Paginate[T any](records []T, page, perPage int) []T {
	if perPage <= 0 || page < 0 {
		return []T{}
	}
	start := page * perPage
	if start >= len(records) {
		return []T{}
	}
	end := min(start+perPage, len(records))
	return slices.Clone(records[start:end])
}

// Totals are the financial sums shown on the dashboard and financial pages.
type Totals struct {
	Sales    decimal.Decimal
	Profit   decimal.Decimal
	Fees     decimal.Decimal
	Expenses decimal.Decimal
}

// FinancialTotals sums sales, profit, fees and expenses over records.
func FinancialTotals(records []model.FinancialRecord) Totals {
	sums := SumBy(records, map[string]Value[model.FinancialRecord]{
		"total_sales": func(r model.FinancialRecord) decimal.Decimal { return r.TotalSales.Value() },
		"profit":      func(r model.FinancialRecord) decimal.Decimal { return r.Profit.Value() },
		"fees":        func(r model.FinancialRecord) decimal.Decimal { return r.Fees.Value() },
		"expenses":    func(r model.FinancialRecord) decimal.Decimal { return r.Expenses.Value() },
	})
	return Totals{
		Sales:    sums["total_sales"],
		Profit:   sums["profit"],
		Fees:     sums["fees"],
		Expenses: sums["expenses"],
	}
}
