package web

import (
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/erazemk/resaledesk/internal/aggregate"
	"github.com/erazemk/resaledesk/internal/format"
	"github.com/erazemk/resaledesk/internal/journal"
	"github.com/erazemk/resaledesk/internal/model"
	"github.com/erazemk/resaledesk/internal/view"
)

// Bar is one period in a sales and profit chart. Widths are percentages of
// the largest value in the chart.
type Bar struct {
	Label       string
	Sales       decimal.Decimal
	Profit      decimal.Decimal
	SalesWidth  int
	ProfitWidth int
}

// chartBars scales buckets for rendering as horizontal bars.
func chartBars(buckets []aggregate.Bucket, label func(string) string) []Bar {
	peak := decimal.Zero
	for _, b := range buckets {
		peak = decimal.Max(peak, b.Sales.Abs(), b.Profit.Abs())
	}

	bars := make([]Bar, 0, len(buckets))
	for _, b := range buckets {
		bars = append(bars, Bar{
			Label:       label(b.Key),
			Sales:       b.Sales,
			Profit:      b.Profit,
			SalesWidth:  percent(b.Sales, peak),
			ProfitWidth: percent(b.Profit, peak),
		})
	}
	return bars
}

func percent(v, peak decimal.Decimal) int {
	if !peak.IsPositive() || !v.IsPositive() {
		return 0
	}
	return int(v.Mul(decimal.NewFromInt(100)).Div(peak).Round(0).IntPart())
}

type dashboardPage struct {
	PageData
	Loaded         bool
	InventoryCount int
	Totals         aggregate.Totals
	RecentOrders   []model.Order
	LowStock       []model.InventoryItem
	Threshold      int
	Monthly        []Bar
	StatusCounts   []view.StatusCount
	NeedsRepair    int
}

// Dashboard handles GET /.
func (s *Server) Dashboard(w http.ResponseWriter, r *http.Request) {
	v := view.NewDashboard(s.backend(r), s.LowStock)
	if err := v.Load(r.Context()); err != nil && s.needsLogin(w, r, err) {
		return
	}

	var repair int
	if s.Journal != nil {
		entries, err := journal.Unresolved(r.Context(), s.Journal)
		if err != nil {
			slog.Error("failed to list unresolved sale attempts", "error", err)
		}
		repair = len(entries)
	}

	s.Templates.Render(w, "dashboard.html", &dashboardPage{
		PageData:       s.page(w, r, "Dashboard", "dashboard", v.Notice()),
		Loaded:         v.Loaded(),
		InventoryCount: v.InventoryCount(),
		Totals:         v.Totals(),
		RecentOrders:   v.RecentOrders(),
		LowStock:       v.LowStock(),
		Threshold:      v.Threshold(),
		Monthly:        chartBars(v.Monthly(), format.Month),
		StatusCounts:   v.StatusCounts(),
		NeedsRepair:    repair,
	})
}
