package web

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/erazemk/resaledesk/internal/model"
	"github.com/erazemk/resaledesk/internal/view"
)

type ordersPage struct {
	PageData
	Loaded     bool
	Orders     []model.Order
	Statuses   []string
	Status     string
	Descending bool
	ToggleURL  string
	Today      string
}

// OrdersPage handles GET /orders.
func (s *Server) OrdersPage(w http.ResponseWriter, r *http.Request) {
	v := view.NewOrders(s.backend(r))
	if err := v.Load(r.Context()); err != nil && s.needsLogin(w, r, err) {
		return
	}

	q := r.URL.Query()
	v.SetStatusFilter(q.Get("status"))
	v.SetDescending(q.Get("order") == "desc")

	toggle := url.Values{}
	if st := v.StatusFilter(); st != "" {
		toggle.Set("status", st)
	}
	if !v.Descending() {
		toggle.Set("order", "desc")
	} else {
		toggle.Set("order", "asc")
	}

	s.Templates.Render(w, "orders.html", &ordersPage{
		PageData:   s.page(w, r, "Orders", "orders", v.Notice()),
		Loaded:     v.Loaded(),
		Orders:     v.Visible(),
		Statuses:   model.ShippingStatuses,
		Status:     v.StatusFilter(),
		Descending: v.Descending(),
		ToggleURL:  "/orders?" + toggle.Encode(),
		Today:      s.Now().Format(time.DateOnly),
	})
}

// OrderCreateSubmit handles POST /orders.
func (s *Server) OrderCreateSubmit(w http.ResponseWriter, r *http.Request) {
	order, err := orderFromForm(r)
	if err != nil {
		redirectWithNotice(w, r, "/orders", &view.Notice{Level: view.NoticeError, Message: err.Error()})
		return
	}

	v := view.NewOrders(s.backend(r))
	if err := v.Create(r.Context(), order); err == nil {
		slog.Info("order created", "buyer", order.BuyerName)
	} else if s.needsLogin(w, r, err) {
		return
	}
	redirectWithNotice(w, r, "/orders", v.Notice())
}

// OrderStatusSubmit handles POST /orders/{id}/status. The order is reloaded
// so the full record is sent back with the new status.
func (s *Server) OrderStatusSubmit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	status := r.FormValue("shipping_status")

	v := view.NewOrders(s.backend(r))
	if err := v.Load(r.Context()); err != nil {
		if !s.needsLogin(w, r, err) {
			redirectWithNotice(w, r, "/orders", v.Notice())
		}
		return
	}
	if err := v.UpdateStatus(r.Context(), id, status); err == nil {
		slog.Info("order status updated", "order", id, "status", status)
	}
	redirectWithNotice(w, r, "/orders", v.Notice())
}

// OrderDeleteSubmit handles POST /orders/{id}/delete.
func (s *Server) OrderDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	v := view.NewOrders(s.backend(r))
	if err := v.Delete(r.Context(), id); err == nil {
		slog.Info("order deleted", "order", id)
	} else if s.needsLogin(w, r, err) {
		return
	}
	redirectWithNotice(w, r, "/orders", v.Notice())
}

// orderFromForm reads a manually entered order from a submitted form.
func orderFromForm(r *http.Request) (model.Order, error) {
	order := model.Order{
		BuyerName:      strings.TrimSpace(r.FormValue("buyer_name")),
		ItemsPurchased: strings.TrimSpace(r.FormValue("items_purchased")),
		ShippingStatus: r.FormValue("shipping_status"),
		OrderDate:      strings.TrimSpace(r.FormValue("order_date")),
	}

	var ok bool
	if order.TotalCost, ok = model.ParseDecimalStrict(r.FormValue("total_cost")); !ok {
		return order, &model.ValidationError{Field: "total_cost", Message: "total cost must be a number"}
	}
	if order.SalesPrice, ok = model.ParseDecimalStrict(r.FormValue("sales_price")); !ok {
		return order, &model.ValidationError{Field: "sales_price", Message: "sales price must be a number"}
	}
	if order.OrderDate != "" {
		if _, err := time.Parse(time.DateOnly, order.OrderDate); err != nil {
			return order, &model.ValidationError{Field: "order_date", Message: "date must look like 2006-01-02"}
		}
	}
	return order, nil
}
