package web

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/resaledesk/internal/model"
	"github.com/erazemk/resaledesk/internal/view"
)

type deletedOrdersPage struct {
	PageData
	Loaded bool
	Orders []model.DeletedOrder
}

// DeletedOrdersPage handles GET /deleted-orders.
func (s *Server) DeletedOrdersPage(w http.ResponseWriter, r *http.Request) {
	v := view.NewDeletedOrders(s.backend(r))
	if err := v.Load(r.Context()); err != nil && s.needsLogin(w, r, err) {
		return
	}

	s.Templates.Render(w, "deleted_orders.html", &deletedOrdersPage{
		PageData: s.page(w, r, "Deleted orders", "deleted", v.Notice()),
		Loaded:   v.Loaded(),
		Orders:   v.Orders(),
	})
}

// DeletedOrderRecoverSubmit handles POST /deleted-orders/{id}/recover.
func (s *Server) DeletedOrderRecoverSubmit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	v := view.NewDeletedOrders(s.backend(r))
	if _, err := v.Recover(r.Context(), id); err == nil {
		slog.Info("order recovered", "order", id)
	} else if s.needsLogin(w, r, err) {
		return
	}
	redirectWithNotice(w, r, "/deleted-orders", v.Notice())
}

// DeletedOrderDeleteSubmit handles POST /deleted-orders/{id}/delete.
func (s *Server) DeletedOrderDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	v := view.NewDeletedOrders(s.backend(r))
	if err := v.Delete(r.Context(), id); err == nil {
		slog.Info("deleted order purged", "order", id)
	} else if s.needsLogin(w, r, err) {
		return
	}
	redirectWithNotice(w, r, "/deleted-orders", v.Notice())
}

// DeletedOrdersDeleteAllSubmit handles POST /deleted-orders/delete-all.
func (s *Server) DeletedOrdersDeleteAllSubmit(w http.ResponseWriter, r *http.Request) {
	v := view.NewDeletedOrders(s.backend(r))
	if err := v.DeleteAll(r.Context()); err == nil {
		slog.Info("all deleted orders purged")
	} else if s.needsLogin(w, r, err) {
		return
	}
	redirectWithNotice(w, r, "/deleted-orders", v.Notice())
}
