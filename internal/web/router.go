package web

import (
	"net/http"

	webembed "github.com/erazemk/resaledesk/web"
)

// Router returns the dashboard's page router with all routes registered.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	// Static assets.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))

	mux.HandleFunc("GET /login", s.LoginPage)
	mux.HandleFunc("POST /login", s.LoginSubmit)
	mux.HandleFunc("POST /logout", s.Logout)

	mux.HandleFunc("GET /{$}", s.Dashboard)

	mux.HandleFunc("GET /inventory", s.InventoryPage)
	mux.HandleFunc("POST /inventory", s.InventoryCreateSubmit)
	mux.HandleFunc("POST /inventory/{name}", s.InventoryUpdateSubmit)
	mux.HandleFunc("POST /inventory/{name}/delete", s.InventoryDeleteSubmit)
	mux.HandleFunc("POST /inventory/{name}/sell", s.InventorySellSubmit)

	mux.HandleFunc("GET /orders", s.OrdersPage)
	mux.HandleFunc("POST /orders", s.OrderCreateSubmit)
	mux.HandleFunc("POST /orders/{id}/status", s.OrderStatusSubmit)
	mux.HandleFunc("POST /orders/{id}/delete", s.OrderDeleteSubmit)

	mux.HandleFunc("GET /financial", s.FinancialPage)
	mux.HandleFunc("POST /financial/{id}/delete", s.FinancialDeleteSubmit)

	mux.HandleFunc("GET /deleted-orders", s.DeletedOrdersPage)
	mux.HandleFunc("POST /deleted-orders/delete-all", s.DeletedOrdersDeleteAllSubmit)
	mux.HandleFunc("POST /deleted-orders/{id}/recover", s.DeletedOrderRecoverSubmit)
	mux.HandleFunc("POST /deleted-orders/{id}/delete", s.DeletedOrderDeleteSubmit)

	mux.HandleFunc("GET /photos", s.PhotosPage)
	mux.HandleFunc("POST /photos", s.PhotosSubmit)

	return LoggingMiddleware(SessionMiddleware(s.Secret, s.Journal)(mux))
}
