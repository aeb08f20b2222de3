package web

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/resaledesk/internal/journal"
	"github.com/erazemk/resaledesk/internal/model"
	"github.com/erazemk/resaledesk/internal/sale"
	"github.com/erazemk/resaledesk/internal/view"
)

type inventoryPage struct {
	PageData
	Loaded     bool
	Items      []model.InventoryItem
	Total      int
	Categories []string
	Conditions []string
	Search     string
	Category   string
	Sort       string
}

// inventory builds the inventory view for the request, wired to the journal
// so sales are recorded.
func (s *Server) inventory(r *http.Request) *view.Inventory {
	var recorder sale.Recorder
	if s.Journal != nil {
		recorder = &journal.Journal{DB: s.Journal}
	}
	return view.NewInventory(s.backend(r), recorder)
}

// InventoryPage handles GET /inventory.
func (s *Server) InventoryPage(w http.ResponseWriter, r *http.Request) {
	v := s.inventory(r)
	if err := v.Load(r.Context()); err != nil && s.needsLogin(w, r, err) {
		return
	}

	q := r.URL.Query()
	v.SetSearch(q.Get("q"))
	v.SetCategory(q.Get("category"))
	v.SetSort(q.Get("sort"))

	s.Templates.Render(w, "inventory.html", &inventoryPage{
		PageData:   s.page(w, r, "Inventory", "inventory", v.Notice()),
		Loaded:     v.Loaded(),
		Items:      v.Visible(),
		Total:      len(v.Items()),
		Categories: v.Categories(),
		Conditions: model.Conditions,
		Search:     v.Search(),
		Category:   v.Category(),
		Sort:       v.Sort(),
	})
}

// InventoryCreateSubmit handles POST /inventory.
func (s *Server) InventoryCreateSubmit(w http.ResponseWriter, r *http.Request) {
	item, err := itemFromForm(r)
	if err != nil {
		redirectWithNotice(w, r, "/inventory", &view.Notice{Level: view.NoticeError, Message: err.Error()})
		return
	}

	v := s.inventory(r)
	if err := v.Load(r.Context()); err != nil {
		if !s.needsLogin(w, r, err) {
			redirectWithNotice(w, r, "/inventory", v.Notice())
		}
		return
	}
	if err := v.Create(r.Context(), item); err == nil {
		slog.Info("item created", "item", item.Name)
	}
	redirectWithNotice(w, r, "/inventory", v.Notice())
}

// InventoryUpdateSubmit handles POST /inventory/{name}.
func (s *Server) InventoryUpdateSubmit(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	item, err := itemFromForm(r)
	if err != nil {
		redirectWithNotice(w, r, "/inventory", &view.Notice{Level: view.NoticeError, Message: err.Error()})
		return
	}

	v := s.inventory(r)
	if err := v.Update(r.Context(), name, item); err == nil {
		slog.Info("item updated", "item", name, "name", item.Name)
	} else if s.needsLogin(w, r, err) {
		return
	}
	redirectWithNotice(w, r, "/inventory", v.Notice())
}

// InventoryDeleteSubmit handles POST /inventory/{name}/delete.
func (s *Server) InventoryDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	v := s.inventory(r)
	if err := v.Delete(r.Context(), name); err == nil {
		slog.Info("item deleted", "item", name)
	} else if s.needsLogin(w, r, err) {
		return
	}
	redirectWithNotice(w, r, "/inventory", v.Notice())
}

// InventorySellSubmit handles POST /inventory/{name}/sell. The item is
// reloaded first so the sale starts from the backend's current quantity.
func (s *Server) InventorySellSubmit(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	v := s.inventory(r)
	if err := v.Load(r.Context()); err != nil {
		if !s.needsLogin(w, r, err) {
			redirectWithNotice(w, r, "/inventory", v.Notice())
		}
		return
	}

	if _, err := v.Sell(r.Context(), name, strings.TrimSpace(r.FormValue("price"))); err != nil {
		slog.Warn("sale failed", "item", name, "error", err)
	}
	redirectWithNotice(w, r, "/inventory", v.Notice())
}

// itemFromForm reads an inventory item from a submitted form.
func itemFromForm(r *http.Request) (model.InventoryItem, error) {
	item := model.InventoryItem{
		Name:        strings.TrimSpace(r.FormValue("item_name")),
		Category:    strings.TrimSpace(r.FormValue("category")),
		Size:        strings.TrimSpace(r.FormValue("size")),
		Condition:   r.FormValue("condition"),
		Description: strings.TrimSpace(r.FormValue("description")),
	}

	cost, ok := model.ParseDecimalStrict(r.FormValue("cost"))
	if !ok {
		return item, &model.ValidationError{Field: "cost", Message: "cost must be a number"}
	}
	item.Cost = cost

	qty := strings.TrimSpace(r.FormValue("quantity"))
	if qty == "" {
		return item, &model.ValidationError{Field: "quantity", Message: "quantity is required"}
	}
	item.Quantity = model.ParseQuantity(qty)
	return item, nil
}
