// Package clienttest provides an in-memory fake of the resale backend for
// tests. It follows the real backend's routes and bookkeeping: order IDs are
// assigned on create, a financial record is written per order, and deleted
// orders are archived.
package clienttest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/erazemk/resaledesk/internal/model"
)

// Call is one request received by the fake.
type Call struct {
	Method string
	Path   string
}

// Backend is a fake backend served over HTTP.
type Backend struct {
	Server *httptest.Server

	mu        sync.Mutex
	inventory []model.InventoryItem
	orders    []model.Order
	financial []model.FinancialRecord
	deleted   []model.DeletedOrder
	users     map[string]string
	calls     []Call
	failures  map[string]int
	today     string
}

// NewBackend starts a fake backend that is closed when the test ends.
func NewBackend(t *testing.T) *Backend {
	t.Helper()
	b := &Backend{
		users:    map[string]string{},
		failures: map[string]int{},
		today:    time.Now().Format("2006-01-02"),
	}
	b.Server = httptest.NewServer(b.routes())
	t.Cleanup(b.Server.Close)
	return b
}

// URL returns the fake's base address.
func (b *Backend) URL() string { return b.Server.URL }

// SetInventory replaces the stored inventory.
func (b *Backend) SetInventory(items ...model.InventoryItem) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.inventory = append([]model.InventoryItem(nil), items...)
}

// SetOrders replaces the stored orders.
func (b *Backend) SetOrders(orders ...model.Order) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.orders = append([]model.Order(nil), orders...)
}

// SetFinancial replaces the stored financial records.
func (b *Backend) SetFinancial(records ...model.FinancialRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.financial = append([]model.FinancialRecord(nil), records...)
}

// SetDeleted replaces the stored deleted orders.
func (b *Backend) SetDeleted(orders ...model.DeletedOrder) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deleted = append([]model.DeletedOrder(nil), orders...)
}

// AddUser registers credentials accepted by POST /login.
func (b *Backend) AddUser(username, password string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.users[username] = password
}

// Fail makes every request matching method and path answer with status.
// A status of 0 clears the failure.
func (b *Backend) Fail(method, path string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := method + " " + path
	if status == 0 {
		delete(b.failures, key)
		return
	}
	b.failures[key] = status
}

// Inventory returns a copy of the stored inventory.
func (b *Backend) Inventory() []model.InventoryItem {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.InventoryItem(nil), b.inventory...)
}

// Orders returns a copy of the stored orders.
func (b *Backend) Orders() []model.Order {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.Order(nil), b.orders...)
}

// Deleted returns a copy of the stored deleted orders.
func (b *Backend) Deleted() []model.DeletedOrder {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.DeletedOrder(nil), b.deleted...)
}

// Financial returns a copy of the stored financial records.
func (b *Backend) Financial() []model.FinancialRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.FinancialRecord(nil), b.financial...)
}

// Calls returns every request received so far.
func (b *Backend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Call(nil), b.calls...)
}

// Count returns how many requests matched method and path.
func (b *Backend) Count(method, path string) int {
	n := 0
	for _, c := range b.Calls() {
		if c.Method == method && c.Path == path {
			n++
		}
	}
	return n
}

func (b *Backend) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /inventory", b.listInventory)
	mux.HandleFunc("POST /inventory", b.createItem)
	mux.HandleFunc("PUT /inventory/{name}", b.updateItem)
	mux.HandleFunc("DELETE /inventory/{name}", b.deleteItem)

	mux.HandleFunc("GET /orders", b.listOrders)
	mux.HandleFunc("POST /orders", b.createOrder)
	mux.HandleFunc("PUT /orders/{id}", b.updateOrder)
	mux.HandleFunc("DELETE /orders/{id}", b.deleteOrder)

	mux.HandleFunc("GET /financial", b.listFinancial)
	mux.HandleFunc("DELETE /financial/{id}", b.deleteFinancial)

	mux.HandleFunc("GET /deleted-orders", b.listDeleted)
	mux.HandleFunc("DELETE /deleted-orders", b.clearDeleted)
	mux.HandleFunc("POST /deleted-orders/{id}", b.recoverDeleted)
	mux.HandleFunc("DELETE /deleted-orders/{id}", b.purgeDeleted)

	mux.HandleFunc("POST /login", b.login)
	mux.HandleFunc("POST /remove-background", b.removeBackground)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.calls = append(b.calls, Call{Method: r.Method, Path: r.URL.Path})
		status, fail := b.failures[r.Method+" "+r.URL.Path]
		b.mu.Unlock()

		if fail {
			writeJSON(w, status, map[string]string{"error": fmt.Sprintf("injected %d", status)})
			return
		}
		mux.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (b *Backend) listInventory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, b.Inventory())
}

func (b *Backend) createItem(w http.ResponseWriter, r *http.Request) {
	var item model.InventoryItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	b.mu.Lock()
	b.inventory = append(b.inventory, item)
	b.mu.Unlock()
	writeJSON(w, http.StatusCreated, item)
}

func (b *Backend) updateItem(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	var item model.InventoryItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.inventory {
		if b.inventory[i].Name == name {
			b.inventory[i] = item
			writeJSON(w, http.StatusOK, item)
			return
		}
	}
	writeError(w, http.StatusNotFound, "Item not found")
}

func (b *Backend) deleteItem(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.inventory {
		if b.inventory[i].Name == name {
			b.inventory = append(b.inventory[:i], b.inventory[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"message": "Item deleted"})
			return
		}
	}
	writeError(w, http.StatusNotFound, "Item not found")
}

func (b *Backend) listOrders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, b.Orders())
}

func (b *Backend) createOrder(w http.ResponseWriter, r *http.Request) {
	var order model.Order
	if err := json.NewDecoder(r.Body).Decode(&order); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	// The real backend refuses orders for items it considers out of stock.
	inStock := false
	for _, item := range b.inventory {
		if item.Name == order.ItemsPurchased && item.Quantity > 0 {
			inStock = true
		}
	}
	if !inStock {
		writeError(w, http.StatusBadRequest, "Item out of stock")
		return
	}

	if order.ID == "" {
		maxID := 0
		for _, o := range b.orders {
			if n, err := strconv.Atoi(string(o.ID)); err == nil && n > maxID {
				maxID = n
			}
		}
		order.ID = model.Key(strconv.Itoa(maxID + 1))
	}
	if order.OrderDate == "" {
		order.OrderDate = b.today
	}
	b.orders = append(b.orders, order)

	fees := order.TotalCost.Value().Mul(model.ParseDecimal("0.1").Value())
	b.financial = append(b.financial, model.FinancialRecord{
		TransactionID:   model.Key(strconv.Itoa(len(b.financial) + 1)),
		TransactionDate: order.OrderDate,
		OrderID:         order.ID,
		TotalSales:      order.SalesPrice,
		Profit:          model.NewDecimal(order.Profit()),
		Fees:            model.NewDecimal(fees),
	})

	writeJSON(w, http.StatusCreated, order)
}

func (b *Backend) updateOrder(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var order model.Order
	if err := json.NewDecoder(r.Body).Decode(&order); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	order.ID = model.Key(id)

	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.orders {
		if string(b.orders[i].ID) == id {
			if order.OrderDate == "" {
				order.OrderDate = b.orders[i].OrderDate
			}
			b.orders[i] = order
			writeJSON(w, http.StatusOK, order)
			return
		}
	}
	writeError(w, http.StatusNotFound, "Order not found")
}

func (b *Backend) deleteOrder(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.orders {
		if string(b.orders[i].ID) == id {
			b.deleted = append(b.deleted, model.DeletedOrder{Order: b.orders[i], DeletionDate: b.today})
			b.orders = append(b.orders[:i], b.orders[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"message": "Order deleted and archived successfully"})
			return
		}
	}
	writeError(w, http.StatusNotFound, "Order not found")
}

func (b *Backend) listFinancial(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	records := append([]model.FinancialRecord(nil), b.financial...)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, records)
}

func (b *Backend) deleteFinancial(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.financial {
		if string(b.financial[i].TransactionID) == id {
			b.financial = append(b.financial[:i], b.financial[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"message": "Financial record deleted successfully"})
			return
		}
	}
	writeError(w, http.StatusNotFound, "Record not found")
}

func (b *Backend) listDeleted(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, b.Deleted())
}

func (b *Backend) clearDeleted(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.deleted = nil
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"message": "All deleted orders permanently removed"})
}

func (b *Backend) recoverDeleted(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.deleted {
		if string(b.deleted[i].ID) == id {
			recovered := b.deleted[i].Order
			b.orders = append(b.orders, recovered)
			b.deleted = append(b.deleted[:i], b.deleted[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]any{
				"message":         "Order recovered successfully",
				"recovered_order": recovered,
			})
			return
		}
	}
	writeError(w, http.StatusNotFound, "Deleted order not found")
}

func (b *Backend) purgeDeleted(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.deleted {
		if string(b.deleted[i].ID) == id {
			b.deleted = append(b.deleted[:i], b.deleted[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"message": "Order permanently deleted"})
			return
		}
	}
	writeError(w, http.StatusNotFound, "Deleted order not found")
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	var creds model.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	b.mu.Lock()
	password, ok := b.users[creds.Username]
	b.mu.Unlock()
	if !ok || password != creds.Password {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"username": creds.Username,
		"token":    "token-" + creds.Username,
	})
}

func (b *Backend) removeBackground(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(16 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "No images provided")
		return
	}
	files := r.MultipartForm.File["images[]"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "No images provided")
		return
	}

	var processed []map[string]string
	for _, fh := range files {
		processed = append(processed, map[string]string{
			"filename":      "processed_" + fh.Filename,
			"processed_url": "/static/images/processed/processed_" + fh.Filename,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":          fmt.Sprintf("Successfully processed %d images", len(processed)),
		"processed_images": processed,
		"zip_url":          "/static/images/processed/processed_images.zip",
	})
}
