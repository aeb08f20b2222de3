package view

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/erazemk/resaledesk/internal/client"
	"github.com/erazemk/resaledesk/internal/client/clienttest"
	"github.com/erazemk/resaledesk/internal/model"
	"github.com/erazemk/resaledesk/internal/sale"
)

func setupBackend(t *testing.T) (*client.Client, *clienttest.Backend) {
	t.Helper()
	backend := clienttest.NewBackend(t)
	c, err := client.New(backend.URL())
	if err != nil {
		t.Fatalf("client.New: %v", err)
	}
	return c, backend
}

func item(name, category, cost, qty string) model.InventoryItem {
	return model.InventoryItem{
		Name:     name,
		Category: category,
		Cost:     model.ParseDecimal(cost),
		Quantity: model.ParseQuantity(qty),
	}
}

func order(id, status string) model.Order {
	return model.Order{
		ID:             model.Key(id),
		BuyerName:      "Buyer " + id,
		ItemsPurchased: "Item " + id,
		TotalCost:      model.ParseDecimal("10"),
		SalesPrice:     model.ParseDecimal("25"),
		ShippingStatus: status,
		OrderDate:      "2024-05-01",
	}
}

func financial(id, date, sales, profit string) model.FinancialRecord {
	return model.FinancialRecord{
		TransactionID:   model.Key(id),
		TransactionDate: date,
		OrderID:         model.Key(id),
		TotalSales:      model.ParseDecimal(sales),
		Profit:          model.ParseDecimal(profit),
	}
}

// gatedInventory blocks the first ListInventory call until released.
type gatedInventory struct {
	calls   int
	started chan struct{}
	release chan struct{}
}

func (g *gatedInventory) ListInventory(ctx context.Context) ([]model.InventoryItem, error) {
	g.calls++
	if g.calls == 1 {
		close(g.started)
		<-g.release
		return []model.InventoryItem{item("old", "", "1", "1")}, nil
	}
	return []model.InventoryItem{item("new", "", "1", "1")}, nil
}

func (g *gatedInventory) CreateInventoryItem(ctx context.Context, i model.InventoryItem) (*model.InventoryItem, error) {
	return &i, nil
}

func (g *gatedInventory) UpdateInventoryItem(ctx context.Context, name string, i model.InventoryItem) (*model.InventoryItem, error) {
	return &i, nil
}

func (g *gatedInventory) DeleteInventoryItem(ctx context.Context, name string) error { return nil }

func (g *gatedInventory) CreateOrder(ctx context.Context, o model.Order) (*model.Order, error) {
	return &o, nil
}

func TestStaleLoadDoesNotOverwrite(t *testing.T) {
	backend := &gatedInventory{started: make(chan struct{}), release: make(chan struct{})}
	v := NewInventory(backend, nil)

	firstErr := make(chan error, 1)
	go func() { firstErr <- v.Load(context.Background()) }()
	<-backend.started

	if err := v.Load(context.Background()); err != nil {
		t.Fatalf("second Load: %v", err)
	}
	close(backend.release)

	if err := <-firstErr; !errors.Is(err, ErrStale) {
		t.Errorf("expected ErrStale from superseded load, got %v", err)
	}
	items := v.Items()
	if len(items) != 1 || items[0].Name != "new" {
		t.Errorf("expected newer state to survive, got %+v", items)
	}
}

func TestDashboardLoad(t *testing.T) {
	c, backend := setupBackend(t)
	backend.SetInventory(item("Hat", "Accessories", "5", "4"), item("Coat", "Outerwear", "30", "10"))
	backend.SetOrders(order("1", model.StatusDelivered), order("2", model.StatusShipped),
		order("3", model.StatusPending), order("4", model.StatusPending), order("5", model.StatusPending),
		order("6", model.StatusPending))
	backend.SetFinancial(
		financial("1", "2024-04-03", "20", "8"),
		financial("2", "2024-03-15", "15.50", "5"),
		financial("3", "2024-04-20", "10", "abc"),
	)

	v := NewDashboard(c, 0)
	if err := v.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if v.InventoryCount() != 2 {
		t.Errorf("expected 2 items, got %d", v.InventoryCount())
	}
	totals := v.Totals()
	if totals.Sales.String() != "45.5" || totals.Profit.String() != "13" {
		t.Errorf("unexpected totals: sales=%s profit=%s", totals.Sales, totals.Profit)
	}
	low := v.LowStock()
	if len(low) != 1 || low[0].Name != "Hat" {
		t.Errorf("expected Hat to be low stock, got %+v", low)
	}
	recent := v.RecentOrders()
	if len(recent) != RecentOrderCount || recent[0].ID != "6" || recent[4].ID != "2" {
		t.Errorf("unexpected recent orders: %+v", recent)
	}
	monthly := v.Monthly()
	if len(monthly) != 2 || monthly[0].Key != "2024-03" || monthly[1].Sales.String() != "30" {
		t.Errorf("unexpected monthly buckets: %+v", monthly)
	}
	counts := v.StatusCounts()
	if counts[0].Status != model.StatusPending || counts[0].Count != 4 {
		t.Errorf("unexpected status counts: %+v", counts)
	}
}

func TestDashboardFailureKeepsState(t *testing.T) {
	c, backend := setupBackend(t)
	backend.SetInventory(item("Hat", "", "5", "1"))

	v := NewDashboard(c, 5)
	if err := v.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	backend.SetInventory()
	backend.Fail(http.MethodGet, "/financial", http.StatusInternalServerError)
	if err := v.Load(context.Background()); !errors.Is(err, client.ErrServer) {
		t.Fatalf("expected ErrServer, got %v", err)
	}

	if v.InventoryCount() != 1 {
		t.Errorf("expected previous inventory to be kept, got %d items", v.InventoryCount())
	}
	n := v.Notice()
	if n == nil || n.Level != NoticeError {
		t.Fatalf("expected error notice, got %+v", n)
	}
	if v.Notice() != nil {
		t.Error("expected notice to be cleared after reading")
	}
}

func TestInventoryVisible(t *testing.T) {
	c, backend := setupBackend(t)
	backend.SetInventory(
		item("Leather Jacket", "Outerwear", "40", "1"),
		item("Denim jacket", "Outerwear", "15", "3"),
		item("Sneakers", "Shoes", "25", "2"),
	)

	v := NewInventory(c, nil)
	if err := v.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	v.SetSearch("JACKET")
	if got := v.Visible(); len(got) != 2 {
		t.Errorf("expected 2 jackets, got %d", len(got))
	}

	v.SetSearch("")
	v.SetSort(SortCost)
	got := v.Visible()
	if got[0].Name != "Denim jacket" || got[2].Name != "Leather Jacket" {
		t.Errorf("unexpected cost order: %v, %v, %v", got[0].Name, got[1].Name, got[2].Name)
	}

	v.SetSort(SortQuantity)
	if v.Sort() != SortQuantity {
		t.Errorf("expected quantity sort to be kept, got %q", v.Sort())
	}
	got = v.Visible()
	if got[0].Name != "Leather Jacket" || got[1].Name != "Sneakers" || got[2].Name != "Denim jacket" {
		t.Errorf("unexpected quantity order: %v, %v, %v", got[0].Name, got[1].Name, got[2].Name)
	}

	v.SetCategory("Shoes")
	if got := v.Visible(); len(got) != 1 || got[0].Name != "Sneakers" {
		t.Errorf("expected only Sneakers, got %+v", got)
	}

	if cats := v.Categories(); len(cats) != 2 || cats[0] != "Outerwear" {
		t.Errorf("unexpected categories: %v", cats)
	}

	v.SetSort("price")
	if v.Sort() != SortNone {
		t.Errorf("expected unknown sort to be ignored, got %q", v.Sort())
	}
}

func TestInventoryCreateUpdateDelete(t *testing.T) {
	c, backend := setupBackend(t)
	v := NewInventory(c, nil)
	ctx := context.Background()

	if err := v.Create(ctx, item("Hat", "Accessories", "5", "2")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if n := v.Notice(); n == nil || n.Level != NoticeSuccess {
		t.Errorf("expected success notice, got %+v", n)
	}

	var ve *model.ValidationError
	if err := v.Create(ctx, item("Hat", "", "1", "1")); !errors.As(err, &ve) {
		t.Errorf("expected duplicate to be rejected, got %v", err)
	}
	if err := v.Create(ctx, item("", "", "1", "1")); !errors.As(err, &ve) {
		t.Errorf("expected empty name to be rejected, got %v", err)
	}
	if len(backend.Inventory()) != 1 {
		t.Errorf("expected rejected items not to reach the backend")
	}

	if err := v.Update(ctx, "Hat", item("Hat", "Accessories", "6", "3")); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got, _ := v.Find("Hat"); got.Quantity != 3 {
		t.Errorf("expected local quantity 3, got %d", got.Quantity)
	}

	if err := v.Delete(ctx, "Hat"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(v.Items()) != 0 || len(backend.Inventory()) != 0 {
		t.Error("expected item to be gone locally and remotely")
	}

	if err := v.Delete(ctx, "Hat"); !errors.Is(err, client.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if n := v.Notice(); n == nil || n.Message != "Item not found" {
		t.Errorf("expected backend message as notice, got %+v", n)
	}
}

type countingRecorder struct{ outcomes []sale.Outcome }

func (r *countingRecorder) Record(ctx context.Context, a sale.Attempt) error {
	r.outcomes = append(r.outcomes, a.Outcome)
	return nil
}

func TestInventorySell(t *testing.T) {
	c, backend := setupBackend(t)
	backend.SetInventory(item("Coat", "Outerwear", "30", "2"))
	rec := &countingRecorder{}

	v := NewInventory(c, rec)
	ctx := context.Background()
	if err := v.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}

	order, err := v.Sell(ctx, "Coat", "55")
	if err != nil {
		t.Fatalf("Sell: %v", err)
	}
	if order.ID == "" {
		t.Error("expected backend-assigned order ID")
	}
	if got, _ := v.Find("Coat"); got.Quantity != 1 {
		t.Errorf("expected local quantity 1, got %d", got.Quantity)
	}
	if n := v.Notice(); n == nil || n.Message != "Sold Coat for €55.00." {
		t.Errorf("unexpected notice: %+v", n)
	}

	// The backend refuses the order for the last unit; the sale rolls back.
	if _, err := v.Sell(ctx, "Coat", "55"); err == nil {
		t.Fatal("expected last-unit sale to fail")
	}
	if got, _ := v.Find("Coat"); got.Quantity != 1 {
		t.Errorf("expected quantity to stay 1, got %d", got.Quantity)
	}
	if got := backend.Inventory()[0].Quantity; got != 1 {
		t.Errorf("expected backend quantity restored to 1, got %d", got)
	}

	if _, err := v.Sell(ctx, "Coat", "-5"); err == nil {
		t.Error("expected negative price to be rejected")
	}

	want := []sale.Outcome{sale.OutcomeApplied, sale.OutcomeCompensated, sale.OutcomeAborted}
	if len(rec.outcomes) != len(want) {
		t.Fatalf("expected outcomes %v, got %v", want, rec.outcomes)
	}
	for i := range want {
		if rec.outcomes[i] != want[i] {
			t.Errorf("outcome %d: expected %s, got %s", i, want[i], rec.outcomes[i])
		}
	}
}

func TestInventorySellFollowsBackendStock(t *testing.T) {
	c, backend := setupBackend(t)
	backend.SetInventory(item("Coat", "Outerwear", "30", "2"))

	v := NewInventory(c, nil)
	ctx := context.Background()
	if err := v.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}

	// Restocked elsewhere after the page loaded.
	backend.SetInventory(item("Coat", "Outerwear", "30", "5"))
	if _, err := v.Sell(ctx, "Coat", "55"); err != nil {
		t.Fatalf("Sell: %v", err)
	}
	if got := backend.Inventory()[0].Quantity; got != 4 {
		t.Errorf("expected backend quantity 4, got %d", got)
	}
	if got, _ := v.Find("Coat"); got.Quantity != 4 {
		t.Errorf("expected local quantity 4, got %d", got.Quantity)
	}

	// Sold out elsewhere.
	backend.SetInventory(item("Coat", "Outerwear", "30", "0"))
	if _, err := v.Sell(ctx, "Coat", "55"); err == nil {
		t.Fatal("expected sold-out item to be refused")
	}
	if got := backend.Inventory()[0].Quantity; got != 0 {
		t.Errorf("expected backend quantity to stay 0, got %d", got)
	}
	if got, _ := v.Find("Coat"); got.Quantity != 0 {
		t.Errorf("expected local quantity 0, got %d", got.Quantity)
	}
	if n := v.Notice(); n == nil || !strings.Contains(n.Message, "out of stock") {
		t.Errorf("unexpected notice: %+v", n)
	}
}

func TestOrdersViewSortFilterStatus(t *testing.T) {
	c, backend := setupBackend(t)
	backend.SetOrders(order("10", model.StatusPending), order("9", model.StatusShipped), order("2", model.StatusPending))

	v := NewOrders(c)
	ctx := context.Background()
	if err := v.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}

	got := v.Visible()
	if got[0].ID != "2" || got[2].ID != "10" {
		t.Errorf("expected numeric ID order, got %v %v %v", got[0].ID, got[1].ID, got[2].ID)
	}
	v.ToggleSort()
	if got := v.Visible(); got[0].ID != "10" {
		t.Errorf("expected descending order, got first %v", got[0].ID)
	}

	v.SetStatusFilter(model.StatusPending)
	if got := v.Visible(); len(got) != 2 {
		t.Errorf("expected 2 pending orders, got %d", len(got))
	}

	if err := v.UpdateStatus(ctx, "9", model.StatusDelivered); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	for _, o := range backend.Orders() {
		if o.ID == "9" && o.ShippingStatus != model.StatusDelivered {
			t.Errorf("expected order 9 delivered, got %s", o.ShippingStatus)
		}
	}
	if err := v.UpdateStatus(ctx, "404", model.StatusDelivered); err == nil {
		t.Error("expected error for unknown order")
	}

	if err := v.Delete(ctx, "10"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(v.Orders()) != 2 || len(backend.Deleted()) != 1 {
		t.Error("expected order 10 to be archived")
	}
}

func TestOrdersCreate(t *testing.T) {
	c, backend := setupBackend(t)
	backend.SetInventory(item("Hat", "", "5", "3"))

	v := NewOrders(c)
	ctx := context.Background()

	err := v.Create(ctx, model.Order{
		ID:             "99",
		BuyerName:      "Eva",
		ItemsPurchased: "Hat",
		TotalCost:      model.ParseDecimal("5"),
		SalesPrice:     model.ParseDecimal("12"),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	orders := v.Orders()
	if len(orders) != 1 || orders[0].ID != "1" || orders[0].ShippingStatus != model.StatusPending {
		t.Errorf("expected backend-assigned order 1 pending, got %+v", orders)
	}

	var ve *model.ValidationError
	if err := v.Create(ctx, model.Order{ItemsPurchased: "Hat"}); !errors.As(err, &ve) {
		t.Errorf("expected missing buyer to be rejected, got %v", err)
	}
}

func TestFinancialRangeAndPaging(t *testing.T) {
	c, backend := setupBackend(t)
	var records []model.FinancialRecord
	for i := 1; i <= 12; i++ {
		date := time.Date(2024, 1, i, 0, 0, 0, 0, time.UTC).Format(time.DateOnly)
		records = append(records, financial(strconv.Itoa(i), date, "10", "4"))
	}
	backend.SetFinancial(records...)

	v := NewFinancial(c)
	ctx := context.Background()
	if err := v.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if v.PageCount() != 2 || len(v.Rows()) != 10 {
		t.Errorf("expected 2 pages of 10, got %d pages, %d rows", v.PageCount(), len(v.Rows()))
	}
	v.SetPage(5)
	if page, _ := v.Page(); page != 1 || len(v.Rows()) != 2 {
		t.Errorf("expected clamp to last page with 2 rows, got page %d rows %d", page, len(v.Rows()))
	}

	if err := v.SetPerPage(7); err == nil {
		t.Error("expected unsupported page size to be rejected")
	}
	if err := v.SetPerPage(5); err != nil || v.PageCount() != 3 {
		t.Errorf("expected 3 pages of 5, got %d (%v)", v.PageCount(), err)
	}

	start := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	if err := v.SetRange(start, end); err != nil {
		t.Fatalf("SetRange: %v", err)
	}
	if got := len(v.Filtered()); got != 3 {
		t.Errorf("expected 3 records in range, got %d", got)
	}
	if v.Totals().Sales.String() != "120" {
		t.Errorf("expected totals over all records, got %s", v.Totals().Sales)
	}
	if len(v.Daily()) != 12 {
		t.Errorf("expected 12 daily buckets, got %d", len(v.Daily()))
	}

	if err := v.SetRange(end, start); err == nil {
		t.Error("expected reversed range to be rejected")
	}
}

func TestFinancialDelete(t *testing.T) {
	c, backend := setupBackend(t)
	backend.SetFinancial(financial("1", "2024-01-01", "10", "1"), financial("2", "2024-01-02", "20", "2"))

	v := NewFinancial(c)
	ctx := context.Background()
	v.Load(ctx)

	if err := v.Delete(ctx, "1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(v.Filtered()) != 1 || len(backend.Financial()) != 1 {
		t.Error("expected record 1 to be removed")
	}
}

func TestDeletedOrdersDeleteAllIsOneCall(t *testing.T) {
	c, backend := setupBackend(t)
	backend.SetDeleted(
		model.DeletedOrder{Order: order("1", model.StatusPending), DeletionDate: "2024-05-01"},
		model.DeletedOrder{Order: order("2", model.StatusPending), DeletionDate: "2024-05-02"},
		model.DeletedOrder{Order: order("3", model.StatusPending), DeletionDate: "2024-05-03"},
	)

	v := NewDeletedOrders(c)
	ctx := context.Background()
	if err := v.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if err := v.DeleteAll(ctx); err != nil {
		t.Fatalf("DeleteAll: %v", err)
	}
	if len(v.Orders()) != 0 {
		t.Errorf("expected local collection to be empty, got %d", len(v.Orders()))
	}
	if n := backend.Count(http.MethodDelete, "/deleted-orders"); n != 1 {
		t.Errorf("expected exactly one bulk delete, got %d", n)
	}
	for _, call := range backend.Calls() {
		if call.Method == http.MethodDelete && call.Path != "/deleted-orders" {
			t.Errorf("unexpected per-order delete %s", call.Path)
		}
	}
}

func TestDeletedOrdersRecoverAndDelete(t *testing.T) {
	c, backend := setupBackend(t)
	backend.SetDeleted(
		model.DeletedOrder{Order: order("1", model.StatusShipped)},
		model.DeletedOrder{Order: order("2", model.StatusPending)},
	)

	v := NewDeletedOrders(c)
	ctx := context.Background()
	v.Load(ctx)

	recovered, err := v.Recover(ctx, "1")
	if err != nil {
		t.Fatalf("Recover: %v", err)
	}
	if recovered.ShippingStatus != model.StatusShipped {
		t.Errorf("expected recovered order to keep its status, got %s", recovered.ShippingStatus)
	}
	if err := v.Delete(ctx, "2"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(v.Orders()) != 0 || len(backend.Orders()) != 1 {
		t.Error("expected one recovered and one purged order")
	}

	if _, err := v.Recover(ctx, "2"); !errors.Is(err, client.ErrNotFound) {
		t.Errorf("expected ErrNotFound for purged order, got %v", err)
	}
}

func TestLoginView(t *testing.T) {
	c, backend := setupBackend(t)
	backend.AddUser("ana", "secret")

	v := NewLogin(c)
	ctx := context.Background()

	if _, err := v.Submit(ctx, model.Credentials{Username: "ana", Password: "nope"}); err == nil {
		t.Fatal("expected bad password to fail")
	}
	if n := v.Notice(); n == nil || n.Message != "Invalid credentials." {
		t.Errorf("unexpected notice: %+v", n)
	}
	if v.Username() != "ana" {
		t.Error("expected username to be kept for redisplay")
	}

	s, err := v.Submit(ctx, model.Credentials{Username: "ana", Password: "secret"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if s.Token == "" || v.Session() == nil {
		t.Error("expected a session")
	}

	v.Logout()
	if v.Session() != nil {
		t.Error("expected session to be cleared")
	}
}
