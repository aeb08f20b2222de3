package view

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/erazemk/resaledesk/internal/aggregate"
	"github.com/erazemk/resaledesk/internal/model"
)

// RecentOrderCount is how many orders the recent-orders lists show.
const RecentOrderCount = 5

// OrdersBackend is the part of the REST client the orders page needs.
type OrdersBackend interface {
	ListOrders(ctx context.Context) ([]model.Order, error)
	CreateOrder(ctx context.Context, order model.Order) (*model.Order, error)
	UpdateOrderStatus(ctx context.Context, order model.Order, status string) (*model.Order, error)
	DeleteOrder(ctx context.Context, id string) error
}

// Orders is the state of the orders page.
type Orders struct {
	base
	backend OrdersBackend

	orders     []model.Order
	status     string
	descending bool
}

// NewOrders creates an empty orders page.
func NewOrders(backend OrdersBackend) *Orders {
	return &Orders{backend: backend}
}

// Load fetches the orders.
func (v *Orders) Load(ctx context.Context) error {
	gen := v.begin()
	orders, err := v.backend.ListOrders(ctx)
	return v.finish(gen, err, func() { v.orders = orders })
}

// SetStatusFilter shows only orders with status; empty shows all.
func (v *Orders) SetStatusFilter(status string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.status = status
}

// StatusFilter returns the current status filter.
func (v *Orders) StatusFilter() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.status
}

// SetDescending chooses the order-ID sort direction.
func (v *Orders) SetDescending(desc bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.descending = desc
}

// ToggleSort flips the order-ID sort direction.
func (v *Orders) ToggleSort() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.descending = !v.descending
}

// Descending reports whether orders are listed highest ID first.
func (v *Orders) Descending() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.descending
}

// Orders returns every loaded order in backend order.
func (v *Orders) Orders() []model.Order {
	v.mu.Lock()
	defer v.mu.Unlock()
	return slices.Clone(v.orders)
}

// Visible returns the orders matching the status filter, sorted by ID.
func (v *Orders) Visible() []model.Order {
	v.mu.Lock()
	defer v.mu.Unlock()

	orders := aggregate.FilterEqual(v.orders, v.status, orderStatus)
	cmp := aggregate.ByNumericString(orderID)
	if v.descending {
		cmp = aggregate.Descending(cmp)
	}
	return aggregate.SortBy(orders, cmp)
}

// Recent returns the last RecentOrderCount orders, newest first.
func (v *Orders) Recent() []model.Order {
	v.mu.Lock()
	defer v.mu.Unlock()
	return aggregate.Recent(v.orders, RecentOrderCount)
}

// Create validates and adds a manually entered order. Its ID is assigned by
// the backend.
func (v *Orders) Create(ctx context.Context, order model.Order) error {
	if err := validateOrder(order); err != nil {
		v.SetNotice(&Notice{Level: NoticeError, Message: err.Error()})
		return err
	}
	order.ID = ""
	if order.ShippingStatus == "" {
		order.ShippingStatus = model.StatusPending
	}

	created, err := v.backend.CreateOrder(ctx, order)
	if err != nil {
		return v.fail(err)
	}

	v.mu.Lock()
	v.orders = append(v.orders, *created)
	v.mu.Unlock()
	v.succeed(fmt.Sprintf("Created order %s.", created.ID))
	return nil
}

// UpdateStatus changes the shipping status of the order with id.
func (v *Orders) UpdateStatus(ctx context.Context, id, status string) error {
	v.mu.Lock()
	i := v.indexLocked(id)
	var order model.Order
	if i >= 0 {
		order = v.orders[i]
	}
	v.mu.Unlock()
	if i < 0 {
		err := &model.ValidationError{Field: "order_id", Message: fmt.Sprintf("no order %s", id)}
		v.SetNotice(&Notice{Level: NoticeError, Message: err.Error()})
		return err
	}

	updated, err := v.backend.UpdateOrderStatus(ctx, order, status)
	if err != nil {
		return v.fail(err)
	}

	v.mu.Lock()
	if i := v.indexLocked(id); i >= 0 {
		orders := slices.Clone(v.orders)
		orders[i] = *updated
		v.orders = orders
	}
	v.mu.Unlock()
	v.succeed(fmt.Sprintf("Order %s is now %s.", id, status))
	return nil
}

// Delete moves the order with id to the deleted orders.
func (v *Orders) Delete(ctx context.Context, id string) error {
	if err := v.backend.DeleteOrder(ctx, id); err != nil {
		return v.fail(err)
	}

	v.mu.Lock()
	if i := v.indexLocked(id); i >= 0 {
		v.orders = slices.Delete(slices.Clone(v.orders), i, i+1)
	}
	v.mu.Unlock()
	v.succeed(fmt.Sprintf("Order %s moved to deleted orders.", id))
	return nil
}

func (v *Orders) indexLocked(id string) int {
	return slices.IndexFunc(v.orders, func(o model.Order) bool { return string(o.ID) == id })
}

func validateOrder(o model.Order) error {
	if strings.TrimSpace(o.BuyerName) == "" {
		return &model.ValidationError{Field: "buyer_name", Message: "buyer name is required"}
	}
	if strings.TrimSpace(o.ItemsPurchased) == "" {
		return &model.ValidationError{Field: "items_purchased", Message: "items purchased is required"}
	}
	if o.SalesPrice.Value().IsNegative() || o.TotalCost.Value().IsNegative() {
		return &model.ValidationError{Field: "sales_price", Message: "amounts cannot be negative"}
	}
	if o.ShippingStatus != "" && !model.ValidStatus(o.ShippingStatus) {
		return &model.ValidationError{Field: "shipping_status", Message: "unknown status " + o.ShippingStatus}
	}
	return nil
}

func orderID(o model.Order) string     { return string(o.ID) }
func orderStatus(o model.Order) string { return o.ShippingStatus }
