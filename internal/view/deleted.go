package view

import (
	"context"
	"fmt"
	"slices"

	"github.com/erazemk/resaledesk/internal/model"
)

// DeletedOrdersBackend is the part of the REST client the deleted orders page needs.
type DeletedOrdersBackend interface {
	ListDeletedOrders(ctx context.Context) ([]model.DeletedOrder, error)
	RecoverDeletedOrder(ctx context.Context, id string) (*model.Order, error)
	DeleteDeletedOrder(ctx context.Context, id string) error
	DeleteAllDeletedOrders(ctx context.Context) error
}

// DeletedOrders is the state of the deleted orders page.
type DeletedOrders struct {
	base
	backend DeletedOrdersBackend

	orders []model.DeletedOrder
}

// NewDeletedOrders creates an empty deleted orders page.
func NewDeletedOrders(backend DeletedOrdersBackend) *DeletedOrders {
	return &DeletedOrders{backend: backend}
}

// Load fetches the deleted orders.
func (v *DeletedOrders) Load(ctx context.Context) error {
	gen := v.begin()
	orders, err := v.backend.ListDeletedOrders(ctx)
	return v.finish(gen, err, func() { v.orders = orders })
}

// Orders returns the loaded deleted orders.
func (v *DeletedOrders) Orders() []model.DeletedOrder {
	v.mu.Lock()
	defer v.mu.Unlock()
	return slices.Clone(v.orders)
}

// Recover moves the order back to the active orders and returns it.
func (v *DeletedOrders) Recover(ctx context.Context, id string) (*model.Order, error) {
	order, err := v.backend.RecoverDeletedOrder(ctx, id)
	if err != nil {
		return nil, v.fail(err)
	}
	v.remove(id)
	v.succeed(fmt.Sprintf("Recovered order %s.", id))
	return order, nil
}

// Delete permanently removes one deleted order.
func (v *DeletedOrders) Delete(ctx context.Context, id string) error {
	if err := v.backend.DeleteDeletedOrder(ctx, id); err != nil {
		return v.fail(err)
	}
	v.remove(id)
	v.succeed(fmt.Sprintf("Permanently deleted order %s.", id))
	return nil
}

// DeleteAll permanently removes every deleted order with a single request.
func (v *DeletedOrders) DeleteAll(ctx context.Context) error {
	if err := v.backend.DeleteAllDeletedOrders(ctx); err != nil {
		return v.fail(err)
	}
	v.mu.Lock()
	v.orders = []model.DeletedOrder{}
	v.mu.Unlock()
	v.succeed("Permanently deleted all orders.")
	return nil
}

func (v *DeletedOrders) remove(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if i := slices.IndexFunc(v.orders, func(o model.DeletedOrder) bool { return string(o.ID) == id }); i >= 0 {
		v.orders = slices.Delete(slices.Clone(v.orders), i, i+1)
	}
}
