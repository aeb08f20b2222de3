package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/erazemk/resaledesk/internal/model"
)

// ListOrders returns every active order.
func (c *Client) ListOrders(ctx context.Context) ([]model.Order, error) {
	var orders []model.Order
	if err := c.do(ctx, http.MethodGet, "/orders", nil, &orders); err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	if orders == nil {
		orders = []model.Order{}
	}
	return orders, nil
}

// CreateOrder posts a new order. Leave ID empty to let the backend assign
// one; the returned order carries the assigned ID and date.
func (c *Client) CreateOrder(ctx context.Context, order model.Order) (*model.Order, error) {
	var created model.Order
	if err := c.do(ctx, http.MethodPost, "/orders", order, &created); err != nil {
		return nil, fmt.Errorf("creating order: %w", err)
	}
	return &created, nil
}

// UpdateOrder replaces the order stored under id.
func (c *Client) UpdateOrder(ctx context.Context, id string, order model.Order) (*model.Order, error) {
	var updated model.Order
	if err := c.do(ctx, http.MethodPut, "/orders/"+escape(id), order, &updated); err != nil {
		return nil, fmt.Errorf("updating order %s: %w", id, err)
	}
	return &updated, nil
}

// UpdateOrderStatus sends the full order with its shipping status replaced.
func (c *Client) UpdateOrderStatus(ctx context.Context, order model.Order, status string) (*model.Order, error) {
	if !model.ValidStatus(status) {
		return nil, &model.ValidationError{Field: "shipping_status", Message: "unknown status " + status}
	}
	order.ShippingStatus = status
	return c.UpdateOrder(ctx, string(order.ID), order)
}

// DeleteOrder moves the order to the deleted-orders collection.
func (c *Client) DeleteOrder(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/orders/"+escape(id), nil, nil); err != nil {
		return fmt.Errorf("deleting order %s: %w", id, err)
	}
	return nil
}
