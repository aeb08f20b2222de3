package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/erazemk/resaledesk/internal/model"
)

// ListDeletedOrders returns the soft-deleted orders.
func (c *Client) ListDeletedOrders(ctx context.Context) ([]model.DeletedOrder, error) {
	var orders []model.DeletedOrder
	if err := c.do(ctx, http.MethodGet, "/deleted-orders", nil, &orders); err != nil {
		return nil, fmt.Errorf("listing deleted orders: %w", err)
	}
	if orders == nil {
		orders = []model.DeletedOrder{}
	}
	return orders, nil
}

type recoverResponse struct {
	Message        string      `json:"message"`
	RecoveredOrder model.Order `json:"recovered_order"`
}

// RecoverDeletedOrder moves a deleted order back to the active orders and
// returns it.
func (c *Client) RecoverDeletedOrder(ctx context.Context, id string) (*model.Order, error) {
	var resp recoverResponse
	if err := c.do(ctx, http.MethodPost, "/deleted-orders/"+escape(id), nil, &resp); err != nil {
		return nil, fmt.Errorf("recovering order %s: %w", id, err)
	}
	if resp.RecoveredOrder.ID == "" {
		resp.RecoveredOrder.ID = model.Key(id)
	}
	return &resp.RecoveredOrder, nil
}

// DeleteDeletedOrder permanently removes one deleted order.
func (c *Client) DeleteDeletedOrder(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/deleted-orders/"+escape(id), nil, nil); err != nil {
		return fmt.Errorf("permanently deleting order %s: %w", id, err)
	}
	return nil
}

// DeleteAllDeletedOrders permanently removes every deleted order in one call.
func (c *Client) DeleteAllDeletedOrders(ctx context.Context) error {
	if err := c.do(ctx, http.MethodDelete, "/deleted-orders", nil, nil); err != nil {
		return fmt.Errorf("clearing deleted orders: %w", err)
	}
	return nil
}
