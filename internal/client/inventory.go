package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/erazemk/resaledesk/internal/model"
)

// ListInventory returns every inventory item.
func (c *Client) ListInventory(ctx context.Context) ([]model.InventoryItem, error) {
	var items []model.InventoryItem
	if err := c.do(ctx, http.MethodGet, "/inventory", nil, &items); err != nil {
		return nil, fmt.Errorf("listing inventory: %w", err)
	}
	if items == nil {
		items = []model.InventoryItem{}
	}
	return items, nil
}

// CreateInventoryItem adds an item and returns it as stored.
func (c *Client) CreateInventoryItem(ctx context.Context, item model.InventoryItem) (*model.InventoryItem, error) {
	var created model.InventoryItem
	if err := c.do(ctx, http.MethodPost, "/inventory", item, &created); err != nil {
		return nil, fmt.Errorf("creating item %q: %w", item.Name, err)
	}
	return &created, nil
}

// UpdateInventoryItem replaces the item stored under name.
func (c *Client) UpdateInventoryItem(ctx context.Context, name string, item model.InventoryItem) (*model.InventoryItem, error) {
	var updated model.InventoryItem
	if err := c.do(ctx, http.MethodPut, "/inventory/"+escape(name), item, &updated); err != nil {
		return nil, fmt.Errorf("updating item %q: %w", name, err)
	}
	return &updated, nil
}

// DeleteInventoryItem removes the item stored under name.
func (c *Client) DeleteInventoryItem(ctx context.Context, name string) error {
	if err := c.do(ctx, http.MethodDelete, "/inventory/"+escape(name), nil, nil); err != nil {
		return fmt.Errorf("deleting item %q: %w", name, err)
	}
	return nil
}
