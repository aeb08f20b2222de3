package view

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/erazemk/resaledesk/internal/aggregate"
	"github.com/erazemk/resaledesk/internal/client"
	"github.com/erazemk/resaledesk/internal/model"
	"github.com/erazemk/resaledesk/internal/sale"
)

// Inventory sort fields.
const (
	SortNone     = ""
	SortName     = "name"
	SortCategory = "category"
	SortCost     = "cost"
	SortQuantity = "quantity"
)

// InventoryBackend is the part of the REST client the inventory page needs.
type InventoryBackend interface {
	sale.Backend
	CreateInventoryItem(ctx context.Context, item model.InventoryItem) (*model.InventoryItem, error)
	DeleteInventoryItem(ctx context.Context, name string) error
}

// Inventory is the state of the inventory page.
type Inventory struct {
	base
	backend  InventoryBackend
	recorder sale.Recorder

	items    []model.InventoryItem
	search   string
	category string
	sortBy   string
}

// NewInventory creates an empty inventory page. Sales are reported to
// recorder when it is non-nil.
func NewInventory(backend InventoryBackend, recorder sale.Recorder) *Inventory {
	return &Inventory{backend: backend, recorder: recorder}
}

// Load fetches the inventory.
func (v *Inventory) Load(ctx context.Context) error {
	gen := v.begin()
	items, err := v.backend.ListInventory(ctx)
	return v.finish(gen, err, func() { v.items = items })
}

// SetSearch filters visible items by a case-insensitive name substring.
func (v *Inventory) SetSearch(term string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.search = term
}

// SetCategory shows only items of category; empty shows all.
func (v *Inventory) SetCategory(category string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.category = category
}

// SetSort orders visible items by field. Unknown fields keep backend order.
func (v *Inventory) SetSort(field string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	switch field {
	case SortName, SortCategory, SortCost, SortQuantity:
		v.sortBy = field
	default:
		v.sortBy = SortNone
	}
}

// Search returns the current search term.
func (v *Inventory) Search() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.search
}

// Category returns the current category filter.
func (v *Inventory) Category() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.category
}

// Sort returns the current sort field.
func (v *Inventory) Sort() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.sortBy
}

// Items returns every loaded item in backend order.
func (v *Inventory) Items() []model.InventoryItem {
	v.mu.Lock()
	defer v.mu.Unlock()
	return slices.Clone(v.items)
}

// Visible returns the items matching the search and category, sorted.
func (v *Inventory) Visible() []model.InventoryItem {
	v.mu.Lock()
	defer v.mu.Unlock()

	items := aggregate.FilterBySubstring(v.items, v.search, itemName)
	items = aggregate.FilterEqual(items, v.category, itemCategory)

	switch v.sortBy {
	case SortName:
		items = aggregate.SortBy(items, aggregate.ByString(itemName))
	case SortCategory:
		items = aggregate.SortBy(items, aggregate.ByString(itemCategory))
	case SortCost:
		items = aggregate.SortBy(items, aggregate.ByDecimal(itemCost))
	case SortQuantity:
		items = aggregate.SortBy(items, aggregate.ByDecimal(itemQuantity))
	}
	return items
}

// Categories returns the distinct non-empty categories, sorted.
func (v *Inventory) Categories() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	var out []string
	for _, item := range v.items {
		if item.Category != "" && !slices.Contains(out, item.Category) {
			out = append(out, item.Category)
		}
	}
	slices.Sort(out)
	return out
}

// Find returns the loaded item with name.
func (v *Inventory) Find(name string) (model.InventoryItem, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	i := v.indexLocked(name)
	if i < 0 {
		return model.InventoryItem{}, false
	}
	return v.items[i], true
}

// Create validates and adds an item.
func (v *Inventory) Create(ctx context.Context, item model.InventoryItem) error {
	if err := item.Validate(); err != nil {
		v.SetNotice(&Notice{Level: NoticeError, Message: err.Error()})
		return err
	}
	if _, ok := v.Find(item.Name); ok {
		err := &model.ValidationError{Field: "item_name", Message: fmt.Sprintf("an item named %q already exists", item.Name)}
		v.SetNotice(&Notice{Level: NoticeError, Message: err.Error()})
		return err
	}

	created, err := v.backend.CreateInventoryItem(ctx, item)
	if err != nil {
		return v.fail(err)
	}

	v.mu.Lock()
	v.items = append(v.items, *created)
	v.mu.Unlock()
	v.succeed(fmt.Sprintf("Added %s.", created.Name))
	return nil
}

// Update validates and replaces the item stored under name. The item may be
// renamed.
func (v *Inventory) Update(ctx context.Context, name string, item model.InventoryItem) error {
	if err := item.Validate(); err != nil {
		v.SetNotice(&Notice{Level: NoticeError, Message: err.Error()})
		return err
	}

	updated, err := v.backend.UpdateInventoryItem(ctx, name, item)
	if err != nil {
		return v.fail(err)
	}

	v.mu.Lock()
	if i := v.indexLocked(name); i >= 0 {
		v.items[i] = *updated
	}
	v.mu.Unlock()
	v.succeed(fmt.Sprintf("Saved %s.", updated.Name))
	return nil
}

// Delete removes the item stored under name.
func (v *Inventory) Delete(ctx context.Context, name string) error {
	if err := v.backend.DeleteInventoryItem(ctx, name); err != nil {
		return v.fail(err)
	}

	v.mu.Lock()
	if i := v.indexLocked(name); i >= 0 {
		v.items = slices.Delete(slices.Clone(v.items), i, i+1)
	}
	v.mu.Unlock()
	v.succeed(fmt.Sprintf("Deleted %s.", name))
	return nil
}

// Sell runs the sale workflow for the named item at price and returns the
// created order. The local quantity follows what the backend now holds.
func (v *Inventory) Sell(ctx context.Context, name, price string) (*model.Order, error) {
	item, ok := v.Find(name)
	if !ok {
		err := &model.ValidationError{Field: "item_name", Message: fmt.Sprintf("no item named %q", name)}
		v.SetNotice(&Notice{Level: NoticeError, Message: err.Error()})
		return nil, err
	}

	var opts []sale.Option
	if v.recorder != nil {
		opts = append(opts, sale.WithRecorder(v.recorder))
	}
	w := sale.New(v.backend, opts...)
	if err := w.Begin(item); err != nil {
		return nil, err
	}
	if price != "" {
		if err := w.SetPrice(price); err != nil {
			return nil, err
		}
	}

	order, err := w.Confirm(ctx)
	var se *sale.SaleError
	// The workflow re-reads the item, so its copy is fresher than ours.
	left := w.Item().Quantity
	switch {
	case err == nil:
		v.setQuantity(name, left-1)
		v.succeed(fmt.Sprintf("Sold %s for €%s.", name, order.SalesPrice.Fixed()))
		return order, nil
	case errors.As(err, &se) && se.Unreconciled:
		v.setQuantity(name, left-1)
		v.SetNotice(&Notice{Level: NoticeError, Message: fmt.Sprintf(
			"Sale of %s failed and its stock is now one short. Attempt %s was journaled for repair.", name, se.AttemptID)})
	case errors.As(err, &se) && se.Compensated:
		v.SetNotice(&Notice{Level: NoticeError, Message: fmt.Sprintf(
			"Could not create the order, so %s was left in stock: %s", name, client.Describe(se.Err))})
	default:
		v.SetNotice(&Notice{Level: NoticeError, Message: client.Describe(err)})
	}
	v.setQuantity(name, left)
	return nil, err
}

func (v *Inventory) setQuantity(name string, q model.Quantity) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if i := v.indexLocked(name); i >= 0 {
		items := slices.Clone(v.items)
		items[i].Quantity = q
		v.items = items
	}
}

func (v *Inventory) indexLocked(name string) int {
	return slices.IndexFunc(v.items, func(i model.InventoryItem) bool { return i.Name == name })
}

func itemName(i model.InventoryItem) string          { return i.Name }
func itemCategory(i model.InventoryItem) string      { return i.Category }
func itemCost(i model.InventoryItem) decimal.Decimal { return i.Cost.Value() }
func itemQuantity(i model.InventoryItem) decimal.Decimal {
	return decimal.NewFromInt(int64(i.Quantity))
}
