// Package sale implements marking an inventory item as sold: decrementing its
// stock and recording an order. The backend has no transactional endpoint for
// this, so the workflow restores the item when the order cannot be created.
package sale

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/resaledesk/internal/model"
)

// DefaultBuyer is the buyer name recorded until the real buyer is known.
const DefaultBuyer = "Pending"

// compensationTimeout bounds the restore request, which runs even when the
// caller's context is already cancelled.
const compensationTimeout = 10 * time.Second

// ErrInvalidState is returned when an operation is not allowed in the
// workflow's current state.
var ErrInvalidState = errors.New("operation not allowed in current sale state")

// State is a step of the workflow.
type State int

const (
	Browsing State = iota
	PriceEntry
	Confirming
	Applied
	Aborted
)

func (s State) String() string {
	switch s {
	case Browsing:
		return "browsing"
	case PriceEntry:
		return "price entry"
	case Confirming:
		return "confirming"
	case Applied:
		return "applied"
	case Aborted:
		return "aborted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Backend is the part of the REST client the workflow needs.
type Backend interface {
	ListInventory(ctx context.Context) ([]model.InventoryItem, error)
	UpdateInventoryItem(ctx context.Context, name string, item model.InventoryItem) (*model.InventoryItem, error)
	CreateOrder(ctx context.Context, order model.Order) (*model.Order, error)
}

// Workflow drives a single sale at a time. It is not safe for concurrent use.
type Workflow struct {
	backend  Backend
	recorder Recorder
	now      func() time.Time

	state     State
	attemptID string
	item      model.InventoryItem
	price     string
	order     *model.Order
	err       error
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithRecorder reports every finished attempt to r.
func WithRecorder(r Recorder) Option {
	return func(w *Workflow) { w.recorder = r }
}

// WithClock replaces the clock used for order dates and attempt timestamps.
func WithClock(now func() time.Time) Option {
	return func(w *Workflow) { w.now = now }
}

// New creates a workflow in the Browsing state.
func New(backend Backend, opts ...Option) *Workflow {
	w := &Workflow{backend: backend, now: time.Now}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// State returns the current step.
func (w *Workflow) State() State { return w.state }

// Item returns the item being sold: as passed to Begin, then as the backend
// held it when Confirm re-read it.
func (w *Workflow) Item() model.InventoryItem { return w.item }

// Price returns the proposed price as entered.
func (w *Workflow) Price() string { return w.price }

// Order returns the created order once the sale is Applied.
func (w *Workflow) Order() *model.Order { return w.order }

// Err returns the error that ended the last attempt, if any.
func (w *Workflow) Err() error { return w.err }

// AttemptID identifies the current attempt in the journal.
func (w *Workflow) AttemptID() string { return w.attemptID }

// Begin starts selling item. The proposed price starts at the item's cost.
func (w *Workflow) Begin(item model.InventoryItem) error {
	if w.state == Confirming {
		return ErrInvalidState
	}
	w.state = PriceEntry
	w.attemptID = uuid.NewString()
	w.item = item
	w.price = item.Cost.String()
	w.order = nil
	w.err = nil
	return nil
}

// SetPrice replaces the proposed price. It is validated on Confirm.
func (w *Workflow) SetPrice(price string) error {
	if w.state != PriceEntry {
		return ErrInvalidState
	}
	w.price = price
	return nil
}

// Cancel abandons the sale without contacting the backend.
func (w *Workflow) Cancel(ctx context.Context) error {
	if w.state != PriceEntry {
		return ErrInvalidState
	}
	w.state = Aborted
	w.record(ctx, OutcomeAborted, nil)
	return nil
}

// Confirm validates the proposal and applies it: the item's quantity is
// decremented, then an order is created. If the order fails the item is put
// back. On success the created order is returned.
func (w *Workflow) Confirm(ctx context.Context) (*model.Order, error) {
	if w.state != PriceEntry {
		return nil, ErrInvalidState
	}
	w.state = Confirming

	price, ok := model.ParseDecimalStrict(w.price)
	if !ok || !price.IsPositive() {
		return nil, w.abort(ctx, &model.ValidationError{Field: "sales_price", Message: "price must be a positive number"})
	}
	if w.item.Quantity <= 0 {
		return nil, w.abort(ctx, &model.ValidationError{Field: "quantity", Message: "item is out of stock"})
	}

	// The item may have changed since Begin. Decrement from, and restore to,
	// what the backend holds now.
	original, err := w.current(ctx)
	if err != nil {
		return nil, w.abort(ctx, err)
	}
	w.item = original
	if original.Quantity <= 0 {
		return nil, w.abort(ctx, &model.ValidationError{Field: "quantity", Message: "item is out of stock"})
	}

	updated := original
	updated.Quantity--
	if _, err := w.backend.UpdateInventoryItem(ctx, original.Name, updated); err != nil {
		return nil, w.abort(ctx, &SaleError{
			AttemptID: w.attemptID,
			Item:      original.Name,
			Step:      StepInventory,
			Err:       err,
		})
	}

	created, err := w.backend.CreateOrder(ctx, model.Order{
		BuyerName:      DefaultBuyer,
		ItemsPurchased: original.Name,
		TotalCost:      original.Cost,
		SalesPrice:     price,
		ShippingStatus: model.StatusPending,
		OrderDate:      w.now().Format(time.DateOnly),
	})
	if err != nil {
		return nil, w.compensate(ctx, original, err)
	}

	w.state = Applied
	w.order = created
	w.record(ctx, OutcomeApplied, nil)
	slog.Info("item sold", "item", original.Name, "price", price.String(), "order_id", string(created.ID))
	return created, nil
}

// current fetches the item being sold as the backend holds it now.
func (w *Workflow) current(ctx context.Context) (model.InventoryItem, error) {
	items, err := w.backend.ListInventory(ctx)
	if err != nil {
		return model.InventoryItem{}, &SaleError{
			AttemptID: w.attemptID,
			Item:      w.item.Name,
			Step:      StepLookup,
			Err:       err,
		}
	}
	for _, item := range items {
		if item.Name == w.item.Name {
			return item, nil
		}
	}
	return model.InventoryItem{}, &model.ValidationError{
		Field:   "item_name",
		Message: fmt.Sprintf("%q is no longer in the inventory", w.item.Name),
	}
}

// compensate restores the item after the order could not be created.
func (w *Workflow) compensate(ctx context.Context, original model.InventoryItem, orderErr error) error {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	se := &SaleError{
		AttemptID: w.attemptID,
		Item:      original.Name,
		Step:      StepOrder,
		Err:       orderErr,
	}

	if _, err := w.backend.UpdateInventoryItem(cctx, original.Name, original); err != nil {
		se.Unreconciled = true
		se.CompensationErr = err
		slog.Error("sale left inventory out of sync", "item", original.Name,
			"attempt_id", w.attemptID, "error", orderErr, "restore_error", err)
		w.state = Aborted
		w.err = se
		w.record(cctx, OutcomeUnreconciled, se)
		return se
	}

	se.Compensated = true
	slog.Warn("sale rolled back", "item", original.Name, "attempt_id", w.attemptID, "error", orderErr)
	w.state = Aborted
	w.err = se
	w.record(cctx, OutcomeCompensated, se)
	return se
}

func (w *Workflow) abort(ctx context.Context, err error) error {
	w.state = Aborted
	w.err = err
	w.record(ctx, OutcomeAborted, err)
	return err
}

func (w *Workflow) record(ctx context.Context, outcome Outcome, err error) {
	if w.recorder == nil {
		return
	}
	a := Attempt{
		ID:       w.attemptID,
		ItemName: w.item.Name,
		Price:    w.price,
		Outcome:  outcome,
		At:       w.now(),
	}
	if w.order != nil {
		a.OrderID = string(w.order.ID)
	}
	if err != nil {
		a.Error = err.Error()
	}
	if rerr := w.recorder.Record(ctx, a); rerr != nil {
		slog.Error("failed to record sale attempt", "attempt_id", a.ID, "outcome", outcome, "error", rerr)
	}
}
