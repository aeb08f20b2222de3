package sale

import (
	"context"
	"fmt"
	"time"
)

// Step names the remote call a sale failed at.
type Step string

const (
	StepLookup    Step = "lookup"
	StepInventory Step = "inventory"
	StepOrder     Step = "order"
)

// SaleError is a sale that failed after reaching the backend. When the order
// step failed, Compensated reports that the item was restored; Unreconciled
// means the restore failed too and the item's quantity is one short.
type SaleError struct {
	AttemptID       string
	Item            string
	Step            Step
	Err             error
	Compensated     bool
	Unreconciled    bool
	CompensationErr error
}

func (e *SaleError) Error() string {
	switch {
	case e.Unreconciled:
		return fmt.Sprintf("sale of %q needs manual repair: creating order: %v; restoring inventory: %v",
			e.Item, e.Err, e.CompensationErr)
	case e.Compensated:
		return fmt.Sprintf("sale of %q aborted, inventory restored: creating order: %v", e.Item, e.Err)
	case e.Step == StepLookup:
		return fmt.Sprintf("sale of %q failed: reading inventory: %v", e.Item, e.Err)
	default:
		return fmt.Sprintf("sale of %q failed: updating inventory: %v", e.Item, e.Err)
	}
}

func (e *SaleError) Unwrap() error { return e.Err }

// Outcome is how an attempt ended.
type Outcome string

const (
	OutcomeApplied      Outcome = "applied"
	OutcomeAborted      Outcome = "aborted"
	OutcomeCompensated  Outcome = "compensated"
	OutcomeUnreconciled Outcome = "unreconciled"
)

// Attempt is a finished sale attempt as reported to a Recorder.
type Attempt struct {
	ID       string
	ItemName string
	Price    string
	Outcome  Outcome
	OrderID  string
	Error    string
	At       time.Time
}

// Recorder receives every finished attempt.
type Recorder interface {
	Record(ctx context.Context, a Attempt) error
}
