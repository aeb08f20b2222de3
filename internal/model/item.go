package model

import "strings"

// InventoryItem is a stock-keeping entry, keyed by its name.
type InventoryItem struct {
	Name        string   `json:"item_name"`
	Category    string   `json:"category"`
	Size        string   `json:"size"`
	Condition   string   `json:"condition"`
	Cost        Decimal  `json:"cost"`
	Quantity    Quantity `json:"quantity"`
	Description string   `json:"description"`
}

// Item conditions.
const (
	ConditionNew     = "New"
	ConditionLikeNew = "Like New"
	ConditionUsed    = "Used"
)

// Conditions lists the accepted item conditions in display order.
var Conditions = []string{ConditionNew, ConditionLikeNew, ConditionUsed}

// Validate checks the fields required for an item to be displayed and keyed.
func (i InventoryItem) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return &ValidationError{Field: "item_name", Message: "name is required"}
	}
	if strings.Contains(i.Name, "/") {
		return &ValidationError{Field: "item_name", Message: "name cannot contain '/'"}
	}
	if i.Condition != "" && !validCondition(i.Condition) {
		return &ValidationError{Field: "condition", Message: "unknown condition " + i.Condition}
	}
	if i.Cost.Value().IsNegative() {
		return &ValidationError{Field: "cost", Message: "cost cannot be negative"}
	}
	if i.Quantity < 0 {
		return &ValidationError{Field: "quantity", Message: "quantity cannot be negative"}
	}
	return nil
}

func validCondition(c string) bool {
	for _, v := range Conditions {
		if v == c {
			return true
		}
	}
	return false
}
