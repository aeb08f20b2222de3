package model

import "github.com/shopspring/decimal"

// Order is a sale. An empty ID asks the backend to assign one.
type Order struct {
	ID             Key     `json:"order_id,omitempty"`
	BuyerName      string  `json:"buyer_name"`
	ItemsPurchased string  `json:"items_purchased"`
	TotalCost      Decimal `json:"total_cost"`
	SalesPrice     Decimal `json:"sales_price"`
	ShippingStatus string  `json:"shipping_status"`
	OrderDate      string  `json:"order_date,omitempty"`
}

// DeletedOrder is an order moved to the soft-delete collection.
type DeletedOrder struct {
	Order
	DeletionDate string `json:"deletion_date"`
}

// Shipping statuses.
const (
	StatusPending   = "Pending"
	StatusShipped   = "Shipped"
	StatusDelivered = "Delivered"
)

// ShippingStatuses lists the accepted statuses in lifecycle order.
var ShippingStatuses = []string{StatusPending, StatusShipped, StatusDelivered}

// Profit is the sales price minus the total cost.
func (o Order) Profit() decimal.Decimal {
	return o.SalesPrice.Value().Sub(o.TotalCost.Value())
}

// StatusTone maps a shipping status to the colour class used when rendering it.
func StatusTone(status string) string {
	switch status {
	case StatusPending:
		return "warning"
	case StatusShipped:
		return "info"
	case StatusDelivered:
		return "success"
	default:
		return "default"
	}
}

// ValidStatus reports whether status is one of ShippingStatuses.
func ValidStatus(status string) bool {
	for _, s := range ShippingStatuses {
		if s == status {
			return true
		}
	}
	return false
}
