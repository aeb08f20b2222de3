package model

// FinancialRecord is the ledger entry written by the backend for each order.
// OrderID is a weak reference; nothing guarantees the order still exists.
type FinancialRecord struct {
	TransactionID   Key     `json:"transaction_id"`
	TransactionDate string  `json:"transaction_date"`
	OrderID         Key     `json:"order_id"`
	TotalSales      Decimal `json:"total_sales"`
	Profit          Decimal `json:"profit"`
	Fees            Decimal `json:"fees"`
	Expenses        Decimal `json:"expenses"`
}

// Credentials are posted to the login endpoint.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
