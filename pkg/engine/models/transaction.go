package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction represents a financial transaction record
type Transaction struct {
	// ID is the unique identifier for the transaction
	ID string `json:"id"`

	// ProductID identifies the product the transaction was made for
	ProductID string `json:"productId"`

	// CustomerID identifies the customer who made the transaction
	CustomerID string `json:"customerId"`

	// Amount of the transaction; signed, may be fractional
	Amount decimal.Decimal `json:"amount"`

	// Timestamp when the transaction occurred (ISO 8601 on the wire)
	Timestamp time.Time `json:"timestamp"`
}

// Patch describes a partial update to a transaction. Nil fields are left
// untouched; a non-nil field is applied even when it carries the zero value.
type Patch struct {
	ProductID  *string          `json:"productId,omitempty"`
	CustomerID *string          `json:"customerId,omitempty"`
	Amount     *decimal.Decimal `json:"amount,omitempty"`
	Timestamp  *time.Time       `json:"timestamp,omitempty"`
}

// Empty reports whether the patch carries no fields at all.
func (p Patch) Empty() bool {
	return p.ProductID == nil && p.CustomerID == nil && p.Amount == nil && p.Timestamp == nil
}

// ProductTotal is the running sales total for a single product
type ProductTotal struct {
	ProductID string          `json:"productId"`
	Total     decimal.Decimal `json:"total"`
}

// CustomerTotal is the running spend total for a single customer
type CustomerTotal struct {
	CustomerID string          `json:"customerId"`
	Total      decimal.Decimal `json:"total"`
}

// Summary aggregates store-wide sales statistics
type Summary struct {
	// TotalSales is the sum of all transaction amounts
	TotalSales decimal.Decimal `json:"totalSales"`

	// TransactionCount is the number of stored transactions
	TransactionCount int `json:"transactionCount"`

	// UniqueCustomers is the number of distinct customers with at least one transaction
	UniqueCustomers int `json:"uniqueCustomers"`

	// UniqueProducts is the number of distinct products with at least one transaction
	UniqueProducts int `json:"uniqueProducts"`

	// AverageTransaction is TotalSales divided by TransactionCount, rounded to 2 places
	AverageTransaction decimal.Decimal `json:"averageTransaction"`
}
