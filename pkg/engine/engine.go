// Package engine defines the contract for the indexed transaction store:
// an in-memory collection of sales transactions kept consistent with two
// secondary indexes (by product and by customer) and two incrementally
// maintained running-sum tables, so that analytical queries never fall back
// to a full scan unless no index can narrow the search.
package engine

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pedro-hbl/sales-analytics/pkg/engine/models"
)

// SortField selects a caller-requested ordering of filter results. When no
// sort is requested, result order is unspecified.
type SortField string

const (
	// SortNone leaves filter results unordered
	SortNone SortField = ""
	// SortByTimestamp orders filter results by transaction timestamp
	SortByTimestamp SortField = "timestamp"
	// SortByAmount orders filter results by transaction amount
	SortByAmount SortField = "amount"
)

// FilterQuery describes a filtered transaction search. Nil fields mean the
// predicate is not applied. Equality predicates are served from the
// secondary indexes; range predicates are applied in a single pass over the
// candidate set.
type FilterQuery struct {
	ProductID  *string
	CustomerID *string
	MinAmount  *decimal.Decimal
	MaxAmount  *decimal.Decimal
	From       *time.Time
	To         *time.Time
	SortBy     SortField
	Descending bool
}

// Engine is the indexed transaction store exposed to the request-handling
// layer. Mutations (Insert, InsertBatch, Update, Delete, Reset) are
// serialized and atomic: a failed call leaves the store, its indexes and
// its aggregate tables exactly as they were. Reads may run concurrently
// with each other but never observe a mutation mid-flight.
type Engine interface {
	// Insert stores a new transaction and files it in both indexes and
	// both aggregate tables. It fails with ErrDuplicateID if the id is
	// already present and with ErrInvalidArgument on an empty id.
	Insert(tx *models.Transaction) error

	// InsertBatch stores a batch of transactions in one atomic step,
	// skipping (not failing on) ids that are already present. It returns
	// the number of transactions added and the number skipped.
	InsertBatch(txs []*models.Transaction) (added, skipped int, err error)

	// Get returns the transaction with the given id, or ErrNotFound.
	Get(id string) (*models.Transaction, error)

	// Update applies the non-nil fields of the patch to the transaction
	// with the given id. When the amount, product or customer changes,
	// the old index and aggregate contributions are reversed and the new
	// ones applied as a single atomic step. Fails with ErrNotFound if the
	// id is absent.
	Update(id string, patch models.Patch) (*models.Transaction, error)

	// Delete removes the transaction and reverses every index and
	// aggregate effect its insertion caused. Fails with ErrNotFound.
	Delete(id string) error

	// ListAll returns a read-only view of all transactions in insertion
	// order. The returned records are shared with the store and must not
	// be modified.
	ListAll() []*models.Transaction

	// Filter returns the transactions matching every predicate of the
	// query. Fails with ErrInvalidArgument when a range has min > max.
	Filter(q FilterQuery) ([]*models.Transaction, error)

	// TotalsPerProduct returns the running sales total of every product
	// currently present, read directly from the aggregate table.
	TotalsPerProduct() map[string]decimal.Decimal

	// TopCustomers returns the n customers with the largest spend totals
	// in descending order, ties broken by ascending customer id. Returns
	// fewer than n entries when fewer distinct customers exist; fails
	// with ErrInvalidArgument when n <= 0.
	TopCustomers(n int) ([]models.CustomerTotal, error)

	// Summary returns store-wide sales statistics computed from the
	// aggregate tables and index key counts, never by rescanning records.
	Summary() models.Summary

	// Reset removes every transaction and returns how many were removed.
	Reset() int
}

// ParseTimestamp parses an RFC 3339 timestamp as supplied on the wire,
// wrapping parse failures in ErrMalformedTimestamp.
func ParseTimestamp(s string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, s)
	}
	return ts, nil
}

// Validate checks the query's range predicates, failing with
// ErrInvalidArgument when a minimum exceeds its maximum.
func (q FilterQuery) Validate() error {
	if q.MinAmount != nil && q.MaxAmount != nil && q.MinAmount.GreaterThan(*q.MaxAmount) {
		return fmt.Errorf("%w: amount range min %s exceeds max %s", ErrInvalidArgument, q.MinAmount, q.MaxAmount)
	}
	if q.From != nil && q.To != nil && q.From.After(*q.To) {
		return fmt.Errorf("%w: timestamp range start is after end", ErrInvalidArgument)
	}
	switch q.SortBy {
	case SortNone, SortByTimestamp, SortByAmount:
	default:
		return fmt.Errorf("%w: unknown sort field %q", ErrInvalidArgument, q.SortBy)
	}
	return nil
}
