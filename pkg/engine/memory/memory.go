// Package memory provides the in-memory implementation of the transaction
// engine: a canonical id-keyed map kept in lockstep with two secondary
// indexes and two running-sum aggregate tables. One read-write mutex guards
// the whole triple, so mutations are serialized and readers never observe a
// torn state.
package memory

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/pedro-hbl/sales-analytics/pkg/engine"
	"github.com/pedro-hbl/sales-analytics/pkg/engine/aggregate"
	"github.com/pedro-hbl/sales-analytics/pkg/engine/index"
	"github.com/pedro-hbl/sales-analytics/pkg/engine/models"
)

// Store is the in-memory Engine. The zero value is not usable; create
// instances with NewStore.
type Store struct {
	mu sync.RWMutex

	// byID is the canonical record map; order preserves insertion order
	// for ListAll. Both reference the same record instances.
	byID  map[string]*models.Transaction
	order []*models.Transaction

	productIndex  *index.Index
	customerIndex *index.Index

	productTotals  *aggregate.Table
	customerTotals *aggregate.Table
}

// compile-time interface check
var _ engine.Engine = (*Store)(nil)

// NewStore creates an empty store
func NewStore() *Store {
	s := &Store{}
	s.reset()
	return s
}

func (s *Store) reset() {
	s.byID = make(map[string]*models.Transaction)
	s.order = nil
	s.productIndex = index.New()
	s.customerIndex = index.New()
	s.productTotals = aggregate.New()
	s.customerTotals = aggregate.New()
}

// Insert implements engine.Engine.
func (s *Store) Insert(tx *models.Transaction) error {
	if tx == nil || tx.ID == "" {
		return fmt.Errorf("%w: transaction id must not be empty", engine.ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[tx.ID]; ok {
		return fmt.Errorf("%w: %q", engine.ErrDuplicateID, tx.ID)
	}
	s.file(tx)
	return nil
}

// InsertBatch implements engine.Engine. The whole batch becomes visible in
// one step; duplicate ids (against the store or earlier in the batch) are
// skipped, matching bulk-upload semantics.
func (s *Store) InsertBatch(txs []*models.Transaction) (added, skipped int, err error) {
	for _, tx := range txs {
		if tx == nil || tx.ID == "" {
			return 0, 0, fmt.Errorf("%w: transaction id must not be empty", engine.ErrInvalidArgument)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, tx := range txs {
		if _, ok := s.byID[tx.ID]; ok {
			skipped++
			continue
		}
		s.file(tx)
		added++
	}
	return added, skipped, nil
}

// file records the transaction in the store, then the indexes, then the
// aggregates, in that fixed order. Caller holds the write lock.
func (s *Store) file(tx *models.Transaction) {
	s.byID[tx.ID] = tx
	s.order = append(s.order, tx)
	s.productIndex.Add(tx.ProductID, tx.ID)
	s.customerIndex.Add(tx.CustomerID, tx.ID)
	s.productTotals.ApplyDelta(tx.ProductID, tx.Amount)
	s.customerTotals.ApplyDelta(tx.CustomerID, tx.Amount)
}

// unfile reverses every effect of file. Caller holds the write lock.
func (s *Store) unfile(tx *models.Transaction) {
	delete(s.byID, tx.ID)
	for i, cur := range s.order {
		if cur.ID == tx.ID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.productIndex.Remove(tx.ProductID, tx.ID)
	s.customerIndex.Remove(tx.CustomerID, tx.ID)
	s.productTotals.ApplyDelta(tx.ProductID, tx.Amount.Neg())
	s.customerTotals.ApplyDelta(tx.CustomerID, tx.Amount.Neg())
}

// Get implements engine.Engine.
func (s *Store) Get(id string) (*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", engine.ErrNotFound, id)
	}
	return tx, nil
}

// Update implements engine.Engine. The record is mutated in place so it
// keeps its insertion-order slot; when a keyed or summed field changes, the
// old index and aggregate contributions are reversed before the new ones
// are applied.
func (s *Store) Update(id string, patch models.Patch) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", engine.ErrNotFound, id)
	}
	if patch.Empty() {
		return tx, nil
	}

	next := *tx
	if patch.ProductID != nil {
		next.ProductID = *patch.ProductID
	}
	if patch.CustomerID != nil {
		next.CustomerID = *patch.CustomerID
	}
	if patch.Amount != nil {
		next.Amount = *patch.Amount
	}
	if patch.Timestamp != nil {
		next.Timestamp = *patch.Timestamp
	}

	refile := next.ProductID != tx.ProductID ||
		next.CustomerID != tx.CustomerID ||
		!next.Amount.Equal(tx.Amount)

	if refile {
		s.productIndex.Remove(tx.ProductID, id)
		s.customerIndex.Remove(tx.CustomerID, id)
		s.productTotals.ApplyDelta(tx.ProductID, tx.Amount.Neg())
		s.customerTotals.ApplyDelta(tx.CustomerID, tx.Amount.Neg())
	}

	*tx = next

	if refile {
		s.productIndex.Add(tx.ProductID, id)
		s.customerIndex.Add(tx.CustomerID, id)
		s.productTotals.ApplyDelta(tx.ProductID, tx.Amount)
		s.customerTotals.ApplyDelta(tx.CustomerID, tx.Amount)
	}
	return tx, nil
}

// Delete implements engine.Engine.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("%w: %q", engine.ErrNotFound, id)
	}
	s.unfile(tx)
	return nil
}

// ListAll implements engine.Engine. The slice is copied so later mutations
// cannot race with the caller; the records themselves are shared.
func (s *Store) ListAll() []*models.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Transaction, len(s.order))
	copy(out, s.order)
	return out
}

// TotalsPerProduct implements engine.Engine.
func (s *Store) TotalsPerProduct() map[string]decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.productTotals.Snapshot()
}

// Summary implements engine.Engine. Everything is derived from the
// aggregate tables and index key counts in O(P + C).
func (s *Store) Summary() models.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := models.Summary{
		TotalSales:       s.productTotals.Sum(),
		TransactionCount: len(s.byID),
		UniqueCustomers:  s.customerIndex.DistinctKeys(),
		UniqueProducts:   s.productIndex.DistinctKeys(),
	}
	if sum.TransactionCount > 0 {
		count := decimal.NewFromInt(int64(sum.TransactionCount))
		sum.AverageTransaction = sum.TotalSales.Div(count).Round(2)
	}
	return sum
}

// Reset implements engine.Engine.
func (s *Store) Reset() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := len(s.byID)
	s.reset()
	return removed
}
