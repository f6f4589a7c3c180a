package memory

import (
	"container/heap"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/pedro-hbl/sales-analytics/pkg/engine"
	"github.com/pedro-hbl/sales-analytics/pkg/engine/models"
)

// Filter implements engine.Engine. When both equality predicates are given
// the two index buckets are intersected with the smaller set driving the
// iteration; with one predicate the single bucket is used; with neither the
// candidate set is the full insertion-order list. Range predicates are then
// applied to each candidate in one pass.
func (s *Store) Filter(q engine.FilterQuery) ([]*models.Transaction, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*models.Transaction
	consider := func(tx *models.Transaction) {
		if matchesRanges(tx, q) {
			matched = append(matched, tx)
		}
	}

	switch {
	case q.ProductID != nil && q.CustomerID != nil:
		small := s.productIndex.Lookup(*q.ProductID)
		large := s.customerIndex.Lookup(*q.CustomerID)
		if len(large) < len(small) {
			small, large = large, small
		}
		for id := range small {
			if _, ok := large[id]; ok {
				consider(s.byID[id])
			}
		}
	case q.ProductID != nil:
		for id := range s.productIndex.Lookup(*q.ProductID) {
			consider(s.byID[id])
		}
	case q.CustomerID != nil:
		for id := range s.customerIndex.Lookup(*q.CustomerID) {
			consider(s.byID[id])
		}
	default:
		for _, tx := range s.order {
			consider(tx)
		}
	}

	sortResults(matched, q)
	return matched, nil
}

// matchesRanges applies the numeric and timestamp predicates, all bounds
// inclusive.
func matchesRanges(tx *models.Transaction, q engine.FilterQuery) bool {
	if q.MinAmount != nil && tx.Amount.LessThan(*q.MinAmount) {
		return false
	}
	if q.MaxAmount != nil && tx.Amount.GreaterThan(*q.MaxAmount) {
		return false
	}
	if q.From != nil && tx.Timestamp.Before(*q.From) {
		return false
	}
	if q.To != nil && tx.Timestamp.After(*q.To) {
		return false
	}
	return true
}

// sortResults applies the caller-requested ordering once, after filtering.
func sortResults(txs []*models.Transaction, q engine.FilterQuery) {
	var less func(a, b *models.Transaction) bool
	switch q.SortBy {
	case engine.SortByTimestamp:
		less = func(a, b *models.Transaction) bool { return a.Timestamp.Before(b.Timestamp) }
	case engine.SortByAmount:
		less = func(a, b *models.Transaction) bool { return a.Amount.LessThan(b.Amount) }
	default:
		return
	}
	sort.Slice(txs, func(i, j int) bool {
		if q.Descending {
			return less(txs[j], txs[i])
		}
		return less(txs[i], txs[j])
	})
}

// TopCustomers implements engine.Engine using a bounded min-heap over the
// customer aggregate table: O(C log n) for C distinct customers instead of
// a full O(C log C) sort. Ties are broken by ascending customer id so
// results are reproducible.
func (s *Store) TopCustomers(n int) ([]models.CustomerTotal, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: top-N count must be positive, got %d", engine.ErrInvalidArgument, n)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	// The heap never grows past the number of distinct customers, so cap
	// the allocation there rather than at a possibly huge n.
	capHint := n
	if c := s.customerTotals.Len(); c < capHint {
		capHint = c
	}
	h := make(customerHeap, 0, capHint)
	s.customerTotals.Range(func(key string, total decimal.Decimal) {
		entry := models.CustomerTotal{CustomerID: key, Total: total}
		if h.Len() < n {
			heap.Push(&h, entry)
			return
		}
		if ranksBelow(h[0], entry) {
			h[0] = entry
			heap.Fix(&h, 0)
		}
	})

	// Drain the heap weakest-first, filling the result back to front.
	out := make([]models.CustomerTotal, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&h).(models.CustomerTotal)
	}
	return out, nil
}

// customerHeap is a min-heap of customer totals: the root is the entry that
// ranks last, so it is the one evicted when a better candidate arrives.
type customerHeap []models.CustomerTotal

func (h customerHeap) Len() int { return len(h) }

// Less orders the weaker-ranked entry first: lower total, or on equal
// totals the larger customer id (ascending ids win ties in the result).
func (h customerHeap) Less(i, j int) bool { return ranksBelow(h[i], h[j]) }

func (h customerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *customerHeap) Push(x interface{}) {
	*h = append(*h, x.(models.CustomerTotal))
}

func (h *customerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// ranksBelow reports whether a ranks strictly below b in the top-customers
// ordering (descending total, ascending customer id on ties).
func ranksBelow(a, b models.CustomerTotal) bool {
	if !a.Total.Equal(b.Total) {
		return a.Total.LessThan(b.Total)
	}
	return a.CustomerID > b.CustomerID
}
