// Package aggregate implements the running-sum tables that back the
// analytics queries. Totals are maintained incrementally on every mutation
// of the store, never recomputed by rescanning transactions at query time.
package aggregate

import "github.com/shopspring/decimal"

// Table keeps a running total per key. A key whose total lands exactly on
// zero is removed rather than left as a phantom entry. A Table is not safe
// for concurrent use; the owning store serializes access.
type Table struct {
	totals map[string]decimal.Decimal
}

// New creates an empty table
func New() *Table {
	return &Table{totals: make(map[string]decimal.Decimal)}
}

// ApplyDelta adds delta to key's total, creating the entry at zero first if
// absent and removing it when the resulting total is exactly zero.
func (t *Table) ApplyDelta(key string, delta decimal.Decimal) {
	total := t.totals[key].Add(delta)
	if total.IsZero() {
		delete(t.totals, key)
		return
	}
	t.totals[key] = total
}

// Read returns the current total for key, or zero if the key is absent.
func (t *Table) Read(key string) decimal.Decimal {
	return t.totals[key]
}

// Len returns the number of keys with a non-zero total.
func (t *Table) Len() int {
	return len(t.totals)
}

// Range calls fn for every key in the table, in unspecified order.
func (t *Table) Range(fn func(key string, total decimal.Decimal)) {
	for key, total := range t.totals {
		fn(key, total)
	}
}

// Snapshot returns a copy of the table's contents.
func (t *Table) Snapshot() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(t.totals))
	for key, total := range t.totals {
		out[key] = total
	}
	return out
}

// Sum returns the sum of every total in the table.
func (t *Table) Sum() decimal.Decimal {
	sum := decimal.Zero
	for _, total := range t.totals {
		sum = sum.Add(total)
	}
	return sum
}
