package memory

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pedro-hbl/sales-analytics/pkg/engine"
	"github.com/pedro-hbl/sales-analytics/pkg/engine/models"
)

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func timePtr(t time.Time) *time.Time { return &t }

func day(d int) time.Time {
	return time.Date(2026, 1, d, 0, 0, 0, 0, time.UTC)
}

// seedQueryStore loads a store with a spread of products, customers,
// amounts and dates.
func seedQueryStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	records := []*models.Transaction{
		{ID: "T1", ProductID: "P1", CustomerID: "C1", Amount: dec("1200"), Timestamp: day(15)},
		{ID: "T2", ProductID: "P2", CustomerID: "C2", Amount: dec("25"), Timestamp: day(16)},
		{ID: "T3", ProductID: "P3", CustomerID: "C1", Amount: dec("75"), Timestamp: day(17)},
		{ID: "T4", ProductID: "P1", CustomerID: "C3", Amount: dec("1200"), Timestamp: day(18)},
		{ID: "T5", ProductID: "P4", CustomerID: "C2", Amount: dec("300"), Timestamp: day(19)},
		{ID: "T6", ProductID: "P1", CustomerID: "C1", Amount: dec("80.50"), Timestamp: day(20)},
	}
	for _, record := range records {
		require.NoError(t, s.Insert(record))
	}
	return s
}

func TestFilterByProduct(t *testing.T) {
	s := seedQueryStore(t)
	matched, err := s.Filter(engine.FilterQuery{ProductID: strPtr("P1")})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"T1", "T4", "T6"}, idsOf(matched))
}

func TestFilterByCustomer(t *testing.T) {
	s := seedQueryStore(t)
	matched, err := s.Filter(engine.FilterQuery{CustomerID: strPtr("C2")})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"T2", "T5"}, idsOf(matched))
}

// TestFilterComposition checks that combining both equality predicates
// equals the manual intersection of the single-predicate results.
func TestFilterComposition(t *testing.T) {
	s := seedQueryStore(t)

	byProduct, err := s.Filter(engine.FilterQuery{ProductID: strPtr("P1")})
	require.NoError(t, err)
	byCustomer, err := s.Filter(engine.FilterQuery{CustomerID: strPtr("C1")})
	require.NoError(t, err)

	inCustomer := map[string]bool{}
	for _, id := range idsOf(byCustomer) {
		inCustomer[id] = true
	}
	var want []string
	for _, id := range idsOf(byProduct) {
		if inCustomer[id] {
			want = append(want, id)
		}
	}

	both, err := s.Filter(engine.FilterQuery{ProductID: strPtr("P1"), CustomerID: strPtr("C1")})
	require.NoError(t, err)
	assert.ElementsMatch(t, want, idsOf(both))
	assert.ElementsMatch(t, []string{"T1", "T6"}, idsOf(both))
}

func TestFilterAmountRange(t *testing.T) {
	s := seedQueryStore(t)
	matched, err := s.Filter(engine.FilterQuery{MinAmount: decPtr("75"), MaxAmount: decPtr("300")})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"T3", "T5", "T6"}, idsOf(matched))
}

func TestFilterTimestampRangeInclusive(t *testing.T) {
	s := seedQueryStore(t)
	matched, err := s.Filter(engine.FilterQuery{From: timePtr(day(16)), To: timePtr(day(18))})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"T2", "T3", "T4"}, idsOf(matched))
}

func TestFilterCombinesIndexAndRanges(t *testing.T) {
	s := seedQueryStore(t)
	matched, err := s.Filter(engine.FilterQuery{
		ProductID: strPtr("P1"),
		MinAmount: decPtr("100"),
		From:      timePtr(day(16)),
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"T4"}, idsOf(matched))
}

func TestFilterNoPredicatesReturnsAll(t *testing.T) {
	s := seedQueryStore(t)
	matched, err := s.Filter(engine.FilterQuery{})
	require.NoError(t, err)
	assert.Len(t, matched, 6)
}

func TestFilterUnknownKeyReturnsEmpty(t *testing.T) {
	s := seedQueryStore(t)
	matched, err := s.Filter(engine.FilterQuery{ProductID: strPtr("P99")})
	require.NoError(t, err)
	assert.Empty(t, matched)
}

func TestFilterInvalidRanges(t *testing.T) {
	s := seedQueryStore(t)

	_, err := s.Filter(engine.FilterQuery{MinAmount: decPtr("10"), MaxAmount: decPtr("5")})
	assert.ErrorIs(t, err, engine.ErrInvalidArgument)

	_, err = s.Filter(engine.FilterQuery{From: timePtr(day(20)), To: timePtr(day(10))})
	assert.ErrorIs(t, err, engine.ErrInvalidArgument)

	_, err = s.Filter(engine.FilterQuery{SortBy: engine.SortField("bogus")})
	assert.ErrorIs(t, err, engine.ErrInvalidArgument)
}

func TestFilterSortByAmountDescending(t *testing.T) {
	s := seedQueryStore(t)
	matched, err := s.Filter(engine.FilterQuery{
		ProductID:  strPtr("P1"),
		SortBy:     engine.SortByAmount,
		Descending: true,
	})
	require.NoError(t, err)
	require.Len(t, matched, 3)
	for i := 1; i < len(matched); i++ {
		assert.True(t, matched[i].Amount.LessThanOrEqual(matched[i-1].Amount))
	}
}

func TestFilterSortByTimestamp(t *testing.T) {
	s := seedQueryStore(t)
	matched, err := s.Filter(engine.FilterQuery{SortBy: engine.SortByTimestamp})
	require.NoError(t, err)
	require.Len(t, matched, 6)
	for i := 1; i < len(matched); i++ {
		assert.False(t, matched[i].Timestamp.Before(matched[i-1].Timestamp))
	}
}

func TestTopCustomersOrdering(t *testing.T) {
	s := seedQueryStore(t)
	// Totals: C1 = 1355.50, C2 = 325, C3 = 1200

	top, err := s.TopCustomers(2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "C1", top[0].CustomerID)
	assert.True(t, top[0].Total.Equal(dec("1355.50")))
	assert.Equal(t, "C3", top[1].CustomerID)
	assert.True(t, top[1].Total.Equal(dec("1200")))
}

func TestTopCustomersTieBreakAscendingID(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Insert(tx("T1", "P1", "C3", "100")))
	require.NoError(t, s.Insert(tx("T2", "P1", "C1", "100")))
	require.NoError(t, s.Insert(tx("T3", "P1", "C2", "100")))
	require.NoError(t, s.Insert(tx("T4", "P1", "C4", "50")))

	top, err := s.TopCustomers(2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "C1", top[0].CustomerID)
	assert.Equal(t, "C2", top[1].CustomerID)

	all, err := s.TopCustomers(4)
	require.NoError(t, err)
	assert.Equal(t, []string{"C1", "C2", "C3", "C4"}, customerIDsOf(all))
}

func TestTopCustomersNExceedsDistinct(t *testing.T) {
	s := seedQueryStore(t)
	top, err := s.TopCustomers(50)
	require.NoError(t, err)
	require.Len(t, top, 3)
	for i := 1; i < len(top); i++ {
		assert.True(t, top[i].Total.LessThanOrEqual(top[i-1].Total))
	}
}

func TestTopCustomersInvalidN(t *testing.T) {
	s := seedQueryStore(t)
	_, err := s.TopCustomers(0)
	assert.ErrorIs(t, err, engine.ErrInvalidArgument)
	_, err = s.TopCustomers(-3)
	assert.ErrorIs(t, err, engine.ErrInvalidArgument)
}

// TestTopCustomersVeryLargeN guards against sizing the selection buffer
// from n instead of the distinct-customer count: any valid n, however
// large, must return all customers rather than fail on allocation.
func TestTopCustomersVeryLargeN(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Insert(tx("T1", "P1", "C1", "100")))
	require.NoError(t, s.Insert(tx("T2", "P1", "C2", "50")))

	top, err := s.TopCustomers(math.MaxInt)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "C1", top[0].CustomerID)
	assert.Equal(t, "C2", top[1].CustomerID)
}

func TestTopCustomersEmptyStore(t *testing.T) {
	s := NewStore()
	top, err := s.TopCustomers(5)
	require.NoError(t, err)
	assert.Empty(t, top)
}

// TestTopCustomersMatchesFullSort cross-checks the heap selection against a
// full sort over many customers.
func TestTopCustomersMatchesFullSort(t *testing.T) {
	s := NewStore()
	for i := 0; i < 200; i++ {
		id := fmt.Sprintf("T%d", i)
		customer := fmt.Sprintf("C%03d", i%37)
		amount := fmt.Sprintf("%d.%02d", (i*31)%500, i%100)
		require.NoError(t, s.Insert(tx(id, "P1", customer, amount)))
	}

	all, err := s.TopCustomers(1000)
	require.NoError(t, err)
	require.Len(t, all, 37)

	top, err := s.TopCustomers(5)
	require.NoError(t, err)
	require.Len(t, top, 5)
	assert.Equal(t, customerIDsOf(all[:5]), customerIDsOf(top))
}

func customerIDsOf(totals []models.CustomerTotal) []string {
	ids := make([]string, 0, len(totals))
	for _, entry := range totals {
		ids = append(ids, entry.CustomerID)
	}
	return ids
}
