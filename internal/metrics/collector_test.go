package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeasureOperationRequiresActiveRun(t *testing.T) {
	c := NewCollector()
	err := c.MeasureOperation(InsertOperation, 1, func() error { return nil })
	assert.Error(t, err)
}

func TestMeasureOperationRecordsResult(t *testing.T) {
	c := NewCollector()
	c.StartRun("run")

	opErr := errors.New("boom")
	err := c.MeasureOperation(FilterOperation, 3, func() error { return opErr })
	assert.Equal(t, opErr, err)

	require.NoError(t, c.MeasureOperation(InsertOperation, 1, func() error {
		time.Sleep(time.Millisecond)
		return nil
	}))

	result := c.EndRun("run")
	require.NotNil(t, result)
	require.Len(t, result.Operations, 2)
	assert.Equal(t, "boom", result.Operations[0].ErrorMessage)
	assert.Empty(t, result.Operations[1].ErrorMessage)
	assert.GreaterOrEqual(t, result.Operations[1].Duration, time.Millisecond)

	assert.Equal(t, int64(2), result.Summary["operationCount"])
	assert.Equal(t, int64(1), result.Summary["successCount"])
	assert.Equal(t, int64(1), result.Summary["errorCount"])
}

func TestEndRunUnknownName(t *testing.T) {
	c := NewCollector()
	c.StartRun("a")
	assert.Nil(t, c.EndRun("b"))
}

func TestPercentilesNeedEnoughSamples(t *testing.T) {
	c := NewCollector()
	c.StartRun("run")
	for i := 0; i < 10; i++ {
		require.NoError(t, c.MeasureOperation(TotalsOperation, 1, func() error { return nil }))
	}
	result := c.EndRun("run")
	require.NotNil(t, result)
	assert.Contains(t, result.Summary, "p50")
	assert.Contains(t, result.Summary, "p90")
	assert.Contains(t, result.Summary, "p99")
}

func TestStatsByType(t *testing.T) {
	c := NewCollector()
	c.StartRun("run")
	for i := 0; i < 4; i++ {
		require.NoError(t, c.MeasureOperation(InsertOperation, 1, func() error { return nil }))
	}
	for i := 0; i < 2; i++ {
		require.NoError(t, c.MeasureOperation(TopCustomersOperation, 1, func() error { return nil }))
	}
	require.NoError(t, c.MeasureOperation(BatchInsertOperation, 100, func() error { return nil }))
	result := c.EndRun("run")
	require.NotNil(t, result)

	stats := StatsByType(result)
	require.Len(t, stats, 3)
	assert.Equal(t, 4, stats[InsertOperation].Count)
	assert.Equal(t, 2, stats[TopCustomersOperation].Count)
	assert.Equal(t, 1, stats[BatchInsertOperation].Count)
	assert.Equal(t, int64(106), result.Summary["totalItems"])
}

func TestReset(t *testing.T) {
	c := NewCollector()
	c.StartRun("run")
	c.Reset()
	assert.Nil(t, c.GetRunResult("run"))
	assert.Error(t, c.MeasureOperation(InsertOperation, 1, func() error { return nil }))
}
