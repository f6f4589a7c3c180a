// Package metrics collects per-operation latency measurements for the
// benchmark harness.
package metrics

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// OperationType names the engine operation being measured
type OperationType string

const (
	// InsertOperation measures single-record inserts
	InsertOperation OperationType = "INSERT"
	// BatchInsertOperation measures bulk uploads
	BatchInsertOperation OperationType = "BATCH_INSERT"
	// UpdateOperation measures partial updates
	UpdateOperation OperationType = "UPDATE"
	// DeleteOperation measures deletes
	DeleteOperation OperationType = "DELETE"
	// FilterOperation measures filtered listing queries
	FilterOperation OperationType = "FILTER"
	// TotalsOperation measures per-product totals reads
	TotalsOperation OperationType = "TOTALS"
	// TopCustomersOperation measures top-N customer rankings
	TopCustomersOperation OperationType = "TOP_CUSTOMERS"
	// SummaryOperation measures store-wide summary reads
	SummaryOperation OperationType = "SUMMARY"
)

// OperationMetric records a single measured operation
type OperationMetric struct {
	Type         OperationType `json:"type"`
	StartTime    time.Time     `json:"startTime"`
	Duration     time.Duration `json:"duration"`
	ItemCount    int64         `json:"itemCount"`
	ErrorMessage string        `json:"errorMessage,omitempty"`
}

// RunResult stores the metrics for a complete benchmark run
type RunResult struct {
	Name       string                 `json:"name"`
	StartTime  time.Time              `json:"startTime"`
	EndTime    time.Time              `json:"endTime"`
	Duration   time.Duration          `json:"duration"`
	Operations []*OperationMetric     `json:"operations"`
	Summary    map[string]interface{} `json:"summary"`
}

// Collector accumulates operation metrics for one benchmark run at a time
type Collector struct {
	mu         sync.Mutex
	currentRun *RunResult
	runs       map[string]*RunResult
}

// NewCollector creates an empty collector
func NewCollector() *Collector {
	return &Collector{runs: make(map[string]*RunResult)}
}

// StartRun begins a new benchmark run and makes it current
func (c *Collector) StartRun(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.currentRun = &RunResult{
		Name:       name,
		StartTime:  time.Now(),
		Operations: make([]*OperationMetric, 0),
		Summary:    make(map[string]interface{}),
	}
	c.runs[name] = c.currentRun
}

// MeasureOperation times one operation against the engine and records the
// result, returning whatever error the operation returned.
func (c *Collector) MeasureOperation(opType OperationType, itemCount int64, operation func() error) error {
	if operation == nil {
		return fmt.Errorf("operation function cannot be nil")
	}

	c.mu.Lock()
	if c.currentRun == nil {
		c.mu.Unlock()
		return fmt.Errorf("no benchmark run is currently active")
	}
	c.mu.Unlock()

	metric := &OperationMetric{
		Type:      opType,
		StartTime: time.Now(),
		ItemCount: itemCount,
	}

	err := operation()
	metric.Duration = time.Since(metric.StartTime)
	if err != nil {
		metric.ErrorMessage = err.Error()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.currentRun != nil {
		c.currentRun.Operations = append(c.currentRun.Operations, metric)
	}
	return err
}

// EndRun completes the named run, computes summary statistics and returns
// the result, or nil when the run is unknown or not current.
func (c *Collector) EndRun(name string) *RunResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	run, exists := c.runs[name]
	if !exists || run != c.currentRun {
		return nil
	}

	run.EndTime = time.Now()
	run.Duration = run.EndTime.Sub(run.StartTime)

	var totalDuration time.Duration
	var totalItems, successCount, errorCount int64
	for _, op := range run.Operations {
		totalDuration += op.Duration
		totalItems += op.ItemCount
		if op.ErrorMessage != "" {
			errorCount++
		} else {
			successCount++
		}
	}

	opCount := int64(len(run.Operations))
	if opCount > 0 {
		run.Summary["operationCount"] = opCount
		run.Summary["totalDurationNs"] = totalDuration.Nanoseconds()
		run.Summary["avgDurationNs"] = totalDuration.Nanoseconds() / opCount
		run.Summary["totalItems"] = totalItems
		run.Summary["successCount"] = successCount
		run.Summary["errorCount"] = errorCount
		run.Summary["successRate"] = float64(successCount) / float64(opCount)
		run.Summary["throughputItems"] = float64(totalItems) / run.Duration.Seconds()

		if opCount >= 10 {
			durations := make([]int64, 0, opCount)
			for _, op := range run.Operations {
				durations = append(durations, op.Duration.Nanoseconds())
			}
			sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
			run.Summary["p50"] = durations[opCount*50/100]
			run.Summary["p90"] = durations[opCount*90/100]
			run.Summary["p99"] = durations[opCount*99/100]
		}
	}

	c.currentRun = nil
	return run
}

// GetRunResult retrieves a finished or in-flight run by name
func (c *Collector) GetRunResult(name string) *RunResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runs[name]
}

// Reset clears all recorded runs
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentRun = nil
	c.runs = make(map[string]*RunResult)
}

// TypeStats summarizes the latencies of one operation type
type TypeStats struct {
	Count int
	Avg   time.Duration
	P50   time.Duration
	P90   time.Duration
	P99   time.Duration
}

// StatsByType groups a run's operation latencies by operation type,
// returning count, average and percentiles per type.
func StatsByType(run *RunResult) map[OperationType]TypeStats {
	byType := make(map[OperationType][]time.Duration)
	for _, op := range run.Operations {
		byType[op.Type] = append(byType[op.Type], op.Duration)
	}

	out := make(map[OperationType]TypeStats, len(byType))
	for opType, durations := range byType {
		sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
		var total time.Duration
		for _, d := range durations {
			total += d
		}
		n := len(durations)
		out[opType] = TypeStats{
			Count: n,
			Avg:   total / time.Duration(n),
			P50:   durations[n*50/100],
			P90:   durations[n*90/100],
			P99:   durations[n*99/100],
		}
	}
	return out
}
