// The benchmark command seeds an in-memory engine with generated
// transactions, measures the latency of every engine operation, prints a
// summary table and optionally renders latency charts.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"
	"github.com/wcharczuk/go-chart/v2"

	"github.com/pedro-hbl/sales-analytics/internal/metrics"
	"github.com/pedro-hbl/sales-analytics/pkg/engine"
	"github.com/pedro-hbl/sales-analytics/pkg/engine/memory"
	"github.com/pedro-hbl/sales-analytics/pkg/engine/models"
)

var (
	txCount    = flag.Int("transactions", 10000, "Number of transactions to insert")
	products   = flag.Int("products", 50, "Number of distinct products")
	customers  = flag.Int("customers", 500, "Number of distinct customers")
	queries    = flag.Int("queries", 1000, "Number of each query type to run")
	batchSize  = flag.Int("batch-size", 100, "Records per bulk upload in the batch-insert phase")
	topN       = flag.Int("top", 10, "Top-N size for customer ranking queries")
	seed       = flag.Int64("seed", 42, "Random seed for data generation")
	outputDir  = flag.String("output", "results", "Directory for JSON results and charts")
	withCharts = flag.Bool("charts", false, "Render latency bar charts as PNG")
)

func main() {
	flag.Parse()

	log.SetOutput(os.Stdout)
	log.SetFlags(log.Ldate | log.Ltime)

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}
	if *batchSize < 1 {
		log.Fatal("--batch-size must be at least 1")
	}

	rng := rand.New(rand.NewSource(*seed))
	store := memory.NewStore()
	collector := metrics.NewCollector()

	runName := fmt.Sprintf("engine-%d-tx", *txCount)
	collector.StartRun(runName)

	productIDs := makeIDs("P", *products)
	customerIDs := makeIDs("C", *customers)

	log.Printf("Inserting %d transactions (%d products, %d customers)", *txCount, *products, *customers)
	// Nine tenths go in one at a time, the rest through the batch path.
	singles := *txCount - *txCount/10
	for i := 0; i < singles; i++ {
		tx := generateTransaction(rng, productIDs, customerIDs)
		if err := collector.MeasureOperation(metrics.InsertOperation, 1, func() error {
			return store.Insert(tx)
		}); err != nil {
			log.Fatalf("Insert failed: %v", err)
		}
	}
	for inserted := singles; inserted < *txCount; inserted += *batchSize {
		size := *batchSize
		if remaining := *txCount - inserted; remaining < size {
			size = remaining
		}
		batch := make([]*models.Transaction, 0, size)
		for j := 0; j < size; j++ {
			batch = append(batch, generateTransaction(rng, productIDs, customerIDs))
		}
		if err := collector.MeasureOperation(metrics.BatchInsertOperation, int64(size), func() error {
			_, _, err := store.InsertBatch(batch)
			return err
		}); err != nil {
			log.Fatalf("Batch insert failed: %v", err)
		}
	}

	log.Printf("Running %d queries per type", *queries)
	runQueries(store, collector, rng, productIDs, customerIDs)

	result := collector.EndRun(runName)
	if result == nil {
		log.Fatal("Benchmark run produced no result")
	}

	printSummary(result)

	resultPath := filepath.Join(*outputDir, runName+".json")
	if err := writeResult(result, resultPath); err != nil {
		log.Fatalf("Failed to write results: %v", err)
	}
	log.Printf("Results saved to %s", resultPath)

	if *withCharts {
		chartPath := filepath.Join(*outputDir, runName+"_latency.png")
		if err := renderLatencyChart(result, chartPath); err != nil {
			log.Fatalf("Failed to render chart: %v", err)
		}
		log.Printf("Chart saved to %s", chartPath)
	}
}

// makeIDs builds a pool of ids like P-0001
func makeIDs(prefix string, n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("%s-%04d", prefix, i+1)
	}
	return ids
}

// generateTransaction creates a transaction with random attributes drawn
// from the product and customer pools.
func generateTransaction(rng *rand.Rand, productIDs, customerIDs []string) *models.Transaction {
	// Amounts are whole cents between 0.01 and 500.00
	cents := rng.Int63n(50000) + 1
	return &models.Transaction{
		ID:         uuid.New().String(),
		ProductID:  productIDs[rng.Intn(len(productIDs))],
		CustomerID: customerIDs[rng.Intn(len(customerIDs))],
		Amount:     decimal.New(cents, -2),
		Timestamp:  time.Now().Add(-time.Duration(rng.Intn(30*24)) * time.Hour),
	}
}

// runQueries exercises every read path of the engine under measurement.
func runQueries(store *memory.Store, collector *metrics.Collector, rng *rand.Rand, productIDs, customerIDs []string) {
	minAmount := decimal.NewFromInt(100)

	for i := 0; i < *queries; i++ {
		product := productIDs[rng.Intn(len(productIDs))]
		customer := customerIDs[rng.Intn(len(customerIDs))]

		collector.MeasureOperation(metrics.FilterOperation, 1, func() error {
			q := engine.FilterQuery{ProductID: &product, CustomerID: &customer, MinAmount: &minAmount}
			_, err := store.Filter(q)
			return err
		})

		collector.MeasureOperation(metrics.TotalsOperation, 1, func() error {
			store.TotalsPerProduct()
			return nil
		})

		collector.MeasureOperation(metrics.TopCustomersOperation, 1, func() error {
			_, err := store.TopCustomers(*topN)
			return err
		})

		collector.MeasureOperation(metrics.SummaryOperation, 1, func() error {
			store.Summary()
			return nil
		})
	}

	// A slice of updates and deletes against live records
	all := store.ListAll()
	mutations := len(all) / 10
	for i := 0; i < mutations; i++ {
		target := all[rng.Intn(len(all))]
		amount := decimal.New(rng.Int63n(50000)+1, -2)
		collector.MeasureOperation(metrics.UpdateOperation, 1, func() error {
			_, err := store.Update(target.ID, models.Patch{Amount: &amount})
			return err
		})
	}
	for i := 0; i < mutations; i++ {
		target := all[rng.Intn(len(all))]
		collector.MeasureOperation(metrics.DeleteOperation, 1, func() error {
			// Random targets may repeat; a second delete reports not-found.
			if err := store.Delete(target.ID); err != nil && !errors.Is(err, engine.ErrNotFound) {
				return err
			}
			return nil
		})
	}
}

// printSummary renders the per-operation latency table to stdout.
func printSummary(result *metrics.RunResult) {
	stats := metrics.StatsByType(result)

	types := make([]metrics.OperationType, 0, len(stats))
	for opType := range stats {
		types = append(types, opType)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Operation", "Count", "Avg (µs)", "P50 (µs)", "P90 (µs)", "P99 (µs)"})
	for _, opType := range types {
		s := stats[opType]
		table.Append([]string{
			string(opType),
			fmt.Sprintf("%d", s.Count),
			fmt.Sprintf("%.1f", float64(s.Avg.Nanoseconds())/1000),
			fmt.Sprintf("%.1f", float64(s.P50.Nanoseconds())/1000),
			fmt.Sprintf("%.1f", float64(s.P90.Nanoseconds())/1000),
			fmt.Sprintf("%.1f", float64(s.P99.Nanoseconds())/1000),
		})
	}
	table.Render()
}

// writeResult saves the full run result as JSON.
func writeResult(result *metrics.RunResult, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// renderLatencyChart draws a bar chart of average latency per operation.
func renderLatencyChart(result *metrics.RunResult, path string) error {
	stats := metrics.StatsByType(result)

	var bars []chart.Value
	for opType, s := range stats {
		bars = append(bars, chart.Value{
			Label: string(opType),
			Value: float64(s.Avg.Nanoseconds()) / 1000,
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Label < bars[j].Label })

	barChart := chart.BarChart{
		Title: "Average Latency by Operation Type",
		Background: chart.Style{
			Padding: chart.Box{
				Top:    40,
				Left:   20,
				Right:  20,
				Bottom: 20,
			},
		},
		Width:  800,
		Height: 400,
		Bars:   bars,
	}
	barChart.YAxis.ValueFormatter = func(v interface{}) string {
		if vf, isFloat := v.(float64); isFloat {
			return fmt.Sprintf("%.1f µs", vf)
		}
		return ""
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer f.Close()

	return barChart.Render(chart.PNG, f)
}
