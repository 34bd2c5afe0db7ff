package kv

import (
	"context"
	"encoding/csv"
	"fmt"
	"github.com/adrodb/adrodb/cmd/util"
	"github.com/adrodb/adrodb/lib/collection"
	"github.com/adrodb/adrodb/rest/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for adrodb servers",
		Long:    "",
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfKeyPrefix        = "__test"
	perfLargeValueSizeKB = 100
	perfNumThreads       = 10
	perfKeySpread        = 100
	perfSkip             = make([]string, 0)

	// perfSeq hands out process-unique keys, so insert-only writes never
	// collide across goroutines or benchmark rounds.
	perfSeq atomic.Int64
)

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. set,get)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of threads to use for the benchmark"))
	key = "large-value-size"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How large the value for the set-large test should be (in KB)"))
	key = "keys"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different keys to use for the read tests"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfLargeValueSizeKB = viper.GetInt("large-value-size")
	perfKeySpread = viper.GetInt("keys")
	perfNumThreads = viper.GetInt("threads")
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

func runPerf(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	fmt.Println("Performance testing tool for adrodb servers")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(util.GetClientConfig().String())
	fmt.Printf("Collection: %s\n", restColl.Name())
	fmt.Printf("Threads: %d\n", perfNumThreads)
	fmt.Println()

	// The benchmark needs its collection regardless of the server's
	// auto-create setting
	if err := restClient.CreateCollection(ctx, restColl.Name()); err != nil {
		return err
	}

	fmt.Println("starting tests...")

	// Create results map
	results := make(map[string]testing.BenchmarkResult)

	setResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("set") {
			return
		}

		cleanupSequencedKeys(b, ctx, "set")

		b.SetParallelism(perfNumThreads)
		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			for pb.Next() {
				if err := restColl.Set(ctx, nextKey("set"), collection.Text("test")); err != nil {
					log.Printf("(set) - error setting key: %v\n", err)
				}
			}
		})
	})

	results["set"] = setResult
	printResult("set", setResult)

	setLargeValueResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("set-large") {
			return
		}

		// prepare large value
		largeValue := collection.Text(strings.Repeat("x", perfLargeValueSizeKB*1024))

		cleanupSequencedKeys(b, ctx, "set-large")

		b.SetParallelism(perfNumThreads)
		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			for pb.Next() {
				if err := restColl.Set(ctx, nextKey("set-large"), largeValue); err != nil {
					log.Printf("(set-large) - error setting key: %v", err)
				}
			}
		})
	})

	results["set-large"] = setLargeValueResult
	printResult("set-large", setLargeValueResult)

	getResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("get") {
			return
		}

		getKey := populateReadKeys(b, ctx, "get")

		b.SetParallelism(perfNumThreads)
		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				if _, err := restColl.Get(ctx, getKey(counter)); err != nil {
					log.Printf("(get) - error getting key: %v\n", err)
				}
				counter++
			}
		})
	})

	results["get"] = getResult
	printResult("get", getResult)

	hasResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("has") {
			return
		}

		getKey := populateReadKeys(b, ctx, "has")

		b.SetParallelism(perfNumThreads)
		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				if _, err := restColl.Has(ctx, getKey(counter)); err != nil {
					log.Printf("(has) - error checking key: %v\n", err)
				}
				counter++
			}
		})
	})

	results["has"] = hasResult
	printResult("has", hasResult)

	hasNotResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("has-not") {
			return
		}

		b.SetParallelism(perfNumThreads)
		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				key := fmt.Sprintf("%s_has_not_%d", perfKeyPrefix, counter%perfKeySpread)
				if _, err := restColl.Has(ctx, key); err != nil {
					log.Printf("(has-not) - error checking key: %v\n", err)
				}
				counter++
			}
		})
	})

	results["has-not"] = hasNotResult
	printResult("has-not", hasNotResult)

	deleteResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("del") {
			return
		}

		// Removing an absent key is a success, so most iterations measure
		// the delete path without a preceding insert.
		getKey := populateReadKeys(b, ctx, "del")

		b.SetParallelism(perfNumThreads)
		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				if _, err := restColl.Remove(ctx, getKey(counter)); err != nil {
					log.Printf("(del) - error removing key: %v\n", err)
				}
				counter++
			}
		})
	})

	results["del"] = deleteResult
	printResult("del", deleteResult)

	mixedUsageResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("mixed") {
			return
		}

		cleanupSequencedKeys(b, ctx, "mixed")

		b.SetParallelism(perfNumThreads)
		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			var key string
			for pb.Next() {
				var err error
				switch counter % 4 {
				case 0: // set
					key = nextKey("mixed")
					err = restColl.Set(ctx, key, collection.Text("test"))
				case 1: // get
					_, err = restColl.Get(ctx, key)
				case 2: // has
					_, err = restColl.Has(ctx, key)
				case 3: // del
					_, err = restColl.Remove(ctx, key)
				}

				if err != nil {
					log.Printf("(mixed) - error performing operation (%d): %v\n", counter%4, err)
				}
				counter++
			}
		})
	})

	results["mixed"] = mixedUsageResult
	printResult("mixed", mixedUsageResult)

	// Write results to csv is specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results, util.GetClientConfig()); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	// Check if the test is in the skip list
	for _, skip := range perfSkip {
		if test == skip {
			return true
		}
	}
	return false
}

// nextKey hands out a fresh key for insert-only writes
func nextKey(prefix string) string {
	return sequencedKey(prefix, perfSeq.Add(1))
}

func sequencedKey(prefix string, n int64) string {
	return fmt.Sprintf("%s_%s_%d", perfKeyPrefix, prefix, n)
}

// cleanupSequencedKeys registers a cleanup that removes every key the
// benchmark handed out via nextKey since it started
func cleanupSequencedKeys(b *testing.B, ctx context.Context, prefix string) {
	start := perfSeq.Load()
	b.Cleanup(func() {
		for i := start + 1; i <= perfSeq.Load(); i++ {
			if _, err := restColl.Remove(ctx, sequencedKey(prefix, i)); err != nil {
				log.Printf("(%s) - error removing key: %v\n", prefix, err)
			}
		}
	})
}

// populateReadKeys inserts the spread of keys the read benchmarks work on
// and registers their removal. Keys surviving a previous round are reused.
func populateReadKeys(b *testing.B, ctx context.Context, prefix string) func(int) string {
	keys := make([]string, perfKeySpread)
	for i := 0; i < perfKeySpread; i++ {
		keys[i] = fmt.Sprintf("%s_%s_%d", perfKeyPrefix, prefix, i)
	}

	for _, k := range keys {
		err := restColl.Set(ctx, k, collection.Text("test"))
		if err != nil && collection.CodeOf(err) != collection.CodeConstraintViolation {
			log.Printf("(%s) - error setting key: %v\n", prefix, err)
		}
	}

	b.Cleanup(func() {
		for _, k := range keys {
			if _, err := restColl.Remove(ctx, k); err != nil {
				log.Printf("(%s) - error removing key: %v\n", prefix, err)
			}
		}
	})

	return func(i int) string {
		return keys[i%perfKeySpread]
	}
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, result testing.BenchmarkResult) {
	if result.NsPerOp() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	// Print the formatted result
	fmt.Printf("%-20s%.0fns/op (%s/op)\t%.0f ops/sec\n", test, nsPerOp, time.Duration(nsPerOp), opsPerSec)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]testing.BenchmarkResult, config *common.ClientConfig) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "OpsPerSec", "Skipped",
		"Endpoint", "TimeoutSec", "RetryCount", "Codec", "Collection",
		"Threads", "LargeValueSizeKB", "KeysCount",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	// Write test results
	for test, result := range results {
		var nsPerOp float64
		var opsPerSec float64
		var skipped string

		if result.NsPerOp() == 0 {
			skipped = "true"
			nsPerOp = 0
			opsPerSec = 0
		} else {
			skipped = "false"
			nsPerOp = math.Max(float64(result.NsPerOp()), 1)
			opsPerSec = 1.0 / (nsPerOp / 1e9)
		}

		row := []string{
			test,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", opsPerSec),
			skipped,
			config.Endpoint,
			strconv.Itoa(config.TimeoutSecond),
			strconv.Itoa(config.RetryCount),
			config.Codec,
			restColl.Name(),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfLargeValueSizeKB),
			strconv.Itoa(perfKeySpread),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	}

	return nil
}
