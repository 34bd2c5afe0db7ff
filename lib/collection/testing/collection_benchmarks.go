package testing

import (
	"context"
	"fmt"
	"github.com/adrodb/adrodb/lib/collection"
	"strings"
	"sync/atomic"
	"testing"
)

// BenchmarkFactory creates a fresh, empty, materialized collection for one
// benchmark. Cleanup is registered on b.
type BenchmarkFactory func(b *testing.B) KV

// seedSpread is the number of keys the read benchmarks work on.
const seedSpread = 1024

// RunCollectionBenchmarks runs all benchmarks for a collection
// implementation. Writes use process-unique keys because a collection is
// insert-only, reads cycle over a seeded key spread.
func RunCollectionBenchmarks(b *testing.B, factory BenchmarkFactory) {

	b.Run("Set", func(b *testing.B) {
		benchmarkSet(b, factory(b))
	})

	b.Run("SetLargeValue", func(b *testing.B) {
		benchmarkSetLargeValue(b, factory(b))
	})

	b.Run("Get", func(b *testing.B) {
		benchmarkGet(b, factory(b))
	})

	b.Run("GetTyped", func(b *testing.B) {
		benchmarkGetTyped(b, factory(b))
	})

	b.Run("Has", func(b *testing.B) {
		benchmarkHas(b, factory(b))
	})

	b.Run("Has(not)", func(b *testing.B) {
		benchmarkHasNot(b, factory(b))
	})

	b.Run("Remove", func(b *testing.B) {
		benchmarkRemove(b, factory(b))
	})

	b.Run("MixedUsage", func(b *testing.B) {
		benchmarkMixedUsage(b, factory(b))
	})
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

// Benchmark for Set operation
func benchmarkSet(b *testing.B, kv KV) {
	ctx := context.Background()
	var seq atomic.Int64

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			key := fmt.Sprintf("bench_set_%d", seq.Add(1))
			_ = kv.Set(ctx, key, collection.Text("bench_value"))
		}
	})
}

// Benchmark for Set operation with large values
func benchmarkSetLargeValue(b *testing.B, kv KV) {
	ctx := context.Background()
	var seq atomic.Int64

	// 64KB of text
	large := collection.Text(strings.Repeat("x", 64*1024))

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			key := fmt.Sprintf("bench_set_large_%d", seq.Add(1))
			_ = kv.Set(ctx, key, large)
		}
	})
}

// Parallel benchmarking for Get operation
func benchmarkGet(b *testing.B, kv KV) {
	ctx := context.Background()
	getKey := seedKeys(b, kv, "get", func(i int) collection.Scalar {
		return collection.Text(fmt.Sprintf("value_%d", i))
	})

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			_, _ = kv.Get(ctx, getKey(counter))
			counter++
		}
	})
}

// Parallel benchmarking for the typed read path (text to integer coercion)
func benchmarkGetTyped(b *testing.B, kv KV) {
	ctx := context.Background()
	getKey := seedKeys(b, kv, "get_typed", func(i int) collection.Scalar {
		return collection.Text(fmt.Sprintf("%d", i))
	})

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			_, _ = kv.GetInteger(ctx, getKey(counter))
			counter++
		}
	})
}

// Parallel benchmarking for Has operation
func benchmarkHas(b *testing.B, kv KV) {
	ctx := context.Background()
	getKey := seedKeys(b, kv, "has", func(i int) collection.Scalar {
		return collection.Text("present")
	})

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			_, _ = kv.Has(ctx, getKey(counter))
			counter++
		}
	})
}

// Parallel benchmarking for Has operation (with key miss)
func benchmarkHasNot(b *testing.B, kv KV) {
	ctx := context.Background()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _ = kv.Has(ctx, "bench_absent_key")
		}
	})
}

// Parallel benchmarking for Remove operation. After the seeded keys are
// gone the iterations measure removing absent rows, which is a success.
func benchmarkRemove(b *testing.B, kv KV) {
	ctx := context.Background()
	getKey := seedKeys(b, kv, "remove", func(i int) collection.Scalar {
		return collection.Text("doomed")
	})

	var counter atomic.Int64

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			idx := int(counter.Add(1) - 1)
			_, _ = kv.Remove(ctx, getKey(idx))
		}
	})
}

// Benchmark for mixed usage patterns
func benchmarkMixedUsage(b *testing.B, kv KV) {
	ctx := context.Background()
	var seq atomic.Int64
	getKey := seedKeys(b, kv, "mixed", func(i int) collection.Scalar {
		return collection.Text(fmt.Sprintf("value_%d", i))
	})

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		var key string
		for pb.Next() {
			switch counter % 4 {
			case 0: // insert a fresh key
				key = fmt.Sprintf("bench_mixed_new_%d", seq.Add(1))
				_ = kv.Set(ctx, key, collection.Text("bench_value"))
			case 1: // read from the seeded spread
				_, _ = kv.Get(ctx, getKey(counter))
			case 2: // probe the seeded spread
				_, _ = kv.Has(ctx, getKey(counter))
			case 3: // remove the fresh key again
				_, _ = kv.Remove(ctx, key)
			}
			counter++
		}
	})
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

// seedKeys inserts the spread of keys the read benchmarks cycle over and
// returns an index-to-key lookup with wraparound.
func seedKeys(b *testing.B, kv KV, prefix string, value func(i int) collection.Scalar) func(int) string {
	b.Helper()
	ctx := context.Background()

	keys := make([]string, seedSpread)
	for i := range keys {
		keys[i] = fmt.Sprintf("bench_%s_%d", prefix, i)
		if err := kv.Set(ctx, keys[i], value(i)); err != nil {
			b.Fatalf("failed to seed key %s: %v", keys[i], err)
		}
	}

	return func(i int) string {
		return keys[i%seedSpread]
	}
}
