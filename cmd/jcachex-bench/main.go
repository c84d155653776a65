// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

// jcachex-bench drives a synthetic hot/cold key workload against a
// jcachex.Cache and reports the resulting hit rate and eviction counts.
// It exists to exercise the library under a reproducible access
// pattern rather than as a micro-benchmark harness: see benchmarks/
// for the testing.B comparisons against ristretto and otter.
package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	flashflags "github.com/agilira/flash-flags"
	"github.com/jcachex/jcachex"
)

func main() {
	fs := flashflags.New("jcachex-bench")
	size := fs.Int("size", 10_000, "maximum number of live entries")
	ops := fs.Int("ops", 200_000, "number of Get/Put operations to run")
	hotKeys := fs.Int("hot-keys", 200, "size of the hot keyspace")
	coldKeys := fs.Int("cold-keys", 50_000, "size of the cold keyspace")
	hotPercent := fs.Int("hot-percent", 90, "percentage of operations that target the hot keyspace")
	readPercent := fs.Int("read-percent", 80, "percentage of operations that are reads rather than writes")

	if err := fs.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "jcachex-bench:", err)
		os.Exit(1)
	}

	cfg := jcachex.DefaultConfig[int, int64]()
	cfg.MaximumSize = int64(*size)
	cfg.RecordStats = true

	cache, err := jcachex.NewCache(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "jcachex-bench: failed to construct cache:", err)
		os.Exit(1)
	}
	defer cache.Close()

	rng := rand.New(rand.NewSource(1))
	start := time.Now()

	for i := 0; i < *ops; i++ {
		key := pickKey(rng, *hotKeys, *coldKeys, *hotPercent)
		if rng.Intn(100) < *readPercent {
			if _, hit := cache.Get(key); !hit {
				_ = cache.Put(key, int64(key))
			}
			continue
		}
		_ = cache.Put(key, int64(key)*int64(i))
	}

	elapsed := time.Since(start)
	stats := cache.SnapshotStats()

	fmt.Printf("jcachex-bench: %d ops in %s (%.0f ops/s)\n", *ops, elapsed, float64(*ops)/elapsed.Seconds())
	fmt.Printf("  hit rate:        %.2f%%\n", stats.HitRate()*100)
	fmt.Printf("  hits / misses:   %d / %d\n", stats.HitCount, stats.MissCount)
	fmt.Printf("  evictions:       %d (weight %d)\n", stats.EvictionCount, stats.EvictionWeight)
	fmt.Printf("  final size:      %d / %d\n", cache.Size(), *size)
}

// pickKey draws from the hot keyspace hotPercent of the time, and the
// cold keyspace otherwise; the hot keyspace is small enough to fit
// entirely within size, so a well-behaved admission policy should
// retain it almost completely despite continuous cold churn.
func pickKey(rng *rand.Rand, hotKeys, coldKeys, hotPercent int) int {
	if rng.Intn(100) < hotPercent {
		return rng.Intn(hotKeys)
	}
	return hotKeys + rng.Intn(coldKeys)
}
