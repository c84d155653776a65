// stats.go: StatisticsRecorder — counters with a coherent snapshot (§4.7)
//
// Every counter is an independent atomic for lock-free increments on
// the hot path; Snapshot reads them twice around a generation counter
// (odd generation means "write in progress") and retries, a
// seqlock-flavored technique for publishing consistent multi-field
// reads without a mutex.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package jcachex

import "sync/atomic"

// Stats is a coherent point-in-time snapshot of a cache's counters.
type Stats struct {
	HitCount           int64
	MissCount          int64
	LoadSuccessCount   int64
	LoadFailureCount   int64
	TotalLoadTimeNanos int64
	EvictionCount      int64
	EvictionWeight     int64
	ExpirationCount    int64
}

// HitRate returns hits / (hits + misses), or 0 if there have been no
// requests yet.
func (s Stats) HitRate() float64 {
	total := s.HitCount + s.MissCount
	if total == 0 {
		return 0
	}
	return float64(s.HitCount) / float64(total)
}

// AverageLoadTime returns the mean loader latency across both
// successful and failed loads, or 0 if none have completed.
func (s Stats) AverageLoadTime() float64 {
	loads := s.LoadSuccessCount + s.LoadFailureCount
	if loads == 0 {
		return 0
	}
	return float64(s.TotalLoadTimeNanos) / float64(loads)
}

// StatisticsRecorder accumulates the §4.7 counters. enabled gates every
// Record* call to a single atomic load so recordStats:false costs one
// branch per operation.
type StatisticsRecorder struct {
	enabled atomic.Bool

	generation atomic.Uint64

	hitCount           atomic.Int64
	missCount          atomic.Int64
	loadSuccessCount   atomic.Int64
	loadFailureCount   atomic.Int64
	totalLoadTimeNanos atomic.Int64
	evictionCount      atomic.Int64
	evictionWeight     atomic.Int64
	expirationCount    atomic.Int64
}

func newStatisticsRecorder(enabled bool) *StatisticsRecorder {
	r := &StatisticsRecorder{}
	r.enabled.Store(enabled)
	return r
}

// SetEnabled toggles recording at runtime (wired from hot-reloadable config).
func (r *StatisticsRecorder) SetEnabled(enabled bool) { r.enabled.Store(enabled) }

func (r *StatisticsRecorder) Enabled() bool { return r.enabled.Load() }

func (r *StatisticsRecorder) begin() bool {
	if !r.enabled.Load() {
		return false
	}
	r.generation.Add(1) // odd: write in progress
	return true
}

func (r *StatisticsRecorder) end() {
	r.generation.Add(1) // even: write complete
}

func (r *StatisticsRecorder) RecordHit() {
	if !r.begin() {
		return
	}
	r.hitCount.Add(1)
	r.end()
}

func (r *StatisticsRecorder) RecordMiss() {
	if !r.begin() {
		return
	}
	r.missCount.Add(1)
	r.end()
}

func (r *StatisticsRecorder) RecordLoadSuccess(latencyNanos int64) {
	if !r.begin() {
		return
	}
	r.loadSuccessCount.Add(1)
	r.totalLoadTimeNanos.Add(latencyNanos)
	r.end()
}

func (r *StatisticsRecorder) RecordLoadFailure(latencyNanos int64) {
	if !r.begin() {
		return
	}
	r.loadFailureCount.Add(1)
	r.totalLoadTimeNanos.Add(latencyNanos)
	r.end()
}

func (r *StatisticsRecorder) RecordEviction(weight int64) {
	if !r.begin() {
		return
	}
	r.evictionCount.Add(1)
	r.evictionWeight.Add(weight)
	r.end()
}

func (r *StatisticsRecorder) RecordExpiration() {
	if !r.begin() {
		return
	}
	r.expirationCount.Add(1)
	r.end()
}

// Snapshot returns a copy of every counter. The read is retried while
// the generation is odd or changes between the two loads. Record* calls
// from several goroutines can overlap and leave the generation even
// while one of them is still mid-write, so a snapshot taken under
// concurrent writes can show minor inconsistency across counters.
func (r *StatisticsRecorder) Snapshot() Stats {
	for {
		g1 := r.generation.Load()
		if g1%2 == 1 {
			continue
		}
		s := Stats{
			HitCount:           r.hitCount.Load(),
			MissCount:          r.missCount.Load(),
			LoadSuccessCount:   r.loadSuccessCount.Load(),
			LoadFailureCount:   r.loadFailureCount.Load(),
			TotalLoadTimeNanos: r.totalLoadTimeNanos.Load(),
			EvictionCount:      r.evictionCount.Load(),
			EvictionWeight:     r.evictionWeight.Load(),
			ExpirationCount:    r.expirationCount.Load(),
		}
		g2 := r.generation.Load()
		if g1 == g2 {
			return s
		}
	}
}

// Reset zeroes every counter. Cache.Clear does not call it; Clear
// leaves statistics untouched.
func (r *StatisticsRecorder) Reset() {
	r.generation.Add(1)
	r.hitCount.Store(0)
	r.missCount.Store(0)
	r.loadSuccessCount.Store(0)
	r.loadFailureCount.Store(0)
	r.totalLoadTimeNanos.Store(0)
	r.evictionCount.Store(0)
	r.evictionWeight.Store(0)
	r.expirationCount.Store(0)
	r.generation.Add(1)
}
