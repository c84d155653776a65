// config.go: Config[K, V] — cache construction options (§6)
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package jcachex

import (
	"time"

	timecache "github.com/agilira/go-timecache"
)

// Loader synchronously computes the value for a missing key. Whatever
// value it returns with a nil error is cached, a nil pointer, map or
// interface included; there is no "no value" result.
type Loader[K comparable, V any] func(key K) (V, error)

// AsyncLoader computes the value for a missing key and delivers it (or
// an error) on the returned channels. GetOrLoad calls it on the
// caller's goroutine and waits; refreshes call it from the shared
// worker pool. Exclusive with Loader.
type AsyncLoader[K comparable, V any] func(key K) (<-chan V, <-chan error)

// Weigher computes the weight of a key/value pair. The zero value
// means "constant weight 1" (Config.Validate fills this in).
type Weigher[K comparable, V any] func(key K, value V) int64

// KeyValidator rejects keys before they ever reach the store (§8:
// "every operation validates its key").
type KeyValidator[K comparable] func(key K) error

// Config is the builder record for constructing a Cache[K, V]. Every
// field has a documented default applied by Validate; the zero Config
// is valid but accepts no writes (MaximumSize and MaximumWeight both
// 0 means zero capacity, not "unbounded" — use DefaultConfig for a
// sane, stats-enabled, W-TinyLFU cache with no expiration).
type Config[K comparable, V any] struct {
	// MaximumSize bounds the number of LIVE entries. 0 disables
	// size-based eviction (MaximumWeight may still apply).
	MaximumSize int64

	// MaximumWeight bounds total weight across LIVE entries. 0 disables
	// weight-based eviction.
	MaximumWeight int64

	// Weigher computes per-entry weight. Defaults to constant 1.
	Weigher Weigher[K, V]

	// ExpireAfterWrite sets an absolute deadline from write time. 0
	// disables write-based expiration.
	ExpireAfterWrite time.Duration

	// ExpireAfterAccess sets a sliding deadline from last access. 0
	// disables access-based expiration. The deadline is advanced in
	// batches by the maintenance scheduler, not inline on Get (§4.5,
	// §9): it may lag the true last-access instant by up to one drain
	// interval.
	ExpireAfterAccess time.Duration

	// RefreshAfterWrite schedules an async reload on the first read
	// observed past the deadline; readers continue to see the stale
	// value until the reload completes (§4.5).
	RefreshAfterWrite time.Duration

	// EvictionPolicy selects the eviction strategy. Zero value
	// (PolicyWTinyLFU) is the default and is always authoritative once
	// set — it is never silently overridden.
	EvictionPolicy EvictionPolicyKind

	// CustomPolicy supplies a caller-defined Policy implementation, used
	// when EvictionPolicy == PolicyCustom.
	CustomPolicy Policy[K]

	// SketchKind selects the frequency-sketch variant backing
	// W-TinyLFU-style admission. Zero value is SketchNone; the
	// W-TinyLFU default policy overrides this to SketchWithDoorkeeper
	// in Validate if left unset, since admission is meaningless without
	// a sketch.
	SketchKind SketchKind

	// RecordStats enables the statistics recorder. Small runtime cost
	// per operation (an atomic generation bump).
	RecordStats bool

	// Loader and AsyncLoader are exclusive; Validate rejects a config
	// that sets both.
	Loader      Loader[K, V]
	AsyncLoader AsyncLoader[K, V]

	// Listeners are registered with the event dispatcher at
	// construction time; more can be added later via Cache.AddListener.
	Listeners []Listener[K, V]

	// StripeCount overrides the EntryStore's stripe count. 0 defaults to
	// GOMAXPROCS rounded to a power of two.
	StripeCount int

	// KeyValidator rejects invalid keys before they reach the store.
	// nil accepts every key (NullKeysAllowed governs only the nil-key
	// case for pointer/interface key types).
	KeyValidator KeyValidator[K]

	// NullKeysAllowed permits the zero value of K when true. Most
	// callers use comparable value types where "null" doesn't apply;
	// this matters chiefly for pointer- or interface-typed K.
	NullKeysAllowed bool

	// DrainBudget bounds how many access-buffer records the scheduler
	// drains per tick. Default DefaultDrainBudget.
	DrainBudget int

	// SweepFraction is the denominator of the fraction of stripes the
	// periodic expiration sweep walks per tick (1/SweepFraction).
	// Default DefaultSweepFraction.
	SweepFraction int

	// TickInterval is the scheduler's wall-clock wakeup period. Default
	// DefaultTickIntervalMillis milliseconds.
	TickInterval time.Duration

	// Logger receives scheduler and dispatcher diagnostics. Default
	// NoOpLogger.
	Logger Logger

	// TimeProvider supplies the current time in nanoseconds. Default a
	// go-timecache-backed implementation.
	TimeProvider TimeProvider

	// MetricsCollector is kept on the Config; Cache operations do not
	// call any of its methods. Default NoOpMetricsCollector.
	MetricsCollector MetricsCollector
}

// DefaultConfig returns a Config with every default pre-applied.
func DefaultConfig[K comparable, V any]() Config[K, V] {
	c := Config[K, V]{
		MaximumSize:   DefaultMaxSize,
		DrainBudget:   DefaultDrainBudget,
		SweepFraction: DefaultSweepFraction,
		TickInterval:  DefaultTickIntervalMillis * time.Millisecond,
		RecordStats:   true,
		Logger:        NoOpLogger{},
		TimeProvider:  &systemTimeProvider{},
		MetricsCollector: NoOpMetricsCollector{},
	}
	return c
}

// Validate normalizes zero-valued fields to their documented defaults
// and rejects combinations that cannot construct a cache (Loader and
// AsyncLoader both set, or CustomPolicy missing under PolicyCustom).
func (c *Config[K, V]) Validate() error {
	if c.MaximumSize < 0 {
		return NewErrInvalidConfig("MaximumSize", c.MaximumSize)
	}
	if c.MaximumWeight < 0 {
		return NewErrInvalidConfig("MaximumWeight", c.MaximumWeight)
	}
	if c.Weigher == nil {
		c.Weigher = func(K, V) int64 { return 1 }
	}

	if c.Loader != nil && c.AsyncLoader != nil {
		return NewErrInvalidConfig("Loader/AsyncLoader", "both set, expected at most one")
	}

	if c.EvictionPolicy == PolicyCustom && c.CustomPolicy == nil {
		return NewErrInvalidConfig("CustomPolicy", nil)
	}

	if c.EvictionPolicy == PolicyWTinyLFU && c.SketchKind == SketchNone {
		c.SketchKind = SketchWithDoorkeeper
	}

	if c.DrainBudget <= 0 {
		c.DrainBudget = DefaultDrainBudget
	}
	if c.SweepFraction <= 0 {
		c.SweepFraction = DefaultSweepFraction
	}
	if c.TickInterval <= 0 {
		c.TickInterval = DefaultTickIntervalMillis * time.Millisecond
	}
	if c.StripeCount <= 0 {
		c.StripeCount = stripeCountFor(0)
	}

	if c.Logger == nil {
		c.Logger = NoOpLogger{}
	}
	if c.TimeProvider == nil {
		c.TimeProvider = &systemTimeProvider{}
	}
	if c.MetricsCollector == nil {
		c.MetricsCollector = NoOpMetricsCollector{}
	}

	return nil
}

// systemTimeProvider is the default TimeProvider, backed by
// go-timecache's periodically-refreshed clock instead of a time.Now()
// syscall on every call.
type systemTimeProvider struct{}

func (systemTimeProvider) Now() int64 { return timecache.CachedTimeNano() }
