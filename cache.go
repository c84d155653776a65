// cache.go: Cache[K, V] — the public facade (§4.8)
//
// Wires every component together: EntryStore for storage, the
// frequency sketch and Policy for eviction, AccessBuffer +
// MaintenanceScheduler for the background pipeline, ExpirationManager
// for TTL/refresh, StatisticsRecorder and EventDispatcher for
// observability. Every exported operation validates its key, routes
// through the appropriate component, records statistics if enabled,
// and dispatches events — in that order, matching §4.8.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package jcachex

import (
	"context"
	"sync/atomic"
)

// Cache is the generic, concurrent in-process key-value cache engine.
// The zero value is not usable; construct with NewCache.
type Cache[K comparable, V any] struct {
	cfg Config[K, V]

	store      *EntryStore[K, V]
	sketch     *frequencySketch
	policy     Policy[K]
	buffer     *AccessBuffer[K]
	expiration *ExpirationManager[K, V]
	scheduler  *MaintenanceScheduler[K, V]
	stats      *StatisticsRecorder
	events     *EventDispatcher[K, V]
	pool       *workerPool
	changes    *changeBroadcaster[K, V]

	closed atomic.Bool
}

// NewCache constructs a Cache from cfg, normalizing defaults via
// Config.Validate. The maintenance scheduler's background goroutine is
// started immediately; call Close to stop it.
func NewCache[K comparable, V any](cfg Config[K, V]) (*Cache[K, V], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	capacity := int(cfg.MaximumSize)
	if capacity <= 0 {
		capacity = DefaultMaxSize
	}

	c := &Cache[K, V]{cfg: cfg}
	c.store = newEntryStore[K, V](cfg.StripeCount, func(key K) error {
		if cfg.KeyValidator != nil {
			return cfg.KeyValidator(key)
		}
		if !cfg.NullKeysAllowed {
			var zero K
			if key == zero {
				return NewErrInvalidKey("nil key not allowed")
			}
		}
		return nil
	})
	c.sketch = newFrequencySketch(capacity, cfg.SketchKind)
	c.policy = newPolicy[K](cfg.EvictionPolicy, capacity, DefaultWindowRatio, DefaultProbationaryRatio, c.sketch, cfg.CustomPolicy)
	c.buffer = newAccessBuffer[K](cfg.StripeCount)
	c.stats = newStatisticsRecorder(cfg.RecordStats)
	c.events = newEventDispatcher[K, V](cfg.Logger)
	c.pool = newWorkerPool(0)
	c.changes = newChangeBroadcaster[K, V]()

	for _, l := range cfg.Listeners {
		c.events.Add(l)
	}

	c.expiration = newExpirationManager[K, V](expirationConfig[K, V]{
		ExpireAfterWriteNanos:  int64(cfg.ExpireAfterWrite),
		ExpireAfterAccessNanos: int64(cfg.ExpireAfterAccess),
		RefreshAfterWriteNanos: int64(cfg.RefreshAfterWrite),
		SweepFraction:          cfg.SweepFraction,
		Store:                  c.store,
		Buffer:                 c.buffer,
		Clock:                  cfg.TimeProvider,
		Events:                 c.events,
		Stats:                  c.stats,
		Refresh:                c.scheduleRefresh,
	})

	c.scheduler = newMaintenanceScheduler[K, V](schedulerDeps[K, V]{
		Store:         c.store,
		Buffer:        c.buffer,
		Sketch:        c.sketch,
		Policy:        c.policy,
		Expiration:    c.expiration,
		Events:        c.events,
		Stats:         c.stats,
		Clock:         cfg.TimeProvider,
		Log:           cfg.Logger,
		MaximumSize:   cfg.MaximumSize,
		MaximumWeight: cfg.MaximumWeight,
		DrainBudget:   cfg.DrainBudget,
		TickInterval:  cfg.TickInterval,
	})
	c.scheduler.Start()

	return c, nil
}

func (c *Cache[K, V]) scheduleRefresh(key K) {
	if c.cfg.Loader == nil && c.cfg.AsyncLoader == nil {
		return
	}
	submitted := c.pool.Submit(func() {
		loadStart := c.cfg.TimeProvider.Now()
		value, err := c.invokeLoader(key)
		if err != nil {
			c.stats.RecordLoadFailure(c.cfg.TimeProvider.Now() - loadStart)
			c.events.Dispatch(Event[K, V]{Kind: EventLoadFailure, Key: key})
			return
		}
		now := c.cfg.TimeProvider.Now()
		weight := c.cfg.Weigher(key, value)
		expireAt, refreshAt := c.expiration.DeadlinesForWrite(now)
		c.store.insertOrReplace(key, value, weight, expireAt, refreshAt, now)
		h := c.store.hash(key)
		c.buffer.Record(key, h, AccessWrite, c.sketch.estimate(h))
		c.stats.RecordLoadSuccess(now - loadStart)
		c.events.Dispatch(Event[K, V]{Kind: EventLoadSuccess, Key: key, Value: value})
	})
	_ = submitted // refresh is best-effort; dropping under overload is acceptable
}

func (c *Cache[K, V]) validateKey(key K) error {
	return c.store.validate(key)
}

// Get returns the value for key and whether it was present.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	var zero V
	if err := c.validateKey(key); err != nil {
		return zero, false
	}
	now := c.cfg.TimeProvider.Now()
	e := c.store.getOrNull(key, now)
	if e == nil {
		c.stats.RecordMiss()
		return zero, false
	}
	e.touch(now)
	h := c.store.hash(key)
	c.sketch.increment(h)
	c.buffer.Record(key, h, AccessRead, c.sketch.estimate(h))
	c.stats.RecordHit()
	c.expiration.CheckRefresh(key, e, now)
	return e.load(), true
}

// Contains reports whether key maps to a live, unexpired entry,
// without affecting recency/frequency tracking.
func (c *Cache[K, V]) Contains(key K) bool {
	if err := c.validateKey(key); err != nil {
		return false
	}
	return c.store.contains(key, c.cfg.TimeProvider.Now())
}

// GetOrLoad returns the cached value for key, loading it via the
// configured synchronous Loader on a miss. Concurrent misses for the
// same key are coalesced into a single loader invocation (§4.1, §5).
func (c *Cache[K, V]) GetOrLoad(key K) (V, error) {
	return c.GetOrLoadWithContext(context.Background(), key)
}

// GetOrLoadWithContext is GetOrLoad with a deadline. A context
// cancellation while waiting on another goroutine's in-flight load
// returns Timeout; the in-flight loader itself is never cancelled (§5).
func (c *Cache[K, V]) GetOrLoadWithContext(ctx context.Context, key K) (V, error) {
	var zero V
	if err := c.validateKey(key); err != nil {
		return zero, err
	}
	if c.cfg.Loader == nil && c.cfg.AsyncLoader == nil {
		return zero, NewErrInvalidConfig("Loader", nil)
	}

	now := c.cfg.TimeProvider.Now()
	if e := c.store.getOrNull(key, now); e != nil {
		e.touch(now)
		c.stats.RecordHit()
		return e.load(), nil
	}
	c.stats.RecordMiss()

	placeholder, h, isNew := c.store.beginLoad(key)
	if !isNew {
		if placeholder.State() == stateLive {
			return placeholder.load(), nil
		}
		select {
		case <-placeholder.loadingDone:
		case <-ctx.Done():
			return zero, NewErrTimeout("")
		}
		if e := c.store.getOrNull(key, c.cfg.TimeProvider.Now()); e != nil {
			return e.load(), nil
		}
		return zero, NewErrLoadError("", nil)
	}

	loadStart := c.cfg.TimeProvider.Now()
	value, err := c.invokeLoader(key)
	if err != nil {
		c.store.abortLoad(key, h, placeholder)
		c.stats.RecordLoadFailure(c.cfg.TimeProvider.Now() - loadStart)
		c.events.Dispatch(Event[K, V]{Kind: EventLoadFailure, Key: key})
		return zero, NewErrLoadError("", err)
	}

	loadNow := c.cfg.TimeProvider.Now()
	weight := c.cfg.Weigher(key, value)
	expireAt, refreshAt := c.expiration.DeadlinesForWrite(loadNow)
	c.store.completeLoad(key, h, placeholder, loadResult[V]{Value: value, Weight: weight, ExpireAt: expireAt, RefreshAt: refreshAt}, loadNow)
	c.sketch.increment(h)
	c.buffer.Record(key, h, AccessWrite, c.sketch.estimate(h))
	c.stats.RecordLoadSuccess(loadNow - loadStart)
	c.events.Dispatch(Event[K, V]{Kind: EventLoadSuccess, Key: key, Value: value})
	c.enforceCapacity(key)
	return value, nil
}

func (c *Cache[K, V]) invokeLoader(key K) (value V, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewErrPanicRecovered("GetOrLoad", r)
		}
	}()
	if c.cfg.Loader != nil {
		return c.cfg.Loader(key)
	}
	valCh, errCh := c.cfg.AsyncLoader(key)
	select {
	case v := <-valCh:
		return v, nil
	case e := <-errCh:
		var zero V
		return zero, e
	}
}

// Put inserts or replaces the value for key.
func (c *Cache[K, V]) Put(key K, value V) error {
	if err := c.validateKey(key); err != nil {
		return err
	}
	if err := c.reserveRoom(key); err != nil {
		return err
	}
	now := c.cfg.TimeProvider.Now()
	weight := c.cfg.Weigher(key, value)
	expireAt, refreshAt := c.expiration.DeadlinesForWrite(now)
	c.store.insertOrReplace(key, value, weight, expireAt, refreshAt, now)
	h := c.store.hash(key)
	c.sketch.increment(h)
	c.buffer.Record(key, h, AccessWrite, c.sketch.estimate(h))
	c.events.Dispatch(Event[K, V]{Kind: EventPut, Key: key, Value: value})
	c.changes.publish(EntryChange[K, V]{Kind: EventPut, Key: key, Value: value})
	c.enforceCapacity(key)
	return nil
}

// PutIfAbsent inserts value for key only if key is not already
// present, reporting whether the insertion happened.
func (c *Cache[K, V]) PutIfAbsent(key K, value V) (bool, error) {
	if err := c.validateKey(key); err != nil {
		return false, err
	}
	now := c.cfg.TimeProvider.Now()
	if c.store.contains(key, now) {
		return false, nil
	}
	if err := c.Put(key, value); err != nil {
		return false, err
	}
	return true, nil
}

// Replace swaps key's value for updated only if its current value
// equals expected, as judged by eq. Reports whether the swap happened.
func (c *Cache[K, V]) Replace(key K, expected, updated V, eq func(a, b V) bool) (bool, error) {
	if err := c.validateKey(key); err != nil {
		return false, err
	}
	now := c.cfg.TimeProvider.Now()
	e := c.store.getOrNull(key, now)
	if e == nil || !eq(e.load(), expected) {
		return false, nil
	}
	return true, c.Put(key, updated)
}

// Remove deletes key unconditionally, returning its prior value if
// present.
func (c *Cache[K, V]) Remove(key K) (V, bool) {
	var zero V
	if err := c.validateKey(key); err != nil {
		return zero, false
	}
	prior, removed := c.store.removeIfPresent(key)
	if !removed {
		return zero, false
	}
	h := c.store.hash(key)
	c.buffer.Record(key, h, AccessEvict, 0)
	c.events.Dispatch(Event[K, V]{Kind: EventRemove, Key: key, Value: *prior})
	c.changes.publish(EntryChange[K, V]{Kind: EventRemove, Key: key})
	return *prior, true
}

// RemoveIf deletes key only if its current value equals expected,
// reporting whether the removal happened.
func (c *Cache[K, V]) RemoveIf(key K, expected V, eq func(a, b V) bool) bool {
	if err := c.validateKey(key); err != nil {
		return false
	}
	now := c.cfg.TimeProvider.Now()
	e := c.store.getOrNull(key, now)
	if e == nil || !eq(e.load(), expected) {
		return false
	}
	_, removed := c.Remove(key)
	return removed
}

// Size returns the current number of LIVE entries.
func (c *Cache[K, V]) Size() int64 { return c.store.Size() }

// Weight returns the current total weight across LIVE entries.
func (c *Cache[K, V]) Weight() int64 { return c.store.Weight() }

// Clear removes every entry, resets the sketch and policy, and leaves
// accumulated statistics untouched; Cache offers no way to reset them.
func (c *Cache[K, V]) Clear() {
	c.store.clearAll()
	c.sketch.clear()
	c.policy.Clear()
	c.events.Dispatch(Event[K, V]{Kind: EventClear})
	c.changes.publish(EntryChange[K, V]{Kind: EventClear})
}

// SnapshotStats returns a copy of the cache's counters (see
// StatisticsRecorder.Snapshot for its consistency under concurrent writes).
func (c *Cache[K, V]) SnapshotStats() Stats { return c.stats.Snapshot() }

// IterateEntries calls fn for every live, unexpired entry observed at
// call time.
func (c *Cache[K, V]) IterateEntries(fn func(key K, value V)) {
	c.store.iterateEntries(c.cfg.TimeProvider.Now(), fn)
}

// AddListener registers l and returns a token for RemoveListener.
func (c *Cache[K, V]) AddListener(l Listener[K, V]) int { return c.events.Add(l) }

// RemoveListener unregisters the listener identified by token.
func (c *Cache[K, V]) RemoveListener(token int) { c.events.Remove(token) }

// BulkGet looks up every key in keys, returning a map of only the
// present ones.
func (c *Cache[K, V]) BulkGet(keys []K) map[K]V {
	out := make(map[K]V, len(keys))
	for _, k := range keys {
		if v, ok := c.Get(k); ok {
			out[k] = v
		}
	}
	return out
}

// BulkPut inserts every key/value pair in entries.
func (c *Cache[K, V]) BulkPut(entries map[K]V) error {
	for k, v := range entries {
		if err := c.Put(k, v); err != nil {
			return err
		}
	}
	return nil
}

// BulkRemove deletes every key in keys, returning how many were
// actually present.
func (c *Cache[K, V]) BulkRemove(keys []K) int {
	removed := 0
	for _, k := range keys {
		if _, ok := c.Remove(k); ok {
			removed++
		}
	}
	return removed
}

// reserveRoom evicts synchronously, one victim at a time, until key
// can be admitted within the configured bounds, or returns
// CapacityExceeded if the policy yields no further victim (§4.8, §5).
// A replace of an already-live key never needs to reserve room for the
// size bound (the entry count does not change).
func (c *Cache[K, V]) reserveRoom(key K) error {
	now := c.cfg.TimeProvider.Now()
	alreadyLive := c.store.contains(key, now)

	if c.cfg.MaximumSize == 0 && c.cfg.MaximumWeight == 0 && !alreadyLive {
		return NewErrCapacityExceeded(0, int(c.store.Size()))
	}

	if c.cfg.MaximumSize > 0 && !alreadyLive {
		for c.store.Size() >= c.cfg.MaximumSize {
			if !c.scheduler.EvictOneSync() {
				return NewErrCapacityExceeded(int(c.cfg.MaximumSize), int(c.store.Size()))
			}
		}
	}
	return nil
}

// enforceCapacity runs the post-write §5 contingency: if the write
// just pushed the cache over its weight (or, rarely, size) bound, evict
// synchronously instead of waiting for the next scheduler tick.
func (c *Cache[K, V]) enforceCapacity(key K) {
	attempts := 0
	for c.scheduler.OverCapacity() && attempts < 16 {
		if !c.scheduler.EvictOneSync() {
			return
		}
		attempts++
	}
	if c.scheduler.ShouldSignal() {
		c.scheduler.Signal()
	}
}

// Close stops the maintenance scheduler and worker pool, waiting for
// in-flight tasks to finish. New operations after Close continue to
// function against the store directly (Close does not poison the
// cache); callers that want a hard stop should drop all references
// after calling Close.
func (c *Cache[K, V]) Close() {
	if c.closed.Swap(true) {
		return
	}
	c.scheduler.Stop()
	c.pool.Close()
}
