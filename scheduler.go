// scheduler.go: MaintenanceScheduler — cooperative background tasks (§4.6)
//
// A single goroutine drains the access buffers, ages the frequency
// sketch, sweeps expired entries, and runs capacity eviction, so most
// policy bookkeeping happens off the hot Get/Put path; a Put that finds
// the cache full still drains and evicts synchronously through
// EvictOneSync on the caller's goroutine. The
// scheduler wakes on a wall-clock tick or a threshold signal (buffer
// backlog or size overshoot) and bounds each task to a time budget so
// no single tick can stall the others.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package jcachex

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	// thresholdBufferBacklog is the access-buffer occupancy that wakes
	// the scheduler early instead of waiting for the next tick (§4.6).
	thresholdBufferBacklog = 64
	// thresholdOvershootRatio: entry count past max * ratio also wakes
	// the scheduler early.
	thresholdOvershootRatio = 1.05
	// defaultTaskBudget bounds how long a single scheduler task may run
	// before yielding to the next one.
	defaultTaskBudget = 500 * time.Microsecond
)

// schedulerDeps bundles every collaborator the scheduler drives a tick
// across. Expiration may be nil; Log, DrainBudget and TickInterval fall
// back to defaults when left unset.
type schedulerDeps[K comparable, V any] struct {
	Store      *EntryStore[K, V]
	Buffer     *AccessBuffer[K]
	Sketch     *frequencySketch
	Policy     Policy[K]
	Expiration *ExpirationManager[K, V]
	Events     *EventDispatcher[K, V]
	Stats      *StatisticsRecorder
	Clock      TimeProvider
	Log        Logger

	MaximumSize   int64
	MaximumWeight int64
	DrainBudget   int
	TickInterval  time.Duration
}

// MaintenanceScheduler is the single-threaded cooperative executor of
// §4.6. Call Start to launch its goroutine and Stop to drain it.
type MaintenanceScheduler[K comparable, V any] struct {
	deps schedulerDeps[K, V]

	wake     chan struct{}
	stopCh   chan struct{}
	draining atomic.Bool
	stopped  atomic.Bool
	wg       sync.WaitGroup

	// drainMu serializes every AccessBuffer.Drain call. The ring buffers
	// are single-consumer (accessring.drain is not safe for concurrent
	// callers): without this lock, the tick goroutine's drainBuffers and
	// a caller goroutine's synchronous DrainNow (invoked from Put/Get via
	// EvictOneSync) could race on the same ring.
	drainMu sync.Mutex
}

func newMaintenanceScheduler[K comparable, V any](deps schedulerDeps[K, V]) *MaintenanceScheduler[K, V] {
	if deps.DrainBudget <= 0 {
		deps.DrainBudget = DefaultDrainBudget
	}
	if deps.TickInterval <= 0 {
		deps.TickInterval = DefaultTickIntervalMillis * time.Millisecond
	}
	if deps.Log == nil {
		deps.Log = NoOpLogger{}
	}
	return &MaintenanceScheduler[K, V]{
		deps:   deps,
		wake:   make(chan struct{}, 1),
		stopCh: make(chan struct{}),
	}
}

// Start launches the background goroutine.
func (s *MaintenanceScheduler[K, V]) Start() {
	s.wg.Add(1)
	go s.run()
}

// Signal requests an out-of-band wakeup (threshold signal, §4.6)
// instead of waiting for the next wall-clock tick. Non-blocking.
func (s *MaintenanceScheduler[K, V]) Signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Stop marks the scheduler draining: in-flight tasks finish, no new
// tick fires, and Stop blocks until the goroutine exits (§4.6
// cancellation). Subsequent Signal calls are no-ops.
func (s *MaintenanceScheduler[K, V]) Stop() {
	if s.draining.Swap(true) {
		return
	}
	close(s.stopCh)
	s.wg.Wait()
}

// Draining reports whether Stop has been called. The Cache facade does
// not consult it: operations issued after Close keep running on the
// caller's goroutine without the background scheduler.
func (s *MaintenanceScheduler[K, V]) Draining() bool {
	return s.draining.Load()
}

func (s *MaintenanceScheduler[K, V]) run() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.deps.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			s.stopped.Store(true)
			return
		case <-ticker.C:
			s.tick()
		case <-s.wake:
			s.tick()
		}
	}
}

// tick runs one full pass: drainBuffers, ageSketch, sweepExpired,
// runEviction, publishStats, each bounded to defaultTaskBudget.
func (s *MaintenanceScheduler[K, V]) tick() {
	s.runBudgeted("drainBuffers", s.drainBuffers)
	s.runBudgeted("ageSketch", s.ageSketch)
	s.runBudgeted("sweepExpired", s.sweepExpired)
	s.runBudgeted("runEviction", s.runEviction)
	s.runBudgeted("publishStats", s.publishStats)
}

func (s *MaintenanceScheduler[K, V]) runBudgeted(name string, task func(deadline time.Time)) {
	defer func() {
		if r := recover(); r != nil {
			s.deps.Log.Error("maintenance task panicked", "task", name, "panic", r)
		}
	}()
	task(time.Now().Add(defaultTaskBudget))
}

// drainBuffers pulls access hints out of the AccessBuffer and applies
// them to the policy and, for expireAfterAccess, the expiration
// manager's deadline slide.
func (s *MaintenanceScheduler[K, V]) drainBuffers(deadline time.Time) {
	s.drainMu.Lock()
	defer s.drainMu.Unlock()
	budget := s.deps.DrainBudget
	for budget > 0 && time.Now().Before(deadline) {
		n := s.deps.Buffer.Drain(budget, s.applyAccessRecord)
		if n == 0 {
			return
		}
		budget -= n
	}
}

// applyAccessRecord feeds a single drained access hint to the policy
// and, for expireAfterAccess, the expiration manager's deadline slide.
func (s *MaintenanceScheduler[K, V]) applyAccessRecord(rec accessRecord[K]) {
	switch rec.kind {
	case AccessRead:
		s.deps.Policy.OnAccess(rec.key, rec.hash, rec.frequency)
		if s.deps.Expiration != nil {
			s.deps.Expiration.ApplyAccessSlide(rec.key, s.deps.Clock.Now())
		}
	case AccessWrite:
		weight := int64(0)
		if e, h, ok := s.deps.Store.entryFor(rec.key); ok && h == rec.hash {
			weight = e.Weight()
		}
		s.deps.Policy.OnWrite(rec.key, rec.hash, weight, rec.frequency)
	case AccessEvict:
		s.deps.Policy.OnRemove(rec.key, rec.hash)
	}
}

// DrainNow synchronously applies every access hint currently queued in
// the AccessBuffer to the policy, regardless of whether a scheduler
// tick has fired yet. The synchronous eviction path (EvictOneSync)
// calls this before asking the policy for a victim: Put/Get only
// enqueue access hints on the buffer (§4.3) rather than calling
// Policy.OnAccess/OnWrite directly, so without this a fast burst of
// operations that completes inside a single tick interval would find
// the policy still empty and fail to evict.
func (s *MaintenanceScheduler[K, V]) DrainNow() {
	s.drainMu.Lock()
	defer s.drainMu.Unlock()
	for {
		n := s.deps.Buffer.Drain(s.deps.Buffer.Len(), s.applyAccessRecord)
		if n == 0 {
			return
		}
	}
}

// ageSketch halves every counter once enough samples have accumulated,
// keeping the frequency sketch representative of recent traffic (§4.2).
func (s *MaintenanceScheduler[K, V]) ageSketch(_ time.Time) {
	if s.deps.Sketch == nil {
		return
	}
	s.deps.Sketch.maybeReset()
}

// sweepExpired reaps entries whose deadline passed without being read.
func (s *MaintenanceScheduler[K, V]) sweepExpired(_ time.Time) {
	if s.deps.Expiration == nil {
		return
	}
	s.deps.Expiration.SweepOnce(s.deps.Clock.Now())
}

// runEviction evicts down to the configured size/weight bound, one
// victim at a time, stopping if the policy yields no victim (§4.4
// failure semantics) or the budget's deadline is reached.
func (s *MaintenanceScheduler[K, V]) runEviction(deadline time.Time) {
	for time.Now().Before(deadline) {
		if !s.overCapacity() {
			return
		}
		if !s.evictOnce() {
			return
		}
	}
}

// EvictOneSync evicts a single victim immediately and reports whether
// one was evicted. Put uses this for the §5 "immediate synchronous
// eviction (one victim)" contingency when a write would exceed the
// capacity bound ahead of the scheduler's next tick; a policy that
// yields no victim here becomes CapacityExceeded at the call site.
func (s *MaintenanceScheduler[K, V]) EvictOneSync() bool {
	s.DrainNow()
	return s.evictOnce()
}

// evictOnce asks the policy for its current victim and removes it from
// the store if it is still the entry the policy thinks it is. Callable
// from any goroutine: every Policy implementation guards its own state
// with a mutex, so concurrent callers only contend, never corrupt.
func (s *MaintenanceScheduler[K, V]) evictOnce() bool {
	key, hash, ok := s.deps.Policy.SelectVictim()
	if !ok {
		return false
	}
	e, h, found := s.deps.Store.entryFor(key)
	if !found || h != hash {
		s.deps.Policy.OnRemove(key, hash)
		return true
	}
	old, removed := s.deps.Store.removeIfSame(key, hash, e)
	s.deps.Policy.OnRemove(key, hash)
	if !removed {
		return true
	}
	reason := EvictReasonSize
	if s.deps.MaximumWeight > 0 && s.deps.Store.Weight() > s.deps.MaximumWeight {
		reason = EvictReasonWeight
	}
	if s.deps.Stats != nil {
		s.deps.Stats.RecordEviction(e.Weight())
	}
	if s.deps.Events != nil {
		s.deps.Events.Dispatch(Event[K, V]{Kind: EventEvict, Key: key, Value: *old, Reason: reason})
	}
	return true
}

// OverCapacity reports whether the store currently exceeds the
// configured size or weight bound. Exported for Put's post-write
// synchronous-eviction contingency (§5).
func (s *MaintenanceScheduler[K, V]) OverCapacity() bool {
	return s.overCapacity()
}

func (s *MaintenanceScheduler[K, V]) overCapacity() bool {
	if s.deps.MaximumSize > 0 && s.deps.Store.Size() > s.deps.MaximumSize {
		return true
	}
	if s.deps.MaximumWeight > 0 && s.deps.Store.Weight() > s.deps.MaximumWeight {
		return true
	}
	return false
}

// publishStats is a placeholder hook where a future push-based metrics
// exporter could snapshot StatisticsRecorder on a schedule instead of
// on demand; today SnapshotStats() is pull-based so this is a no-op.
func (s *MaintenanceScheduler[K, V]) publishStats(_ time.Time) {}

// ShouldSignal reports whether current occupancy crosses the §4.6
// threshold, used by the facade's write path to wake the scheduler
// immediately instead of waiting for the next tick.
func (s *MaintenanceScheduler[K, V]) ShouldSignal() bool {
	if s.deps.Buffer.Len() > thresholdBufferBacklog {
		return true
	}
	if s.deps.MaximumSize > 0 && float64(s.deps.Store.Size()) > float64(s.deps.MaximumSize)*thresholdOvershootRatio {
		return true
	}
	return false
}
