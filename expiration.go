// expiration.go: ExpirationManager — TTL and refresh scheduling (§4.5)
//
// expireAfterWrite and refreshAfterWrite deadlines are computed once at
// write time and stored on the entry itself (entry.expireAt,
// entry.refreshAt), so the hot read path only compares them against
// "now" — no manager state to consult. expireAfterAccess is the one
// mode that must slide on every read; sliding it inline would mean a
// write on every Get, so instead Get enqueues an access hint and the
// deadline is advanced later when the maintenance scheduler drains the
// AccessBuffer (§9 open question: batched, not inline). The deadline
// can therefore lag the true last-access time by up to one drain
// interval — documented, not a bug.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package jcachex

import "sync/atomic"

// RefreshFunc is invoked on the reader's goroutine when a read observes
// that an entry's refreshAfterWrite deadline has passed; the Cache's
// implementation submits the reload to the shared worker pool, so the
// loader itself never runs on the reader's goroutine.
type RefreshFunc[K comparable] func(key K)

// ExpirationManager computes deadlines at write time and reaps expired
// entries found either eagerly (on Get, via EntryStore.getOrNull) or
// by the periodic sweep. The three durations are atomics rather than
// plain fields so a hot-reloaded Config can retune them without a
// lock shared with the read path (§10 hot reload).
type ExpirationManager[K comparable, V any] struct {
	expireAfterWriteNanos  atomic.Int64
	expireAfterAccessNanos atomic.Int64
	refreshAfterWriteNanos atomic.Int64

	store   *EntryStore[K, V]
	buffer  *AccessBuffer[K]
	clock   TimeProvider
	events  *EventDispatcher[K, V]
	stats   *StatisticsRecorder
	refresh RefreshFunc[K]

	sweepFraction int // default 64: sweep walks 1/sweepFraction of stripes per tick
	sweepCursor   int
}

type expirationConfig[K comparable, V any] struct {
	ExpireAfterWriteNanos  int64
	ExpireAfterAccessNanos int64
	RefreshAfterWriteNanos int64
	SweepFraction          int
	Store                  *EntryStore[K, V]
	Buffer                 *AccessBuffer[K]
	Clock                  TimeProvider
	Events                 *EventDispatcher[K, V]
	Stats                  *StatisticsRecorder
	Refresh                RefreshFunc[K]
}

func newExpirationManager[K comparable, V any](cfg expirationConfig[K, V]) *ExpirationManager[K, V] {
	fraction := cfg.SweepFraction
	if fraction <= 0 {
		fraction = DefaultSweepFraction
	}
	m := &ExpirationManager[K, V]{
		store:         cfg.Store,
		buffer:        cfg.Buffer,
		clock:         cfg.Clock,
		events:        cfg.Events,
		stats:         cfg.Stats,
		refresh:       cfg.Refresh,
		sweepFraction: fraction,
	}
	m.expireAfterWriteNanos.Store(cfg.ExpireAfterWriteNanos)
	m.expireAfterAccessNanos.Store(cfg.ExpireAfterAccessNanos)
	m.refreshAfterWriteNanos.Store(cfg.RefreshAfterWriteNanos)
	return m
}

// SetDurations retunes the three expiration/refresh durations at
// runtime (wired from the hot-reloadable Config subset). Entries
// already written keep their previously-computed absolute deadlines;
// only subsequent writes observe the new durations.
func (m *ExpirationManager[K, V]) SetDurations(expireAfterWriteNanos, expireAfterAccessNanos, refreshAfterWriteNanos int64) {
	m.expireAfterWriteNanos.Store(expireAfterWriteNanos)
	m.expireAfterAccessNanos.Store(expireAfterAccessNanos)
	m.refreshAfterWriteNanos.Store(refreshAfterWriteNanos)
}

func (m *ExpirationManager[K, V]) enabled() bool {
	return m.expireAfterWriteNanos.Load() > 0 || m.expireAfterAccessNanos.Load() > 0
}

// DeadlinesForWrite computes the expireAt/refreshAt absolute deadlines
// a fresh write should carry, from the write-time and access-time
// durations currently configured.
func (m *ExpirationManager[K, V]) DeadlinesForWrite(now int64) (expireAt, refreshAt int64) {
	writeNanos := m.expireAfterWriteNanos.Load()
	accessNanos := m.expireAfterAccessNanos.Load()
	refreshNanos := m.refreshAfterWriteNanos.Load()

	if writeNanos > 0 {
		expireAt = now + writeNanos
	}
	if accessNanos > 0 {
		accessDeadline := now + accessNanos
		if expireAt == 0 || accessDeadline < expireAt {
			expireAt = accessDeadline
		}
	}
	if refreshNanos > 0 {
		refreshAt = now + refreshNanos
	}
	return expireAt, refreshAt
}

// ApplyAccessSlide advances an entry's expiration deadline in response
// to a drained access-buffer record, implementing expireAfterAccess
// without touching the entry on the caller's read path. No-op unless
// expireAfterAccess is configured.
func (m *ExpirationManager[K, V]) ApplyAccessSlide(key K, now int64) {
	accessNanos := m.expireAfterAccessNanos.Load()
	if accessNanos <= 0 {
		return
	}
	e, _, ok := m.store.entryFor(key)
	if !ok || e.State() != stateLive {
		return
	}
	newDeadline := now + accessNanos
	e.store(e.load(), e.Weight(), newDeadline, e.RefreshAt())
}

// CheckRefresh reports whether key's refresh-after-write deadline has
// passed, and if so schedules the async reload exactly once (callers
// must only invoke this for entries they hold a live read on, e.g.
// right after a Get hit).
func (m *ExpirationManager[K, V]) CheckRefresh(key K, e *entry[V], now int64) {
	if m.refresh == nil || !e.refreshDueAt(now) {
		return
	}
	// Clear refreshAt first so concurrent readers don't all schedule a
	// duplicate refresh for the same entry.
	e.store(e.load(), e.Weight(), e.ExpireAt(), 0)
	m.refresh(key)
}

// SweepOnce walks a fraction of the store's stripes looking for
// entries whose deadline has passed but that no read has observed yet
// (§4.5 periodic scan). Returns the number reaped.
func (m *ExpirationManager[K, V]) SweepOnce(now int64) int {
	if !m.enabled() {
		return 0
	}
	stripeCount := len(m.store.stripes)
	if stripeCount == 0 {
		return 0
	}
	span := stripeCount / m.sweepFraction
	if span < 1 {
		span = 1
	}
	reaped := 0
	for i := 0; i < span; i++ {
		idx := (m.sweepCursor + i) % stripeCount
		reaped += m.sweepStripe(idx, now)
	}
	m.sweepCursor = (m.sweepCursor + span) % stripeCount
	return reaped
}

func (m *ExpirationManager[K, V]) sweepStripe(idx int, now int64) int {
	st := &m.store.stripes[idx]
	st.mu.RLock()
	type kv struct {
		k K
		e *entry[V]
	}
	candidates := make([]kv, 0)
	for k, e := range st.m {
		if e.State() == stateLive && e.expiredAt(now) {
			candidates = append(candidates, kv{k, e})
		}
	}
	st.mu.RUnlock()

	reaped := 0
	for _, c := range candidates {
		h := m.store.hash(c.k)
		if old, removed := m.store.removeIfSame(c.k, h, c.e); removed {
			reaped++
			if m.stats != nil {
				m.stats.RecordExpiration()
			}
			if m.events != nil {
				m.events.Dispatch(Event[K, V]{Kind: EventExpire, Key: c.k, Value: *old})
			}
		}
	}
	return reaped
}
