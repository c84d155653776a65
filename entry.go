// entry.go: the unit of storage and its lifecycle state machine (§3, §4.5)
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package jcachex

import "sync/atomic"

// entryState tags the lifecycle stage of an entry (§4.5 state machine).
type entryState int32

const (
	stateLive entryState = iota
	stateLoading
	stateExpired
	stateTombstone
)

// entry is the unit of storage. All 64-bit atomic fields are grouped
// first for alignment on 32-bit architectures.
type entry[V any] struct {
	createdAt   int64 // ns since epoch, immutable after construction
	lastAccess  int64 // ns since epoch, atomic; updated inline on read via touch
	accessCount int64 // atomic
	expireAt    int64 // ns since epoch, 0 = no deadline; absolute write/access deadline
	refreshAt   int64 // ns since epoch, 0 = no refresh scheduled
	weight      int64 // atomic; non-negative

	state atomic.Int32 // entryState

	value atomic.Pointer[V] // owning stripe's writer replaces this; readers load freely

	// loadingDone is non-nil only while state == stateLoading. It is
	// closed by the goroutine that resolves the load, broadcasting to
	// every reader waiting on this specific key without spawning a
	// goroutine per waiter.
	loadingDone chan struct{}
}

func newEntry[V any](value V, weight int64, now, expireAt, refreshAt int64) *entry[V] {
	e := &entry[V]{
		createdAt:  now,
		lastAccess: now,
		weight:     weight,
		expireAt:   expireAt,
		refreshAt:  refreshAt,
	}
	e.state.Store(int32(stateLive))
	e.value.Store(&value)
	return e
}

func (e *entry[V]) load() V {
	return *e.value.Load()
}

func (e *entry[V]) store(value V, weight, expireAt, refreshAt int64) {
	atomic.StoreInt64(&e.weight, weight)
	atomic.StoreInt64(&e.expireAt, expireAt)
	atomic.StoreInt64(&e.refreshAt, refreshAt)
	e.value.Store(&value)
}

func (e *entry[V]) touch(now int64) {
	atomic.StoreInt64(&e.lastAccess, now)
	atomic.AddInt64(&e.accessCount, 1)
}

func (e *entry[V]) Weight() int64      { return atomic.LoadInt64(&e.weight) }
func (e *entry[V]) ExpireAt() int64    { return atomic.LoadInt64(&e.expireAt) }
func (e *entry[V]) RefreshAt() int64   { return atomic.LoadInt64(&e.refreshAt) }
func (e *entry[V]) LastAccess() int64  { return atomic.LoadInt64(&e.lastAccess) }
func (e *entry[V]) AccessCount() int64 { return atomic.LoadInt64(&e.accessCount) }
func (e *entry[V]) State() entryState  { return entryState(e.state.Load()) }

// expiredAt reports whether the entry's write/access deadline has
// passed at instant now. A zero deadline means "never expires".
func (e *entry[V]) expiredAt(now int64) bool {
	deadline := e.ExpireAt()
	return deadline > 0 && now > deadline
}

// refreshDueAt reports whether the entry's refresh-after-write deadline
// has passed at instant now.
func (e *entry[V]) refreshDueAt(now int64) bool {
	deadline := e.RefreshAt()
	return deadline > 0 && now > deadline
}
