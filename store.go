// store.go: EntryStore — striped concurrent map from key to entry (§4.1)
//
// Reads take a stripe's RLock only to locate the entry pointer, then
// read every hot field (value, access count, last-access, deadlines)
// through atomics with no further locking — lock-free past the lookup.
// A striped hash map (rather than open addressing) gives the full
// entry lifecycle (LIVE/LOADING/EXPIRED/TOMBSTONE) and pluggable
// weights somewhere principled to live. Writes always go through their
// stripe's lock (§4.1).
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package jcachex

import (
	"hash/maphash"
	"runtime"
	"sync"
	"sync/atomic"
)

// loadResult is what a loader produces for computeIfAbsent: the value
// plus the metadata (weight, expiration, refresh deadline) the caller
// has already computed from Config.
type loadResult[V any] struct {
	Value     V
	Weight    int64
	ExpireAt  int64
	RefreshAt int64
}

type stripe[K comparable, V any] struct {
	mu sync.RWMutex
	m  map[K]*entry[V]
	// padding avoids false sharing between adjacent stripes' mutexes
	// under heavy write contention.
	_ [24]byte
}

// EntryStore is the concurrent K -> entry mapping of §4.1.
type EntryStore[K comparable, V any] struct {
	stripes   []stripe[K, V]
	mask      uint64
	seed      maphash.Seed
	size      atomic.Int64
	weight    atomic.Int64
	validator func(K) error
}

func stripeCountFor(requested int) int {
	if requested <= 0 {
		requested = runtime.GOMAXPROCS(0)
	}
	n := nextPowerOf2(requested)
	if n < 1 {
		n = 1
	}
	if n > 64 {
		n = 64
	}
	return n
}

func newEntryStore[K comparable, V any](stripeCount int, validator func(K) error) *EntryStore[K, V] {
	n := stripeCountFor(stripeCount)
	s := &EntryStore[K, V]{
		stripes:   make([]stripe[K, V], n),
		mask:      uint64(n - 1),
		seed:      maphash.MakeSeed(),
		validator: validator,
	}
	for i := range s.stripes {
		s.stripes[i].m = make(map[K]*entry[V])
	}
	return s
}

// hash returns a stable 64-bit hash of the key, reused both for stripe
// selection and as the sketch/policy key-hash (§4.2, §4.4 tie-break).
func (s *EntryStore[K, V]) hash(key K) uint64 {
	return maphash.Comparable(s.seed, key)
}

func (s *EntryStore[K, V]) stripeFor(h uint64) *stripe[K, V] {
	return &s.stripes[h&s.mask]
}

func (s *EntryStore[K, V]) validate(key K) error {
	if s.validator != nil {
		return s.validator(key)
	}
	return nil
}

// getOrNull returns the live, unexpired entry for key, or nil.
// Lazily reaps an expired entry it encounters (eager check, §4.5).
func (s *EntryStore[K, V]) getOrNull(key K, now int64) *entry[V] {
	h := s.hash(key)
	st := s.stripeFor(h)

	st.mu.RLock()
	e, ok := st.m[key]
	st.mu.RUnlock()
	if !ok {
		return nil
	}
	if e.State() != stateLive {
		return nil
	}
	if e.expiredAt(now) {
		s.removeExpiredAt(key, h, now)
		return nil
	}
	return e
}

// insertOrReplace stores value under key, returning the prior live
// entry's value and true when one was replaced (nil, false otherwise).
// The store's size and weight totals are adjusted in place.
func (s *EntryStore[K, V]) insertOrReplace(key K, value V, weight, expireAt, refreshAt, now int64) (prior *V, replaced bool) {
	h := s.hash(key)
	st := s.stripeFor(h)

	st.mu.Lock()
	defer st.mu.Unlock()

	if e, ok := st.m[key]; ok && e.State() == stateLive {
		old := e.load()
		oldWeight := e.Weight()
		e.store(value, weight, expireAt, refreshAt)
		s.weight.Add(weight - oldWeight)
		return &old, true
	}

	e := newEntry(value, weight, now, expireAt, refreshAt)
	st.m[key] = e
	s.size.Add(1)
	s.weight.Add(weight)
	return nil, false
}

// removeIfPresent removes key unconditionally, returning its prior
// value if it was live.
func (s *EntryStore[K, V]) removeIfPresent(key K) (prior *V, removed bool) {
	h := s.hash(key)
	st := s.stripeFor(h)

	st.mu.Lock()
	defer st.mu.Unlock()

	e, ok := st.m[key]
	if !ok {
		return nil, false
	}
	delete(st.m, key)
	if e.State() == stateLive {
		old := e.load()
		s.size.Add(-1)
		s.weight.Add(-e.Weight())
		return &old, true
	}
	return nil, false
}

// removeExpiredAt removes key if it is still live and its deadline has
// passed as of now; used by getOrNull's eager check on read.
func (s *EntryStore[K, V]) removeExpiredAt(key K, h uint64, now int64) (prior *V, removed bool) {
	st := s.stripeFor(h)

	st.mu.Lock()
	defer st.mu.Unlock()

	e, ok := st.m[key]
	if !ok || e.State() != stateLive || !e.expiredAt(now) {
		return nil, false
	}
	delete(st.m, key)
	old := e.load()
	s.size.Add(-1)
	s.weight.Add(-e.Weight())
	return &old, true
}

// removeIfSame removes key only if its current entry is the same
// pointer as expect; used by eviction so a racing update can't have its
// fresh value thrown away by a stale victim decision.
func (s *EntryStore[K, V]) removeIfSame(key K, h uint64, expect *entry[V]) (prior *V, removed bool) {
	st := s.stripeFor(h)

	st.mu.Lock()
	defer st.mu.Unlock()

	e, ok := st.m[key]
	if !ok || e != expect {
		return nil, false
	}
	delete(st.m, key)
	if e.State() == stateLive {
		old := e.load()
		s.size.Add(-1)
		s.weight.Add(-e.Weight())
		return &old, true
	}
	return nil, false
}

// contains reports whether key maps to a live, unexpired entry.
func (s *EntryStore[K, V]) contains(key K, now int64) bool {
	return s.getOrNull(key, now) != nil
}

// entryFor returns the raw entry pointer (live or loading) for
// internal collaborators (expiration manager, scheduler, policy) that
// need more than the value.
func (s *EntryStore[K, V]) entryFor(key K) (*entry[V], uint64, bool) {
	h := s.hash(key)
	st := s.stripeFor(h)
	st.mu.RLock()
	e, ok := st.m[key]
	st.mu.RUnlock()
	return e, h, ok
}

// beginLoad installs a LOADING placeholder for key if and only if no
// entry currently exists for it, returning the placeholder and true.
// If an entry already exists (LIVE or LOADING), it is returned instead
// along with false, so the caller can either use the live value or
// wait on the existing placeholder's loadingDone channel.
func (s *EntryStore[K, V]) beginLoad(key K) (e *entry[V], h uint64, isNewLoad bool) {
	h = s.hash(key)
	st := s.stripeFor(h)

	st.mu.Lock()
	defer st.mu.Unlock()

	if existing, ok := st.m[key]; ok {
		return existing, h, false
	}
	placeholder := &entry[V]{loadingDone: make(chan struct{})}
	placeholder.state.Store(int32(stateLoading))
	st.m[key] = placeholder
	return placeholder, h, true
}

// completeLoad resolves a LOADING placeholder with a successful result,
// transitioning it to LIVE and waking every waiter.
func (s *EntryStore[K, V]) completeLoad(key K, h uint64, placeholder *entry[V], result loadResult[V], now int64) {
	st := s.stripeFor(h)

	st.mu.Lock()
	if cur, ok := st.m[key]; ok && cur == placeholder {
		placeholder.createdAt = now
		placeholder.lastAccess = now
		placeholder.store(result.Value, result.Weight, result.ExpireAt, result.RefreshAt)
		placeholder.state.Store(int32(stateLive))
		s.size.Add(1)
		s.weight.Add(result.Weight)
	}
	st.mu.Unlock()
	close(placeholder.loadingDone)
}

// abortLoad removes a failed LOADING placeholder and wakes every
// waiter with nothing to read; they must treat this as "load failed".
func (s *EntryStore[K, V]) abortLoad(key K, h uint64, placeholder *entry[V]) {
	st := s.stripeFor(h)

	st.mu.Lock()
	if cur, ok := st.m[key]; ok && cur == placeholder {
		delete(st.m, key)
	}
	st.mu.Unlock()
	close(placeholder.loadingDone)
}

// iterateEntries calls fn for every live, unexpired entry observed at
// call time (§8: "its deadline, if any, is strictly greater than the
// iteration's start time"). Iteration takes a snapshot per stripe, so
// it never blocks writers for the whole store at once.
func (s *EntryStore[K, V]) iterateEntries(now int64, fn func(key K, value V)) {
	for i := range s.stripes {
		st := &s.stripes[i]
		st.mu.RLock()
		type kv struct {
			k K
			e *entry[V]
		}
		snapshot := make([]kv, 0, len(st.m))
		for k, e := range st.m {
			snapshot = append(snapshot, kv{k, e})
		}
		st.mu.RUnlock()

		for _, item := range snapshot {
			if item.e.State() == stateLive && !item.e.expiredAt(now) {
				fn(item.k, item.e.load())
			}
		}
	}
}

// sample collects up to n live entries, walking stripes in order from
// startStripe and wrapping around. Returns keys, their hashes and
// entries. Nothing in the package calls it.
func (s *EntryStore[K, V]) sample(startStripe int, n int) []sampledEntry[K, V] {
	out := make([]sampledEntry[K, V], 0, n)
	stripeCount := len(s.stripes)
	for i := 0; i < stripeCount && len(out) < n; i++ {
		idx := (startStripe + i) % stripeCount
		st := &s.stripes[idx]
		st.mu.RLock()
		for k, e := range st.m {
			if e.State() == stateLive {
				out = append(out, sampledEntry[K, V]{Key: k, Hash: s.hash(k), Entry: e})
			}
			if len(out) >= n {
				break
			}
		}
		st.mu.RUnlock()
	}
	return out
}

type sampledEntry[K comparable, V any] struct {
	Key   K
	Hash  uint64
	Entry *entry[V]
}

// clearAll empties every stripe and resets size/weight to zero.
func (s *EntryStore[K, V]) clearAll() {
	for i := range s.stripes {
		st := &s.stripes[i]
		st.mu.Lock()
		st.m = make(map[K]*entry[V])
		st.mu.Unlock()
	}
	s.size.Store(0)
	s.weight.Store(0)
}

func (s *EntryStore[K, V]) Size() int64   { return s.size.Load() }
func (s *EntryStore[K, V]) Weight() int64 { return s.weight.Load() }
