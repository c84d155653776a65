// policy_weight.go: weight-aware eviction (§4.4)
//
// Weight eviction wraps an inner recency policy (LRU by default) for
// victim *ordering* and separately tracks per-key weight (WeightOf).
// The maintenance scheduler's eviction loop works the same for every
// policy: it keeps evicting victims while the store's size or weight
// total is over its bound, reading the totals from the store.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package jcachex

import "sync"

type weightPolicy[K comparable] struct {
	inner  Policy[K]
	mu     sync.Mutex
	weight map[K]int64
}

func newWeightPolicy[K comparable](inner Policy[K]) *weightPolicy[K] {
	return &weightPolicy[K]{
		inner:  inner,
		weight: make(map[K]int64),
	}
}

func (p *weightPolicy[K]) OnAccess(key K, hash uint64, frequency uint64) {
	p.inner.OnAccess(key, hash, frequency)
}

func (p *weightPolicy[K]) OnWrite(key K, hash uint64, weight int64, frequency uint64) {
	p.mu.Lock()
	p.weight[key] = weight
	p.mu.Unlock()
	p.inner.OnWrite(key, hash, weight, frequency)
}

func (p *weightPolicy[K]) OnRemove(key K, hash uint64) {
	p.mu.Lock()
	delete(p.weight, key)
	p.mu.Unlock()
	p.inner.OnRemove(key, hash)
}

func (p *weightPolicy[K]) SelectVictim() (K, uint64, bool) {
	return p.inner.SelectVictim()
}

func (p *weightPolicy[K]) Len() int {
	return p.inner.Len()
}

func (p *weightPolicy[K]) Clear() {
	p.mu.Lock()
	p.weight = make(map[K]int64)
	p.mu.Unlock()
	p.inner.Clear()
}

// WeightOf returns the last weight recorded for key. The scheduler does
// not call it; it reads total weight from the store instead.
func (p *weightPolicy[K]) WeightOf(key K) (int64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	w, ok := p.weight[key]
	return w, ok
}
