// policy_composite.go: chained eviction policies (§4.4)
//
// A composite forwards every hint to all of its sub-policies and
// selects a victim by trying them in order, falling through to the
// next sub-policy only when the current one has nothing to evict.
// This lets, e.g., a W-TinyLFU main policy sit in front of an
// idle-time fallback so a cache that drains empty under one scheme
// still has something to fall back on.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package jcachex

type compositePolicy[K comparable] struct {
	chain []Policy[K]
}

func newCompositePolicy[K comparable](chain ...Policy[K]) *compositePolicy[K] {
	return &compositePolicy[K]{chain: chain}
}

func (p *compositePolicy[K]) OnAccess(key K, hash uint64, frequency uint64) {
	for _, sub := range p.chain {
		sub.OnAccess(key, hash, frequency)
	}
}

func (p *compositePolicy[K]) OnWrite(key K, hash uint64, weight int64, frequency uint64) {
	for _, sub := range p.chain {
		sub.OnWrite(key, hash, weight, frequency)
	}
}

func (p *compositePolicy[K]) OnRemove(key K, hash uint64) {
	for _, sub := range p.chain {
		sub.OnRemove(key, hash)
	}
}

func (p *compositePolicy[K]) SelectVictim() (K, uint64, bool) {
	for _, sub := range p.chain {
		if key, hash, ok := sub.SelectVictim(); ok {
			return key, hash, ok
		}
	}
	var zero K
	return zero, 0, false
}

func (p *compositePolicy[K]) Len() int {
	max := 0
	for _, sub := range p.chain {
		if n := sub.Len(); n > max {
			max = n
		}
	}
	return max
}

func (p *compositePolicy[K]) Clear() {
	for _, sub := range p.chain {
		sub.Clear()
	}
}
