// policy_idle.go: idle-time eviction (§4.4)
//
// Victim selection is driven by recency alone, same as LRU, but backed
// by a heap rather than a list so the maintenance scheduler can also
// ask "how long has this key sat idle" in O(1) without walking a list
// (a future idle-threshold sweep can peek heap[0] instead of draining
// the whole policy).
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package jcachex

import (
	"container/heap"
	"sync"
)

type idleNode[K comparable] struct {
	key   K
	hash  uint64
	tick  int64
	index int
}

type idleHeap[K comparable] []*idleNode[K]

func (h idleHeap[K]) Len() int            { return len(h) }
func (h idleHeap[K]) Less(i, j int) bool  { return h[i].tick < h[j].tick }
func (h idleHeap[K]) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *idleHeap[K]) Push(x any) {
	n := x.(*idleNode[K])
	n.index = len(*h)
	*h = append(*h, n)
}
func (h *idleHeap[K]) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

type idleTimePolicy[K comparable] struct {
	mu    sync.Mutex
	heap  idleHeap[K]
	index map[K]*idleNode[K]
	tick  int64
}

func newIdleTimePolicy[K comparable]() *idleTimePolicy[K] {
	return &idleTimePolicy[K]{index: make(map[K]*idleNode[K])}
}

func (p *idleTimePolicy[K]) touch(key K, hash uint64) {
	p.tick++
	if n, ok := p.index[key]; ok {
		n.tick = p.tick
		heap.Fix(&p.heap, n.index)
		return
	}
	n := &idleNode[K]{key: key, hash: hash, tick: p.tick}
	heap.Push(&p.heap, n)
	p.index[key] = n
}

func (p *idleTimePolicy[K]) OnAccess(key K, hash uint64, _ uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.index[key]; ok {
		p.touch(key, hash)
	}
}

func (p *idleTimePolicy[K]) OnWrite(key K, hash uint64, _ int64, _ uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.touch(key, hash)
}

func (p *idleTimePolicy[K]) OnRemove(key K, _ uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n, ok := p.index[key]; ok {
		heap.Remove(&p.heap, n.index)
		delete(p.index, key)
	}
}

func (p *idleTimePolicy[K]) SelectVictim() (K, uint64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.heap) == 0 {
		var zero K
		return zero, 0, false
	}
	n := p.heap[0]
	return n.key, n.hash, true
}

func (p *idleTimePolicy[K]) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.heap)
}

func (p *idleTimePolicy[K]) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.heap = nil
	p.index = make(map[K]*idleNode[K])
}
