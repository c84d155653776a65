// policy_lfu.go: min-heap LFU eviction (§4.4)
//
// The policy tracks its own access count and a monotonic sequence
// number per key (it never reads entry.AccessCount/LastAccess — those
// belong to the store) so eviction stays a pure function of the hints
// OnAccess/OnWrite have already delivered.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package jcachex

import (
	"container/heap"
	"sync"
)

type lfuNode[K comparable] struct {
	key        K
	hash       uint64
	count      int64
	lastAccess int64 // monotonic sequence, not wall time
	index      int
}

type lfuHeap[K comparable] []*lfuNode[K]

func (h lfuHeap[K]) Len() int { return len(h) }
func (h lfuHeap[K]) Less(i, j int) bool {
	if h[i].count != h[j].count {
		return h[i].count < h[j].count
	}
	return h[i].lastAccess < h[j].lastAccess
}
func (h lfuHeap[K]) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *lfuHeap[K]) Push(x any) {
	n := x.(*lfuNode[K])
	n.index = len(*h)
	*h = append(*h, n)
}
func (h *lfuHeap[K]) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

type lfuPolicy[K comparable] struct {
	mu    sync.Mutex
	heap  lfuHeap[K]
	index map[K]*lfuNode[K]
	seq   int64
}

func newLFUPolicy[K comparable]() *lfuPolicy[K] {
	return &lfuPolicy[K]{
		index: make(map[K]*lfuNode[K]),
	}
}

func (p *lfuPolicy[K]) OnAccess(key K, hash uint64, _ uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seq++
	if n, ok := p.index[key]; ok {
		n.count++
		n.lastAccess = p.seq
		heap.Fix(&p.heap, n.index)
	}
}

func (p *lfuPolicy[K]) OnWrite(key K, hash uint64, _ int64, _ uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seq++
	if n, ok := p.index[key]; ok {
		n.lastAccess = p.seq
		heap.Fix(&p.heap, n.index)
		return
	}
	n := &lfuNode[K]{key: key, hash: hash, count: 1, lastAccess: p.seq}
	heap.Push(&p.heap, n)
	p.index[key] = n
}

func (p *lfuPolicy[K]) OnRemove(key K, _ uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n, ok := p.index[key]; ok {
		heap.Remove(&p.heap, n.index)
		delete(p.index, key)
	}
}

func (p *lfuPolicy[K]) SelectVictim() (K, uint64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.heap) == 0 {
		var zero K
		return zero, 0, false
	}
	n := p.heap[0]
	return n.key, n.hash, true
}

func (p *lfuPolicy[K]) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.heap)
}

func (p *lfuPolicy[K]) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.heap = nil
	p.index = make(map[K]*lfuNode[K])
}
