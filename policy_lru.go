// policy_lru.go: doubly-linked-list LRU eviction (§4.4)
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package jcachex

import (
	"container/list"
	"sync"
)

// lruPolicy moves a key to the head on access and evicts from the
// tail. Safe for concurrent calls: the scheduler goroutine and a Put's
// synchronous eviction (EvictOneSync) can both reach it.
type lruPolicy[K comparable] struct {
	mu    sync.Mutex
	order *list.List // elements hold keyHash[K]
	index map[K]*list.Element
}

func newLRUPolicy[K comparable]() *lruPolicy[K] {
	return &lruPolicy[K]{
		order: list.New(),
		index: make(map[K]*list.Element),
	}
}

func (p *lruPolicy[K]) OnAccess(key K, hash uint64, _ uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if el, ok := p.index[key]; ok {
		p.order.MoveToFront(el)
	}
}

func (p *lruPolicy[K]) OnWrite(key K, hash uint64, _ int64, _ uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if el, ok := p.index[key]; ok {
		p.order.MoveToFront(el)
		return
	}
	el := p.order.PushFront(keyHash[K]{key: key, hash: hash})
	p.index[key] = el
}

func (p *lruPolicy[K]) OnRemove(key K, _ uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if el, ok := p.index[key]; ok {
		p.order.Remove(el)
		delete(p.index, key)
	}
}

func (p *lruPolicy[K]) SelectVictim() (K, uint64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	back := p.order.Back()
	if back == nil {
		var zero K
		return zero, 0, false
	}
	kh := back.Value.(keyHash[K])
	return kh.key, kh.hash, true
}

func (p *lruPolicy[K]) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.order.Len()
}

func (p *lruPolicy[K]) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.order.Init()
	p.index = make(map[K]*list.Element)
}
