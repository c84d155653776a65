// policy_fifo.go: FIFO and FILO (LIFO) queue eviction (§4.4)
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package jcachex

import (
	"container/list"
	"sync"
)

// queuePolicy is a plain insertion-ordered queue: OnAccess is a no-op
// (neither FIFO nor FILO reacts to reads). filo selects the most
// recently inserted key as the victim instead of the oldest.
type queuePolicy[K comparable] struct {
	mu    sync.Mutex
	order *list.List
	index map[K]*list.Element
	filo  bool
}

func newQueuePolicy[K comparable](filo bool) *queuePolicy[K] {
	return &queuePolicy[K]{
		order: list.New(),
		index: make(map[K]*list.Element),
		filo:  filo,
	}
}

func (p *queuePolicy[K]) OnAccess(key K, hash uint64, _ uint64) {}

func (p *queuePolicy[K]) OnWrite(key K, hash uint64, _ int64, _ uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.index[key]; ok {
		return
	}
	el := p.order.PushBack(keyHash[K]{key: key, hash: hash})
	p.index[key] = el
}

func (p *queuePolicy[K]) OnRemove(key K, _ uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if el, ok := p.index[key]; ok {
		p.order.Remove(el)
		delete(p.index, key)
	}
}

func (p *queuePolicy[K]) SelectVictim() (K, uint64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var el *list.Element
	if p.filo {
		el = p.order.Back()
	} else {
		el = p.order.Front()
	}
	if el == nil {
		var zero K
		return zero, 0, false
	}
	kh := el.Value.(keyHash[K])
	return kh.key, kh.hash, true
}

func (p *queuePolicy[K]) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.order.Len()
}

func (p *queuePolicy[K]) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.order.Init()
	p.index = make(map[K]*list.Element)
}
