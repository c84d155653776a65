// entrychange.go: EntryChange stream for distributed-overlay interop (§6, §12)
//
// The core engine has no network awareness (§1 excludes cluster
// transport), but a distributed overlay built on top of it needs a
// way to both observe local mutations and apply remote ones without
// re-deriving weights/deadlines locally. EntryChange exposes mutations
// as a subscribable channel, and ApplyExternalChange is its write-side
// counterpart.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package jcachex

import "sync"

// EntryChange describes a single mutation for replication to an
// external overlay. Kind is one of EventPut, EventRemove, EventEvict,
// EventExpire, or EventClear; Value is meaningful only for Put/Evict.
type EntryChange[K comparable, V any] struct {
	Kind  EventKind
	Key   K
	Value V
}

const changeChannelBuffer = 256

// changeBroadcaster fans EntryChange records out to every subscriber,
// dropping for any subscriber whose channel is full rather than
// blocking the operation that produced the change (same drop-on-full
// philosophy as the AccessBuffer, §4.3).
type changeBroadcaster[K comparable, V any] struct {
	mu   sync.RWMutex
	subs map[int]chan EntryChange[K, V]
	next int
}

func newChangeBroadcaster[K comparable, V any]() *changeBroadcaster[K, V] {
	return &changeBroadcaster[K, V]{subs: make(map[int]chan EntryChange[K, V])}
}

func (b *changeBroadcaster[K, V]) publish(ch EntryChange[K, V]) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		select {
		case sub <- ch:
		default:
		}
	}
}

func (b *changeBroadcaster[K, V]) subscribe() (int, <-chan EntryChange[K, V]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	ch := make(chan EntryChange[K, V], changeChannelBuffer)
	b.subs[id] = ch
	return id, ch
}

func (b *changeBroadcaster[K, V]) unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		close(ch)
		delete(b.subs, id)
	}
}

// Subscribe returns a channel of every local mutation from this point
// forward, and a token for Unsubscribe. The channel is unbuffered
// beyond changeChannelBuffer; a slow consumer misses changes rather
// than slowing down cache operations.
func (c *Cache[K, V]) Subscribe() (int, <-chan EntryChange[K, V]) {
	return c.changes.subscribe()
}

// Unsubscribe stops and closes the channel returned by Subscribe.
func (c *Cache[K, V]) Unsubscribe(token int) {
	c.changes.unsubscribe(token)
}

// ApplyExternalChange applies a mutation originating from an external
// overlay (e.g. a peer in a distributed deployment) without
// re-publishing it back out to Subscribe's channel, avoiding an echo
// loop. Weight and deadlines are recomputed locally from Config exactly
// as Put would, since the wire format only carries key/value.
func (c *Cache[K, V]) ApplyExternalChange(change EntryChange[K, V]) error {
	if err := c.validateKey(change.Key); err != nil {
		return err
	}
	switch change.Kind {
	case EventPut:
		now := c.cfg.TimeProvider.Now()
		weight := c.cfg.Weigher(change.Key, change.Value)
		expireAt, refreshAt := c.expiration.DeadlinesForWrite(now)
		c.store.insertOrReplace(change.Key, change.Value, weight, expireAt, refreshAt, now)
		h := c.store.hash(change.Key)
		c.sketch.increment(h)
		c.buffer.Record(change.Key, h, AccessWrite, c.sketch.estimate(h))
		c.events.Dispatch(Event[K, V]{Kind: EventPut, Key: change.Key, Value: change.Value})
	case EventRemove, EventEvict, EventExpire:
		if prior, removed := c.store.removeIfPresent(change.Key); removed {
			c.events.Dispatch(Event[K, V]{Kind: change.Kind, Key: change.Key, Value: *prior})
		}
	case EventClear:
		c.store.clearAll()
		c.sketch.clear()
		c.policy.Clear()
		c.events.Dispatch(Event[K, V]{Kind: EventClear})
	}
	return nil
}
