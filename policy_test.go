// policy_test.go: unit tests for the pluggable eviction policies
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package jcachex

import "testing"

func TestLRUPolicy_EvictsLeastRecentlyUsed(t *testing.T) {
	p := newLRUPolicy[string]()
	p.OnWrite("a", 1, 1, 0)
	p.OnWrite("b", 2, 1, 0)
	p.OnWrite("c", 3, 1, 0)
	p.OnAccess("a", 1, 0) // a becomes most-recently-used

	key, _, ok := p.SelectVictim()
	if !ok || key != "b" {
		t.Fatalf("SelectVictim() = %q, %v; want b, true", key, ok)
	}
}

func TestLRUPolicy_RemoveUpdatesLen(t *testing.T) {
	p := newLRUPolicy[string]()
	p.OnWrite("a", 1, 1, 0)
	p.OnWrite("b", 2, 1, 0)
	p.OnRemove("a", 1)
	if p.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", p.Len())
	}
	key, _, ok := p.SelectVictim()
	if !ok || key != "b" {
		t.Fatalf("SelectVictim() = %q, %v; want b, true", key, ok)
	}
}

func TestLRUPolicy_Clear(t *testing.T) {
	p := newLRUPolicy[string]()
	p.OnWrite("a", 1, 1, 0)
	p.Clear()
	if p.Len() != 0 {
		t.Fatalf("Len() after Clear = %d, want 0", p.Len())
	}
	if _, _, ok := p.SelectVictim(); ok {
		t.Fatal("SelectVictim after Clear should report false")
	}
}

func TestQueuePolicy_FIFO(t *testing.T) {
	p := newQueuePolicy[string](false)
	p.OnWrite("a", 1, 1, 0)
	p.OnWrite("b", 2, 1, 0)
	p.OnWrite("c", 3, 1, 0)
	p.OnAccess("a", 1, 0) // FIFO ignores access entirely

	key, _, ok := p.SelectVictim()
	if !ok || key != "a" {
		t.Fatalf("SelectVictim() = %q, %v; want a, true (insertion order)", key, ok)
	}
}

func TestQueuePolicy_FILO(t *testing.T) {
	p := newQueuePolicy[string](true)
	p.OnWrite("a", 1, 1, 0)
	p.OnWrite("b", 2, 1, 0)
	p.OnWrite("c", 3, 1, 0)

	key, _, ok := p.SelectVictim()
	if !ok || key != "c" {
		t.Fatalf("SelectVictim() = %q, %v; want c, true (last in, first out)", key, ok)
	}
}

func TestLFUPolicy_EvictsLeastFrequent(t *testing.T) {
	p := newLFUPolicy[string]()
	p.OnWrite("a", 1, 1, 0)
	p.OnWrite("b", 2, 1, 0)
	p.OnAccess("a", 1, 0)
	p.OnAccess("a", 1, 0)
	p.OnAccess("a", 1, 0)

	key, _, ok := p.SelectVictim()
	if !ok || key != "b" {
		t.Fatalf("SelectVictim() = %q, %v; want b, true (lower frequency)", key, ok)
	}
}

func TestLFUPolicy_TieBreakByRecency(t *testing.T) {
	p := newLFUPolicy[string]()
	p.OnWrite("a", 1, 1, 0)
	p.OnWrite("b", 2, 1, 0)
	// equal frequency (count=1 for both, set by OnWrite); older insertion (a) should be the victim
	key, _, ok := p.SelectVictim()
	if !ok || key != "a" {
		t.Fatalf("SelectVictim() = %q, %v; want a, true", key, ok)
	}
}

func TestWeightPolicy_DelegatesOrderingToInner(t *testing.T) {
	inner := newLRUPolicy[string]()
	p := newWeightPolicy[string](inner)

	p.OnWrite("a", 1, 7, 0)
	p.OnWrite("b", 2, 3, 0)

	if w, ok := p.WeightOf("a"); !ok || w != 7 {
		t.Fatalf("WeightOf(a) = %d, %v; want 7, true", w, ok)
	}

	key, _, ok := p.SelectVictim()
	if !ok || key != "a" {
		t.Fatalf("SelectVictim() = %q, %v; want a, true (LRU ordering preserved)", key, ok)
	}

	p.OnRemove("a", 1)
	if _, ok := p.WeightOf("a"); ok {
		t.Fatal("WeightOf(a) should report false after removal")
	}
}

func TestIdleTimePolicy_EvictsLongestIdle(t *testing.T) {
	p := newIdleTimePolicy[string]()
	p.OnWrite("a", 1, 1, 0)
	p.OnWrite("b", 2, 1, 0)
	p.OnAccess("a", 1, 0) // a is now the most recently touched

	key, _, ok := p.SelectVictim()
	if !ok || key != "b" {
		t.Fatalf("SelectVictim() = %q, %v; want b, true", key, ok)
	}
}

func TestIdleTimePolicy_RemoveAndClear(t *testing.T) {
	p := newIdleTimePolicy[string]()
	p.OnWrite("a", 1, 1, 0)
	p.OnRemove("a", 1)
	if p.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", p.Len())
	}
	p.OnWrite("b", 2, 1, 0)
	p.Clear()
	if p.Len() != 0 {
		t.Fatalf("Len() after Clear = %d, want 0", p.Len())
	}
}

func TestCompositePolicy_FallsThroughChain(t *testing.T) {
	primary := newLRUPolicy[string]()
	fallback := newIdleTimePolicy[string]()
	p := newCompositePolicy[string](primary, fallback)

	p.OnWrite("a", 1, 1, 0) // forwarded to both sub-policies
	if primary.Len() != 1 || fallback.Len() != 1 {
		t.Fatalf("OnWrite should forward to every sub-policy: primary=%d fallback=%d", primary.Len(), fallback.Len())
	}

	key, _, ok := p.SelectVictim()
	if !ok || key != "a" {
		t.Fatalf("SelectVictim() = %q, %v; want a, true (primary has a victim)", key, ok)
	}

	primary.OnRemove("a", 1)
	// primary is now empty; composite should fall through to fallback
	key, _, ok = p.SelectVictim()
	if !ok || key != "a" {
		t.Fatalf("composite SelectVictim() = %q, %v; want a, true (from fallback)", key, ok)
	}
}

func TestWTinyLFUPolicy_NewKeysEnterWindow(t *testing.T) {
	sketch := newFrequencySketch(100, SketchBasic)
	p := newWTinyLFUPolicy[string](100, 0.2, 0.2, sketch) // generous window for this assertion
	p.OnWrite("a", 1, 0, 0)
	if p.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", p.Len())
	}
	p.mu.Lock()
	pos, ok := p.index["a"]
	p.mu.Unlock()
	if !ok || pos.seg != segWindow {
		t.Fatalf("a should enter the window, got seg=%v ok=%v", pos.seg, ok)
	}
}

func TestWTinyLFUPolicy_PromotionOnAccess(t *testing.T) {
	sketch := newFrequencySketch(100, SketchBasic)
	p := newWTinyLFUPolicy[string](100, 0.2, 0.2, sketch)
	p.OnWrite("a", 1, 0, 0)

	// force "a" into the probationary segment directly for this unit test
	p.mu.Lock()
	p.removeFromIndex("a")
	el := p.probation.PushFront(keyHash[string]{key: "a", hash: 1})
	p.index["a"] = wtinylfuPos[string]{seg: segProbation, el: el}
	p.mu.Unlock()

	p.OnAccess("a", 1, 0)

	p.mu.Lock()
	pos, ok := p.index["a"]
	p.mu.Unlock()
	if !ok || pos.seg != segProtected {
		t.Fatalf("after access, a should be promoted to protected, got seg=%v ok=%v", pos.seg, ok)
	}
}

func TestWTinyLFUPolicy_AdmissionPrefersHigherFrequency(t *testing.T) {
	sketch := newFrequencySketch(1000, SketchBasic)
	// tiny capacity so the window overflows after a couple of writes
	p := newWTinyLFUPolicy[string](10, 0.2, 0.2, sketch)

	for i := 0; i < 20; i++ {
		sketch.increment(hashString("incumbent"))
	}
	p.mu.Lock()
	el := p.probation.PushFront(keyHash[string]{key: "incumbent", hash: hashString("incumbent")})
	p.index["incumbent"] = wtinylfuPos[string]{seg: segProbation, el: el}
	// fill the rest of main space (probation+protected) so the admission
	// comparison path runs instead of the "still room" fast path.
	for len(p.index) < p.probationCap+p.protectedCap {
		k := "filler-main-" + string(rune('A'+len(p.index)))
		el := p.protected.PushFront(keyHash[string]{key: k, hash: hashString(k)})
		p.index[k] = wtinylfuPos[string]{seg: segProtected, el: el}
	}
	p.mu.Unlock()

	// candidate has a much lower frequency than the incumbent and should
	// be rejected rather than evicting the incumbent.
	p.OnWrite("candidate", hashString("candidate"), 0, 0)
	for i := 0; i < p.windowCap; i++ {
		filler := "filler" + string(rune('a'+i))
		p.OnWrite(filler, hashString(filler), 0, 0) // push candidate out of the window
	}

	p.mu.Lock()
	_, stillIncumbent := p.index["incumbent"]
	p.mu.Unlock()
	if !stillIncumbent {
		t.Fatal("a low-frequency candidate should not evict a high-frequency incumbent from probation")
	}
}

func hashString(s string) uint64 {
	var h uint64 = 14695981039346656037
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= 1099511628211
	}
	return h
}
