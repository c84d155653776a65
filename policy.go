// policy.go: pluggable eviction policy contract (§4.4)
//
// Every variant holds only keys and key-hashes, never entries or
// values: "the policy stores keys... and queries the store on demand;
// the store owns the entries outright" (Design Notes §9). This keeps
// removal simple — there is no back-pointer from store entry to policy
// node to keep in sync.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package jcachex

// Policy is the pluggable eviction strategy contract. Methods are
// normally called from the maintenance scheduler's single goroutine
// (§4.6), which is what lets eviction run without locking against the
// hot read path; the synchronous eviction contingency (§5) also calls
// these methods directly from whichever goroutine triggered a
// capacity-exceeding write, so every implementation guards its own
// state with a mutex rather than assuming a single caller.
type Policy[K comparable] interface {
	// OnAccess records a read hit for key.
	OnAccess(key K, hash uint64, frequency uint64)
	// OnWrite records an insert or update of key with the given weight.
	OnWrite(key K, hash uint64, weight int64, frequency uint64)
	// OnRemove forgets key (explicit remove, expiration, or eviction).
	OnRemove(key K, hash uint64)
	// SelectVictim returns the next key the policy would evict, or
	// ok=false if the policy currently holds no entries.
	SelectVictim() (key K, hash uint64, ok bool)
	// Len reports how many keys the policy is currently tracking.
	Len() int
	// Clear forgets every tracked key.
	Clear()
}

// newPolicy builds the configured policy. The zero kind (PolicyWTinyLFU)
// yields W-TinyLFU; custom is used only under PolicyCustom, and is
// ignored for every other kind. PolicyCustom with a nil custom falls
// back to W-TinyLFU (Config.Validate rejects that combination).
func newPolicy[K comparable](kind EvictionPolicyKind, capacity int, windowRatio, probationaryRatio float64, sketch *frequencySketch, custom Policy[K]) Policy[K] {
	switch kind {
	case PolicyLRU:
		return newLRUPolicy[K]()
	case PolicyLFU:
		return newLFUPolicy[K]()
	case PolicyFIFO:
		return newQueuePolicy[K](false)
	case PolicyFILO:
		return newQueuePolicy[K](true)
	case PolicyWeight:
		return newWeightPolicy[K](newLRUPolicy[K]())
	case PolicyIdleTime:
		return newIdleTimePolicy[K]()
	case PolicyComposite:
		return newCompositePolicy[K](newWTinyLFUPolicy[K](capacity, windowRatio, probationaryRatio, sketch), newIdleTimePolicy[K]())
	case PolicyCustom:
		if custom != nil {
			return custom
		}
		return newWTinyLFUPolicy[K](capacity, windowRatio, probationaryRatio, sketch)
	case PolicyWTinyLFU:
		fallthrough
	default:
		return newWTinyLFUPolicy[K](capacity, windowRatio, probationaryRatio, sketch)
	}
}

// keyHash pairs a key with its precomputed hash so list-based policies
// never need to re-hash on removal.
type keyHash[K comparable] struct {
	key  K
	hash uint64
}

// tieBreakLess implements §4.4's deterministic tie-break: lower sketch
// frequency wins, then lexicographically-smaller key-hash.
func tieBreakLess(aFreq, bFreq uint64, aHash, bHash uint64) bool {
	if aFreq != bFreq {
		return aFreq < bFreq
	}
	return aHash < bHash
}
