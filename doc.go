// Package jcachex provides the core local cache engine of JCacheX: a
// concurrent, in-process key-value cache with a pluggable eviction
// policy, TTL/refresh expiration, event notification, and statistics.
//
// # Overview
//
// The engine is built from leaf components, composed by Cache:
//
//   - EntryStore: a striped concurrent map from key to entry, lock-free
//     on the read path.
//   - FrequencySketch: a Count-Min sketch with 4-bit counters and an
//     optional doorkeeper, used to drive admission decisions.
//   - AccessBuffer: a per-stripe ring buffer that records read/write/
//     evict hints for batched, off-the-hot-path maintenance.
//   - EvictionPolicy: LRU, LFU, FIFO, FILO, Weight, Idle-Time,
//     W-TinyLFU (the default) or a user-supplied Custom policy.
//   - ExpirationManager: write/access TTL and refresh-after-write.
//   - MaintenanceScheduler: a single-threaded cooperative task queue
//     that drains buffers, ages the sketch, sweeps expired entries and
//     runs eviction.
//   - StatisticsRecorder: hit/miss/eviction/load counters with a
//     generation-counter snapshot.
//   - EventDispatcher: synchronous delivery of cache events to
//     registered listeners.
//
// # Quick start
//
//	cfg := jcachex.DefaultConfig[string, User]() // MaximumSize 10_000
//	cfg.ExpireAfterWrite = time.Hour
//	cache, err := jcachex.NewCache(cfg)
//	if err != nil {
//	    return err
//	}
//
//	cache.Put("user:123", user)
//	if u, ok := cache.Get("user:123"); ok {
//	    fmt.Printf("User: %+v\n", u)
//	}
//
// # Single-flight loading
//
// The loader is part of the Config, set before NewCache:
//
//	cfg.Loader = func(key string) (User, error) {
//	    return fetchUserFromDB(key)
//	}
//	cache, err := jcachex.NewCache(cfg)
//	// ...
//	user, err := cache.GetOrLoad("user:123")
//
// Concurrent GetOrLoad calls for the same missing key coalesce into a
// single loader invocation (§5 of the design spec); other keys are
// never blocked by an in-flight load.
//
// # Expiration staleness
//
// expireAfterAccess deadlines are updated via the AccessBuffer drain,
// not inline on the read path, to keep reads lock-free. The access
// deadline may therefore lag the true last-access time by up to one
// maintenance drain interval. expireAfterWrite and refreshAfterWrite
// deadlines are exact, set at write time.
//
// # Concurrency model
//
// Any number of goroutines may call any Cache method concurrently.
// The maintenance scheduler runs on its own goroutine and does most
// eviction-policy bookkeeping off the Get/Put path. A Put that finds
// the cache full drains the access buffers and evicts a victim
// synchronously on the caller's goroutine, so every policy guards its
// own state with a mutex. See §5 of the design
// notes for the full concurrency and backpressure model.
package jcachex
