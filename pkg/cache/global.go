// Package cache implements the global version cache: one in-memory
// (version, value) map per relation, fronting the disk store, guarded by
// a single mutex. It is implemented generically (cache.Global[K, V]) so
// the same type serves all 12 object relations; the sequences partition
// is not cached.
package cache

import (
	"errors"
	"sync"

	"github.com/burrowdb/burrow/pkg/relation"
	"github.com/burrowdb/burrow/pkg/txn"
)

// ErrConflict is returned by Guard.Check when a transaction's recorded
// read version no longer matches the cache's current version for some
// key: the commit pipeline surfaces this as CommitConflictRetry.
var ErrConflict = errors.New("cache: conflicting read version")

type entry[V any] struct {
	version uint64
	val     V
	present bool
}

// Global is the per-relation version cache. Zero value is not usable;
// construct with New.
type Global[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]entry[V]
	store   *relation.Store[K, V]
}

// New binds a Global cache to its backing relation store.
func New[K comparable, V any](store *relation.Store[K, V]) *Global[K, V] {
	return &Global[K, V]{
		entries: make(map[K]entry[V]),
		store:   store,
	}
}

// Start returns a fresh WorkingSet reading through this cache. One is
// created per relation at the start of every transaction.
func (g *Global[K, V]) Start() *txn.WorkingSet[K, V] {
	return txn.New[K, V](g)
}

// Len reports the number of entries currently resident in the cache,
// for metrics polling (burrow_relation_cache_entries). It is a point-in-time
// snapshot, not part of the MVCC protocol.
func (g *Global[K, V]) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}

// ForEachStored walks every durably stored entry of the backing relation.
// Commits flush to disk under the relation lock, so the store is current
// as of the last applied commit; callers overlay their own working set on
// top. Scans are not part of the MVCC protocol and record no reads.
func (g *Global[K, V]) ForEachStored(fn func(K, V) error) error {
	return g.store.ForEach(fn)
}

// SnapshotRead returns the cache's current (version, value) for key under
// lock, populating the cache from disk at version 0 on a cold miss. This
// is the only read path a transaction's working set uses; it never
// blocks on anything but a single map lookup unless the key is cold.
func (g *Global[K, V]) SnapshotRead(key K) (uint64, V, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.readLocked(key)
}

func (g *Global[K, V]) readLocked(key K) (uint64, V, bool, error) {
	if e, ok := g.entries[key]; ok {
		return e.version, e.val, e.present, nil
	}
	val, present, err := g.store.Get(key)
	if err != nil {
		var zero V
		return 0, zero, false, err
	}
	g.entries[key] = entry[V]{version: 0, val: val, present: present}
	return 0, val, present, nil
}

// Guard is a held relation lock, acquired by the commit pipeline for the
// duration of one commit attempt's check-then-apply sequence. Callers
// other than the commit pipeline never obtain one directly; transactions
// never call check or apply themselves.
type Guard[K comparable, V any] struct {
	g *Global[K, V]
}

// Lock acquires the relation's mutex for one commit attempt. The returned
// Guard must be unlocked exactly once.
func (g *Global[K, V]) Lock() *Guard[K, V] {
	g.mu.Lock()
	return &Guard[K, V]{g: g}
}

// Unlock releases the relation's mutex.
func (guard *Guard[K, V]) Unlock() {
	guard.g.mu.Unlock()
}

// Check validates that every key the working set read is still at the
// version it observed, returning ErrConflict on the first mismatch
// found. Iteration order is unspecified; any one stale read dooms the
// transaction regardless of which is reported.
func (guard *Guard[K, V]) Check(ws *txn.WorkingSet[K, V]) error {
	for key, wantVersion := range ws.Reads() {
		curVersion, _, _, err := guard.g.readLocked(key)
		if err != nil {
			return err
		}
		if curVersion != wantVersion {
			return ErrConflict
		}
	}
	return nil
}

// Apply folds every staged write/delete into the cache with a freshly
// bumped version, then flushes the batch to the backing store. Callers
// must have already called Check successfully within the same Guard.
func (guard *Guard[K, V]) Apply(ws *txn.WorkingSet[K, V]) error {
	writes := ws.Writes()
	for key, val := range writes {
		prev := guard.g.entries[key]
		guard.g.entries[key] = entry[V]{version: prev.version + 1, val: val, present: true}
	}
	deleteKeys := ws.DeleteKeys()
	for _, key := range deleteKeys {
		prev := guard.g.entries[key]
		var zero V
		guard.g.entries[key] = entry[V]{version: prev.version + 1, val: zero, present: false}
	}
	return guard.g.store.ApplyBatch(writes, deleteKeys)
}
