// Package cache implements the content-fingerprinted, three-tier
// incremental cache: an in-process session map (this run only), a
// bounded in-memory LRU (survives across runs within one long-lived
// process, bounded by configuration's cache.memory_budget_bytes), and a
// compressed disk tier (survives process restarts). A miss at tier N
// populates every tier below N on the way back up.
package cache

import (
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/corraxdev/corrax/internal/ir"
	"github.com/corraxdev/corrax/pkg/alg/lru"
)

// TieredCache is a generic content-fingerprinted cache over CacheKey.
// Safe for concurrent use by the pipeline's worker pool.
type TieredCache[V any] struct {
	mu      sync.Mutex
	session map[string]V
	memory  *lru.Cache[string, V]
	disk    *diskTier
	codec   Codec[V]

	hits, misses int64
}

// Options configures a TieredCache.
type Options[V any] struct {
	// MemoryBudgetBytes bounds the memory tier; 0 disables size-based
	// eviction (the tier's fixed entry-count limit still bounds it).
	MemoryBudgetBytes int64
	// SizeFunc estimates a value's in-memory footprint for the memory
	// tier's byte budget.
	SizeFunc func(V) int64
	// DiskRoot is the directory the disk tier writes under. Empty
	// disables the disk tier entirely (session+memory only).
	DiskRoot string
	// Codec encodes/decodes V for the disk tier. Required when DiskRoot
	// is set.
	Codec Codec[V]
}

// New creates a TieredCache per opts.
func New[V any](opts Options[V]) *TieredCache[V] {
	tc := &TieredCache[V]{
		session: make(map[string]V),
		memory:  newMemoryTier[V](opts.MemoryBudgetBytes, opts.SizeFunc),
		codec:   opts.Codec,
	}

	if opts.DiskRoot != "" {
		tc.disk = newDiskTier(opts.DiskRoot)
	}

	return tc
}

// Get looks up key across session, memory, then disk tiers in order,
// populating faster tiers on a slower-tier hit.
func (tc *TieredCache[V]) Get(key ir.CacheKey) (V, bool, error) {
	k := key.String()

	tc.mu.Lock()
	if v, ok := tc.session[k]; ok {
		tc.hits++
		tc.mu.Unlock()

		return v, true, nil
	}
	tc.mu.Unlock()

	if v, ok := tc.memory.Get(k); ok {
		tc.mu.Lock()
		tc.session[k] = v
		tc.hits++
		tc.mu.Unlock()

		return v, true, nil
	}

	if tc.disk != nil {
		raw, ok, err := tc.disk.Get(key)
		if err != nil {
			var zero V
			return zero, false, err
		}

		if ok {
			v, err := tc.codec.Decode(raw)
			if err != nil {
				var zero V
				return zero, false, err
			}

			tc.mu.Lock()
			tc.session[k] = v
			tc.hits++
			tc.mu.Unlock()
			tc.memory.Put(k, v)

			return v, true, nil
		}
	}

	tc.mu.Lock()
	tc.misses++
	tc.mu.Unlock()

	var zero V

	return zero, false, nil
}

// Put writes value for key to every enabled tier.
func (tc *TieredCache[V]) Put(key ir.CacheKey, value V) error {
	k := key.String()

	tc.mu.Lock()
	tc.session[k] = value
	tc.mu.Unlock()

	tc.memory.Put(k, value)

	if tc.disk != nil {
		raw, err := tc.codec.Encode(value)
		if err != nil {
			return err
		}

		if err := tc.disk.Put(key, raw); err != nil {
			return err
		}
	}

	return nil
}

// Invalidate drops key from every tier, used when a file's fingerprint
// changes or it is deleted.
func (tc *TieredCache[V]) Invalidate(key ir.CacheKey) error {
	k := key.String()

	tc.mu.Lock()
	delete(tc.session, k)
	tc.mu.Unlock()

	tc.memory.Remove(k)

	if tc.disk != nil {
		return tc.disk.Invalidate(key)
	}

	return nil
}

// HitRate returns the fraction of Get calls on this cache that hit any
// tier (session, memory, or disk), or 0 before the first Get.
func (tc *TieredCache[V]) HitRate() float64 {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	total := tc.hits + tc.misses
	if total == 0 {
		return 0
	}

	return float64(tc.hits) / float64(total)
}

// MemorySize returns a human-readable estimate of the session tier's
// current footprint (sizeFunc summed over its values), for diagnostic
// logging. The LRU memory tier is not counted.
func (tc *TieredCache[V]) MemorySize(sizeFunc func(V) int64) string {
	stats := tc.memory.Stats()
	_ = stats

	return humanize.Bytes(uint64(tc.memoryBytes(sizeFunc)))
}

func (tc *TieredCache[V]) memoryBytes(sizeFunc func(V) int64) int64 {
	var total int64

	tc.mu.Lock()
	defer tc.mu.Unlock()

	for _, v := range tc.session {
		total += sizeFunc(v)
	}

	return total
}
