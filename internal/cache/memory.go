package cache

import (
	"github.com/corraxdev/corrax/pkg/alg/lru"
)

// newMemoryTier builds the in-process LRU tier, bounded by budgetBytes
// and guarded by a Bloom pre-filter keyed on the cache key string, so a
// cold lookup across thousands of untouched keys never takes the LRU's
// lock. cloneFunc is nil: V is handed out by reference deliberately, the
// same way the session tier does, since a single analysis run never
// mutates a cached document after construction.
func newMemoryTier[V any](budgetBytes int64, sizeFunc func(V) int64) *lru.Cache[string, V] {
	const expectedEntries = 100_000

	return lru.New[string, V](
		lru.WithMaxEntries[string, V](expectedEntries),
		lru.WithMaxBytes[string, V](budgetBytes, sizeFunc),
		lru.WithBloomFilter[string, V](func(k string) []byte { return []byte(k) }, expectedEntries),
	)
}
