package lru

// Remove deletes key from the cache, if present, and reports whether it
// was found. The Bloom pre-filter, if any, is not updated: it only ever
// answers "possibly present", so a stale bit after a removal still
// yields correct (if occasionally slower) Get behavior.
func (c *Cache[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	ent, ok := c.entries[key]
	if !ok {
		return false
	}

	c.removeFromList(ent)
	delete(c.entries, key)
	c.curSize -= ent.size

	return true
}
