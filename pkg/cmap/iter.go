package cmap

// Range iterates over all key-value pairs, acquiring each shard's lock in
// turn. The callback returns false to stop iteration early. Because locks
// are taken shard by shard rather than for the whole map, a concurrent
// writer can make the view inconsistent across shard boundaries — fine for
// the expiry sampler's candidate draw, which only needs an approximate
// snapshot.
func (m *Map[K, V]) Range(fn func(key K, value V) bool) {
	for _, shard := range m.shards {
		shard.mu.RLock()
		for k, v := range shard.items {
			if !fn(k, v) {
				shard.mu.RUnlock()
				return
			}
		}
		shard.mu.RUnlock()
	}
}

// Keys returns all keys currently in the map. The active-expiry sampler
// calls this to draw its candidate pool before picking a random subset.
func (m *Map[K, V]) Keys() []K {
	keys := make([]K, 0, m.Count())
	m.Range(func(key K, _ V) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

// ShardCount returns the number of shards.
func (m *Map[K, V]) ShardCount() int {
	return len(m.shards)
}

// ShardStats reports one shard's occupancy.
type ShardStats struct {
	Index int
	Count int
}

// Stats returns per-shard occupancy, used to verify the configured hasher
// spreads keys evenly — a degenerate distribution would concentrate the
// expiry index's candidates in a few shards and bias active-expiry
// sampling toward them.
func (m *Map[K, V]) Stats() []ShardStats {
	stats := make([]ShardStats, len(m.shards))
	for i, shard := range m.shards {
		shard.mu.RLock()
		stats[i] = ShardStats{
			Index: i,
			Count: len(shard.items),
		}
		shard.mu.RUnlock()
	}
	return stats
}
