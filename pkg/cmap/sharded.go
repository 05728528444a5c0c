// Package cmap provides a concurrent-safe sharded map used as the candidate
// index for the keyspace's active-expiry sampler.
package cmap

import (
	"fmt"
	"hash/maphash"
	"sync"

	"github.com/spaolacci/murmur3"
)

// DefaultShardCount is the default number of shards.
const DefaultShardCount = 16

// Hasher computes a shard-selection hash for a key. A nil Hasher falls back
// to maphash.
type Hasher[K comparable] func(K) uint64

// Map is a concurrent-safe sharded map.
type Map[K comparable, V any] struct {
	shards    []*shard[K, V]
	shardMask uint64
	seed      maphash.Seed
	hasher    Hasher[K]
}

type shard[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]V
}

// New creates a new sharded map with the default shard count, hashed via maphash.
func New[K comparable, V any]() *Map[K, V] {
	return NewWithShards[K, V](DefaultShardCount)
}

// NewWithShards creates a new sharded map with the specified shard count.
// shardCount must be a power of 2.
func NewWithShards[K comparable, V any](shardCount int) *Map[K, V] {
	return newMap[K, V](shardCount, nil)
}

// NewWithHasher creates a sharded map that routes shard selection through a
// caller-supplied hash function instead of maphash. The keyspace's active
// expiry sampler uses this with a murmur3 hash over the key bytes so the
// candidate index's shard distribution is independent of process-local
// maphash seeding and can be reasoned about across restarts.
func NewWithHasher[K comparable, V any](shardCount int, hasher Hasher[K]) *Map[K, V] {
	return newMap[K, V](shardCount, hasher)
}

// NewStringMurmur3 creates a sharded map of string keys hashed with murmur3,
// the configuration used by the expiry candidate index.
func NewStringMurmur3[V any](shardCount int) *Map[string, V] {
	return NewWithHasher[string, V](shardCount, func(k string) uint64 {
		return uint64(murmur3.Sum32([]byte(k)))
	})
}

func newMap[K comparable, V any](shardCount int, hasher Hasher[K]) *Map[K, V] {
	if shardCount <= 0 || shardCount&(shardCount-1) != 0 {
		shardCount = DefaultShardCount
	}

	m := &Map[K, V]{
		shards:    make([]*shard[K, V], shardCount),
		shardMask: uint64(shardCount - 1),
		seed:      maphash.MakeSeed(),
		hasher:    hasher,
	}

	for i := 0; i < shardCount; i++ {
		m.shards[i] = &shard[K, V]{
			items: make(map[K]V),
		}
	}

	return m
}

// getShard returns the shard for a key using the configured hasher (murmur3
// when set via NewWithHasher/NewStringMurmur3) or maphash otherwise.
func (m *Map[K, V]) getShard(key K) *shard[K, V] {
	if m.hasher != nil {
		return m.shards[m.hasher(key)&m.shardMask]
	}
	var h maphash.Hash
	h.SetSeed(m.seed)
	h.WriteString(fmt.Sprintf("%v", key))
	idx := h.Sum64() & m.shardMask
	return m.shards[idx]
}


// Get retrieves a value by key.
func (m *Map[K, V]) Get(key K) (V, bool) {
	shard := m.getShard(key)
	shard.mu.RLock()
	defer shard.mu.RUnlock()
	val, ok := shard.items[key]
	return val, ok
}

// Set stores a key-value pair.
func (m *Map[K, V]) Set(key K, value V) {
	shard := m.getShard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()
	shard.items[key] = value
}

// Delete removes a key.
func (m *Map[K, V]) Delete(key K) {
	shard := m.getShard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()
	delete(shard.items, key)
}

// Has checks if a key exists.
func (m *Map[K, V]) Has(key K) bool {
	_, ok := m.Get(key)
	return ok
}

// Count returns the total number of items.
func (m *Map[K, V]) Count() int {
	count := 0
	for _, shard := range m.shards {
		shard.mu.RLock()
		count += len(shard.items)
		shard.mu.RUnlock()
	}
	return count
}

// Clear removes all items.
func (m *Map[K, V]) Clear() {
	for _, shard := range m.shards {
		shard.mu.Lock()
		shard.items = make(map[K]V)
		shard.mu.Unlock()
	}
}
