// Package cmap provides a concurrent map implementation.
//
// This package implements a sharded concurrent map with the following
// features:
//
//   - Sharding: configurable shard count for parallelism
//   - Fine-grained locking: per-shard RWMutex for minimal contention
//   - Pluggable hashing: maphash by default, or a caller-supplied Hasher
//     (the keyspace uses NewStringMurmur3 for its expiry candidate index)
//   - Iteration: safe iteration while holding read locks
//
// Usage:
//
//	m := cmap.New[string, int]()
//	m.Set("key", 1)
//	val, ok := m.Get("key")
//
// Thread Safety:
//
// All operations are thread-safe. Read operations (Get, Has) use RLock,
// write operations (Set, Delete) use Lock.
package cmap
