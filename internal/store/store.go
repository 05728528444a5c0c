// Package store implements the in-memory, type-polymorphic keyspace: a
// single-mutex map of key to typed Entry with lazy and active expiry.
//
// The Store is deliberately not internally sharded: the whole keyspace is
// guarded by one sync.RWMutex, held by the caller (the dispatcher) for the
// entire duration of a command per the command's Read/Write classification.
// This keeps the append-only-file ordering invariant trivial to preserve —
// the same hold that performs a mutation also performs the AOF append.
package store

import (
	"container/list"
	"sync"
	"time"

	"github.com/driftkv/driftkv/pkg/cmap"
)

// Kind identifies the value variant held by an Entry.
type Kind int

const (
	KindString Kind = iota
	KindList
	KindSet
	KindHash
	KindZSet
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindSet:
		return "set"
	case KindHash:
		return "hash"
	case KindZSet:
		return "zset"
	default:
		return "unknown"
	}
}

// Entry is one keyspace slot: a typed value plus an optional expiry.
type Entry struct {
	Kind Kind

	Str  []byte
	List *list.List          // elements are []byte
	Set  map[string]struct{} // member -> presence
	Hash map[string][]byte
	ZSet *ZSet

	// ExpireAtMs is the absolute expiry instant in Unix milliseconds, or 0
	// for no expiry.
	ExpireAtMs int64
}

func (e *Entry) hasExpiry() bool { return e.ExpireAtMs != 0 }

func (e *Entry) expiredAt(nowMs int64) bool {
	return e.hasExpiry() && nowMs >= e.ExpireAtMs
}

// empty reports whether an aggregate Entry has become empty and should be
// removed from the keyspace per §3.2 ("empty aggregates are not persisted").
func (e *Entry) empty() bool {
	switch e.Kind {
	case KindList:
		return e.List == nil || e.List.Len() == 0
	case KindSet:
		return len(e.Set) == 0
	case KindHash:
		return len(e.Hash) == 0
	case KindZSet:
		return e.ZSet == nil || e.ZSet.Len() == 0
	default:
		return false
	}
}

// Store is the concurrently accessed keyspace.
type Store struct {
	mu   sync.RWMutex
	data map[string]*Entry

	// expIndex tracks keys carrying an expiry, sharded and hashed with
	// murmur3, so the active-expiry sampler can draw random candidates
	// without scanning the full keyspace under the write lock.
	expIndex *cmap.Map[string, struct{}]

	clock func() int64 // injectable for tests; defaults to wall-clock ms
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		data:     make(map[string]*Entry),
		expIndex: cmap.NewStringMurmur3[struct{}](32),
		clock:    nowMs,
	}
}

func nowMs() int64 { return time.Now().UnixMilli() }

// Lock/Unlock/RLock/RUnlock expose the Store's single keyspace mutex to the
// dispatcher, which holds it for the full duration of a command per its
// Read/Write classification.
func (s *Store) Lock()    { s.mu.Lock() }
func (s *Store) Unlock()  { s.mu.Unlock() }
func (s *Store) RLock()   { s.mu.RLock() }
func (s *Store) RUnlock() { s.mu.RUnlock() }

// readEntry resolves a key for a read-only operation. It must be called
// while holding at least RLock. An entry whose expiry has passed is treated
// as absent without being deleted: physical removal happens the next time a
// write touches the key, or at the next active-expiry sweep, per §3.2's
// "logically absent... until next access or active sweep."
func (s *Store) readEntry(key string) (*Entry, bool) {
	e, ok := s.data[key]
	if !ok {
		return nil, false
	}
	if e.expiredAt(s.clock()) {
		return nil, false
	}
	return e, true
}

// writeEntry resolves a key for a mutating operation, physically deleting
// an expired entry first. Must be called while holding Lock.
func (s *Store) writeEntry(key string) (*Entry, bool) {
	e, ok := s.data[key]
	if !ok {
		return nil, false
	}
	if e.expiredAt(s.clock()) {
		s.deleteLocked(key)
		return nil, false
	}
	return e, true
}

// deleteLocked removes a key and its expiry-index membership. Must be
// called while holding Lock.
func (s *Store) deleteLocked(key string) {
	delete(s.data, key)
	s.expIndex.Delete(key)
}

// setEntryLocked installs e at key, removing it instead if the aggregate is
// now empty. Must be called while holding Lock.
func (s *Store) setEntryLocked(key string, e *Entry) {
	if e.empty() {
		s.deleteLocked(key)
		return
	}
	s.data[key] = e
	if e.hasExpiry() {
		s.expIndex.Set(key, struct{}{})
	} else {
		s.expIndex.Delete(key)
	}
}

// setExpiryLocked updates an existing entry's expiry field and the
// candidate index membership. Must be called while holding Lock.
func (s *Store) setExpiryLocked(key string, e *Entry, expireAtMs int64) {
	e.ExpireAtMs = expireAtMs
	if expireAtMs != 0 {
		s.expIndex.Set(key, struct{}{})
	} else {
		s.expIndex.Delete(key)
	}
}

// Exists reports whether key holds a live (non-expired) value.
func (s *Store) Exists(key string) bool {
	_, ok := s.readEntry(key)
	return ok
}

// TypeOf returns the Kind of a live key and true, or false if absent.
func (s *Store) TypeOf(key string) (Kind, bool) {
	e, ok := s.readEntry(key)
	if !ok {
		return 0, false
	}
	return e.Kind, true
}

// Del removes the given keys, returning the count actually present.
func (s *Store) Del(keys ...string) int {
	n := 0
	for _, k := range keys {
		if _, ok := s.writeEntry(k); ok {
			s.deleteLocked(k)
			n++
		}
	}
	return n
}

// Keys returns all live keys matching a glob pattern ("*" for all).
func (s *Store) Keys(pattern string) []string {
	now := s.clock()
	out := make([]string, 0, len(s.data))
	for k, e := range s.data {
		if e.expiredAt(now) {
			continue
		}
		if MatchGlob(pattern, k) {
			out = append(out, k)
		}
	}
	return out
}

// DBSize returns the number of live keys. Cheap approximation: counts
// physical entries not yet lazily/actively expired; exact per read
// semantics would require touching every key's expiry, which DBSIZE (a
// O(1) Redis command) deliberately does not do.
func (s *Store) DBSize() int {
	now := s.clock()
	n := 0
	for _, e := range s.data {
		if !e.expiredAt(now) {
			n++
		}
	}
	return n
}

// FlushAll removes every key.
func (s *Store) FlushAll() {
	s.data = make(map[string]*Entry)
	s.expIndex = cmap.NewStringMurmur3[struct{}](32)
}

// ForEach calls visit once per live key. The caller must hold at least
// RLock for the duration; used by BGREWRITEAOF to snapshot the keyspace
// without the Store re-entering its own lock.
func (s *Store) ForEach(visit func(key string, e *Entry)) {
	now := s.clock()
	for k, e := range s.data {
		if e.expiredAt(now) {
			continue
		}
		visit(k, e)
	}
}

// Rename moves the value at src to dst, overwriting dst. Returns false if
// src does not exist.
func (s *Store) Rename(src, dst string) bool {
	e, ok := s.writeEntry(src)
	if !ok {
		return false
	}
	s.deleteLocked(src)
	s.setEntryLocked(dst, e)
	return true
}
