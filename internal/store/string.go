package store

import (
	"strconv"
)

// Get returns the string value at key, or (nil, false) if absent.
// Returns a WRONGTYPE error if key holds a non-string value.
func (s *Store) Get(key string) ([]byte, bool, error) {
	e, ok := s.readEntry(key)
	if !ok {
		return nil, false, nil
	}
	if e.Kind != KindString {
		return nil, false, ErrWrongType
	}
	return e.Str, true, nil
}

// Set stores val at key, discarding any previous value and expiry unless
// expireAtMs is carried over by the caller via KeepTTL semantics (handled
// by the dispatcher, not here).
func (s *Store) Set(key string, val []byte, expireAtMs int64) {
	s.setEntryLocked(key, &Entry{Kind: KindString, Str: append([]byte(nil), val...), ExpireAtMs: expireAtMs})
}

// GetSet atomically replaces key's string value and returns the old one.
func (s *Store) GetSet(key string, val []byte) ([]byte, error) {
	e, ok := s.writeEntry(key)
	var old []byte
	if ok {
		if e.Kind != KindString {
			return nil, ErrWrongType
		}
		old = e.Str
	}
	s.setEntryLocked(key, &Entry{Kind: KindString, Str: append([]byte(nil), val...)})
	return old, nil
}

// Append appends val to key's string (creating it if absent) and returns
// the resulting length.
func (s *Store) Append(key string, val []byte) (int, error) {
	e, ok := s.writeEntry(key)
	if !ok {
		s.setEntryLocked(key, &Entry{Kind: KindString, Str: append([]byte(nil), val...)})
		return len(val), nil
	}
	if e.Kind != KindString {
		return 0, ErrWrongType
	}
	e.Str = append(e.Str, val...)
	return len(e.Str), nil
}

// StrLen returns the length of key's string value, or 0 if absent.
func (s *Store) StrLen(key string) (int, error) {
	e, ok := s.readEntry(key)
	if !ok {
		return 0, nil
	}
	if e.Kind != KindString {
		return 0, ErrWrongType
	}
	return len(e.Str), nil
}

// IncrBy adds delta to key's integer value, creating it at 0 if absent, and
// returns the new value.
func (s *Store) IncrBy(key string, delta int64) (int64, error) {
	e, ok := s.writeEntry(key)
	if !ok {
		s.setEntryLocked(key, &Entry{Kind: KindString, Str: []byte(strconv.FormatInt(delta, 10))})
		return delta, nil
	}
	if e.Kind != KindString {
		return 0, ErrWrongType
	}
	cur, err := strconv.ParseInt(string(e.Str), 10, 64)
	if err != nil {
		return 0, ErrNotInteger
	}
	next := cur + delta
	if (delta > 0 && next < cur) || (delta < 0 && next > cur) {
		return 0, ErrNotInteger
	}
	e.Str = []byte(strconv.FormatInt(next, 10))
	return next, nil
}

// IncrByFloat adds delta to key's float value, creating it at 0 if absent.
func (s *Store) IncrByFloat(key string, delta float64) (float64, error) {
	e, ok := s.writeEntry(key)
	if !ok {
		s.setEntryLocked(key, &Entry{Kind: KindString, Str: []byte(formatFloat(delta))})
		return delta, nil
	}
	if e.Kind != KindString {
		return 0, ErrWrongType
	}
	cur, err := strconv.ParseFloat(string(e.Str), 64)
	if err != nil {
		return 0, ErrNotFloat
	}
	next := cur + delta
	e.Str = []byte(formatFloat(next))
	return next, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// MGet returns the string values for each key, nil for absent or
// non-string keys (matching Redis's MGET, which never errors per-key).
func (s *Store) MGet(keys []string) [][]byte {
	out := make([][]byte, len(keys))
	for i, k := range keys {
		e, ok := s.readEntry(k)
		if !ok || e.Kind != KindString {
			continue
		}
		out[i] = e.Str
	}
	return out
}

// MSet stores each key/value pair unconditionally.
func (s *Store) MSet(pairs map[string][]byte) {
	for k, v := range pairs {
		s.setEntryLocked(k, &Entry{Kind: KindString, Str: append([]byte(nil), v...)})
	}
}

// SetNX stores val at key only if key does not already exist, returning
// whether it was set.
func (s *Store) SetNX(key string, val []byte) bool {
	if _, ok := s.writeEntry(key); ok {
		return false
	}
	s.setEntryLocked(key, &Entry{Kind: KindString, Str: append([]byte(nil), val...)})
	return true
}
