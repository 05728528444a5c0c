package store

import "strconv"

// HSet sets fields in key's hash, creating it if absent, and returns the
// number of fields that were newly created (not merely updated).
func (s *Store) HSet(key string, fields map[string][]byte) (int, error) {
	e, ok := s.writeEntry(key)
	if !ok {
		e = &Entry{Kind: KindHash, Hash: make(map[string][]byte, len(fields))}
		s.data[key] = e
	} else if e.Kind != KindHash {
		return 0, ErrWrongType
	}
	created := 0
	for f, v := range fields {
		if _, exists := e.Hash[f]; !exists {
			created++
		}
		e.Hash[f] = append([]byte(nil), v...)
	}
	s.setEntryLocked(key, e)
	return created, nil
}

// HGet returns the value of field in key's hash.
func (s *Store) HGet(key, field string) ([]byte, bool, error) {
	e, ok := s.readEntry(key)
	if !ok {
		return nil, false, nil
	}
	if e.Kind != KindHash {
		return nil, false, ErrWrongType
	}
	v, exists := e.Hash[field]
	return v, exists, nil
}

// HDel removes fields from key's hash, returning the number removed.
func (s *Store) HDel(key string, fields ...string) (int, error) {
	e, ok := s.writeEntry(key)
	if !ok {
		return 0, nil
	}
	if e.Kind != KindHash {
		return 0, ErrWrongType
	}
	removed := 0
	for _, f := range fields {
		if _, exists := e.Hash[f]; exists {
			delete(e.Hash, f)
			removed++
		}
	}
	s.setEntryLocked(key, e)
	return removed, nil
}

// HMGet returns the values for each field, nil for missing fields.
func (s *Store) HMGet(key string, fields []string) ([][]byte, error) {
	e, ok := s.readEntry(key)
	out := make([][]byte, len(fields))
	if !ok {
		return out, nil
	}
	if e.Kind != KindHash {
		return nil, ErrWrongType
	}
	for i, f := range fields {
		out[i] = e.Hash[f]
	}
	return out, nil
}

// HGetAll returns the full field/value map of key's hash.
func (s *Store) HGetAll(key string) (map[string][]byte, error) {
	e, ok := s.readEntry(key)
	if !ok {
		return nil, nil
	}
	if e.Kind != KindHash {
		return nil, ErrWrongType
	}
	out := make(map[string][]byte, len(e.Hash))
	for f, v := range e.Hash {
		out[f] = v
	}
	return out, nil
}

// HKeys returns the field names of key's hash.
func (s *Store) HKeys(key string) ([]string, error) {
	e, ok := s.readEntry(key)
	if !ok {
		return nil, nil
	}
	if e.Kind != KindHash {
		return nil, ErrWrongType
	}
	out := make([]string, 0, len(e.Hash))
	for f := range e.Hash {
		out = append(out, f)
	}
	return out, nil
}

// HVals returns the values of key's hash.
func (s *Store) HVals(key string) ([][]byte, error) {
	e, ok := s.readEntry(key)
	if !ok {
		return nil, nil
	}
	if e.Kind != KindHash {
		return nil, ErrWrongType
	}
	out := make([][]byte, 0, len(e.Hash))
	for _, v := range e.Hash {
		out = append(out, v)
	}
	return out, nil
}

// HLen returns the field count of key's hash.
func (s *Store) HLen(key string) (int, error) {
	e, ok := s.readEntry(key)
	if !ok {
		return 0, nil
	}
	if e.Kind != KindHash {
		return 0, ErrWrongType
	}
	return len(e.Hash), nil
}

// HExists reports whether field exists in key's hash.
func (s *Store) HExists(key, field string) (bool, error) {
	e, ok := s.readEntry(key)
	if !ok {
		return false, nil
	}
	if e.Kind != KindHash {
		return false, ErrWrongType
	}
	_, exists := e.Hash[field]
	return exists, nil
}

// HIncrBy adds delta to field's integer value in key's hash, creating the
// field (and hash) at 0 if absent.
func (s *Store) HIncrBy(key, field string, delta int64) (int64, error) {
	e, ok := s.writeEntry(key)
	if !ok {
		e = &Entry{Kind: KindHash, Hash: make(map[string][]byte, 1)}
		s.data[key] = e
	} else if e.Kind != KindHash {
		return 0, ErrWrongType
	}
	cur := int64(0)
	if v, exists := e.Hash[field]; exists {
		parsed, err := strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			return 0, ErrNotInteger
		}
		cur = parsed
	}
	next := cur + delta
	e.Hash[field] = []byte(strconv.FormatInt(next, 10))
	s.setEntryLocked(key, e)
	return next, nil
}
