package store

// SAdd adds members to key's set, creating it if absent, and returns the
// number of members actually added.
func (s *Store) SAdd(key string, members ...string) (int, error) {
	e, ok := s.writeEntry(key)
	if !ok {
		e = &Entry{Kind: KindSet, Set: make(map[string]struct{}, len(members))}
		s.data[key] = e
	} else if e.Kind != KindSet {
		return 0, ErrWrongType
	}
	added := 0
	for _, m := range members {
		if _, exists := e.Set[m]; !exists {
			e.Set[m] = struct{}{}
			added++
		}
	}
	s.setEntryLocked(key, e)
	return added, nil
}

// SRem removes members from key's set, returning the number removed.
func (s *Store) SRem(key string, members ...string) (int, error) {
	e, ok := s.writeEntry(key)
	if !ok {
		return 0, nil
	}
	if e.Kind != KindSet {
		return 0, ErrWrongType
	}
	removed := 0
	for _, m := range members {
		if _, exists := e.Set[m]; exists {
			delete(e.Set, m)
			removed++
		}
	}
	s.setEntryLocked(key, e)
	return removed, nil
}

// SIsMember reports whether member belongs to key's set.
func (s *Store) SIsMember(key, member string) (bool, error) {
	e, ok := s.readEntry(key)
	if !ok {
		return false, nil
	}
	if e.Kind != KindSet {
		return false, ErrWrongType
	}
	_, exists := e.Set[member]
	return exists, nil
}

// SMembers returns all members of key's set.
func (s *Store) SMembers(key string) ([]string, error) {
	e, ok := s.readEntry(key)
	if !ok {
		return nil, nil
	}
	if e.Kind != KindSet {
		return nil, ErrWrongType
	}
	out := make([]string, 0, len(e.Set))
	for m := range e.Set {
		out = append(out, m)
	}
	return out, nil
}

// SCard returns the cardinality of key's set.
func (s *Store) SCard(key string) (int, error) {
	e, ok := s.readEntry(key)
	if !ok {
		return 0, nil
	}
	if e.Kind != KindSet {
		return 0, ErrWrongType
	}
	return len(e.Set), nil
}

func (s *Store) setsOf(keys []string) ([]map[string]struct{}, error) {
	sets := make([]map[string]struct{}, len(keys))
	for i, k := range keys {
		e, ok := s.readEntry(k)
		if !ok {
			sets[i] = map[string]struct{}{}
			continue
		}
		if e.Kind != KindSet {
			return nil, ErrWrongType
		}
		sets[i] = e.Set
	}
	return sets, nil
}

// SInter returns the intersection of the named sets.
func (s *Store) SInter(keys ...string) ([]string, error) {
	sets, err := s.setsOf(keys)
	if err != nil {
		return nil, err
	}
	if len(sets) == 0 {
		return nil, nil
	}
	out := []string{}
	for m := range sets[0] {
		present := true
		for _, other := range sets[1:] {
			if _, ok := other[m]; !ok {
				present = false
				break
			}
		}
		if present {
			out = append(out, m)
		}
	}
	return out, nil
}

// SUnion returns the union of the named sets.
func (s *Store) SUnion(keys ...string) ([]string, error) {
	sets, err := s.setsOf(keys)
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	for _, set := range sets {
		for m := range set {
			seen[m] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for m := range seen {
		out = append(out, m)
	}
	return out, nil
}

// SDiff returns the members of the first set not present in any of the rest.
func (s *Store) SDiff(keys ...string) ([]string, error) {
	sets, err := s.setsOf(keys)
	if err != nil {
		return nil, err
	}
	if len(sets) == 0 {
		return nil, nil
	}
	out := []string{}
	for m := range sets[0] {
		present := false
		for _, other := range sets[1:] {
			if _, ok := other[m]; ok {
				present = true
				break
			}
		}
		if !present {
			out = append(out, m)
		}
	}
	return out, nil
}
