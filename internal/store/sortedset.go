package store

// ZAddFlags controls ZADD's conditional-update and increment behavior.
type ZAddFlags struct {
	NX, XX, GT, LT, CH, INCR bool
}

// ZAddResult reports the outcome of a single-member ZADD application.
type ZAddResult struct {
	Added   int      // members newly inserted
	Changed int      // members whose score changed (added + updated, for CH)
	NewScore float64 // resulting score, meaningful only when INCR is set
	Aborted bool     // INCR aborted by an NX/XX/GT/LT condition
}

// ZAdd applies members to key's sorted set under the given flags.
func (s *Store) ZAdd(key string, flags ZAddFlags, members []ZMember) (ZAddResult, error) {
	e, ok := s.writeEntry(key)
	if !ok {
		if flags.XX {
			return ZAddResult{Aborted: true}, nil
		}
		e = &Entry{Kind: KindZSet, ZSet: NewZSet()}
		s.data[key] = e
	} else if e.Kind != KindZSet {
		return ZAddResult{}, ErrWrongType
	}

	var result ZAddResult
	for _, m := range members {
		existing, has := e.ZSet.Score(m.Member)
		if flags.NX && has {
			if flags.INCR {
				result.Aborted = true
			}
			continue
		}
		if flags.XX && !has {
			if flags.INCR {
				result.Aborted = true
			}
			continue
		}

		target := m.Score
		if flags.INCR {
			target = existing + m.Score
		}
		if has {
			if flags.GT && target <= existing {
				result.Aborted = true
				continue
			}
			if flags.LT && target >= existing {
				result.Aborted = true
				continue
			}
		}

		added := e.ZSet.Set(m.Member, target)
		if added {
			result.Added++
			result.Changed++
		} else if target != existing {
			result.Changed++
		}
		result.NewScore = target
	}
	s.setEntryLocked(key, e)
	return result, nil
}

// ZRem removes members from key's sorted set, returning the count removed.
func (s *Store) ZRem(key string, members ...string) (int, error) {
	e, ok := s.writeEntry(key)
	if !ok {
		return 0, nil
	}
	if e.Kind != KindZSet {
		return 0, ErrWrongType
	}
	removed := 0
	for _, m := range members {
		if e.ZSet.Remove(m) {
			removed++
		}
	}
	s.setEntryLocked(key, e)
	return removed, nil
}

// ZScore returns member's score in key's sorted set.
func (s *Store) ZScore(key, member string) (float64, bool, error) {
	e, ok := s.readEntry(key)
	if !ok {
		return 0, false, nil
	}
	if e.Kind != KindZSet {
		return 0, false, ErrWrongType
	}
	score, has := e.ZSet.Score(member)
	return score, has, nil
}

// ZRank returns member's 0-based ascending rank in key's sorted set.
func (s *Store) ZRank(key, member string) (int, bool, error) {
	e, ok := s.readEntry(key)
	if !ok {
		return 0, false, nil
	}
	if e.Kind != KindZSet {
		return 0, false, ErrWrongType
	}
	rank, has := e.ZSet.Rank(member)
	return rank, has, nil
}

// ZCard returns the member count of key's sorted set.
func (s *Store) ZCard(key string) (int, error) {
	e, ok := s.readEntry(key)
	if !ok {
		return 0, nil
	}
	if e.Kind != KindZSet {
		return 0, ErrWrongType
	}
	return e.ZSet.Len(), nil
}

// ZCount counts members of key's sorted set scored within [min, max].
func (s *Store) ZCount(key string, min, max float64) (int, error) {
	e, ok := s.readEntry(key)
	if !ok {
		return 0, nil
	}
	if e.Kind != KindZSet {
		return 0, ErrWrongType
	}
	return e.ZSet.CountBetween(min, max), nil
}

// ZRangeByRank returns members of key's sorted set within rank [start,
// stop], ascending or descending.
func (s *Store) ZRangeByRank(key string, start, stop int, reverse bool) ([]ZMember, error) {
	e, ok := s.readEntry(key)
	if !ok {
		return nil, nil
	}
	if e.Kind != KindZSet {
		return nil, ErrWrongType
	}
	return e.ZSet.RangeByRank(start, stop, reverse), nil
}

// ZRangeByScore returns members of key's sorted set scored within [min,
// max], honoring exclusivity flags, in ascending order.
func (s *Store) ZRangeByScore(key string, min, max float64, minExcl, maxExcl bool) ([]ZMember, error) {
	e, ok := s.readEntry(key)
	if !ok {
		return nil, nil
	}
	if e.Kind != KindZSet {
		return nil, ErrWrongType
	}
	return e.ZSet.RangeByScore(min, max, minExcl, maxExcl), nil
}
