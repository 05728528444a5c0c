package store

import "sort"

// ZMember is one (member, score) pair as carried in ZSet's ordered index.
type ZMember struct {
	Member string
	Score  float64
}

// less orders members by score, then lexicographically by name, matching
// Redis's tie-break rule for equal scores.
func (a ZMember) less(b ZMember) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	return a.Member < b.Member
}

// ZSet is a sorted set: a member->score map for O(1) score lookup, dual
// indexed against an ordered slice kept sorted by (score, member) for range
// queries. Inserts/removes are O(log n) to locate plus O(n) to shift, which
// is adequate for the expected member-set sizes; a skip list would trade
// this simplicity for better asymptotics this keyspace does not need.
type ZSet struct {
	byMember map[string]float64
	ordered  []ZMember
}

// NewZSet creates an empty sorted set.
func NewZSet() *ZSet {
	return &ZSet{byMember: make(map[string]float64)}
}

// Len returns the member count.
func (z *ZSet) Len() int { return len(z.byMember) }

// Score returns a member's score.
func (z *ZSet) Score(member string) (float64, bool) {
	s, ok := z.byMember[member]
	return s, ok
}

// Set inserts or updates member's score, returning true if the member was
// newly added.
func (z *ZSet) Set(member string, score float64) bool {
	if old, ok := z.byMember[member]; ok {
		if old == score {
			return false
		}
		z.removeOrdered(ZMember{member, old})
		z.byMember[member] = score
		z.insertOrdered(ZMember{member, score})
		return false
	}
	z.byMember[member] = score
	z.insertOrdered(ZMember{member, score})
	return true
}

// Remove deletes member, returning true if it was present.
func (z *ZSet) Remove(member string) bool {
	score, ok := z.byMember[member]
	if !ok {
		return false
	}
	delete(z.byMember, member)
	z.removeOrdered(ZMember{member, score})
	return true
}

// Rank returns member's 0-based position in ascending score order.
func (z *ZSet) Rank(member string) (int, bool) {
	score, ok := z.byMember[member]
	if !ok {
		return 0, false
	}
	idx := z.search(ZMember{member, score})
	return idx, true
}

// CountBetween counts members with score in [min, max].
func (z *ZSet) CountBetween(min, max float64) int {
	lo := sort.Search(len(z.ordered), func(i int) bool { return z.ordered[i].Score >= min })
	hi := sort.Search(len(z.ordered), func(i int) bool { return z.ordered[i].Score > max })
	if hi < lo {
		return 0
	}
	return hi - lo
}

// RangeByRank returns the members in ascending score order within [start,
// stop] inclusive, Redis-style negative indices counting from the end.
func (z *ZSet) RangeByRank(start, stop int, reverse bool) []ZMember {
	n := len(z.ordered)
	start = normalizeIndex(start, n)
	stop = normalizeIndex(stop, n)
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || n == 0 {
		return nil
	}
	out := make([]ZMember, 0, stop-start+1)
	if reverse {
		for i := n - 1 - start; i >= n-1-stop; i-- {
			out = append(out, z.ordered[i])
		}
	} else {
		for i := start; i <= stop; i++ {
			out = append(out, z.ordered[i])
		}
	}
	return out
}

// RangeByScore returns members with score in [min, max] inclusive, in
// ascending order, honoring exclusive bounds via the caller pre-adjusting
// min/max by an epsilon-free exclusivity flag pair.
func (z *ZSet) RangeByScore(min, max float64, minExcl, maxExcl bool) []ZMember {
	lo := sort.Search(len(z.ordered), func(i int) bool { return z.ordered[i].Score >= min })
	if minExcl {
		for lo < len(z.ordered) && z.ordered[lo].Score == min {
			lo++
		}
	}
	hi := sort.Search(len(z.ordered), func(i int) bool { return z.ordered[i].Score > max })
	if maxExcl {
		for hi > lo && z.ordered[hi-1].Score == max {
			hi--
		}
	}
	if hi < lo {
		return nil
	}
	out := make([]ZMember, hi-lo)
	copy(out, z.ordered[lo:hi])
	return out
}

func normalizeIndex(i, n int) int {
	if i < 0 {
		i = n + i
	}
	return i
}

func (z *ZSet) search(m ZMember) int {
	return sort.Search(len(z.ordered), func(i int) bool { return !z.ordered[i].less(m) })
}

func (z *ZSet) insertOrdered(m ZMember) {
	idx := z.search(m)
	z.ordered = append(z.ordered, ZMember{})
	copy(z.ordered[idx+1:], z.ordered[idx:])
	z.ordered[idx] = m
}

func (z *ZSet) removeOrdered(m ZMember) {
	idx := z.search(m)
	if idx >= len(z.ordered) || z.ordered[idx] != m {
		return
	}
	z.ordered = append(z.ordered[:idx], z.ordered[idx+1:]...)
}
