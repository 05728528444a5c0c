package store

import "testing"

func withClock(s *Store, ms int64) {
	s.clock = func() int64 { return ms }
}

func TestStringSetGet(t *testing.T) {
	s := New()
	s.Set("k", []byte("v"), 0)
	v, ok, err := s.Get("k")
	if err != nil || !ok || string(v) != "v" {
		t.Fatalf("Get = (%q, %v, %v)", v, ok, err)
	}
}

func TestGetAbsentIsNilNoError(t *testing.T) {
	s := New()
	v, ok, err := s.Get("missing")
	if err != nil || ok || v != nil {
		t.Fatalf("Get(missing) = (%v, %v, %v), want (nil, false, nil)", v, ok, err)
	}
}

func TestWrongTypeError(t *testing.T) {
	s := New()
	if _, err := s.SAdd("k", "m"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.Get("k"); err != ErrWrongType {
		t.Fatalf("Get on set key = %v, want ErrWrongType", err)
	}
}

func TestLazyExpiryHidesReadWithoutDeleting(t *testing.T) {
	s := New()
	withClock(s, 1000)
	s.Set("k", []byte("v"), 1500)

	withClock(s, 2000) // past expiry
	if _, ok, _ := s.Get("k"); ok {
		t.Fatal("expected expired key to read as absent")
	}
	// Physical entry is still present until a write or active sweep touches it.
	if _, ok := s.data["k"]; !ok {
		t.Fatal("expected lazy read not to physically delete the entry")
	}
}

func TestWritePathReapsExpiredEntry(t *testing.T) {
	s := New()
	withClock(s, 1000)
	s.Set("k", []byte("v"), 1500)

	withClock(s, 2000)
	s.Set("k", []byte("v2"), 0)
	v, ok, _ := s.Get("k")
	if !ok || string(v) != "v2" {
		t.Fatalf("Get after overwrite = (%q, %v)", v, ok)
	}
}

func TestActiveExpireCycleReapsExpiredKeys(t *testing.T) {
	s := New()
	withClock(s, 1000)
	for i := 0; i < 5; i++ {
		s.Set(string(rune('a'+i)), []byte("v"), 1500)
	}
	withClock(s, 2000)
	sampled, expired := s.ActiveExpireCycle()
	if sampled == 0 || expired != 5 {
		t.Fatalf("ActiveExpireCycle = (sampled=%d, expired=%d), want (>0, 5)", sampled, expired)
	}
	if s.DBSize() != 0 {
		t.Fatalf("DBSize after sweep = %d, want 0", s.DBSize())
	}
}

func TestIncrByCreatesAndOverflows(t *testing.T) {
	s := New()
	v, err := s.IncrBy("counter", 5)
	if err != nil || v != 5 {
		t.Fatalf("IncrBy on absent key = (%d, %v)", v, err)
	}
	s.Set("big", []byte("9223372036854775807"), 0)
	if _, err := s.IncrBy("big", 1); err != ErrNotInteger {
		t.Fatalf("IncrBy overflow = %v, want ErrNotInteger", err)
	}
}

func TestListPushPopOrdering(t *testing.T) {
	s := New()
	s.RPush("l", []byte("a"), []byte("b"), []byte("c"))
	s.LPush("l", []byte("z"))
	vals, _ := s.LRange("l", 0, -1)
	want := []string{"z", "a", "b", "c"}
	if len(vals) != len(want) {
		t.Fatalf("LRange = %v", vals)
	}
	for i, w := range want {
		if string(vals[i]) != w {
			t.Fatalf("LRange[%d] = %q, want %q", i, vals[i], w)
		}
	}
}

func TestListPopEmptiesKey(t *testing.T) {
	s := New()
	s.RPush("l", []byte("only"))
	if _, err := s.RPop("l", 1); err != nil {
		t.Fatal(err)
	}
	if s.Exists("l") {
		t.Fatal("expected list key to be removed once emptied")
	}
}

func TestSetOperations(t *testing.T) {
	s := New()
	s.SAdd("a", "1", "2", "3")
	s.SAdd("b", "2", "3", "4")
	inter, _ := s.SInter("a", "b")
	if len(inter) != 2 {
		t.Fatalf("SInter = %v, want 2 members", inter)
	}
	union, _ := s.SUnion("a", "b")
	if len(union) != 4 {
		t.Fatalf("SUnion = %v, want 4 members", union)
	}
	diff, _ := s.SDiff("a", "b")
	if len(diff) != 1 || diff[0] != "1" {
		t.Fatalf("SDiff = %v, want [1]", diff)
	}
}

func TestHashIncrBy(t *testing.T) {
	s := New()
	v, err := s.HIncrBy("h", "f", 3)
	if err != nil || v != 3 {
		t.Fatalf("HIncrBy = (%d, %v)", v, err)
	}
	v, _ = s.HIncrBy("h", "f", -1)
	if v != 2 {
		t.Fatalf("HIncrBy second call = %d, want 2", v)
	}
}

func TestZAddFlagsNXXX(t *testing.T) {
	s := New()
	s.ZAdd("z", ZAddFlags{}, []ZMember{{"a", 1}})
	res, err := s.ZAdd("z", ZAddFlags{NX: true}, []ZMember{{"a", 5}})
	if err != nil {
		t.Fatal(err)
	}
	if res.Changed != 0 {
		t.Fatalf("ZAdd NX on existing member changed = %d, want 0", res.Changed)
	}
	score, _, _ := s.ZScore("z", "a")
	if score != 1 {
		t.Fatalf("score after NX no-op = %v, want 1", score)
	}
}

func TestZAddIncr(t *testing.T) {
	s := New()
	s.ZAdd("z", ZAddFlags{}, []ZMember{{"a", 1}})
	res, err := s.ZAdd("z", ZAddFlags{INCR: true}, []ZMember{{"a", 4}})
	if err != nil {
		t.Fatal(err)
	}
	if res.NewScore != 5 {
		t.Fatalf("ZADD INCR result = %v, want 5", res.NewScore)
	}
}

func TestZRangeByRankAndScore(t *testing.T) {
	s := New()
	s.ZAdd("z", ZAddFlags{}, []ZMember{{"a", 1}, {"b", 2}, {"c", 3}})
	byRank, _ := s.ZRangeByRank("z", 0, -1, false)
	if len(byRank) != 3 || byRank[0].Member != "a" || byRank[2].Member != "c" {
		t.Fatalf("ZRangeByRank = %+v", byRank)
	}
	byScore, _ := s.ZRangeByScore("z", 2, 3, false, false)
	if len(byScore) != 2 || byScore[0].Member != "b" {
		t.Fatalf("ZRangeByScore = %+v", byScore)
	}
}

func TestExpireTTLPersist(t *testing.T) {
	s := New()
	withClock(s, 1000)
	s.Set("k", []byte("v"), 0)
	if s.TTLMs("k") != -1 {
		t.Fatalf("TTLMs on no-expiry key = %d, want -1", s.TTLMs("k"))
	}
	s.Expire("k", 5000, ExpireFlags{})
	if got := s.TTLMs("k"); got != 4000 {
		t.Fatalf("TTLMs = %d, want 4000", got)
	}
	if !s.Persist("k") {
		t.Fatal("Persist should report a prior expiry cleared")
	}
	if s.TTLMs("k") != -1 {
		t.Fatal("TTLMs after Persist should be -1")
	}
	if s.TTLMs("missing") != -2 {
		t.Fatal("TTLMs on absent key should be -2")
	}
}

func TestExpireFlags(t *testing.T) {
	s := New()
	withClock(s, 1000)
	s.Set("k", []byte("v"), 0)

	if s.Expire("k", 9000, ExpireFlags{XX: true}) {
		t.Fatal("XX should reject a key with no existing expiry")
	}
	if !s.Expire("k", 9000, ExpireFlags{NX: true}) {
		t.Fatal("NX should accept a key with no existing expiry")
	}
	if s.Expire("k", 20000, ExpireFlags{NX: true}) {
		t.Fatal("NX should reject a key that already has an expiry")
	}
	if s.Expire("k", 3000, ExpireFlags{GT: true}) {
		t.Fatal("GT should reject a smaller expiry")
	}
	if !s.Expire("k", 20000, ExpireFlags{GT: true}) {
		t.Fatal("GT should accept a larger expiry")
	}
	if s.Expire("k", 30000, ExpireFlags{LT: true}) {
		t.Fatal("LT should reject a larger expiry")
	}
	if !s.Expire("k", 15000, ExpireFlags{LT: true}) {
		t.Fatal("LT should accept a smaller expiry")
	}

	s.Persist("k")
	if s.Expire("k", 5000, ExpireFlags{GT: true}) {
		t.Fatal("GT should treat an absent expiry as infinite and always reject")
	}
	if !s.Expire("k", 5000, ExpireFlags{LT: true}) {
		t.Fatal("LT should treat an absent expiry as infinite and always accept")
	}
}

func TestGlobMatching(t *testing.T) {
	cases := []struct {
		pattern, name string
		want          bool
	}{
		{"*", "anything", true},
		{"h?llo", "hello", true},
		{"h?llo", "hllo", false},
		{"h[ae]llo", "hallo", true},
		{"h[^ae]llo", "hallo", false},
		{"foo*bar", "foobazbar", true},
		{"foo*bar", "foobaz", false},
	}
	for _, c := range cases {
		if got := MatchGlob(c.pattern, c.name); got != c.want {
			t.Errorf("MatchGlob(%q, %q) = %v, want %v", c.pattern, c.name, got, c.want)
		}
	}
}
