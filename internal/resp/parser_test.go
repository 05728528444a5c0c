package resp

import (
	"bytes"
	"testing"
)

func TestParseComplete(t *testing.T) {
	lim := DefaultLimits()
	cases := []struct {
		name string
		in   string
		want Value
	}{
		{"simple string", "+OK\r\n", NewSimpleString("OK")},
		{"error", "-ERR bad\r\n", NewError("ERR bad")},
		{"integer", ":1000\r\n", NewInteger(1000)},
		{"negative integer", ":-7\r\n", NewInteger(-7)},
		{"bulk string", "$5\r\nhello\r\n", NewBulkStringFrom("hello")},
		{"empty bulk string", "$0\r\n\r\n", NewBulkStringFrom("")},
		{"null bulk string", "$-1\r\n", NullBulkString()},
		{"null array", "*-1\r\n", NullArray()},
		{"boolean true", "#t\r\n", NewBoolean(true)},
		{"boolean false", "#f\r\n", NewBoolean(false)},
		{"null", "_\r\n", NewNull()},
		{"double", ",3.14\r\n", NewDouble(3.14)},
		{
			"array of bulk strings",
			"*2\r\n$3\r\nfoo\r\n$3\r\nbar\r\n",
			NewArray([]Value{NewBulkStringFrom("foo"), NewBulkStringFrom("bar")}),
		},
		{
			"set",
			"~2\r\n:1\r\n:2\r\n",
			NewSet([]Value{NewInteger(1), NewInteger(2)}),
		},
		{
			"map",
			"%1\r\n$1\r\nk\r\n$1\r\nv\r\n",
			NewMap([]Pair{{Key: NewBulkStringFrom("k"), Val: NewBulkStringFrom("v")}}),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := Parse([]byte(tc.in), lim)
			if res.Outcome != Complete {
				t.Fatalf("outcome = %v, want Complete (err=%v)", res.Outcome, res.Err)
			}
			if res.Consumed != len(tc.in) {
				t.Fatalf("consumed = %d, want %d", res.Consumed, len(tc.in))
			}
			if !valuesEqual(res.Value, tc.want) {
				t.Fatalf("value = %#v, want %#v", res.Value, tc.want)
			}
		})
	}
}

func TestParseIncompleteIsRestartable(t *testing.T) {
	lim := DefaultLimits()
	full := "*2\r\n$3\r\nfoo\r\n$3\r\nbar\r\n"
	for cut := 1; cut < len(full); cut++ {
		prefix := full[:cut]
		res := Parse([]byte(prefix), lim)
		if res.Outcome == Complete {
			// A prefix may legitimately be complete only if it equals full.
			if prefix != full {
				t.Fatalf("prefix %q parsed Complete early", prefix)
			}
			continue
		}
		if res.Outcome != Incomplete {
			continue // some prefixes are genuinely Invalid mid-token; not expected here
		}
		full2 := Parse([]byte(full), lim)
		if full2.Outcome != Complete {
			t.Fatalf("full buffer did not parse complete: %v", full2.Err)
		}
	}
}

func TestParseInlineCommand(t *testing.T) {
	res := Parse([]byte("PING\r\n"), DefaultLimits())
	if res.Outcome != Complete {
		t.Fatalf("outcome = %v, want Complete", res.Outcome)
	}
	want := NewArray([]Value{NewBulkStringFrom("PING")})
	if !valuesEqual(res.Value, want) {
		t.Fatalf("value = %#v, want %#v", res.Value, want)
	}
}

func TestParseRejectsLeadingZero(t *testing.T) {
	res := Parse([]byte(":007\r\n"), DefaultLimits())
	if res.Outcome != Invalid {
		t.Fatalf("outcome = %v, want Invalid", res.Outcome)
	}
}

func TestParseRejectsOversizedBulk(t *testing.T) {
	lim := Limits{MaxBulkLen: 4, MaxArrayLen: 1024, MaxDepth: 8, MaxInlineLen: 1024}
	res := Parse([]byte("$10\r\n0123456789\r\n"), lim)
	if res.Outcome != Invalid || res.Kind != InvalidOverflow {
		t.Fatalf("outcome = %v/%v, want Invalid/Overflow", res.Outcome, res.Kind)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	lim := DefaultLimits()
	values := []Value{
		NewSimpleString("OK"),
		NewError("ERR boom"),
		NewInteger(-42),
		NewBulkStringFrom("payload"),
		NullBulkString(),
		NullArray(),
		NewArray([]Value{NewInteger(1), NewBulkStringFrom("x")}),
	}
	for _, v := range values {
		encoded := EncodeBytes(v, RESP2)
		res := Parse(encoded, lim)
		if res.Outcome != Complete {
			t.Fatalf("round trip parse failed for %#v: %v", v, res.Err)
		}
		if !valuesEqual(res.Value, v) {
			t.Fatalf("round trip mismatch: got %#v, want %#v", res.Value, v)
		}
		if res.Consumed != len(encoded) {
			t.Fatalf("round trip left %d unconsumed bytes", len(encoded)-res.Consumed)
		}
	}
}

func TestEncodeDowngradesRESP3AtRESP2(t *testing.T) {
	var buf bytes.Buffer
	Encode(&buf, NewBoolean(true), RESP2)
	if buf.String() != ":1\r\n" {
		t.Fatalf("boolean downgrade = %q, want %q", buf.String(), ":1\r\n")
	}

	buf.Reset()
	Encode(&buf, NewNull(), RESP2)
	if buf.String() != "$-1\r\n" {
		t.Fatalf("null downgrade = %q, want %q", buf.String(), "$-1\r\n")
	}

	buf.Reset()
	m := NewMap([]Pair{{Key: NewBulkStringFrom("a"), Val: NewInteger(1)}})
	Encode(&buf, m, RESP2)
	if buf.String() != "*2\r\n$1\r\na\r\n:1\r\n" {
		t.Fatalf("map downgrade = %q", buf.String())
	}
}

func valuesEqual(a, b Value) bool {
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case TypeSimpleString, TypeError, TypeBigNumber:
		return a.Str == b.Str
	case TypeInteger:
		return a.Int == b.Int
	case TypeBoolean:
		return a.Bool == b.Bool
	case TypeDouble:
		return a.Dbl == b.Dbl
	case TypeBulkString:
		if a.BulkSet != b.BulkSet {
			return false
		}
		return bytes.Equal(a.Bulk, b.Bulk)
	case TypeArray, TypeSet, TypePush:
		if a.ArrSet != b.ArrSet {
			return false
		}
		if len(a.Array) != len(b.Array) {
			return false
		}
		for i := range a.Array {
			if !valuesEqual(a.Array[i], b.Array[i]) {
				return false
			}
		}
		return true
	case TypeMap:
		if len(a.Pairs) != len(b.Pairs) {
			return false
		}
		for i := range a.Pairs {
			if !valuesEqual(a.Pairs[i].Key, b.Pairs[i].Key) || !valuesEqual(a.Pairs[i].Val, b.Pairs[i].Val) {
				return false
			}
		}
		return true
	default:
		return true
	}
}
