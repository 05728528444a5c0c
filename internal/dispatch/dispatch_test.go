package dispatch

import (
	"path/filepath"
	"testing"

	"github.com/driftkv/driftkv/internal/aof"
	"github.com/driftkv/driftkv/internal/config"
	"github.com/driftkv/driftkv/internal/resp"
	"github.com/driftkv/driftkv/internal/store"
)

func newTestDispatcher() (*Dispatcher, *ConnState) {
	return New(store.New()), &ConnState{ProtoVersion: resp.RESP2}
}

func exec(t *testing.T, d *Dispatcher, conn *ConnState, args ...string) resp.Value {
	t.Helper()
	raw := make([][]byte, len(args))
	for i, a := range args {
		raw[i] = []byte(a)
	}
	return d.Execute(conn, raw)
}

func wantBulk(t *testing.T, v resp.Value, want string) {
	t.Helper()
	if v.Type != resp.TypeBulkString || !v.BulkSet {
		t.Fatalf("expected bulk string, got %+v", v)
	}
	if string(v.Bulk) != want {
		t.Errorf("got %q, want %q", v.Bulk, want)
	}
}

func wantInt(t *testing.T, v resp.Value, want int64) {
	t.Helper()
	if v.Type != resp.TypeInteger {
		t.Fatalf("expected integer, got %+v", v)
	}
	if v.Int != want {
		t.Errorf("got %d, want %d", v.Int, want)
	}
}

func wantError(t *testing.T, v resp.Value, prefix string) {
	t.Helper()
	if v.Type != resp.TypeError {
		t.Fatalf("expected error, got %+v", v)
	}
	if len(v.Str) < len(prefix) || v.Str[:len(prefix)] != prefix {
		t.Errorf("got error %q, want prefix %q", v.Str, prefix)
	}
}

func TestStringRoundTrip(t *testing.T) {
	d, conn := newTestDispatcher()
	exec(t, d, conn, "SET", "k", "v")
	wantBulk(t, exec(t, d, conn, "GET", "k"), "v")
	wantInt(t, exec(t, d, conn, "APPEND", "k", "!"), 2)
	wantBulk(t, exec(t, d, conn, "GET", "k"), "v!")
}

func TestSetNXXX(t *testing.T) {
	d, conn := newTestDispatcher()
	exec(t, d, conn, "SET", "k", "1")

	reply := exec(t, d, conn, "SET", "k", "2", "NX")
	if reply.Type != resp.TypeBulkString || reply.BulkSet {
		t.Fatalf("expected null bulk, got %+v", reply)
	}
	wantBulk(t, exec(t, d, conn, "GET", "k"), "1")

	exec(t, d, conn, "SET", "k", "3", "XX")
	wantBulk(t, exec(t, d, conn, "GET", "k"), "3")
}

func TestWrongTypeError(t *testing.T) {
	d, conn := newTestDispatcher()
	exec(t, d, conn, "LPUSH", "l", "a")
	wantError(t, exec(t, d, conn, "GET", "l"), "WRONGTYPE")
}

func TestUnknownCommand(t *testing.T) {
	d, conn := newTestDispatcher()
	wantError(t, exec(t, d, conn, "NOTACOMMAND"), "ERR")
}

func TestWrongArity(t *testing.T) {
	d, conn := newTestDispatcher()
	wantError(t, exec(t, d, conn, "GET"), "ERR")
}

func TestListOps(t *testing.T) {
	d, conn := newTestDispatcher()
	wantInt(t, exec(t, d, conn, "RPUSH", "l", "a", "b", "c"), 3)
	wantInt(t, exec(t, d, conn, "LLEN", "l"), 3)
	wantBulk(t, exec(t, d, conn, "LINDEX", "l", "1"), "b")
	wantBulk(t, exec(t, d, conn, "LPOP", "l"), "a")
}

func TestHashOps(t *testing.T) {
	d, conn := newTestDispatcher()
	wantInt(t, exec(t, d, conn, "HSET", "h", "f1", "v1", "f2", "v2"), 2)
	wantBulk(t, exec(t, d, conn, "HGET", "h", "f1"), "v1")
	wantInt(t, exec(t, d, conn, "HLEN", "h"), 2)
	wantInt(t, exec(t, d, conn, "HDEL", "h", "f1"), 1)
}

func TestZSetBasic(t *testing.T) {
	d, conn := newTestDispatcher()
	wantInt(t, exec(t, d, conn, "ZADD", "z", "1", "a", "2", "b", "3", "c"), 3)
	wantInt(t, exec(t, d, conn, "ZCARD", "z"), 3)
	wantBulk(t, exec(t, d, conn, "ZSCORE", "z", "b"), "2")

	reply := exec(t, d, conn, "ZRANGE", "z", "0", "-1")
	if reply.Type != resp.TypeArray || len(reply.Array) != 3 {
		t.Fatalf("expected 3-element array, got %+v", reply)
	}
	wantBulk(t, reply.Array[0], "a")
	wantBulk(t, reply.Array[2], "c")
}

func TestZAddIncr(t *testing.T) {
	d, conn := newTestDispatcher()
	exec(t, d, conn, "ZADD", "z", "1", "a")
	wantBulk(t, exec(t, d, conn, "ZADD", "z", "INCR", "4", "a"), "5")
}

func TestZAddGTCH(t *testing.T) {
	d, conn := newTestDispatcher()
	exec(t, d, conn, "ZADD", "z", "1", "a", "2", "b", "3", "c")

	// GT only lets a's score rise if the new score is greater; a's
	// candidate (0) is not, c's (5) is, so only c counts as changed.
	wantInt(t, exec(t, d, conn, "ZADD", "z", "GT", "CH", "0", "a", "5", "c"), 1)
	wantBulk(t, exec(t, d, conn, "ZSCORE", "z", "a"), "1")
	wantBulk(t, exec(t, d, conn, "ZSCORE", "z", "c"), "5")

	reply := exec(t, d, conn, "ZRANGE", "z", "0", "-1", "WITHSCORES")
	if reply.Type != resp.TypeArray || len(reply.Array) != 6 {
		t.Fatalf("expected 6-element interleaved array, got %+v", reply)
	}
	wantBulk(t, reply.Array[0], "a")
	wantBulk(t, reply.Array[1], "1")
	wantBulk(t, reply.Array[4], "c")
	wantBulk(t, reply.Array[5], "5")
}

func TestExpireAndTTL(t *testing.T) {
	d, conn := newTestDispatcher()
	exec(t, d, conn, "SET", "k", "v")
	wantInt(t, exec(t, d, conn, "EXPIRE", "k", "100"), 1)

	ttl := exec(t, d, conn, "TTL", "k")
	if ttl.Type != resp.TypeInteger || ttl.Int <= 0 || ttl.Int > 100 {
		t.Errorf("unexpected ttl reply: %+v", ttl)
	}

	wantInt(t, exec(t, d, conn, "PERSIST", "k"), 1)
	wantInt(t, exec(t, d, conn, "TTL", "k"), -1)
}

func TestZRangeLimit(t *testing.T) {
	d, conn := newTestDispatcher()
	exec(t, d, conn, "ZADD", "z", "1", "a", "2", "b", "3", "c", "4", "d", "5", "e")

	reply := exec(t, d, conn, "ZRANGE", "z", "0", "-1", "LIMIT", "5", "-1")
	if reply.Type != resp.TypeArray || len(reply.Array) != 0 {
		t.Fatalf("LIMIT 5 -1 with offset past the end = %+v, want empty", reply)
	}

	reply = exec(t, d, conn, "ZRANGE", "z", "0", "-1", "LIMIT", "2", "-1")
	if reply.Type != resp.TypeArray || len(reply.Array) != 3 {
		t.Fatalf("LIMIT 2 -1 = %+v, want 3 remaining members", reply)
	}
	wantBulk(t, reply.Array[0], "c")

	wantError(t, exec(t, d, conn, "ZRANGE", "z", "0", "-1", "LIMIT", "-1", "10"), "ERR")
}

func TestExpireNXXXGTLT(t *testing.T) {
	d, conn := newTestDispatcher()
	exec(t, d, conn, "SET", "k", "v")

	wantInt(t, exec(t, d, conn, "EXPIRE", "k", "100", "XX"), 0)
	wantInt(t, exec(t, d, conn, "EXPIRE", "k", "100", "NX"), 1)
	wantInt(t, exec(t, d, conn, "EXPIRE", "k", "200", "NX"), 0)
	wantInt(t, exec(t, d, conn, "EXPIRE", "k", "50", "GT"), 0)
	wantInt(t, exec(t, d, conn, "EXPIRE", "k", "200", "GT"), 1)
	wantError(t, exec(t, d, conn, "EXPIRE", "k", "100", "NX", "GT"), "ERR")
}

func TestDegradedModeOnAOFFsyncAlwaysFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "appendonly.aof")
	w, err := aof.Open(path, config.AOFFsyncAlways, nil)
	if err != nil {
		t.Fatalf("aof.Open: %v", err)
	}
	// Close the underlying file out from under the Writer so the next
	// Append's mandatory flush-and-sync fails, simulating a disk error.
	if err := w.Close(); err != nil {
		t.Fatalf("aof.Close: %v", err)
	}

	d := New(store.New())
	d.AOF = w
	d.AOFPath = path
	conn := &ConnState{}

	wantError(t, exec(t, d, conn, "SET", "k", "v"), "ERR")
	wantError(t, exec(t, d, conn, "SET", "k2", "v2"), "MISCONF")

	// Reads remain available in degraded mode; only writes are refused.
	wantBulk(t, exec(t, d, conn, "GET", "k"), "v")
}

func TestAOFSuppressedDuringReplay(t *testing.T) {
	d := New(store.New())
	conn := &ConnState{SuppressAOF: true}
	exec(t, d, conn, "SET", "k", "v")
	wantBulk(t, exec(t, d, &ConnState{}, "GET", "k"), "v")
}

func TestFlushAllAndDBSize(t *testing.T) {
	d, conn := newTestDispatcher()
	exec(t, d, conn, "SET", "a", "1")
	exec(t, d, conn, "SET", "b", "2")
	wantInt(t, exec(t, d, conn, "DBSIZE"), 2)
	exec(t, d, conn, "FLUSHALL")
	wantInt(t, exec(t, d, conn, "DBSIZE"), 0)
}

func TestHelloSwitchesProtocolVersion(t *testing.T) {
	d, conn := newTestDispatcher()
	exec(t, d, conn, "HELLO", "3")
	if conn.ProtoVersion != resp.RESP3 {
		t.Errorf("expected RESP3 after HELLO 3, got %d", conn.ProtoVersion)
	}
}

func TestSelectRejectsNonZero(t *testing.T) {
	d, conn := newTestDispatcher()
	wantError(t, exec(t, d, conn, "SELECT", "1"), "ERR")
	reply := exec(t, d, conn, "SELECT", "0")
	if reply.Type != resp.TypeSimpleString || reply.Str != "OK" {
		t.Errorf("expected +OK, got %+v", reply)
	}
}
