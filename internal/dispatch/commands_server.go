package dispatch

import (
	"fmt"
	"strings"
	"time"

	"github.com/driftkv/driftkv/internal/aof"
	"github.com/driftkv/driftkv/internal/resp"
	"github.com/driftkv/driftkv/internal/store"
)

var serverStart = time.Now()

func registerServerCommands(d *Dispatcher) {
	d.register(&Command{Name: "DBSIZE", Class: ClassRead, Arity: 1, Handler: cmdDBSize})
	d.register(&Command{Name: "FLUSHDB", Class: ClassAdmin, Arity: -1, Handler: cmdFlushAll})
	d.register(&Command{Name: "FLUSHALL", Class: ClassAdmin, Arity: -1, Handler: cmdFlushAll})
	d.register(&Command{Name: "INFO", Class: ClassRead, Arity: -1, Handler: cmdInfo})
	d.register(&Command{Name: "DEBUG", Class: ClassAdmin, Arity: -2, Handler: cmdDebug})
	d.register(&Command{Name: "BGREWRITEAOF", Class: ClassAdmin, Arity: 1, Handler: cmdBGRewriteAOF})
}

func cmdDBSize(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	return resp.NewInteger(int64(d.Store.DBSize())), nil
}

// cmdFlushAll backs both FLUSHDB and FLUSHALL: the server has exactly one
// logical database (SELECT accepts only index 0), so there is nothing for
// FLUSHDB to scope to that FLUSHALL doesn't already cover. The optional
// ASYNC/SYNC modifier is accepted and ignored — there's no background
// reclaim path to choose between.
func cmdFlushAll(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	if len(args) == 2 {
		switch strings.ToUpper(string(args[1])) {
		case "ASYNC", "SYNC":
		default:
			return resp.Value{}, store.ErrSyntax
		}
	}
	d.Store.FlushAll()
	return resp.NewSimpleString("OK"), nil
}

// cmdInfo returns a subset of Redis's INFO sections: server identity,
// keyspace size, and AOF persistence state. Real INFO has dozens of
// sections this server has no equivalent for (replication, CPU, memory
// fragmentation) and those are omitted rather than faked.
func cmdInfo(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# Server\r\ndriftkv_version:1.0.0\r\nuptime_in_seconds:%d\r\n", int64(time.Since(serverStart).Seconds()))
	fmt.Fprintf(&b, "\r\n# Keyspace\r\ndb0:keys=%d\r\n", d.Store.DBSize())
	fmt.Fprintf(&b, "\r\n# Persistence\r\naof_enabled:%d\r\n", boolInt(d.AOF != nil))
	return resp.NewBulkStringFrom(b.String()), nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// cmdDebug implements DEBUG SLEEP seconds, a deterministic latency hook
// for tests. Other DEBUG subcommands are not modeled.
func cmdDebug(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	if len(args) < 2 {
		return resp.Value{}, store.WrongArity("DEBUG")
	}
	switch strings.ToUpper(string(args[1])) {
	case "SLEEP":
		if len(args) != 3 {
			return resp.Value{}, store.WrongArity("DEBUG")
		}
		secs, err := parseScore(args[2])
		if err != nil {
			return resp.Value{}, err
		}
		time.Sleep(time.Duration(secs * float64(time.Second)))
		return resp.NewSimpleString("OK"), nil
	default:
		return resp.Value{}, store.NewSyntaxErrorf("unknown DEBUG subcommand '%s'", args[1])
	}
}

// cmdBGRewriteAOF snapshots the keyspace into a minimal command sequence
// and compacts the append-only file in place. It runs synchronously under
// the Store's write lock rather than forking a background save point, since
// this server has no copy-on-write fork to exploit and the keyspace sizes
// it targets make a lock-held scan acceptable.
func cmdBGRewriteAOF(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	if d.AOF == nil || d.AOFPath == "" {
		return resp.Value{}, store.NewSyntaxErrorf("AOF is not enabled")
	}

	err := aof.Rewrite(d.AOFPath, d.AOFCipherKey, func(yield func(args [][]byte)) {
		d.Store.ForEach(func(key string, e *store.Entry) {
			emitEntry(yield, key, e)
			if e.ExpireAtMs != 0 {
				yield([][]byte{[]byte("PEXPIREAT"), []byte(key), []byte(fmt.Sprintf("%d", e.ExpireAtMs))})
			}
		})
	})
	if err != nil {
		return resp.Value{}, store.NewValueErrorf("rewrite failed: %v", err)
	}
	if err := d.AOF.Reopen(d.AOFPath); err != nil {
		return resp.Value{}, store.NewValueErrorf("reopen aof failed: %v", err)
	}
	if d.Metrics != nil {
		d.Metrics.AOFRewrites.Inc()
	}
	return resp.NewSimpleString("Background append only file rewriting started"), nil
}

func emitEntry(yield func(args [][]byte), key string, e *store.Entry) {
	switch e.Kind {
	case store.KindString:
		yield([][]byte{[]byte("SET"), []byte(key), e.Str})
	case store.KindList:
		args := make([][]byte, 0, e.List.Len()+2)
		args = append(args, []byte("RPUSH"), []byte(key))
		for el := e.List.Front(); el != nil; el = el.Next() {
			args = append(args, el.Value.([]byte))
		}
		yield(args)
	case store.KindSet:
		args := make([][]byte, 0, len(e.Set)+2)
		args = append(args, []byte("SADD"), []byte(key))
		for m := range e.Set {
			args = append(args, []byte(m))
		}
		yield(args)
	case store.KindHash:
		args := make([][]byte, 0, len(e.Hash)*2+2)
		args = append(args, []byte("HSET"), []byte(key))
		for f, v := range e.Hash {
			args = append(args, []byte(f), v)
		}
		yield(args)
	case store.KindZSet:
		members := e.ZSet.RangeByRank(0, -1, false)
		args := make([][]byte, 0, len(members)*2+2)
		args = append(args, []byte("ZADD"), []byte(key))
		for _, m := range members {
			args = append(args, []byte(formatScore(m.Score)), []byte(m.Member))
		}
		yield(args)
	}
}
