package dispatch

import (
	"github.com/driftkv/driftkv/internal/resp"
	"github.com/driftkv/driftkv/internal/store"
)

func registerHashCommands(d *Dispatcher) {
	d.register(&Command{Name: "HSET", Class: ClassWrite, Arity: -4, Handler: cmdHSet})
	d.register(&Command{Name: "HGET", Class: ClassRead, Arity: 3, Handler: cmdHGet})
	d.register(&Command{Name: "HDEL", Class: ClassWrite, Arity: -3, Handler: cmdHDel})
	d.register(&Command{Name: "HMGET", Class: ClassRead, Arity: -3, Handler: cmdHMGet})
	d.register(&Command{Name: "HGETALL", Class: ClassRead, Arity: 2, Handler: cmdHGetAll})
	d.register(&Command{Name: "HKEYS", Class: ClassRead, Arity: 2, Handler: cmdHKeys})
	d.register(&Command{Name: "HVALS", Class: ClassRead, Arity: 2, Handler: cmdHVals})
	d.register(&Command{Name: "HLEN", Class: ClassRead, Arity: 2, Handler: cmdHLen})
	d.register(&Command{Name: "HEXISTS", Class: ClassRead, Arity: 3, Handler: cmdHExists})
	d.register(&Command{Name: "HINCRBY", Class: ClassWrite, Arity: 4, Handler: cmdHIncrBy})
}

func cmdHSet(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	if (len(args)-2)%2 != 0 {
		return resp.Value{}, store.ErrSyntax
	}
	fields := make(map[string][]byte, (len(args)-2)/2)
	for i := 2; i < len(args); i += 2 {
		fields[string(args[i])] = args[i+1]
	}
	n, err := d.Store.HSet(string(args[1]), fields)
	if err != nil {
		return resp.Value{}, err
	}
	return resp.NewInteger(int64(n)), nil
}

func cmdHGet(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	val, ok, err := d.Store.HGet(string(args[1]), string(args[2]))
	if err != nil {
		return resp.Value{}, err
	}
	if !ok {
		return resp.NullBulkString(), nil
	}
	return resp.NewBulkString(val), nil
}

func cmdHDel(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	n, err := d.Store.HDel(string(args[1]), toStrings(args[2:])...)
	if err != nil {
		return resp.Value{}, err
	}
	return resp.NewInteger(int64(n)), nil
}

func cmdHMGet(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	vals, err := d.Store.HMGet(string(args[1]), toStrings(args[2:]))
	if err != nil {
		return resp.Value{}, err
	}
	return bytesToBulkArray(vals), nil
}

func cmdHGetAll(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	m, err := d.Store.HGetAll(string(args[1]))
	if err != nil {
		return resp.Value{}, err
	}
	pairs := make([]resp.Pair, 0, len(m))
	for f, v := range m {
		pairs = append(pairs, resp.Pair{Key: resp.NewBulkStringFrom(f), Val: resp.NewBulkString(v)})
	}
	return resp.NewMap(pairs), nil
}

func cmdHKeys(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	keys, err := d.Store.HKeys(string(args[1]))
	if err != nil {
		return resp.Value{}, err
	}
	return stringsToBulkArray(keys), nil
}

func cmdHVals(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	vals, err := d.Store.HVals(string(args[1]))
	if err != nil {
		return resp.Value{}, err
	}
	return bytesToBulkArray(vals), nil
}

func cmdHLen(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	n, err := d.Store.HLen(string(args[1]))
	if err != nil {
		return resp.Value{}, err
	}
	return resp.NewInteger(int64(n)), nil
}

func cmdHExists(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	ok, err := d.Store.HExists(string(args[1]), string(args[2]))
	if err != nil {
		return resp.Value{}, err
	}
	return expireBool(ok), nil
}

func cmdHIncrBy(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	delta, err := parseIntArg(args[3])
	if err != nil {
		return resp.Value{}, err
	}
	n, err := d.Store.HIncrBy(string(args[1]), string(args[2]), delta)
	if err != nil {
		return resp.Value{}, err
	}
	return resp.NewInteger(n), nil
}
