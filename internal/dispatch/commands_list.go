package dispatch

import (
	"github.com/driftkv/driftkv/internal/resp"
	"github.com/driftkv/driftkv/internal/store"
)

func registerListCommands(d *Dispatcher) {
	d.register(&Command{Name: "LPUSH", Class: ClassWrite, Arity: -3, Handler: cmdLPush})
	d.register(&Command{Name: "RPUSH", Class: ClassWrite, Arity: -3, Handler: cmdRPush})
	d.register(&Command{Name: "LPOP", Class: ClassWrite, Arity: -2, Handler: cmdLPop})
	d.register(&Command{Name: "RPOP", Class: ClassWrite, Arity: -2, Handler: cmdRPop})
	d.register(&Command{Name: "LLEN", Class: ClassRead, Arity: 2, Handler: cmdLLen})
	d.register(&Command{Name: "LRANGE", Class: ClassRead, Arity: 4, Handler: cmdLRange})
	d.register(&Command{Name: "LINDEX", Class: ClassRead, Arity: 3, Handler: cmdLIndex})
	d.register(&Command{Name: "LSET", Class: ClassWrite, Arity: 4, Handler: cmdLSet})
	d.register(&Command{Name: "LREM", Class: ClassWrite, Arity: 4, Handler: cmdLRem})
}

func cmdLPush(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	n, err := d.Store.LPush(string(args[1]), args[2:]...)
	if err != nil {
		return resp.Value{}, err
	}
	return resp.NewInteger(int64(n)), nil
}

func cmdRPush(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	n, err := d.Store.RPush(string(args[1]), args[2:]...)
	if err != nil {
		return resp.Value{}, err
	}
	return resp.NewInteger(int64(n)), nil
}

func popCount(args [][]byte) (int, error) {
	if len(args) < 3 {
		return 1, nil
	}
	n, err := parseIntArg(args[2])
	if err != nil || n < 0 {
		return 0, store.ErrNotInteger
	}
	return int(n), nil
}

func cmdLPop(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	count, err := popCount(args)
	if err != nil {
		return resp.Value{}, err
	}
	explicit := len(args) >= 3
	vals, err := d.Store.LPop(string(args[1]), count)
	if err != nil {
		return resp.Value{}, err
	}
	if len(vals) == 0 && !explicit {
		return resp.NullBulkString(), nil
	}
	if !explicit {
		return resp.NewBulkString(vals[0]), nil
	}
	if vals == nil {
		return resp.NullArray(), nil
	}
	return bytesToBulkArray(vals), nil
}

func cmdRPop(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	count, err := popCount(args)
	if err != nil {
		return resp.Value{}, err
	}
	explicit := len(args) >= 3
	vals, err := d.Store.RPop(string(args[1]), count)
	if err != nil {
		return resp.Value{}, err
	}
	if len(vals) == 0 && !explicit {
		return resp.NullBulkString(), nil
	}
	if !explicit {
		return resp.NewBulkString(vals[0]), nil
	}
	if vals == nil {
		return resp.NullArray(), nil
	}
	return bytesToBulkArray(vals), nil
}

func cmdLLen(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	n, err := d.Store.LLen(string(args[1]))
	if err != nil {
		return resp.Value{}, err
	}
	return resp.NewInteger(int64(n)), nil
}

func cmdLRange(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	start, err := parseIntArg(args[2])
	if err != nil {
		return resp.Value{}, err
	}
	stop, err := parseIntArg(args[3])
	if err != nil {
		return resp.Value{}, err
	}
	vals, err := d.Store.LRange(string(args[1]), int(start), int(stop))
	if err != nil {
		return resp.Value{}, err
	}
	return bytesToBulkArray(vals), nil
}

func cmdLIndex(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	idx, err := parseIntArg(args[2])
	if err != nil {
		return resp.Value{}, err
	}
	val, ok, err := d.Store.LIndex(string(args[1]), int(idx))
	if err != nil {
		return resp.Value{}, err
	}
	if !ok {
		return resp.NullBulkString(), nil
	}
	return resp.NewBulkString(val), nil
}

func cmdLSet(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	idx, err := parseIntArg(args[2])
	if err != nil {
		return resp.Value{}, err
	}
	if err := d.Store.LSet(string(args[1]), int(idx), args[3]); err != nil {
		return resp.Value{}, err
	}
	return resp.NewSimpleString("OK"), nil
}

func cmdLRem(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	count, err := parseIntArg(args[2])
	if err != nil {
		return resp.Value{}, err
	}
	n, err := d.Store.LRem(string(args[1]), int(count), args[3])
	if err != nil {
		return resp.Value{}, err
	}
	return resp.NewInteger(int64(n)), nil
}
