package dispatch

import (
	"strconv"
	"strings"

	"github.com/driftkv/driftkv/internal/resp"
	"github.com/driftkv/driftkv/internal/store"
)

func registerStringCommands(d *Dispatcher) {
	d.register(&Command{Name: "GET", Class: ClassRead, Arity: 2, Handler: cmdGet})
	d.register(&Command{Name: "SET", Class: ClassWrite, Arity: -3, Handler: cmdSet})
	d.register(&Command{Name: "GETSET", Class: ClassWrite, Arity: 3, Handler: cmdGetSet})
	d.register(&Command{Name: "APPEND", Class: ClassWrite, Arity: 3, Handler: cmdAppend})
	d.register(&Command{Name: "STRLEN", Class: ClassRead, Arity: 2, Handler: cmdStrLen})
	d.register(&Command{Name: "INCR", Class: ClassWrite, Arity: 2, Handler: cmdIncr})
	d.register(&Command{Name: "DECR", Class: ClassWrite, Arity: 2, Handler: cmdDecr})
	d.register(&Command{Name: "INCRBY", Class: ClassWrite, Arity: 3, Handler: cmdIncrBy})
	d.register(&Command{Name: "DECRBY", Class: ClassWrite, Arity: 3, Handler: cmdDecrBy})
	d.register(&Command{Name: "MGET", Class: ClassRead, Arity: -2, Handler: cmdMGet})
	d.register(&Command{Name: "MSET", Class: ClassWrite, Arity: -3, Handler: cmdMSet})
	d.register(&Command{Name: "INCRBYFLOAT", Class: ClassWrite, Arity: 3, Handler: cmdIncrByFloat})
}

func cmdGet(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	val, ok, err := d.Store.Get(string(args[1]))
	if err != nil {
		return resp.Value{}, err
	}
	if !ok {
		return resp.NullBulkString(), nil
	}
	return resp.NewBulkString(val), nil
}

// cmdSet implements SET key value [NX|XX] [GET] [EX sec|PX ms|EXAT ts|PXAT
// ts-ms|KEEPTTL]. NX/XX gate on existence; GET returns the previous value
// instead of +OK.
func cmdSet(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	key, val := string(args[1]), args[2]
	var nx, xx, getOpt, keepTTL bool
	var expireAtMs int64

	i := 3
	for i < len(args) {
		opt := strings.ToUpper(string(args[i]))
		switch opt {
		case "NX":
			nx = true
		case "XX":
			xx = true
		case "GET":
			getOpt = true
		case "KEEPTTL":
			keepTTL = true
		case "EX", "PX", "EXAT", "PXAT":
			if i+1 >= len(args) {
				return resp.Value{}, store.ErrSyntax
			}
			n, err := strconv.ParseInt(string(args[i+1]), 10, 64)
			if err != nil {
				return resp.Value{}, store.ErrNotInteger
			}
			switch opt {
			case "EX":
				expireAtMs = nowMs() + n*1000
			case "PX":
				expireAtMs = nowMs() + n
			case "EXAT":
				expireAtMs = n * 1000
			case "PXAT":
				expireAtMs = n
			}
			i++
		default:
			return resp.Value{}, store.ErrSyntax
		}
		i++
	}
	if nx && xx {
		return resp.Value{}, store.ErrSyntax
	}

	var existing []byte
	if getOpt {
		v, _, err := d.Store.Get(key)
		if err != nil {
			return resp.Value{}, err
		}
		existing = v
	}
	exists := d.Store.Exists(key)

	if (nx && exists) || (xx && !exists) {
		if getOpt {
			if existing == nil {
				return resp.NullBulkString(), nil
			}
			return resp.NewBulkString(existing), nil
		}
		return resp.NullBulkString(), nil
	}

	if keepTTL && exists {
		expireAtMs = d.Store.ExpireAtMs(key)
	}
	d.Store.Set(key, val, expireAtMs)

	if getOpt {
		if existing == nil {
			return resp.NullBulkString(), nil
		}
		return resp.NewBulkString(existing), nil
	}
	return resp.NewSimpleString("OK"), nil
}

func cmdGetSet(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	old, err := d.Store.GetSet(string(args[1]), args[2])
	if err != nil {
		return resp.Value{}, err
	}
	if old == nil {
		return resp.NullBulkString(), nil
	}
	return resp.NewBulkString(old), nil
}

func cmdAppend(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	n, err := d.Store.Append(string(args[1]), args[2])
	if err != nil {
		return resp.Value{}, err
	}
	return resp.NewInteger(int64(n)), nil
}

func cmdStrLen(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	n, err := d.Store.StrLen(string(args[1]))
	if err != nil {
		return resp.Value{}, err
	}
	return resp.NewInteger(int64(n)), nil
}

func cmdIncr(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	n, err := d.Store.IncrBy(string(args[1]), 1)
	if err != nil {
		return resp.Value{}, err
	}
	return resp.NewInteger(n), nil
}

func cmdDecr(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	n, err := d.Store.IncrBy(string(args[1]), -1)
	if err != nil {
		return resp.Value{}, err
	}
	return resp.NewInteger(n), nil
}

func cmdIncrBy(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	delta, err := parseIntArg(args[2])
	if err != nil {
		return resp.Value{}, err
	}
	n, err := d.Store.IncrBy(string(args[1]), delta)
	if err != nil {
		return resp.Value{}, err
	}
	return resp.NewInteger(n), nil
}

func cmdDecrBy(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	delta, err := parseIntArg(args[2])
	if err != nil {
		return resp.Value{}, err
	}
	n, err := d.Store.IncrBy(string(args[1]), -delta)
	if err != nil {
		return resp.Value{}, err
	}
	return resp.NewInteger(n), nil
}

func cmdIncrByFloat(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	delta, err := parseScore(args[2])
	if err != nil {
		return resp.Value{}, err
	}
	n, err := d.Store.IncrByFloat(string(args[1]), delta)
	if err != nil {
		return resp.Value{}, err
	}
	return resp.NewBulkStringFrom(formatScore(n)), nil
}

func cmdMGet(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	keys := toStrings(args[1:])
	return bytesToBulkArray(d.Store.MGet(keys)), nil
}

func cmdMSet(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	if (len(args)-1)%2 != 0 {
		return resp.Value{}, store.ErrSyntax
	}
	pairs := make(map[string][]byte, (len(args)-1)/2)
	for i := 1; i < len(args); i += 2 {
		pairs[string(args[i])] = args[i+1]
	}
	d.Store.MSet(pairs)
	return resp.NewSimpleString("OK"), nil
}
