package dispatch

import (
	"strconv"
	"strings"

	"github.com/driftkv/driftkv/internal/resp"
	"github.com/driftkv/driftkv/internal/store"
)

func registerKeyCommands(d *Dispatcher) {
	d.register(&Command{Name: "DEL", Class: ClassWrite, Arity: -2, Handler: cmdDel})
	d.register(&Command{Name: "EXISTS", Class: ClassRead, Arity: -2, Handler: cmdExists})
	d.register(&Command{Name: "EXPIRE", Class: ClassWrite, Arity: -3, Handler: cmdExpire})
	d.register(&Command{Name: "PEXPIRE", Class: ClassWrite, Arity: -3, Handler: cmdPExpire})
	d.register(&Command{Name: "EXPIREAT", Class: ClassWrite, Arity: -3, Handler: cmdExpireAt})
	d.register(&Command{Name: "PEXPIREAT", Class: ClassWrite, Arity: -3, Handler: cmdPExpireAt})
	d.register(&Command{Name: "TTL", Class: ClassRead, Arity: 2, Handler: cmdTTL})
	d.register(&Command{Name: "PTTL", Class: ClassRead, Arity: 2, Handler: cmdPTTL})
	d.register(&Command{Name: "PERSIST", Class: ClassWrite, Arity: 2, Handler: cmdPersist})
	d.register(&Command{Name: "TYPE", Class: ClassRead, Arity: 2, Handler: cmdType})
	d.register(&Command{Name: "KEYS", Class: ClassRead, Arity: 2, Handler: cmdKeys})
	d.register(&Command{Name: "RENAME", Class: ClassWrite, Arity: 3, Handler: cmdRename})
}

func cmdDel(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	keys := toStrings(args[1:])
	return resp.NewInteger(int64(d.Store.Del(keys...))), nil
}

func cmdExists(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	n := 0
	for _, a := range args[1:] {
		if d.Store.Exists(string(a)) {
			n++
		}
	}
	return resp.NewInteger(int64(n)), nil
}

func parseIntArg(arg []byte) (int64, error) {
	n, err := strconv.ParseInt(string(arg), 10, 64)
	if err != nil {
		return 0, store.ErrNotInteger
	}
	return n, nil
}

func expireBool(ok bool) resp.Value {
	if ok {
		return resp.NewInteger(1)
	}
	return resp.NewInteger(0)
}

// parseExpireFlags parses the trailing [NX|XX|GT|LT] option shared by the
// EXPIRE family, mirroring ZADD's mutual-exclusion rules: NX cannot combine
// with XX, GT, or LT.
func parseExpireFlags(args [][]byte) (store.ExpireFlags, error) {
	var flags store.ExpireFlags
	for _, a := range args {
		switch strings.ToUpper(string(a)) {
		case "NX":
			flags.NX = true
		case "XX":
			flags.XX = true
		case "GT":
			flags.GT = true
		case "LT":
			flags.LT = true
		default:
			return flags, store.ErrSyntax
		}
	}
	if flags.NX && (flags.XX || flags.GT || flags.LT) {
		return flags, store.ErrSyntax
	}
	if flags.GT && flags.LT {
		return flags, store.ErrSyntax
	}
	return flags, nil
}

func cmdExpire(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	secs, err := parseIntArg(args[2])
	if err != nil {
		return resp.Value{}, err
	}
	flags, err := parseExpireFlags(args[3:])
	if err != nil {
		return resp.Value{}, err
	}
	return expireBool(d.Store.Expire(string(args[1]), nowMs()+secs*1000, flags)), nil
}

func cmdPExpire(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	ms, err := parseIntArg(args[2])
	if err != nil {
		return resp.Value{}, err
	}
	flags, err := parseExpireFlags(args[3:])
	if err != nil {
		return resp.Value{}, err
	}
	return expireBool(d.Store.Expire(string(args[1]), nowMs()+ms, flags)), nil
}

func cmdExpireAt(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	secs, err := parseIntArg(args[2])
	if err != nil {
		return resp.Value{}, err
	}
	flags, err := parseExpireFlags(args[3:])
	if err != nil {
		return resp.Value{}, err
	}
	return expireBool(d.Store.Expire(string(args[1]), secs*1000, flags)), nil
}

func cmdPExpireAt(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	ms, err := parseIntArg(args[2])
	if err != nil {
		return resp.Value{}, err
	}
	flags, err := parseExpireFlags(args[3:])
	if err != nil {
		return resp.Value{}, err
	}
	return expireBool(d.Store.Expire(string(args[1]), ms, flags)), nil
}

func cmdTTL(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	ttl := d.Store.TTLMs(string(args[1]))
	if ttl < 0 {
		return resp.NewInteger(ttl), nil
	}
	return resp.NewInteger((ttl + 999) / 1000), nil
}

func cmdPTTL(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	return resp.NewInteger(d.Store.TTLMs(string(args[1]))), nil
}

func cmdPersist(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	return expireBool(d.Store.Persist(string(args[1]))), nil
}

func cmdType(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	kind, ok := d.Store.TypeOf(string(args[1]))
	if !ok {
		return resp.NewSimpleString("none"), nil
	}
	return resp.NewSimpleString(kind.String()), nil
}

func cmdKeys(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	keys := d.Store.Keys(string(args[1]))
	return stringsToBulkArray(keys), nil
}

func cmdRename(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	if !d.Store.Rename(string(args[1]), string(args[2])) {
		return resp.Value{}, store.NewValueErrorf("no such key")
	}
	return resp.NewSimpleString("OK"), nil
}

func toStrings(args [][]byte) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = string(a)
	}
	return out
}

func stringsToBulkArray(ss []string) resp.Value {
	items := make([]resp.Value, len(ss))
	for i, s := range ss {
		items[i] = resp.NewBulkStringFrom(s)
	}
	return resp.NewArray(items)
}

func bytesToBulkArray(bs [][]byte) resp.Value {
	items := make([]resp.Value, len(bs))
	for i, b := range bs {
		if b == nil {
			items[i] = resp.NullBulkString()
		} else {
			items[i] = resp.NewBulkString(b)
		}
	}
	return resp.NewArray(items)
}
