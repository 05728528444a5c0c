package dispatch

import (
	"strconv"
	"strings"

	"github.com/driftkv/driftkv/internal/resp"
	"github.com/driftkv/driftkv/internal/store"
)

func registerConnCommands(d *Dispatcher) {
	d.register(&Command{Name: "PING", Class: ClassRead, Arity: -1, Handler: cmdPing})
	d.register(&Command{Name: "ECHO", Class: ClassRead, Arity: 2, Handler: cmdEcho})
	d.register(&Command{Name: "HELLO", Class: ClassRead, Arity: -1, Handler: cmdHello})
	d.register(&Command{Name: "SELECT", Class: ClassRead, Arity: 2, Handler: cmdSelect})
	d.register(&Command{Name: "CLIENT", Class: ClassRead, Arity: -2, Handler: cmdClient})
	d.register(&Command{Name: "QUIT", Class: ClassRead, Arity: 1, Handler: cmdQuit})
	d.register(&Command{Name: "COMMAND", Class: ClassRead, Arity: -1, Handler: cmdCommand})
}

func cmdPing(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	switch len(args) {
	case 1:
		return resp.NewSimpleString("PONG"), nil
	case 2:
		return resp.NewBulkString(args[1]), nil
	default:
		return resp.Value{}, store.WrongArity("PING")
	}
}

func cmdEcho(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	return resp.NewBulkString(args[1]), nil
}

// cmdHello implements the RESP2/RESP3 handshake command: HELLO [protover
// [AUTH user pass] [SETNAME name]]. Only the protocol-version switch is
// meaningful here — authentication is out of scope.
func cmdHello(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	ver := conn.ProtoVersion
	if len(args) >= 2 {
		n, err := strconv.Atoi(string(args[1]))
		if err != nil || (n != 2 && n != 3) {
			return resp.Value{}, store.NewSyntaxErrorf("unsupported protocol version")
		}
		ver = resp.ProtoVersion(n)
	}
	conn.ProtoVersion = ver

	pairs := []resp.Pair{
		{Key: resp.NewBulkStringFrom("server"), Val: resp.NewBulkStringFrom("driftkv")},
		{Key: resp.NewBulkStringFrom("version"), Val: resp.NewBulkStringFrom("1.0.0")},
		{Key: resp.NewBulkStringFrom("proto"), Val: resp.NewInteger(int64(ver))},
		{Key: resp.NewBulkStringFrom("mode"), Val: resp.NewBulkStringFrom("standalone")},
		{Key: resp.NewBulkStringFrom("role"), Val: resp.NewBulkStringFrom("master")},
		{Key: resp.NewBulkStringFrom("modules"), Val: resp.NewArray(nil)},
	}
	return resp.NewMap(pairs), nil
}

func cmdSelect(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	n, err := strconv.Atoi(string(args[1]))
	if err != nil {
		return resp.Value{}, store.ErrNotInteger
	}
	if n != 0 {
		return resp.Value{}, store.NewSyntaxErrorf("DB index is out of range")
	}
	return resp.NewSimpleString("OK"), nil
}

// cmdClient implements a minimal CLIENT subset: GETNAME, SETNAME (no-ops
// against per-connection state connserver doesn't expose here), and INFO.
func cmdClient(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	sub := strings.ToUpper(string(args[1]))
	switch sub {
	case "GETNAME":
		return resp.NewBulkStringFrom(""), nil
	case "SETNAME":
		return resp.NewSimpleString("OK"), nil
	case "LIST", "INFO":
		return resp.NewBulkStringFrom(""), nil
	case "NO-EVICT", "NO-TOUCH", "REPLY":
		return resp.NewSimpleString("OK"), nil
	default:
		return resp.Value{}, store.NewSyntaxErrorf("unknown CLIENT subcommand '%s'", args[1])
	}
}

func cmdQuit(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	return resp.NewSimpleString("OK"), nil
}

// cmdCommand implements a minimal COMMAND subset sufficient for clients
// that probe it during connect: COMMAND COUNT and a bare COMMAND returning
// an empty array (real command metadata is not modeled).
func cmdCommand(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	if len(args) >= 2 && strings.EqualFold(string(args[1]), "COUNT") {
		return resp.NewInteger(int64(len(d.registry))), nil
	}
	if len(args) >= 2 && strings.EqualFold(string(args[1]), "DOCS") {
		return resp.NewMap(nil), nil
	}
	return resp.NewArray(nil), nil
}
