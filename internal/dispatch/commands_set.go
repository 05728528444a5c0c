package dispatch

import "github.com/driftkv/driftkv/internal/resp"

func registerSetCommands(d *Dispatcher) {
	d.register(&Command{Name: "SADD", Class: ClassWrite, Arity: -3, Handler: cmdSAdd})
	d.register(&Command{Name: "SREM", Class: ClassWrite, Arity: -3, Handler: cmdSRem})
	d.register(&Command{Name: "SISMEMBER", Class: ClassRead, Arity: 3, Handler: cmdSIsMember})
	d.register(&Command{Name: "SMEMBERS", Class: ClassRead, Arity: 2, Handler: cmdSMembers})
	d.register(&Command{Name: "SCARD", Class: ClassRead, Arity: 2, Handler: cmdSCard})
	d.register(&Command{Name: "SINTER", Class: ClassRead, Arity: -2, Handler: cmdSInter})
	d.register(&Command{Name: "SUNION", Class: ClassRead, Arity: -2, Handler: cmdSUnion})
	d.register(&Command{Name: "SDIFF", Class: ClassRead, Arity: -2, Handler: cmdSDiff})
}

func cmdSAdd(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	n, err := d.Store.SAdd(string(args[1]), toStrings(args[2:])...)
	if err != nil {
		return resp.Value{}, err
	}
	return resp.NewInteger(int64(n)), nil
}

func cmdSRem(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	n, err := d.Store.SRem(string(args[1]), toStrings(args[2:])...)
	if err != nil {
		return resp.Value{}, err
	}
	return resp.NewInteger(int64(n)), nil
}

func cmdSIsMember(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	ok, err := d.Store.SIsMember(string(args[1]), string(args[2]))
	if err != nil {
		return resp.Value{}, err
	}
	return expireBool(ok), nil
}

func cmdSMembers(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	members, err := d.Store.SMembers(string(args[1]))
	if err != nil {
		return resp.Value{}, err
	}
	return stringsToBulkArray(members), nil
}

func cmdSCard(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	n, err := d.Store.SCard(string(args[1]))
	if err != nil {
		return resp.Value{}, err
	}
	return resp.NewInteger(int64(n)), nil
}

func cmdSInter(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	members, err := d.Store.SInter(toStrings(args[1:])...)
	if err != nil {
		return resp.Value{}, err
	}
	return stringsToBulkArray(members), nil
}

func cmdSUnion(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	members, err := d.Store.SUnion(toStrings(args[1:])...)
	if err != nil {
		return resp.Value{}, err
	}
	return stringsToBulkArray(members), nil
}

func cmdSDiff(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error) {
	members, err := d.Store.SDiff(toStrings(args[1:])...)
	if err != nil {
		return resp.Value{}, err
	}
	return stringsToBulkArray(members), nil
}
