// Package dispatch implements the command dispatcher: it validates arity,
// classifies each command as Read, Write, or Admin, executes it against
// the Store under the appropriate lock, and — for successful writes —
// appends the original command to the AOF under that same hold so that
// dispatch order and AOF order always coincide.
//
// The dispatcher never touches sockets; connserver feeds it decoded RESP
// arrays and writes back whatever resp.Value it returns.
package dispatch

import (
	"strings"
	"sync/atomic"
	"time"

	"github.com/driftkv/driftkv/internal/aof"
	"github.com/driftkv/driftkv/internal/config"
	"github.com/driftkv/driftkv/internal/metrics"
	"github.com/driftkv/driftkv/internal/resp"
	"github.com/driftkv/driftkv/internal/store"
)

func nowMs() int64 { return time.Now().UnixMilli() }

// Class is a command's concurrency/persistence classification.
type Class int

const (
	ClassRead Class = iota
	ClassWrite
	ClassAdmin
)

// Handler implements one command's behavior against the dispatcher's
// Store. It must not acquire Store locks itself — Execute already holds
// the lock appropriate to the command's Class for the handler's entire
// duration.
type Handler func(d *Dispatcher, conn *ConnState, args [][]byte) (resp.Value, error)

// Command is one entry in the dispatch table.
type Command struct {
	Name  string
	Class Class
	// Arity follows the Redis convention: a positive value is the exact
	// argument count (including the command name); a negative value -n
	// means "at least n arguments".
	Arity   int
	Handler Handler
}

func (c *Command) arityOK(n int) bool {
	if c.Arity >= 0 {
		return n == c.Arity
	}
	return n >= -c.Arity
}

// ConnState is the per-connection state a command handler may need:
// protocol version and whether AOF appends are suppressed (true while
// replaying the AOF itself).
type ConnState struct {
	ProtoVersion resp.ProtoVersion
	SuppressAOF  bool
}

// Dispatcher owns the keyspace, the optional AOF writer, and the optional
// metrics set, and routes commands between them.
type Dispatcher struct {
	Store   *store.Store
	AOF     *aof.Writer
	Metrics *metrics.Metrics

	// AOFPath and AOFCipherKey are carried alongside AOF so BGREWRITEAOF
	// can rewrite the file at rest and reopen the Writer against it.
	AOFPath      string
	AOFCipherKey []byte

	// degraded is set once an AOF append fails under AOFFsyncAlways. While
	// set, every write short-circuits to ErrMisconf instead of touching
	// the Store; it only clears on restart.
	degraded atomic.Bool

	registry map[string]*Command
}

// New creates a Dispatcher with the full built-in command table registered.
func New(s *store.Store) *Dispatcher {
	d := &Dispatcher{Store: s, registry: make(map[string]*Command)}
	registerConnCommands(d)
	registerKeyCommands(d)
	registerStringCommands(d)
	registerListCommands(d)
	registerSetCommands(d)
	registerHashCommands(d)
	registerZSetCommands(d)
	registerServerCommands(d)
	return d
}

func (d *Dispatcher) register(cmd *Command) {
	d.registry[cmd.Name] = cmd
}

// Execute runs one command, given its arguments as RESP bulk strings
// (args[0] is the command name). It never panics on malformed input —
// errors are returned as resp Error values, matching RESP's contract that
// a failed command does not close the connection.
func (d *Dispatcher) Execute(conn *ConnState, args [][]byte) resp.Value {
	if len(args) == 0 {
		return errValue(store.ErrSyntax)
	}
	name := strings.ToUpper(string(args[0]))
	cmd, ok := d.registry[name]
	if !ok {
		return errValue(store.UnknownCommand(string(args[0])))
	}
	if !cmd.arityOK(len(args)) {
		return errValue(store.WrongArity(name))
	}
	if cmd.Class == ClassWrite && d.degraded.Load() {
		return errValue(store.ErrMisconf)
	}

	switch cmd.Class {
	case ClassWrite:
		d.Store.Lock()
		defer d.Store.Unlock()
	case ClassRead:
		d.Store.RLock()
		defer d.Store.RUnlock()
	case ClassAdmin:
		d.Store.Lock()
		defer d.Store.Unlock()
	}

	reply, err := cmd.Handler(d, conn, args)
	if d.Metrics != nil {
		d.Metrics.CommandsTotal.WithLabelValues(name, classLabel(cmd.Class)).Inc()
	}
	if err != nil {
		if d.Metrics != nil {
			d.Metrics.CommandErrors.WithLabelValues(errKindLabel(err)).Inc()
		}
		return errValue(err)
	}

	if cmd.Class == ClassWrite && d.AOF != nil && !conn.SuppressAOF {
		if aerr := d.AOF.Append(args); aerr != nil {
			// The mutation already succeeded against the Store, but under
			// AOFFsyncAlways a failed append means durability was not
			// actually achieved, so this reply must surface as an error
			// instead of the handler's success value. Further writes are
			// refused with ErrMisconf until restart.
			if d.AOF.Policy() == config.AOFFsyncAlways {
				d.degraded.Store(true)
			}
			if d.Metrics != nil {
				d.Metrics.CommandErrors.WithLabelValues(errKindLabel(aerr)).Inc()
			}
			return errValue(store.NewIOErrorf("error writing to the append only file: %v", aerr))
		}
		if d.Metrics != nil {
			d.Metrics.AOFWritesTotal.Inc()
		}
	}
	return reply
}

func classLabel(c Class) string {
	switch c {
	case ClassWrite:
		return "write"
	case ClassAdmin:
		return "admin"
	default:
		return "read"
	}
}

func errKindLabel(err error) string {
	if se, ok := err.(*store.Error); ok {
		return se.Prefix()
	}
	return "ERR"
}

func errValue(err error) resp.Value {
	if se, ok := err.(*store.Error); ok {
		return resp.NewError(se.Reply())
	}
	return resp.NewError("ERR " + err.Error())
}
