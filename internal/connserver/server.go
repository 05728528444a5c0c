// Package connserver accepts client TCP connections and drives each one's
// read-decode-dispatch-write cycle against a dispatch.Dispatcher.
//
// It implements a subset of the Redis RESP protocol using the resp and
// dispatch packages; this package owns sockets and framing, nothing else.
package connserver

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"github.com/driftkv/driftkv/internal/dispatch"
	"github.com/driftkv/driftkv/internal/metrics"
	"github.com/driftkv/driftkv/internal/resp"
	"github.com/driftkv/driftkv/internal/telemetry/logger"
)

// Config holds the listener's runtime settings.
type Config struct {
	// Bind is the TCP address to listen on, e.g. "0.0.0.0:6379".
	Bind string
	// MaxConnections caps concurrent client connections; 0 means unlimited.
	MaxConnections int
	// MaxCommandsPerSec is the per-connection token-bucket rate limit; 0
	// disables rate limiting.
	MaxCommandsPerSec float64
	// ReadTimeout bounds how long a read for a single command may block
	// once its first byte has arrived (slowloris protection).
	ReadTimeout time.Duration
	// WriteTimeout bounds how long writing a reply may block.
	WriteTimeout time.Duration
	// IdleTimeout bounds how long a connection may sit with no command in
	// flight before being closed.
	IdleTimeout time.Duration
}

// DefaultConfig returns conservative listener defaults.
func DefaultConfig() Config {
	return Config{
		Bind:         "127.0.0.1:6379",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  5 * time.Minute,
	}
}

// Server accepts RESP connections and dispatches their commands.
type Server struct {
	cfg     Config
	d       *dispatch.Dispatcher
	log     logger.Logger
	metrics *metrics.Metrics

	ln      net.Listener
	wg      sync.WaitGroup
	running atomic.Bool

	connCount atomic.Int64
}

// New creates a Server bound to no socket yet; call Start to listen.
func New(cfg Config, d *dispatch.Dispatcher, log logger.Logger, m *metrics.Metrics) *Server {
	return &Server{cfg: cfg, d: d, log: log, metrics: m}
}

// Start begins listening and accepting connections; it returns once the
// listener is up, and accepts in a background goroutine.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Bind)
	if err != nil {
		return err
	}
	s.ln = ln
	s.running.Store(true)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.acceptLoop(ctx)
	}()

	s.log.Info("listening for client connections", "bind", s.cfg.Bind)
	return nil
}

// Shutdown stops accepting new connections and waits, up to ctx's deadline,
// for in-flight connections to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	s.running.Store(false)
	if s.ln != nil {
		_ = s.ln.Close()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) acceptLoop(ctx context.Context) {
	for {
		c, err := s.ln.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return
			}
			select {
			case <-ctx.Done():
				return
			default:
			}
			s.log.Warn("accept error", "error", err)
			continue
		}

		if s.cfg.MaxConnections > 0 && int(s.connCount.Load()) >= s.cfg.MaxConnections {
			if s.metrics != nil {
				s.metrics.ConnectionsDenied.Inc()
			}
			_ = c.Close()
			continue
		}

		s.connCount.Add(1)
		if s.metrics != nil {
			s.metrics.ConnectionsActive.Inc()
			s.metrics.ConnectionsTotal.Inc()
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.connCount.Add(-1)
			defer func() {
				if s.metrics != nil {
					s.metrics.ConnectionsActive.Dec()
				}
			}()
			s.serve(c)
		}()
	}
}

// serve drives one connection's lifetime: decode a command, dispatch it,
// write the reply, repeat. Each connection gets a correlation ID threaded
// through its logger so a client's command stream is traceable in logs
// without needing to log the remote address on every line.
func (s *Server) serve(c net.Conn) {
	defer c.Close()

	connID := ulid.Make().String()
	log := s.log.With("conn_id", connID, "remote", c.RemoteAddr().String())

	var limiter *rate.Limiter
	if s.cfg.MaxCommandsPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(s.cfg.MaxCommandsPerSec), int(s.cfg.MaxCommandsPerSec))
	}

	state := &dispatch.ConnState{ProtoVersion: resp.RESP2}
	lim := resp.DefaultLimits()

	var pending []byte
	readBuf := make([]byte, 64*1024)

	for {
		if err := c.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout)); err != nil {
			return
		}

		value, ok := nextValue(c, &pending, readBuf, lim, s.cfg.ReadTimeout, log)
		if !ok {
			return
		}

		args, ok := commandArgs(value)
		if !ok {
			writeReply(c, resp.NewError("ERR unknown command format"), state.ProtoVersion, s.cfg.WriteTimeout, log)
			continue
		}

		if limiter != nil {
			if err := limiter.Wait(context.Background()); err != nil {
				writeReply(c, resp.NewError("ERR rate limit exceeded"), state.ProtoVersion, s.cfg.WriteTimeout, log)
				continue
			}
		}

		if s.metrics != nil {
			start := time.Now()
			reply := s.d.Execute(state, args)
			s.metrics.CommandDuration.WithLabelValues(commandName(args)).Observe(time.Since(start).Seconds())
			if !writeReply(c, reply, state.ProtoVersion, s.cfg.WriteTimeout, log) {
				return
			}
		} else {
			reply := s.d.Execute(state, args)
			if !writeReply(c, reply, state.ProtoVersion, s.cfg.WriteTimeout, log) {
				return
			}
		}
	}
}

func commandName(args [][]byte) string {
	if len(args) == 0 {
		return ""
	}
	return string(args[0])
}

// nextValue decodes a single RESP value from the connection, reading more
// bytes as needed. It returns false when the connection should be closed
// (EOF, timeout, protocol error, or oversized input).
func nextValue(c net.Conn, pending *[]byte, readBuf []byte, lim resp.Limits, readTimeout time.Duration, log logger.Logger) (resp.Value, bool) {
	for {
		if len(*pending) > 0 {
			res := resp.Parse(*pending, lim)
			switch res.Outcome {
			case resp.Complete:
				v := res.Value
				*pending = (*pending)[res.Consumed:]
				return v, true
			case resp.Invalid:
				log.Debug("protocol error", "error", res.Err)
				return resp.Value{}, false
			case resp.Incomplete:
				// fall through to read more
			}
		}

		if len(*pending) > 0 {
			if err := c.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
				return resp.Value{}, false
			}
		}
		n, err := c.Read(readBuf)
		if n > 0 {
			*pending = append(*pending, readBuf[:n]...)
		}
		if err != nil {
			if errors.Is(err, io.EOF) && n > 0 {
				continue
			}
			return resp.Value{}, false
		}
	}
}

func commandArgs(v resp.Value) ([][]byte, bool) {
	if v.Type != resp.TypeArray || !v.ArrSet {
		return nil, false
	}
	args := make([][]byte, 0, len(v.Array))
	for _, el := range v.Array {
		if el.Type == resp.TypeBulkString && el.BulkSet {
			args = append(args, el.Bulk)
		} else if el.Type == resp.TypeSimpleString {
			args = append(args, []byte(el.Str))
		}
	}
	if len(args) == 0 {
		return nil, false
	}
	return args, true
}

func writeReply(c net.Conn, v resp.Value, ver resp.ProtoVersion, timeout time.Duration, log logger.Logger) bool {
	if err := c.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
		return false
	}
	var buf bytes.Buffer
	resp.Encode(&buf, v, ver)
	if _, err := c.Write(buf.Bytes()); err != nil {
		log.Debug("write error", "error", err)
		return false
	}
	return true
}
