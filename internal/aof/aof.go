// Package aof implements append-only-file persistence: appending applied
// write commands in RESP wire format, replaying them to rebuild state on
// startup, and compacting the file via BGREWRITEAOF.
//
// Every Append call here happens under the same Store write-lock hold that
// performed the mutation (the dispatcher arranges this), so the file's
// command order always matches mutation order.
package aof

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/driftkv/driftkv/internal/config"
	"github.com/driftkv/driftkv/internal/resp"
	"github.com/driftkv/driftkv/pkg/crypto/adaptive"
)

// Writer appends RESP-encoded commands to the append-only file and manages
// the configured fsync policy.
type Writer struct {
	mu         sync.Mutex
	file       *os.File
	buf        *bufio.Writer
	policy     config.AOFFsyncPolicy
	lastFsync  time.Time
	cipher     adaptive.Cipher
	onFsyncErr func(error)
}

// Open opens (creating if absent) the AOF file at path in append mode. If
// cipherKey is non-nil, every appended record is sealed with it before
// being written.
func Open(path string, policy config.AOFFsyncPolicy, cipherKey []byte) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open aof: %w", err)
	}

	var cipher adaptive.Cipher
	if len(cipherKey) > 0 {
		c, err := adaptive.New(cipherKey)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("init aof cipher: %w", err)
		}
		cipher = c
	}

	return &Writer{
		file:      f,
		buf:       bufio.NewWriter(f),
		policy:    policy,
		lastFsync: time.Now(),
		cipher:    cipher,
	}, nil
}

// OnFsyncError registers a callback invoked when a fatal fsync failure
// occurs under AOFFsyncAlways, before Append returns that error. The
// dispatcher enters the read-only degraded mode described by ErrMisconf
// from Append's returned error, not through this callback.
func (w *Writer) OnFsyncError(fn func(error)) { w.onFsyncErr = fn }

// Policy returns the Writer's configured fsync policy. The dispatcher uses
// this to decide whether an Append failure should trip the degraded-mode
// flag, which is only specified for AOFFsyncAlways.
func (w *Writer) Policy() config.AOFFsyncPolicy { return w.policy }

// Append encodes args as a RESP array of bulk strings and writes it to the
// AOF, applying the configured fsync policy.
func (w *Writer) Append(args [][]byte) error {
	elems := make([]resp.Value, len(args))
	for i, a := range args {
		elems[i] = resp.NewBulkString(a)
	}
	var out []byte
	out = resp.EncodeBytes(resp.NewArray(elems), resp.RESP2)

	w.mu.Lock()
	defer w.mu.Unlock()

	payload := out
	if w.cipher != nil {
		sealed, err := w.cipher.Encrypt(out, nil)
		if err != nil {
			return fmt.Errorf("seal aof record: %w", err)
		}
		payload = framedRecord(sealed)
	}

	if _, err := w.buf.Write(payload); err != nil {
		return fmt.Errorf("write aof: %w", err)
	}

	switch w.policy {
	case config.AOFFsyncAlways:
		if err := w.flushAndSync(); err != nil {
			if w.onFsyncErr != nil {
				w.onFsyncErr(err)
			}
			return err
		}
	case config.AOFFsyncEverySec:
		if time.Since(w.lastFsync) >= time.Second {
			_ = w.flushAndSync()
		}
	case config.AOFFsyncNo:
		// Leave flushing to the OS page cache and the buffered writer's
		// own eventual flush.
	}
	return nil
}

func (w *Writer) flushAndSync() error {
	if err := w.buf.Flush(); err != nil {
		return err
	}
	if err := w.file.Sync(); err != nil {
		return err
	}
	w.lastFsync = time.Now()
	return nil
}

// Reopen closes the current file descriptor and opens path fresh in append
// mode. BGREWRITEAOF calls this after atomically installing a rewritten
// file, since the Writer's existing descriptor now points at the unlinked
// pre-rewrite file.
func (w *Writer) Reopen(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.buf.Flush(); err != nil {
		return err
	}
	if err := w.file.Close(); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	w.file = f
	w.buf = bufio.NewWriter(f)
	return nil
}

// Flush forces buffered bytes to the OS without fsyncing.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Flush()
}

// Close flushes and closes the underlying file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.buf.Flush(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}

// framedRecord prefixes an encrypted record with a 4-byte big-endian
// length so replay can split the ciphertext stream without relying on
// RESP framing, which the ciphertext itself no longer carries.
func framedRecord(sealed []byte) []byte {
	out := make([]byte, 4+len(sealed))
	n := len(sealed)
	out[0] = byte(n >> 24)
	out[1] = byte(n >> 16)
	out[2] = byte(n >> 8)
	out[3] = byte(n)
	copy(out[4:], sealed)
	return out
}

func readFramedRecord(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := int(lenBuf[0])<<24 | int(lenBuf[1])<<16 | int(lenBuf[2])<<8 | int(lenBuf[3])
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
