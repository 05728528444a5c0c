package aof

import (
	"fmt"
	"os"

	"github.com/driftkv/driftkv/internal/resp"
	"github.com/driftkv/driftkv/pkg/crypto/adaptive"
)

// Rewrite performs BGREWRITEAOF-style compaction: it snapshots the
// keyspace into a minimal sequence of commands (one SET/RPUSH/SADD/HSET/
// ZADD per key, reconstructing its current value from scratch) and writes
// them to a temp file, then atomically renames it over path. The caller
// supplies the current keyspace contents via emit, invoked once per key
// while the caller holds whatever lock it needs for a consistent read.
func Rewrite(path string, cipherKey []byte, emit func(yield func(args [][]byte))) error {
	tmpPath := path + ".rewrite.tmp"
	tmp, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("create aof rewrite temp file: %w", err)
	}

	var cipher adaptive.Cipher
	if len(cipherKey) > 0 {
		c, err := adaptive.New(cipherKey)
		if err != nil {
			tmp.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("init aof cipher: %w", err)
		}
		cipher = c
	}

	var writeErr error
	emit(func(args [][]byte) {
		if writeErr != nil {
			return
		}
		elems := make([]resp.Value, len(args))
		for i, a := range args {
			elems[i] = resp.NewBulkString(a)
		}
		encoded := resp.EncodeBytes(resp.NewArray(elems), resp.RESP2)

		payload := encoded
		if cipher != nil {
			sealed, err := cipher.Encrypt(encoded, nil)
			if err != nil {
				writeErr = fmt.Errorf("seal rewrite record: %w", err)
				return
			}
			payload = framedRecord(sealed)
		}
		if _, err := tmp.Write(payload); err != nil {
			writeErr = fmt.Errorf("write rewrite record: %w", err)
		}
	})

	if writeErr != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return writeErr
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync aof rewrite temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close aof rewrite temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("install rewritten aof: %w", err)
	}
	return nil
}
