package aof

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/driftkv/driftkv/internal/resp"
	"github.com/driftkv/driftkv/pkg/crypto/adaptive"
)

// Apply is invoked once per command recovered from the AOF during replay.
type Apply func(args [][]byte) error

// Replay reads path and invokes apply for each command it contains, in
// file order. It returns the number of commands successfully replayed. A
// truncated final record (the tail left by a crash mid-append) is treated
// as end-of-file, not a fatal error, per the append-only file's prefix-valid
// recovery contract. If cipherKey is non-nil, records are framed-length
// and AEAD-sealed as written by Writer.Append.
func Replay(path string, cipherKey []byte, apply Apply) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("open aof for replay: %w", err)
	}
	defer f.Close()

	if len(cipherKey) > 0 {
		return replayEncrypted(f, cipherKey, apply)
	}
	return replayPlain(f, apply)
}

func replayPlain(f *os.File, apply Apply) (int, error) {
	data, err := io.ReadAll(bufio.NewReader(f))
	if err != nil {
		return 0, fmt.Errorf("read aof: %w", err)
	}

	count := 0
	lim := resp.DefaultLimits()
	offset := 0
	for offset < len(data) {
		res := resp.Parse(data[offset:], lim)
		switch res.Outcome {
		case resp.Complete:
			args, ok := commandArgs(res.Value)
			if ok {
				if err := apply(args); err != nil {
					return count, fmt.Errorf("replay command %d: %w", count+1, err)
				}
				count++
			}
			offset += res.Consumed
		case resp.Incomplete:
			// A crash mid-append leaves a truncated trailing record; stop
			// cleanly rather than treat it as corruption.
			return count, nil
		case resp.Invalid:
			// Prefix-valid recovery: everything decoded so far is kept,
			// the corrupt remainder is discarded.
			return count, nil
		}
	}
	return count, nil
}

func replayEncrypted(f *os.File, cipherKey []byte, apply Apply) (int, error) {
	cipher, err := adaptive.New(cipherKey)
	if err != nil {
		return 0, fmt.Errorf("init aof cipher: %w", err)
	}

	r := bufio.NewReader(f)
	count := 0
	lim := resp.DefaultLimits()
	for {
		sealed, err := readFramedRecord(r)
		if err != nil {
			if err == io.ErrUnexpectedEOF || err == io.EOF {
				return count, nil
			}
			return count, fmt.Errorf("read aof frame: %w", err)
		}
		plain, err := cipher.Decrypt(sealed, nil)
		if err != nil {
			// A record that fails to authenticate is treated as the
			// truncated/corrupt tail, not a fatal error.
			return count, nil
		}
		res := resp.Parse(plain, lim)
		if res.Outcome != resp.Complete {
			return count, nil
		}
		args, ok := commandArgs(res.Value)
		if !ok {
			continue
		}
		if err := apply(args); err != nil {
			return count, fmt.Errorf("replay command %d: %w", count+1, err)
		}
		count++
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
