package aof

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/driftkv/driftkv/internal/config"
)

func TestAppendAndReplayRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.aof")

	w, err := Open(path, config.AOFFsyncAlways, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	commands := [][][]byte{
		{[]byte("SET"), []byte("k1"), []byte("v1")},
		{[]byte("RPUSH"), []byte("l1"), []byte("a"), []byte("b")},
		{[]byte("SADD"), []byte("s1"), []byte("m1")},
	}
	for _, c := range commands {
		if err := w.Append(c); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	var got [][][]byte
	count, err := Replay(path, nil, func(args [][]byte) error {
		got = append(got, args)
		return nil
	})
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if count != len(commands) {
		t.Fatalf("Replay count = %d, want %d", count, len(commands))
	}
	for i, c := range commands {
		if !reflect.DeepEqual(got[i], c) {
			t.Errorf("command %d = %v, want %v", i, got[i], c)
		}
	}
}

func TestReplayMissingFileIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	count, err := Replay(filepath.Join(dir, "missing.aof"), nil, func([][]byte) error { return nil })
	if err != nil || count != 0 {
		t.Fatalf("Replay(missing) = (%d, %v), want (0, nil)", count, err)
	}
}

func TestReplayStopsCleanlyOnTruncatedTail(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "truncated.aof")

	w, err := Open(path, config.AOFFsyncAlways, nil)
	if err != nil {
		t.Fatal(err)
	}
	w.Append([][]byte{[]byte("SET"), []byte("k1"), []byte("v1")})
	w.Close()

	// Append a truncated partial record directly, simulating a crash
	// mid-write.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		t.Fatal(err)
	}
	f.WriteString("*3\r\n$3\r\nSET\r\n$2\r\nk2")
	f.Close()

	count, err := Replay(path, nil, func([][]byte) error { return nil })
	if err != nil {
		t.Fatalf("Replay with truncated tail returned error: %v", err)
	}
	if count != 1 {
		t.Fatalf("Replay count = %d, want 1 (truncated tail ignored)", count)
	}
}

func TestRewriteProducesReplayableFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.aof")

	snapshot := [][][]byte{
		{[]byte("SET"), []byte("k1"), []byte("v1")},
		{[]byte("RPUSH"), []byte("l1"), []byte("x")},
	}
	err := Rewrite(path, nil, func(yield func(args [][]byte)) {
		for _, c := range snapshot {
			yield(c)
		}
	})
	if err != nil {
		t.Fatalf("Rewrite: %v", err)
	}

	var got [][][]byte
	count, err := Replay(path, nil, func(args [][]byte) error {
		got = append(got, args)
		return nil
	})
	if err != nil {
		t.Fatalf("Replay after rewrite: %v", err)
	}
	if count != len(snapshot) {
		t.Fatalf("Replay count = %d, want %d", count, len(snapshot))
	}
}

func TestEncryptedAppendAndReplayRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "encrypted.aof")
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}

	w, err := Open(path, config.AOFFsyncAlways, key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	cmd := [][]byte{[]byte("SET"), []byte("k1"), []byte("v1")}
	if err := w.Append(cmd); err != nil {
		t.Fatalf("Append: %v", err)
	}
	w.Close()

	var got [][]byte
	count, err := Replay(path, key, func(args [][]byte) error {
		got = args
		return nil
	})
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if count != 1 || !reflect.DeepEqual(got, cmd) {
		t.Fatalf("Replay(encrypted) = (%d, %v), want (1, %v)", count, got, cmd)
	}
}
