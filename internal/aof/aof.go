// Package aof implements the append-only log: a sequence of SET/DEL
// records replayed on startup to reconstruct the keyspace. Writers fsync
// per a configurable policy; readers tolerate a truncated final record,
// treating it as the boundary of an in-progress write interrupted by a
// crash rather than a decode error.
package aof

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
	"time"

	logging "github.com/ipfs/go-log/v2"

	"github.com/rpcpool/zumic/internal/codec"
	"github.com/rpcpool/zumic/internal/value"
	"github.com/rpcpool/zumic/internal/zerr"
)

var log = logging.Logger("aof")

// Op identifies a record's operation.
type Op byte

const (
	OpSet Op = 1
	OpDel Op = 2
)

// SyncPolicy controls how often the log is fsynced.
type SyncPolicy int

const (
	// SyncAlways fsyncs after every record.
	SyncAlways SyncPolicy = iota
	// SyncEverySec fsyncs at most once per second from a background timer
	// the caller drives via Writer.Tick.
	SyncEverySec
	// SyncNo never fsyncs explicitly, relying on the OS.
	SyncNo
)

// Record is one decoded AOF entry.
type Record struct {
	Op    Op
	Key   []byte
	Value value.Value // nil for OpDel
}

// Writer appends records to an open log file.
type Writer struct {
	f      *os.File
	bw     *bufio.Writer
	policy SyncPolicy
	ver    codec.Version
	dirty  bool
}

// OpenWriter opens (creating if needed) path for appending.
func OpenWriter(path string, policy SyncPolicy, ver codec.Version) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, zerr.Wrap(zerr.KindSystemIO, "aof: open log", err)
	}
	return &Writer{f: f, bw: bufio.NewWriter(f), policy: policy, ver: ver}, nil
}

// AppendSet writes a SET record.
func (w *Writer) AppendSet(key []byte, v value.Value) error {
	encoded, err := codec.Encode(v)
	if err != nil {
		return err
	}
	if err := w.appendRecord(OpSet, key, encoded); err != nil {
		return err
	}
	return w.maybeSync()
}

// AppendDel writes a DEL record.
func (w *Writer) AppendDel(key []byte) error {
	if err := w.appendRecord(OpDel, key, nil); err != nil {
		return err
	}
	return w.maybeSync()
}

func (w *Writer) appendRecord(op Op, key []byte, encodedValue []byte) error {
	if _, err := w.bw.Write([]byte{byte(op)}); err != nil {
		return zerr.Wrap(zerr.KindSystemIO, "aof: write op", err)
	}
	var keyLen [4]byte
	binary.BigEndian.PutUint32(keyLen[:], uint32(len(key)))
	if _, err := w.bw.Write(keyLen[:]); err != nil {
		return zerr.Wrap(zerr.KindSystemIO, "aof: write key length", err)
	}
	if _, err := w.bw.Write(key); err != nil {
		return zerr.Wrap(zerr.KindSystemIO, "aof: write key", err)
	}
	if op == OpDel {
		w.dirty = true
		return nil
	}
	var valLen [4]byte
	binary.BigEndian.PutUint32(valLen[:], uint32(len(encodedValue)))
	if _, err := w.bw.Write(valLen[:]); err != nil {
		return zerr.Wrap(zerr.KindSystemIO, "aof: write value length", err)
	}
	if _, err := w.bw.Write(encodedValue); err != nil {
		return zerr.Wrap(zerr.KindSystemIO, "aof: write value", err)
	}
	w.dirty = true
	return nil
}

func (w *Writer) maybeSync() error {
	if w.policy == SyncNo {
		return nil
	}
	if w.policy == SyncEverySec {
		return nil // Tick drives periodic fsync
	}
	return w.flushAndSync()
}

func (w *Writer) flushAndSync() error {
	if err := w.bw.Flush(); err != nil {
		return zerr.Wrap(zerr.KindSystemIO, "aof: flush", err)
	}
	if err := w.f.Sync(); err != nil {
		return zerr.Wrap(zerr.KindSystemIO, "aof: fsync", err)
	}
	w.dirty = false
	return nil
}

// Tick performs the once-per-second fsync for SyncEverySec. Callers drive
// this from their own timer loop (the accept loop / scheduler lives
// outside this package).
func (w *Writer) Tick() error {
	if w.policy != SyncEverySec || !w.dirty {
		return nil
	}
	return w.flushAndSync()
}

// Close flushes and closes the underlying file.
func (w *Writer) Close() error {
	if err := w.flushAndSync(); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}

// Replay reads every well-formed record from path in order, tolerating a
// truncated final record (a crash mid-write). ver selects which value
// encoding version to decode with.
func Replay(path string, ver codec.Version) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, zerr.Wrap(zerr.KindSystemIO, "aof: open for replay", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var records []Record
	start := time.Now()
	for {
		rec, ok, err := readRecord(r, ver)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		records = append(records, rec)
	}
	log.Infow("replayed aof", "records", len(records), "elapsed", time.Since(start))
	return records, nil
}

// readRecord reads one record, returning ok=false at a clean EOF or a
// truncated trailing record (both are treated as the end of valid log
// data, not an error).
func readRecord(r *bufio.Reader, ver codec.Version) (Record, bool, error) {
	opByte, err := r.ReadByte()
	if err == io.EOF {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, zerr.Wrap(zerr.KindSystemIO, "aof: read op", err)
	}
	op := Op(opByte)

	keyLen, ok, err := readU32(r)
	if err != nil || !ok {
		return Record{}, false, err
	}
	key := make([]byte, keyLen)
	if _, err := io.ReadFull(r, key); err != nil {
		return Record{}, false, nil // truncated: treat as end of valid log
	}

	if op == OpDel {
		return Record{Op: OpDel, Key: key}, true, nil
	}
	if op != OpSet {
		return Record{}, false, zerr.New(zerr.KindDecode, "aof: unknown op byte")
	}

	valLen, ok, err := readU32(r)
	if err != nil || !ok {
		return Record{}, false, err
	}
	encoded := make([]byte, valLen)
	if _, err := io.ReadFull(r, encoded); err != nil {
		return Record{}, false, nil
	}
	v, _, err := codec.Decode(encoded, ver)
	if err != nil {
		return Record{}, false, nil // truncated/corrupt tail: stop, don't fail replay
	}
	return Record{Op: OpSet, Key: key, Value: v}, true, nil
}

func readU32(r *bufio.Reader) (uint32, bool, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, false, nil // truncated: end of valid log, not an error
	}
	return binary.BigEndian.Uint32(buf[:]), true, nil
}
