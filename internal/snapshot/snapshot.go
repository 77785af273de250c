// Package snapshot implements the point-in-time dump format: a magic
// header, a sequence of (key, value) records, a terminator, and a crc32
// trailer over the full stream. Writes go to a temp file and are renamed
// into place so a crash never leaves a half-written dump at the canonical
// path.
package snapshot

import (
	"encoding/binary"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"

	logging "github.com/ipfs/go-log/v2"

	"github.com/rpcpool/zumic/internal/codec"
	"github.com/rpcpool/zumic/internal/value"
	"github.com/rpcpool/zumic/internal/zerr"
)

var log = logging.Logger("snapshot")

// magic is the fixed 6-byte header identifying a zumic dump file.
var magic = [6]byte{'Z', 'U', 'M', 'I', 'C', 0}

const terminator = 0

// Entry is one (key, value) pair captured in a snapshot.
type Entry struct {
	Key   []byte
	Value value.Value
}

// Source supplies the entries to snapshot; a storage engine implements
// this by iterating its live key space.
type Source interface {
	SnapshotEntries() ([]Entry, error)
}

// Write serializes entries to path atomically: it writes to path+".tmp",
// fsyncs, then renames over path.
func Write(path string, entries []Entry, ver codec.Version) error {
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return zerr.Wrap(zerr.KindSystemIO, "snapshot: create temp file", err)
	}
	if err := writeTo(f, entries, ver); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return zerr.Wrap(zerr.KindSystemIO, "snapshot: fsync temp file", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return zerr.Wrap(zerr.KindSystemIO, "snapshot: close temp file", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return zerr.Wrap(zerr.KindSystemIO, "snapshot: rename into place", err)
	}
	log.Infow("wrote snapshot", "path", filepath.Base(path), "entries", len(entries))
	return nil
}

func writeTo(w io.Writer, entries []Entry, ver codec.Version) error {
	h := crc32.NewIEEE()
	mw := io.MultiWriter(w, h)

	if _, err := mw.Write(magic[:]); err != nil {
		return zerr.Wrap(zerr.KindSystemIO, "snapshot: write magic", err)
	}
	var verBuf [2]byte
	binary.BigEndian.PutUint16(verBuf[:], uint16(ver))
	if _, err := mw.Write(verBuf[:]); err != nil {
		return zerr.Wrap(zerr.KindSystemIO, "snapshot: write version", err)
	}

	for _, e := range entries {
		encoded, err := codec.Encode(e.Value)
		if err != nil {
			return err
		}
		framed, err := codec.WrapRecord(encoded)
		if err != nil {
			return err
		}
		if err := writeRecord(mw, e.Key, framed); err != nil {
			return err
		}
	}

	if _, err := mw.Write([]byte{terminator}); err != nil {
		return zerr.Wrap(zerr.KindSystemIO, "snapshot: write terminator", err)
	}
	var sumBuf [4]byte
	binary.BigEndian.PutUint32(sumBuf[:], h.Sum32())
	if _, err := w.Write(sumBuf[:]); err != nil {
		return zerr.Wrap(zerr.KindSystemIO, "snapshot: write crc trailer", err)
	}
	return nil
}

func writeRecord(w io.Writer, key []byte, framedValue []byte) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(key)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return zerr.Wrap(zerr.KindSystemIO, "snapshot: write key length", err)
	}
	if _, err := w.Write(key); err != nil {
		return zerr.Wrap(zerr.KindSystemIO, "snapshot: write key", err)
	}
	if _, err := w.Write(framedValue); err != nil {
		return zerr.Wrap(zerr.KindSystemIO, "snapshot: write value", err)
	}
	return nil
}

// Read loads every entry from a dump file at path, validating its crc32
// trailer.
func Read(path string) ([]Entry, codec.Version, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, zerr.Wrap(zerr.KindSystemIO, "snapshot: read file", err)
	}
	return Parse(data)
}

// Parse decodes a full in-memory dump buffer, validating its trailer.
func Parse(data []byte) ([]Entry, codec.Version, error) {
	if len(data) < len(magic)+2+1+4 {
		return nil, 0, zerr.New(zerr.KindDecode, "snapshot: truncated header")
	}
	if string(data[:len(magic)]) != string(magic[:]) {
		return nil, 0, zerr.New(zerr.KindDecode, "snapshot: bad magic")
	}
	body := data[:len(data)-4]
	trailer := data[len(data)-4:]
	sum := crc32.ChecksumIEEE(body)
	if binary.BigEndian.Uint32(trailer) != sum {
		return nil, 0, zerr.New(zerr.KindDecode, "snapshot: crc32 mismatch")
	}

	i := len(magic)
	ver := codec.Version(binary.BigEndian.Uint16(body[i : i+2]))
	i += 2

	var entries []Entry
	// The last body byte is the terminator; records fill everything before
	// it. A key length's leading byte is usually 0, so the terminator is
	// found by position rather than by value.
	end := len(body) - 1
	for i < end {
		if i+4 > end {
			return nil, 0, zerr.New(zerr.KindDecode, "snapshot: truncated key length")
		}
		keyLen := int(binary.BigEndian.Uint32(body[i : i+4]))
		i += 4
		if keyLen < 0 || i+keyLen > end {
			return nil, 0, zerr.New(zerr.KindDecode, "snapshot: truncated key")
		}
		key := make([]byte, keyLen)
		copy(key, body[i:i+keyLen])
		i += keyLen

		encoded, consumed, err := codec.UnwrapRecord(body[i:end])
		if err != nil {
			return nil, 0, err
		}
		v, _, err := codec.Decode(encoded, ver)
		if err != nil {
			return nil, 0, err
		}
		i += consumed

		entries = append(entries, Entry{Key: key, Value: v})
	}
	if body[end] != terminator {
		return nil, 0, zerr.New(zerr.KindDecode, "snapshot: missing terminator")
	}
	return entries, ver, nil
}
