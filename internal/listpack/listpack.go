// Package listpack implements a compact packed byte sequence: a single
// contiguous buffer holding length-prefixed entries terminated by a 0xFF
// sentinel. It trades O(n) random access for cache locality, and is used
// as the node format of internal/quicklist; hashes and sets do not use it.
package listpack

import "github.com/rpcpool/zumic/internal/zerr"

const sentinel = 0xFF

// maxInlineLen is the largest payload length a single length byte can
// describe (0x00-0xFD); 0xFE/0xFF are reserved (0xFF is the sentinel).
const maxInlineLen = 0xFD

// MaxPayloadLen is maxInlineLen, exported so callers (quicklist's plain-node
// escape hatch) can route oversized payloads around PushBack/PushFront
// before calling them, rather than parsing the error PushBack/PushFront
// return for that case.
const MaxPayloadLen = maxInlineLen

// ListPack is a packed sequence of byte-string entries.
type ListPack struct {
	buf []byte
}

// New returns an empty ListPack.
func New() *ListPack {
	return &ListPack{buf: []byte{sentinel}}
}

// Len returns the number of entries.
func (l *ListPack) Len() int {
	n := 0
	l.walk(func(int, []byte) bool { n++; return true })
	return n
}

// walk iterates entries from the start, calling fn(offset, payload) for
// each; fn returns false to stop early.
func (l *ListPack) walk(fn func(offset int, payload []byte) bool) {
	i := 0
	for i < len(l.buf) && l.buf[i] != sentinel {
		n := int(l.buf[i])
		payload := l.buf[i+1 : i+1+n]
		if !fn(i, payload) {
			return
		}
		i += 1 + n
	}
}

// Get returns the payload at index i, or false if out of range. Each
// lookup is O(n): the buffer must be scanned from the start.
func (l *ListPack) Get(i int) ([]byte, bool) {
	idx := 0
	var out []byte
	found := false
	l.walk(func(_ int, payload []byte) bool {
		if idx == i {
			out = payload
			found = true
			return false
		}
		idx++
		return true
	})
	return out, found
}

// PushBack appends an entry.
func (l *ListPack) PushBack(payload []byte) error {
	if len(payload) > maxInlineLen {
		return zerr.New(zerr.KindEncode, "listpack: entry too large")
	}
	insertAt := len(l.buf) - 1 // before sentinel
	entry := make([]byte, 1+len(payload))
	entry[0] = byte(len(payload))
	copy(entry[1:], payload)
	l.buf = append(l.buf[:insertAt], append(entry, l.buf[insertAt:]...)...)
	return nil
}

// PushFront prepends an entry.
func (l *ListPack) PushFront(payload []byte) error {
	if len(payload) > maxInlineLen {
		return zerr.New(zerr.KindEncode, "listpack: entry too large")
	}
	entry := make([]byte, 1+len(payload))
	entry[0] = byte(len(payload))
	copy(entry[1:], payload)
	l.buf = append(entry, l.buf...)
	return nil
}

// Remove deletes the entry at index i, returning false if out of range.
func (l *ListPack) Remove(i int) bool {
	idx := 0
	start, end := -1, -1
	l.walk(func(offset int, payload []byte) bool {
		if idx == i {
			start = offset
			end = offset + 1 + len(payload)
			return false
		}
		idx++
		return true
	})
	if start < 0 {
		return false
	}
	l.buf = append(l.buf[:start], l.buf[end:]...)
	return true
}

// Iter returns every entry's payload in order.
func (l *ListPack) Iter() [][]byte {
	var out [][]byte
	l.walk(func(_ int, payload []byte) bool {
		cp := make([]byte, len(payload))
		copy(cp, payload)
		out = append(out, cp)
		return true
	})
	return out
}

// Bytes returns the raw packed buffer, for embedding in the snapshot codec.
func (l *ListPack) Bytes() []byte { return l.buf }

// FromBytes wraps a previously-encoded buffer without copying.
func FromBytes(buf []byte) *ListPack { return &ListPack{buf: buf} }
