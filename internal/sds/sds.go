// Package sds implements a small-string-optimized mutable byte string,
// modeled on Redis's Sds but expressed as an idiomatic Go value type: short
// strings stay on the stack inside the Sds struct itself, longer ones
// switch to a heap-backed, doubling-capacity buffer. The two
// representations are indistinguishable to callers.
package sds

import (
	"unicode/utf8"
)

// inlineCap is the number of bytes an Sds can hold before switching to a
// heap buffer. 23 bytes plus the 1-byte length/flag field make a round
// 24-byte inline header; the struct also carries the heap slice header.
const inlineCap = 23

// Sds is a mutable byte string. The zero value is a valid empty Sds.
type Sds struct {
	inlineLen int8 // -1 means heap-backed; otherwise 0..inlineCap
	inline    [inlineCap]byte
	heap      []byte
}

// FromBytes copies b into a new Sds, choosing inline or heap storage based
// on length.
func FromBytes(b []byte) *Sds {
	s := &Sds{}
	s.Reserve(len(b))
	s.Append(b)
	return s
}

// FromString copies s into a new Sds.
func FromString(s string) *Sds {
	return FromBytes([]byte(s))
}

func (s *Sds) isHeap() bool { return s.inlineLen < 0 }

// Len returns the current length in bytes.
func (s *Sds) Len() int {
	if s.isHeap() {
		return len(s.heap)
	}
	return int(s.inlineLen)
}

// Bytes returns a view of the current contents. For inline Sds this is a
// copy (there is no stable backing array to borrow); for heap Sds it is the
// live backing slice and must not be retained across mutations.
func (s *Sds) Bytes() []byte {
	if s.isHeap() {
		return s.heap
	}
	out := make([]byte, s.inlineLen)
	copy(out, s.inline[:s.inlineLen])
	return out
}

// AsString returns the contents as a string, or an error if they are not
// valid UTF-8.
func (s *Sds) AsString() (string, error) {
	b := s.Bytes()
	if !utf8.Valid(b) {
		return "", errInvalidUTF8
	}
	return string(b), nil
}

// Push appends a single byte, transitioning to heap storage if needed.
func (s *Sds) Push(b byte) {
	s.Append([]byte{b})
}

// Append appends b to the string, transitioning inline->heap if the
// inline capacity would be exceeded. Heap->inline transitions never occur.
func (s *Sds) Append(b []byte) {
	if len(b) == 0 {
		return
	}
	if s.isHeap() {
		s.heap = growAppend(s.heap, b)
		return
	}
	newLen := int(s.inlineLen) + len(b)
	if newLen <= inlineCap {
		copy(s.inline[s.inlineLen:], b)
		s.inlineLen = int8(newLen)
		return
	}
	// Transition to heap: current inline content + new bytes.
	buf := make([]byte, 0, nextCap(newLen))
	buf = append(buf, s.inline[:s.inlineLen]...)
	buf = append(buf, b...)
	s.heap = buf
	s.inlineLen = -1
}

// Reserve ensures the string can grow to at least n bytes without a further
// reallocation, transitioning to heap storage if n exceeds inline capacity.
func (s *Sds) Reserve(n int) {
	if s.isHeap() {
		if cap(s.heap) < n {
			buf := make([]byte, len(s.heap), nextCap(n))
			copy(buf, s.heap)
			s.heap = buf
		}
		return
	}
	if n <= inlineCap {
		return
	}
	buf := make([]byte, s.inlineLen, nextCap(n))
	copy(buf, s.inline[:s.inlineLen])
	s.heap = buf
	s.inlineLen = -1
}

// Clear empties the string while preserving its current representation and
// capacity (a heap Sds stays heap-backed with its buffer capacity intact).
func (s *Sds) Clear() {
	if s.isHeap() {
		s.heap = s.heap[:0]
		return
	}
	s.inlineLen = 0
}

// SliceRange returns a borrowed view over the half-open range [i, j).
// Panics if the range is out of bounds, matching slice semantics.
func (s *Sds) SliceRange(i, j int) []byte {
	if s.isHeap() {
		return s.heap[i:j]
	}
	return s.inline[i:j]
}

func nextCap(n int) int {
	c := inlineCap * 2
	if c < 1 {
		c = 1
	}
	for c < n {
		c *= 2
	}
	return c
}

func growAppend(buf []byte, b []byte) []byte {
	need := len(buf) + len(b)
	if need > cap(buf) {
		newBuf := make([]byte, len(buf), nextCap(need))
		copy(newBuf, buf)
		buf = newBuf
	}
	return append(buf, b...)
}
