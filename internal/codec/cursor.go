package codec

import "encoding/binary"

// cursor is a bounds-checked reader over an in-memory byte slice. Every
// method returns an error instead of panicking so the decoder can be the
// target of fuzz testing without special-casing short or malformed input.
type cursor struct {
	b []byte
	i int
}

func newCursor(b []byte) *cursor { return &cursor{b: b} }

func (c *cursor) remaining() int { return len(c.b) - c.i }

func (c *cursor) byte() (byte, error) {
	if c.remaining() < 1 {
		return 0, decodeErr("unexpected end of input reading a byte")
	}
	v := c.b[c.i]
	c.i++
	return v, nil
}

func (c *cursor) take(n int) ([]byte, error) {
	if n < 0 || c.remaining() < n {
		return nil, decodeErr("unexpected end of input reading bytes")
	}
	v := c.b[c.i : c.i+n]
	c.i += n
	return v, nil
}

func (c *cursor) uvarint() (uint64, error) {
	v, n := binary.Uvarint(c.b[c.i:])
	if n <= 0 {
		return 0, decodeErr("malformed varint")
	}
	c.i += n
	return v, nil
}

func (c *cursor) u32() (uint32, error) {
	b, err := c.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (c *cursor) u64() (uint64, error) {
	b, err := c.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (c *cursor) done() bool { return c.remaining() == 0 }

func putUvarint(buf []byte, v uint64) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	return append(buf, tmp[:n]...)
}
