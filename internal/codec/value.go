// Package codec implements the snapshot/AOF tagged value encoding: a
// one-byte tag (internal/value.Tag) followed by a variant-specific,
// length-prefixed payload, plus an optional zstd compression envelope for
// large payloads. It is the decode path's fuzz target: Decode must never
// panic on arbitrary bytes, returning a zerr.KindDecode error instead.
package codec

import (
	"bytes"
	"encoding/binary"
	"math"

	bin "github.com/gagliardetto/binary"

	"github.com/rpcpool/zumic/internal/bitmap"
	"github.com/rpcpool/zumic/internal/dict"
	"github.com/rpcpool/zumic/internal/hll"
	"github.com/rpcpool/zumic/internal/intset"
	"github.com/rpcpool/zumic/internal/quicklist"
	"github.com/rpcpool/zumic/internal/sds"
	"github.com/rpcpool/zumic/internal/value"
)

// encodeIntSetValues packs an IntSet's sorted int64 values as fixed-width
// little-endian uint64s via gagliardetto/binary's Borsh encoder, the same
// helper the teacher's bucketteer package uses for its fixed-width header
// fields, rather than hand-rolling the byte writes.
func encodeIntSetValues(buf []byte, vals []int64) ([]byte, error) {
	var out bytes.Buffer
	enc := bin.NewBorshEncoder(&out)
	for _, v := range vals {
		if err := enc.WriteUint64(uint64(v), bin.LE); err != nil {
			return nil, encodeErr("intset: write value")
		}
	}
	return append(buf, out.Bytes()...), nil
}

// decodeIntSetValues unpacks n fixed-width little-endian uint64s from
// already bounds-checked bytes (the caller has taken exactly n*8 bytes off
// the cursor), mirroring encodeIntSetValues's encoder.
func decodeIntSetValues(raw []byte, n int) ([]int64, error) {
	dec := bin.NewBorshDecoder(raw)
	out := make([]int64, n)
	for i := 0; i < n; i++ {
		v, err := dec.ReadUint64(bin.LE)
		if err != nil {
			return nil, wrapDecodeErr("intset: read value", err)
		}
		out[i] = int64(v)
	}
	return out, nil
}

// Version identifies the on-disk/wire encoding revision. Decoders accept
// both; Encode's output carries no version marker of its own.
type Version uint16

const (
	V1 Version = 1
	V2 Version = 2

	// CurrentVersion is the version callers record in a snapshot header
	// (snapshot.Write's ver argument) and pass to Decode.
	CurrentVersion = V2
)

const (
	setSubIntSet  byte = 0
	setSubGeneral byte = 1

	hllSubSparse byte = 0
	hllSubDense  byte = 1
)

// Encode serializes v as a tagged payload (no compression envelope; see
// WrapRecord for that).
func Encode(v value.Value) ([]byte, error) {
	buf := make([]byte, 0, 32)
	buf = append(buf, byte(v.Tag()))
	var err error
	switch t := v.(type) {
	case value.Str:
		buf, err = encodeBytes(buf, t.S.Bytes())
	case value.Int:
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], uint64(t.N))
		buf = append(buf, tmp[:]...)
	case value.Float:
		f := t.F
		if math.IsNaN(f) {
			f = math.Inf(1) // NaN normalized on ingress
		}
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(f))
		buf = append(buf, tmp[:]...)
	case value.Null:
		// tag only
	case value.List:
		buf, err = encodeList(buf, t.L)
	case value.Hash:
		buf, err = encodeHash(buf, t.D)
	case value.ZSet:
		buf, err = encodeZSet(buf, t.Scores)
	case value.Set:
		buf, err = encodeSet(buf, t)
	case value.HLL:
		buf, err = encodeHLL(buf, t.Reg)
	case value.Stream:
		buf, err = encodeStream(buf, t.Entries)
	case value.Bitmap:
		buf, err = encodeBytes(buf, t.B.Bytes())
	default:
		return nil, encodeErr("unknown value variant")
	}
	if err != nil {
		return nil, err
	}
	return buf, nil
}

func encodeBytes(buf []byte, b []byte) ([]byte, error) {
	buf = putUvarint(buf, uint64(len(b)))
	buf = append(buf, b...)
	return buf, nil
}

func encodeList(buf []byte, l *quicklist.QuickList) ([]byte, error) {
	elems := l.Iter()
	buf = putUvarint(buf, uint64(len(elems)))
	for _, e := range elems {
		var err error
		buf, err = encodeBytes(buf, e)
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func encodeHash(buf []byte, d *dict.Dict[*sds.Sds]) ([]byte, error) {
	entries := d.Iter()
	buf = putUvarint(buf, uint64(len(entries)))
	for _, e := range entries {
		var err error
		buf, err = encodeBytes(buf, []byte(e.Key))
		if err != nil {
			return nil, err
		}
		buf, err = encodeBytes(buf, e.Value.Bytes())
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func encodeZSet(buf []byte, scores *dict.Dict[float64]) ([]byte, error) {
	entries := scores.Iter()
	buf = putUvarint(buf, uint64(len(entries)))
	for _, e := range entries {
		var err error
		buf, err = encodeBytes(buf, []byte(e.Key))
		if err != nil {
			return nil, err
		}
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(e.Value))
		buf = append(buf, tmp[:]...)
	}
	return buf, nil
}

func encodeSet(buf []byte, s value.Set) ([]byte, error) {
	if s.Ints != nil {
		buf = append(buf, setSubIntSet)
		vals := s.Ints.Values()
		buf = putUvarint(buf, uint64(len(vals)))
		return encodeIntSetValues(buf, vals)
	}
	buf = append(buf, setSubGeneral)
	entries := s.General.Iter()
	buf = putUvarint(buf, uint64(len(entries)))
	for _, e := range entries {
		var err error
		buf, err = encodeBytes(buf, []byte(e.Key))
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func encodeHLL(buf []byte, reg hll.Register) ([]byte, error) {
	switch r := reg.(type) {
	case *hll.Sparse:
		buf = append(buf, hllSubSparse)
		pairs := r.Pairs()
		buf = putUvarint(buf, uint64(len(pairs)))
		for _, p := range pairs {
			buf = putUvarint(buf, uint64(p.Index))
			buf = append(buf, p.Value)
		}
		return buf, nil
	case *hll.Dense:
		buf = append(buf, hllSubDense)
		buf = append(buf, r.Payload()...)
		return buf, nil
	default:
		return nil, encodeErr("unknown hll register variant")
	}
}

func encodeStream(buf []byte, entries []value.StreamEntry) ([]byte, error) {
	buf = putUvarint(buf, uint64(len(entries)))
	for _, e := range entries {
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], uint64(e.MS))
		buf = append(buf, tmp[:]...)
		binary.LittleEndian.PutUint64(tmp[:], uint64(e.Seq))
		buf = append(buf, tmp[:]...)
		buf = putUvarint(buf, uint64(len(e.Fields)))
		for k, v := range e.Fields {
			var err error
			buf, err = encodeBytes(buf, []byte(k))
			if err != nil {
				return nil, err
			}
			buf, err = encodeBytes(buf, v)
			if err != nil {
				return nil, err
			}
		}
	}
	return buf, nil
}

// Decode parses a single tagged value from b, returning the value and the
// number of bytes consumed. It never panics: malformed input yields a
// zerr.KindDecode error.
func Decode(b []byte, version Version) (value.Value, int, error) {
	c := newCursor(b)
	v, err := decodeValue(c, version)
	if err != nil {
		return nil, 0, err
	}
	return v, c.i, nil
}

func decodeValue(c *cursor, version Version) (value.Value, error) {
	tagByte, err := c.byte()
	if err != nil {
		return nil, err
	}
	tag := value.Tag(tagByte)
	switch tag {
	case value.TagStr:
		b, err := decodeBytesField(c)
		if err != nil {
			return nil, err
		}
		return value.NewStrBytes(b), nil
	case value.TagInt:
		n, err := c.u64()
		if err != nil {
			return nil, err
		}
		return value.Int{N: int64(n)}, nil
	case value.TagFloat:
		n, err := c.u64()
		if err != nil {
			return nil, err
		}
		return value.Float{F: math.Float64frombits(n)}, nil
	case value.TagNull:
		return value.Null{}, nil
	case value.TagList:
		return decodeList(c)
	case value.TagHash:
		return decodeHash(c)
	case value.TagZSet:
		return decodeZSet(c)
	case value.TagSet:
		return decodeSet(c)
	case value.TagHLL:
		return decodeHLL(c)
	case value.TagStream:
		return decodeStream(c)
	case value.TagBitmap:
		b, err := decodeBytesField(c)
		if err != nil {
			return nil, err
		}
		return value.Bitmap{B: bitmap.FromBytes(b)}, nil
	default:
		if version < V1 {
			return nil, decodeErr("unsupported version")
		}
		return nil, decodeErr("unknown value tag")
	}
}

const maxContainerLen = 1 << 28 // guards against absurd counts on malformed input

func decodeBytesField(c *cursor) ([]byte, error) {
	n, err := c.uvarint()
	if err != nil {
		return nil, err
	}
	if n > uint64(maxContainerLen) {
		return nil, decodeErr("string length too large")
	}
	return c.take(int(n))
}

func decodeCount(c *cursor) (int, error) {
	n, err := c.uvarint()
	if err != nil {
		return 0, err
	}
	if n > uint64(maxContainerLen) {
		return 0, decodeErr("container count too large")
	}
	return int(n), nil
}

func decodeList(c *cursor) (value.Value, error) {
	n, err := decodeCount(c)
	if err != nil {
		return nil, err
	}
	l := value.NewList()
	for i := 0; i < n; i++ {
		b, err := decodeBytesField(c)
		if err != nil {
			return nil, err
		}
		l.L.PushBack(b)
	}
	return l, nil
}

func decodeHash(c *cursor) (value.Value, error) {
	n, err := decodeCount(c)
	if err != nil {
		return nil, err
	}
	h := value.NewHash()
	for i := 0; i < n; i++ {
		k, err := decodeBytesField(c)
		if err != nil {
			return nil, err
		}
		v, err := decodeBytesField(c)
		if err != nil {
			return nil, err
		}
		h.D.Set(string(k), sds.FromBytes(v))
	}
	return h, nil
}

func decodeZSet(c *cursor) (value.Value, error) {
	n, err := decodeCount(c)
	if err != nil {
		return nil, err
	}
	z := value.NewZSet()
	for i := 0; i < n; i++ {
		m, err := decodeBytesField(c)
		if err != nil {
			return nil, err
		}
		sc, err := c.u64()
		if err != nil {
			return nil, err
		}
		score := math.Float64frombits(sc)
		member := string(m)
		z.Scores.Set(member, score)
		z.Order.Insert(value.ZSetKey{Score: score, Member: member}, member)
	}
	return z, nil
}

func decodeSet(c *cursor) (value.Value, error) {
	sub, err := c.byte()
	if err != nil {
		return nil, err
	}
	n, err := decodeCount(c)
	if err != nil {
		return nil, err
	}
	switch sub {
	case setSubIntSet:
		raw, err := c.take(n * 8)
		if err != nil {
			return nil, err
		}
		vals, err := decodeIntSetValues(raw, n)
		if err != nil {
			return nil, err
		}
		is := intset.New()
		for _, v := range vals {
			is.Insert(v)
		}
		return value.Set{Ints: is}, nil
	case setSubGeneral:
		d := dict.New[struct{}](0)
		for i := 0; i < n; i++ {
			m, err := decodeBytesField(c)
			if err != nil {
				return nil, err
			}
			d.Set(string(m), struct{}{})
		}
		return value.Set{General: d}, nil
	default:
		return nil, decodeErr("unknown set sub-encoding")
	}
}

func decodeHLL(c *cursor) (value.Value, error) {
	sub, err := c.byte()
	if err != nil {
		return nil, err
	}
	switch sub {
	case hllSubSparse:
		n, err := decodeCount(c)
		if err != nil {
			return nil, err
		}
		s := hll.NewSparse(0)
		for i := 0; i < n; i++ {
			idx, err := c.uvarint()
			if err != nil {
				return nil, err
			}
			val, err := c.byte()
			if err != nil {
				return nil, err
			}
			s.SetRaw(uint32(idx), val)
		}
		return value.HLL{Reg: s}, nil
	case hllSubDense:
		payload, err := c.take(hll.DensePayloadLen)
		if err != nil {
			return nil, err
		}
		return value.HLL{Reg: hll.DenseFromBytes(payload)}, nil
	default:
		return nil, decodeErr("unknown hll sub-encoding")
	}
}

// initialDecodeCap bounds the slice/map capacity decodeStream pre-allocates
// before decoding a single element. decodeCount only checks the claimed
// count against maxContainerLen (1<<28), which still lets a handful of
// bytes claim hundreds of millions of entries; pre-sizing a slice or map
// for that count would allocate far more memory than the input could ever
// back. append/map insertion grow from here as entries actually decode.
const initialDecodeCap = 16

func boundedDecodeCap(n int) int {
	if n < initialDecodeCap {
		return n
	}
	return initialDecodeCap
}

func decodeStream(c *cursor) (value.Value, error) {
	n, err := decodeCount(c)
	if err != nil {
		return nil, err
	}
	entries := make([]value.StreamEntry, 0, boundedDecodeCap(n))
	for i := 0; i < n; i++ {
		ms, err := c.u64()
		if err != nil {
			return nil, err
		}
		seq, err := c.u64()
		if err != nil {
			return nil, err
		}
		fc, err := decodeCount(c)
		if err != nil {
			return nil, err
		}
		fields := make(map[string][]byte, boundedDecodeCap(fc))
		for j := 0; j < fc; j++ {
			k, err := decodeBytesField(c)
			if err != nil {
				return nil, err
			}
			v, err := decodeBytesField(c)
			if err != nil {
				return nil, err
			}
			fields[string(k)] = v
		}
		entries = append(entries, value.StreamEntry{MS: int64(ms), Seq: int64(seq), Fields: fields})
	}
	return value.Stream{Entries: entries}, nil
}
