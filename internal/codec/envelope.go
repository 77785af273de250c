package codec

// envelopeTag prefixes a record's encoded bytes, marking whether the
// payload that follows is the raw Encode output or a TAG_COMPRESSED
// wrapper holding (original length, zstd-compressed bytes). It lives in
// its own byte space from value.Tag so a reader can tell envelope framing
// apart from the value tag without ambiguity. Both forms carry an
// explicit payload length so records can be packed back-to-back (as the
// snapshot format does) without the reader needing to fully decode a
// value just to know where it ends.
type envelopeTag byte

const (
	envelopeRaw        envelopeTag = 0x00
	envelopeCompressed envelopeTag = 0x01
)

// WrapRecord frames an already-Encode'd payload, opportunistically
// compressing it when it exceeds MinCompressionSize. Readers must accept
// both forms, so compression is never mandatory.
func WrapRecord(encoded []byte) ([]byte, error) {
	if len(encoded) <= MinCompressionSize {
		return wrapRaw(encoded), nil
	}
	compressed, err := compressZSTD(encoded)
	if err != nil {
		return nil, wrapEncodeErr("compress record", err)
	}
	if len(compressed) >= len(encoded) {
		// Compression didn't help; store raw rather than pay the
		// decompression cost for nothing.
		return wrapRaw(encoded), nil
	}
	out := make([]byte, 0, 2+binaryUvarintMaxLen*2+len(compressed))
	out = append(out, byte(envelopeCompressed))
	out = putUvarint(out, uint64(len(encoded)))
	out = putUvarint(out, uint64(len(compressed)))
	out = append(out, compressed...)
	return out, nil
}

func wrapRaw(encoded []byte) []byte {
	out := make([]byte, 0, 1+binaryUvarintMaxLen+len(encoded))
	out = append(out, byte(envelopeRaw))
	out = putUvarint(out, uint64(len(encoded)))
	out = append(out, encoded...)
	return out
}

// UnwrapRecord reverses WrapRecord, returning the original Encode'd bytes
// and the number of leading bytes of framed it consumed (so callers that
// pack multiple framed records back-to-back, like the snapshot format,
// can advance past exactly one record).
func UnwrapRecord(framed []byte) ([]byte, int, error) {
	c := newCursor(framed)
	tagByte, err := c.byte()
	if err != nil {
		return nil, 0, err
	}
	switch envelopeTag(tagByte) {
	case envelopeRaw:
		n, err := decodeCount(c)
		if err != nil {
			return nil, 0, err
		}
		out, err := c.take(n)
		if err != nil {
			return nil, 0, err
		}
		return out, c.i, nil
	case envelopeCompressed:
		origLen, err := decodeCount(c)
		if err != nil {
			return nil, 0, err
		}
		compLen, err := decodeCount(c)
		if err != nil {
			return nil, 0, err
		}
		compressed, err := c.take(compLen)
		if err != nil {
			return nil, 0, err
		}
		out, err := decompressZSTD(compressed)
		if err != nil {
			return nil, 0, wrapDecodeErr("decompress record", err)
		}
		if len(out) != origLen {
			return nil, 0, decodeErr("envelope: decompressed length mismatch")
		}
		return out, c.i, nil
	default:
		return nil, 0, decodeErr("unknown envelope tag")
	}
}

const binaryUvarintMaxLen = 10 // encoding/binary.MaxVarintLen64
