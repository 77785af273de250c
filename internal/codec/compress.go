package codec

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
	zstdpool "github.com/mostynb/zstdpool-freelist"
)

// MinCompressionSize is the encoded-payload size threshold above which the
// compressed envelope becomes worth trying (spec.md's MIN_COMPRESSION_SIZE).
const MinCompressionSize = 64

var zstdDecoderPool = zstdpool.NewDecoderPool()

var zstdEncoderPool = zstdpool.NewEncoderPool(
	zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
)

func compressZSTD(data []byte) ([]byte, error) {
	enc, err := zstdEncoderPool.Get(nil)
	if err != nil {
		return nil, fmt.Errorf("codec: get zstd encoder: %w", err)
	}
	defer zstdEncoderPool.Put(enc)
	return enc.EncodeAll(data, nil), nil
}

func decompressZSTD(data []byte) ([]byte, error) {
	dec, err := zstdDecoderPool.Get(nil)
	if err != nil {
		return nil, fmt.Errorf("codec: get zstd decoder: %w", err)
	}
	defer zstdDecoderPool.Put(dec)
	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("codec: zstd decompress: %w", err)
	}
	return out, nil
}
