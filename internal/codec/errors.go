package codec

import "github.com/rpcpool/zumic/internal/zerr"

func decodeErr(msg string) error { return zerr.New(zerr.KindDecode, msg) }
func encodeErr(msg string) error { return zerr.New(zerr.KindEncode, msg) }

func wrapDecodeErr(msg string, cause error) error { return zerr.Wrap(zerr.KindDecode, msg, cause) }
func wrapEncodeErr(msg string, cause error) error { return zerr.Wrap(zerr.KindEncode, msg, cause) }
