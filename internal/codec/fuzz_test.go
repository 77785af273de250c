package codec

import (
	"testing"

	"github.com/rpcpool/zumic/internal/value"
)

// FuzzDecode is the decoder's primary fuzz target: Decode must never panic
// on arbitrary bytes, regardless of tag byte or truncation point, always
// returning a *zerr.Error instead. Corpus seeds mirror the crash classes
// exercised in TestDecodeMalformedNeverPanics.
func FuzzDecode(f *testing.F) {
	seeds := [][]byte{
		nil,
		{},
		{byte(value.TagStr)},
		{byte(value.TagInt)},
		{byte(value.TagFloat), 0, 0, 0, 0, 0, 0, 0},
		{byte(value.TagList), 0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
		{byte(value.TagHash), 0x01},
		{byte(value.TagZSet), 0x01},
		{byte(value.TagSet), 0x02},
		{byte(value.TagHLL), 0x00},
		{byte(value.TagBitmap)},
		{byte(value.TagStream)},
		{byte(value.TagStream), 0xFF, 0xFF, 0xFF, 0xFF, 0x7F},
		{0xEE},
	}
	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, in []byte) {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("Decode panicked on %v: %v", in, r)
			}
		}()
		v, n, err := Decode(in, CurrentVersion)
		if err != nil {
			return
		}
		if n < 0 || n > len(in) {
			t.Fatalf("Decode reported consumed=%d outside [0,%d]", n, len(in))
		}
		if v == nil {
			t.Fatalf("Decode returned a nil value with no error")
		}
	})
}

// FuzzUnwrapRecord exercises the envelope unwrap path the same way, since
// snapshot/AOF records feed attacker-reachable bytes through it before
// Decode ever runs.
func FuzzUnwrapRecord(f *testing.F) {
	seeds := [][]byte{
		nil,
		{},
		{0x00},
		{0x01},
		{0x00, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
		{0x01, 0x01, 0x01, 0xAB},
	}
	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, in []byte) {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("UnwrapRecord panicked on %v: %v", in, r)
			}
		}()
		_, n, err := UnwrapRecord(in)
		if err != nil {
			return
		}
		if n < 0 || n > len(in) {
			t.Fatalf("UnwrapRecord reported consumed=%d outside [0,%d]", n, len(in))
		}
	})
}
