package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func roundTripFrame(t *testing.T, f Frame) Frame {
	t.Helper()
	b, err := Encode(f)
	require.NoError(t, err)
	d := NewDecoder()
	got, n, err := d.Decode(b)
	require.NoError(t, err)
	require.Equal(t, len(b), n)
	return got
}

func TestRoundTripScalars(t *testing.T) {
	require.Equal(t, InlineString("OK"), roundTripFrame(t, InlineString("OK")))
	require.Equal(t, ErrorFrame("bad"), roundTripFrame(t, ErrorFrame("bad")))
	require.Equal(t, Integer(-17), roundTripFrame(t, Integer(-17)))
	require.Equal(t, Float(3.25), roundTripFrame(t, Float(3.25)))
	require.Equal(t, Float(posInf), roundTripFrame(t, Float(posInf)))
	require.Equal(t, Boolean(true), roundTripFrame(t, Boolean(true)))
	require.Equal(t, Boolean(false), roundTripFrame(t, Boolean(false)))
}

func TestRoundTripBinaryString(t *testing.T) {
	got := roundTripFrame(t, BinaryString{Bytes: []byte("hello\x00world")}).(BinaryString)
	require.Equal(t, []byte("hello\x00world"), got.Bytes)

	gotNull := roundTripFrame(t, BinaryString{Null: true}).(BinaryString)
	require.True(t, gotNull.Null)
}

func TestRoundTripArrayNested(t *testing.T) {
	f := Array{Items: []Frame{
		Integer(1),
		BinaryString{Bytes: []byte("x")},
		Array{Items: []Frame{Integer(2), Integer(3)}},
	}}
	got := roundTripFrame(t, f).(Array)
	require.Len(t, got.Items, 3)
	inner := got.Items[2].(Array)
	require.Equal(t, Integer(2), inner.Items[0])

	gotNull := roundTripFrame(t, Array{Null: true}).(Array)
	require.True(t, gotNull.Null)
}

func TestRoundTripDictionary(t *testing.T) {
	f := Dictionary{Entries: []DictEntry{
		{Key: BinaryString{Bytes: []byte("a")}, Value: Integer(1)},
		{Key: BinaryString{Bytes: []byte("b")}, Value: Integer(2)},
	}}
	got := roundTripFrame(t, f).(Dictionary)
	require.Len(t, got.Entries, 2)
}

func TestRoundTripZSet(t *testing.T) {
	f := ZSet{Pairs: []ZSetPair{{Member: "a", Score: 1.5}, {Member: "b", Score: 2.5}}}
	got := roundTripFrame(t, f).(ZSet)
	require.Equal(t, f.Pairs, got.Pairs)
}

func TestDecodeIncompleteRequestsMoreBytes(t *testing.T) {
	full, err := Encode(BinaryString{Bytes: []byte("hello")})
	require.NoError(t, err)
	d := NewDecoder()
	for n := 0; n < len(full); n++ {
		_, _, err := d.Decode(full[:n])
		require.ErrorIs(t, err, ErrIncomplete)
	}
	_, consumed, err := d.Decode(full)
	require.NoError(t, err)
	require.Equal(t, len(full), consumed)
}

func TestDecodeEnforcesDepthLimit(t *testing.T) {
	d := &Decoder{MaxDepth: 2, MaxSize: DefaultMaxSize}
	f := Array{Items: []Frame{Array{Items: []Frame{Array{Items: []Frame{Integer(1)}}}}}}
	b, err := Encode(f)
	require.NoError(t, err)
	_, _, err = d.Decode(b)
	require.Error(t, err)
}

func TestDecodeArrayHugeCountWithShortBufferDoesNotOverAllocate(t *testing.T) {
	d := NewDecoder()
	// A claimed count near MaxSize with no element bytes behind it must
	// not pre-allocate a slice sized by that count; boundedCap keeps the
	// initial allocation small regardless of what the count claims.
	_, _, err := d.Decode([]byte("*536870911\r\n"))
	require.ErrorIs(t, err, ErrIncomplete)

	_, _, err = d.Decode([]byte("%536870911\r\n"))
	require.Error(t, err)

	_, _, err = d.Decode([]byte("~536870911\r\n"))
	require.Error(t, err)
}

func TestDecodeMalformedNeverPanics(t *testing.T) {
	inputs := []string{
		"$-5\r\n",
		"*abc\r\n",
		":notanumber\r\n",
		"#x\r\n",
		"$5\r\nabc\r\n",
		"\x00\x01\x02",
	}
	d := NewDecoder()
	for _, in := range inputs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("Decode panicked on %q: %v", in, r)
				}
			}()
			_, _, _ = d.Decode([]byte(in))
		}()
	}
}
