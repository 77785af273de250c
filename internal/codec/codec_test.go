package codec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rpcpool/zumic/internal/dict"
	"github.com/rpcpool/zumic/internal/hll"
	"github.com/rpcpool/zumic/internal/sds"
	"github.com/rpcpool/zumic/internal/value"
)

func roundTrip(t *testing.T, v value.Value) value.Value {
	t.Helper()
	b, err := Encode(v)
	require.NoError(t, err)
	got, n, err := Decode(b, CurrentVersion)
	require.NoError(t, err)
	require.Equal(t, len(b), n)
	return got
}

func TestEncodeDecodeScalars(t *testing.T) {
	str := roundTrip(t, value.NewStr("hello")).(value.Str)
	s, err := str.S.AsString()
	require.NoError(t, err)
	require.Equal(t, "hello", s)

	i := roundTrip(t, value.Int{N: -42}).(value.Int)
	require.Equal(t, int64(-42), i.N)

	f := roundTrip(t, value.Float{F: 3.5}).(value.Float)
	require.Equal(t, 3.5, f.F)

	_, ok := roundTrip(t, value.Null{}).(value.Null)
	require.True(t, ok)
}

func TestEncodeDecodeList(t *testing.T) {
	l := value.NewList()
	l.L.PushBack([]byte("a"))
	l.L.PushBack([]byte("b"))
	l.L.PushBack([]byte("c"))

	got := roundTrip(t, l).(value.List)
	require.Equal(t, [][]byte{[]byte("a"), []byte("b"), []byte("c")}, got.L.Iter())
}

func TestEncodeDecodeListWithOversizedElement(t *testing.T) {
	big := make([]byte, 1000)
	for i := range big {
		big[i] = byte(i)
	}
	l := value.NewList()
	l.L.PushBack([]byte("a"))
	l.L.PushBack(big)
	l.L.PushBack([]byte("c"))

	got := roundTrip(t, l).(value.List)
	require.Equal(t, [][]byte{[]byte("a"), big, []byte("c")}, got.L.Iter())
}

func TestEncodeDecodeHash(t *testing.T) {
	h := value.NewHash()
	h.D.Set("f1", sds.FromString("v1"))
	h.D.Set("f2", sds.FromString("v2"))

	got := roundTrip(t, h).(value.Hash)
	require.Equal(t, 2, got.D.Len())
	v1, ok := got.D.Get("f1")
	require.True(t, ok)
	require.Equal(t, "v1", string(v1.Bytes()))
}

func TestEncodeDecodeZSet(t *testing.T) {
	z := value.NewZSet()
	z.Scores.Set("alice", 1.5)
	z.Order.Insert(value.ZSetKey{Score: 1.5, Member: "alice"}, "alice")
	z.Scores.Set("bob", 2.5)
	z.Order.Insert(value.ZSetKey{Score: 2.5, Member: "bob"}, "bob")

	got := roundTrip(t, z).(value.ZSet)
	require.Equal(t, 2, got.Scores.Len())
	score, ok := got.Scores.Get("bob")
	require.True(t, ok)
	require.Equal(t, 2.5, score)
	entries := got.Order.Iter()
	require.Len(t, entries, 2)
	require.Equal(t, "alice", entries[0].Key.Member)
	require.Equal(t, "bob", entries[1].Key.Member)
}

func TestEncodeDecodeSetIntSet(t *testing.T) {
	s := value.NewSet()
	s.Ints.Insert(1)
	s.Ints.Insert(2)
	s.Ints.Insert(3)

	got := roundTrip(t, s).(value.Set)
	require.NotNil(t, got.Ints)
	require.Equal(t, []int64{1, 2, 3}, got.Ints.Values())
}

func TestEncodeDecodeSetGeneral(t *testing.T) {
	d := dict.New[struct{}](0)
	d.Set("x", struct{}{})
	d.Set("y", struct{}{})
	s := value.Set{General: d}

	got := roundTrip(t, s).(value.Set)
	require.NotNil(t, got.General)
	require.Equal(t, 2, got.General.Len())
}

func TestEncodeDecodeHLLSparse(t *testing.T) {
	h := value.NewHLL(0)
	for i := 0; i < 10; i++ {
		h.Reg = h.Reg.Add([]byte{byte(i)})
	}

	got := roundTrip(t, h).(value.HLL)
	require.False(t, got.Reg.IsDense())
	require.InDelta(t, h.Reg.EstimateCardinality(), got.Reg.EstimateCardinality(), 1)
}

func TestEncodeDecodeHLLDense(t *testing.T) {
	d := hll.NewDense()
	for i := 0; i < 100; i++ {
		d.Add([]byte(strings.Repeat("x", i+1)))
	}
	h := value.HLL{Reg: d}

	got := roundTrip(t, h).(value.HLL)
	require.True(t, got.Reg.IsDense())
	require.Equal(t, d.EstimateCardinality(), got.Reg.EstimateCardinality())
}

func TestEncodeDecodeBitmap(t *testing.T) {
	bm := value.NewBitmap()
	bm.B.SetBit(0, true)
	bm.B.SetBit(10, true)

	got := roundTrip(t, bm).(value.Bitmap)
	require.True(t, got.B.GetBit(0))
	require.True(t, got.B.GetBit(10))
	require.False(t, got.B.GetBit(1))
}

func TestEncodeDecodeStream(t *testing.T) {
	st := value.Stream{Entries: []value.StreamEntry{
		{MS: 1000, Seq: 0, Fields: map[string][]byte{"a": []byte("1")}},
		{MS: 1001, Seq: 0, Fields: map[string][]byte{"b": []byte("2")}},
	}}

	got := roundTrip(t, st).(value.Stream)
	require.Len(t, got.Entries, 2)
	require.Equal(t, int64(1000), got.Entries[0].MS)
	require.Equal(t, []byte("1"), got.Entries[0].Fields["a"])
}

func TestDecodeMalformedNeverPanics(t *testing.T) {
	inputs := [][]byte{
		nil,
		{},
		{byte(value.TagStr)},
		{byte(value.TagList), 0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
		{byte(value.TagSet), 0x02},
		// Claims a huge stream entry count (uvarint 0x7F... ~ 2^35) with no
		// entry bytes behind it: must be rejected by decodeCount's
		// maxContainerLen cap, not pre-allocate a slice sized by the count.
		{byte(value.TagStream), 0xFF, 0xFF, 0xFF, 0xFF, 0x7F},
		{0xEE},
	}
	for _, in := range inputs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("Decode panicked on %v: %v", in, r)
				}
			}()
			_, _, _ = Decode(in, CurrentVersion)
		}()
	}
}

func TestWrapUnwrapRecordRoundTrip(t *testing.T) {
	small := []byte("short")
	wrapped, err := WrapRecord(small)
	require.NoError(t, err)
	require.Equal(t, byte(envelopeRaw), wrapped[0])
	got, n, err := UnwrapRecord(wrapped)
	require.NoError(t, err)
	require.Equal(t, len(wrapped), n)
	require.Equal(t, small, got)

	large := []byte(strings.Repeat("compressible-payload-", 50))
	wrapped, err = WrapRecord(large)
	require.NoError(t, err)
	require.Equal(t, byte(envelopeCompressed), wrapped[0])
	got, n, err = UnwrapRecord(wrapped)
	require.NoError(t, err)
	require.Equal(t, len(wrapped), n)
	require.Equal(t, large, got)
}

func TestWrapUnwrapRecordIncompressible(t *testing.T) {
	// Random-looking but still > MinCompressionSize; zstd should still
	// manage a smaller-or-equal output for repetitive ASCII, so use a
	// payload engineered to barely exceed the threshold without much
	// redundancy, to exercise the raw fallback branch.
	large := make([]byte, MinCompressionSize+1)
	for i := range large {
		large[i] = byte(i * 97 % 256)
	}
	wrapped, err := WrapRecord(large)
	require.NoError(t, err)
	got, n, err := UnwrapRecord(wrapped)
	require.NoError(t, err)
	require.Equal(t, len(wrapped), n)
	require.Equal(t, large, got)
}

func TestWrapUnwrapRecordsPackedBackToBack(t *testing.T) {
	a, err := WrapRecord([]byte("first"))
	require.NoError(t, err)
	b, err := WrapRecord([]byte(strings.Repeat("second-payload-", 20)))
	require.NoError(t, err)
	packed := append(append([]byte{}, a...), b...)

	got1, n1, err := UnwrapRecord(packed)
	require.NoError(t, err)
	require.Equal(t, []byte("first"), got1)
	got2, n2, err := UnwrapRecord(packed[n1:])
	require.NoError(t, err)
	require.Equal(t, []byte(strings.Repeat("second-payload-", 20)), got2)
	require.Equal(t, len(packed), n1+n2)
}
