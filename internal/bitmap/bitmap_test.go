package bitmap

import (
	"math/bits"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetGetBit(t *testing.T) {
	b := New()
	require.False(t, b.GetBit(10))
	b.SetBit(10, true)
	require.True(t, b.GetBit(10))
	b.SetBit(10, false)
	require.False(t, b.GetBit(10))
}

func TestBitCountMatchesPopcount(t *testing.T) {
	b := FromBytes([]byte{0xFF, 0x0F, 0xAA, 0x00})
	want := 0
	for _, byt := range b.Bytes() {
		want += bits.OnesCount8(byt)
	}
	require.Equal(t, want, b.BitCount(0, len(b.Bytes())))
}

func TestLogicalOpsZeroExtendShorterOperand(t *testing.T) {
	a := FromBytes([]byte{0xFF, 0xFF})
	b := FromBytes([]byte{0x0F})

	and := And(a, b)
	require.Equal(t, []byte{0x0F, 0x00}, and.Bytes())

	or := Or(a, b)
	require.Equal(t, []byte{0xFF, 0xFF}, or.Bytes())

	xor := Xor(a, b)
	require.Equal(t, []byte{0xF0, 0xFF}, xor.Bytes())
}

func TestNot(t *testing.T) {
	a := FromBytes([]byte{0x00, 0xFF})
	require.Equal(t, []byte{0xFF, 0x00}, Not(a).Bytes())
}
