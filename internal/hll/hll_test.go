package hll

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func randBytes(n int) []byte {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return b
}

func TestSparseToDensePromotion(t *testing.T) {
	var reg Register = NewSparse(3000)
	for i := 0; i < 5000; i++ {
		reg = reg.Add(randBytes(8))
	}
	require.True(t, reg.IsDense())

	est := reg.EstimateCardinality()
	require.InDelta(t, 5000, float64(est), 5000*0.05)
}

func TestEstimateWithinErrorBound(t *testing.T) {
	var reg Register = NewDense()
	const n = 10000
	for i := 0; i < n; i++ {
		reg = reg.Add(randBytes(16))
	}
	est := float64(reg.EstimateCardinality())
	require.GreaterOrEqual(t, est, 0.9*n)
	require.LessOrEqual(t, est, 1.1*n)
}

func TestMergeCommutativeAndIdempotent(t *testing.T) {
	a := NewDense()
	b := NewDense()
	for i := 0; i < 1000; i++ {
		data := randBytes(8)
		a = a.Add(data).(*Dense)
	}
	for i := 0; i < 1000; i++ {
		data := randBytes(8)
		b = b.Add(data).(*Dense)
	}

	ab := a.Merge(b).(*Dense)
	ba := b.Merge(a).(*Dense)
	require.Equal(t, ab.payload, ba.payload)

	abab := ab.Merge(ab).(*Dense)
	require.Equal(t, ab.payload, abab.payload)
}

func TestSparseMergeStaysSparseBelowThreshold(t *testing.T) {
	a := NewSparse(3000)
	b := NewSparse(3000)
	a.Add([]byte("one"))
	b.Add([]byte("two"))
	merged := a.Merge(b)
	require.False(t, merged.IsDense())
}
