package skiplist

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func intLess(a, b int) bool { return a < b }

func TestInsertOrderAndIteration(t *testing.T) {
	sl := New[int, int](intLess, rand.New(rand.NewSource(42)))
	for _, k := range []int{5, 3, 8, 1, 9, 3} {
		sl.Insert(k, k)
	}
	require.NoError(t, sl.ValidateInvariants())

	got := sl.Iter()
	want := []int{1, 3, 5, 8, 9}
	require.Len(t, got, len(want))
	for i, e := range got {
		require.Equal(t, want[i], e.Key)
		require.Equal(t, want[i], e.Value)
	}
}

func TestDuplicateKeyReplaces(t *testing.T) {
	sl := New[int, string](intLess, rand.New(rand.NewSource(1)))
	sl.Insert(1, "a")
	prev, had := sl.Insert(1, "b")
	require.True(t, had)
	require.Equal(t, "a", prev)
	v, ok := sl.Search(1)
	require.True(t, ok)
	require.Equal(t, "b", v)
}

func TestRemove(t *testing.T) {
	sl := New[int, int](intLess, rand.New(rand.NewSource(7)))
	sl.Insert(1, 1)
	sl.Insert(2, 2)
	v, ok := sl.Remove(1)
	require.True(t, ok)
	require.Equal(t, 1, v)
	_, ok = sl.Search(1)
	require.False(t, ok)
	require.Equal(t, 1, sl.Len())
}

// TestEquivalesOrderedMap checks SkipList observations against a reference
// ordered structure across a randomized interleaving of insert/remove/search.
func TestEquivalesOrderedMap(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	sl := New[int, int](intLess, rand.New(rand.NewSource(100)))
	ref := map[int]int{}

	for i := 0; i < 5000; i++ {
		k := rng.Intn(201) - 100
		switch rng.Intn(3) {
		case 0:
			sl.Insert(k, k)
			ref[k] = k
		case 1:
			sl.Remove(k)
			delete(ref, k)
		case 2:
			v, ok := sl.Search(k)
			rv, rok := ref[k]
			require.Equal(t, rok, ok)
			if ok {
				require.Equal(t, rv, v)
			}
		}
	}

	require.NoError(t, sl.ValidateInvariants())

	keys := make([]int, 0, len(ref))
	for k := range ref {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	got := sl.Iter()
	require.Len(t, got, len(keys))
	for i, e := range got {
		require.Equal(t, keys[i], e.Key)
	}
}
