package pkindex

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUpsertAndGet(t *testing.T) {
	idx := New()
	idx.Upsert("2", []string{"2", "Bob"})
	idx.Upsert("1", []string{"1", "Alice"})

	values, ok := idx.Get("1")
	require.True(t, ok)
	require.Equal(t, []string{"1", "Alice"}, values)

	idx.Upsert("1", []string{"1", "Alicia"})
	values, ok = idx.Get("1")
	require.True(t, ok)
	require.Equal(t, []string{"1", "Alicia"}, values)
}

func TestDelete(t *testing.T) {
	idx := New()
	idx.Upsert("1", []string{"1"})
	idx.Delete("1")
	_, ok := idx.Get("1")
	require.False(t, ok)
}

func TestRangeIsClosedAndOrdered(t *testing.T) {
	idx := New()
	for _, k := range []string{"a", "b", "c", "d"} {
		idx.Upsert(k, []string{k})
	}
	got := idx.Range("b", "c")
	require.Len(t, got, 2)
	require.Equal(t, "b", got[0][0])
	require.Equal(t, "c", got[1][0])
}

func TestAllReturnsKeyOrder(t *testing.T) {
	idx := New()
	idx.Upsert("3", []string{"3"})
	idx.Upsert("1", []string{"1"})
	idx.Upsert("2", []string{"2"})

	all := idx.All()
	require.Len(t, all, 3)
	require.Equal(t, []string{"1"}, all[0])
	require.Equal(t, []string{"2"}, all[1])
	require.Equal(t, []string{"3"}, all[2])
}

func TestClear(t *testing.T) {
	idx := New()
	idx.Upsert("1", []string{"1"})
	idx.Clear()
	require.Equal(t, 0, idx.Len())
}
