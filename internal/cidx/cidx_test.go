package cidx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnableBuildsFromAllRows(t *testing.T) {
	dir := t.TempDir()
	rows := [][]string{
		{"1", "a", "x"},
		{"2", "b", "y"},
	}
	idx, err := Enable(dir, "t", []int{1, 2}, rows, nil)
	require.NoError(t, err)
	defer idx.Close()

	got := idx.Range("a", "b")
	require.Len(t, got, 2)
	// Entries must carry the full row, not just the indexed columns.
	require.Equal(t, []string{"1", "a", "x"}, got[0])
	require.Equal(t, []string{"2", "b", "y"}, got[1])
}

func TestInsertAppendsWAL(t *testing.T) {
	dir := t.TempDir()
	idx, err := Enable(dir, "t", []int{0}, nil, nil)
	require.NoError(t, err)
	require.NoError(t, idx.Insert([]string{"z", "unindexed"}))
	require.NoError(t, idx.Close())

	reopened, ok, err := Open(dir, "t", nil)
	require.NoError(t, err)
	require.True(t, ok)
	got := reopened.Range("z", "z")
	require.Len(t, got, 1)
	require.Equal(t, []string{"z", "unindexed"}, got[0])
}

func TestOpenWithoutMetaReportsNotEnabled(t *testing.T) {
	dir := t.TempDir()
	_, ok, err := Open(dir, "nope", nil)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCompositeIndexDurabilityAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	idx, err := Enable(dir, "t", []int{0, 1}, [][]string{{"1", "a", "x"}}, nil)
	require.NoError(t, err)
	require.NoError(t, idx.Insert([]string{"2", "b", "y"}))
	require.NoError(t, idx.Close())

	reopened, ok, err := Open(dir, "t", nil)
	require.NoError(t, err)
	require.True(t, ok)

	got := reopened.Range(Key([]string{"1", "a"}), Key([]string{"2", "b"}))
	require.Len(t, got, 2)
	// The third, non-indexed column must survive the snapshot+WAL round trip.
	require.Equal(t, []string{"1", "a", "x"}, got[0])
	require.Equal(t, []string{"2", "b", "y"}, got[1])
}

func TestDeleteRemovesEntry(t *testing.T) {
	dir := t.TempDir()
	idx, err := Enable(dir, "t", []int{0}, [][]string{{"a"}}, nil)
	require.NoError(t, err)
	defer idx.Close()

	idx.Delete([]string{"a"})
	got := idx.Range("a", "a")
	require.Len(t, got, 0)
}

func TestDrop(t *testing.T) {
	dir := t.TempDir()
	idx, err := Enable(dir, "t", []int{0}, [][]string{{"a"}}, nil)
	require.NoError(t, err)
	require.NoError(t, idx.Drop())

	_, ok, err := Open(dir, "t", nil)
	require.NoError(t, err)
	require.False(t, ok)
}
