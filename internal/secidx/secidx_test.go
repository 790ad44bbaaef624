package secidx

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildFromAndLookup(t *testing.T) {
	idx := BuildFrom([][2]string{{"active", "1"}, {"active", "2"}, {"inactive", "3"}})

	got := idx.Lookup("active")
	sort.Strings(got)
	require.Equal(t, []string{"1", "2"}, got)

	require.Equal(t, []string{"3"}, idx.Lookup("inactive"))
	require.Nil(t, idx.Lookup("missing"))
}

func TestAddAndRemove(t *testing.T) {
	idx := New()
	idx.Add("x", "1")
	idx.Add("x", "2")
	require.Len(t, idx.Lookup("x"), 2)

	idx.Remove("x", "1")
	require.Equal(t, []string{"2"}, idx.Lookup("x"))

	idx.Remove("x", "2")
	require.Nil(t, idx.Lookup("x"), "bucket should be pruned once empty")
}

func TestRangeLookupInclusiveExclusive(t *testing.T) {
	idx := New()
	idx.Add("a", "1")
	idx.Add("b", "2")
	idx.Add("c", "3")

	got := idx.RangeLookup("a", "c", true, true)
	sort.Strings(got)
	require.Equal(t, []string{"1", "2", "3"}, got)

	got = idx.RangeLookup("a", "c", false, false)
	require.Equal(t, []string{"2"}, got)
}

func TestClear(t *testing.T) {
	idx := New()
	idx.Add("x", "1")
	idx.Clear()
	require.Nil(t, idx.Lookup("x"))
}
