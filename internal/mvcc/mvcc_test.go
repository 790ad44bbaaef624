package mvcc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUncommittedVisibleOnlyToOwnTxn(t *testing.T) {
	c := New()
	c.InsertUncommitted("users", "1", []string{"1", "Alice"}, "tx1")

	values, ok := c.LookupVisible("users", "1", "tx1", nil)
	require.True(t, ok)
	require.Equal(t, []string{"1", "Alice"}, values)

	_, ok = c.LookupVisible("users", "1", "tx2", nil)
	require.False(t, ok)
}

func TestCommitMakesVisibleToOtherReaders(t *testing.T) {
	c := New()
	c.InsertUncommitted("users", "1", []string{"1", "Alice"}, "tx1")
	c.CommitInsert("users", "1", "tx1")

	values, ok := c.LookupVisible("users", "1", "tx2", nil)
	require.True(t, ok)
	require.Equal(t, []string{"1", "Alice"}, values)
}

func TestCommittedNotVisibleIfWriterStillActive(t *testing.T) {
	c := New()
	c.InsertUncommitted("users", "1", []string{"1", "Alice"}, "tx1")
	c.CommitInsert("users", "1", "tx1")

	active := map[string]struct{}{"tx1": {}}
	_, ok := c.LookupVisible("users", "1", "tx2", active)
	require.False(t, ok)
}

func TestRollbackRemovesUncommittedHead(t *testing.T) {
	c := New()
	c.InsertUncommitted("users", "1", []string{"1", "Alice"}, "tx1")
	c.RollbackInsert("users", "1", "tx1")

	_, ok := c.LookupVisible("users", "1", "tx1", nil)
	require.False(t, ok)
}

func TestMarkDeleteCommitHidesRow(t *testing.T) {
	c := New()
	c.InsertUncommitted("users", "1", []string{"1", "Alice"}, "tx1")
	c.CommitInsert("users", "1", "tx1")
	c.MarkDeleteCommit("users", "1", "tx2")

	_, ok := c.LookupVisible("users", "1", "tx3", nil)
	require.False(t, ok)
}

func TestClearTableDropsOnlyThatTablesChains(t *testing.T) {
	c := New()
	c.InsertUncommitted("users", "1", []string{"1"}, "tx1")
	c.CommitInsert("users", "1", "tx1")
	c.InsertUncommitted("orders", "1", []string{"1"}, "tx1")
	c.CommitInsert("orders", "1", "tx1")

	c.ClearTable("users")

	_, ok := c.LookupVisible("users", "1", "tx2", nil)
	require.False(t, ok)
	_, ok = c.LookupVisible("orders", "1", "tx2", nil)
	require.True(t, ok)
}
