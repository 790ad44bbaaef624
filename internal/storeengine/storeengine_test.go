package storeengine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"reldb/internal/schema"
)

func usersTable() schema.Table {
	return schema.Table{
		Name: "users",
		Columns: []schema.Column{
			{Name: "id", Type: schema.TypeInt, IsPrimaryKey: true},
			{Name: "name", Type: schema.TypeString},
		},
	}
}

func openEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := Open(Options{BaseDir: t.TempDir()})
	require.NoError(t, err)
	return e
}

func TestCreateTableRejectsDuplicate(t *testing.T) {
	e := openEngine(t)
	require.NoError(t, e.CreateTable(usersTable()))
	err := e.CreateTable(usersTable())
	require.ErrorIs(t, err, ErrDuplicateTable)
}

func TestInsertIndexRowMaintainsPrimaryIndex(t *testing.T) {
	e := openEngine(t)
	require.NoError(t, e.CreateTable(usersTable()))
	require.NoError(t, e.InsertIndexRow("users", []string{"1", "Alice"}))

	idx, ok := e.PrimaryIndex("users")
	require.True(t, ok)
	values, found := idx.Get("1")
	require.True(t, found)
	require.Equal(t, []string{"1", "Alice"}, values)
}

func TestCreateNewPageAndGetPage(t *testing.T) {
	e := openEngine(t)
	require.NoError(t, e.CreateTable(usersTable()))

	pg, err := e.CreateNewPage("users")
	require.NoError(t, err)
	require.Equal(t, uint64(1), pg.ID)
	require.Equal(t, uint64(1), e.MaxPageID("users"))

	_, inserted := pg.InsertRow([]string{"1", "Alice"})
	require.True(t, inserted)
	require.NoError(t, e.WritePage("users", pg))

	loaded, ok, err := e.GetPage("users", 1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, loaded.LiveRows(), 1)
}

func TestPrimaryIndexSeededFromDiskOnReopen(t *testing.T) {
	dir := t.TempDir()
	e, err := Open(Options{BaseDir: dir})
	require.NoError(t, err)
	require.NoError(t, e.CreateTable(usersTable()))

	pg, err := e.CreateNewPage("users")
	require.NoError(t, err)
	pg.InsertRow([]string{"1", "Alice"})
	require.NoError(t, e.WritePage("users", pg))
	require.NoError(t, e.InsertIndexRow("users", []string{"1", "Alice"}))

	reopened, err := Open(Options{BaseDir: dir})
	require.NoError(t, err)
	idx, ok := reopened.PrimaryIndex("users")
	require.True(t, ok)
	values, found := idx.Get("1")
	require.True(t, found)
	require.Equal(t, []string{"1", "Alice"}, values)
}

func TestEnableCompositeIndexDurableAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	e, err := Open(Options{BaseDir: dir})
	require.NoError(t, err)
	require.NoError(t, e.CreateTable(usersTable()))
	require.NoError(t, e.InsertIndexRow("users", []string{"1", "Alice"}))
	require.NoError(t, e.EnableCompositeIndex("users", []int{1}))

	got := e.CompositeIndexRange("users", "Alice", "Alice")
	require.Len(t, got, 1)

	reopened, err := Open(Options{BaseDir: dir})
	require.NoError(t, err)
	require.True(t, reopened.HasIndex("users"))
	got = reopened.CompositeIndexRange("users", "Alice", "Alice")
	require.Len(t, got, 1)
}

func TestSecondaryIndexLookup(t *testing.T) {
	e := openEngine(t)
	require.NoError(t, e.CreateTable(usersTable()))
	require.NoError(t, e.InsertIndexRow("users", []string{"1", "Alice"}))
	require.NoError(t, e.InsertIndexRow("users", []string{"2", "Bob"}))
	require.NoError(t, e.EnableSecondaryIndex("users", "name"))

	idx, ok := e.SecondaryIndex("users", "name")
	require.True(t, ok)
	require.Equal(t, []string{"1"}, idx.Lookup("Alice"))
}

func TestDeleteIndexRowRemovesFromAllIndexes(t *testing.T) {
	e := openEngine(t)
	require.NoError(t, e.CreateTable(usersTable()))
	require.NoError(t, e.InsertIndexRow("users", []string{"1", "Alice"}))
	require.NoError(t, e.EnableCompositeIndex("users", []int{1}))
	require.NoError(t, e.EnableSecondaryIndex("users", "name"))

	e.DeleteIndexRow("users", []string{"1", "Alice"})

	idx, _ := e.PrimaryIndex("users")
	_, found := idx.Get("1")
	require.False(t, found)
	require.Len(t, e.CompositeIndexRange("users", "Alice", "Alice"), 0)
	sec, _ := e.SecondaryIndex("users", "name")
	require.Len(t, sec.Lookup("Alice"), 0)
}

func TestDropTableDataClearsEverything(t *testing.T) {
	e := openEngine(t)
	require.NoError(t, e.CreateTable(usersTable()))
	require.NoError(t, e.InsertIndexRow("users", []string{"1", "Alice"}))

	require.NoError(t, e.DropTableData("users"))
	_, ok := e.Schema("users")
	require.False(t, ok)
	_, ok = e.PrimaryIndex("users")
	require.False(t, ok)
}
