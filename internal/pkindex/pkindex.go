// Package pkindex implements the primary index (C5): an ordered map
// from primary-key string to full row values, with lexicographic range
// scans over a closed interval. Backed by github.com/google/btree the
// way the example corpus's leftmike-maho.v1 engine/memkv store backs
// its own ordered key-value map, since a plain Go map cannot support
// AscendRange.
package pkindex

import (
	"sync"

	"github.com/google/btree"
)

const defaultDegree = 32

type item struct {
	key    string
	values []string
}

func (i item) Less(other btree.Item) bool {
	return i.key < other.(item).key
}

// Index is an ordered map from pk string to row values; inserts are
// upserts.
type Index struct {
	mu   sync.RWMutex
	tree *btree.BTree
}

// New returns an empty primary index.
func New() *Index {
	return &Index{tree: btree.New(defaultDegree)}
}

// Upsert inserts or overwrites the entry for key.
func (idx *Index) Upsert(key string, values []string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	cp := make([]string, len(values))
	copy(cp, values)
	idx.tree.ReplaceOrInsert(item{key: key, values: cp})
}

// Delete removes the entry for key, if present. Closes the distilled
// spec's acknowledged "no deletion path" gap (SPEC_FULL.md §4.5).
func (idx *Index) Delete(key string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.tree.Delete(item{key: key})
}

// Get returns the row values for an exact key.
func (idx *Index) Get(key string) ([]string, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	found := idx.tree.Get(item{key: key})
	if found == nil {
		return nil, false
	}
	return found.(item).values, true
}

// Range returns all entries with min <= key <= max, in lexicographic order.
func (idx *Index) Range(min, max string) [][]string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	var out [][]string
	idx.tree.AscendRange(item{key: min}, item{key: max + "\x00"}, func(i btree.Item) bool {
		out = append(out, i.(item).values)
		return true
	})
	return out
}

// All returns every entry's row values in key order.
func (idx *Index) All() [][]string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make([][]string, 0, idx.tree.Len())
	idx.tree.Ascend(func(i btree.Item) bool {
		out = append(out, i.(item).values)
		return true
	})
	return out
}

// Len reports the number of entries (used for get_index_size).
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.tree.Len()
}

// Clear empties the index (used by drop_table).
func (idx *Index) Clear() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.tree = btree.New(defaultDegree)
}
