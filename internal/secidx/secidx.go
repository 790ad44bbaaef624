// Package secidx implements the secondary value index (C10): a
// per-column inverted index from a single column's text value to the
// set of matching primary keys, supporting equality and range lookup.
// Grounded on the reference implementation's index/index_manager.py
// (value -> [pk] inverted map plus a sorted key list for range scans),
// but backed by github.com/google/btree instead of a bisect-maintained
// Python list, and with no cross-table persistence: this index is
// process-lifetime only (SPEC_FULL.md §4.10).
package secidx

import (
	"sync"

	"github.com/google/btree"
)

const defaultDegree = 32

type bucket struct {
	value string
	pks   map[string]struct{}
}

func (b bucket) Less(other btree.Item) bool {
	return b.value < other.(bucket).value
}

// Index is the inverted value->pks map for one (table, column) pair.
type Index struct {
	mu   sync.RWMutex
	tree *btree.BTree
}

// New returns an empty secondary index.
func New() *Index {
	return &Index{tree: btree.New(defaultDegree)}
}

// BuildFrom seeds the index from existing (value, pk) pairs, e.g. when
// enabling the index over a table that already has live rows.
func BuildFrom(pairs [][2]string) *Index {
	idx := New()
	for _, p := range pairs {
		idx.Add(p[0], p[1])
	}
	return idx
}

// Add records that primary key pk currently has this column's value.
func (idx *Index) Add(value, pk string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	found := idx.tree.Get(bucket{value: value})
	if found == nil {
		idx.tree.ReplaceOrInsert(bucket{value: value, pks: map[string]struct{}{pk: {}}})
		return
	}
	found.(bucket).pks[pk] = struct{}{}
}

// Remove drops pk from the bucket for value; an empty bucket is pruned
// so range scans don't return stale, now-empty keys.
func (idx *Index) Remove(value, pk string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	found := idx.tree.Get(bucket{value: value})
	if found == nil {
		return
	}
	b := found.(bucket)
	delete(b.pks, pk)
	if len(b.pks) == 0 {
		idx.tree.Delete(bucket{value: value})
	}
}

// Lookup returns the primary keys currently mapped to value.
func (idx *Index) Lookup(value string) []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	found := idx.tree.Get(bucket{value: value})
	if found == nil {
		return nil
	}
	b := found.(bucket)
	out := make([]string, 0, len(b.pks))
	for pk := range b.pks {
		out = append(out, pk)
	}
	return out
}

// RangeLookup returns primary keys for every value in [min, max]
// (bounds honoring includeMin/includeMax), walking the ordered key set
// the way range_lookup_pks does in the reference implementation.
func (idx *Index) RangeLookup(min, max string, includeMin, includeMax bool) []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	lo := min
	if !includeMin {
		lo = min + "\x00"
	}
	hiExclusive := max + "\x00"
	if !includeMax {
		hiExclusive = max
	}

	var out []string
	idx.tree.AscendRange(bucket{value: lo}, bucket{value: hiExclusive}, func(i btree.Item) bool {
		b := i.(bucket)
		for pk := range b.pks {
			out = append(out, pk)
		}
		return true
	})
	return out
}

// Clear empties the index (used by drop_table / drop_secondary_index).
func (idx *Index) Clear() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.tree = btree.New(defaultDegree)
}
