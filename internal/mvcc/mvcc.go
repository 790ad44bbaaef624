// Package mvcc implements the MVCC layer (C7): a per-(table, primary
// key) singly-linked version chain with a visibility rule over a
// reader transaction id and an active-transaction set.
//
// Chain nodes are arena-backed (a growable slice addressed by handle)
// rather than individually heap-allocated, per SPEC_FULL.md's Design
// Notes resolution of the original C++ implementation's unfreed raw
// pointers: a rollback's head removal or a drop_table's chain clear
// only needs to drop index references, never manual frees.
package mvcc

import "sync"

// node is one version in a chain. next is an arena index, or -1 at the
// tail. Nodes are never physically removed from the arena (only
// unlinked), which keeps the arena append-only and simple; unlinked
// nodes stay allocated, including after ClearTable drops a table's
// chain heads.
type node struct {
	values    []string
	xmin      string
	xmax      string
	hasXmax   bool
	committed bool
	next      int
}

type chainKey struct {
	table string
	pk    string
}

// Chains owns every (table, pk) version chain for one storage engine
// instance.
type Chains struct {
	mu    sync.Mutex
	arena []node
	heads map[chainKey]int // index into arena, or absent for no chain
}

// New returns an empty chain set.
func New() *Chains {
	return &Chains{heads: make(map[chainKey]int)}
}

func (c *Chains) alloc(n node) int {
	c.arena = append(c.arena, n)
	return len(c.arena) - 1
}

// InsertUncommitted pushes a new uncommitted head for (table, pk).
func (c *Chains) InsertUncommitted(table, pk string, values []string, txid string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := chainKey{table, pk}
	next := -1
	if h, ok := c.heads[k]; ok {
		next = h
	}
	idx := c.alloc(node{values: append([]string(nil), values...), xmin: txid, next: next})
	c.heads[k] = idx
}

// CommitInsert flips the head to committed if it is txid's own
// uncommitted insert.
func (c *Chains) CommitInsert(table, pk, txid string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := chainKey{table, pk}
	h, ok := c.heads[k]
	if !ok {
		return
	}
	n := &c.arena[h]
	if !n.committed && n.xmin == txid {
		n.committed = true
	}
}

// RollbackInsert pops the head if it is txid's own uncommitted insert.
func (c *Chains) RollbackInsert(table, pk, txid string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := chainKey{table, pk}
	h, ok := c.heads[k]
	if !ok {
		return
	}
	n := &c.arena[h]
	if !n.committed && n.xmin == txid {
		if n.next == -1 {
			delete(c.heads, k)
		} else {
			c.heads[k] = n.next
		}
	}
}

// MarkDeleteCommit finds the first committed version with no xmax and
// sets xmax = txid, marking it deleted as of that transaction.
func (c *Chains) MarkDeleteCommit(table, pk, txid string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := chainKey{table, pk}
	idx, ok := c.heads[k]
	for ok && idx != -1 {
		n := &c.arena[idx]
		if n.committed && !n.hasXmax {
			n.xmax = txid
			n.hasXmax = true
			return
		}
		if n.next == -1 {
			break
		}
		idx = n.next
	}
}

// LookupVisible walks head to tail and returns the first version
// visible to a reader with txid reader given the set of transactions
// still active (in flight) from that reader's point of view.
func (c *Chains) LookupVisible(table, pk, reader string, active map[string]struct{}) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := chainKey{table, pk}
	idx, ok := c.heads[k]
	for ok && idx != -1 {
		n := &c.arena[idx]
		if !n.committed && n.xmin == reader {
			return n.values, true
		}
		if n.committed && !n.hasXmax {
			if _, inActive := active[n.xmin]; !inActive {
				return n.values, true
			}
		}
		idx = n.next
	}
	return nil, false
}

// ClearTable drops every chain head belonging to table (used by
// drop_table). Arena nodes remain allocated but unreferenced.
func (c *Chains) ClearTable(table string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.heads {
		if k.table == table {
			delete(c.heads, k)
		}
	}
}
