// Package bufpool implements the buffer pool (C9): a bounded, evictable
// page cache fronting the on-disk page files, generalizing the
// distilled spec's unbounded C4 page cache with the LRU/FIFO
// replacement policy found in the reference implementation's
// storage/buffer_pool.py.
package bufpool

import (
	"container/list"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"reldb/internal/page"
)

// Strategy is the eviction policy.
type Strategy string

const (
	LRU  Strategy = "LRU"
	FIFO Strategy = "FIFO"
)

// Loader reads a page's bytes from disk; it returns ok=false if no file
// exists for that (table, pageID) yet, matching get_page's "does not
// create" contract.
type Loader func(table string, pageID uint64) (buf []byte, ok bool, err error)

// Writer persists a page's bytes to disk.
type Writer func(table string, pageID uint64, buf []byte) error

type key struct {
	table  string
	pageID uint64
}

type frame struct {
	key   key
	page  *page.Page
	dirty bool
}

// Stats mirrors buffer_pool.py's get_stats().
type Stats struct {
	CacheSize int
	Capacity  int
	Hits      int
	Misses    int
	HitRate   float64
	Evictions int
	DirtyPages int
	Strategy  string
}

// Pool is a bounded page cache. The eviction order is held in a
// container/list so LRU promotion and FIFO arrival order are both O(1).
type Pool struct {
	mu       sync.Mutex
	capacity int
	strategy Strategy
	load     Loader
	write    Writer
	log      *logrus.Logger

	order   *list.List // front = next to evict
	entries map[key]*list.Element

	hits, misses, evictions int
}

// New builds a pool with the given capacity and strategy ("LRU" or "FIFO").
func New(capacity int, strategy Strategy, load Loader, write Writer, log *logrus.Logger) (*Pool, error) {
	if strategy != LRU && strategy != FIFO {
		return nil, fmt.Errorf("bufpool: strategy must be LRU or FIFO, got %q", strategy)
	}
	if capacity <= 0 {
		return nil, fmt.Errorf("bufpool: capacity must be positive, got %d", capacity)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Pool{
		capacity: capacity,
		strategy: strategy,
		load:     load,
		write:    write,
		log:      log,
		order:    list.New(),
		entries:  make(map[key]*list.Element),
	}, nil
}

// Get returns the cached page for (table, pageID), loading it from disk
// on a miss. If no on-disk page exists, it returns a fresh zero page
// (the caller is responsible for deciding whether that's appropriate —
// create_new_page vs. get_page distinguish this at the storage-engine
// layer).
func (p *Pool) Get(table string, pageID uint64) (*page.Page, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	k := key{table, pageID}
	if el, ok := p.entries[k]; ok {
		p.hits++
		if p.strategy == LRU {
			p.order.MoveToBack(el)
		}
		return el.Value.(*frame).page, nil
	}

	p.misses++
	buf, found, err := p.load(table, pageID)
	if err != nil {
		return nil, err
	}
	var pg *page.Page
	if !found {
		pg = page.New(pageID)
	} else {
		pg, err = page.Load(pageID, buf)
		if err != nil {
			return nil, err
		}
	}

	if p.order.Len() >= p.capacity {
		if err := p.evictLocked(); err != nil {
			return nil, err
		}
	}
	el := p.order.PushBack(&frame{key: k, page: pg})
	p.entries[k] = el
	return pg, nil
}

// Put installs an already-constructed page into the pool (used by
// create_new_page, which never reads from disk for a brand new page id).
func (p *Pool) Put(table string, pg *page.Page) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	k := key{table, pg.ID}
	if el, ok := p.entries[k]; ok {
		el.Value.(*frame).page = pg
		if p.strategy == LRU {
			p.order.MoveToBack(el)
		}
		return nil
	}
	if p.order.Len() >= p.capacity {
		if err := p.evictLocked(); err != nil {
			return err
		}
	}
	el := p.order.PushBack(&frame{key: k, page: pg, dirty: pg.Dirty})
	p.entries[k] = el
	return nil
}

func (p *Pool) evictLocked() error {
	front := p.order.Front()
	if front == nil {
		return nil
	}
	fr := front.Value.(*frame)
	if fr.dirty || fr.page.Dirty {
		if err := p.write(fr.key.table, fr.key.pageID, fr.page.Bytes()); err != nil {
			return fmt.Errorf("bufpool: flushing %s/%d on eviction: %w", fr.key.table, fr.key.pageID, err)
		}
	}
	p.order.Remove(front)
	delete(p.entries, fr.key)
	p.evictions++
	p.log.WithFields(logrus.Fields{"table": fr.key.table, "page": fr.key.pageID, "strategy": p.strategy}).
		Debug("bufpool: evicted page")
	return nil
}

// MarkDirty flags a resident page as dirty without writing it.
func (p *Pool) MarkDirty(table string, pageID uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if el, ok := p.entries[key{table, pageID}]; ok {
		el.Value.(*frame).dirty = true
	}
}

// FlushPage writes a resident page back to disk and clears its dirty bit.
func (p *Pool) FlushPage(table string, pageID uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	el, ok := p.entries[key{table, pageID}]
	if !ok {
		return nil
	}
	fr := el.Value.(*frame)
	if !fr.dirty && !fr.page.Dirty {
		return nil
	}
	if err := p.write(table, pageID, fr.page.Bytes()); err != nil {
		return err
	}
	fr.dirty = false
	fr.page.Dirty = false
	return nil
}

// FlushAll writes every dirty resident page back to disk.
func (p *Pool) FlushAll() error {
	p.mu.Lock()
	keys := make([]key, 0, len(p.entries))
	for k, el := range p.entries {
		fr := el.Value.(*frame)
		if fr.dirty || fr.page.Dirty {
			keys = append(keys, k)
		}
	}
	p.mu.Unlock()

	for _, k := range keys {
		if err := p.FlushPage(k.table, k.pageID); err != nil {
			return err
		}
	}
	return nil
}

// Evict drops a specific (table, pageID) from the pool, flushing first
// if dirty. Used by drop_table_data.
func (p *Pool) Evict(table string, pageID uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	el, ok := p.entries[key{table, pageID}]
	if !ok {
		return nil
	}
	fr := el.Value.(*frame)
	if fr.dirty || fr.page.Dirty {
		if err := p.write(table, pageID, fr.page.Bytes()); err != nil {
			return err
		}
	}
	p.order.Remove(el)
	delete(p.entries, key{table, pageID})
	return nil
}

// EvictTable drops every page belonging to table, flushing dirty ones.
func (p *Pool) EvictTable(table string) error {
	p.mu.Lock()
	var ids []uint64
	for k := range p.entries {
		if k.table == table {
			ids = append(ids, k.pageID)
		}
	}
	p.mu.Unlock()
	for _, id := range ids {
		if err := p.Evict(table, id); err != nil {
			return err
		}
	}
	return nil
}

// Stats reports cache occupancy and hit-rate counters.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	dirty := 0
	for _, el := range p.entries {
		fr := el.Value.(*frame)
		if fr.dirty || fr.page.Dirty {
			dirty++
		}
	}
	var hitRate float64
	if total := p.hits + p.misses; total > 0 {
		hitRate = float64(p.hits) / float64(total)
	}
	return Stats{
		CacheSize:  p.order.Len(),
		Capacity:   p.capacity,
		Hits:       p.hits,
		Misses:     p.misses,
		HitRate:    hitRate,
		Evictions:  p.evictions,
		DirtyPages: dirty,
		Strategy:   string(p.strategy),
	}
}
