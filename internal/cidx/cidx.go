// Package cidx implements the composite secondary index (C6): an
// ordered map from a separator-joined composite key (over the indexed
// columns) to the full row values, durable via a snapshot file plus an
// append-only WAL, replayed on open. Binary record framing follows the
// little-endian, length-prefixed style used throughout the teacher's
// internal/storage/filestore package (format.go, wal.go), adapted to
// the spec's snapshot+WAL record shape.
package cidx

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/google/btree"
	"github.com/sirupsen/logrus"
)

// Separator joins indexed column values into a composite key (ASCII
// Unit Separator, chosen to avoid collisions with typical text values).
const Separator = "\x1f"

const defaultDegree = 32

type item struct {
	key    string
	values []string
}

func (i item) Less(other btree.Item) bool {
	return i.key < other.(item).key
}

// Index is the in-memory composite index for one table, mirrored onto
// <table>_cidx.meta / .bin / .wal in dir.
type Index struct {
	mu      sync.RWMutex
	dir     string
	table   string
	columns []int
	tree    *btree.BTree
	wal     *os.File
	log     *logrus.Logger
}

func metaPath(dir, table string) string { return filepath.Join(dir, table+"_cidx.meta") }
func snapPath(dir, table string) string { return filepath.Join(dir, table+"_cidx.bin") }
func walPath(dir, table string) string  { return filepath.Join(dir, table+"_cidx.wal") }

// Key joins column values with the separator.
func Key(values []string) string {
	return strings.Join(values, Separator)
}

// Open loads an existing composite index for table from dir, if its
// meta file is present; otherwise it reports ok=false so the caller
// knows no composite index is enabled yet.
func Open(dir, table string, log *logrus.Logger) (*Index, bool, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	metaBuf, err := os.ReadFile(metaPath(dir, table))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cidx: reading meta for %s: %w", table, err)
	}
	cols, err := parseMeta(string(metaBuf))
	if err != nil {
		return nil, false, err
	}

	idx := &Index{dir: dir, table: table, columns: cols, tree: btree.New(defaultDegree), log: log}
	if err := idx.loadSnapshot(); err != nil {
		return nil, false, err
	}
	if err := idx.replayWAL(); err != nil {
		return nil, false, err
	}
	if err := idx.openWALForAppend(); err != nil {
		return nil, false, err
	}
	log.WithFields(logrus.Fields{"table": table, "entries": idx.tree.Len()}).Debug("cidx: opened composite index")
	return idx, true, nil
}

func parseMeta(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	cols := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("cidx: malformed meta column index %q: %w", p, err)
		}
		cols[i] = n
	}
	return cols, nil
}

// Enable builds a fresh composite index over columns from the full set
// of primary-index entries, replacing any existing snapshot/WAL.
func Enable(dir, table string, columns []int, allRows [][]string, log *logrus.Logger) (*Index, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	idx := &Index{dir: dir, table: table, columns: columns, tree: btree.New(defaultDegree), log: log}
	for _, values := range allRows {
		idx.insertLocked(values)
	}
	if err := idx.writeMeta(); err != nil {
		return nil, err
	}
	if err := idx.snapshotLocked(); err != nil {
		return nil, err
	}
	if idx.wal != nil {
		_ = idx.wal.Close()
	}
	if err := os.Remove(walPath(dir, table)); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("cidx: clearing stale wal for %s: %w", table, err)
	}
	if err := idx.openWALForAppend(); err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{"table": table, "columns": columns}).Info("cidx: enabled composite index")
	return idx, nil
}

// Drop erases the in-memory index and deletes its meta/bin/wal files.
func (idx *Index) Drop() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.wal != nil {
		_ = idx.wal.Close()
		idx.wal = nil
	}
	for _, p := range []string{metaPath(idx.dir, idx.table), snapPath(idx.dir, idx.table), walPath(idx.dir, idx.table)} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("cidx: dropping %s: %w", p, err)
		}
	}
	idx.tree = btree.New(defaultDegree)
	return nil
}

// Len returns the number of entries currently in the index.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.tree.Len()
}

// Columns reports the zero-based column indices this index is keyed on.
func (idx *Index) Columns() []int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make([]int, len(idx.columns))
	copy(out, idx.columns)
	return out
}

func compositeValues(rowValues []string, columns []int) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		if c >= 0 && c < len(rowValues) {
			out[i] = rowValues[c]
		}
	}
	return out
}

// Insert appends a new entry to the index, its snapshot WAL, and the
// in-memory map, keyed by this index's configured columns but storing
// the full row so composite_index_range_scan can return every column,
// not just the indexed ones.
func (idx *Index) Insert(rowValues []string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.insertLocked(rowValues)
	return idx.appendWALLocked(rowValues)
}

// Delete removes the entry derived from rowValues' indexed columns, if
// present. Composite-index deletion has no WAL record of its own (the
// WAL only ever records inserts; a dropped entry is only durable across
// the next snapshot via enable_composite_index re-running).
func (idx *Index) Delete(rowValues []string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	key := Key(compositeValues(rowValues, idx.columns))
	idx.tree.Delete(item{key: key})
}

// insertLocked keys the entry by this index's indexed columns but
// stores rowValues in full, so a range scan can project any column of
// the matched rows, not just the indexed ones (SPEC_FULL.md §3/Scenario E).
func (idx *Index) insertLocked(rowValues []string) {
	cp := make([]string, len(rowValues))
	copy(cp, rowValues)
	key := Key(compositeValues(rowValues, idx.columns))
	idx.tree.ReplaceOrInsert(item{key: key, values: cp})
}

// Range returns entries with min <= key <= max lexicographically.
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

func (idx *Index) writeMeta() error {
	parts := make([]string, len(idx.columns))
	for i, c := range idx.columns {
		parts[i] = strconv.Itoa(c)
	}
	return os.WriteFile(metaPath(idx.dir, idx.table), []byte(strings.Join(parts, ",")+"\n"), 0o644)
}

// record format: u32 key_len, key_bytes, u32 value_count, repeated {u32 field_len, field_bytes}. Little-endian.
func encodeRecord(key string, values []string) []byte {
	size := 4 + len(key) + 4
	for _, v := range values {
		size += 4 + len(v)
	}
	buf := make([]byte, size)
	off := 0
	binary.LittleEndian.PutUint32(buf[off:], uint32(len(key)))
	off += 4
	copy(buf[off:], key)
	off += len(key)
	binary.LittleEndian.PutUint32(buf[off:], uint32(len(values)))
	off += 4
	for _, v := range values {
		binary.LittleEndian.PutUint32(buf[off:], uint32(len(v)))
		off += 4
		copy(buf[off:], v)
		off += len(v)
	}
	return buf
}

func decodeRecord(r io.Reader) (key string, values []string, err error) {
	var lenBuf [4]byte
	if _, err = io.ReadFull(r, lenBuf[:]); err != nil {
		return "", nil, err
	}
	keyLen := binary.LittleEndian.Uint32(lenBuf[:])
	keyBuf := make([]byte, keyLen)
	if _, err = io.ReadFull(r, keyBuf); err != nil {
		return "", nil, err
	}
	if _, err = io.ReadFull(r, lenBuf[:]); err != nil {
		return "", nil, err
	}
	count := binary.LittleEndian.Uint32(lenBuf[:])
	values = make([]string, count)
	for i := uint32(0); i < count; i++ {
		if _, err = io.ReadFull(r, lenBuf[:]); err != nil {
			return "", nil, err
		}
		fieldLen := binary.LittleEndian.Uint32(lenBuf[:])
		fieldBuf := make([]byte, fieldLen)
		if _, err = io.ReadFull(r, fieldBuf); err != nil {
			return "", nil, err
		}
		values[i] = string(fieldBuf)
	}
	return string(keyBuf), values, nil
}

func (idx *Index) snapshotLocked() error {
	f, err := os.Create(snapPath(idx.dir, idx.table))
	if err != nil {
		return fmt.Errorf("cidx: creating snapshot for %s: %w", idx.table, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	idx.tree.Ascend(func(i btree.Item) bool {
		it := i.(item)
		_, err = w.Write(encodeRecord(it.key, it.values))
		return err == nil
	})
	if err != nil {
		return fmt.Errorf("cidx: writing snapshot for %s: %w", idx.table, err)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Sync()
}

func (idx *Index) loadSnapshot() error {
	f, err := os.Open(snapPath(idx.dir, idx.table))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cidx: opening snapshot for %s: %w", idx.table, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	for {
		key, values, err := decodeRecord(r)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("cidx: decoding snapshot for %s: %w", idx.table, err)
		}
		idx.tree.ReplaceOrInsert(item{key: key, values: values})
	}
}

func (idx *Index) replayWAL() error {
	f, err := os.Open(walPath(idx.dir, idx.table))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cidx: opening wal for %s: %w", idx.table, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	replayed := 0
	for {
		key, values, err := decodeRecord(r)
		if err == io.EOF {
			break
		}
		if err != nil {
			idx.log.WithError(err).Warn("cidx: wal replay stopped at corrupt record")
			break
		}
		idx.tree.ReplaceOrInsert(item{key: key, values: values})
		replayed++
	}
	idx.log.WithFields(logrus.Fields{"table": idx.table, "records": replayed}).Debug("cidx: replayed wal")
	return nil
}

func (idx *Index) openWALForAppend() error {
	f, err := os.OpenFile(walPath(idx.dir, idx.table), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("cidx: opening wal for append %s: %w", idx.table, err)
	}
	idx.wal = f
	return nil
}

func (idx *Index) appendWALLocked(rowValues []string) error {
	if idx.wal == nil {
		if err := idx.openWALForAppend(); err != nil {
			return err
		}
	}
	key := Key(compositeValues(rowValues, idx.columns))
	rec := encodeRecord(key, rowValues)
	if _, err := idx.wal.Write(rec); err != nil {
		return fmt.Errorf("cidx: appending wal for %s: %w", idx.table, err)
	}
	return idx.wal.Sync()
}

// Close releases the WAL file handle.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.wal != nil {
		err := idx.wal.Close()
		idx.wal = nil
		return err
	}
	return nil
}
