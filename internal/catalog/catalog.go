// Package catalog implements the in-memory table-schema catalog (C3),
// persisted to a dedicated page-0 file the way the teacher's
// internal/storage/filestore package persists its own table headers.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"reldb/internal/page"
	"reldb/internal/schema"
)

// ErrAlreadyExists is returned by Register when the table name is taken.
var ErrAlreadyExists = errors.New("catalog: table already exists")

// ErrNotFound is returned by lookups for an unknown table.
var ErrNotFound = errors.New("catalog: table not found")

const catalogFileName = "sys_catalog_page_0.bin"

// Catalog is the in-memory map from table name to schema, mirrored onto
// sys_catalog_page_0.bin. All reads are pure in-memory lookups; writes
// also update the persisted page.
type Catalog struct {
	mu  sync.RWMutex
	dir string
	log *logrus.Logger

	tables map[string]schema.Table
	order  []string // insertion order, for deterministic rebuilds
}

// Open loads the catalog page from dir if present; a missing file yields
// an empty catalog, per the spec's startup contract.
func Open(dir string, log *logrus.Logger) (*Catalog, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	c := &Catalog{dir: dir, log: log, tables: make(map[string]schema.Table)}

	buf, err := os.ReadFile(filepath.Join(dir, catalogFileName))
	if errors.Is(err, os.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: reading %s: %w", catalogFileName, err)
	}
	if len(buf) != page.Size {
		return nil, fmt.Errorf("catalog: %s has wrong size %d", catalogFileName, len(buf))
	}
	p, err := page.Load(0, buf)
	if err != nil {
		return nil, err
	}
	for _, r := range p.LiveRows() {
		t, err := decodeCatalogRow(r.Values)
		if err != nil {
			log.WithError(err).Warn("catalog: skipping corrupt catalog row")
			continue
		}
		c.tables[t.Name] = t
		c.order = append(c.order, t.Name)
	}
	log.WithField("tables", len(c.tables)).Debug("catalog: loaded")
	return c, nil
}

// Register adds a new table schema and persists the updated page 0.
func (c *Catalog) Register(t schema.Table) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.tables[t.Name]; ok {
		return ErrAlreadyExists
	}
	c.tables[t.Name] = t
	c.order = append(c.order, t.Name)
	if err := c.flushLocked(); err != nil {
		// In-memory state already updated; see SPEC_FULL.md Open Questions
		// resolution: a failed persist does not roll back the in-memory add.
		return err
	}
	c.log.WithField("table", t.Name).Info("catalog: registered table")
	return nil
}

// Unregister removes a table schema, rebuilding page 0 from the
// remaining entries.
func (c *Catalog) Unregister(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.tables[name]; !ok {
		return ErrNotFound
	}
	delete(c.tables, name)
	for i, n := range c.order {
		if n == name {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	if err := c.flushLocked(); err != nil {
		return fmt.Errorf("catalog: rebuild after unregister %q: %w", name, err)
	}
	c.log.WithField("table", name).Info("catalog: unregistered table")
	return nil
}

// Schema returns the registered schema for a table.
func (c *Catalog) Schema(name string) (schema.Table, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tables[name]
	return t, ok
}

// HasTable reports whether name is registered.
func (c *Catalog) HasTable(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.tables[name]
	return ok
}

// ColumnExists reports whether a column exists on a registered table.
func (c *Catalog) ColumnExists(table, column string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tables[table]
	if !ok {
		return false
	}
	_, ok = t.ColumnIndex(column)
	return ok
}

// ColumnIndex resolves a column name to its ordinal for a registered table.
func (c *Catalog) ColumnIndex(table, column string) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tables[table]
	if !ok {
		return 0, false
	}
	return t.ColumnIndex(column)
}

// TableNames returns all registered table names in registration order.
func (c *Catalog) TableNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

func (c *Catalog) flushLocked() error {
	p := page.New(0)
	for _, name := range c.order {
		t := c.tables[name]
		values := encodeCatalogRow(t)
		if _, ok := p.InsertRow(values); !ok {
			return fmt.Errorf("catalog: page 0 overflow rebuilding %d tables", len(c.order))
		}
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("catalog: mkdir %s: %w", c.dir, err)
	}
	if err := os.WriteFile(filepath.Join(c.dir, catalogFileName), p.Bytes(), 0o644); err != nil {
		return fmt.Errorf("catalog: writing %s: %w", catalogFileName, err)
	}
	return nil
}

// encodeCatalogRow renders a schema as the catalog row format from
// SPEC_FULL.md §4.3: [name, column_count, "col:TYPE:0|1", ...].
func encodeCatalogRow(t schema.Table) []string {
	values := make([]string, 0, 2+len(t.Columns))
	values = append(values, t.Name, strconv.Itoa(t.ColumnCount()))
	for _, col := range t.Columns {
		pk := "0"
		if col.IsPrimaryKey {
			pk = "1"
		}
		values = append(values, fmt.Sprintf("%s:%s:%s", col.Name, col.Type, pk))
	}
	return values
}

func decodeCatalogRow(values []string) (schema.Table, error) {
	if len(values) < 2 {
		return schema.Table{}, fmt.Errorf("catalog: short row")
	}
	name := values[0]
	count, err := strconv.Atoi(values[1])
	if err != nil {
		return schema.Table{}, fmt.Errorf("catalog: bad column_count %q: %w", values[1], err)
	}
	if len(values) != 2+count {
		return schema.Table{}, fmt.Errorf("catalog: column_count %d disagrees with %d fields", count, len(values)-2)
	}
	cols := make([]schema.Column, count)
	for i, spec := range values[2:] {
		parts := strings.SplitN(spec, ":", 3)
		if len(parts) != 3 {
			return schema.Table{}, fmt.Errorf("catalog: malformed column spec %q", spec)
		}
		dt, err := schema.ParseDataType(parts[1])
		if err != nil {
			return schema.Table{}, err
		}
		cols[i] = schema.Column{Name: parts[0], Type: dt, IsPrimaryKey: parts[2] == "1"}
	}
	return schema.Table{Name: name, Columns: cols}, nil
}
