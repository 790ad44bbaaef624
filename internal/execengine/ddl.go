package execengine

import (
	"fmt"

	"reldb/internal/schema"
	"reldb/internal/storeengine"
)

// CreateTable rejects an empty name or empty column list, then
// registers the schema and initializes its primary index.
func (e *Engine) CreateTable(name string, columns []schema.Column) error {
	if name == "" {
		return fmt.Errorf("create_table: %w", storeengine.ErrSchemaMissing)
	}
	if len(columns) == 0 {
		return fmt.Errorf("create_table %s: %w", name, storeengine.ErrArityMismatch)
	}
	t := schema.Table{Name: name, Columns: columns}
	if err := e.store.CreateTable(t); err != nil {
		return err
	}
	e.log.WithField("table", name).Info("execengine: created table")
	return nil
}

// DropTable refuses an empty or unknown name; otherwise unregisters the
// table, deletes its page files, and clears its indexes and MVCC chains.
func (e *Engine) DropTable(name string) error {
	if name == "" {
		return fmt.Errorf("drop_table: %w", storeengine.ErrSchemaMissing)
	}
	if _, ok := e.store.Schema(name); !ok {
		return wrapf(storeengine.ErrSchemaMissing, name)
	}
	if err := e.store.DropTableData(name); err != nil {
		return err
	}
	e.log.WithField("table", name).Info("execengine: dropped table")
	return nil
}
