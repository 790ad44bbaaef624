// Package execengine implements the execution engine (C8): operators
// over the storage engine — create_table, insert, scans, filters,
// projections, mutations, index lookups, joins, ordering, and
// grouping. Modeled on the teacher's internal/engine package's split
// between a thin lifecycle type (engine.go) and one file per operator
// family (exec_*.go), but driven by direct structured calls instead of
// a parsed SQL AST, per this core's scope.
package execengine

import (
	"github.com/sirupsen/logrus"

	"reldb/internal/schema"
	"reldb/internal/storeengine"
)

// Engine is the execution engine: a thin operator layer over a storage
// engine instance.
type Engine struct {
	store *storeengine.Engine
	log   *logrus.Logger
}

// New wraps a storage engine with the execution operator surface.
func New(store *storeengine.Engine) *Engine {
	return &Engine{store: store, log: store.Logger()}
}

// Row is a single record's text field values (tombstone is internal to
// the storage layer; live rows never surface it to callers).
type Row = []string

// requireSchema resolves a table's schema or reports SchemaMissing.
func (e *Engine) requireSchema(table string) (schema.Table, error) {
	t, ok := e.store.Schema(table)
	if !ok {
		return schema.Table{}, wrapf(storeengine.ErrSchemaMissing, table)
	}
	return t, nil
}
