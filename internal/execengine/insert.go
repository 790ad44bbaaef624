package execengine

import (
	"reldb/internal/row"
	"reldb/internal/storeengine"
)

// Insert validates the row against the schema and column count, then
// walks pages from max_page_id down to 1 looking for the first page
// with room; if none fits, a new page is created. On success it
// maintains every enabled index.
func (e *Engine) Insert(table string, values []string) error {
	t, err := e.requireSchema(table)
	if err != nil {
		return err
	}
	if err := row.ValidateArity(values, t.ColumnCount()); err != nil {
		return wrapf(storeengine.ErrArityMismatch, table)
	}

	maxID := e.store.MaxPageID(table)
	for pid := maxID; pid >= 1; pid-- {
		pg, ok, err := e.store.GetPage(table, pid)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if _, inserted := pg.InsertRow(values); inserted {
			if err := e.store.WritePage(table, pg); err != nil {
				return err
			}
			return e.store.InsertIndexRow(table, values)
		}
	}

	pg, err := e.store.CreateNewPage(table)
	if err != nil {
		return err
	}
	if _, inserted := pg.InsertRow(values); !inserted {
		return wrapf(storeengine.ErrPageFull, table)
	}
	if err := e.store.WritePage(table, pg); err != nil {
		return err
	}
	return e.store.InsertIndexRow(table, values)
}

// InsertMany inserts each row in turn and returns the count that
// succeeded; a failing row does not abort the remaining ones.
func (e *Engine) InsertMany(table string, rows [][]string) int {
	count := 0
	for _, values := range rows {
		if err := e.Insert(table, values); err != nil {
			e.log.WithError(err).WithField("table", table).Debug("execengine: insert_many row rejected")
			continue
		}
		count++
	}
	return count
}
