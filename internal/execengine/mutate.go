package execengine

import (
	"reldb/internal/page"
	"reldb/internal/storeengine"
)

// SetClause is one column-name/new-value pair applied by update_rows.
type SetClause struct {
	Column string
	Value  string
}

// DeleteRows tombstones every live row matching predicate, in place on
// its page, and erases the row's index entries. Returns the count of
// rows deleted.
func (e *Engine) DeleteRows(table string, predicate func(Row) bool) (int, error) {
	if _, err := e.requireSchema(table); err != nil {
		return 0, err
	}
	maxID := e.store.MaxPageID(table)
	count := 0
	for pid := uint64(1); pid <= maxID; pid++ {
		pg, ok, err := e.store.GetPage(table, pid)
		if err != nil {
			return count, err
		}
		if !ok {
			continue
		}

		var matches []page.RowRecord
		if err := pg.IterateRows(func(rec page.RowRecord) error {
			if !rec.Row.Deleted && predicate(rec.Row.Values) {
				matches = append(matches, rec)
			}
			return nil
		}); err != nil {
			return count, err
		}
		if len(matches) == 0 {
			continue
		}
		for _, rec := range matches {
			if err := pg.MarkDeleted(rec.Offset); err != nil {
				return count, err
			}
			e.store.DeleteIndexRow(table, rec.Row.Values)
			count++
		}
		if err := e.store.WritePage(table, pg); err != nil {
			return count, err
		}
	}
	return count, nil
}

// UpdateRows tombstones each live row matching wherePredicate (erasing
// its old index entries) and inserts a new row with the set clauses
// applied, maintaining every index via the normal insert path. Returns
// the count of rows updated.
//
// The full page range is scanned and tombstoned before any reinsertion
// happens: insert fills pages from max_page_id downward, so a row
// rewritten mid-scan could otherwise land on a page the outer loop
// hasn't reached yet and get matched — and updated — a second time.
func (e *Engine) UpdateRows(table string, setClauses []SetClause, wherePredicate func(Row) bool) (int, error) {
	t, err := e.requireSchema(table)
	if err != nil {
		return 0, err
	}
	setIdx := make(map[int]string, len(setClauses))
	for _, sc := range setClauses {
		idx, ok := t.ColumnIndex(sc.Column)
		if !ok {
			return 0, wrapf(storeengine.ErrColumnMissing, table+"."+sc.Column)
		}
		setIdx[idx] = sc.Value
	}

	maxID := e.store.MaxPageID(table)
	var newRows [][]string
	count := 0
	for pid := uint64(1); pid <= maxID; pid++ {
		pg, ok, err := e.store.GetPage(table, pid)
		if err != nil {
			return count, err
		}
		if !ok {
			continue
		}

		var matches []page.RowRecord
		if err := pg.IterateRows(func(rec page.RowRecord) error {
			if !rec.Row.Deleted && wherePredicate(rec.Row.Values) {
				matches = append(matches, rec)
			}
			return nil
		}); err != nil {
			return count, err
		}
		if len(matches) == 0 {
			continue
		}

		for _, rec := range matches {
			if err := pg.MarkDeleted(rec.Offset); err != nil {
				return count, err
			}
			e.store.DeleteIndexRow(table, rec.Row.Values)

			updated := append([]string(nil), rec.Row.Values...)
			for idx, v := range setIdx {
				if idx < len(updated) {
					updated[idx] = v
				}
			}
			newRows = append(newRows, updated)
			count++
		}
		if err := e.store.WritePage(table, pg); err != nil {
			return count, err
		}
	}

	for _, newValues := range newRows {
		if err := e.Insert(table, newValues); err != nil {
			return count, err
		}
	}
	return count, nil
}
