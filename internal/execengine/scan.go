package execengine

import "reldb/internal/storeengine"

// SeqScan reads pages 1..=max_page_id and concatenates their live rows
// in physical order.
func (e *Engine) SeqScan(table string) ([]Row, error) {
	if _, err := e.requireSchema(table); err != nil {
		return nil, err
	}
	maxID := e.store.MaxPageID(table)
	var out []Row
	for pid := uint64(1); pid <= maxID; pid++ {
		pg, ok, err := e.store.GetPage(table, pid)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		for _, r := range pg.LiveRows() {
			out = append(out, append(Row(nil), r.Values...))
		}
	}
	return out, nil
}

// Filter runs seq_scan then keeps rows matching a caller-provided
// per-row predicate.
func (e *Engine) Filter(table string, predicate func(Row) bool) ([]Row, error) {
	rows, err := e.SeqScan(table)
	if err != nil {
		return nil, err
	}
	var out []Row
	for _, r := range rows {
		if predicate(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Project resolves target column names once against the schema and
// returns empty if any is missing; otherwise it extracts the requested
// columns, in order, from every row.
func (e *Engine) Project(table string, rows []Row, targetColumns []string) ([]Row, error) {
	t, err := e.requireSchema(table)
	if err != nil {
		return nil, err
	}
	indices := make([]int, len(targetColumns))
	for i, name := range targetColumns {
		idx, ok := t.ColumnIndex(name)
		if !ok {
			return nil, wrapf(storeengine.ErrColumnMissing, table+"."+name)
		}
		indices[i] = idx
	}
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		projected := make(Row, len(indices))
		for i, idx := range indices {
			if idx < len(r) {
				projected[i] = r[idx]
			}
		}
		out = append(out, projected)
	}
	return out, nil
}
