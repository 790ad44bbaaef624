package execengine

// IndexScan performs a primary-index point lookup.
func (e *Engine) IndexScan(table, pk string) (Row, bool, error) {
	if _, err := e.requireSchema(table); err != nil {
		return nil, false, err
	}
	idx, ok := e.store.PrimaryIndex(table)
	if !ok {
		return nil, false, nil
	}
	values, found := idx.Get(pk)
	return values, found, nil
}

// IndexRangeScan performs a primary-index range lookup over the closed,
// lexicographic interval [minPK, maxPK].
func (e *Engine) IndexRangeScan(table, minPK, maxPK string) ([]Row, error) {
	if _, err := e.requireSchema(table); err != nil {
		return nil, err
	}
	idx, ok := e.store.PrimaryIndex(table)
	if !ok {
		return nil, nil
	}
	values := idx.Range(minPK, maxPK)
	out := make([]Row, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out, nil
}

// CompositeIndexRangeScan performs a composite-index range lookup over
// the closed, lexicographic interval [min, max] on the concatenated key.
func (e *Engine) CompositeIndexRangeScan(table, min, max string) ([]Row, error) {
	if _, err := e.requireSchema(table); err != nil {
		return nil, err
	}
	values := e.store.CompositeIndexRange(table, min, max)
	out := make([]Row, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out, nil
}

// SecondaryIndexLookup performs an equality lookup over a column's
// secondary index, dereferencing the matching primary keys back to
// full rows via a point index_scan each.
func (e *Engine) SecondaryIndexLookup(table, column, value string) ([]Row, error) {
	if _, err := e.requireSchema(table); err != nil {
		return nil, err
	}
	idx, ok := e.store.SecondaryIndex(table, column)
	if !ok {
		return nil, nil
	}
	return e.dereferencePKs(table, idx.Lookup(value))
}

// SecondaryIndexRangeScan performs a lexicographic range lookup over a
// column's secondary index.
func (e *Engine) SecondaryIndexRangeScan(table, column, min, max string) ([]Row, error) {
	if _, err := e.requireSchema(table); err != nil {
		return nil, err
	}
	idx, ok := e.store.SecondaryIndex(table, column)
	if !ok {
		return nil, nil
	}
	return e.dereferencePKs(table, idx.RangeLookup(min, max, true, true))
}

func (e *Engine) dereferencePKs(table string, pks []string) ([]Row, error) {
	primary, ok := e.store.PrimaryIndex(table)
	if !ok {
		return nil, nil
	}
	out := make([]Row, 0, len(pks))
	for _, pk := range pks {
		if values, found := primary.Get(pk); found {
			out = append(out, values)
		}
	}
	return out, nil
}

// EnableCompositeIndex enables the composite index over the given
// zero-based column indices.
func (e *Engine) EnableCompositeIndex(table string, columns []int) error {
	return e.store.EnableCompositeIndex(table, columns)
}

// DropCompositeIndex drops the composite index for table.
func (e *Engine) DropCompositeIndex(table string) bool {
	return e.store.DropCompositeIndex(table)
}

// EnableSecondaryIndex enables a per-column secondary index.
func (e *Engine) EnableSecondaryIndex(table, column string) error {
	return e.store.EnableSecondaryIndex(table, column)
}

// DropSecondaryIndex drops a per-column secondary index.
func (e *Engine) DropSecondaryIndex(table, column string) bool {
	return e.store.DropSecondaryIndex(table, column)
}
