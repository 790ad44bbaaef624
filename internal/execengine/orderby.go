package execengine

import (
	"sort"
	"strconv"
)

// OrderDirection is ASC or DESC for one order_by clause.
type OrderDirection int

const (
	Ascending OrderDirection = iota
	Descending
)

// OrderClause is one (column_index, direction) ordering key.
type OrderClause struct {
	ColumnIndex int
	Direction   OrderDirection
}

// OrderBy stably sorts rows using a multi-key comparator: for each key,
// both sides are tried as floating point first; if both parse, the
// comparison is numeric, else string.
func (e *Engine) OrderBy(rows []Row, clauses []OrderClause) []Row {
	out := make([]Row, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		for _, c := range clauses {
			a := keyOf(out[i], c.ColumnIndex)
			b := keyOf(out[j], c.ColumnIndex)
			cmp := compareValues(a, b)
			if cmp == 0 {
				continue
			}
			if c.Direction == Descending {
				cmp = -cmp
			}
			return cmp < 0
		}
		return false
	})
	return out
}

// compareValues implements the shared numeric-then-string fallback: -1,
// 0, or 1.
func compareValues(a, b string) int {
	af, aerr := strconv.ParseFloat(a, 64)
	bf, berr := strconv.ParseFloat(b, 64)
	if aerr == nil && berr == nil {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
