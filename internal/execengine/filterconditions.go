package execengine

import "strconv"

// Op is a pushdown comparison operator.
type Op string

const (
	OpEq Op = "="
	OpNe Op = "!="
	OpGt Op = ">"
	OpLt Op = "<"
	OpGe Op = ">="
	OpLe Op = "<="
)

// Condition is one (column_index, op, rhs_text) pushdown tuple.
type Condition struct {
	ColumnIndex int
	Op          Op
	RHS         string
}

// FilterConditions runs seq_scan then keeps rows satisfying the AND of
// all conditions. A missing column index rejects the row. An empty
// condition list returns the full scan. Each comparison first tries to
// parse both sides as floating point; if both parse, the comparison is
// numeric, otherwise it falls back to a string comparison.
func (e *Engine) FilterConditions(table string, conditions []Condition) ([]Row, error) {
	rows, err := e.SeqScan(table)
	if err != nil {
		return nil, err
	}
	if len(conditions) == 0 {
		return rows, nil
	}
	var out []Row
	for _, r := range rows {
		if rowSatisfies(r, conditions) {
			out = append(out, r)
		}
	}
	return out, nil
}

func rowSatisfies(r Row, conditions []Condition) bool {
	for _, c := range conditions {
		if c.ColumnIndex < 0 || c.ColumnIndex >= len(r) {
			return false
		}
		if !compareOp(r[c.ColumnIndex], c.Op, c.RHS) {
			return false
		}
	}
	return true
}

// compareOp implements the numeric-then-string fallback comparator used
// by filter_conditions (SPEC_FULL.md Design Notes). order_by applies the
// same rule through compareValues in orderby.go.
func compareOp(lhs string, op Op, rhs string) bool {
	lf, lerr := strconv.ParseFloat(lhs, 64)
	rf, rerr := strconv.ParseFloat(rhs, 64)
	if lerr == nil && rerr == nil {
		switch op {
		case OpEq:
			return lf == rf
		case OpNe:
			return lf != rf
		case OpGt:
			return lf > rf
		case OpLt:
			return lf < rf
		case OpGe:
			return lf >= rf
		case OpLe:
			return lf <= rf
		}
		return false
	}
	switch op {
	case OpEq:
		return lhs == rhs
	case OpNe:
		return lhs != rhs
	case OpGt:
		return lhs > rhs
	case OpLt:
		return lhs < rhs
	case OpGe:
		return lhs >= rhs
	case OpLe:
		return lhs <= rhs
	}
	return false
}
