package execengine

import "sort"

// InnerJoin builds a hash multimap over the right table keyed by
// rightCol, then streams the left table, emitting left‖right for every
// right match. Column concatenation preserves left order then right.
func (e *Engine) InnerJoin(left, right string, leftCol, rightCol int) ([]Row, error) {
	leftRows, err := e.SeqScan(left)
	if err != nil {
		return nil, err
	}
	rightRows, err := e.SeqScan(right)
	if err != nil {
		return nil, err
	}

	buckets := make(map[string][]Row, len(rightRows))
	for _, r := range rightRows {
		if rightCol < 0 || rightCol >= len(r) {
			continue
		}
		key := r[rightCol]
		buckets[key] = append(buckets[key], r)
	}

	var out []Row
	for _, l := range leftRows {
		if leftCol < 0 || leftCol >= len(l) {
			continue
		}
		for _, r := range buckets[l[leftCol]] {
			out = append(out, concatRows(l, r))
		}
	}
	return out, nil
}

// MergeJoin sorts both sides lexicographically by their join key, then
// merges them, emitting the cartesian product of each equal-key run.
func (e *Engine) MergeJoin(left, right string, leftCol, rightCol int) ([]Row, error) {
	leftRows, err := e.SeqScan(left)
	if err != nil {
		return nil, err
	}
	rightRows, err := e.SeqScan(right)
	if err != nil {
		return nil, err
	}

	sortByColumn(leftRows, leftCol)
	sortByColumn(rightRows, rightCol)

	var out []Row
	i, j := 0, 0
	for i < len(leftRows) && j < len(rightRows) {
		lk := keyOf(leftRows[i], leftCol)
		rk := keyOf(rightRows[j], rightCol)
		switch {
		case lk < rk:
			i++
		case lk > rk:
			j++
		default:
			li := i
			for li < len(leftRows) && keyOf(leftRows[li], leftCol) == lk {
				li++
			}
			rj := j
			for rj < len(rightRows) && keyOf(rightRows[rj], rightCol) == rk {
				rj++
			}
			for a := i; a < li; a++ {
				for b := j; b < rj; b++ {
					out = append(out, concatRows(leftRows[a], rightRows[b]))
				}
			}
			i, j = li, rj
		}
	}
	return out, nil
}

func keyOf(r Row, col int) string {
	if col < 0 || col >= len(r) {
		return ""
	}
	return r[col]
}

func sortByColumn(rows []Row, col int) {
	sort.SliceStable(rows, func(i, j int) bool {
		return keyOf(rows[i], col) < keyOf(rows[j], col)
	})
}

func concatRows(left, right Row) Row {
	out := make(Row, 0, len(left)+len(right))
	out = append(out, left...)
	out = append(out, right...)
	return out
}
