// Package schema holds the data-type and table-shape definitions shared by
// the row codec, catalog, storage engine, and execution engine.
//
// Values are stored textually everywhere in this system; DataType is
// advisory metadata used by the execution engine's numeric-fallback
// comparisons, not an enforced storage format.
package schema

import "fmt"

// DataType is the closed tag set a column can declare.
type DataType int

const (
	TypeInt DataType = iota
	TypeString
	TypeDouble
)

// String renders the type the way catalog rows encode it on disk.
func (t DataType) String() string {
	switch t {
	case TypeInt:
		return "INT"
	case TypeString:
		return "STRING"
	case TypeDouble:
		return "DOUBLE"
	default:
		return "UNKNOWN"
	}
}

// ParseDataType is the inverse of String, used when decoding catalog rows.
func ParseDataType(s string) (DataType, error) {
	switch s {
	case "INT":
		return TypeInt, nil
	case "STRING":
		return TypeString, nil
	case "DOUBLE":
		return TypeDouble, nil
	default:
		return 0, fmt.Errorf("schema: unknown data type %q", s)
	}
}

// Column is (name, type, is_primary_key).
type Column struct {
	Name         string
	Type         DataType
	IsPrimaryKey bool
}

// Table is an immutable, ordered column list registered under a name.
type Table struct {
	Name    string
	Columns []Column
}

// ColumnCount mirrors the spec's explicit column_count == len(columns) invariant.
func (t Table) ColumnCount() int {
	return len(t.Columns)
}

// PrimaryKeyIndex returns the index of the sole primary-key column, if any.
func (t Table) PrimaryKeyIndex() (int, bool) {
	for i, c := range t.Columns {
		if c.IsPrimaryKey {
			return i, true
		}
	}
	return 0, false
}

// ColumnIndex resolves a column name to its ordinal position.
func (t Table) ColumnIndex(name string) (int, bool) {
	for i, c := range t.Columns {
		if c.Name == name {
			return i, true
		}
	}
	return 0, false
}

// ColumnNames returns the schema's column names in declared order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}
