// Package table holds the columnar in-memory representation that
// flows from the materializer through the output contract engine to
// the binary encoders.
package table

import "fmt"

// Dtype is one of the dtype codes named by the wire format (spec §6,
// "Numeric dtype codes").
type Dtype int

const (
	Int8 Dtype = iota
	UInt8
	Int16
	UInt16
	Int32
	UInt32
	Int64
	UInt64
	Float32
	Float64
	BooleanDtype
	Utf8Dtype
	Categorical
	ListPrimitive
	ListStruct
	Opaque
)

func (d Dtype) String() string {
	switch d {
	case Int8:
		return "Int8"
	case UInt8:
		return "UInt8"
	case Int16:
		return "Int16"
	case UInt16:
		return "UInt16"
	case Int32:
		return "Int32"
	case UInt32:
		return "UInt32"
	case Int64:
		return "Int64"
	case UInt64:
		return "UInt64"
	case Float32:
		return "Float32"
	case Float64:
		return "Float64"
	case BooleanDtype:
		return "Boolean"
	case Utf8Dtype:
		return "Utf8"
	case Categorical:
		return "Categorical"
	case ListPrimitive:
		return "List"
	case ListStruct:
		return "List[Struct]"
	case Opaque:
		return "Opaque"
	default:
		return "Unknown"
	}
}

// IsPrimitiveFixedWidth reports whether d has a fixed little-endian
// byte width suitable for direct encoding (row-major packing,
// recursive column encoder's primitive path).
func (d Dtype) IsPrimitiveFixedWidth() bool {
	switch d {
	case Int8, UInt8, Int16, UInt16, Int32, UInt32, Int64, UInt64, Float32, Float64, BooleanDtype:
		return true
	default:
		return false
	}
}

// ByteWidth returns the little-endian encoded width of a fixed-width
// dtype; panics on a dtype that is not fixed width.
func (d Dtype) ByteWidth() int {
	switch d {
	case Int8, UInt8, BooleanDtype:
		return 1
	case Int16, UInt16:
		return 2
	case Int32, UInt32, Float32:
		return 4
	case Int64, UInt64, Float64:
		return 8
	default:
		panic(fmt.Sprintf("table: dtype %s has no fixed byte width", d))
	}
}

// StructField describes one field of a struct inner type used by a
// List[Struct] column.
type StructField struct {
	Name  string
	Dtype Dtype
}

// Column is one named, typed, row-aligned vector of cell values.
// Values holds exactly NumRows entries; a nil entry is a null cell.
// Complex cells (lists, structs) are stored as their native Go
// composite ([]interface{}, map[string]interface{}) and interpreted
// by the recursive column encoder.
type Column struct {
	Name     string
	Dtype    Dtype
	Nullable bool

	// EnumKind names the registered enum kind when Dtype == Categorical.
	EnumKind string
	// Inner is the element dtype when Dtype == ListPrimitive.
	Inner Dtype
	// StructFields describes the element type when Dtype == ListStruct.
	StructFields []StructField

	Values []interface{}
}

// Table is a named, column-oriented, row-aligned record batch for one
// aspect or derived stream.
type Table struct {
	Name    string
	NumRows int

	order   []string
	columns map[string]*Column
}

// New creates an empty table with the given name.
func New(name string) *Table {
	return &Table{Name: name, columns: make(map[string]*Column)}
}

// AddColumn appends a column, preserving insertion order. It panics if
// the column's length does not match NumRows (when NumRows has already
// been fixed by a prior column) -- a programming error, not a runtime
// data condition.
func (t *Table) AddColumn(c *Column) {
	if len(t.order) == 0 {
		t.NumRows = len(c.Values)
	} else if len(c.Values) != t.NumRows {
		panic(fmt.Sprintf("table %s: column %s has %d rows, table has %d", t.Name, c.Name, len(c.Values), t.NumRows))
	}
	if _, exists := t.columns[c.Name]; !exists {
		t.order = append(t.order, c.Name)
	}
	t.columns[c.Name] = c
}

// Column looks up a column by name.
func (t *Table) Column(name string) (*Column, bool) {
	c, ok := t.columns[name]
	return c, ok
}

// ColumnNames returns column names in insertion order, the order used
// for deterministic iteration by the output encoders (spec §5).
func (t *Table) ColumnNames() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Columns returns the columns in insertion order.
func (t *Table) Columns() []*Column {
	out := make([]*Column, len(t.order))
	for i, name := range t.order {
		out[i] = t.columns[name]
	}
	return out
}
