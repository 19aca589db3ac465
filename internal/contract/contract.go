// Package contract implements the output contract engine: a
// declarative, column-by-column transformation applied to a table
// before it reaches a binary encoder (spec §4.5).
package contract

import "github.com/anovio/tubuin/internal/table"

// TransformKind names which rule (if any) produced a column.
type TransformKind int

const (
	TransformNone TransformKind = iota
	TransformCast
	TransformStaticQuantize
	TransformDynamicQuantize
	TransformEnumToInt
)

func (k TransformKind) String() string {
	switch k {
	case TransformNone:
		return "none"
	case TransformCast:
		return "cast"
	case TransformStaticQuantize:
		return "static_quantize"
	case TransformDynamicQuantize:
		return "symmetric_quantize"
	case TransformEnumToInt:
		return "enum_to_int"
	default:
		return "unknown"
	}
}

// QuantizeMode distinguishes the two quantize(...) rule shapes.
type QuantizeMode int

const (
	QuantizeStatic QuantizeMode = iota
	QuantizeDynamic
)

// ColumnRule is one column's declarative transform. ToType is required
// whenever Transform != TransformNone (spec §4.5: "every rule MUST
// declare to_type").
type ColumnRule struct {
	Transform TransformKind
	ToType    table.Dtype

	// Scale is required when Transform == TransformStaticQuantize.
	Scale float64
	// QuantizeMode distinguishes static from dynamic quantize rules.
	QuantizeMode QuantizeMode

	// EnumKey names the registered enum kind when Transform ==
	// TransformEnumToInt.
	EnumKey string

	// NullEncoding, when non-nil, overrides TableOptions.NullEncoding
	// for this column only in the columnar encoders (spec §4.6.5:
	// "per-column or per-table contract metadata"). Row-major packing
	// always uses the table-level TableOptions.NullEncoding.
	NullEncoding *int64
}

// Cast is a convenience constructor for a plain cast rule.
func Cast(toType table.Dtype) ColumnRule {
	return ColumnRule{Transform: TransformCast, ToType: toType}
}

// QuantizeStaticRule is a convenience constructor for a static
// quantize rule.
func QuantizeStaticRule(scale float64, toType table.Dtype) ColumnRule {
	return ColumnRule{Transform: TransformStaticQuantize, QuantizeMode: QuantizeStatic, Scale: scale, ToType: toType}
}

// QuantizeDynamicRule is a convenience constructor for a dynamic
// (data-driven, symmetric) quantize rule -- this implementation's
// expansion of the static-only quantize rule, grounded on the
// reference's _apply_quantization dynamic branch.
func QuantizeDynamicRule(toType table.Dtype) ColumnRule {
	return ColumnRule{Transform: TransformDynamicQuantize, QuantizeMode: QuantizeDynamic, ToType: toType}
}

// EnumToInt is a convenience constructor for an enum_to_int rule.
func EnumToInt(enumKey string, toType table.Dtype) ColumnRule {
	return ColumnRule{Transform: TransformEnumToInt, EnumKey: enumKey, ToType: toType}
}

// TableOptions carries table-level contract options through to the
// output metadata verbatim.
type TableOptions struct {
	// Layout is "columnar" (default, zero value) or "row-major-mixed".
	Layout string
	// NullEncoding, when non-nil, is the sentinel integer substituted
	// for nulls by the row-major packer and by non-float columnar
	// primitives with nulls.
	NullEncoding *int64
}

const (
	LayoutColumnar     = "columnar"
	LayoutRowMajorMixed = "row-major-mixed"
)

// Contract is the per-stream declarative transform: a rule per column,
// plus table-level options.
type Contract struct {
	Columns      map[string]ColumnRule
	TableOptions TableOptions
}

// ColumnMeta is the metadata record produced for one column by the
// engine; fields beyond Transform/OriginalDtype are populated
// depending on which rule fired.
type ColumnMeta struct {
	Transform     string
	OriginalDtype string
	Scale         float64
	EnumMap       map[int64]string
	NullEncoding  *int64
}

// ResolveNullEncoding returns the effective null sentinel for a
// column: its own override if set, otherwise the table-level default.
func (m *Metadata) ResolveNullEncoding(column string) *int64 {
	if cm, ok := m.Columns[column]; ok && cm.NullEncoding != nil {
		return cm.NullEncoding
	}
	return m.Table.NullEncoding
}

// Metadata is the engine's full output: one ColumnMeta per column plus
// the pass-through table options.
type Metadata struct {
	Columns map[string]ColumnMeta
	Table   TableOptions
}
