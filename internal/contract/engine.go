package contract

import (
	"fmt"
	"math"

	"github.com/anovio/tubuin/internal/errs"
	"github.com/anovio/tubuin/internal/schema"
	"github.com/anovio/tubuin/internal/table"
)

// Apply runs the contract's column rules against t in a single pass,
// returning the transformed table and its metadata (spec §4.5). A nil
// contract is treated as an absent/empty one: every column passes
// through unchanged.
func Apply(t *table.Table, c *Contract, reg *schema.Registry) (*table.Table, *Metadata, error) {
	out := table.New(t.Name)
	meta := &Metadata{Columns: make(map[string]ColumnMeta)}

	var rules map[string]ColumnRule
	if c != nil {
		rules = c.Columns
		meta.Table = c.TableOptions
	}

	for _, col := range t.Columns() {
		rule, has := rules[col.Name]
		if !has {
			out.AddColumn(col)
			meta.Columns[col.Name] = ColumnMeta{Transform: TransformNone.String(), OriginalDtype: col.Dtype.String()}
			continue
		}
		newCol, colMeta, err := applyRule(col, rule, reg)
		if err != nil {
			return nil, nil, errs.Wrap(errs.Transformation, err, fmt.Sprintf("transformation failed for column %q", col.Name)).WithAspect(t.Name)
		}
		colMeta.NullEncoding = rule.NullEncoding
		out.AddColumn(newCol)
		meta.Columns[col.Name] = colMeta
	}
	return out, meta, nil
}

func applyRule(col *table.Column, rule ColumnRule, reg *schema.Registry) (*table.Column, ColumnMeta, error) {
	originalDtype := col.Dtype.String()

	switch rule.Transform {
	case TransformCast:
		values, err := castAll(col.Values, rule.ToType)
		if err != nil {
			return nil, ColumnMeta{}, err
		}
		return withDtype(col, rule.ToType, values), ColumnMeta{Transform: TransformCast.String(), OriginalDtype: originalDtype}, nil

	case TransformStaticQuantize:
		if rule.Scale == 0 {
			return nil, ColumnMeta{}, fmt.Errorf("static quantization requires a non-zero scale")
		}
		values, err := quantizeAll(col.Values, rule.Scale, rule.ToType)
		if err != nil {
			return nil, ColumnMeta{}, err
		}
		return withDtype(col, rule.ToType, values), ColumnMeta{
			Transform: TransformStaticQuantize.String(), OriginalDtype: originalDtype, Scale: rule.Scale,
		}, nil

	case TransformDynamicQuantize:
		if col.Dtype != table.Float64 && col.Dtype != table.Float32 {
			return nil, ColumnMeta{}, fmt.Errorf("dynamic quantization requires a float column, got %s", col.Dtype)
		}
		scale := symmetricScale(col.Values, rule.ToType)
		values, err := quantizeAll(col.Values, scale, rule.ToType)
		if err != nil {
			return nil, ColumnMeta{}, err
		}
		return withDtype(col, rule.ToType, values), ColumnMeta{
			Transform: TransformDynamicQuantize.String(), OriginalDtype: originalDtype, Scale: scale,
		}, nil

	case TransformEnumToInt:
		kind, ok := reg.EnumKindByName(rule.EnumKey)
		if !ok {
			return nil, ColumnMeta{}, fmt.Errorf("unregistered enum kind %q", rule.EnumKey)
		}
		values := make([]interface{}, len(col.Values))
		for i, v := range col.Values {
			if v == nil {
				values[i] = nil
				continue
			}
			name, ok := v.(string)
			if !ok {
				return nil, ColumnMeta{}, fmt.Errorf("enum_to_int expects string cells, got %T", v)
			}
			code, found := kind.CodeOf(name)
			if !found {
				values[i] = nil
				continue
			}
			values[i] = code
		}
		casted, err := castAll(values, rule.ToType)
		if err != nil {
			return nil, ColumnMeta{}, err
		}
		return withDtype(col, rule.ToType, casted), ColumnMeta{
			Transform: TransformEnumToInt.String(), OriginalDtype: originalDtype, EnumMap: kind.CodeToNameMap(),
		}, nil

	default:
		return nil, ColumnMeta{}, fmt.Errorf("unrecognized transform kind")
	}
}

func withDtype(col *table.Column, dtype table.Dtype, values []interface{}) *table.Column {
	return &table.Column{
		Name:         col.Name,
		Dtype:        dtype,
		Nullable:     col.Nullable,
		EnumKind:     col.EnumKind,
		Inner:        col.Inner,
		StructFields: col.StructFields,
		Values:       values,
	}
}

func castAll(values []interface{}, to table.Dtype) ([]interface{}, error) {
	out := make([]interface{}, len(values))
	for i, v := range values {
		cv, err := castCell(v, to)
		if err != nil {
			return nil, err
		}
		out[i] = cv
	}
	return out, nil
}

func castCell(v interface{}, to table.Dtype) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	switch to {
	case table.Int8, table.UInt8, table.Int16, table.UInt16, table.Int32, table.UInt32, table.Int64, table.UInt64:
		switch n := v.(type) {
		case int64:
			return n, nil
		case float64:
			return int64(n), nil
		case bool:
			if n {
				return int64(1), nil
			}
			return int64(0), nil
		default:
			return nil, fmt.Errorf("cannot cast %T to %s", v, to)
		}
	case table.Float32, table.Float64:
		switch n := v.(type) {
		case int64:
			return float64(n), nil
		case float64:
			return n, nil
		default:
			return nil, fmt.Errorf("cannot cast %T to %s", v, to)
		}
	case table.BooleanDtype:
		switch n := v.(type) {
		case bool:
			return n, nil
		case int64:
			return n != 0, nil
		default:
			return nil, fmt.Errorf("cannot cast %T to %s", v, to)
		}
	case table.Utf8Dtype:
		switch n := v.(type) {
		case string:
			return n, nil
		default:
			return fmt.Sprintf("%v", n), nil
		}
	default:
		return nil, fmt.Errorf("cannot cast to unsupported dtype %s", to)
	}
}

func quantizeAll(values []interface{}, scale float64, to table.Dtype) ([]interface{}, error) {
	out := make([]interface{}, len(values))
	for i, v := range values {
		if v == nil {
			continue
		}
		f, ok := v.(float64)
		if !ok {
			if iv, ok2 := v.(int64); ok2 {
				f = float64(iv)
			} else {
				return nil, fmt.Errorf("quantize expects numeric cells, got %T", v)
			}
		}
		rounded := math.Round(f / scale)
		cv, err := castCell(rounded, to)
		if err != nil {
			return nil, err
		}
		out[i] = cv
	}
	return out, nil
}

// symmetricScale computes the reference implementation's dynamic
// symmetric quantization scale: the maximum absolute value divided by
// the target type's representable maximum, or 1.0 when the column has
// no non-null values or they are all zero.
func symmetricScale(values []interface{}, to table.Dtype) float64 {
	var absMax float64
	seen := false
	for _, v := range values {
		if v == nil {
			continue
		}
		f, ok := v.(float64)
		if !ok {
			continue
		}
		a := math.Abs(f)
		if !seen || a > absMax {
			absMax = a
			seen = true
		}
	}
	if !seen || absMax == 0 {
		return 1.0
	}
	targetMax := targetMaxFor(to)
	return absMax / targetMax
}

func targetMaxFor(to table.Dtype) float64 {
	bits := to.ByteWidth() * 8
	switch to {
	case table.UInt8, table.UInt16, table.UInt32, table.UInt64:
		return math.Pow(2, float64(bits)) - 1
	default:
		return math.Pow(2, float64(bits-1)) - 1
	}
}
