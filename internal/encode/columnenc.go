package encode

import (
	"fmt"
	"math"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/anovio/tubuin/internal/errs"
	"github.com/anovio/tubuin/internal/table"
)

// ColumnDescriptor is the recursive column encoder's schema output for
// one emitted column or recursively-produced sub-column (spec §4.6.5).
type ColumnDescriptor struct {
	Name                string             `json:"name"`
	Dtype               string             `json:"dtype"`
	DataKey             string             `json:"data_key,omitempty"`
	OffsetsKey          string             `json:"offsets_key,omitempty"`
	ListOffsetsKey      string             `json:"list_offsets_key,omitempty"`
	StructFields        []ColumnDescriptor `json:"struct_fields,omitempty"`
	SerializationMethod string             `json:"serialization_method,omitempty"`
	File                string             `json:"file,omitempty"`
}

// BlobSet is the set of named byte blobs produced for one column.
type BlobSet map[string][]byte

// EncodeColumn recursively serializes one column into one or more
// named little-endian blobs plus a schema descriptor. nullEncoding is
// the resolved sentinel (per-column overriding per-table) to use for
// non-float primitive nulls (spec §4.6.5).
func EncodeColumn(col *table.Column, stream string, nullEncoding *int64) (BlobSet, ColumnDescriptor, error) {
	return encodeColumnRecursive(col, col.Name, stream, nullEncoding)
}

func encodeColumnRecursive(col *table.Column, base, stream string, nullEncoding *int64) (BlobSet, ColumnDescriptor, error) {
	switch {
	case col.Dtype == table.ListStruct:
		return encodeListStruct(col, base, stream, nullEncoding)
	case col.Dtype == table.ListPrimitive:
		return encodeListPrimitive(col, base, stream)
	case col.Dtype == table.Utf8Dtype:
		blobs, desc := encodeUtf8(col, base)
		return blobs, desc, nil
	case col.Dtype.IsPrimitiveFixedWidth():
		return encodeFixedWidth(col, base, stream, nullEncoding)
	default:
		return encodeOpaque(col, base, stream)
	}
}

func encodeFixedWidth(col *table.Column, base, stream string, nullEncoding *int64) (BlobSet, ColumnDescriptor, error) {
	coder, err := coderFor(col.Dtype)
	if err != nil {
		return nil, ColumnDescriptor{}, errs.New(errs.OutputGeneration, err.Error()).WithAspect(stream)
	}
	isFloat := col.Dtype == table.Float32 || col.Dtype == table.Float64

	hasNull := false
	for _, v := range col.Values {
		if v == nil {
			hasNull = true
			break
		}
	}
	if hasNull && !isFloat && nullEncoding == nil {
		return nil, ColumnDescriptor{}, errs.New(errs.OutputGeneration,
			fmt.Sprintf("column %q has nulls but no null_encoding rule", base)).WithAspect(stream)
	}

	buf := make([]byte, 0, col.Dtype.ByteWidth()*len(col.Values))
	var scratch []byte
	for _, v := range col.Values {
		cell := v
		if cell == nil {
			if isFloat {
				cell = math.NaN()
			} else {
				cell = *nullEncoding
			}
		}
		scratch, err = coder.encode(scratch, cell)
		if err != nil {
			return nil, ColumnDescriptor{}, errs.Wrap(errs.OutputGeneration, err, fmt.Sprintf("encode column %q", base)).WithAspect(stream)
		}
		buf = append(buf, scratch...)
	}
	key := base + "_bin"
	return BlobSet{key: buf}, ColumnDescriptor{Name: base, Dtype: col.Dtype.String(), DataKey: key}, nil
}

func encodeUtf8(col *table.Column, base string) (BlobSet, ColumnDescriptor) {
	offs := make([]uint32, 0, len(col.Values)+1)
	offs = append(offs, 0)
	var data []byte
	var total uint32
	for _, v := range col.Values {
		var s string
		if v != nil {
			s, _ = v.(string)
		}
		data = append(data, s...)
		total += uint32(len(s))
		offs = append(offs, total)
	}
	offKey, dataKey := base+"_offs", base+"_data"
	return BlobSet{offKey: packUint32(offs), dataKey: data},
		ColumnDescriptor{Name: base, Dtype: "Utf8", DataKey: dataKey, OffsetsKey: offKey}
}

func encodeListPrimitive(col *table.Column, base, stream string) (BlobSet, ColumnDescriptor, error) {
	coder, err := coderFor(col.Inner)
	if err != nil {
		return nil, ColumnDescriptor{}, errs.New(errs.OutputGeneration, err.Error()).WithAspect(stream)
	}
	isFloat := col.Inner == table.Float32 || col.Inner == table.Float64

	offs := []uint32{0}
	var data []byte
	var scratch []byte
	var count uint32
	for _, v := range col.Values {
		if v == nil {
			offs = append(offs, count)
			continue
		}
		items, ok := v.([]interface{})
		if !ok {
			return nil, ColumnDescriptor{}, errs.New(errs.OutputGeneration,
				fmt.Sprintf("column %q: expected list cell, got %T", base, v)).WithAspect(stream)
		}
		for _, item := range items {
			cell := item
			if cell == nil {
				if isFloat {
					cell = math.NaN()
				} else {
					return nil, ColumnDescriptor{}, errs.New(errs.OutputGeneration,
						fmt.Sprintf("column %q: list has a null in a non-float inner type", base)).WithAspect(stream)
				}
			}
			scratch, err = coder.encode(scratch, cell)
			if err != nil {
				return nil, ColumnDescriptor{}, errs.Wrap(errs.OutputGeneration, err, fmt.Sprintf("encode column %q", base)).WithAspect(stream)
			}
			data = append(data, scratch...)
			count++
		}
		offs = append(offs, count)
	}
	offKey, dataKey := base+"_offs", base+"_data"
	return BlobSet{offKey: packUint32(offs), dataKey: data},
		ColumnDescriptor{Name: base, Dtype: fmt.Sprintf("List[%s]", col.Inner), DataKey: dataKey, OffsetsKey: offKey}, nil
}

func encodeListStruct(col *table.Column, base, stream string, nullEncoding *int64) (BlobSet, ColumnDescriptor, error) {
	listOffs := []uint32{0}
	var count uint32
	flat := make(map[string][]interface{}, len(col.StructFields))
	for _, f := range col.StructFields {
		flat[f.Name] = nil
	}
	for _, v := range col.Values {
		if v != nil {
			items, ok := v.([]interface{})
			if !ok {
				return nil, ColumnDescriptor{}, errs.New(errs.OutputGeneration,
					fmt.Sprintf("column %q: expected list-of-struct cell, got %T", base, v)).WithAspect(stream)
			}
			for _, item := range items {
				m, _ := item.(map[string]interface{})
				for _, f := range col.StructFields {
					var cell interface{}
					if m != nil {
						cell = m[f.Name]
					}
					flat[f.Name] = append(flat[f.Name], cell)
				}
				count++
			}
		}
		listOffs = append(listOffs, count)
	}

	blobs := BlobSet{}
	listOffsKey := base + "_list_offs"
	blobs[listOffsKey] = packUint32(listOffs)

	structDescs := make([]ColumnDescriptor, 0, len(col.StructFields))
	for _, f := range col.StructFields {
		fieldCol := &table.Column{Name: f.Name, Dtype: f.Dtype, Values: flat[f.Name]}
		fieldBlobs, desc, err := encodeColumnRecursive(fieldCol, base+"__"+f.Name, stream, nullEncoding)
		if err != nil {
			return nil, ColumnDescriptor{}, err
		}
		for k, v := range fieldBlobs {
			blobs[k] = v
		}
		structDescs = append(structDescs, desc)
	}
	return blobs, ColumnDescriptor{Name: base, Dtype: col.Dtype.String(), ListOffsetsKey: listOffsKey, StructFields: structDescs}, nil
}

// encodeOpaque is the last-resort fallback for a column whose dtype
// the recursive encoder does not otherwise recognize (an un-mapped
// Categorical that the contract engine did not enum_to_int, for
// instance): the cell list is serialized as a single opaque msgpack
// blob so an exotic column never crashes the encoder.
func encodeOpaque(col *table.Column, base, stream string) (BlobSet, ColumnDescriptor, error) {
	packed, err := msgpack.Marshal(col.Values)
	if err != nil {
		return nil, ColumnDescriptor{}, errs.Wrap(errs.OutputGeneration, err, fmt.Sprintf("opaque-encode column %q", base)).WithAspect(stream)
	}
	key := base + "_mpk"
	return BlobSet{key: packed}, ColumnDescriptor{
		Name: base, Dtype: col.Dtype.String(), DataKey: key, SerializationMethod: "opaque-packed-list",
	}, nil
}
