package encode

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anovio/tubuin/internal/table"
)

func nullEnc(v int64) *int64 { return &v }

func TestEncodeColumnFixedWidthRoundTrips(t *testing.T) {
	col := &table.Column{Name: "frame", Dtype: table.UInt32, Values: []interface{}{int64(1), int64(2), int64(3)}}
	blobs, desc, err := EncodeColumn(col, "s", nil)
	require.NoError(t, err)
	assert.Equal(t, "frame_bin", desc.DataKey)

	data := blobs["frame_bin"]
	require.Len(t, data, 12)
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(data[0:4]))
	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(data[8:12]))
}

func TestEncodeColumnFixedWidthNullsRequireNullEncoding(t *testing.T) {
	col := &table.Column{Name: "frame", Dtype: table.UInt32, Values: []interface{}{int64(1), nil}}
	_, _, err := EncodeColumn(col, "s", nil)
	assert.Error(t, err)

	_, desc, err := EncodeColumn(col, "s", nullEnc(0))
	require.NoError(t, err)
	assert.Equal(t, "frame", desc.Name)
}

func TestEncodeColumnFloatNullBecomesNaN(t *testing.T) {
	col := &table.Column{Name: "v", Dtype: table.Float64, Values: []interface{}{1.5, nil}}
	blobs, desc, err := EncodeColumn(col, "s", nil)
	require.NoError(t, err)
	data := blobs[desc.DataKey]
	bits := binary.LittleEndian.Uint64(data[8:16])
	assert.True(t, math.IsNaN(math.Float64frombits(bits)))
}

func TestEncodeColumnUtf8(t *testing.T) {
	col := &table.Column{Name: "name", Dtype: table.Utf8Dtype, Values: []interface{}{"abc", "", "de"}}
	blobs, desc, err := EncodeColumn(col, "s", nil)
	require.NoError(t, err)
	assert.Equal(t, "Utf8", desc.Dtype)
	assert.Equal(t, []byte("abcde"), blobs[desc.DataKey])
	offs := blobs[desc.OffsetsKey]
	require.Len(t, offs, 16) // 4 offsets * 4 bytes
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(offs[0:4]))
	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(offs[4:8]))
	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(offs[8:12]))
	assert.Equal(t, uint32(5), binary.LittleEndian.Uint32(offs[12:16]))
}

func TestEncodeColumnListPrimitive(t *testing.T) {
	col := &table.Column{
		Name: "tags", Dtype: table.ListPrimitive, Inner: table.Int32,
		Values: []interface{}{
			[]interface{}{int64(1), int64(2)},
			nil,
			[]interface{}{int64(3)},
		},
	}
	blobs, desc, err := EncodeColumn(col, "s", nil)
	require.NoError(t, err)
	assert.Equal(t, "List[Int32]", desc.Dtype)
	offs := blobs[desc.OffsetsKey]
	require.Len(t, offs, 16)
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(offs[0:4]))
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(offs[4:8]))
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(offs[8:12]))
	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(offs[12:16]))
}

func TestEncodeColumnOpaqueFallback(t *testing.T) {
	col := &table.Column{Name: "raw", Dtype: table.Opaque, Values: []interface{}{map[string]interface{}{"a": int64(1)}}}
	blobs, desc, err := EncodeColumn(col, "s", nil)
	require.NoError(t, err)
	assert.Equal(t, "opaque-packed-list", desc.SerializationMethod)
	assert.NotEmpty(t, blobs[desc.DataKey])
}
