package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anovio/tubuin/internal/schema"
	"github.com/anovio/tubuin/internal/table"
)

func newFloatColumn(name string, vals ...interface{}) *table.Column {
	return &table.Column{Name: name, Dtype: table.Float64, Values: vals}
}

func TestApplyCastRule(t *testing.T) {
	reg := schema.NewRegistry()
	tbl := table.New("s")
	tbl.AddColumn(&table.Column{Name: "frame", Dtype: table.Int64, Values: []interface{}{int64(1), int64(2)}})

	c := &Contract{Columns: map[string]ColumnRule{"frame": Cast(table.UInt32)}}
	out, meta, err := Apply(tbl, c, reg)
	require.NoError(t, err)

	col, ok := out.Column("frame")
	require.True(t, ok)
	assert.Equal(t, table.UInt32, col.Dtype)
	assert.Equal(t, "cast", meta.Columns["frame"].Transform)
}

func TestApplyStaticQuantize(t *testing.T) {
	reg := schema.NewRegistry()
	tbl := table.New("s")
	tbl.AddColumn(newFloatColumn("army_value", 12.34, 0.0))

	c := &Contract{Columns: map[string]ColumnRule{"army_value": QuantizeStaticRule(0.1, table.UInt32)}}
	out, meta, err := Apply(tbl, c, reg)
	require.NoError(t, err)

	col, _ := out.Column("army_value")
	assert.Equal(t, table.UInt32, col.Dtype)
	assert.Equal(t, int64(123), col.Values[0]) // round(12.34/0.1) = 123
	assert.Equal(t, 0.1, meta.Columns["army_value"].Scale)
}

func TestApplyDynamicQuantizeComputesSymmetricScale(t *testing.T) {
	reg := schema.NewRegistry()
	tbl := table.New("s")
	tbl.AddColumn(newFloatColumn("v", 100.0, -50.0, 25.0))

	c := &Contract{Columns: map[string]ColumnRule{"v": QuantizeDynamicRule(table.Int16)}}
	out, meta, err := Apply(tbl, c, reg)
	require.NoError(t, err)

	col, _ := out.Column("v")
	assert.Equal(t, table.Int16, col.Dtype)
	// scale = 100 / 32767; the max absolute value must round-trip to the
	// target type's max representable magnitude.
	assert.InDelta(t, 32767.0, float64(col.Values[0].(int64)), 1.0)
	assert.Greater(t, meta.Columns["v"].Scale, 0.0)
}

func TestApplyEnumToInt(t *testing.T) {
	reg := schema.NewRegistry()
	tbl := table.New("unit_events")
	tbl.AddColumn(&table.Column{
		Name: "event_type", Dtype: table.Categorical, EnumKind: schema.KindUnitEvents,
		Values: []interface{}{"CREATED", "DESTROYED", nil},
	})

	c := &Contract{Columns: map[string]ColumnRule{"event_type": EnumToInt(schema.KindUnitEvents, table.UInt32)}}
	out, meta, err := Apply(tbl, c, reg)
	require.NoError(t, err)

	col, _ := out.Column("event_type")
	assert.Equal(t, table.UInt32, col.Dtype)
	assert.Equal(t, int64(1), col.Values[0])
	assert.Equal(t, int64(3), col.Values[1])
	assert.Nil(t, col.Values[2])
	assert.Equal(t, "CREATED", meta.Columns["event_type"].EnumMap[1])
}

func TestApplyPassesThroughColumnsWithNoRule(t *testing.T) {
	reg := schema.NewRegistry()
	tbl := table.New("s")
	tbl.AddColumn(&table.Column{Name: "x", Dtype: table.Int64, Values: []interface{}{int64(7)}})

	out, meta, err := Apply(tbl, &Contract{Columns: map[string]ColumnRule{}}, reg)
	require.NoError(t, err)
	col, _ := out.Column("x")
	assert.Equal(t, int64(7), col.Values[0])
	assert.Equal(t, "none", meta.Columns["x"].Transform)
}

func TestApplyNilContractIsPassThrough(t *testing.T) {
	reg := schema.NewRegistry()
	tbl := table.New("s")
	tbl.AddColumn(&table.Column{Name: "x", Dtype: table.Int64, Values: []interface{}{int64(7)}})

	out, _, err := Apply(tbl, nil, reg)
	require.NoError(t, err)
	col, _ := out.Column("x")
	assert.Equal(t, int64(7), col.Values[0])
}

func TestDefaultContractsForReturnsDefaultForUnknownStream(t *testing.T) {
	contracts := DefaultContracts()
	c := contracts.For("some_unregistered_stream")
	assert.Equal(t, LayoutColumnar, c.TableOptions.Layout)
	assert.Empty(t, c.Columns)
}

func TestDefaultContractsKnownStreams(t *testing.T) {
	contracts := DefaultContracts()
	assert.Equal(t, LayoutRowMajorMixed, contracts.For("army_value_timeline").TableOptions.Layout)
	assert.Equal(t, LayoutRowMajorMixed, contracts.For("command_log").TableOptions.Layout)
	assert.Equal(t, LayoutRowMajorMixed, contracts.For("unit_events").TableOptions.Layout)
}
