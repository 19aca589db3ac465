package table

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anovio/tubuin/internal/schema"
	"github.com/anovio/tubuin/internal/transform"
)

func TestMaterializeDerivesColumnsFromCleanSchema(t *testing.T) {
	reg := schema.NewRegistry()
	log := zerolog.Nop()

	records := []transform.CleanRecord{
		{"frame": int64(1), "unit_id": int64(2), "unit_def_id": int64(3), "team_id": int64(0),
			"x": int64(0), "y": int64(0), "z": int64(0), "vx": 1.5, "vy": -3.0, "vz": 0.0, "heading": int64(90)},
	}
	tbl, err := Materialize(reg, schema.AspectUnitPositions, records, &log)
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.NumRows)

	col, ok := tbl.Column("vx")
	require.True(t, ok)
	assert.Equal(t, Float64, col.Dtype)
	assert.Equal(t, 1.5, col.Values[0])
}

func TestMaterializeEmptyRecordsProducesZeroRowTable(t *testing.T) {
	reg := schema.NewRegistry()
	log := zerolog.Nop()

	tbl, err := Materialize(reg, schema.AspectUnitPositions, nil, &log)
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.NumRows)
	assert.NotEmpty(t, tbl.ColumnNames())
}

func TestMaterializeUnknownAspectFails(t *testing.T) {
	reg := schema.NewRegistry()
	log := zerolog.Nop()
	_, err := Materialize(reg, "nope", nil, &log)
	assert.Error(t, err)
}

func TestAddColumnPreservesInsertionOrderAndChecksLength(t *testing.T) {
	tbl := New("x")
	tbl.AddColumn(&Column{Name: "a", Dtype: Int64, Values: []interface{}{int64(1), int64(2)}})
	tbl.AddColumn(&Column{Name: "b", Dtype: Int64, Values: []interface{}{int64(3), int64(4)}})
	assert.Equal(t, []string{"a", "b"}, tbl.ColumnNames())
	assert.Equal(t, 2, tbl.NumRows)
}

func TestAddColumnPanicsOnMismatchedLength(t *testing.T) {
	tbl := New("x")
	tbl.AddColumn(&Column{Name: "a", Dtype: Int64, Values: []interface{}{int64(1), int64(2)}})
	assert.Panics(t, func() {
		tbl.AddColumn(&Column{Name: "b", Dtype: Int64, Values: []interface{}{int64(1)}})
	})
}
