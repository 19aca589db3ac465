package decode

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/anovio/tubuin/internal/schema"
)

func encodeRows(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	for _, row := range rows {
		require.NoError(t, enc.Encode(row))
	}
	return buf.Bytes()
}

func TestDecoderBindsPositionalFieldsAndPadsShortRows(t *testing.T) {
	reg := schema.NewRegistry()
	log := zerolog.Nop()

	// Use unit_events: it has more than five fields and an optional
	// tail that the short row below exercises.
	raw, ok := reg.RawSchemaFor(schema.AspectUnitEvents)
	require.True(t, ok)
	arity := raw.Arity()
	require.Greater(t, arity, 5)

	fullRow := make([]interface{}, arity)
	fullRow[0] = int64(10)  // frame
	fullRow[1] = int64(42)  // unit_id
	fullRow[2] = int64(7)   // unitDefID
	fullRow[3] = int64(1)   // unit_team_id
	fullRow[4] = int64(100) // x
	fullRow[5] = int64(200) // y
	for i := 6; i < arity; i++ {
		fullRow[i] = nil
	}
	fullRow[10] = int64(1) // event_type = CREATED

	shortRow := []interface{}{int64(11), int64(43), int64(8), int64(1), int64(0), int64(0)}

	data := encodeRows(t, [][]interface{}{fullRow, shortRow})
	dec, ok := NewDecoder(reg, schema.AspectUnitEvents, data, false, &log)
	require.True(t, ok)

	rec1, more, err := dec.Next()
	require.NoError(t, err)
	require.True(t, more)
	assert.Equal(t, int64(10), rec1["frame"])
	assert.Equal(t, int64(42), rec1["unit_id"])

	rec2, more, err := dec.Next()
	require.NoError(t, err)
	require.True(t, more)
	assert.Equal(t, int64(11), rec2["frame"])
	assert.Nil(t, rec2["z"], "fields beyond a short row's length must be padded to nil")

	_, more, err = dec.Next()
	require.NoError(t, err)
	assert.False(t, more)
}

func TestDecoderUnknownAspectReturnsNotOK(t *testing.T) {
	reg := schema.NewRegistry()
	log := zerolog.Nop()
	_, ok := NewDecoder(reg, "no_such_aspect", nil, false, &log)
	assert.False(t, ok)
}

func TestDecoderRejectsRequiredNullWithoutSkip(t *testing.T) {
	reg := schema.NewRegistry()
	log := zerolog.Nop()

	raw, ok := reg.RawSchemaFor(schema.AspectUnitPositions)
	require.True(t, ok)
	badRow := make([]interface{}, raw.Arity())
	badRow[0] = nil // frame is required

	data := encodeRows(t, [][]interface{}{badRow})
	dec, ok := NewDecoder(reg, schema.AspectUnitPositions, data, false, &log)
	require.True(t, ok)

	_, _, err := dec.Next()
	assert.Error(t, err)
}

func TestDecoderSkipOnErrorDropsInvalidRows(t *testing.T) {
	reg := schema.NewRegistry()
	log := zerolog.Nop()

	raw, ok := reg.RawSchemaFor(schema.AspectUnitPositions)
	require.True(t, ok)
	badRow := make([]interface{}, raw.Arity())
	badRow[0] = nil

	goodRow := make([]interface{}, raw.Arity())
	for i := range goodRow {
		goodRow[i] = int64(1)
	}

	data := encodeRows(t, [][]interface{}{badRow, goodRow})
	dec, ok := NewDecoder(reg, schema.AspectUnitPositions, data, true, &log)
	require.True(t, ok)

	rec, more, err := dec.Next()
	require.NoError(t, err)
	require.True(t, more)
	assert.Equal(t, int64(1), rec["frame"])

	_, more, err = dec.Next()
	require.NoError(t, err)
	assert.False(t, more)
}
