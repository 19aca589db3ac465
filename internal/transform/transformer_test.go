package transform

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anovio/tubuin/internal/decode"
	"github.com/anovio/tubuin/internal/schema"
)

func TestTransformDequantizesBeforeValidation(t *testing.T) {
	reg := schema.NewRegistry()
	log := zerolog.Nop()
	tr, ok := NewTransformer(reg, schema.AspectUnitPositions, &log)
	require.True(t, ok)

	rec := decode.RawRecord{
		"frame": int64(1), "unit_id": int64(2), "unit_def_id": int64(3), "team_id": int64(0),
		"x": int64(0), "y": int64(0), "z": int64(0),
		"vx": int64(1500), "vy": int64(-3000), "vz": int64(0),
		"heading": int64(90),
	}
	clean, err := tr.Transform(rec, 0)
	require.NoError(t, err)
	assert.Equal(t, 1.5, clean["vx"])
	assert.Equal(t, -3.0, clean["vy"])
}

func TestTransformMapsEnumCodeToName(t *testing.T) {
	reg := schema.NewRegistry()
	log := zerolog.Nop()
	tr, ok := NewTransformer(reg, schema.AspectUnitEvents, &log)
	require.True(t, ok)

	rec := decode.RawRecord{
		"frame": int64(1), "unit_id": int64(2), "unitDefID": int64(3), "unit_team_id": int64(0),
		"x": int64(0), "y": int64(0), "z": nil,
		"attacker_unit_id": nil, "attacker_unit_def_id": nil, "attacker_team_id": nil,
		"event_type": int64(2), // FINISHED
		"old_team_id": nil, "new_team_id": nil, "builder_id": nil, "factory_queue_len": nil,
	}
	clean, err := tr.Transform(rec, 0)
	require.NoError(t, err)
	assert.Equal(t, "FINISHED", clean["event_type"])
}

func TestTransformUnknownEnumCodeRecordsNull(t *testing.T) {
	reg := schema.NewRegistry()
	log := zerolog.Nop()
	tr, ok := NewTransformer(reg, schema.AspectUnitEvents, &log)
	require.True(t, ok)

	rec := decode.RawRecord{
		"frame": int64(1), "unit_id": int64(2), "unitDefID": nil, "unit_team_id": int64(0),
		"x": int64(0), "y": int64(0), "z": nil,
		"attacker_unit_id": nil, "attacker_unit_def_id": nil, "attacker_team_id": nil,
		"event_type": int64(999),
		"old_team_id": nil, "new_team_id": nil, "builder_id": nil, "factory_queue_len": nil,
	}
	clean, err := tr.Transform(rec, 0)
	require.NoError(t, err)
	assert.Nil(t, clean["event_type"])
}

func TestTransformMissingRequiredFieldFails(t *testing.T) {
	reg := schema.NewRegistry()
	log := zerolog.Nop()
	tr, ok := NewTransformer(reg, schema.AspectUnitPositions, &log)
	require.True(t, ok)

	rec := decode.RawRecord{"unit_id": int64(2)} // missing frame and the rest
	_, err := tr.Transform(rec, 3)
	assert.Error(t, err)
}

func TestNewTransformerUnknownAspect(t *testing.T) {
	reg := schema.NewRegistry()
	log := zerolog.Nop()
	_, ok := NewTransformer(reg, "nope", &log)
	assert.False(t, ok)
}
