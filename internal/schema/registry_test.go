package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistryValidates(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.ValidateConsistency())
	assert.Contains(t, reg.RecognizedAspects(), AspectUnitEvents)
	assert.Contains(t, reg.RecognizedAspects(), AspectCommandsLog)
}

func TestDequantizationRulesDeriveFromFieldMeta(t *testing.T) {
	reg := NewRegistry()
	rules := reg.DequantizationRules()
	rule, ok := rules[AspectUnitEconomy]
	require.True(t, ok, "unit_economy should carry dequantization metadata")
	assert.Equal(t, 10.0, rule.Divisor)
	assert.Contains(t, rule.Fields, "metal_make")
}

func TestEnumRulesDeriveFromFieldMeta(t *testing.T) {
	reg := NewRegistry()
	rules := reg.EnumRules()[AspectUnitEvents]
	require.NotNil(t, rules)
	rule, ok := rules["event_type"]
	require.True(t, ok)
	assert.Equal(t, "event_type", rule.CleanField)
	assert.Equal(t, KindUnitEvents, rule.Kind.Kind)
}

func TestEnumKindNameOfAndCodeOf(t *testing.T) {
	reg := NewRegistry()
	kind, ok := reg.EnumKindByName(KindUnitEvents)
	require.True(t, ok)

	name, ok := kind.NameOf(1)
	require.True(t, ok)
	assert.Equal(t, "CREATED", name)

	code, ok := kind.CodeOf("DESTROYED")
	require.True(t, ok)
	assert.Equal(t, int64(3), code)

	_, ok = kind.NameOf(999)
	assert.False(t, ok, "an unregistered code must be reported as absent, not panic")
}

func TestRawAndCleanSchemaAgreeOnAspectSet(t *testing.T) {
	reg := NewRegistry()
	for _, aspect := range reg.RecognizedAspects() {
		_, rawOK := reg.RawSchemaFor(aspect)
		_, cleanOK := reg.CleanSchemaFor(aspect)
		assert.True(t, rawOK, "aspect %q missing raw schema", aspect)
		assert.True(t, cleanOK, "aspect %q missing clean schema", aspect)
	}
}
