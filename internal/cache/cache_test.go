package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anovio/tubuin/internal/errs"
)

func TestVersionIsDeterministicAndSixteenHexChars(t *testing.T) {
	v := VersionInputs{
		Aspects:   []string{"unit_events", "unit_positions"},
		EnumKinds: []string{"unit_events"},
		Dequant:   map[string]float64{"unit_positions": 1000.0},
	}
	assert.Equal(t, Version(v), Version(v))
	assert.Len(t, Version(v), 16)
}

func TestVersionChangesWhenInputsChange(t *testing.T) {
	a := VersionInputs{Aspects: []string{"unit_events"}}
	b := VersionInputs{Aspects: []string{"unit_events", "unit_positions"}}
	assert.NotEqual(t, Version(a), Version(b))
}

func TestReadMissingFileReturnsCacheReadKind(t *testing.T) {
	dir := t.TempDir()
	_, err := Read(dir, "replay-1", "v1")
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.CacheRead))
}

func TestWriteThenReadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	entry := &Entry{
		Version: "v1",
		Records: map[string][]map[string]interface{}{
			"unit_events": {{"frame": int64(1)}},
		},
	}
	require.NoError(t, Write(dir, "replay-1", entry))

	got, err := Read(dir, "replay-1", "v1")
	require.NoError(t, err)
	assert.Equal(t, "v1", got.Version)
	assert.Equal(t, int64(1), got.Records["unit_events"][0]["frame"])

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp")
	}
}

func TestReadVersionMismatchReturnsCacheValidationKind(t *testing.T) {
	dir := t.TempDir()
	entry := &Entry{Version: "v1", Records: map[string][]map[string]interface{}{}}
	require.NoError(t, Write(dir, "replay-1", entry))

	_, err := Read(dir, "replay-1", "v2")
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.CacheValidation))
}

func TestWriteCreatesCacheDirIfMissing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "cache")
	entry := &Entry{Version: "v1", Records: map[string][]map[string]interface{}{}}
	require.NoError(t, Write(dir, "replay-1", entry))

	_, err := os.Stat(filepath.Join(dir, "replay-1.cache.mpk"))
	require.NoError(t, err)
}
