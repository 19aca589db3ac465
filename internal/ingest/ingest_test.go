package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestDiscoverCollectsAspectBlobsAndSideInputs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "unit_events.mpk", "blob-a")
	writeFile(t, dir, "defs.csv", "id,name,translatedHumanName\n1,armtank,Tank\n")
	writeFile(t, dir, "game_meta.json", `{"map":"DSD"}`)

	log := zerolog.Nop()
	in, err := Discover([]string{dir}, &log)
	require.NoError(t, err)

	assert.Equal(t, []byte("blob-a"), in.AspectBlobs["unit_events"])
	assert.Equal(t, []byte(`{"map":"DSD"}`), in.GameMeta)
	require.Len(t, in.UnitDefs, 1)
	assert.Equal(t, UnitDef{ID: 1, Name: "armtank", TranslatedHumanName: "Tank"}, in.UnitDefs[0])
}

func TestDiscoverLastDirectoryWinsForDuplicateAspect(t *testing.T) {
	dir1 := t.TempDir()
	dir2 := t.TempDir()
	writeFile(t, dir1, "unit_events.mpk", "first")
	writeFile(t, dir2, "unit_events.mpk", "second")

	log := zerolog.Nop()
	in, err := Discover([]string{dir1, dir2}, &log)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), in.AspectBlobs["unit_events"])
}

func TestDiscoverMissingDirReturnsError(t *testing.T) {
	log := zerolog.Nop()
	_, err := Discover([]string{filepath.Join(t.TempDir(), "nope")}, &log)
	assert.Error(t, err)
}

func TestReadUnitCostsEmptyPathReturnsEmptyMap(t *testing.T) {
	out, err := ReadUnitCosts("")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestReadUnitCostsParsesJSONArray(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "costs.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"unit_name":"armtank","metalcost":100.5}]`), 0o644))

	out, err := ReadUnitCosts(path)
	require.NoError(t, err)
	assert.Equal(t, 100.5, out["armtank"])
}

func TestReadUnitCostsMissingFileErrors(t *testing.T) {
	_, err := ReadUnitCosts(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestReadUnitDefsMissingRequiredColumnErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "defs.csv", "id,name\n1,armtank\n")
	_, err := readUnitDefs(filepath.Join(dir, "defs.csv"))
	assert.Error(t, err)
}

func TestReadUnitDefsBadIDErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "defs.csv", "id,name,translatedHumanName\nnotanumber,armtank,Tank\n")
	_, err := readUnitDefs(filepath.Join(dir, "defs.csv"))
	assert.Error(t, err)
}
