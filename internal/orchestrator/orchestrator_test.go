package orchestrator

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/anovio/tubuin/internal/contract"
	"github.com/anovio/tubuin/internal/schema"
	"github.com/anovio/tubuin/internal/stats"
)

func writeAspectBlob(t *testing.T, dir, aspect string, rows [][]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	for _, row := range rows {
		require.NoError(t, enc.Encode(row))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, aspect+".mpk"), buf.Bytes(), 0o644))
}

func goodUnitPositionsRow(t *testing.T, reg *schema.Registry) []interface{} {
	t.Helper()
	raw, ok := reg.RawSchemaFor(schema.AspectUnitPositions)
	require.True(t, ok)
	row := make([]interface{}, raw.Arity())
	for i := range row {
		row[i] = int64(1)
	}
	return row
}

func TestRunDryRunProducesAspectTableWithoutEncoding(t *testing.T) {
	dir := t.TempDir()
	reg := schema.NewRegistry()
	writeAspectBlob(t, dir, string(schema.AspectUnitPositions), [][]interface{}{goodUnitPositionsRow(t, reg)})

	log := zerolog.Nop()
	statReg := stats.NewRegistry()
	contracts := contract.DefaultContracts()

	req := Request{
		ReplayID:  "replay-1",
		InputDirs: []string{dir},
		DryRun:    true,
	}
	out, err := Run(context.Background(), req, reg, statReg, contracts, nil, &log)
	require.NoError(t, err)

	require.Contains(t, out, string(schema.AspectUnitPositions))
	assert.Equal(t, 1, out[string(schema.AspectUnitPositions)].NumRows)
}

func TestRunUnknownInputDirReturnsFileIngestionError(t *testing.T) {
	reg := schema.NewRegistry()
	log := zerolog.Nop()
	statReg := stats.NewRegistry()
	contracts := contract.DefaultContracts()

	req := Request{
		ReplayID:  "replay-1",
		InputDirs: []string{filepath.Join(t.TempDir(), "nope")},
		DryRun:    true,
	}
	_, err := Run(context.Background(), req, reg, statReg, contracts, nil, &log)
	assert.Error(t, err)
}

func TestRunPersistsAndServesFromCache(t *testing.T) {
	inputDir := t.TempDir()
	cacheDir := t.TempDir()
	reg := schema.NewRegistry()
	writeAspectBlob(t, inputDir, string(schema.AspectUnitPositions), [][]interface{}{goodUnitPositionsRow(t, reg)})

	log := zerolog.Nop()
	statReg := stats.NewRegistry()
	contracts := contract.DefaultContracts()

	req := Request{
		ReplayID:  "replay-1",
		InputDirs: []string{inputDir},
		CacheDir:  cacheDir,
		DryRun:    true,
	}

	out1, err := Run(context.Background(), req, reg, statReg, contracts, nil, &log)
	require.NoError(t, err)
	require.Contains(t, out1, string(schema.AspectUnitPositions))

	entries, err := os.ReadDir(cacheDir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "a cache entry should have been written on first run")

	// Second run with the same inputs should rematerialize straight from
	// the cache entry rather than re-decoding; removing the input file
	// first proves the decode path wasn't taken.
	require.NoError(t, os.Remove(filepath.Join(inputDir, string(schema.AspectUnitPositions)+".mpk")))

	out2, err := Run(context.Background(), req, reg, statReg, contracts, nil, &log)
	require.NoError(t, err)
	require.Contains(t, out2, string(schema.AspectUnitPositions))
	assert.Equal(t, 1, out2[string(schema.AspectUnitPositions)].NumRows)
}

func TestRunTransformationErrorIsFatalEvenWithSkipOnError(t *testing.T) {
	dir := t.TempDir()
	reg := schema.NewRegistry()
	// A one-field row: the decoder pads the missing fields with nulls and
	// accepts it, so the failure comes from the transformer's clean-schema
	// check on the required unit_id field.
	row := []interface{}{int64(1)}
	writeAspectBlob(t, dir, string(schema.AspectUnitPositions), [][]interface{}{row})

	log := zerolog.Nop()
	statReg := stats.NewRegistry()
	contracts := contract.DefaultContracts()

	req := Request{
		ReplayID:    "replay-1",
		InputDirs:   []string{dir},
		SkipOnError: true,
		DryRun:      true,
	}
	_, err := Run(context.Background(), req, reg, statReg, contracts, nil, &log)
	assert.Error(t, err, "a transformation failure must abort the replay even when skip_on_error is set")
}
