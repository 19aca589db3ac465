package encode

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveNowUsesInjectedClock(t *testing.T) {
	assert.Equal(t, "frozen", resolveNow(func() string { return "frozen" }))
	assert.NotEmpty(t, resolveNow(nil))
}

func TestZstdCompressRoundTrips(t *testing.T) {
	orig := []byte("hello hello hello hello hello")
	compressed, err := zstdCompress(orig)
	require.NoError(t, err)

	dec, err := zstd.NewReader(nil)
	require.NoError(t, err)
	defer dec.Close()
	out, err := dec.DecodeAll(compressed, nil)
	require.NoError(t, err)
	assert.Equal(t, orig, out)
}

func TestWriteFileAtomicLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.bin")
	require.NoError(t, writeFileAtomic(path, []byte("payload")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no leftover temp file should remain")
}

func TestWriteJSONFileProducesValidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schema.json")
	require.NoError(t, writeJSONFile(path, map[string]int{"a": 1}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"a": 1`)
}
