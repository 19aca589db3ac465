package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSetsBuiltinFallbacks(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "hybrid", cfg.OutputFormat)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaultsFromTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tubuin.toml")
	body := `
output_format = "parquet"
serial = true
input_dirs = ["/data/a", "/data/b"]
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "parquet", cfg.OutputFormat)
	assert.True(t, cfg.Serial)
	assert.Equal(t, []string{"/data/a", "/data/b"}, cfg.InputDirs)
	assert.Equal(t, "info", cfg.LogLevel, "unset fields keep the built-in default")
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
