// Package config loads the optional TOML defaults file named by
// spec.md §6's [EXPANSION] CLI section. Command-line flags always take
// precedence; a config file only supplies values the user didn't pass
// on the command line (adapted from the teacher's flag-only
// service/config.Run, which validated a bare --config directory and
// did nothing else).
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config mirrors the run subcommand's flag set so a TOML file can
// supply defaults for any of them.
type Config struct {
	InputDirs    []string `toml:"input_dirs"`
	CacheDir     string   `toml:"cache_dir"`
	OutputDir    string   `toml:"output_dir"`
	OutputFormat string   `toml:"output_format"`
	Stats        []string `toml:"stats"`
	Streams      []string `toml:"streams"`
	Serial       bool     `toml:"serial"`
	SkipOnError  bool     `toml:"skip_on_error"`
	LogLevel     string   `toml:"log_level"`
	DryRun       bool     `toml:"dry_run"`
	UnitDefsPath string   `toml:"unit_defs"`
}

// Default returns the built-in defaults used when neither a config
// file nor a flag supplies a value.
func Default() Config {
	return Config{
		OutputFormat: "hybrid",
		LogLevel:     "info",
	}
}

// Load parses a TOML file at path into a Config seeded with defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file %q: %w", path, err)
	}
	return cfg, nil
}
