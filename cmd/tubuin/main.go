// Command tubuin decodes, transforms, and encodes per-replay binary
// telemetry according to the registered schema, output contract, and
// statistics registries (spec §6).
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/anovio/tubuin/internal/config"
	"github.com/anovio/tubuin/internal/contract"
	"github.com/anovio/tubuin/internal/encode"
	"github.com/anovio/tubuin/internal/orchestrator"
	"github.com/anovio/tubuin/internal/schema"
	"github.com/anovio/tubuin/internal/start"
	"github.com/anovio/tubuin/internal/stats"
)

var cfg = config.Default()
var configPath string

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "tubuin",
		Short: "Decode, transform, and encode replay telemetry streams",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "optional TOML file supplying flag defaults")
	root.AddCommand(newRunCommand(), newListAspectsCommand(), newListStatsCommand(), newListStreamsCommand())
	return root
}

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <replay_id>",
		Short: "Run the full decode/transform/encode pipeline for one replay",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(configPath)
			if err != nil {
				return err
			}
			mergeFlagsOverConfig(cmd, &loaded)

			log := newLogger(loaded.LogLevel)
			return start.Start(context.Background(), 5*time.Second, func(ctx context.Context) error {
				return runPipeline(ctx, args[0], loaded, &log)
			})
		},
	}
	bindRunFlags(cmd)
	return cmd
}

func bindRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&cfg.InputDirs, "input-dir", nil, "input directory (repeatable)")
	cmd.Flags().StringVar(&cfg.CacheDir, "cache-dir", "", "intermediate cache directory")
	cmd.Flags().StringVar(&cfg.OutputDir, "output-dir", "", "output directory")
	cmd.Flags().StringVar(&cfg.OutputFormat, "output-format", "hybrid", "hybrid|columnar|row-major|parquet|jsonl|legacy")
	cmd.Flags().StringArrayVar(&cfg.Stats, "stat", nil, "statistic to compute (repeatable, default: all default-enabled)")
	cmd.Flags().StringArrayVar(&cfg.Streams, "stream", nil, "detailed pass-through stream to emit (repeatable)")
	cmd.Flags().BoolVar(&cfg.Serial, "serial", false, "disable per-aspect parallel fan-out")
	cmd.Flags().BoolVar(&cfg.SkipOnError, "skip-on-error", false, "drop invalid rows instead of failing the replay")
	cmd.Flags().StringVar(&cfg.LogLevel, "log-level", "info", "trace|debug|info|warn|error")
	cmd.Flags().BoolVar(&cfg.DryRun, "dry-run", false, "run decode/transform/stats but skip the encoder")
	cmd.Flags().StringVar(&cfg.UnitDefsPath, "unit-defs", "", "path to a JSON unit cost table")
}

// mergeFlagsOverConfig applies cobra's parsed flags on top of the
// loaded config file, flag values winning whenever the flag was
// explicitly set on the command line (spec's CLI > config > default
// precedence).
func mergeFlagsOverConfig(cmd *cobra.Command, loaded *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("input-dir") {
		loaded.InputDirs = cfg.InputDirs
	}
	if flags.Changed("cache-dir") {
		loaded.CacheDir = cfg.CacheDir
	}
	if flags.Changed("output-dir") {
		loaded.OutputDir = cfg.OutputDir
	}
	if flags.Changed("output-format") {
		loaded.OutputFormat = cfg.OutputFormat
	}
	if flags.Changed("stat") {
		loaded.Stats = cfg.Stats
	}
	if flags.Changed("stream") {
		loaded.Streams = cfg.Streams
	}
	if flags.Changed("serial") {
		loaded.Serial = cfg.Serial
	}
	if flags.Changed("skip-on-error") {
		loaded.SkipOnError = cfg.SkipOnError
	}
	if flags.Changed("log-level") {
		loaded.LogLevel = cfg.LogLevel
	}
	if flags.Changed("dry-run") {
		loaded.DryRun = cfg.DryRun
	}
	if flags.Changed("unit-defs") {
		loaded.UnitDefsPath = cfg.UnitDefsPath
	}
}

func runPipeline(ctx context.Context, replayID string, loaded config.Config, log *zerolog.Logger) error {
	reg := schema.NewRegistry()
	statReg := stats.NewRegistry()
	contracts := contract.DefaultContracts()

	enc, err := encoderFor(loaded.OutputFormat)
	if err != nil {
		return err
	}

	req := orchestrator.Request{
		ReplayID:     replayID,
		InputDirs:    loaded.InputDirs,
		CacheDir:     loaded.CacheDir,
		OutputDir:    loaded.OutputDir,
		UnitDefsPath: loaded.UnitDefsPath,
		Stats:        loaded.Stats,
		Streams:      loaded.Streams,
		Serial:       loaded.Serial,
		SkipOnError:  loaded.SkipOnError,
		DryRun:       loaded.DryRun,
	}

	_, err = orchestrator.Run(ctx, req, reg, statReg, contracts, enc, log)
	if err != nil {
		log.Error().Err(err).Str("replay_id", replayID).Msg("pipeline failed")
		return err
	}
	return nil
}

func encoderFor(format string) (encode.OutputEncoder, error) {
	switch format {
	case "", "hybrid":
		return &encode.HybridEncoder{}, nil
	case "columnar":
		return &encode.ColumnarBundleEncoder{}, nil
	case "row-major":
		return &encode.RowMajorBundleEncoder{}, nil
	case "parquet":
		return &encode.ParquetDirectoryEncoder{}, nil
	case "jsonl":
		return &encode.JSONLinesGzipEncoder{}, nil
	case "legacy":
		return &encode.LegacyMessagePackGzipEncoder{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

func newListAspectsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list-aspects",
		Short: "List every recognized aspect name",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := schema.NewRegistry()
			for _, a := range reg.RecognizedAspects() {
				fmt.Println(a)
			}
			return nil
		},
	}
}

func newListStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list-stats",
		Short: "List every registered derived statistic",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range stats.NewRegistry().StatNames() {
				fmt.Println(name)
			}
			return nil
		},
	}
}

func newListStreamsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list-streams",
		Short: "List every registered detailed pass-through stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := schema.NewRegistry()
			statReg := stats.NewRegistry()
			statReg.RegisterPassthroughAspects(reg.RecognizedAspects())
			for _, name := range statReg.StreamNames() {
				fmt.Println(name)
			}
			return nil
		},
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(lvl).
		With().Timestamp().Logger()
}
