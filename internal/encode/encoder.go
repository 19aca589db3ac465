package encode

import (
	"fmt"

	"github.com/anovio/tubuin/internal/contract"
	"github.com/anovio/tubuin/internal/errs"
	"github.com/anovio/tubuin/internal/table"
)

// StreamData pairs a transformed table with the metadata the output
// contract engine produced for it.
type StreamData struct {
	Table *table.Table
	Meta  *contract.Metadata
}

// StaticAssets are the optional non-tabular payloads attached to a
// replay's output bundle (spec §4.6.1).
type StaticAssets struct {
	GameMeta []byte
	DefsMap  map[int64][]interface{}
}

// OutputEncoder is the shared contract every binary output variant
// implements. Streams is keyed by stream name in the deterministic
// order required by spec §5; callers MUST pass an ordered accessor
// (see orchestrator) rather than relying on Go's unordered map
// iteration when building schema output.
type OutputEncoder interface {
	Name() string
	Write(order []string, streams map[string]StreamData, assets StaticAssets, outputDir, replayID string) error
}

// Run executes enc's Write and tags any failure as OutputGeneration
// with the encoder's name -- the template-method wrapper every
// concrete strategy shares (spec §4.6: "wrap any encoder exception as
// OutputGeneration{strategy_name, cause}").
func Run(enc OutputEncoder, order []string, streams map[string]StreamData, assets StaticAssets, outputDir, replayID string) error {
	if err := enc.Write(order, streams, assets, outputDir, replayID); err != nil {
		return errs.Wrap(errs.OutputGeneration, err, fmt.Sprintf("failed to execute strategy %s", enc.Name()))
	}
	return nil
}
