package encode

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/anovio/tubuin/internal/errs"
)

// LegacyMessagePackGzipEncoder writes a single gzipped MessagePack
// file in the pre-contract-engine wire shape: a flat map of stream
// name to a list of row dicts, with no column metadata attached
// (spec §4.6.8, grounded on the reference's MessagePackGzipStrategy;
// kept for consumers that never migrated off the original format).
type LegacyMessagePackGzipEncoder struct{}

func (e *LegacyMessagePackGzipEncoder) Name() string { return "MessagePackGzip" }

func (e *LegacyMessagePackGzipEncoder) Write(order []string, streams map[string]StreamData, _ StaticAssets, outputDir, replayID string) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return err
	}

	payload := make(map[string]interface{}, len(order))
	for _, name := range order {
		sd := streams[name]
		cols := sd.Table.Columns()
		rows := make([]map[string]interface{}, sd.Table.NumRows)
		for row := 0; row < sd.Table.NumRows; row++ {
			record := make(map[string]interface{}, len(cols))
			for _, c := range cols {
				record[c.Name] = c.Values[row]
			}
			rows[row] = record
		}
		payload[name] = rows
	}

	master := map[string]interface{}{
		"replay_id": replayID,
		"data":      payload,
	}
	packed, err := msgpack.Marshal(master)
	if err != nil {
		return errs.Wrap(errs.OutputGeneration, err, "marshal legacy payload")
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(packed); err != nil {
		gz.Close()
		return errs.Wrap(errs.OutputGeneration, err, "gzip legacy payload")
	}
	if err := gz.Close(); err != nil {
		return errs.Wrap(errs.OutputGeneration, err, "finalize legacy gzip")
	}

	path := filepath.Join(outputDir, fmt.Sprintf("%s_master.mpk.gz", replayID))
	return writeFileAtomic(path, buf.Bytes())
}
