package encode

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/anovio/tubuin/internal/errs"
)

// JSONLinesGzipEncoder writes each transformed stream to its own
// <stream>.jsonl.gz file, one JSON object per row (spec §4.6.7,
// grounded on the reference's JsonLinesGzipStrategy).
type JSONLinesGzipEncoder struct{}

func (e *JSONLinesGzipEncoder) Name() string { return "JsonLinesGzip" }

func (e *JSONLinesGzipEncoder) Write(order []string, streams map[string]StreamData, _ StaticAssets, outputDir, replayID string) error {
	dir := filepath.Join(outputDir, replayID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	for _, name := range order {
		sd := streams[name]
		if sd.Table.NumRows == 0 {
			continue
		}

		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		enc := json.NewEncoder(gz)

		cols := sd.Table.Columns()
		for row := 0; row < sd.Table.NumRows; row++ {
			record := make(map[string]interface{}, len(cols))
			for _, c := range cols {
				record[c.Name] = c.Values[row]
			}
			if err := enc.Encode(record); err != nil {
				gz.Close()
				return errs.Wrap(errs.OutputGeneration, err, fmt.Sprintf("encode row %d for stream %q", row, name)).WithAspect(name)
			}
		}
		if err := gz.Close(); err != nil {
			return errs.Wrap(errs.OutputGeneration, err, fmt.Sprintf("finalize gzip for stream %q", name)).WithAspect(name)
		}
		path := filepath.Join(dir, name+".jsonl.gz")
		if err := writeFileAtomic(path, buf.Bytes()); err != nil {
			return err
		}
	}
	return nil
}
