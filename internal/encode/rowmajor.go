package encode

import (
	"os"
	"path/filepath"

	"github.com/anovio/tubuin/internal/contract"
)

const rowMajorSchemaVersion = "7.0-row-major-mixed"

// RowMajorBundleEncoder writes a directory per replay holding one
// compressed row-major blob per row-major stream plus a schema.json
// sidecar (spec §4.6.3). Columnar streams are skipped --
// ColumnarBundleEncoder owns those.
type RowMajorBundleEncoder struct {
	Now func() string
}

func (e *RowMajorBundleEncoder) Name() string { return "RowMajorBundleZst" }

func (e *RowMajorBundleEncoder) Write(order []string, streams map[string]StreamData, assets StaticAssets, outputDir, replayID string) error {
	dir := filepath.Join(outputDir, replayID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	streamSchemas := make(map[string]interface{})

	for _, name := range order {
		sd := streams[name]
		if sd.Table.NumRows == 0 {
			continue
		}
		if sd.Meta.Table.Layout != contract.LayoutRowMajorMixed {
			continue
		}

		packed, err := PackRowMajor(sd.Table, sd.Meta.Table.NullEncoding, name)
		if err != nil {
			return err
		}
		compressed, err := zstdCompress(packed.Bytes)
		if err != nil {
			return err
		}
		filename := name + ".rows.bin.zst"
		if err := writeFileAtomic(filepath.Join(dir, filename), compressed); err != nil {
			return err
		}

		var cols []interface{}
		for _, col := range sd.Table.Columns() {
			cm := sd.Meta.Columns[col.Name]
			cols = append(cols, map[string]interface{}{
				"name":           col.Name,
				"dtype":          col.Dtype.String(),
				"original_dtype": cm.OriginalDtype,
				"transform":      transformInfo(cm),
				"null_encoding":  sd.Meta.Table.NullEncoding,
			})
		}

		streamSchemas[name] = map[string]interface{}{
			"num_rows":        sd.Table.NumRows,
			"byte_size":       len(compressed),
			"row_byte_stride": packed.RowByteStride,
			"file":            filename,
			"columns":         cols,
		}
	}

	doc := map[string]interface{}{
		"replay_id":      replayID,
		"schema_version": rowMajorSchemaVersion,
		"generated_at":   resolveNow(e.Now),
		"streams":        streamSchemas,
	}
	return writeJSONFile(filepath.Join(dir, "schema.json"), doc)
}
