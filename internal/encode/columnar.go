package encode

import (
	"os"
	"path/filepath"

	"github.com/anovio/tubuin/internal/contract"
)

const columnarSchemaVersion = "6.0-columnar"

// ColumnarBundleEncoder writes a directory per replay holding one
// compressed blob per column data/offsets key plus a schema.json
// sidecar (spec §4.6.2). Streams whose layout is row-major-mixed are
// skipped -- RowMajorBundleEncoder owns those.
type ColumnarBundleEncoder struct {
	Now func() string
}

func (e *ColumnarBundleEncoder) Name() string { return "ColumnarBundleZst" }

func (e *ColumnarBundleEncoder) Write(order []string, streams map[string]StreamData, assets StaticAssets, outputDir, replayID string) error {
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
		layout := sd.Meta.Table.Layout
		if layout == contract.LayoutRowMajorMixed {
			continue
		}

		var cols []interface{}
		byteSize := 0
		for _, col := range sd.Table.Columns() {
			null := sd.Meta.ResolveNullEncoding(col.Name)
			blobs, desc, err := EncodeColumn(col, name, null)
			if err != nil {
				return err
			}
			files := make(map[string]string, len(blobs))
			for key, data := range blobs {
				compressed, err := zstdCompress(data)
				if err != nil {
					return err
				}
				filename := name + "." + key + ".bin.zst"
				if err := writeFileAtomic(filepath.Join(dir, filename), compressed); err != nil {
					return err
				}
				files[key] = filename
				byteSize += len(compressed)
			}
			cols = append(cols, columnarEntry(desc, sd.Meta.Columns[col.Name], files))
		}

		streamSchemas[name] = map[string]interface{}{
			"num_rows":  sd.Table.NumRows,
			"byte_size": byteSize,
			"columns":   cols,
		}
	}

	if assets.GameMeta != nil {
		compressed, err := zstdCompress(assets.GameMeta)
		if err != nil {
			return err
		}
		if err := writeFileAtomic(filepath.Join(dir, "game_meta.bin.zst"), compressed); err != nil {
			return err
		}
	}

	doc := map[string]interface{}{
		"replay_id":      replayID,
		"schema_version": columnarSchemaVersion,
		"generated_at":   resolveNow(e.Now),
		"streams":        streamSchemas,
	}
	return writeJSONFile(filepath.Join(dir, "schema.json"), doc)
}

// columnarEntry builds the JSON schema entry for one column, keyed
// per-blob so a column that produces more than one file (Utf8's
// offsets+data, for instance) gets a distinct file reference for
// each key rather than a single overwritten "file" field.
func columnarEntry(d ColumnDescriptor, cm contract.ColumnMeta, files map[string]string) map[string]interface{} {
	entry := map[string]interface{}{
		"name":           d.Name,
		"dtype":          d.Dtype,
		"original_dtype": cm.OriginalDtype,
		"transform":      transformInfo(cm),
	}
	if d.DataKey != "" {
		entry["data_key"] = d.DataKey
		entry["file"] = files[d.DataKey]
	}
	if d.OffsetsKey != "" {
		entry["offsets_key"] = d.OffsetsKey
		entry["offsets_file"] = files[d.OffsetsKey]
	}
	if d.ListOffsetsKey != "" {
		entry["list_offsets_key"] = d.ListOffsetsKey
		entry["list_offsets_file"] = files[d.ListOffsetsKey]
	}
	if d.SerializationMethod != "" {
		entry["serialization_method"] = d.SerializationMethod
	}
	if len(d.StructFields) > 0 {
		sub := make([]interface{}, len(d.StructFields))
		for i, f := range d.StructFields {
			sub[i] = columnarEntry(f, contract.ColumnMeta{}, files)
		}
		entry["struct_fields"] = sub
	}
	return entry
}
