package encode

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/anovio/tubuin/internal/contract"
)

const hybridSchemaVersion = "8.2-hybrid-mpk"

// HybridEncoder writes a single self-contained <replay_id>.mpk.zst
// bundle holding every stream's schema and data (spec §4.6.1).
type HybridEncoder struct {
	// Now supplies the generated_at timestamp; nil uses the wall clock.
	Now func() string
}

func (e *HybridEncoder) Name() string { return "HybridMessagePackZst" }

func (e *HybridEncoder) Write(order []string, streams map[string]StreamData, assets StaticAssets, outputDir, replayID string) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return err
	}

	streamSchemas := make(map[string]interface{})
	dataPayloads := make(map[string]interface{})

	for _, name := range order {
		sd := streams[name]
		if sd.Table.NumRows == 0 {
			continue
		}
		layout := sd.Meta.Table.Layout
		if layout == "" {
			layout = contract.LayoutColumnar
		}
		var (
			desc  map[string]interface{}
			blobs map[string][]byte
			err   error
		)
		if layout == contract.LayoutRowMajorMixed {
			desc, blobs, err = e.buildRowMajor(name, sd)
		} else {
			desc, blobs, err = e.buildColumnar(name, sd)
		}
		if err != nil {
			return err
		}
		streamSchemas[name] = desc
		dataPayloads[name] = blobs
	}

	var staticAssetNames []string
	if assets.GameMeta != nil {
		dataPayloads["game_meta"] = map[string][]byte{"default": assets.GameMeta}
		staticAssetNames = append(staticAssetNames, "game_meta")
	}
	if assets.DefsMap != nil {
		packed, err := msgpack.Marshal(assets.DefsMap)
		if err != nil {
			return fmt.Errorf("pack defs_map: %w", err)
		}
		dataPayloads["defs_map"] = map[string][]byte{"default": packed}
		staticAssetNames = append(staticAssetNames, "defs_map")
	}
	if staticAssetNames == nil {
		staticAssetNames = []string{}
	}

	master := map[string]interface{}{
		"schema": map[string]interface{}{
			"replay_id":      replayID,
			"schema_version": hybridSchemaVersion,
			"generated_at":   resolveNow(e.Now),
			"static_assets":  staticAssetNames,
			"streams":        streamSchemas,
		},
		"data": dataPayloads,
	}

	packed, err := msgpack.Marshal(master)
	if err != nil {
		return fmt.Errorf("marshal hybrid payload: %w", err)
	}
	compressed, err := zstdCompress(packed)
	if err != nil {
		return err
	}
	return writeFileAtomic(filepath.Join(outputDir, replayID+".mpk.zst"), compressed)
}

func (e *HybridEncoder) buildColumnar(name string, sd StreamData) (map[string]interface{}, map[string][]byte, error) {
	blobs := map[string][]byte{}
	byteSize := 0
	var cols []interface{}
	for _, col := range sd.Table.Columns() {
		null := sd.Meta.ResolveNullEncoding(col.Name)
		b, desc, err := EncodeColumn(col, name, null)
		if err != nil {
			return nil, nil, err
		}
		for k, v := range b {
			blobs[k] = v
			byteSize += len(v)
		}
		cols = append(cols, hybridColumnEntry(desc, sd.Meta.Columns[col.Name]))
	}
	desc := map[string]interface{}{
		"layout":    contract.LayoutColumnar,
		"byte_size": byteSize,
		"num_rows":  sd.Table.NumRows,
		"columns":   cols,
	}
	return desc, blobs, nil
}

func (e *HybridEncoder) buildRowMajor(name string, sd StreamData) (map[string]interface{}, map[string][]byte, error) {
	packed, err := PackRowMajor(sd.Table, sd.Meta.Table.NullEncoding, name)
	if err != nil {
		return nil, nil, err
	}
	var cols []interface{}
	for _, col := range sd.Table.Columns() {
		cm := sd.Meta.Columns[col.Name]
		cols = append(cols, map[string]interface{}{
			"name":           col.Name,
			"dtype":          col.Dtype.String(),
			"data_key":       name,
			"original_dtype": cm.OriginalDtype,
			"transform":      transformInfo(cm),
		})
	}
	desc := map[string]interface{}{
		"layout":          contract.LayoutRowMajorMixed,
		"byte_size":       len(packed.Bytes),
		"num_rows":        sd.Table.NumRows,
		"row_byte_stride": packed.RowByteStride,
		"data_key":        name,
		"columns":         cols,
	}
	return desc, map[string][]byte{name: packed.Bytes}, nil
}

// transformInfo mirrors a column's recorded transform metadata as the
// small struct the hybrid schema embeds alongside each column entry.
func transformInfo(cm contract.ColumnMeta) map[string]interface{} {
	info := map[string]interface{}{"transform": cm.Transform}
	if cm.Scale != 0 {
		info["scale"] = cm.Scale
	}
	if cm.EnumMap != nil {
		info["enum_map"] = cm.EnumMap
	}
	return info
}

func hybridColumnEntry(d ColumnDescriptor, cm contract.ColumnMeta) map[string]interface{} {
	entry := map[string]interface{}{
		"name":           d.Name,
		"dtype":          d.Dtype,
		"original_dtype": cm.OriginalDtype,
		"transform":      transformInfo(cm),
	}
	if d.DataKey != "" {
		entry["data_key"] = d.DataKey
	}
	if d.OffsetsKey != "" {
		entry["offsets_key"] = d.OffsetsKey
	}
	if d.ListOffsetsKey != "" {
		entry["list_offsets_key"] = d.ListOffsetsKey
	}
	if d.SerializationMethod != "" {
		entry["serialization_method"] = d.SerializationMethod
	}
	if len(d.StructFields) > 0 {
		sub := make([]interface{}, len(d.StructFields))
		for i, f := range d.StructFields {
			sub[i] = hybridColumnEntry(f, contract.ColumnMeta{})
		}
		entry["struct_fields"] = sub
	}
	return entry
}
