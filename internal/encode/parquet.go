package encode

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/anovio/tubuin/internal/errs"
	"github.com/anovio/tubuin/internal/table"
)

const parquetWriterParallelism = 4

// ParquetDirectoryEncoder writes each transformed stream to its own
// .parquet file under <out>/<replay_id>/ (spec §4.6.6, an out-of-core
// format aimed at downstream columnar analytics tooling rather than
// at this pipeline's own consumers).
type ParquetDirectoryEncoder struct{}

func (e *ParquetDirectoryEncoder) Name() string { return "ParquetDirectory" }

func (e *ParquetDirectoryEncoder) Write(order []string, streams map[string]StreamData, _ StaticAssets, outputDir, replayID string) error {
	dir := filepath.Join(outputDir, replayID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	for _, name := range order {
		sd := streams[name]
		if sd.Table.NumRows == 0 {
			continue
		}
		if err := writeParquetStream(dir, name, sd.Table); err != nil {
			return err
		}
	}
	return nil
}

func writeParquetStream(dir, name string, t *table.Table) error {
	path := filepath.Join(dir, name+".parquet")

	pfile, err := local.NewLocalFileWriter(path)
	if err != nil {
		return errs.Wrap(errs.OutputGeneration, err, fmt.Sprintf("open parquet file for stream %q", name)).WithAspect(name)
	}
	defer pfile.Close()

	schema, err := parquetJSONSchema(t)
	if err != nil {
		return errs.Wrap(errs.OutputGeneration, err, fmt.Sprintf("build parquet schema for stream %q", name)).WithAspect(name)
	}
	pw, err := writer.NewJSONWriter(schema, pfile, parquetWriterParallelism)
	if err != nil {
		return errs.Wrap(errs.OutputGeneration, err, fmt.Sprintf("create parquet writer for stream %q", name)).WithAspect(name)
	}

	cols := t.Columns()
	for row := 0; row < t.NumRows; row++ {
		record := make(map[string]interface{}, len(cols))
		for _, c := range cols {
			record[c.Name] = c.Values[row]
		}
		line, err := json.Marshal(record)
		if err != nil {
			return errs.Wrap(errs.OutputGeneration, err, fmt.Sprintf("marshal row %d for stream %q", row, name)).WithAspect(name)
		}
		if err := pw.Write(string(line)); err != nil {
			return errs.Wrap(errs.OutputGeneration, err, fmt.Sprintf("write row %d for stream %q", row, name)).WithAspect(name)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return errs.Wrap(errs.OutputGeneration, err, fmt.Sprintf("finalize parquet file for stream %q", name)).WithAspect(name)
	}
	return nil
}

type parquetField struct {
	Tag    string         `json:"Tag"`
	Fields []parquetField `json:"Fields,omitempty"`
}

type parquetSchemaDoc struct {
	Tag    string         `json:"Tag"`
	Fields []parquetField `json:"Fields"`
}

func parquetJSONSchema(t *table.Table) (string, error) {
	fields := make([]parquetField, 0, len(t.Columns()))
	for _, c := range t.Columns() {
		typ, err := parquetTypeTag(c.Dtype)
		if err != nil {
			return "", err
		}
		fields = append(fields, parquetField{
			Tag: fmt.Sprintf("name=%s, %s, repetitiontype=OPTIONAL", c.Name, typ),
		})
	}
	doc := parquetSchemaDoc{
		Tag:    "name=root, repetitiontype=REQUIRED",
		Fields: fields,
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func parquetTypeTag(d table.Dtype) (string, error) {
	switch d {
	case table.Int8, table.Int16, table.Int32:
		return "type=INT32", nil
	case table.UInt8, table.UInt16, table.UInt32:
		return "type=INT32, convertedtype=UINT_32", nil
	case table.Int64:
		return "type=INT64", nil
	case table.UInt64:
		return "type=INT64, convertedtype=UINT_64", nil
	case table.Float32:
		return "type=FLOAT", nil
	case table.Float64:
		return "type=DOUBLE", nil
	case table.BooleanDtype:
		return "type=BOOLEAN", nil
	case table.Utf8Dtype, table.Categorical:
		return "type=BYTE_ARRAY, convertedtype=UTF8", nil
	default:
		return "", fmt.Errorf("dtype %s has no parquet representation, use a different output format for this stream", d)
	}
}
