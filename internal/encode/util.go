package encode

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
)

// resolveNow returns now() if provided, otherwise the current UTC
// time in RFC3339. Encoders accept an injectable clock so tests can
// assert byte-identical output modulo generated_at (spec §8
// invariant 8).
func resolveNow(now func() string) string {
	if now != nil {
		return now()
	}
	return time.Now().UTC().Format(time.RFC3339)
}

func zstdCompress(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil), nil
}

// writeFileAtomic writes data to a temp file in the destination
// directory and renames it into place, so a failed or concurrent
// write never leaves a partially-written output file visible.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

func writeJSONFile(path string, doc interface{}) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data)
}
