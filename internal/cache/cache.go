// Package cache implements the persisted intermediate-record cache
// named by spec §6 (--cache-dir): an opaque per-replay file tagged with
// a version hash of the registry's aspect names, enum kind names and
// dequantization divisors (see VersionInputs). An entry whose tag does
// not match is not served; changes outside those inputs leave the tag
// unchanged.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/anovio/tubuin/internal/errs"
)

// VersionInputs names the material the cache key is derived from: the
// registered aspect names, enum kind names, and per-aspect
// dequantization divisors, not source text (Go has no runtime access to
// its own compiled source). Edits to an aspect's field list, to enum
// member names or codes, or to the decoder or transformer code leave
// the hash unchanged, so entries written before such an edit still
// match.
type VersionInputs struct {
	Aspects   []string
	EnumKinds []string
	Dequant   map[string]float64
}

// Version returns a stable hex digest of v, used as the cache's
// format version tag.
func Version(v VersionInputs) string {
	b, _ := json.Marshal(v)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])[:16]
}

// Entry is one replay's cached intermediate state: the clean records
// (already decoded and transformed), keyed by aspect, so a re-run can
// skip straight to materialization.
type Entry struct {
	Version string
	Records map[string][]map[string]interface{}
}

func pathFor(cacheDir, replayID string) string {
	return filepath.Join(cacheDir, replayID+".cache.mpk")
}

// Read loads a cached entry for replayID, validating its version tag
// against wantVersion. Any read failure is CacheRead; a version
// mismatch is CacheValidation. Both are recoverable: callers fall back
// to fresh processing (spec §7).
func Read(cacheDir, replayID, wantVersion string) (*Entry, error) {
	path := pathFor(cacheDir, replayID)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.New(errs.CacheRead, fmt.Sprintf("no cache entry for replay %q", replayID)).WithAspect(replayID)
		}
		return nil, errs.Wrap(errs.CacheRead, err, fmt.Sprintf("read cache file for replay %q", replayID)).WithAspect(replayID)
	}

	var entry Entry
	if err := msgpack.Unmarshal(data, &entry); err != nil {
		return nil, errs.Wrap(errs.CacheRead, err, fmt.Sprintf("decode cache file for replay %q", replayID)).WithAspect(replayID)
	}
	if entry.Version != wantVersion {
		return nil, errs.New(errs.CacheValidation, fmt.Sprintf("cache version %q does not match current %q, force-reprocess", entry.Version, wantVersion)).WithAspect(replayID)
	}
	return &entry, nil
}

// Write persists entry for replayID. A write failure is CacheWrite,
// recoverable: the replay still completes, just without a cache hit
// available for its next run.
func Write(cacheDir, replayID string, entry *Entry) error {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return errs.Wrap(errs.CacheWrite, err, fmt.Sprintf("create cache dir %q", cacheDir)).WithAspect(replayID)
	}
	data, err := msgpack.Marshal(entry)
	if err != nil {
		return errs.Wrap(errs.CacheWrite, err, fmt.Sprintf("encode cache entry for replay %q", replayID)).WithAspect(replayID)
	}
	path := pathFor(cacheDir, replayID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errs.Wrap(errs.CacheWrite, err, fmt.Sprintf("write cache file for replay %q", replayID)).WithAspect(replayID)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errs.Wrap(errs.CacheWrite, err, fmt.Sprintf("finalize cache file for replay %q", replayID)).WithAspect(replayID)
	}
	return nil
}
