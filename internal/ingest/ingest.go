// Package ingest discovers and reads the raw per-aspect blobs and
// optional side inputs a replay directory provides (spec §4.7 step 2,
// §6 "Input file layout").
package ingest

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// UnitDef is one row of the optional defs.csv side input.
type UnitDef struct {
	ID                  int64
	Name                string
	TranslatedHumanName string
}

// Inputs is everything discovered across the set of input directories
// for one replay.
type Inputs struct {
	// AspectBlobs maps aspect name to its raw self-describing-binary
	// bytes, after last-directory-wins deduplication.
	AspectBlobs map[string][]byte
	// UnitDefs is the parsed defs.csv, if any input directory had one.
	UnitDefs []UnitDef
	// GameMeta is the raw bytes of game_meta.json, if present.
	GameMeta []byte
}

// Discover walks dirs in order, collecting *.mpk aspect blobs plus the
// optional defs.csv/game_meta.json side inputs. When the same aspect
// name appears in more than one directory, the last directory read
// wins and a warning is logged (spec §6).
func Discover(dirs []string, log *zerolog.Logger) (*Inputs, error) {
	in := &Inputs{AspectBlobs: make(map[string][]byte)}

	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("read input dir %q: %w", dir, err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			name := entry.Name()
			path := filepath.Join(dir, name)

			switch {
			case strings.EqualFold(filepath.Ext(name), ".mpk"):
				aspect := strings.TrimSuffix(name, filepath.Ext(name))
				data, err := os.ReadFile(path)
				if err != nil {
					return nil, fmt.Errorf("read aspect blob %q: %w", path, err)
				}
				if _, exists := in.AspectBlobs[aspect]; exists {
					log.Warn().Str("aspect", aspect).Str("dir", dir).Msg("duplicate aspect blob across input directories, last read wins")
				}
				in.AspectBlobs[aspect] = data

			case name == "defs.csv":
				defs, err := readUnitDefs(path)
				if err != nil {
					return nil, fmt.Errorf("read defs.csv %q: %w", path, err)
				}
				in.UnitDefs = defs

			case name == "game_meta.json":
				data, err := os.ReadFile(path)
				if err != nil {
					return nil, fmt.Errorf("read game_meta.json %q: %w", path, err)
				}
				in.GameMeta = data
			}
		}
	}
	return in, nil
}

// UnitCost is one entry of the --unit-defs side file: a unit's build
// cost, looked up by name after defs.csv/defs_map resolve a unit_def_id
// to its name (grounded on army_value_timeline.py's unit_defs_df input,
// which the distilled spec names only via the --unit-defs CLI flag
// without specifying its format).
type UnitCost struct {
	UnitName  string  `json:"unit_name"`
	MetalCost float64 `json:"metalcost"`
}

// ReadUnitCosts loads the JSON array named by --unit-defs into a
// unit_name -> metalcost map. An empty path is not an error: stats
// that need cost data simply see an empty map and treat every unit as
// free, same as the reference's fill_null(0.0) behavior.
func ReadUnitCosts(path string) (map[string]float64, error) {
	out := map[string]float64{}
	if path == "" {
		return out, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read unit defs file %q: %w", path, err)
	}
	var entries []UnitCost
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse unit defs file %q: %w", path, err)
	}
	for _, e := range entries {
		out[e.UnitName] = e.MetalCost
	}
	return out, nil
}

// readUnitDefs parses defs.csv's fixed columns id,name,translatedHumanName.
func readUnitDefs(path string) ([]UnitDef, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(bufio.NewReader(f))
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := map[string]int{}
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}
	for _, want := range []string{"id", "name", "translatedHumanName"} {
		if _, ok := cols[want]; !ok {
			return nil, fmt.Errorf("defs.csv missing required column %q", want)
		}
	}

	var out []UnitDef
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		id, convErr := strconv.ParseInt(row[cols["id"]], 10, 64)
		if convErr != nil {
			return nil, fmt.Errorf("defs.csv: bad id %q: %w", row[cols["id"]], convErr)
		}
		out = append(out, UnitDef{
			ID:                  id,
			Name:                row[cols["name"]],
			TranslatedHumanName: row[cols["translatedHumanName"]],
		})
	}
	return out, nil
}
