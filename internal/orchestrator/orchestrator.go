// Package orchestrator runs the seven-step per-replay pipeline named
// by spec §4.7: validate consistency, discover inputs, decode each
// aspect to a table (optionally in parallel), merge in context tables,
// compute derived stats and pass-through streams, apply the output
// contract engine per stream, then invoke the selected encoder.
package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/anovio/tubuin/internal/cache"
	"github.com/anovio/tubuin/internal/contract"
	"github.com/anovio/tubuin/internal/decode"
	"github.com/anovio/tubuin/internal/encode"
	"github.com/anovio/tubuin/internal/errs"
	"github.com/anovio/tubuin/internal/ingest"
	"github.com/anovio/tubuin/internal/schema"
	"github.com/anovio/tubuin/internal/start"
	"github.com/anovio/tubuin/internal/stats"
	"github.com/anovio/tubuin/internal/table"
	"github.com/anovio/tubuin/internal/transform"
)

// Request is one invocation of the pipeline for a single replay.
type Request struct {
	ReplayID     string
	InputDirs    []string
	CacheDir     string
	OutputDir    string
	UnitDefsPath string
	Stats        []string
	Streams      []string
	Serial       bool
	SkipOnError  bool
	DryRun       bool
}

// cacheVersion derives the cache's version tag from the registered
// schema's aspects, enum kinds, and dequantization divisors -- the
// inputs whose change would change decode/transform output (spec §7).
func cacheVersion(reg *schema.Registry) string {
	v := cache.VersionInputs{
		Aspects: reg.RecognizedAspects(),
		Dequant: make(map[string]float64),
	}
	for aspect, rule := range reg.DequantizationRules() {
		v.Dequant[aspect] = rule.Divisor
	}
	seen := make(map[string]bool)
	for _, rules := range reg.EnumRules() {
		for _, rule := range rules {
			if rule.Kind == nil || seen[rule.Kind.Kind] {
				continue
			}
			seen[rule.Kind.Kind] = true
			v.EnumKinds = append(v.EnumKinds, rule.Kind.Kind)
		}
	}
	sort.Strings(v.EnumKinds)
	return cache.Version(v)
}

// Run executes the seven-step pipeline and returns the set of
// aspect+derived tables it produced, mostly for tests; the side effect
// of interest is the encoder's written output (suppressed by DryRun).
func Run(ctx context.Context, req Request, reg *schema.Registry, statReg *stats.Registry, contracts contract.Contracts, enc encode.OutputEncoder, log *zerolog.Logger) (stats.Tables, error) {
	// Step 1: validate schema/contract consistency.
	if err := reg.ValidateConsistency(); err != nil {
		return nil, err
	}

	// Step 2: discover and read raw aspect blobs plus side inputs.
	inputs, err := ingest.Discover(req.InputDirs, log)
	if err != nil {
		return nil, errs.Wrap(errs.FileIngestion, err, "discover input files").WithAspect(req.ReplayID)
	}

	// Step 3: per-aspect decode -> transform -> materialize, optionally
	// fanned out across aspects with start.RunAll. A persisted cache
	// entry keyed by replay and schema version lets a re-run skip straight to
	// materialization (spec §7); a miss or mismatch just falls back to
	// fresh processing and refreshes the entry.
	var aspectTables map[string]*table.Table
	version := cacheVersion(reg)
	if req.CacheDir != "" {
		if entry, err := cache.Read(req.CacheDir, req.ReplayID, version); err == nil {
			aspectTables, err = rematerializeFromCache(reg, entry, log)
			if err != nil {
				log.Warn().Err(err).Str("replay_id", req.ReplayID).Msg("cache entry failed to rematerialize, reprocessing")
				aspectTables = nil
			} else {
				log.Info().Str("replay_id", req.ReplayID).Msg("served from cache")
			}
		} else {
			log.Debug().Err(err).Str("replay_id", req.ReplayID).Msg("cache miss")
		}
	}
	if aspectTables == nil {
		var records map[string][]transform.CleanRecord
		aspectTables, records, err = decodeAllAspects(ctx, reg, inputs, req.SkipOnError, req.Serial, log)
		if err != nil {
			return nil, err
		}
		if req.CacheDir != "" {
			entry := &cache.Entry{Version: version, Records: flattenRecords(records)}
			if err := cache.Write(req.CacheDir, req.ReplayID, entry); err != nil {
				log.Warn().Err(err).Str("replay_id", req.ReplayID).Msg("failed to persist cache entry")
			}
		}
	}

	// Step 4: merge in context tables under reserved names.
	unitCosts, err := ingest.ReadUnitCosts(req.UnitDefsPath)
	if err != nil {
		return nil, errs.Wrap(errs.FileIngestion, err, "read unit defs file").WithAspect(req.ReplayID)
	}
	mergeContextTables(aspectTables, inputs, unitCosts)

	// Step 5: invoke requested stats and pass-through streams.
	statReg.RegisterPassthroughAspects(reg.RecognizedAspects())
	statNames := req.Stats
	if len(statNames) == 0 {
		statNames = statReg.DefaultStats()
	}
	computedStats := statReg.Compute(statNames, stats.Tables(aspectTables), log)
	computedStreams := statReg.ComputeStreams(req.Streams, stats.Tables(aspectTables), log)

	allStreams := make(stats.Tables, len(aspectTables)+len(computedStats)+len(computedStreams))
	var order []string
	for name, t := range aspectTables {
		allStreams[name] = t
		order = append(order, name)
	}
	for name, t := range computedStats {
		allStreams[name] = t
		order = append(order, name)
	}
	for name, t := range computedStreams {
		if _, exists := allStreams[name]; exists {
			continue
		}
		allStreams[name] = t
		order = append(order, name)
	}
	sort.Strings(order)

	if req.DryRun {
		log.Info().Strs("streams", order).Msg("dry run, skipping contract engine and encoder")
		return allStreams, nil
	}

	// Step 6: run the output contract engine per stream.
	streamData := make(map[string]encode.StreamData, len(allStreams))
	for _, name := range order {
		t := allStreams[name]
		transformed, meta, err := contract.Apply(t, contracts.For(name), reg)
		if err != nil {
			return nil, errs.Wrap(errs.OutputGeneration, err, fmt.Sprintf("apply output contract for stream %q", name)).WithAspect(name)
		}
		streamData[name] = encode.StreamData{Table: transformed, Meta: meta}
	}

	// Step 7: invoke the selected output encoder.
	assets := encode.StaticAssets{GameMeta: inputs.GameMeta}
	if err := encode.Run(enc, order, streamData, assets, req.OutputDir, req.ReplayID); err != nil {
		return nil, err
	}
	return allStreams, nil
}

func decodeAllAspects(ctx context.Context, reg *schema.Registry, inputs *ingest.Inputs, skipOnError, serial bool, log *zerolog.Logger) (map[string]*table.Table, map[string][]transform.CleanRecord, error) {
	results := make(map[string]*table.Table, len(inputs.AspectBlobs))
	records := make(map[string][]transform.CleanRecord, len(inputs.AspectBlobs))
	var mu sync.Mutex

	process := func(aspect string, raw []byte) error {
		t, recs, err := decodeOneAspect(reg, aspect, raw, skipOnError, log)
		if err != nil {
			return err
		}
		mu.Lock()
		results[aspect] = t
		records[aspect] = recs
		mu.Unlock()
		return nil
	}

	if serial {
		for aspect, raw := range inputs.AspectBlobs {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
			if err := process(aspect, raw); err != nil {
				return nil, nil, err
			}
		}
		return results, records, nil
	}

	runs := make([]func(ctx context.Context) error, 0, len(inputs.AspectBlobs))
	for aspect, raw := range inputs.AspectBlobs {
		aspect, raw := aspect, raw
		runs = append(runs, func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return process(aspect, raw)
		})
	}
	if err := start.RunAll(ctx, runs...); err != nil {
		return nil, nil, err
	}
	return results, records, nil
}

// flattenRecords converts the transformer's typed CleanRecord maps into
// the plain map[string]interface{} shape the cache serializes.
func flattenRecords(records map[string][]transform.CleanRecord) map[string][]map[string]interface{} {
	out := make(map[string][]map[string]interface{}, len(records))
	for aspect, recs := range records {
		flat := make([]map[string]interface{}, len(recs))
		for i, r := range recs {
			flat[i] = map[string]interface{}(r)
		}
		out[aspect] = flat
	}
	return out
}

// rematerializeFromCache rebuilds aspect tables directly from a cache
// entry's already-decoded-and-transformed records, skipping decode and
// transform entirely.
func rematerializeFromCache(reg *schema.Registry, entry *cache.Entry, log *zerolog.Logger) (map[string]*table.Table, error) {
	results := make(map[string]*table.Table, len(entry.Records))
	for aspect, flat := range entry.Records {
		recs := make([]transform.CleanRecord, len(flat))
		for i, r := range flat {
			recs[i] = transform.CleanRecord(r)
		}
		t, err := table.Materialize(reg, aspect, recs, log)
		if err != nil {
			return nil, err
		}
		results[aspect] = t
	}
	return results, nil
}

func decodeOneAspect(reg *schema.Registry, aspect string, raw []byte, skipOnError bool, log *zerolog.Logger) (*table.Table, []transform.CleanRecord, error) {
	dec, ok := decode.NewDecoder(reg, aspect, raw, skipOnError, log)
	if !ok {
		return table.New(aspect), nil, nil
	}
	tr, ok := transform.NewTransformer(reg, aspect, log)
	if !ok {
		return table.New(aspect), nil, nil
	}

	var records []transform.CleanRecord
	rowIndex := 0
	for {
		rec, more, err := dec.Next()
		if err != nil {
			return nil, nil, err
		}
		if !more {
			break
		}
		clean, err := tr.Transform(rec, rowIndex)
		if err != nil {
			// Transformation errors are always fatal for the replay,
			// skip_on_error or not: a broken contract must be fixed,
			// not silently skipped (spec §7).
			return nil, nil, err
		}
		records = append(records, clean)
		rowIndex++
	}

	t, err := table.Materialize(reg, aspect, records, log)
	if err != nil {
		return nil, nil, err
	}
	return t, records, nil
}

// mergeContextTables attaches the optional defs.csv and static
// game_meta side inputs as reserved-name tables so derived-stat
// functions (army_value_timeline's defs_map/unit_defs lookups) can
// consume them the same way they consume a decoded aspect (spec §4.7
// step 4).
func mergeContextTables(into map[string]*table.Table, inputs *ingest.Inputs, unitCosts map[string]float64) {
	if len(inputs.UnitDefs) == 0 {
		return
	}
	defsMap := table.New("defs_map")
	unitDefs := table.New("unit_defs")

	defIDs := make([]interface{}, len(inputs.UnitDefs))
	names := make([]interface{}, len(inputs.UnitDefs))
	humanNames := make([]interface{}, len(inputs.UnitDefs))
	costs := make([]interface{}, len(inputs.UnitDefs))

	for i, d := range inputs.UnitDefs {
		defIDs[i] = d.ID
		names[i] = d.Name
		humanNames[i] = d.TranslatedHumanName
		costs[i] = unitCosts[d.Name]
	}

	defsMap.AddColumn(&table.Column{Name: "unit_def_id", Dtype: table.Int64, Values: defIDs})
	defsMap.AddColumn(&table.Column{Name: "unit_name", Dtype: table.Utf8Dtype, Values: names})

	unitDefs.AddColumn(&table.Column{Name: "unit_name", Dtype: table.Utf8Dtype, Values: names})
	unitDefs.AddColumn(&table.Column{Name: "translated_human_name", Dtype: table.Utf8Dtype, Values: humanNames})
	unitDefs.AddColumn(&table.Column{Name: "metalcost", Dtype: table.Float64, Values: costs})

	into["defs_map"] = defsMap
	into["unit_defs"] = unitDefs
}
