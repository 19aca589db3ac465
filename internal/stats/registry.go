// Package stats defines the derived-statistic registry and invocation
// contract (spec §4.4 / §5). A statistic is a pure function over the
// full set of materialized aspect tables; the registry only knows how
// to look one up and run it. Individual statistics are plugged in by
// registering a Func under a name -- this package ships a couple of
// reference implementations (army value timeline, the raw pass-through
// streams) but the set is meant to grow without touching the
// orchestrator.
package stats

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/anovio/tubuin/internal/errs"
	"github.com/anovio/tubuin/internal/table"
)

// Tables maps an aspect or previously-computed stream name to its
// materialized table.
type Tables map[string]*table.Table

// Func computes one derived table from the full set of aspect tables.
// A nil result (or a table with zero rows) means the statistic had
// nothing to contribute for this replay and is dropped, not an error.
type Func func(in Tables) (*table.Table, error)

// Registered is one entry in the registry.
type Registered struct {
	Func           Func
	Description    string
	DefaultEnabled bool
}

// Registry holds every known derived statistic and detailed
// pass-through stream, keyed by name.
type Registry struct {
	stats   map[string]Registered
	streams map[string]Func
}

// NewRegistry builds the registry with the statistics and streams this
// package ships. Callers needing additional statistics can still reach
// in and call Register/RegisterStream before running the pipeline.
func NewRegistry() *Registry {
	r := &Registry{stats: make(map[string]Registered), streams: make(map[string]Func)}
	r.Register("army_value_timeline", Registered{
		Func:           ArmyValueTimeline,
		Description:    "Total army value per team at fixed time intervals.",
		DefaultEnabled: true,
	})
	r.RegisterStream("command_log", DetailedCommandLog)
	return r
}

// Register adds or replaces a named statistic.
func (r *Registry) Register(name string, def Registered) {
	r.stats[name] = def
}

// RegisterStream adds or replaces a named detailed pass-through stream.
func (r *Registry) RegisterStream(name string, fn Func) {
	r.streams[name] = fn
}

// RegisterPassthroughAspects adds a pass-through stream for every
// aspect name recognized by the schema registry that does not already
// have a custom stream registered, mirroring the reference
// implementation's "register a passthrough for every known clean
// aspect" behavior.
func (r *Registry) RegisterPassthroughAspects(aspects []string) {
	for _, aspect := range aspects {
		if _, exists := r.streams[aspect]; exists {
			continue
		}
		name := aspect
		r.streams[name] = func(in Tables) (*table.Table, error) {
			t, ok := in[name]
			if !ok {
				return nil, nil
			}
			return t, nil
		}
	}
}

// DefaultStats returns the names of every statistic marked
// DefaultEnabled, used when the caller requests no explicit --stat
// flags (spec §4.4).
func (r *Registry) DefaultStats() []string {
	var names []string
	for name, def := range r.stats {
		if def.DefaultEnabled {
			names = append(names, name)
		}
	}
	return names
}

// StatNames returns every registered statistic name, regardless of
// DefaultEnabled, for the CLI's list-stats command.
func (r *Registry) StatNames() []string {
	names := make([]string, 0, len(r.stats))
	for name := range r.stats {
		names = append(names, name)
	}
	return names
}

// StreamNames returns every registered detailed pass-through stream
// name, for the CLI's list-streams command.
func (r *Registry) StreamNames() []string {
	names := make([]string, 0, len(r.streams))
	for name := range r.streams {
		names = append(names, name)
	}
	return names
}

// Compute runs the requested statistics against in, logging and
// dropping (not failing) any statistic whose function errors or
// produces an empty table -- a single bad statistic must never abort
// the replay (spec §4.4, §7 Aggregation recovery policy).
func (r *Registry) Compute(names []string, in Tables, log *zerolog.Logger) map[string]*table.Table {
	out := make(map[string]*table.Table)
	for _, name := range names {
		def, ok := r.stats[name]
		if !ok {
			log.Warn().Str("stat", name).Msg("requested stat is not registered, skipping")
			continue
		}
		result, err := def.Func(in)
		if err != nil {
			wrapped := errs.Wrap(errs.Aggregation, err, fmt.Sprintf("stat %q failed", name)).WithAspect(name)
			log.Error().Err(wrapped).Msg("stat computation failed")
			continue
		}
		if result == nil || result.NumRows == 0 {
			log.Warn().Str("stat", name).Msg("stat produced an empty table")
			continue
		}
		out[name] = result
	}
	return out
}

// ComputeStreams runs the requested detailed pass-through streams
// against in, with the same drop-on-empty-or-error policy as Compute.
func (r *Registry) ComputeStreams(names []string, in Tables, log *zerolog.Logger) map[string]*table.Table {
	out := make(map[string]*table.Table)
	for _, name := range names {
		fn, ok := r.streams[name]
		if !ok {
			log.Warn().Str("stream", name).Msg("requested stream is not registered, skipping")
			continue
		}
		result, err := fn(in)
		if err != nil {
			wrapped := errs.Wrap(errs.Aggregation, err, fmt.Sprintf("stream %q failed", name)).WithAspect(name)
			log.Error().Err(wrapped).Msg("stream computation failed")
			continue
		}
		if result == nil || result.NumRows == 0 {
			log.Warn().Str("stream", name).Msg("stream produced an empty table")
			continue
		}
		out[name] = result
	}
	return out
}
