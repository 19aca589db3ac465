package schema

import (
	"fmt"
	"sort"

	"github.com/anovio/tubuin/internal/errs"
)

// DequantRule is the per-aspect dequantization configuration: one
// divisor shared by all listed fields (spec §3, §4.3).
type DequantRule struct {
	Divisor float64
	Fields  []string
}

// EnumRule is one raw_field -> (clean_field, enum kind) mapping within
// an aspect.
type EnumRule struct {
	CleanField string
	Kind       *EnumKind
}

// Registry is the process-wide, read-only-after-build source of truth
// for raw/clean schemas and their derived configuration. Build it once
// at startup with NewRegistry and call ValidateConsistency before any
// other use (spec §4.1).
type Registry struct {
	raw    map[string]RawSchema
	clean  map[string]CleanSchema
	enums  map[string]*EnumKind
	dequant map[string]DequantRule
	enumRules map[string]map[string]EnumRule
}

// NewRegistry builds the registry from the compiled-in aspect set and
// derives the dequantization/enum maps by introspecting raw schema
// field metadata, so a metadata tag added to one field automatically
// participates in the transformer without a second edit (spec §4.1).
func NewRegistry() *Registry {
	r := &Registry{
		raw:   rawSchemas(),
		clean: cleanSchemas(),
		enums: defaultEnumRegistry(),
	}
	r.build()
	return r
}

func (r *Registry) build() {
	dequant := make(map[string]DequantRule)
	enumRules := make(map[string]map[string]EnumRule)

	aspects := make([]string, 0, len(r.raw))
	for a := range r.raw {
		aspects = append(aspects, a)
	}
	sort.Strings(aspects)

	for _, aspect := range aspects {
		s := r.raw[aspect]
		for _, f := range s.Fields {
			if f.Meta.Dequantize != nil && f.Meta.EnumMap != nil {
				panic(fmt.Sprintf("schema: aspect %q field %q carries both a dequantize and an enum_map rule", aspect, f.Name))
			}
			if f.Meta.Dequantize != nil {
				dr, ok := dequant[aspect]
				if !ok {
					dr = DequantRule{Divisor: f.Meta.Dequantize.Divisor}
				}
				dr.Fields = append(dr.Fields, f.Name)
				dequant[aspect] = dr
			}
			if f.Meta.EnumMap != nil {
				kind, ok := r.enums[f.Meta.EnumMap.EnumKind]
				if !ok {
					panic(fmt.Sprintf("schema: aspect %q field %q references unregistered enum kind %q", aspect, f.Name, f.Meta.EnumMap.EnumKind))
				}
				if enumRules[aspect] == nil {
					enumRules[aspect] = make(map[string]EnumRule)
				}
				enumRules[aspect][f.Name] = EnumRule{CleanField: f.Meta.EnumMap.CleanField, Kind: kind}
			}
		}
	}
	r.dequant = dequant
	r.enumRules = enumRules
}

// RawSchemaFor returns the raw schema for aspect, or ok=false.
func (r *Registry) RawSchemaFor(aspect string) (RawSchema, bool) {
	s, ok := r.raw[aspect]
	return s, ok
}

// CleanSchemaFor returns the clean schema for aspect, or ok=false.
func (r *Registry) CleanSchemaFor(aspect string) (CleanSchema, bool) {
	s, ok := r.clean[aspect]
	return s, ok
}

// RecognizedAspects returns all aspect names in sorted order.
func (r *Registry) RecognizedAspects() []string {
	out := make([]string, 0, len(r.raw))
	for a := range r.raw {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// DequantizationRules returns the aspect -> {divisor, fields} map
// derived from raw schema metadata.
func (r *Registry) DequantizationRules() map[string]DequantRule {
	return r.dequant
}

// EnumRules returns the aspect -> raw_field -> (clean_field, kind) map
// derived from raw schema metadata.
func (r *Registry) EnumRules() map[string]map[string]EnumRule {
	return r.enumRules
}

// EnumKindByName looks up a globally registered enum kind by key.
func (r *Registry) EnumKindByName(key string) (*EnumKind, bool) {
	k, ok := r.enums[key]
	return k, ok
}

// ValidateConsistency checks that the raw and clean schema maps share
// exactly the same aspect key set, and that every aspect referenced by
// a derived mapping is present in the raw map. MUST be called once at
// startup (spec §4.1).
func (r *Registry) ValidateConsistency() error {
	rawKeys := make(map[string]bool, len(r.raw))
	for k := range r.raw {
		rawKeys[k] = true
	}
	cleanKeys := make(map[string]bool, len(r.clean))
	for k := range r.clean {
		cleanKeys[k] = true
	}

	var onlyRaw, onlyClean []string
	for k := range rawKeys {
		if !cleanKeys[k] {
			onlyRaw = append(onlyRaw, k)
		}
	}
	for k := range cleanKeys {
		if !rawKeys[k] {
			onlyClean = append(onlyClean, k)
		}
	}
	if len(onlyRaw) > 0 || len(onlyClean) > 0 {
		sort.Strings(onlyRaw)
		sort.Strings(onlyClean)
		return errs.New(errs.ConfigInconsistent, fmt.Sprintf(
			"raw/clean schema key mismatch: only in raw=%v, only in clean=%v", onlyRaw, onlyClean))
	}

	for aspect := range r.dequant {
		if !rawKeys[aspect] {
			return errs.New(errs.ConfigInconsistent, fmt.Sprintf(
				"dequantization config references unknown aspect %q", aspect))
		}
	}
	for aspect := range r.enumRules {
		if !rawKeys[aspect] {
			return errs.New(errs.ConfigInconsistent, fmt.Sprintf(
				"enum rule config references unknown aspect %q", aspect))
		}
	}
	return nil
}
