// Package transform produces clean records from raw records by
// applying dequantization and enum interning, then validating the
// result against the clean schema (spec §4.3).
package transform

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/anovio/tubuin/internal/decode"
	"github.com/anovio/tubuin/internal/errs"
	"github.com/anovio/tubuin/internal/schema"
)

// CleanRecord is one transformed row: field name -> value, where value
// is int64, float64, bool, string (plain or enum symbol), or nil.
type CleanRecord map[string]interface{}

// Transformer applies one aspect's dequantization and enum rules to a
// stream of raw records and validates the result against the clean
// schema.
type Transformer struct {
	aspect     string
	clean      schema.CleanSchema
	dequant    schema.DequantRule
	hasDequant bool
	enumRules  map[string]schema.EnumRule
	log        *zerolog.Logger
}

// NewTransformer builds a transformer for one aspect. If no clean
// schema is registered, ok is false and the caller treats the aspect
// as producing nothing, after a warning. Transform errors are always
// fatal for the replay -- there is no skip_on_error exception here,
// unlike decode's per-row skip (spec §7) -- so this type carries no
// skip flag of its own.
func NewTransformer(reg *schema.Registry, aspect string, log *zerolog.Logger) (*Transformer, bool) {
	clean, ok := reg.CleanSchemaFor(aspect)
	if !ok {
		log.Warn().Str("aspect", aspect).Msg("no clean schema registered for aspect, skipping")
		return nil, false
	}
	dequant, hasDequant := reg.DequantizationRules()[aspect]
	return &Transformer{
		aspect:     aspect,
		clean:      clean,
		dequant:    dequant,
		hasDequant: hasDequant,
		enumRules:  reg.EnumRules()[aspect],
		log:        log,
	}, true
}

// Transform produces one clean record from one raw record. Dequantization
// runs before enum mapping (enum-coded fields are never dequantized);
// enum mapping runs before validation (the clean schema's declared type
// is the enum symbol, not the raw integer code) -- spec §4.3.
func (t *Transformer) Transform(rec decode.RawRecord, rowIndex int) (CleanRecord, error) {
	m := make(CleanRecord, len(rec)+len(t.enumRules))
	for k, v := range rec {
		m[k] = v
	}

	if t.hasDequant {
		for _, field := range t.dequant.Fields {
			v, ok := m[field]
			if !ok || v == nil {
				continue
			}
			iv, ok := v.(int64)
			if !ok {
				return nil, errs.New(errs.Transformation, fmt.Sprintf("dequantize field %q: expected int64, got %T", field, v)).
					WithAspect(t.aspect).WithRow(rowIndex)
			}
			m[field] = float64(iv) / t.dequant.Divisor
		}
	}

	for rawField, rule := range t.enumRules {
		v, present := m[rawField]
		delete(m, rawField)
		if !present || v == nil {
			m[rule.CleanField] = nil
			continue
		}
		code, ok := v.(int64)
		if !ok {
			return nil, errs.New(errs.Transformation, fmt.Sprintf("enum field %q: expected int64 code, got %T", rawField, v)).
				WithAspect(t.aspect).WithRow(rowIndex)
		}
		name, found := rule.Kind.NameOf(code)
		if !found {
			t.log.Warn().Str("aspect", t.aspect).Int("row", rowIndex).Int64("code", code).
				Str("kind", rule.Kind.Kind).Msg("unknown enum code, recording null")
			m[rule.CleanField] = nil
			continue
		}
		m[rule.CleanField] = name
	}

	if err := t.validate(m, rowIndex); err != nil {
		return nil, err
	}
	return m, nil
}

func (t *Transformer) validate(m CleanRecord, rowIndex int) error {
	for _, f := range t.clean.Fields {
		v, present := m[f.Name]
		if !present || v == nil {
			if !f.Optional {
				return errs.New(errs.Transformation, fmt.Sprintf("missing required field %q", f.Name)).
					WithAspect(t.aspect).WithRow(rowIndex)
			}
			continue
		}
		var ok bool
		switch f.Type {
		case schema.CleanInt64:
			_, ok = v.(int64)
		case schema.CleanFloat64:
			_, ok = v.(float64)
		case schema.CleanBool:
			_, ok = v.(bool)
		case schema.CleanString, schema.CleanEnum:
			_, ok = v.(string)
		}
		if !ok {
			return errs.New(errs.Transformation, fmt.Sprintf("field %q: expected %s, got %T", f.Name, f.Type, v)).
				WithAspect(t.aspect).WithRow(rowIndex)
		}
	}
	return nil
}
