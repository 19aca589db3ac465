package table

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/anovio/tubuin/internal/errs"
	"github.com/anovio/tubuin/internal/schema"
	"github.com/anovio/tubuin/internal/transform"
)

// Materialize turns a finite list of clean records for one aspect into
// a column table whose schema is derived from the registered clean
// schema (spec §4.4). An empty input list is not an error: it produces
// a zero-row table with the derived schema.
func Materialize(reg *schema.Registry, aspect string, records []transform.CleanRecord, log *zerolog.Logger) (*Table, error) {
	clean, ok := reg.CleanSchemaFor(aspect)
	if !ok {
		return nil, errs.New(errs.Transformation, fmt.Sprintf("no clean schema for %s", aspect)).WithAspect(aspect)
	}

	if len(records) == 0 {
		log.Warn().Str("aspect", aspect).Msg("no data for aspect, creating empty table")
	}

	t := New(aspect)
	for _, f := range clean.Fields {
		dtype, enumKind, err := deriveDtype(reg, f)
		if err != nil {
			return nil, errs.Wrap(errs.Transformation, err, fmt.Sprintf("cannot derive dtype for %s.%s", aspect, f.Name)).WithAspect(aspect)
		}
		values := make([]interface{}, len(records))
		for i, rec := range records {
			values[i] = rec[f.Name]
		}
		t.AddColumn(&Column{
			Name:     f.Name,
			Dtype:    dtype,
			Nullable: f.Optional,
			EnumKind: enumKind,
			Values:   values,
		})
	}
	// AddColumn only fixes NumRows once a column exists; an aspect with
	// zero clean fields never happens in practice, but guard it anyway
	// so a zero-row, zero-column table still reports the right length.
	if len(clean.Fields) == 0 {
		t.NumRows = len(records)
	}
	return t, nil
}

func deriveDtype(reg *schema.Registry, f schema.CleanField) (Dtype, string, error) {
	switch f.Type {
	case schema.CleanInt64:
		return Int64, "", nil
	case schema.CleanFloat64:
		return Float64, "", nil
	case schema.CleanBool:
		return BooleanDtype, "", nil
	case schema.CleanString:
		return Utf8Dtype, "", nil
	case schema.CleanEnum:
		if _, ok := reg.EnumKindByName(f.EnumKind); !ok {
			return Opaque, "", fmt.Errorf("unregistered enum kind %q", f.EnumKind)
		}
		return Categorical, f.EnumKind, nil
	default:
		return Opaque, "", fmt.Errorf("unsupported clean type %v", f.Type)
	}
}
