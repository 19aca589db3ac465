// Package decode turns a single aspect's raw byte blob into a stream
// of schema-bound raw records, one row at a time (spec §4.2).
package decode

import (
	"bytes"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/anovio/tubuin/internal/errs"
	"github.com/anovio/tubuin/internal/schema"
)

// RawRecord is one decoded, schema-bound row: field name -> value,
// where value is one of int64, bool, string, or nil.
type RawRecord map[string]interface{}

// Decoder pulls one validated RawRecord at a time from a raw aspect
// blob. Bytes are fed to a streaming msgpack decoder and each
// top-level array is validated against the raw schema as it is read;
// the whole aspect is never materialized in memory at once.
type Decoder struct {
	aspect      string
	raw         schema.RawSchema
	dec         *msgpack.Decoder
	skipOnError bool
	log         *zerolog.Logger
	index       int
	done        bool
}

// NewDecoder constructs a streaming decoder for one aspect's raw
// bytes. If no raw schema is registered for aspect, ok is false and
// the caller treats the aspect as producing nothing, after a warning
// (spec §4.2).
func NewDecoder(reg *schema.Registry, aspect string, raw []byte, skipOnError bool, log *zerolog.Logger) (*Decoder, bool) {
	s, ok := reg.RawSchemaFor(aspect)
	if !ok {
		log.Warn().Str("aspect", aspect).Msg("no raw schema registered for aspect, skipping")
		return nil, false
	}
	return &Decoder{
		aspect:      aspect,
		raw:         s,
		dec:         msgpack.NewDecoder(bytes.NewReader(raw)),
		skipOnError: skipOnError,
		log:         log,
	}, true
}

// Next returns the next validated raw record. ok is false once the
// stream is exhausted (including when skip_on_error absorbed every
// remaining row's failures); err is non-nil only for an unrecoverable
// validation failure.
func (d *Decoder) Next() (RawRecord, bool, error) {
	for {
		if d.done {
			return nil, false, nil
		}
		item, err := d.dec.DecodeInterface()
		if err == io.EOF {
			d.done = true
			d.log.Debug().Str("aspect", d.aspect).Int("rows", d.index).Msg("decoding complete")
			return nil, false, nil
		}
		if err != nil {
			d.done = true
			return nil, false, errs.Wrap(errs.Decoding, err, "failed to decode row").
				WithAspect(d.aspect).WithRow(d.index)
		}

		rowIndex := d.index
		d.index++

		rec, verr := d.bind(item, rowIndex)
		if verr != nil {
			if d.skipOnError {
				d.log.Warn().Str("aspect", d.aspect).Int("row", rowIndex).Err(verr).Msg("skipping invalid row")
				continue
			}
			d.done = true
			return nil, false, verr
		}
		return rec, true, nil
	}
}

func (d *Decoder) bind(item interface{}, rowIndex int) (RawRecord, error) {
	row, ok := item.([]interface{})
	if !ok {
		return nil, errs.New(errs.SchemaValidation, "row is not a list").
			WithAspect(d.aspect).WithRow(rowIndex)
	}
	arity := d.raw.Arity()
	if len(row) > arity {
		return nil, errs.New(errs.SchemaValidation, fmt.Sprintf("arity mismatch: got %d, want <= %d", len(row), arity)).
			WithAspect(d.aspect).WithRow(rowIndex)
	}

	rec := make(RawRecord, arity)
	for i, f := range d.raw.Fields {
		padded := i >= len(row)
		var v interface{}
		if !padded {
			v = row[i]
		}
		bound, err := bindValue(f, v, padded)
		if err != nil {
			return nil, errs.New(errs.SchemaValidation, fmt.Sprintf("field %q: %s", f.Name, err)).
				WithAspect(d.aspect).WithRow(rowIndex)
		}
		rec[f.Name] = bound
	}
	return rec, nil
}

// bindValue validates one decoded value against its raw field
// descriptor. padded distinguishes an array that was short (always
// null, regardless of the field's own optionality, per spec §4.2 step
// 2) from an in-bounds explicit null (only valid on an optional
// field).
func bindValue(f schema.RawField, v interface{}, padded bool) (interface{}, error) {
	if v == nil {
		if !padded && !f.Optional {
			return nil, fmt.Errorf("required field is null")
		}
		return nil, nil
	}
	switch f.Type {
	case schema.ScalarInt64:
		i, ok := toInt64(v)
		if !ok {
			return nil, fmt.Errorf("expected int64, got %T", v)
		}
		return i, nil
	case schema.ScalarBool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("expected bool, got %T", v)
		}
		return b, nil
	case schema.ScalarString:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", v)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unrecognized scalar type %v", f.Type)
	}
}

// toInt64 widens any of msgpack's decoded integer representations to
// int64; the decoder may hand back int64, uint64, or a narrower type
// depending on the wire encoding actually used for a given value.
func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true
	default:
		return 0, false
	}
}
