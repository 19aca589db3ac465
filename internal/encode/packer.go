package encode

import (
	"fmt"
	"math"

	"github.com/anovio/tubuin/internal/errs"
	"github.com/anovio/tubuin/internal/table"
)

// RowMajorResult is the packed output of PackRowMajor.
type RowMajorResult struct {
	Bytes         []byte
	RowByteStride int
}

// PackRowMajor packs a table of all-fixed-width columns into a single
// row-major byte buffer (spec §4.6.4). Every column must be a
// fixed-width primitive; the caller is responsible for running the
// output contract engine's cast rules first.
func PackRowMajor(t *table.Table, nullEncoding *int64, stream string) (*RowMajorResult, error) {
	cols := t.Columns()
	coders := make([]fieldCoder, len(cols))
	stride := 0
	hasNull := false

	for i, c := range cols {
		if !c.Dtype.IsPrimitiveFixedWidth() {
			return nil, errs.New(errs.OutputGeneration,
				fmt.Sprintf("column %q (%s) is not a fixed-width primitive, cannot row-major pack", c.Name, c.Dtype)).WithAspect(stream)
		}
		coder, err := coderFor(c.Dtype)
		if err != nil {
			return nil, errs.New(errs.OutputGeneration, err.Error()).WithAspect(stream)
		}
		coders[i] = coder
		stride += c.Dtype.ByteWidth()
		for _, v := range c.Values {
			if v == nil {
				hasNull = true
			}
		}
	}
	if hasNull && nullEncoding == nil {
		return nil, errs.New(errs.OutputGeneration, fmt.Sprintf("stream %q contains nulls but has no null_encoding", stream)).WithAspect(stream)
	}

	buf := make([]byte, 0, stride*t.NumRows)
	var scratch []byte
	var err error
	for row := 0; row < t.NumRows; row++ {
		for i, c := range cols {
			cell := c.Values[row]
			if cell == nil {
				if c.Dtype == table.Float32 || c.Dtype == table.Float64 {
					cell = math.NaN()
				} else {
					cell = *nullEncoding
				}
			}
			scratch, err = coders[i].encode(scratch, cell)
			if err != nil {
				return nil, errs.Wrap(errs.OutputGeneration, err, fmt.Sprintf("pack column %q", c.Name)).WithAspect(stream)
			}
			buf = append(buf, scratch...)
		}
	}
	return &RowMajorResult{Bytes: buf, RowByteStride: stride}, nil
}
