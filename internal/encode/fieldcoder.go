// Package encode turns a transformed table into the little-endian
// binary blobs and directory/file bundles described by the hybrid,
// columnar, and row-major output formats (spec §4.6).
package encode

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/anovio/tubuin/internal/table"
)

// fieldCoder encodes a single cell's fixed-width little-endian
// representation into writeTo, returning the (possibly reallocated)
// slice. One small coder per supported declared dtype, in the spirit
// of a primitive field-by-field binary encoder.
type fieldCoder interface {
	byteWidth() int
	encode(writeTo []byte, value interface{}) ([]byte, error)
}

func coderFor(dtype table.Dtype) (fieldCoder, error) {
	switch dtype {
	case table.Int8:
		return coderInt8{}, nil
	case table.UInt8:
		return coderUint8{}, nil
	case table.Int16:
		return coderInt16{}, nil
	case table.UInt16:
		return coderUint16{}, nil
	case table.Int32:
		return coderInt32{}, nil
	case table.UInt32:
		return coderUint32{}, nil
	case table.Int64:
		return coderInt64{}, nil
	case table.UInt64:
		return coderUint64{}, nil
	case table.Float32:
		return coderFloat32{}, nil
	case table.Float64:
		return coderFloat64{}, nil
	case table.BooleanDtype:
		return coderBool{}, nil
	default:
		return nil, fmt.Errorf("no fixed-width coder for dtype %s", dtype)
	}
}

func ensure(writeTo []byte, n int) []byte {
	if cap(writeTo) < n {
		return make([]byte, n)
	}
	return writeTo[:n]
}

func asInt64(value interface{}) (int64, error) {
	switch v := value.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("cannot encode %T as an integer cell", value)
	}
}

func asFloat64(value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("cannot encode %T as a float cell", value)
	}
}

type coderInt8 struct{}

func (coderInt8) byteWidth() int { return 1 }
func (coderInt8) encode(writeTo []byte, value interface{}) ([]byte, error) {
	i, err := asInt64(value)
	if err != nil {
		return nil, err
	}
	writeTo = ensure(writeTo, 1)
	writeTo[0] = byte(int8(i))
	return writeTo, nil
}

type coderUint8 struct{}

func (coderUint8) byteWidth() int { return 1 }
func (coderUint8) encode(writeTo []byte, value interface{}) ([]byte, error) {
	i, err := asInt64(value)
	if err != nil {
		return nil, err
	}
	writeTo = ensure(writeTo, 1)
	writeTo[0] = byte(uint8(i))
	return writeTo, nil
}

type coderInt16 struct{}

func (coderInt16) byteWidth() int { return 2 }
func (coderInt16) encode(writeTo []byte, value interface{}) ([]byte, error) {
	i, err := asInt64(value)
	if err != nil {
		return nil, err
	}
	writeTo = ensure(writeTo, 2)
	binary.LittleEndian.PutUint16(writeTo, uint16(int16(i)))
	return writeTo, nil
}

type coderUint16 struct{}

func (coderUint16) byteWidth() int { return 2 }
func (coderUint16) encode(writeTo []byte, value interface{}) ([]byte, error) {
	i, err := asInt64(value)
	if err != nil {
		return nil, err
	}
	writeTo = ensure(writeTo, 2)
	binary.LittleEndian.PutUint16(writeTo, uint16(i))
	return writeTo, nil
}

type coderInt32 struct{}

func (coderInt32) byteWidth() int { return 4 }
func (coderInt32) encode(writeTo []byte, value interface{}) ([]byte, error) {
	i, err := asInt64(value)
	if err != nil {
		return nil, err
	}
	writeTo = ensure(writeTo, 4)
	binary.LittleEndian.PutUint32(writeTo, uint32(int32(i)))
	return writeTo, nil
}

type coderUint32 struct{}

func (coderUint32) byteWidth() int { return 4 }
func (coderUint32) encode(writeTo []byte, value interface{}) ([]byte, error) {
	i, err := asInt64(value)
	if err != nil {
		return nil, err
	}
	writeTo = ensure(writeTo, 4)
	binary.LittleEndian.PutUint32(writeTo, uint32(i))
	return writeTo, nil
}

type coderInt64 struct{}

func (coderInt64) byteWidth() int { return 8 }
func (coderInt64) encode(writeTo []byte, value interface{}) ([]byte, error) {
	i, err := asInt64(value)
	if err != nil {
		return nil, err
	}
	writeTo = ensure(writeTo, 8)
	binary.LittleEndian.PutUint64(writeTo, uint64(i))
	return writeTo, nil
}

type coderUint64 struct{}

func (coderUint64) byteWidth() int { return 8 }
func (coderUint64) encode(writeTo []byte, value interface{}) ([]byte, error) {
	i, err := asInt64(value)
	if err != nil {
		return nil, err
	}
	writeTo = ensure(writeTo, 8)
	binary.LittleEndian.PutUint64(writeTo, uint64(i))
	return writeTo, nil
}

type coderFloat32 struct{}

func (coderFloat32) byteWidth() int { return 4 }
func (coderFloat32) encode(writeTo []byte, value interface{}) ([]byte, error) {
	f, err := asFloat64(value)
	if err != nil {
		return nil, err
	}
	writeTo = ensure(writeTo, 4)
	binary.LittleEndian.PutUint32(writeTo, math.Float32bits(float32(f)))
	return writeTo, nil
}

type coderFloat64 struct{}

func (coderFloat64) byteWidth() int { return 8 }
func (coderFloat64) encode(writeTo []byte, value interface{}) ([]byte, error) {
	f, err := asFloat64(value)
	if err != nil {
		return nil, err
	}
	writeTo = ensure(writeTo, 8)
	binary.LittleEndian.PutUint64(writeTo, math.Float64bits(f))
	return writeTo, nil
}

type coderBool struct{}

func (coderBool) byteWidth() int { return 1 }
func (coderBool) encode(writeTo []byte, value interface{}) ([]byte, error) {
	b, ok := value.(bool)
	if !ok {
		i, err := asInt64(value)
		if err != nil {
			return nil, fmt.Errorf("cannot encode %T as bool", value)
		}
		b = i != 0
	}
	writeTo = ensure(writeTo, 1)
	if b {
		writeTo[0] = 1
	} else {
		writeTo[0] = 0
	}
	return writeTo, nil
}

func packUint32(vals []uint32) []byte {
	out := make([]byte, len(vals)*4)
	for i, v := range vals {
		binary.LittleEndian.PutUint32(out[i*4:], v)
	}
	return out
}
