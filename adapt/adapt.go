// Package adapt provides per-type codecs over the wire primitives: scalars,
// strings, containers, tuples and wrappers, plus opt-in adapters for common
// third-party value types. Adapters are pure and deterministic; their wire
// form is frozen and never carries a revision preamble.
package adapt

import (
	"fmt"
	"math"

	"github.com/hindsight-io/hindsight/wire"
)

// Codec is an encode/decode pair for one value type. Codecs compose: a
// container codec delegates to its element codec, an aggregate field
// delegates to the codec of its declared type.
type Codec[T any] struct {
	Write func(w *wire.Writer, v T) error
	Read  func(r *wire.Reader) (T, error)
}

var Bool = Codec[bool]{
	Write: func(w *wire.Writer, v bool) error { return w.Bool(v) },
	Read:  func(r *wire.Reader) (bool, error) { return r.Bool() },
}

var U8 = Codec[uint8]{
	Write: func(w *wire.Writer, v uint8) error { return w.Uint8(v) },
	Read:  func(r *wire.Reader) (uint8, error) { return r.Uint8() },
}

var I8 = Codec[int8]{
	Write: func(w *wire.Writer, v int8) error { return w.Uint8(uint8(v)) },
	Read: func(r *wire.Reader) (int8, error) {
		b, err := r.Uint8()
		return int8(b), err
	},
}

func uintCodec[T uint16 | uint32 | uint64 | uint](max uint64) Codec[T] {
	return Codec[T]{
		Write: func(w *wire.Writer, v T) error { return w.Uvarint(uint64(v)) },
		Read: func(r *wire.Reader) (T, error) {
			u, err := r.Uvarint()
			if err != nil {
				return 0, err
			}
			if u > max {
				return 0, fmt.Errorf("%w: integer %d overflows target type", wire.ErrMalformed, u)
			}
			return T(u), nil
		},
	}
}

func intCodec[T int16 | int32 | int64 | int](min, max int64) Codec[T] {
	return Codec[T]{
		Write: func(w *wire.Writer, v T) error { return w.Varint(int64(v)) },
		Read: func(r *wire.Reader) (T, error) {
			i, err := r.Varint()
			if err != nil {
				return 0, err
			}
			if i < min || i > max {
				return 0, fmt.Errorf("%w: integer %d overflows target type", wire.ErrMalformed, i)
			}
			return T(i), nil
		},
	}
}

var (
	U16  = uintCodec[uint16](math.MaxUint16)
	U32  = uintCodec[uint32](math.MaxUint32)
	U64  = uintCodec[uint64](math.MaxUint64)
	Uint = uintCodec[uint](math.MaxUint64)

	I16 = intCodec[int16](math.MinInt16, math.MaxInt16)
	I32 = intCodec[int32](math.MinInt32, math.MaxInt32)
	I64 = intCodec[int64](math.MinInt64, math.MaxInt64)
	Int = intCodec[int](math.MinInt64, math.MaxInt64)
)

var F32 = Codec[float32]{
	Write: func(w *wire.Writer, v float32) error { return w.Float32(v) },
	Read:  func(r *wire.Reader) (float32, error) { return r.Float32() },
}

var F64 = Codec[float64]{
	Write: func(w *wire.Writer, v float64) error { return w.Float64(v) },
	Read:  func(r *wire.Reader) (float64, error) { return r.Float64() },
}

var Rune = Codec[rune]{
	Write: func(w *wire.Writer, v rune) error { return w.Rune(v) },
	Read:  func(r *wire.Reader) (rune, error) { return r.Rune() },
}

var String = Codec[string]{
	Write: func(w *wire.Writer, v string) error { return w.String(v) },
	Read:  func(r *wire.Reader) (string, error) { return r.StringVal() },
}

var Bytes = Codec[[]byte]{
	Write: func(w *wire.Writer, v []byte) error { return w.Bytes(v) },
	Read:  func(r *wire.Reader) ([]byte, error) { return r.BytesVal() },
}
