package adapt

import (
	"fmt"
	"math"
	"time"

	"github.com/hindsight-io/hindsight/wire"
)

// BoundKind discriminates the three arms of a range bound.
type BoundKind uint32

const (
	Unbounded BoundKind = iota
	Included
	Excluded
)

// Bound is a range endpoint. Value is meaningful only when Kind is Included
// or Excluded.
type Bound[T any] struct {
	Kind  BoundKind
	Value T
}

// BoundOf encodes the kind as a variable-length discriminant, then the value
// for the bounded arms.
func BoundOf[T any](el Codec[T]) Codec[Bound[T]] {
	return Codec[Bound[T]]{
		Write: func(w *wire.Writer, v Bound[T]) error {
			if err := w.Uvarint(uint64(v.Kind)); err != nil {
				return err
			}
			if v.Kind == Unbounded {
				return nil
			}
			return el.Write(w, v.Value)
		},
		Read: func(r *wire.Reader) (Bound[T], error) {
			var out Bound[T]
			d, err := r.Uvarint()
			if err != nil {
				return out, err
			}
			if d > uint64(Excluded) {
				return out, fmt.Errorf("%w: bound discriminant %d", wire.ErrMalformed, d)
			}
			out.Kind = BoundKind(d)
			if out.Kind == Unbounded {
				return out, nil
			}
			out.Value, err = el.Read(r)
			return out, err
		},
	}
}

// Reverse wraps a value; the type defines no ordering of its own. The wire
// form is the inner value alone.
type Reverse[T any] struct {
	Inner T
}

func ReverseOf[T any](el Codec[T]) Codec[Reverse[T]] {
	return Codec[Reverse[T]]{
		Write: func(w *wire.Writer, v Reverse[T]) error { return el.Write(w, v.Inner) },
		Read: func(r *wire.Reader) (Reverse[T], error) {
			v, err := el.Read(r)
			return Reverse[T]{Inner: v}, err
		},
	}
}

// NotNaN32 and NotNaN64 are float codecs that refuse NaN on decode.

var NotNaN32 = Codec[float32]{
	Write: F32.Write,
	Read: func(r *wire.Reader) (float32, error) {
		v, err := r.Float32()
		if err != nil {
			return 0, err
		}
		if v != v {
			return 0, fmt.Errorf("%w: NaN where disallowed", wire.ErrMalformed)
		}
		return v, nil
	},
}

var NotNaN64 = Codec[float64]{
	Write: F64.Write,
	Read: func(r *wire.Reader) (float64, error) {
		v, err := r.Float64()
		if err != nil {
			return 0, err
		}
		if math.IsNaN(v) {
			return 0, fmt.Errorf("%w: NaN where disallowed", wire.ErrMalformed)
		}
		return v, nil
	},
}

// Duration carries whole seconds then the nanosecond remainder, both
// variable-length. Negative durations have no wire form.
var Duration = Codec[time.Duration]{
	Write: func(w *wire.Writer, v time.Duration) error {
		if v < 0 {
			return fmt.Errorf("hindsight: negative duration %v", v)
		}
		if err := w.Uvarint(uint64(v / time.Second)); err != nil {
			return err
		}
		return w.Uvarint(uint64(v % time.Second))
	},
	Read: func(r *wire.Reader) (time.Duration, error) {
		secs, err := r.Uvarint()
		if err != nil {
			return 0, err
		}
		nanos, err := r.Uvarint()
		if err != nil {
			return 0, err
		}
		if nanos >= uint64(time.Second) || secs > uint64(math.MaxInt64/int64(time.Second)) {
			return 0, fmt.Errorf("%w: duration out of range", wire.ErrMalformed)
		}
		return time.Duration(secs)*time.Second + time.Duration(nanos), nil
	},
}
