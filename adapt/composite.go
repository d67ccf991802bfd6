package adapt

import (
	"fmt"

	"github.com/hindsight-io/hindsight/wire"
)

// Option encodes nil as a single 0 byte, otherwise 1 followed by the value.
func Option[T any](el Codec[T]) Codec[*T] {
	return Codec[*T]{
		Write: func(w *wire.Writer, v *T) error {
			if v == nil {
				return w.Uint8(0)
			}
			if err := w.Uint8(1); err != nil {
				return err
			}
			return el.Write(w, *v)
		},
		Read: func(r *wire.Reader) (*T, error) {
			tag, err := r.Uint8()
			if err != nil {
				return nil, err
			}
			switch tag {
			case 0:
				return nil, nil
			case 1:
				v, err := el.Read(r)
				if err != nil {
					return nil, err
				}
				return &v, nil
			default:
				return nil, fmt.Errorf("%w: option byte %#x", wire.ErrMalformed, tag)
			}
		},
	}
}

// Boxed is a transparent pointer: the wire form is the inner value alone.
// Use it at the referencing site of a recursive aggregate. A nil pointer
// cannot be written.
func Boxed[T any](el Codec[T]) Codec[*T] {
	return Codec[*T]{
		Write: func(w *wire.Writer, v *T) error {
			if v == nil {
				return fmt.Errorf("hindsight: boxed value is nil")
			}
			return el.Write(w, *v)
		},
		Read: func(r *wire.Reader) (*T, error) {
			v, err := el.Read(r)
			if err != nil {
				return nil, err
			}
			return &v, nil
		},
	}
}

// Result is the two-armed ok/err composite.
type Result[T, E any] struct {
	IsErr bool
	Ok    T
	Err   E
}

// ResultOf encodes a 0 byte plus the ok payload, or a 1 byte plus the err
// payload.
func ResultOf[T, E any](okc Codec[T], errc Codec[E]) Codec[Result[T, E]] {
	return Codec[Result[T, E]]{
		Write: func(w *wire.Writer, v Result[T, E]) error {
			if v.IsErr {
				if err := w.Uint8(1); err != nil {
					return err
				}
				return errc.Write(w, v.Err)
			}
			if err := w.Uint8(0); err != nil {
				return err
			}
			return okc.Write(w, v.Ok)
		},
		Read: func(r *wire.Reader) (Result[T, E], error) {
			var out Result[T, E]
			tag, err := r.Uint8()
			if err != nil {
				return out, err
			}
			switch tag {
			case 0:
				out.Ok, err = okc.Read(r)
			case 1:
				out.IsErr = true
				out.Err, err = errc.Read(r)
			default:
				err = fmt.Errorf("%w: result byte %#x", wire.ErrMalformed, tag)
			}
			return out, err
		},
	}
}

type Pair[A, B any] struct {
	A A
	B B
}

type Triple[A, B, C any] struct {
	A A
	B B
	C C
}

type Tuple4[A, B, C, D any] struct {
	A A
	B B
	C C
	D D
}

type Tuple5[A, B, C, D, E any] struct {
	A A
	B B
	C C
	D D
	E E
}

// Tuples encode their fields in order with no framing.

func PairOf[A, B any](ac Codec[A], bc Codec[B]) Codec[Pair[A, B]] {
	return Codec[Pair[A, B]]{
		Write: func(w *wire.Writer, v Pair[A, B]) error {
			if err := ac.Write(w, v.A); err != nil {
				return err
			}
			return bc.Write(w, v.B)
		},
		Read: func(r *wire.Reader) (Pair[A, B], error) {
			var out Pair[A, B]
			var err error
			if out.A, err = ac.Read(r); err != nil {
				return out, err
			}
			out.B, err = bc.Read(r)
			return out, err
		},
	}
}

func TripleOf[A, B, C any](ac Codec[A], bc Codec[B], cc Codec[C]) Codec[Triple[A, B, C]] {
	return Codec[Triple[A, B, C]]{
		Write: func(w *wire.Writer, v Triple[A, B, C]) error {
			if err := ac.Write(w, v.A); err != nil {
				return err
			}
			if err := bc.Write(w, v.B); err != nil {
				return err
			}
			return cc.Write(w, v.C)
		},
		Read: func(r *wire.Reader) (Triple[A, B, C], error) {
			var out Triple[A, B, C]
			var err error
			if out.A, err = ac.Read(r); err != nil {
				return out, err
			}
			if out.B, err = bc.Read(r); err != nil {
				return out, err
			}
			out.C, err = cc.Read(r)
			return out, err
		},
	}
}

func Tuple4Of[A, B, C, D any](ac Codec[A], bc Codec[B], cc Codec[C], dc Codec[D]) Codec[Tuple4[A, B, C, D]] {
	return Codec[Tuple4[A, B, C, D]]{
		Write: func(w *wire.Writer, v Tuple4[A, B, C, D]) error {
			if err := ac.Write(w, v.A); err != nil {
				return err
			}
			if err := bc.Write(w, v.B); err != nil {
				return err
			}
			if err := cc.Write(w, v.C); err != nil {
				return err
			}
			return dc.Write(w, v.D)
		},
		Read: func(r *wire.Reader) (Tuple4[A, B, C, D], error) {
			var out Tuple4[A, B, C, D]
			var err error
			if out.A, err = ac.Read(r); err != nil {
				return out, err
			}
			if out.B, err = bc.Read(r); err != nil {
				return out, err
			}
			if out.C, err = cc.Read(r); err != nil {
				return out, err
			}
			out.D, err = dc.Read(r)
			return out, err
		},
	}
}

func Tuple5Of[A, B, C, D, E any](ac Codec[A], bc Codec[B], cc Codec[C], dc Codec[D], ec Codec[E]) Codec[Tuple5[A, B, C, D, E]] {
	return Codec[Tuple5[A, B, C, D, E]]{
		Write: func(w *wire.Writer, v Tuple5[A, B, C, D, E]) error {
			if err := ac.Write(w, v.A); err != nil {
				return err
			}
			if err := bc.Write(w, v.B); err != nil {
				return err
			}
			if err := cc.Write(w, v.C); err != nil {
				return err
			}
			if err := dc.Write(w, v.D); err != nil {
				return err
			}
			return ec.Write(w, v.E)
		},
		Read: func(r *wire.Reader) (Tuple5[A, B, C, D, E], error) {
			var out Tuple5[A, B, C, D, E]
			var err error
			if out.A, err = ac.Read(r); err != nil {
				return out, err
			}
			if out.B, err = bc.Read(r); err != nil {
				return out, err
			}
			if out.C, err = cc.Read(r); err != nil {
				return out, err
			}
			if out.D, err = dc.Read(r); err != nil {
				return out, err
			}
			out.E, err = ec.Read(r)
			return out, err
		},
	}
}
