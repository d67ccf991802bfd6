package hindsight

import (
	"github.com/hindsight-io/hindsight/adapt"
	"github.com/hindsight-io/hindsight/wire"
)

// Field describes one record field and its lifetime. Start and End bound the
// revisions at which the field is on the wire: live for Start <= r < End,
// with End == 0 meaning the field is still present at the current revision.
//
// Callbacks split by lifetime. A field live at the current revision needs
// Encode and Decode; if it appeared after revision 1 it also needs Default.
// A retired field needs DecodeOld and Convert instead.
type Field[A any] struct {
	Name  string
	Start uint16
	End   uint16

	// Encode writes the field's current value.
	Encode func(w *wire.Writer, a *A) error
	// Decode reads the field into the value under construction.
	Decode func(r *wire.Reader, a *A) error
	// DecodeOld reads a retired field's value as the old revision wrote it.
	DecodeOld func(r *wire.Reader) (any, error)
	// Default fills the field when reading a revision older than Start.
	// src is the revision named by the preamble.
	Default func(a *A, src uint16) error
	// Convert folds a retired field's decoded value into the value under
	// construction. It must not assume later fields are populated.
	Convert func(a *A, src uint16, old any) error
}

func (f *Field[A]) liveAt(r uint16) bool {
	return f.Start <= r && (f.End == 0 || r < f.End)
}

// Live declares a field present since revision 1, accessed through at.
func Live[A, T any](name string, c adapt.Codec[T], at func(*A) *T) Field[A] {
	return Field[A]{
		Name:  name,
		Start: 1,
		Encode: func(w *wire.Writer, a *A) error {
			return c.Write(w, *at(a))
		},
		Decode: func(r *wire.Reader, a *A) error {
			v, err := c.Read(r)
			if err != nil {
				return err
			}
			*at(a) = v
			return nil
		},
	}
}

// Added declares a field that first appeared at revision start. def supplies
// the value used when decoding older bytes.
func Added[A, T any](name string, start uint16, c adapt.Codec[T], at func(*A) *T, def func(src uint16) (T, error)) Field[A] {
	f := Live(name, c, at)
	f.Start = start
	if def != nil {
		f.Default = func(a *A, src uint16) error {
			v, err := def(src)
			if err != nil {
				return err
			}
			*at(a) = v
			return nil
		}
	}
	return f
}

// Retired declares a field removed at revision end. fold receives the
// decoded old value and updates the value under construction.
func Retired[A, T any](name string, start, end uint16, c adapt.Codec[T], fold func(a *A, src uint16, old T) error) Field[A] {
	f := Field[A]{
		Name:  name,
		Start: start,
		End:   end,
		DecodeOld: func(r *wire.Reader) (any, error) {
			return c.Read(r)
		},
	}
	if fold != nil {
		f.Convert = func(a *A, src uint16, old any) error {
			return fold(a, src, old.(T))
		}
	}
	return f
}

// Variant describes one arm of a tagged union and its lifetime. Lifetime
// bounds work exactly as for Field. Discriminants are not declared: at each
// revision they follow declaration order among the variants live there.
type Variant[A any] struct {
	Name  string
	Start uint16
	End   uint16

	// Encode writes the payload. Called only when the aggregate holds this
	// variant.
	Encode func(w *wire.Writer, a *A) error
	// Decode reads the payload as written at revision src and returns the
	// aggregate holding this variant, payload fill-ins applied.
	Decode func(r *wire.Reader, src uint16) (A, error)
	// Upgrade reads a retired variant's payload as written at revision src
	// and lifts it wholesale to a current aggregate value.
	Upgrade func(r *wire.Reader, src uint16) (A, error)
}

func (v *Variant[A]) liveAt(r uint16) bool {
	return v.Start <= r && (v.End == 0 || r < v.End)
}
