package hindsight

import (
	"bytes"
	"fmt"
	"math"

	"github.com/hindsight-io/hindsight/adapt"
	"github.com/hindsight-io/hindsight/wire"
)

// UnionType is the compiled form of a tagged-union declaration. Each
// revision gets its own discriminant table: position in declaration order
// among the variants live at that revision. Immutable once built.
type UnionType[A any] struct {
	name     string
	revision uint16
	variants []Variant[A]
	index    func(*A) int // declaration index of the variant a holds

	writerDiscr []uint64    // declaration index -> current discriminant, retiredDiscr if not live
	readers     []unionPlan // index r-1 holds the table for revision r
}

type unionPlan struct {
	byDiscr []int // discriminant -> declaration index
}

const retiredDiscr = math.MaxUint64

// NewUnionType validates the declaration and derives the per-revision
// discriminant tables. index must return the declaration index of the
// variant the value holds.
func NewUnionType[A any](name string, revision uint16, index func(*A) int, variants []Variant[A]) (*UnionType[A], error) {
	t := &UnionType[A]{
		name:     name,
		revision: revision,
		variants: variants,
		index:    index,
	}
	if err := t.build(); err != nil {
		return nil, err
	}
	return t, nil
}

// MustUnionType is NewUnionType for package-level declarations.
func MustUnionType[A any](name string, revision uint16, index func(*A) int, variants []Variant[A]) *UnionType[A] {
	t, err := NewUnionType(name, revision, index, variants)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *UnionType[A]) build() error {
	if t.revision < 1 {
		return fmt.Errorf("%w: %s: revision %d", ErrBadDescriptor, t.name, t.revision)
	}
	if t.index == nil {
		return fmt.Errorf("%w: %s: no variant index function", ErrBadDescriptor, t.name)
	}
	for i := range t.variants {
		v := &t.variants[i]
		if v.Start < 1 {
			return fmt.Errorf("%w: %s.%s: start %d", ErrBadDescriptor, t.name, v.Name, v.Start)
		}
		if v.End != 0 && v.End <= v.Start {
			return fmt.Errorf("%w: %s.%s: empty lifetime [%d, %d)", ErrBadDescriptor, t.name, v.Name, v.Start, v.End)
		}
		if v.End > t.revision || v.Start > t.revision {
			return fmt.Errorf("%w: %s.%s: lifetime outside revision %d", ErrBadDescriptor, t.name, v.Name, t.revision)
		}
		if v.End == 0 {
			if v.Encode == nil || v.Decode == nil {
				return fmt.Errorf("%w: %s.%s: live variant needs Encode and Decode", ErrBadDescriptor, t.name, v.Name)
			}
		} else if v.Upgrade == nil {
			return fmt.Errorf("%w: %s.%s: retired variant needs Upgrade", ErrBadDescriptor, t.name, v.Name)
		}
	}

	t.readers = make([]unionPlan, t.revision)
	for r := uint16(1); r <= t.revision; r++ {
		var plan unionPlan
		for i := range t.variants {
			if t.variants[i].liveAt(r) {
				plan.byDiscr = append(plan.byDiscr, i)
			}
		}
		if len(plan.byDiscr) == 0 {
			return fmt.Errorf("%w: %s: no live variant at revision %d", ErrBadDescriptor, t.name, r)
		}
		t.readers[r-1] = plan
	}

	t.writerDiscr = make([]uint64, len(t.variants))
	for i := range t.writerDiscr {
		t.writerDiscr[i] = retiredDiscr
	}
	for d, i := range t.readers[t.revision-1].byDiscr {
		t.writerDiscr[i] = uint64(d)
	}
	return nil
}

func (t *UnionType[A]) Name() string     { return t.name }
func (t *UnionType[A]) Revision() uint16 { return t.revision }

// Write emits the preamble, the current-revision discriminant of the held
// variant, then its payload.
func (t *UnionType[A]) Write(w *wire.Writer, a *A) error {
	if err := w.Uvarint(uint64(t.revision)); err != nil {
		return err
	}
	i := t.index(a)
	if i < 0 || i >= len(t.variants) || t.writerDiscr[i] == retiredDiscr {
		return fmt.Errorf("%w: %s index %d", ErrBadVariant, t.name, i)
	}
	if err := w.Uvarint(t.writerDiscr[i]); err != nil {
		return err
	}
	return t.variants[i].Encode(w, a)
}

// Read consumes the preamble and discriminant, then either decodes the
// payload of a still-live variant or upgrades a retired one.
func (t *UnionType[A]) Read(r *wire.Reader) (A, error) {
	a, _, err := t.ReadSource(r)
	return a, err
}

// ReadSource is Read, also reporting the revision named by the preamble.
func (t *UnionType[A]) ReadSource(r *wire.Reader) (A, uint16, error) {
	var zero A
	rev, err := r.Uvarint()
	if err != nil {
		return zero, 0, err
	}
	if rev == 0 || rev > uint64(t.revision) {
		return zero, 0, fmt.Errorf("%w: %s revision %d, current %d", ErrUnknownRevision, t.name, rev, t.revision)
	}
	src := uint16(rev)

	discr, err := r.Uvarint()
	if err != nil {
		return zero, 0, err
	}
	plan := &t.readers[src-1]
	if discr >= uint64(len(plan.byDiscr)) {
		return zero, 0, fmt.Errorf("%w: %s discriminant %d at revision %d", wire.ErrMalformed, t.name, discr, src)
	}
	v := &t.variants[plan.byDiscr[discr]]

	var a A
	if v.End == 0 {
		a, err = v.Decode(r, src)
	} else {
		a, err = v.Upgrade(r, src)
		if err != nil && !isWireError(err) {
			err = fmt.Errorf("%w: %s.%s: %w", ErrConversion, t.name, v.Name, err)
		}
	}
	return a, src, err
}

// Marshal encodes a into a fresh buffer.
func (t *UnionType[A]) Marshal(a *A) ([]byte, error) {
	var buf bytes.Buffer
	if err := t.Write(wire.NewWriter(&buf), a); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes one value from p.
func (t *UnionType[A]) Unmarshal(p []byte) (A, error) {
	return t.Read(wire.NewReader(bytes.NewReader(p)))
}

// UnmarshalSource is Unmarshal, also reporting the wire revision.
func (t *UnionType[A]) UnmarshalSource(p []byte) (A, uint16, error) {
	return t.ReadSource(wire.NewReader(bytes.NewReader(p)))
}

// Codec adapts the union type for use as a field of an enclosing aggregate.
func (t *UnionType[A]) Codec() adapt.Codec[A] {
	return adapt.Codec[A]{
		Write: func(w *wire.Writer, v A) error { return t.Write(w, &v) },
		Read:  func(r *wire.Reader) (A, error) { return t.Read(r) },
	}
}
