package hindsight

import (
	"bytes"
	"fmt"

	"github.com/hindsight-io/hindsight/adapt"
	"github.com/hindsight-io/hindsight/wire"
)

// RecordType is the compiled form of a record declaration: the descriptor
// list validated against the current revision, plus a precomputed writer
// plan and one reader plan per historical revision. Immutable once built;
// share freely.
type RecordType[A any] struct {
	name       string
	revision   uint16
	fields     []Field[A]
	allowEmpty bool

	writer  []int        // field indices live at the current revision
	readers []recordPlan // index r-1 holds the plan for revision r
}

type recordPlan struct {
	reads []int        // live field indices, declaration order
	fills []fillAction // post-read actions: defaults, then converters, each in declaration order
}

type fillAction struct {
	field   int
	convert bool // false: default provider
}

// RecordOption adjusts validation.
type RecordOption func(*recordConfig)

type recordConfig struct {
	allowEmpty bool
}

// AllowEmpty permits revisions with no live fields. A record with an empty
// body still carries its preamble.
func AllowEmpty() RecordOption {
	return func(c *recordConfig) { c.allowEmpty = true }
}

// NewRecordType validates the declaration and derives its plans. Any
// inconsistency here is a programmer error in the declaration, not a
// property of some byte stream.
func NewRecordType[A any](name string, revision uint16, fields []Field[A], opts ...RecordOption) (*RecordType[A], error) {
	var cfg recordConfig
	for _, o := range opts {
		o(&cfg)
	}
	t := &RecordType[A]{
		name:       name,
		revision:   revision,
		fields:     fields,
		allowEmpty: cfg.allowEmpty,
	}
	if err := t.build(); err != nil {
		return nil, err
	}
	return t, nil
}

// MustRecordType is NewRecordType for package-level declarations.
func MustRecordType[A any](name string, revision uint16, fields []Field[A], opts ...RecordOption) *RecordType[A] {
	t, err := NewRecordType(name, revision, fields, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *RecordType[A]) build() error {
	if t.revision < 1 {
		return fmt.Errorf("%w: %s: revision %d", ErrBadDescriptor, t.name, t.revision)
	}
	for i := range t.fields {
		f := &t.fields[i]
		if f.Start < 1 {
			return fmt.Errorf("%w: %s.%s: start %d", ErrBadDescriptor, t.name, f.Name, f.Start)
		}
		if f.End != 0 && f.End <= f.Start {
			return fmt.Errorf("%w: %s.%s: empty lifetime [%d, %d)", ErrBadDescriptor, t.name, f.Name, f.Start, f.End)
		}
		if f.End > t.revision {
			return fmt.Errorf("%w: %s.%s: end %d past revision %d (omit End for a live field)", ErrBadDescriptor, t.name, f.Name, f.End, t.revision)
		}
		if f.Start > t.revision {
			return fmt.Errorf("%w: %s.%s: start %d past revision %d", ErrBadDescriptor, t.name, f.Name, f.Start, t.revision)
		}
		if f.End == 0 {
			if f.Encode == nil || f.Decode == nil {
				return fmt.Errorf("%w: %s.%s: live field needs Encode and Decode", ErrBadDescriptor, t.name, f.Name)
			}
			if f.Start > 1 && f.Default == nil {
				return fmt.Errorf("%w: %s.%s: added at %d but no default provider", ErrBadDescriptor, t.name, f.Name, f.Start)
			}
		} else {
			if f.DecodeOld == nil || f.Convert == nil {
				return fmt.Errorf("%w: %s.%s: retired field needs DecodeOld and Convert", ErrBadDescriptor, t.name, f.Name)
			}
		}
	}

	t.readers = make([]recordPlan, t.revision)
	for r := uint16(1); r <= t.revision; r++ {
		var plan recordPlan
		var converts []fillAction
		for i := range t.fields {
			f := &t.fields[i]
			if f.liveAt(r) {
				plan.reads = append(plan.reads, i)
				if f.End != 0 {
					converts = append(converts, fillAction{field: i, convert: true})
				}
			} else if f.End == 0 && f.Start > r {
				plan.fills = append(plan.fills, fillAction{field: i})
			}
		}
		// Defaults land before converters, each group in declaration
		// order, so a converter may overwrite a defaulted field but never
		// the other way around.
		plan.fills = append(plan.fills, converts...)
		if len(plan.reads) == 0 && !t.allowEmpty {
			return fmt.Errorf("%w: %s: no live field at revision %d", ErrBadDescriptor, t.name, r)
		}
		t.readers[r-1] = plan
	}
	t.writer = t.readers[t.revision-1].reads
	return nil
}

func (t *RecordType[A]) Name() string     { return t.name }
func (t *RecordType[A]) Revision() uint16 { return t.revision }

// Write emits the preamble then the current-revision body.
func (t *RecordType[A]) Write(w *wire.Writer, a *A) error {
	if err := w.Uvarint(uint64(t.revision)); err != nil {
		return err
	}
	return t.EncodeBody(w, a)
}

// EncodeBody emits the current-revision body with no preamble. Union
// variants with record payloads use it to share the union's preamble.
func (t *RecordType[A]) EncodeBody(w *wire.Writer, a *A) error {
	for _, i := range t.writer {
		if err := t.fields[i].Encode(w, a); err != nil {
			return err
		}
	}
	return nil
}

// Read consumes the preamble, decodes the named revision's body and carries
// the value forward to the current revision.
func (t *RecordType[A]) Read(r *wire.Reader) (A, error) {
	a, _, err := t.ReadSource(r)
	return a, err
}

// ReadSource is Read, also reporting the revision named by the preamble.
func (t *RecordType[A]) ReadSource(r *wire.Reader) (A, uint16, error) {
	var zero A
	rev, err := r.Uvarint()
	if err != nil {
		return zero, 0, err
	}
	if rev == 0 || rev > uint64(t.revision) {
		return zero, 0, fmt.Errorf("%w: %s revision %d, current %d", ErrUnknownRevision, t.name, rev, t.revision)
	}
	a, err := t.DecodeBody(r, uint16(rev))
	return a, uint16(rev), err
}

// DecodeBody decodes a body written at revision src, no preamble expected.
func (t *RecordType[A]) DecodeBody(r *wire.Reader, src uint16) (A, error) {
	var a A
	if src == 0 || src > t.revision {
		return a, fmt.Errorf("%w: %s revision %d, current %d", ErrUnknownRevision, t.name, src, t.revision)
	}
	plan := &t.readers[src-1]

	var olds map[int]any
	for _, i := range plan.reads {
		f := &t.fields[i]
		if f.End != 0 {
			v, err := f.DecodeOld(r)
			if err != nil {
				return a, err
			}
			if olds == nil {
				olds = make(map[int]any)
			}
			olds[i] = v
		} else if err := f.Decode(r, &a); err != nil {
			return a, err
		}
	}
	for _, act := range plan.fills {
		f := &t.fields[act.field]
		if act.convert {
			if err := f.Convert(&a, src, olds[act.field]); err != nil {
				return a, fmt.Errorf("%w: %s.%s: %w", ErrConversion, t.name, f.Name, err)
			}
		} else if err := f.Default(&a, src); err != nil {
			return a, fmt.Errorf("%w: %s.%s: %w", ErrConversion, t.name, f.Name, err)
		}
	}
	return a, nil
}

// Marshal encodes a into a fresh buffer.
func (t *RecordType[A]) Marshal(a *A) ([]byte, error) {
	var buf bytes.Buffer
	if err := t.Write(wire.NewWriter(&buf), a); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes one value from p.
func (t *RecordType[A]) Unmarshal(p []byte) (A, error) {
	return t.Read(wire.NewReader(bytes.NewReader(p)))
}

// UnmarshalSource is Unmarshal, also reporting the wire revision.
func (t *RecordType[A]) UnmarshalSource(p []byte) (A, uint16, error) {
	return t.ReadSource(wire.NewReader(bytes.NewReader(p)))
}

// Codec adapts the record type for use as a field of an enclosing
// aggregate. The nested value carries its own preamble and migrates on its
// own clock, independent of the outer type's revision.
func (t *RecordType[A]) Codec() adapt.Codec[A] {
	return adapt.Codec[A]{
		Write: func(w *wire.Writer, v A) error { return t.Write(w, &v) },
		Read:  func(r *wire.Reader) (A, error) { return t.Read(r) },
	}
}
