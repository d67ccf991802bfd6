package hindsight

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hindsight-io/hindsight/adapt"
	"github.com/hindsight-io/hindsight/wire"
)

// The shape union went through three revisions:
//
//	rev 1: Zero | One(u32)
//	rev 2: Two(u64) | Three{a: i64, b: f32}
//	rev 3: Two(u64) | Three{a: i64, c: f64, d: string}
//
// Zero and One retired at revision 2, both upgrading into Two. Inside
// Three, b folded into c at revision 3 and d arrived with an empty default.
type shapeKind int

const (
	KindTwo shapeKind = iota
	KindThree
)

type shape struct {
	Kind  shapeKind
	Two   uint64
	Three threeBody
}

type threeBody struct {
	A int64
	C float64
	D string
}

// The Three payload evolves on the union's clock, so its record type is
// declared at the union's revision and decoded preamble-free.
var threeBodyType = MustRecordType("shape.three", 3, []Field[threeBody]{
	Live("a", adapt.I64, func(x *threeBody) *int64 { return &x.A }),
	Retired("b", 1, 3, adapt.F32, func(x *threeBody, src uint16, old float32) error {
		x.C = float64(old)
		return nil
	}),
	Added("c", 3, adapt.F64, func(x *threeBody) *float64 { return &x.C },
		func(src uint16) (float64, error) { return 0, nil }),
	Added("d", 3, adapt.String, func(x *threeBody) *string { return &x.D },
		func(src uint16) (string, error) { return "", nil }),
})

var shapeType = MustUnionType("shape", 3, func(a *shape) int {
	switch a.Kind {
	case KindTwo:
		return 2
	case KindThree:
		return 3
	}
	return -1
}, []Variant[shape]{
	{Name: "zero", Start: 1, End: 2,
		Upgrade: func(r *wire.Reader, src uint16) (shape, error) {
			return shape{Kind: KindTwo}, nil
		}},
	{Name: "one", Start: 1, End: 2,
		Upgrade: func(r *wire.Reader, src uint16) (shape, error) {
			v, err := adapt.U32.Read(r)
			if err != nil {
				return shape{}, err
			}
			return shape{Kind: KindTwo, Two: uint64(v)}, nil
		}},
	{Name: "two", Start: 2,
		Encode: func(w *wire.Writer, a *shape) error { return adapt.U64.Write(w, a.Two) },
		Decode: func(r *wire.Reader, src uint16) (shape, error) {
			v, err := adapt.U64.Read(r)
			return shape{Kind: KindTwo, Two: v}, err
		}},
	{Name: "three", Start: 2,
		Encode: func(w *wire.Writer, a *shape) error { return threeBodyType.EncodeBody(w, &a.Three) },
		Decode: func(r *wire.Reader, src uint16) (shape, error) {
			b, err := threeBodyType.DecodeBody(r, src)
			return shape{Kind: KindThree, Three: b}, err
		}},
})

func TestUnionRoundTrip(t *testing.T) {
	for _, v := range []shape{
		{Kind: KindTwo, Two: 0},
		{Kind: KindTwo, Two: 1 << 60},
		{Kind: KindThree, Three: threeBody{A: -5, C: 2.25, D: "payload"}},
	} {
		p, err := shapeType.Marshal(&v)
		require.NoError(t, err)
		back, err := shapeType.Unmarshal(p)
		require.NoError(t, err)
		assert.Equal(t, v, back)
	}
}

func TestUnionDiscriminantStability(t *testing.T) {
	v := shape{Kind: KindTwo, Two: 9}
	one, err := shapeType.Marshal(&v)
	require.NoError(t, err)
	two, err := shapeType.Marshal(&v)
	require.NoError(t, err)
	assert.Equal(t, one, two)
	// preamble 3, then discriminant 0: first live variant at revision 3
	assert.Equal(t, []byte{3, 0, 9}, one)
}

func TestUnionVariantRetirement(t *testing.T) {
	// Zero written at revision 1: preamble 1, discriminant 0, no payload
	got, err := shapeType.Unmarshal([]byte{1, 0})
	require.NoError(t, err)
	assert.Equal(t, shape{Kind: KindTwo, Two: 0}, got)

	// One(42) written at revision 1
	got, err = shapeType.Unmarshal([]byte{1, 1, 42})
	require.NoError(t, err)
	assert.Equal(t, shape{Kind: KindTwo, Two: 42}, got)
}

func TestUnionPayloadEvolution(t *testing.T) {
	// Three{a: 1, b: 2.5} written at revision 2: preamble 2, discriminant 1
	// (second live variant of that era), zigzagged a, f32 b
	p := []byte{2, 1, 2, 0x00, 0x00, 0x20, 0x40}
	got, err := shapeType.Unmarshal(p)
	require.NoError(t, err)
	assert.Equal(t, shape{Kind: KindThree, Three: threeBody{A: 1, C: 2.5, D: ""}}, got)
}

func TestUnionHistoricalWriter(t *testing.T) {
	// the rev-2 build of the program, reconstructed: Two | Three{a, b}
	type threeBodyV2 struct {
		A int64
		B float32
	}
	type shapeV2 struct {
		Kind  shapeKind
		Two   uint64
		Three threeBodyV2
	}
	threeV2 := MustRecordType("shape.three", 2, []Field[threeBodyV2]{
		Live("a", adapt.I64, func(x *threeBodyV2) *int64 { return &x.A }),
		Live("b", adapt.F32, func(x *threeBodyV2) *float32 { return &x.B }),
	})
	shapeV2Type := MustUnionType("shape", 2, func(a *shapeV2) int {
		switch a.Kind {
		case KindTwo:
			return 2
		case KindThree:
			return 3
		}
		return -1
	}, []Variant[shapeV2]{
		{Name: "zero", Start: 1, End: 2,
			Upgrade: func(r *wire.Reader, src uint16) (shapeV2, error) { return shapeV2{}, nil }},
		{Name: "one", Start: 1, End: 2,
			Upgrade: func(r *wire.Reader, src uint16) (shapeV2, error) { return shapeV2{}, nil }},
		{Name: "two", Start: 2,
			Encode: func(w *wire.Writer, a *shapeV2) error { return adapt.U64.Write(w, a.Two) },
			Decode: func(r *wire.Reader, src uint16) (shapeV2, error) {
				v, err := adapt.U64.Read(r)
				return shapeV2{Kind: KindTwo, Two: v}, err
			}},
		{Name: "three", Start: 2,
			Encode: func(w *wire.Writer, a *shapeV2) error { return threeV2.EncodeBody(w, &a.Three) },
			Decode: func(r *wire.Reader, src uint16) (shapeV2, error) {
				b, err := threeV2.DecodeBody(r, src)
				return shapeV2{Kind: KindThree, Three: b}, err
			}},
	})

	old := shapeV2{Kind: KindThree, Three: threeBodyV2{A: 1, B: 2.5}}
	p, err := shapeV2Type.Marshal(&old)
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 1, 2, 0x00, 0x00, 0x20, 0x40}, p)

	got, err := shapeType.Unmarshal(p)
	require.NoError(t, err)
	assert.Equal(t, shape{Kind: KindThree, Three: threeBody{A: 1, C: 2.5, D: ""}}, got)
}

func TestUnionRejection(t *testing.T) {
	_, err := shapeType.Unmarshal([]byte{})
	assert.ErrorIs(t, err, wire.ErrTruncated)

	_, err = shapeType.Unmarshal([]byte{0})
	assert.ErrorIs(t, err, ErrUnknownRevision)

	_, err = shapeType.Unmarshal([]byte{4, 0})
	assert.ErrorIs(t, err, ErrUnknownRevision)

	// discriminant 2 does not exist at revision 3
	_, err = shapeType.Unmarshal([]byte{3, 2})
	assert.ErrorIs(t, err, wire.ErrMalformed)

	// truncated mid-payload inside an upgrade is a stream fault, not a
	// conversion failure
	_, err = shapeType.Unmarshal([]byte{1, 1})
	assert.ErrorIs(t, err, wire.ErrTruncated)
	assert.NotErrorIs(t, err, ErrConversion)
}

func TestUnionUpgradeFailure(t *testing.T) {
	cause := errors.New("cannot lift")
	typ := MustUnionType("u", 2, func(a *shape) int { return 1 }, []Variant[shape]{
		{Name: "old", Start: 1, End: 2,
			Upgrade: func(r *wire.Reader, src uint16) (shape, error) { return shape{}, cause }},
		{Name: "new", Start: 2,
			Encode: func(w *wire.Writer, a *shape) error { return adapt.U64.Write(w, a.Two) },
			Decode: func(r *wire.Reader, src uint16) (shape, error) {
				v, err := adapt.U64.Read(r)
				return shape{Kind: KindTwo, Two: v}, err
			}},
	})
	_, err := typ.Unmarshal([]byte{1, 0})
	assert.ErrorIs(t, err, ErrConversion)
	assert.ErrorIs(t, err, cause)
}

func TestUnionWriteUnknownVariant(t *testing.T) {
	// a value whose kind maps to no declared variant (index -1)
	bad := shape{Kind: shapeKind(9)}
	_, err := shapeType.Marshal(&bad)
	assert.ErrorIs(t, err, ErrBadVariant)
}

func TestUnionValidation(t *testing.T) {
	enc := func(w *wire.Writer, a *shape) error { return nil }
	dec := func(r *wire.Reader, src uint16) (shape, error) { return shape{}, nil }

	// gap at revision 1: the only variant starts at 2
	_, err := NewUnionType("u", 2, func(a *shape) int { return 0 }, []Variant[shape]{
		{Name: "late", Start: 2, Encode: enc, Decode: dec},
	})
	assert.ErrorIs(t, err, ErrBadDescriptor)

	// retired variant without an upgrade
	_, err = NewUnionType("u", 2, func(a *shape) int { return 1 }, []Variant[shape]{
		{Name: "old", Start: 1, End: 2},
		{Name: "new", Start: 1, Encode: enc, Decode: dec},
	})
	assert.ErrorIs(t, err, ErrBadDescriptor)

	// live variant without a decoder
	_, err = NewUnionType("u", 1, func(a *shape) int { return 0 }, []Variant[shape]{
		{Name: "mute", Start: 1, Encode: enc},
	})
	assert.ErrorIs(t, err, ErrBadDescriptor)

	// no index function
	_, err = NewUnionType[shape]("u", 1, nil, []Variant[shape]{
		{Name: "v", Start: 1, Encode: enc, Decode: dec},
	})
	assert.ErrorIs(t, err, ErrBadDescriptor)
}
