package adapt

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/shopspring/decimal"

	"github.com/hindsight-io/hindsight/wire"
)

// Third-party value adapters. Frozen at their initial shape; none of them
// emits a revision preamble.

// UUID is 16 raw bytes.
var UUID = Codec[uuid.UUID]{
	Write: func(w *wire.Writer, v uuid.UUID) error { return w.Raw(v[:]) },
	Read: func(r *wire.Reader) (uuid.UUID, error) {
		var v uuid.UUID
		if err := r.Raw(v[:]); err != nil {
			return v, err
		}
		return v, nil
	},
}

// Time carries zigzagged unix seconds then the in-second nanoseconds.
// Decoded values are UTC; the zone is not part of the value.
var Time = Codec[time.Time]{
	Write: func(w *wire.Writer, v time.Time) error {
		if err := w.Varint(v.Unix()); err != nil {
			return err
		}
		return w.Uvarint(uint64(v.Nanosecond()))
	},
	Read: func(r *wire.Reader) (time.Time, error) {
		secs, err := r.Varint()
		if err != nil {
			return time.Time{}, err
		}
		nanos, err := r.Uvarint()
		if err != nil {
			return time.Time{}, err
		}
		if nanos >= uint64(time.Second) {
			return time.Time{}, fmt.Errorf("%w: %d nanoseconds", wire.ErrMalformed, nanos)
		}
		return time.Unix(secs, int64(nanos)).UTC(), nil
	},
}

// Decimal carries the coefficient and exponent as one string ("150e-2");
// shopspring round-trips it without loss of precision or scale.
var Decimal = Codec[decimal.Decimal]{
	Write: func(w *wire.Writer, v decimal.Decimal) error {
		return w.String(v.Coefficient().String() + "e" + strconv.Itoa(int(v.Exponent())))
	},
	Read: func(r *wire.Reader) (decimal.Decimal, error) {
		s, err := r.StringVal()
		if err != nil {
			return decimal.Decimal{}, err
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("%w: decimal %q", wire.ErrMalformed, s)
		}
		return d, nil
	},
}

// Regexp carries the pattern source and recompiles on decode.
var Regexp = Codec[*regexp.Regexp]{
	Write: func(w *wire.Writer, v *regexp.Regexp) error { return w.String(v.String()) },
	Read: func(r *wire.Reader) (*regexp.Regexp, error) {
		s, err := r.StringVal()
		if err != nil {
			return nil, err
		}
		re, err := regexp.Compile(s)
		if err != nil {
			return nil, fmt.Errorf("%w: regexp %q", wire.ErrMalformed, s)
		}
		return re, nil
	},
}

// Bitmap wraps the roaring portable serialization in a byte-counted blob.
var Bitmap = Codec[*roaring.Bitmap]{
	Write: func(w *wire.Writer, v *roaring.Bitmap) error {
		p, err := v.MarshalBinary()
		if err != nil {
			return err
		}
		return w.Bytes(p)
	},
	Read: func(r *wire.Reader) (*roaring.Bitmap, error) {
		p, err := r.BytesVal()
		if err != nil {
			return nil, err
		}
		b := roaring.New()
		if err = b.UnmarshalBinary(p); err != nil {
			return nil, fmt.Errorf("%w: roaring bitmap: %v", wire.ErrMalformed, err)
		}
		return b, nil
	},
}

// Geometry adapters: coordinates as fixed little-endian float64 streams.

var Point = Codec[orb.Point]{
	Write: func(w *wire.Writer, v orb.Point) error {
		if err := w.Float64(v[0]); err != nil {
			return err
		}
		return w.Float64(v[1])
	},
	Read: func(r *wire.Reader) (orb.Point, error) {
		var v orb.Point
		var err error
		if v[0], err = r.Float64(); err != nil {
			return v, err
		}
		v[1], err = r.Float64()
		return v, err
	},
}

var LineString = Codec[orb.LineString]{
	Write: func(w *wire.Writer, v orb.LineString) error {
		if err := w.Uvarint(uint64(len(v))); err != nil {
			return err
		}
		for _, p := range v {
			if err := Point.Write(w, p); err != nil {
				return err
			}
		}
		return nil
	},
	Read: func(r *wire.Reader) (orb.LineString, error) {
		n, err := r.Length()
		if err != nil {
			return nil, err
		}
		out := make(orb.LineString, n)
		for i := 0; i < n; i++ {
			if out[i], err = Point.Read(r); err != nil {
				return nil, err
			}
		}
		return out, nil
	},
}

var MultiPoint = Codec[orb.MultiPoint]{
	Write: func(w *wire.Writer, v orb.MultiPoint) error {
		return LineString.Write(w, orb.LineString(v))
	},
	Read: func(r *wire.Reader) (orb.MultiPoint, error) {
		ls, err := LineString.Read(r)
		return orb.MultiPoint(ls), err
	},
}

var Ring = Codec[orb.Ring]{
	Write: func(w *wire.Writer, v orb.Ring) error {
		return LineString.Write(w, orb.LineString(v))
	},
	Read: func(r *wire.Reader) (orb.Ring, error) {
		ls, err := LineString.Read(r)
		return orb.Ring(ls), err
	},
}

var Polygon = Codec[orb.Polygon]{
	Write: func(w *wire.Writer, v orb.Polygon) error {
		if err := w.Uvarint(uint64(len(v))); err != nil {
			return err
		}
		for _, ring := range v {
			if err := Ring.Write(w, ring); err != nil {
				return err
			}
		}
		return nil
	},
	Read: func(r *wire.Reader) (orb.Polygon, error) {
		n, err := r.Length()
		if err != nil {
			return nil, err
		}
		out := make(orb.Polygon, n)
		for i := 0; i < n; i++ {
			if out[i], err = Ring.Read(r); err != nil {
				return nil, err
			}
		}
		return out, nil
	},
}
