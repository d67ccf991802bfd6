package wire

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"
)

// ZigZagInt64 folds the sign into the low bit so that small magnitudes of
// either sign stay small on the wire.
func ZigZagInt64(i int64) uint64 {
	return uint64(i*2) ^ uint64(i>>63)
}

func ZagZigUint64(u uint64) int64 {
	half := u >> 1
	mask := -(u & 1)
	return int64(half ^ mask)
}

func (w *Writer) Uvarint(v uint64) error {
	b := w.scratch[:]
	switch {
	case v <= MaxEmbedded:
		b[0] = byte(v)
		b = b[:1]
	case v <= math.MaxUint16:
		b[0] = Tag16
		binary.LittleEndian.PutUint16(b[1:3], uint16(v))
		b = b[:3]
	case v <= math.MaxUint32:
		b[0] = Tag32
		binary.LittleEndian.PutUint32(b[1:5], uint32(v))
		b = b[:5]
	default:
		b[0] = Tag64
		binary.LittleEndian.PutUint64(b[1:9], v)
		b = b[:9]
	}
	return w.Raw(b)
}

func (r *Reader) Uvarint() (uint64, error) {
	tag, err := r.byte()
	if err != nil {
		return 0, err
	}
	switch tag {
	case Tag16:
		if err = r.Raw(r.scratch[:2]); err != nil {
			return 0, err
		}
		return uint64(binary.LittleEndian.Uint16(r.scratch[:2])), nil
	case Tag32:
		if err = r.Raw(r.scratch[:4]); err != nil {
			return 0, err
		}
		return uint64(binary.LittleEndian.Uint32(r.scratch[:4])), nil
	case Tag64:
		if err = r.Raw(r.scratch[:8]); err != nil {
			return 0, err
		}
		return binary.LittleEndian.Uint64(r.scratch[:8]), nil
	case Tag128:
		return 0, fmt.Errorf("%w: 128-bit integer", ErrUnsupported)
	case 255:
		return 0, fmt.Errorf("%w: integer tag 255", ErrMalformed)
	default:
		return uint64(tag), nil
	}
}

func (w *Writer) Varint(v int64) error {
	return w.Uvarint(ZigZagInt64(v))
}

func (r *Reader) Varint() (int64, error) {
	u, err := r.Uvarint()
	if err != nil {
		return 0, err
	}
	return ZagZigUint64(u), nil
}

// Length reads a container length prefix, bounded by the reader's limit.
func (r *Reader) Length() (int, error) {
	n, err := r.Uvarint()
	if err != nil {
		return 0, err
	}
	if n > r.Limit {
		return 0, fmt.Errorf("%w: length %d over limit %d", ErrMalformed, n, r.Limit)
	}
	return int(n), nil
}

func (w *Writer) Bool(v bool) error {
	b := byte(0)
	if v {
		b = 1
	}
	w.scratch[0] = b
	return w.Raw(w.scratch[:1])
}

func (r *Reader) Bool() (bool, error) {
	b, err := r.byte()
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("%w: boolean byte %#x", ErrMalformed, b)
	}
}

func (w *Writer) Uint8(v uint8) error {
	w.scratch[0] = v
	return w.Raw(w.scratch[:1])
}

func (r *Reader) Uint8() (uint8, error) {
	return r.byte()
}

func (w *Writer) Float32(v float32) error {
	binary.LittleEndian.PutUint32(w.scratch[:4], math.Float32bits(v))
	return w.Raw(w.scratch[:4])
}

func (r *Reader) Float32() (float32, error) {
	if err := r.Raw(r.scratch[:4]); err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(r.scratch[:4])), nil
}

func (w *Writer) Float64(v float64) error {
	binary.LittleEndian.PutUint64(w.scratch[:8], math.Float64bits(v))
	return w.Raw(w.scratch[:8])
}

func (r *Reader) Float64() (float64, error) {
	if err := r.Raw(r.scratch[:8]); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(r.scratch[:8])), nil
}

const (
	surrogateMin = 0xd800
	surrogateMax = 0xdfff
)

// Rune carries the Unicode scalar value as a fixed 32-bit little-endian
// integer. Surrogates and out-of-range values are not scalar values.
func (w *Writer) Rune(v rune) error {
	if (v >= surrogateMin && v <= surrogateMax) || v < 0 || v > utf8.MaxRune {
		return fmt.Errorf("%w: rune %#x is not a Unicode scalar", ErrMalformed, v)
	}
	binary.LittleEndian.PutUint32(w.scratch[:4], uint32(v))
	return w.Raw(w.scratch[:4])
}

func (r *Reader) Rune() (rune, error) {
	if err := r.Raw(r.scratch[:4]); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.scratch[:4])
	if (v >= surrogateMin && v <= surrogateMax) || v > utf8.MaxRune {
		return 0, fmt.Errorf("%w: rune %#x is not a Unicode scalar", ErrMalformed, v)
	}
	return rune(v), nil
}

func (w *Writer) Bytes(p []byte) error {
	if err := w.Uvarint(uint64(len(p))); err != nil {
		return err
	}
	return w.Raw(p)
}

func (r *Reader) BytesVal() ([]byte, error) {
	n, err := r.Length()
	if err != nil {
		return nil, err
	}
	p := make([]byte, n)
	if err = r.Raw(p); err != nil {
		return nil, err
	}
	return p, nil
}

func (w *Writer) String(s string) error {
	if err := w.Uvarint(uint64(len(s))); err != nil {
		return err
	}
	return w.Raw([]byte(s))
}

func (r *Reader) StringVal() (string, error) {
	p, err := r.BytesVal()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(p) {
		return "", fmt.Errorf("%w: invalid UTF-8 string", ErrMalformed)
	}
	return string(p), nil
}
