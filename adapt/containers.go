package adapt

import (
	"fmt"
	"sort"

	"golang.org/x/exp/constraints"

	"github.com/hindsight-io/hindsight/utils"
	"github.com/hindsight-io/hindsight/wire"
)

// Slice encodes a length prefix followed by the elements in order.
func Slice[T any](el Codec[T]) Codec[[]T] {
	return Codec[[]T]{
		Write: func(w *wire.Writer, v []T) error {
			if err := w.Uvarint(uint64(len(v))); err != nil {
				return err
			}
			for i := range v {
				if err := el.Write(w, v[i]); err != nil {
					return err
				}
			}
			return nil
		},
		Read: func(r *wire.Reader) ([]T, error) {
			n, err := r.Length()
			if err != nil {
				return nil, err
			}
			out := make([]T, n)
			for i := 0; i < n; i++ {
				if out[i], err = el.Read(r); err != nil {
					return nil, err
				}
			}
			return out, nil
		},
	}
}

// Array encodes exactly n elements with no length prefix.
func Array[T any](n int, el Codec[T]) Codec[[]T] {
	return Codec[[]T]{
		Write: func(w *wire.Writer, v []T) error {
			if len(v) != n {
				return fmt.Errorf("hindsight: array of %d elements, got %d", n, len(v))
			}
			for i := range v {
				if err := el.Write(w, v[i]); err != nil {
					return err
				}
			}
			return nil
		},
		Read: func(r *wire.Reader) ([]T, error) {
			out := make([]T, n)
			for i := 0; i < n; i++ {
				var err error
				if out[i], err = el.Read(r); err != nil {
					return nil, err
				}
			}
			return out, nil
		},
	}
}

// MapOf encodes a length prefix then key,value per entry in Go's map
// iteration order. Emission order is not deterministic; compare decoded
// values, not bytes.
func MapOf[K comparable, V any](kc Codec[K], vc Codec[V]) Codec[map[K]V] {
	return Codec[map[K]V]{
		Write: func(w *wire.Writer, m map[K]V) error {
			if err := w.Uvarint(uint64(len(m))); err != nil {
				return err
			}
			for k, v := range m {
				if err := kc.Write(w, k); err != nil {
					return err
				}
				if err := vc.Write(w, v); err != nil {
					return err
				}
			}
			return nil
		},
		Read: readMap(kc, vc),
	}
}

// SortedMap is MapOf with keys emitted in ascending order, for callers that
// need byte-stable output.
func SortedMap[K constraints.Ordered, V any](kc Codec[K], vc Codec[V]) Codec[map[K]V] {
	return Codec[map[K]V]{
		Write: func(w *wire.Writer, m map[K]V) error {
			if err := w.Uvarint(uint64(len(m))); err != nil {
				return err
			}
			keys := make([]K, 0, len(m))
			for k := range m {
				keys = append(keys, k)
			}
			sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
			for _, k := range keys {
				if err := kc.Write(w, k); err != nil {
					return err
				}
				if err := vc.Write(w, m[k]); err != nil {
					return err
				}
			}
			return nil
		},
		Read: readMap(kc, vc),
	}
}

func readMap[K comparable, V any](kc Codec[K], vc Codec[V]) func(r *wire.Reader) (map[K]V, error) {
	return func(r *wire.Reader) (map[K]V, error) {
		n, err := r.Length()
		if err != nil {
			return nil, err
		}
		m := make(map[K]V, n)
		for i := 0; i < n; i++ {
			k, err := kc.Read(r)
			if err != nil {
				return nil, err
			}
			v, err := vc.Read(r)
			if err != nil {
				return nil, err
			}
			m[k] = v
		}
		return m, nil
	}
}

// Set encodes a length prefix then the elements in map iteration order.
func Set[T comparable](el Codec[T]) Codec[map[T]struct{}] {
	return Codec[map[T]struct{}]{
		Write: func(w *wire.Writer, s map[T]struct{}) error {
			if err := w.Uvarint(uint64(len(s))); err != nil {
				return err
			}
			for v := range s {
				if err := el.Write(w, v); err != nil {
					return err
				}
			}
			return nil
		},
		Read: readSet(el),
	}
}

// SortedSet is Set with ascending emission order.
func SortedSet[T constraints.Ordered](el Codec[T]) Codec[map[T]struct{}] {
	return Codec[map[T]struct{}]{
		Write: func(w *wire.Writer, s map[T]struct{}) error {
			if err := w.Uvarint(uint64(len(s))); err != nil {
				return err
			}
			vals := make([]T, 0, len(s))
			for v := range s {
				vals = append(vals, v)
			}
			sort.Slice(vals, func(i, j int) bool { return vals[i] < vals[j] })
			for _, v := range vals {
				if err := el.Write(w, v); err != nil {
					return err
				}
			}
			return nil
		},
		Read: readSet(el),
	}
}

func readSet[T comparable](el Codec[T]) func(r *wire.Reader) (map[T]struct{}, error) {
	return func(r *wire.Reader) (map[T]struct{}, error) {
		n, err := r.Length()
		if err != nil {
			return nil, err
		}
		s := make(map[T]struct{}, n)
		for i := 0; i < n; i++ {
			v, err := el.Read(r)
			if err != nil {
				return nil, err
			}
			s[v] = struct{}{}
		}
		return s, nil
	}
}

// HeapOf encodes the heap's current layout as a length-prefixed element
// stream. Decoding re-pushes every element, so the invariant holds whatever
// order the bytes arrive in.
func HeapOf[T constraints.Ordered](el Codec[T]) Codec[*utils.Heap[T]] {
	return Codec[*utils.Heap[T]]{
		Write: func(w *wire.Writer, h *utils.Heap[T]) error {
			items := h.Items()
			if err := w.Uvarint(uint64(len(items))); err != nil {
				return err
			}
			for _, v := range items {
				if err := el.Write(w, v); err != nil {
					return err
				}
			}
			return nil
		},
		Read: func(r *wire.Reader) (*utils.Heap[T], error) {
			n, err := r.Length()
			if err != nil {
				return nil, err
			}
			h := &utils.Heap[T]{}
			for i := 0; i < n; i++ {
				v, err := el.Read(r)
				if err != nil {
					return nil, err
				}
				h.Push(v)
			}
			return h, nil
		},
	}
}
