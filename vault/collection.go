package vault

import (
	"bytes"
	"encoding/binary"
	"strconv"

	"github.com/cespare/xxhash"
	"github.com/cockroachdb/pebble"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/learn-decentralized-systems/toyqueue"
	"github.com/learn-decentralized-systems/toytlv"
	"github.com/pkg/errors"

	"github.com/hindsight-io/hindsight"
	"github.com/hindsight-io/hindsight/wire"
)

// Collection binds one record type to a key range of the vault. All rows in
// a collection share the type; their wire revisions may differ, which is the
// point.
type Collection[A any] struct {
	vault *Vault
	typ   *hindsight.RecordType[A]
	cache *lru.Cache[ID, *A]
}

// Use opens (or returns) the collection for t's type name.
func Use[A any](v *Vault, t *hindsight.RecordType[A]) (*Collection[A], error) {
	if v.db == nil {
		return nil, ErrClosed
	}
	c := &Collection[A]{vault: v, typ: t}
	c.cache, _ = lru.New[ID, *A](v.opts.CacheSize)
	actual, loaded := v.colls.LoadOrStore(t.Name(), c)
	if loaded {
		prev, ok := actual.(*Collection[A])
		if !ok {
			return nil, errors.Wrapf(ErrNameTaken, "collection %q", t.Name())
		}
		return prev, nil
	}
	return c, nil
}

// Row keys are 'O' ++ collection name ++ 0x00 ++ big-endian id.
func (c *Collection[A]) key(id ID) []byte {
	name := c.typ.Name()
	key := make([]byte, 0, 2+len(name)+8)
	key = append(key, 'O')
	key = append(key, name...)
	key = append(key, 0)
	return append(key, id.Bytes()...)
}

// Envelope builds the stored row for a value: a tiny 'H' record carrying
// the xxhash of the body, then a 'B' record with the encoded aggregate.
func (c *Collection[A]) Envelope(a *A) ([]byte, error) {
	body, err := c.typ.Marshal(a)
	if err != nil {
		return nil, err
	}
	var sum [8]byte
	binary.LittleEndian.PutUint64(sum[:], xxhash.Sum64(body))
	return toytlv.Concat(
		toytlv.TinyRecord('H', sum[:]),
		toytlv.Record('B', body),
	), nil
}

func (c *Collection[A]) open(row []byte) ([]byte, error) {
	sum, rest := toytlv.Take('H', row)
	if sum == nil || len(sum) != 8 {
		return nil, ErrBadRow
	}
	body, _ := toytlv.Take('B', rest)
	if body == nil {
		return nil, ErrBadRow
	}
	if binary.LittleEndian.Uint64(sum) != xxhash.Sum64(body) {
		return nil, ErrCorrupt
	}
	return body, nil
}

func (c *Collection[A]) Put(id ID, a *A) error {
	if c.vault.db == nil {
		return ErrClosed
	}
	row, err := c.Envelope(a)
	if err != nil {
		return err
	}
	wo := c.vault.sync()
	if err = c.vault.db.Set(c.key(id), row, &wo); err != nil {
		return errors.Wrap(err, "vault: put")
	}
	c.cache.Add(id, a)
	Writes.WithLabelValues(c.typ.Name()).Inc()
	return nil
}

// PutRecords writes pre-built envelopes (see Envelope) in one atomic batch.
func (c *Collection[A]) PutRecords(ids []ID, rows toyqueue.Records) error {
	if c.vault.db == nil {
		return ErrClosed
	}
	if len(ids) != len(rows) {
		return errors.New("vault: ids and rows out of step")
	}
	batch := c.vault.db.NewBatch()
	defer batch.Close()
	for i, id := range ids {
		if err := batch.Set(c.key(id), rows[i], nil); err != nil {
			return errors.Wrap(err, "vault: batch put")
		}
	}
	wo := c.vault.sync()
	if err := batch.Commit(&wo); err != nil {
		return errors.Wrap(err, "vault: batch commit")
	}
	for _, id := range ids {
		c.cache.Remove(id)
	}
	Writes.WithLabelValues(c.typ.Name()).Add(float64(len(ids)))
	return nil
}

func (c *Collection[A]) Get(id ID) (*A, error) {
	if c.vault.db == nil {
		return nil, ErrClosed
	}
	if a, ok := c.cache.Get(id); ok {
		CacheHits.WithLabelValues(c.typ.Name()).Inc()
		return a, nil
	}
	row, closer, err := c.vault.db.Get(c.key(id))
	if err == pebble.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "vault: get")
	}
	defer closer.Close()
	a, err := c.decodeRow(id, row)
	if err != nil {
		return nil, err
	}
	c.cache.Add(id, a)
	Reads.WithLabelValues(c.typ.Name()).Inc()
	return a, nil
}

func (c *Collection[A]) decodeRow(id ID, row []byte) (*A, error) {
	body, err := c.open(row)
	if err != nil {
		c.vault.log.Error("bad row", "collection", c.typ.Name(), "id", id.String(), "err", err)
		return nil, err
	}
	r := wire.NewReader(bytes.NewReader(body))
	if c.vault.opts.ReadLimit != 0 {
		r.Limit = c.vault.opts.ReadLimit
	}
	a, src, err := c.typ.ReadSource(r)
	if err != nil {
		return nil, err
	}
	if src != c.typ.Revision() {
		Migrations.WithLabelValues(c.typ.Name(), strconv.Itoa(int(src))).Inc()
		c.vault.log.Debug("migrated on read",
			"collection", c.typ.Name(), "id", id.String(),
			"from", src, "to", c.typ.Revision())
	}
	return &a, nil
}

func (c *Collection[A]) Delete(id ID) error {
	if c.vault.db == nil {
		return ErrClosed
	}
	wo := c.vault.sync()
	if err := c.vault.db.Delete(c.key(id), &wo); err != nil {
		return errors.Wrap(err, "vault: delete")
	}
	c.cache.Remove(id)
	return nil
}

// Scan visits every row in id order until fn returns false.
func (c *Collection[A]) Scan(fn func(id ID, a *A) bool) error {
	if c.vault.db == nil {
		return ErrClosed
	}
	lo := c.key(0)
	hi := c.key(BadId)
	hi = append(hi, 0)
	it, err := c.vault.db.NewIter(&pebble.IterOptions{LowerBound: lo, UpperBound: hi})
	if err != nil {
		return errors.Wrap(err, "vault: scan")
	}
	defer it.Close()
	prefix := len(lo) - 8
	for it.First(); it.Valid(); it.Next() {
		id := IDFromBytes(it.Key()[prefix:])
		a, err := c.decodeRow(id, it.Value())
		if err != nil {
			return err
		}
		if !fn(id, a) {
			break
		}
	}
	return it.Error()
}
