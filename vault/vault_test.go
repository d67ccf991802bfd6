package vault

import (
	"testing"

	"github.com/learn-decentralized-systems/toyqueue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hindsight-io/hindsight"
	"github.com/hindsight-io/hindsight/adapt"
	"github.com/hindsight-io/hindsight/utils"
)

type eventV1 struct {
	Kind string
}

var eventV1Type = hindsight.MustRecordType("event", 1, []hindsight.Field[eventV1]{
	hindsight.Live("kind", adapt.String, func(e *eventV1) *string { return &e.Kind }),
})

type event struct {
	Kind  string
	Count uint64
}

var eventType = hindsight.MustRecordType("event", 2, []hindsight.Field[event]{
	hindsight.Live("kind", adapt.String, func(e *event) *string { return &e.Kind }),
	hindsight.Added("count", 2, adapt.U64, func(e *event) *uint64 { return &e.Count },
		func(src uint16) (uint64, error) { return 1, nil }),
})

func testVault(t *testing.T) *Vault {
	t.Helper()
	v, err := Open(t.TempDir(), &Options{Logger: utils.NewNopLogger()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = v.Close() })
	return v
}

func TestPutGet(t *testing.T) {
	v := testVault(t)
	c, err := Use(v, eventType)
	require.NoError(t, err)

	id := NewID(1, 1)
	in := event{Kind: "click", Count: 3}
	require.NoError(t, c.Put(id, &in))

	got, err := c.Get(id)
	require.NoError(t, err)
	assert.Equal(t, in, *got)

	// Put primes the cache, so gets hand back the same decoded value
	again, err := c.Get(id)
	require.NoError(t, err)
	assert.Same(t, got, again)
}

func TestGetMissing(t *testing.T) {
	v := testVault(t)
	c, err := Use(v, eventType)
	require.NoError(t, err)

	_, err = c.Get(NewID(9, 9))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMigrateOnRead(t *testing.T) {
	dir := t.TempDir()
	id := NewID(1, 7)

	// a previous build of the program wrote revision 1 rows
	v1, err := Open(dir, &Options{Logger: utils.NewNopLogger()})
	require.NoError(t, err)
	old, err := Use(v1, eventV1Type)
	require.NoError(t, err)
	require.NoError(t, old.Put(id, &eventV1{Kind: "legacy"}))
	require.NoError(t, v1.Close())

	// the current build reads them back at revision 2
	v2, err := Open(dir, &Options{Logger: utils.NewNopLogger()})
	require.NoError(t, err)
	defer v2.Close()
	cur, err := Use(v2, eventType)
	require.NoError(t, err)

	got, err := cur.Get(id)
	require.NoError(t, err)
	assert.Equal(t, event{Kind: "legacy", Count: 1}, *got)
}

func TestCorruptRow(t *testing.T) {
	v := testVault(t)
	c, err := Use(v, eventType)
	require.NoError(t, err)

	id := NewID(2, 2)
	require.NoError(t, c.Put(id, &event{Kind: "x", Count: 1}))
	c.cache.Remove(id)

	// flip a byte inside the stored body
	key := c.key(id)
	row, closer, err := v.db.Get(key)
	require.NoError(t, err)
	evil := append([]byte{}, row...)
	require.NoError(t, closer.Close())
	evil[len(evil)-1] ^= 0xff
	wo := v.sync()
	require.NoError(t, v.db.Set(key, evil, &wo))

	_, err = c.Get(id)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestScan(t *testing.T) {
	v := testVault(t)
	c, err := Use(v, eventType)
	require.NoError(t, err)

	want := map[ID]event{
		NewID(1, 1): {Kind: "a", Count: 1},
		NewID(1, 2): {Kind: "b", Count: 2},
		NewID(2, 1): {Kind: "c", Count: 3},
	}
	for id, e := range want {
		e := e
		require.NoError(t, c.Put(id, &e))
	}

	var order []ID
	got := map[ID]event{}
	require.NoError(t, c.Scan(func(id ID, a *event) bool {
		order = append(order, id)
		got[id] = *a
		return true
	}))
	assert.Equal(t, want, got)
	assert.Equal(t, []ID{NewID(1, 1), NewID(1, 2), NewID(2, 1)}, order)
}

func TestPutRecords(t *testing.T) {
	v := testVault(t)
	c, err := Use(v, eventType)
	require.NoError(t, err)

	ids := []ID{NewID(3, 1), NewID(3, 2)}
	var rows toyqueue.Records
	for i := range ids {
		row, err := c.Envelope(&event{Kind: "bulk", Count: uint64(i)})
		require.NoError(t, err)
		rows = append(rows, row)
	}
	require.NoError(t, c.PutRecords(ids, rows))

	got, err := c.Get(ids[1])
	require.NoError(t, err)
	assert.Equal(t, event{Kind: "bulk", Count: 1}, *got)

	assert.Error(t, c.PutRecords(ids[:1], rows))
}

func TestUseTwice(t *testing.T) {
	v := testVault(t)
	one, err := Use(v, eventType)
	require.NoError(t, err)
	two, err := Use(v, eventType)
	require.NoError(t, err)
	assert.Same(t, one, two)
}

func TestClosedVault(t *testing.T) {
	v := testVault(t)
	c, err := Use(v, eventType)
	require.NoError(t, err)
	require.NoError(t, v.Close())

	assert.ErrorIs(t, c.Put(NewID(1, 1), &event{Kind: "x"}), ErrClosed)
	_, err = c.Get(NewID(1, 1))
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, v.Close(), ErrClosed)
}
