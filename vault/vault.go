// Package vault persists revision-tolerant aggregates in a pebble store.
// Rows are written at the current revision; rows written by older builds
// migrate transparently when read. The vault never rewrites old rows on its
// own; migration happens in memory, per read.
package vault

import (
	"log/slog"

	"github.com/cockroachdb/pebble"
	"github.com/pkg/errors"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/hindsight-io/hindsight/utils"
)

var (
	ErrClosed    = errors.New("vault: not open")
	ErrNotFound  = errors.New("vault: no such object")
	ErrCorrupt   = errors.New("vault: row checksum mismatch")
	ErrBadRow    = errors.New("vault: bad row envelope")
	ErrNameTaken = errors.New("vault: collection name in use")
)

type Options struct {
	Logger utils.Logger
	// CacheSize bounds each collection's decoded-value cache. Zero picks a
	// reasonable default.
	CacheSize int
	// ReadLimit caps any single length prefix while decoding rows. Zero
	// keeps the wire package's DefaultLimit.
	ReadLimit uint64
	// WriteSync makes every Put wait for the WAL.
	WriteSync bool
	Pebble    *pebble.Options
}

const defaultCacheSize = 1024

// Vault is one pebble database holding any number of named collections.
type Vault struct {
	db    *pebble.DB
	log   utils.Logger
	opts  Options
	colls *xsync.MapOf[string, any]
}

func Open(dir string, opts *Options) (*Vault, error) {
	if opts == nil {
		opts = &Options{}
	}
	if opts.Logger == nil {
		opts.Logger = utils.NewDefaultLogger(slog.LevelInfo)
	}
	if opts.CacheSize == 0 {
		opts.CacheSize = defaultCacheSize
	}
	popts := opts.Pebble
	if popts == nil {
		popts = &pebble.Options{}
	}
	db, err := pebble.Open(dir, popts)
	if err != nil {
		return nil, errors.Wrap(err, "vault: open")
	}
	opts.Logger.Info("vault open", "dir", dir)
	return &Vault{
		db:    db,
		log:   opts.Logger,
		opts:  *opts,
		colls: xsync.NewMapOf[string, any](),
	}, nil
}

func (v *Vault) Close() error {
	if v.db == nil {
		return ErrClosed
	}
	err := v.db.Close()
	v.db = nil
	v.log.Info("vault closed")
	return err
}

func (v *Vault) sync() pebble.WriteOptions {
	if v.opts.WriteSync {
		return *pebble.Sync
	}
	return *pebble.NoSync
}
