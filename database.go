// Copyright 2026 The tzdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package tzdb

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/alphadose/haxmap"
	"github.com/dgryski/go-farm"

	"github.com/bpowers/tzdb/internal/cursor"
	"github.com/bpowers/tzdb/internal/mmap"
	"github.com/bpowers/tzdb/internal/zoneinfo"
)

type (
	// Record is a zone's decoded transition table.  Records returned by a
	// Database are shared and must be treated as read-only.
	Record = zoneinfo.Record

	// Type is a local time type within a Record.
	Type = zoneinfo.Type
)

// Option configures a Database.
type Option func(*options)

type options struct {
	logger      *slog.Logger
	recordCache bool
}

// WithLogger sets an optional logger.  If not provided, no logging output
// will be produced.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

// WithRecordCache keeps each decoded record after its first lookup.  Memory
// use is then bounded by the number of distinct zones looked up rather than
// by the number of lookups in flight.
func WithRecordCache() Option {
	return func(opts *options) {
		opts.recordCache = true
	}
}

func newOptions(opts []Option) options {
	var o options
	o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Database is a read-only view of a memory-mapped zone database.  The
// header and index are parsed when it is opened; zone records are decoded
// on demand.  A Database is safe for any number of concurrent readers and is
// never modified after Open returns.
type Database struct {
	path        string
	m           *mmap.ReaderAt
	version     string
	index       zoneinfo.Index
	fingerprintOnce sync.Once
	fingerprint     uint64
	cache       *haxmap.Map[string, *Record]
	logger      *slog.Logger
	closed      atomic.Bool
}

// Open maps the zone database at path and parses its header and index.
// Any failure is returned as an *OpenError and nothing stays mapped.
func Open(path string, opts ...Option) (*Database, error) {
	o := newOptions(opts)

	m, err := mmap.Open(path)
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}
	data := m.Data()

	c := cursor.New(data)
	h, err := zoneinfo.ParseHeader(c)
	if err != nil {
		_ = m.Close()
		return nil, &OpenError{Path: path, Err: fmt.Errorf("zoneinfo.ParseHeader: %w", err)}
	}
	idx, err := zoneinfo.ParseIndex(c, h)
	if err != nil {
		_ = m.Close()
		return nil, &OpenError{Path: path, Err: fmt.Errorf("zoneinfo.ParseIndex: %w", err)}
	}

	db := &Database{
		path:        path,
		m:           m,
		version:     h.Version,
		index:       idx,
		logger:      o.logger,
	}
	if o.recordCache {
		db.cache = haxmap.New[string, *Record]()
	}

	db.logger.Info("opened zone database",
		"path", path,
		"version", db.version,
		"zones", len(idx))

	return db, nil
}

// Version returns the version label embedded in the header, e.g. "2021a".
func (db *Database) Version() string {
	return db.version
}

// Path returns the file the database was opened from.
func (db *Database) Path() string {
	return db.path
}

// Fingerprint is a 64-bit hash of the entire blob.  Two databases with equal
// fingerprints almost certainly hold the same bytes.  It is computed on the
// first call, which reads (and so faults in) every page of the mapping;
// lookups alone only touch the index and the records they decode.  After
// Close it returns 0.
func (db *Database) Fingerprint() uint64 {
	db.fingerprintOnce.Do(func() {
		if db.closed.Load() {
			return
		}
		db.fingerprint = farm.Fingerprint64(db.m.Data())
	})
	return db.fingerprint
}

// Len returns the number of zones.
func (db *Database) Len() int {
	return len(db.index)
}

// IDs returns every zone identifier in ascending order.
func (db *Database) IDs() []string {
	return db.index.IDs()
}

// Contains reports whether id is in the index, without decoding its record.
func (db *Database) Contains(id string) bool {
	_, ok := db.index.Search(id)
	return ok
}

// LookupByID returns the decoded record for id.  Unknown ids return
// ErrNotFound; a record that fails to decode returns a parse error.
func (db *Database) LookupByID(id string) (*Record, error) {
	if db.closed.Load() {
		return nil, ErrClosed
	}
	e, ok := db.index.Search(id)
	if !ok {
		return nil, fmt.Errorf("%q: %w", id, ErrNotFound)
	}

	if db.cache != nil {
		if r, ok := db.cache.Get(id); ok {
			return r, nil
		}
	}

	r, err := zoneinfo.DecodeEntry(db.m.Data(), e)
	if err != nil {
		return nil, err
	}

	if db.cache != nil {
		r, _ = db.cache.GetOrSet(id, r)
	}
	return r, nil
}

// IDsWithRawOffset returns the ids, in ascending order, of every zone whose
// raw (standard time) UTC offset is exactly seconds.
func (db *Database) IDsWithRawOffset(seconds int32) []string {
	return db.index.WithRawOffset(seconds)
}

// RawOffset returns the raw UTC offset recorded in the index for id.
func (db *Database) RawOffset(id string) (int32, bool) {
	e, ok := db.index.Search(id)
	if !ok {
		return 0, false
	}
	return e.RawOffset, true
}

// Close unmaps the database.  Lookups after Close return ErrClosed; callers
// must make sure no lookup or Fingerprint call is in flight when Close is
// called, since touching the unmapped region crashes the process.  Records
// already returned stay valid.  Close is safe to call more than once.
func (db *Database) Close() error {
	if db.closed.Swap(true) {
		return nil
	}
	if err := db.m.Close(); err != nil {
		return fmt.Errorf("mmap.Close: %w", err)
	}
	return nil
}
