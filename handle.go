// Copyright 2026 The tzdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package tzdb

import (
	"sync"
	"sync/atomic"
)

// Handle owns the process's live Database.  The first Get opens it exactly
// once even when called concurrently, and Reload publishes a replacement
// only after it has been fully opened, so readers never see a partially
// built database.
type Handle struct {
	path string
	opts []Option

	mu sync.Mutex
	db atomic.Pointer[Database]
}

// NewHandle returns a Handle for the zone database at path.  Nothing is
// opened until the first Get or Reload.
func NewHandle(path string, opts ...Option) *Handle {
	return &Handle{
		path: path,
		opts: opts,
	}
}

// Path returns the file the handle opens.
func (h *Handle) Path() string {
	return h.path
}

// Get returns the live database, opening it on first use.  An open failure
// is returned to every caller until an open succeeds.
func (h *Handle) Get() (*Database, error) {
	if db := h.db.Load(); db != nil {
		return db, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if db := h.db.Load(); db != nil {
		return db, nil
	}
	db, err := Open(h.path, h.opts...)
	if err != nil {
		return nil, err
	}
	h.db.Store(db)
	return db, nil
}

// Reload opens the file at the handle's path again (typically after an
// update has been renamed over it) and publishes the result.  The previous
// database is returned so the caller can Close it once its in-flight
// readers are done; it is nil when there was none or when the file's
// contents are unchanged, in which case the live database is kept.  On
// error the live database is left as it was.
func (h *Handle) Reload() (prev *Database, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	next, err := Open(h.path, h.opts...)
	if err != nil {
		return nil, err
	}

	cur := h.db.Load()
	if cur != nil && cur.Fingerprint() == next.Fingerprint() {
		next.logger.Info("zone database unchanged, keeping live instance",
			"path", h.path,
			"version", cur.Version())
		_ = next.Close()
		return nil, nil
	}

	h.db.Store(next)
	if cur != nil {
		next.logger.Info("zone database replaced",
			"path", h.path,
			"old_version", cur.Version(),
			"new_version", next.Version())
	}
	return cur, nil
}

// Close closes the live database, if any.  A later Get opens it again.
// As with Database.Close, the caller must make sure no reader obtained from
// Get is still using the database: a lookup racing with Close touches
// unmapped memory and crashes the process instead of returning an error.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	db := h.db.Swap(nil)
	if db == nil {
		return nil
	}
	return db.Close()
}
