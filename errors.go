// Copyright 2026 The tzdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package tzdb

import (
	"errors"
	"fmt"

	"github.com/bpowers/tzdb/internal/cursor"
	"github.com/bpowers/tzdb/internal/zoneinfo"
)

// Parse failures.  All of them are fatal to the operation that hit them.
var (
	ErrBadMagic                 = zoneinfo.ErrBadMagic
	ErrUnsupportedFormatVersion = zoneinfo.ErrUnsupportedFormatVersion
	ErrMalformedHeader          = zoneinfo.ErrMalformedHeader
	ErrMalformedIndex           = zoneinfo.ErrMalformedIndex
	ErrRecordTooShort           = zoneinfo.ErrRecordTooShort
	ErrTruncatedRecord          = zoneinfo.ErrTruncatedRecord
	ErrBadTypeIndex             = zoneinfo.ErrBadTypeIndex
	ErrOutOfBounds              = cursor.ErrOutOfBounds
)

var (
	// ErrNotFound is returned for zone ids the database doesn't contain.
	// It is an expected outcome, not a sign of corruption.
	ErrNotFound = errors.New("zone not found")
	ErrClosed   = errors.New("zone database closed")
)

// OpenError reports that a zone database could not be mapped or parsed.
// No partially constructed database is ever returned alongside it.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("open zone database %s: %s", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error {
	return e.Err
}
