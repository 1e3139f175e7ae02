// Copyright 2026 The tzdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package zoneinfo

import (
	"errors"
)

var (
	ErrBadMagic                 = errors.New("bad magic")
	ErrUnsupportedFormatVersion = errors.New("unsupported format version")
	ErrMalformedHeader          = errors.New("malformed header")
	ErrMalformedIndex           = errors.New("malformed index")
	ErrRecordTooShort           = errors.New("zone record too short")
	ErrTruncatedRecord          = errors.New("truncated zone record")
	ErrBadTypeIndex             = errors.New("transition type index out of range")
)
