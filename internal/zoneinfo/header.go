// Copyright 2026 The tzdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package zoneinfo

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/bpowers/tzdb/internal/cursor"
)

const (
	Magic             = "tzdata"
	VersionLabelLen   = 5
	FileFormatVersion = 1

	HeaderSize = len(Magic) + VersionLabelLen + 1 + 4*4
)

// Header is the fixed preamble of a zone database blob.
type Header struct {
	Version       string
	FormatVersion uint32
	IndexOffset   int
	DataOffset    int
}

// ParseHeader reads the header from the start of c's region.  A non-zero
// reserved field is reported as ErrMalformedHeader before any other field
// is checked.
func ParseHeader(c *cursor.Cursor) (Header, error) {
	var h Header
	if err := c.Seek(0); err != nil {
		return h, fmt.Errorf("%w: %w", ErrMalformedHeader, err)
	}
	raw, err := c.Bytes(HeaderSize)
	if err != nil {
		return h, fmt.Errorf("%w: blob shorter than header: %w", ErrMalformedHeader, err)
	}

	tag := raw[:len(Magic)]
	label := raw[len(Magic) : len(Magic)+VersionLabelLen]
	nul := raw[len(Magic)+VersionLabelLen]
	ints := raw[len(Magic)+VersionLabelLen+1:]
	formatVersion := binary.BigEndian.Uint32(ints[0:4])
	indexOffset := int32(binary.BigEndian.Uint32(ints[4:8]))
	dataOffset := int32(binary.BigEndian.Uint32(ints[8:12]))
	reserved := binary.BigEndian.Uint32(ints[12:16])

	if reserved != 0 {
		return h, fmt.Errorf("%w: reserved field is %#x, expected 0", ErrMalformedHeader, reserved)
	}
	if string(tag) != Magic {
		return h, fmt.Errorf("%w: %q -- not a zone database or corrupted", ErrBadMagic, tag)
	}
	if nul != 0 {
		return h, fmt.Errorf("%w: version label not NUL terminated", ErrMalformedHeader)
	}
	if formatVersion != FileFormatVersion {
		return h, fmt.Errorf("%w: can only read v%d zone databases; found v%d", ErrUnsupportedFormatVersion, FileFormatVersion, formatVersion)
	}
	if indexOffset < int32(HeaderSize) || dataOffset < indexOffset || int(dataOffset) > c.Len() {
		return h, fmt.Errorf("%w: bad section offsets (index %d, data %d, len %d)", ErrMalformedHeader, indexOffset, dataOffset, c.Len())
	}

	h.Version = string(label)
	h.FormatVersion = formatVersion
	h.IndexOffset = int(indexOffset)
	h.DataOffset = int(dataOffset)
	return h, nil
}

// MarshalTo encodes h into the first HeaderSize bytes of buf.
func (h Header) MarshalTo(buf []byte) error {
	if len(buf) < HeaderSize {
		return fmt.Errorf("buffer too short: %d < %d", len(buf), HeaderSize)
	}
	if len(h.Version) != VersionLabelLen {
		return fmt.Errorf("version label %q must be %d bytes", h.Version, VersionLabelLen)
	}
	n := copy(buf, Magic)
	n += copy(buf[n:], h.Version)
	buf[n] = 0
	n++
	binary.BigEndian.PutUint32(buf[n:], h.FormatVersion)
	binary.BigEndian.PutUint32(buf[n+4:], uint32(h.IndexOffset))
	binary.BigEndian.PutUint32(buf[n+8:], uint32(h.DataOffset))
	binary.BigEndian.PutUint32(buf[n+12:], 0)
	return nil
}

func (h Header) WriteTo(w io.Writer) (n int64, err error) {
	var buf [HeaderSize]byte
	if err := h.MarshalTo(buf[:]); err != nil {
		return 0, err
	}
	written, err := w.Write(buf[:])
	if err != nil {
		return int64(written), fmt.Errorf("write: %w", err)
	}
	return int64(written), nil
}
