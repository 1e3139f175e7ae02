// Copyright 2026 The tzdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package zoneinfo

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strings"
)

const defaultBufferSize = 64 * 1024

// Zone is a single zone to be written into a blob.
type Zone struct {
	ID        string
	RawOffset int32
	Record    Record
}

// Write encodes a complete blob.  zones must be strictly ascending by ID.
func Write(w io.Writer, version string, zones []Zone) (n int64, err error) {
	if len(version) != VersionLabelLen {
		return 0, fmt.Errorf("version label %q must be %d bytes", version, VersionLabelLen)
	}
	for i := range zones {
		z := &zones[i]
		if z.ID == "" || len(z.ID) > NameLen {
			return 0, fmt.Errorf("zone id %q must be 1-%d bytes", z.ID, NameLen)
		}
		// names are NUL padded, so an embedded NUL would truncate the id
		if strings.IndexByte(z.ID, 0) >= 0 {
			return 0, fmt.Errorf("zone id %q contains a NUL byte", z.ID)
		}
		if i > 0 && zones[i-1].ID >= z.ID {
			return 0, fmt.Errorf("zone ids not strictly ascending: %q after %q", z.ID, zones[i-1].ID)
		}
		if err := z.Record.Validate(); err != nil {
			return 0, fmt.Errorf("zone %s: %w", z.ID, err)
		}
	}

	indexLen := IndexEntrySize * len(zones)
	if HeaderSize+indexLen > math.MaxInt32 {
		return 0, fmt.Errorf("too many zones (%d)", len(zones))
	}
	h := Header{
		Version:       version,
		FormatVersion: FileFormatVersion,
		IndexOffset:   HeaderSize,
		DataOffset:    HeaderSize + indexLen,
	}

	bw := bufio.NewWriterSize(w, defaultBufferSize)
	written, err := h.WriteTo(bw)
	if err != nil {
		return written, fmt.Errorf("Header.WriteTo: %w", err)
	}
	n += written

	var entry [IndexEntrySize]byte
	rel := 0
	for i := range zones {
		z := &zones[i]
		size := z.Record.Size()
		if int64(h.DataOffset)+int64(rel)+int64(size) > math.MaxInt32 {
			return n, fmt.Errorf("zone database has grown too large at %s", z.ID)
		}
		clear(entry[:])
		copy(entry[:NameLen], z.ID)
		binary.BigEndian.PutUint32(entry[NameLen:], uint32(rel))
		binary.BigEndian.PutUint32(entry[NameLen+4:], uint32(size))
		binary.BigEndian.PutUint32(entry[NameLen+8:], uint32(z.RawOffset))
		written, err := bw.Write(entry[:])
		n += int64(written)
		if err != nil {
			return n, fmt.Errorf("bufio.Write: %w", err)
		}
		rel += size
	}

	for i := range zones {
		written, err := writeRecord(bw, &zones[i].Record)
		n += written
		if err != nil {
			return n, fmt.Errorf("zone %s: %w", zones[i].ID, err)
		}
	}

	if err := bw.Flush(); err != nil {
		return n, fmt.Errorf("bufio.Flush: %w", err)
	}
	return n, nil
}

// Encode is Write into memory.
func Encode(version string, zones []Zone) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := Write(&buf, version, zones); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeRecord(w *bufio.Writer, r *Record) (int64, error) {
	buf := make([]byte, r.Size())
	n := copy(buf, RecordMagic)
	// legacy header fields are left zeroed
	n += recordHeaderSkip
	binary.BigEndian.PutUint32(buf[n:], uint32(len(r.TransitionTimes)))
	binary.BigEndian.PutUint32(buf[n+4:], uint32(len(r.Types)))
	binary.BigEndian.PutUint32(buf[n+8:], 0)
	n += 12
	for _, t := range r.TransitionTimes {
		binary.BigEndian.PutUint32(buf[n:], uint32(t))
		n += 4
	}
	n += copy(buf[n:], r.TransitionTypes)
	for _, t := range r.Types {
		binary.BigEndian.PutUint32(buf[n:], uint32(t.UTCOffset))
		if t.IsDST {
			buf[n+4] = 1
		}
		// buf[n+5] is the unused abbreviation index
		n += typeSize
	}
	if n != len(buf) {
		panic(fmt.Errorf("invariant broken: wrote %d of %d record bytes", n, len(buf)))
	}

	written, err := w.Write(buf)
	if err != nil {
		return int64(written), fmt.Errorf("bufio.Write: %w", err)
	}
	return int64(written), nil
}
