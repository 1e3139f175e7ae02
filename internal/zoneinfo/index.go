// Copyright 2026 The tzdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package zoneinfo

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/bpowers/tzdb/internal/cursor"
)

const (
	NameLen          = 40
	IndexEntrySize   = NameLen + 3*4
	MinRecordLength  = 4 + 28 + 3*4
	recordHeaderSkip = 28
)

// Entry locates one zone's record within the blob.
type Entry struct {
	ID string
	// Offset is absolute from the start of the blob.
	Offset    int
	Length    int
	RawOffset int32
}

// Index is the zone table in ascending identifier order.
type Index []Entry

// ParseIndex reads every entry between h.IndexOffset and h.DataOffset.
// Entries must already be strictly ascending; the index is never re-sorted.
func ParseIndex(c *cursor.Cursor, h Header) (Index, error) {
	span := h.DataOffset - h.IndexOffset
	if span%IndexEntrySize != 0 {
		return nil, fmt.Errorf("%w: index span %d is not a multiple of %d", ErrMalformedIndex, span, IndexEntrySize)
	}
	if err := c.Seek(h.IndexOffset); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedIndex, err)
	}

	n := span / IndexEntrySize
	idx := make(Index, 0, n)
	for i := 0; i < n; i++ {
		name, err := c.Bytes(NameLen)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", ErrMalformedIndex, i, err)
		}
		rel, err := c.Int32()
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", ErrMalformedIndex, i, err)
		}
		length, err := c.Int32()
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", ErrMalformedIndex, i, err)
		}
		rawOffset, err := c.Int32()
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", ErrMalformedIndex, i, err)
		}

		id := string(bytes.TrimRight(name, "\x00"))
		if id == "" {
			return nil, fmt.Errorf("%w: entry %d has an empty identifier", ErrMalformedIndex, i)
		}
		if length < MinRecordLength {
			return nil, fmt.Errorf("%w: %s declares %d bytes (minimum %d)", ErrRecordTooShort, id, length, MinRecordLength)
		}
		if rel < 0 {
			return nil, fmt.Errorf("%w: %s has negative data offset %d", ErrMalformedIndex, id, rel)
		}
		if i > 0 && idx[i-1].ID >= id {
			return nil, fmt.Errorf("%w: %q sorts at or before %q", ErrMalformedIndex, id, idx[i-1].ID)
		}

		idx = append(idx, Entry{
			ID:        id,
			Offset:    h.DataOffset + int(rel),
			Length:    int(length),
			RawOffset: rawOffset,
		})
	}

	return idx, nil
}

// Search finds id with a binary search.
func (idx Index) Search(id string) (Entry, bool) {
	i := sort.Search(len(idx), func(i int) bool {
		return idx[i].ID >= id
	})
	if i < len(idx) && idx[i].ID == id {
		return idx[i], true
	}
	return Entry{}, false
}

// WithRawOffset returns, in index order, the ids whose raw offset is exactly
// seconds.
func (idx Index) WithRawOffset(seconds int32) []string {
	var ids []string
	for _, e := range idx {
		if e.RawOffset == seconds {
			ids = append(ids, e.ID)
		}
	}
	return ids
}

// IDs returns a copy of every identifier in order.
func (idx Index) IDs() []string {
	ids := make([]string, len(idx))
	for i, e := range idx {
		ids[i] = e.ID
	}
	return ids
}
