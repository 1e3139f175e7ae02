// Copyright 2026 The tzdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package zoneinfo

import (
	"fmt"

	"github.com/bpowers/tzdb/internal/cursor"
)

const (
	RecordMagic = "TZif"

	transitionSize = 4 + 1
	typeSize       = 4 + 1 + 1
)

// Type is a local time type: an offset from UTC and whether it is daylight
// saving time.
type Type struct {
	UTCOffset int32
	IsDST     bool
}

// Record is the decoded transition table of one zone.  TransitionTypes is
// parallel to TransitionTimes and indexes Types.
type Record struct {
	TransitionTimes []int32
	TransitionTypes []uint8
	Types           []Type
}

// Size is the encoded length of r.
func (r *Record) Size() int {
	return MinRecordLength + transitionSize*len(r.TransitionTimes) + typeSize*len(r.Types)
}

// Validate checks the parallel-slice and type index invariants.
func (r *Record) Validate() error {
	if len(r.TransitionTimes) != len(r.TransitionTypes) {
		return fmt.Errorf("%d transition times but %d transition types", len(r.TransitionTimes), len(r.TransitionTypes))
	}
	for i, ti := range r.TransitionTypes {
		if int(ti) >= len(r.Types) {
			return fmt.Errorf("%w: transition %d uses type %d of %d", ErrBadTypeIndex, i, ti, len(r.Types))
		}
	}
	return nil
}

// DecodeEntry decodes the record e points at, never reading outside the
// extent e declares.  A record whose contents run past its declared length
// fails with ErrTruncatedRecord even when the bytes are present in blob,
// since they belong to the next record.
func DecodeEntry(blob []byte, e Entry) (*Record, error) {
	if e.Offset < 0 || e.Length < 0 || e.Offset > len(blob) || e.Length > len(blob)-e.Offset {
		return nil, fmt.Errorf("%w: %s at %d+%d beyond bounds (%d)", ErrTruncatedRecord, e.ID, e.Offset, e.Length, len(blob))
	}
	r, err := Decode(cursor.New(blob[e.Offset:e.Offset+e.Length]), 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.ID, err)
	}
	return r, nil
}

// Decode reads the zone record at off.  The returned record does not
// alias c's region.
func Decode(c *cursor.Cursor, off int) (*Record, error) {
	if err := c.Seek(off); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTruncatedRecord, err)
	}
	magic, err := c.Bytes(len(RecordMagic))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTruncatedRecord, err)
	}
	if string(magic) != RecordMagic {
		return nil, fmt.Errorf("%w: zone record at %d starts with %q", ErrBadMagic, off, magic)
	}
	// version, reserved, isutcnt, isstdcnt and leapcnt: unused, but must be
	// skipped to stay aligned
	if err := c.Skip(recordHeaderSkip); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTruncatedRecord, err)
	}
	transitionCount, err := c.Int32()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTruncatedRecord, err)
	}
	typeCount, err := c.Int32()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTruncatedRecord, err)
	}
	// charcnt: unused
	if err := c.Skip(4); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTruncatedRecord, err)
	}

	if transitionCount < 0 || typeCount < 0 {
		return nil, fmt.Errorf("%w: negative counts (%d transitions, %d types)", ErrTruncatedRecord, transitionCount, typeCount)
	}
	need := int64(transitionCount)*transitionSize + int64(typeCount)*typeSize
	if need > int64(c.Remaining()) {
		return nil, fmt.Errorf("%w: %d transitions and %d types need %d bytes, %d remain", ErrTruncatedRecord, transitionCount, typeCount, need, c.Remaining())
	}

	r := &Record{
		TransitionTimes: make([]int32, transitionCount),
		TransitionTypes: make([]uint8, transitionCount),
		Types:           make([]Type, typeCount),
	}
	if err := c.Int32s(r.TransitionTimes); err != nil {
		return nil, fmt.Errorf("%w: transition times: %w", ErrTruncatedRecord, err)
	}
	if err := c.Read(r.TransitionTypes); err != nil {
		return nil, fmt.Errorf("%w: transition types: %w", ErrTruncatedRecord, err)
	}
	for i := range r.Types {
		utcOffset, err := c.Int32()
		if err != nil {
			return nil, fmt.Errorf("%w: type %d: %w", ErrTruncatedRecord, i, err)
		}
		isDST, err := c.Uint8()
		if err != nil {
			return nil, fmt.Errorf("%w: type %d: %w", ErrTruncatedRecord, i, err)
		}
		// abbreviation index: unused, but must be skipped to stay aligned
		if err := c.Skip(1); err != nil {
			return nil, fmt.Errorf("%w: type %d: %w", ErrTruncatedRecord, i, err)
		}
		r.Types[i] = Type{UTCOffset: utcOffset, IsDST: isDST != 0}
	}

	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}
