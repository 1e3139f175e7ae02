// Copyright 2026 The tzdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package zoneinfo parses and writes the zone database blob: a single
// big-endian file holding a header, a sorted index of zone identifiers and
// one transition table per zone.
//
// A blob looks like:
//
//	┌───────────────────┐
//	│ header (28 bytes) │
//	├───────────────────┤ <- indexOffset
//	│ index entries     │
//	│ (52 bytes each,   │
//	│ ascending by id)  │
//	├───────────────────┤ <- dataOffset
//	│ zone records      │
//	│                   │
//	│                   │
//	└───────────────────┘
//
// The header is:
//
//	 0    1    2    3    4    5    6    7    8    9   10   11
//	+----+----+----+----+----+----+----+----+----+----+----+----+
//	| 't'  'z'  'd'  'a'  't'  'a'| version label (5)      | \0 |
//	+----+----+----+----+----+----+----+----+----+----+----+----+
//	| format version    | index offset      | data offset       |
//	+----+----+----+----+----+----+----+----+----+----+----+----+
//	| reserved (0)      |
//	+----+----+----+----+
//
// Each index entry is a NUL-padded 40-byte zone name followed by the record
// offset relative to dataOffset, the record length and the zone's raw UTC
// offset in seconds, all int32.
//
// A zone record is a TZif version 1 header and data block (RFC 8536).  Only
// the transition times, transition types and local time types are retained.
// The version byte, reserved bytes, the isutcnt/isstdcnt/leapcnt counts,
// charcnt and each type's designation index are legacy fields: they are
// still read (skipped) so the cursor stays aligned, and their values are
// discarded.
package zoneinfo
