// Copyright 2026 The tzdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package tzdb reads a device's time zone database: a single read-only,
// memory-mapped blob holding a sorted index of zone identifiers and one
// transition table per zone.
//
// Open parses the header and index eagerly and decodes zone records lazily
// on lookup.  A Handle guards the process-wide instance: it opens the
// database once and swaps in a fully opened replacement on Reload, after an
// update bundle (see package bundle) has been applied to disk.
package tzdb
