// Copyright 2026 The tzdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package bundle builds and reads time zone update bundles.
//
// A bundle is a zip archive with up to four well-known entries, always
// written in this order:
//
//	checksums            one "checksum,fileName" line per file that must
//	                     match before the update is trusted
//	tzdata_version       the tzdata version, e.g. "2021a"
//	tzdata               the zone database blob
//	icu/icu_tzdata.dat   auxiliary locale data (opaque)
//
// Absent parts are omitted rather than written empty.  Entries are stored
// uncompressed and carry no timestamps, so the same inputs always produce
// byte-identical archives.  The optional bundle format version is stored as
// the archive comment.
package bundle

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/bpowers/tzdb/checksum"
)

const (
	ChecksumsFileName     = "checksums"
	TzDataVersionFileName = "tzdata_version"
	ZoneDatabaseFileName  = "tzdata"
	AuxiliaryDataFileName = "icu/icu_tzdata.dat"
)

// maxEntrySize bounds the size of any one entry.  Build refuses to produce
// an entry that Read would refuse to load.
var maxEntrySize = 64 << 20

var (
	ErrMissingVersion      = errors.New("bundle has no tzdata version")
	ErrMissingZoneDatabase = errors.New("bundle has no zone database")
	ErrNoChecksums         = errors.New("bundle has no checksum entries")
	ErrMalformedManifest   = errors.New("malformed checksum manifest")
	ErrChecksumMismatch    = errors.New("checksum mismatch")
	ErrUnexpectedEntry     = errors.New("unexpected bundle entry")
	ErrEntryTooLarge       = errors.New("bundle entry too large")
)

// ChecksumEntry is one line of the checksum manifest.
type ChecksumEntry struct {
	FileName string
	Checksum uint64
}

// Bundle is an immutable, fully assembled update bundle.
type Bundle struct {
	formatVersion string
	tzDataVersion string
	checksums     *orderedmap.OrderedMap[string, uint64]
	zoneDatabase  []byte
	auxiliaryData []byte
	logger        *slog.Logger
}

// FormatVersion returns the bundle format version, or "" if unset.
func (b *Bundle) FormatVersion() string {
	return b.formatVersion
}

// TzDataVersion returns the tzdata version, or "" if unset.
func (b *Bundle) TzDataVersion() string {
	return b.tzDataVersion
}

// ZoneDatabase returns the zone database blob, or nil if absent.  It must
// not be modified.
func (b *Bundle) ZoneDatabase() []byte {
	return b.zoneDatabase
}

// AuxiliaryData returns the auxiliary locale data, or nil if absent.  It
// must not be modified.
func (b *Bundle) AuxiliaryData() []byte {
	return b.auxiliaryData
}

// Checksums returns the manifest in insertion order.
func (b *Bundle) Checksums() []ChecksumEntry {
	entries := make([]ChecksumEntry, 0, b.checksums.Len())
	for pair := b.checksums.Oldest(); pair != nil; pair = pair.Next() {
		entries = append(entries, ChecksumEntry{FileName: pair.Key, Checksum: pair.Value})
	}
	return entries
}

// Checksum looks up the expected checksum for fileName.
func (b *Bundle) Checksum(fileName string) (uint64, bool) {
	return b.checksums.Get(fileName)
}

// Validate reports the first missing required part: the tzdata version,
// the zone database, then at least one checksum entry.
func (b *Bundle) Validate() error {
	if b.tzDataVersion == "" {
		return ErrMissingVersion
	}
	if b.zoneDatabase == nil {
		return ErrMissingZoneDatabase
	}
	if b.checksums.Len() == 0 {
		return ErrNoChecksums
	}
	return nil
}

func (b *Bundle) manifest() ([]byte, error) {
	var buf bytes.Buffer
	for pair := b.checksums.Oldest(); pair != nil; pair = pair.Next() {
		if err := validFileName(pair.Key); err != nil {
			return nil, err
		}
		buf.WriteString(strconv.FormatUint(pair.Value, 10))
		buf.WriteByte(',')
		buf.WriteString(pair.Key)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

func checkEntrySize(name string, size int) error {
	if size > maxEntrySize {
		return fmt.Errorf("%w: %s is %d bytes (maximum %d)", ErrEntryTooLarge, name, size, maxEntrySize)
	}
	return nil
}

func validFileName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty file name", ErrMalformedManifest)
	}
	if strings.ContainsAny(name, "\r\n") {
		return fmt.Errorf("%w: file name %q contains a line break", ErrMalformedManifest, name)
	}
	return nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// WriteTo serializes the bundle as a zip archive.
func (b *Bundle) WriteTo(w io.Writer) (int64, error) {
	manifest, err := b.manifest()
	if err != nil {
		return 0, err
	}

	cw := &countingWriter{w: w}
	zw := zip.NewWriter(cw)

	entries := []struct {
		name     string
		contents []byte
		present  bool
	}{
		{ChecksumsFileName, manifest, true},
		{TzDataVersionFileName, []byte(b.tzDataVersion), b.tzDataVersion != ""},
		{ZoneDatabaseFileName, b.zoneDatabase, b.zoneDatabase != nil},
		{AuxiliaryDataFileName, b.auxiliaryData, b.auxiliaryData != nil},
	}
	written := 0
	for _, e := range entries {
		if !e.present {
			continue
		}
		// no Modified time: identical inputs give identical archives
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:   e.name,
			Method: zip.Store,
		})
		if err != nil {
			return cw.n, fmt.Errorf("zip.CreateHeader(%s): %w", e.name, err)
		}
		if _, err := fw.Write(e.contents); err != nil {
			return cw.n, fmt.Errorf("write %s: %w", e.name, err)
		}
		written++
	}

	if b.formatVersion != "" {
		if err := zw.SetComment(b.formatVersion); err != nil {
			return cw.n, fmt.Errorf("zip.SetComment: %w", err)
		}
	}
	if err := zw.Close(); err != nil {
		return cw.n, fmt.Errorf("zip.Close: %w", err)
	}

	b.logger.Debug("serialized bundle",
		"tzdata_version", b.tzDataVersion,
		"entries", written,
		"bytes", cw.n)
	return cw.n, nil
}

// Bytes returns the serialized archive.
func (b *Bundle) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := b.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile serializes the bundle to a temporary file next to path and
// renames it into place, so a failure never leaves a partial archive at
// path.  The result is read-only.
func (b *Bundle) WriteFile(path string) error {
	path, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("filepath.Abs: %w", err)
	}
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, "tzbundle.*.zip")
	if err != nil {
		return fmt.Errorf("CreateTemp failed (may need permissions for dir %q): %w", dir, err)
	}
	cleanup := func() {
		_ = f.Close()
		_ = os.Remove(f.Name())
	}

	if _, err := b.WriteTo(f); err != nil {
		cleanup()
		return err
	}
	if err := f.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("f.Sync: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return fmt.Errorf("f.Close: %w", err)
	}
	// make the file read-only
	if err := os.Chmod(f.Name(), 0444); err != nil {
		_ = os.Remove(f.Name())
		return fmt.Errorf("os.Chmod(0444): %w", err)
	}
	if err := os.Rename(f.Name(), path); err != nil {
		_ = os.Remove(f.Name())
		return fmt.Errorf("os.Rename: %w", err)
	}

	b.logger.Info("wrote bundle", "path", path, "tzdata_version", b.tzDataVersion)
	return nil
}

// VerifyChecksums recomputes the checksum of every file named in the
// manifest and compares it with the recorded value.  Names are resolved
// under root when root is not empty, which allows checking a staged tree.
func (b *Bundle) VerifyChecksums(root string) error {
	for pair := b.checksums.Oldest(); pair != nil; pair = pair.Next() {
		path := pair.Key
		if root != "" {
			path = filepath.Join(root, path)
		}
		sum, err := checksum.File(path)
		if err != nil {
			return err
		}
		if sum != pair.Value {
			return fmt.Errorf("%w: %s is %d, manifest says %d", ErrChecksumMismatch, pair.Key, sum, pair.Value)
		}
	}
	return nil
}
