// Copyright 2026 The tzdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package bundle

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpowers/tzdb/checksum"
)

var (
	testZoneDatabase  = []byte("tzdata2021a\x00 pretend this is a zone database")
	testAuxiliaryData = []byte("icu resource bundle bytes")
)

func newTestBuilder() *Builder {
	return NewBuilder().
		SetTzDataVersion("2021a").
		AddChecksum("/system/usr/share/zoneinfo/tzdata", 1234).
		AddChecksum("/system/usr/icu/icudt.dat", 5678).
		AddZoneDatabase(testZoneDatabase).
		AddAuxiliaryData(testAuxiliaryData)
}

func entryNames(t *testing.T, archive []byte) []string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	require.NoError(t, err)
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names
}

func entry(t *testing.T, archive []byte, name string) []byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	require.NoError(t, err)
	rc, err := zr.Open(name)
	require.NoError(t, err)
	defer func() {
		_ = rc.Close()
	}()
	contents, err := io.ReadAll(rc)
	require.NoError(t, err)
	return contents
}

func TestBuilder_Build(t *testing.T) {
	b, err := NewBuilder().
		SetTzDataVersion("2021a").
		AddChecksum("/system/usr/share/zoneinfo/tzdata", 42).
		AddZoneDatabase(testZoneDatabase).
		Build()
	require.NoError(t, err)
	assert.Equal(t, "2021a", b.TzDataVersion())
	assert.Equal(t, testZoneDatabase, b.ZoneDatabase())
	assert.Nil(t, b.AuxiliaryData())
	assert.Equal(t, "", b.FormatVersion())
	assert.Equal(t, []ChecksumEntry{{FileName: "/system/usr/share/zoneinfo/tzdata", Checksum: 42}}, b.Checksums())

	_, err = NewBuilder().
		SetTzDataVersion("2021a").
		AddZoneDatabase(testZoneDatabase).
		Build()
	assert.ErrorIs(t, err, ErrNoChecksums)
}

func TestBuilder_MissingParts(t *testing.T) {
	_, err := NewBuilder().Build()
	assert.ErrorIs(t, err, ErrMissingVersion)

	_, err = newTestBuilder().SetTzDataVersion("").Build()
	assert.ErrorIs(t, err, ErrMissingVersion)

	_, err = newTestBuilder().ClearZoneDatabase().Build()
	assert.ErrorIs(t, err, ErrMissingZoneDatabase)

	_, err = newTestBuilder().ClearChecksumEntries().Build()
	assert.ErrorIs(t, err, ErrNoChecksums)

	_, err = newTestBuilder().AddChecksum("bad\nname", 1).Build()
	assert.ErrorIs(t, err, ErrMalformedManifest)

	_, err = newTestBuilder().AddChecksum("", 1).Build()
	assert.ErrorIs(t, err, ErrMalformedManifest)

	// an empty, but present, zone database is allowed
	_, err = newTestBuilder().AddZoneDatabase(nil).Build()
	assert.NoError(t, err)
}

func TestBuilder_Reusable(t *testing.T) {
	builder := newTestBuilder()
	first, err := builder.Build()
	require.NoError(t, err)

	builder.ClearChecksumEntries()
	_, err = builder.Build()
	require.ErrorIs(t, err, ErrNoChecksums)
	// earlier bundles don't see later changes
	assert.Len(t, first.Checksums(), 2)

	builder.AddChecksum("/data/misc/zoneinfo/current/tzdata", 7)
	second, err := builder.Build()
	require.NoError(t, err)
	assert.Equal(t, []ChecksumEntry{{FileName: "/data/misc/zoneinfo/current/tzdata", Checksum: 7}}, second.Checksums())

	builder.ClearZoneDatabase()
	_, err = builder.Build()
	require.ErrorIs(t, err, ErrMissingZoneDatabase)
	builder.AddZoneDatabase(testZoneDatabase)
	_, err = builder.Build()
	require.NoError(t, err)
}

func TestBuilder_ChecksumOrder(t *testing.T) {
	builder := NewBuilder().
		SetTzDataVersion("2021a").
		AddZoneDatabase(testZoneDatabase).
		AddChecksum("c", 3).
		AddChecksum("a", 1).
		AddChecksum("b", 2).
		AddChecksum("a", 11)
	b, err := builder.Build()
	require.NoError(t, err)

	assert.Equal(t, []ChecksumEntry{
		{FileName: "c", Checksum: 3},
		{FileName: "a", Checksum: 11},
		{FileName: "b", Checksum: 2},
	}, b.Checksums())
	sum, ok := b.Checksum("a")
	assert.True(t, ok)
	assert.Equal(t, uint64(11), sum)
	_, ok = b.Checksum("z")
	assert.False(t, ok)

	archive, err := b.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "3,c\n11,a\n2,b\n", string(entry(t, archive, ChecksumsFileName)))
}

func TestBundle_Serialize(t *testing.T) {
	b, err := newTestBuilder().Build()
	require.NoError(t, err)

	archive, err := b.Bytes()
	require.NoError(t, err)
	assert.Equal(t, []string{ChecksumsFileName, TzDataVersionFileName, ZoneDatabaseFileName, AuxiliaryDataFileName}, entryNames(t, archive))
	assert.Equal(t, "1234,/system/usr/share/zoneinfo/tzdata\n5678,/system/usr/icu/icudt.dat\n", string(entry(t, archive, ChecksumsFileName)))
	assert.Equal(t, "2021a", string(entry(t, archive, TzDataVersionFileName)))
	assert.Equal(t, testZoneDatabase, entry(t, archive, ZoneDatabaseFileName))
	assert.Equal(t, testAuxiliaryData, entry(t, archive, AuxiliaryDataFileName))

	var buf bytes.Buffer
	n, err := b.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(len(archive)), n)
}

func TestBundle_SerializeIsIdempotent(t *testing.T) {
	b, err := newTestBuilder().SetFormatVersion("1").Build()
	require.NoError(t, err)
	first, err := b.Bytes()
	require.NoError(t, err)
	second, err := b.Bytes()
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// a separate builder with the same inputs too
	other, err := newTestBuilder().SetFormatVersion("1").Build()
	require.NoError(t, err)
	third, err := other.Bytes()
	require.NoError(t, err)
	assert.Equal(t, first, third)
}

func TestBundle_OmitsAbsentEntries(t *testing.T) {
	b, err := newTestBuilder().ClearAuxiliaryData().Build()
	require.NoError(t, err)
	archive, err := b.Bytes()
	require.NoError(t, err)
	assert.Equal(t, []string{ChecksumsFileName, TzDataVersionFileName, ZoneDatabaseFileName}, entryNames(t, archive))

	// unvalidated bundles can omit everything but the manifest
	empty, err := NewBuilder().BuildUnvalidated().Bytes()
	require.NoError(t, err)
	assert.Equal(t, []string{ChecksumsFileName}, entryNames(t, empty))
	assert.Empty(t, entry(t, empty, ChecksumsFileName))
}

func TestBundle_RoundTrip(t *testing.T) {
	orig, err := newTestBuilder().SetFormatVersion("2").Build()
	require.NoError(t, err)
	archive, err := orig.Bytes()
	require.NoError(t, err)

	b, err := Read(bytes.NewReader(archive), int64(len(archive)))
	require.NoError(t, err)
	assert.Equal(t, "2", b.FormatVersion())
	assert.Equal(t, "2021a", b.TzDataVersion())
	assert.Equal(t, orig.Checksums(), b.Checksums())
	assert.Equal(t, testZoneDatabase, b.ZoneDatabase())
	assert.Equal(t, testAuxiliaryData, b.AuxiliaryData())

	// reserializing what was read gives the same archive
	again, err := b.Bytes()
	require.NoError(t, err)
	assert.Equal(t, archive, again)
}

func TestRead_Errors(t *testing.T) {
	_, err := Read(bytes.NewReader([]byte("not a zip")), 9)
	assert.Error(t, err)

	incomplete, err := NewBuilder().SetTzDataVersion("2021a").BuildUnvalidated().Bytes()
	require.NoError(t, err)
	_, err = Read(bytes.NewReader(incomplete), int64(len(incomplete)))
	assert.ErrorIs(t, err, ErrMissingZoneDatabase)

	for _, tc := range []struct {
		name    string
		entries map[string]string
		want    error
	}{
		{"bad checksum", map[string]string{ChecksumsFileName: "abc,/x\n"}, ErrMalformedManifest},
		{"no comma", map[string]string{ChecksumsFileName: "123\n"}, ErrMalformedManifest},
		{"empty name", map[string]string{ChecksumsFileName: "123,\n"}, ErrMalformedManifest},
		{"repeated name", map[string]string{ChecksumsFileName: "1,/x\n2,/x\n"}, ErrMalformedManifest},
		{"unknown entry", map[string]string{"extra": "?"}, ErrUnexpectedEntry},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			zw := zip.NewWriter(&buf)
			for name, contents := range tc.entries {
				w, err := zw.Create(name)
				require.NoError(t, err)
				_, err = w.Write([]byte(contents))
				require.NoError(t, err)
			}
			require.NoError(t, zw.Close())
			_, err := Read(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestBundle_WriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bundle.zip")

	b, err := newTestBuilder().Build()
	require.NoError(t, err)
	require.NoError(t, b.WriteFile(path))

	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0444), fi.Mode().Perm())

	read, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, b.Checksums(), read.Checksums())

	// overwriting an existing bundle replaces it
	b2, err := newTestBuilder().SetTzDataVersion("2021b").Build()
	require.NoError(t, err)
	require.NoError(t, b2.WriteFile(path))
	read, err = ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "2021b", read.TzDataVersion())

	// no temp files are left behind
	matches, err := filepath.Glob(filepath.Join(dir, "tzbundle.*"))
	require.NoError(t, err)
	assert.Empty(t, matches)

	err = b.WriteFile(filepath.Join(dir, "missing", "bundle.zip"))
	assert.Error(t, err)
	_, err = os.Stat(filepath.Join(dir, "missing", "bundle.zip"))
	assert.True(t, os.IsNotExist(err))

	_, err = ReadFile(filepath.Join(dir, "nope.zip"))
	assert.Error(t, err)
}

type failingWriter struct {
	after int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.after <= 0 {
		return 0, errors.New("write failed")
	}
	w.after--
	return len(p), nil
}

func TestBundle_WriteToErrors(t *testing.T) {
	b, err := newTestBuilder().Build()
	require.NoError(t, err)
	_, err = b.WriteTo(&failingWriter{})
	assert.Error(t, err)

	_, err = NewBuilder().AddChecksum("a\rb", 1).BuildUnvalidated().Bytes()
	assert.ErrorIs(t, err, ErrMalformedManifest)
}

func TestBuilder_Files(t *testing.T) {
	root := t.TempDir()
	tzdata := filepath.Join(root, "tzdata")
	icu := filepath.Join(root, "icu_tzdata.dat")
	require.NoError(t, os.WriteFile(tzdata, testZoneDatabase, 0644))
	require.NoError(t, os.WriteFile(icu, testAuxiliaryData, 0644))

	builder := NewBuilder().SetTzDataVersion("2021a")
	require.NoError(t, builder.AddZoneDatabaseFile(tzdata))
	require.NoError(t, builder.AddAuxiliaryDataFile(icu))
	require.NoError(t, builder.AddChecksumFile(tzdata))
	require.NoError(t, builder.AddChecksumFile(icu))
	assert.Error(t, builder.AddChecksumFile(filepath.Join(root, "missing")))
	assert.Error(t, builder.AddZoneDatabaseFile(filepath.Join(root, "missing")))
	assert.Error(t, builder.AddAuxiliaryDataFile(filepath.Join(root, "missing")))

	b, err := builder.Build()
	require.NoError(t, err)
	assert.Equal(t, testZoneDatabase, b.ZoneDatabase())
	assert.Equal(t, testAuxiliaryData, b.AuxiliaryData())

	want, err := checksum.File(tzdata)
	require.NoError(t, err)
	got, ok := b.Checksum(tzdata)
	require.True(t, ok)
	assert.Equal(t, want, got)

	require.NoError(t, b.VerifyChecksums(""))

	// modifying a checked file is detected
	require.NoError(t, os.WriteFile(icu, []byte("different"), 0644))
	assert.ErrorIs(t, b.VerifyChecksums(""), ErrChecksumMismatch)

	require.NoError(t, os.Remove(icu))
	err = b.VerifyChecksums("")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrChecksumMismatch))
}

func TestBundle_VerifyChecksumsStaged(t *testing.T) {
	staged := t.TempDir()
	target := "/system/usr/share/zoneinfo/tzdata"
	require.NoError(t, os.MkdirAll(filepath.Join(staged, filepath.Dir(target)), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(staged, target), testZoneDatabase, 0644))

	b, err := NewBuilder().
		SetTzDataVersion("2021a").
		AddZoneDatabase(testZoneDatabase).
		AddChecksum(target, checksum.Bytes(testZoneDatabase)).
		Build()
	require.NoError(t, err)
	require.NoError(t, b.VerifyChecksums(staged))

	bad, err := NewBuilder().
		SetTzDataVersion("2021a").
		AddZoneDatabase(testZoneDatabase).
		AddChecksum(target, checksum.Bytes(testZoneDatabase)+1).
		Build()
	require.NoError(t, err)
	assert.ErrorIs(t, bad.VerifyChecksums(staged), ErrChecksumMismatch)
}

func setMaxEntrySize(t *testing.T, n int) {
	t.Helper()
	prev := maxEntrySize
	maxEntrySize = n
	t.Cleanup(func() {
		maxEntrySize = prev
	})
}

func TestBuilder_EntryTooLarge(t *testing.T) {
	setMaxEntrySize(t, len(testZoneDatabase))
	small := func() *Builder {
		return NewBuilder().
			SetTzDataVersion("2021a").
			AddChecksum("/x", 1).
			AddZoneDatabase(testZoneDatabase)
	}

	// exactly at the limit is fine, and reads back
	b, err := small().Build()
	require.NoError(t, err)
	archive, err := b.Bytes()
	require.NoError(t, err)
	_, err = Read(bytes.NewReader(archive), int64(len(archive)))
	require.NoError(t, err)

	big := append(append([]byte{}, testZoneDatabase...), 'x')
	_, err = small().AddZoneDatabase(big).Build()
	assert.ErrorIs(t, err, ErrEntryTooLarge)
	_, err = small().AddAuxiliaryData(big).Build()
	assert.ErrorIs(t, err, ErrEntryTooLarge)

	many := small()
	for i := 0; i < len(testZoneDatabase); i++ {
		many.AddChecksum(filepath.Join("/system", string(rune('a'+i%26)), string(rune('a'+i/26))), uint64(i))
	}
	_, err = many.Build()
	assert.ErrorIs(t, err, ErrEntryTooLarge)

	// whatever Build refuses, Read refuses too
	unchecked, err := small().AddZoneDatabase(big).BuildUnvalidated().Bytes()
	require.NoError(t, err)
	_, err = Read(bytes.NewReader(unchecked), int64(len(unchecked)))
	assert.ErrorIs(t, err, ErrEntryTooLarge)
}
