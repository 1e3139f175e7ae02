// Copyright 2026 The tzdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package bundle

import (
	"archive/zip"
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ReadFile opens and parses the archive at path.  See Read.
func ReadFile(path string) (*Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("os.Open(%s): %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()
	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("f.Stat: %w", err)
	}
	return Read(f, fi.Size())
}

// Read parses a serialized bundle and validates it the same way Build does.
// Entries are looked up by name; their order in the archive doesn't matter.
func Read(r io.ReaderAt, size int64) (*Bundle, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("zip.NewReader: %w", err)
	}

	b := &Bundle{
		formatVersion: zr.Comment,
		checksums:     orderedmap.New[string, uint64](),
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	seen := make(map[string]bool)
	for _, f := range zr.File {
		if seen[f.Name] {
			return nil, fmt.Errorf("%w: duplicate %q", ErrUnexpectedEntry, f.Name)
		}
		seen[f.Name] = true

		contents, err := readEntry(f)
		if err != nil {
			return nil, err
		}
		switch f.Name {
		case ChecksumsFileName:
			if err := parseManifest(contents, b.checksums); err != nil {
				return nil, err
			}
		case TzDataVersionFileName:
			b.tzDataVersion = string(contents)
		case ZoneDatabaseFileName:
			b.zoneDatabase = contents
		case AuxiliaryDataFileName:
			b.auxiliaryData = contents
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnexpectedEntry, f.Name)
		}
	}

	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	if f.UncompressedSize64 > uint64(maxEntrySize) {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrEntryTooLarge, f.Name, f.UncompressedSize64)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer func() {
		_ = rc.Close()
	}()
	contents, err := io.ReadAll(io.LimitReader(rc, int64(maxEntrySize)+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}
	if len(contents) > maxEntrySize {
		return nil, fmt.Errorf("%w: %s", ErrEntryTooLarge, f.Name)
	}
	return contents, nil
}

func parseManifest(contents []byte, into *orderedmap.OrderedMap[string, uint64]) error {
	s := bufio.NewScanner(bytes.NewReader(contents))
	line := 0
	for s.Scan() {
		line++
		text := s.Text()
		if text == "" {
			continue
		}
		sumText, name, ok := strings.Cut(text, ",")
		if !ok {
			return fmt.Errorf("%w: line %d has no ','", ErrMalformedManifest, line)
		}
		sum, err := strconv.ParseUint(sumText, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: line %d: %w", ErrMalformedManifest, line, err)
		}
		if err := validFileName(name); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if _, present := into.Get(name); present {
			return fmt.Errorf("%w: line %d repeats %q", ErrMalformedManifest, line, name)
		}
		into.Set(name, sum)
	}
	if err := s.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedManifest, err)
	}
	return nil
}
