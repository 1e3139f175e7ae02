// Copyright 2026 The tzdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package bundle

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/bpowers/tzdb/checksum"
)

// BuilderOption configures the Builder.
type BuilderOption func(*builderOptions)

type builderOptions struct {
	logger *slog.Logger
}

// WithBuilderLogger sets an optional logger for the builder and the bundles
// it builds.  If not provided, no logging output will be produced.
func WithBuilderLogger(logger *slog.Logger) BuilderOption {
	return func(opts *builderOptions) {
		opts.logger = logger
	}
}

// Builder assembles a Bundle piece by piece.  It is not safe for concurrent
// use.  Build copies the builder's state, so a builder can keep being
// modified and built again afterwards.
type Builder struct {
	formatVersion string
	tzDataVersion string
	checksums     *orderedmap.OrderedMap[string, uint64]
	zoneDatabase  []byte
	auxiliaryData []byte
	logger        *slog.Logger
}

// NewBuilder returns an empty Builder.
func NewBuilder(opts ...BuilderOption) *Builder {
	var options builderOptions
	options.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	for _, opt := range opts {
		opt(&options)
	}
	return &Builder{
		checksums: orderedmap.New[string, uint64](),
		logger:    options.logger,
	}
}

// SetFormatVersion sets the optional bundle format version.
func (b *Builder) SetFormatVersion(v string) *Builder {
	b.formatVersion = v
	return b
}

// SetTzDataVersion sets the tzdata version, e.g. "2021a".
func (b *Builder) SetTzDataVersion(v string) *Builder {
	b.tzDataVersion = v
	return b
}

// AddChecksum records the expected checksum of fileName.  Adding a name a
// second time replaces its checksum but keeps its original position.
func (b *Builder) AddChecksum(fileName string, sum uint64) *Builder {
	b.checksums.Set(fileName, sum)
	return b
}

// AddChecksumFile computes the checksum of the file at path and records it
// under path.
func (b *Builder) AddChecksumFile(path string) error {
	sum, err := checksum.File(path)
	if err != nil {
		return err
	}
	b.AddChecksum(path, sum)
	return nil
}

// ClearChecksumEntries drops every checksum entry.
func (b *Builder) ClearChecksumEntries() *Builder {
	b.checksums = orderedmap.New[string, uint64]()
	return b
}

// AddZoneDatabase sets the zone database blob.  The bytes are copied.
func (b *Builder) AddZoneDatabase(blob []byte) *Builder {
	b.zoneDatabase = append([]byte{}, blob...)
	return b
}

// AddZoneDatabaseFile reads the zone database blob from path.
func (b *Builder) AddZoneDatabaseFile(path string) error {
	blob, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("os.ReadFile(%s): %w", path, err)
	}
	b.zoneDatabase = blob
	return nil
}

// ClearZoneDatabase removes the zone database blob.
func (b *Builder) ClearZoneDatabase() *Builder {
	b.zoneDatabase = nil
	return b
}

// AddAuxiliaryData sets the auxiliary locale data.  The bytes are copied.
func (b *Builder) AddAuxiliaryData(data []byte) *Builder {
	b.auxiliaryData = append([]byte{}, data...)
	return b
}

// AddAuxiliaryDataFile reads the auxiliary locale data from path.
func (b *Builder) AddAuxiliaryDataFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("os.ReadFile(%s): %w", path, err)
	}
	b.auxiliaryData = data
	return nil
}

// ClearAuxiliaryData removes the auxiliary locale data.
func (b *Builder) ClearAuxiliaryData() *Builder {
	b.auxiliaryData = nil
	return b
}

// Build returns the bundle, or ErrMissingVersion, ErrMissingZoneDatabase or
// ErrNoChecksums if a required part is missing.  Entries too large for Read
// to load fail with ErrEntryTooLarge.
func (b *Builder) Build() (*Bundle, error) {
	bundle := b.BuildUnvalidated()
	if err := bundle.Validate(); err != nil {
		return nil, err
	}
	manifest, err := bundle.manifest()
	if err != nil {
		return nil, err
	}
	for _, e := range []struct {
		name string
		size int
	}{
		{ChecksumsFileName, len(manifest)},
		{TzDataVersionFileName, len(bundle.tzDataVersion)},
		{ZoneDatabaseFileName, len(bundle.zoneDatabase)},
		{AuxiliaryDataFileName, len(bundle.auxiliaryData)},
	} {
		if err := checkEntrySize(e.name, e.size); err != nil {
			return nil, err
		}
	}
	return bundle, nil
}

// BuildUnvalidated returns the bundle without checking that required parts
// are present.  It exists so tests can produce deliberately incomplete
// bundles; production callers must use Build.
func (b *Builder) BuildUnvalidated() *Bundle {
	checksums := orderedmap.New[string, uint64]()
	for pair := b.checksums.Oldest(); pair != nil; pair = pair.Next() {
		checksums.Set(pair.Key, pair.Value)
	}
	return &Bundle{
		formatVersion: b.formatVersion,
		tzDataVersion: b.tzDataVersion,
		checksums:     checksums,
		zoneDatabase:  b.zoneDatabase,
		auxiliaryData: b.auxiliaryData,
		logger:        b.logger,
	}
}
