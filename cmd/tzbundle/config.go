// Copyright 2026 The tzdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// config describes one bundle to build.
type config struct {
	TzDataVersion string `yaml:"tzdata_version"`
	FormatVersion string `yaml:"format_version"`
	ZoneDatabase  string `yaml:"zone_database"`
	AuxiliaryData string `yaml:"auxiliary_data"`
	// ChecksumFiles are recorded in the manifest exactly as written.
	ChecksumFiles []string `yaml:"checksum_files"`
	// StagingRoot, if set, is where ChecksumFiles are read from.
	StagingRoot string `yaml:"staging_root"`
	Output      string `yaml:"output"`

	dir string
}

var errNoConfig = errors.New("no config file given")

func loadConfig(path string) (*config, error) {
	if path == "" {
		return nil, errNoConfig
	}
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("os.ReadFile(%s): %w", path, err)
	}

	var cfg config
	dec := yaml.NewDecoder(bytes.NewReader(contents))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	cfg.dir = dir
	cfg.ZoneDatabase = resolve(dir, cfg.ZoneDatabase)
	cfg.AuxiliaryData = resolve(dir, cfg.AuxiliaryData)
	cfg.StagingRoot = resolve(dir, cfg.StagingRoot)
	cfg.Output = resolve(dir, cfg.Output)
	return &cfg, nil
}

// resolve interprets relative paths against dir, the config file's directory.
func resolve(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// checksumPath is where the contents of a manifest file name are read from.
func (c *config) checksumPath(name string) string {
	if c.StagingRoot != "" {
		return filepath.Join(c.StagingRoot, name)
	}
	return resolve(c.dir, name)
}
