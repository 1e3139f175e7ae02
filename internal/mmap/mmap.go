// Copyright 2026 The tzdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package mmap maps files read-only into memory.
package mmap

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

var ErrEmptyFile = errors.New("cannot map an empty file")

// ReaderAt is a read-only view of a mapped file.  The bytes returned by Data
// are only valid until Close.
type ReaderAt struct {
	data     []byte
	isClosed atomic.Bool
}

// Open maps the file at path with PROT_READ.  The file descriptor is closed
// before returning; the mapping keeps the file contents alive.
func Open(path string) (*ReaderAt, error) {
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
	size := fi.Size()
	if size == 0 {
		return nil, ErrEmptyFile
	}
	if size < 0 || int64(int(size)) != size {
		return nil, fmt.Errorf("file %s has unmappable size %d", path, size)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("unix.Mmap: %w", err)
	}
	// lookups hop between the index and scattered zone records
	if err := unix.Madvise(data, unix.MADV_RANDOM); err != nil {
		_ = unix.Munmap(data)
		return nil, fmt.Errorf("madvise: %w", err)
	}

	return &ReaderAt{data: data}, nil
}

// Data returns the mapped region, or nil after Close.  It must never be
// written to.
func (r *ReaderAt) Data() []byte {
	if r.isClosed.Load() {
		return nil
	}
	return r.data
}

// Len returns the length of the mapping in bytes, or 0 after Close.
func (r *ReaderAt) Len() int {
	return len(r.Data())
}

// Close unmaps the region.  It is safe to call more than once, but not
// while another goroutine is still reading from Data's slice: touching an
// unmapped page crashes the process.
func (r *ReaderAt) Close() error {
	if r.isClosed.Swap(true) {
		return nil
	}
	// r.data is never written after Open, so concurrent Data calls don't race
	if err := unix.Munmap(r.data); err != nil {
		return fmt.Errorf("unix.Munmap: %w", err)
	}
	return nil
}
