// Copyright 2026 The tzdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package checksum computes the content checksums recorded in update bundle
// manifests.
//
// The checksum is the IEEE CRC-32 of the file's bytes, zero-extended to 64
// bits.  It depends only on content: name, modification time and
// permissions do not affect it.
package checksum

import (
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
)

// BlockSize is the size of the reads used to stream file content.
const BlockSize = 8 * 1024

// File returns the checksum of the file at path.
func File(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("os.Open(%s): %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	sum, err := Reader(f)
	if err != nil {
		return 0, fmt.Errorf("checksum %s: %w", path, err)
	}
	return sum, nil
}

// Reader returns the checksum of everything remaining in r, read in
// BlockSize pieces.
func Reader(r io.Reader) (uint64, error) {
	var (
		crc uint32
		buf = make([]byte, BlockSize)
	)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			crc = crc32.Update(crc, crc32.IEEETable, buf[:n])
		}
		if errors.Is(err, io.EOF) {
			return uint64(crc), nil
		} else if err != nil {
			return 0, err
		}
	}
}

// Bytes returns the checksum of b.
func Bytes(b []byte) uint64 {
	return uint64(crc32.ChecksumIEEE(b))
}
