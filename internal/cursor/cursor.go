// Copyright 2026 The tzdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package cursor provides a sequential big-endian reader over a fixed
// byte region.
package cursor

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var ErrOutOfBounds = errors.New("read out of bounds")

// Cursor reads fixed-width big-endian values from a byte region.  A failed
// read leaves the position unchanged and never returns partial data.
// Cursors are cheap: hand each goroutine its own.
type Cursor struct {
	buf []byte
	off int
}

// New returns a cursor positioned at the start of buf.
func New(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Len returns the size of the underlying region.
func (c *Cursor) Len() int {
	return len(c.buf)
}

// Offset returns the current absolute position.
func (c *Cursor) Offset() int {
	return c.off
}

// Remaining returns the number of bytes between the position and the end
// of the region.
func (c *Cursor) Remaining() int {
	return len(c.buf) - c.off
}

// Seek moves to an absolute offset.  Seeking exactly to the end is allowed.
func (c *Cursor) Seek(off int) error {
	if off < 0 || off > len(c.buf) {
		return fmt.Errorf("seek to %d (len %d): %w", off, len(c.buf), ErrOutOfBounds)
	}
	c.off = off
	return nil
}

// Skip advances the position by n bytes.
func (c *Cursor) Skip(n int) error {
	if _, err := c.take(n); err != nil {
		return err
	}
	return nil
}

func (c *Cursor) take(n int) ([]byte, error) {
	if n < 0 || n > len(c.buf)-c.off {
		return nil, fmt.Errorf("read of %d bytes at %d (len %d): %w", n, c.off, len(c.buf), ErrOutOfBounds)
	}
	b := c.buf[c.off : c.off+n]
	c.off += n
	return b, nil
}

// Read copies len(dst) bytes into dst.
func (c *Cursor) Read(dst []byte) error {
	b, err := c.take(len(dst))
	if err != nil {
		return err
	}
	copy(dst, b)
	return nil
}

// Bytes returns the next n bytes without copying.  The returned slice
// aliases the region and must not be written to.
func (c *Cursor) Bytes(n int) ([]byte, error) {
	return c.take(n)
}

func (c *Cursor) Uint8() (uint8, error) {
	b, err := c.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *Cursor) Uint32() (uint32, error) {
	b, err := c.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (c *Cursor) Int32() (int32, error) {
	v, err := c.Uint32()
	return int32(v), err
}

func (c *Cursor) Uint64() (uint64, error) {
	b, err := c.take(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// Int32s fills dst with consecutive 32-bit signed integers.
func (c *Cursor) Int32s(dst []int32) error {
	b, err := c.take(4 * len(dst))
	if err != nil {
		return err
	}
	for i := range dst {
		dst[i] = int32(binary.BigEndian.Uint32(b[i*4 : i*4+4]))
	}
	return nil
}
