// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package memory

import (
	"fmt"
)

// RAM represents a simulated physical memory range, it implements
// [io.ReaderAt] and [io.WriterAt] with offsets interpreted as physical
// addresses.
type RAM struct {
	Base uint64
	Data []byte
}

// NewRAM allocates size bytes of simulated memory at base.
func NewRAM(base uint64, size int) *RAM {
	return &RAM{
		Base: base,
		Data: make([]byte, size),
	}
}

func (r *RAM) slice(n int, off int64) (buf []byte, err error) {
	addr := uint64(off)

	if off < 0 || addr < r.Base || addr-r.Base > uint64(len(r.Data)) || uint64(n) > uint64(len(r.Data))-(addr-r.Base) {
		return nil, fmt.Errorf("%#08x-%#08x outside of simulated memory", addr, addr+uint64(n))
	}

	return r.Data[addr-r.Base:], nil
}

// ReadAt reads len(p) bytes at physical address off.
func (r *RAM) ReadAt(p []byte, off int64) (n int, err error) {
	buf, err := r.slice(len(p), off)

	if err != nil {
		return
	}

	return copy(p, buf), nil
}

// WriteAt writes len(p) bytes at physical address off.
func (r *RAM) WriteAt(p []byte, off int64) (n int, err error) {
	buf, err := r.slice(len(p), off)

	if err != nil {
		return
	}

	return copy(buf, p), nil
}

// Bank returns the memory bank covered by the simulated memory.
func (r *RAM) Bank(name string) (*Bank, error) {
	return NewBank(name, r.Base, uint64(len(r.Data)))
}
