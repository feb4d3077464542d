// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package kexec implements assembly, placement and handover of kexec
// segment lists, staging an operating system image along with its device
// tree, initial ramdisk and command line in unused physical memory.
package kexec

import (
	"debug/elf"
	"errors"
	"fmt"
	"log"
	"slices"
)

const (
	// PageSize is the granularity of segment memory sizes.
	PageSize = 4096
	// MaxSegments is the number of segments above which a warning is
	// issued.
	MaxSegments = 16
)

// ErrOverlap is returned when two segment destinations intersect.
var ErrOverlap = errors.New("overlapping memory segments")

func align(v uint64, a uint64) uint64 {
	return (v + a - 1) &^ (a - 1)
}

// ArchFlags returns the KEXEC_ARCH_* flags value for the argument machine.
func ArchFlags(m elf.Machine) uint64 {
	return uint64(m) << 16
}

// Segment represents a contiguous memory destination along with the data to
// be copied there, Buf is nil for pure reservations.
type Segment struct {
	Buf   []byte
	Mem   uint64
	Memsz uint64
}

// Bufsz returns the number of bytes copied to the destination.
func (s *Segment) Bufsz() uint64 {
	return uint64(len(s.Buf))
}

// End returns the first address following the segment destination.
func (s *Segment) End() uint64 {
	return s.Mem + s.Memsz
}

func (s *Segment) String() string {
	return fmt.Sprintf("bufsz=%#x mem=%#08x memsz=%#x", s.Bufsz(), s.Mem, s.Memsz)
}

// Info represents a kexec load request.
type Info struct {
	// Segments represents the ordered segment list
	Segments []Segment
	// Entry represents the physical entry point
	Entry uint64
	// Flags represents the KEXEC_ARCH_* value of the loaded image
	Flags uint64
	// DeviceTree represents the physical address of the staged device
	// tree, 0 when absent
	DeviceTree uint64

	padded bool
}

// AddSegment appends a segment, the memory size is rounded up to PageSize
// and the buffer is truncated to fit it, empty segments are ignored.
func (info *Info) AddSegment(buf []byte, base uint64, memsz uint64) {
	memsz = align(memsz, PageSize)

	if memsz == 0 {
		return
	}

	if uint64(len(buf)) > memsz {
		buf = buf[:memsz]
	}

	info.Segments = append(info.Segments, Segment{
		Buf:   buf,
		Mem:   base,
		Memsz: memsz,
	})

	if n := len(info.Segments); n > MaxSegments {
		log.Printf("warning: %d kexec segments exceed the supported maximum of %d", n, MaxSegments)
	}
}

// Sort orders segments by destination address and verifies that no two
// destinations overlap.
func (info *Info) Sort() error {
	slices.SortStableFunc(info.Segments, func(a, b Segment) int {
		switch {
		case a.Mem < b.Mem:
			return -1
		case a.Mem > b.Mem:
			return 1
		}

		return 0
	})

	for i := 1; i < len(info.Segments); i++ {
		prev := &info.Segments[i-1]
		cur := &info.Segments[i]

		if prev.End() > cur.Mem {
			return fmt.Errorf("%w, %#08x-%#08x and %#08x-%#08x", ErrOverlap, prev.Mem, prev.End()-1, cur.Mem, cur.End()-1)
		}
	}

	return nil
}

// Print logs the segment list.
func (info *Info) Print() {
	log.Printf("kexec segments (entry %#08x):", info.Entry)

	for i, s := range info.Segments {
		log.Printf("  %d. %s", i, &s)
	}
}
