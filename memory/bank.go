// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package memory describes the physical memory banks of a board, along with
// the reservations placed within them, and provides physical memory access
// and address translation primitives.
package memory

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/u-root/u-root/pkg/boot/bzimage"

	"github.com/usbarmory/go-kexec/resource"
)

// ErrConflict is returned when a region request cannot be satisfied.
var ErrConflict = errors.New("memory region unavailable")

// Bank represents a contiguous physical memory bank, its children are the
// reservations (boot loader image, heap, stacks, requested regions) placed
// within it.
type Bank struct {
	resource.Resource
}

// NewBank returns a memory bank of size bytes starting at start.
func NewBank(name string, start uint64, size uint64) (b *Bank, err error) {
	r, err := resource.Sized(name, start, size)

	if err != nil {
		return
	}

	return &Bank{Resource: *r}, nil
}

// Map represents the set of memory banks of a board.
type Map []*Bank

// Find returns the bank fully containing the argument range, nil if none
// does.
func (m Map) Find(start uint64, size uint64) *Bank {
	r, err := resource.Sized("", start, size)

	if err != nil {
		return nil
	}

	for _, b := range m {
		if b.Contains(r) {
			return b
		}
	}

	return nil
}

// Request reserves a named region, failing with [ErrConflict] if no bank
// contains it or it overlaps an existing reservation.
func (m Map) Request(name string, start uint64, size uint64) (r *resource.Resource, err error) {
	b := m.Find(start, size)

	if b == nil {
		return nil, fmt.Errorf("%w, %s %#08x-%#08x outside of memory banks", ErrConflict, name, start, start+size-1)
	}

	if r, err = b.Request(name, start, size); err != nil {
		return nil, fmt.Errorf("%w, %v", ErrConflict, err)
	}

	return
}

// Release frees a reservation previously returned by Request.
func (m Map) Release(r *resource.Resource) {
	for _, b := range m {
		b.Resource.Release(r)
	}
}

func (m Map) String() string {
	var s []string

	for _, b := range m {
		s = append(s, fmt.Sprintf("%#08x-%#08x %10s %s", b.Start, b.End, humanize.IBytes(b.Size()), b.Name))

		for _, c := range b.Children {
			s = append(s, fmt.Sprintf("  %#08x-%#08x %10s %s", c.Start, c.End, humanize.IBytes(c.Size()), c.Name))
		}
	}

	return strings.Join(s, "\n")
}

func (m Map) sort() {
	sort.Slice(m, func(i, j int) bool {
		return m[i].Start < m[j].Start
	})
}

// FromE820 converts an E820 memory map to memory banks, only usable RAM
// entries are retained.
func FromE820(entries []bzimage.E820Entry) (m Map, err error) {
	for _, e := range entries {
		if e.MemType != bzimage.RAM || e.Size == 0 {
			continue
		}

		b, err := NewBank(fmt.Sprintf("ram%d", len(m)), e.Addr, e.Size)

		if err != nil {
			return nil, err
		}

		m = append(m, b)
	}

	m.sort()

	return
}

// E820 converts memory banks to an E820 memory map, reservations are not
// reported as they belong to the boot loader.
func (m Map) E820() (entries []bzimage.E820Entry) {
	for _, b := range m {
		entries = append(entries, bzimage.E820Entry{
			Addr:    b.Start,
			Size:    b.Size(),
			MemType: bzimage.RAM,
		})
	}

	return
}

// Parse converts a comma separated list of `<size>@<start>` bank
// descriptions (e.g. `32MiB@0x80000000`) to memory banks.
func Parse(s string) (m Map, err error) {
	for i, desc := range strings.Split(s, ",") {
		var start uint64
		var size uint64

		sizeStart := strings.SplitN(strings.TrimSpace(desc), "@", 2)

		if len(sizeStart) != 2 {
			return nil, fmt.Errorf("invalid bank description %q", desc)
		}

		if size, err = humanize.ParseBytes(sizeStart[0]); err != nil {
			return nil, fmt.Errorf("invalid bank size %q, %v", sizeStart[0], err)
		}

		if start, err = strconv.ParseUint(sizeStart[1], 0, 64); err != nil {
			return nil, fmt.Errorf("invalid bank start %q, %v", sizeStart[1], err)
		}

		b, err := NewBank(fmt.Sprintf("ram%d", i), start, size)

		if err != nil {
			return nil, err
		}

		for _, o := range m {
			if o.Overlaps(&b.Resource) {
				return nil, fmt.Errorf("bank %s overlaps %s", &b.Resource, &o.Resource)
			}
		}

		m = append(m, b)
	}

	m.sort()

	return
}
