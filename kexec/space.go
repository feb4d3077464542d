// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package kexec

import (
	"errors"
	"fmt"

	"github.com/usbarmory/go-kexec/memory"
	"github.com/usbarmory/go-kexec/resource"
)

const (
	// UnusedPad is added once, before the first auxiliary segment, as the
	// kernel scribbles over memory beyond its load address.
	UnusedPad = 0x100000

	// DeviceTreeAlign is the alignment of the device tree segment.
	DeviceTreeAlign = 8
	// InitrdAlign is the alignment of the initrd segment, covering the
	// largest page size of supported architectures.
	InitrdAlign = 0x10000
	// CmdLineAlign is the alignment of the command line segment.
	CmdLineAlign = 8
)

// Placement errors.
var (
	ErrNoRoom  = errors.New("segment outside of memory banks")
	ErrNoSpace = errors.New("no free memory")
)

// FindUnusedBase returns the first address following all segments, padded
// by UnusedPad on its first invocation.
func (info *Info) FindUnusedBase() (base uint64) {
	for _, s := range info.Segments {
		base = max(base, s.End())
	}

	if !info.padded {
		base += UnusedPad
		info.padded = true
	}

	return
}

// CheckRoom verifies that every segment destination lies entirely within a
// memory bank.
func CheckRoom(banks memory.Map, segments []Segment) error {
	for _, s := range segments {
		if banks.Find(s.Mem, s.Memsz) == nil {
			return fmt.Errorf("%w, %s", ErrNoRoom, &s)
		}
	}

	return nil
}

// RelocationBase returns the largest memory interval not used by any bank
// reservation or segment destination. Among equally sized intervals the
// first enumerated one, in bank order, is returned.
func RelocationBase(banks memory.Map, segments []Segment) (free *resource.Resource, err error) {
	used := &resource.List{}

	for _, b := range banks {
		for _, c := range b.Children {
			used.Insert(c)
		}
	}

	for _, s := range segments {
		r, err := resource.Sized("elf segment", s.Mem, s.Memsz)

		if err != nil {
			return nil, err
		}

		used.Insert(r)
	}

	for _, b := range banks {
		gap := resource.Largest(used.Gaps(&b.Resource, resource.GapName))

		if gap != nil && (free == nil || gap.Size() > free.Size()) {
			free = gap
		}
	}

	if free == nil {
		return nil, ErrNoSpace
	}

	return
}
