// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package elfexec

import (
	"debug/elf"
	"errors"

	"github.com/usbarmory/go-kexec/memory"
)

// ELF executable validation errors.
var (
	ErrNotExec = errors.New("not ELF type ET_EXEC")
	ErrNoProgs = errors.New("no ELF program headers")
	ErrInterp  = errors.New("requires an ELF interpreter")
)

// SegmentAdder is implemented by segment lists accepting ELF load segments.
type SegmentAdder interface {
	AddSegment(buf []byte, base uint64, memsz uint64)
}

// CheckExec validates that the image is a statically linked executable.
func (f *File) CheckExec() error {
	if f.Type != elf.ET_EXEC {
		return ErrNotExec
	}

	if len(f.Progs) == 0 {
		return ErrNoProgs
	}

	for _, p := range f.Progs {
		if p.Type == elf.PT_INTERP {
			return ErrInterp
		}
	}

	return nil
}

// Load validates the executable and adds one segment for each PT_LOAD
// program header, at its translated physical address. Segment buffers
// reference the parsed image without copying it.
func (f *File) Load(dst SegmentAdder, tr memory.Translator) (err error) {
	if err = f.CheckExec(); err != nil {
		return
	}

	if tr == nil {
		tr = memory.Identity{}
	}

	for _, p := range f.Progs {
		if p.Type != elf.PT_LOAD {
			continue
		}

		dst.AddSegment(p.Data(), tr.VirtToPhys(p.Paddr), p.Memsz)
	}

	return
}
