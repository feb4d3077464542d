// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package elfexec

import (
	"debug/elf"
	"fmt"
	"io"
	"log"

	"github.com/usbarmory/go-kexec/memory"
	"github.com/usbarmory/go-kexec/resource"
)

const zeroChunk = 4096

// Reserver is implemented by memory maps able to reserve physical regions.
type Reserver interface {
	Request(name string, start uint64, size uint64) (*resource.Resource, error)
	Release(r *resource.Resource)
}

func zero(mem io.WriterAt, addr uint64, size uint64) (err error) {
	buf := make([]byte, min(size, zeroChunk))

	for size > 0 {
		n := min(size, uint64(len(buf)))

		if _, err = mem.WriteAt(buf[:n], int64(addr)); err != nil {
			return
		}

		addr += n
		size -= n
	}

	return
}

// LoadInPlace copies each PT_LOAD segment to its final physical address,
// zero filling the portion of memory size exceeding the file size, and
// returns the executable entry point. Every segment destination is reserved
// before any copy takes place, reservations are returned to allow their
// release once memory is no longer needed.
func (f *File) LoadInPlace(mem io.WriterAt, m Reserver, tr memory.Translator) (entry uint64, regions []*resource.Resource, err error) {
	if err = f.CheckExec(); err != nil {
		return
	}

	if tr == nil {
		tr = memory.Identity{}
	}

	defer func() {
		if err == nil {
			return
		}

		for _, r := range regions {
			m.Release(r)
		}

		regions = nil
	}()

	for _, p := range f.Progs {
		if p.Type != elf.PT_LOAD || p.Memsz == 0 {
			continue
		}

		r, err := m.Request("elf_section", tr.VirtToPhys(p.Paddr), p.Memsz)

		if err != nil {
			return 0, regions, fmt.Errorf("could not request region, %w", err)
		}

		regions = append(regions, r)
	}

	for _, p := range f.Progs {
		if p.Type != elf.PT_LOAD || p.Memsz == 0 {
			continue
		}

		addr := tr.VirtToPhys(p.Paddr)
		data := p.Data()

		log.Printf("loading segment %#08x-%#08x (%#x bytes from file)", addr, addr+p.Memsz-1, len(data))

		if _, err = mem.WriteAt(data, int64(addr)); err != nil {
			return
		}

		if err = zero(mem, addr+uint64(len(data)), p.Memsz-uint64(len(data))); err != nil {
			return
		}
	}

	return tr.VirtToPhys(f.Entry), regions, nil
}
