// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package elfexec

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
)

type testProg struct {
	typ    elf.ProgType
	paddr  uint64
	filesz uint64
	memsz  uint64
	data   []byte
}

type testSection struct {
	typ     elf.SectionType
	addr    uint64
	size    uint64
	entsize uint64
}

// testImage synthesizes ELF images, zero values of the override fields
// select well formed defaults.
type testImage struct {
	class   elf.Class
	order   binary.ByteOrder
	typ     elf.Type
	machine elf.Machine
	entry   uint64

	progs    []testProg
	sections []testSection

	ehsize    uint16
	phentsize uint16
	shentsize uint16
	version   uint32
}

func (ti *testImage) bytes() []byte {
	class := ti.class
	order := ti.order

	if class == elf.ELFCLASSNONE {
		class = elf.ELFCLASS64
	}

	if order == nil {
		order = binary.LittleEndian
	}

	typ := ti.typ

	if typ == elf.ET_NONE {
		typ = elf.ET_EXEC
	}

	version := ti.version

	if version == 0 {
		version = uint32(elf.EV_CURRENT)
	}

	ehsize := uint16(ehdrSize[class])
	phentsize := uint16(phdrSize[class])
	shentsize := uint16(shdrSize[class])

	if ti.ehsize != 0 {
		ehsize = ti.ehsize
	}

	if ti.phentsize != 0 {
		phentsize = ti.phentsize
	}

	if ti.shentsize != 0 {
		shentsize = ti.shentsize
	}

	phoff := uint64(ehdrSize[class])
	shoff := phoff + uint64(len(ti.progs)*phdrSize[class])
	off := shoff + uint64(len(ti.sections)*shdrSize[class])

	var ident [elf.EI_NIDENT]byte
	copy(ident[:], elf.ELFMAG)
	ident[elf.EI_CLASS] = byte(class)
	ident[elf.EI_VERSION] = byte(elf.EV_CURRENT)

	if order == binary.ByteOrder(binary.BigEndian) {
		ident[elf.EI_DATA] = byte(elf.ELFDATA2MSB)
	} else {
		ident[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	}

	if len(ti.progs) == 0 {
		phoff = 0
	}

	if len(ti.sections) == 0 {
		shoff = 0
	}

	buf := new(bytes.Buffer)
	var data []byte

	switch class {
	case elf.ELFCLASS32:
		binary.Write(buf, order, &elf.Header32{
			Ident:     ident,
			Type:      uint16(typ),
			Machine:   uint16(ti.machine),
			Version:   version,
			Entry:     uint32(ti.entry),
			Phoff:     uint32(phoff),
			Shoff:     uint32(shoff),
			Ehsize:    ehsize,
			Phentsize: phentsize,
			Phnum:     uint16(len(ti.progs)),
			Shentsize: shentsize,
			Shnum:     uint16(len(ti.sections)),
		})

		for _, p := range ti.progs {
			binary.Write(buf, order, &elf.Prog32{
				Type:   uint32(p.typ),
				Off:    uint32(off + uint64(len(data))),
				Vaddr:  uint32(p.paddr),
				Paddr:  uint32(p.paddr),
				Filesz: uint32(p.filesz),
				Memsz:  uint32(p.memsz),
			})

			data = append(data, p.data...)
		}

		for _, s := range ti.sections {
			binary.Write(buf, order, &elf.Section32{
				Type:    uint32(s.typ),
				Addr:    uint32(s.addr),
				Size:    uint32(s.size),
				Entsize: uint32(s.entsize),
			})
		}
	case elf.ELFCLASS64:
		binary.Write(buf, order, &elf.Header64{
			Ident:     ident,
			Type:      uint16(typ),
			Machine:   uint16(ti.machine),
			Version:   version,
			Entry:     ti.entry,
			Phoff:     phoff,
			Shoff:     shoff,
			Ehsize:    ehsize,
			Phentsize: phentsize,
			Phnum:     uint16(len(ti.progs)),
			Shentsize: shentsize,
			Shnum:     uint16(len(ti.sections)),
		})

		for _, p := range ti.progs {
			binary.Write(buf, order, &elf.Prog64{
				Type:   uint32(p.typ),
				Off:    off + uint64(len(data)),
				Vaddr:  p.paddr,
				Paddr:  p.paddr,
				Filesz: p.filesz,
				Memsz:  p.memsz,
			})

			data = append(data, p.data...)
		}

		for _, s := range ti.sections {
			binary.Write(buf, order, &elf.Section64{
				Type:    uint32(s.typ),
				Addr:    s.addr,
				Size:    s.size,
				Entsize: s.entsize,
			})
		}
	}

	buf.Write(data)

	return buf.Bytes()
}

func pattern(n int, seed byte) []byte {
	buf := make([]byte, n)

	for i := range buf {
		buf[i] = seed + byte(i)
	}

	return buf
}

// kernelImage returns a minimal statically linked executable with a single
// loadable segment.
func kernelImage(class elf.Class, order binary.ByteOrder) *testImage {
	return &testImage{
		class:   class,
		order:   order,
		machine: elf.EM_MIPS,
		entry:   0x1000,
		progs: []testProg{
			{typ: elf.PT_LOAD, paddr: 0x1000, filesz: 0x100, memsz: 0x200, data: pattern(0x100, 1)},
		},
	}
}
