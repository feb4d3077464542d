// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package elfexec implements parsing and loading of statically linked ELF
// executables, of either class and data encoding, for kexec style handover.
package elfexec

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrFormat is wrapped by all ELF parsing errors.
var ErrFormat = errors.New("invalid ELF file")

// pageSize is the granularity at which segment memory is reserved.
const pageSize = 4096

var (
	ehdrSize = [...]int{elf.ELFCLASS32: binary.Size(elf.Header32{}), elf.ELFCLASS64: binary.Size(elf.Header64{})}
	phdrSize = [...]int{elf.ELFCLASS32: binary.Size(elf.Prog32{}), elf.ELFCLASS64: binary.Size(elf.Prog64{})}
	shdrSize = [...]int{elf.ELFCLASS32: binary.Size(elf.Section32{}), elf.ELFCLASS64: binary.Size(elf.Section64{})}

	// expected sh_entsize for tables with fixed size entries
	entSize = map[elf.SectionType][3]int{
		elf.SHT_SYMTAB:  {elf.ELFCLASS32: elf.Sym32Size, elf.ELFCLASS64: elf.Sym64Size},
		elf.SHT_RELA:    {elf.ELFCLASS32: binary.Size(elf.Rela32{}), elf.ELFCLASS64: binary.Size(elf.Rela64{})},
		elf.SHT_DYNAMIC: {elf.ELFCLASS32: binary.Size(elf.Dyn32{}), elf.ELFCLASS64: binary.Size(elf.Dyn64{})},
		elf.SHT_REL:     {elf.ELFCLASS32: binary.Size(elf.Rel32{}), elf.ELFCLASS64: binary.Size(elf.Rel64{})},
	}
)

// Prog represents an ELF program header.
type Prog struct {
	Type   elf.ProgType
	Flags  elf.ProgFlag
	Off    uint64
	Vaddr  uint64
	Paddr  uint64
	Filesz uint64
	Memsz  uint64
	Align  uint64

	data []byte
}

// Data returns the segment file contents, limited to the smallest between
// its file and memory sizes.
func (p *Prog) Data() []byte {
	return p.data
}

// Section represents an ELF section header.
type Section struct {
	Name      uint32
	Type      elf.SectionType
	Flags     elf.SectionFlag
	Addr      uint64
	Offset    uint64
	Size      uint64
	Link      uint32
	Info      uint32
	Addralign uint64
	Entsize   uint64
}

// File represents a parsed ELF image.
type File struct {
	Class     elf.Class
	Data      elf.Data
	ByteOrder binary.ByteOrder
	Type      elf.Type
	Machine   elf.Machine
	Entry     uint64
	Flags     uint32
	Shstrndx  uint16

	Progs    []*Prog
	Sections []*Section
}

func formatError(format string, a ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrFormat}, a...)...)
}

// Parse validates and decodes the ELF headers found in buf, the returned
// program headers reference buf without copying it.
func Parse(buf []byte) (f *File, err error) {
	if len(buf) < elf.EI_NIDENT || !bytes.HasPrefix(buf, []byte(elf.ELFMAG)) {
		return nil, formatError("bad magic")
	}

	f = &File{
		Class: elf.Class(buf[elf.EI_CLASS]),
		Data:  elf.Data(buf[elf.EI_DATA]),
	}

	switch f.Class {
	case elf.ELFCLASS32, elf.ELFCLASS64:
	default:
		return nil, formatError("unsupported class %d", f.Class)
	}

	switch f.Data {
	case elf.ELFDATA2LSB:
		f.ByteOrder = binary.LittleEndian
	case elf.ELFDATA2MSB:
		f.ByteOrder = binary.BigEndian
	default:
		return nil, formatError("unsupported data encoding %d", f.Data)
	}

	if v := elf.Version(buf[elf.EI_VERSION]); v != elf.EV_CURRENT {
		return nil, formatError("unsupported ident version %d", v)
	}

	if len(buf) < ehdrSize[f.Class] {
		return nil, formatError("truncated ELF header")
	}

	h, err := f.readHeader(buf)

	if err != nil {
		return nil, err
	}

	if err = f.readProgs(buf, h); err != nil {
		return nil, err
	}

	if err = f.readSections(buf, h); err != nil {
		return nil, err
	}

	return
}

// header holds the class independent subset of the ELF header needed to
// walk the header tables.
type header struct {
	ehsize    uint16
	phoff     uint64
	phentsize uint16
	phnum     uint16
	shoff     uint64
	shentsize uint16
	shnum     uint16
}

func (f *File) readHeader(buf []byte) (h *header, err error) {
	var version uint32

	r := bytes.NewReader(buf)
	h = &header{}

	switch f.Class {
	case elf.ELFCLASS32:
		hdr := &elf.Header32{}

		if err = binary.Read(r, f.ByteOrder, hdr); err != nil {
			return nil, formatError("%v", err)
		}

		f.Type = elf.Type(hdr.Type)
		f.Machine = elf.Machine(hdr.Machine)
		f.Entry = uint64(hdr.Entry)
		f.Flags = hdr.Flags
		f.Shstrndx = hdr.Shstrndx
		version = hdr.Version

		*h = header{hdr.Ehsize, uint64(hdr.Phoff), hdr.Phentsize, hdr.Phnum, uint64(hdr.Shoff), hdr.Shentsize, hdr.Shnum}
	case elf.ELFCLASS64:
		hdr := &elf.Header64{}

		if err = binary.Read(r, f.ByteOrder, hdr); err != nil {
			return nil, formatError("%v", err)
		}

		f.Type = elf.Type(hdr.Type)
		f.Machine = elf.Machine(hdr.Machine)
		f.Entry = hdr.Entry
		f.Flags = hdr.Flags
		f.Shstrndx = hdr.Shstrndx
		version = hdr.Version

		*h = header{hdr.Ehsize, hdr.Phoff, hdr.Phentsize, hdr.Phnum, hdr.Shoff, hdr.Shentsize, hdr.Shnum}
	}

	if version != uint32(elf.EV_CURRENT) {
		return nil, formatError("unsupported version %d", version)
	}

	if int(h.ehsize) != ehdrSize[f.Class] {
		return nil, formatError("bad ELF header size %d", h.ehsize)
	}

	if h.phnum > 0 && int(h.phentsize) != phdrSize[f.Class] {
		return nil, formatError("bad program header size %d", h.phentsize)
	}

	if h.shnum > 0 && int(h.shentsize) != shdrSize[f.Class] {
		return nil, formatError("bad section header size %d", h.shentsize)
	}

	return
}

// table returns a reader over a header table, after checking it lies within
// the buffer.
func table(buf []byte, off uint64, num uint16, entsize uint16, what string) (*bytes.Reader, error) {
	size := uint64(num) * uint64(entsize)

	if off > uint64(len(buf)) || size > uint64(len(buf))-off {
		return nil, formatError("truncated %s table", what)
	}

	return bytes.NewReader(buf[off : off+size]), nil
}

// wraps returns whether the argument range wraps the class address space.
func (f *File) wraps(addr uint64, size uint64) bool {
	if f.Class == elf.ELFCLASS32 {
		return addr+size > 1<<32
	}

	return addr+size < addr
}

// pageWraps returns whether the argument range, with its size rounded up to
// pageSize, wraps the class address space.
func (f *File) pageWraps(addr uint64, size uint64) bool {
	if size > math.MaxUint64-(pageSize-1) {
		return true
	}

	return f.wraps(addr, (size+pageSize-1)&^(pageSize-1))
}

func (f *File) readProgs(buf []byte, h *header) (err error) {
	if h.phnum == 0 {
		return
	}

	r, err := table(buf, h.phoff, h.phnum, h.phentsize, "program header")

	if err != nil {
		return
	}

	for i := 0; i < int(h.phnum); i++ {
		p := &Prog{}

		switch f.Class {
		case elf.ELFCLASS32:
			ph := &elf.Prog32{}

			if err = binary.Read(r, f.ByteOrder, ph); err != nil {
				return formatError("%v", err)
			}

			*p = Prog{
				Type:   elf.ProgType(ph.Type),
				Flags:  elf.ProgFlag(ph.Flags),
				Off:    uint64(ph.Off),
				Vaddr:  uint64(ph.Vaddr),
				Paddr:  uint64(ph.Paddr),
				Filesz: uint64(ph.Filesz),
				Memsz:  uint64(ph.Memsz),
				Align:  uint64(ph.Align),
			}
		case elf.ELFCLASS64:
			ph := &elf.Prog64{}

			if err = binary.Read(r, f.ByteOrder, ph); err != nil {
				return formatError("%v", err)
			}

			*p = Prog{
				Type:   elf.ProgType(ph.Type),
				Flags:  elf.ProgFlag(ph.Flags),
				Off:    ph.Off,
				Vaddr:  ph.Vaddr,
				Paddr:  ph.Paddr,
				Filesz: ph.Filesz,
				Memsz:  ph.Memsz,
				Align:  ph.Align,
			}
		}

		if f.pageWraps(p.Paddr, p.Memsz) {
			return formatError("program segment %d size overflow", i)
		}

		n := min(p.Filesz, p.Memsz)

		if p.Off > uint64(len(buf)) || n > uint64(len(buf))-p.Off {
			return formatError("program segment %d outside of file", i)
		}

		p.data = buf[p.Off : p.Off+n : p.Off+n]
		f.Progs = append(f.Progs, p)
	}

	return
}

func (f *File) readSections(buf []byte, h *header) (err error) {
	if h.shnum == 0 {
		return
	}

	r, err := table(buf, h.shoff, h.shnum, h.shentsize, "section header")

	if err != nil {
		return
	}

	for i := 0; i < int(h.shnum); i++ {
		s := &Section{}

		switch f.Class {
		case elf.ELFCLASS32:
			sh := &elf.Section32{}

			if err = binary.Read(r, f.ByteOrder, sh); err != nil {
				return formatError("%v", err)
			}

			*s = Section{
				Name:      sh.Name,
				Type:      elf.SectionType(sh.Type),
				Flags:     elf.SectionFlag(sh.Flags),
				Addr:      uint64(sh.Addr),
				Offset:    uint64(sh.Off),
				Size:      uint64(sh.Size),
				Link:      sh.Link,
				Info:      sh.Info,
				Addralign: uint64(sh.Addralign),
				Entsize:   uint64(sh.Entsize),
			}
		case elf.ELFCLASS64:
			sh := &elf.Section64{}

			if err = binary.Read(r, f.ByteOrder, sh); err != nil {
				return formatError("%v", err)
			}

			*s = Section{
				Name:      sh.Name,
				Type:      elf.SectionType(sh.Type),
				Flags:     elf.SectionFlag(sh.Flags),
				Addr:      sh.Addr,
				Offset:    sh.Off,
				Size:      sh.Size,
				Link:      sh.Link,
				Info:      sh.Info,
				Addralign: sh.Addralign,
				Entsize:   sh.Entsize,
			}
		}

		if f.wraps(s.Addr, s.Size) {
			return formatError("section %d size overflow", i)
		}

		if size, ok := entSize[s.Type]; ok && s.Entsize != uint64(size[f.Class]) {
			return formatError("section %d (%s) bad entry size %d", i, s.Type, s.Entsize)
		}

		f.Sections = append(f.Sections, s)
	}

	return
}
