// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package kexec

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"testing"

	"github.com/usbarmory/go-kexec/memory"
)

type testProg struct {
	typ   elf.ProgType
	paddr uint64
	data  []byte
	memsz uint64
}

// elfImage returns a little endian ELF64 image with the argument program
// headers.
func elfImage(typ elf.Type, machine elf.Machine, entry uint64, progs ...testProg) []byte {
	var ident [elf.EI_NIDENT]byte

	copy(ident[:], elf.ELFMAG)
	ident[elf.EI_CLASS] = byte(elf.ELFCLASS64)
	ident[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	ident[elf.EI_VERSION] = byte(elf.EV_CURRENT)

	ehsize := binary.Size(elf.Header64{})
	phentsize := binary.Size(elf.Prog64{})

	buf := new(bytes.Buffer)

	binary.Write(buf, binary.LittleEndian, &elf.Header64{
		Ident:     ident,
		Type:      uint16(typ),
		Machine:   uint16(machine),
		Version:   uint32(elf.EV_CURRENT),
		Entry:     entry,
		Phoff:     uint64(ehsize),
		Ehsize:    uint16(ehsize),
		Phentsize: uint16(phentsize),
		Phnum:     uint16(len(progs)),
	})

	var data []byte
	off := uint64(ehsize + len(progs)*phentsize)

	for _, p := range progs {
		binary.Write(buf, binary.LittleEndian, &elf.Prog64{
			Type:   uint32(p.typ),
			Off:    off + uint64(len(data)),
			Vaddr:  p.paddr,
			Paddr:  p.paddr,
			Filesz: uint64(len(p.data)),
			Memsz:  p.memsz,
		})

		data = append(data, p.data...)
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

// kernel returns an executable loading 0x100 bytes at 0x1000, with a
// 0x200 bytes memory size.
func kernel() []byte {
	return elfImage(elf.ET_EXEC, elf.EM_X86_64, 0x1000,
		testProg{typ: elf.PT_LOAD, paddr: 0x1000, data: pattern(0x100, 1), memsz: 0x200},
	)
}

// deviceTree returns a flattened device tree with a root node model
// property and, optionally, an empty /chosen node.
func deviceTree(withChosen bool) []byte {
	const (
		beginNode = 1
		endNode   = 2
		prop      = 3
		end       = 9
	)

	be := binary.BigEndian
	strs := []byte("model\x00")

	var st []byte

	st = be.AppendUint32(st, beginNode)
	st = append(st, 0, 0, 0, 0)
	st = be.AppendUint32(st, prop)
	st = be.AppendUint32(st, 5)
	st = be.AppendUint32(st, 0)
	st = append(st, "test\x00\x00\x00\x00"...)

	if withChosen {
		st = be.AppendUint32(st, beginNode)
		st = append(st, "chosen\x00\x00"...)
		st = be.AppendUint32(st, endNode)
	}

	st = be.AppendUint32(st, endNode)
	st = be.AppendUint32(st, end)

	const hdrSize = 40
	const rsvSize = 16

	offStruct := hdrSize + rsvSize
	offStrings := offStruct + len(st)
	total := offStrings + len(strs)

	var buf []byte

	for _, v := range []uint32{
		0xd00dfeed,         // magic
		uint32(total),      // totalsize
		uint32(offStruct),  // off_dt_struct
		uint32(offStrings), // off_dt_strings
		hdrSize,            // off_mem_rsvmap
		17,                 // version
		16,                 // last_comp_version
		0,                  // boot_cpuid_phys
		uint32(len(strs)),  // size_dt_strings
		uint32(len(st)),    // size_dt_struct
	} {
		buf = be.AppendUint32(buf, v)
	}

	buf = append(buf, make([]byte, rsvSize)...)
	buf = append(buf, st...)
	buf = append(buf, strs...)

	return buf
}

func testBanks(t *testing.T) memory.Map {
	t.Helper()

	m, err := memory.Parse("32MiB@0x0")

	if err != nil {
		t.Fatal(err)
	}

	return m
}

func testContext(t *testing.T) *Context {
	return &Context{
		Banks:    testBanks(t),
		Types:    []FileType{ELF(elf.EM_X86_64)},
		BootArgs: "console=ttyS0",
	}
}
