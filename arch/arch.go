// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package arch provides the architecture specific relocation stubs used to
// hand over control to a kexec loaded image.
//
// A relocation stub is position independent code followed by a parameter
// block:
//
//	+0  entry point
//	+8  control segment table address
//	+16 control segment table entries
//	+24 first argument
//	+32 second argument
//	+40 third argument
//	+48 fourth argument
//
// Each control segment table entry holds four words: source buffer, buffer
// size, destination and destination size. The stub copies every buffer to
// its destination, zero fills the remaining destination bytes, loads the
// four arguments in the first four argument registers of the architecture
// calling convention and jumps to the entry point.
//
// The stub must run with interrupts disabled and with caches, if enabled,
// coherent with the relocated memory.
package arch

import (
	"debug/elf"
	"encoding/binary"
	"fmt"
	"runtime"
)

const (
	// WordSize is the size of control table and parameter block words.
	WordSize = 8
	// TableEntrySize is the size of a control segment table entry.
	TableEntrySize = 4 * WordSize
	// ParamsSize is the size of the stub parameter block.
	ParamsSize = 7 * WordSize
)

// Params represents the relocation stub parameters.
type Params struct {
	Entry uint64
	Table uint64
	Count uint64
	Args  [4]uint64
}

// TableEntry represents a control segment table entry.
type TableEntry struct {
	Buf   uint64
	Bufsz uint64
	Mem   uint64
	Memsz uint64
}

// Arch represents an architecture relocation stub.
type Arch struct {
	// Name is the architecture name (GOARCH format)
	Name string
	// Machine is the ELF machine of images the stub can start
	Machine elf.Machine
	// ByteOrder is the architecture data encoding
	ByteOrder binary.AppendByteOrder

	code []byte
}

var archs = map[string]*Arch{}

func register(a *Arch) *Arch {
	archs[a.Name] = a
	return a
}

// Lookup returns the architecture matching the argument name.
func Lookup(name string) (*Arch, error) {
	if a, ok := archs[name]; ok {
		return a, nil
	}

	return nil, fmt.Errorf("unsupported architecture %s", name)
}

// Native returns the architecture of the running program.
func Native() (*Arch, error) {
	return Lookup(runtime.GOARCH)
}

// Size returns the total relocation stub size, parameter block included.
func (a *Arch) Size() int {
	return len(a.code) + ParamsSize
}

// Relocator returns the relocation stub with its parameter block.
func (a *Arch) Relocator(p Params) []byte {
	buf := make([]byte, 0, a.Size())
	buf = append(buf, a.code...)
	buf = a.ByteOrder.AppendUint64(buf, p.Entry)
	buf = a.ByteOrder.AppendUint64(buf, p.Table)
	buf = a.ByteOrder.AppendUint64(buf, p.Count)

	for _, arg := range p.Args {
		buf = a.ByteOrder.AppendUint64(buf, arg)
	}

	return buf
}

// Table returns the encoded control segment table.
func (a *Arch) Table(entries []TableEntry) []byte {
	buf := make([]byte, 0, len(entries)*TableEntrySize)

	for _, e := range entries {
		buf = a.ByteOrder.AppendUint64(buf, e.Buf)
		buf = a.ByteOrder.AppendUint64(buf, e.Bufsz)
		buf = a.ByteOrder.AppendUint64(buf, e.Mem)
		buf = a.ByteOrder.AppendUint64(buf, e.Memsz)
	}

	return buf
}

// Words returns the argument values encoded as an array of words.
func (a *Arch) Words(v []uint64) []byte {
	buf := make([]byte, 0, len(v)*WordSize)

	for _, w := range v {
		buf = a.ByteOrder.AppendUint64(buf, w)
	}

	return buf
}
