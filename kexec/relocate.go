// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package kexec

import (
	"fmt"
	"io"
	"log"

	"github.com/usbarmory/go-kexec/arch"
	"github.com/usbarmory/go-kexec/memory"
	"github.com/usbarmory/go-kexec/resource"
)

// relocation stubs copy by word
const relocAlign = 16

// Relocator implements [Machine] on bare metal targets. Segments are staged
// in the largest free memory interval along with an architecture relocation
// stub, which copies them to their destination once started.
//
// The stub starts the image with the device tree protocol (first argument
// is the device tree address) when a device tree is staged, otherwise with
// the legacy protocol (argc, argv, envp, 0) built from the command line
// segment.
type Relocator struct {
	// Arch represents the relocation stub architecture
	Arch *arch.Arch
	// Banks represents the board memory banks
	Banks memory.Map
	// Translator converts addresses for the stub execution environment
	Translator memory.Translator
	// Memory provides physical memory access
	Memory io.WriterAt
	// Jump transfers control to the argument address, it must not return
	Jump func(addr uint64)
	// Verbose enables stub parameters logging
	Verbose bool

	stub    uint64
	loaded  bool
	regions []*resource.Resource
}

type chunk struct {
	name string
	addr uint64
	buf  []byte
}

func (r *Relocator) translator() memory.Translator {
	if r.Translator == nil {
		return memory.Identity{}
	}

	return r.Translator
}

func (r *Relocator) argv(argv []string, addr uint64) []byte {
	var strs []byte

	tr := r.translator()
	ptrs := make([]uint64, len(argv)+1)
	base := addr + uint64(len(ptrs)*arch.WordSize)

	for i, arg := range argv {
		ptrs[i] = tr.PhysToVirt(base + uint64(len(strs)))
		strs = append(strs, arg...)
		strs = append(strs, 0)
	}

	return append(r.Arch.Words(ptrs), strs...)
}

func (r *Relocator) release() {
	for _, res := range r.regions {
		r.Banks.Release(res)
	}

	r.regions = nil
	r.loaded = false
}

// Load stages the load request segments, relocation stub and control
// segments table in free memory. Physical memory is written only once all
// placement checks and reservations succeed.
func (r *Relocator) Load(info *Info) (err error) {
	var chunks []chunk
	var entries []arch.TableEntry

	tr := r.translator()
	r.release()

	if err = CheckRoom(r.Banks, info.Segments); err != nil {
		return
	}

	free, err := RelocationBase(r.Banks, info.Segments)

	if err != nil {
		return
	}

	addr := align(free.Start, relocAlign)

	for _, s := range info.Segments {
		n := align(s.Bufsz(), relocAlign)

		if n > 0 {
			buf := make([]byte, n)
			copy(buf, s.Buf)
			chunks = append(chunks, chunk{"kexec relocatable segment", addr, buf})
		}

		entries = append(entries, arch.TableEntry{
			Buf:   tr.PhysToVirt(addr),
			Bufsz: n,
			Mem:   tr.PhysToVirt(s.Mem),
			Memsz: s.Memsz,
		})

		addr += n
	}

	stub := align(addr, relocAlign)
	table := align(stub+uint64(r.Arch.Size()), relocAlign)
	control := r.Arch.Table(entries)

	params := arch.Params{
		Entry: tr.PhysToVirt(info.Entry),
		Table: tr.PhysToVirt(table),
		Count: uint64(len(entries)),
	}

	if info.DeviceTree != 0 {
		params.Args[0] = info.DeviceTree
	} else if cmdline, ok := info.CmdLine(); ok {
		argv := Argv(cmdline)
		argvAddr := table + uint64(len(control))

		control = append(control, r.argv(argv, argvAddr)...)
		params.Args = [4]uint64{uint64(len(argv)), tr.PhysToVirt(argvAddr), 0, 0}
	}

	chunks = append(chunks,
		chunk{"kexec relocator", stub, r.Arch.Relocator(params)},
		chunk{"kexec control segments", table, control},
	)

	if end := table + uint64(len(control)); end < table || end-1 > free.End {
		return fmt.Errorf("%w, relocation requires %#x bytes at %s", ErrNoSpace, end-free.Start, free)
	}

	for _, c := range chunks {
		res, err := r.Banks.Request(c.name, c.addr, uint64(len(c.buf)))

		if err != nil {
			r.release()
			return err
		}

		r.regions = append(r.regions, res)
	}

	for _, c := range chunks {
		if _, err = r.Memory.WriteAt(c.buf, int64(c.addr)); err != nil {
			r.release()
			return fmt.Errorf("could not write %s, %v", c.name, err)
		}
	}

	if r.Verbose {
		log.Printf("kexec relocator@%#08x entry:%#08x segments:%#08x (%d)", stub, params.Entry, params.Table, params.Count)
		log.Printf("kexec arguments: %#x %#x %#x %#x", params.Args[0], params.Args[1], params.Args[2], params.Args[3])
	}

	r.stub = stub
	r.loaded = true

	return
}

// Exec invokes the shutdown function and starts the relocation stub.
func (r *Relocator) Exec(shutdown func()) {
	if !r.loaded {
		panic("kexec: no image loaded")
	}

	if shutdown != nil {
		shutdown()
	}

	r.Jump(r.translator().PhysToVirt(r.stub))

	panic("kexec: returned from relocation stub")
}
