// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build tamago

package board

import (
	"fmt"
	"log"

	"github.com/usbarmory/tamago/dma"

	"github.com/usbarmory/go-kexec/arch"
	"github.com/usbarmory/go-kexec/config"
	"github.com/usbarmory/go-kexec/kexec"
	"github.com/usbarmory/go-kexec/memory"
)

func init() {
	register("tamago", NewTamago)
}

// physical memory access through one DMA region per bank
type regions []*memory.RAM

func (r regions) WriteAt(p []byte, off int64) (int, error) {
	for _, ram := range r {
		if addr := uint64(off); addr >= ram.Base && addr-ram.Base < uint64(len(ram.Data)) {
			return ram.WriteAt(p, off)
		}
	}

	return 0, fmt.Errorf("%#08x outside of memory banks", off)
}

// NewTamago returns a bare metal board, the banks described in the argument
// settings must not overlap the running program memory.
func NewTamago(s *config.Settings) (b *Board, err error) {
	var mem regions

	a, err := arch.Native()

	if err != nil {
		return
	}

	banks, err := memory.Parse(s.Memory)

	if err != nil {
		return
	}

	for _, bank := range banks {
		r, err := dma.NewRegion(uint(bank.Start), int(bank.Size()), false)

		if err != nil {
			return nil, fmt.Errorf("could not map %s, %v", &bank.Resource, err)
		}

		addr, buf := r.Reserve(int(bank.Size()), 0)
		log.Printf("mapped %s at %#08x", bank.Name, addr)

		mem = append(mem, &memory.RAM{Base: uint64(addr), Data: buf})
	}

	b = &Board{
		Name:   "tamago",
		Arch:   a,
		Banks:  banks,
		Memory: mem,
		Jump: func(addr uint64) {
			arch.Jump(uint(addr))
		},
	}

	b.Machine = &kexec.Relocator{
		Arch:    a,
		Banks:   banks,
		Memory:  mem,
		Jump:    b.Jump,
		Verbose: s.Verbose,
	}

	return
}
