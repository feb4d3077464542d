// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package board

import (
	"fmt"
	"log"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/usbarmory/go-kexec/arch"
	"github.com/usbarmory/go-kexec/config"
	"github.com/usbarmory/go-kexec/kexec"
	"github.com/usbarmory/go-kexec/memory"
)

// MaxSimSize is the largest simulated memory span.
const MaxSimSize = 1 << 30

var exit = os.Exit

func init() {
	register("sim", NewSim)
}

// NewSim returns a board with simulated physical memory backing the banks
// described in the argument settings. Jumps are logged and terminate the
// program.
func NewSim(s *config.Settings) (b *Board, err error) {
	a, err := arch.Lookup(s.Arch)

	if err != nil {
		return
	}

	banks, err := memory.Parse(s.Memory)

	if err != nil {
		return
	}

	start := banks[0].Start
	size := banks[len(banks)-1].End - start + 1

	if size > MaxSimSize {
		return nil, fmt.Errorf("simulated memory span %s exceeds %s", humanize.IBytes(size), humanize.IBytes(MaxSimSize))
	}

	ram := memory.NewRAM(start, int(size))

	b = &Board{
		Name:   "sim",
		Arch:   a,
		Banks:  banks,
		Memory: ram,
	}

	b.Jump = func(addr uint64) {
		log.Printf("sim: jump to %#08x", addr)
		exit(0)
	}

	b.Machine = &kexec.Relocator{
		Arch:    a,
		Banks:   banks,
		Memory:  ram,
		Jump:    b.Jump,
		Verbose: s.Verbose,
	}

	return
}
