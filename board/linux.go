// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build linux

package board

import (
	"fmt"
	"os"

	"github.com/usbarmory/go-kexec/arch"
	"github.com/usbarmory/go-kexec/config"
	"github.com/usbarmory/go-kexec/linux"
	"github.com/usbarmory/go-kexec/memory"
)

// Iomem is the Linux physical memory layout description.
const Iomem = "/proc/iomem"

func init() {
	register("linux", NewLinux)
}

// NewLinux returns the running Linux host board, with memory banks and
// their reservations read from Iomem.
func NewLinux(s *config.Settings) (b *Board, err error) {
	a, err := arch.Lookup(s.Arch)

	if err != nil {
		return
	}

	f, err := os.Open(Iomem)

	if err != nil {
		return
	}
	defer f.Close()

	banks, err := memory.ParseIomem(f)

	if err != nil {
		return nil, fmt.Errorf("could not parse %s, %v", Iomem, err)
	}

	return &Board{
		Name:    "linux",
		Arch:    a,
		Banks:   banks,
		Machine: &linux.Machine{},
	}, nil
}
