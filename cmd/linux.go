// Copyright (c) WithSecure Corporation
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build tamago && amd64

package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"regexp"

	"github.com/usbarmory/armory-boot/exec"
	"github.com/usbarmory/tamago/dma"

	"github.com/usbarmory/go-kexec/kexec"
	"github.com/usbarmory/go-kexec/shell"
)

const (
	// bzImage protected mode kernel alignment
	kernelAlign = 0x200000
	// largest region handed to the bzImage loader
	maxRegionSize = 0x10000000
)

func init() {
	shell.Add(shell.Cmd{
		Name:    "linux",
		Args:    1,
		Pattern: regexp.MustCompile(`^linux (\S+)$`),
		Syntax:  "<path>",
		Help:    "boot Linux kernel bzImage",
		Fn:      linuxCmd,
	})
}

func linuxCmd(_ *shell.Interface, _ io.Writer, arg []string) (res string, err error) {
	if err = ready(); err != nil {
		return
	}

	bzImage, err := fs.ReadFile(bootFS, trim(arg[0]))

	if err != nil {
		return
	}

	// find and reserve memory for kernel loading

	free, err := kexec.RelocationBase(target.Banks, nil)

	if err != nil {
		return
	}

	start := (free.Start + kernelAlign - 1) &^ (kernelAlign - 1)

	if start > free.End {
		return "", errors.New("could not find memory for kernel loading")
	}

	size := min(free.End-start+1, maxRegionSize)

	log.Printf("allocating memory range %#08x - %#08x", start, start+size-1)

	r, err := target.Banks.Request("bzImage", start, size)

	if err != nil {
		return
	}

	// free reserved memory in case of error
	defer target.Banks.Release(r)

	mem, err := dma.NewRegion(uint(start), int(size), false)

	if err != nil {
		return
	}

	mem.Reserve(int(size), 0)
	defer mem.Release(mem.Start())

	image := &exec.LinuxImage{
		Memory:  target.Banks.E820(),
		Region:  mem,
		Kernel:  bzImage,
		CmdLine: settings.BootArgs + "\x00",
	}

	// load kernel

	log.Printf("loading kernel@%0.8x", mem.Start())

	if err = image.Load(); err != nil {
		return "", fmt.Errorf("could not load kernel, %v", err)
	}

	if settings.DryRun {
		return fmt.Sprintf("dry run, kernel@%0.8x not started", image.Entry()), nil
	}

	// boot kernel

	log.Printf("starting kernel@%0.8x", image.Entry())

	// does not return on success
	return "", image.Boot(target.Shutdown)
}
