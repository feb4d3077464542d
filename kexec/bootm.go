// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package kexec

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strings"

	"github.com/usbarmory/go-kexec/memory"
)

// CmdLinePrefix marks the command line segment.
const CmdLinePrefix = "kexec "

// Context represents the environment of a single load attempt.
type Context struct {
	// Banks represents the board memory banks
	Banks memory.Map
	// Translator converts boot loader addresses to physical ones
	Translator memory.Translator
	// FS is the file system used to read boot data files
	FS fs.FS
	// Types represents the supported image formats
	Types []FileType
	// BootArgs represents the default kernel boot arguments
	BootArgs string
}

func (ctx *Context) translator() memory.Translator {
	if ctx.Translator == nil {
		return memory.Identity{}
	}

	return ctx.Translator
}

func (ctx *Context) read(name string, buf []byte) ([]byte, error) {
	if buf != nil {
		return buf, nil
	}

	if ctx.FS == nil {
		return nil, errors.New("no file system available")
	}

	return fs.ReadFile(ctx.FS, strings.TrimPrefix(name, "/"))
}

// BootData represents the files to boot along with their placement results,
// each file is read from the context file system unless its contents are
// already set.
type BootData struct {
	OSFile string
	OS     []byte

	DeviceTreeFile string
	DeviceTree     []byte

	InitrdFile string
	Initrd     []byte

	// CmdLine overrides the context boot arguments when not empty
	CmdLine string

	// FixupDeviceTree enables /chosen node boot arguments and initrd
	// location updates
	FixupDeviceTree bool
	// Verbose enables segment logging
	Verbose bool

	DeviceTreeAddress uint64
	InitrdAddress     uint64
	InitrdSize        uint64
	CmdLineAddress    uint64
}

func (data *BootData) hasDeviceTree() bool {
	return len(data.DeviceTreeFile) > 0 || data.DeviceTree != nil
}

func (data *BootData) hasInitrd() bool {
	return len(data.InitrdFile) > 0 || data.Initrd != nil
}

// LoadBootData assembles the segments required to boot the argument data:
// the operating system image, followed by device tree, initrd and command
// line in unused memory above it.
func LoadBootData(ctx *Context, data *BootData) (info *Info, err error) {
	var dtb []byte
	var dtbIndex int
	var initrdCmdLine string

	tr := ctx.translator()
	info = &Info{}

	bootArgs := ctx.BootArgs

	if len(data.CmdLine) > 0 {
		bootArgs = data.CmdLine
	}

	if data.OS, err = ctx.read(data.OSFile, data.OS); err != nil {
		return nil, fmt.Errorf("could not read %s, %v", data.OSFile, err)
	}

	if data.hasInitrd() {
		if data.Initrd, err = ctx.read(data.InitrdFile, data.Initrd); err != nil {
			return nil, fmt.Errorf("could not read %s, %v", data.InitrdFile, err)
		}
	}

	if err = ctx.LoadFile(data.OS, info); err != nil {
		return nil, fmt.Errorf("cannot load %s, %w", data.OSFile, err)
	}

	if data.hasDeviceTree() {
		if dtb, err = ctx.read(data.DeviceTreeFile, data.DeviceTree); err != nil {
			return nil, fmt.Errorf("could not read %s, %v", data.DeviceTreeFile, err)
		}

		if err = ValidateDeviceTree(dtb); err != nil {
			return nil, fmt.Errorf("invalid device tree %s, %v", data.DeviceTreeFile, err)
		}

		data.DeviceTree = dtb

		if data.FixupDeviceTree {
			// initrd properties are sized here and valued once placed
			if dtb, err = FixupDeviceTree(dtb, bootArgs, 0, uint64(len(data.Initrd))); err != nil {
				return nil, fmt.Errorf("could not fixup device tree, %v", err)
			}
		}

		base := align(info.FindUnusedBase(), DeviceTreeAlign)

		dtbIndex = len(info.Segments)
		info.AddSegment(dtb, base, uint64(len(dtb)))
		info.DeviceTree = base
		data.DeviceTreeAddress = base
	}

	if data.hasInitrd() {
		base := align(info.FindUnusedBase(), InitrdAlign)
		size := uint64(len(data.Initrd))

		info.AddSegment(data.Initrd, base, size)
		data.InitrdAddress = base
		data.InitrdSize = size

		if data.Verbose {
			log.Printf("initrd: rd_start=0x%08x rd_size=0x%08x", base, size)
		}

		initrdCmdLine = fmt.Sprintf(" rd_start=0x%08x rd_size=0x%08x", tr.PhysToVirt(base), size)

		if dtb != nil && data.FixupDeviceTree && size > 0 {
			if dtb, err = FixupDeviceTree(data.DeviceTree, bootArgs, base, size); err != nil {
				return nil, fmt.Errorf("could not fixup device tree, %v", err)
			}

			if seg := &info.Segments[dtbIndex]; uint64(len(dtb)) <= seg.Memsz {
				seg.Buf = dtb
			} else {
				return nil, errors.New("device tree size changed after fixup")
			}
		}
	}

	cmdline := CmdLinePrefix + bootArgs + initrdCmdLine + "\x00"
	base := align(info.FindUnusedBase(), CmdLineAlign)

	info.AddSegment([]byte(cmdline), base, uint64(len(cmdline)))
	data.CmdLineAddress = base

	if data.Verbose {
		info.Print()
	}

	if err = info.Sort(); err != nil {
		return nil, err
	}

	return
}

// Machine represents a kexec handover implementation.
type Machine interface {
	// Load commits the load request, no memory is modified unless all
	// placement checks pass.
	Load(info *Info) error
	// Exec invokes the shutdown function and transfers control to the
	// loaded image, it never returns.
	Exec(shutdown func())
}
