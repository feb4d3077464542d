// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package kexec

import (
	"debug/elf"
	"errors"
	"fmt"
	"strings"

	"github.com/usbarmory/go-kexec/elfexec"
	"github.com/usbarmory/go-kexec/memory"
)

// ErrFileType is returned when no file type recognizes an image.
var ErrFileType = errors.New("cannot determine the file type")

// FileType represents a loadable image format.
type FileType struct {
	Name string

	// Probe returns nil if the image is recognized by the file type.
	Probe func(buf []byte) error
	// Load adds the image segments to the load request and sets its
	// entry point.
	Load func(buf []byte, tr memory.Translator, info *Info) error
}

// ELF returns the file type of ELF executables for the argument machine.
func ELF(machine elf.Machine) FileType {
	return FileType{
		Name: "elf-" + strings.ToLower(strings.TrimPrefix(machine.String(), "EM_")),
		Probe: func(buf []byte) (err error) {
			f, err := elfexec.Parse(buf)

			if err != nil {
				return
			}

			if f.Machine != machine {
				return fmt.Errorf("not for this architecture (%v)", f.Machine)
			}

			return
		},
		Load: func(buf []byte, tr memory.Translator, info *Info) (err error) {
			f, err := elfexec.Parse(buf)

			if err != nil {
				return
			}

			if err = f.Load(info, tr); err != nil {
				return
			}

			info.Entry = tr.VirtToPhys(f.Entry)
			info.Flags = ArchFlags(f.Machine)

			return
		},
	}
}

// LoadFile adds the segments of an image, of any of the context file types,
// to the load request.
func (ctx *Context) LoadFile(buf []byte, info *Info) error {
	for _, t := range ctx.Types {
		if t.Probe(buf) != nil {
			continue
		}

		if err := t.Load(buf, ctx.translator(), info); err != nil {
			return fmt.Errorf("%s load failed, %w", t.Name, err)
		}

		return nil
	}

	return ErrFileType
}
