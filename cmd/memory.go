// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package cmd

import (
	"fmt"
	"io"
	"log"
	"regexp"
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/usbarmory/go-kexec/shell"
)

func init() {
	shell.Add(shell.Cmd{
		Name: "memmap",
		Help: "show memory banks and reservations",
		Fn:   memmapCmd,
	})

	shell.Add(shell.Cmd{
		Name:    "reserve",
		Args:    2,
		Pattern: regexp.MustCompile(`^reserve ([[:xdigit:]]+) (\S+)$`),
		Syntax:  "<hex start> <size>",
		Help:    "reserve memory range",
		Fn:      reserveCmd,
	})
}

func memmapCmd(_ *shell.Interface, _ io.Writer, _ []string) (res string, err error) {
	if err = ready(); err != nil {
		return
	}

	return target.Banks.String(), nil
}

func reserveCmd(_ *shell.Interface, _ io.Writer, arg []string) (res string, err error) {
	if err = ready(); err != nil {
		return
	}

	addr, err := strconv.ParseUint(arg[0], 16, 64)

	if err != nil {
		return "", fmt.Errorf("invalid address, %v", err)
	}

	size, err := humanize.ParseBytes(arg[1])

	if err != nil {
		return "", fmt.Errorf("invalid size, %v", err)
	}

	log.Printf("reserving memory range %#08x - %#08x", addr, addr+size-1)

	r, err := target.Banks.Request("reserved", addr, size)

	if err != nil {
		return
	}

	return r.String(), nil
}
