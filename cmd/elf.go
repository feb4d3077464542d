// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"regexp"
	"strconv"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/usbarmory/go-kexec/elfexec"
	"github.com/usbarmory/go-kexec/memory"
	"github.com/usbarmory/go-kexec/shell"
)

func init() {
	shell.Add(shell.Cmd{
		Name:    "elf",
		Args:    1,
		Pattern: regexp.MustCompile(`^elf (\S+)$`),
		Syntax:  "<path>",
		Help:    "show ELF image headers",
		Fn:      elfCmd,
	})

	shell.Add(shell.Cmd{
		Name:    "bootelf",
		Args:    1,
		Pattern: regexp.MustCompile(`^bootelf (\S+)$`),
		Syntax:  "<path>",
		Help:    "load ELF image in place and start it",
		Fn:      bootelfCmd,
	})

	shell.Add(shell.Cmd{
		Name:    "go",
		Args:    1,
		Pattern: regexp.MustCompile(`^go ([[:xdigit:]]+)$`),
		Syntax:  "<hex address>",
		Help:    "start code at address",
		Fn:      goCmd,
	})
}

func readELF(path string) (f *elfexec.File, err error) {
	if bootFS == nil {
		return nil, errors.New("boot file system unavailable")
	}

	buf, err := fs.ReadFile(bootFS, trim(path))

	if err != nil {
		return
	}

	return elfexec.Parse(buf)
}

func elfCmd(_ *shell.Interface, _ io.Writer, arg []string) (res string, err error) {
	var buf bytes.Buffer

	f, err := readELF(arg[0])

	if err != nil {
		return
	}

	fmt.Fprintf(&buf, "Class ....: %v\n", f.Class)
	fmt.Fprintf(&buf, "Data .....: %v\n", f.Data)
	fmt.Fprintf(&buf, "Type .....: %v\n", f.Type)
	fmt.Fprintf(&buf, "Machine ..: %v\n", f.Machine)
	fmt.Fprintf(&buf, "Entry ....: %#08x\n", f.Entry)

	t := tabwriter.NewWriter(&buf, 0, 8, 1, ' ', 0)
	fmt.Fprintf(t, "Type\tOffset\tVirtAddr\tPhysAddr\tFileSiz\tMemSiz\tFlags\n")

	for _, p := range f.Progs {
		fmt.Fprintf(t, "%v\t%#x\t%#08x\t%#08x\t%s\t%s\t%v\n",
			p.Type, p.Off, p.Vaddr, p.Paddr, humanize.IBytes(p.Filesz), humanize.IBytes(p.Memsz), p.Flags)
	}

	t.Flush()

	return buf.String(), nil
}

func bootelfCmd(_ *shell.Interface, _ io.Writer, arg []string) (res string, err error) {
	if err = ready(); err != nil {
		return
	}

	if target.Memory == nil {
		return "", errors.New("in place loading unsupported on this board")
	}

	f, err := readELF(arg[0])

	if err != nil {
		return
	}

	if settings.DryRun {
		if err = f.CheckExec(); err != nil {
			return
		}

		tr := target.Translator

		if tr == nil {
			tr = memory.Identity{}
		}

		return fmt.Sprintf("dry run, entry@%#08x not loaded", tr.VirtToPhys(f.Entry)), nil
	}

	entry, regions, err := f.LoadInPlace(target.Memory, target.Banks, target.Translator)

	if err != nil {
		return
	}

	log.Printf("loaded %s in %d region(s)", arg[0], len(regions))

	err = target.Go(entry)

	for _, r := range regions {
		target.Banks.Release(r)
	}

	return
}

func goCmd(_ *shell.Interface, _ io.Writer, arg []string) (res string, err error) {
	if err = ready(); err != nil {
		return
	}

	addr, err := strconv.ParseUint(arg[0], 16, 64)

	if err != nil {
		return "", fmt.Errorf("invalid address, %v", err)
	}

	return "", target.Go(addr)
}
