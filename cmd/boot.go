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
	"regexp"
	"strings"

	"github.com/usbarmory/go-kexec/config"
	"github.com/usbarmory/go-kexec/kexec"
	"github.com/usbarmory/go-kexec/shell"
	"github.com/usbarmory/go-kexec/uapi"
)

func init() {
	shell.Add(shell.Cmd{
		Name:    "bootm",
		Args:    3,
		Pattern: regexp.MustCompile(`^bootm (\S+)(?: dtb=(\S+))?(?: initrd=(\S+))?$`),
		Syntax:  "<kernel> (dtb=<path>)? (initrd=<path>)?",
		Help:    "boot kernel image through kexec",
		Fn:      bootmCmd,
	})

	shell.Add(shell.Cmd{
		Name:    "boot",
		Args:    1,
		Pattern: regexp.MustCompile(`^boot( \S+)?$`),
		Syntax:  "(entry)?",
		Help:    "list or boot loader entries",
		Fn:      bootCmd,
	})

	shell.Add(shell.Cmd{
		Name:    "bootconf",
		Args:    1,
		Pattern: regexp.MustCompile(`^bootconf( \S+)?$`),
		Syntax:  "(path)?",
		Help:    "boot JSON configuration",
		Fn:      bootconfCmd,
	})
}

func bootmCmd(_ *shell.Interface, _ io.Writer, arg []string) (res string, err error) {
	data := &kexec.BootData{
		OSFile:         arg[0],
		DeviceTreeFile: arg[1],
		InitrdFile:     arg[2],
	}

	if err = boot(data); err != nil {
		return
	}

	return "loaded " + arg[0], nil
}

func listEntries() (res string, err error) {
	var buf bytes.Buffer

	names, err := uapi.Entries(bootFS)

	if err != nil {
		return
	}

	if len(names) == 0 {
		return "", errors.New("no boot loader entries found")
	}

	for _, name := range names {
		e, err := uapi.LoadEntry(bootFS, uapi.EntriesPath+"/"+name+".conf")

		if err != nil {
			fmt.Fprintf(&buf, "%-20s invalid, %v\n", name, err)
			continue
		}

		fmt.Fprintf(&buf, "%-20s %s\n", name, e.Title)
	}

	return buf.String(), nil
}

func bootCmd(_ *shell.Interface, _ io.Writer, arg []string) (res string, err error) {
	if bootFS == nil {
		return "", errors.New("boot file system unavailable")
	}

	name := strings.TrimSpace(arg[0])

	if len(name) == 0 {
		return listEntries()
	}

	e, err := uapi.LoadEntry(bootFS, uapi.EntriesPath+"/"+name+".conf")

	if err != nil {
		return
	}

	data, err := e.BootData(bootFS)

	if err != nil {
		return
	}

	if err = boot(data); err != nil {
		return
	}

	return "loaded " + name, nil
}

func bootconfCmd(_ *shell.Interface, _ io.Writer, arg []string) (res string, err error) {
	if bootFS == nil {
		return "", errors.New("boot file system unavailable")
	}

	path := strings.TrimSpace(arg[0])

	if len(path) == 0 {
		path = config.DefaultBootConfig
	}

	conf, err := config.ReadBoot(bootFS, path)

	if err != nil {
		return
	}

	if settings != nil && settings.Verbose {
		conf.Print()
	}

	data, err := conf.Load(bootFS)

	if err != nil {
		return
	}

	if err = boot(data); err != nil {
		return
	}

	return "loaded " + path, nil
}
