// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package kexec

import (
	"bytes"
	"log"
	"strings"
)

const (
	// CommandLineSize is the maximum command line length passed with the
	// legacy boot protocol, terminator included.
	CommandLineSize = 256
	// MaxArgc is the maximum number of arguments passed with the legacy
	// boot protocol.
	MaxArgc = 32
)

// CmdLine returns the command line carried by the first segment marked
// with CmdLinePrefix, without prefix and terminator.
func (info *Info) CmdLine() (cmdline string, ok bool) {
	for _, s := range info.Segments {
		if !bytes.HasPrefix(s.Buf, []byte(CmdLinePrefix)) {
			continue
		}

		buf := s.Buf[len(CmdLinePrefix):]

		if i := bytes.IndexByte(buf, 0); i >= 0 {
			buf = buf[:i]
		}

		return string(buf), true
	}

	return
}

// Argv converts a command line to the legacy boot protocol argument
// vector, the first argument is always "kexec".
func Argv(cmdline string) (argv []string) {
	if len(cmdline) > CommandLineSize-1 {
		log.Printf("kexec command line truncated to %d bytes", CommandLineSize)
		cmdline = cmdline[:CommandLineSize-1]
	}

	argv = append(argv, strings.TrimSpace(CmdLinePrefix))

	for _, arg := range strings.Split(cmdline, " ") {
		if len(argv) >= MaxArgc {
			break
		}

		if len(arg) > 0 {
			argv = append(argv, arg)
		}
	}

	return
}
