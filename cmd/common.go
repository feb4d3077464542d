// Copyright (c) WithSecure Corporation
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"runtime"
	"runtime/debug"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"

	"github.com/usbarmory/go-kexec/board"
	"github.com/usbarmory/go-kexec/shell"
)

func init() {
	shell.Add(shell.Cmd{
		Name: "help",
		Help: "this help",
		Fn:   helpCmd,
	})

	shell.Add(shell.Cmd{
		Name: "build",
		Help: "build information",
		Fn:   buildInfoCmd,
	})

	shell.Add(shell.Cmd{
		Name:    "exit, quit",
		Args:    1,
		Pattern: regexp.MustCompile(`^(exit|quit)$`),
		Help:    "close session",
		Fn:      exitCmd,
	})

	shell.Add(shell.Cmd{
		Name: "halt",
		Help: "halt the machine",
		Fn:   haltCmd,
	})

	shell.Add(shell.Cmd{
		Name: "stack",
		Help: "goroutine stack trace (current)",
		Fn:   stackCmd,
	})

	shell.Add(shell.Cmd{
		Name: "stackall",
		Help: "goroutine stack trace (all)",
		Fn:   stackallCmd,
	})

	shell.Add(shell.Cmd{
		Name: "uptime",
		Help: "show how long the system has been running",
		Fn:   uptimeCmd,
	})

	shell.Add(shell.Cmd{
		Name: "info",
		Help: "board information",
		Fn:   infoCmd,
	})
}

func helpCmd(_ *shell.Interface, _ io.Writer, _ []string) (string, error) {
	return shell.Help(), nil
}

func buildInfoCmd(_ *shell.Interface, w io.Writer, _ []string) (string, error) {
	if bi, ok := debug.ReadBuildInfo(); ok {
		fmt.Fprint(w, bi.String())
	}

	return "", nil
}

func exitCmd(_ *shell.Interface, w io.Writer, _ []string) (string, error) {
	fmt.Fprintf(w, "Goodbye from %s/%s\n", runtime.GOOS, runtime.GOARCH)
	return "logout", io.EOF
}

func haltCmd(_ *shell.Interface, w io.Writer, _ []string) (string, error) {
	fmt.Fprintf(w, "Goodbye from %s/%s\n", runtime.GOOS, runtime.GOARCH)

	if target != nil {
		target.Shutdown()
	}

	go os.Exit(0)

	return "halted", io.EOF
}

func stackCmd(_ *shell.Interface, _ io.Writer, _ []string) (string, error) {
	return string(debug.Stack()), nil
}

func stackallCmd(_ *shell.Interface, _ io.Writer, _ []string) (string, error) {
	buf := new(bytes.Buffer)
	pprof.Lookup("goroutine").WriteTo(buf, 1)

	return buf.String(), nil
}

func uptimeCmd(_ *shell.Interface, _ io.Writer, _ []string) (string, error) {
	return durafmt.Parse(time.Since(started)).LimitFirstN(2).String(), nil
}

func infoCmd(_ *shell.Interface, _ io.Writer, _ []string) (string, error) {
	var res bytes.Buffer
	var ram uint64

	if err := ready(); err != nil {
		return "", err
	}

	for _, b := range target.Banks {
		ram += b.Size()
	}

	fmt.Fprintf(&res, "Runtime ......: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(&res, "Board ........: %s (available: %s)\n", target.Name, strings.Join(board.Names(), ", "))
	fmt.Fprintf(&res, "Architecture .: %s (%v)\n", target.Arch.Name, target.Arch.Machine)
	fmt.Fprintf(&res, "RAM ..........: %s in %d bank(s)\n", humanize.IBytes(ram), len(target.Banks))
	fmt.Fprintf(&res, "Boot args ....: %s\n", settings.BootArgs)
	fmt.Fprintf(&res, "Transparency .: %s\n", btConfig.Status.Resolve())
	fmt.Fprintf(&res, "Dry run ......: %v", settings.DryRun)

	return res.String(), nil
}

func trim(path string) string {
	return strings.TrimPrefix(path, "/")
}
