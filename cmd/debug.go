// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build debug

package cmd

import (
	"io"
	"log"
	"net/http"
	_ "net/http/pprof"
	"regexp"

	"github.com/arl/statsviz"

	"github.com/usbarmory/go-kexec/shell"
)

func init() {
	statsviz.RegisterDefault()

	shell.Add(shell.Cmd{
		Name:    "debug",
		Args:    1,
		Pattern: regexp.MustCompile(`^debug (\S+)$`),
		Syntax:  "<address>",
		Help:    "start pprof and statsviz server",
		Fn:      debugCmd,
	})
}

func debugCmd(_ *shell.Interface, _ io.Writer, arg []string) (res string, err error) {
	addr := arg[0]

	go func() {
		log.Printf("debug server exited, %v", http.ListenAndServe(addr, nil))
	}()

	return "serving /debug/pprof and /debug/statsviz on " + addr, nil
}
