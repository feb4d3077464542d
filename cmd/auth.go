// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package cmd

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/usbarmory/go-kexec/shell"
	"github.com/usbarmory/go-kexec/transparency"
)

func init() {
	shell.Add(shell.Cmd{
		Name:    "bt",
		Args:    1,
		Pattern: regexp.MustCompile(`^(?:bt)( none| offline| online)?$`),
		Syntax:  "(none|offline|online)?",
		Help:    "show/set boot-transparency status",
		Fn:      btCmd,
	})
}

func btCmd(_ *shell.Interface, _ io.Writer, arg []string) (res string, err error) {
	if len(arg[0]) > 0 {
		if btConfig.Status, err = transparency.ParseStatus(strings.TrimSpace(arg[0])); err != nil {
			return
		}
	}

	if btConfig.Status == transparency.None {
		return "boot-transparency is disabled", nil
	}

	return fmt.Sprintf("boot-transparency is enabled in %s mode", btConfig.Status.Resolve()), nil
}
