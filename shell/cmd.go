// Copyright (c) WithSecure Corporation
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package shell

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"sort"
	"text/tabwriter"
)

// CmdFn represents a command handler, output other than the returned result
// can be written to w.
type CmdFn func(iface *Interface, w io.Writer, arg []string) (res string, err error)

// Cmd represents a shell command.
type Cmd struct {
	// Name is the command name, used for matching when Pattern is nil
	Name string
	// Args is the number of Pattern submatches passed to Fn
	Args int
	// Pattern is the optional command matching expression
	Pattern *regexp.Regexp
	// Syntax is the argument syntax shown in help
	Syntax string
	// Help is the command description
	Help string
	// Fn is the command handler
	Fn CmdFn
}

var cmds = map[string]*Cmd{}

// Add registers a command, replacing any existing one with the same name.
func Add(cmd Cmd) {
	cmds[cmd.Name] = &cmd
}

func names() (n []string) {
	for name := range cmds {
		n = append(n, name)
	}

	sort.Strings(n)

	return
}

// Help returns the registered commands help.
func Help() string {
	var help bytes.Buffer

	t := tabwriter.NewWriter(&help, 16, 8, 0, '\t', tabwriter.TabIndent)

	for _, name := range names() {
		fmt.Fprintf(t, "%s\t%s\t # %s\n", cmds[name].Name, cmds[name].Syntax, cmds[name].Help)
	}

	t.Flush()

	return help.String()
}

func match(line string) (cmd *Cmd, arg []string) {
	for _, name := range names() {
		c := cmds[name]

		if c.Pattern == nil {
			if c.Name == line {
				return c, nil
			}
		} else if m := c.Pattern.FindStringSubmatch(line); len(m) > 0 && (len(m)-1 == c.Args) {
			return c, m[1:]
		}
	}

	return
}
