// Copyright (c) WithSecure Corporation
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package uapi implements Boot Loader Entries parsing
// following the specifications at:
//
//	https://uapi-group.org/specifications/specs/boot_loader_specification/
package uapi

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/usbarmory/go-kexec/kexec"
)

// EntriesPath is the Type #1 Boot Loader Entries directory.
const EntriesPath = "loader/entries"

// Entry represents the parsed contents of Type #1 Boot Loader Entry Keys.
type Entry struct {
	Title      string
	Linux      string
	Initrd     []string
	DeviceTree string
	Options    string

	parsed  string
	ignored string
}

func (e *Entry) parseKey(line string) {
	kv := strings.SplitN(strings.TrimSpace(line), " ", 2)

	if len(kv) < 2 || strings.HasPrefix(kv[0], "#") {
		return
	}

	k := kv[0]
	v := strings.TrimSpace(kv[1])

	switch k {
	case "title":
		e.Title = v
	case "linux":
		e.Linux = v
	case "initrd":
		e.Initrd = append(e.Initrd, v)
	case "devicetree":
		e.DeviceTree = v
	case "options":
		if len(e.Options) > 0 {
			e.Options += " "
		}

		e.Options += v
	default:
		e.ignored += line
		return
	}

	e.parsed += line
}

// String returns the lines successfully parsed.
func (e *Entry) String() string {
	return e.parsed
}

// Ignored returns the lines ignored during parsing.
func (e *Entry) Ignored() string {
	return e.ignored
}

// ParseEntry parses Type #1 Boot Loader Specification Entry keys.
func ParseEntry(buf []byte) (e *Entry, err error) {
	e = &Entry{}

	for line := range strings.Lines(string(buf)) {
		e.parseKey(line)
	}

	if len(e.Linux) == 0 {
		return nil, errors.New("missing linux key")
	}

	return
}

// LoadEntry parses Type #1 Boot Loader Specification Entries from the argument
// file.
func LoadEntry(fsys fs.FS, path string) (e *Entry, err error) {
	entry, err := fs.ReadFile(fsys, strings.TrimPrefix(path, "/"))

	if err != nil {
		return
	}

	return ParseEntry(entry)
}

// Entries returns the Type #1 Boot Loader Entry file names, without
// extension, found in EntriesPath.
func Entries(fsys fs.FS) (names []string, err error) {
	matches, err := fs.Glob(fsys, EntriesPath+"/*.conf")

	if err != nil {
		return
	}

	for _, m := range matches {
		names = append(names, strings.TrimSuffix(m[len(EntriesPath)+1:], ".conf"))
	}

	return
}

// BootData loads each key contents from the argument file system, multiple
// initrd files are concatenated.
func (e *Entry) BootData(fsys fs.FS) (data *kexec.BootData, err error) {
	data = &kexec.BootData{
		OSFile:         e.Linux,
		DeviceTreeFile: e.DeviceTree,
		CmdLine:        e.Options,
	}

	for _, path := range e.Initrd {
		initrd, err := fs.ReadFile(fsys, strings.TrimPrefix(path, "/"))

		if err != nil {
			return nil, fmt.Errorf("could not read %s, %v", path, err)
		}

		data.Initrd = append(data.Initrd, initrd...)
		data.InitrdFile = path
	}

	return
}
