// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package config

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strings"

	"github.com/usbarmory/go-kexec/kexec"
)

// DefaultBootConfig is the default JSON boot configuration path.
const DefaultBootConfig = "/boot/kexec.conf"

// Boot represents a JSON boot configuration, each file is listed along with
// its SHA256 hash:
//
//	{
//	  "kernel": ["/boot/vmlinux", "<sha256>"],
//	  "dtb": ["/boot/board.dtb", "<sha256>"],
//	  "initrd": ["/boot/initrd", "<sha256>"],
//	  "cmdline": "console=ttyS0,115200"
//	}
type Boot struct {
	Kernel         []string `json:"kernel"`
	DeviceTreeBlob []string `json:"dtb,omitempty"`
	Initrd         []string `json:"initrd,omitempty"`
	CmdLine        string   `json:"cmdline,omitempty"`
}

func verifyHash(bin []byte, s string) bool {
	h := sha256.New()
	h.Write(bin)

	hash, err := hex.DecodeString(s)

	if err != nil {
		return false
	}

	return bytes.Equal(h.Sum(nil), hash)
}

func checkEntry(name string, entry []string, optional bool) error {
	if len(entry) == 0 && optional {
		return nil
	}

	if len(entry) != 2 {
		return fmt.Errorf("invalid %s parameter size", name)
	}

	return nil
}

// ParseBoot parses a JSON boot configuration.
func ParseBoot(buf []byte) (b *Boot, err error) {
	b = &Boot{}

	if err = json.Unmarshal(buf, b); err != nil {
		return nil, err
	}

	if err = checkEntry("kernel", b.Kernel, false); err != nil {
		return nil, err
	}

	if err = checkEntry("dtb", b.DeviceTreeBlob, true); err != nil {
		return nil, err
	}

	if err = checkEntry("initrd", b.Initrd, true); err != nil {
		return nil, err
	}

	return
}

// ReadBoot reads a JSON boot configuration from the argument file system.
func ReadBoot(fsys fs.FS, path string) (b *Boot, err error) {
	log.Printf("reading configuration at %s", path)

	buf, err := fs.ReadFile(fsys, strings.TrimPrefix(path, "/"))

	if err != nil {
		return
	}

	return ParseBoot(buf)
}

func load(fsys fs.FS, name string, entry []string) (buf []byte, err error) {
	if len(entry) == 0 {
		return
	}

	if buf, err = fs.ReadFile(fsys, strings.TrimPrefix(entry[0], "/")); err != nil {
		return nil, fmt.Errorf("could not read %s, %v", name, err)
	}

	if !verifyHash(buf, entry[1]) {
		return nil, fmt.Errorf("invalid %s hash", name)
	}

	return
}

// Load reads all boot configuration files, verifying their hashes, and
// returns them as boot data.
func (b *Boot) Load(fsys fs.FS) (data *kexec.BootData, err error) {
	if len(b.Kernel) != 2 {
		return nil, errors.New("missing kernel")
	}

	data = &kexec.BootData{
		OSFile:  b.Kernel[0],
		CmdLine: b.CmdLine,
	}

	if data.OS, err = load(fsys, "kernel", b.Kernel); err != nil {
		return nil, err
	}

	if data.DeviceTree, err = load(fsys, "dtb", b.DeviceTreeBlob); err != nil {
		return nil, err
	}

	if data.Initrd, err = load(fsys, "initrd", b.Initrd); err != nil {
		return nil, err
	}

	if len(b.DeviceTreeBlob) > 0 {
		data.DeviceTreeFile = b.DeviceTreeBlob[0]
	}

	if len(b.Initrd) > 0 {
		data.InitrdFile = b.Initrd[0]
	}

	return
}

// Print logs the boot configuration.
func (b *Boot) Print() {
	j, _ := json.MarshalIndent(b, "", "\t")
	log.Printf("\n%s", string(j))
}
