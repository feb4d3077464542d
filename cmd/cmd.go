// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package cmd implements the boot loader shell commands.
package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"runtime"
	"time"

	"github.com/usbarmory/go-kexec/board"
	"github.com/usbarmory/go-kexec/config"
	"github.com/usbarmory/go-kexec/kexec"
	"github.com/usbarmory/go-kexec/transparency"
)

// Banner represents the shell welcome message
var Banner string

var (
	settings *config.Settings
	target   *board.Board
	bootFS   fs.FS
	started  = time.Now()

	btConfig = &transparency.Config{}
)

// Init sets the board, boot file system and settings used by all commands.
func Init(s *config.Settings, b *board.Board, fsys fs.FS) (err error) {
	status, err := transparency.ParseStatus(s.Transparency)

	if err != nil {
		return
	}

	settings = s
	target = b
	bootFS = fsys

	btConfig = &transparency.Config{
		Status: status,
		Root:   fsys,
	}

	Banner = fmt.Sprintf("go-kexec • %s/%s (%s) • %s",
		runtime.GOOS, runtime.GOARCH, runtime.Version(), b.Name)

	return
}

func ready() error {
	if target == nil || settings == nil {
		return errors.New("board not initialized")
	}

	return nil
}

// boot validates and loads the argument boot data, starting it unless the
// dry run setting is enabled.
func boot(data *kexec.BootData) (err error) {
	if err = ready(); err != nil {
		return
	}

	ctx := target.Context(bootFS, settings.BootArgs)

	data.FixupDeviceTree = settings.FixupDeviceTree
	data.Verbose = settings.Verbose

	if btConfig.Status != transparency.None {
		if data.OS == nil {
			if data.OS, err = fs.ReadFile(bootFS, trim(data.OSFile)); err != nil {
				return fmt.Errorf("could not read %s, %v", data.OSFile, err)
			}
		}

		if len(data.InitrdFile) > 0 && data.Initrd == nil {
			if data.Initrd, err = fs.ReadFile(bootFS, trim(data.InitrdFile)); err != nil {
				return fmt.Errorf("could not read %s, %v", data.InitrdFile, err)
			}
		}

		if err = transparency.NewBootEntry(data).Validate(btConfig); err != nil {
			return fmt.Errorf("boot-transparency validation failed, %v", err)
		}
	}

	return target.Boot(ctx, data, settings.DryRun)
}
