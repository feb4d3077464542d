// Copyright (c) WithSecure Corporation
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// The go-kexec command is a boot loader shell able to load ELF kernels,
// along with their device tree and initrd, and hand over control to them.
package main

import (
	"io"
	"io/fs"
	"log"
	"os"

	"github.com/usbarmory/go-kexec/board"
	"github.com/usbarmory/go-kexec/cmd"
	"github.com/usbarmory/go-kexec/config"
	"github.com/usbarmory/go-kexec/partition"
)

// platform, when set, adjusts the settings for the running target
var platform func(s *config.Settings)

func init() {
	log.SetFlags(0)
}

func bootFS(s *config.Settings) (fsys fs.FS, err error) {
	if len(s.Partition) == 0 {
		return os.DirFS(s.Root), nil
	}

	f, err := os.Open(s.Partition)

	if err != nil {
		return
	}

	defer func() {
		if err != nil {
			f.Close()
		}
	}()

	fi, err := f.Stat()

	if err != nil {
		return
	}

	log.Printf("using ext4 partition %s@%#x", s.Partition, s.PartitionOffset)

	p, err := partition.Open(f, s.PartitionOffset, fi.Size())

	if err != nil {
		return
	}

	return p, nil
}

func main() {
	s, err := config.Environment()

	if err != nil {
		log.Fatal(err)
	}

	if platform != nil {
		platform(s)
	}

	if len(s.Log) > 0 {
		logFile, err := os.OpenFile(s.Log, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)

		if err != nil {
			log.Fatal(err)
		}

		defer logFile.Close()
		log.SetOutput(io.MultiWriter(os.Stdout, logFile))
	}

	b, err := board.New(s)

	if err != nil {
		log.Fatal(err)
	}

	fsys, err := bootFS(s)

	if err != nil {
		log.Fatalf("could not open boot file system, %v", err)
	}

	if err = cmd.Init(s, b, fsys); err != nil {
		log.Fatal(err)
	}

	if len(s.SSH) > 0 {
		err = startSSH(s)
	} else {
		err = startConsole()
	}

	if err != nil {
		log.Fatal(err)
	}
}
