// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build linux

// Package linux implements kexec handover on a running Linux kernel through
// the kexec_load(2) and reboot(2) system calls.
package linux

import (
	"errors"
	"fmt"
	"log"

	ukexec "github.com/u-root/u-root/pkg/boot/kexec"
	"golang.org/x/sys/unix"

	"github.com/usbarmory/go-kexec/kexec"
)

// Machine implements [kexec.Machine] on Linux hosts, it requires the
// CAP_SYS_BOOT capability.
type Machine struct {
	loaded bool
}

// physRange returns the segment destination as a u-root kexec range.
func physRange(s *kexec.Segment) ukexec.Range {
	return ukexec.Range{
		Start: uintptr(s.Mem),
		Size:  uint(s.Memsz),
	}
}

// Segments converts a load request to the u-root kexec segment list.
func Segments(info *kexec.Info) (segs ukexec.Segments) {
	for i := range info.Segments {
		s := &info.Segments[i]
		segs = append(segs, ukexec.NewSegment(s.Buf, physRange(s)))
	}

	return
}

// Load hands the load request segments over to the running kernel.
func (m *Machine) Load(info *kexec.Info) (err error) {
	if len(info.Segments) == 0 {
		return errors.New("empty kexec load request")
	}

	if err = ukexec.Load(uintptr(info.Entry), Segments(info), info.Flags); err != nil {
		return fmt.Errorf("kexec_load failed, %v", err)
	}

	m.loaded = true

	return
}

// Exec invokes the shutdown function, syncs file systems and reboots into
// the loaded image.
func (m *Machine) Exec(shutdown func()) {
	if !m.loaded {
		panic("kexec: no image loaded")
	}

	if shutdown != nil {
		shutdown()
	}

	unix.Sync()

	if err := unix.Reboot(unix.LINUX_REBOOT_CMD_KEXEC); err != nil {
		log.Fatalf("kexec reboot failed, %v", err)
	}

	log.Fatal("kexec reboot returned")
}
