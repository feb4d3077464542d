// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package config provides the boot loader settings, read from environment
// variables, and the JSON boot configuration format.
package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/xyproto/env/v2"
)

// Environment variables
const (
	BoardEnv           = "KEXEC_BOARD"
	ArchEnv            = "KEXEC_ARCH"
	MemoryEnv          = "KEXEC_MEMORY"
	RAMSizeEnv         = "KEXEC_RAM_SIZE"
	BootArgsEnv        = "KEXEC_BOOTARGS"
	VerboseEnv         = "KEXEC_VERBOSE"
	DryRunEnv          = "KEXEC_DRYRUN"
	FixupEnv           = "KEXEC_DT_FIXUP"
	RootEnv            = "KEXEC_ROOT"
	PartitionEnv       = "KEXEC_PARTITION"
	PartitionOffsetEnv = "KEXEC_PARTITION_OFFSET"
	SSHEnv             = "KEXEC_SSH"
	SSHHostKeyEnv      = "KEXEC_SSH_HOST_KEY"
	SSHAuthorizedEnv   = "KEXEC_SSH_AUTHORIZED_KEYS"
	LogEnv             = "KEXEC_LOG"
	TransparencyEnv    = "KEXEC_TRANSPARENCY"
)

// Defaults
const (
	DefaultBoard    = "sim"
	DefaultRAMSize  = "32MiB"
	DefaultBootArgs = "console=ttyS0,115200"
	DefaultRoot     = "/"
)

// Transparency modes
const (
	TransparencyNone    = "none"
	TransparencyOffline = "offline"
	TransparencyOnline  = "online"
)

// Settings represents the boot loader settings.
type Settings struct {
	// Board selects the board implementation (linux, sim, tamago)
	Board string
	// Arch selects the relocation stub architecture
	Arch string
	// Memory describes the simulated memory banks (e.g. 32MiB@0x0)
	Memory string
	// BootArgs represents the default kernel boot arguments
	BootArgs string

	// Verbose enables segment and relocation logging
	Verbose bool
	// DryRun stops boot commands before committing the load request
	DryRun bool
	// FixupDeviceTree enables device tree /chosen node updates
	FixupDeviceTree bool

	// Root is the host directory used as boot file system
	Root string
	// Partition is an ext4 image used as boot file system, it takes
	// precedence over Root
	Partition string
	// PartitionOffset is the ext4 partition offset within Partition
	PartitionOffset int64

	// SSH is the address of the ssh console, empty for stdio
	SSH string
	// SSHHostKey is the ssh console host key path
	SSHHostKey string
	// SSHAuthorizedKeys is the ssh console authorized keys path, all
	// clients are accepted when empty
	SSHAuthorizedKeys string

	// Log is an optional log file path
	Log string
	// Transparency is the boot transparency mode (none, offline, online)
	Transparency string
}

// Environment returns the settings set through environment variables.
func Environment() (s *Settings, err error) {
	s = &Settings{
		Board:             env.Str(BoardEnv, DefaultBoard),
		Arch:              env.Str(ArchEnv, runtime.GOARCH),
		Memory:            env.Str(MemoryEnv),
		BootArgs:          env.Str(BootArgsEnv, DefaultBootArgs),
		Verbose:           env.Bool(VerboseEnv),
		DryRun:            env.Bool(DryRunEnv),
		FixupDeviceTree:   env.Bool(FixupEnv),
		Root:              env.Str(RootEnv, DefaultRoot),
		Partition:         env.Str(PartitionEnv),
		SSH:               env.Str(SSHEnv),
		SSHHostKey:        env.Str(SSHHostKeyEnv),
		SSHAuthorizedKeys: env.Str(SSHAuthorizedEnv),
		Log:               env.Str(LogEnv),
		Transparency:      strings.ToLower(env.Str(TransparencyEnv, TransparencyNone)),
	}

	if err = s.parse(env.Str(RAMSizeEnv, DefaultRAMSize), env.Str(PartitionOffsetEnv)); err != nil {
		return nil, err
	}

	return
}

func (s *Settings) parse(ramSize string, partitionOffset string) error {
	if len(s.Memory) == 0 {
		size, err := humanize.ParseBytes(ramSize)

		if err != nil {
			return fmt.Errorf("invalid %s, %v", RAMSizeEnv, err)
		}

		s.Memory = fmt.Sprintf("%d@0x0", size)
	}

	if len(partitionOffset) > 0 {
		off, err := humanize.ParseBytes(partitionOffset)

		if err != nil {
			return fmt.Errorf("invalid %s, %v", PartitionOffsetEnv, err)
		}

		s.PartitionOffset = int64(off)
	}

	switch s.Transparency {
	case TransparencyNone, TransparencyOffline, TransparencyOnline:
	default:
		return fmt.Errorf("invalid %s %q", TransparencyEnv, s.Transparency)
	}

	return nil
}
