// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package transparency

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/usbarmory/go-kexec/kexec"
)

// Artifact categories, as defined in the boot-transparency library.
const (
	LinuxKernel uint = 1
	Initrd      uint = 2
)

// Artifact represents a boot artifact.
type Artifact struct {
	// Category represents the artifact category as defined
	// in the boot-transparency library.
	Category uint

	// Hash represents the SHA256 checksum of the artifact.
	Hash []byte
}

// BootEntry represents a boot entry as a set of artifacts.
type BootEntry []Artifact

// ErrHashMismatch represents an hash mismatch error.
var ErrHashMismatch = errors.New("file hash mismatch")

// ErrHashInvalid represents an hash invalid error.
var ErrHashInvalid = errors.New("invalid artifact hash")

// NewBootEntry returns the boot entry representing the kernel and, if
// present, the initrd of the argument boot data.
func NewBootEntry(data *kexec.BootData) (b BootEntry) {
	add := func(category uint, buf []byte) {
		h := sha256.Sum256(buf)
		b = append(b, Artifact{Category: category, Hash: h[:]})
	}

	add(LinuxKernel, data.OS)

	if len(data.Initrd) > 0 {
		add(Initrd, data.Initrd)
	}

	return
}

func (a Artifact) validHash() (err error) {
	if len(a.Hash) != sha256.Size {
		err = fmt.Errorf("%w for artifact category %d", ErrHashInvalid, a.Category)
	}

	return
}
