// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package memory

// Translator converts addresses between the boot loader virtual view and
// the physical address space.
type Translator interface {
	VirtToPhys(addr uint64) uint64
	PhysToVirt(addr uint64) uint64
}

// Identity is the translator for flat, identity mapped, address spaces.
type Identity struct{}

// VirtToPhys returns addr.
func (Identity) VirtToPhys(addr uint64) uint64 {
	return addr
}

// PhysToVirt returns addr.
func (Identity) PhysToVirt(addr uint64) uint64 {
	return addr
}

// Segment is the translator for unmapped segments where the physical
// address is obtained by masking out the segment base bits.
type Segment struct {
	Base uint64
	Mask uint64
}

// KSEG0 represents the MIPS32 unmapped cached segment.
var KSEG0 = Segment{Base: 0x80000000, Mask: 0x1fffffff}

// VirtToPhys masks out the segment bits.
func (s Segment) VirtToPhys(addr uint64) uint64 {
	return addr & s.Mask
}

// PhysToVirt adds the segment bits.
func (s Segment) PhysToVirt(addr uint64) uint64 {
	return (addr & s.Mask) | s.Base
}

// Linear is the translator for linear mappings at a fixed offset.
type Linear struct {
	Offset uint64
}

// VirtToPhys subtracts the mapping offset.
func (l Linear) VirtToPhys(addr uint64) uint64 {
	return addr - l.Offset
}

// PhysToVirt adds the mapping offset.
func (l Linear) PhysToVirt(addr uint64) uint64 {
	return addr + l.Offset
}
