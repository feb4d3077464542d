// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package arch

import (
	"debug/elf"
	"encoding/binary"
)

func instructions(order binary.AppendByteOrder, ins ...uint32) (buf []byte) {
	for _, i := range ins {
		buf = order.AppendUint32(buf, i)
	}

	return
}

// ARM64 passes arguments in X0-X3, matching the Linux arm64 boot protocol
// when the first argument is the device tree address and the remaining
// ones are zero.
var ARM64 = register(&Arch{
	Name:      "arm64",
	Machine:   elf.EM_AARCH64,
	ByteOrder: binary.LittleEndian,
	code: instructions(binary.LittleEndian,
		0x10000349, // adr  x9, params
		0xf940052a, // ldr  x10, [x9, #8]
		0xf940092b, // ldr  x11, [x9, #16]
		// loop:
		0xb400020b, // cbz  x11, done
		0xa940354c, // ldp  x12, x13, [x10]
		0xa9413d4e, // ldp  x14, x15, [x10, #16]
		0xcb0d01ef, // sub  x15, x15, x13
		// copy:
		0xb40000ad, // cbz  x13, zero
		0x38401590, // ldrb w16, [x12], #1
		0x380015d0, // strb w16, [x14], #1
		0xd10005ad, // sub  x13, x13, #1
		0x17fffffc, // b    copy
		// zero:
		0xb400008f, // cbz  x15, next
		0x380015df, // strb wzr, [x14], #1
		0xd10005ef, // sub  x15, x15, #1
		0x17fffffd, // b    zero
		// next:
		0x9100814a, // add  x10, x10, #32
		0xd100056b, // sub  x11, x11, #1
		0x17fffff1, // b    loop
		// done:
		0xf9400d20, // ldr  x0, [x9, #24]
		0xf9401121, // ldr  x1, [x9, #32]
		0xf9401522, // ldr  x2, [x9, #40]
		0xf9401923, // ldr  x3, [x9, #48]
		0xf9400124, // ldr  x4, [x9]
		0xd61f0080, // br   x4
		0xd503201f, // nop
		// params:
	),
})
