// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package arch

import (
	"debug/elf"
	"encoding/binary"
)

// AMD64 passes arguments in RDI, RSI, RDX and RCX.
var AMD64 = register(&Arch{
	Name:      "amd64",
	Machine:   elf.EM_X86_64,
	ByteOrder: binary.LittleEndian,
	code: []byte{
		0x4c, 0x8d, 0x0d, 0x49, 0x00, 0x00, 0x00, // lea   r9, [rip+0x49]
		0x49, 0x8b, 0x59, 0x08, //                   mov   rbx, [r9+8]
		0x4d, 0x8b, 0x41, 0x10, //                   mov   r8, [r9+16]
		// loop:
		0x4d, 0x85, 0xc0, //                         test  r8, r8
		0x74, 0x23, //                               jz    done
		0x48, 0x8b, 0x33, //                         mov   rsi, [rbx]
		0x48, 0x8b, 0x7b, 0x10, //                   mov   rdi, [rbx+16]
		0x48, 0x8b, 0x4b, 0x08, //                   mov   rcx, [rbx+8]
		0xfc,       //                               cld
		0xf3, 0xa4, //                               rep   movsb
		0x48, 0x8b, 0x4b, 0x18, //                   mov   rcx, [rbx+24]
		0x48, 0x2b, 0x4b, 0x08, //                   sub   rcx, [rbx+8]
		0x31, 0xc0, //                               xor   eax, eax
		0xf3, 0xaa, //                               rep   stosb
		0x48, 0x83, 0xc3, 0x20, //                   add   rbx, 32
		0x49, 0xff, 0xc8, //                         dec   r8
		0xeb, 0xd8, //                               jmp   loop
		// done:
		0x49, 0x8b, 0x79, 0x18, //                   mov   rdi, [r9+24]
		0x49, 0x8b, 0x71, 0x20, //                   mov   rsi, [r9+32]
		0x49, 0x8b, 0x51, 0x28, //                   mov   rdx, [r9+40]
		0x49, 0x8b, 0x49, 0x30, //                   mov   rcx, [r9+48]
		0x49, 0x8b, 0x01, //                         mov   rax, [r9]
		0xff, 0xe0, //                               jmp   rax
		0x90, 0x90, 0x90, 0x90, //                   nop
	},
})
