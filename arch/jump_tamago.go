// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build tamago

package arch

import (
	"unsafe"
)

// Jump transfers execution to the code at addr, it does not return.
func Jump(addr uint) {
	var fn func()

	// a func value points to a word holding the code address
	pc := addr
	*(*unsafe.Pointer)(unsafe.Pointer(&fn)) = unsafe.Pointer(&pc)

	fn()
}
