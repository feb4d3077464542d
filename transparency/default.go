// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build !transparency

package transparency

import (
	"errors"
)

// Validate fails unless boot transparency is disabled, as this build does
// not include the boot-transparency library.
func (b BootEntry) Validate(c *Config) (err error) {
	if c.Status == None {
		return
	}

	return errors.New("boot transparency unsupported, rebuild with the transparency tag")
}
