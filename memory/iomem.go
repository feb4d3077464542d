// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package memory

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/usbarmory/go-kexec/resource"
)

const systemRAM = "System RAM"

// ParseIomem converts a Linux /proc/iomem listing to memory banks, top level
// "System RAM" entries become banks while their nested entries (kernel
// image, crash kernel, etc.) become bank reservations.
func ParseIomem(r io.Reader) (m Map, err error) {
	var bank *Bank

	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := scanner.Text()
		nested := strings.HasPrefix(line, " ")

		bounds, name, ok := strings.Cut(strings.TrimSpace(line), " : ")

		if !ok {
			return nil, fmt.Errorf("invalid iomem line %q", line)
		}

		startEnd := strings.SplitN(bounds, "-", 2)

		if len(startEnd) != 2 {
			return nil, fmt.Errorf("invalid iomem range %q", bounds)
		}

		start, err := strconv.ParseUint(startEnd[0], 16, 64)

		if err != nil {
			return nil, fmt.Errorf("invalid iomem start %q, %v", startEnd[0], err)
		}

		end, err := strconv.ParseUint(startEnd[1], 16, 64)

		if err != nil {
			return nil, fmt.Errorf("invalid iomem end %q, %v", startEnd[1], err)
		}

		// unprivileged readers get zeroed ranges
		if start == 0 && end == 0 {
			continue
		}

		if !nested {
			bank = nil

			if name != systemRAM {
				continue
			}

			res, err := resource.New(fmt.Sprintf("ram%d", len(m)), start, end)

			if err != nil {
				return nil, err
			}

			bank = &Bank{Resource: *res}
			m = append(m, bank)

			continue
		}

		if bank == nil || strings.HasPrefix(line, "    ") {
			continue
		}

		child, err := resource.New(name, start, end)

		if err != nil {
			return nil, err
		}

		if bank.Contains(child) {
			bank.Children = append(bank.Children, child)
		}
	}

	if err = scanner.Err(); err != nil {
		return nil, err
	}

	if len(m) == 0 {
		return nil, errors.New("no System RAM entries found")
	}

	m.sort()

	return
}
