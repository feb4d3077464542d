// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package kexec

import (
	"bytes"
	"encoding/binary"

	"github.com/u-root/u-root/pkg/dt"
)

// device tree /chosen properties
const (
	chosen      = "chosen"
	bootargs    = "bootargs"
	initrdStart = "linux,initrd-start"
	initrdEnd   = "linux,initrd-end"
)

// ValidateDeviceTree verifies that the argument is a flattened device tree.
func ValidateDeviceTree(dtb []byte) (err error) {
	_, err = dt.ReadFDT(bytes.NewReader(dtb))
	return
}

func setProperty(node *dt.Node, name string, value []byte) {
	for i, p := range node.Properties {
		if p.Name == name {
			node.Properties[i].Value = value
			return
		}
	}

	node.Properties = append(node.Properties, dt.Property{
		Name:  name,
		Value: value,
	})
}

func u64(v uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, v)
}

// FixupDeviceTree sets the /chosen node boot arguments and, when size is
// not zero, the initrd location. The fixed up device tree size does not
// depend on the initrd location value.
func FixupDeviceTree(dtb []byte, cmdline string, start uint64, size uint64) ([]byte, error) {
	fdt, err := dt.ReadFDT(bytes.NewReader(dtb))

	if err != nil {
		return nil, err
	}

	var node *dt.Node

	for _, n := range fdt.RootNode.Children {
		if n.Name == chosen {
			node = n
			break
		}
	}

	if node == nil {
		node = &dt.Node{Name: chosen}
		fdt.RootNode.Children = append(fdt.RootNode.Children, node)
	}

	setProperty(node, bootargs, []byte(cmdline+"\x00"))

	if size > 0 {
		setProperty(node, initrdStart, u64(start))
		setProperty(node, initrdEnd, u64(start+size))
	}

	buf := new(bytes.Buffer)

	if _, err = fdt.Write(buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
