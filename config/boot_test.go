// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
)

var (
	testKernel = []byte("kernel image")
	testDTB    = []byte("device tree")
	testInitrd = []byte("initrd")
)

func hash(buf []byte) string {
	sum := sha256.Sum256(buf)
	return hex.EncodeToString(sum[:])
}

func testFS(conf string) fstest.MapFS {
	return fstest.MapFS{
		"boot/vmlinux":    {Data: testKernel},
		"boot/board.dtb":  {Data: testDTB},
		"boot/initrd":     {Data: testInitrd},
		"boot/kexec.conf": {Data: []byte(conf)},
	}
}

func TestVerifyHash(t *testing.T) {
	if !verifyHash(testKernel, hash(testKernel)) {
		t.Error("valid hash rejected")
	}

	if verifyHash(testKernel, hash(testDTB)) {
		t.Error("invalid hash accepted")
	}

	if verifyHash(testKernel, "not hex") {
		t.Error("malformed hash accepted")
	}
}

func TestParseBoot(t *testing.T) {
	tests := []struct {
		name    string
		conf    string
		wantErr bool
	}{
		{"kernel", `{"kernel": ["/boot/vmlinux", "00"]}`, false},
		{"full", `{"kernel": ["a", "00"], "dtb": ["b", "00"], "initrd": ["c", "00"], "cmdline": "ro"}`, false},
		{"no kernel", `{"dtb": ["b", "00"]}`, true},
		{"kernel size", `{"kernel": ["a"]}`, true},
		{"dtb size", `{"kernel": ["a", "00"], "dtb": ["b", "00", "c"]}`, true},
		{"json", `{"kernel": `, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseBoot([]byte(tt.conf)); (err != nil) != tt.wantErr {
				t.Errorf("ParseBoot() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBootLoad(t *testing.T) {
	conf := fmt.Sprintf(`{
		"kernel": ["/boot/vmlinux", %q],
		"dtb": ["/boot/board.dtb", %q],
		"initrd": ["/boot/initrd", %q],
		"cmdline": "console=ttyS0"
	}`, hash(testKernel), hash(testDTB), hash(testInitrd))

	fsys := testFS(conf)
	b, err := ReadBoot(fsys, DefaultBootConfig)

	if err != nil {
		t.Fatal(err)
	}

	data, err := b.Load(fsys)

	if err != nil {
		t.Fatal(err)
	}

	got := []string{data.OSFile, string(data.OS), data.DeviceTreeFile, string(data.DeviceTree), data.InitrdFile, string(data.Initrd), data.CmdLine}
	want := []string{"/boot/vmlinux", "kernel image", "/boot/board.dtb", "device tree", "/boot/initrd", "initrd", "console=ttyS0"}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestBootLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		conf string
	}{
		{"kernel hash", fmt.Sprintf(`{"kernel": ["/boot/vmlinux", %q]}`, hash(testInitrd))},
		{"initrd hash", fmt.Sprintf(`{"kernel": ["/boot/vmlinux", %q], "initrd": ["/boot/initrd", "00"]}`, hash(testKernel))},
		{"missing", fmt.Sprintf(`{"kernel": ["/boot/missing", %q]}`, hash(testKernel))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := testFS(tt.conf)
			b, err := ReadBoot(fsys, DefaultBootConfig)

			if err != nil {
				t.Fatal(err)
			}

			if _, err = b.Load(fsys); err == nil {
				t.Error("Load() succeeded")
			}
		})
	}
}

func TestBootLoadKernelOnly(t *testing.T) {
	fsys := testFS(fmt.Sprintf(`{"kernel": ["/boot/vmlinux", %q]}`, hash(testKernel)))
	b, err := ReadBoot(fsys, DefaultBootConfig)

	if err != nil {
		t.Fatal(err)
	}

	data, err := b.Load(fsys)

	if err != nil {
		t.Fatal(err)
	}

	if data.DeviceTree != nil || data.Initrd != nil || len(data.DeviceTreeFile) != 0 {
		t.Errorf("unexpected boot data %+v", data)
	}
}
