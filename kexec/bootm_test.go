// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package kexec

import (
	"bytes"
	"debug/elf"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/usbarmory/go-kexec/elfexec"
	"github.com/usbarmory/go-kexec/memory"
)

const testCmdLine = "kexec console=ttyS0 rd_start=0x00110000 rd_size=0x00004000\x00"

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"boot/vmlinux":   {Data: kernel()},
		"boot/board.dtb": {Data: deviceTree(true)},
		"boot/initrd":    {Data: pattern(0x4000, 7)},
	}
}

func testBootData() *BootData {
	return &BootData{
		OSFile:         "/boot/vmlinux",
		DeviceTreeFile: "/boot/board.dtb",
		InitrdFile:     "/boot/initrd",
	}
}

type layout struct {
	Mem   uint64
	Memsz uint64
	Bufsz uint64
}

func segmentLayout(info *Info) (l []layout) {
	for _, s := range info.Segments {
		l = append(l, layout{s.Mem, s.Memsz, s.Bufsz()})
	}

	return
}

func TestLoadBootData(t *testing.T) {
	ctx := testContext(t)
	ctx.FS = testFS()

	data := testBootData()
	info, err := LoadBootData(ctx, data)

	if err != nil {
		t.Fatal(err)
	}

	dtbSize := uint64(len(deviceTree(true)))

	want := []layout{
		{0x1000, 0x1000, 0x100},
		{0x102000, 0x1000, dtbSize},
		{0x110000, 0x4000, 0x4000},
		{0x114000, 0x1000, uint64(len(testCmdLine))},
	}

	if diff := cmp.Diff(want, segmentLayout(info)); diff != "" {
		t.Errorf("segments mismatch (-want +got):\n%s", diff)
	}

	if info.Entry != 0x1000 {
		t.Errorf("entry = %#x, want %#x", info.Entry, 0x1000)
	}

	if info.Flags != ArchFlags(elf.EM_X86_64) {
		t.Errorf("flags = %#x", info.Flags)
	}

	if info.DeviceTree != 0x102000 || data.DeviceTreeAddress != 0x102000 {
		t.Errorf("device tree address = %#x", info.DeviceTree)
	}

	if data.InitrdAddress != 0x110000 || data.InitrdSize != 0x4000 {
		t.Errorf("initrd = %#x+%#x", data.InitrdAddress, data.InitrdSize)
	}

	if data.CmdLineAddress != 0x114000 {
		t.Errorf("command line address = %#x", data.CmdLineAddress)
	}

	if got := string(info.Segments[3].Buf); got != testCmdLine {
		t.Errorf("command line = %q, want %q", got, testCmdLine)
	}

	if !bytes.Equal(info.Segments[0].Buf, pattern(0x100, 1)) {
		t.Error("kernel segment data mismatch")
	}
}

func TestLoadBootDataKernelOnly(t *testing.T) {
	ctx := testContext(t)

	info, err := LoadBootData(ctx, &BootData{OS: kernel(), CmdLine: "ro"})

	if err != nil {
		t.Fatal(err)
	}

	want := []layout{
		{0x1000, 0x1000, 0x100},
		{0x102000, 0x1000, uint64(len("kexec ro\x00"))},
	}

	if diff := cmp.Diff(want, segmentLayout(info)); diff != "" {
		t.Errorf("segments mismatch (-want +got):\n%s", diff)
	}

	if info.DeviceTree != 0 {
		t.Errorf("unexpected device tree address %#x", info.DeviceTree)
	}

	if cmdline, ok := info.CmdLine(); !ok || cmdline != "ro" {
		t.Errorf("CmdLine() = %q, %v", cmdline, ok)
	}
}

func TestLoadBootDataFixup(t *testing.T) {
	ctx := testContext(t)
	ctx.FS = testFS()

	data := testBootData()
	data.FixupDeviceTree = true

	info, err := LoadBootData(ctx, data)

	if err != nil {
		t.Fatal(err)
	}

	var dtb []byte

	for _, s := range info.Segments {
		if s.Mem == info.DeviceTree {
			dtb = s.Buf
		}
	}

	want := map[string][]byte{
		bootargs:    []byte("console=ttyS0\x00"),
		initrdStart: u64(data.InitrdAddress),
		initrdEnd:   u64(data.InitrdAddress + data.InitrdSize),
	}

	if diff := cmp.Diff(want, chosenProperties(t, dtb)); diff != "" {
		t.Errorf("/chosen mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadBootDataTranslated(t *testing.T) {
	ctx := testContext(t)
	ctx.Translator = memory.Linear{Offset: 0x80000000}
	ctx.Types = []FileType{ELF(elf.EM_MIPS)}

	image := elfImage(elf.ET_EXEC, elf.EM_MIPS, 0x80001000,
		testProg{typ: elf.PT_LOAD, paddr: 0x80001000, data: pattern(0x100, 1), memsz: 0x200},
	)

	info, err := LoadBootData(ctx, &BootData{OS: image, Initrd: pattern(0x4000, 3)})

	if err != nil {
		t.Fatal(err)
	}

	if info.Entry != 0x1000 || info.Segments[0].Mem != 0x1000 {
		t.Errorf("entry = %#x, mem = %#x", info.Entry, info.Segments[0].Mem)
	}

	cmdline, _ := info.CmdLine()

	if want := "console=ttyS0 rd_start=0x80110000 rd_size=0x00004000"; cmdline != want {
		t.Errorf("CmdLine() = %q, want %q", cmdline, want)
	}
}

func TestLoadBootDataRejected(t *testing.T) {
	overlapping := elfImage(elf.ET_EXEC, elf.EM_X86_64, 0x1000,
		testProg{typ: elf.PT_LOAD, paddr: 0x1000, data: pattern(0x100, 1), memsz: 0x2000},
		testProg{typ: elf.PT_LOAD, paddr: 0x2000, data: pattern(0x100, 2), memsz: 0x100},
	)

	interp := elfImage(elf.ET_EXEC, elf.EM_X86_64, 0x1000,
		testProg{typ: elf.PT_INTERP, data: []byte("/lib/ld.so\x00")},
		testProg{typ: elf.PT_LOAD, paddr: 0x1000, data: pattern(0x100, 1), memsz: 0x200},
	)

	dyn := elfImage(elf.ET_DYN, elf.EM_X86_64, 0x1000,
		testProg{typ: elf.PT_LOAD, paddr: 0x1000, data: pattern(0x100, 1), memsz: 0x200},
	)

	arm := elfImage(elf.ET_EXEC, elf.EM_AARCH64, 0x1000,
		testProg{typ: elf.PT_LOAD, paddr: 0x1000, data: pattern(0x100, 1), memsz: 0x200},
	)

	oversized := elfImage(elf.ET_EXEC, elf.EM_X86_64, 0x1000,
		testProg{typ: elf.PT_LOAD, paddr: 0, data: pattern(0x100, 1), memsz: 0xfffffffffffff001},
	)

	tests := []struct {
		name string
		data *BootData
		err  error
	}{
		{"oversized", &BootData{OS: oversized, CmdLine: "ro"}, ErrFileType},
		{"overlap", &BootData{OS: overlapping}, ErrOverlap},
		{"interpreter", &BootData{OS: interp}, elfexec.ErrInterp},
		{"dynamic", &BootData{OS: dyn}, elfexec.ErrNotExec},
		{"machine", &BootData{OS: arm}, ErrFileType},
		{"garbage", &BootData{OS: []byte("not an image")}, ErrFileType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadBootData(testContext(t), tt.data); !errors.Is(err, tt.err) {
				t.Errorf("LoadBootData() error = %v, want %v", err, tt.err)
			}
		})
	}
}

func TestLoadBootDataFiles(t *testing.T) {
	ctx := testContext(t)

	if _, err := LoadBootData(ctx, testBootData()); err == nil {
		t.Error("LoadBootData() without file system succeeded")
	}

	ctx.FS = testFS()
	data := testBootData()
	data.DeviceTreeFile = "/boot/missing.dtb"

	if _, err := LoadBootData(ctx, data); err == nil {
		t.Error("LoadBootData() with missing device tree succeeded")
	}

	data = testBootData()
	data.DeviceTreeFile = "/boot/initrd"

	if _, err := LoadBootData(ctx, data); err == nil {
		t.Error("LoadBootData() with invalid device tree succeeded")
	}
}
