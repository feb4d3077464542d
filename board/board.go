// Copyright (c) The go-boot authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package board describes the platforms supported by the boot loader: their
// memory banks, address translation and kexec handover implementation.
package board

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"sort"
	"strings"

	"github.com/usbarmory/go-kexec/arch"
	"github.com/usbarmory/go-kexec/config"
	"github.com/usbarmory/go-kexec/kexec"
	"github.com/usbarmory/go-kexec/memory"
)

// Board represents a boot loader platform.
type Board struct {
	// Name is the board name
	Name string
	// Arch is the board architecture
	Arch *arch.Arch
	// Banks represents the board memory banks
	Banks memory.Map
	// Translator converts boot loader addresses to physical ones
	Translator memory.Translator
	// Machine is the kexec handover implementation
	Machine kexec.Machine

	// Memory provides physical memory access, nil on hosted boards
	Memory io.WriterAt
	// Jump transfers control to a physical address, nil on hosted
	// boards
	Jump func(addr uint64)

	shutdown []func()
}

type constructor func(s *config.Settings) (*Board, error)

var boards = map[string]constructor{}

func register(name string, fn constructor) {
	boards[name] = fn
}

// Names returns the boards available in this build.
func Names() (names []string) {
	for name := range boards {
		names = append(names, name)
	}

	sort.Strings(names)

	return
}

// New returns the board selected by the argument settings.
func New(s *config.Settings) (*Board, error) {
	fn, ok := boards[s.Board]

	if !ok {
		return nil, fmt.Errorf("unsupported board %q (available: %s)", s.Board, strings.Join(Names(), ", "))
	}

	return fn(s)
}

// OnShutdown registers a function invoked, in reverse registration order,
// before handing over control to a loaded image.
func (b *Board) OnShutdown(fn func()) {
	b.shutdown = append(b.shutdown, fn)
}

// Shutdown invokes all registered shutdown functions.
func (b *Board) Shutdown() {
	for i := len(b.shutdown) - 1; i >= 0; i-- {
		b.shutdown[i]()
	}
}

// Context returns a fresh load context for the board.
func (b *Board) Context(fsys fs.FS, bootargs string) *kexec.Context {
	return &kexec.Context{
		Banks:      b.Banks,
		Translator: b.Translator,
		FS:         fsys,
		Types:      []kexec.FileType{kexec.ELF(b.Arch.Machine)},
		BootArgs:   bootargs,
	}
}

// Load assembles the argument boot data and, unless dryRun is set, commits
// the resulting load request to the board machine.
func (b *Board) Load(ctx *kexec.Context, data *kexec.BootData, dryRun bool) (info *kexec.Info, err error) {
	log.Printf("loading %s", data.OSFile)

	if info, err = kexec.LoadBootData(ctx, data); err != nil {
		return
	}

	if err = kexec.CheckRoom(ctx.Banks, info.Segments); err != nil {
		return nil, err
	}

	if dryRun {
		log.Printf("dry run, entry@%#08x not loaded", info.Entry)
		return
	}

	if b.Machine == nil {
		return nil, errors.New("kexec unsupported on this board")
	}

	if err = b.Machine.Load(info); err != nil {
		return nil, fmt.Errorf("could not load kernel, %w", err)
	}

	return
}

// Boot loads the argument boot data and, unless dryRun is set, starts it,
// it does not return on success.
func (b *Board) Boot(ctx *kexec.Context, data *kexec.BootData, dryRun bool) (err error) {
	info, err := b.Load(ctx, data, dryRun)

	if err != nil || dryRun {
		return
	}

	log.Printf("starting kernel@%#08x", info.Entry)
	b.Machine.Exec(b.Shutdown)

	return
}

// Go transfers control to a physical address after invoking all shutdown
// functions, it does not return on success.
func (b *Board) Go(addr uint64) error {
	if b.Jump == nil {
		return errors.New("jump unsupported on this board")
	}

	if b.Banks.Find(addr, 1) == nil {
		return fmt.Errorf("%#08x outside of memory banks", addr)
	}

	log.Printf("starting code@%#08x", addr)

	b.Shutdown()
	b.Jump(addr)

	return errors.New("returned from jump")
}
