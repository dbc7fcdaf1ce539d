// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dwarfinfo

import (
	"encoding/binary"
	"fmt"
)

// locListEntry is one range/expression pair from .debug_loc.
type locListEntry struct {
	start, end uint64
	expr       []byte
}

// locListAt scans the .debug_loc section starting at offset and returns
// every entry of the list, stopping at the standard end-of-list marker
// (a zero/zero address pair). Base address selection entries
// (start == 0xffffffffffffffff on 64-bit) are not produced by the
// Go toolchain's amd64 output and are rejected as unsupported.
func locListAt(data []byte, order binary.ByteOrder, offset int64) ([]locListEntry, error) {
	pos := int(offset)
	var entries []locListEntry
	for {
		if pos+16 > len(data) {
			return nil, fmt.Errorf("dwarfinfo: truncated .debug_loc entry at %d", pos)
		}
		start := order.Uint64(data[pos:])
		end := order.Uint64(data[pos+8:])
		pos += 16
		if start == 0 && end == 0 {
			break
		}
		if start == ^uint64(0) {
			return nil, fmt.Errorf("dwarfinfo: base-address-selection entries are unsupported")
		}
		if pos+2 > len(data) {
			return nil, fmt.Errorf("dwarfinfo: truncated .debug_loc expression length at %d", pos)
		}
		exprLen := int(order.Uint16(data[pos:]))
		pos += 2
		if pos+exprLen > len(data) {
			return nil, fmt.Errorf("dwarfinfo: truncated .debug_loc expression at %d", pos)
		}
		entries = append(entries, locListEntry{start: start, end: end, expr: data[pos : pos+exprLen]})
		pos += exprLen
	}
	return entries, nil
}

// selectLocListEntry picks the entry whose [start, end) range, relative to
// the subprogram's low_pc per the DWARF loclist convention, contains addr
// (spec.md §4.2b).
func selectLocListEntry(entries []locListEntry, lowPC, addr uint64) ([]byte, error) {
	for _, e := range entries {
		if lowPC+e.start <= addr && addr < lowPC+e.end {
			return e.expr, nil
		}
	}
	return nil, fmt.Errorf("dwarfinfo: no .debug_loc entry covers 0x%x", addr)
}
