// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dwarfinfo

import (
	"encoding/binary"
	"fmt"
)

// cfaRow is one row of a Call Frame Information table for a single FDE:
// the CFA for instructions in [startPC, endPC) expressed as "register+offset".
// This mirrors what `objdump --dwarf=frames-interp` prints as its LOC/CFA
// columns; we decode .debug_frame ourselves instead of shelling out to
// objdump, per spec.md §9's "prefer a native DWARF reader" note.
type cfaRow struct {
	startPC, endPC uint64
	cfaRegister    uint64
	cfaOffset      int64
}

// text renders the row's CFA the way spec.md §4.2d requires: the register
// expression with "rsp" textually replaced by "$sp" (the only CFA base the
// compiler's supported programs use), then any constant offset.
func (r cfaRow) text() string {
	name, ok := regNames[r.cfaRegister]
	if !ok {
		name = fmt.Sprintf("$reg%d", r.cfaRegister)
	} else {
		name = "$" + name
	}
	if r.cfaOffset == 0 {
		return name
	}
	return name + signedOffset(r.cfaOffset)
}

// cfaState is the running def_cfa register/offset pair tracked while
// walking a CIE's initial instructions and then an FDE's instructions.
type cfaState struct {
	register uint64
	offset   int64
}

// frameTable decodes the .debug_frame section into per-FDE row tables,
// keyed by the FDE's initial location (a subprogram's low_pc).
type frameTable struct {
	byLowPC map[uint64][]cfaRow
}

// cieInfo is the subset of a parsed CIE needed to seed an FDE's walk.
type cieInfo struct {
	codeAlignment uint64
	dataAlignment int64
	initialState  cfaState
}

// parseFrameTable decodes every CIE/FDE pair in a raw .debug_frame section.
// Only the standard 32-bit DWARF format is supported (the 0xffffffff
// length-escape for 64-bit DWARF is not handled, matching the scope of
// amd64 Go-toolchain output this compiler targets).
func parseFrameTable(data []byte, order binary.ByteOrder) (*frameTable, error) {
	cies := make(map[int]cieInfo)
	ft := &frameTable{byLowPC: make(map[uint64][]cfaRow)}

	pos := 0
	for pos < len(data) {
		recordStart := pos
		if pos+4 > len(data) {
			break
		}
		length := order.Uint32(data[pos:])
		pos += 4
		if length == 0 {
			break // padding record
		}
		recordEnd := pos + int(length)
		if recordEnd > len(data) {
			return nil, fmt.Errorf("dwarfinfo: truncated .debug_frame record at %d", recordStart)
		}
		if pos+4 > recordEnd {
			return nil, fmt.Errorf("dwarfinfo: truncated CIE pointer at %d", pos)
		}
		cieOrFdePtr := order.Uint32(data[pos:])
		pos += 4

		if cieOrFdePtr == 0xffffffff {
			cie, err := parseCIE(data[pos:recordEnd], order)
			if err != nil {
				return nil, err
			}
			cies[recordStart] = cie
		} else {
			cie, ok := cies[int(cieOrFdePtr)]
			if !ok {
				return nil, fmt.Errorf("dwarfinfo: FDE at %d references unknown CIE %d", recordStart, cieOrFdePtr)
			}
			rows, lowPC, err := parseFDE(data[pos:recordEnd], order, cie)
			if err != nil {
				return nil, err
			}
			ft.byLowPC[lowPC] = rows
		}
		pos = recordEnd
	}
	return ft, nil
}

func parseCIE(b []byte, order binary.ByteOrder) (cieInfo, error) {
	if len(b) < 1 {
		return cieInfo{}, fmt.Errorf("dwarfinfo: empty CIE")
	}
	pos := 0
	version := b[pos]
	pos++

	// Augmentation string, NUL-terminated; CFI rows with a non-empty
	// augmentation (e.g. "eh" personality data) are outside this
	// compiler's scope and rejected.
	start := pos
	for pos < len(b) && b[pos] != 0 {
		pos++
	}
	aug := string(b[start:pos])
	pos++ // skip NUL
	if aug != "" {
		return cieInfo{}, fmt.Errorf("dwarfinfo: unsupported CIE augmentation %q", aug)
	}

	codeAlign, n, err := decodeUleb128(b[pos:])
	if err != nil {
		return cieInfo{}, fmt.Errorf("dwarfinfo: bad CIE code_alignment_factor: %v", err)
	}
	pos += n

	dataAlign, n, err := decodeSleb128(b[pos:])
	if err != nil {
		return cieInfo{}, fmt.Errorf("dwarfinfo: bad CIE data_alignment_factor: %v", err)
	}
	pos += n

	if version == 1 {
		pos++ // return_address_register is a single byte pre-DWARFv3
	} else {
		_, n, err = decodeUleb128(b[pos:])
		if err != nil {
			return cieInfo{}, fmt.Errorf("dwarfinfo: bad CIE return_address_register: %v", err)
		}
		pos += n
	}

	state, err := runCFAInstructions(b[pos:], order, cfaState{}, codeAlign, dataAlign, nil)
	if err != nil {
		return cieInfo{}, err
	}
	return cieInfo{codeAlignment: codeAlign, dataAlignment: dataAlign, initialState: state}, nil
}

func parseFDE(b []byte, order binary.ByteOrder, cie cieInfo) ([]cfaRow, uint64, error) {
	if len(b) < 16 {
		return nil, 0, fmt.Errorf("dwarfinfo: truncated FDE")
	}
	lowPC := order.Uint64(b[0:8])
	rangeLen := order.Uint64(b[8:16])
	var rows []cfaRow
	final, err := runCFAInstructions(b[16:], order, cie.initialState, cie.codeAlignment, cie.dataAlignment, &rows)
	if err != nil {
		return nil, 0, err
	}
	// pushRow records locations relative to the FDE's own start; rebase
	// them to absolute PCs before closeRows treats them as such.
	for i := range rows {
		rows[i].endPC += lowPC
	}
	// The state in effect after the last location-advancing op, through
	// the end of the FDE's range, never got its own row; add it.
	if len(rows) == 0 || rows[len(rows)-1].endPC != lowPC+rangeLen {
		rows = append(rows, cfaRow{cfaRegister: final.register, cfaOffset: final.offset})
	}
	return closeRows(rows, lowPC, lowPC+rangeLen), lowPC, nil
}

// closeRows fills in startPC/endPC for each tracked state transition so the
// table reads as a sequence of [start,end) ranges covering [lowPC, highPC).
func closeRows(rows []cfaRow, lowPC, highPC uint64) []cfaRow {
	out := make([]cfaRow, 0, len(rows))
	cur := lowPC
	for _, r := range rows {
		if r.endPC == 0 {
			r.endPC = highPC
		}
		r.startPC = cur
		if r.endPC <= r.startPC {
			r.endPC = highPC
		}
		cur = r.endPC
		out = append(out, r)
	}
	return out
}

// runCFAInstructions interprets a CFI instruction stream, tracking only the
// CFA register/offset rule (the sole rule this compiler needs). When rows
// is non-nil, a new row is appended every time the location advances,
// recording the CFA state that was in effect up to that point.
func runCFAInstructions(b []byte, order binary.ByteOrder, state cfaState, codeAlign uint64, dataAlign int64, rows *[]cfaRow) (cfaState, error) {
	pushRow := func(endPC uint64) {
		if rows != nil {
			*rows = append(*rows, cfaRow{endPC: endPC, cfaRegister: state.register, cfaOffset: state.offset})
		}
	}

	var loc uint64
	pos := 0
	for pos < len(b) {
		op := b[pos]
		pos++
		high := op & 0xc0
		low := op & 0x3f

		switch {
		case high == 0x40: // DW_CFA_advance_loc
			loc += uint64(low) * codeAlign
			pushRow(loc)
		case high == 0x80: // DW_CFA_offset
			_, n, err := decodeUleb128(b[pos:])
			if err != nil {
				return state, fmt.Errorf("dwarfinfo: bad DW_CFA_offset: %v", err)
			}
			pos += n
		case high == 0xc0: // DW_CFA_restore, register in low bits, no operand
		default:
			switch op {
			case 0x00: // DW_CFA_nop
			case 0x01: // DW_CFA_set_loc
				if pos+8 > len(b) {
					return state, fmt.Errorf("dwarfinfo: truncated DW_CFA_set_loc")
				}
				loc = order.Uint64(b[pos:])
				pos += 8
				pushRow(loc)
			case 0x02: // DW_CFA_advance_loc1
				loc += uint64(b[pos]) * codeAlign
				pos++
				pushRow(loc)
			case 0x03: // DW_CFA_advance_loc2
				loc += uint64(order.Uint16(b[pos:])) * codeAlign
				pos += 2
				pushRow(loc)
			case 0x04: // DW_CFA_advance_loc4
				loc += uint64(order.Uint32(b[pos:])) * codeAlign
				pos += 4
				pushRow(loc)
			case 0x0c: // DW_CFA_def_cfa
				reg, n, err := decodeUleb128(b[pos:])
				if err != nil {
					return state, err
				}
				pos += n
				off, n, err := decodeUleb128(b[pos:])
				if err != nil {
					return state, err
				}
				pos += n
				state.register, state.offset = reg, int64(off)
			case 0x0d: // DW_CFA_def_cfa_register
				reg, n, err := decodeUleb128(b[pos:])
				if err != nil {
					return state, err
				}
				pos += n
				state.register = reg
			case 0x0e: // DW_CFA_def_cfa_offset
				off, n, err := decodeUleb128(b[pos:])
				if err != nil {
					return state, err
				}
				pos += n
				state.offset = int64(off)
			case 0x12: // DW_CFA_def_cfa_sf
				reg, n, err := decodeUleb128(b[pos:])
				if err != nil {
					return state, err
				}
				pos += n
				off, n, err := decodeSleb128(b[pos:])
				if err != nil {
					return state, err
				}
				pos += n
				state.register, state.offset = reg, off*dataAlign
			case 0x13: // DW_CFA_def_cfa_offset_sf
				off, n, err := decodeSleb128(b[pos:])
				if err != nil {
					return state, err
				}
				pos += n
				state.offset = off * dataAlign
			case 0x05: // DW_CFA_offset_extended
				_, n, err := decodeUleb128(b[pos:])
				if err != nil {
					return state, err
				}
				pos += n
				_, n, err = decodeUleb128(b[pos:])
				if err != nil {
					return state, err
				}
				pos += n
			case 0x06, 0x08, 0x07: // restore_extended, same_value, undefined: one ULEB operand
				_, n, err := decodeUleb128(b[pos:])
				if err != nil {
					return state, err
				}
				pos += n
			case 0x0a, 0x0b: // remember_state, restore_state: no operand
			case 0x09: // DW_CFA_register: two ULEB operands
				_, n, err := decodeUleb128(b[pos:])
				if err != nil {
					return state, err
				}
				pos += n
				_, n, err = decodeUleb128(b[pos:])
				if err != nil {
					return state, err
				}
				pos += n
			case 0x0f, 0x16: // def_cfa_expression, expression: ULEB length + block, not supported as a CFA rule but skipped to stay in sync
				blen, n, err := decodeUleb128(b[pos:])
				if err != nil {
					return state, err
				}
				pos += n + int(blen)
			default:
				return state, fmt.Errorf("%w: unsupported CFA opcode 0x%x", ErrInvalidDwarfOp, op)
			}
		}
	}
	return state, nil
}

// lookup finds the row covering addr within the FDE starting at lowPC.
func (ft *frameTable) lookup(lowPC, addr uint64) (cfaRow, error) {
	rows, ok := ft.byLowPC[lowPC]
	if !ok {
		return cfaRow{}, fmt.Errorf("%w: no FDE for low_pc 0x%x", ErrCFANotFound, lowPC)
	}
	for _, r := range rows {
		if r.startPC <= addr && addr < r.endPC {
			return r, nil
		}
	}
	return cfaRow{}, ErrCFANotFound
}
