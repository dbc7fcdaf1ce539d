// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dwarfinfo

import (
	"fmt"
	"strings"

	"github.com/go-delve/delve/pkg/dwarf/regnum"
)

// regNames is the curated 17-entry amd64 DWARF-register-number table
// spec.md §4.2c calls for, e.g. rax -> "ax", r8 -> "r8", rip -> "rip". The
// register numbers come from regnum (the one piece of Delve's DWARF tooling
// we depend on; see DESIGN.md's dwarfinfo section for why we stop there
// rather than using delve's op/frame evaluators); the names are listed here.
var regNames = map[uint64]string{
	regnum.AMD64_Rax: "ax",
	regnum.AMD64_Rdx: "dx",
	regnum.AMD64_Rcx: "cx",
	regnum.AMD64_Rbx: "bx",
	regnum.AMD64_Rsi: "si",
	regnum.AMD64_Rdi: "di",
	regnum.AMD64_Rbp: "bp",
	regnum.AMD64_Rsp: "sp",
	regnum.AMD64_R8:  "r8",
	regnum.AMD64_R9:  "r9",
	regnum.AMD64_R10: "r10",
	regnum.AMD64_R11: "r11",
	regnum.AMD64_R12: "r12",
	regnum.AMD64_R13: "r13",
	regnum.AMD64_R14: "r14",
	regnum.AMD64_R15: "r15",
	regnum.AMD64_Rip: "rip",
}

// DWARF opcode bytes this compiler understands (spec.md §4.2c). Anything
// else is ErrInvalidDwarfOp.
const (
	opRegLo          = 0x50 // DW_OP_reg0
	opRegHi          = 0x6f // DW_OP_reg31
	opFbreg          = 0x91 // DW_OP_fbreg
	opPiece          = 0x93 // DW_OP_piece
	opCallFrameCFA   = 0x9c // DW_OP_call_frame_cfa
)

// decodeLocationExpr walks a DWARF location expression and renders it as
// the runtime location string described in spec.md §4.2c: a register name
// prefixed by "$", an fbreg-relative CFA offset, or "*" dereference marker,
// with DW_OP_piece rendered as a literal ";" separator.
//
// cfaText is the already-resolved textual CFA expression (spec.md §4.2d),
// substituted in wherever DW_OP_call_frame_cfa or DW_OP_fbreg appears.
func decodeLocationExpr(expr []byte, cfaText string) (string, error) {
	var tokens []string
	for i := 0; i < len(expr); {
		op := expr[i]
		switch {
		case op >= opRegLo && op <= opRegHi:
			regNum := uint64(op - opRegLo)
			name, ok := regNames[regNum]
			if !ok {
				return "", fmt.Errorf("%w: DW_OP_reg%d has no curated name", ErrInvalidDwarfOp, regNum)
			}
			tokens = append(tokens, "$"+name)
			i++

		case op == opFbreg:
			off, n, err := decodeSleb128(expr[i+1:])
			if err != nil {
				return "", fmt.Errorf("%w: bad DW_OP_fbreg operand: %v", ErrInvalidDwarfOp, err)
			}
			tokens = append(tokens, cfaText+signedOffset(off)+"*")
			i += 1 + n

		case op == opPiece:
			_, n, err := decodeUleb128(expr[i+1:])
			if err != nil {
				return "", fmt.Errorf("%w: bad DW_OP_piece operand: %v", ErrInvalidDwarfOp, err)
			}
			tokens = append(tokens, ";")
			i += 1 + n

		case op == opCallFrameCFA:
			tokens = append(tokens, cfaText+"*")
			i++

		default:
			return "", fmt.Errorf("%w: opcode 0x%x", ErrInvalidDwarfOp, op)
		}
	}
	return strings.Join(tokens, ";"), nil
}

// signedOffset formats n with an explicit leading sign, e.g. "+8" or "-4",
// as spec.md §4.2c requires for DW_OP_fbreg offsets.
func signedOffset(n int64) string {
	if n >= 0 {
		return fmt.Sprintf("+%d", n)
	}
	return fmt.Sprintf("%d", n)
}

func decodeUleb128(b []byte) (val uint64, n int, err error) {
	var shift uint
	for n < len(b) {
		x := b[n]
		val |= (uint64(x) & 0x7f) << shift
		n++
		if x&0x80 == 0 {
			return val, n, nil
		}
		shift += 7
	}
	return 0, 0, fmt.Errorf("truncated ULEB128")
}

func decodeSleb128(b []byte) (val int64, n int, err error) {
	var shift uint
	var x byte
	for n < len(b) {
		x = b[n]
		val |= (int64(x) & 0x7f) << shift
		shift += 7
		n++
		if x&0x80 == 0 {
			break
		}
	}
	if n == 0 {
		return 0, 0, fmt.Errorf("truncated SLEB128")
	}
	if shift < 64 && x&0x40 != 0 {
		val |= -1 << shift
	}
	return val, n, nil
}
