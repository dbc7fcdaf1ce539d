// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dsl

import "strconv"

// AddressResolver is the subset of dwarfinfo.Interpreter that Address needs
// to turn itself into a numeric instruction address. Defined here (rather
// than imported from dwarfinfo) so the dsl package stays free of a
// dependency on ELF/DWARF internals.
type AddressResolver interface {
	AddressByFunctionName(name string) (uint64, error)
	AddressByFileLine(fileSuffix string, line int) (uint64, error)
}

// Interpret dispatches an Address to the resolver appropriate for its kind
// and returns the numeric instruction address, per spec.md §3's
// "interpret(interpreter) -> hex-string-address" contract (we return the
// uint64; callers format it with HexAddress).
func (a Address) Interpret(r AddressResolver) (uint64, error) {
	switch a.Kind {
	case AddressLiteral:
		v, err := strconv.ParseUint(a.LiteralHex, 16, 64)
		if err != nil {
			return 0, ErrInvalidAddress
		}
		return v, nil
	case AddressFileLine:
		return r.AddressByFileLine(a.FileSuffix, a.Line)
	case AddressFunction:
		return r.AddressByFunctionName(a.FuncName)
	default:
		return 0, ErrInvalidAddress
	}
}

