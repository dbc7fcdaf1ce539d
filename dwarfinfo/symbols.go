// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dwarfinfo

import (
	"debug/elf"
	"strings"
)

// AddressByFunctionName implements dsl.AddressResolver (spec.md §4.2.1):
// exact-suffix match against the ELF symbol table's function symbols.
func (in *Interpreter) AddressByFunctionName(name string) (uint64, error) {
	syms, err := in.elf.Symbols()
	if err != nil {
		return 0, err
	}

	var matches []elf.Symbol
	for _, s := range syms {
		if elf.ST_TYPE(s.Info) != elf.STT_FUNC {
			continue
		}
		if strings.HasSuffix(s.Name, name) {
			matches = append(matches, s)
		}
	}
	switch len(matches) {
	case 0:
		return 0, ErrFunctionNotFound
	case 1:
		return matches[0].Value, nil
	default:
		return 0, ErrAmbiguousFunction
	}
}
