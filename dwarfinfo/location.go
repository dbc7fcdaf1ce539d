// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dwarfinfo

import "fmt"

// VariableLocation implements spec.md §4.2.3: the four-step chase from an
// instruction address and a variable name to a runtime location string
// ("$reg", "<cfa>+N*", …). path, if non-empty, is a dotted chain of
// structure member names to chase beyond the variable itself (spec.md
// §4.2.4); an empty path resolves just the variable's own location.
func (in *Interpreter) VariableLocation(addr uint64, varname string, path []string) (string, error) {
	sub, err := in.findSubprogram(addr)
	if err != nil {
		return "", err
	}
	param, err := sub.parameter(varname)
	if err != nil {
		return "", err
	}

	exprBytes, err := in.resolveLocationExpr(sub, addr, param)
	if err != nil {
		return "", err
	}

	cfaText, err := in.cfaText(sub, addr)
	if err != nil {
		return "", err
	}

	loc, err := decodeLocationExpr(exprBytes, cfaText)
	if err != nil {
		return "", err
	}

	if len(path) == 0 {
		return loc, nil
	}
	return in.chaseMembers(loc, param.TypeOffset, path)
}

// resolveLocationExpr returns the DWARF expression bytes in effect at addr
// for the given parameter, either inline or selected from a .debug_loc list
// (spec.md §4.2.3b).
func (in *Interpreter) resolveLocationExpr(sub Subprogram, addr uint64, p Parameter) ([]byte, error) {
	if !p.IsLocList {
		if p.Location == nil {
			return nil, fmt.Errorf("%w: %q", ErrNoLocation, p.Name)
		}
		return p.Location, nil
	}
	data, err := in.locDataOnce()
	if err != nil {
		return nil, err
	}
	entries, err := locListAt(data, in.order, p.LocListOffset)
	if err != nil {
		return nil, err
	}
	return selectLocListEntry(entries, sub.LowPC, addr)
}

// cfaText resolves the textual CFA expression in effect at addr within
// sub, per spec.md §4.2.3d.
func (in *Interpreter) cfaText(sub Subprogram, addr uint64) (string, error) {
	ft, err := in.frameTableOnce()
	if err != nil {
		return "", err
	}
	row, err := ft.lookup(sub.LowPC, addr)
	if err != nil {
		return "", err
	}
	return row.text(), nil
}
