// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dwarfinfo

import (
	"debug/dwarf"
	"fmt"
)

// subprogramsOnce decodes every DW_TAG_subprogram DIE and its formal
// parameters with a single flat pass over .debug_info, the same pattern the
// teacher's gocore.readDWARFVars uses: walk the reader in document order,
// remembering the most recently seen subprogram and attaching subsequent
// formal-parameter entries to it until the next one.
func (in *Interpreter) subprogramsOnce() ([]Subprogram, error) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.subprograms != nil {
		return in.subprograms, nil
	}

	var subs []Subprogram
	var cur *Subprogram

	r := in.dw.Reader()
	for {
		entry, err := r.Next()
		if err != nil {
			return nil, err
		}
		if entry == nil {
			break
		}

		switch entry.Tag {
		case dwarf.TagSubprogram:
			lowF := entry.AttrField(dwarf.AttrLowpc)
			highF := entry.AttrField(dwarf.AttrHighpc)
			if lowF == nil || highF == nil {
				cur = nil
				continue
			}
			low, ok := lowF.Val.(uint64)
			if !ok {
				cur = nil
				continue
			}
			high, err := highPCValue(highF, low)
			if err != nil {
				cur = nil
				continue
			}
			name, _ := entry.Val(dwarf.AttrName).(string)
			subs = append(subs, Subprogram{Name: name, LowPC: low, HighPC: high})
			cur = &subs[len(subs)-1]

		case dwarf.TagFormalParameter:
			if cur == nil {
				continue
			}
			p, ok := decodeParameter(entry)
			if ok {
				cur.Parameters = append(cur.Parameters, p)
			}
		}
	}

	in.subprograms = subs
	return subs, nil
}

// highPCValue handles the two DWARF encodings of DW_AT_high_pc: an absolute
// address (older form, class Address) or an offset from low_pc (DWARF4+,
// class Constant).
func highPCValue(f *dwarf.Field, lowPC uint64) (uint64, error) {
	switch v := f.Val.(type) {
	case uint64:
		if f.Class == dwarf.ClassConstant {
			return lowPC + v, nil
		}
		return v, nil
	case int64:
		return lowPC + uint64(v), nil
	default:
		return 0, fmt.Errorf("dwarfinfo: unsupported high_pc value type %T", v)
	}
}

func decodeParameter(entry *dwarf.Entry) (Parameter, bool) {
	name, _ := entry.Val(dwarf.AttrName).(string)
	if name == "" {
		return Parameter{}, false
	}
	p := Parameter{Name: name}

	if tf := entry.AttrField(dwarf.AttrType); tf != nil {
		if off, ok := tf.Val.(dwarf.Offset); ok {
			p.TypeOffset = uint64(off)
		}
	}

	locF := entry.AttrField(dwarf.AttrLocation)
	if locF == nil {
		return p, true
	}
	switch locF.Class {
	case dwarf.ClassLocListPtr:
		off, ok := locF.Val.(int64)
		if !ok {
			return p, true
		}
		p.IsLocList = true
		p.LocListOffset = off
	case dwarf.ClassExprLoc:
		expr, ok := locF.Val.([]byte)
		if !ok {
			return p, true
		}
		p.Location = expr
	}
	return p, true
}

// findSubprogram locates the innermost-enclosing subprogram for addr
// (spec.md §4.2.3a: "the outermost DW_TAG_subprogram depth" — Go-compiled
// binaries never nest subprograms, so outermost and innermost coincide).
func (in *Interpreter) findSubprogram(addr uint64) (Subprogram, error) {
	subs, err := in.subprogramsOnce()
	if err != nil {
		return Subprogram{}, err
	}
	for _, s := range subs {
		if s.Contains(addr) {
			return s, nil
		}
	}
	return Subprogram{}, ErrSubprogramNotFound
}

func (s Subprogram) parameter(name string) (Parameter, error) {
	for _, p := range s.Parameters {
		if p.Name == name {
			return p, nil
		}
	}
	return Parameter{}, ErrParameterNotFound
}
