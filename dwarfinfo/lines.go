// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dwarfinfo

import (
	"debug/dwarf"
	"io"
	"strings"
)

// AddressByFileLine implements dsl.AddressResolver (spec.md §4.2.2): find
// the first executable statement in fileSuffix at the given line number.
//
// Two passes over the compile units, as spec.md describes: first collect
// every distinct filename ending in fileSuffix across all units (more than
// one distinct name is ambiguous, zero is not found); second, scan line
// programs for the requested line within a matching file.
func (in *Interpreter) AddressByFileLine(fileSuffix string, line int) (uint64, error) {
	names, err := in.matchingFilenames(fileSuffix)
	if err != nil {
		return 0, err
	}
	switch len(names) {
	case 0:
		return 0, ErrFileNotFound
	case 1:
		// fall through to the address scan below
	default:
		return 0, ErrAmbiguousFilename
	}

	r := in.dw.Reader()
	for {
		entry, err := r.Next()
		if err != nil {
			return 0, err
		}
		if entry == nil {
			break
		}
		if entry.Tag != dwarf.TagCompileUnit {
			continue
		}
		lr, err := in.dw.LineReader(entry)
		if err != nil {
			r.SkipChildren()
			continue
		}
		var le dwarf.LineEntry
		for {
			if err := lr.Next(&le); err == io.EOF {
				break
			} else if err != nil {
				return 0, err
			}
			if le.File == nil || !strings.HasSuffix(le.File.Name, fileSuffix) {
				continue
			}
			if le.Line != line {
				continue
			}
			if !le.IsStmt {
				continue
			}
			return le.Address, nil
		}
		r.SkipChildren()
	}
	return 0, ErrFileNotFound
}

func (in *Interpreter) matchingFilenames(fileSuffix string) ([]string, error) {
	seen := make(map[string]bool)
	r := in.dw.Reader()
	for {
		entry, err := r.Next()
		if err != nil {
			return nil, err
		}
		if entry == nil {
			break
		}
		if entry.Tag != dwarf.TagCompileUnit {
			continue
		}
		lr, err := in.dw.LineReader(entry)
		if err != nil {
			r.SkipChildren()
			continue
		}
		var le dwarf.LineEntry
		for {
			if err := lr.Next(&le); err == io.EOF {
				break
			} else if err != nil {
				return nil, err
			}
			if le.File != nil && strings.HasSuffix(le.File.Name, fileSuffix) {
				seen[le.File.Name] = true
			}
		}
		r.SkipChildren()
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	return names, nil
}
