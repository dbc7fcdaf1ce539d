// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dwarfinfo

import (
	"debug/dwarf"
	"fmt"
)

// typeAt decodes (and caches) the Type DIE at the given .debug_info byte
// offset (spec.md §3, "Type", "built lazily and cached keyed by
// (debug_file, dwarf-section-flags)" — here keyed simply by offset, since
// one Interpreter already corresponds to a single debug file).
func (in *Interpreter) typeAt(offset uint64) (*Type, error) {
	in.mu.Lock()
	if t, ok := in.typesByOff[offset]; ok {
		in.mu.Unlock()
		return t, nil
	}
	in.mu.Unlock()

	return in.decodeTypeEntry(offset)
}

// decodeTypeEntry reads the raw DIE at offset directly (rather than via
// dwarf.Data.Type, whose dwarf.Type tree does not expose member byte
// offsets in the shape this chase needs) and converts it to our Type.
func (in *Interpreter) decodeTypeEntry(offset uint64) (*Type, error) {
	r := in.dw.Reader()
	r.Seek(dwarf.Offset(offset))
	entry, err := r.Next()
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, fmt.Errorf("dwarfinfo: no DIE at offset %d", offset)
	}

	name, _ := entry.Val(dwarf.AttrName).(string)
	t := &Type{Name: name}

	switch entry.Tag {
	case dwarf.TagPointerType:
		t.Kind = TypePointer
		if tf := entry.AttrField(dwarf.AttrType); tf != nil {
			if off, ok := tf.Val.(dwarf.Offset); ok {
				t.PointeeOffset = uint64(off)
				t.HasPointee = true
			}
		}

	case dwarf.TagStructType:
		t.Kind = TypeStructure
		if sz, ok := entry.Val(dwarf.AttrByteSize).(int64); ok {
			t.ByteSize = sz
		}
		members, err := in.structureMembers(r)
		if err != nil {
			return nil, err
		}
		t.Members = members

	default:
		t.Kind = TypeBase
	}

	in.mu.Lock()
	in.typesByOff[offset] = t
	in.mu.Unlock()
	return t, nil
}

// structureMembers reads the DW_TAG_member children immediately following
// a structure DIE that the reader r has just produced.
func (in *Interpreter) structureMembers(r *dwarf.Reader) ([]Member, error) {
	var members []Member
	for {
		entry, err := r.Next()
		if err != nil {
			return nil, err
		}
		// A null entry (Tag 0) terminates the struct's child list.
		if entry == nil || entry.Tag == 0 {
			break
		}
		if entry.Tag != dwarf.TagMember {
			if entry.Children {
				r.SkipChildren()
			}
			continue
		}
		name, _ := entry.Val(dwarf.AttrName).(string)
		off, _ := entry.Val(dwarf.AttrDataMemberLoc).(int64)
		var typeOff uint64
		if tf := entry.AttrField(dwarf.AttrType); tf != nil {
			if o, ok := tf.Val.(dwarf.Offset); ok {
				typeOff = uint64(o)
			}
		}
		members = append(members, Member{Name: name, Offset: off, TypeOffset: typeOff})
	}
	return members, nil
}

// chaseMembers implements spec.md §4.2.4: walk a dotted member path from a
// starting type, appending dereference ("*") and offset ("+N*") tokens to
// loc as it goes, guarding against cyclic type graphs.
func (in *Interpreter) chaseMembers(loc string, typeOffset uint64, path []string) (string, error) {
	visited := make(map[uint64]bool)
	for _, name := range path {
		for {
			if visited[typeOffset] {
				return "", ErrCyclicType
			}
			visited[typeOffset] = true

			t, err := in.typeAt(typeOffset)
			if err != nil {
				return "", err
			}
			if t.Kind == TypePointer {
				if !t.HasPointee {
					return "", fmt.Errorf("%w: pointer type has no pointee", ErrMemberNotFound)
				}
				loc += "*"
				typeOffset = t.PointeeOffset
				continue
			}
			if t.Kind != TypeStructure {
				return "", fmt.Errorf("%w: %q is not a structure", ErrMemberNotFound, t.Name)
			}

			var found *Member
			for i := range t.Members {
				if t.Members[i].Name == name {
					found = &t.Members[i]
					break
				}
			}
			if found == nil {
				return "", fmt.Errorf("%w: %q", ErrMemberNotFound, name)
			}
			loc += signedOffset(found.Offset) + "*"
			typeOffset = found.TypeOffset
			break
		}
	}
	return loc, nil
}
