// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dwarfinfo

// Subprogram is a decoded DW_TAG_subprogram DIE: a function's PC range and
// its formal parameters, enough to resolve a variable by name at a given
// instruction address (spec.md §3, "Subprogram").
type Subprogram struct {
	Name       string
	LowPC      uint64
	HighPC     uint64
	Parameters []Parameter
}

// Contains reports whether addr falls within the subprogram's PC range.
func (s Subprogram) Contains(addr uint64) bool {
	return s.LowPC <= addr && addr < s.HighPC
}

// Parameter is a decoded DW_TAG_formal_parameter DIE.
type Parameter struct {
	Name string
	// TypeOffset is the byte offset of the parameter's type DIE within
	// .debug_info, used to start a member chase.
	TypeOffset uint64
	// Location is the raw DW_AT_location attribute: either an inline
	// DWARF expression (LocExpr) or a reference into .debug_loc
	// (LocListOffset, IsLocList true).
	Location      []byte
	LocListOffset int64
	IsLocList     bool
}

// TypeKind tags the Type sum type (spec.md §3, "Type").
type TypeKind int

const (
	TypeBase TypeKind = iota
	TypePointer
	TypeStructure
)

// Member is one field of a structure Type.
type Member struct {
	Name   string
	Offset int64
	// TypeOffset is the byte offset of the member's type DIE.
	TypeOffset uint64
}

// Type is a decoded type DIE, lazily built and cached by the interpreter
// keyed by its .debug_info byte offset (spec.md §3, "Type").
type Type struct {
	Kind TypeKind
	Name string

	// Pointer-only: the offset of the pointee's type DIE.
	PointeeOffset uint64
	HasPointee    bool

	// Structure-only.
	Members  []Member
	ByteSize int64
}
