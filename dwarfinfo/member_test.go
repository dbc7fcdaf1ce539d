// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dwarfinfo

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newFakeInterpreter builds an Interpreter whose type cache is pre-seeded,
// bypassing ELF/DWARF I/O entirely, to exercise chaseMembers in isolation
// (spec.md §4.2.4 and §9's cyclic-type-chase note).
func newFakeInterpreter(types map[uint64]*Type) *Interpreter {
	return &Interpreter{typesByOff: types}
}

func TestChaseMembersSimpleStruct(t *testing.T) {
	// struct Point { x int32 @0; y int32 @4 }, reached directly (no pointer).
	in := newFakeInterpreter(map[uint64]*Type{
		0x10: {
			Kind: TypeStructure,
			Members: []Member{
				{Name: "x", Offset: 0, TypeOffset: 0x20},
				{Name: "y", Offset: 4, TypeOffset: 0x20},
			},
		},
		0x20: {Kind: TypeBase, Name: "int32"},
	})

	got, err := in.chaseMembers("$di", 0x10, []string{"y"})
	require.NoError(t, err)
	assert.Equal(t, "$di+4*", got)
}

func TestChaseMembersThroughPointer(t *testing.T) {
	// param is *Point; Point has a member "next *Point". Chasing "next" once
	// dereferences the pointer, then adds the member's offset.
	in := newFakeInterpreter(map[uint64]*Type{
		0x05: {Kind: TypePointer, PointeeOffset: 0x10, HasPointee: true},
		0x10: {
			Kind: TypeStructure,
			Members: []Member{
				{Name: "next", Offset: 8, TypeOffset: 0x05},
			},
		},
	})

	got, err := in.chaseMembers("$di", 0x05, []string{"next"})
	require.NoError(t, err)
	assert.Equal(t, "$di*+8*", got)
}

func TestChaseMembersMissingMember(t *testing.T) {
	in := newFakeInterpreter(map[uint64]*Type{
		0x10: {Kind: TypeStructure, Members: []Member{{Name: "x", Offset: 0, TypeOffset: 0x20}}},
		0x20: {Kind: TypeBase},
	})

	_, err := in.chaseMembers("$di", 0x10, []string{"nope"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMemberNotFound))
}

func TestChaseMembersCycleDetected(t *testing.T) {
	// self-referential: Node.next points back at the same struct offset.
	in := newFakeInterpreter(map[uint64]*Type{
		0x10: {
			Kind: TypeStructure,
			Members: []Member{
				{Name: "next", Offset: 0, TypeOffset: 0x10},
			},
		},
	})

	_, err := in.chaseMembers("$di", 0x10, []string{"next", "next"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCyclicType))
}
