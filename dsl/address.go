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

// AddressKind distinguishes the three surface forms a probe address can
// take in the DSL (spec.md §3, "Address").
type AddressKind int

const (
	// AddressLiteral is a bare numeric address: *0xHEX.
	AddressLiteral AddressKind = iota
	// AddressFileLine is a file-suffix:lineno pair: main.go:42.
	AddressFileLine
	// AddressFunction is a fully-qualified function name: pkg.Func.
	AddressFunction
)

// literalAddrPat tightens spec.md §9's flagged `^[x0-9a-z]+$` typo to the
// obvious intent: a lowercase 0x-prefixed hex literal.
var literalAddrPat = regexp.MustCompile(`^0x[0-9a-f]+$`)

// fileLinePat recognizes "suffix:line", e.g. "main.go:42" or "pkg/foo.go:7".
var fileLinePat = regexp.MustCompile(`^(.+):(\d+)$`)

// funcRegexSuffix marks a function-name address as a regex attach point
// (spec_full.md §3's "/re" modifier, grounded on ranranru's sym_re attach
// type in bcc/render_context.py).
const funcRegexSuffix = "/re"

// Address is one probe site's location, in its original textual form plus
// enough structure to dispatch resolution without re-parsing.
type Address struct {
	Kind AddressKind

	// Raw is the address text as written, after stripping the literal's
	// leading '*' and any "/re" suffix.
	Raw string

	// Literal fields (AddressLiteral only).
	LiteralHex string // lowercase hex digits, no "0x" prefix

	// File:line fields (AddressFileLine only).
	FileSuffix string
	Line       int

	// Function fields (AddressFunction only).
	FuncName string
	Regex    bool
}

// ParseAddress classifies raw probe-address text into an Address. Exactly
// one form must match; this function never returns an ambiguous Address.
func ParseAddress(text string) (Address, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Address{}, fmt.Errorf("%w: empty address", ErrInvalidAddress)
	}

	if strings.HasPrefix(text, "*") {
		lit := strings.TrimSpace(text[1:])
		if lit == "" {
			return Address{}, fmt.Errorf("%w: empty literal address", ErrInvalidAddress)
		}
		if !literalAddrPat.MatchString(lit) {
			return Address{}, fmt.Errorf("%w: %q is not a lowercase 0x-hex literal", ErrInvalidAddress, lit)
		}
		return Address{
			Kind:       AddressLiteral,
			Raw:        lit,
			LiteralHex: strings.TrimPrefix(lit, "0x"),
		}, nil
	}

	regex := false
	if strings.HasSuffix(text, funcRegexSuffix) {
		regex = true
		text = strings.TrimSuffix(text, funcRegexSuffix)
	}

	if m := fileLinePat.FindStringSubmatch(text); m != nil {
		if regex {
			return Address{}, fmt.Errorf("%w: file:line addresses cannot carry /re", ErrInvalidAddress)
		}
		line, err := strconv.Atoi(m[2])
		if err != nil {
			return Address{}, fmt.Errorf("%w: bad line number in %q: %v", ErrInvalidAddress, text, err)
		}
		return Address{
			Kind:       AddressFileLine,
			Raw:        text,
			FileSuffix: m[1],
			Line:       line,
		}, nil
	}

	return Address{
		Kind:     AddressFunction,
		Raw:      text,
		FuncName: text,
		Regex:    regex,
	}, nil
}

// HexAddress formats a resolved numeric address the way spec.md §3
// requires: lowercase "0x"-prefixed hex.
func HexAddress(addr uint64) string {
	return fmt.Sprintf("0x%x", addr)
}

func (a Address) String() string {
	switch a.Kind {
	case AddressLiteral:
		return "*0x" + a.LiteralHex
	case AddressFileLine:
		return fmt.Sprintf("%s:%d", a.FileSuffix, a.Line)
	default:
		s := a.FuncName
		if a.Regex {
			s += funcRegexSuffix
		}
		return s
	}
}
