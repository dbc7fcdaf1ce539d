// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package introspect discovers which injectable "magic" variables a user
// callback script references (spec.md §4.3, "ScriptIntrospector").
//
// The original relies on repeatedly exec'ing the script in a sandbox and
// catching NameError; a systems-language rewrite has no in-process
// evaluator for the callback language, so this package follows spec.md
// §9's recommended re-architecture: a small lexer classifies the script's
// free identifiers statically, and each one is checked against the set of
// variable names the probe's Define list actually bound.
package introspect

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidVar is returned when the script references an identifier
	// that is neither a known builtin nor a bound Define varname.
	ErrInvalidVar = errors.New("introspect: unregistered variable")
	// ErrInvalidScript is returned when the script cannot be tokenized at
	// all (e.g. an unterminated string literal).
	ErrInvalidScript = errors.New("introspect: malformed script")
)

// builtins are callback-language names that never need injection: Python
// builtins the original runtime exposed to every script unconditionally.
var builtins = map[string]bool{
	"print": true, "str": true, "int": true, "float": true,
	"len": true, "range": true, "True": true, "False": true, "None": true,
}

// References returns the ordered, de-duplicated list of free identifiers
// script refers to that are not builtins, validating each one against
// bound (typically a probe's Define varnames). Names after a '.' and names
// immediately followed by '(' are skipped, not checked. The first other
// unbound, non-builtin identifier encountered fails with ErrInvalidVar.
func References(script string, bound map[string]bool) ([]string, error) {
	toks, err := tokenize(script)
	if err != nil {
		return nil, err
	}

	var refs []string
	seen := make(map[string]bool)
	for i, tok := range toks {
		if tok.kind != tokIdent {
			continue
		}
		if isAttributeAccess(toks, i) || isCallName(toks, i) || builtins[tok.text] {
			continue
		}
		if !bound[tok.text] {
			return nil, fmt.Errorf("%w: %q", ErrInvalidVar, tok.text)
		}
		if !seen[tok.text] {
			seen[tok.text] = true
			refs = append(refs, tok.text)
		}
	}
	return refs, nil
}

// isAttributeAccess reports whether toks[i] is a method/attribute name
// following a '.', e.g. the "decode" in "event.comm.decode()" — never a
// free variable reference.
func isAttributeAccess(toks []token, i int) bool {
	return i > 0 && toks[i-1].kind == tokPunct && toks[i-1].text == "."
}

// isCallName reports whether toks[i] is immediately followed by '(', i.e.
// it names a function being called rather than a bare variable reference.
func isCallName(toks []token, i int) bool {
	return i+1 < len(toks) && toks[i+1].kind == tokPunct && toks[i+1].text == "("
}
