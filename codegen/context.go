// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package codegen

import "strings"

// UprobeContext is the per-probe bundle of generated code fragments
// (spec.md §3, "UprobeContext"): five code-fragment buffers plus the
// probe's index, tracee binary path and resolved numeric address.
type UprobeContext struct {
	Idx          int
	TraceeBinary string
	Address      string
	AttachUprobe string
	AttachRegex  bool

	CGlobal    string
	CData      string
	CCallback  string
	PyData     string
	PyCallback string
}

// Merge appends other's fragments to c's, newline-separated, matching
// UprobeContext.merge in the original (each fragment trimmed of trailing
// whitespace after joining).
func (c *UprobeContext) Merge(other UprobeContext) {
	c.CGlobal = joinTrim(c.CGlobal, other.CGlobal)
	c.CData = joinTrim(c.CData, other.CData)
	c.CCallback = joinTrim(c.CCallback, other.CCallback)
	c.PyData = joinTrim(c.PyData, other.PyData)
	c.PyCallback = joinTrim(c.PyCallback, other.PyCallback)
}

func joinTrim(a, b string) string {
	if a == "" {
		return strings.TrimRight(b, " \t\n")
	}
	if b == "" {
		return strings.TrimRight(a, " \t\n")
	}
	return strings.TrimRight(a+"\n"+b, " \t\n")
}
