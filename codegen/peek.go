// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package codegen

import (
	"fmt"
	"strings"

	"github.com/uprobec/uprobec/dsl"
)

// GeneratePeekCallback implements spec.md §4.4's peek code generation
// algorithm. idx is the define's index within its probe (used for the
// peek<idx> data field and a<idx><j> temporaries); ops is the parsed
// dereference/offset chain; location is the starting register location
// (e.g. "$di"), rewritten to a ctx-> field access.
func GeneratePeekCallback(idx int, ops []dsl.PeekOp, location string) string {
	pointer := "ctx->" + strings.TrimPrefix(location, "$")

	if len(ops) == 0 {
		return fmt.Sprintf("data.peek%d = %s;", idx, pointer)
	}

	var decls []string
	var lines []string

	for j, op := range ops[:len(ops)-1] {
		if op.Deref {
			tmp := fmt.Sprintf("a%d%d", idx, j)
			decls = append(decls, "*"+tmp)
			lines = append(lines, fmt.Sprintf(
				"bpf_probe_read(&%s, sizeof(%s), (void*)%s);", tmp, tmp, pointer))
			pointer = tmp
		} else {
			pointer = pointer + op.String()
		}
	}

	terminal := ops[len(ops)-1]
	if terminal.Deref {
		lines = append(lines, fmt.Sprintf(
			"bpf_probe_read(&data.peek%d, sizeof(data.peek%d), (void*)%s);", idx, idx, pointer))
	} else {
		pointer = pointer + terminal.String()
		lines = append(lines, fmt.Sprintf("data.peek%d = %s;", idx, pointer))
	}

	var out []string
	if len(decls) > 0 {
		out = append(out, "void "+strings.Join(decls, ", ")+";")
	}
	out = append(out, lines...)
	return strings.Join(out, "\n")
}
