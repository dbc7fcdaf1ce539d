// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package codegen

import (
	"fmt"

	"github.com/uprobec/uprobec/dsl"
)

// Extras carries the render-time key/value pairs spec.md §6 calls out
// (sym_pid, real_target, dwarf_path_prefix), passed through from the CLI's
// "-e K=V,K=V" flag.
type Extras map[string]string

// Generate dispatches a single Define to its code generator, following the
// table in spec.md §4.4. location is the starting register of a Peek define
// in "$reg" form (e.g. "$sp"), which becomes a ctx->reg access; it is
// ignored for the other kinds.
func Generate(d dsl.Define, location string, extras Extras) (UprobeContext, error) {
	switch d.Kind {
	case dsl.DefinePid:
		return UprobeContext{
			CData:      "u32 pid;",
			CCallback:  "data.pid = bpf_get_current_pid_tgid() >> 32;",
			PyData:     `("pid", ctypes.c_uint32),`,
			PyCallback: fmt.Sprintf("%s = event.pid", d.Varname),
		}, nil

	case dsl.DefineTid:
		return UprobeContext{
			CData:      "u32 tid;",
			CCallback:  "data.tid = bpf_get_current_pid_tgid() & 0xffffffff;",
			PyData:     `("tid", ctypes.c_uint32),`,
			PyCallback: fmt.Sprintf("%s = event.tid", d.Varname),
		}, nil

	case dsl.DefineComm:
		return UprobeContext{
			CData:      "char comm[16];",
			CCallback:  "bpf_get_current_comm(&data.comm, sizeof(data.comm));",
			PyData:     `("comm", ctypes.c_char * 16),`,
			PyCallback: fmt.Sprintf("%s = event.comm.decode()", d.Varname),
		}, nil

	case dsl.DefineStack:
		return generateStack(d, extras)

	case dsl.DefinePeek:
		return generatePeek(d, location)

	default:
		return UprobeContext{}, fmt.Errorf("codegen: unhandled define kind %v", d.Kind)
	}
}

// generateStack implements the Stack row of spec.md §4.4's table: a
// per-probe BPF_STACK_TRACE table (scoped by uprobe idx so sibling probes
// never collide) and symbolization of the captured stack via b.sym, which
// requires "sym_pid" in the render extras (spec.md §3's Stack invariant).
func generateStack(d dsl.Define, extras Extras) (UprobeContext, error) {
	symPid, ok := extras["sym_pid"]
	if !ok {
		return UprobeContext{}, fmt.Errorf("%w: sym_pid required for Stack define", ErrMissingExtra)
	}

	table := fmt.Sprintf("stack_trace%d", d.UprobeIdx)
	pyCallback := fmt.Sprintf(
		"syms = []\nfor addr in b.get_table('%s').walk(event.stack_id):\n    sym = b.sym(addr, %s, show_module=True, show_offset=True)\n    syms.append(sym.decode())\n%s = '\\n'.join(syms)",
		table, symPid, d.Varname,
	)

	return UprobeContext{
		CData:      "int stack_id;",
		CGlobal:    fmt.Sprintf("BPF_STACK_TRACE(%s, 128);", table),
		CCallback:  fmt.Sprintf("data.stack_id = %s.get_stackid(ctx, BPF_F_USER_STACK);", table),
		PyData:     `("stack_id", ctypes.c_int),`,
		PyCallback: pyCallback,
	}, nil
}

// castCDecl and castPyInfo implement spec.md §4.4's cast-type table.
var castCDecl = map[dsl.CastType]string{
	dsl.CastStr:     "char peek%d[128];",
	dsl.CastInt64:   "u64 peek%d;",
	dsl.CastInt32:   "u32 peek%d;",
	dsl.CastInt8:    "u8 peek%d;",
	dsl.CastFloat64: "double peek%d;",
}

var castPyInfo = map[dsl.CastType]string{
	dsl.CastStr:     "ctypes.c_char * 128",
	dsl.CastInt64:   "ctypes.c_int64",
	dsl.CastInt32:   "ctypes.c_int32",
	dsl.CastInt8:    "ctypes.c_int8",
	dsl.CastFloat64: "ctypes.c_double",
}

func generatePeek(d dsl.Define, location string) (UprobeContext, error) {
	cDecl, ok := castCDecl[d.Cast]
	if !ok {
		return UprobeContext{}, fmt.Errorf("codegen: unknown peek cast %q", d.Cast)
	}
	pyType, ok := castPyInfo[d.Cast]
	if !ok {
		return UprobeContext{}, fmt.Errorf("codegen: unknown peek cast %q", d.Cast)
	}

	callback := GeneratePeekCallback(d.Idx, d.Ops, location)

	return UprobeContext{
		CData:      fmt.Sprintf(cDecl, d.Idx),
		CCallback:  callback,
		PyData:     fmt.Sprintf(`("peek%d", %s),`, d.Idx, pyType),
		PyCallback: fmt.Sprintf("%s = event.peek%d", d.Varname, d.Idx),
	}, nil
}
