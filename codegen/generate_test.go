// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package codegen

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uprobec/uprobec/dsl"
)

func TestGeneratePid(t *testing.T) {
	ctx, err := Generate(dsl.Define{Kind: dsl.DefinePid, Varname: "p"}, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "u32 pid;", ctx.CData)
	assert.Equal(t, "data.pid = bpf_get_current_pid_tgid() >> 32;", ctx.CCallback)
	assert.Equal(t, `("pid", ctypes.c_uint32),`, ctx.PyData)
	assert.Equal(t, "p = event.pid", ctx.PyCallback)
}

func TestGenerateTid(t *testing.T) {
	ctx, err := Generate(dsl.Define{Kind: dsl.DefineTid, Varname: "t"}, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "u32 tid;", ctx.CData)
	assert.Equal(t, "data.tid = bpf_get_current_pid_tgid() & 0xffffffff;", ctx.CCallback)
	assert.Equal(t, `("tid", ctypes.c_uint32),`, ctx.PyData)
	assert.Equal(t, "t = event.tid", ctx.PyCallback)
}

func TestGenerateComm(t *testing.T) {
	ctx, err := Generate(dsl.Define{Kind: dsl.DefineComm, Varname: "c"}, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "char comm[16];", ctx.CData)
	assert.Equal(t, "bpf_get_current_comm(&data.comm, sizeof(data.comm));", ctx.CCallback)
	assert.Equal(t, `("comm", ctypes.c_char * 16),`, ctx.PyData)
	assert.Equal(t, "c = event.comm.decode()", ctx.PyCallback)
}

func TestGenerateStackRequiresSymPid(t *testing.T) {
	_, err := Generate(dsl.Define{Kind: dsl.DefineStack, Varname: "s", UprobeIdx: 0}, "", Extras{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingExtra))
}

func TestGenerateStackWithSymPid(t *testing.T) {
	ctx, err := Generate(
		dsl.Define{Kind: dsl.DefineStack, Varname: "s", UprobeIdx: 2},
		"",
		Extras{"sym_pid": "-1"},
	)
	require.NoError(t, err)
	assert.Equal(t, "int stack_id;", ctx.CData)
	assert.Equal(t, "BPF_STACK_TRACE(stack_trace2, 128);", ctx.CGlobal)
	assert.Equal(t, "data.stack_id = stack_trace2.get_stackid(ctx, BPF_F_USER_STACK);", ctx.CCallback)
	assert.Contains(t, ctx.PyCallback, "b.get_table('stack_trace2')")
	assert.Contains(t, ctx.PyCallback, "b.sym(addr, -1, show_module=True, show_offset=True)")
	assert.Contains(t, ctx.PyCallback, "s = '\\n'.join(syms)")
}

func TestGeneratePeekEachCast(t *testing.T) {
	cases := []struct {
		cast   dsl.CastType
		cDecl  string
		pyType string
	}{
		{dsl.CastStr, "char peek0[128];", "ctypes.c_char * 128"},
		{dsl.CastInt64, "u64 peek0;", "ctypes.c_int64"},
		{dsl.CastInt32, "u32 peek0;", "ctypes.c_int32"},
		{dsl.CastInt8, "u8 peek0;", "ctypes.c_int8"},
		{dsl.CastFloat64, "double peek0;", "ctypes.c_double"},
	}
	for _, c := range cases {
		d := dsl.Define{Kind: dsl.DefinePeek, Varname: "v", Idx: 0, Cast: c.cast, Register: "sp"}
		ctx, err := Generate(d, "$sp", nil)
		require.NoError(t, err)
		assert.Equal(t, c.cDecl, ctx.CData)
		assert.Equal(t, `("peek0", `+c.pyType+`),`, ctx.PyData)
		assert.Equal(t, "v = event.peek0", ctx.PyCallback)
		assert.Contains(t, ctx.CCallback, "ctx->sp")
	}
}

func TestGeneratePeekUnknownCast(t *testing.T) {
	d := dsl.Define{Kind: dsl.DefinePeek, Varname: "v", Cast: dsl.CastType("bogus"), Register: "sp"}
	_, err := Generate(d, "$sp", nil)
	require.Error(t, err)
}

// countBpfProbeRead counts the number of bpf_probe_read invocations in a
// generated callback, the testable property spec.md §8 calls out: "if the
// terminal op is '*', there are K+1 bpf_probe_read calls where K is the
// number of non-terminal '*' ops; if the terminal op is not '*', there are
// K (not K+1)."
func countBpfProbeRead(s string) int {
	return strings.Count(s, "bpf_probe_read(")
}

func TestGeneratePeekCallbackStarTerminal(t *testing.T) {
	ops := []dsl.PeekOp{{Deref: true}, {Offset: 8}, {Deref: true}}
	out := GeneratePeekCallback(0, ops, "$sp")
	assert.Equal(t, 2, countBpfProbeRead(out))
	assert.Contains(t, out, "data.peek0")
	assert.NotContains(t, out, "data.peek0 = ctx")
}

func TestGeneratePeekCallbackNonStarTerminal(t *testing.T) {
	ops := []dsl.PeekOp{{Deref: true}, {Offset: 8}}
	out := GeneratePeekCallback(0, ops, "$sp")
	assert.Equal(t, 1, countBpfProbeRead(out))
	assert.Contains(t, out, "data.peek0 = a00+8;")
}

func TestGeneratePeekCallbackNoOps(t *testing.T) {
	out := GeneratePeekCallback(3, nil, "$rdi")
	assert.Equal(t, 0, countBpfProbeRead(out))
	assert.Equal(t, "data.peek3 = ctx->rdi;", out)
}

func TestGeneratePeekCallbackDeclaresTempsOnlyWhenNeeded(t *testing.T) {
	out := GeneratePeekCallback(0, []dsl.PeekOp{{Offset: 8}}, "$sp")
	assert.NotContains(t, out, "void ")
	assert.Equal(t, "data.peek0 = ctx->sp+8;", out)
}

func TestUprobeContextMerge(t *testing.T) {
	c := UprobeContext{CData: "a"}
	c.Merge(UprobeContext{CData: "b", CCallback: "x"})
	assert.Equal(t, "a\nb", c.CData)
	assert.Equal(t, "x", c.CCallback)
}

func TestGlobalContextMerge(t *testing.T) {
	a := NewGlobalContext()
	a.CHeaders["foo.h"] = true
	b := NewGlobalContext()
	b.CHeaders["bar.h"] = true
	b.PyImports["ctypes"] = true
	a.Merge(b)
	assert.True(t, a.CHeaders["foo.h"])
	assert.True(t, a.CHeaders["bar.h"])
	assert.True(t, a.PyImports["ctypes"])
}
