// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uprobec/uprobec/codegen"
)

func TestAttachExprAddress(t *testing.T) {
	assert.Equal(t, "addr=0xdeadbeef", attachExpr("0xdeadbeef", false))
}

func TestAttachExprSymbol(t *testing.T) {
	assert.Equal(t, "sym='main.Func'", attachExpr("main.Func", false))
}

func TestAttachExprSymbolRegex(t *testing.T) {
	assert.Equal(t, "sym=r'main\\..*'", attachExpr("main\\..*", true))
}

func TestAttachExprRejectsNonHexAddressLookingString(t *testing.T) {
	// SPEC_FULL.md §4: tightened regex must not treat bare "x" strings as
	// addresses the way the original's "^[x0-9a-z]+$" buggy pattern did.
	assert.Equal(t, "sym='xxxx'", attachExpr("xxxx", false))
}

func TestRenderSingleProbe(t *testing.T) {
	global := codegen.NewGlobalContext()
	global.CHeaders["linux/sched.h"] = true
	global.PyImports["time"] = true

	probes := []codegen.UprobeContext{
		{
			Idx:          0,
			TraceeBinary: "/bin/tracee",
			AttachUprobe: "0xdeadbeef",
			CData:        "u32 pid;",
			CCallback:    "data.pid = bpf_get_current_pid_tgid() >> 32;",
			PyData:       `("pid", ctypes.c_uint32),`,
			PyCallback:   "pid = event.pid",
		},
	}

	out, err := Render(global, probes)
	require.NoError(t, err)
	assert.Contains(t, out, "#include <linux/sched.h>")
	assert.Contains(t, out, "import time")
	assert.Contains(t, out, "u32 pid;")
	assert.Contains(t, out, `b.attach_uprobe(name="/bin/tracee", addr=0xdeadbeef, fn_name="uprobe_0")`)
	assert.Contains(t, out, `("pid", ctypes.c_uint32),`)
	assert.Contains(t, out, "pid = event.pid")
}

func TestRenderMultipleProbesScopeDataStructsSeparately(t *testing.T) {
	// spec.md §8 scenario 4 calls out stack_trace<i> never colliding across
	// probes; the same reasoning applies to every fixed-name define (pid,
	// tid, comm, stack_id) and to peek<idx>, since Peek's idx resets per
	// probe. Two sibling probes that both bind $pid must not collide.
	global := codegen.NewGlobalContext()
	probes := []codegen.UprobeContext{
		{
			Idx: 0, TraceeBinary: "/bin/t", AttachUprobe: "main.A",
			CData: "u32 pid;", CCallback: "data.pid = bpf_get_current_pid_tgid() >> 32;",
			PyData: `("pid", ctypes.c_uint32),`, PyCallback: "a = event.pid",
		},
		{
			Idx: 1, TraceeBinary: "/bin/t", AttachUprobe: "main.B",
			CData: "u32 pid;", CCallback: "data.pid = bpf_get_current_pid_tgid() >> 32;",
			PyData: `("pid", ctypes.c_uint32),`, PyCallback: "b = event.pid",
		},
	}
	out, err := Render(global, probes)
	require.NoError(t, err)
	assert.Contains(t, out, "struct data0_t {")
	assert.Contains(t, out, "struct data1_t {")
	assert.Contains(t, out, "BPF_PERF_OUTPUT(events0);")
	assert.Contains(t, out, "BPF_PERF_OUTPUT(events1);")
	assert.Contains(t, out, "class Data0(ctypes.Structure):")
	assert.Contains(t, out, "class Data1(ctypes.Structure):")
	assert.Contains(t, out, `b["events0"].open_perf_buffer(print_event0)`)
	assert.Contains(t, out, `b["events1"].open_perf_buffer(print_event1)`)
	assert.NotContains(t, out, "struct data_t {")
}

func TestRenderIncludesCallbackScriptBody(t *testing.T) {
	// The user's script is appended to PyCallback by compiler.compileProbe
	// before rendering; assert the renderer actually emits it into the
	// generated program rather than dropping it.
	global := codegen.NewGlobalContext()
	probes := []codegen.UprobeContext{
		{
			Idx: 0, TraceeBinary: "/bin/t", AttachUprobe: "main.A",
			CData: "u32 pid;", CCallback: "data.pid = bpf_get_current_pid_tgid() >> 32;",
			PyData:     `("pid", ctypes.c_uint32),`,
			PyCallback: "pid = event.pid\n\nprint(pid)",
		},
	}
	out, err := Render(global, probes)
	require.NoError(t, err)
	assert.Contains(t, out, "pid = event.pid")
	assert.Contains(t, out, "print(pid)")
}

func TestRenderMultipleProbesPreservesOrder(t *testing.T) {
	global := codegen.NewGlobalContext()
	probes := []codegen.UprobeContext{
		{Idx: 0, TraceeBinary: "/bin/t", AttachUprobe: "main.A", CCallback: "data.a = 1;"},
		{Idx: 1, TraceeBinary: "/bin/t", AttachUprobe: "main.B", CCallback: "data.b = 2;"},
	}
	out, err := Render(global, probes)
	require.NoError(t, err)
	idxA := strings.Index(out, "uprobe_0")
	idxB := strings.Index(out, "uprobe_1")
	require.NotEqual(t, -1, idxA)
	require.NotEqual(t, -1, idxB)
	assert.Less(t, idxA, idxB)
}
