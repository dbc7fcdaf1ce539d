// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package codegen converts parsed Uprobe/Define records into the C and
// Python code fragments that the renderer later stitches into one eBPF
// host program (spec.md §4.4, "ContextBuilder").
package codegen

import "errors"

// ErrMissingExtra is returned when a Define requires a render extra that
// was not supplied, e.g. Stack requiring "sym_pid" (spec.md §3's
// invariant: "A Stack define requires sym_pid in the render extras;
// otherwise construction fails.").
var ErrMissingExtra = errors.New("codegen: missing required extra")
