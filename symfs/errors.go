// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package symfs owns the concurrency and resource model spec.md §5
// describes: a short-lived symbolization helper that mirrors the tracee
// binary under BCC_SYMFS, the compiled eBPF host-program child, and the
// signal-proxy loop between them.
package symfs

import "errors"

// ErrNotSpawned is returned when a Helper's or HostProgram's pid is
// queried, a Helper's SetupSymfs runs, or a HostProgram is waited on,
// before Spawn has run (spec.md §5's resource policy:
// "child-process helpers exclusively own their pid state and fail if
// queried before spawn()").
var ErrNotSpawned = errors.New("symfs: process not spawned")
