// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package symfs

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"

	"golang.org/x/sys/unix"
)

// Helper is the short-lived symbolization process spec.md §5 describes: it
// is spawned under PTRACE_TRACEME (so it stops at its own exec trap without
// ever really running) purely so its existence as a live process lets a
// cached copy of the tracee binary sit under BCC_SYMFS for kernel stack
// symbolization, grounded on gotrace/bcc/sym.py's Process.from_pathname and
// the teacher's own dedicated ptrace handling (program/server/ptrace.go).
type Helper struct {
	symPathname string // the debug binary providing symbols
	cmd         *exec.Cmd
	mirrorPath  string
}

// NewHelper constructs a Helper that will exec symPathname under ptrace.
func NewHelper(symPathname string) *Helper {
	return &Helper{symPathname: symPathname}
}

// Spawn forks and execs the symbol binary with PTRACE_TRACEME set, so the
// process stops at the exec trap instead of actually running.
func (h *Helper) Spawn() error {
	cmd := exec.Command(h.symPathname)
	cmd.SysProcAttr = &syscall.SysProcAttr{Ptrace: true}
	cmd.Stdin, cmd.Stdout, cmd.Stderr = nil, io.Discard, io.Discard
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("symfs: spawn symbol helper: %w", err)
	}
	h.cmd = cmd
	return nil
}

// Pid returns the helper's pid. It fails if Spawn has not run.
func (h *Helper) Pid() (int, error) {
	if h.cmd == nil || h.cmd.Process == nil {
		return 0, ErrNotSpawned
	}
	return h.cmd.Process.Pid, nil
}

// SetupSymfs copies the tracee binary (which may differ from the symbol
// binary — SPEC_FULL.md §3's "tracee:sym-tracee" pair) into /tmp, mirroring
// its original absolute path, so BCC_SYMFS=/tmp resolves it during kernel
// stack symbolization.
func (h *Helper) SetupSymfs(traceePathname string) error {
	if h.cmd == nil {
		return ErrNotSpawned
	}
	mirror := filepath.Join("/tmp", filepath.Clean(traceePathname))
	if err := os.MkdirAll(filepath.Dir(mirror), 0o755); err != nil {
		h.killAndWait()
		return fmt.Errorf("symfs: mkdir symfs mirror dir: %w", err)
	}
	if err := copyFile(traceePathname, mirror); err != nil {
		h.killAndWait()
		return fmt.Errorf("symfs: copy tracee into symfs: %w", err)
	}
	h.mirrorPath = mirror
	return nil
}

// Teardown kills and reaps the helper and removes the cached symfs mirror.
// It is safe to call even if SetupSymfs never completed.
func (h *Helper) Teardown() {
	h.killAndWait()
	if h.mirrorPath != "" {
		os.Remove(h.mirrorPath)
	}
}

func (h *Helper) killAndWait() {
	pid, err := h.Pid()
	if err != nil {
		return
	}
	unix.Kill(pid, unix.SIGKILL)
	h.cmd.Wait()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o755)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
