// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package symfs

import (
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sys/unix"
)

// ProxySignals forwards every signal the calling process receives to pid,
// until the host program exits, giving transparent signal proxying: SIGINT
// and SIGTERM at the CLI propagate to the eBPF host program (spec.md §5).
// The child is reaped by HostProgram.Wait (there is no portable
// sigwaitinfo-plus-SIGCHLD equivalent at the os/signal level), so this loop
// simply exits once the caller closes done after Wait returns.
func ProxySignals(pid int, done <-chan struct{}) {
	ch := make(chan os.Signal, 8)
	signal.Notify(ch)
	defer signal.Stop(ch)

	for {
		select {
		case sig := <-ch:
			s, ok := sig.(syscall.Signal)
			if !ok || s == syscall.SIGCHLD {
				continue
			}
			unix.Kill(pid, unix.Signal(s))
		case <-done:
			return
		}
	}
}
