// Copyright 2014 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "uprobec",
	Short: "compile a trace DSL program into an eBPF uprobe host program",
}

func init() {
	rootCmd.AddCommand(compileCmd)
}
